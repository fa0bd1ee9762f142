// Package cache implements the signature + content-hash incremental cache.
// A cache entry is one opaque unit: it is usable only when the parameter
// signature and the complete file-state map both compare exactly equal, and
// it is rewritten wholesale at the end of a successful run.
package cache

import (
	"crypto/sha1"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/lancet-cli/api/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Version guards the on-disk schema. A mismatch is a cache miss, not an
// error.
const Version = 1

// FileName is the cache file name inside the output directory. One cache
// entry per output directory, no history.
const FileName = "cache.json"

// Signature is the canonical snapshot of every run parameter that affects
// output. Slice order is significant: focus paths and kinds compare
// element-wise.
type Signature struct {
	RepoRoot   string   `json:"repo_root"`
	FocusPaths []string `json:"focus_paths"`
	Kinds      []string `json:"kinds"`
	Depth      int      `json:"depth"`
	Budget     int      `json:"budget"`
}

// FileState captures one tracked file.
type FileState struct {
	Size    int64  `json:"size"`
	MTimeNS int64  `json:"mtime"`
	SHA1    string `json:"sha1"`
}

// Artifacts is the full bundle persisted with a cache entry: the structured
// intermediate products plus every rendered document, keyed by file name.
// Keeping the structured forms means a future cache hit can still answer
// structured queries, not just replay text.
type Artifacts struct {
	EntriesPayload *schemas.ScanPayload   `json:"entries_payload"`
	SinksPayload   *schemas.ScanPayload   `json:"sinks_payload"`
	BackwardFlows  []schemas.Flow         `json:"backward_flows"`
	ForwardFlows   []schemas.ForwardFlow  `json:"forward_flows"`
	AuthzModel     *schemas.AuthzModel    `json:"authz_model"`
	Findings       []schemas.Finding      `json:"findings"`
	AttackChains   []schemas.AttackChain  `json:"attack_chains"`
	Rendered       map[string]string      `json:"rendered"`
}

// Entry is the persisted cache record.
type Entry struct {
	Version     int                  `json:"version"`
	GeneratedAt string               `json:"generated_at"`
	Signature   Signature            `json:"params_signature"`
	FileState   map[string]FileState `json:"file_state"`
	Artifacts   Artifacts            `json:"artifacts"`
}

// Load reads a prior cache entry. Any failure (absent file, parse error,
// version mismatch) returns nil, which callers treat as a miss.
func Load(outputDir string, logger *zap.Logger) *Entry {
	path := filepath.Join(outputDir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		logger.Warn("cache unreadable, forcing full recompute", zap.String("path", path), zap.Error(err))
		return nil
	}
	if entry.Version != Version {
		logger.Warn("cache schema mismatch, forcing full recompute",
			zap.Int("found", entry.Version), zap.Int("want", Version))
		return nil
	}
	return &entry
}

// Store overwrites the cache entry for the output directory.
func Store(outputDir string, entry *Entry) error {
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(outputDir, FileName), data, 0o644)
}

// Matches reports whether the entry's signature and complete file-state map
// equal the current run's values. Equality is whole-map: one changed,
// added or removed file invalidates everything.
func (e *Entry) Matches(sig Signature, state map[string]FileState) bool {
	if e == nil || !sameSignature(e.Signature, sig) {
		return false
	}
	if len(e.FileState) != len(state) {
		return false
	}
	for path, fs := range state {
		if e.FileState[path] != fs {
			return false
		}
	}
	return true
}

func sameSignature(a, b Signature) bool {
	if a.RepoRoot != b.RepoRoot || a.Depth != b.Depth || a.Budget != b.Budget {
		return false
	}
	if len(a.FocusPaths) != len(b.FocusPaths) || len(a.Kinds) != len(b.Kinds) {
		return false
	}
	for i := range a.FocusPaths {
		if a.FocusPaths[i] != b.FocusPaths[i] {
			return false
		}
	}
	for i := range a.Kinds {
		if a.Kinds[i] != b.Kinds[i] {
			return false
		}
	}
	return true
}

// BuildFileState stats and hashes every tracked file. Files that disappear
// or fail mid-walk are left out, mirroring the scanner's skip semantics.
func BuildFileState(repoRoot string, files []string) map[string]FileState {
	state := make(map[string]FileState, len(files))
	for _, rel := range files {
		abs := filepath.Join(repoRoot, rel)
		info, err := os.Stat(abs)
		if err != nil {
			continue
		}
		sum, err := hashFile(abs)
		if err != nil {
			continue
		}
		state[rel] = FileState{
			Size:    info.Size(),
			MTimeNS: info.ModTime().UnixNano(),
			SHA1:    sum,
		}
	}
	return state
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha1.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
