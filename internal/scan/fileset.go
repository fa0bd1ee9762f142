package scan

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ignoreDirs are directory names excluded from every walk.
var ignoreDirs = map[string]bool{
	".git": true, ".hg": true, ".svn": true,
	"node_modules": true, "dist": true, "build": true, "target": true,
	"vendor": true, "__pycache__": true, ".mypy_cache": true,
	".pytest_cache": true, ".idea": true, ".vscode": true,
	"out": true, ".audit": true,
}

// sourceExts is the extension allowlist for scannable files.
var sourceExts = map[string]bool{
	".py": true, ".js": true, ".jsx": true, ".ts": true, ".tsx": true,
	".go": true, ".java": true, ".kt": true,
	".c": true, ".cc": true, ".cpp": true, ".cxx": true, ".h": true, ".hpp": true,
	".rs": true, ".php": true, ".rb": true, ".swift": true, ".scala": true,
	".cs": true, ".sh": true,
	".yaml": true, ".yml": true, ".toml": true, ".ini": true,
	".json": true, ".xml": true,
}

// ParseFocusPaths resolves the raw --focus-path values (repeatable,
// comma-splittable) against the repo root. Entries that do not exist are
// silently dropped; duplicates are kept once, first occurrence wins.
func ParseFocusPaths(raw []string, repoRoot string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, value := range raw {
		for _, part := range strings.Split(value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			p := part
			if !filepath.IsAbs(p) {
				p = filepath.Join(repoRoot, p)
			}
			p = filepath.Clean(p)
			if _, err := os.Stat(p); err != nil {
				continue
			}
			if !seen[p] {
				out = append(out, p)
				seen[p] = true
			}
		}
	}
	return out
}

// isIgnored reports whether any path element under the repo root belongs to
// the ignore set. Paths outside the root are always ignored.
func isIgnored(path, repoRoot string) bool {
	rel, err := filepath.Rel(repoRoot, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return true
	}
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		if ignoreDirs[part] {
			return true
		}
	}
	return false
}

// SelectFiles walks the repo (or the focus paths) and returns the
// repo-relative paths of every scannable file, in deterministic walk order,
// up to budget files (0 = unlimited). The repo root must be a directory.
func SelectFiles(repoRoot string, focusPaths []string, budget int) ([]string, error) {
	info, err := os.Stat(repoRoot)
	if err != nil {
		return nil, fmt.Errorf("repo root %s: %w", repoRoot, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("repo root %s is not a directory", repoRoot)
	}

	roots := focusPaths
	if len(roots) == 0 {
		roots = []string{repoRoot}
	}

	var files []string
	for _, root := range roots {
		if budget > 0 && len(files) >= budget {
			break
		}
		st, err := os.Stat(root)
		if err != nil {
			continue
		}
		if !st.IsDir() {
			if sourceExts[strings.ToLower(filepath.Ext(root))] && !isIgnored(root, repoRoot) {
				if rel, err := filepath.Rel(repoRoot, root); err == nil {
					files = append(files, rel)
				}
			}
			continue
		}

		walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				// Unreadable subtrees are skipped, never fatal.
				return fs.SkipDir
			}
			if d.IsDir() {
				if ignoreDirs[d.Name()] || isIgnored(path, repoRoot) {
					return fs.SkipDir
				}
				return nil
			}
			if budget > 0 && len(files) >= budget {
				return fs.SkipAll
			}
			if !sourceExts[strings.ToLower(filepath.Ext(path))] || isIgnored(path, repoRoot) {
				return nil
			}
			rel, relErr := filepath.Rel(repoRoot, path)
			if relErr != nil {
				return nil
			}
			files = append(files, rel)
			return nil
		})
		if walkErr != nil {
			return nil, fmt.Errorf("walking %s: %w", root, walkErr)
		}
	}
	return files, nil
}
