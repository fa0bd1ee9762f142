// Package orchestrator sequences the audit pipeline: file selection, the two
// surface scans, flow construction, authorization extraction, finding
// aggregation, chain composition and artifact rendering. The pipeline is
// deliberately single threaded; every stage consumes the previous stage's
// in-memory product and total runtime is dominated by file reads.
package orchestrator

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/lancet-cli/api/schemas"
	"github.com/xkilldash9x/lancet-cli/internal/analysis/authz"
	"github.com/xkilldash9x/lancet-cli/internal/analysis/flow"
	"github.com/xkilldash9x/lancet-cli/internal/analysis/index"
	"github.com/xkilldash9x/lancet-cli/internal/analysis/patterns"
	"github.com/xkilldash9x/lancet-cli/internal/cache"
	"github.com/xkilldash9x/lancet-cli/internal/chains"
	"github.com/xkilldash9x/lancet-cli/internal/config"
	"github.com/xkilldash9x/lancet-cli/internal/findings"
	"github.com/xkilldash9x/lancet-cli/internal/reporting"
	"github.com/xkilldash9x/lancet-cli/internal/scan"
	"github.com/xkilldash9x/lancet-cli/internal/srcfile"
)

// sanitizerDiscoveryCap bounds the sanitizer candidate list in the taint
// policy draft.
const sanitizerDiscoveryCap = 80

// artifactOrder is the fixed write order of the rendered documents. Cache
// replay follows the same order.
var artifactOrder = []string{
	reporting.FileEntries,
	reporting.FileSinks,
	reporting.FileTaintPolicy,
	reporting.FileFlowsBack,
	reporting.FileFlowsForward,
	reporting.FileAuthzModel,
	reporting.FileFindings,
	reporting.FileChains,
	reporting.FileReport,
}

// Outcome summarizes a completed run for the command layer.
type Outcome struct {
	// CacheHit is true when prior artifacts were replayed verbatim.
	CacheHit bool
	// Attention is true when any finding is Confirmed at critical or high
	// severity. It maps onto the distinguished exit status.
	Attention bool
	// FindingCount is the size of the final deduplicated findings list.
	FindingCount int
}

// Orchestrator runs one audit end to end.
type Orchestrator struct {
	cfg    config.AuditConfig
	logger *zap.Logger
	tab    *patterns.Table

	// now and newID are injectable for deterministic tests.
	now   func() time.Time
	newID func() string
}

// New builds an orchestrator for the given (already normalized) audit
// configuration.
func New(cfg config.AuditConfig, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		cfg:    cfg,
		logger: logger.Named("orchestrator"),
		tab:    patterns.Default(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Run executes the audit. A returned error means the run failed before the
// artifact set was complete; partial artifacts may exist on disk.
func (o *Orchestrator) Run() (*Outcome, error) {
	cfg := o.cfg
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}

	kinds := cfg.Kinds
	if len(kinds) == 0 {
		for _, k := range schemas.DefaultKinds() {
			kinds = append(kinds, string(k))
		}
	}
	kindSet := schemas.KindSet(kinds)

	focus := scan.ParseFocusPaths(cfg.FocusPaths, cfg.RepoRoot)
	files, err := scan.SelectFiles(cfg.RepoRoot, focus, cfg.Budget)
	if err != nil {
		return nil, err
	}
	o.logger.Info("file set selected",
		zap.Int("files", len(files)),
		zap.Int("budget", cfg.Budget),
		zap.Int("focus_paths", len(focus)))

	generatedAt := o.now().UTC().Format(time.RFC3339)
	params := reporting.Params{
		AuditID:     o.newID(),
		RepoRoot:    cfg.RepoRoot,
		OutputDir:   cfg.OutputDir,
		FocusPaths:  relativeFocus(focus, cfg.RepoRoot),
		Kinds:       kinds,
		Depth:       cfg.Depth,
		Budget:      cfg.Budget,
		Cache:       !cfg.NoCache,
		GeneratedAt: generatedAt,
	}

	sig := cache.Signature{
		RepoRoot:   cfg.RepoRoot,
		FocusPaths: focus,
		Kinds:      kinds,
		Depth:      cfg.Depth,
		Budget:     cfg.Budget,
	}
	state := cache.BuildFileState(cfg.RepoRoot, files)

	if !cfg.NoCache {
		if entry := cache.Load(cfg.OutputDir, o.logger); entry.Matches(sig, state) {
			return o.replay(cfg, entry)
		}
	}

	scanner := scan.New(cfg.RepoRoot, o.logger)
	entriesPayload := scanner.ScanEntries(files, cfg.Budget, generatedAt)
	sinksPayload := scanner.ScanSinks(files, cfg.Budget, generatedAt)
	o.logger.Info("surface scans complete",
		zap.Int("entry_hits", entriesPayload.TotalHits),
		zap.Int("sink_hits", sinksPayload.TotalHits))

	sources := entriesPayload.FlattenHits()
	sinks := sinksPayload.FlattenHits()

	idx := index.Build(cfg.RepoRoot, files, o.tab, o.logger)
	builder := flow.NewBuilder(cfg.RepoRoot, o.tab, o.logger)
	backward := builder.Backward(sinks, sources, idx, cfg.Depth, kindSet)
	forward := builder.Forward(sources, sinks, cfg.Depth, kindSet)
	model := authz.Scan(cfg.RepoRoot, files, o.tab, cfg.Budget, generatedAt, o.logger)
	findingsList := findings.Aggregate(backward, forward, model)
	chainsList := chains.Compose(findingsList)
	o.logger.Info("correlation complete",
		zap.Int("backward_flows", len(backward)),
		zap.Int("forward_flows", len(forward)),
		zap.Int("findings", len(findingsList)),
		zap.Int("chains", len(chainsList)))

	profile := buildProfile(files)
	sanitizers := o.discoverSanitizers(cfg.RepoRoot, files)

	rendered := map[string]string{
		reporting.FileEntries: reporting.RenderScanResults("Entry-point surface scan (entries)", params, entriesPayload),
		reporting.FileSinks:   reporting.RenderScanResults("Sensitive sink scan (sinks)", params, sinksPayload),
		reporting.FileTaintPolicy: reporting.RenderTaintPolicy(params, sources, sinks, kindSet,
			patterns.KindForSinkCategory, sanitizers),
		reporting.FileFlowsBack:    reporting.RenderBackwardFlows(params, backward),
		reporting.FileFlowsForward: reporting.RenderForwardFlows(params, forward),
		reporting.FileAuthzModel:   reporting.RenderAuthzModel(params, model),
		reporting.FileFindings:     reporting.RenderFindings(params, findingsList),
		reporting.FileChains:       reporting.RenderAttackChains(params, chainsList),
		reporting.FileReport:       reporting.RenderReport(params, findingsList, chainsList, profile),
	}
	for _, name := range artifactOrder {
		if err := reporting.WriteArtifact(cfg.OutputDir, name, rendered[name]); err != nil {
			return nil, err
		}
	}

	if cfg.SARIFPath != "" {
		if err := reporting.WriteSARIF(cfg.SARIFPath, findingsList); err != nil {
			return nil, err
		}
	}

	if !cfg.NoCache {
		entry := &cache.Entry{
			Version:     cache.Version,
			GeneratedAt: generatedAt,
			Signature:   sig,
			FileState:   state,
			Artifacts: cache.Artifacts{
				EntriesPayload: entriesPayload,
				SinksPayload:   sinksPayload,
				BackwardFlows:  backward,
				ForwardFlows:   forward,
				AuthzModel:     model,
				Findings:       findingsList,
				AttackChains:   chainsList,
				Rendered:       rendered,
			},
		}
		if err := cache.Store(cfg.OutputDir, entry); err != nil {
			// A failed store only costs the next run a recompute.
			o.logger.Warn("cache store failed", zap.Error(err))
		}
	}

	return &Outcome{
		Attention:    findings.AttentionRequired(findingsList),
		FindingCount: len(findingsList),
	}, nil
}

// replay rewrites the cached rendered artifacts verbatim and reproduces the
// prior run's outcome.
func (o *Orchestrator) replay(cfg config.AuditConfig, entry *cache.Entry) (*Outcome, error) {
	o.logger.Info("cache hit, replaying prior artifacts",
		zap.String("generated_at", entry.GeneratedAt))
	for _, name := range artifactOrder {
		content, ok := entry.Artifacts.Rendered[name]
		if !ok {
			// An incomplete rendered set means the entry predates an artifact
			// and cannot stand in for a full run.
			return nil, fmt.Errorf("cached artifact %s missing; rerun with --no-cache", name)
		}
		if err := reporting.WriteArtifact(cfg.OutputDir, name, content); err != nil {
			return nil, err
		}
	}
	if cfg.SARIFPath != "" {
		if err := reporting.WriteSARIF(cfg.SARIFPath, entry.Artifacts.Findings); err != nil {
			return nil, err
		}
	}
	return &Outcome{
		CacheHit:     true,
		Attention:    findings.AttentionRequired(entry.Artifacts.Findings),
		FindingCount: len(entry.Artifacts.Findings),
	}, nil
}

// relativeFocus shows focus paths repo-relative in artifact headers when
// they sit under the root; paths outside it stay absolute.
func relativeFocus(focus []string, repoRoot string) []string {
	out := make([]string, 0, len(focus))
	for _, p := range focus {
		if rel, err := filepath.Rel(repoRoot, p); err == nil && !strings.HasPrefix(rel, "..") {
			out = append(out, rel)
			continue
		}
		out = append(out, p)
	}
	return out
}

// buildProfile counts selected files per extension. Extensionless files are
// grouped under "<none>".
func buildProfile(files []string) *schemas.Profile {
	profile := &schemas.Profile{
		FileCount: len(files),
		Languages: make(map[string]int),
	}
	for _, f := range files {
		ext := strings.ToLower(filepath.Ext(f))
		if ext == "" {
			ext = "<none>"
		}
		profile.Languages[ext]++
	}
	return profile
}

// discoverSanitizers collects sanitizer-vocabulary lines across the file set
// for the taint policy draft, capped to keep the document reviewable.
func (o *Orchestrator) discoverSanitizers(repoRoot string, files []string) []string {
	var out []string
	for _, rel := range files {
		lines := srcfile.ReadLines(repoRoot, rel)
		for i, line := range lines {
			if !o.tab.MatchSanitizer(line) {
				continue
			}
			out = append(out, fmt.Sprintf("%s:%d | %s", rel, i+1, srcfile.Truncate(strings.TrimSpace(line), 150)))
			if len(out) >= sanitizerDiscoveryCap {
				return out
			}
		}
	}
	return out
}
