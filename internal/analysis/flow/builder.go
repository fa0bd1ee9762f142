// Package flow implements the backward (sink-anchored) and forward
// (source-anchored) flow construction. All locality reasoning is
// line-number proximity and identifier-token overlap; there is no
// control-flow or data-flow graph behind any of it.
package flow

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/lancet-cli/api/schemas"
	"github.com/xkilldash9x/lancet-cli/internal/analysis/index"
	"github.com/xkilldash9x/lancet-cli/internal/analysis/patterns"
	"github.com/xkilldash9x/lancet-cli/internal/srcfile"
)

// Notes attached to backward flows. Fixed strings so artifacts stay
// comparable across runs.
const (
	NoteGlobalFallback = "no source found in the sink's window; the attached source is a global approximation"
	NoteNoCallSites    = "no call sites resolved; the function stack holds the sink's function only"
	NoteSanitizer      = "sanitizer detected nearby; verify it covers the sink argument"
	NoteGuard          = "guard/authz branch detected nearby; verify it applies to this path"
	NoteForwardWindow  = "forward tracing covers a same-file window and risky-call keywords; it corroborates backward flows and surfaces unclassified sinks"
)

const (
	guardRadius     = 8
	lineCapEvidence = 140
	maxCandidates   = 8
	maxVarOverlap   = 6
	maxVarSinkOnly  = 4
)

// Builder constructs flows against one repo checkout and pattern table.
type Builder struct {
	repoRoot string
	tab      *patterns.Table
	logger   *zap.Logger
}

// NewBuilder returns a flow builder.
func NewBuilder(repoRoot string, tab *patterns.Table, logger *zap.Logger) *Builder {
	return &Builder{repoRoot: repoRoot, tab: tab, logger: logger.Named("flow_builder")}
}

// Backward builds one sink-anchored flow per sink hit whose kind is
// enabled. Sinks are processed high severity first, then by file and line;
// downstream deduplication keeps the first-seen flow per location, so this
// ordering decides which flow survives.
func (b *Builder) Backward(sinks, sources []schemas.Hit, idx *index.Index, depth int, kinds map[schemas.TaintKind]bool) []schemas.Flow {
	prioritized := make([]schemas.Hit, len(sinks))
	copy(prioritized, sinks)
	sort.SliceStable(prioritized, func(i, j int) bool {
		si, sj := severityOrder(prioritized[i]), severityOrder(prioritized[j])
		if si != sj {
			return si < sj
		}
		if prioritized[i].File != prioritized[j].File {
			return prioritized[i].File < prioritized[j].File
		}
		return prioritized[i].Line < prioritized[j].Line
	})

	var flows []schemas.Flow
	for i, sink := range prioritized {
		// Flow ids follow the prioritized sink position, so skipped sinks
		// leave gaps. That keeps ids stable when kind filters change.
		flowID := fmt.Sprintf("BWD-%04d", i+1)

		kind := schemas.TaintKind(patterns.KindForSinkCategory(sink.Category))
		if !kinds[kind] {
			continue
		}
		lines := srcfile.ReadLines(b.repoRoot, sink.File)
		if lines == nil {
			b.logger.Debug("sink file unreadable, skipping", zap.String("file", sink.File))
			continue
		}

		nearby := nearbySources(sources, sink.File, sink.Line, depth)
		source := pickSource(nearby, sources)

		sinkLine := srcfile.LineAt(lines, sink.Line)
		sinkFunc := index.EnclosingFunction(lines, sink.Line, b.tab)

		stack := []string{fmt.Sprintf("%s:%s:%d", sink.File, sinkFunc, sink.Line)}
		maxCallers := depth
		if maxCallers < 1 {
			maxCallers = 1
		}
		callers := idx.Callers(sinkFunc, maxCallers)
		for _, c := range callers {
			stack = append(stack, fmt.Sprintf("%s:<callsite>:%d", c.File, c.Line))
		}

		chain := b.variableChain(source, sink, sinkLine)
		sanitizers, guards := b.nearbySanitizersAndGuards(lines, sink.Line)

		evidence := []schemas.Evidence{{
			Role:    schemas.RoleSink,
			File:    sink.File,
			Line:    sink.Line,
			Snippet: firstNonEmpty(sinkLine, sink.Snippet),
		}}
		if source != nil {
			evidence = append(evidence, schemas.Evidence{
				Role:    schemas.RoleSource,
				File:    source.File,
				Line:    source.Line,
				Snippet: source.Snippet,
			})
		}
		for _, c := range callers {
			evidence = append(evidence, schemas.Evidence{
				Role:    schemas.RoleCall,
				File:    c.File,
				Line:    c.Line,
				Snippet: c.Snippet,
			})
		}

		var notes []string
		if len(nearby) == 0 {
			notes = append(notes, NoteGlobalFallback)
		}
		if len(callers) == 0 {
			notes = append(notes, NoteNoCallSites)
		}
		if len(sanitizers) > 0 {
			notes = append(notes, NoteSanitizer)
		}
		if len(guards) > 0 {
			notes = append(notes, NoteGuard)
		}

		severity := sink.Severity
		if severity == "" {
			severity = schemas.SeverityMedium
		}

		flows = append(flows, schemas.Flow{
			ID:            flowID,
			Kind:          kind,
			Severity:      severity,
			Sink:          sink,
			Source:        source,
			FunctionStack: stack,
			VariableChain: chain,
			Guards:        guards,
			Sanitizers:    sanitizers,
			Evidence:      evidence,
			Notes:         notes,
		})
	}
	return flows
}

// Forward builds one forward flow per distinct source category, sweeping a
// window of lines after the representative source hit for classified sinks
// and generic risky calls.
func (b *Builder) Forward(sources, sinks []schemas.Hit, depth int, kinds map[schemas.TaintKind]bool) []schemas.ForwardFlow {
	sinksByFile := make(map[string][]schemas.Hit)
	for _, s := range sinks {
		sinksByFile[s.File] = append(sinksByFile[s.File], s)
	}

	// One representative per category, first-seen wins. This caps forward
	// volume to one flow per category, not one per hit.
	var representatives []schemas.Hit
	seen := make(map[string]bool)
	for _, src := range sources {
		if !seen[src.Category] {
			seen[src.Category] = true
			representatives = append(representatives, src)
		}
	}

	window := 120 * depth
	if window < 80 {
		window = 80
	}

	var flows []schemas.ForwardFlow
	for _, src := range representatives {
		lines := srcfile.ReadLines(b.repoRoot, src.File)
		if lines == nil {
			continue
		}

		start := src.Line
		end := src.Line + window
		if end > len(lines) {
			end = len(lines)
		}

		var candidates []schemas.Hit
		for _, s := range sinksByFile[src.File] {
			if s.Line < start || s.Line > end {
				continue
			}
			if !kinds[schemas.TaintKind(patterns.KindForSinkCategory(s.Category))] {
				continue
			}
			if len(candidates) < maxCandidates {
				candidates = append(candidates, s)
			}
		}

		var risky []schemas.CallSite
		for ln := start; ln <= end && ln <= len(lines); ln++ {
			if !b.tab.RiskyCall.MatchString(lines[ln-1]) {
				continue
			}
			if len(risky) < maxCandidates {
				risky = append(risky, schemas.CallSite{
					File:    src.File,
					Line:    ln,
					Snippet: srcfile.Snippet(lines[ln-1]),
				})
			}
		}

		flows = append(flows, schemas.ForwardFlow{
			ID:                fmt.Sprintf("FWD-%04d", len(flows)+1),
			Source:            src,
			CandidateSinks:    candidates,
			UnknownRiskyCalls: risky,
			Notes:             []string{NoteForwardWindow},
		})
	}
	return flows
}

// nearbySources returns same-file source hits within the backward window,
// closest first. Ties keep the original scan order (stable sort).
func nearbySources(sources []schemas.Hit, file string, sinkLine, depth int) []schemas.Hit {
	window := 80 * depth
	if window < 80 {
		window = 80
	}
	var matched []schemas.Hit
	for _, s := range sources {
		if s.File != file {
			continue
		}
		if abs(s.Line-sinkLine) <= window {
			matched = append(matched, s)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return abs(matched[i].Line-sinkLine) < abs(matched[j].Line-sinkLine)
	})
	if len(matched) > 5 {
		matched = matched[:5]
	}
	return matched
}

// pickSource prefers the closest windowed candidate and falls back to the
// globally first source hit of the whole run. The fallback can attribute an
// unrelated source to a sink; that is a documented heuristic.
func pickSource(nearby, all []schemas.Hit) *schemas.Hit {
	if len(nearby) > 0 {
		s := nearby[0]
		return &s
	}
	if len(all) > 0 {
		s := all[0]
		return &s
	}
	return nil
}

// variableChain intersects the identifier tokens of the source and sink
// lines. Overlapping tokens are returned in source-line order (capped at
// 6); with no overlap the sink line's own tokens stand in (capped at 4).
func (b *Builder) variableChain(source *schemas.Hit, sink schemas.Hit, sinkLine string) []string {
	var srcText string
	if source != nil {
		srcLines := srcfile.ReadLines(b.repoRoot, source.File)
		srcText = srcfile.LineAt(srcLines, source.Line)
		if srcText == "" {
			srcText = source.Snippet
		}
	}

	srcIDs := b.tab.Identifiers(srcText)
	sinkIDs := b.tab.Identifiers(firstNonEmpty(sinkLine, sink.Snippet))

	sinkSet := make(map[string]bool, len(sinkIDs))
	for _, id := range sinkIDs {
		sinkSet[id] = true
	}

	var overlap []string
	added := make(map[string]bool)
	for _, id := range srcIDs {
		if sinkSet[id] && !added[id] {
			overlap = append(overlap, id)
			added[id] = true
			if len(overlap) == maxVarOverlap {
				break
			}
		}
	}
	if len(overlap) > 0 {
		return overlap
	}

	var chain []string
	addedSink := make(map[string]bool)
	for _, id := range sinkIDs {
		if !addedSink[id] {
			chain = append(chain, id)
			addedSink[id] = true
			if len(chain) == maxVarSinkOnly {
				break
			}
		}
	}
	return chain
}

// nearbySanitizersAndGuards scans the lines within guardRadius of the sink
// against the two independent vocabularies, recording one entry per
// matching line per set.
func (b *Builder) nearbySanitizersAndGuards(lines []string, sinkLine int) (sanitizers, guards []string) {
	start := sinkLine - guardRadius
	if start < 1 {
		start = 1
	}
	end := sinkLine + guardRadius
	if end > len(lines) {
		end = len(lines)
	}
	for ln := start; ln <= end; ln++ {
		line := lines[ln-1]
		entry := fmt.Sprintf("L%d: %s", ln, srcfile.Truncate(strings.TrimSpace(line), lineCapEvidence))
		if b.tab.MatchSanitizer(line) {
			sanitizers = append(sanitizers, entry)
		}
		if b.tab.MatchGuard(line) {
			guards = append(guards, entry)
		}
	}
	return sanitizers, guards
}

func severityOrder(h schemas.Hit) int {
	if h.Severity == schemas.SeverityHigh {
		return 0
	}
	return 1
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
