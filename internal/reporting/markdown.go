// Package reporting renders the pipeline's structured products into the
// markdown artifact set and the optional SARIF export. Rendering carries no
// decision logic: everything here is presentation of records produced
// upstream.
package reporting

import (
	"fmt"
	"sort"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/xkilldash9x/lancet-cli/api/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Artifact file names inside the output directory.
const (
	FileEntries      = "entries.md"
	FileSinks        = "sinks.md"
	FileTaintPolicy  = "taint_policy.md"
	FileFlowsBack    = "flows_backward.md"
	FileFlowsForward = "flows_forward.md"
	FileAuthzModel   = "authz_model.md"
	FileFindings     = "findings.md"
	FileChains       = "attack_chains.md"
	FileReport       = "report.md"
)

// Params is the display snapshot embedded in every artifact header.
type Params struct {
	AuditID     string   `json:"audit_id"`
	RepoRoot    string   `json:"repo_root"`
	OutputDir   string   `json:"output_dir"`
	FocusPaths  []string `json:"focus_paths"`
	Kinds       []string `json:"kinds"`
	Depth       int      `json:"depth"`
	Budget      int      `json:"budget"`
	Cache       bool     `json:"cache"`
	GeneratedAt string   `json:"-"`
}

// scope returns the displayed scan scope.
func (p Params) scope() string {
	if len(p.FocusPaths) == 0 {
		return "<repo-root>"
	}
	return strings.Join(p.FocusPaths, ", ")
}

func headerBlock(title string, p Params, limitations string) []string {
	paramsJSON, _ := json.Marshal(p)
	return []string{
		"# " + title,
		"",
		"- generated at: " + p.GeneratedAt,
		fmt.Sprintf("- params: `%s`", paramsJSON),
		"- scope: " + p.scope(),
		"- limitations: " + limitations,
		"",
	}
}

func finish(lines []string) string {
	return strings.TrimRight(strings.Join(lines, "\n"), "\n") + "\n"
}

// RenderScanResults renders one scanner payload (entries.md / sinks.md).
func RenderScanResults(title string, p Params, payload *schemas.ScanPayload) string {
	lines := headerBlock(title, p, payload.Limitations)
	lines = append(lines,
		fmt.Sprintf("- files scanned: %d", payload.ScannedFiles),
		fmt.Sprintf("- total hits: %d", payload.TotalHits),
		"")

	for _, cat := range payload.Categories {
		head := fmt.Sprintf("## %s (%d)", cat.Title, cat.Count)
		if cat.Severity != "" {
			head = fmt.Sprintf("## %s [%s] (%d)", cat.Title, cat.Severity, cat.Count)
		}
		lines = append(lines, head)
		if len(cat.Hits) == 0 {
			lines = append(lines, "- no hits", "")
			continue
		}
		for _, h := range cat.Hits {
			lines = append(lines, fmt.Sprintf("- `%s:%d` | `%s`", h.File, h.Line, h.Snippet))
		}
		lines = append(lines, "")
	}
	return finish(lines)
}

// RenderTaintPolicy renders the taint policy draft: enabled kinds,
// discovered source/sink groupings and sanitizer candidates.
func RenderTaintPolicy(p Params, sources, sinks []schemas.Hit, enabled map[schemas.TaintKind]bool, kindFor func(string) string, sanitizers []string) string {
	lines := headerBlock("Taint policy draft (taint_policy)", p,
		"policy is generated heuristically; revise it against business semantics and code review")

	lines = append(lines, "## TaintKinds",
		"- enabled kinds: "+strings.Join(p.Kinds, ", "), "")

	lines = append(lines, "## Sources")
	sourceGroups, sourceOrder := groupByTitle(sources, 120, nil)
	if len(sourceOrder) == 0 {
		lines = append(lines, "- no sources identified automatically; add entry points and untrusted origins by hand")
	} else {
		for _, title := range sourceOrder {
			lines = append(lines, fmt.Sprintf("- %s: %s", title, strings.Join(capList(sourceGroups[title], 8), ", ")))
		}
	}
	lines = append(lines, "")

	lines = append(lines, "## Sinks")
	sinkGroups, sinkOrder := groupByTitle(sinks, 200, func(h schemas.Hit) bool {
		return enabled[schemas.TaintKind(kindFor(h.Category))]
	})
	if len(sinkOrder) == 0 {
		lines = append(lines, "- no sinks matched the enabled kinds")
	} else {
		for _, title := range sinkOrder {
			lines = append(lines, fmt.Sprintf("- %s: %s", title, strings.Join(capList(sinkGroups[title], 10), ", ")))
		}
	}
	lines = append(lines, "")

	lines = append(lines, "## Sanitizers (candidates)")
	if len(sanitizers) == 0 {
		lines = append(lines, "- no obvious sanitizer calls found; absence here proves nothing")
	} else {
		for _, s := range sanitizers {
			lines = append(lines, "- "+s)
		}
	}
	lines = append(lines, "")

	lines = append(lines,
		"## TrustBoundaries",
		"- external requests -> application entry (HTTP/RPC/MQ/CLI)",
		"- application internals -> filesystem/database/template engine/command execution",
		"- cross-tenant and cross-privilege call boundaries",
		"")
	return finish(lines)
}

func groupByTitle(hits []schemas.Hit, cap int, keep func(schemas.Hit) bool) (map[string][]string, []string) {
	groups := make(map[string][]string)
	var order []string
	for i, h := range hits {
		if i >= cap {
			break
		}
		if keep != nil && !keep(h) {
			continue
		}
		title := h.Title
		if title == "" {
			title = h.Category
		}
		if _, ok := groups[title]; !ok {
			order = append(order, title)
		}
		groups[title] = append(groups[title], fmt.Sprintf("%s:%d", h.File, h.Line))
	}
	return groups, order
}

func capList(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}

func orDefault(items []string, sep, empty string) string {
	if len(items) == 0 {
		return empty
	}
	return strings.Join(items, sep)
}

// RenderBackwardFlows renders flows_backward.md.
func RenderBackwardFlows(p Params, flows []schemas.Flow) string {
	lines := headerBlock("Backward data-flow tracing (flows_backward)", p,
		"backward tracing prioritizes high severity sinks using call-site approximation and windowed source search; this is not SSA")
	lines = append(lines, fmt.Sprintf("- flow count: %d", len(flows)), "")

	for _, f := range flows {
		lines = append(lines, fmt.Sprintf("## %s | %s | %s:%d", f.ID, f.Kind, f.Sink.File, f.Sink.Line))
		lines = append(lines, fmt.Sprintf("- Sink: `%s` | `%s`", f.Sink.Title, f.Sink.Snippet))
		if f.Source != nil {
			lines = append(lines, fmt.Sprintf("- Source: `%s:%d` | `%s`", f.Source.File, f.Source.Line, f.Source.Snippet))
		} else {
			lines = append(lines, "- Source: not located")
		}
		lines = append(lines,
			"- function stack: "+orDefault(f.FunctionStack, " -> ", "<none>"),
			"- variable chain: "+orDefault(f.VariableChain, ", ", "<none>"),
			"- guards: "+orDefault(f.Guards, ", ", "<none>"),
			"- sanitizers: "+orDefault(f.Sanitizers, ", ", "<none>"))
		if len(f.Notes) > 0 {
			lines = append(lines, "- notes:")
			for _, n := range f.Notes {
				lines = append(lines, "  - "+n)
			}
		}
		lines = append(lines, "- evidence:")
		for i, ev := range f.Evidence {
			if i == 8 {
				break
			}
			lines = append(lines, fmt.Sprintf("  - [%s] `%s:%d` | `%s`", ev.Role, ev.File, ev.Line, ev.Snippet))
		}
		lines = append(lines, "")
	}
	return finish(lines)
}

// RenderForwardFlows renders flows_forward.md.
func RenderForwardFlows(p Params, flows []schemas.ForwardFlow) string {
	lines := headerBlock("Forward data-flow tracing (flows_forward)", p,
		"forward tracing covers same-file windows and risky-call keywords; it fills gaps and surfaces unclassified sinks")
	lines = append(lines, fmt.Sprintf("- flow count: %d", len(flows)), "")

	for _, f := range flows {
		lines = append(lines, fmt.Sprintf("## %s | Source `%s:%d`", f.ID, f.Source.File, f.Source.Line))
		lines = append(lines, fmt.Sprintf("- source snippet: `%s`", f.Source.Snippet))
		lines = append(lines, fmt.Sprintf("- candidate sinks: %d", len(f.CandidateSinks)))
		for i, s := range f.CandidateSinks {
			if i == 6 {
				break
			}
			lines = append(lines, fmt.Sprintf("  - `%s:%d` | `%s` | `%s`", s.File, s.Line, s.Title, s.Snippet))
		}
		lines = append(lines, fmt.Sprintf("- unclassified risky calls: %d", len(f.UnknownRiskyCalls)))
		for i, c := range f.UnknownRiskyCalls {
			if i == 6 {
				break
			}
			lines = append(lines, fmt.Sprintf("  - `%s:%d` | `%s`", c.File, c.Line, c.Snippet))
		}
		for _, n := range f.Notes {
			lines = append(lines, "- note: "+n)
		}
		lines = append(lines, "")
	}
	return finish(lines)
}

// RenderAuthzModel renders authz_model.md.
func RenderAuthzModel(p Params, model *schemas.AuthzModel) string {
	lines := headerBlock("Authorization model extraction (authz_model)", p,
		"keyword hits are not effective authorization checks; verify permission binding and scope propagation by hand")
	lines = append(lines,
		fmt.Sprintf("- files scanned: %d", model.Summary.FilesScanned),
		fmt.Sprintf("- hits: %d", model.Summary.HitCount),
		"- keyword counts: "+renderCounts(model.Summary.KeywordCounts),
		"",
		"## Hits")
	if len(model.Hits) == 0 {
		lines = append(lines, "- no hits")
	} else {
		for i, h := range model.Hits {
			if i == 200 {
				break
			}
			lines = append(lines, fmt.Sprintf("- `%s:%d` | `%s`", h.File, h.Line, h.Snippet))
		}
	}
	lines = append(lines, "")
	return finish(lines)
}

// RenderFindings renders findings.md.
func RenderFindings(p Params, findings []schemas.Finding) string {
	lines := headerBlock("Findings (findings)", p,
		"evidence scores are static estimates; Confirmed still needs runtime validation and business context")
	lines = append(lines,
		fmt.Sprintf("- total findings: %d", len(findings)),
		"- severity distribution: "+severityDistribution(findings),
		"- status distribution: "+statusDistribution(findings),
		"")

	for _, f := range findings {
		lines = append(lines, fmt.Sprintf("## %s | %s | %s | score=%d", f.ID, f.Severity, f.Status, f.EvidenceScore))
		lines = append(lines,
			"- title: "+f.Title,
			"- impact: "+f.Impact,
			fmt.Sprintf("- Source: `%s`", f.Source),
			fmt.Sprintf("- Sink: `%s`", f.Sink),
			"- function stack: "+orDefault(f.FunctionStack, " -> ", "<none>"),
			"- variable chain: "+orDefault(f.VariableChain, ", ", "<none>"),
			"- guards: "+orDefault(f.Guards, ", ", "<none>"),
			"- sanitizers: "+orDefault(f.Sanitizers, ", ", "<none>"),
			"- authz binding hint: "+f.AuthzGapHint,
			"- static exploitability: "+f.Exploitability,
			"- fix hint: "+f.FixHint,
			"- score reasoning:")
		for _, r := range f.ScoreReasoning {
			lines = append(lines, "  - "+r)
		}
		lines = append(lines, "- evidence:")
		for i, ev := range f.Evidence {
			if i == 10 {
				break
			}
			lines = append(lines, fmt.Sprintf("  - [%s] `%s:%d` | `%s`", ev.Role, ev.File, ev.Line, ev.Snippet))
		}
		if len(f.Notes) > 0 {
			lines = append(lines, "- notes:")
			for _, n := range f.Notes {
				lines = append(lines, "  - "+n)
			}
		}
		lines = append(lines, "")
	}
	return finish(lines)
}

// RenderAttackChains renders attack_chains.md.
func RenderAttackChains(p Params, list []schemas.AttackChain) string {
	lines := headerBlock("Attack chain composition (attack_chains)", p,
		"chains are static composition hypotheses, not proof of real-environment exploitability")
	lines = append(lines, fmt.Sprintf("- chain count: %d", len(list)), "")
	if len(list) == 0 {
		lines = append(lines, "- no high-confidence chains composed", "")
		return finish(lines)
	}
	for _, c := range list {
		lines = append(lines, fmt.Sprintf("## %s | %s", c.ID, c.Name), "- preconditions:")
		for _, pre := range c.Preconditions {
			lines = append(lines, "  - "+pre)
		}
		lines = append(lines, "- steps:")
		for _, s := range c.Steps {
			lines = append(lines, "  - "+s)
		}
		lines = append(lines, "- impact: "+c.Impact, "")
	}
	return finish(lines)
}

// RenderReport renders the top-level report.md.
func RenderReport(p Params, findings []schemas.Finding, list []schemas.AttackChain, profile *schemas.Profile) string {
	lines := headerBlock("Static taint audit report (report)", p,
		"this report is produced by offline static heuristics; route high-risk items into code review and test validation")

	highConfirmed := 0
	for _, f := range findings {
		if f.Status == schemas.StatusConfirmed &&
			(f.Severity == schemas.SeverityCritical || f.Severity == schemas.SeverityHigh) {
			highConfirmed++
		}
	}

	lines = append(lines,
		"## Summary",
		fmt.Sprintf("- total findings: %d", len(findings)),
		"- severity distribution: "+severityDistribution(findings),
		"- status distribution: "+statusDistribution(findings),
		fmt.Sprintf("- high-impact Confirmed: %d", highConfirmed),
		"",
		"## Method and scope",
		"- phase 0: project profile, function index, approximate call sites",
		"- phase 1: entry-point surface and sink surface scanning",
		"- phase 2: backward tracing from high severity sinks, guard and sanitizer checks",
		"- phase 2.5: forward sweep from representative sources",
		"- phase 3: authorization vocabulary extraction",
		"- phase 3.5: cross-validation, deduplication, evidence scoring",
		"- phase 4: rule-based attack chain composition",
		"- phase 5: structured report generation",
		fmt.Sprintf("- files scanned: %d", profile.FileCount),
		"- language distribution: "+renderLanguages(profile.Languages),
		"",
		"## Top findings")
	if len(findings) == 0 {
		lines = append(lines, "- none")
	} else {
		for i, f := range findings {
			if i == 20 {
				break
			}
			lines = append(lines, fmt.Sprintf("- %s | %s | %s | score=%d | %s | %s",
				f.ID, f.Severity, f.Status, f.EvidenceScore, f.Title, f.Sink))
		}
	}
	lines = append(lines, "", "## Attack chains")
	if len(list) == 0 {
		lines = append(lines, "- no high-confidence chains")
	} else {
		for _, c := range list {
			lines = append(lines, fmt.Sprintf("- %s | %s | impact: %s", c.ID, c.Name, c.Impact))
		}
	}
	lines = append(lines, "",
		"## Remediation roadmap",
		"1. Fix critical/high Confirmed or Likely command execution, deserialization and privilege paths first.",
		"2. Introduce uniform input validation, parameterized interfaces and explicit permission binding for high-risk sinks.",
		"3. Turn these findings into unit and integration tests to establish a regression baseline.",
		"4. Manually review Possible items and update the taint policy and suppression rules.",
		"",
		"## Assumptions and limitations",
		"- assumes the repository represents the main execution paths; dynamically loaded external plugins stay invisible",
		"- approximate call sites and regex patterns can miss dynamic dispatch, reflection, macro expansion and polymorphic serialization",
		"- no requests were executed and no runtime probes were attached; the evidence chain targets static reviewability",
		"")
	return finish(lines)
}

func severityDistribution(findings []schemas.Finding) string {
	counts := make(map[schemas.Severity]int)
	for _, f := range findings {
		counts[f.Severity]++
	}
	var parts []string
	for _, sev := range []schemas.Severity{schemas.SeverityCritical, schemas.SeverityHigh, schemas.SeverityMedium, schemas.SeverityLow} {
		if counts[sev] > 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", sev, counts[sev]))
		}
	}
	return orDefault(parts, ", ", "none")
}

func statusDistribution(findings []schemas.Finding) string {
	counts := make(map[schemas.Status]int)
	for _, f := range findings {
		counts[f.Status]++
	}
	var parts []string
	for _, st := range []schemas.Status{schemas.StatusConfirmed, schemas.StatusLikely, schemas.StatusPossible} {
		if counts[st] > 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", st, counts[st]))
		}
	}
	return orDefault(parts, ", ", "none")
}

// renderCounts prints a count map with sorted keys, so output never depends
// on map iteration order.
func renderCounts(counts map[string]int) string {
	if len(counts) == 0 {
		return "none"
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", k, counts[k]))
	}
	return strings.Join(parts, ", ")
}

// renderLanguages prints up to 12 extensions, most frequent first.
func renderLanguages(langs map[string]int) string {
	if len(langs) == 0 {
		return "none"
	}
	type kv struct {
		ext string
		n   int
	}
	pairs := make([]kv, 0, len(langs))
	for ext, n := range langs {
		pairs = append(pairs, kv{ext, n})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].n != pairs[j].n {
			return pairs[i].n > pairs[j].n
		}
		return pairs[i].ext < pairs[j].ext
	})
	if len(pairs) > 12 {
		pairs = pairs[:12]
	}
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		parts = append(parts, fmt.Sprintf("%s=%d", p.ext, p.n))
	}
	return strings.Join(parts, ", ")
}
