// Package findings turns scored backward flows into the deduplicated,
// ranked findings list.
package findings

import (
	"fmt"
	"sort"

	"github.com/xkilldash9x/lancet-cli/api/schemas"
)

// Fixed template texts carried by every finding.
const (
	impactText = "insufficiently sanitized data bound to no permission check can reach a sensitive operation, enabling command execution, privilege abuse, data destruction or disclosure"

	exploitabilityText = "static estimate only; confirm against runtime parameter control, authentication context and sanitizer effectiveness"

	fixHintText = "prefer allowlist validation, parameterized interfaces, explicit permission binding and output encoding; add regression tests for the affected paths"
)

type dedupKey struct {
	file string
	line int
	kind schemas.TaintKind
}

// Aggregate scores, deduplicates and ranks backward flows. Flows arrive in
// builder order (severity/file/line sorted), and the first flow per
// (sink file, sink line, kind) wins. Identifiers are assigned in dedup
// order, then the list is re-sorted for presentation.
func Aggregate(flows []schemas.Flow, forward []schemas.ForwardFlow, model *schemas.AuthzModel) []schemas.Finding {
	authzByFile := model.HitsByFile()

	var out []schemas.Finding
	seen := make(map[dedupKey]bool)
	for _, flow := range flows {
		key := dedupKey{flow.Sink.File, flow.Sink.Line, flow.Kind}
		if seen[key] {
			continue
		}
		seen[key] = true

		score, reasoning := Score(flow, forward, authzByFile)
		status := StatusFromScore(score)
		severity := NormalizeSeverity(flow.Severity, flow.Kind, score)

		sourceLoc := "unknown"
		if flow.Source != nil {
			sourceLoc = fmt.Sprintf("%s:%d", flow.Source.File, flow.Source.Line)
		}

		gapHint := schemas.AuthzGapPartial
		if len(authzByFile[flow.Sink.File]) == 0 {
			gapHint = schemas.AuthzGapMissing
		}

		title := flow.Sink.Title
		if title == "" {
			title = flow.Sink.Category
		}

		out = append(out, schemas.Finding{
			ID:             fmt.Sprintf("F-%03d", len(out)+1),
			Title:          fmt.Sprintf("%s: potential taint propagation (%s)", title, flow.Kind),
			Severity:       severity,
			Status:         status,
			EvidenceScore:  score,
			Source:         sourceLoc,
			Sink:           fmt.Sprintf("%s:%d", flow.Sink.File, flow.Sink.Line),
			Kind:           flow.Kind,
			Impact:         impactText,
			FunctionStack:  flow.FunctionStack,
			VariableChain:  flow.VariableChain,
			Guards:         flow.Guards,
			Sanitizers:     flow.Sanitizers,
			Evidence:       flow.Evidence,
			ScoreReasoning: reasoning,
			Notes:          flow.Notes,
			Exploitability: exploitabilityText,
			AuthzGapHint:   gapHint,
			FixHint:        fixHintText,
		})
	}

	// Presentation order: most severe first, then strongest evidence, then
	// id (ids are fixed width, so string compare is numeric compare).
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := out[i].Severity.Rank(), out[j].Severity.Rank()
		if ri != rj {
			return ri < rj
		}
		if out[i].EvidenceScore != out[j].EvidenceScore {
			return out[i].EvidenceScore > out[j].EvidenceScore
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// AttentionRequired reports whether any finding is Confirmed at critical or
// high severity, which drives the distinguished process exit status.
func AttentionRequired(list []schemas.Finding) bool {
	for _, f := range list {
		if f.Status == schemas.StatusConfirmed &&
			(f.Severity == schemas.SeverityCritical || f.Severity == schemas.SeverityHigh) {
			return true
		}
	}
	return false
}
