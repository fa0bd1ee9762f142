package findings

import (
	"github.com/xkilldash9x/lancet-cli/api/schemas"
)

// Score reasoning strings, applied in the order the rules fire.
const (
	reasonBaseHigh      = "high severity sink base +60"
	reasonBaseOther     = "non-high severity sink base +40"
	reasonSource        = "source candidate present +15"
	reasonNoSource      = "no source located +0"
	reasonCallStack     = "call stack evidence +8"
	reasonVariableChain = "variable chain overlap +7"
	reasonCorroborated  = "forward pass reached the same sink +10"
	reasonSanitizers    = "sanitizer(s) detected, exploitability reduced"
	reasonGuards        = "guard/authz branch(es) detected, exploitability reduced"
	reasonNoAuthz       = "no authz vocabulary in sink file +8"
)

// Score converts a backward flow into a bounded evidence score plus the
// ordered list of applied rules. The additive/subtractive sequence is fixed;
// severity normalization must only ever read the final clamped value.
func Score(flow schemas.Flow, forward []schemas.ForwardFlow, authzByFile map[string][]schemas.AuthzHit) (int, []string) {
	score := 0
	var reasoning []string

	if flow.Severity == schemas.SeverityHigh {
		score += 60
		reasoning = append(reasoning, reasonBaseHigh)
	} else {
		score += 40
		reasoning = append(reasoning, reasonBaseOther)
	}

	if flow.Source != nil {
		score += 15
		reasoning = append(reasoning, reasonSource)
	} else {
		reasoning = append(reasoning, reasonNoSource)
	}

	if len(flow.FunctionStack) > 1 {
		score += 8
		reasoning = append(reasoning, reasonCallStack)
	}

	if len(flow.VariableChain) > 0 {
		score += 7
		reasoning = append(reasoning, reasonVariableChain)
	}

	if corroborated(flow, forward) {
		score += 10
		reasoning = append(reasoning, reasonCorroborated)
	}

	if n := len(flow.Sanitizers); n > 0 {
		score -= min(20, 6*n)
		reasoning = append(reasoning, reasonSanitizers)
	}

	if n := len(flow.Guards); n > 0 {
		score -= min(20, 5*n)
		reasoning = append(reasoning, reasonGuards)
	}

	if len(authzByFile[flow.Sink.File]) == 0 {
		score += 8
		reasoning = append(reasoning, reasonNoAuthz)
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score, reasoning
}

// corroborated reports whether any forward flow's candidate sinks contain
// this flow's exact sink location.
func corroborated(flow schemas.Flow, forward []schemas.ForwardFlow) bool {
	for _, f := range forward {
		for _, s := range f.CandidateSinks {
			if s.File == flow.Sink.File && s.Line == flow.Sink.Line {
				return true
			}
		}
	}
	return false
}

// StatusFromScore maps the clamped evidence score onto a confidence label.
func StatusFromScore(score int) schemas.Status {
	switch {
	case score >= 80:
		return schemas.StatusConfirmed
	case score >= 60:
		return schemas.StatusLikely
	default:
		return schemas.StatusPossible
	}
}

// NormalizeSeverity derives the finding severity from the sink severity,
// the taint kind and the final clamped score. Only high severity sinks in
// the directly executable kinds ever promote to critical.
func NormalizeSeverity(sinkSeverity schemas.Severity, kind schemas.TaintKind, score int) schemas.Severity {
	if sinkSeverity == schemas.SeverityHigh {
		if score >= 85 && (kind == schemas.KindCmd || kind == schemas.KindMemory || kind == schemas.KindDeser) {
			return schemas.SeverityCritical
		}
		return schemas.SeverityHigh
	}
	if sinkSeverity == schemas.SeverityMedium {
		return schemas.SeverityMedium
	}
	return schemas.SeverityLow
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
