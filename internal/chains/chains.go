// Package chains composes attack-chain hypotheses from the findings set.
// Composition is purely rule-based over aggregate kind/severity properties;
// a chain never references the findings that made it fire.
package chains

import (
	"fmt"

	"github.com/xkilldash9x/lancet-cli/api/schemas"
)

// Compose evaluates the fixed rules in order, each independently, and
// returns one chain per firing rule.
func Compose(findings []schemas.Finding) []schemas.AttackChain {
	byKind := make(map[schemas.TaintKind]int)
	for _, f := range findings {
		byKind[f.Kind]++
	}

	var out []schemas.AttackChain
	nextID := func() string { return fmt.Sprintf("CHAIN-%02d", len(out)+1) }

	// Write-then-execute: a path-control primitive plus any execution or
	// load primitive.
	if byKind[schemas.KindPath] > 0 &&
		(byKind[schemas.KindCmd] > 0 || byKind[schemas.KindDeser] > 0 || byKind[schemas.KindTemplate] > 0) {
		out = append(out, schemas.AttackChain{
			ID:   nextID(),
			Name: "write file, then load/execute",
			Preconditions: []string{
				"attacker controls a written file name or its content",
				"a later load or execution path consumes the written file",
			},
			Steps: []string{
				"abuse a path finding to write controlled content or replace a critical file",
				"trigger a cmd/deser/template path to gain execution or extend control",
			},
			Impact: "persistent control, remote code execution or supply-chain contamination",
		})
	}

	// Privilege-bypass-to-sink: a high-impact finding whose sink file shows
	// no authorization vocabulary at all.
	bypass := false
	for _, f := range findings {
		if f.AuthzGapHint == schemas.AuthzGapMissing &&
			(f.Severity == schemas.SeverityCritical || f.Severity == schemas.SeverityHigh) {
			bypass = true
			break
		}
	}
	if bypass {
		out = append(out, schemas.AttackChain{
			ID:   nextID(),
			Name: "privilege bypass into a high-impact sink",
			Preconditions: []string{
				"permission binding is missing or tenant checks are incomplete",
				"the entry interface is reachable by the attacker",
			},
			Steps: []string{
				"enter the business path with missing or bypassed authorization",
				"invoke the high-impact sink to complete the unauthorized operation",
			},
			Impact: "cross-tenant access, unauthorized sensitive operations, destruction of core data",
		})
	}

	// SSRF-to-bypass: outbound-request control combined with configuration
	// or execution weaknesses.
	if byKind[schemas.KindSSRF] > 0 && (byKind[schemas.KindAuthz] > 0 || byKind[schemas.KindCmd] > 0) {
		out = append(out, schemas.AttackChain{
			ID:   nextID(),
			Name: "outbound probe, then validation bypass",
			Preconditions: []string{
				"the outbound request target is attacker controllable",
				"internal networks or metadata services are reachable",
			},
			Steps: []string{
				"probe internal assets through the ssrf-prone request path",
				"combine with configuration or command findings to widen impact",
			},
			Impact: "internal information disclosure, access-control bypass and lateral movement",
		})
	}

	return out
}
