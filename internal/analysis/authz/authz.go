// Package authz extracts lightweight authorization signals: lines matching
// permission/ownership/tenancy vocabulary. A keyword hit is not an
// effective access-control check; the model only records where such
// vocabulary exists so the scorer can flag its absence.
package authz

import (
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/lancet-cli/api/schemas"
	"github.com/xkilldash9x/lancet-cli/internal/analysis/patterns"
	"github.com/xkilldash9x/lancet-cli/internal/srcfile"
)

// Scan walks the selected files and records at most one authorization hit
// per line (first matching line pattern wins). Budget caps the number of
// files considered; 0 means no cap.
func Scan(repoRoot string, files []string, tab *patterns.Table, budget int, generatedAt string, logger *zap.Logger) *schemas.AuthzModel {
	model := &schemas.AuthzModel{
		GeneratedAt: generatedAt,
		Summary: schemas.AuthzSummary{
			KeywordCounts: make(map[string]int),
		},
	}
	log := logger.Named("authz_scan")

	scanned := 0
	for _, rel := range files {
		lines := srcfile.ReadLines(repoRoot, rel)
		if lines == nil {
			log.Debug("skipping unreadable file", zap.String("file", rel))
		}
		for i, line := range lines {
			if !tab.MatchAuthz(line) {
				continue
			}
			model.Hits = append(model.Hits, schemas.AuthzHit{
				File:    rel,
				Line:    i + 1,
				Snippet: srcfile.Snippet(line),
			})
			lower := strings.ToLower(line)
			for _, kw := range tab.AuthzKeywords {
				if strings.Contains(lower, kw) {
					model.Summary.KeywordCounts[kw]++
				}
			}
		}
		scanned++
		if budget > 0 && scanned >= budget {
			break
		}
	}

	model.Summary.FilesScanned = scanned
	model.Summary.HitCount = len(model.Hits)
	return model
}
