// Package scan implements the two pattern-matching location scanners
// (entry-point surface and sensitive sinks) and the file-set selection they
// share. The correlation core only consumes their structured payloads.
package scan

import (
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/lancet-cli/api/schemas"
	"github.com/xkilldash9x/lancet-cli/internal/srcfile"
)

const (
	entryLimitations = "heuristic rule scan; dynamic routing, reflection and generated code may be missed"
	sinkLimitations  = "a hit marks a suspicious sink location; data flow, guards and sanitizers decide exploitability"
)

// Scanner runs an ordered rule table over a selected file set.
type Scanner struct {
	repoRoot string
	logger   *zap.Logger
}

// New creates a scanner rooted at repoRoot.
func New(repoRoot string, logger *zap.Logger) *Scanner {
	return &Scanner{repoRoot: repoRoot, logger: logger.Named("scanner")}
}

// ScanEntries runs the entry-point rules over files.
func (s *Scanner) ScanEntries(files []string, budget int, generatedAt string) *schemas.ScanPayload {
	return s.scan(files, EntryRules(), budget, generatedAt, entryLimitations)
}

// ScanSinks runs the sink rules over files.
func (s *Scanner) ScanSinks(files []string, budget int, generatedAt string) *schemas.ScanPayload {
	return s.scan(files, SinkRules(), budget, generatedAt, sinkLimitations)
}

// scan applies the rule table line by line. The first matching rule claims
// the line; one line never hits two categories. Unreadable files are
// skipped, not fatal.
func (s *Scanner) scan(files []string, rules []Rule, budget int, generatedAt, limitations string) *schemas.ScanPayload {
	hitsByCategory := make(map[string][]schemas.Hit, len(rules))

	for _, rel := range files {
		lines := srcfile.ReadLines(s.repoRoot, rel)
		if lines == nil {
			s.logger.Debug("skipping unreadable file", zap.String("file", rel))
			continue
		}
		for i, line := range lines {
			snippet := strings.TrimSpace(line)
			if snippet == "" {
				continue
			}
			for _, rule := range rules {
				if !rule.Regexp.MatchString(line) {
					continue
				}
				hitsByCategory[rule.Category] = append(hitsByCategory[rule.Category], schemas.Hit{
					File:     rel,
					Line:     i + 1,
					Snippet:  srcfile.Truncate(snippet, srcfile.SnippetLimit),
					Category: rule.Category,
					Title:    rule.Title,
					Severity: rule.Severity,
				})
				break
			}
		}
	}

	payload := &schemas.ScanPayload{
		GeneratedAt:  generatedAt,
		RepoRoot:     s.repoRoot,
		ScannedFiles: len(files),
		Budget:       budget,
		Limitations:  limitations,
	}
	for _, rule := range rules {
		hits := hitsByCategory[rule.Category]
		payload.Categories = append(payload.Categories, schemas.ScanCategory{
			ID:       rule.Category,
			Title:    rule.Title,
			Severity: rule.Severity,
			Count:    len(hits),
			Hits:     hits,
		})
		payload.TotalHits += len(hits)
	}
	return payload
}
