// Package index builds the name-keyed function definition and call-site
// maps used by the backward flow pass. Lookups are purely textual: a call
// site is any identifier followed by an opening parenthesis, so the result
// is an approximation of a call graph, never a resolved one.
package index

import (
	"go.uber.org/zap"

	"github.com/xkilldash9x/lancet-cli/api/schemas"
	"github.com/xkilldash9x/lancet-cli/internal/analysis/patterns"
	"github.com/xkilldash9x/lancet-cli/internal/srcfile"
)

// GlobalScope is the sentinel returned when no enclosing definition exists
// above a line.
const GlobalScope = "<global>"

// Index maps function names to their definition sites and call-target names
// to every textual call site. Built once per run, read-only afterwards.
type Index struct {
	Defs  map[string][]schemas.Location
	Calls map[string][]schemas.CallSite
}

// Build scans every selected file once. Files that fail to read are
// skipped. A line may contribute at most one definition (first pattern
// wins) but any number of call sites.
func Build(repoRoot string, files []string, tab *patterns.Table, logger *zap.Logger) *Index {
	idx := &Index{
		Defs:  make(map[string][]schemas.Location),
		Calls: make(map[string][]schemas.CallSite),
	}
	log := logger.Named("function_index")

	for _, rel := range files {
		lines := srcfile.ReadLines(repoRoot, rel)
		if lines == nil {
			log.Debug("skipping unreadable file", zap.String("file", rel))
			continue
		}
		for i, line := range lines {
			lineNo := i + 1
			if name, ok := tab.MatchFuncDef(line); ok {
				idx.Defs[name] = append(idx.Defs[name], schemas.Location{File: rel, Line: lineNo})
			}
			for _, m := range tab.Call.FindAllStringSubmatch(line, -1) {
				name := m[1]
				if tab.Reserved[name] {
					continue
				}
				idx.Calls[name] = append(idx.Calls[name], schemas.CallSite{
					File:    rel,
					Line:    lineNo,
					Snippet: srcfile.Snippet(line),
				})
			}
		}
	}
	return idx
}

// Callers returns up to max call sites targeting name, in scan order.
func (ix *Index) Callers(name string, max int) []schemas.CallSite {
	sites := ix.Calls[name]
	if len(sites) > max {
		sites = sites[:max]
	}
	return sites
}

// EnclosingFunction scans upward from lineNo (inclusive, clamped to the
// file) to the nearest definition line and returns its captured name, or
// GlobalScope when the top of the file is reached first.
func EnclosingFunction(lines []string, lineNo int, tab *patterns.Table) string {
	idx := lineNo - 1
	if idx > len(lines)-1 {
		idx = len(lines) - 1
	}
	if idx < 0 {
		idx = 0
	}
	for i := idx; i >= 0 && i < len(lines); i-- {
		if name, ok := tab.MatchFuncDef(lines[i]); ok {
			return name
		}
	}
	return GlobalScope
}
