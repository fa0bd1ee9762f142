package schemas

// Hit is a single location reported by one of the pattern scanners. Hits are
// immutable once produced; the correlation core only reads them.
type Hit struct {
	// File is the repo-relative path of the matched file.
	File string `json:"file"`
	// Line is 1-based.
	Line int `json:"line"`
	// Snippet is the matched line, trimmed and truncated.
	Snippet  string `json:"snippet"`
	Category string `json:"category"`
	Title    string `json:"title"`
	// Severity is only populated for sink hits.
	Severity Severity `json:"severity,omitempty"`
}

// Location is a bare file:line reference.
type Location struct {
	File string `json:"file"`
	Line int    `json:"line"`
}

// CallSite is a name-matched call occurrence. It is textual evidence, not a
// resolved call-graph edge.
type CallSite struct {
	File    string `json:"file"`
	Line    int    `json:"line"`
	Snippet string `json:"snippet"`
}

// ScanCategory groups the hits of one scanner rule.
type ScanCategory struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Severity Severity `json:"severity,omitempty"`
	Count    int      `json:"count"`
	Hits     []Hit    `json:"hits"`
}

// ScanPayload is the structured output of one scanner invocation
// (entry-point scan or sink scan).
type ScanPayload struct {
	GeneratedAt  string         `json:"generated_at"`
	RepoRoot     string         `json:"repo_root"`
	ScannedFiles int            `json:"scanned_files"`
	Budget       int            `json:"budget"`
	Categories   []ScanCategory `json:"categories"`
	TotalHits    int            `json:"total_hits"`
	Limitations  string         `json:"limitations"`
}

// FlattenHits merges the per-category hit lists into one flat list,
// defaulting each hit's category, title and severity from its parent
// category when the hit itself left them empty.
func (p *ScanPayload) FlattenHits() []Hit {
	var out []Hit
	for _, cat := range p.Categories {
		for _, h := range cat.Hits {
			if h.Category == "" {
				h.Category = cat.ID
			}
			if h.Title == "" {
				h.Title = cat.Title
			}
			if h.Severity == "" && cat.Severity != "" {
				h.Severity = cat.Severity
			}
			out = append(out, h)
		}
	}
	return out
}

// Profile is a coarse shape-of-the-repo summary used in the final report.
type Profile struct {
	FileCount int            `json:"file_count"`
	Languages map[string]int `json:"languages"`
}
