// Package srcfile provides line-oriented re-read access to scanned source
// files. Hits only carry truncated snippets, so every analysis phase that
// needs full line text goes through here.
package srcfile

import (
	"os"
	"path/filepath"
	"strings"
)

// SnippetLimit is the maximum length of a snippet carried in evidence.
const SnippetLimit = 180

// ReadLines returns the lines of a repo-relative file. Read failures are
// recovered locally: the file is treated as empty and the caller continues.
func ReadLines(root, rel string) []string {
	data, err := os.ReadFile(filepath.Join(root, rel))
	if err != nil {
		return nil
	}
	return strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
}

// LineAt returns the 1-based line, trimmed, or "" when out of range.
func LineAt(lines []string, lineNo int) string {
	if lineNo < 1 || lineNo > len(lines) {
		return ""
	}
	return strings.TrimSpace(lines[lineNo-1])
}

// Truncate trims text to at most limit bytes.
func Truncate(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	return text[:limit]
}

// Snippet trims and truncates a raw source line for evidence records.
func Snippet(line string) string {
	return Truncate(strings.TrimSpace(line), SnippetLimit)
}
