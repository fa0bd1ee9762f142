package scan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/lancet-cli/api/schemas"
)

func TestScanSinksFirstRuleClaimsLine(t *testing.T) {
	root := t.TempDir()
	// The line matches both exec and eval vocabularies; exec is ordered
	// first and must claim it alone.
	writeFile(t, root, "app.py", "import subprocess\nsubprocess.run(exec(cmd))\n")

	payload := New(root, zap.NewNop()).ScanSinks([]string{"app.py"}, 0, "2026-01-01T00:00:00Z")
	require.Equal(t, 1, payload.TotalHits)

	byID := make(map[string]schemas.ScanCategory)
	for _, c := range payload.Categories {
		byID[c.ID] = c
	}
	assert.Equal(t, 1, byID["exec"].Count)
	assert.Equal(t, 0, byID["eval"].Count)
	assert.Equal(t, schemas.SeverityHigh, byID["exec"].Severity)
	assert.Equal(t, 2, byID["exec"].Hits[0].Line)
}

func TestScanEntriesCategoriesKeepRuleOrder(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.go", "package main\n\nfunc main() {\n}\n")

	payload := New(root, zap.NewNop()).ScanEntries([]string{"main.go"}, 0, "2026-01-01T00:00:00Z")

	require.Len(t, payload.Categories, 7)
	assert.Equal(t, "main", payload.Categories[0].ID)
	assert.Equal(t, 1, payload.Categories[0].Count)
	assert.Equal(t, 1, payload.TotalHits)
	assert.Equal(t, 1, payload.ScannedFiles)
}

func TestScanSkipsUnreadableFiles(t *testing.T) {
	root := t.TempDir()
	payload := New(root, zap.NewNop()).ScanSinks([]string{"missing.py"}, 0, "2026-01-01T00:00:00Z")
	assert.Equal(t, 0, payload.TotalHits)
	// The file still counts toward the selected set size.
	assert.Equal(t, 1, payload.ScannedFiles)
}

func TestScanBlankLinesNeverHit(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.py", "\n\n   \n")
	payload := New(root, zap.NewNop()).ScanSinks([]string{"a.py"}, 0, "2026-01-01T00:00:00Z")
	assert.Equal(t, 0, payload.TotalHits)
}
