package authz

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/lancet-cli/internal/analysis/patterns"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(root, rel), []byte(content), 0o644))
}

func TestScanRecordsEveryMatchingLine(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "auth.py",
		"def check(user):\n"+
			"    if not user.permission:\n"+
			"        deny()\n"+
			"    tenant = user.tenant_id\n")
	writeFile(t, root, "plain.py", "x = 1\ny = 2\n")

	model := Scan(root, []string{"auth.py", "plain.py"}, patterns.Default(), 0, "2026-01-01T00:00:00Z", zap.NewNop())

	assert.Equal(t, 2, model.Summary.FilesScanned)
	// Lines 2, 3 and 4 of auth.py each carry vocabulary.
	assert.Equal(t, 3, model.Summary.HitCount)
	require.Len(t, model.Hits, 3)
	assert.Equal(t, "auth.py", model.Hits[0].File)
	assert.Equal(t, 2, model.Hits[0].Line)

	assert.Equal(t, 1, model.Summary.KeywordCounts["permission"])
	assert.Equal(t, 1, model.Summary.KeywordCounts["tenant"])
	assert.Zero(t, model.Summary.KeywordCounts["policy"])
}

func TestScanBudgetCapsFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.py", "if user.permission:\n")
	writeFile(t, root, "b.py", "apply(policy, user)\n")

	model := Scan(root, []string{"a.py", "b.py"}, patterns.Default(), 1, "2026-01-01T00:00:00Z", zap.NewNop())

	assert.Equal(t, 1, model.Summary.FilesScanned)
	assert.Equal(t, 1, model.Summary.HitCount)
}

func TestScanUnreadableFileStillCounts(t *testing.T) {
	root := t.TempDir()
	model := Scan(root, []string{"missing.py"}, patterns.Default(), 0, "2026-01-01T00:00:00Z", zap.NewNop())
	assert.Equal(t, 1, model.Summary.FilesScanned)
	assert.Zero(t, model.Summary.HitCount)
	assert.Empty(t, model.HitsByFile())
}
