package reporting

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/lancet-cli/api/schemas"
)

func TestWriteSARIF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "findings.sarif")
	findings := []schemas.Finding{
		{
			ID: "F-001", Title: "command execution: potential taint propagation (cmd)",
			Severity: schemas.SeverityCritical, Status: schemas.StatusConfirmed,
			EvidenceScore: 98, Kind: schemas.KindCmd,
			Source: "app.py:4", Sink: "app.py:8", FixHint: "parameterize",
			Evidence: []schemas.Evidence{{Role: schemas.RoleSink, File: "app.py", Line: 8, Snippet: "os.system(name)"}},
		},
		{
			ID: "F-002", Title: "template rendering: potential taint propagation (template)",
			Severity: schemas.SeverityMedium, Status: schemas.StatusPossible,
			EvidenceScore: 48, Kind: schemas.KindTemplate,
			Source: "unknown", Sink: "b.py:9",
		},
	}

	require.NoError(t, WriteSARIF(path, findings))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	doc := string(data)

	assert.Contains(t, doc, `"2.1.0"`)
	assert.Contains(t, doc, "lancet-cli")
	assert.Contains(t, doc, "taint/cmd")
	assert.Contains(t, doc, "taint/template")
	assert.Contains(t, doc, `"error"`)
	assert.Contains(t, doc, `"warning"`)
	assert.Contains(t, doc, "app.py")
}

func TestSarifLevelMapping(t *testing.T) {
	assert.Equal(t, "error", sarifLevel(schemas.SeverityCritical))
	assert.Equal(t, "error", sarifLevel(schemas.SeverityHigh))
	assert.Equal(t, "warning", sarifLevel(schemas.SeverityMedium))
	assert.Equal(t, "note", sarifLevel(schemas.SeverityLow))
}

func TestSinkLocationFallsBackToDisplayReference(t *testing.T) {
	file, line := sinkLocation(schemas.Finding{Sink: "b.py:9"})
	assert.Equal(t, "b.py:9", file)
	assert.Equal(t, 1, line)

	file, line = sinkLocation(schemas.Finding{
		Sink:     "a.py:8",
		Evidence: []schemas.Evidence{{Role: schemas.RoleSink, File: "a.py", Line: 8}},
	})
	assert.Equal(t, "a.py", file)
	assert.Equal(t, 8, line)
}
