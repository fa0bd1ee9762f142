package flow

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/lancet-cli/api/schemas"
	"github.com/xkilldash9x/lancet-cli/internal/analysis/index"
	"github.com/xkilldash9x/lancet-cli/internal/analysis/patterns"
)

const appSource = `import os

def handler(request):
    name = request.args.get("name")
    run_job(name)

def run_job(name):
    os.system(name)
`

func writeApp(t *testing.T, content string) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "app.py"), []byte(content), 0o644))
	return root
}

func allKinds() map[schemas.TaintKind]bool {
	set := make(map[schemas.TaintKind]bool)
	for _, k := range schemas.DefaultKinds() {
		set[k] = true
	}
	return set
}

func sinkHit(file string, line int, category, snippet string, sev schemas.Severity) schemas.Hit {
	return schemas.Hit{File: file, Line: line, Category: category, Title: category, Snippet: snippet, Severity: sev}
}

func sourceHit(file string, line int, snippet string) schemas.Hit {
	return schemas.Hit{File: file, Line: line, Category: "http", Title: "web handler", Snippet: snippet}
}

func TestBackwardWindowedSource(t *testing.T) {
	root := writeApp(t, appSource)
	tab := patterns.Default()
	idx := index.Build(root, []string{"app.py"}, tab, zap.NewNop())
	b := NewBuilder(root, tab, zap.NewNop())

	sinks := []schemas.Hit{sinkHit("app.py", 8, "exec", "os.system(name)", schemas.SeverityHigh)}
	sources := []schemas.Hit{sourceHit("app.py", 4, `name = request.args.get("name")`)}

	flows := b.Backward(sinks, sources, idx, 1, allKinds())
	require.Len(t, flows, 1)
	f := flows[0]

	assert.Equal(t, "BWD-0001", f.ID)
	assert.Equal(t, schemas.KindCmd, f.Kind)
	assert.Equal(t, schemas.SeverityHigh, f.Severity)
	require.NotNil(t, f.Source)
	assert.Equal(t, 4, f.Source.Line)
	assert.NotContains(t, f.Notes, NoteGlobalFallback)

	// Sink frame first, then the name-matched call site of run_job.
	require.NotEmpty(t, f.FunctionStack)
	assert.True(t, strings.HasPrefix(f.FunctionStack[0], "app.py:run_job:8"))

	// The only shared identifier between source and sink lines.
	assert.Equal(t, []string{"name"}, f.VariableChain)

	require.NotEmpty(t, f.Evidence)
	assert.Equal(t, schemas.RoleSink, f.Evidence[0].Role)
	assert.Equal(t, schemas.RoleSource, f.Evidence[1].Role)
}

func TestBackwardGlobalFallbackSource(t *testing.T) {
	root := writeApp(t, appSource)
	tab := patterns.Default()
	idx := index.Build(root, []string{"app.py"}, tab, zap.NewNop())
	b := NewBuilder(root, tab, zap.NewNop())

	sinks := []schemas.Hit{sinkHit("app.py", 8, "exec", "os.system(name)", schemas.SeverityHigh)}
	// The only source lives in a different file, outside any window.
	sources := []schemas.Hit{sourceHit("web.py", 10, "data = request.body")}

	flows := b.Backward(sinks, sources, idx, 1, allKinds())
	require.Len(t, flows, 1)
	require.NotNil(t, flows[0].Source)
	assert.Equal(t, "web.py", flows[0].Source.File)
	assert.Contains(t, flows[0].Notes, NoteGlobalFallback)
}

func TestBackwardNoSourceAnywhere(t *testing.T) {
	root := writeApp(t, appSource)
	tab := patterns.Default()
	idx := index.Build(root, []string{"app.py"}, tab, zap.NewNop())
	b := NewBuilder(root, tab, zap.NewNop())

	sinks := []schemas.Hit{sinkHit("app.py", 8, "exec", "os.system(name)", schemas.SeverityHigh)}

	flows := b.Backward(sinks, nil, idx, 1, allKinds())
	require.Len(t, flows, 1)
	assert.Nil(t, flows[0].Source)
	// With no source line, the sink line's own tokens stand in.
	assert.Equal(t, []string{"system", "name"}, flows[0].VariableChain)
}

func TestBackwardIDsKeepGapsWhenKindsFiltered(t *testing.T) {
	root := writeApp(t, appSource)
	tab := patterns.Default()
	idx := index.Build(root, []string{"app.py"}, tab, zap.NewNop())
	b := NewBuilder(root, tab, zap.NewNop())

	sinks := []schemas.Hit{
		sinkHit("app.py", 8, "exec", "os.system(name)", schemas.SeverityHigh),
		sinkHit("app.py", 4, "template", "render(name)", schemas.SeverityMedium),
	}

	// Only template is enabled; the high severity exec sink sorts first and
	// its skipped position leaves BWD-0001 unassigned.
	flows := b.Backward(sinks, nil, idx, 1, map[schemas.TaintKind]bool{schemas.KindTemplate: true})
	require.Len(t, flows, 1)
	assert.Equal(t, "BWD-0002", flows[0].ID)
	assert.Equal(t, schemas.KindTemplate, flows[0].Kind)
}

func TestBackwardPrioritizesHighSeveritySinks(t *testing.T) {
	root := writeApp(t, appSource)
	tab := patterns.Default()
	idx := index.Build(root, []string{"app.py"}, tab, zap.NewNop())
	b := NewBuilder(root, tab, zap.NewNop())

	sinks := []schemas.Hit{
		sinkHit("app.py", 4, "template", "render(name)", schemas.SeverityMedium),
		sinkHit("app.py", 8, "exec", "os.system(name)", schemas.SeverityHigh),
	}

	flows := b.Backward(sinks, nil, idx, 1, allKinds())
	require.Len(t, flows, 2)
	assert.Equal(t, schemas.KindCmd, flows[0].Kind)
	assert.Equal(t, "BWD-0001", flows[0].ID)
	assert.Equal(t, "BWD-0002", flows[1].ID)
}

func TestBackwardDetectsNearbySanitizersAndGuards(t *testing.T) {
	content := `def handler(request):
    name = request.args.get("name")
    clean = sanitize(name)
    if not user.has_role("admin"):
        return
    os.system(clean)
`
	root := writeApp(t, content)
	tab := patterns.Default()
	idx := index.Build(root, []string{"app.py"}, tab, zap.NewNop())
	b := NewBuilder(root, tab, zap.NewNop())

	sinks := []schemas.Hit{sinkHit("app.py", 6, "exec", "os.system(clean)", schemas.SeverityHigh)}
	flows := b.Backward(sinks, nil, idx, 1, allKinds())
	require.Len(t, flows, 1)

	require.NotEmpty(t, flows[0].Sanitizers)
	assert.True(t, strings.HasPrefix(flows[0].Sanitizers[0], "L3: "))
	require.NotEmpty(t, flows[0].Guards)
	assert.Contains(t, flows[0].Notes, NoteSanitizer)
	assert.Contains(t, flows[0].Notes, NoteGuard)
}

func TestForwardOneFlowPerSourceCategory(t *testing.T) {
	root := writeApp(t, appSource)
	tab := patterns.Default()
	b := NewBuilder(root, tab, zap.NewNop())

	sources := []schemas.Hit{
		sourceHit("app.py", 3, "def handler(request):"),
		sourceHit("app.py", 4, `name = request.args.get("name")`),
		{File: "app.py", Line: 1, Category: "env_cfg", Title: "config", Snippet: "import os"},
	}
	sinks := []schemas.Hit{sinkHit("app.py", 8, "exec", "os.system(name)", schemas.SeverityHigh)}

	flows := b.Forward(sources, sinks, 1, allKinds())
	// Two categories, two flows; the second http source is not a
	// representative.
	require.Len(t, flows, 2)
	assert.Equal(t, "FWD-0001", flows[0].ID)
	assert.Equal(t, "FWD-0002", flows[1].ID)
	assert.Equal(t, 3, flows[0].Source.Line)

	// The exec sink on line 8 sits inside the first flow's window.
	require.Len(t, flows[0].CandidateSinks, 1)
	assert.Equal(t, 8, flows[0].CandidateSinks[0].Line)

	// os.system( on line 8 also matches the generic risky-call vocabulary.
	assert.NotEmpty(t, flows[0].UnknownRiskyCalls)
	assert.Contains(t, flows[0].Notes, NoteForwardWindow)
}

func TestForwardSkipsDisabledKinds(t *testing.T) {
	root := writeApp(t, appSource)
	tab := patterns.Default()
	b := NewBuilder(root, tab, zap.NewNop())

	sources := []schemas.Hit{sourceHit("app.py", 3, "def handler(request):")}
	sinks := []schemas.Hit{sinkHit("app.py", 8, "exec", "os.system(name)", schemas.SeverityHigh)}

	flows := b.Forward(sources, sinks, 1, map[schemas.TaintKind]bool{schemas.KindPath: true})
	require.Len(t, flows, 1)
	assert.Empty(t, flows[0].CandidateSinks)
}

func TestNearbySourcesClosestFirstCapFive(t *testing.T) {
	var sources []schemas.Hit
	for _, line := range []int{10, 50, 52, 48, 49, 51, 47} {
		sources = append(sources, sourceHit("app.py", line, "x"))
	}
	got := nearbySources(sources, "app.py", 50, 1)
	require.Len(t, got, 5)
	assert.Equal(t, 50, got[0].Line)
	for i := 1; i < len(got); i++ {
		prev := abs(got[i-1].Line - 50)
		cur := abs(got[i].Line - 50)
		assert.LessOrEqual(t, prev, cur)
	}
}
