package orchestrator

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/xkilldash9x/lancet-cli/internal/cache"
	"github.com/xkilldash9x/lancet-cli/internal/config"
	"github.com/xkilldash9x/lancet-cli/internal/reporting"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const appSource = `import os

def handler(request):
    name = request.args.get("name")
    run_job(name)

def run_job(name):
    os.system(name)

if __name__ == "__main__":
    handler(None)
`

const authSource = `def check(user):
    if not user.permission:
        deny()
`

func fixtureRepo(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "app.py"), []byte(appSource), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "auth.py"), []byte(authSource), 0o644))
	return root
}

func fixedOrchestrator(cfg config.AuditConfig) *Orchestrator {
	o := New(cfg, zap.NewNop())
	o.now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
	o.newID = func() string { return "00000000-0000-0000-0000-000000000000" }
	return o
}

func readArtifacts(t *testing.T, dir string) map[string]string {
	t.Helper()
	out := make(map[string]string)
	for _, name := range artifactOrder {
		data, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err, name)
		out[name] = string(data)
	}
	return out
}

func TestRunProducesAllArtifacts(t *testing.T) {
	repo := fixtureRepo(t)
	out := filepath.Join(t.TempDir(), "out")
	cfg := config.AuditConfig{RepoRoot: repo, OutputDir: out, Depth: 1}

	outcome, err := fixedOrchestrator(cfg).Run()
	require.NoError(t, err)
	assert.False(t, outcome.CacheHit)
	assert.Positive(t, outcome.FindingCount)
	// The exec sink carries full evidence; it confirms at high impact.
	assert.True(t, outcome.Attention)

	artifacts := readArtifacts(t, out)
	assert.Contains(t, artifacts[reporting.FileFindings], "os.system(name)")
	assert.Contains(t, artifacts[reporting.FileReport], "## Summary")

	_, err = os.Stat(filepath.Join(out, cache.FileName))
	assert.NoError(t, err)
}

func TestRunIsDeterministic(t *testing.T) {
	repo := fixtureRepo(t)
	outA := filepath.Join(t.TempDir(), "a")
	outB := filepath.Join(t.TempDir(), "b")

	cfgA := config.AuditConfig{RepoRoot: repo, OutputDir: outA, Depth: 1, NoCache: true}
	cfgB := config.AuditConfig{RepoRoot: repo, OutputDir: outB, Depth: 1, NoCache: true}

	_, err := fixedOrchestrator(cfgA).Run()
	require.NoError(t, err)
	_, err = fixedOrchestrator(cfgB).Run()
	require.NoError(t, err)

	a := readArtifacts(t, outA)
	b := readArtifacts(t, outB)
	// Output paths differ in the params header, nothing else may.
	for _, name := range artifactOrder {
		ac := strings.ReplaceAll(a[name], outA, "<out>")
		bc := strings.ReplaceAll(b[name], outB, "<out>")
		assert.Empty(t, cmp.Diff(ac, bc), name)
	}
}

func TestRunCacheHitReplaysVerbatim(t *testing.T) {
	repo := fixtureRepo(t)
	out := filepath.Join(t.TempDir(), "out")
	cfg := config.AuditConfig{RepoRoot: repo, OutputDir: out, Depth: 1}

	first, err := fixedOrchestrator(cfg).Run()
	require.NoError(t, err)
	require.False(t, first.CacheHit)
	before := readArtifacts(t, out)

	second, err := fixedOrchestrator(cfg).Run()
	require.NoError(t, err)
	assert.True(t, second.CacheHit)
	assert.Equal(t, first.Attention, second.Attention)
	assert.Equal(t, first.FindingCount, second.FindingCount)
	assert.Equal(t, before, readArtifacts(t, out))
}

func TestRunOneByteChangeInvalidatesCache(t *testing.T) {
	repo := fixtureRepo(t)
	out := filepath.Join(t.TempDir(), "out")
	cfg := config.AuditConfig{RepoRoot: repo, OutputDir: out, Depth: 1}

	_, err := fixedOrchestrator(cfg).Run()
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(repo, "auth.py"), []byte(authSource+"#\n"), 0o644))

	outcome, err := fixedOrchestrator(cfg).Run()
	require.NoError(t, err)
	assert.False(t, outcome.CacheHit)
}

func TestRunParameterChangeInvalidatesCache(t *testing.T) {
	repo := fixtureRepo(t)
	out := filepath.Join(t.TempDir(), "out")

	_, err := fixedOrchestrator(config.AuditConfig{RepoRoot: repo, OutputDir: out, Depth: 1}).Run()
	require.NoError(t, err)

	outcome, err := fixedOrchestrator(config.AuditConfig{RepoRoot: repo, OutputDir: out, Depth: 2}).Run()
	require.NoError(t, err)
	assert.False(t, outcome.CacheHit)
}

func TestRunNoCacheWritesNoCacheFile(t *testing.T) {
	repo := fixtureRepo(t)
	out := filepath.Join(t.TempDir(), "out")
	cfg := config.AuditConfig{RepoRoot: repo, OutputDir: out, Depth: 1, NoCache: true}

	_, err := fixedOrchestrator(cfg).Run()
	require.NoError(t, err)

	_, statErr := os.Stat(filepath.Join(out, cache.FileName))
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunKindFilterNarrowsFindings(t *testing.T) {
	repo := fixtureRepo(t)
	out := filepath.Join(t.TempDir(), "out")
	cfg := config.AuditConfig{RepoRoot: repo, OutputDir: out, Depth: 1, NoCache: true, Kinds: []string{"path"}}

	outcome, err := fixedOrchestrator(cfg).Run()
	require.NoError(t, err)
	// The only sink in the fixture is cmd-kinded.
	assert.Zero(t, outcome.FindingCount)
	assert.False(t, outcome.Attention)
}

func TestRunWritesSARIFWhenConfigured(t *testing.T) {
	repo := fixtureRepo(t)
	tmp := t.TempDir()
	sarifPath := filepath.Join(tmp, "findings.sarif")
	cfg := config.AuditConfig{
		RepoRoot: repo, OutputDir: filepath.Join(tmp, "out"),
		Depth: 1, NoCache: true, SARIFPath: sarifPath,
	}

	_, err := fixedOrchestrator(cfg).Run()
	require.NoError(t, err)

	data, err := os.ReadFile(sarifPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "taint/cmd")
}

func TestBuildProfileGroupsExtensionlessFiles(t *testing.T) {
	profile := buildProfile([]string{"app.py", "lib/util.PY", "Makefile", "bin/run"})

	assert.Equal(t, 4, profile.FileCount)
	assert.Equal(t, 2, profile.Languages[".py"])
	assert.Equal(t, 2, profile.Languages["<none>"])
}

func TestRunMissingRepoRootFails(t *testing.T) {
	cfg := config.AuditConfig{
		RepoRoot:  filepath.Join(t.TempDir(), "nope"),
		OutputDir: filepath.Join(t.TempDir(), "out"),
		Depth:     1,
	}
	_, err := fixedOrchestrator(cfg).Run()
	assert.Error(t, err)
}
