package schemas

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFlattenHitsDefaultsFromCategory(t *testing.T) {
	payload := &ScanPayload{
		Categories: []ScanCategory{
			{
				ID: "exec", Title: "command execution / process spawn", Severity: SeverityHigh,
				Hits: []Hit{
					{File: "a.py", Line: 3, Snippet: "os.system(cmd)"},
					{File: "b.py", Line: 9, Snippet: "subprocess.run(args)", Category: "custom", Title: "kept", Severity: SeverityMedium},
				},
			},
			{ID: "template", Title: "template rendering", Severity: SeverityMedium},
		},
	}

	flat := payload.FlattenHits()
	assert.Len(t, flat, 2)

	assert.Equal(t, "exec", flat[0].Category)
	assert.Equal(t, "command execution / process spawn", flat[0].Title)
	assert.Equal(t, SeverityHigh, flat[0].Severity)

	// Hits that already carry metadata keep it.
	assert.Equal(t, "custom", flat[1].Category)
	assert.Equal(t, "kept", flat[1].Title)
	assert.Equal(t, SeverityMedium, flat[1].Severity)
}

func TestSeverityRankOrdering(t *testing.T) {
	assert.Less(t, SeverityCritical.Rank(), SeverityHigh.Rank())
	assert.Less(t, SeverityHigh.Rank(), SeverityMedium.Rank())
	assert.Less(t, SeverityMedium.Rank(), SeverityLow.Rank())
	assert.Less(t, SeverityLow.Rank(), Severity("bogus").Rank())
}

func TestKindSet(t *testing.T) {
	set := KindSet([]string{"cmd", "path"})
	assert.True(t, set[KindCmd])
	assert.True(t, set[KindPath])
	assert.False(t, set[KindQuery])
}

func TestDefaultKindsCoversEveryAnalyzedKind(t *testing.T) {
	kinds := DefaultKinds()
	assert.Len(t, kinds, 8)
	assert.Equal(t, KindCmd, kinds[0])
	assert.NotContains(t, kinds, KindUnknown)
}
