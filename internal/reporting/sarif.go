package reporting

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/owenrumney/go-sarif/v2/sarif"

	"github.com/xkilldash9x/lancet-cli/api/schemas"
)

const (
	toolName = "lancet-cli"
	toolURI  = "https://github.com/xkilldash9x/lancet-cli"
)

// sarifLevel maps a finding severity onto the SARIF level vocabulary.
func sarifLevel(sev schemas.Severity) string {
	switch sev {
	case schemas.SeverityCritical, schemas.SeverityHigh:
		return "error"
	case schemas.SeverityMedium:
		return "warning"
	default:
		return "note"
	}
}

// WriteSARIF exports the findings list as a SARIF 2.1.0 report at path.
// One rule per taint kind, one result per finding, located at the sink.
func WriteSARIF(path string, findings []schemas.Finding) error {
	report, err := sarif.New(sarif.Version210)
	if err != nil {
		return fmt.Errorf("creating sarif report: %w", err)
	}
	run := sarif.NewRunWithInformationURI(toolName, toolURI)

	seenRules := make(map[string]bool)
	for _, f := range findings {
		ruleID := "taint/" + string(f.Kind)
		if !seenRules[ruleID] {
			seenRules[ruleID] = true
			run.AddRule(ruleID).
				WithDescription(fmt.Sprintf("Heuristic taint flow into a %s sink", f.Kind)).
				WithDefaultConfiguration(&sarif.ReportingConfiguration{
					Level: sarifLevel(f.Severity),
				})
		}

		file, line := sinkLocation(f)
		location := sarif.NewLocation().
			WithPhysicalLocation(sarif.NewPhysicalLocation().
				WithArtifactLocation(sarif.NewArtifactLocation().WithUri(file)).
				WithRegion(sarif.NewRegion().WithStartLine(line)))

		msg := fmt.Sprintf("%s [%s/%s, score %d]. Source: %s. %s",
			f.Title, f.Severity, f.Status, f.EvidenceScore, f.Source, f.FixHint)

		result := sarif.NewRuleResult(ruleID).
			WithMessage(sarif.NewTextMessage(msg)).
			WithLevel(sarifLevel(f.Severity)).
			WithLocations([]*sarif.Location{location})
		run.AddResult(result)
	}
	report.AddRun(run)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating sarif output directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating sarif file: %w", err)
	}
	defer file.Close()
	return report.PrettyWrite(file)
}

// sinkLocation recovers the sink file and line from the finding's evidence.
// The sink is always the first evidence record; a finding without one
// degrades to the display reference at line 1 rather than failing the
// export.
func sinkLocation(f schemas.Finding) (string, int) {
	for _, ev := range f.Evidence {
		if ev.Role == schemas.RoleSink {
			line := ev.Line
			if line < 1 {
				line = 1
			}
			return ev.File, line
		}
	}
	return f.Sink, 1
}
