package schemas

// Severity represents the severity level of a finding. Values are lowercase
// so they can be compared and serialized consistently across artifacts.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Rank maps a severity onto a sortable integer, most severe first.
// Unknown values sort last.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityHigh:
		return 1
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 3
	default:
		return 4
	}
}

// Status is the confidence label attached to a finding.
type Status string

const (
	StatusConfirmed Status = "Confirmed"
	StatusLikely    Status = "Likely"
	StatusPossible  Status = "Possible"
)

// TaintKind is the taint category a sink belongs to.
type TaintKind string

const (
	KindCmd      TaintKind = "cmd"
	KindPath     TaintKind = "path"
	KindQuery    TaintKind = "query"
	KindTemplate TaintKind = "template"
	KindSSRF     TaintKind = "ssrf"
	KindDeser    TaintKind = "deser"
	KindMemory   TaintKind = "memory"
	KindAuthz    TaintKind = "authz"
	KindUnknown  TaintKind = "unknown"
)

// DefaultKinds returns every taint kind the pipeline analyzes when no
// explicit kind filter is configured. Order is significant: it is the
// canonical display order in rendered artifacts.
func DefaultKinds() []TaintKind {
	return []TaintKind{
		KindCmd, KindPath, KindQuery, KindTemplate,
		KindSSRF, KindDeser, KindMemory, KindAuthz,
	}
}

// KindSet builds a membership set from a list of kind names.
func KindSet(kinds []string) map[TaintKind]bool {
	set := make(map[TaintKind]bool, len(kinds))
	for _, k := range kinds {
		set[TaintKind(k)] = true
	}
	return set
}
