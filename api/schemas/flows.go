package schemas

// EvidenceRole classifies an evidence record inside a flow.
type EvidenceRole string

const (
	RoleSink   EvidenceRole = "sink"
	RoleSource EvidenceRole = "source"
	RoleCall   EvidenceRole = "call"
)

// Evidence is one supporting code location attached to a flow or finding.
type Evidence struct {
	Role    EvidenceRole `json:"role"`
	File    string       `json:"file"`
	Line    int          `json:"line"`
	Snippet string       `json:"snippet"`
}

// Flow is one backward (sink-anchored) candidate source-to-sink association
// with its supporting textual evidence.
type Flow struct {
	ID       string    `json:"flow_id"`
	Kind     TaintKind `json:"kind"`
	Severity Severity  `json:"severity"`
	Sink     Hit       `json:"sink"`
	// Source is nil when no candidate could be located anywhere in the run.
	Source *Hit `json:"source"`
	// FunctionStack holds "file:function:line" frames, sink site first.
	// Appended frames are name-matched call sites, not verified callers.
	FunctionStack []string `json:"function_stack"`
	// VariableChain is the ordered identifier-token overlap between the
	// source and sink lines, or sink-line tokens alone when disjoint.
	VariableChain []string   `json:"variable_chain"`
	Guards        []string   `json:"guards"`
	Sanitizers    []string   `json:"sanitizers"`
	Evidence      []Evidence `json:"evidence"`
	Notes         []string   `json:"notes"`
}

// ForwardFlow is one source-anchored sweep over the lines following a
// representative source hit. Forward flows only corroborate backward flows
// and surface risky calls the backward pass never classified.
type ForwardFlow struct {
	ID                string     `json:"flow_id"`
	Source            Hit        `json:"source"`
	CandidateSinks    []Hit      `json:"candidate_sinks"`
	UnknownRiskyCalls []CallSite `json:"unknown_risky_calls"`
	Notes             []string   `json:"notes"`
}
