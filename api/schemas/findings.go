package schemas

// Fixed hint texts attached to findings. The attack-chain composer matches
// on AuthzGapMissing, so these are constants rather than free-form strings.
const (
	AuthzGapMissing = "authorization binding likely missing for this sink"
	AuthzGapPartial = "authorization vocabulary present in file; verify it covers this path"
)

// Finding is a deduplicated, scored, ranked flow presented as an actionable
// result. Exactly one finding is derived from each surviving flow.
type Finding struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Severity      Severity  `json:"severity"`
	Status        Status    `json:"status"`
	EvidenceScore int       `json:"evidence_score"`
	Source        string    `json:"source"`
	Sink          string    `json:"sink"`
	Kind          TaintKind `json:"kind"`
	Impact        string    `json:"impact"`

	FunctionStack []string `json:"function_stack"`
	VariableChain []string `json:"variable_chain"`
	Guards        []string `json:"guards"`
	Sanitizers    []string `json:"sanitizers"`

	Evidence       []Evidence `json:"evidence"`
	ScoreReasoning []string   `json:"score_reasoning"`
	Notes          []string   `json:"notes"`

	Exploitability string `json:"exploitability"`
	AuthzGapHint   string `json:"authz_gap_hint"`
	FixHint        string `json:"fix_hint"`
}

// AttackChain is a named multi-step hypothesis composed from aggregate
// properties of the findings set. Chains deliberately carry no reference to
// the findings that triggered them: they describe patterns, not instances.
type AttackChain struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Preconditions []string `json:"preconditions"`
	Steps         []string `json:"steps"`
	Impact        string   `json:"impact"`
}

// AuthzHit is a single authorization-vocabulary occurrence.
type AuthzHit struct {
	File    string `json:"file"`
	Line    int    `json:"line"`
	Snippet string `json:"snippet"`
}

// AuthzSummary aggregates the authorization scan.
type AuthzSummary struct {
	FilesScanned  int            `json:"files_scanned"`
	HitCount      int            `json:"hits"`
	KeywordCounts map[string]int `json:"keywords"`
}

// AuthzModel is the output of the authorization-signal extractor. It is
// queried by file path only: a file with at least one hit is treated as
// "has authorization semantics present".
type AuthzModel struct {
	GeneratedAt string       `json:"generated_at"`
	Hits        []AuthzHit   `json:"hits"`
	Summary     AuthzSummary `json:"summary"`
}

// HitsByFile groups the model's hits per repo-relative path.
func (m *AuthzModel) HitsByFile() map[string][]AuthzHit {
	byFile := make(map[string][]AuthzHit)
	for _, h := range m.Hits {
		byFile[h.File] = append(byFile[h.File], h)
	}
	return byFile
}
