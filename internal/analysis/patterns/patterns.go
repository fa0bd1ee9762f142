// Package patterns holds the ordered pattern tables that give the analysis
// its language awareness. The tables are heuristic by design: they model
// keyword-prefixed declarations and call-looking tokens across languages
// without parsing anything. A Table is built once at process start and
// passed by reference into every component.
package patterns

import "regexp"

// Entry is one prioritized pattern. Earlier entries win: the first match on
// a line is the one recorded.
type Entry struct {
	Name   string
	Regexp *regexp.Regexp
}

// Table is the immutable pattern configuration for one run.
type Table struct {
	// FuncDefs match function/method definitions; capture group 1 is the
	// declared name.
	FuncDefs []Entry
	// Call matches identifier-followed-by-open-paren occurrences.
	Call *regexp.Regexp
	// Reserved holds tokens excluded from call and identifier extraction.
	Reserved map[string]bool
	// Sanitizers and Guards classify lines near a sink.
	Sanitizers []Entry
	Guards     []Entry
	// Authz is the authorization/ownership/tenancy vocabulary.
	Authz []Entry
	// AuthzKeywords is the fixed subset counted per keyword.
	AuthzKeywords []string
	// RiskyCall matches the generic dangerous-call-name family used by the
	// forward pass for lines that no sink rule classified.
	RiskyCall *regexp.Regexp

	identifier *regexp.Regexp
}

// Default compiles the built-in table.
func Default() *Table {
	return &Table{
		FuncDefs: []Entry{
			{"python_def", regexp.MustCompile(`^\s*def\s+([A-Za-z_][A-Za-z0-9_]*)\s*\(`)},
			{"python_async_def", regexp.MustCompile(`^\s*async\s+def\s+([A-Za-z_][A-Za-z0-9_]*)\s*\(`)},
			{"go_func", regexp.MustCompile(`^\s*func\s+([A-Za-z_][A-Za-z0-9_]*)\s*\(`)},
			{"qualified_decl", regexp.MustCompile(`^\s*(?:public|private|protected|static|final|synchronized|inline|virtual|constexpr|unsafe|mut|async|export|internal|extern|\s)+\s*([A-Za-z_][A-Za-z0-9_]*)\s*\([^;]*\)\s*\{`)},
			{"rust_fn", regexp.MustCompile(`^\s*fn\s+([A-Za-z_][A-Za-z0-9_]*)\s*\(`)},
		},
		Call: regexp.MustCompile(`\b([A-Za-z_][A-Za-z0-9_]*)\s*\(`),
		Reserved: map[string]bool{
			"if": true, "for": true, "while": true, "switch": true,
			"catch": true, "return": true, "new": true, "def": true,
			"func": true, "fn": true, "class": true, "sizeof": true,
			"typeof": true, "else": true,
		},
		Sanitizers: []Entry{
			{"encode_escape", regexp.MustCompile(`(?i)\b(escape|sanitize|validate|clean|safe_\w+|quote|encodeURIComponent|html\.EscapeString|xss\.Escape)\b`)},
			{"path_canonicalize", regexp.MustCompile(`(?i)\b(realpath|normpath|filepath\.Clean|path\.normalize|canonicalize)\b`)},
			{"parameterize_allowlist", regexp.MustCompile(`(?i)\b(preparedStatement|parameterized|bindParam|QueryBuilder|allowlist|whitelist|regex)\b`)},
		},
		Guards: []Entry{
			{"authz_branch", regexp.MustCompile(`(?i)\b(if\s+.*(auth|authorize|permission|permit|role|tenant|owner|rbac|abac)|check\w*\(|require\w*\()`)},
			{"assertion", regexp.MustCompile(`(?i)\b(assert|deny|forbid|is_admin|is_owner|has_role|tenant_id)\b`)},
		},
		Authz: []Entry{
			{"permission_terms", regexp.MustCompile(`(?i)\b(auth|authorize|authorization|permission|permit|deny|rbac|abac|policy)\b`)},
			{"ownership_terms", regexp.MustCompile(`(?i)\b(owner|tenant|tenant_id|org_id|account_id|scope|principal|subject)\b`)},
		},
		AuthzKeywords: []string{"auth", "permission", "permit", "owner", "tenant", "role", "policy"},
		RiskyCall:     regexp.MustCompile(`(?i)\b(exec|system|query|render|deserialize|template|load|open|write|http|fetch|dial)\w*\s*\(`),
		identifier:    regexp.MustCompile(`\b[A-Za-z_][A-Za-z0-9_]*\b`),
	}
}

// sinkKinds maps sink scanner categories onto taint kinds.
var sinkKinds = map[string]string{
	"exec":          "cmd",
	"eval":          "cmd",
	"template":      "template",
	"sql":           "query",
	"deser":         "deser",
	"file_write":    "path",
	"network":       "ssrf",
	"memory":        "memory",
	"dangerous_cfg": "authz",
}

// KindForSinkCategory maps a sink category to its taint kind, or "unknown".
func KindForSinkCategory(category string) string {
	if kind, ok := sinkKinds[category]; ok {
		return kind
	}
	return "unknown"
}

// MatchFuncDef returns the declared name captured by the first matching
// definition pattern, or false when the line declares nothing.
func (t *Table) MatchFuncDef(line string) (string, bool) {
	for _, entry := range t.FuncDefs {
		if m := entry.Regexp.FindStringSubmatch(line); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// Identifiers extracts identifier tokens from text in order of appearance,
// skipping reserved words and tokens of length <= 2.
func (t *Table) Identifiers(text string) []string {
	var out []string
	for _, tok := range t.identifier.FindAllString(text, -1) {
		if len(tok) > 2 && !t.Reserved[tok] {
			out = append(out, tok)
		}
	}
	return out
}

// matchAny reports whether any entry in the set matches the line.
func matchAny(entries []Entry, line string) bool {
	for _, entry := range entries {
		if entry.Regexp.MatchString(line) {
			return true
		}
	}
	return false
}

// MatchSanitizer reports a sanitization-vocabulary match on the line.
func (t *Table) MatchSanitizer(line string) bool { return matchAny(t.Sanitizers, line) }

// MatchGuard reports a guard/authorization-branch match on the line.
func (t *Table) MatchGuard(line string) bool { return matchAny(t.Guards, line) }

// MatchAuthz reports an authorization-vocabulary match on the line.
func (t *Table) MatchAuthz(line string) bool { return matchAny(t.Authz, line) }
