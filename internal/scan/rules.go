package scan

import (
	"regexp"

	"github.com/xkilldash9x/lancet-cli/api/schemas"
)

// Rule is one scanner rule: a category, a display title, an optional
// severity (sink rules only) and the line regex. Rules are ordered;
// the first rule matching a line wins.
type Rule struct {
	Category string
	Title    string
	Severity schemas.Severity
	Regexp   *regexp.Regexp
}

// EntryRules enumerates candidate untrusted-input entry points.
func EntryRules() []Rule {
	return []Rule{
		{Category: "main", Title: "main entry point",
			Regexp: regexp.MustCompile(`if\s+__name__\s*==\s*['"]__main__['"]|\bfunc\s+main\s*\(|\bpublic\s+static\s+void\s+main\s*\(|\bfn\s+main\s*\(`)},
		{Category: "http", Title: "web handler/router registration",
			Regexp: regexp.MustCompile(`\b(router|app)\.(get|post|put|patch|delete|use|all)\s*\(|@(?:Get|Post|Put|Patch|Delete|Request)Mapping\b|\bhttp\.Handle(Func)?\s*\(|\bgin\.(Default|New)\s*\(|\bmux\.NewRouter\s*\(`)},
		{Category: "rpc", Title: "RPC service registration",
			Regexp: regexp.MustCompile(`\bgrpc\.NewServer\s*\(|\bRegister\w*Server\s*\(|\brpc\.Register\s*\(|\bthrift\b|@GrpcService\b|\bprotobuf\b`)},
		{Category: "mq", Title: "message-queue consumer/callback",
			Regexp: regexp.MustCompile(`(?i)\b(subscribe|consume|on_message|onMessage|RabbitListener|KafkaListener)\b|\bamqp\.Channel\.Consume\s*\(|\bkafka\.(Consumer|Reader)\b`)},
		{Category: "cli", Title: "CLI flag/argument entry",
			Regexp: regexp.MustCompile(`\b(argparse\.ArgumentParser|click\.(command|option)|cobra\.Command|urfave/cli|flag\.(String|Int|Bool)|commander\.)`)},
		{Category: "env_cfg", Title: "environment/config loading",
			Regexp: regexp.MustCompile(`\b(os\.environ|getenv\s*\(|process\.env|dotenv|viper\.Get\w*\(|config\.(get|load)|yaml\.(safe_)?load\s*\(|toml\.load\s*\(|json\.load\s*\()`)},
		{Category: "file_parse", Title: "file parsing entry",
			Regexp: regexp.MustCompile(`\b(read(File|_to_string)?|ReadFile|fs\.readFile|ioutil\.ReadFile|Path\.(read_text|read_bytes))\b|\b(json\.loads|yaml\.(safe_)?load|xml\.|pickle\.loads|serde_json::from_(str|slice))`)},
	}
}

// SinkRules enumerates candidate sensitive operations, each with a severity.
func SinkRules() []Rule {
	return []Rule{
		{Category: "exec", Title: "command execution / process spawn", Severity: schemas.SeverityHigh,
			Regexp: regexp.MustCompile(`\b(os\.system|popen\s*\(|subprocess\.(run|Popen|call)|execve?\s*\(|Runtime\.getRuntime\(\)\.exec|exec\.Command\s*\()`)},
		{Category: "eval", Title: "dynamic code evaluation", Severity: schemas.SeverityHigh,
			Regexp: regexp.MustCompile(`\b(eval\s*\(|exec\s*\(|new\s+Function\s*\(|vm\.runIn\w+\s*\(|ScriptEngineManager\b)`)},
		{Category: "template", Title: "template rendering", Severity: schemas.SeverityMedium,
			Regexp: regexp.MustCompile(`(?i)\b(render_template_string|jinja2\.Template|Mustache\.render|handlebars\.compile|template\.Execute|Thymeleaf|freemarker)\b`)},
		{Category: "sql", Title: "raw SQL construction/execution", Severity: schemas.SeverityHigh,
			Regexp: regexp.MustCompile(`(?i)\b(cursor\.execute|db\.query|db\.exec|sequelize\.query|createNativeQuery|Statement\.execute(Query)?|Raw\s*\()`)},
		{Category: "deser", Title: "deserialization", Severity: schemas.SeverityHigh,
			Regexp: regexp.MustCompile(`\b(pickle\.loads|yaml\.load\s*\(|ObjectInputStream|BinaryFormatter|gob\.NewDecoder|serde_json::from_(str|slice)|jsonpickle\.decode)`)},
		{Category: "file_write", Title: "file write / path join", Severity: schemas.SeverityMedium,
			Regexp: regexp.MustCompile(`(?i)\b(open\s*\([^\n]*["']w|fs\.writeFile|ioutil\.WriteFile|Files\.write|FileOutputStream|path\.join|os\.path\.join|filepath\.Join)`)},
		{Category: "network", Title: "outbound request / network dial", Severity: schemas.SeverityMedium,
			Regexp: regexp.MustCompile(`\b(requests\.(get|post|put|delete)|httpx\.(get|post)|axios\.(get|post)|fetch\s*\(|http\.(Get|Post|Do)|urllib\.request\.|net\.Dial|grpc\.Dial)`)},
		{Category: "memory", Title: "format string / memory boundary", Severity: schemas.SeverityHigh,
			Regexp: regexp.MustCompile(`\b(strcpy\s*\(|strcat\s*\(|sprintf\s*\(|vsprintf\s*\(|gets\s*\(|memcpy\s*\([^,]+,[^,]+,[^)]+\)|unsafe\.Pointer)`)},
		{Category: "dangerous_cfg", Title: "dangerous configuration", Severity: schemas.SeverityMedium,
			Regexp: regexp.MustCompile(`(?i)\b(verify\s*=\s*False|InsecureSkipVerify\s*:\s*true|allow_origins\s*=\s*\[?['"]\*['"]\]?|disable_auth|skip_auth|permitAll\s*\()`)},
	}
}
