package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/lancet-cli/internal/config"
	"github.com/xkilldash9x/lancet-cli/internal/observability"
	"github.com/xkilldash9x/lancet-cli/internal/orchestrator"
)

// ErrAttentionRequired signals a successful run that produced Confirmed
// critical or high findings. The process maps it onto exit status 2 so CI
// gates can distinguish "found something urgent" from "failed".
var ErrAttentionRequired = errors.New("confirmed high-impact findings present")

// runtimeErrorLog is the diagnostic file written into the output directory
// when the pipeline itself fails.
const runtimeErrorLog = "runtime_error.log"

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Run the full static taint audit over a repository checkout.",
	Long: `Audit scans a repository for entry points and sensitive sinks, correlates
them into backward and forward taint flows, scores the evidence and writes
the markdown artifact set (and optionally SARIF) into the output directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var cfg config.Config
		if err := viper.Unmarshal(&cfg); err != nil {
			return fmt.Errorf("failed to unmarshal config: %w", err)
		}
		if err := cfg.Audit.Normalize(); err != nil {
			return err
		}

		logger := observability.GetLogger()
		outcome, err := orchestrator.New(cfg.Audit, logger).Run()
		if err != nil {
			logger.Error("audit failed", zap.Error(err))
			writeRuntimeError(cfg.Audit.OutputDir, err)
			return err
		}

		logger.Info("audit complete",
			zap.Bool("cache_hit", outcome.CacheHit),
			zap.Int("findings", outcome.FindingCount),
			zap.Bool("attention_required", outcome.Attention))

		if outcome.Attention {
			return ErrAttentionRequired
		}
		return nil
	},
}

func init() {
	f := auditCmd.Flags()
	f.String("repo-root", ".", "repository checkout to audit")
	f.String("output-dir", "./out", "directory for rendered artifacts and the cache")
	f.StringSlice("focus-path", nil, "restrict scanning to these paths (repeatable, comma-splittable)")
	f.StringSlice("kinds", nil, "taint kinds to analyze (default: all)")
	f.Int("depth", 3, "tracing depth; scales search windows and caller fan-out")
	f.Int("budget", 0, "maximum files to scan (0 = unlimited)")
	f.Bool("no-cache", false, "ignore and do not write the incremental cache")
	f.String("sarif", "", "additionally export findings as SARIF 2.1.0 to this path")

	must(viper.BindPFlag("audit.repo_root", f.Lookup("repo-root")))
	must(viper.BindPFlag("audit.output_dir", f.Lookup("output-dir")))
	must(viper.BindPFlag("audit.focus_paths", f.Lookup("focus-path")))
	must(viper.BindPFlag("audit.kinds", f.Lookup("kinds")))
	must(viper.BindPFlag("audit.depth", f.Lookup("depth")))
	must(viper.BindPFlag("audit.budget", f.Lookup("budget")))
	must(viper.BindPFlag("audit.no_cache", f.Lookup("no-cache")))
	must(viper.BindPFlag("audit.sarif", f.Lookup("sarif")))

	rootCmd.AddCommand(auditCmd)
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// writeRuntimeError leaves a human-readable diagnostic next to the (possibly
// partial) artifacts. Best effort: a failure here only loses the breadcrumb.
func writeRuntimeError(outputDir string, runErr error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return
	}
	content := fmt.Sprintf("time: %s\nerror: %v\n",
		time.Now().UTC().Format(time.RFC3339), runErr)
	_ = os.WriteFile(filepath.Join(outputDir, runtimeErrorLog), []byte(content), 0o644)
}
