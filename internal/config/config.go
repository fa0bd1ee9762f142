package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Config holds the entire application configuration as unmarshalled by
// viper. Field tags follow the config.yaml / LANCET_* env naming.
type Config struct {
	Logger LoggerConfig `mapstructure:"logger" yaml:"logger"`
	Audit  AuditConfig  `mapstructure:"audit" yaml:"audit"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// AuditConfig centralizes every runtime setting of a single audit run.
// RepoRoot, FocusPaths, Kinds, Depth and Budget together form the cache
// signature: changing any of them invalidates a prior cache entry.
type AuditConfig struct {
	RepoRoot   string   `mapstructure:"repo_root" yaml:"repo_root"`
	OutputDir  string   `mapstructure:"output_dir" yaml:"output_dir"`
	FocusPaths []string `mapstructure:"focus_paths" yaml:"focus_paths"`
	Kinds      []string `mapstructure:"kinds" yaml:"kinds"`
	Depth      int      `mapstructure:"depth" yaml:"depth"`
	// Budget caps the number of scanned files; 0 means unlimited.
	Budget  int  `mapstructure:"budget" yaml:"budget"`
	NoCache bool `mapstructure:"no_cache" yaml:"no_cache"`
	// SARIFPath, when set, additionally exports the findings list as a
	// SARIF 2.1.0 document at that path.
	SARIFPath string `mapstructure:"sarif" yaml:"sarif"`
}

// Default returns the baseline configuration applied before any config
// file, environment or flag overrides.
func Default() Config {
	return Config{
		Logger: LoggerConfig{
			Level:       "info",
			Format:      "console",
			ServiceName: "lancet-cli",
			MaxSize:     10,
			MaxBackups:  3,
			MaxAge:      7,
		},
		Audit: AuditConfig{
			RepoRoot:  ".",
			OutputDir: "./out",
			Depth:     3,
		},
	}
}

// DefaultMap flattens Default into viper-keyed defaults so flags and env
// overrides layer on top of them.
func DefaultMap() map[string]any {
	d := Default()
	return map[string]any{
		"logger.level":        d.Logger.Level,
		"logger.format":       d.Logger.Format,
		"logger.service_name": d.Logger.ServiceName,
		"logger.max_size":     d.Logger.MaxSize,
		"logger.max_backups":  d.Logger.MaxBackups,
		"logger.max_age":      d.Logger.MaxAge,
		"audit.repo_root":     d.Audit.RepoRoot,
		"audit.output_dir":    d.Audit.OutputDir,
		"audit.depth":         d.Audit.Depth,
	}
}

// Normalize resolves relative paths, clamps numeric settings and expands the
// comma-splittable kind list. It must be called once before the audit runs.
func (a *AuditConfig) Normalize() error {
	root, err := filepath.Abs(a.RepoRoot)
	if err != nil {
		return fmt.Errorf("resolving repo root %q: %w", a.RepoRoot, err)
	}
	a.RepoRoot = root

	out, err := filepath.Abs(a.OutputDir)
	if err != nil {
		return fmt.Errorf("resolving output dir %q: %w", a.OutputDir, err)
	}
	a.OutputDir = out

	if a.Depth < 1 {
		a.Depth = 1
	}
	if a.Budget < 0 {
		a.Budget = 0
	}

	a.Kinds = splitList(a.Kinds)
	return nil
}

// splitList expands comma-separated entries and drops empties, so both
// repeated flags and "cmd,path,query" style values work.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
