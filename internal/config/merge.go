package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/saferun/saferun/internal/schema"
)

const (
	DefaultLogDir     = ".agent/FAIL-LOGS"
	DefaultFailDir    = ".agent/FAIL-LOGS"
	DefaultArchiveDir = ".agent/FAIL-ARCHIVE"

	EnvLogDir       = "SAFE_LOG_DIR"
	EnvSnippetLines = "SAFE_SNIPPET_LINES"
	EnvView         = "SAFE_RUN_VIEW"
	EnvFailDir      = "SAFE_FAIL_DIR"
	EnvArchiveDir   = "SAFE_ARCHIVE_DIR"
	EnvCompress     = "SAFE_ARCHIVE_COMPRESS"
)

// Config is the merged runtime configuration.
type Config struct {
	LogDir       string
	SnippetLines int
	View         string
	FailDir      string
	ArchiveDir   string
	Compress     schema.Compression

	// FilePath is the project config actually loaded, "" when absent.
	FilePath string
	// Source notes which layer supplied each field, keyed by yaml key.
	// Informational, for doctor output and debugging.
	Source map[string]string
}

// MergedView reports whether artifacts get the relabeled merged block.
func (c Config) MergedView() bool {
	return c.View == schema.ViewMerged
}

// Load merges, in increasing precedence: defaults, saferun.yaml (when
// present in the working directory), then SAFE_* environment variables.
func Load() (Config, error) {
	return LoadFrom(DefaultProjectConfigPath)
}

func LoadFrom(configPath string) (Config, error) {
	cfg := Config{
		LogDir:     DefaultLogDir,
		View:       schema.ViewLedger,
		FailDir:    DefaultFailDir,
		ArchiveDir: DefaultArchiveDir,
		Compress:   schema.CompressNone,
		Source: map[string]string{
			"logDir":       "default",
			"snippetLines": "default",
			"view":         "default",
			"failDir":      "default",
			"archiveDir":   "default",
			"compress":     "default",
		},
	}

	project, hasProject, err := loadProject(configPath)
	if err != nil {
		return Config{}, err
	}

	rawCompress := string(schema.CompressNone)
	rawSnippet := ""

	if hasProject {
		cfg.FilePath = configPath
		if v := strings.TrimSpace(project.LogDir); v != "" {
			cfg.LogDir = v
			cfg.Source["logDir"] = configPath
		}
		if project.SnippetLines != nil {
			if *project.SnippetLines < 0 {
				return Config{}, fmt.Errorf("%s: snippetLines must be a non-negative integer", configPath)
			}
			cfg.SnippetLines = *project.SnippetLines
			cfg.Source["snippetLines"] = configPath
		}
		if v := strings.TrimSpace(project.View); v != "" {
			cfg.View = v
			cfg.Source["view"] = configPath
		}
		if v := strings.TrimSpace(project.FailDir); v != "" {
			cfg.FailDir = v
			cfg.Source["failDir"] = configPath
		}
		if v := strings.TrimSpace(project.ArchiveDir); v != "" {
			cfg.ArchiveDir = v
			cfg.Source["archiveDir"] = configPath
		}
		if v := strings.TrimSpace(project.Compress); v != "" {
			rawCompress = v
			cfg.Source["compress"] = configPath
		}
	}

	if v := os.Getenv(EnvLogDir); v != "" {
		cfg.LogDir = v
		cfg.Source["logDir"] = "env:" + EnvLogDir
	}
	if v := os.Getenv(EnvSnippetLines); v != "" {
		rawSnippet = v
		cfg.Source["snippetLines"] = "env:" + EnvSnippetLines
	}
	if v := os.Getenv(EnvView); v != "" {
		cfg.View = v
		cfg.Source["view"] = "env:" + EnvView
	}
	if v := os.Getenv(EnvFailDir); v != "" {
		cfg.FailDir = v
		cfg.Source["failDir"] = "env:" + EnvFailDir
	}
	if v := os.Getenv(EnvArchiveDir); v != "" {
		cfg.ArchiveDir = v
		cfg.Source["archiveDir"] = "env:" + EnvArchiveDir
	}
	if v := os.Getenv(EnvCompress); v != "" {
		rawCompress = v
		cfg.Source["compress"] = "env:" + EnvCompress
	}

	if rawSnippet != "" {
		n, err := parseNonNegativeInt(rawSnippet)
		if err != nil {
			return Config{}, fmt.Errorf("%s must be a non-negative integer", EnvSnippetLines)
		}
		cfg.SnippetLines = n
	}

	method, ok := schema.ParseCompression(rawCompress)
	if !ok {
		return Config{}, fmt.Errorf("invalid %s value: %s", EnvCompress, rawCompress)
	}
	cfg.Compress = method

	return cfg, nil
}

func parseNonNegativeInt(raw string) (int, error) {
	if raw == "" {
		return 0, fmt.Errorf("empty value")
	}
	n := 0
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("not a non-negative integer: %q", raw)
		}
		n = n*10 + int(c-'0')
		if n < 0 {
			return 0, fmt.Errorf("out of range: %q", raw)
		}
	}
	return n, nil
}
