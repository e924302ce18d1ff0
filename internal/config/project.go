package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	ProjectConfigVersionV1   = 1
	DefaultProjectConfigPath = "saferun.yaml"
)

// ProjectConfigV1 is the optional per-repo saferun.yaml. Every field is
// optional; environment variables always win over file values.
type ProjectConfigV1 struct {
	Version      int    `yaml:"version"`
	LogDir       string `yaml:"logDir"`
	SnippetLines *int   `yaml:"snippetLines"`
	View         string `yaml:"view"`
	FailDir      string `yaml:"failDir"`
	ArchiveDir   string `yaml:"archiveDir"`
	Compress     string `yaml:"compress"`
}

func loadProject(path string) (ProjectConfigV1, bool, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ProjectConfigV1{}, false, nil
		}
		return ProjectConfigV1{}, false, err
	}
	var cfg ProjectConfigV1
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return ProjectConfigV1{}, false, fmt.Errorf("invalid config yaml in %s: %w", path, err)
	}
	if cfg.Version == 0 {
		// Allow omission as v1 for early ergonomics.
		cfg.Version = ProjectConfigVersionV1
	}
	if cfg.Version != ProjectConfigVersionV1 {
		return ProjectConfigV1{}, false, fmt.Errorf("%s has unsupported version=%d", path, cfg.Version)
	}
	return cfg, true, nil
}

// DefaultYAML is the commented config written by `saferun init`.
func DefaultYAML() []byte {
	return []byte(`version: 1

# Directory failure/abort artifacts are written to.
logDir: .agent/FAIL-LOGS

# On failure or abort, print the last N lines of combined output to stderr.
# 0 disables the tail.
snippetLines: 0

# ledger (default) or merged: merged appends a relabeled observed-order
# block to every artifact.
view: ledger

# Archival: source directory, destination directory, and compression
# method (none, gzip, xz, zstd).
failDir: .agent/FAIL-LOGS
archiveDir: .agent/FAIL-ARCHIVE
compress: none
`)
}
