package contract

// Contract is the machine-readable surface of the engine: the byte-level
// artifact format, the filename grammar, recognized configuration, exit
// codes, and typed error codes. Thin invokers in other languages consume
// this instead of hardcoding the surface themselves.
type Contract struct {
	Name                  string `json:"name"`
	Version               string `json:"version"`
	ArtifactLayoutVersion int    `json:"artifactLayoutVersion"`

	Markers             Markers  `json:"markers"`
	ArtifactNamePattern string   `json:"artifactNamePattern"`
	Statuses            []string `json:"statuses"`
	Views               []string `json:"views"`
	CompressionMethods  []string `json:"compressionMethods"`

	Environment    []EnvVar   `json:"environment"`
	ExitCodePolicy string     `json:"exitCodePolicy"`
	ExitCodes      []ExitCode `json:"exitCodes"`
	Commands       []Command  `json:"commands"`
	Errors         []Error    `json:"errors"`
}

type Markers struct {
	Stdout      string `json:"stdout"`
	Stderr      string `json:"stderr"`
	EventsBegin string `json:"eventsBegin"`
	EventsEnd   string `json:"eventsEnd"`
	MergedBegin string `json:"mergedBegin"`
	MergedEnd   string `json:"mergedEnd"`
	EventLine   string `json:"eventLine"`
	MergedLine  string `json:"mergedLine"`
}

type EnvVar struct {
	Name    string `json:"name"`
	Default string `json:"default"`
	Summary string `json:"summary"`
}

type ExitCode struct {
	Code    int    `json:"code"`
	Meaning string `json:"meaning"`
}

type Command struct {
	ID      string `json:"id"`
	Usage   string `json:"usage"`
	Summary string `json:"summary"`
}

type Error struct {
	Code      string `json:"code"`
	Summary   string `json:"summary"`
	Retryable bool   `json:"retryable"`
}

func Build(version string) Contract {
	return Contract{
		Name:                  "saferun",
		Version:               version,
		ArtifactLayoutVersion: 1,
		Markers: Markers{
			Stdout:      "=== STDOUT ===",
			Stderr:      "=== STDERR ===",
			EventsBegin: "--- BEGIN EVENTS ---",
			EventsEnd:   "--- END EVENTS ---",
			MergedBegin: "--- BEGIN MERGED (OBSERVED ORDER) ---",
			MergedEnd:   "--- END MERGED ---",
			EventLine:   "[SEQ=<n>][<STREAM>] <text>",
			MergedLine:  "[#<n>][<STREAM>] <text>",
		},
		ArtifactNamePattern: "<YYYYMMDDTHHMMSSZ>-pid<pid>-<STATUS>[-<n>].log",
		Statuses:            []string{"FAIL", "ABORTED", "ERROR"},
		Views:               []string{"ledger", "merged"},
		CompressionMethods:  []string{"none", "gzip", "xz", "zstd"},
		Environment: []EnvVar{
			{
				Name:    "SAFE_LOG_DIR",
				Default: ".agent/FAIL-LOGS",
				Summary: "Directory failure artifacts are written to by run.",
			},
			{
				Name:    "SAFE_SNIPPET_LINES",
				Default: "0",
				Summary: "Diagnostic tail of the last N output lines after a non-success run (0 disables).",
			},
			{
				Name:    "SAFE_RUN_VIEW",
				Default: "ledger",
				Summary: "Artifact view; merged appends the relabeled observed-order block.",
			},
			{
				Name:    "SAFE_FAIL_DIR",
				Default: ".agent/FAIL-LOGS",
				Summary: "Source directory scanned by archive.",
			},
			{
				Name:    "SAFE_ARCHIVE_DIR",
				Default: ".agent/FAIL-ARCHIVE",
				Summary: "Destination directory for archived artifacts.",
			},
			{
				Name:    "SAFE_ARCHIVE_COMPRESS",
				Default: "none",
				Summary: "Archive compression method: none|gzip|xz|zstd.",
			},
		},
		ExitCodePolicy: "a failing child's own exit code is propagated unchanged; a child killed by a foreign signal maps to 128+signal",
		ExitCodes: []ExitCode{
			{Code: 0, Meaning: "child succeeded; no artifact written"},
			{Code: 1, Meaning: "engine error (spawn, wait, or artifact write failure)"},
			{Code: 2, Meaning: "usage or configuration error"},
			{Code: 130, Meaning: "run aborted by SIGINT"},
			{Code: 143, Meaning: "run aborted by SIGTERM"},
		},
		Commands: []Command{
			{
				ID:      "run",
				Usage:   "saferun run -- <cmd> [args...]",
				Summary: "Run a command with tee passthrough; on failure or abort write the sequenced failure artifact.",
			},
			{
				ID:      "archive",
				Usage:   "saferun archive [--all] [<file> ...]",
				Summary: "Relocate failure artifacts into the archive directory with no-clobber semantics and optional compression.",
			},
			{
				ID:      "prune",
				Usage:   "saferun prune [--max-age-days N] [--max-total-bytes N] [--dry-run] [--json]",
				Summary: "Delete archived artifacts past an age limit, then oldest-first until under a total-size limit.",
			},
			{
				ID:      "doctor",
				Usage:   "saferun doctor [--json]",
				Summary: "Check environment/config sanity (directory write access, config parse, view/compression values).",
			},
			{
				ID:      "contract",
				Usage:   "saferun contract --json",
				Summary: "Print this surface contract (artifact format, env vars, exit codes).",
			},
			{
				ID:      "init",
				Usage:   "saferun init [--force]",
				Summary: "Write a commented saferun.yaml and create the log/archive directories.",
			},
			{
				ID:      "version",
				Usage:   "saferun version",
				Summary: "Print the engine version.",
			},
		},
		Errors: []Error{
			{Code: "SAFERUN_E_USAGE", Summary: "Invalid CLI usage (missing/invalid flags or arguments).", Retryable: false},
			{Code: "SAFERUN_E_CONFIG", Summary: "Invalid configuration (bad snippet count, unknown view/compression, broken saferun.yaml).", Retryable: false},
			{Code: "SAFERUN_E_IO", Summary: "Filesystem I/O error while writing an artifact or manifest.", Retryable: true},
			{Code: "SAFERUN_E_SPAWN", Summary: "Failed to spawn or wait for the wrapped command.", Retryable: true},
			{Code: "SAFERUN_E_ARCHIVE", Summary: "Archival invocation failed (unreadable directory, missing explicit file, move failure).", Retryable: true},
		},
	}
}
