package schema

// Status is the terminal classification stamped into an artifact filename.
type Status string

const (
	StatusFail    Status = "FAIL"
	StatusAborted Status = "ABORTED"
	StatusError   Status = "ERROR"
)

// Statuses lists every status in filename order of preference for scans.
func Statuses() []Status {
	return []Status{StatusFail, StatusAborted, StatusError}
}

// Artifact section and ledger markers. These are the byte-level
// compatibility surface of the log format; changing any of them breaks
// downstream consumers.
const (
	MarkerStdout      = "=== STDOUT ==="
	MarkerStderr      = "=== STDERR ==="
	MarkerEventsBegin = "--- BEGIN EVENTS ---"
	MarkerEventsEnd   = "--- END EVENTS ---"
	MarkerMergedBegin = "--- BEGIN MERGED (OBSERVED ORDER) ---"
	MarkerMergedEnd   = "--- END MERGED ---"
)

// View mode values recognized in SAFE_RUN_VIEW.
const (
	ViewLedger = "ledger"
	ViewMerged = "merged"
)
