package artifact

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/saferun/saferun/internal/ids"
	"github.com/saferun/saferun/internal/ledger"
	"github.com/saferun/saferun/internal/schema"
)

// Input is everything the writer renders: the identity fields that name the
// artifact plus the raw buffers and ledger snapshot of one terminated run.
type Input struct {
	Now    time.Time
	PID    int
	Status schema.Status

	Stdout []byte
	Stderr []byte
	Events []ledger.Event

	// Merged appends the relabeled observed-order block after the events.
	Merged bool
}

// Write renders the artifact and creates it under dir with a collision-free
// name, returning the full path. Creation is O_EXCL, so the suffix loop can
// never destroy an existing artifact; the check-then-create race against
// external writers collapses into a safe retry.
func Write(dir string, in Input) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create log directory: %w", err)
	}
	body := Render(in)
	base := ids.ArtifactBase(in.Now, in.PID, in.Status)
	for n := 0; ; n++ {
		path := filepath.Join(dir, ids.ArtifactName(base, n))
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err != nil {
			if os.IsExist(err) {
				continue
			}
			return "", fmt.Errorf("failed to create artifact: %w", err)
		}
		if _, err := f.Write(body); err != nil {
			_ = f.Close()
			return "", fmt.Errorf("failed to write artifact: %w", err)
		}
		if err := f.Sync(); err != nil {
			_ = f.Close()
			return "", fmt.Errorf("failed to sync artifact: %w", err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("failed to close artifact: %w", err)
		}
		return path, nil
	}
}

// Render produces the exact artifact bytes: STDOUT and STDERR sections
// verbatim, the sequenced event block, and optionally the merged view.
func Render(in Input) []byte {
	var b bytes.Buffer
	b.WriteString(schema.MarkerStdout + "\n")
	b.Write(in.Stdout)
	b.WriteString("\n" + schema.MarkerStderr + "\n")
	b.Write(in.Stderr)
	b.WriteString("\n" + schema.MarkerEventsBegin + "\n")
	for _, ev := range in.Events {
		b.WriteString(ledger.FormatEvent(ev))
		b.WriteByte('\n')
	}
	b.WriteString(schema.MarkerEventsEnd + "\n")
	if in.Merged {
		b.WriteString("\n" + schema.MarkerMergedBegin + "\n")
		for _, ev := range in.Events {
			b.WriteString(ledger.FormatMerged(ev))
			b.WriteByte('\n')
		}
		b.WriteString(schema.MarkerMergedEnd + "\n")
	}
	return b.Bytes()
}
