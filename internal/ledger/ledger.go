package ledger

import (
	"fmt"
	"sync"
)

// Stream identifies the source of an event.
type Stream string

const (
	StreamMeta   Stream = "META"
	StreamStdout Stream = "STDOUT"
	StreamStderr Stream = "STDERR"
)

// Event is one sequenced observation: a META milestone or one output line.
// Text carries no trailing newline.
type Event struct {
	Seq    uint64
	Stream Stream
	Text   string
}

// Ledger is the append-only, monotonically sequenced record of one run.
// Emit is the single serialization point: concurrent capturers may call it
// freely and no two events ever share a sequence number.
type Ledger struct {
	mu     sync.Mutex
	seq    uint64
	events []Event
}

func New() *Ledger { return &Ledger{} }

// Emit assigns the next sequence number (starting at 1) and records the event.
func (l *Ledger) Emit(stream Stream, text string) Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seq++
	ev := Event{Seq: l.seq, Stream: stream, Text: text}
	l.events = append(l.events, ev)
	return ev
}

// Events returns a snapshot copy in emission order.
func (l *Ledger) Events() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}

func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events)
}

// FormatEvent renders the ledger-view line: [SEQ=<n>][<STREAM>] <text>
func FormatEvent(e Event) string {
	return fmt.Sprintf("[SEQ=%d][%s] %s", e.Seq, e.Stream, e.Text)
}

// FormatMerged renders the merged-view line: [#<n>][<STREAM>] <text>
// A relabeling of FormatEvent in the same order, never a re-sort.
func FormatMerged(e Event) string {
	return fmt.Sprintf("[#%d][%s] %s", e.Seq, e.Stream, e.Text)
}

// Tail returns the text of the last n output (non-META) events in observed
// order. n <= 0 yields nil.
func Tail(events []Event, n int) []string {
	if n <= 0 {
		return nil
	}
	lines := make([]string, 0, len(events))
	for _, e := range events {
		if e.Stream == StreamMeta {
			continue
		}
		lines = append(lines, e.Text)
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines
}
