package ledger

import (
	"fmt"
	"sync"
	"testing"
)

func TestEmitAssignsContiguousSequences(t *testing.T) {
	t.Parallel()

	l := New()
	l.Emit(StreamMeta, "start")
	l.Emit(StreamStdout, "out1")
	l.Emit(StreamStderr, "err1")
	l.Emit(StreamMeta, "exit")

	events := l.Events()
	if len(events) != 4 {
		t.Fatalf("got %d events, want 4", len(events))
	}
	for i, e := range events {
		if e.Seq != uint64(i+1) {
			t.Fatalf("event %d has seq %d, want %d", i, e.Seq, i+1)
		}
	}
}

func TestConcurrentEmittersNeverShareSequences(t *testing.T) {
	t.Parallel()

	const producers = 4
	const perProducer = 250

	l := New()
	var wg sync.WaitGroup
	wg.Add(producers)
	for p := 0; p < producers; p++ {
		stream := StreamStdout
		if p%2 == 1 {
			stream = StreamStderr
		}
		go func(p int, stream Stream) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				l.Emit(stream, fmt.Sprintf("p%d-line%d", p, i))
			}
		}(p, stream)
	}
	wg.Wait()

	events := l.Events()
	if len(events) != producers*perProducer {
		t.Fatalf("got %d events, want %d", len(events), producers*perProducer)
	}

	seen := make(map[uint64]bool, len(events))
	for i, e := range events {
		if e.Seq != uint64(i+1) {
			t.Fatalf("seq %d at index %d: ledger order must equal seq order", e.Seq, i)
		}
		if seen[e.Seq] {
			t.Fatalf("duplicate sequence %d", e.Seq)
		}
		seen[e.Seq] = true
	}

	// Each producer's own lines must keep their relative order.
	next := make(map[string]int, producers)
	for _, e := range events {
		var p, n int
		if _, err := fmt.Sscanf(e.Text, "p%d-line%d", &p, &n); err != nil {
			t.Fatalf("unexpected event text %q", e.Text)
		}
		key := fmt.Sprintf("p%d", p)
		if n != next[key] {
			t.Fatalf("producer %d emitted line %d before line %d", p, n, next[key])
		}
		next[key]++
	}
}

func TestEventsReturnsSnapshotCopy(t *testing.T) {
	t.Parallel()

	l := New()
	l.Emit(StreamStdout, "one")
	snap := l.Events()
	snap[0].Text = "mutated"

	if got := l.Events()[0].Text; got != "one" {
		t.Fatalf("ledger mutated through snapshot: %q", got)
	}
}

func TestFormatEventAndMergedDifferOnlyInLabel(t *testing.T) {
	t.Parallel()

	e := Event{Seq: 7, Stream: StreamStderr, Text: "boom"}
	if got := FormatEvent(e); got != "[SEQ=7][STDERR] boom" {
		t.Fatalf("FormatEvent = %q", got)
	}
	if got := FormatMerged(e); got != "[#7][STDERR] boom" {
		t.Fatalf("FormatMerged = %q", got)
	}
}

func TestTailSkipsMetaAndKeepsObservedOrder(t *testing.T) {
	t.Parallel()

	l := New()
	l.Emit(StreamMeta, "start")
	l.Emit(StreamStdout, "a")
	l.Emit(StreamStderr, "b")
	l.Emit(StreamStdout, "c")
	l.Emit(StreamMeta, "exit")

	got := Tail(l.Events(), 2)
	if len(got) != 2 || got[0] != "b" || got[1] != "c" {
		t.Fatalf("Tail(2) = %v", got)
	}

	if got := Tail(l.Events(), 10); len(got) != 3 {
		t.Fatalf("Tail(10) = %v, want all 3 output lines", got)
	}
	if got := Tail(l.Events(), 0); got != nil {
		t.Fatalf("Tail(0) = %v, want nil", got)
	}
}
