package supervise

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/saferun/saferun/internal/ledger"
	"github.com/saferun/saferun/internal/schema"
)

// Status classifies how a supervised run ended.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFail    Status = "fail"
	StatusAborted Status = "aborted"
	StatusError   Status = "error"
)

// DefaultGrace is how long a graceful termination gets before escalating
// to a hard kill.
const DefaultGrace = 2 * time.Second

// Abort exit codes follow the 128+signal convention.
const (
	ExitSIGINT  = 130
	ExitSIGTERM = 143
)

type Options struct {
	Argv []string

	// Stdin is handed to the child; nil inherits the caller's stdin.
	Stdin io.Reader
	// Stdout and Stderr receive the child's output in real time,
	// exactly as if the child ran unwrapped.
	Stdout io.Writer
	Stderr io.Writer

	// Ledger records META and per-line events. Required.
	Ledger *ledger.Ledger

	// Signals delivers abort requests (SIGINT/SIGTERM). Optional; a nil
	// channel means aborts cannot be triggered.
	Signals <-chan os.Signal

	// Grace overrides DefaultGrace when positive.
	Grace time.Duration
}

type Outcome struct {
	Status   Status
	ExitCode int
	Aborted  bool
	// Signal is SIGINT or SIGTERM when Aborted.
	Signal string

	// Raw captured streams, byte-for-byte as the child wrote them.
	Stdout []byte
	Stderr []byte
}

// ArtifactStatus maps a non-Success outcome onto its artifact filename
// status. Success has no artifact and maps to "".
func (o Outcome) ArtifactStatus() schema.Status {
	switch o.Status {
	case StatusFail:
		return schema.StatusFail
	case StatusAborted:
		return schema.StatusAborted
	case StatusError:
		return schema.StatusError
	default:
		return ""
	}
}

// abortState is the two-state abort machine: Running until the first
// signal, then Aborted (terminal). Later aborts are no-ops.
type abortState struct {
	mu      sync.Mutex
	aborted bool
	signal  string
	code    int
}

func (s *abortState) abort(sig os.Signal) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.aborted {
		return false
	}
	s.aborted = true
	s.signal, s.code = classifySignal(sig)
	return true
}

func (s *abortState) snapshot() (aborted bool, signal string, code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.aborted, s.signal, s.code
}

func classifySignal(sig os.Signal) (string, int) {
	if sig == syscall.SIGTERM {
		return "SIGTERM", ExitSIGTERM
	}
	return "SIGINT", ExitSIGINT
}

// Run spawns the command, tees both output streams to the caller while
// recording them, and blocks until the child exits or an abort request
// brings it down. The returned error marks engine faults (spawn/wait
// machinery), never the child's own failure.
func Run(opts Options) (Outcome, error) {
	if opts.Ledger == nil {
		return Outcome{Status: StatusError, ExitCode: 1}, errors.New("supervise: nil ledger")
	}
	if len(opts.Argv) == 0 {
		return Outcome{Status: StatusError, ExitCode: 1}, errors.New("supervise: missing command argv")
	}
	if opts.Stdout == nil {
		opts.Stdout = io.Discard
	}
	if opts.Stderr == nil {
		opts.Stderr = io.Discard
	}
	grace := opts.Grace
	if grace <= 0 {
		grace = DefaultGrace
	}

	opts.Ledger.Emit(ledger.StreamMeta, fmt.Sprintf("safe-run start: cmd=\"%s\"", ShellJoin(opts.Argv)))

	cmd := exec.Command(opts.Argv[0], opts.Argv[1:]...)
	if opts.Stdin == nil {
		cmd.Stdin = os.Stdin
	} else {
		cmd.Stdin = opts.Stdin
	}
	setProcessGroup(cmd)

	outPipe, err := cmd.StdoutPipe()
	if err != nil {
		return errorOutcome(opts.Ledger, fmt.Errorf("failed to open stdout pipe: %w", err))
	}
	errPipe, err := cmd.StderrPipe()
	if err != nil {
		return errorOutcome(opts.Ledger, fmt.Errorf("failed to open stderr pipe: %w", err))
	}

	if err := cmd.Start(); err != nil {
		return errorOutcome(opts.Ledger, fmt.Errorf("failed to spawn command: %w", err))
	}

	st := &abortState{}
	reaped := make(chan struct{})
	sigStop := make(chan struct{})
	if opts.Signals != nil {
		go func() {
			for {
				select {
				case sig, ok := <-opts.Signals:
					if !ok {
						return
					}
					if st.abort(sig) {
						terminate(cmd, grace, reaped)
					}
				case <-sigStop:
					return
				}
			}
		}()
	}

	var outBuf, errBuf bytes.Buffer
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		captureStream(outPipe, opts.Stdout, &outBuf, opts.Ledger, ledger.StreamStdout)
	}()
	go func() {
		defer wg.Done()
		captureStream(errPipe, opts.Stderr, &errBuf, opts.Ledger, ledger.StreamStderr)
	}()

	// Drain to end-of-stream before reaping: Wait closes the parent pipe
	// ends, and a forensic record cannot afford a dropped tail. An abort
	// kills the whole process group, which closes the pipes and unblocks
	// both capturers.
	wg.Wait()
	waitErr := cmd.Wait()
	close(reaped)
	close(sigStop)

	aborted, signame, abortCode := st.snapshot()
	if aborted {
		opts.Ledger.Emit(ledger.StreamMeta, "safe-run interrupted by signal")
		return Outcome{
			Status:   StatusAborted,
			ExitCode: abortCode,
			Aborted:  true,
			Signal:   signame,
			Stdout:   outBuf.Bytes(),
			Stderr:   errBuf.Bytes(),
		}, nil
	}

	exitCode := 0
	if waitErr != nil {
		var ee *exec.ExitError
		if !errors.As(waitErr, &ee) {
			out, e := errorOutcome(opts.Ledger, fmt.Errorf("failed to wait for child: %w", waitErr))
			out.Stdout = outBuf.Bytes()
			out.Stderr = errBuf.Bytes()
			return out, e
		}
		exitCode = exitCodeFrom(ee)
	}

	opts.Ledger.Emit(ledger.StreamMeta, fmt.Sprintf("safe-run exit: code=%d", exitCode))

	status := StatusSuccess
	if exitCode != 0 {
		status = StatusFail
	}
	return Outcome{
		Status:   status,
		ExitCode: exitCode,
		Stdout:   outBuf.Bytes(),
		Stderr:   errBuf.Bytes(),
	}, nil
}

func errorOutcome(led *ledger.Ledger, err error) (Outcome, error) {
	led.Emit(ledger.StreamMeta, "safe-run error: "+err.Error())
	return Outcome{Status: StatusError, ExitCode: 1}, err
}

// captureStream tees one pipe: raw bytes to the caller stream and the raw
// buffer, trimmed text to the ledger. A read error ends only this loop;
// the supervisor finalizes with whatever was captured.
func captureStream(r io.Reader, echo io.Writer, buf *bytes.Buffer, led *ledger.Ledger, stream ledger.Stream) {
	br := bufio.NewReader(r)
	for {
		raw, err := br.ReadBytes('\n')
		if len(raw) > 0 {
			_, _ = echo.Write(raw)
			_, _ = buf.Write(raw)
			led.Emit(stream, strings.TrimRight(string(raw), "\r\n"))
		}
		if err != nil {
			return
		}
	}
}

// terminate asks the child's process group to stop, escalating to a hard
// kill if the reap has not happened by the end of the grace period.
func terminate(cmd *exec.Cmd, grace time.Duration, reaped <-chan struct{}) {
	killGraceful(cmd)
	select {
	case <-reaped:
	case <-time.After(grace):
		killHard(cmd)
	}
}

// exitCodeFrom recovers a caller-facing code from a non-zero wait result:
// the child's own code, 128+signal for a signal death, else 1.
func exitCodeFrom(ee *exec.ExitError) int {
	if code := ee.ExitCode(); code >= 0 {
		return code
	}
	if ws, ok := ee.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	return 1
}
