package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/saferun/saferun/internal/artifact"
	"github.com/saferun/saferun/internal/config"
	"github.com/saferun/saferun/internal/ledger"
	"github.com/saferun/saferun/internal/supervise"
)

func (r Runner) runRun(args []string) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	help := fs.Bool("help", false, "show help")
	if err := fs.Parse(args); err != nil {
		return r.failUsage("run: invalid flags")
	}
	if *help {
		printRunHelp(r.Stdout)
		return 0
	}

	argv := fs.Args()
	if len(argv) >= 1 && argv[0] == "--" {
		argv = argv[1:]
	}
	if len(argv) == 0 {
		printRunHelp(r.Stderr)
		return r.failUsage("run: missing command (use: saferun run -- <cmd> ...)")
	}

	cfg, err := config.Load()
	if err != nil {
		return r.failConfig(err)
	}

	// The artifact name carries the moment the run started, not the
	// moment it failed.
	startedAt := r.Now()

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	led := ledger.New()
	outcome, runErr := supervise.Run(supervise.Options{
		Argv:    argv,
		Stdin:   os.Stdin,
		Stdout:  r.Stdout,
		Stderr:  r.Stderr,
		Ledger:  led,
		Signals: sigCh,
	})
	if outcome.Status == supervise.StatusSuccess {
		return 0
	}

	path, err := artifact.Write(cfg.LogDir, artifact.Input{
		Now:    startedAt,
		PID:    os.Getpid(),
		Status: outcome.ArtifactStatus(),
		Stdout: outcome.Stdout,
		Stderr: outcome.Stderr,
		Events: led.Events(),
		Merged: cfg.MergedView(),
	})
	if err != nil {
		fmt.Fprintf(r.Stderr, codeIO+": failed to write log file: %s\n", err.Error())
		return 1
	}

	fmt.Fprintln(r.Stderr)
	switch {
	case outcome.Aborted:
		fmt.Fprintf(r.Stderr, "SAFE-RUN: aborted (%s)\n", outcome.Signal)
	case outcome.Status == supervise.StatusError:
		fmt.Fprintf(r.Stderr, codeSpawn+": %s\n", runErr.Error())
	default:
		fmt.Fprintf(r.Stderr, "SAFE-RUN: command failed (exit=%d)\n", outcome.ExitCode)
	}
	fmt.Fprintf(r.Stderr, "SAFE-RUN: log saved to: %s\n", path)

	if cfg.SnippetLines > 0 {
		fmt.Fprintln(r.Stderr)
		fmt.Fprintf(r.Stderr, "SAFE-RUN: output tail (last %d lines):\n", cfg.SnippetLines)
		for _, line := range ledger.Tail(led.Events(), cfg.SnippetLines) {
			fmt.Fprintln(r.Stderr, line)
		}
	}

	// Preserve the wrapped command's exit code for operator parity.
	return outcome.ExitCode
}

func printRunHelp(w io.Writer) {
	fmt.Fprint(w, `Usage:
  saferun run -- <cmd> [args...]

Runs the command with stdout/stderr passed through. On success nothing
is left behind. On failure or abort the full output is saved as an
ordered log under the log directory and the command's exit code is
preserved.

Environment:
  SAFE_LOG_DIR        Log directory (default: .agent/FAIL-LOGS)
  SAFE_SNIPPET_LINES  On failure/abort, print last N output lines to stderr (default: 0)
  SAFE_RUN_VIEW       Log view: ledger (default) or merged
`)
}
