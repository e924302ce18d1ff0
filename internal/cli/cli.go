package cli

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/saferun/saferun/internal/contract"
)

type Runner struct {
	Version string
	Now     func() time.Time
	Stdout  io.Writer
	Stderr  io.Writer
}

func (r Runner) Run(args []string) int {
	if r.Stdout == nil {
		r.Stdout = os.Stdout
	}
	if r.Stderr == nil {
		r.Stderr = os.Stderr
	}
	if r.Now == nil {
		r.Now = time.Now
	}

	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printRootHelp(r.Stdout)
		return 0
	}

	switch args[0] {
	case "run":
		return r.runRun(args[1:])
	case "archive":
		return r.runArchive(args[1:])
	case "prune":
		return r.runPrune(args[1:])
	case "doctor":
		return r.runDoctor(args[1:])
	case "contract":
		return r.runContract(args[1:])
	case "init":
		return r.runInit(args[1:])
	case "version":
		fmt.Fprintf(r.Stdout, "%s\n", r.Version)
		return 0
	default:
		fmt.Fprintf(r.Stderr, "SAFERUN_E_USAGE: unknown command %q\n", args[0])
		printRootHelp(r.Stderr)
		return 2
	}
}

func (r Runner) runContract(args []string) int {
	fs := flag.NewFlagSet("contract", flag.ContinueOnError)
	fs.SetOutput(io.Discard) // avoid flag package writing to stderr

	jsonOut := fs.Bool("json", false, "print JSON output")
	help := fs.Bool("help", false, "show help")

	if err := fs.Parse(args); err != nil {
		return r.failUsage("contract: invalid flags")
	}
	if *help {
		printContractHelp(r.Stdout)
		return 0
	}
	if !*jsonOut {
		printContractHelp(r.Stderr)
		return r.failUsage("contract: require --json for stable output")
	}

	payload := contract.Build(r.Version)
	return r.writeJSON(payload)
}

func (r Runner) writeJSON(v any) int {
	enc := json.NewEncoder(r.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(r.Stderr, "SAFERUN_E_IO: failed to encode json\n")
		return 1
	}
	return 0
}

func (r Runner) failUsage(msg string) int {
	fmt.Fprintf(r.Stderr, "SAFERUN_E_USAGE: %s\n", msg)
	return 2
}

func (r Runner) failConfig(err error) int {
	fmt.Fprintf(r.Stderr, "SAFERUN_E_CONFIG: %s\n", err.Error())
	return 2
}

func printRootHelp(w io.Writer) {
	fmt.Fprint(w, `saferun (run commands with failure forensics)

Usage:
  saferun run -- <cmd> [args...]
  saferun archive [--all] [<file>...]

Commands:
  run       Run a command; on failure/abort save an ordered output log.
  archive   Move saved failure logs into the archive directory (no-clobber).
  prune     Delete archived logs past an age or total-size limit.
  doctor    Check directories and settings for this project.
  contract  Print the saferun surface contract (use --json).
  init      Write a starter saferun.yaml (use --force to overwrite).
  version   Print version.
`)
}

func printContractHelp(w io.Writer) {
	fmt.Fprint(w, `Usage:
  saferun contract --json
`)
}
