package cli

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/saferun/saferun/internal/config"
	"github.com/saferun/saferun/internal/store"
)

func (r Runner) runInit(args []string) int {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	force := fs.Bool("force", false, "overwrite an existing saferun.yaml")
	help := fs.Bool("help", false, "show help")
	if err := fs.Parse(args); err != nil {
		return r.failUsage("init: invalid flags")
	}
	if *help {
		printInitHelp(r.Stdout)
		return 0
	}

	path := config.DefaultProjectConfigPath
	if !*force {
		if _, err := os.Lstat(path); err == nil {
			fmt.Fprintf(r.Stderr, codeIO+": %s already exists (use --force to overwrite)\n", path)
			return 1
		}
	}
	if err := store.WriteFileAtomic(path, config.DefaultYAML()); err != nil {
		fmt.Fprintf(r.Stderr, codeIO+": %s\n", err.Error())
		return 1
	}

	cfg, err := config.Load()
	if err != nil {
		return r.failConfig(err)
	}
	for _, dir := range []string{cfg.LogDir, cfg.FailDir, cfg.ArchiveDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			fmt.Fprintf(r.Stderr, codeIO+": %s\n", err.Error())
			return 1
		}
	}

	fmt.Fprintf(r.Stdout, "wrote %s\n", path)
	return 0
}

func printInitHelp(w io.Writer) {
	fmt.Fprint(w, `Usage:
  saferun init [--force]

Writes a commented saferun.yaml into the current directory and creates
the log and archive directories. Refuses to overwrite an existing
config unless --force is given.
`)
}
