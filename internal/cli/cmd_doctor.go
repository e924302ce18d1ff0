package cli

import (
	"flag"
	"fmt"
	"io"

	"github.com/saferun/saferun/internal/config"
	"github.com/saferun/saferun/internal/doctor"
)

func (r Runner) runDoctor(args []string) int {
	fs := flag.NewFlagSet("doctor", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	jsonOut := fs.Bool("json", false, "print JSON output")
	help := fs.Bool("help", false, "show help")
	if err := fs.Parse(args); err != nil {
		return r.failUsage("doctor: invalid flags")
	}
	if *help {
		printDoctorHelp(r.Stdout)
		return 0
	}

	cfg, err := config.Load()
	if err != nil {
		return r.failConfig(err)
	}

	res := doctor.Run(cfg)
	if *jsonOut {
		if exit := r.writeJSON(res); exit != 0 {
			return exit
		}
	} else {
		for _, c := range res.Checks {
			mark := "ok  "
			if !c.OK {
				mark = "FAIL"
			}
			if c.Message != "" {
				fmt.Fprintf(r.Stdout, "%s %s: %s\n", mark, c.ID, c.Message)
			} else {
				fmt.Fprintf(r.Stdout, "%s %s\n", mark, c.ID)
			}
		}
	}
	if !res.OK {
		return 1
	}
	return 0
}

func printDoctorHelp(w io.Writer) {
	fmt.Fprint(w, `Usage:
  saferun doctor [--json]

Checks that the log, fail, and archive directories are writable and
that the effective settings parse. Exits 1 when any check fails.
`)
}
