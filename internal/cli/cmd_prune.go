package cli

import (
	"flag"
	"fmt"
	"io"

	"github.com/saferun/saferun/internal/config"
	"github.com/saferun/saferun/internal/prune"
)

func (r Runner) runPrune(args []string) int {
	fs := flag.NewFlagSet("prune", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	maxAgeDays := fs.Int("max-age-days", 0, "delete archived logs older than N days (0 disables)")
	maxTotalBytes := fs.Int64("max-total-bytes", 0, "delete oldest archived logs until the directory is under N bytes (0 disables)")
	dryRun := fs.Bool("dry-run", false, "report what would be deleted without deleting")
	jsonOut := fs.Bool("json", false, "print JSON output")
	help := fs.Bool("help", false, "show help")
	if err := fs.Parse(args); err != nil {
		return r.failUsage("prune: invalid flags")
	}
	if *help {
		printPruneHelp(r.Stdout)
		return 0
	}
	if *maxAgeDays < 0 || *maxTotalBytes < 0 {
		printPruneHelp(r.Stderr)
		return r.failUsage("prune: limits must be non-negative")
	}

	cfg, err := config.Load()
	if err != nil {
		return r.failConfig(err)
	}

	res, err := prune.Run(prune.Opts{
		ArchiveDir:    cfg.ArchiveDir,
		Now:           r.Now(),
		MaxAgeDays:    *maxAgeDays,
		MaxTotalBytes: *maxTotalBytes,
		DryRun:        *dryRun,
	})
	if err != nil {
		fmt.Fprintf(r.Stderr, codeArchive+": %s\n", err.Error())
		return 1
	}
	if *jsonOut {
		return r.writeJSON(res)
	}

	label := "DELETED"
	if res.DryRun {
		label = "WOULD DELETE"
	}
	for _, f := range res.Deleted {
		fmt.Fprintf(r.Stderr, "%s: %s\n", label, f.Path)
	}
	if len(res.Deleted) == 0 {
		fmt.Fprintf(r.Stderr, "Nothing to prune in %s\n", cfg.ArchiveDir)
	}
	return 0
}

func printPruneHelp(w io.Writer) {
	fmt.Fprint(w, `Usage:
  saferun prune [--max-age-days N] [--max-total-bytes N] [--dry-run] [--json]

Deletes archived failure logs past the age limit, then the oldest
remaining ones until the archive directory fits under the size limit.
With no limits set nothing is deleted. The archive manifest and foreign
files are never touched.

Environment:
  SAFE_ARCHIVE_DIR  Archive directory (default: .agent/FAIL-ARCHIVE)
`)
}
