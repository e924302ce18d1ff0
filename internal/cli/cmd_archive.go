package cli

import (
	"flag"
	"fmt"
	"io"

	"github.com/saferun/saferun/internal/archive"
	"github.com/saferun/saferun/internal/config"
)

func (r Runner) runArchive(args []string) int {
	fs := flag.NewFlagSet("archive", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	all := fs.Bool("all", false, "archive every matching file instead of the first")
	help := fs.Bool("help", false, "show help")
	if err := fs.Parse(args); err != nil {
		return r.failUsage("archive: invalid flags")
	}
	if *help {
		printArchiveHelp(r.Stdout)
		return 0
	}

	cfg, err := config.Load()
	if err != nil {
		return r.failConfig(err)
	}

	_, err = archive.Run(archive.Options{
		FailDir:    cfg.FailDir,
		ArchiveDir: cfg.ArchiveDir,
		Method:     cfg.Compress,
		All:        *all,
		Files:      fs.Args(),
		Err:        r.Stderr,
		Now:        r.Now,
	})
	if err != nil {
		fmt.Fprintf(r.Stderr, codeArchive+": %s\n", err.Error())
		return 1
	}
	return 0
}

func printArchiveHelp(w io.Writer) {
	fmt.Fprint(w, `Usage:
  saferun archive            archive the first matching failure log
  saferun archive --all      archive every matching failure log
  saferun archive <file>...  archive exactly the named files

Files move from the fail directory into the archive directory. A file
whose destination already exists (plain or compressed) is skipped and
left where it is. Compression, when configured, happens after the move.

Environment:
  SAFE_FAIL_DIR          Source directory (default: .agent/FAIL-LOGS)
  SAFE_ARCHIVE_DIR       Destination directory (default: .agent/FAIL-ARCHIVE)
  SAFE_ARCHIVE_COMPRESS  none (default), gzip, xz, or zstd
`)
}
