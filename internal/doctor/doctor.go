package doctor

import (
	"os"
	"path/filepath"

	"github.com/saferun/saferun/internal/config"
	"github.com/saferun/saferun/internal/schema"
)

type Check struct {
	ID      string `json:"id"`
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

type Result struct {
	OK         bool    `json:"ok"`
	LogDir     string  `json:"logDir"`
	FailDir    string  `json:"failDir"`
	ArchiveDir string  `json:"archiveDir"`
	Checks     []Check `json:"checks"`
}

func (r *Result) add(id string, ok bool, msg string) {
	if !ok {
		r.OK = false
	}
	r.Checks = append(r.Checks, Check{ID: id, OK: ok, Message: msg})
}

// Run probes the environment a run or archive invocation would depend on.
// Informational findings keep OK=true; only a directory that cannot take
// writes fails the result.
func Run(cfg config.Config) Result {
	res := Result{
		OK:         true,
		LogDir:     cfg.LogDir,
		FailDir:    cfg.FailDir,
		ArchiveDir: cfg.ArchiveDir,
	}

	ok, msg := probeDir(cfg.LogDir)
	res.add("log_dir_writable", ok, msg)
	ok, msg = probeDir(cfg.FailDir)
	res.add("fail_dir_writable", ok, msg)
	ok, msg = probeDir(cfg.ArchiveDir)
	res.add("archive_dir_writable", ok, msg)

	// Project config: reaching this point means it parsed, so presence is
	// all that is left to report.
	if _, err := os.Stat(cfg.FilePath); err == nil {
		res.add("project_config", true, "")
	} else {
		res.add("project_config", true, "missing (ok)")
	}

	switch cfg.View {
	case schema.ViewLedger, schema.ViewMerged:
		res.add("view_mode", true, cfg.View)
	default:
		res.add("view_mode", true, cfg.View+" not recognized (treated as ledger)")
	}

	res.add("compression", true, string(cfg.Compress))

	return res
}

// probeDir checks write access by creating and removing a scratch file.
func probeDir(dir string) (bool, string) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, err.Error()
	}
	tmp := filepath.Join(dir, ".doctor.tmp")
	if err := os.WriteFile(tmp, []byte("ok\n"), 0o644); err != nil {
		return false, err.Error()
	}
	_ = os.Remove(tmp)
	return true, ""
}
