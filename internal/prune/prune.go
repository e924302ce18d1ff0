package prune

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/saferun/saferun/internal/ids"
	"github.com/saferun/saferun/internal/schema"
)

type FileInfo struct {
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	Timestamp time.Time `json:"timestamp"`
	Bytes     int64     `json:"bytes"`
}

type Result struct {
	OK          bool       `json:"ok"`
	ArchiveDir  string     `json:"archiveDir"`
	DryRun      bool       `json:"dryRun"`
	Deleted     []FileInfo `json:"deleted,omitempty"`
	Kept        []FileInfo `json:"kept,omitempty"`
	TotalBefore int64      `json:"totalBeforeBytes"`
	TotalAfter  int64      `json:"totalAfterBytes"`
}

type Opts struct {
	ArchiveDir    string
	Now           time.Time
	MaxAgeDays    int
	MaxTotalBytes int64
	DryRun        bool
}

// Run deletes archived artifacts past the age limit, then the oldest
// remaining ones until the directory fits under the size limit. A zero
// limit disables that pass. Candidates are recognized by the artifact
// name grammar, compressed or not; everything else (the manifest
// included) is left alone.
func Run(opts Opts) (Result, error) {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	entries, err := os.ReadDir(opts.ArchiveDir)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{OK: true, ArchiveDir: opts.ArchiveDir, DryRun: opts.DryRun}, nil
		}
		return Result{}, err
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ts, ok := artifactTime(e.Name())
		if !ok {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Name:      e.Name(),
			Path:      filepath.Join(opts.ArchiveDir, e.Name()),
			Timestamp: ts,
			Bytes:     info.Size(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].Timestamp.Equal(files[j].Timestamp) {
			return files[i].Name < files[j].Name
		}
		return files[i].Timestamp.Before(files[j].Timestamp)
	})

	var total int64
	for _, f := range files {
		total += f.Bytes
	}
	res := Result{OK: true, ArchiveDir: opts.ArchiveDir, DryRun: opts.DryRun, TotalBefore: total, TotalAfter: total}

	drop := make(map[string]bool)
	if opts.MaxAgeDays > 0 {
		cutoff := now.Add(-time.Duration(opts.MaxAgeDays) * 24 * time.Hour)
		for _, f := range files {
			if f.Timestamp.Before(cutoff) {
				drop[f.Name] = true
			}
		}
	}

	// Size-based: delete oldest files until under threshold.
	if opts.MaxTotalBytes > 0 {
		remaining := total
		for _, f := range files {
			if drop[f.Name] {
				remaining -= f.Bytes
			}
		}
		for _, f := range files {
			if remaining <= opts.MaxTotalBytes {
				break
			}
			if drop[f.Name] {
				continue
			}
			drop[f.Name] = true
			remaining -= f.Bytes
		}
	}

	for _, f := range files {
		if drop[f.Name] {
			res.Deleted = append(res.Deleted, f)
			res.TotalAfter -= f.Bytes
			if !opts.DryRun {
				_ = os.Remove(f.Path)
			}
		} else {
			res.Kept = append(res.Kept, f)
		}
	}
	return res, nil
}

func artifactTime(name string) (time.Time, bool) {
	base := name
	for _, ext := range schema.CompressedExts() {
		if strings.HasSuffix(base, ext) {
			base = strings.TrimSuffix(base, ext)
			break
		}
	}
	parsed, ok := ids.ParseArtifactName(base)
	if !ok {
		return time.Time{}, false
	}
	ts, err := ids.ParseTimestamp(parsed.Timestamp)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}
