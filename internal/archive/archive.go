package archive

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/saferun/saferun/internal/ids"
	"github.com/saferun/saferun/internal/schema"
	"github.com/saferun/saferun/internal/store"
)

type Options struct {
	FailDir    string
	ArchiveDir string
	Method     schema.Compression

	// All archives every eligible file; the default is the lexically
	// first match only.
	All bool
	// Files is an explicit candidate list (paths, or basenames resolved
	// against FailDir); empty means scan FailDir for artifact names.
	Files []string

	// Err receives the ARCHIVED/SKIP/WARNING diagnostics.
	Err io.Writer

	Now func() time.Time
}

type Result struct {
	Source string
	Dest   string
	// Skipped marks a no-clobber collision; the source stayed in place.
	Skipped    bool
	Compressed bool
}

// Run relocates failure artifacts into the archive directory. Per-file
// collisions are skipped, not fatal; compression failures leave the moved
// file uncompressed. The returned error marks faults that stop the whole
// invocation (bad method, unreadable directory, missing explicit file).
func Run(opts Options) ([]Result, error) {
	if opts.Err == nil {
		opts.Err = io.Discard
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	method, ok := schema.ParseCompression(string(opts.Method))
	if !ok {
		return nil, fmt.Errorf("invalid compression method: %s", opts.Method)
	}
	if err := os.MkdirAll(opts.FailDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create fail directory: %w", err)
	}
	if err := os.MkdirAll(opts.ArchiveDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}

	candidates, err := selectCandidates(opts)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		fmt.Fprintf(opts.Err, "No files to archive in %s\n", opts.FailDir)
		return nil, nil
	}

	results := make([]Result, 0, len(candidates))
	for _, src := range candidates {
		res, err := archiveOne(opts, src, method)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

func selectCandidates(opts Options) ([]string, error) {
	if len(opts.Files) > 0 {
		paths := make([]string, 0, len(opts.Files))
		for _, f := range opts.Files {
			p := f
			if filepath.Dir(f) == "." {
				p = filepath.Join(opts.FailDir, f)
			}
			if _, err := os.Stat(p); err != nil {
				return nil, fmt.Errorf("file not found: %s", p)
			}
			paths = append(paths, p)
		}
		return paths, nil
	}

	entries, err := os.ReadDir(opts.FailDir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan fail directory: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !ids.IsArtifactName(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	if !opts.All && len(names) > 1 {
		names = names[:1]
	}
	paths := make([]string, 0, len(names))
	for _, n := range names {
		paths = append(paths, filepath.Join(opts.FailDir, n))
	}
	return paths, nil
}

func archiveOne(opts Options, src string, method schema.Compression) (Result, error) {
	dest := filepath.Join(opts.ArchiveDir, filepath.Base(src))
	if occupied, ok := destOccupied(dest); ok {
		fmt.Fprintf(opts.Err, "SKIP: destination exists (no-clobber): %s\n", occupied)
		return Result{Source: src, Dest: occupied, Skipped: true}, nil
	}

	// Digest before the move so the manifest always describes the
	// original artifact bytes, compressed or not.
	size, sum, err := fileDigest(src)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read %s: %w", src, err)
	}

	if err := store.MoveFile(src, dest); err != nil {
		return Result{}, fmt.Errorf("failed to move %s: %w", src, err)
	}
	fmt.Fprintf(opts.Err, "ARCHIVED: %s -> %s\n", src, dest)

	finalDest := dest
	compressed := false
	if method != schema.CompressNone {
		out, err := compressFile(dest, method)
		if err != nil {
			fmt.Fprintf(opts.Err, "WARNING: compression failed for %s, keeping uncompressed: %v\n", dest, err)
		} else {
			finalDest = out
			compressed = true
		}
	}

	entry := schema.ArchiveEventV1{
		V:          1,
		ID:         uuid.NewString(),
		TS:         opts.Now().UTC().Format(time.RFC3339Nano),
		Source:     src,
		Dest:       finalDest,
		Method:     string(method),
		Compressed: compressed,
		Bytes:      size,
		SHA256:     sum,
	}
	if err := store.AppendJSONL(filepath.Join(opts.ArchiveDir, schema.ArchiveManifestName), entry); err != nil {
		fmt.Fprintf(opts.Err, "WARNING: manifest append failed: %v\n", err)
	}

	return Result{Source: src, Dest: finalDest, Compressed: compressed}, nil
}

// destOccupied probes the uncompressed destination and every compressed
// form it could have been archived under.
func destOccupied(dest string) (string, bool) {
	if _, err := os.Lstat(dest); err == nil {
		return dest, true
	}
	for _, ext := range schema.CompressedExts() {
		if _, err := os.Lstat(dest + ext); err == nil {
			return dest + ext, true
		}
	}
	return "", false
}

func fileDigest(path string) (int64, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, "", err
	}
	defer func() { _ = f.Close() }()
	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return 0, "", err
	}
	return n, hex.EncodeToString(h.Sum(nil)), nil
}
