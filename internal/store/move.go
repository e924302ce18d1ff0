package store

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"syscall"
)

// MoveFile relocates src to dest, preferring a rename. Cross-device moves
// fall back to copy+fsync+remove so the source only disappears once the
// destination bytes are durable.
func MoveFile(src, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	err := os.Rename(src, dest)
	if err == nil {
		if d, derr := os.Open(filepath.Dir(dest)); derr == nil {
			_ = d.Sync()
			_ = d.Close()
		}
		return nil
	}
	if !errors.Is(err, syscall.EXDEV) {
		return err
	}
	if err := copyFile(src, dest); err != nil {
		return err
	}
	return os.Remove(src)
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, in); err != nil {
		_ = os.Remove(dest)
		return err
	}
	if err := out.Sync(); err != nil {
		return err
	}
	return out.Close()
}
