package archive

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"

	"github.com/saferun/saferun/internal/schema"
)

// compressFile replaces path with path+ext using the requested method. The
// original is removed only after the compressed copy is synced; on any
// failure the partial output is discarded and the original stays put.
func compressFile(path string, method schema.Compression) (string, error) {
	ext := method.Ext()
	if ext == "" {
		return path, nil
	}
	dest := path + ext

	in, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", err
	}

	if err := encodeStream(out, in, method); err != nil {
		_ = out.Close()
		_ = os.Remove(dest)
		return "", err
	}
	if err := out.Sync(); err != nil {
		_ = out.Close()
		_ = os.Remove(dest)
		return "", err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dest)
		return "", err
	}
	if err := os.Remove(path); err != nil {
		// Keep exactly one copy: drop the compressed one rather than
		// leave two files claiming to be the artifact.
		_ = os.Remove(dest)
		return "", err
	}
	return dest, nil
}

func encodeStream(dst io.Writer, src io.Reader, method schema.Compression) error {
	switch method {
	case schema.CompressGzip:
		w := gzip.NewWriter(dst)
		if _, err := io.Copy(w, src); err != nil {
			_ = w.Close()
			return err
		}
		return w.Close()
	case schema.CompressXz:
		w, err := xz.NewWriter(dst)
		if err != nil {
			return err
		}
		if _, err := io.Copy(w, src); err != nil {
			_ = w.Close()
			return err
		}
		return w.Close()
	case schema.CompressZstd:
		w, err := zstd.NewWriter(dst)
		if err != nil {
			return err
		}
		if _, err := io.Copy(w, src); err != nil {
			_ = w.Close()
			return err
		}
		return w.Close()
	default:
		return fmt.Errorf("unsupported compression method: %s", method)
	}
}
