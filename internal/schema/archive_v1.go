package schema

// Compression methods recognized in SAFE_ARCHIVE_COMPRESS.
type Compression string

const (
	CompressNone Compression = "none"
	CompressGzip Compression = "gzip"
	CompressXz   Compression = "xz"
	CompressZstd Compression = "zstd"
)

// CompressedExts lists every extension an archived artifact may carry once
// compressed. The no-clobber check probes all of them.
func CompressedExts() []string {
	return []string{".gz", ".xz", ".zst"}
}

// Ext returns the filename extension the method appends, or "" for none.
func (c Compression) Ext() string {
	switch c {
	case CompressGzip:
		return ".gz"
	case CompressXz:
		return ".xz"
	case CompressZstd:
		return ".zst"
	default:
		return ""
	}
}

// ParseCompression validates a raw configuration value. Empty means none.
func ParseCompression(raw string) (Compression, bool) {
	switch Compression(raw) {
	case "", CompressNone:
		return CompressNone, true
	case CompressGzip:
		return CompressGzip, true
	case CompressXz:
		return CompressXz, true
	case CompressZstd:
		return CompressZstd, true
	default:
		return "", false
	}
}

// ArchiveEventV1 is appended to: <archive dir>/archived.jsonl
//
// The manifest is a best-effort evidence index; archival never fails an
// invocation over it.
type ArchiveEventV1 struct {
	V      int    `json:"v"`
	ID     string `json:"id"`
	TS     string `json:"ts"` // RFC3339Nano UTC
	Source string `json:"source"`
	Dest   string `json:"dest"`
	Method string `json:"method"`
	// Compressed is false when method=none or when compression failed
	// after the move (the entry then records the uncompressed dest).
	Compressed bool   `json:"compressed"`
	Bytes      int64  `json:"bytes"`
	SHA256     string `json:"sha256"`
}

// ArchiveManifestName is the manifest filename inside the archive directory.
const ArchiveManifestName = "archived.jsonl"
