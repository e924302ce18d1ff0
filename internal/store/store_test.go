package store

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteFileAtomicCreatesParentDirs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "a", "b", "out.txt")
	if err := WriteFileAtomic(path, []byte("hello\n")); err != nil {
		t.Fatalf("WriteFileAtomic: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(b) != "hello\n" {
		t.Fatalf("content = %q", b)
	}
}

func TestWriteFileAtomicReplacesExisting(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")
	if err := WriteFileAtomic(path, []byte("v1")); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := WriteFileAtomic(path, []byte("v2")); err != nil {
		t.Fatalf("second write: %v", err)
	}
	b, _ := os.ReadFile(path)
	if string(b) != "v2" {
		t.Fatalf("content = %q, want v2", b)
	}

	// No temp droppings left behind.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp-") {
			t.Fatalf("leftover temp file %s", e.Name())
		}
	}
}

func TestAppendJSONLAppendsOneLinePerCall(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "events.jsonl")
	type rec struct {
		N int    `json:"n"`
		S string `json:"s"`
	}
	for i := 0; i < 3; i++ {
		if err := AppendJSONL(path, rec{N: i, S: "<&>"}); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = f.Close() }()

	var lines []rec
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var r rec
		if err := json.Unmarshal(sc.Bytes(), &r); err != nil {
			t.Fatalf("line %d: %v", len(lines), err)
		}
		lines = append(lines, r)
	}
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}
	for i, r := range lines {
		if r.N != i || r.S != "<&>" {
			t.Fatalf("line %d = %+v (HTML escaping must stay off)", i, r)
		}
	}
}

func TestMoveFileRelocates(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "src.log")
	dest := filepath.Join(dir, "archive", "src.log")
	if err := os.WriteFile(src, []byte("payload"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if err := MoveFile(src, dest); err != nil {
		t.Fatalf("MoveFile: %v", err)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Fatalf("source still present after move")
	}
	b, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("dest: %v", err)
	}
	if string(b) != "payload" {
		t.Fatalf("dest content = %q", b)
	}
}

func TestCopyFileRefusesExistingDest(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dest := filepath.Join(dir, "dest")
	if err := os.WriteFile(src, []byte("new"), 0o644); err != nil {
		t.Fatalf("seed src: %v", err)
	}
	if err := os.WriteFile(dest, []byte("old"), 0o644); err != nil {
		t.Fatalf("seed dest: %v", err)
	}

	if err := copyFile(src, dest); !os.IsExist(err) {
		t.Fatalf("copyFile over existing dest: err = %v, want IsExist", err)
	}
	b, _ := os.ReadFile(dest)
	if string(b) != "old" {
		t.Fatalf("dest clobbered: %q", b)
	}
}
