package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"
)

func testRunner(stdout, stderr *bytes.Buffer) Runner {
	return Runner{
		Version: "0.0.0-dev",
		Now:     func() time.Time { return time.Date(2026, 3, 1, 12, 30, 45, 0, time.UTC) },
		Stdout:  stdout,
		Stderr:  stderr,
	}
}

func setRunEnv(t *testing.T, logDir string) {
	t.Helper()
	t.Setenv("GO_WANT_HELPER_PROCESS", "1")
	t.Setenv("SAFE_LOG_DIR", logDir)
	t.Setenv("SAFE_SNIPPET_LINES", "0")
	t.Setenv("SAFE_RUN_VIEW", "ledger")
}

func helperArgv(directives ...string) []string {
	argv := []string{os.Args[0], "-test.run=TestHelperProcess", "--"}
	return append(argv, directives...)
}

func TestRun_SuccessLeavesNoArtifact(t *testing.T) {
	logDir := filepath.Join(t.TempDir(), "logs")
	setRunEnv(t, logDir)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	r := testRunner(&stdout, &stderr)

	args := append([]string{"run", "--"}, helperArgv("stdout=hello\n", "exit=0")...)
	code := r.Run(args)
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d (stderr=%q)", code, stderr.String())
	}
	if stdout.String() != "hello\n" {
		t.Fatalf("stdout passthrough mismatch: %q", stdout.String())
	}
	if strings.Contains(stderr.String(), "SAFE-RUN:") {
		t.Fatalf("expected no diagnostics on success, got: %q", stderr.String())
	}
	if _, err := os.Stat(logDir); !os.IsNotExist(err) {
		t.Fatalf("expected no log dir on success, stat err=%v", err)
	}
}

func TestRun_FailureWritesArtifactAndPreservesExitCode(t *testing.T) {
	logDir := t.TempDir()
	setRunEnv(t, logDir)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	r := testRunner(&stdout, &stderr)

	args := append([]string{"run", "--"}, helperArgv("stdout=hello\n", "exit=7")...)
	code := r.Run(args)
	if code != 7 {
		t.Fatalf("expected exit code 7, got %d (stderr=%q)", code, stderr.String())
	}
	if stdout.String() != "hello\n" {
		t.Fatalf("stdout passthrough mismatch: %q", stdout.String())
	}

	wantName := fmt.Sprintf("20260301T123045Z-pid%d-FAIL.log", os.Getpid())
	path := filepath.Join(logDir, wantName)
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	content := string(raw)
	if !strings.HasPrefix(content, "=== STDOUT ===\nhello\n\n=== STDERR ===\n\n--- BEGIN EVENTS ---\n") {
		t.Fatalf("unexpected artifact head: %q", content)
	}
	if !strings.Contains(content, "[SEQ=2][STDOUT] hello\n") {
		t.Fatalf("missing stdout event: %q", content)
	}
	if !strings.Contains(content, "safe-run exit: code=7\n") {
		t.Fatalf("missing exit event: %q", content)
	}
	if !strings.HasSuffix(content, "--- END EVENTS ---\n") {
		t.Fatalf("expected ledger view without merged block: %q", content)
	}

	wantDiag := "\nSAFE-RUN: command failed (exit=7)\nSAFE-RUN: log saved to: " + path + "\n"
	if stderr.String() != wantDiag {
		t.Fatalf("diagnostics mismatch:\n got %q\nwant %q", stderr.String(), wantDiag)
	}
}

func TestRun_MergedViewAppendsBlock(t *testing.T) {
	logDir := t.TempDir()
	setRunEnv(t, logDir)
	t.Setenv("SAFE_RUN_VIEW", "merged")

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	r := testRunner(&stdout, &stderr)

	args := append([]string{"run", "--"}, helperArgv("stdout=hello\n", "exit=3")...)
	code := r.Run(args)
	if code != 3 {
		t.Fatalf("expected exit code 3, got %d (stderr=%q)", code, stderr.String())
	}

	entries, err := os.ReadDir(logDir)
	if err != nil || len(entries) != 1 {
		t.Fatalf("expected one artifact, got %v (err=%v)", entries, err)
	}
	raw, err := os.ReadFile(filepath.Join(logDir, entries[0].Name()))
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	content := string(raw)
	if !strings.Contains(content, "--- BEGIN MERGED (OBSERVED ORDER) ---\n") {
		t.Fatalf("missing merged block: %q", content)
	}
	if !strings.Contains(content, "[#2][STDOUT] hello\n") {
		t.Fatalf("missing merged line: %q", content)
	}
	if !strings.HasSuffix(content, "--- END MERGED ---\n") {
		t.Fatalf("merged block should close the artifact: %q", content)
	}
}

func TestRun_SnippetPrintsCombinedTail(t *testing.T) {
	logDir := t.TempDir()
	setRunEnv(t, logDir)
	t.Setenv("SAFE_SNIPPET_LINES", "2")

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	r := testRunner(&stdout, &stderr)

	args := append([]string{"run", "--"}, helperArgv("stdout=l1\nl2\nl3\n", "exit=5")...)
	code := r.Run(args)
	if code != 5 {
		t.Fatalf("expected exit code 5, got %d (stderr=%q)", code, stderr.String())
	}
	if !strings.HasSuffix(stderr.String(), "\nSAFE-RUN: output tail (last 2 lines):\nl2\nl3\n") {
		t.Fatalf("snippet mismatch: %q", stderr.String())
	}
}

func TestRun_SpawnFailureWritesErrorArtifact(t *testing.T) {
	logDir := t.TempDir()
	setRunEnv(t, logDir)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	r := testRunner(&stdout, &stderr)

	missing := filepath.Join(t.TempDir(), "definitely-missing")
	code := r.Run([]string{"run", "--", missing})
	if code != 1 {
		t.Fatalf("expected exit code 1, got %d (stderr=%q)", code, stderr.String())
	}
	if !strings.Contains(stderr.String(), "SAFERUN_E_SPAWN: failed to spawn command:") {
		t.Fatalf("missing spawn diagnostic: %q", stderr.String())
	}
	if !strings.Contains(stderr.String(), "SAFE-RUN: log saved to: ") {
		t.Fatalf("missing log path diagnostic: %q", stderr.String())
	}

	entries, err := os.ReadDir(logDir)
	if err != nil || len(entries) != 1 {
		t.Fatalf("expected one artifact, got %v (err=%v)", entries, err)
	}
	if !strings.HasSuffix(entries[0].Name(), "-ERROR.log") {
		t.Fatalf("expected ERROR artifact, got %q", entries[0].Name())
	}
	raw, err := os.ReadFile(filepath.Join(logDir, entries[0].Name()))
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	if !strings.Contains(string(raw), "[SEQ=2][META] safe-run error: failed to spawn command:") {
		t.Fatalf("missing error event: %q", string(raw))
	}
}

func TestRun_MissingCommandIsUsageError(t *testing.T) {
	setRunEnv(t, t.TempDir())

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	r := testRunner(&stdout, &stderr)

	code := r.Run([]string{"run", "--"})
	if code != 2 {
		t.Fatalf("expected exit code 2, got %d", code)
	}
	if !strings.Contains(stderr.String(), "SAFERUN_E_USAGE: run: missing command") {
		t.Fatalf("missing usage diagnostic: %q", stderr.String())
	}
}

func TestRun_BadSnippetEnvIsConfigError(t *testing.T) {
	setRunEnv(t, t.TempDir())
	t.Setenv("SAFE_SNIPPET_LINES", "banana")

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	r := testRunner(&stdout, &stderr)

	args := append([]string{"run", "--"}, helperArgv("exit=0")...)
	code := r.Run(args)
	if code != 2 {
		t.Fatalf("expected exit code 2, got %d (stderr=%q)", code, stderr.String())
	}
	if !strings.Contains(stderr.String(), "SAFERUN_E_CONFIG: SAFE_SNIPPET_LINES must be a non-negative integer") {
		t.Fatalf("missing config diagnostic: %q", stderr.String())
	}
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	// This is executed as a subprocess of the test binary.
	args := os.Args
	idx := 0
	for i := range args {
		if args[i] == "--" {
			idx = i + 1
			break
		}
	}
	out := ""
	errOut := ""
	exit := 0
	for _, a := range args[idx:] {
		if strings.HasPrefix(a, "stdout=") {
			out = strings.TrimPrefix(a, "stdout=")
		} else if strings.HasPrefix(a, "stderr=") {
			errOut = strings.TrimPrefix(a, "stderr=")
		} else if strings.HasPrefix(a, "exit=") {
			n, _ := strconv.Atoi(strings.TrimPrefix(a, "exit="))
			exit = n
		}
	}
	_, _ = os.Stdout.WriteString(out)
	_, _ = os.Stderr.WriteString(errOut)
	os.Exit(exit)
}
