package pool_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/FollowTheProcess/chainlint/pool"
)

func writeTemp(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("could not write fixture %s: %v", path, err)
	}
	return path
}

func TestRunFlagsBrokenChain(t *testing.T) {
	dir := t.TempDir()
	broken := writeTemp(t, dir, "broken.sh", "test_expect_success 'broken' '\n\tfoo\n\tbar\n'\n")
	clean := writeTemp(t, dir, "clean.sh", "test_expect_success 'clean' '\n\tfoo &&\n\tbar\n'\n")

	results, stats := pool.Run([]string{broken, clean}, false, 2)

	if stats.Files != 2 {
		t.Fatalf("got %d files in stats, wanted 2", stats.Files)
	}
	if stats.Findings != 1 {
		t.Fatalf("got %d findings in stats, wanted 1", stats.Findings)
	}

	byPath := make(map[string]pool.FileReport)
	for _, r := range results {
		byPath[r.Path] = r
	}

	if !byPath[broken].HasFinding() {
		t.Errorf("expected %s to have a finding", broken)
	}
	if byPath[clean].HasFinding() {
		t.Errorf("expected %s to have no finding", clean)
	}
}

func TestRunMissingFileProducesIOErr(t *testing.T) {
	results, stats := pool.Run([]string{"/nonexistent/path/does-not-exist.sh"}, false, 1)
	if len(results) != 1 {
		t.Fatalf("got %d results, wanted 1", len(results))
	}
	if results[0].IOErr == "" {
		t.Errorf("expected an IOErr for a missing file")
	}
	if !results[0].HasFinding() {
		t.Errorf("expected HasFinding() true for an I/O failure")
	}
	if stats.Findings != 1 {
		t.Errorf("got %d findings, wanted 1", stats.Findings)
	}
}

func TestRunAutoSelectsWorkerCount(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for i := 0; i < 5; i++ {
		paths = append(paths, writeTemp(t, dir, filenameFor(i), "echo hi\n"))
	}
	results, stats := pool.Run(paths, false, 0)
	if len(results) != 5 {
		t.Fatalf("got %d results, wanted 5", len(results))
	}
	if stats.Files != 5 {
		t.Errorf("got %d stats.Files, wanted 5", stats.Files)
	}
}

func filenameFor(i int) string {
	return "script" + string(rune('a'+i)) + ".sh"
}
