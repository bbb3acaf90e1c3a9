package store

import (
	"os"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "catalog.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s, dir
}

func writeTestTable(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRecordAndList(t *testing.T) {
	s, dir := openTestStore(t)
	rateFile := writeTestTable(t, dir, "rate_CMB.txt", "14.00\t1.0000000e-03\n")
	cdfFile := writeTestTable(t, dir, "cdf_CMB.txt", "0.00\t1.21000e+01\n")

	if err := s.Record("run-1", "EMPairProduction", "CMB", KindRate, rateFile, 1); err != nil {
		t.Fatal(err)
	}
	if err := s.Record("run-1", "EMPairProduction", "CMB", KindCDF, cdfFile, 1); err != nil {
		t.Fatal(err)
	}

	entries, err := s.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries=%d, want 2", len(entries))
	}
	// Newest first.
	if entries[0].Kind != KindCDF || entries[1].Kind != KindRate {
		t.Errorf("order: %s, %s", entries[0].Kind, entries[1].Kind)
	}
	for _, e := range entries {
		if e.RunID != "run-1" || e.Process != "EMPairProduction" || e.Field != "CMB" {
			t.Errorf("bad entry: %+v", e)
		}
		if len(e.SHA256) != 64 {
			t.Errorf("sha256 %q has length %d", e.SHA256, len(e.SHA256))
		}
		if e.CreatedAt.IsZero() {
			t.Error("zero created_at")
		}
	}
}

func TestListRun(t *testing.T) {
	s, dir := openTestStore(t)
	p := writeTestTable(t, dir, "rate.txt", "x")
	if err := s.Record("run-a", "p", "f", KindRate, p, 1); err != nil {
		t.Fatal(err)
	}
	if err := s.Record("run-b", "p", "f", KindRate, p, 1); err != nil {
		t.Fatal(err)
	}

	got, err := s.ListRun("run-a")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].RunID != "run-a" {
		t.Errorf("ListRun=%+v", got)
	}
}

func TestRecordMissingFile(t *testing.T) {
	s, dir := openTestStore(t)
	err := s.Record("run-1", "p", "f", KindRate, filepath.Join(dir, "nope.txt"), 0)
	if err == nil {
		t.Error("expected error for missing file")
	}
}
