package util

import (
	"os"
	"path/filepath"
	"testing"
)

func TestBaseName(t *testing.T) {
	tests := map[string]string{
		"cds.fasta":             "cds",
		"data/cds.fasta.gz":     "cds",
		"/tmp/run.1.csv":        "run.1",
		"noext":                 "noext",
		"dir/OR5A1_aligned.fas": "OR5A1_aligned",
	}
	for in, want := range tests {
		if got := BaseName(in); got != want {
			t.Errorf("BaseName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f.txt")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if !DirExists(dir) || DirExists(file) || DirExists(filepath.Join(dir, "none")) {
		t.Error("DirExists gave a wrong answer")
	}
	if !FileExists(file) || FileExists(dir) || FileExists(filepath.Join(dir, "none")) {
		t.Error("FileExists gave a wrong answer")
	}
}
