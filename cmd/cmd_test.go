package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/yumyai/selscan/config"
	"github.com/yumyai/selscan/pkg/fasta"
	"github.com/yumyai/selscan/pkg/selection"
	"github.com/yumyai/selscan/pkg/seqqc"
)

// isolate runs the test from an empty directory with an empty HOME so no
// selscan.yaml or .env is picked up.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(old) })
	t.Setenv("HOME", dir)
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

const qcInput = `>s1
ATGAAACCCTAA
>s1
ATGGGGGGGTAA
>s2
ATGTAA
>s3
ATGAAATA
`

func TestQCCommand(t *testing.T) {
	dir := isolate(t)
	in := filepath.Join(dir, "cds.fasta")
	writeFile(t, in, qcInput)
	out := filepath.Join(dir, "out")

	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetArgs([]string{"qc", in, "--out-dir", out, "--min-length", "3", "--outlier", "none"})
	defer rootCmd.SetOut(nil)
	if code := Execute(); code != 0 {
		t.Fatalf("exit code %d", code)
	}

	summary := stdout.String()
	for _, want := range []string{"Total sequences: 4", "Total discarded: 2", "Final sequences: 2"} {
		if !strings.Contains(summary, want) {
			t.Errorf("summary missing %q:\n%s", want, summary)
		}
	}

	passed, err := fasta.ReadFile(filepath.Join(out, "cds_passed.fasta"))
	if err != nil {
		t.Fatal(err)
	}
	if len(passed) != 2 || passed[0].ID != "s1" || passed[0].Seq != "ATGAAACCCTAA" {
		t.Errorf("passed = %+v", passed)
	}
	trimmed, err := fasta.ReadFile(filepath.Join(out, "cds_trimmed.fasta"))
	if err != nil {
		t.Fatal(err)
	}
	if len(trimmed) != 2 || trimmed[0].Seq != "ATGAAACCC" || trimmed[1].Seq != "ATG" {
		t.Errorf("trimmed = %+v", trimmed)
	}
}

func TestQCFileBadInput(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "bad.fasta")
	writeFile(t, in, "not a fasta file\n")

	filter, err := seqqc.NewFilter(seqqc.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	err = qcFile(context.Background(), &bytes.Buffer{}, filter, nil, in, qcOutputs{
		passed:  filepath.Join(dir, "p.fasta"),
		trimmed: filepath.Join(dir, "t.fasta"),
	})
	var formatErr *seqqc.InputFormatError
	if !errors.As(err, &formatErr) {
		t.Fatalf("err = %v, want InputFormatError", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "p.fasta")); !os.IsNotExist(err) {
		t.Error("passed output written for unreadable input")
	}
}

func TestLoadComparisons(t *testing.T) {
	dir := t.TempDir()
	yml := filepath.Join(dir, "cmp.yaml")
	writeFile(t, yml, "comparisons:\n  - name: m2a\n    null: M1a\n    alt: M2a\n    df: 2\n")

	tests := []struct {
		name  string
		cfg   config.LRTConfig
		names []string
	}{
		{"defaults", config.LRTConfig{DF: 1}, []string{"branch-site", "branch"}},
		{"sequence", config.LRTConfig{Sequence: []string{"M7", "M8"}, DF: 2}, []string{"branch-site", "branch", "M8_vs_M7"}},
		{"file", config.LRTConfig{Comparisons: yml, DF: 1}, []string{"m2a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmps, err := loadComparisons(tt.cfg)
			if err != nil {
				t.Fatal(err)
			}
			if len(cmps) != len(tt.names) {
				t.Fatalf("got %d comparisons, want %d", len(cmps), len(tt.names))
			}
			for i, c := range cmps {
				if c.Name != tt.names[i] {
					t.Errorf("comparison %d = %q, want %q", i, c.Name, tt.names[i])
				}
			}
		})
	}

	cmps, err := loadComparisons(config.LRTConfig{Comparisons: yml, Sequence: []string{"M7", "M8"}, DF: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(cmps) != 2 || cmps[0].Null != "M1a" || cmps[0].Alt != "M2a" || cmps[0].DF != 2 || cmps[1].Null != "M7" {
		t.Errorf("file plus sequence = %+v", cmps)
	}

	if _, err := loadComparisons(config.LRTConfig{Comparisons: filepath.Join(dir, "none.yaml")}); err == nil {
		t.Error("expected error for a missing comparisons file")
	}
}

func TestLRTInputs(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.csv", "b.csv", "notes.txt"} {
		writeFile(t, filepath.Join(dir, name), "")
	}

	files, err := lrtInputs([]string{dir, "extra.csv"})
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 3 || filepath.Base(files[0]) != "a.csv" || files[2] != "extra.csv" {
		t.Errorf("files = %v", files)
	}

	if _, err := lrtInputs([]string{t.TempDir()}); err == nil {
		t.Error("expected error for a directory without csv files")
	}
}

const lrtTable = `Gene,Model,lnL
OR1,BS_NULL,-105.5
OR1,BS,-100.25
OR1,M0,-100.25
OR1,B,-100.25
OR2,BS_NULL,-200
OR2,BS,-199
`

func TestLRTFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "genes.csv")
	writeFile(t, in, lrtTable)
	cfg.LRT.OutDir = filepath.Join(dir, "results")
	if err := os.MkdirAll(cfg.LRT.OutDir, 0o755); err != nil {
		t.Fatal(err)
	}

	err := lrtFile(context.Background(), nil, in, selection.DefaultComparisons(), selection.DefaultLabels)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(filepath.Join(cfg.LRT.OutDir, "LRT_results_genes.xlsx")); err != nil {
		t.Errorf("workbook not written: %v", err)
	}
	bs, err := os.ReadFile(filepath.Join(cfg.LRT.OutDir, "LRT_results_genes_Branchsite_Model.tsv"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(bs)), "\n")
	if len(lines) != 3 || !strings.HasPrefix(lines[0], "Gene\t") || !strings.HasPrefix(lines[1], "OR1\t") {
		t.Errorf("branch-site tsv =\n%s", bs)
	}
	if _, err := os.Stat(filepath.Join(cfg.LRT.OutDir, "LRT_results_genes_Branch_Model.tsv")); err != nil {
		t.Errorf("branch tsv not written: %v", err)
	}
}

func TestLRTFileMissingColumns(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "other.csv")
	writeFile(t, in, "Sample,Value\na,1\n")
	cfg.LRT.OutDir = dir

	err := lrtFile(context.Background(), nil, in, selection.DefaultComparisons(), selection.DefaultLabels)
	var tableErr *selection.TableError
	if !errors.As(err, &tableErr) || len(tableErr.Missing) == 0 {
		t.Fatalf("err = %v, want TableError with missing columns", err)
	}
}

func TestFitCommand(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("fake codeml needs a POSIX shell")
	}
	dir := isolate(t)
	codeml := filepath.Join(dir, "codeml")
	writeFile(t, codeml, `#!/usr/bin/env bash
out=$(sed -n 's/^outfile = //p' "$1")
if grep -q "fix_omega = 1" "$1"; then lnl=-105.5; else lnl=-100.25; fi
printf 'lnL(ntime:  3  np: 9):  %s  +0.000000\n' "$lnl" > "$out"
`)
	if err := os.Chmod(codeml, 0o755); err != nil {
		t.Fatal(err)
	}
	alignment := filepath.Join(dir, "OR1.phy")
	tree := filepath.Join(dir, "OR1.nwk")
	writeFile(t, alignment, "2 6\na ATGTAA\nb ATGTAG\n")
	writeFile(t, tree, "(a,b);\n")
	out := filepath.Join(dir, "OR1.csv")

	rootCmd.SetArgs([]string{"fit", alignment, tree, "--codeml", codeml, "--out", out})
	if code := Execute(); code != 0 {
		t.Fatalf("exit code %d", code)
	}

	table, err := selection.ReadTableFile(out, selection.DefaultLabels)
	if err != nil {
		t.Fatal(err)
	}
	if runs := table.Runs(); len(runs) != 4 {
		t.Fatalf("table has %d runs, want 4", len(runs))
	}
	sets, err := selection.CompareAll(table, selection.DefaultComparisons())
	if err != nil {
		t.Fatal(err)
	}
	if r := sets[0].Results; len(r) != 1 || r[0].Gene != "OR1" || r[0].LRT != 10.5 {
		t.Errorf("branch-site results = %+v", r)
	}
}
