package db

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/yumyai/selscan/pkg/selection"
	"github.com/yumyai/selscan/pkg/seqqc"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "selscan.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveQCRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	var ledger seqqc.Ledger
	ledger.AddN(seqqc.Duplicate, 2)
	ledger.Add(seqqc.ShortLength)

	run := NewRun(KindQC, "cds.fasta")
	if err := s.SaveQC(ctx, run, 10, 7, ledger); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Kind != KindQC || got.Source != "cds.fasta" || got.Raw != 10 || got.Passed != 7 {
		t.Fatalf("run = %+v", got)
	}
	if !got.Created.Equal(run.Created) {
		t.Errorf("created = %v, want %v", got.Created, run.Created)
	}

	back, err := s.Discards(ctx, run.ID)
	if err != nil {
		t.Fatal(err)
	}
	if back.Count(seqqc.Duplicate) != 2 || back.Count(seqqc.ShortLength) != 1 || back.Total() != 3 {
		t.Fatalf("ledger = %v", back.Map())
	}
}

func TestSaveLRTRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	sets := []selection.ComparisonSet{
		{
			Comparison: selection.BranchSite,
			Results: []selection.ComparisonResult{
				{Gene: "B", LnLAlt: -50, LnLNull: -50, LRT: 0, PValue: 1, AdjustedP: 1},
				{Gene: "A", LnLAlt: -100, LnLNull: -105, LRT: 10, PValue: 0.0016, AdjustedP: 0.0032},
			},
		},
		{Comparison: selection.Branch},
	}

	run := NewRun(KindLRT, "runs.csv")
	if err := s.SaveLRT(ctx, run, sets); err != nil {
		t.Fatal(err)
	}

	back, err := s.ComparisonSets(ctx, run.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(back) != 2 {
		t.Fatalf("got %d comparison sets", len(back))
	}
	if back[0].Comparison.Name != "branch-site" || back[0].Comparison.Sheet != "Branchsite_Model" {
		t.Fatalf("comparison = %+v", back[0].Comparison)
	}
	res := back[0].Results
	if len(res) != 2 || res[0].Gene != "B" || res[1].Gene != "A" || res[1].LRT != 10 {
		t.Fatalf("results = %+v", res)
	}
	if len(back[1].Results) != 0 {
		t.Fatalf("branch results = %+v", back[1].Results)
	}
}

func TestSaveLRTIsAtomic(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	// same comparison twice violates the primary key
	sets := []selection.ComparisonSet{{Comparison: selection.Branch}, {Comparison: selection.Branch}}
	run := NewRun(KindLRT, "dup.csv")
	if err := s.SaveLRT(ctx, run, sets); err == nil {
		t.Fatal("expected error for duplicate comparison")
	}
	if _, err := s.GetRun(ctx, run.ID); !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("run should not be committed, err = %v", err)
	}
}

func TestListRuns(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first := NewRun(KindQC, "a.fasta")
	second := NewRun(KindLRT, "b.csv")
	second.Created = first.Created.Add(1)
	if err := s.SaveQC(ctx, first, 1, 1, seqqc.Ledger{}); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveLRT(ctx, second, nil); err != nil {
		t.Fatal(err)
	}

	runs, err := s.ListRuns(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 || runs[0].ID != second.ID || runs[1].ID != first.ID {
		t.Fatalf("runs = %+v", runs)
	}
}
