package selection

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestPValue(t *testing.T) {
	tests := []struct {
		stat, df, want float64
	}{
		{10, 1, 0.0015654022580025018},
		{4, 2, math.Exp(-2)},
		{0, 1, 1},
		{-3, 1, 1},
	}
	for _, tt := range tests {
		if got := PValue(tt.stat, tt.df); !almostEqual(got, tt.want, 1e-9) {
			t.Errorf("PValue(%v, %v) = %v, want %v", tt.stat, tt.df, got, tt.want)
		}
	}
}

func TestTestFlagsNegative(t *testing.T) {
	stat, p, negative := Test(-105, -100, 1)
	if !negative {
		t.Fatal("expected negative flag when the alternative fits worse")
	}
	if stat != -10 {
		t.Errorf("stat = %v, want -10", stat)
	}
	if p != 1 {
		t.Errorf("p = %v, want 1", p)
	}
}

func TestCompareScenario(t *testing.T) {
	table := NewTable()
	table.Add(ModelRun{Gene: "A", Model: "BS", LnL: -100})
	table.Add(ModelRun{Gene: "A", Model: "BS_NULL", LnL: -105})
	table.Add(ModelRun{Gene: "B", Model: "BS", LnL: -50})
	table.Add(ModelRun{Gene: "B", Model: "BS_NULL", LnL: -50})

	res, err := Compare(table, BranchSite)
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 2 {
		t.Fatalf("got %d results, want 2", len(res))
	}
	a, b := res[0], res[1]
	if a.Gene != "A" || b.Gene != "B" {
		t.Fatalf("gene order = %s,%s, want A,B", a.Gene, b.Gene)
	}
	if a.LRT != 10 || b.LRT != 0 {
		t.Fatalf("LRT = (%v, %v), want (10, 0)", a.LRT, b.LRT)
	}
	if !almostEqual(a.PValue, 0.0015654022580025018, 1e-9) || b.PValue != 1 {
		t.Fatalf("p = (%v, %v)", a.PValue, b.PValue)
	}
	if b.AdjustedP < b.PValue || a.AdjustedP < a.PValue {
		t.Fatalf("adjusted below raw: %+v %+v", a, b)
	}
	if a.AdjustedP > b.AdjustedP {
		t.Fatalf("ordering not preserved: %v > %v", a.AdjustedP, b.AdjustedP)
	}
	if !almostEqual(a.AdjustedP, 2*a.PValue, 1e-12) || b.AdjustedP != 1 {
		t.Fatalf("adjusted = (%v, %v)", a.AdjustedP, b.AdjustedP)
	}
}

func TestCompareExcludesIncompleteGenes(t *testing.T) {
	table := NewTable()
	table.Add(ModelRun{Gene: "A", Model: "B", LnL: -10})
	table.Add(ModelRun{Gene: "A", Model: "M0", LnL: -12})
	table.Add(ModelRun{Gene: "C", Model: "B", LnL: -10}) // no M0
	table.Add(ModelRun{Gene: "D", Model: "M0", LnL: -10}) // no B

	sets, err := CompareAll(table, DefaultComparisons())
	if err != nil {
		t.Fatal(err)
	}
	if len(sets) != 2 {
		t.Fatalf("got %d sets", len(sets))
	}
	if n := len(sets[0].Results); n != 0 {
		t.Errorf("branch-site should be empty, got %d", n)
	}
	branch := sets[1].Results
	if len(branch) != 1 || branch[0].Gene != "A" {
		t.Fatalf("branch results = %+v", branch)
	}
	// m = 1 for this comparison, so the adjustment is the raw p-value
	if branch[0].AdjustedP != branch[0].PValue {
		t.Errorf("single gene adjusted %v != raw %v", branch[0].AdjustedP, branch[0].PValue)
	}
}

func TestTableMissingData(t *testing.T) {
	table := NewTable()
	table.Add(ModelRun{Gene: "A", Model: "B", LnL: -1})
	_, err := table.LnL("A", "M0")
	var missing *MissingDataError
	if !errors.As(err, &missing) || missing.Model != "M0" {
		t.Fatalf("err = %v, want MissingDataError for M0", err)
	}
	if table.Add(ModelRun{Gene: "A", Model: "B", LnL: -2}) {
		t.Fatal("second run for the same pair should be ignored")
	}
	if v, _ := table.LnL("A", "B"); v != -1 {
		t.Fatalf("first run should win, got %v", v)
	}
}

func TestSequencePairs(t *testing.T) {
	cmps, err := SequencePairs([]string{"M1a", "M2a", "M7", "M8", "M0"}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(cmps) != 2 {
		t.Fatalf("got %d comparisons, want 2", len(cmps))
	}
	if cmps[0].Null != "M1a" || cmps[0].Alt != "M2a" || cmps[1].Null != "M7" || cmps[1].Alt != "M8" {
		t.Fatalf("pairs = %+v", cmps)
	}
	if cmps[0].DF != 2 || cmps[0].Name != "M2a_vs_M1a" {
		t.Fatalf("unexpected comparison %+v", cmps[0])
	}
	if _, err := SequencePairs([]string{"M0"}, 2); err == nil {
		t.Fatal("expected error for a single model")
	}
}

func TestLoadComparisons(t *testing.T) {
	doc := `
comparisons:
  - name: site
    null: M1a
    alt: M2a
    df: 2
  - null: M7
    alt: M8
    df: 2
`
	cmps, err := LoadComparisons(strings.NewReader(doc))
	if err != nil {
		t.Fatal(err)
	}
	if len(cmps) != 2 || cmps[1].Name != "M8_vs_M7" {
		t.Fatalf("comparisons = %+v", cmps)
	}

	quoted := "comparisons:\n  - {name: q, \"null\": M0, \"alt\": B, df: 1}"
	if cmps, err := LoadComparisons(strings.NewReader(quoted)); err != nil || cmps[0].Null != "M0" {
		t.Errorf("quoted keys: %+v, %v", cmps, err)
	}

	bad := []string{
		"comparisons: []",
		"comparisons:\n  - {name: x, null: M0, alt: M0, df: 1}",
		"comparisons:\n  - {name: x, null: M0, alt: B, df: 0}",
		"comparisons:\n  - {name: x, null: M0, alt: B, df: 1, extra: 1}",
		"comparisons:\n  - {name: x, alt: B, df: 1}",
		"comparisons:\n  - {name: x, null: M0, alt: B, df: one}",
		"comparisons:\n  - M0",
	}
	for _, doc := range bad {
		if _, err := LoadComparisons(strings.NewReader(doc)); err == nil {
			t.Errorf("expected error for %q", doc)
		}
	}
}

// The documented file layout must keep loading as written.
func TestLoadComparisonsDocumentedLayout(t *testing.T) {
	doc := `comparisons:
  - name: m2a-vs-m1a
    null: M1a
    alt: M2a
    df: 2
`
	cmps, err := LoadComparisons(strings.NewReader(doc))
	if err != nil {
		t.Fatal(err)
	}
	want := Comparison{Name: "m2a-vs-m1a", Null: "M1a", Alt: "M2a", DF: 2}
	if len(cmps) != 1 || cmps[0] != want {
		t.Fatalf("comparisons = %+v, want %+v", cmps, want)
	}
}
