package seqqc

import (
	"strings"
	"testing"
)

func mustFilter(t *testing.T, opts Options) *Filter {
	t.Helper()
	f, err := NewFilter(opts)
	if err != nil {
		t.Fatalf("NewFilter: %v", err)
	}
	return f
}

func TestDuplicateScenario(t *testing.T) {
	records := []Record{
		{ID: "seq1", Seq: cds(300)},
		{ID: "seq1", Seq: cds(303)},
	}
	res, err := mustFilter(t, DefaultOptions()).Run(records)
	if err != nil {
		t.Fatal(err)
	}
	if res.Passed.Len() != 1 {
		t.Fatalf("expected 1 passed record, got %d", res.Passed.Len())
	}
	rec, ok := res.Passed.Get("seq1")
	if !ok || rec.Seq != cds(300) {
		t.Fatalf("first occurrence should win, got %+v", rec)
	}
	if got := res.Ledger.Count(Duplicate); got != 1 {
		t.Fatalf("duplicate = %d, want 1", got)
	}
}

func TestDeduplicateIdempotent(t *testing.T) {
	records := []Record{
		{ID: "a", Seq: "AAA"},
		{ID: "b", Seq: "CCC"},
		{ID: "a", Seq: "GGG"},
		{ID: "A", Seq: "TTT"}, // ids are case sensitive
	}
	once, ledger := Deduplicate(records)
	if once.Len() != 3 || ledger.Count(Duplicate) != 1 {
		t.Fatalf("first pass: len=%d dup=%d", once.Len(), ledger.Count(Duplicate))
	}
	twice, ledger2 := Deduplicate(once.Records())
	if twice.Len() != once.Len() || ledger2.Total() != 0 {
		t.Fatalf("second pass changed the dataset: len=%d discards=%d", twice.Len(), ledger2.Total())
	}
	if got := strings.Join(twice.IDs(), ","); got != "a,b,A" {
		t.Fatalf("order not preserved: %s", got)
	}
}

func TestNotDivisibleScenario(t *testing.T) {
	records := []Record{
		{ID: "ok", Seq: cds(300)},
		{ID: "odd", Seq: "ATG" + strings.Repeat("A", 295) + "TAA"},
	}
	res, err := mustFilter(t, DefaultOptions()).Run(records)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := res.Passed.Get("odd"); ok {
		t.Fatal("length 301 record should be excluded")
	}
	if got := res.Ledger.Count(NotDivisibleBy3); got != 1 {
		t.Fatalf("not_divisible_by_3 = %d, want 1", got)
	}
}

func TestLedgerConservation(t *testing.T) {
	lengths := []int{300, 303, 306, 309, 312, 315, 3000}
	var records []Record
	for i, n := range lengths {
		records = append(records, Record{ID: string(rune('a' + i)), Seq: cds(n)})
	}
	records = append(records,
		Record{ID: "a", Seq: cds(300)},                    // duplicate
		Record{ID: "x1", Seq: "GGG" + cds(300)[3:]},       // invalid_start
		Record{ID: "x2", Seq: cds(300)[:297] + "GGG"},     // invalid_stop
		Record{ID: "x3", Seq: "ATG*" + cds(300)[4:]},      // premature_stop
		Record{ID: "x4", Seq: "ATGA" + cds(300)[3:]},      // not_divisible_by_3
		Record{ID: "x5", Seq: cds(150)},                   // short_length
		Record{ID: "x6", Seq: "ATGR" + cds(300)[4:]},      // invalid_chars
	)

	for _, strategy := range []OutlierStrategy{OutlierIQR, OutlierZScore, OutlierNone} {
		t.Run(string(strategy), func(t *testing.T) {
			opts := DefaultOptions()
			opts.Outlier.Strategy = strategy
			res, err := mustFilter(t, opts).Run(records)
			if err != nil {
				t.Fatal(err)
			}
			if res.Raw != len(records) {
				t.Fatalf("raw = %d, want %d", res.Raw, len(records))
			}
			if res.Passed.Len()+res.Ledger.Total() != len(records) {
				t.Fatalf("conservation broken: passed=%d discards=%d raw=%d",
					res.Passed.Len(), res.Ledger.Total(), len(records))
			}
			for _, r := range []Reason{Duplicate, InvalidStart, InvalidStop, PrematureStop, NotDivisibleBy3, ShortLength, InvalidChars} {
				if res.Ledger.Count(r) != 1 {
					t.Errorf("%s = %d, want 1", r, res.Ledger.Count(r))
				}
			}
			if strategy == OutlierIQR && res.Ledger.Count(LengthOutlier) != 1 {
				t.Errorf("length_outlier = %d, want 1", res.Ledger.Count(LengthOutlier))
			}
			if strategy == OutlierNone && res.Ledger.Count(LengthOutlier) != 0 {
				t.Errorf("length_outlier = %d, want 0", res.Ledger.Count(LengthOutlier))
			}
		})
	}
}

func TestTrimCorrectness(t *testing.T) {
	records := []Record{
		{ID: "a", Seq: cds(300)},
		{ID: "b", Seq: strings.ToLower(cds(306))},
		{ID: "c", Seq: cds(303)[:300] + "TAG"},
	}
	res, err := mustFilter(t, DefaultOptions()).Run(records)
	if err != nil {
		t.Fatal(err)
	}
	if res.Trimmed.Len() != res.Passed.Len() {
		t.Fatalf("trimmed has %d records, passed has %d", res.Trimmed.Len(), res.Passed.Len())
	}
	for _, id := range res.Passed.IDs() {
		p, _ := res.Passed.Get(id)
		tr, ok := res.Trimmed.Get(id)
		if !ok {
			t.Fatalf("%s missing from trimmed", id)
		}
		if tr.Seq != p.Seq[:len(p.Seq)-3] || tr.Len() != p.Len()-3 {
			t.Errorf("%s: trimmed %q from %q", id, tr.Seq, p.Seq)
		}
	}
}

func TestSingleRecordIsNeverAnOutlier(t *testing.T) {
	for _, strategy := range []OutlierStrategy{OutlierIQR, OutlierZScore} {
		opts := DefaultOptions()
		opts.Outlier.Strategy = strategy
		res, err := mustFilter(t, opts).Run([]Record{{ID: "only", Seq: cds(900)}})
		if err != nil {
			t.Fatal(err)
		}
		if res.Passed.Len() != 1 || res.BoundsApplied {
			t.Errorf("%s: singleton was filtered (passed=%d applied=%v)", strategy, res.Passed.Len(), res.BoundsApplied)
		}
	}
}

func TestNewFilterRejectsUnknownStrategy(t *testing.T) {
	opts := DefaultOptions()
	opts.Outlier.Strategy = "mad"
	if _, err := NewFilter(opts); err == nil {
		t.Fatal("expected an error for an unknown strategy")
	}
}
