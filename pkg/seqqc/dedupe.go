package seqqc

// Deduplicate keeps the first record seen for each identifier, in input order.
// Identifiers are compared exactly; every later repeat counts as a duplicate.
func Deduplicate(records []Record) (*Dataset, Ledger) {
	var ledger Ledger
	out := NewDataset()
	for _, rec := range records {
		if !out.Add(rec) {
			ledger.Add(Duplicate)
		}
	}
	return out, ledger
}
