// Sequence records and ordered datasets passed between filter stages.

package seqqc

// Record is a single CDS entry keyed by its FASTA identifier.
type Record struct {
	ID  string
	Seq string
}

func (r Record) Len() int {
	return len(r.Seq)
}

// Trimmed returns a copy without the final three symbols (the stop codon).
func (r Record) Trimmed() Record {
	if len(r.Seq) < 3 {
		return Record{ID: r.ID}
	}
	return Record{ID: r.ID, Seq: r.Seq[:len(r.Seq)-3]}
}

// Dataset is an insertion-ordered mapping from identifier to Record.
// Stages never modify a Dataset they were given; they build a new one.
type Dataset struct {
	ids     []string
	records map[string]Record
}

func NewDataset() *Dataset {
	return &Dataset{records: make(map[string]Record)}
}

// Add appends rec unless its ID is already present. It reports whether rec was added.
func (d *Dataset) Add(rec Record) bool {
	if _, ok := d.records[rec.ID]; ok {
		return false
	}
	d.ids = append(d.ids, rec.ID)
	d.records[rec.ID] = rec
	return true
}

func (d *Dataset) Get(id string) (Record, bool) {
	rec, ok := d.records[id]
	return rec, ok
}

func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.ids)
}

// IDs returns the identifiers in insertion order.
func (d *Dataset) IDs() []string {
	out := make([]string, len(d.ids))
	copy(out, d.ids)
	return out
}

// Records returns the records in insertion order.
func (d *Dataset) Records() []Record {
	out := make([]Record, 0, len(d.ids))
	for _, id := range d.ids {
		out = append(out, d.records[id])
	}
	return out
}

// Lengths returns sequence lengths in insertion order.
func (d *Dataset) Lengths() []int {
	out := make([]int, 0, len(d.ids))
	for _, id := range d.ids {
		out = append(out, len(d.records[id].Seq))
	}
	return out
}
