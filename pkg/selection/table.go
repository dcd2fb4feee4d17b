package selection

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/yumyai/selscan/logger"
)

// ModelRun is one fitted model for one gene.
type ModelRun struct {
	Gene  string  `json:"gene"`
	Model string  `json:"model"`
	LnL   float64 `json:"lnL"`
}

// Table indexes log-likelihoods by gene and model. Genes keep first-seen order.
type Table struct {
	genes []string
	lnl   map[string]map[string]float64
}

func NewTable() *Table {
	return &Table{lnl: make(map[string]map[string]float64)}
}

// Add stores run unless the (gene, model) pair is already present.
func (t *Table) Add(run ModelRun) bool {
	models, ok := t.lnl[run.Gene]
	if !ok {
		models = make(map[string]float64)
		t.lnl[run.Gene] = models
		t.genes = append(t.genes, run.Gene)
	}
	if _, dup := models[run.Model]; dup {
		return false
	}
	models[run.Model] = run.LnL
	return true
}

func (t *Table) Genes() []string {
	out := make([]string, len(t.genes))
	copy(out, t.genes)
	return out
}

func (t *Table) Len() int {
	return len(t.genes)
}

// LnL returns the log-likelihood for gene under model, or a *MissingDataError.
func (t *Table) LnL(gene, model string) (float64, error) {
	v, ok := t.lnl[gene][model]
	if !ok {
		return 0, &MissingDataError{Gene: gene, Model: model}
	}
	return v, nil
}

// Runs lists every stored run, genes in order and models sorted by label.
func (t *Table) Runs() []ModelRun {
	var out []ModelRun
	for _, g := range t.genes {
		models := make([]string, 0, len(t.lnl[g]))
		for m := range t.lnl[g] {
			models = append(models, m)
		}
		sort.Strings(models)
		for _, m := range models {
			out = append(out, ModelRun{Gene: g, Model: m, LnL: t.lnl[g][m]})
		}
	}
	return out
}

// DefaultLabels are the model suffixes the fitting pipeline appends to folder names.
var DefaultLabels = []string{"BS_NULL", "BS", "B", "M0"}

// SplitFolder splits "<gene>_<model>" using the longest matching label.
func SplitFolder(folder string, labels []string) (gene, model string, ok bool) {
	sorted := make([]string, len(labels))
	copy(sorted, labels)
	sort.SliceStable(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })

	for _, l := range sorted {
		suffix := "_" + l
		if strings.HasSuffix(folder, suffix) && len(folder) > len(suffix) {
			return folder[:len(folder)-len(suffix)], l, true
		}
	}
	return "", "", false
}

const (
	colFolder = "folder"
	colGene   = "gene"
	colModel  = "model"
	colLnL    = "lnl"
)

// ReadTable parses a CSV with either Gene,Model,lnL or Folder,lnL columns.
// Folder values are split with SplitFolder against labels. Rows with an empty or
// non-numeric lnL are skipped; a missing column is a *TableError.
func ReadTable(r io.Reader, source string, labels []string) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, &TableError{Source: source, Missing: []string{"lnL"}}
	}
	if err != nil {
		return nil, &TableError{Source: source, Err: err}
	}

	cols := make(map[string]int)
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, seen := cols[key]; !seen {
			cols[key] = i
		}
	}

	_, hasGene := cols[colGene]
	_, hasModel := cols[colModel]
	_, hasFolder := cols[colFolder]
	_, hasLnL := cols[colLnL]
	byFolder := !(hasGene && hasModel)

	var missing []string
	if byFolder && !hasFolder {
		missing = append(missing, "Folder")
	}
	if !hasLnL {
		missing = append(missing, "lnL")
	}
	if len(missing) > 0 {
		return nil, &TableError{Source: source, Missing: missing}
	}

	table := NewTable()
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, &TableError{Source: source, Err: err}
		}

		raw := field(rec, cols[colLnL])
		lnl, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(lnl) || math.IsInf(lnl, 0) {
			logger.Debug("Skipping row without a usable lnL",
				zap.String("source", source), zap.Int("line", line), zap.String("lnL", raw))
			continue
		}

		var run ModelRun
		if byFolder {
			folder := field(rec, cols[colFolder])
			gene, model, ok := SplitFolder(folder, labels)
			if !ok {
				logger.Debug("Skipping folder with no known model suffix",
					zap.String("source", source), zap.String("folder", folder))
				continue
			}
			run = ModelRun{Gene: gene, Model: model, LnL: lnl}
		} else {
			run = ModelRun{Gene: field(rec, cols[colGene]), Model: field(rec, cols[colModel]), LnL: lnl}
			if run.Gene == "" || run.Model == "" {
				continue
			}
		}

		if !table.Add(run) {
			logger.Debug("Ignoring repeated model run",
				zap.String("gene", run.Gene), zap.String("model", run.Model))
		}
	}
	return table, nil
}

// ReadTableFile is ReadTable on a file path.
func ReadTableFile(path string, labels []string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &TableError{Source: path, Err: err}
	}
	defer f.Close()
	return ReadTable(f, path, labels)
}

// WriteTable writes runs as a Gene,Model,lnL CSV.
func WriteTable(w io.Writer, runs []ModelRun) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Gene", "Model", "lnL"}); err != nil {
		return err
	}
	for _, r := range runs {
		if err := cw.Write([]string{r.Gene, r.Model, strconv.FormatFloat(r.LnL, 'f', -1, 64)}); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("write table: %w", err)
	}
	return nil
}

func field(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}
