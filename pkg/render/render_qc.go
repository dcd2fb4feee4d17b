package render

import (
	"io"
	"strings"
	"text/template"

	"go.uber.org/zap"

	"github.com/yumyai/selscan/logger"
	"github.com/yumyai/selscan/pkg/seqqc"
)

var qc_summary_template *template.Template

// QCSummaryData is one input file's filter outcome.
type QCSummaryData struct {
	Source    string
	Raw       int
	Passed    int
	Discarded int
	Reasons   []ReasonCount
}

type ReasonCount struct {
	Reason seqqc.Reason
	Count  int
}

func init() {
	summaryTmpl := `File: {{ .Source }}
Total sequences: {{ .Raw }}
{{ range .Reasons }} - {{ label .Reason }} discarded: {{ .Count }}
{{ end }}Total discarded: {{ .Discarded }}
Final sequences: {{ .Passed }}
`
	qc_summary_template = template.New("qc_summary").Funcs(template.FuncMap{
		"label": reasonLabel,
	})
	qc_summary_template = template.Must(qc_summary_template.Parse(summaryTmpl))
}

// "not_divisible_by_3" -> "Not divisible by 3"
func reasonLabel(r seqqc.Reason) string {
	s := strings.ReplaceAll(string(r), "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// NewQCSummaryData lists every reason in reporting order, zero counts included.
func NewQCSummaryData(source string, raw, passed int, ledger seqqc.Ledger) QCSummaryData {
	data := QCSummaryData{Source: source, Raw: raw, Passed: passed, Discarded: ledger.Total()}
	for _, r := range seqqc.Reasons {
		data.Reasons = append(data.Reasons, ReasonCount{Reason: r, Count: ledger.Count(r)})
	}
	return data
}

// QCSummary writes a plain text per-reason report.
func QCSummary(w io.Writer, source string, raw, passed int, ledger seqqc.Ledger) error {
	logger.Debug("Rendering QC summary", zap.String("source", source))
	return qc_summary_template.Execute(w, NewQCSummaryData(source, raw, passed, ledger))
}
