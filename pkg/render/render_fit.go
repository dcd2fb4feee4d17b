package render

import (
	"html/template"
	"io"

	"go.uber.org/zap"

	"github.com/yumyai/selscan/logger"
	"github.com/yumyai/selscan/pkg/selection"
)

var fit_page_template *template.Template

// FitPageData describes the state of a codeml fit job for rendering.
type FitPageData struct {
	JobID                  string
	Gene                   string
	Models                 []string
	Status                 string
	Runs                   []selection.ModelRun
	ErrorMessage           string
	ShouldRefresh          bool
	RefreshIntervalSeconds int
}

func init() {
	mainTmpl := `<!DOCTYPE html>
<html>
<head>
	<title>selscan fit {{ .JobID }}</title>
	{{ if .ShouldRefresh }}
	<script>
		setTimeout(function () { window.location.reload(); }, {{ mul .RefreshIntervalSeconds 1000 }});
	</script>
	{{ end }}
</head>
<body>
	<h1>codeml fit</h1>
	<p><strong>Job ID:</strong> {{ .JobID }}</p>
	<p><strong>Gene:</strong> {{ .Gene }}</p>
	<p><strong>Models:</strong> {{ range $i, $m := .Models }}{{ if $i }}, {{ end }}{{ $m }}{{ end }}</p>
	<p><strong>Status:</strong> {{ .Status }}</p>
	{{ if .ErrorMessage }}
	<p style="color: red;">{{ .ErrorMessage }}</p>
	{{ end }}
	{{ if .Runs }}
	<table>
		<tr><th>Model</th><th>lnL</th></tr>
		{{ range .Runs }}<tr><td>{{ .Model }}</td><td>{{ .LnL }}</td></tr>
		{{ end }}
	</table>
	{{ else if .ShouldRefresh }}
	<p>The fit is still running. This page refreshes every {{ .RefreshIntervalSeconds }} seconds.</p>
	{{ end }}
</body>
</html>`

	fit_page_template = template.New("fit_page").Funcs(template.FuncMap{
		"mul": func(a, b int) int { return a * b },
	})
	fit_page_template = template.Must(fit_page_template.Parse(mainTmpl))
}

// RenderFitPage writes an HTML status page for a fit job.
func RenderFitPage(w io.Writer, data FitPageData) error {
	logger.Info("Rendering fit page", zap.String("job_id", data.JobID), zap.String("status", data.Status))
	return fit_page_template.Execute(w, data)
}
