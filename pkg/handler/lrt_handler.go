package handler

import (
	"bytes"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/yumyai/selscan/pkg/db"
	"github.com/yumyai/selscan/pkg/handler/params"
	"github.com/yumyai/selscan/pkg/handler/request"
	"github.com/yumyai/selscan/pkg/middle"
	"github.com/yumyai/selscan/pkg/selection"
)

// LRTHandler reads a likelihood CSV body and tests every requested comparison.
func (app *AppContext) LRTHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	cmps, err := params.Comparisons(q, app.comparisons())
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	source := params.Source(q, "upload.csv")

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, app.maxBody()))
	if err != nil {
		writeError(w, r, bodyStatus(err), err)
		return
	}

	labels := append(append([]string(nil), app.labels()...), selection.Labels(cmps)...)
	table, err := selection.ReadTable(bytes.NewReader(body), source, labels)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	sets, err := selection.CompareAll(table, cmps)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	resp := request.LRTResponse{Source: source, Genes: table.Len(), Comparisons: sets}
	if app.Store != nil {
		run := db.NewRun(db.KindLRT, source)
		if err := app.Store.SaveLRT(r.Context(), run, sets); err != nil {
			writeError(w, r, http.StatusInternalServerError, err)
			return
		}
		resp.RunID = run.ID
	}

	middle.LoggerFrom(r.Context()).Info("LRT finished",
		zap.String("source", source),
		zap.Int("genes", resp.Genes),
		zap.Int("comparisons", len(sets)),
		zap.String("run_id", resp.RunID),
	)
	writeJSON(w, r, http.StatusOK, resp)
}
