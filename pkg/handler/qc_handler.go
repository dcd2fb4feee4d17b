package handler

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/yumyai/selscan/pkg/db"
	"github.com/yumyai/selscan/pkg/fasta"
	"github.com/yumyai/selscan/pkg/handler/params"
	"github.com/yumyai/selscan/pkg/handler/request"
	"github.com/yumyai/selscan/pkg/middle"
	"github.com/yumyai/selscan/pkg/seqqc"
)

// bodyStatus maps a body read failure to a status code.
func bodyStatus(err error) int {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

// QCHandler filters a FASTA request body and returns the passed and trimmed sets.
func (app *AppContext) QCHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts, err := params.QCOptions(q, app.Options)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	source := params.Source(q, "upload.fasta")

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, app.maxBody()))
	if err != nil {
		writeError(w, r, bodyStatus(err), err)
		return
	}
	records, err := fasta.Read(bytes.NewReader(body), source)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	filter, err := seqqc.NewFilter(opts)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	res, err := filter.Run(records)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err)
		return
	}

	var passed, trimmed bytes.Buffer
	if err := fasta.WriteDataset(&passed, res.Passed, fasta.DefaultWidth); err != nil {
		writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	if err := fasta.WriteDataset(&trimmed, res.Trimmed, fasta.DefaultWidth); err != nil {
		writeError(w, r, http.StatusInternalServerError, err)
		return
	}

	resp := request.QCResponse{
		Source:       source,
		Options:      opts,
		Raw:          res.Raw,
		Passed:       res.Passed.Len(),
		Ledger:       res.Ledger.Map(),
		PassedFasta:  passed.String(),
		TrimmedFasta: trimmed.String(),
	}
	if res.BoundsApplied {
		b := res.Bounds
		resp.Bounds = &b
	}

	if app.Store != nil {
		run := db.NewRun(db.KindQC, source)
		if err := app.Store.SaveQC(r.Context(), run, res.Raw, res.Passed.Len(), res.Ledger); err != nil {
			writeError(w, r, http.StatusInternalServerError, err)
			return
		}
		resp.RunID = run.ID
	}

	middle.LoggerFrom(r.Context()).Info("QC finished",
		zap.String("source", source),
		zap.Int("raw", resp.Raw),
		zap.Int("passed", resp.Passed),
		zap.String("run_id", resp.RunID),
	)
	writeJSON(w, r, http.StatusOK, resp)
}
