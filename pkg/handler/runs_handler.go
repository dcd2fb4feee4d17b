package handler

import (
	"errors"
	"net/http"

	"github.com/yumyai/selscan/pkg/db"
	"github.com/yumyai/selscan/pkg/handler/request"
)

var errNoStore = errors.New("result store is not configured")

func (app *AppContext) ListRunsHandler(w http.ResponseWriter, r *http.Request) {
	if app.Store == nil {
		writeError(w, r, http.StatusServiceUnavailable, errNoStore)
		return
	}
	runs, err := app.Store.ListRuns(r.Context())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	if runs == nil {
		runs = []db.Run{}
	}
	writeJSON(w, r, http.StatusOK, request.RunsResponse{Runs: runs})
}

func (app *AppContext) GetRunHandler(w http.ResponseWriter, r *http.Request) {
	if app.Store == nil {
		writeError(w, r, http.StatusServiceUnavailable, errNoStore)
		return
	}
	ctx := r.Context()
	run, err := app.Store.GetRun(ctx, r.PathValue("run_id"))
	if errors.Is(err, db.ErrRunNotFound) {
		writeError(w, r, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err)
		return
	}

	resp := request.RunResponse{Run: run}
	switch run.Kind {
	case db.KindQC:
		ledger, err := app.Store.Discards(ctx, run.ID)
		if err != nil {
			writeError(w, r, http.StatusInternalServerError, err)
			return
		}
		resp.Ledger = ledger.Map()
	case db.KindLRT:
		sets, err := app.Store.ComparisonSets(ctx, run.ID)
		if err != nil {
			writeError(w, r, http.StatusInternalServerError, err)
			return
		}
		resp.Comparisons = sets
	}
	writeJSON(w, r, http.StatusOK, resp)
}
