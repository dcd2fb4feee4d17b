package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/yumyai/selscan/logger"
	"github.com/yumyai/selscan/pkg/codeml"
	"github.com/yumyai/selscan/pkg/handler/request"
	"github.com/yumyai/selscan/pkg/middle"
	"github.com/yumyai/selscan/pkg/render"
)

const fitRefreshSeconds = 5

var errNoFitter = errors.New("codeml is not configured")

// SubmitFitHandler queues a codeml fit of every requested model for one gene.
func (app *AppContext) SubmitFitHandler(w http.ResponseWriter, r *http.Request) {
	if app.Fitter == nil || app.FitJobs == nil {
		writeError(w, r, http.StatusServiceUnavailable, errNoFitter)
		return
	}

	var req request.FitRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, app.maxBody())).Decode(&req); err != nil {
		writeError(w, r, bodyStatus(err), fmt.Errorf("invalid request body: %w", err))
		return
	}
	req.Gene = strings.TrimSpace(req.Gene)
	if req.Gene == "" || strings.TrimSpace(req.Alignment) == "" || strings.TrimSpace(req.Tree) == "" {
		writeError(w, r, http.StatusBadRequest, errors.New("gene, alignment and tree are required"))
		return
	}

	models := app.FitModels
	if len(req.Models) > 0 {
		var err error
		if models, err = codeml.ParseModels(req.Models); err != nil {
			writeError(w, r, http.StatusBadRequest, err)
			return
		}
	}
	if len(models) == 0 {
		models = codeml.DefaultFitModels()
	}

	dir, err := os.MkdirTemp(app.FitWorkDir, "fit-*")
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	alignment := filepath.Join(dir, "alignment.phy")
	tree := filepath.Join(dir, "tree.nwk")
	if err := writeInputs(alignment, req.Alignment, tree, req.Tree); err != nil {
		os.RemoveAll(dir)
		writeError(w, r, http.StatusInternalServerError, err)
		return
	}

	names := make([]string, len(models))
	for i, m := range models {
		names[i] = m.Name
	}
	job := app.FitJobs.NewJob(req.Gene, names)
	keep := app.FitWorkDir != ""

	app.FitJobs.Go(job.ID, func(ctx context.Context) {
		if !keep {
			defer os.RemoveAll(dir)
		}
		runs, err := codeml.FitAll(ctx, app.Fitter, req.Gene, alignment, tree, dir, models)
		app.FitJobs.CompleteJob(job.ID, runs, err)
		logger.Info("Fit job finished",
			zap.String("job_id", job.ID),
			zap.String("gene", req.Gene),
			zap.Int("fitted", len(runs)),
			zap.Int("requested", len(models)),
		)
	})

	middle.LoggerFrom(r.Context()).Info("Fit job queued", zap.String("job_id", job.ID), zap.String("gene", job.Gene))
	writeJSON(w, r, http.StatusAccepted, request.FitAccepted{JobID: job.ID, Status: string(FitJobRunning)})
}

func writeInputs(alignmentPath, alignment, treePath, tree string) error {
	if err := os.WriteFile(alignmentPath, []byte(alignment), 0o644); err != nil {
		return err
	}
	return os.WriteFile(treePath, []byte(tree), 0o644)
}

// GetFitHandler reports a fit job as JSON, or as an HTML page that refreshes
// until the job is done.
func (app *AppContext) GetFitHandler(w http.ResponseWriter, r *http.Request) {
	if app.FitJobs == nil {
		writeError(w, r, http.StatusServiceUnavailable, errNoFitter)
		return
	}
	jobID := r.PathValue("job_id")
	job, ok := app.FitJobs.GetJob(jobID)
	if !ok {
		writeError(w, r, http.StatusNotFound, fmt.Errorf("fit job %s not found", jobID))
		return
	}

	if wantsHTML(r) {
		pending := job.Status == FitJobQueued || job.Status == FitJobRunning
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		err := render.RenderFitPage(w, render.FitPageData{
			JobID:                  job.ID,
			Gene:                   job.Gene,
			Models:                 job.Models,
			Status:                 string(job.Status),
			Runs:                   job.Runs,
			ErrorMessage:           job.Error,
			ShouldRefresh:          pending,
			RefreshIntervalSeconds: fitRefreshSeconds,
		})
		if err != nil {
			middle.LoggerFrom(r.Context()).Error("Render fit page", zap.Error(err))
		}
		return
	}
	writeJSON(w, r, http.StatusOK, job)
}

func wantsHTML(r *http.Request) bool {
	if r.URL.Query().Get("format") == "html" {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}
