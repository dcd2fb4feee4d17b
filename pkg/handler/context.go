package handler

// DI for all handlers alike.

import (
	"github.com/yumyai/selscan/pkg/codeml"
	"github.com/yumyai/selscan/pkg/db"
	"github.com/yumyai/selscan/pkg/selection"
	"github.com/yumyai/selscan/pkg/seqqc"
)

// DefaultMaxBodyBytes caps uploaded FASTA and CSV bodies.
const DefaultMaxBodyBytes = 64 << 20

type AppContext struct {
	// Store is optional; without it runs are not persisted and /runs is unavailable.
	Store *db.Store
	// Options are the QC defaults that query parameters override.
	Options     seqqc.Options
	Comparisons []selection.Comparison
	Labels      []string
	// Fitter is optional; without it /fit is unavailable.
	Fitter       codeml.Fitter
	FitModels    []codeml.ModelSpec
	FitWorkDir   string
	FitJobs      *FitJobManager
	MaxBodyBytes int64
}

func (app *AppContext) maxBody() int64 {
	if app.MaxBodyBytes > 0 {
		return app.MaxBodyBytes
	}
	return DefaultMaxBodyBytes
}

func (app *AppContext) comparisons() []selection.Comparison {
	if len(app.Comparisons) > 0 {
		return app.Comparisons
	}
	return selection.DefaultComparisons()
}

func (app *AppContext) labels() []string {
	if len(app.Labels) > 0 {
		return app.Labels
	}
	return selection.DefaultLabels
}
