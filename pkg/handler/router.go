package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/yumyai/selscan/pkg/middle"
)

func NewRouter(app *AppContext) *http.ServeMux {
	mux := http.NewServeMux()

	// Error route
	mux.HandleFunc("GET /favicon.ico", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Not Found", http.StatusNotFound)
	})

	mux.HandleFunc("GET /api/v1/health", app.HealthCheck)

	mux.HandleFunc("POST /api/v1/qc", app.QCHandler)
	mux.HandleFunc("POST /api/v1/lrt", app.LRTHandler)

	mux.HandleFunc("GET /api/v1/runs", app.ListRunsHandler)
	mux.HandleFunc("GET /api/v1/runs/{run_id}", app.GetRunHandler)

	mux.HandleFunc("POST /api/v1/fit", app.SubmitFitHandler)
	mux.HandleFunc("GET /api/v1/fit/{job_id}", app.GetFitHandler)

	return mux
}

// NewServer wraps the router with request id and logging middleware.
func NewServer(app *AppContext, log *zap.Logger) http.Handler {
	return middle.Chain(NewRouter(app),
		middle.RequestIDMiddleware(log),
		middle.LoggingMiddleware(log),
	)
}
