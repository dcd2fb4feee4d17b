// Handler for miscellaneous endpoints such as health check

package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/yumyai/selscan/pkg/middle"
)

type HealthResponse struct {
	Health    string    `json:"health"`
	Store     bool      `json:"store"`
	Fitter    bool      `json:"fitter"`
	Timestamp time.Time `json:"timestamp"`
}

func (app *AppContext) HealthCheck(w http.ResponseWriter, r *http.Request) {

	response := HealthResponse{
		Health:    "ok",
		Store:     app.Store != nil,
		Fitter:    app.Fitter != nil,
		Timestamp: time.Now(),
	}

	writeJSON(w, r, http.StatusOK, response)
}

type ErrorResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		middle.LoggerFrom(r.Context()).Error("Encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	log := middle.LoggerFrom(r.Context())
	if status >= http.StatusInternalServerError {
		log.Error("Request failed", zap.Int("status", status), zap.Error(err))
	} else {
		log.Debug("Request rejected", zap.Int("status", status), zap.Error(err))
	}
	writeJSON(w, r, status, ErrorResponse{Status: "error", Error: err.Error()})
}
