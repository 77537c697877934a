package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/retro-admin/dashboard/config"
	"github.com/retro-admin/dashboard/internal/ui"
)

// HealthResponse reports liveness and the selected backend.
type HealthResponse struct {
	Status     string `json:"status"`
	Backend    string `json:"backend"`
	Configured bool   `json:"configured"`
}

// Healthz returns a liveness handler for cfg.
func Healthz(cfg config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, HealthResponse{
			Status:     "ok",
			Backend:    cfg.Backend,
			Configured: cfg.IsConfigured(),
		})
	}
}

// ConfigurationRequired renders the setup instructions for every request.
// It is mounted instead of the dashboard when required settings are absent.
func ConfigurationRequired(cfg config.Config, logger *zap.Logger) http.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	page := ui.ConfigPage(ui.ConfigData{
		Backend:  cfg.Backend,
		Missing:  cfg.Missing(),
		Settings: cfg.RequiredSettings(),
	})
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusServiceUnavailable)
		if err := page.Render(r.Context(), w); err != nil {
			logger.Error("render configuration page", zap.Error(err))
		}
	}
}
