package handlers

import (
	"log/slog"
	"net/http"
)

// ReloadHandler handles requests to replace the page with a freshly loaded one.
type ReloadHandler struct {
	logger   *slog.Logger
	reloader Reloader
}

// NewReloadHandler creates a new ReloadHandler.
func NewReloadHandler(logger *slog.Logger, reloader Reloader) *ReloadHandler {
	return &ReloadHandler{
		logger:   logger,
		reloader: reloader,
	}
}

// ServeHTTP implements http.Handler.
func (h *ReloadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.logger.Info("reloading page")

	if err := h.reloader.Reload(r.Context()); err != nil {
		h.logger.Error("failed to reload page", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to reload page: "+err.Error())
		return
	}

	h.logger.Info("page reloaded successfully")
	w.WriteHeader(http.StatusNoContent)
}
