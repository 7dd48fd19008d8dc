package handlers

import (
	"bytes"
	"log/slog"
	"net/http"
)

// PageHandler serves the visitor's page as HTML.
type PageHandler struct {
	logger   *slog.Logger
	provider SessionProvider
}

// NewPageHandler creates a new PageHandler.
func NewPageHandler(logger *slog.Logger, provider SessionProvider) *PageHandler {
	return &PageHandler{
		logger:   logger,
		provider: provider,
	}
}

// ServeHTTP implements http.Handler.
func (h *PageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sess, err := h.provider.Session(w, r)
	if err != nil {
		h.logger.Error("failed to open session", "error", err)
		http.Error(w, "failed to open session", http.StatusInternalServerError)
		return
	}
	p := sess.Page()

	var buf bytes.Buffer
	if err := p.Render(&buf); err != nil {
		h.logger.Error("failed to render page", "error", err, "page", p.ID())
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}
