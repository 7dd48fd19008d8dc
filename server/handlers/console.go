package handlers

import (
	"net/http"

	"github.com/nomis52/signupboard/logging"
)

// ConsoleResponse lists the console entries of the visitor's page.
type ConsoleResponse struct {
	PageID  string          `json:"page_id"`
	Entries []logging.Entry `json:"entries"`
}

// ConsoleHandler serves the diagnostic console of the visitor's page.
type ConsoleHandler struct {
	provider SessionProvider
}

// NewConsoleHandler creates a new ConsoleHandler.
func NewConsoleHandler(provider SessionProvider) *ConsoleHandler {
	return &ConsoleHandler{provider: provider}
}

// ServeHTTP implements http.Handler. ?level=error limits the response to errors.
func (h *ConsoleHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sess, err := h.provider.Session(w, r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	p := sess.Page()

	var entries []logging.Entry
	switch level := r.URL.Query().Get("level"); level {
	case "":
		entries = p.Console().Entries()
	case "error":
		entries = p.Console().Errors()
	default:
		writeError(w, http.StatusBadRequest, "unsupported level: "+level)
		return
	}
	if entries == nil {
		entries = []logging.Entry{}
	}

	writeJSON(w, http.StatusOK, ConsoleResponse{PageID: p.ID(), Entries: entries})
}
