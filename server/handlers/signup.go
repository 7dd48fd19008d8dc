package handlers

import (
	"log/slog"
	"net/http"
)

// formEvent is the submit event of a posted signup form.
type formEvent struct {
	prevented bool
}

// PreventDefault implements signup.SubmitEvent.
func (e *formEvent) PreventDefault() {
	e.prevented = true
}

// SignupHandler turns a posted signup form into a submit event on the visitor's page.
//
// The posted values are entered into the page form first, so the submitter reads what the user
// sent. A prevented event answers with a redirect back to the page, which now shows the outcome.
// Otherwise the post is acknowledged with 204 and the page is left to the client.
type SignupHandler struct {
	logger   *slog.Logger
	provider SessionProvider
}

// NewSignupHandler creates a new SignupHandler.
func NewSignupHandler(logger *slog.Logger, provider SessionProvider) *SignupHandler {
	return &SignupHandler{
		logger:   logger,
		provider: provider,
	}
}

// ServeHTTP implements http.Handler.
func (h *SignupHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form: "+err.Error())
		return
	}

	sess, err := h.provider.Session(w, r)
	if err != nil {
		h.logger.Error("failed to open session", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	email := r.PostForm.Get("email")
	activity := r.PostForm.Get("activity")
	ev := &formEvent{}
	if !sess.Submit(r.Context(), email, activity, ev) && activity != "" {
		h.logger.Warn("posted activity is not offered by the page", "activity", activity, "page", sess.Page().ID())
	}

	if !ev.prevented {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
