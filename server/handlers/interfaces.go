// Package handlers provides HTTP handlers for the signupboard server.
//
// Each handler is in its own file and implements http.Handler.
// Handlers use interfaces to access server dependencies, avoiding
// circular imports.
package handlers

import (
	"context"
	"net/http"

	"github.com/nomis52/signupboard/config"
	"github.com/nomis52/signupboard/page"
	"github.com/nomis52/signupboard/server/types"
	"github.com/nomis52/signupboard/signup"
)

// ConfigProvider provides access to the current configuration.
type ConfigProvider interface {
	Config() *config.Config
}

// Reloader discards the current pages so they are loaded afresh.
type Reloader interface {
	Reload(ctx context.Context) error
}

// Session is one visitor's page lifetime.
type Session interface {
	Page() *page.Page
	// Submit enters email and activity into the page form and dispatches a submit event to the
	// page's submitter. Submissions on one session run one at a time. It reports whether
	// activity matched an option.
	Submit(ctx context.Context, email, activity string, ev signup.SubmitEvent) bool
}

// SessionProvider resolves the session of a request, creating one when the request names none.
// It may set a cookie on w, so it is called before anything is written.
type SessionProvider interface {
	Session(w http.ResponseWriter, r *http.Request) (Session, error)
}

// PropertiesProvider provides metadata about the running server.
type PropertiesProvider interface {
	Properties() types.ServerProperties
}
