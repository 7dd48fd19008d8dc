package server

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nomis52/signupboard/page"
	"github.com/nomis52/signupboard/server/handlers"
	"github.com/nomis52/signupboard/signup"
	"github.com/nomis52/signupboard/status"
)

const (
	sessionCookie      = "signupboard_session"
	defaultMaxSessions = 1000
)

// session is one visitor's page lifetime: the page plus the components bound to it.
type session struct {
	id         string
	generation uint64
	page       *page.Page
	status     *status.Line
	submitter  *signup.Submitter

	// submitMu holds a post's fill and submit together so the request sent is the one posted.
	submitMu sync.Mutex

	// lastSeen is guarded by Server.sessionsMu.
	lastSeen time.Time
}

// Page implements handlers.Session.
func (s *session) Page() *page.Page {
	return s.page
}

// Submit implements handlers.Session.
func (s *session) Submit(ctx context.Context, email, activity string, ev signup.SubmitEvent) bool {
	s.submitMu.Lock()
	defer s.submitMu.Unlock()

	matched := s.page.Fill(email, activity)
	s.submitter.OnSubmit(ctx, ev)
	return matched
}

// Session returns the visitor session named by the request cookie. A request without a known
// session gets a new page, loaded with the catalog before it is returned, and a cookie naming it.
func (s *Server) Session(w http.ResponseWriter, r *http.Request) (handlers.Session, error) {
	if c, err := r.Cookie(sessionCookie); err == nil {
		if sess := s.lookupSession(c.Value); sess != nil {
			return sess, nil
		}
	}

	sess, err := s.newSession(r.Context())
	if err != nil {
		return nil, err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sess.id,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.certs != nil,
		SameSite: http.SameSiteLaxMode,
	})
	return sess, nil
}

func (s *Server) lookupSession(id string) *session {
	if _, err := uuid.Parse(id); err != nil {
		return nil
	}
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()

	sess := s.sessions[id]
	if sess != nil {
		sess.lastSeen = time.Now()
	}
	return sess
}

// newSession creates and loads a page. The session is kept only if no reload happened while it
// was loading and the load was not cancelled; otherwise it serves this one request.
func (s *Server) newSession(ctx context.Context) (*session, error) {
	s.sessionsMu.Lock()
	generation := s.generation
	s.sessionsMu.Unlock()

	p, err := page.New(bytes.NewReader(s.markup), page.WithLogger(s.logger))
	if err != nil {
		return nil, fmt.Errorf("creating page: %w", err)
	}
	s.loader.Load(ctx, p)

	line := status.New(p, status.WithDelay(s.statusDelay))
	sess := &session{
		id:         uuid.NewString(),
		generation: generation,
		page:       p,
		status:     line,
		submitter:  signup.New(s.api, p, line, signup.WithMetrics(s.board)),
		lastSeen:   time.Now(),
	}

	var evicted *session
	s.sessionsMu.Lock()
	if generation == s.generation && ctx.Err() == nil {
		if len(s.sessions) >= s.maxSessions {
			evicted = s.oldestSessionLocked()
			delete(s.sessions, evicted.id)
		}
		s.sessions[sess.id] = sess
	}
	count := len(s.sessions)
	s.sessionsMu.Unlock()

	if evicted != nil {
		evicted.status.Stop()
		s.logger.Debug("session evicted", "page", evicted.page.ID())
	}
	s.logger.Info("page ready",
		"page", p.ID(),
		"console_errors", len(p.Console().Errors()),
		"sessions", count,
	)
	return sess, nil
}

func (s *Server) oldestSessionLocked() *session {
	var oldest *session
	for _, sess := range s.sessions {
		if oldest == nil || sess.lastSeen.Before(oldest.lastSeen) {
			oldest = sess
		}
	}
	return oldest
}

// dropSessions forgets every session and stops their status lines.
func (s *Server) dropSessions() int {
	s.sessionsMu.Lock()
	old := s.sessions
	s.sessions = make(map[string]*session)
	s.generation++
	s.reloadedAt = time.Now()
	s.sessionsMu.Unlock()

	for _, sess := range old {
		sess.status.Stop()
	}
	return len(old)
}
