package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nomis52/signupboard/buildinfo"
	"github.com/nomis52/signupboard/dom"
	"github.com/nomis52/signupboard/logging"
	"github.com/nomis52/signupboard/page"
	"github.com/nomis52/signupboard/server/types"
	"github.com/nomis52/signupboard/signup"
)

type mockSession struct {
	page     *page.Page
	prevent  bool
	email    string
	activity string
	calls    int
}

func (m *mockSession) Page() *page.Page { return m.page }

func (m *mockSession) Submit(_ context.Context, email, activity string, ev signup.SubmitEvent) bool {
	m.calls++
	matched := m.page.Fill(email, activity)
	if m.prevent {
		ev.PreventDefault()
	}
	m.email, m.activity = m.page.FormValues()
	return matched
}

type mockSessionProvider struct {
	session *mockSession
	err     error
}

func (m *mockSessionProvider) Session(http.ResponseWriter, *http.Request) (Session, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.session, nil
}

func newProvider(t *testing.T, prevent bool) *mockSessionProvider {
	t.Helper()
	p, err := page.NewDefault()
	require.NoError(t, err)
	require.NoError(t, p.Update(func(els page.Elements) error {
		els.Select.AppendChild(dom.NewOption("Chess Club", "Chess Club"))
		return nil
	}))
	return &mockSessionProvider{session: &mockSession{page: p, prevent: prevent}}
}

func TestPageHandler(t *testing.T) {
	provider := newProvider(t, true)
	handler := NewPageHandler(logging.Discard(), provider)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), `<div id="activities-list">`)
	assert.Contains(t, w.Body.String(), `<option value="Chess Club">Chess Club</option>`)
}

func postForm(values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/signup", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestSignupHandler(t *testing.T) {
	tests := []struct {
		name         string
		prevent      bool
		form         url.Values
		wantCode     int
		wantEmail    string
		wantActivity string
	}{
		{
			name:         "prevented submit redirects to the page",
			prevent:      true,
			form:         url.Values{"email": {"a b@x.com"}, "activity": {"Chess Club"}},
			wantCode:     http.StatusSeeOther,
			wantEmail:    "a b@x.com",
			wantActivity: "Chess Club",
		},
		{
			name:      "unknown activity falls back to the placeholder",
			prevent:   true,
			form:      url.Values{"email": {"a@x.com"}, "activity": {"Knitting"}},
			wantCode:  http.StatusSeeOther,
			wantEmail: "a@x.com",
		},
		{
			name:         "default action not prevented",
			form:         url.Values{"email": {"a@x.com"}, "activity": {"Chess Club"}},
			wantCode:     http.StatusNoContent,
			wantEmail:    "a@x.com",
			wantActivity: "Chess Club",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := newProvider(t, tt.prevent)
			handler := NewSignupHandler(provider.session.page.Logger(), provider)

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, postForm(tt.form))

			assert.Equal(t, tt.wantCode, w.Code)
			if tt.wantCode == http.StatusSeeOther {
				assert.Equal(t, "/", w.Header().Get("Location"))
			}
			assert.Equal(t, 1, provider.session.calls)
			assert.Equal(t, tt.wantEmail, provider.session.email)
			assert.Equal(t, tt.wantActivity, provider.session.activity)
		})
	}
}

func TestConsoleHandler(t *testing.T) {
	provider := newProvider(t, true)
	provider.session.page.Logger().Info("activities loaded", "count", 1)
	provider.session.page.Logger().Error("Error signing up", "error", "connection refused")
	handler := NewConsoleHandler(provider)

	tests := []struct {
		query     string
		wantCode  int
		wantCount int
	}{
		{query: "", wantCode: http.StatusOK, wantCount: 2},
		{query: "?level=error", wantCode: http.StatusOK, wantCount: 1},
		{query: "?level=trace", wantCode: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/console"+tt.query, nil))

			require.Equal(t, tt.wantCode, w.Code)
			if tt.wantCode != http.StatusOK {
				return
			}
			var resp ConsoleResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			assert.Equal(t, provider.session.page.ID(), resp.PageID)
			assert.Len(t, resp.Entries, tt.wantCount)
		})
	}
}

func TestHandlers_SessionError(t *testing.T) {
	provider := &mockSessionProvider{err: errors.New("creating page: boom")}
	tests := []struct {
		name    string
		handler http.Handler
		req     *http.Request
	}{
		{name: "page", handler: NewPageHandler(logging.Discard(), provider), req: httptest.NewRequest(http.MethodGet, "/", nil)},
		{name: "signup", handler: NewSignupHandler(logging.Discard(), provider), req: postForm(url.Values{"email": {"a@x.com"}})},
		{name: "console", handler: NewConsoleHandler(provider), req: httptest.NewRequest(http.MethodGet, "/console", nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.handler.ServeHTTP(w, tt.req)
			assert.Equal(t, http.StatusInternalServerError, w.Code)
		})
	}
}

func TestConsoleHandler_Empty(t *testing.T) {
	handler := NewConsoleHandler(newProvider(t, true))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/console?level=error", nil))

	assert.Contains(t, w.Body.String(), `"entries":[]`)
}

type mockProperties struct {
	props types.ServerProperties
}

func (m mockProperties) Properties() types.ServerProperties { return m.props }

func TestVersionHandler(t *testing.T) {
	started := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	handler := NewVersionHandler(mockProperties{props: types.ServerProperties{
		Build:     buildinfo.Get(),
		StartedAt: started,
		Hostname:  "board-1",
		Sessions:  3,
	}})

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/version", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	var resp types.ServerProperties
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "board-1", resp.Hostname)
	assert.Equal(t, 3, resp.Sessions)
	assert.True(t, started.Equal(resp.StartedAt))
	assert.NotEmpty(t, resp.Build.GitCommit)
	assert.Nil(t, resp.NextReload)
}
