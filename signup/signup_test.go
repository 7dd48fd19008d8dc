package signup

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nomis52/signupboard/apiclient"
	"github.com/nomis52/signupboard/catalog"
	"github.com/nomis52/signupboard/loader"
	"github.com/nomis52/signupboard/metrics"
	"github.com/nomis52/signupboard/page"
	"github.com/nomis52/signupboard/status"
)

type fakeEvent struct {
	prevented bool
}

func (e *fakeEvent) PreventDefault() { e.prevented = true }

type signerFunc func(ctx context.Context, activity, email string) (apiclient.Reply, error)

func (f signerFunc) Signup(ctx context.Context, activity, email string) (apiclient.Reply, error) {
	return f(ctx, activity, email)
}

// loadedPage returns a page with the Chess Club and Gym Class options rendered.
func loadedPage(t *testing.T) *page.Page {
	t.Helper()
	p, err := page.NewDefault()
	require.NoError(t, err)
	loader.New(loader.SourceFunc(func(context.Context) (catalog.Catalog, error) {
		return catalog.Catalog{
			{Name: "Chess Club", Activity: catalog.Activity{MaxParticipants: 12, Participants: []string{}}},
			{Name: "Gym Class", Activity: catalog.Activity{MaxParticipants: 30, Participants: []string{}}},
		}, nil
	})).Load(context.Background(), p)
	return p
}

func TestOnSubmit_PreventsDefaultBeforeSubmitting(t *testing.T) {
	p := loadedPage(t)
	require.True(t, p.Fill("a@x.com", "Chess Club"))

	ev := &fakeEvent{}
	var gotActivity, gotEmail string
	signer := signerFunc(func(_ context.Context, activity, email string) (apiclient.Reply, error) {
		assert.True(t, ev.prevented, "default action must be prevented before the request")
		gotActivity, gotEmail = activity, email
		return apiclient.Reply{StatusCode: http.StatusOK, Message: "ok"}, nil
	})

	line := status.New(p)
	defer line.Stop()
	New(signer, p, line).OnSubmit(context.Background(), ev)

	assert.True(t, ev.prevented)
	assert.Equal(t, "Chess Club", gotActivity)
	assert.Equal(t, "a@x.com", gotEmail)
}

func TestOnSubmit_EmptyFormIsSent(t *testing.T) {
	p := loadedPage(t)
	called := false
	signer := signerFunc(func(_ context.Context, activity, email string) (apiclient.Reply, error) {
		called = true
		assert.Empty(t, activity)
		assert.Empty(t, email)
		return apiclient.Reply{StatusCode: http.StatusUnprocessableEntity}, nil
	})

	line := status.New(p)
	defer line.Stop()
	New(signer, p, line).OnSubmit(context.Background(), &fakeEvent{})

	assert.True(t, called)
	assert.Equal(t, status.Message{Text: FallbackErrorText, Kind: status.Error, Visible: true}, line.Current())
}

func TestSubmit_Outcomes(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage status.Message
		wantReset   bool
		wantConsole bool
	}{
		{
			name:        "success",
			status:      http.StatusOK,
			body:        `{"message": "Signed up a@x.com for Chess Club"}`,
			wantMessage: status.Message{Text: "Signed up a@x.com for Chess Club", Kind: status.Success, Visible: true},
			wantReset:   true,
		},
		{
			name:        "rejected with detail",
			status:      http.StatusBadRequest,
			body:        `{"detail": "Student is already signed up"}`,
			wantMessage: status.Message{Text: "Student is already signed up", Kind: status.Error, Visible: true},
		},
		{
			name:        "rejected without detail",
			status:      http.StatusInternalServerError,
			body:        `{}`,
			wantMessage: status.Message{Text: FallbackErrorText, Kind: status.Error, Visible: true},
		},
		{
			name:        "unparseable body",
			status:      http.StatusOK,
			body:        `<html>proxy error</html>`,
			wantMessage: status.Message{Text: FailureText, Kind: status.Error, Visible: true},
			wantConsole: true,
		},
		{
			name:        "null body",
			status:      http.StatusOK,
			body:        `null`,
			wantMessage: status.Message{Text: FailureText, Kind: status.Error, Visible: true},
			wantConsole: true,
		},
		{
			name:        "string body on success",
			status:      http.StatusOK,
			body:        `"ok"`,
			wantMessage: status.Message{Text: "", Kind: status.Success, Visible: true},
			wantReset:   true,
		},
		{
			name:        "array body on failure",
			status:      http.StatusBadRequest,
			body:        `[]`,
			wantMessage: status.Message{Text: FallbackErrorText, Kind: status.Error, Visible: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/activities/Chess%20Club/signup", r.URL.EscapedPath())
				assert.Equal(t, "a@x.com", r.URL.Query().Get("email"))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer ts.Close()

			client, err := apiclient.New(ts.URL)
			require.NoError(t, err)

			p := loadedPage(t)
			require.True(t, p.Fill("a@x.com", "Chess Club"))
			line := status.New(p)
			defer line.Stop()

			New(client, p, line).OnSubmit(context.Background(), &fakeEvent{})

			assert.Equal(t, tt.wantMessage, line.Current())

			email, activity := p.FormValues()
			if tt.wantReset {
				assert.Empty(t, email)
				assert.Empty(t, activity)
			} else {
				assert.Equal(t, "a@x.com", email)
				assert.Equal(t, "Chess Club", activity)
			}

			if tt.wantConsole {
				assert.Len(t, p.Console().Errors(), 1)
			} else {
				assert.Empty(t, p.Console().Errors())
			}
		})
	}
}

func TestSubmit_TransportFailure(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	client, err := apiclient.New(url)
	require.NoError(t, err)

	p := loadedPage(t)
	line := status.New(p)
	defer line.Stop()

	New(client, p, line).Submit(context.Background(), Request{Activity: "Chess Club", Email: "a@x.com"})

	assert.Equal(t, status.Message{Text: FailureText, Kind: status.Error, Visible: true}, line.Current())
	errs := p.Console().Errors()
	require.Len(t, errs, 1)
	assert.Equal(t, "Error signing up", errs[0].Message)
}

func TestSubmit_HidesAfterDelay(t *testing.T) {
	p := loadedPage(t)
	line := status.New(p, status.WithDelay(30*time.Millisecond))
	defer line.Stop()

	signer := signerFunc(func(context.Context, string, string) (apiclient.Reply, error) {
		return apiclient.Reply{}, errors.New("network down")
	})
	New(signer, p, line).Submit(context.Background(), Request{Activity: "Chess Club", Email: "a@x.com"})

	require.True(t, line.Current().Visible)
	assert.Eventually(t, func() bool { return !line.Current().Visible }, time.Second, 5*time.Millisecond)
	// Hiding keeps text and kind.
	assert.Equal(t, FailureText, line.Current().Text)
	assert.Equal(t, status.Error, line.Current().Kind)
}

func TestSubmit_ConcurrentSubmissionsLeaveOneMessage(t *testing.T) {
	p := loadedPage(t)
	line := status.New(p)
	defer line.Stop()

	signer := signerFunc(func(_ context.Context, activity, _ string) (apiclient.Reply, error) {
		return apiclient.Reply{StatusCode: http.StatusOK, Message: "Signed up for " + activity}, nil
	})
	s := New(signer, p, line)

	var wg sync.WaitGroup
	for _, name := range []string{"Chess Club", "Gym Class"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Submit(context.Background(), Request{Activity: name, Email: "a@x.com"})
		}()
	}
	wg.Wait()

	msg := line.Current()
	assert.True(t, msg.Visible)
	assert.Contains(t, []string{"Signed up for Chess Club", "Signed up for Gym Class"}, msg.Text)
}

func TestSubmit_Metrics(t *testing.T) {
	registry, err := metrics.NewScrapeRegistry()
	require.NoError(t, err)
	board, err := metrics.NewBoard(registry, "test")
	require.NoError(t, err)

	replies := []apiclient.Reply{
		{StatusCode: http.StatusOK, Message: "ok"},
		{StatusCode: http.StatusBadRequest, Detail: "full"},
	}
	var calls int
	signer := signerFunc(func(context.Context, string, string) (apiclient.Reply, error) {
		defer func() { calls++ }()
		if calls < len(replies) {
			return replies[calls], nil
		}
		return apiclient.Reply{}, errors.New("down")
	})

	p := loadedPage(t)
	line := status.New(p)
	defer line.Stop()
	s := New(signer, p, line, WithMetrics(board))
	for i := 0; i < 3; i++ {
		s.Submit(context.Background(), Request{Activity: "Chess Club", Email: "a@x.com"})
	}

	w := httptest.NewRecorder()
	registry.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := w.Body.String()
	assert.Contains(t, body, `test_signups_total{action="signup",outcome="success"} 1`)
	assert.Contains(t, body, `test_signups_total{action="signup",outcome="rejected"} 1`)
	assert.Contains(t, body, `test_signups_total{action="signup",outcome="failed"} 1`)
}
