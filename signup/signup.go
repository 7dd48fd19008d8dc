// Package signup turns submissions of the page's signup form into signup requests and reports
// the outcome on the page's status line.
package signup

import (
	"context"

	"github.com/nomis52/signupboard/apiclient"
	"github.com/nomis52/signupboard/metrics"
	"github.com/nomis52/signupboard/page"
	"github.com/nomis52/signupboard/status"
)

// Messages shown when the API gives nothing better.
const (
	FallbackErrorText = "An error occurred"
	FailureText       = "Failed to sign up. Please try again."
)

const action = "signup"

// Request is a signup built from the form at submission time.
type Request struct {
	Activity string
	Email    string
}

// Signer submits signups. *apiclient.Client implements it.
type Signer interface {
	Signup(ctx context.Context, activity, email string) (apiclient.Reply, error)
}

// SubmitEvent is a form submission. PreventDefault stops whatever the host would have done with
// the submission, such as navigating away.
type SubmitEvent interface {
	PreventDefault()
}

// Submitter handles submit events for one page.
type Submitter struct {
	signer  Signer
	page    *page.Page
	status  *status.Line
	metrics *metrics.Board
}

// Option configures a Submitter.
type Option func(*Submitter)

// WithMetrics records submission outcomes on b.
func WithMetrics(b *metrics.Board) Option {
	return func(s *Submitter) {
		s.metrics = b
	}
}

// New creates a Submitter for p that reports on line.
func New(signer Signer, p *page.Page, line *status.Line, opts ...Option) *Submitter {
	s := &Submitter{signer: signer, page: p, status: line}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnSubmit handles a submission of the signup form. The event's default action is always
// prevented before the form is read.
func (s *Submitter) OnSubmit(ctx context.Context, ev SubmitEvent) {
	ev.PreventDefault()
	email, activity := s.page.FormValues()
	s.Submit(ctx, Request{Activity: activity, Email: email})
}

// Submit sends req and shows the outcome. Values are sent as given: an empty email or activity
// is for the API to reject.
//
// An accepted signup shows the API's message and resets the form. A rejection shows the API's
// detail and keeps the form as entered. A request that did not complete shows FailureText and
// logs the cause to the page console.
func (s *Submitter) Submit(ctx context.Context, req Request) {
	reply, err := s.signer.Signup(ctx, req.Activity, req.Email)
	if err != nil {
		s.page.Logger().Error("Error signing up", "error", err, "activity", req.Activity)
		s.status.Show(FailureText, status.Error)
		s.metrics.Submission(action, metrics.OutcomeFailed)
		return
	}

	if !reply.OK() {
		detail := reply.Detail
		if detail == "" {
			detail = FallbackErrorText
		}
		s.status.Show(detail, status.Error)
		s.metrics.Submission(action, metrics.OutcomeRejected)
		return
	}

	s.status.Show(reply.Message, status.Success)
	s.page.ResetForm()
	s.metrics.Submission(action, metrics.OutcomeSuccess)
}
