// Package status implements the transient status message that reports the outcome of the most
// recent signup attempt.
//
// The message has two states, Hidden and Visible, with Visible carrying a kind (success or
// error). Show enters Visible, even when already Visible, and arms a hide timer for HideDelay.
// The Line owns a single timer slot: each Show stops the pending timer and bumps a token, and a
// timer that fires anyway (because it was already running when stopped) hides nothing unless its
// token is still current. A stale timer therefore never hides a newer message.
package status

import (
	"sync"
	"time"

	"github.com/nomis52/signupboard/dom"
	"github.com/nomis52/signupboard/page"
)

// HideDelay is how long a message stays visible.
const HideDelay = 5000 * time.Millisecond

const hiddenClass = "hidden"

// Kind is the styling of a message.
type Kind string

// Message kinds, which double as the CSS class of the message element.
const (
	Success Kind = "success"
	Error   Kind = "error"
)

// Message is a snapshot of the status message.
type Message struct {
	Text    string
	Kind    Kind
	Visible bool
}

// Line renders status messages into a page's message element.
type Line struct {
	page  *page.Page
	delay time.Duration

	mu    sync.Mutex
	token uint64
	timer *time.Timer
}

// Option configures a Line.
type Option func(*Line)

// WithDelay overrides HideDelay.
func WithDelay(d time.Duration) Option {
	return func(l *Line) {
		l.delay = d
	}
}

// New creates a Line bound to p.
func New(p *page.Page, opts ...Option) *Line {
	l := &Line{page: p, delay: HideDelay}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Show renders text with the given kind, makes the message visible and schedules it to hide
// after the line's delay, replacing any pending hide.
func (l *Line) Show(text string, kind Kind) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.token++
	token := l.token
	if l.timer != nil {
		l.timer.Stop()
	}

	_ = l.page.Update(func(els page.Elements) error {
		dom.SetTextContent(els.Message, text)
		dom.SetClassName(els.Message, string(kind))
		return nil
	})

	l.timer = time.AfterFunc(l.delay, func() { l.hide(token) })
}

func (l *Line) hide(token uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if token != l.token {
		return
	}
	l.timer = nil
	_ = l.page.Update(func(els page.Elements) error {
		dom.AddClass(els.Message, hiddenClass)
		return nil
	})
}

// Stop cancels a pending hide. The message keeps its current state.
func (l *Line) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.token++
	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
	}
}

// Current reads the message state from the page.
func (l *Line) Current() Message {
	return Read(l.page)
}

// Read reads the message state of p.
func Read(p *page.Page) Message {
	var m Message
	p.View(func(els page.Elements) {
		m.Text = dom.TextContent(els.Message)
		m.Visible = !dom.HasClass(els.Message, hiddenClass)
		switch {
		case dom.HasClass(els.Message, string(Success)):
			m.Kind = Success
		case dom.HasClass(els.Message, string(Error)):
			m.Kind = Error
		}
	})
	return m
}
