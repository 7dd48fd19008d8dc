// Package page holds the host page document the loader and submitter render into.
//
// A Page is the Go counterpart of a browser document: it is created when the page loads, owns
// its DOM tree and its diagnostic console, and is discarded on reload. The tree is shared by the
// loader, the submitter, the status line's hide timer and HTTP handlers that render it, so every
// access goes through Update or View, which serialize on the page mutex. Nothing blocks while
// holding it.
package page

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/net/html"

	"github.com/nomis52/signupboard/dom"
	"github.com/nomis52/signupboard/logging"
)

// Element ids the page binds to. Host markup must define all of them.
const (
	ActivitiesListID = "activities-list"
	ActivitySelectID = "activity"
	SignupFormID     = "signup-form"
	MessageID        = "message"
	EmailID          = "email"
	CardTemplateID   = "activity-card-template"
)

var requiredIDs = []string{
	ActivitiesListID,
	ActivitySelectID,
	SignupFormID,
	MessageID,
	EmailID,
	CardTemplateID,
}

// ErrMissingElement is returned when host markup lacks one of the bound element ids.
var ErrMissingElement = errors.New("missing page element")

//go:embed static/index.html
var defaultMarkup []byte

// DefaultMarkup returns a copy of the embedded host page.
func DefaultMarkup() []byte {
	return bytes.Clone(defaultMarkup)
}

// Elements are the bound nodes of a page. They are only valid inside Update or View.
type Elements struct {
	List         *html.Node
	Select       *html.Node
	Form         *html.Node
	Message      *html.Node
	Email        *html.Node
	CardTemplate *html.Node
}

// Page is a parsed host document plus its console.
type Page struct {
	id      string
	logger  *slog.Logger
	console *logging.Console

	mu       sync.Mutex
	doc      *html.Node
	els      Elements
	defaults *dom.FormDefaults
}

// Option configures a Page.
type Option func(*Page)

// WithLogger sets the process logger the page console forwards to.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Page) {
		p.logger = logger
	}
}

// WithConsole replaces the page console.
func WithConsole(c *logging.Console) Option {
	return func(p *Page) {
		p.console = c
	}
}

// New parses markup and binds the page elements.
func New(markup io.Reader, opts ...Option) (*Page, error) {
	doc, err := dom.Parse(markup)
	if err != nil {
		return nil, fmt.Errorf("parsing page markup: %w", err)
	}

	els, err := bind(doc)
	if err != nil {
		return nil, err
	}

	p := &Page{
		id:       uuid.NewString(),
		logger:   logging.Discard(),
		console:  logging.NewConsole(logging.DefaultConsoleSize),
		doc:      doc,
		els:      els,
		defaults: dom.CaptureDefaults(els.Form),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = logging.NewConsoleLogger(p.logger, p.console, p.id)
	return p, nil
}

// NewDefault creates a page from the embedded host markup.
func NewDefault(opts ...Option) (*Page, error) {
	return New(bytes.NewReader(defaultMarkup), opts...)
}

func bind(doc *html.Node) (Elements, error) {
	var missing []error
	lookup := func(id string) *html.Node {
		n := dom.ByID(doc, id)
		if n == nil {
			missing = append(missing, fmt.Errorf("%w: #%s", ErrMissingElement, id))
		}
		return n
	}

	els := Elements{
		List:         lookup(ActivitiesListID),
		Select:       lookup(ActivitySelectID),
		Form:         lookup(SignupFormID),
		Message:      lookup(MessageID),
		Email:        lookup(EmailID),
		CardTemplate: lookup(CardTemplateID),
	}
	if len(missing) > 0 {
		return Elements{}, errors.Join(missing...)
	}
	return els, nil
}

// ID is the unique id of this page instance.
func (p *Page) ID() string {
	return p.id
}

// Logger returns the page's diagnostic logger. Everything logged here lands in the console and
// is forwarded to the process logger.
func (p *Page) Logger() *slog.Logger {
	return p.logger
}

// Console returns the page's diagnostic console.
func (p *Page) Console() *logging.Console {
	return p.console
}

// Update runs fn with exclusive access to the page elements.
func (p *Page) Update(fn func(Elements) error) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return fn(p.els)
}

// View runs fn with exclusive access to the page elements, for reads.
func (p *Page) View(fn func(Elements)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(p.els)
}

// Render writes the full document.
func (p *Page) Render(w io.Writer) error {
	var buf bytes.Buffer
	p.mu.Lock()
	err := dom.Render(&buf, p.doc)
	p.mu.Unlock()
	if err != nil {
		return fmt.Errorf("rendering page: %w", err)
	}
	_, err = buf.WriteTo(w)
	return err
}

// Fill enters form values the way a user would: it types email into the email field and picks
// activity in the selection control. It reports whether the activity matched an option; when it
// does not, the control falls back to its placeholder.
func (p *Page) Fill(email, activity string) bool {
	var matched bool
	_ = p.Update(func(els Elements) error {
		dom.SetValue(els.Email, email)
		matched = dom.SetValue(els.Select, activity)
		return nil
	})
	return matched
}

// FormValues returns the current email and activity field values.
func (p *Page) FormValues() (email, activity string) {
	p.View(func(els Elements) {
		email = dom.Value(els.Email)
		activity = dom.Value(els.Select)
	})
	return email, activity
}

// ResetForm returns the signup form controls to the defaults they had when the page was created.
func (p *Page) ResetForm() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.defaults.Restore()
}
