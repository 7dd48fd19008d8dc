// Package loader fetches the activity catalog and renders it into the page: one card per
// activity in the list container and one option per activity in the selection control.
package loader

import (
	"context"
	"fmt"

	"golang.org/x/net/html/atom"

	"github.com/nomis52/signupboard/catalog"
	"github.com/nomis52/signupboard/dom"
	"github.com/nomis52/signupboard/metrics"
	"github.com/nomis52/signupboard/page"
)

// LoadErrorText replaces the list contents when a load fails.
const LoadErrorText = "Failed to load activities. Please try again later."

// PlaceholderLabel is the label of the empty option the selection control always starts with.
const PlaceholderLabel = "-- Select an activity --"

// CatalogSource supplies the catalog. *apiclient.Client implements it.
type CatalogSource interface {
	ListActivities(ctx context.Context) (catalog.Catalog, error)
}

// SourceFunc adapts a function to CatalogSource.
type SourceFunc func(ctx context.Context) (catalog.Catalog, error)

// ListActivities calls f.
func (f SourceFunc) ListActivities(ctx context.Context) (catalog.Catalog, error) {
	return f(ctx)
}

// Loader renders the catalog into pages.
type Loader struct {
	source  CatalogSource
	metrics *metrics.Board
}

// Option configures a Loader.
type Option func(*Loader)

// WithMetrics records load outcomes on b.
func WithMetrics(b *metrics.Board) Option {
	return func(l *Loader) {
		l.metrics = b
	}
}

// New creates a Loader reading from source.
func New(source CatalogSource, opts ...Option) *Loader {
	l := &Loader{source: source}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load fetches the catalog and renders it into p. It never fails: a fetch or render error
// replaces the list with LoadErrorText and goes to the page console. The selection control is
// left as far as rendering got.
func (l *Loader) Load(ctx context.Context, p *page.Page) {
	activities, err := l.source.ListActivities(ctx)
	if err != nil {
		l.fail(p, err)
		return
	}

	if err := p.Update(func(els page.Elements) (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic while rendering catalog: %v", r)
			}
		}()
		return render(els, activities)
	}); err != nil {
		l.fail(p, err)
		return
	}

	p.Logger().Info("activities loaded", "count", len(activities))
	l.metrics.CatalogLoaded(len(activities))
}

func (l *Loader) fail(p *page.Page, err error) {
	_ = p.Update(func(els page.Elements) error {
		dom.RemoveChildren(els.List)
		msg := dom.Element(atom.P)
		msg.AppendChild(dom.Text(LoadErrorText))
		els.List.AppendChild(msg)
		return nil
	})
	p.Logger().Error("Error fetching activities", "error", err)
	l.metrics.CatalogFailed()
}

func render(els page.Elements, activities catalog.Catalog) error {
	dom.RemoveChildren(els.List)
	dom.RemoveChildren(els.Select)
	els.Select.AppendChild(dom.NewOption("", PlaceholderLabel))

	for _, e := range activities {
		nodes, err := RenderCard(els.CardTemplate, e.Name, e.Activity)
		if err != nil {
			return fmt.Errorf("rendering %q: %w", e.Name, err)
		}
		for _, n := range nodes {
			els.List.AppendChild(n)
		}
		els.Select.AppendChild(dom.NewOption(e.Name, e.Name))
	}
	return nil
}
