package scraper

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// ErrWaitTimeout is returned when a page's readiness selector never appears
// within the configured wait window.
var ErrWaitTimeout = errors.New("timed out waiting for page readiness")

// Request describes one page render. Scroll and wait settings are zero for
// plain detail pages; the listing sets them to trigger lazy-loaded content.
type Request struct {
	URL          string
	Settle       time.Duration
	ScrollCycles int
	ScrollStepPx int
	ScrollSettle time.Duration
	WaitSelector string
	WaitTimeout  time.Duration
}

// Snapshot is an immutable view of a rendered page: the raw HTML plus a
// lazily built document for element queries. Extractors receive a Snapshot
// instead of touching browser state directly, so they stay testable against
// fixture HTML.
type Snapshot struct {
	URL  string
	HTML string

	doc    *goquery.Document
	docErr error
}

// NewSnapshot wraps rendered HTML for extraction.
func NewSnapshot(url, html string) *Snapshot {
	return &Snapshot{URL: url, HTML: html}
}

// Doc returns the parsed document, building it on first use.
func (s *Snapshot) Doc() (*goquery.Document, error) {
	if s.doc == nil && s.docErr == nil {
		s.doc, s.docErr = goquery.NewDocumentFromReader(strings.NewReader(s.HTML))
	}
	return s.doc, s.docErr
}

// Renderer is the rendering engine capability: navigate, settle, scroll,
// wait for readiness and hand back the rendered HTML. Implementations hold
// exactly one browser session for the duration of a run and must release it
// in Close.
type Renderer interface {
	Render(ctx context.Context, req Request) (*Snapshot, error)
	Close() error
}
