package scraper

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	lru "github.com/hashicorp/golang-lru/v2"

	"mangaworker/logger"
	pkgerrors "mangaworker/pkg/errors"
)

// DiscoverConfig controls one listing discovery pass.
type DiscoverConfig struct {
	ListingURL    string
	Cap           int
	ListingSettle time.Duration
	ScrollCycles  int
	ScrollStepPx  int
	ScrollSettle  time.Duration
	ReadyTimeout  time.Duration
}

// Discoverer renders the catalog listing and collects candidate detail-page
// URLs. Discovery failures are fatal: without candidates nothing downstream
// can run.
type Discoverer struct {
	renderer Renderer
	metrics  *Metrics
	log      *logger.Logger
	cfg      DiscoverConfig
}

// NewDiscoverer creates a discoverer over the given renderer.
func NewDiscoverer(renderer Renderer, metrics *Metrics, cfg DiscoverConfig) *Discoverer {
	return &Discoverer{
		renderer: renderer,
		metrics:  metrics,
		log:      logger.ForDiscoverer(),
		cfg:      cfg,
	}
}

// Discover returns up to Cap candidate URLs in first-seen order, each unique
// within the pass. The listing is scrolled a fixed number of cycles to
// trigger lazy loading, then the pass waits for at least one catalog link
// before enumerating anchors.
func (d *Discoverer) Discover(ctx context.Context) ([]string, error) {
	d.log.Info().Str("url", d.cfg.ListingURL).Int("cap", d.cfg.Cap).Msg("Discovering candidates")

	start := time.Now()
	snap, err := d.renderer.Render(ctx, Request{
		URL:          d.cfg.ListingURL,
		Settle:       d.cfg.ListingSettle,
		ScrollCycles: d.cfg.ScrollCycles,
		ScrollStepPx: d.cfg.ScrollStepPx,
		ScrollSettle: d.cfg.ScrollSettle,
		WaitSelector: `a[href*="` + LinkMarker + `"]`,
		WaitTimeout:  d.cfg.ReadyTimeout,
	})
	d.metrics.ObserveRender(time.Since(start))
	if err != nil {
		if errors.Is(err, ErrWaitTimeout) {
			return nil, pkgerrors.NewDiscovery("readiness", "no catalog links appeared before the wait deadline", err)
		}
		return nil, pkgerrors.NewDiscovery("render", "listing render failed", err)
	}
	d.metrics.IncPageRendered("listing")

	doc, err := snap.Doc()
	if err != nil {
		return nil, pkgerrors.NewDiscovery("parse", "listing HTML is unparseable", err)
	}

	base, err := url.Parse(snap.URL)
	if err != nil {
		return nil, pkgerrors.NewDiscovery("parse", "listing URL is invalid", err)
	}

	seen, err := lru.New[string, struct{}](maxInt(d.cfg.Cap*2, 16))
	if err != nil {
		return nil, pkgerrors.NewDiscovery("dedup", "failed to create dedup set", err)
	}

	var candidates []string
	doc.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, ok := a.Attr("href")
		if !ok || href == "" {
			return true
		}

		ref, err := url.Parse(href)
		if err != nil {
			return true
		}
		abs := base.ResolveReference(ref).String()

		if !strings.Contains(abs, LinkMarker) || !strings.Contains(abs, DetailSuffix) {
			return true
		}
		if seen.Contains(abs) {
			return true
		}
		seen.Add(abs, struct{}{})

		candidates = append(candidates, abs)
		return len(candidates) < d.cfg.Cap
	})

	d.metrics.SetCandidates(len(candidates))
	d.log.Info().Int("candidates", len(candidates)).Msg("Discovery pass complete")

	return candidates, nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
