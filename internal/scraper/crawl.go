package scraper

import (
	"context"
	"math/rand"
	"time"

	"mangaworker/helpers"
	"mangaworker/logger"
	pkgerrors "mangaworker/pkg/errors"
)

// diagnosticLimit caps per-item error messages in logs.
const diagnosticLimit = 100

// CrawlConfig controls one crawl pass over discovered candidates.
type CrawlConfig struct {
	Target        int
	PageSettle    time.Duration
	DelayMin      time.Duration
	DelayMax      time.Duration
	ProgressEvery int
}

// Orchestrator iterates candidates sequentially, extracting one record per
// detail page. One broken page never aborts the pass; the randomized
// inter-item delay is the sole backpressure mechanism and applies after
// every attempt, failed or not.
type Orchestrator struct {
	renderer Renderer
	metrics  *Metrics
	log      *logger.Logger
	cfg      CrawlConfig

	// sleep is swappable so tests can count delays instead of waiting.
	sleep func(time.Duration)
	now   func() time.Time
}

// NewOrchestrator creates a crawl orchestrator over the given renderer.
func NewOrchestrator(renderer Renderer, metrics *Metrics, cfg CrawlConfig) *Orchestrator {
	return &Orchestrator{
		renderer: renderer,
		metrics:  metrics,
		log:      logger.ForCrawler(),
		cfg:      cfg,
		sleep:    time.Sleep,
		now:      time.Now,
	}
}

// Crawl processes candidates in discovery order and stops once Target
// records are collected, even if candidates remain. Output order is the
// order of successful extractions.
func (o *Orchestrator) Crawl(ctx context.Context, candidates []string) []Record {
	records := make([]Record, 0, o.cfg.Target)
	attempted := 0

	for _, candidate := range candidates {
		if len(records) >= o.cfg.Target {
			break
		}
		if ctx.Err() != nil {
			o.log.Warn().Int("collected", len(records)).Msg("Crawl interrupted")
			break
		}

		attempted++

		record, err := o.scrapeOne(ctx, candidate)
		if err != nil {
			o.metrics.IncItemError(pkgerrors.TypeLabel(err))
			o.log.Warn().
				Str("url", candidate).
				Str("error", helpers.Truncate(err.Error(), diagnosticLimit)).
				Msg("Skipping item")
		} else {
			records = append(records, *record)
			o.metrics.IncRecord()
			o.log.Debug().
				Str("title", helpers.Truncate(record.Title, 30)).
				Str("rating", record.Rating).
				Msg("Record collected")
		}

		if o.cfg.ProgressEvery > 0 && attempted%o.cfg.ProgressEvery == 0 {
			o.log.Info().
				Int("attempted", attempted).
				Int("of", len(candidates)).
				Int("collected", len(records)).
				Msg("Crawl progress")
		}

		o.delay()
	}

	o.log.Info().Int("attempted", attempted).Int("collected", len(records)).Msg("Crawl pass complete")
	return records
}

// scrapeOne renders one detail page and assembles its record.
func (o *Orchestrator) scrapeOne(ctx context.Context, candidate string) (*Record, error) {
	start := o.now()
	snap, err := o.renderer.Render(ctx, Request{
		URL:    candidate,
		Settle: o.cfg.PageSettle,
	})
	o.metrics.ObserveRender(time.Since(start))
	if err != nil {
		return nil, pkgerrors.NewRender("detail", "page render failed", err)
	}
	o.metrics.IncPageRendered("detail")

	fields := ExtractFields(snap)
	if fields.Title == "" {
		// A page without even a title is an error page, not a degraded
		// record worth keeping.
		return nil, pkgerrors.NewExtract("detail", "no title found on page", nil)
	}
	record := Assemble(fields, candidate, o.now())
	return &record, nil
}

// delay pauses for a uniform random interval within the configured window.
func (o *Orchestrator) delay() {
	d := o.cfg.DelayMin
	if window := o.cfg.DelayMax - o.cfg.DelayMin; window > 0 {
		d += time.Duration(rand.Int63n(int64(window)))
	}
	o.sleep(d)
}
