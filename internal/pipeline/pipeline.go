package pipeline

import (
	"context"
	"encoding/json"

	"mangaworker/config"
	"mangaworker/internal/scraper"
	"mangaworker/logger"
	pkgerrors "mangaworker/pkg/errors"
	"mangaworker/services/cache"
	"mangaworker/services/publisher"
	"mangaworker/services/sink"
	"mangaworker/services/store"
	"mangaworker/services/validator"
)

// runLockKey names the cross-process run lock.
const runLockKey = "mangaworker:run"

// Deps are the collaborators of one run. Renderer defaults to the remote
// chrome service from config; everything else is optional and skipped when
// nil.
type Deps struct {
	Renderer  scraper.Renderer
	Lock      cache.LockService
	Publisher publisher.Publisher
	Store     *store.Store
	Metrics   *scraper.Metrics
}

// RunResult summarizes one full pipeline run. Created once at the end of
// the run and read-only afterward.
type RunResult struct {
	RecordCount  int                          `json:"record_count"`
	ArtifactPath string                       `json:"artifact_path"`
	Passed       bool                         `json:"passed"`
	Collections  []validator.CollectionReport `json:"collections"`
}

// Run executes one discover, crawl, persist, validate sequence and is the
// sole entry point the workflow calls. Fatal conditions (renderer
// acquisition, discovery) return an error; per-item failures are absorbed
// inside the crawl. The rendering session is released on every exit path.
func Run(ctx context.Context, cfg *config.Config, deps Deps) (*RunResult, error) {
	log := logger.ForPipeline()
	log.Info().Str("listing", cfg.ListingURL).Int("target", cfg.TargetCount).Msg("Starting pipeline run")

	if deps.Lock != nil {
		acquired, err := deps.Lock.Acquire(runLockKey, cfg.RunLockTTL)
		if err != nil {
			// A broken lock service should not block the crawl itself.
			log.Warn().Err(err).Msg("Run lock unavailable, continuing without exclusivity")
		} else if !acquired {
			return nil, pkgerrors.NewConfiguration("another run already holds the run lock", nil)
		} else {
			defer func() {
				if err := deps.Lock.Release(runLockKey); err != nil {
					log.Warn().Err(err).Msg("Failed to release run lock")
				}
			}()
		}
	}

	renderer := deps.Renderer
	if renderer == nil {
		chrome, err := scraper.NewChromeRenderer(cfg.ChromeAddr)
		if err != nil {
			return nil, err
		}
		renderer = chrome
	}
	defer func() {
		if err := renderer.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close rendering session")
		}
	}()

	candidates, target, err := collectCandidates(ctx, cfg, renderer, deps.Metrics)
	if err != nil {
		return nil, err
	}

	orchestrator := scraper.NewOrchestrator(renderer, deps.Metrics, scraper.CrawlConfig{
		Target:        target,
		PageSettle:    cfg.PageSettle,
		DelayMin:      cfg.DelayMin,
		DelayMax:      cfg.DelayMax,
		ProgressEvery: cfg.ProgressEvery,
	})
	records := orchestrator.Crawl(ctx, candidates)

	if err := sink.Persist(records, cfg.OutputPath); err != nil {
		return nil, err
	}

	publishRecords(log, deps.Publisher, records)

	collections := []validator.CollectionReport{
		validator.ValidateArtifact(cfg.OutputPath, cfg.MinRecords),
	}
	if deps.Store != nil {
		if _, err := deps.Store.Load(records); err != nil {
			log.Warn().Err(err).Msg("Store load failed; store counts will reflect it")
		}
		storeReports, err := validator.ValidateStore(deps.Store, cfg.MinRecords)
		if err != nil {
			log.Warn().Err(err).Msg("Store validation failed")
		} else {
			collections = append(collections, storeReports...)
		}
	}

	report := validator.NewReport(collections...)

	result := &RunResult{
		RecordCount:  len(records),
		ArtifactPath: cfg.OutputPath,
		Passed:       report.Passed,
		Collections:  report.Collections,
	}

	log.Info().
		Int("records", result.RecordCount).
		Str("artifact", result.ArtifactPath).
		Bool("passed", result.Passed).
		Msg("Pipeline run complete")

	return result, nil
}

// collectCandidates produces the crawl candidate list. A configured single
// URL collapses the run into the bulk pipeline with cap and target of one.
func collectCandidates(ctx context.Context, cfg *config.Config, renderer scraper.Renderer, metrics *scraper.Metrics) ([]string, int, error) {
	if cfg.SingleURL != "" {
		return []string{cfg.SingleURL}, 1, nil
	}

	discoverer := scraper.NewDiscoverer(renderer, metrics, scraper.DiscoverConfig{
		ListingURL:    cfg.ListingURL,
		Cap:           cfg.CandidateCap,
		ListingSettle: cfg.ListingSettle,
		ScrollCycles:  cfg.ScrollCycles,
		ScrollStepPx:  cfg.ScrollStepPx,
		ScrollSettle:  cfg.ScrollSettle,
		ReadyTimeout:  cfg.ReadyTimeout,
	})

	candidates, err := discoverer.Discover(ctx)
	if err != nil {
		return nil, 0, err
	}
	if len(candidates) == 0 {
		return nil, 0, pkgerrors.NewDiscovery("collect", "no anchors matched the catalog pattern", nil)
	}
	return candidates, cfg.TargetCount, nil
}

// publishRecords streams each record to downstream consumers. Publishing is
// best effort: failures are logged, never fatal, because the artifact file
// remains the contract of record.
func publishRecords(log *logger.Logger, pub publisher.Publisher, records []scraper.Record) {
	if pub == nil || len(records) == 0 {
		return
	}

	published := 0
	for _, record := range records {
		data, err := json.Marshal(record)
		if err != nil {
			log.Warn().Str("url", record.SourceURL).Err(err).Msg("Failed to marshal record for publishing")
			continue
		}
		if err := pub.Publish("manga", data); err != nil {
			log.Warn().Str("url", record.SourceURL).Err(err).Msg("Failed to publish record")
			continue
		}
		published++
	}

	if err := pub.TrimStreams(); err != nil {
		log.Warn().Err(err).Msg("Failed to trim streams")
	}

	log.Info().Int("published", published).Int("of", len(records)).Msg("Records published")
}
