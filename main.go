package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mangaworker/config"
	"mangaworker/internal/pipeline"
	"mangaworker/internal/scraper"
	"mangaworker/logger"
	pkgerrors "mangaworker/pkg/errors"
	"mangaworker/services/cache"
	"mangaworker/services/publisher"
	"mangaworker/services/store"
	"mangaworker/services/validator"
	"mangaworker/services/workflow"
)

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()
	log := logger.Default

	// Load configuration; validation is the workflow's first gated step
	cfg := config.LoadConfig()

	log.Info().
		Str("environment", cfg.Environment).
		Str("listing", cfg.ListingURL).
		Int("target", cfg.TargetCount).
		Msg("Starting application")

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Warn().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	// Initialize optional services
	services := initializeServices(ctx, cfg)
	defer services.Cleanup()

	metrics := scraper.NewMetrics()
	if cfg.MetricsAddr != "" {
		metricsServer := &http.Server{
			Addr:    cfg.MetricsAddr,
			Handler: promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Warn().Err(err).Msg("Metrics server failed")
			}
		}()
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			metricsServer.Shutdown(shutdownCtx)
		}()
		log.Info().Str("addr", cfg.MetricsAddr).Msg("Metrics endpoint enabled")
	}

	var result *pipeline.RunResult

	wf := workflow.New(
		&workflow.Step{
			Name: "check_environment",
			Run: func(context.Context) error {
				return cfg.Validate()
			},
		},
		&workflow.Step{
			Name: "check_artifacts",
			Run: func(context.Context) error {
				return ensureArtifactDirs(cfg)
			},
		},
		&workflow.Step{
			Name: "run_pipeline",
			Run: func(ctx context.Context) error {
				r, err := pipeline.Run(ctx, cfg, pipeline.Deps{
					Lock:      services.Lock,
					Publisher: services.Publisher,
					Store:     services.Store,
					Metrics:   metrics,
				})
				result = r
				return err
			},
		},
		&workflow.Step{
			Name: "final_check",
			Run: func(context.Context) error {
				return finalCheck(cfg, result)
			},
		},
	)

	if err := wf.Execute(ctx); err != nil {
		log.Fatal().Err(err).Msg("Run failed")
	}

	log.Info().
		Int("records", result.RecordCount).
		Str("artifact", result.ArtifactPath).
		Bool("passed", result.Passed).
		Msg("Run complete")
}

// ensureArtifactDirs verifies the artifact locations are writable before
// the crawl spends minutes rendering pages.
func ensureArtifactDirs(cfg *config.Config) error {
	paths := []string{cfg.OutputPath}
	if cfg.DBPath != "" {
		paths = append(paths, cfg.DBPath)
	}
	for _, path := range paths {
		dir := filepath.Dir(path)
		if dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("artifact directory %s is not writable: %w", dir, err)
		}
	}
	return nil
}

// finalCheck re-reads every persisted collection and gates the run on the
// minimum-count requirement.
func finalCheck(cfg *config.Config, result *pipeline.RunResult) error {
	if result == nil {
		return pkgerrors.NewValidation("final_check", "pipeline produced no result")
	}

	collections := []validator.CollectionReport{
		validator.ValidateArtifact(cfg.OutputPath, cfg.MinRecords),
	}
	if cfg.DBPath != "" {
		storeReports, err := validator.ValidateStorePath(cfg.DBPath, cfg.MinRecords)
		if err != nil {
			return err
		}
		collections = append(collections, storeReports...)
	}

	report := validator.NewReport(collections...)
	if !report.Passed {
		return pkgerrors.NewValidation("final_check",
			fmt.Sprintf("record count requirement not met (min %d)", cfg.MinRecords))
	}
	return nil
}

// Services holds the optional external collaborators
type Services struct {
	Lock      cache.LockService
	Publisher publisher.Publisher
	Store     *store.Store
}

// Cleanup releases all held service connections
func (s *Services) Cleanup() {
	if s.Publisher != nil {
		s.Publisher.Close()
	}
	if s.Store != nil {
		s.Store.Close()
	}
}

// initializeServices wires the services enabled by configuration. Each is
// optional: an empty address or path leaves it nil and the pipeline skips
// it.
func initializeServices(ctx context.Context, cfg *config.Config) *Services {
	log := logger.Default
	services := &Services{}

	if cfg.MemcacheAddr != "" {
		services.Lock = cache.NewMemcacheLock(cfg.MemcacheAddr)
		log.Info().Str("addr", cfg.MemcacheAddr).Msg("Run lock enabled via Memcache")
	}

	if cfg.RedisAddr != "" {
		services.Publisher = publisher.NewRedisPublisher(
			ctx,
			cfg.RedisAddr,
			cfg.RedisDB,
			cfg.RedisStream,
			cfg.RedisStreamCount,
			cfg.RedisStreamMaxLength,
		)
		log.Info().
			Str("addr", cfg.RedisAddr).
			Str("stream", cfg.RedisStream).
			Msg("Record publishing enabled via Redis")
	}

	if cfg.DBPath != "" {
		st, err := store.Open(cfg.DBPath)
		if err != nil {
			log.Warn().Err(err).Str("path", cfg.DBPath).Msg("Store unavailable, continuing without it")
		} else {
			services.Store = st
			log.Info().Str("path", cfg.DBPath).Msg("Downstream store enabled")
		}
	}

	return services
}
