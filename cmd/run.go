package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rafaelpirescs/X-Web-Scraping/internal/api"
	"github.com/rafaelpirescs/X-Web-Scraping/internal/classifier"
	"github.com/rafaelpirescs/X-Web-Scraping/internal/clock/system"
	"github.com/rafaelpirescs/X-Web-Scraping/internal/collector"
	"github.com/rafaelpirescs/X-Web-Scraping/internal/config"
	"github.com/rafaelpirescs/X-Web-Scraping/internal/discovery"
	"github.com/rafaelpirescs/X-Web-Scraping/internal/downloader"
	"github.com/rafaelpirescs/X-Web-Scraping/internal/ffprobe"
	"github.com/rafaelpirescs/X-Web-Scraping/internal/ledger"
	"github.com/rafaelpirescs/X-Web-Scraping/internal/logging"
	"github.com/rafaelpirescs/X-Web-Scraping/internal/preflight"
	"github.com/rafaelpirescs/X-Web-Scraping/internal/services/tesseract"
	"github.com/rafaelpirescs/X-Web-Scraping/internal/services/whisper"
	"github.com/rafaelpirescs/X-Web-Scraping/internal/sink"
)

// newRunCmd creates the 'run' subcommand, which drives the collection
// loop until interrupted (or for a single cycle with --once).
func newRunCmd() *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Starts the collection loop",
		Long: `Runs discovery cycles against the configured mirror: each cycle
searches every term, processes newly discovered posts through media
enrichment, and commits complete records to the output directory.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCollector(cmd.Context(), once)
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "run a single cycle and exit")
	return cmd
}

func runCollector(parent context.Context, once bool) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := preflight.Check([]preflight.Tool{
		{Name: "ffprobe", Binary: cfg.Tools.FFprobe},
		{Name: "tesseract", Binary: cfg.Tools.Tesseract},
		{Name: "whisper", Binary: cfg.Tools.Whisper},
		{Name: "yt-dlp", Binary: cfg.Tools.YTDLP},
	}); err != nil {
		return err
	}

	terms, err := config.LoadSearchTerms(cfg.Discovery.SearchTermsFile)
	if err != nil {
		return err
	}
	logger.Info("search terms loaded", zap.Int("count", len(terms)))

	ldgr, err := openLedger(ctx, cfg.Ledger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := ldgr.Close(); cerr != nil {
			logger.Warn("ledger close failed", zap.Error(cerr))
		}
	}()

	snk, err := sink.NewJSONSink(cfg.Collector.OutputDir, logger.Named("sink"))
	if err != nil {
		return fmt.Errorf("init sink: %w", err)
	}

	renderer, err := discovery.NewChromedpRenderer(discovery.RendererConfig{
		UserAgent:   cfg.Discovery.UserAgent,
		PageTimeout: cfg.PageTimeout(),
	}, logger.Named("renderer"))
	if err != nil {
		return fmt.Errorf("init renderer: %w", err)
	}
	defer func() {
		if cerr := renderer.Close(context.Background()); cerr != nil {
			logger.Warn("renderer close failed", zap.Error(cerr))
		}
	}()

	var filter *discovery.LanguageFilter
	if cfg.Discovery.FilterLang != "" {
		filter, err = discovery.NewLanguageFilter(cfg.Discovery.FilterLang, cfg.Discovery.FilterConfidence)
		if err != nil {
			return fmt.Errorf("init language filter: %w", err)
		}
	}

	searcher := discovery.NewSearcher(discovery.SearcherConfig{
		InstanceURL: cfg.Discovery.InstanceURL,
		SearchLang:  cfg.Discovery.SearchLang,
		MaxResults:  cfg.Discovery.MaxResultsPerTerm,
		MirrorQPS:   cfg.Discovery.MirrorQPS,
	}, renderer, filter, logger.Named("discovery"))

	images := downloader.NewImageDownloader(downloader.ImageConfig{
		Timeout: cfg.FetchTimeout(),
	}, logger.Named("images"))
	videos := downloader.NewVideoDownloader(cfg.Tools.YTDLP, logger.Named("videos"))
	gate := collector.NewFetchGate(
		downloader.New(images, videos, logger.Named("downloader")),
		collector.FetchGateConfig{
			MaxAttempts: cfg.Fetch.MaxAttempts,
			BaseDelay:   cfg.BackoffInitial(),
			MaxDelay:    cfg.BackoffMax(),
			Timeout:     cfg.FetchTimeout(),
		},
		logger.Named("fetch"),
	)

	clk := system.New()
	processor := collector.NewProcessor(
		gate,
		classifier.New(ffprobe.NewInspector(cfg.Tools.FFprobe), logger.Named("classifier")),
		tesseract.New(cfg.Tools.Tesseract, cfg.Tools.OCRLanguages),
		whisper.New(whisper.Config{
			Binary:   cfg.Tools.Whisper,
			Model:    cfg.Tools.WhisperModel,
			Language: cfg.Tools.WhisperLang,
		}),
		snk,
		collector.NewPseudonymizer(cfg.Privacy.Salt),
		clk,
		collector.ProcessorConfig{
			WorkDir:       cfg.Collector.WorkDir,
			EnrichTimeout: cfg.EnrichTimeout(),
			KeepMedia:     cfg.Collector.KeepMedia,
		},
		logger.Named("processor"),
	)

	coordinator := collector.NewCoordinator(
		searcher,
		processor,
		ldgr,
		terms,
		collector.Identity{UserAgent: cfg.Discovery.UserAgent},
		clk,
		logger.Named("coordinator"),
	)

	var srv *http.Server
	if cfg.Server.Enabled {
		srv = &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           api.NewServer(statusSource{coordinator}, logger.Named("api")).Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("http server started", zap.Int("port", cfg.Server.Port))
			if serveErr := srv.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
				logger.Error("http server error", zap.Error(serveErr))
				stop()
			}
		}()
	}

	runErr := cycleLoop(ctx, coordinator, cfg.CycleInterval(), once, logger)

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if serr := srv.Shutdown(shutdownCtx); serr != nil {
			logger.Error("server shutdown error", zap.Error(serr))
		}
	}
	logger.Info("shutdown complete")
	return runErr
}

func cycleLoop(ctx context.Context, coordinator *collector.Coordinator, interval time.Duration, once bool, logger *zap.Logger) error {
	for {
		report, err := coordinator.RunCycle(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("run cycle %s: %w", report.CycleID, err)
		}
		if once {
			return nil
		}

		logger.Debug("sleeping until next cycle", zap.Duration("interval", interval))
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(interval):
		}
	}
}

func openLedger(ctx context.Context, cfg config.LedgerConfig) (collector.Ledger, error) {
	switch cfg.Driver {
	case "file":
		l, err := ledger.OpenFile(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("open file ledger: %w", err)
		}
		return l, nil
	default:
		l, err := ledger.OpenSQLite(ctx, cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite ledger: %w", err)
		}
		return l, nil
	}
}

// statusSource adapts coordinator stats to the API status payload.
type statusSource struct {
	coordinator *collector.Coordinator
}

func (s statusSource) Status() api.Status {
	stats := s.coordinator.Stats()
	status := api.Status{
		Running:        true,
		CyclesRun:      stats.CyclesRun,
		LastCycleID:    stats.LastCycleID,
		TotalCommitted: stats.TotalCommitted,
		TotalDiscarded: stats.TotalDiscarded,
		Terms:          stats.Terms,
	}
	if !stats.LastCycleAt.IsZero() {
		at := stats.LastCycleAt
		status.LastCycleAt = &at
	}
	return status
}
