package app

import (
	"context"

	"github.com/tolarian/deckwatch/internal/config"
	"github.com/tolarian/deckwatch/internal/delivery/httpapi"
	"github.com/tolarian/deckwatch/internal/delivery/notify"
	"github.com/tolarian/deckwatch/internal/infra/db"
	"github.com/tolarian/deckwatch/internal/infra/edhtop"
	"github.com/tolarian/deckwatch/internal/infra/log"
	"github.com/tolarian/deckwatch/internal/infra/scryfall"
	"github.com/tolarian/deckwatch/internal/usecase"
	"go.uber.org/zap"
)

type App struct {
	server    *httpapi.Server
	scraper   *usecase.Scraper
	refresher *usecase.PriceRefresher
	logger    *zap.Logger
	cleanupFn func() error
}

type Options struct {
	// Console switches the logger to human-readable output and routes
	// job progress to stdout, for manual CLI invocations.
	Console  bool
	Progress usecase.ProgressReporter
}

func New(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	logger, err := log.NewLogger(cfg.LogLevel, opts.Console)
	if err != nil {
		return nil, err
	}

	dbConn, err := db.Open(cfg, logger)
	if err != nil {
		return nil, err
	}

	commanderRepo := db.NewCommanderRepository(dbConn)
	priceRepo := db.NewCardPriceRepository(dbConn)
	alertRepo := db.NewPriceAlertRepository(dbConn)
	executionRepo := db.NewScrapeExecutionRepository(dbConn)
	collectionRepo := db.NewCollectionRepository(dbConn)

	rankingClient := edhtop.NewClient(cfg.EdhtopBaseURL, cfg.EdhtopTimeout, logger)
	pricingClient := scryfall.NewClient(cfg.ScryfallBaseURL, cfg.ScryfallTimeout, cfg.ScryfallRPS, logger)

	var notifier usecase.AlertNotifier
	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != 0 {
		telegramNotifier, err := notify.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID, logger)
		if err != nil {
			return nil, err
		}
		notifier = telegramNotifier
	}

	progress := opts.Progress
	if progress == nil {
		progress = usecase.NopReporter()
	}

	tracker := usecase.NewRunTracker(executionRepo, logger)
	scraper := usecase.NewScraper(commanderRepo, rankingClient, tracker, usecase.ScraperConfig{
		MaxRetries: cfg.ScrapeMaxRetries,
		BaseDelay:  cfg.RetryBaseDelay,
		MaxDelay:   cfg.RetryMaxDelay,
	}, logger, progress)

	alertEngine := usecase.NewAlertEngine(alertRepo, cfg.PriceAlertThreshold, notifier, logger)
	refresher := usecase.NewPriceRefresher(priceRepo, collectionRepo, pricingClient, alertEngine, usecase.RefresherConfig{
		BatchSize:  cfg.PriceBatchSize,
		BatchDelay: cfg.PriceBatchDelay,
		MaxRetries: cfg.PriceMaxRetries,
		BaseDelay:  cfg.RetryBaseDelay,
		MaxDelay:   cfg.RetryMaxDelay,
	}, logger, progress)

	handlers := httpapi.NewHandlers(commanderRepo, priceRepo, alertEngine, cfg.PriceHistoryPageSize, logger)
	server := httpapi.NewServer(cfg.HTTPAddr, handlers, logger)

	cleanup := func() error {
		sqlDB, err := dbConn.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}

	return &App{
		server:    server,
		scraper:   scraper,
		refresher: refresher,
		logger:    logger,
		cleanupFn: cleanup,
	}, nil
}

// Run serves the read API until the context ends.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("deckwatch service starting")
	return a.server.Start(ctx)
}

// ScrapeCommanders runs one synchronous scrape of the top n commanders.
func (a *App) ScrapeCommanders(ctx context.Context, n int) (usecase.RunSummary, error) {
	return a.scraper.ScrapeTopCommanders(ctx, n)
}

// RefreshPrices runs one synchronous price refresh. An empty cardIDs
// slice refreshes every tracked card not already fetched today.
func (a *App) RefreshPrices(ctx context.Context, cardIDs []string) (usecase.RefreshSummary, error) {
	return a.refresher.Refresh(ctx, cardIDs)
}

func (a *App) Shutdown() {
	a.logger.Info("deckwatch service shutting down")
	if a.cleanupFn != nil {
		if err := a.cleanupFn(); err != nil {
			a.logger.Warn("failed to close database", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}
