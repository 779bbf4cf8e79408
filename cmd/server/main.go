package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rakeshpatra/papertrader/internal/clients/yahoo"
	"github.com/rakeshpatra/papertrader/internal/config"
	"github.com/rakeshpatra/papertrader/internal/database"
	"github.com/rakeshpatra/papertrader/internal/events"
	"github.com/rakeshpatra/papertrader/internal/modules/charts"
	"github.com/rakeshpatra/papertrader/internal/modules/ledger"
	"github.com/rakeshpatra/papertrader/internal/modules/marketdata"
	"github.com/rakeshpatra/papertrader/internal/modules/portfolio"
	"github.com/rakeshpatra/papertrader/internal/modules/trading"
	"github.com/rakeshpatra/papertrader/internal/modules/watchlist"
	"github.com/rakeshpatra/papertrader/internal/scheduler"
	"github.com/rakeshpatra/papertrader/internal/server"
	"github.com/rakeshpatra/papertrader/pkg/logger"
)

func main() {
	// Load configuration first so the log level is honored
	cfg, err := config.Load()
	if err != nil {
		fallback := logger.New(logger.Config{Level: "info", Pretty: true})
		fallback.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting Papertrader")

	// Initialize ledger database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	// Run migrations and seed starting cash
	if err := db.Migrate(cfg.InitialCash); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	// Wire up market data
	yahooClient := yahoo.NewClient(log)
	quoteCache := marketdata.NewQuoteCache()
	quoteService := marketdata.NewQuoteService(yahooClient, quoteCache)

	symbols := marketdata.NewSymbolDirectory(cfg.SymbolSuffix)
	if err := symbols.LoadCSV(cfg.SymbolsCSVPath); err != nil {
		log.Warn().Err(err).Str("path", cfg.SymbolsCSVPath).Msg("Symbol directory unavailable, search disabled")
	}

	historyStore, err := marketdata.NewHistoryStore(cfg.HistoryDir)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize history store")
	}

	// Wire up the ledger and trading engine
	eventManager := events.NewManager(log)
	ledgerRepo := ledger.NewRepository(db.Conn())
	engine := trading.NewEngine(db, ledgerRepo, quoteService, eventManager)
	portfolioService := portfolio.NewService(ledgerRepo, quoteService)
	watchlistRepo := watchlist.NewRepository(db.Conn())
	chartService := charts.NewService(historyStore)
	marketHours := scheduler.NewMarketHoursService(log)

	// Initialize scheduler and background refresh
	sched := scheduler.New(log)

	refreshJob := scheduler.NewRefreshJob(
		ledgerRepo,
		watchlistRepo,
		quoteService,
		yahooClient,
		historyStore,
		marketHours,
		eventManager,
		cfg.Exchange,
		cfg.IndexSymbols,
		log,
	)
	if err := sched.AddJob(cfg.RefreshSchedule, refreshJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register refresh job")
	}

	sched.Start()
	defer sched.Stop()

	// Warm the cache before the first request lands
	go func() {
		if err := sched.RunNow(refreshJob); err != nil {
			log.Warn().Err(err).Msg("Initial market data refresh failed")
		}
	}()

	// Initialize HTTP server
	srv := server.New(server.Config{
		Port:    cfg.Port,
		Log:     log,
		Config:  cfg,
		DevMode: cfg.DevMode,
		Deps: server.Deps{
			Engine:      engine,
			Portfolio:   portfolioService,
			Ledger:      ledgerRepo,
			Quotes:      quoteService,
			Symbols:     symbols,
			Charts:      chartService,
			Watchlist:   watchlistRepo,
			MarketHours: marketHours,
			Scheduler:   sched,
			Events:      eventManager,
		},
	})

	// Start server in goroutine
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
