package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/mgrivas/folio/internal/clients/exchangerate"
	"github.com/mgrivas/folio/internal/clients/yahoo"
	"github.com/mgrivas/folio/internal/config"
	"github.com/mgrivas/folio/internal/database"
	"github.com/mgrivas/folio/internal/modules/holdings"
	"github.com/mgrivas/folio/internal/modules/performance"
	perfhandlers "github.com/mgrivas/folio/internal/modules/performance/handlers"
	"github.com/mgrivas/folio/internal/modules/rates"
	rateshandlers "github.com/mgrivas/folio/internal/modules/rates/handlers"
	"github.com/mgrivas/folio/internal/modules/securities"
	sechandlers "github.com/mgrivas/folio/internal/modules/securities/handlers"
	"github.com/mgrivas/folio/internal/scheduler"
	"github.com/mgrivas/folio/internal/server"
	"github.com/mgrivas/folio/internal/viewcache"
	"github.com/mgrivas/folio/pkg/logger"
)

func main() {
	log := logger.New(logger.Config{Level: "info"})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log = logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.DevMode})
	log.Info().
		Int("port", cfg.Port).
		Str("base_currency", cfg.BaseCurrency).
		Int("tracked_pairs", len(cfg.TrackedPairs)).
		Msg("Starting folio market data server")

	marketDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "market.db"),
		Profile: database.ProfileStandard,
		Name:    "market",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open market database")
	}
	defer marketDB.Close()

	cacheDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "viewcache.db"),
		Profile: database.ProfileCache,
		Name:    "viewcache",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open viewcache database")
	}
	defer cacheDB.Close()

	for _, db := range []*database.DB{marketDB, cacheDB} {
		if err := db.Migrate(); err != nil {
			log.Fatal().Err(err).Str("database", db.Name()).Msg("Migration failed")
		}
	}

	// Provider clients
	erClient := exchangerate.NewClient(exchangerate.DefaultBaseURL, log)
	yahooClient := yahoo.NewClient(yahoo.DefaultBaseURL, log)

	// Repositories
	ratesRepo := rates.NewRepository(marketDB.Conn(), log)
	pricesRepo := securities.NewRepository(marketDB.Conn(), log)
	holdingsRepo := holdings.NewRepository(marketDB.Conn(), log)
	cacheRepo := viewcache.NewRepository(cacheDB.Conn(), log)

	// Services
	rateResolver := rates.NewResolver(erClient, yahooClient, ratesRepo, log)
	priceResolver := securities.NewPriceResolver(yahooClient, pricesRepo, log)
	perfService := performance.NewService(holdingsRepo, priceResolver, rateResolver, cacheRepo, cfg.BaseCurrency, log)

	// Background work
	refresher := scheduler.NewRefresher(rateResolver, cfg.TrackedPairs, log)
	refresher.Start(context.Background())
	defer refresher.Stop()

	sched := scheduler.New(log)
	if err := sched.AddJob("@hourly", viewcache.NewCleanupJob(cacheRepo, log)); err != nil {
		log.Fatal().Err(err).Msg("Failed to register cleanup job")
	}
	sched.Start()
	defer sched.Stop()

	srv := server.New(server.Config{
		Port:              cfg.Port,
		DevMode:           cfg.DevMode,
		Log:               log,
		MarketDB:          marketDB,
		ViewCacheDB:       cacheDB,
		RatesHandler:      rateshandlers.NewHandler(rateResolver, cfg.TrackedPairs, log),
		SecuritiesHandler: sechandlers.NewHandler(pricesRepo, priceResolver, log),
		DashboardHandler:  perfhandlers.NewHandler(perfService, log),
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}

	log.Info().Msg("Server stopped")
}
