package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/asaskevich/EventBus"
	"github.com/maxaizer/ipu-notifier/internal/api"
	"github.com/maxaizer/ipu-notifier/internal/clients/ipu"
	"github.com/maxaizer/ipu-notifier/internal/config"
	"github.com/maxaizer/ipu-notifier/internal/logger"
	"github.com/maxaizer/ipu-notifier/internal/metrics"
	"github.com/maxaizer/ipu-notifier/internal/repositories"
	"github.com/maxaizer/ipu-notifier/internal/services"
	log "github.com/sirupsen/logrus"
)

func runRefresher(cfg *config.Config, notices *repositories.Notices, bus EventBus.Bus) *services.NoticesRefresher {

	ipuClient := ipu.NewClient(cfg.Scraper.URL)
	ipuClient.SetTimeout(cfg.Scraper.Timeout)
	ipuClient.SetRateLimit(cfg.Scraper.MaxRequestsPerSecond)

	ingestor, err := services.NewNoticesIngestor(bus, notices, ipuClient, cfg.Scraper.Timeout)
	if err != nil {
		log.Fatalf("can't create ingestor: %v", err)
	}

	gate := services.NewRefreshGate(cfg.Scraper.RefreshCooldown)

	refresher, err := services.NewNoticesRefresher(gate, ingestor, cfg.Scraper.Schedule)
	if err != nil {
		log.Fatalf("can't create refresher: %v", err)
	}

	if cfg.Scraper.RefreshOnStart {
		go refresher.RefreshInBackground()
	}
	return refresher
}

func main() {

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Get()

	logger.Setup(ctx, cfg.Logger)
	defer logger.Cleanup()

	metrics.Register()

	dbContext, err := repositories.NewDbContext(cfg.DB.ConnectionString)
	if err != nil {
		log.Fatalf("can't create db context: %v", err)
	}
	defer dbContext.Close()

	err = dbContext.Migrate()
	if err != nil {
		log.Fatalf("can't migrate db context: %v", err)
	}

	bus := EventBus.New()
	notices := repositories.NewNoticesRepository(dbContext.DB)

	cachedNotices, err := repositories.NewCachedNotices(notices, bus)
	if err != nil {
		log.Fatalf("can't create notices cache: %v", err)
	}

	refresher := runRefresher(cfg, notices, bus)
	query := services.NewNoticesQuery(cachedNotices)

	server, err := api.NewServer(cfg.Server, query, refresher)
	if err != nil {
		log.Fatalf("can't create server: %v", err)
	}

	go func() {
		if err := server.Run(); err != nil {
			log.Errorf("server stopped: %v", err)
			stop()
		}
	}()

	<-ctx.Done()

	log.Info("Shutting down services...")
	if err := server.Shutdown(context.Background()); err != nil {
		log.Warnf("server shutdown: %v", err)
	}
	refresher.Stop()
	log.Info("Services stopped.")
}
