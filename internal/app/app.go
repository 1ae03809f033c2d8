package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/chrissnell/remoteclimate/internal/clock"
	"github.com/chrissnell/remoteclimate/internal/controllers/restserver"
	"github.com/chrissnell/remoteclimate/internal/events"
	"github.com/chrissnell/remoteclimate/internal/observability"
	"github.com/chrissnell/remoteclimate/internal/records"
	"github.com/chrissnell/remoteclimate/internal/storage"
	"github.com/chrissnell/remoteclimate/internal/storage/climatedb"
	"github.com/chrissnell/remoteclimate/internal/summary"
	"github.com/chrissnell/remoteclimate/pkg/config"
)

// App represents the main application
type App struct {
	cfg    *config.ConfigData
	logger *zap.SugaredLogger
	clock  clockwork.Clock
}

// New creates a new application instance
func New(cfg *config.ConfigData, logger *zap.SugaredLogger) *App {
	return &App{
		cfg:    cfg,
		logger: logger,
		clock:  clock.Get(),
	}
}

// NewPublisher picks the record event sink: Kafka when configured,
// otherwise the log.
func NewPublisher(cfg config.EventsData, logger *zap.SugaredLogger) events.Publisher {
	if cfg.Kafka != nil && len(cfg.Kafka.Brokers) > 0 {
		return events.NewKafkaPublisher(cfg.Kafka)
	}
	return events.LogPublisher{Logger: logger}
}

// Run starts the application and blocks until shutdown
func (a *App) Run(ctx context.Context) error {
	var wg sync.WaitGroup

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.cfg.ApplyDefaults()
	if err := a.cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	metrics := observability.NewMetrics()

	db, err := climatedb.New(ctx, a.cfg.Storage.Postgres, metrics)
	if err != nil {
		return err
	}
	defer db.Close()

	hm := storage.NewHealthManager()
	db.StartHealthMonitor(ctx, a.clock, hm, a.cfg.Storage.Postgres.HealthCheckInterval())

	publisher := NewPublisher(a.cfg.Events, a.logger.Named("events"))
	defer func() {
		if err := publisher.Close(); err != nil {
			a.logger.Warnf("error closing event publisher: %v", err)
		}
	}()

	svc := restserver.Services{
		Summary:       summary.NewService(db, db, a.cfg.Climate, metrics),
		Records:       records.NewChecker(db, publisher, metrics, a.clock),
		Reader:        db,
		Health:        hm,
		Stations:      a.cfg.Stations,
		HealthBackend: climatedb.HealthBackend,
		HealthMaxAge:  3 * a.cfg.Storage.Postgres.HealthCheckInterval(),
		Clock:         a.clock,
	}

	rest, err := restserver.NewController(ctx, &wg, a.cfg.REST, svc, a.logger.Named("rest"))
	if err != nil {
		return err
	}
	if err := rest.StartController(); err != nil {
		return err
	}

	a.logger.Infow("application started", "stations", len(a.cfg.Stations), "kafka", a.cfg.Events.Kafka != nil)

	// Set up signal handling
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	// Wait for shutdown signal
	select {
	case <-sigs:
		a.logger.Info("shutdown signal received, initiating graceful shutdown...")
	case <-ctx.Done():
		a.logger.Info("context cancelled, shutting down...")
	}

	// Cancel context to signal all goroutines to stop
	cancel()

	a.logger.Info("waiting for all workers to terminate...")
	wg.Wait()
	a.logger.Info("shutdown complete")

	return nil
}
