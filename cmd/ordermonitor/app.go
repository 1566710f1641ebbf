package main

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gorm.io/gorm"

	"github.com/timmy/ordermonitor/internal/config"
	"github.com/timmy/ordermonitor/internal/domain"
	"github.com/timmy/ordermonitor/internal/ingest"
	"github.com/timmy/ordermonitor/internal/logger"
	"github.com/timmy/ordermonitor/internal/metrics"
	"github.com/timmy/ordermonitor/internal/repository"
	"github.com/timmy/ordermonitor/internal/service"
	"github.com/timmy/ordermonitor/internal/storage"
	"github.com/timmy/ordermonitor/internal/validation"
)

// app holds the wired components shared by the run and process commands.
type app struct {
	cfg        *config.Config
	log        *logger.Logger
	db         *gorm.DB
	registry   *prometheus.Registry
	orders     *service.OrderService
	exceptions *repository.ExceptionRepository
	processed  *repository.ProcessedFileRepository
	monitor    *ingest.Monitor
}

// newValidator builds the schema and rule checks from configuration.
func newValidator(cfg *config.Config) (*validation.Validator, error) {
	schema, err := validation.NewSchema()
	if err != nil {
		return nil, err
	}
	minPrice, maxPrice, err := cfg.Validation.PriceBounds()
	if err != nil {
		return nil, err
	}
	return validation.NewValidator(schema, validation.Rules{MinPrice: minPrice, MaxPrice: maxPrice}), nil
}

func newArchiver(ctx context.Context, cfg *config.Config) (ingest.Archiver, error) {
	if cfg.Archive.Backend != "s3" {
		return ingest.NewLocalArchiver(cfg.Ingest.FolderPath, cfg.Archive.Dir, cfg.Archive.RejectedDir), nil
	}
	store, err := storage.NewStorage(ctx, &storage.S3Config{
		Type:      storage.StorageType(cfg.Storage.Type),
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		UseSSL:    cfg.Storage.UseSSL,
		Bucket:    cfg.Storage.Bucket,
		Region:    cfg.Storage.Region,
		PublicURL: cfg.Storage.PublicURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize archive storage: %w", err)
	}
	return ingest.NewObjectArchiver(store, cfg.Archive.KeyPrefix), nil
}

// buildApp wires database, repositories, the order service and the monitor.
func buildApp(ctx context.Context, cfg *config.Config, log *logger.Logger) (*app, error) {
	kind, err := domain.ParseKind(cfg.Ingest.Kind)
	if err != nil {
		return nil, err
	}
	matcher, err := ingest.NewMatcher(cfg.Ingest.MonitoredFileName, kind)
	if err != nil {
		return nil, err
	}
	validator, err := newValidator(cfg)
	if err != nil {
		return nil, err
	}

	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	a := &app{cfg: cfg, log: log, db: db}

	archiver, err := newArchiver(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(a.registry)

	a.orders = service.NewOrderService(repository.NewOrderRepository(db), log)
	a.exceptions = repository.NewExceptionRepository(db)
	a.processed = repository.NewProcessedFileRepository(db)

	gate := ingest.NewGate(cfg.Ingest.StaleAfter(), m)
	processor, err := ingest.NewProcessor(ingest.ProcessorDeps{
		Gate:       gate,
		Validator:  validator,
		Dispatcher: a.orders,
		Audit:      a.exceptions,
		Ledger:     a.processed,
		Archiver:   archiver,
		Metrics:    m,
	}, ingest.ProcessorConfig{
		Debounce:      cfg.Ingest.Debounce(),
		LockRetry:     cfg.Ingest.LockRetry(),
		RejectInvalid: cfg.Ingest.RejectInvalid,
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	a.monitor = ingest.NewMonitor(ingest.MonitorConfig{
		Dir:           cfg.Ingest.FolderPath,
		Workers:       cfg.Ingest.Workers,
		QueueSize:     cfg.Ingest.QueueSize,
		PollInterval:  cfg.Ingest.PollingInterval(),
		ErrorCooldown: cfg.Ingest.ErrorCooldown(),
		Watch:         cfg.Ingest.WatchEnabled,
	}, matcher, gate, processor, m)
	return a, nil
}

// pingDB is the health check behind GET /health.
func (a *app) pingDB(ctx context.Context) error {
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the database handle and flushes the log file.
func (a *app) Close() error {
	var result *multierror.Error
	if sqlDB, err := a.db.DB(); err != nil {
		result = multierror.Append(result, err)
	} else if err := sqlDB.Close(); err != nil {
		result = multierror.Append(result, fmt.Errorf("failed to close database: %w", err))
	}
	if err := logger.Sync(); err != nil {
		result = multierror.Append(result, fmt.Errorf("failed to flush logs: %w", err))
	}
	return result.ErrorOrNil()
}
