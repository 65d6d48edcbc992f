package backend

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"spendboard/internal/log"
	"spendboard/internal/metrics"
	"spendboard/internal/sources"
	"spendboard/internal/sources/file"
	"spendboard/internal/sources/google"
	"spendboard/internal/sources/memory"
	"spendboard/internal/sources/resilient"
	"spendboard/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger  *log.Logger
	metrics metrics.Collector
}

// NewFactory creates a new backend factory. A nil collector records nothing.
func NewFactory(collector metrics.Collector) *DefaultFactory {
	if collector == nil {
		collector = metrics.NoOp{}
	}
	return &DefaultFactory{
		logger:  log.WithComponent(log.ComponentSources),
		metrics: collector,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		res *BackendResult
		err error
	)
	switch config.Type {
	case FileBackend:
		res, err = f.createFileBackend(config)
	case SQLiteBackend:
		res, err = f.createSQLiteBackend(config)
	case SheetsBackend:
		res, err = f.createSheetsBackend(ctx, config)
	case DemoBackend:
		res = f.createDemoBackend()
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}
	if res.Weather == nil {
		res.Weather = f.weatherReader(config.WeatherFile)
	}
	return res, nil
}

func (f *DefaultFactory) createFileBackend(config Config) (*BackendResult, error) {
	if _, err := os.Stat(config.TransactionsFile); errors.Is(err, fs.ErrNotExist) {
		f.logger.Warn("Transactions file not found, showing demo totals",
			log.FieldSource, config.TransactionsFile)
		return f.createDemoBackend(), nil
	}

	f.logger.Info("Initialized file backend", log.FieldSource, config.TransactionsFile)
	return &BackendResult{
		Transactions: file.NewTransactions(config.TransactionsFile),
	}, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", log.FieldSource, config.SQLiteDBPath)
	return &BackendResult{
		Transactions: repo,
		Ledger:       repo,
		Cleanup:      repo.Close,
	}, nil
}

func (f *DefaultFactory) createSheetsBackend(ctx context.Context, config Config) (*BackendResult, error) {
	cli, err := google.New(ctx, config.Google)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}

	breaker := resilient.DefaultConfig("sheets")
	if config.SourceTimeout > 0 {
		breaker.Timeout = config.SourceTimeout
	}

	f.logger.Info("Initialized Google Sheets backend", log.FieldSource, config.Google.SpreadsheetID)
	return &BackendResult{
		Transactions: resilient.New(cli, breaker, f.metrics),
	}, nil
}

func (f *DefaultFactory) createDemoBackend() *BackendResult {
	f.logger.Info("No data source configured, using demo totals")
	return &BackendResult{
		Transactions: memory.New(),
		Demo:         true,
	}
}

func (f *DefaultFactory) weatherReader(path string) sources.WeatherReader {
	if path == "" {
		return sources.NoWeather{}
	}
	return file.NewWeather(path)
}
