// Package backend builds the data providers selected by configuration.
package backend

import (
	"context"
	"time"

	"spendboard/internal/sources"
	"spendboard/internal/sources/google"
	"spendboard/internal/storage"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult holds the providers of one configured source.
type BackendResult struct {
	Transactions sources.TransactionLister
	Weather      sources.WeatherReader
	// Ledger is set for the sqlite source; it also records render history.
	Ledger *storage.SQLiteRepository
	// Demo means no real source is configured and fixed sample totals
	// should be shown.
	Demo    bool
	Cleanup CleanupFunc
}

// Close runs the cleanup function, if any.
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// File specific
	TransactionsFile string

	// Shared by every type; empty means no weather overlay.
	WeatherFile string

	// SQLite specific
	SQLiteDBPath string

	// Google Sheets specific
	Google google.Config

	// SourceTimeout bounds one remote call.
	SourceTimeout time.Duration
}

// BackendType represents the type of backend
type BackendType string

const (
	FileBackend   BackendType = "file"
	SQLiteBackend BackendType = "sqlite"
	SheetsBackend BackendType = "sheets"
	DemoBackend   BackendType = "demo"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case FileBackend, SQLiteBackend, SheetsBackend, DemoBackend:
		return true
	default:
		return false
	}
}
