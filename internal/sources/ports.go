// Package sources declares the providers the display pipeline reads from.
// Implementations live in the subpackages.
package sources

import (
	"context"
	"errors"

	"spendboard/internal/core"
)

// ErrUnavailable means a provider could not be reached. Callers may retry.
var ErrUnavailable = errors.New("source unavailable")

// ErrMalformed means a provider returned records it could not decode.
// Retrying cannot fix it.
var ErrMalformed = errors.New("malformed source data")

// Ports for inbound data.
type (
	// TransactionLister returns an account's transactions dated on or after
	// since. Providers may return older records; the aggregator skips them.
	TransactionLister interface {
		ListTransactions(ctx context.Context, account string, since core.Date) ([]core.Transaction, error)
	}

	// WeatherReader returns the current reading, or nil when none is known.
	WeatherReader interface {
		CurrentWeather(ctx context.Context) (*core.Weather, error)
	}
)

// NoWeather is a WeatherReader that never has a reading.
type NoWeather struct{}

func (NoWeather) CurrentWeather(context.Context) (*core.Weather, error) { return nil, nil }
