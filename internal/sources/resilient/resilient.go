// Package resilient guards a transaction source with a circuit breaker and
// a per-call timeout.
package resilient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"spendboard/internal/core"
	"spendboard/internal/log"
	"spendboard/internal/metrics"
	"spendboard/internal/sources"
)

var _ sources.TransactionLister = (*Lister)(nil)

// ErrCircuitOpen is returned without calling the source while the breaker is open.
var ErrCircuitOpen = errors.New("circuit breaker open")

// Config tunes the breaker.
type Config struct {
	Name    string
	Timeout time.Duration
	// MaxRequests allowed through while half-open.
	MaxRequests uint32
	// Interval clears the closed-state counts; zero never clears them.
	Interval time.Duration
	// OpenFor is how long the breaker stays open before probing.
	OpenFor time.Duration
	// TripAfter consecutive failures opens the breaker.
	TripAfter uint32
}

// DefaultConfig returns settings suited to a remote spreadsheet.
func DefaultConfig(name string) Config {
	return Config{
		Name:        name,
		Timeout:     10 * time.Second,
		MaxRequests: 1,
		Interval:    time.Minute,
		OpenFor:     30 * time.Second,
		TripAfter:   3,
	}
}

// Lister wraps a TransactionLister.
type Lister struct {
	next    sources.TransactionLister
	cb      *gobreaker.CircuitBreaker
	name    string
	timeout time.Duration
	metrics metrics.Collector
	logger  *log.Logger
}

// New wraps next; a nil collector records nothing.
func New(next sources.TransactionLister, cfg Config, collector metrics.Collector) *Lister {
	if collector == nil {
		collector = metrics.NoOp{}
	}
	if cfg.TripAfter == 0 {
		cfg.TripAfter = 3
	}
	l := &Lister{
		next:    next,
		name:    cfg.Name,
		timeout: cfg.Timeout,
		metrics: collector,
		logger:  log.WithComponent(log.ComponentSources).With(log.FieldSource, cfg.Name),
	}
	l.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.OpenFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.TripAfter
		},
		IsSuccessful: func(err error) bool {
			// A cancelled caller says nothing about the source's health.
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			l.logger.Warn("Circuit breaker state changed", "from", from.String(), "to", to.String())
			l.metrics.RecordCircuitState(name, circuitState(to))
		},
	})
	return l
}

func circuitState(s gobreaker.State) metrics.CircuitState {
	switch s {
	case gobreaker.StateOpen:
		return metrics.CircuitOpen
	case gobreaker.StateHalfOpen:
		return metrics.CircuitHalfOpen
	default:
		return metrics.CircuitClosed
	}
}

func (l *Lister) ListTransactions(ctx context.Context, account string, since core.Date) ([]core.Transaction, error) {
	start := time.Now()
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	result, err := l.cb.Execute(func() (interface{}, error) {
		return l.next.ListTransactions(ctx, account, since)
	})
	l.metrics.RecordSourceCall(l.name, err == nil, time.Since(start))

	switch {
	case err == nil:
		txns, _ := result.([]core.Transaction)
		return txns, nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return nil, fmt.Errorf("%s: %w: %w", l.name, sources.ErrUnavailable, ErrCircuitOpen)
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		l.logger.WarnContext(ctx, "Source call timed out", "timeout", l.timeout)
		return nil, fmt.Errorf("%s: %w: %w", l.name, sources.ErrUnavailable, err)
	default:
		return nil, err
	}
}

// State reports the breaker state.
func (l *Lister) State() metrics.CircuitState {
	return circuitState(l.cb.State())
}
