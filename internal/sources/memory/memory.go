// Package memory holds transactions and a weather reading in process.
package memory

import (
	"context"
	"sync"

	"spendboard/internal/core"
	"spendboard/internal/sources"
)

var (
	_ sources.TransactionLister = (*Store)(nil)
	_ sources.WeatherReader     = (*Store)(nil)
)

type Store struct {
	mu      sync.Mutex
	items   []core.Transaction
	weather *core.Weather
}

func New(txns ...core.Transaction) *Store {
	return &Store{items: append([]core.Transaction(nil), txns...)}
}

// Add appends transactions.
func (s *Store) Add(txns ...core.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, txns...)
}

// SetWeather replaces the current reading; nil clears it.
func (s *Store) SetWeather(w *core.Weather) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.weather = w
}

// ListTransactions returns copies of the matching records in insertion order.
// An empty account matches every record.
func (s *Store) ListTransactions(_ context.Context, account string, since core.Date) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Transaction
	for _, t := range s.items {
		if account != "" && t.Account != account {
			continue
		}
		// Undated records are returned so the aggregator can reject them.
		if !t.Date.IsZero() && t.Date.Before(since) {
			continue
		}
		t.Categories = append([]string(nil), t.Categories...)
		out = append(out, t)
	}
	return out, nil
}

func (s *Store) CurrentWeather(context.Context) (*core.Weather, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.weather == nil {
		return nil, nil
	}
	w := *s.weather
	return &w, nil
}
