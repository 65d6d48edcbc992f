// Package file reads transactions and the weather reading from JSON files
// written by an external fetcher.
package file

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/shopspring/decimal"

	"spendboard/internal/core"
	"spendboard/internal/sources"
)

var (
	_ sources.TransactionLister = (*Transactions)(nil)
	_ sources.WeatherReader     = (*Weather)(nil)
)

// ErrMalformed wraps decoding failures. It matches sources.ErrMalformed.
var ErrMalformed = fmt.Errorf("%w: source file", sources.ErrMalformed)

type transactionRecord struct {
	ID          string          `json:"id"`
	Account     string          `json:"account"`
	Date        string          `json:"date"`
	Amount      json.RawMessage `json:"amount"`
	Categories  []string        `json:"categories"`
	Kind        string          `json:"kind"`
	Description string          `json:"description"`
}

// Transactions lists records from a JSON array file. The file is re-read on
// every call.
type Transactions struct {
	Path string
}

func NewTransactions(path string) *Transactions {
	return &Transactions{Path: path}
}

// ListTransactions returns records for account dated on or after since.
// Records without an account belong to every account.
func (s *Transactions) ListTransactions(ctx context.Context, account string, since core.Date) ([]core.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read transactions: %w", err)
	}
	all, err := DecodeTransactions(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.Path, err)
	}
	out := all[:0]
	for _, t := range all {
		if account != "" && t.Account != "" && t.Account != account {
			continue
		}
		if !t.Date.IsZero() && t.Date.Before(since) {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

// DecodeTransactions parses a JSON array of transaction records. A missing
// or null amount yields a transaction without an amount; a malformed date or
// amount string fails the whole document.
func DecodeTransactions(data []byte) ([]core.Transaction, error) {
	var records []transactionRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	out := make([]core.Transaction, 0, len(records))
	for i, r := range records {
		t := core.Transaction{
			ID:          r.ID,
			Account:     r.Account,
			Categories:  r.Categories,
			Kind:        r.Kind,
			Description: r.Description,
		}
		if t.ID == "" {
			t.ID = strconv.Itoa(i)
		}
		if r.Date != "" {
			d, err := core.ParseDate(r.Date)
			if err != nil {
				return nil, fmt.Errorf("%w: record %d: %w", ErrMalformed, i, err)
			}
			t.Date = d
		}
		amount, err := decodeAmount(r.Amount)
		if err != nil {
			return nil, fmt.Errorf("%w: record %d: %w", ErrMalformed, i, err)
		}
		t.Amount = amount
		out = append(out, t)
	}
	return out, nil
}

// decodeAmount accepts a JSON number, a numeric string, or null.
func decodeAmount(raw json.RawMessage) (decimal.NullDecimal, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return decimal.NullDecimal{}, nil
	}
	s := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &s); err != nil {
			return decimal.NullDecimal{}, err
		}
	}
	d, err := core.ParseAmount(s)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("%w %q", err, s)
	}
	return core.NewAmount(d), nil
}

type weatherRecord struct {
	Temperature float64  `json:"temperature"`
	WeatherCode int      `json:"weather_code"`
	IsDay       *dayFlag `json:"is_day"`
}

// dayFlag accepts a JSON bool or the 0/1 integer Open-Meteo reports.
type dayFlag bool

func (f *dayFlag) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = dayFlag(b)
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("is_day must be a bool or a number, got %s", data)
	}
	*f = n != 0
	return nil
}

// Weather reads a single reading. A missing file means no reading.
type Weather struct {
	Path string
}

func NewWeather(path string) *Weather {
	return &Weather{Path: path}
}

func (w *Weather) CurrentWeather(ctx context.Context) (*core.Weather, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(w.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read weather: %w", err)
	}
	var rec weatherRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, w.Path, err)
	}
	isDay := true
	if rec.IsDay != nil {
		isDay = bool(*rec.IsDay)
	}
	// Temperatures arrive as floats and are shown rounded half to even.
	temp := decimal.NewFromFloat(rec.Temperature).RoundBank(0).IntPart()
	return &core.Weather{Temperature: int(temp), Code: rec.WeatherCode, IsDay: isDay}, nil
}
