package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

type (
	// Date is a calendar date without time of day, stored as midnight UTC.
	Date struct {
		time.Time
	}

	// Transaction is a single record supplied by a data provider. The core
	// never mutates it.
	Transaction struct {
		ID          string
		Account     string
		Date        Date
		Amount      decimal.NullDecimal // positive = money leaving the account
		Categories  []string
		Kind        string // optional provider tag, e.g. "special"
		Description string
	}

	// Weather is the current reading handed over by a weather collaborator.
	Weather struct {
		Temperature int
		Code        int
		IsDay       bool
	}
)

var (
	ErrInvalidDate   = errors.New("invalid date")
	ErrMissingDate   = errors.New("missing date")
	ErrMissingAmount = errors.New("missing amount")
	ErrInvalidAmount = errors.New("invalid amount")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the civil date of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

// AddDays returns the date n days later (earlier when n is negative).
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// FirstOfMonth returns the first day of d's month.
func (d Date) FirstOfMonth() Date {
	return NewDate(d.Year(), int(d.Month()), 1)
}

func (d Date) Before(o Date) bool { return d.Time.Before(o.Time) }
func (d Date) After(o Date) bool  { return d.Time.After(o.Time) }
func (d Date) Equal(o Date) bool  { return d.Time.Equal(o.Time) }

// String formats the date as YYYY-MM-DD; the zero date is empty.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

// HasAmount reports whether the provider supplied an amount.
func (t Transaction) HasAmount() bool {
	return t.Amount.Valid
}

// Validate checks the fields the aggregator cannot evaluate without.
func (t Transaction) Validate() error {
	if t.Date.IsZero() {
		return fmt.Errorf("transaction %q: %w", t.ID, ErrMissingDate)
	}
	if !t.Amount.Valid {
		return fmt.Errorf("transaction %q: %w", t.ID, ErrMissingAmount)
	}
	return nil
}

// NewAmount is a convenience for building a valid NullDecimal.
func NewAmount(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: d, Valid: true}
}
