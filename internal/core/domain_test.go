package core

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-03-09")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.Equal(NewDate(2025, 3, 9)) {
		t.Fatalf("got %s", d)
	}
	if _, err := ParseDate("09/03/2025"); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}

func TestDateOfKeepsCivilDate(t *testing.T) {
	loc, err := time.LoadLocation("America/Los_Angeles")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	// 02:30 UTC on the 1st is still the previous evening in Los Angeles.
	instant := time.Date(2025, 3, 1, 2, 30, 0, 0, time.UTC).In(loc)
	if got := DateOf(instant); !got.Equal(NewDate(2025, 2, 28)) {
		t.Fatalf("DateOf = %s, want 2025-02-28", got)
	}
}

func TestDateHelpers(t *testing.T) {
	d := NewDate(2024, 2, 28)
	if got := d.AddDays(1); got.String() != "2024-02-29" {
		t.Fatalf("AddDays leap = %s", got)
	}
	if got := d.FirstOfMonth(); got.String() != "2024-02-01" {
		t.Fatalf("FirstOfMonth = %s", got)
	}
	if (Date{}).String() != "" {
		t.Fatalf("zero date should format empty")
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{ID: "a", Date: NewDate(2025, 1, 1), Amount: NewAmount(decimal.NewFromInt(5))}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	noDate := Transaction{ID: "b", Amount: NewAmount(decimal.NewFromInt(5))}
	if err := noDate.Validate(); !errors.Is(err, ErrMissingDate) {
		t.Fatalf("expected ErrMissingDate, got %v", err)
	}

	noAmount := Transaction{ID: "c", Date: NewDate(2025, 1, 1)}
	if err := noAmount.Validate(); !errors.Is(err, ErrMissingAmount) {
		t.Fatalf("expected ErrMissingAmount, got %v", err)
	}
}
