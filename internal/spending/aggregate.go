package spending

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"spendboard/internal/core"
)

// Totals holds the running sum of each window. The zero value is a valid
// empty result.
type Totals struct {
	Day   decimal.Decimal
	Week  decimal.Decimal
	Month decimal.Decimal
}

// Get returns the total of window w.
func (t Totals) Get(w Window) decimal.Decimal {
	switch w {
	case Day:
		return t.Day
	case Week:
		return t.Week
	default:
		return t.Month
	}
}

func (t *Totals) add(set WindowSet, amount decimal.Decimal) {
	if set.Has(Day) {
		t.Day = t.Day.Add(amount)
	}
	if set.Has(Week) {
		t.Week = t.Week.Add(amount)
	}
	if set.Has(Month) {
		t.Month = t.Month.Add(amount)
	}
}

// Stats describes how a batch was folded.
type Stats struct {
	Considered int // counted toward at least one window
	Excluded   int // rejected by the policy
	Stale      int // dated before the month start
}

// BatchError reports the first record that could not be evaluated.
type BatchError struct {
	Index int
	ID    string
	Err   error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("aggregate: record %d (id %q): %v", e.Index, e.ID, e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }

// Aggregator binds a policy and a target timezone.
type Aggregator struct {
	Policy   Policy
	Location *time.Location
}

// NewAggregator returns an Aggregator; a nil loc means UTC.
func NewAggregator(policy Policy, loc *time.Location) *Aggregator {
	if loc == nil {
		loc = time.UTC
	}
	return &Aggregator{Policy: policy, Location: loc}
}

// Aggregate folds txns into totals relative to now in the aggregator's
// timezone.
func (a *Aggregator) Aggregate(txns []core.Transaction, now time.Time) (Totals, error) {
	totals, _, err := AggregateWithStats(txns, BoundsAt(now, a.Location), a.Policy)
	return totals, err
}

// Aggregate folds txns relative to the given bounds.
func Aggregate(txns []core.Transaction, bounds Bounds, policy Policy) (Totals, error) {
	totals, _, err := AggregateWithStats(txns, bounds, policy)
	return totals, err
}

// AggregateWithStats is Aggregate plus counters for logging and metrics.
//
// The batch is validated before anything is summed: one malformed record
// fails the whole call and no partial totals are returned.
func AggregateWithStats(txns []core.Transaction, bounds Bounds, policy Policy) (Totals, Stats, error) {
	for i, t := range txns {
		if err := t.Validate(); err != nil {
			return Totals{}, Stats{}, &BatchError{Index: i, ID: t.ID, Err: err}
		}
	}

	var (
		totals Totals
		stats  Stats
	)
	for _, t := range txns {
		// Nothing before the month start can land in a reported window.
		if t.Date.Before(bounds.MonthStart) {
			stats.Stale++
			continue
		}
		if policy.IsExcluded(t) {
			stats.Excluded++
			continue
		}
		set := bounds.WindowsFor(t.Date)
		if set.Empty() {
			continue
		}
		totals.add(set, t.Amount.Decimal)
		stats.Considered++
	}
	return totals, stats, nil
}
