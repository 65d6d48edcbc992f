package spending

import (
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

var thousand = decimal.NewFromInt(1000)

// FormatAmount renders a whole-dollar display string.
//
// Amounts are rounded half to even. The thousands separator is applied when
// the unrounded amount is at least 1000, so 999.5 renders as "$1000".
func FormatAmount(amount decimal.Decimal) string {
	whole := amount.RoundBank(0).IntPart()
	if amount.GreaterThanOrEqual(thousand) {
		return "$" + humanize.Comma(whole)
	}
	return "$" + strconv.FormatInt(whole, 10)
}

// Labels are the display strings of one set of totals.
type Labels struct {
	Day   string
	Week  string
	Month string
}

// Get returns the label of window w.
func (l Labels) Get(w Window) string {
	switch w {
	case Day:
		return l.Day
	case Week:
		return l.Week
	default:
		return l.Month
	}
}

// FormatTotals formats every window of t.
func FormatTotals(t Totals) Labels {
	return Labels{
		Day:   FormatAmount(t.Day),
		Week:  FormatAmount(t.Week),
		Month: FormatAmount(t.Month),
	}
}
