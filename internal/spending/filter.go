// Package spending classifies transactions into day, week and month
// windows and folds them into spending totals.
//
// Everything in this package is pure: results depend only on the inputs and
// nothing is logged or retained between calls.
package spending

import (
	"slices"
	"strings"

	"spendboard/internal/core"
)

// Policy decides which transactions count as spending.
type Policy struct {
	// ExcludedCategories are matched as substrings of every category string.
	ExcludedCategories []string
	// ExcludedKinds are matched exactly against Transaction.Kind.
	ExcludedKinds []string
}

// DefaultExcludedCategories marks transfers, income and bank charges as
// non-spending.
var DefaultExcludedCategories = []string{
	"Transfer", "Deposit", "Payment",
	"Bank Fees", "Interest", "Tax",
}

// DefaultPolicy returns the default exclusion policy. No kinds are excluded;
// callers that want "special" or "unresolved" filtered pass them explicitly.
func DefaultPolicy() Policy {
	return Policy{
		ExcludedCategories: slices.Clone(DefaultExcludedCategories),
	}
}

// IsExcluded reports whether t must not count toward any window.
func (p Policy) IsExcluded(t core.Transaction) bool {
	for _, cat := range t.Categories {
		for _, term := range p.ExcludedCategories {
			if strings.Contains(cat, term) {
				return true
			}
		}
	}
	if slices.Contains(p.ExcludedKinds, t.Kind) {
		return true
	}
	// Income, refunds and reversals.
	return !t.Amount.Decimal.IsPositive()
}
