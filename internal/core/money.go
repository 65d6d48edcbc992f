// Package core provides the domain types shared by data providers, the
// aggregation engine and the renderer.
//
// This file contains parsing of monetary amounts supplied as text.
package core

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a decimal string into an exact decimal amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and an
// optional leading sign. Negative values are kept: providers report refunds
// and income as non-positive amounts and the filter decides what they mean.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34
//	ParseAmount("12,34")  -> 12.34
//	ParseAmount("-5")     -> -5
//	ParseAmount("1.2.3")  -> ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")

	sign := ""
	body := s
	if strings.HasPrefix(body, "+") || strings.HasPrefix(body, "-") {
		if body[0] == '-' {
			sign = "-"
		}
		body = body[1:]
	}
	parts := strings.Split(body, ".")
	if len(parts) > 2 || body == "" || body == "." {
		return decimal.Zero, ErrInvalidAmount
	}
	for _, p := range parts {
		for _, r := range p {
			if !unicode.IsDigit(r) {
				return decimal.Zero, ErrInvalidAmount
			}
		}
	}
	intPart := parts[0]
	if intPart == "" {
		intPart = "0"
	}
	normalized := sign + intPart
	if len(parts) == 2 && parts[1] != "" {
		normalized += "." + parts[1]
	}

	d, err := decimal.NewFromString(normalized)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}
