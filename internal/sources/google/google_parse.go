package google

import (
	"fmt"
	"strconv"
	"strings"

	"spendboard/internal/core"
)

// Column order of the ledger sheet.
const (
	colDate = iota
	colDescription
	colAmount
	colCategories
	colKind
	colAccount
)

// parseTransactionRows converts a values matrix (as returned by the Sheets
// API) into transactions. A header row and blank rows are skipped. IDs are
// "<sheet>!<row>" so they point back at the source cell.
func parseTransactionRows(values [][]any, sheet string) []core.Transaction {
	var out []core.Transaction
	for i, row := range values {
		cols := toStrings(row)
		if isBlank(cols) {
			continue
		}
		if i == 0 && isHeader(cols) {
			continue
		}
		t := core.Transaction{
			ID:          fmt.Sprintf("%s!%d", sheet, i+1),
			Description: safeGet(cols, colDescription),
			Categories:  splitCategories(safeGet(cols, colCategories)),
			Kind:        safeGet(cols, colKind),
			Account:     safeGet(cols, colAccount),
		}
		// Unparseable cells leave the field unset; the aggregator rejects the row.
		if d, err := core.ParseDate(safeGet(cols, colDate)); err == nil {
			t.Date = d
		}
		if a, err := core.ParseAmount(stripCurrency(safeGet(cols, colAmount))); err == nil {
			t.Amount = core.NewAmount(a)
		}
		out = append(out, t)
	}
	return out
}

func isHeader(cols []string) bool {
	if _, err := core.ParseDate(safeGet(cols, colDate)); err == nil {
		return false
	}
	return strings.EqualFold(safeGet(cols, colDate), "date")
}

func isBlank(cols []string) bool {
	for _, c := range cols {
		if c != "" {
			return false
		}
	}
	return true
}

func splitCategories(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, c := range strings.Split(s, ";") {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}

// stripCurrency removes a leading dollar sign and thousands separators
// written by sheet number formats, e.g. "$1,234.50" or "$12,345". A lone
// comma not followed by a group of three digits, as in "4,50", is left for
// ParseAmount to read as a decimal comma.
func stripCurrency(s string) string {
	s = strings.TrimSpace(s)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	s = strings.TrimPrefix(s, "$")
	if strings.Contains(s, ",") && (strings.Contains(s, ".") || thousandsGrouped(s)) {
		s = strings.ReplaceAll(s, ",", "")
	}
	if neg {
		s = "-" + s
	}
	return s
}

// thousandsGrouped reports whether s is digits grouped as 1-3 leading
// digits followed by comma-separated groups of exactly three.
func thousandsGrouped(s string) bool {
	groups := strings.Split(s, ",")
	if len(groups[0]) == 0 || len(groups[0]) > 3 {
		return false
	}
	for i, g := range groups {
		if i > 0 && len(g) != 3 {
			return false
		}
		for _, r := range g {
			if r < '0' || r > '9' {
				return false
			}
		}
	}
	return true
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		switch n := v.(type) {
		case float64:
			out[i] = strconv.FormatFloat(n, 'f', -1, 64)
		default:
			out[i] = strings.TrimSpace(fmt.Sprint(v))
		}
	}
	return out
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}
