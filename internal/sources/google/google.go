// Package google reads transactions from a Google Sheets ledger.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"spendboard/internal/core"
	"spendboard/internal/log"
	"spendboard/internal/sources"
)

var _ sources.TransactionLister = (*Client)(nil)

// Config selects the spreadsheet and the service account used to read it.
type Config struct {
	SpreadsheetID string
	// SheetName is the base name; the year of the requested range is
	// prefixed unless the name already starts with one.
	SheetName          string
	ServiceAccountJSON string
	ServiceAccountFile string
}

// Client is a read-only Sheets ledger.
type Client struct {
	values        valuesGetter
	spreadsheetID string
	sheetBase     string
	logger        *log.Logger
}

// valuesGetter is the slice of the Sheets API the client needs.
type valuesGetter interface {
	Get(ctx context.Context, spreadsheetID, rng string) ([][]any, error)
}

type serviceValues struct {
	svc *gsheet.Service
}

func (s serviceValues) Get(ctx context.Context, spreadsheetID, rng string) ([][]any, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

// New creates a client authenticated with service account credentials.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return newClient(serviceValues{svc: svc}, cfg), nil
}

func newClient(values valuesGetter, cfg Config) *Client {
	base := strings.TrimSpace(cfg.SheetName)
	if base == "" {
		base = "Transactions"
	}
	return &Client{
		values:        values,
		spreadsheetID: cfg.SpreadsheetID,
		sheetBase:     base,
		logger:        log.WithComponent(log.ComponentSheets),
	}
}

func newSheetsService(ctx context.Context, cfg Config) (*gsheet.Service, error) {
	credentialsJSON := []byte(strings.TrimSpace(cfg.ServiceAccountJSON))
	if len(credentialsJSON) == 0 {
		path := strings.TrimSpace(cfg.ServiceAccountFile)
		if path == "" {
			path = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
		}
		if path == "" {
			return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
		}
		var err error
		credentialsJSON, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	}
	return gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
}

// ListTransactions reads the year sheet that contains since. Rows whose date
// or amount cannot be parsed are returned as invalid transactions.
func (c *Client) ListTransactions(ctx context.Context, account string, since core.Date) ([]core.Transaction, error) {
	sheet := yearPrefixedName(c.sheetBase, since.Year())
	rng := fmt.Sprintf("%s!A:F", sheet)
	values, err := c.values.Get(ctx, c.spreadsheetID, rng)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w: %w", rng, sources.ErrUnavailable, err)
	}
	txns := parseTransactionRows(values, sheet)

	out := txns[:0]
	for _, t := range txns {
		if account != "" && t.Account != "" && t.Account != account {
			continue
		}
		if !t.Date.IsZero() && t.Date.Before(since) {
			continue
		}
		out = append(out, t)
	}
	c.logger.DebugContext(ctx, "Transactions read from sheet",
		log.FieldSource, rng, log.FieldAccount, account, log.FieldCount, len(out))
	return out, nil
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
