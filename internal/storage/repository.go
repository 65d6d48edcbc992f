// Package storage is the local SQLite ledger: imported transactions and
// the history of rendered displays.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"spendboard/internal/core"
	"spendboard/internal/log"
	"spendboard/internal/sources"

	_ "modernc.org/sqlite"
)

var _ sources.TransactionLister = (*SQLiteRepository)(nil)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

const timeLayout = time.RFC3339Nano

type SQLiteRepository struct {
	db     *sql.DB
	now    func() time.Time
	logger *log.Logger
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time; sqlite serialises them anyway.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		db.Close()
		return nil, err
	}

	logger := log.WithComponent(log.ComponentStorage)
	logger.Debug("Ledger ready", "path", dbPath, "schema_version", version)
	return &SQLiteRepository{
		db:     db,
		now:    time.Now,
		logger: logger,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// UpsertTransactions inserts or replaces txns by ID in a single SQL
// transaction and returns how many rows were written.
func (r *SQLiteRepository) UpsertTransactions(ctx context.Context, txns []core.Transaction) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO transactions (id, account, txn_date, amount, categories, kind, description, imported_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			account = excluded.account,
			txn_date = excluded.txn_date,
			amount = excluded.amount,
			categories = excluded.categories,
			kind = excluded.kind,
			description = excluded.description,
			imported_at = excluded.imported_at`)
	if err != nil {
		return 0, fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	importedAt := r.now().UTC().Format(timeLayout)
	for _, t := range txns {
		if t.ID == "" {
			return 0, fmt.Errorf("upsert transaction: empty id")
		}
		categories, err := json.Marshal(nonNil(t.Categories))
		if err != nil {
			return 0, fmt.Errorf("encode categories of %q: %w", t.ID, err)
		}
		var date, amount sql.NullString
		if !t.Date.IsZero() {
			date = sql.NullString{String: t.Date.String(), Valid: true}
		}
		if t.Amount.Valid {
			amount = sql.NullString{String: t.Amount.Decimal.String(), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, t.ID, t.Account, date, amount, string(categories), t.Kind, t.Description, importedAt); err != nil {
			return 0, fmt.Errorf("upsert transaction %q: %w", t.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	r.logger.InfoContext(ctx, "Transactions imported", log.FieldCount, len(txns))
	return len(txns), nil
}

// ListTransactions implements sources.TransactionLister. Undated rows are
// always returned so the aggregator can reject them; an empty account
// matches every row.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, account string, since core.Date) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, account, txn_date, amount, categories, kind, description
		FROM transactions
		WHERE (? = '' OR account = ? OR account = '')
		  AND (txn_date IS NULL OR txn_date >= ?)
		ORDER BY txn_date, id`,
		account, account, since.String())
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var (
			t              core.Transaction
			date, amount   sql.NullString
			categoriesJSON string
		)
		if err := rows.Scan(&t.ID, &t.Account, &date, &amount, &categoriesJSON, &t.Kind, &t.Description); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		if date.Valid {
			if t.Date, err = core.ParseDate(date.String); err != nil {
				return nil, fmt.Errorf("transaction %q: %w", t.ID, err)
			}
		}
		if amount.Valid {
			d, err := decimal.NewFromString(amount.String)
			if err != nil {
				return nil, fmt.Errorf("transaction %q: %w: %v", t.ID, core.ErrInvalidAmount, err)
			}
			t.Amount = core.NewAmount(d)
		}
		if err := json.Unmarshal([]byte(categoriesJSON), &t.Categories); err != nil {
			return nil, fmt.Errorf("transaction %q categories: %w", t.ID, err)
		}
		if len(t.Categories) == 0 {
			t.Categories = nil
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

// RenderRecord is one row of render history.
type RenderRecord struct {
	ID         int64
	Account    string
	RenderedAt time.Time
	Day        decimal.Decimal
	Week       decimal.Decimal
	Month      decimal.Decimal
	Digest     string
}

// RecordRender appends rec to the history and returns its ID.
func (r *SQLiteRepository) RecordRender(ctx context.Context, rec RenderRecord) (int64, error) {
	if rec.RenderedAt.IsZero() {
		rec.RenderedAt = r.now()
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO renders (account, rendered_at, day, week, month, digest)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rec.Account, rec.RenderedAt.UTC().Format(timeLayout),
		rec.Day.String(), rec.Week.String(), rec.Month.String(), rec.Digest)
	if err != nil {
		return 0, fmt.Errorf("insert render: %w", err)
	}
	return res.LastInsertId()
}

// LastRender returns the most recent render of account, or ErrNotFound.
func (r *SQLiteRepository) LastRender(ctx context.Context, account string) (*RenderRecord, error) {
	var (
		rec              RenderRecord
		renderedAt       string
		day, week, month string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, account, rendered_at, day, week, month, digest
		FROM renders WHERE account = ?
		ORDER BY id DESC LIMIT 1`, account).
		Scan(&rec.ID, &rec.Account, &renderedAt, &day, &week, &month, &rec.Digest)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("last render of %q: %w", account, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query last render: %w", err)
	}

	if rec.RenderedAt, err = time.Parse(timeLayout, renderedAt); err != nil {
		return nil, fmt.Errorf("render %d time: %w", rec.ID, err)
	}
	for _, f := range []struct {
		dst *decimal.Decimal
		src string
	}{{&rec.Day, day}, {&rec.Week, week}, {&rec.Month, month}} {
		if *f.dst, err = decimal.NewFromString(f.src); err != nil {
			return nil, fmt.Errorf("render %d totals: %w", rec.ID, err)
		}
	}
	return &rec, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
