// Package storage is the SQLite ledger backend. The schema is managed by
// embedded golang-migrate migrations and ids are UUIDs.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"ledgerkit/internal/core"
	"ledgerkit/internal/ledger"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

var (
	_ ledger.Ledger = (*SQLiteRepository)(nil)
	_ ledger.Pinger = (*SQLiteRepository)(nil)

	_ ledger.TransferCloser = (*SQLiteRepository)(nil)
)

func NewSQLiteRepository(ctx context.Context, dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite serialises writers; one connection avoids SQLITE_BUSY churn.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	slog.InfoContext(ctx, "SQLite ledger ready", "path", dbPath)
	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Accounts implements ledger.AccountReader
func (r *SQLiteRepository) Accounts(ctx context.Context) ([]core.Account, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT a.id, a.name, a.type, a.offbudget, a.closed, COALESCE(SUM(t.amount), 0)
		FROM accounts a
		LEFT JOIN transactions t ON t.account_id = a.id
		GROUP BY a.id
		ORDER BY a.created_at, a.rowid`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var out []core.Account
	for rows.Next() {
		var a core.Account
		var balance int64
		if err := rows.Scan(&a.ID, &a.Name, &a.Type, &a.OffBudget, &a.Closed, &balance); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		a.Balance = &balance
		out = append(out, a)
	}
	return out, rows.Err()
}

// AccountBalance implements ledger.AccountReader
func (r *SQLiteRepository) AccountBalance(ctx context.Context, accountID string) (int64, error) {
	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM accounts WHERE id = ?)`, accountID).Scan(&exists); err != nil {
		return 0, fmt.Errorf("check account: %w", err)
	}
	if !exists {
		return 0, fmt.Errorf("account %s: %w", accountID, ledger.ErrNotFound)
	}

	var balance int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE account_id = ?`, accountID).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("account balance: %w", err)
	}
	return balance, nil
}

// CreateAccount implements ledger.AccountWriter
func (r *SQLiteRepository) CreateAccount(ctx context.Context, a core.Account) (string, error) {
	if err := a.Validate(); err != nil {
		return "", err
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (id, name, type, offbudget, closed) VALUES (?, ?, ?, ?, ?)`,
		a.ID, a.Name, a.Type, a.OffBudget, a.Closed)
	if err != nil {
		return "", fmt.Errorf("create account: %w", err)
	}
	slog.InfoContext(ctx, "Account saved to SQLite", "id", a.ID, "name", a.Name)
	return a.ID, nil
}

// UpdateAccount implements ledger.AccountWriter
func (r *SQLiteRepository) UpdateAccount(ctx context.Context, id string, u ledger.AccountUpdate) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE accounts SET
			name      = COALESCE(?, name),
			type      = COALESCE(?, type),
			offbudget = COALESCE(?, offbudget)
		WHERE id = ?`,
		nullString(u.Name), nullString(u.Type), nullBool(u.OffBudget), id)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	return expectOne(res, "account", id)
}

// SetAccountClosed implements ledger.AccountWriter
func (r *SQLiteRepository) SetAccountClosed(ctx context.Context, id string, closed bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE accounts SET closed = ? WHERE id = ?`, closed, id)
	if err != nil {
		return fmt.Errorf("set account closed: %w", err)
	}
	return expectOne(res, "account", id)
}

func expectOne(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s %s: rows affected: %w", kind, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, ledger.ErrNotFound)
	}
	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullBool(b *bool) sql.NullBool {
	if b == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *b, Valid: true}
}

func nullInt(i *int64) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *i, Valid: true}
}

func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		return errors.Join(err, tx.Rollback())
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
