package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"ledgerkit/internal/core"
	"ledgerkit/internal/ledger"
)

// Transactions implements ledger.TransactionReader. Empty bounds are open.
func (r *SQLiteRepository) Transactions(ctx context.Context, accountID, start, end string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT t.id, t.account_id, t.date, t.amount, t.payee_id, COALESCE(p.name, ''),
		       t.category_id, COALESCE(c.name, ''), t.notes, t.transfer_id, t.cleared
		FROM transactions t
		LEFT JOIN payees p ON p.id = t.payee_id
		LEFT JOIN categories c ON c.id = t.category_id
		WHERE t.account_id = ?
		  AND (? = '' OR t.date >= ?)
		  AND (? = '' OR t.date <= ?)
		ORDER BY t.date DESC, t.created_at DESC, t.rowid DESC`,
		accountID, start, start, end, end)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var t core.Transaction
		if err := rows.Scan(&t.ID, &t.Account, &t.Date, &t.Amount, &t.Payee, &t.PayeeName,
			&t.Category, &t.CategoryName, &t.Notes, &t.TransferID, &t.Cleared); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// CreateTransaction implements ledger.TransactionWriter
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM accounts WHERE id = ?)`, t.Account).Scan(&exists); err != nil {
		return "", fmt.Errorf("check account: %w", err)
	}
	if !exists {
		return "", fmt.Errorf("account %s: %w", t.Account, ledger.ErrNotFound)
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (id, account_id, date, amount, payee_id, category_id, notes, transfer_id, cleared)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Account, t.Date, t.Amount, t.Payee, t.Category, t.Notes, t.TransferID, t.Cleared)
	if err != nil {
		return "", fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", t.ID,
		"account_id", t.Account,
		"date", t.Date,
		"amount_cents", t.Amount)
	return t.ID, nil
}

// UpdateTransaction implements ledger.TransactionWriter
func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, id string, u ledger.TransactionUpdate) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions SET
			category_id = COALESCE(?, category_id),
			payee_id    = COALESCE(?, payee_id),
			notes       = COALESCE(?, notes),
			amount      = COALESCE(?, amount)
		WHERE id = ?`,
		nullString(u.Category), nullString(u.Payee), nullString(u.Notes), nullInt(u.Amount), id)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return expectOne(res, "transaction", id)
}

// DeleteTransaction implements ledger.TransactionWriter
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return expectOne(res, "transaction", id)
}

// CloseWithTransfer implements ledger.TransferCloser: the legs and the close
// commit together or not at all.
func (r *SQLiteRepository) CloseWithTransfer(ctx context.Context, id string, legs []core.Transaction) ([]string, error) {
	ids := make([]string, 0, len(legs))
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE accounts SET closed = 1 WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("close account: %w", err)
		}
		if err := expectOne(res, "account", id); err != nil {
			return err
		}
		for _, t := range legs {
			if err := t.Validate(); err != nil {
				return err
			}
			if t.ID == "" {
				t.ID = uuid.NewString()
			}
			_, err := tx.ExecContext(ctx, `
				INSERT INTO transactions (id, account_id, date, amount, payee_id, category_id, notes, transfer_id, cleared)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				t.ID, t.Account, t.Date, t.Amount, t.Payee, t.Category, t.Notes, t.TransferID, t.Cleared)
			if err != nil {
				return fmt.Errorf("create transfer leg: %w", err)
			}
			ids = append(ids, t.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "Account closed with transfer", "account_id", id, "legs", len(ids))
	return ids, nil
}
