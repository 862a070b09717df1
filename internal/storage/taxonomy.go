package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"ledgerkit/internal/core"
	"ledgerkit/internal/ledger"
)

// Categories implements ledger.CategoryReader
func (r *SQLiteRepository) Categories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.id, c.name, c.group_id, c.is_income
		FROM categories c
		LEFT JOIN category_groups g ON g.id = c.group_id
		ORDER BY g.sort_order, g.rowid, c.sort_order, c.rowid`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.GroupID, &c.IsIncome); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CategoryGroups implements ledger.CategoryReader
func (r *SQLiteRepository) CategoryGroups(ctx context.Context) ([]core.CategoryGroup, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, is_income FROM category_groups ORDER BY sort_order, rowid`)
	if err != nil {
		return nil, fmt.Errorf("list category groups: %w", err)
	}
	defer rows.Close()

	var groups []core.CategoryGroup
	index := make(map[string]int)
	for rows.Next() {
		var g core.CategoryGroup
		if err := rows.Scan(&g.ID, &g.Name, &g.IsIncome); err != nil {
			return nil, fmt.Errorf("scan category group: %w", err)
		}
		index[g.ID] = len(groups)
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	cats, err := r.Categories(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range cats {
		if i, ok := index[c.GroupID]; ok {
			groups[i].Categories = append(groups[i].Categories, c)
		}
	}
	return groups, nil
}

// CreateCategory implements ledger.CategoryWriter
func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) (string, error) {
	if err := c.Validate(); err != nil {
		return "", err
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if err := r.requireGroup(ctx, c.GroupID); err != nil {
		return "", err
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO categories (id, name, group_id, is_income, sort_order)
		VALUES (?, ?, ?, ?, (SELECT COALESCE(MAX(sort_order), 0) + 1 FROM categories WHERE group_id = ?))`,
		c.ID, c.Name, c.GroupID, c.IsIncome, c.GroupID)
	if err != nil {
		return "", fmt.Errorf("create category: %w", err)
	}
	return c.ID, nil
}

// UpdateCategory implements ledger.CategoryWriter
func (r *SQLiteRepository) UpdateCategory(ctx context.Context, id string, u ledger.CategoryUpdate) error {
	if u.GroupID != nil {
		if err := r.requireGroup(ctx, *u.GroupID); err != nil {
			return err
		}
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE categories SET
			name      = COALESCE(?, name),
			group_id  = COALESCE(?, group_id),
			is_income = COALESCE(?, is_income)
		WHERE id = ?`,
		nullString(u.Name), nullString(u.GroupID), nullBool(u.IsIncome), id)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return expectOne(res, "category", id)
}

// DeleteCategory removes the category and uncategorizes its transactions.
func (r *SQLiteRepository) DeleteCategory(ctx context.Context, id string) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete category: %w", err)
		}
		if err := expectOne(res, "category", id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `UPDATE transactions SET category_id = '' WHERE category_id = ?`, id); err != nil {
			return fmt.Errorf("uncategorize transactions: %w", err)
		}
		return nil
	})
}

// CreateCategoryGroup implements ledger.CategoryWriter
func (r *SQLiteRepository) CreateCategoryGroup(ctx context.Context, g core.CategoryGroup) (string, error) {
	if err := g.Validate(); err != nil {
		return "", err
	}
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO category_groups (id, name, is_income, sort_order)
		VALUES (?, ?, ?, (SELECT COALESCE(MAX(sort_order), 0) + 1 FROM category_groups))`,
		g.ID, g.Name, g.IsIncome)
	if err != nil {
		return "", fmt.Errorf("create category group: %w", err)
	}
	return g.ID, nil
}

// UpdateCategoryGroup implements ledger.CategoryWriter
func (r *SQLiteRepository) UpdateCategoryGroup(ctx context.Context, id string, u ledger.CategoryGroupUpdate) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE category_groups SET
			name      = COALESCE(?, name),
			is_income = COALESCE(?, is_income)
		WHERE id = ?`,
		nullString(u.Name), nullBool(u.IsIncome), id)
	if err != nil {
		return fmt.Errorf("update category group: %w", err)
	}
	return expectOne(res, "category group", id)
}

// DeleteCategoryGroup refuses to delete a group that still has categories.
func (r *SQLiteRepository) DeleteCategoryGroup(ctx context.Context, id string) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		var n int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories WHERE group_id = ?`, id).Scan(&n); err != nil {
			return fmt.Errorf("count categories: %w", err)
		}
		if n > 0 {
			return fmt.Errorf("category group %s still has %d categories: %w", id, n, ledger.ErrConflict)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM category_groups WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete category group: %w", err)
		}
		return expectOne(res, "category group", id)
	})
}

func (r *SQLiteRepository) requireGroup(ctx context.Context, id string) error {
	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM category_groups WHERE id = ?)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("check category group: %w", err)
	}
	if !exists {
		return fmt.Errorf("category group %s: %w", id, ledger.ErrNotFound)
	}
	return nil
}

// Payees implements ledger.PayeeReader
func (r *SQLiteRepository) Payees(ctx context.Context) ([]core.Payee, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, transfer_acct FROM payees ORDER BY name COLLATE NOCASE`)
	if err != nil {
		return nil, fmt.Errorf("list payees: %w", err)
	}
	defer rows.Close()

	var out []core.Payee
	for rows.Next() {
		var p core.Payee
		if err := rows.Scan(&p.ID, &p.Name, &p.TransferAcct); err != nil {
			return nil, fmt.Errorf("scan payee: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// CreatePayee implements ledger.PayeeWriter
func (r *SQLiteRepository) CreatePayee(ctx context.Context, p core.Payee) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO payees (id, name, transfer_acct) VALUES (?, ?, ?)`, p.ID, p.Name, p.TransferAcct)
	if err != nil {
		return "", fmt.Errorf("create payee: %w", err)
	}
	return p.ID, nil
}

// UpdatePayee implements ledger.PayeeWriter
func (r *SQLiteRepository) UpdatePayee(ctx context.Context, id string, u ledger.PayeeUpdate) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE payees SET
			name          = COALESCE(?, name),
			transfer_acct = COALESCE(?, transfer_acct)
		WHERE id = ?`,
		nullString(u.Name), nullString(u.TransferAcct), id)
	if err != nil {
		return fmt.Errorf("update payee: %w", err)
	}
	return expectOne(res, "payee", id)
}

// DeletePayee removes the payee and clears it from transactions.
func (r *SQLiteRepository) DeletePayee(ctx context.Context, id string) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM payees WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete payee: %w", err)
		}
		if err := expectOne(res, "payee", id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `UPDATE transactions SET payee_id = '' WHERE payee_id = ?`, id); err != nil {
			return fmt.Errorf("clear payee from transactions: %w", err)
		}
		return nil
	})
}

// Rules implements ledger.RuleReader
func (r *SQLiteRepository) Rules(ctx context.Context) ([]core.Rule, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, stage, conditions_op, conditions, actions FROM rules ORDER BY created_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	defer rows.Close()

	var out []core.Rule
	for rows.Next() {
		var rule core.Rule
		var stage, conds, acts string
		if err := rows.Scan(&rule.ID, &stage, &rule.ConditionsOp, &conds, &acts); err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		rule.Stage = core.RuleStage(stage)
		rule.Conditions = json.RawMessage(conds)
		rule.Actions = json.RawMessage(acts)
		out = append(out, rule)
	}
	return out, rows.Err()
}

// CreateRule implements ledger.RuleWriter
func (r *SQLiteRepository) CreateRule(ctx context.Context, rule core.Rule) (string, error) {
	if err := rule.Validate(); err != nil {
		return "", err
	}
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO rules (id, stage, conditions_op, conditions, actions) VALUES (?, ?, ?, ?, ?)`,
		rule.ID, string(rule.Stage), rule.ConditionsOp, string(rule.Conditions), string(rule.Actions))
	if err != nil {
		return "", fmt.Errorf("create rule: %w", err)
	}
	return rule.ID, nil
}

// UpdateRule implements ledger.RuleWriter
func (r *SQLiteRepository) UpdateRule(ctx context.Context, rule core.Rule) error {
	if err := rule.Validate(); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE rules SET stage = ?, conditions_op = ?, conditions = ?, actions = ? WHERE id = ?`,
		string(rule.Stage), rule.ConditionsOp, string(rule.Conditions), string(rule.Actions), rule.ID)
	if err != nil {
		return fmt.Errorf("update rule: %w", err)
	}
	return expectOne(res, "rule", rule.ID)
}

// DeleteRule implements ledger.RuleWriter
func (r *SQLiteRepository) DeleteRule(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM rules WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete rule: %w", err)
	}
	return expectOne(res, "rule", id)
}
