package google

import (
	"fmt"
	"strconv"
	"strings"

	"ledgerkit/internal/core"
)

// Tab layouts. Columns are located by header name, case-insensitively, so
// extra or reordered columns are tolerated.
var (
	accountHeaders     = []string{"ID", "Name", "Type", "OffBudget", "Closed"}
	groupHeaders       = []string{"ID", "Name", "IsIncome"}
	categoryHeaders    = []string{"ID", "Name", "GroupID", "IsIncome"}
	payeeHeaders       = []string{"ID", "Name", "TransferAcct"}
	transactionHeaders = []string{"ID", "Account", "Date", "Amount", "Payee", "Category", "Notes", "TransferID", "Cleared"}
)

// table is a values matrix with its header row resolved.
type table struct {
	cols map[string]int
	rows [][]string
}

func newTable(values [][]any, required ...string) (table, error) {
	if len(values) == 0 {
		return table{cols: map[string]int{}}, nil
	}
	headers := toStrings(values[0])
	t := table{cols: make(map[string]int, len(headers))}
	for i, h := range headers {
		key := strings.ToLower(h)
		if _, dup := t.cols[key]; !dup && key != "" {
			t.cols[key] = i
		}
	}
	var missing []string
	for _, h := range required {
		if _, ok := t.cols[strings.ToLower(h)]; !ok {
			missing = append(missing, h)
		}
	}
	if len(missing) > 0 {
		return table{}, fmt.Errorf("unexpected header: missing %s; got headers=%v", strings.Join(missing, ","), headers)
	}
	for _, row := range values[1:] {
		t.rows = append(t.rows, toStrings(row))
	}
	return t, nil
}

func (t table) get(row []string, header string) string {
	i, ok := t.cols[strings.ToLower(header)]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

func parseAccounts(values [][]any) ([]core.Account, error) {
	t, err := newTable(values, "ID", "Name")
	if err != nil {
		return nil, fmt.Errorf("accounts: %w", err)
	}
	var out []core.Account
	for _, row := range t.rows {
		a := core.Account{
			ID:        t.get(row, "ID"),
			Name:      t.get(row, "Name"),
			Type:      t.get(row, "Type"),
			OffBudget: parseBool(t.get(row, "OffBudget")),
			Closed:    parseBool(t.get(row, "Closed")),
		}
		if a.ID == "" {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func parseGroups(values [][]any) ([]core.CategoryGroup, error) {
	t, err := newTable(values, "ID", "Name")
	if err != nil {
		return nil, fmt.Errorf("groups: %w", err)
	}
	var out []core.CategoryGroup
	for _, row := range t.rows {
		g := core.CategoryGroup{
			ID:       t.get(row, "ID"),
			Name:     t.get(row, "Name"),
			IsIncome: parseBool(t.get(row, "IsIncome")),
		}
		if g.ID == "" {
			continue
		}
		out = append(out, g)
	}
	return out, nil
}

// parseCategories reads the Categories tab. A blank IsIncome cell inherits
// the flag of the category's group.
func parseCategories(values [][]any, groups []core.CategoryGroup) ([]core.Category, error) {
	t, err := newTable(values, "ID", "Name", "GroupID")
	if err != nil {
		return nil, fmt.Errorf("categories: %w", err)
	}
	groupIncome := make(map[string]bool, len(groups))
	for _, g := range groups {
		groupIncome[g.ID] = g.IsIncome
	}
	var out []core.Category
	for _, row := range t.rows {
		c := core.Category{
			ID:      t.get(row, "ID"),
			Name:    t.get(row, "Name"),
			GroupID: t.get(row, "GroupID"),
		}
		if c.ID == "" {
			continue
		}
		if raw := t.get(row, "IsIncome"); raw != "" {
			c.IsIncome = parseBool(raw)
		} else {
			c.IsIncome = groupIncome[c.GroupID]
		}
		out = append(out, c)
	}
	return out, nil
}

func parsePayees(values [][]any) ([]core.Payee, error) {
	t, err := newTable(values, "ID", "Name")
	if err != nil {
		return nil, fmt.Errorf("payees: %w", err)
	}
	var out []core.Payee
	for _, row := range t.rows {
		p := core.Payee{
			ID:           t.get(row, "ID"),
			Name:         t.get(row, "Name"),
			TransferAcct: t.get(row, "TransferAcct"),
		}
		if p.ID == "" {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// parseTransactions reads the Transactions tab. Amounts are dollars. Rows
// without a readable date or amount are skipped and counted.
func parseTransactions(values [][]any) ([]core.Transaction, int, error) {
	t, err := newTable(values, "ID", "Account", "Date", "Amount")
	if err != nil {
		return nil, 0, fmt.Errorf("transactions: %w", err)
	}
	var out []core.Transaction
	skipped := 0
	for _, row := range t.rows {
		txn := core.Transaction{
			ID:         t.get(row, "ID"),
			Account:    t.get(row, "Account"),
			Date:       t.get(row, "Date"),
			Payee:      t.get(row, "Payee"),
			Category:   t.get(row, "Category"),
			Notes:      t.get(row, "Notes"),
			TransferID: t.get(row, "TransferID"),
			Cleared:    parseBool(t.get(row, "Cleared")),
		}
		if txn.ID == "" && txn.Account == "" {
			continue
		}
		cents, err := parseDollarsToCents(t.get(row, "Amount"))
		if err != nil {
			skipped++
			continue
		}
		txn.Amount = cents
		if _, err := core.ParseDate(txn.Date); err != nil {
			skipped++
			continue
		}
		out = append(out, txn)
	}
	return out, skipped, nil
}

func transactionRow(t core.Transaction) []any {
	return []any{
		t.ID, t.Account, t.Date, core.Money{Cents: t.Amount}.Dollars().StringFixed(2),
		t.Payee, t.Category, t.Notes, t.TransferID, t.Cleared,
	}
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		switch x := v.(type) {
		case float64:
			out[i] = strconv.FormatFloat(x, 'f', -1, 64)
		default:
			out[i] = strings.TrimSpace(fmt.Sprint(v))
		}
	}
	return out
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "y", "1", "x":
		return true
	}
	return false
}

// parseDollarsToCents accepts "12.34", "-12,34", "$1234.50" and "-$5".
func parseDollarsToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	s = strings.TrimPrefix(s, "$")
	cents, err := core.ParseDecimalToCents(s)
	if err != nil {
		return 0, err
	}
	if neg {
		cents = -cents
	}
	return cents, nil
}
