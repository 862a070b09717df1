package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"ledgerkit/internal/analytics"
	"ledgerkit/internal/core"
	"ledgerkit/internal/ledger"
	"ledgerkit/internal/report"
)

func (r *Registry) registerReports() {
	r.register(Tool{
		Name:        "get-accounts",
		Description: "List all accounts with their current balances",
		InputSchema: object(nil),
		handler:     r.getAccounts,
	})
	r.register(Tool{
		Name:        "get-transactions",
		Description: "Get transactions for an account with optional filtering",
		InputSchema: object(map[string]Property{
			"accountId":    stringProp("ID of the account to list transactions for"),
			"startDate":    stringProp("Start date in YYYY-MM-DD format (default: 3 months ago)"),
			"endDate":      stringProp("End date in YYYY-MM-DD format (default: today)"),
			"minAmount":    numberProp("Minimum amount in dollars"),
			"maxAmount":    numberProp("Maximum amount in dollars"),
			"categoryName": stringProp("Filter by category name (case-insensitive substring)"),
			"payeeName":    stringProp("Filter by payee name (case-insensitive substring)"),
			"limit":        integerProp("Maximum number of transactions to return"),
		}, "accountId"),
		handler: r.getTransactions,
	})
	r.register(Tool{
		Name:        "spending-by-category",
		Description: "Get spending breakdown by category group and category for a date range",
		InputSchema: object(map[string]Property{
			"startDate":     stringProp("Start date in YYYY-MM-DD format (default: 3 months ago)"),
			"endDate":       stringProp("End date in YYYY-MM-DD format (default: today)"),
			"accountId":     stringProp("Limit to one account; all on-budget accounts when omitted"),
			"includeIncome": {Type: "boolean", Description: "Include income categories", Default: false},
		}),
		handler: r.spendingByCategory,
	})
	r.register(Tool{
		Name:        "monthly-summary",
		Description: "Get monthly income, expenses, investments and savings rates",
		InputSchema: object(map[string]Property{
			"months":    monthsProp("Number of months to include", r.summaryMonths, maxSummaryMonths),
			"accountId": stringProp("Limit to one account; all on-budget accounts when omitted"),
		}),
		handler: r.monthlySummary,
	})
	r.register(Tool{
		Name:        "balance-history",
		Description: "Get end-of-month account balances over time",
		InputSchema: object(map[string]Property{
			"accountId":        stringProp("ID of the account; all on-budget accounts when omitted"),
			"months":           monthsProp("Number of months to include", r.historyMonths, maxHistoryMonths),
			"includeOffBudget": {Type: "boolean", Description: "Include open off-budget accounts when no accountId is given", Default: false},
		}),
		handler: r.balanceHistory,
	})
	r.register(Tool{
		Name:        "get-grouped-categories",
		Description: "List category groups with their categories",
		InputSchema: object(nil),
		handler:     r.getGroupedCategories,
	})
	r.register(Tool{
		Name:        "get-payees",
		Description: "List all payees",
		InputSchema: object(nil),
		handler:     r.getPayees,
	})
	r.register(Tool{
		Name:        "get-rules",
		Description: "List all transaction rules",
		InputSchema: object(nil),
		handler:     r.getRules,
	})
}

type accountView struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Balance   string `json:"balance"`
	Closed    bool   `json:"closed"`
	OffBudget bool   `json:"offBudget"`
}

func (r *Registry) getAccounts(ctx context.Context, _ json.RawMessage) (Result, error) {
	accounts, err := r.ledger.Accounts(ctx)
	if err != nil {
		return Result{}, err
	}
	views := make([]accountView, 0, len(accounts))
	for _, a := range accounts {
		typ := a.Type
		if typ == "" {
			typ = "Account"
		}
		views = append(views, accountView{
			ID:        a.ID,
			Name:      a.Name,
			Type:      typ,
			Balance:   report.FormatAmount(a.Balance),
			Closed:    a.Closed,
			OffBudget: a.OffBudget,
		})
	}
	return jsonResult(views)
}

type getTransactionsArgs struct {
	AccountID    string           `json:"accountId"`
	StartDate    string           `json:"startDate"`
	EndDate      string           `json:"endDate"`
	MinAmount    *decimal.Decimal `json:"minAmount"`
	MaxAmount    *decimal.Decimal `json:"maxAmount"`
	CategoryName string           `json:"categoryName"`
	PayeeName    string           `json:"payeeName"`
	Limit        int              `json:"limit"`
}

func (r *Registry) getTransactions(ctx context.Context, raw json.RawMessage) (Result, error) {
	var args getTransactionsArgs
	if err := decode(raw, &args); err != nil {
		return Result{}, err
	}
	if err := requireString("accountId", args.AccountID); err != nil {
		return Result{}, err
	}
	if args.Limit < 0 {
		return Result{}, invalidf("limit must not be negative")
	}
	period, err := r.dateRange(args.StartDate, args.EndDate)
	if err != nil {
		return Result{}, err
	}

	txns, err := r.ledger.Transactions(ctx, args.AccountID, period.Start, period.End)
	if err != nil {
		return Result{}, err
	}

	filter := report.TransactionFilter{
		MinAmount:    args.MinAmount,
		MaxAmount:    args.MaxAmount,
		CategoryName: args.CategoryName,
		PayeeName:    args.PayeeName,
	}
	if args.StartDate != "" || args.EndDate != "" {
		filter.Period = period
	}
	filtered, err := filterTransactions(txns, filter)
	if err != nil {
		return Result{}, err
	}
	if args.Limit > 0 && len(filtered) > args.Limit {
		filtered = filtered[:args.Limit]
	}
	return textResult(report.Transactions(filtered, filter, len(filtered), len(txns))), nil
}

func filterTransactions(txns []core.Transaction, f report.TransactionFilter) ([]core.Transaction, error) {
	bound := func(d *decimal.Decimal, field string) (*int64, error) {
		if d == nil {
			return nil, nil
		}
		cents, err := core.DollarsToCents(*d)
		if err != nil {
			return nil, invalidf("%s: %v", field, err)
		}
		return &cents, nil
	}
	lo, err := bound(f.MinAmount, "minAmount")
	if err != nil {
		return nil, err
	}
	hi, err := bound(f.MaxAmount, "maxAmount")
	if err != nil {
		return nil, err
	}
	category := strings.ToLower(f.CategoryName)
	payee := strings.ToLower(f.PayeeName)

	out := make([]core.Transaction, 0, len(txns))
	for _, t := range txns {
		if lo != nil && t.Amount < *lo {
			continue
		}
		if hi != nil && t.Amount > *hi {
			continue
		}
		if category != "" && !strings.Contains(strings.ToLower(t.CategoryName), category) {
			continue
		}
		if payee != "" && !strings.Contains(strings.ToLower(t.PayeeName), payee) {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

// snapshot is the reference data every aggregate report starts from.
type snapshot struct {
	accounts []core.Account
	mapper   *analytics.CategoryMapper
}

func (r *Registry) loadSnapshot(ctx context.Context) (snapshot, error) {
	var (
		accounts []core.Account
		tax      ledger.Taxonomy
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		accounts, err = r.ledger.Accounts(gctx)
		if err != nil {
			return fmt.Errorf("fetch accounts: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		tax, err = ledger.FetchTaxonomy(gctx, r.ledger)
		return err
	})
	if err := g.Wait(); err != nil {
		return snapshot{}, err
	}
	return snapshot{
		accounts: accounts,
		mapper:   analytics.NewCategoryMapper(tax.Categories, tax.Groups),
	}, nil
}

// scope picks the accounts a report covers: the named one, or every
// on-budget account.
func (s snapshot) scope(accountID string) ([]core.Account, string, error) {
	if accountID == "" {
		return ledger.OnBudget(s.accounts), report.AccountLabel(""), nil
	}
	a, ok := ledger.FindAccount(s.accounts, accountID)
	if !ok {
		return nil, "", accountNotFound(accountID)
	}
	return []core.Account{a}, report.AccountLabel(a.Name), nil
}

func accountNotFound(id string) error {
	return fmt.Errorf("account with ID %s %w", id, ledger.ErrNotFound)
}

type spendingArgs struct {
	StartDate     string `json:"startDate"`
	EndDate       string `json:"endDate"`
	AccountID     string `json:"accountId"`
	IncludeIncome bool   `json:"includeIncome"`
}

func (r *Registry) spendingByCategory(ctx context.Context, raw json.RawMessage) (Result, error) {
	var args spendingArgs
	if err := decode(raw, &args); err != nil {
		return Result{}, err
	}
	period, err := r.dateRange(args.StartDate, args.EndDate)
	if err != nil {
		return Result{}, err
	}

	snap, err := r.loadSnapshot(ctx)
	if err != nil {
		return Result{}, err
	}
	accounts, label, err := snap.scope(args.AccountID)
	if err != nil {
		return Result{}, err
	}
	txns, err := ledger.FetchTransactions(ctx, r.ledger, accounts, period.Start, period.End)
	if err != nil {
		return Result{}, err
	}

	totals := analytics.GroupByCategory(txns, snap.mapper.CategoryName, snap.mapper.GroupInfo, args.IncludeIncome)
	groups := analytics.AggregateAndSort(totals.List())
	return textResult(report.SpendingByCategory(groups, period, label, args.IncludeIncome)), nil
}

type monthlySummaryArgs struct {
	Months    *int   `json:"months"`
	AccountID string `json:"accountId"`
}

func (r *Registry) monthlySummary(ctx context.Context, raw json.RawMessage) (Result, error) {
	var args monthlySummaryArgs
	if err := decode(raw, &args); err != nil {
		return Result{}, err
	}
	months, err := monthsArg(args.Months, r.summaryMonths, maxSummaryMonths)
	if err != nil {
		return Result{}, err
	}
	today := r.today()
	period := report.Period{
		Start: today.YearMonth().Add(-(months - 1)).FirstDay().String(),
		End:   today.String(),
	}

	snap, err := r.loadSnapshot(ctx)
	if err != nil {
		return Result{}, err
	}
	accounts, label, err := snap.scope(args.AccountID)
	if err != nil {
		return Result{}, err
	}
	txns, err := ledger.FetchTransactions(ctx, r.ledger, accounts, period.Start, period.End)
	if err != nil {
		return Result{}, err
	}

	data := analytics.AggregateMonthly(txns, snap.mapper.IncomeCategories(), snap.mapper.InvestmentCategories())
	summary := analytics.CalculateSummary(data)
	return textResult(report.MonthlySummary(data, summary, period, label)), nil
}

type balanceHistoryArgs struct {
	AccountID        string `json:"accountId"`
	Months           *int   `json:"months"`
	IncludeOffBudget bool   `json:"includeOffBudget"`
}

func (r *Registry) balanceHistory(ctx context.Context, raw json.RawMessage) (Result, error) {
	var args balanceHistoryArgs
	if err := decode(raw, &args); err != nil {
		return Result{}, err
	}
	months, err := monthsArg(args.Months, r.historyMonths, maxHistoryMonths)
	if err != nil {
		return Result{}, err
	}
	today := r.today()
	period := report.Period{Start: today.AddMonths(-months).String(), End: today.String()}
	fetchFrom := today.YearMonth().Add(-(months - 1)).FirstDay().String()

	accounts, err := r.ledger.Accounts(ctx)
	if err != nil {
		return Result{}, err
	}

	if args.AccountID != "" {
		account, ok := ledger.FindAccount(accounts, args.AccountID)
		if !ok {
			return Result{}, accountNotFound(args.AccountID)
		}
		balance, err := r.ledger.AccountBalance(ctx, account.ID)
		if err != nil {
			return Result{}, err
		}
		txns, err := r.ledger.Transactions(ctx, account.ID, fetchFrom, period.End)
		if err != nil {
			return Result{}, err
		}
		series := analytics.AccountBalanceHistory(balance, txns, months, today)
		return textResult(report.BalanceHistory(series, period, account.Name)), nil
	}

	selected := ledger.OnBudget(accounts)
	if args.IncludeOffBudget {
		selected = ledger.Open(accounts)
	}
	txns, err := ledger.FetchTransactions(ctx, r.ledger, selected, fetchFrom, period.End)
	if err != nil {
		return Result{}, err
	}
	series := analytics.AllAccountsBalanceHistory(selected, txns, months, today)
	return textResult(report.BalanceHistory(series, period, "")), nil
}

func (r *Registry) getGroupedCategories(ctx context.Context, _ json.RawMessage) (Result, error) {
	groups, err := r.ledger.CategoryGroups(ctx)
	if err != nil {
		return Result{}, err
	}
	if groups == nil {
		groups = []core.CategoryGroup{}
	}
	return jsonResult(groups)
}

func (r *Registry) getPayees(ctx context.Context, _ json.RawMessage) (Result, error) {
	payees, err := r.ledger.Payees(ctx)
	if err != nil {
		return Result{}, err
	}
	if payees == nil {
		payees = []core.Payee{}
	}
	return jsonResult(payees)
}

func (r *Registry) getRules(ctx context.Context, _ json.RawMessage) (Result, error) {
	rules, err := r.ledger.Rules(ctx)
	if err != nil {
		return Result{}, err
	}
	if rules == nil {
		rules = []core.Rule{}
	}
	return jsonResult(rules)
}
