package report

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"ledgerkit/internal/core"
)

// Period is an inclusive YYYY-MM-DD date range.
type Period struct {
	Start string
	End   string
}

// AccountLabel names the accounts a report covers.
func AccountLabel(accountName string) string {
	if accountName == "" {
		return "Accounts: All on-budget accounts"
	}
	return "Account: " + accountName
}

func monthLabel(ym core.YearMonth) string {
	return fmt.Sprintf("%s %d", ym.MonthName(), ym.Year)
}

func SpendingByCategory(groups []core.GroupSpending, period Period, accountLabel string, includeIncome bool) string {
	var b strings.Builder
	b.WriteString("# Spending by Category\n\n")
	fmt.Fprintf(&b, "Period: %s to %s\n\n", period.Start, period.End)
	fmt.Fprintf(&b, "%s\n\n", accountLabel)
	income := "Excluded"
	if includeIncome {
		income = "Included"
	}
	fmt.Fprintf(&b, "Income categories: %s\n\n", income)

	if len(groups) == 0 {
		b.WriteString("No categorized transactions in this period.\n")
		return b.String()
	}
	for _, g := range groups {
		fmt.Fprintf(&b, "## %s\n", g.Name)
		fmt.Fprintf(&b, "Total: %s\n\n", FormatCents(g.Total))
		b.WriteString("| Category | Amount | Transactions |\n")
		b.WriteString("| -------- | ------ | ------------ |\n")
		for _, c := range g.Categories {
			fmt.Fprintf(&b, "| %s | %s | %d |\n", cell(c.Name), FormatCents(c.Total), c.Transactions)
		}
		b.WriteString("\n")
	}
	return b.String()
}

var hundred = decimal.NewFromInt(100)

func MonthlySummary(months []core.MonthData, s core.MonthlySummary, period Period, accountLabel string) string {
	var b strings.Builder
	b.WriteString("# Monthly Financial Summary\n\n")
	fmt.Fprintf(&b, "Period: %s to %s\n\n", period.Start, period.End)
	fmt.Fprintf(&b, "%s\n\n", accountLabel)

	b.WriteString("## Monthly Breakdown\n\n")
	b.WriteString("| Month | Income | Regular Expenses | Investments | Traditional Savings | Total Savings | Total Savings Rate |\n")
	b.WriteString("| ----- | ------ | ---------------- | ----------- | ------------------- | ------------- | ------------------ |\n")
	for _, m := range months {
		traditional := m.Income - m.Expenses
		total := traditional + m.Investments
		rate := "N/A"
		if m.Income > 0 {
			rate = FormatPercent(decimal.NewFromInt(total).Mul(hundred).Div(decimal.NewFromInt(m.Income)))
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | %s |\n",
			monthLabel(m.YearMonth()),
			FormatCents(m.Income), FormatCents(m.Expenses), FormatCents(m.Investments),
			FormatCents(traditional), FormatCents(total), rate)
	}

	b.WriteString("\n## Averages\n\n")
	fmt.Fprintf(&b, "Average Monthly Income: %s\n", FormatDecimalCents(s.AvgIncome))
	fmt.Fprintf(&b, "Average Monthly Regular Expenses: %s\n", FormatDecimalCents(s.AvgExpenses))
	fmt.Fprintf(&b, "Average Monthly Investments: %s\n", FormatDecimalCents(s.AvgInvestments))
	fmt.Fprintf(&b, "Average Monthly Traditional Savings: %s\n", FormatDecimalCents(s.AvgTraditionalSavings))
	fmt.Fprintf(&b, "Average Monthly Total Savings: %s\n", FormatDecimalCents(s.AvgTotalSavings))
	fmt.Fprintf(&b, "Average Traditional Savings Rate: %s\n", FormatPercent(s.AvgTraditionalSavingsRate))
	fmt.Fprintf(&b, "Average Total Savings Rate: %s\n", FormatPercent(s.AvgTotalSavingsRate))

	b.WriteString("\n## Definitions\n\n")
	b.WriteString("* **Traditional Savings**: Income minus regular expenses (excluding investments)\n")
	b.WriteString("* **Total Savings**: Traditional savings plus investments\n")
	return b.String()
}

func changeLabel(change *int64) string {
	switch {
	case change == nil:
		return "N/A"
	case *change > 0:
		return "↑ " + FormatAmount(change)
	case *change < 0:
		return "↓ " + FormatAmount(change)
	default:
		return FormatAmount(change)
	}
}

// BalanceHistory renders one account's series. An empty accountName renders
// a multi-account series with an Account column, the month shown once.
func BalanceHistory(series []core.MonthBalance, period Period, accountName string) string {
	var b strings.Builder
	b.WriteString("# Balance History\n\n")
	if accountName != "" {
		fmt.Fprintf(&b, "Account: %s\n", accountName)
	}
	fmt.Fprintf(&b, "Period: %s to %s\n\n", period.Start, period.End)

	if accountName != "" {
		b.WriteString("| Month | End of Month Balance | Monthly Change | Transactions |\n")
		b.WriteString("| ----- | -------------------- | -------------- | ------------ |\n")
		for _, m := range series {
			fmt.Fprintf(&b, "| %s | %s | %s | %d |\n",
				monthLabel(m.YearMonth()), FormatCents(m.Balance), changeLabel(m.Change), m.Transactions)
		}
		return b.String()
	}

	b.WriteString("| Month | Account | End of Month Balance | Monthly Change | Transactions |\n")
	b.WriteString("| ----- | ------- | -------------------- | -------------- | ------------ |\n")
	var prev core.YearMonth
	for i, m := range series {
		month := ""
		if i == 0 || m.YearMonth() != prev {
			month = monthLabel(m.YearMonth())
			prev = m.YearMonth()
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %d |\n",
			month, cell(m.Account), FormatCents(m.Balance), changeLabel(m.Change), m.Transactions)
	}
	return b.String()
}

// TransactionFilter describes the filters applied to a transaction listing.
type TransactionFilter struct {
	Period       Period
	MinAmount    *decimal.Decimal
	MaxAmount    *decimal.Decimal
	CategoryName string
	PayeeName    string
}

func (f TransactionFilter) String() string {
	var parts []string
	if f.Period.Start != "" || f.Period.End != "" {
		parts = append(parts, fmt.Sprintf("Date range: %s to %s", f.Period.Start, f.Period.End))
	}
	if f.MinAmount != nil {
		parts = append(parts, "Min amount: $"+f.MinAmount.StringFixed(2))
	}
	if f.MaxAmount != nil {
		parts = append(parts, "Max amount: $"+f.MaxAmount.StringFixed(2))
	}
	if f.CategoryName != "" {
		parts = append(parts, "Category: "+f.CategoryName)
	}
	if f.PayeeName != "" {
		parts = append(parts, "Payee: "+f.PayeeName)
	}
	return strings.Join(parts, ", ")
}

func Transactions(txns []core.Transaction, filter TransactionFilter, matched, total int) string {
	var b strings.Builder
	b.WriteString("# Filtered Transactions\n\n")
	if desc := filter.String(); desc != "" {
		b.WriteString(desc + "\n")
	}
	fmt.Fprintf(&b, "Matching Transactions: %d/%d\n\n", matched, total)
	b.WriteString("| Date | Payee | Category | Amount | Notes |\n")
	b.WriteString("| ---- | ----- | -------- | ------ | ----- |\n")
	for _, t := range txns {
		payee := t.PayeeName
		if payee == "" {
			payee = "(No payee)"
		}
		category := t.CategoryName
		if category == "" {
			category = "(Uncategorized)"
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
			t.Date, cell(payee), cell(category), FormatCents(t.Amount), cell(t.Notes))
	}
	return b.String()
}

func accountStatus(a core.Account) string {
	switch {
	case a.Closed:
		return "Closed"
	case a.OffBudget:
		return "Off Budget"
	default:
		return "On Budget"
	}
}

func Accounts(accounts []core.Account) string {
	var b strings.Builder
	b.WriteString("# Accounts\n\n")
	if len(accounts) == 0 {
		b.WriteString("No accounts.\n")
		return b.String()
	}
	b.WriteString("| Name | ID | Type | Status | Balance |\n")
	b.WriteString("| ---- | -- | ---- | ------ | ------- |\n")
	for _, a := range accounts {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
			cell(a.Name), a.ID, cell(a.Type), accountStatus(a), FormatAmount(a.Balance))
	}
	return b.String()
}

func AccountDetails(a core.Account) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Account: %s\n\n", a.Name)
	fmt.Fprintf(&b, "ID: %s\n", a.ID)
	if a.Type != "" {
		fmt.Fprintf(&b, "Type: %s\n", a.Type)
	}
	fmt.Fprintf(&b, "Status: %s\n", accountStatus(a))
	fmt.Fprintf(&b, "Balance: %s\n", FormatAmount(a.Balance))
	return b.String()
}
