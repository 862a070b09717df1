package analytics

import (
	"sort"

	"github.com/shopspring/decimal"

	"ledgerkit/internal/core"
)

// AggregateMonthly buckets transactions by calendar month into income,
// regular expenses and investments.
//
// A transaction is income when its category is in income or its amount is
// positive; otherwise it is an investment when its category is in
// investments; otherwise an expense. Buckets hold absolute values. Pure
// transfers are skipped and not counted. Transactions whose date has no
// readable year and month are skipped too. The result is ordered oldest
// month first.
func AggregateMonthly(txns []core.Transaction, income, investments CategorySet) []core.MonthData {
	months := make(map[core.YearMonth]*core.MonthData)

	for _, t := range txns {
		if t.IsTransfer() {
			continue
		}
		ym, err := core.ParseYearMonth(t.Date)
		if err != nil {
			continue
		}

		m, ok := months[ym]
		if !ok {
			m = &core.MonthData{Year: ym.Year, Month: ym.Month}
			months[ym] = m
		}

		amount := core.Abs(t.Amount)
		switch {
		case income.Has(t.Category) || t.Amount > 0:
			m.Income += amount
		case investments.Has(t.Category):
			m.Investments += amount
		default:
			m.Expenses += amount
		}
		m.Transactions++
	}

	out := make([]core.MonthData, 0, len(months))
	for _, m := range months {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].YearMonth().Before(out[j].YearMonth())
	})
	return out
}

var hundred = decimal.NewFromInt(100)

// CalculateSummary averages the monthly buckets and derives the savings
// figures. Rates are 0 when average income is not positive, and every value
// is 0 for an empty input.
func CalculateSummary(months []core.MonthData) core.MonthlySummary {
	var income, expenses, investments int64
	for _, m := range months {
		income += m.Income
		expenses += m.Expenses
		investments += m.Investments
	}

	avg := func(total int64) decimal.Decimal {
		if len(months) == 0 {
			return decimal.Zero
		}
		return decimal.NewFromInt(total).DivRound(decimal.NewFromInt(int64(len(months))), 16)
	}

	s := core.MonthlySummary{
		AvgIncome:                 avg(income),
		AvgExpenses:               avg(expenses),
		AvgInvestments:            avg(investments),
		AvgTraditionalSavingsRate: decimal.Zero,
		AvgTotalSavingsRate:       decimal.Zero,
	}
	s.AvgTraditionalSavings = s.AvgIncome.Sub(s.AvgExpenses)
	s.AvgTotalSavings = s.AvgTraditionalSavings.Add(s.AvgInvestments)

	// Averages share the month count, so rates come from the exact totals.
	if income > 0 {
		s.AvgTraditionalSavingsRate = percentOf(income-expenses, income)
		s.AvgTotalSavingsRate = percentOf(income-expenses+investments, income)
	}
	return s
}

func percentOf(part, whole int64) decimal.Decimal {
	return decimal.NewFromInt(part).Mul(hundred).DivRound(decimal.NewFromInt(whole), 16)
}
