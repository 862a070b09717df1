package analytics

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledgerkit/internal/core"
)

func TestAggregateMonthly_ScenarioC(t *testing.T) {
	txns := []core.Transaction{
		{Date: "2024-01-10", Amount: 2500, Category: "income-cat"},
		{Date: "2024-01-11", Amount: -300, Category: "groceries-cat"},
		{Date: "2024-01-12", Amount: -500, TransferID: "t1"},
	}
	got := AggregateMonthly(txns, NewCategorySet("income-cat"), NewCategorySet())

	require.Len(t, got, 1)
	assert.Equal(t, core.MonthData{Year: 2024, Month: 1, Income: 2500, Expenses: 300, Transactions: 2}, got[0])
}

func TestAggregateMonthly_Classification(t *testing.T) {
	income := NewCategorySet("salary")
	invest := NewCategorySet("brokerage")
	txns := []core.Transaction{
		{Date: "2024-03-01", Amount: -100, Category: "salary"},    // income set wins over sign
		{Date: "2024-03-02", Amount: 40, Category: "groceries"},   // positive amount is income
		{Date: "2024-03-03", Amount: 70, Category: "brokerage"},   // positive beats investment set
		{Date: "2024-03-04", Amount: -250, Category: "brokerage"}, // investment
		{Date: "2024-03-05", Amount: -60, Category: "groceries"},  // expense
		{Date: "2024-03-06", Amount: -15},                         // uncategorized expense
		{Date: "2024-03-07", Amount: -80, TransferID: "t", Category: "groceries"},
	}
	got := AggregateMonthly(txns, income, invest)

	require.Len(t, got, 1)
	assert.Equal(t, int64(100+40+70), got[0].Income)
	assert.Equal(t, int64(250), got[0].Investments)
	assert.Equal(t, int64(60+15+80), got[0].Expenses)
	assert.Equal(t, 7, got[0].Transactions)
}

func TestAggregateMonthly_TransferNeutral(t *testing.T) {
	got := AggregateMonthly([]core.Transaction{
		{Date: "2024-05-01", Amount: 1000, TransferID: "t1"},
		{Date: "2024-05-01", Amount: -1000, TransferID: "t1"},
	}, NewCategorySet(), NewCategorySet())
	assert.Empty(t, got)
}

func TestAggregateMonthly_MonthBoundariesAndOrder(t *testing.T) {
	txns := []core.Transaction{
		{Date: "2024-02-01", Amount: -1},
		{Date: "2023-12-31", Amount: -2},
		{Date: "2024-01-31", Amount: -3},
		{Date: "2024-01-01", Amount: -4},
		{Date: "not-a-date", Amount: -5},
	}
	got := AggregateMonthly(txns, nil, nil)

	require.Len(t, got, 3)
	assert.Equal(t, core.MonthData{Year: 2023, Month: 12, Expenses: 2, Transactions: 1}, got[0])
	assert.Equal(t, core.MonthData{Year: 2024, Month: 1, Expenses: 7, Transactions: 2}, got[1])
	assert.Equal(t, core.MonthData{Year: 2024, Month: 2, Expenses: 1, Transactions: 1}, got[2])
}

func TestCalculateSummary(t *testing.T) {
	months := []core.MonthData{
		{Year: 2024, Month: 1, Income: 400000, Expenses: 250000, Investments: 50000},
		{Year: 2024, Month: 2, Income: 200000, Expenses: 150000, Investments: 0},
	}
	s := CalculateSummary(months)

	assert.True(t, s.AvgIncome.Equal(decimal.NewFromInt(300000)))
	assert.True(t, s.AvgExpenses.Equal(decimal.NewFromInt(200000)))
	assert.True(t, s.AvgInvestments.Equal(decimal.NewFromInt(25000)))
	assert.True(t, s.AvgTraditionalSavings.Equal(decimal.NewFromInt(100000)))
	assert.True(t, s.AvgTotalSavings.Equal(decimal.NewFromInt(125000)))
	assert.Equal(t, "33.33", s.AvgTraditionalSavingsRate.StringFixed(2))
	assert.Equal(t, "41.67", s.AvgTotalSavingsRate.StringFixed(2))
}

func TestCalculateSummary_ZeroGuards(t *testing.T) {
	empty := CalculateSummary(nil)
	for _, v := range []decimal.Decimal{
		empty.AvgIncome, empty.AvgExpenses, empty.AvgInvestments,
		empty.AvgTraditionalSavings, empty.AvgTotalSavings,
		empty.AvgTraditionalSavingsRate, empty.AvgTotalSavingsRate,
	} {
		assert.True(t, v.IsZero())
	}

	noIncome := CalculateSummary([]core.MonthData{{Year: 2024, Month: 1, Expenses: 5000, Investments: 1000}})
	assert.True(t, noIncome.AvgTraditionalSavingsRate.IsZero())
	assert.True(t, noIncome.AvgTotalSavingsRate.IsZero())
	assert.True(t, noIncome.AvgTraditionalSavings.Equal(decimal.NewFromInt(-5000)))
}

func TestCalculateSummary_ExactAverages(t *testing.T) {
	s := CalculateSummary([]core.MonthData{
		{Income: 100}, {Income: 100}, {Income: 101},
	})
	assert.Equal(t, "100.33", s.AvgIncome.StringFixed(2))
	assert.True(t, s.AvgTraditionalSavingsRate.Equal(decimal.NewFromInt(100)))
}
