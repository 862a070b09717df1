package core

import "github.com/shopspring/decimal"

// CategoryGroupInfo is the classification of a category derived from its group.
type CategoryGroupInfo struct {
	ID                    string `json:"id"`
	Name                  string `json:"name"`
	IsIncome              bool   `json:"isIncome"`
	IsSavingsOrInvestment bool   `json:"isSavingsOrInvestment"`
}

// CategorySpending is the running total of one category over a period.
type CategorySpending struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Group        string `json:"group"`
	IsIncome     bool   `json:"isIncome"`
	Total        int64  `json:"total"`
	Transactions int    `json:"transactions"`
}

// GroupSpending rolls up the categories sharing a group name.
type GroupSpending struct {
	Name       string             `json:"name"`
	Total      int64              `json:"total"`
	Categories []CategorySpending `json:"categories"`
}

// MonthData holds the non-negative income, expense and investment magnitudes
// of one calendar month.
type MonthData struct {
	Year         int   `json:"year"`
	Month        int   `json:"month"`
	Income       int64 `json:"income"`
	Expenses     int64 `json:"expenses"`
	Investments  int64 `json:"investments"`
	Transactions int   `json:"transactions"`
}

func (m MonthData) YearMonth() YearMonth {
	return YearMonth{Year: m.Year, Month: m.Month}
}

// MonthlySummary holds period averages in cents and rates in percentage
// points. Values are exact; rounding is left to presentation.
type MonthlySummary struct {
	AvgIncome                 decimal.Decimal `json:"avgIncome"`
	AvgExpenses               decimal.Decimal `json:"avgExpenses"`
	AvgInvestments            decimal.Decimal `json:"avgInvestments"`
	AvgTraditionalSavings     decimal.Decimal `json:"avgTraditionalSavings"`
	AvgTotalSavings           decimal.Decimal `json:"avgTotalSavings"`
	AvgTraditionalSavingsRate decimal.Decimal `json:"avgTraditionalSavingsRate"`
	AvgTotalSavingsRate       decimal.Decimal `json:"avgTotalSavingsRate"`
}

// MonthBalance is the reconstructed end-of-month balance of one account.
// Change is nil for the earliest month of a series.
type MonthBalance struct {
	Year         int    `json:"year"`
	Month        int    `json:"month"`
	Balance      int64  `json:"balance"`
	Transactions int    `json:"transactions"`
	Change       *int64 `json:"change,omitempty"`
	Account      string `json:"account,omitempty"`
}

func (m MonthBalance) YearMonth() YearMonth {
	return YearMonth{Year: m.Year, Month: m.Month}
}
