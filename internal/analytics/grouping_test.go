package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledgerkit/internal/core"
)

func scenarioTransactions() []core.Transaction {
	return []core.Transaction{
		{Account: "a", Date: "2024-01-05", Amount: -100, Category: "cat1"},
		{Account: "a", Date: "2024-01-06", Amount: -50, Category: "cat1"},
		{Account: "a", Date: "2024-01-07", Amount: -800, Category: "cat2"},
		{Account: "a", Date: "2024-01-08", Amount: 2000, Category: "cat3"},
	}
}

func groupScenario(t *testing.T, includeIncome bool) []core.GroupSpending {
	t.Helper()
	categories, groups := scenarioTaxonomy()
	m := NewCategoryMapper(categories, groups)
	totals := GroupByCategory(scenarioTransactions(), m.CategoryName, m.GroupInfo, includeIncome)
	return AggregateAndSort(totals.List())
}

func TestScenarioA_IncomeExcluded(t *testing.T) {
	got := groupScenario(t, false)

	require.Len(t, got, 1)
	assert.Equal(t, "Living", got[0].Name)
	assert.Equal(t, int64(-950), got[0].Total)
	require.Len(t, got[0].Categories, 2)
	assert.Equal(t, "Rent", got[0].Categories[0].Name)
	assert.Equal(t, int64(-800), got[0].Categories[0].Total)
	assert.Equal(t, "Food", got[0].Categories[1].Name)
	assert.Equal(t, int64(-150), got[0].Categories[1].Total)
	assert.Equal(t, 2, got[0].Categories[1].Transactions)
}

func TestScenarioB_IncomeIncluded(t *testing.T) {
	got := groupScenario(t, true)

	require.Len(t, got, 2)
	assert.Equal(t, "Income", got[0].Name)
	assert.Equal(t, int64(2000), got[0].Total)
	assert.Equal(t, "Living", got[1].Name)
	assert.Equal(t, int64(-950), got[1].Total)
}

func TestGroupByCategory_SkipsUncategorized(t *testing.T) {
	txns := []core.Transaction{
		{Amount: -500},
		{Amount: 900},
		{Amount: -10, Category: "c"},
	}
	totals := GroupByCategory(txns, func(string) string { return "C" }, nil, false)

	assert.Equal(t, 1, totals.Len())
	got, ok := totals.Get("c")
	require.True(t, ok)
	assert.Equal(t, int64(-10), got.Total)
	assert.Equal(t, UnknownGroupName, got.Group)
	_, ok = totals.Get("")
	assert.False(t, ok)
}

func TestGroupByCategory_UnknownCategoryDefaults(t *testing.T) {
	m := NewCategoryMapper(nil, nil)
	totals := GroupByCategory([]core.Transaction{{Amount: -1, Category: "ghost"}}, m.CategoryName, m.GroupInfo, false)

	got, ok := totals.Get("ghost")
	require.True(t, ok)
	assert.Equal(t, UnknownCategoryName, got.Name)
	assert.Equal(t, UnknownGroupName, got.Group)
	assert.False(t, got.IsIncome)
}

func TestGroupByCategory_IncomeToggleOnlyAdds(t *testing.T) {
	categories, groups := scenarioTaxonomy()
	m := NewCategoryMapper(categories, groups)

	without := GroupByCategory(scenarioTransactions(), m.CategoryName, m.GroupInfo, false)
	with := GroupByCategory(scenarioTransactions(), m.CategoryName, m.GroupInfo, true)

	for _, c := range without.List() {
		other, ok := with.Get(c.ID)
		require.True(t, ok, "category %s disappeared", c.ID)
		assert.Equal(t, c, other)
	}
	assert.Greater(t, with.Len(), without.Len())
}

func TestGroupByCategory_OrderDoesNotAffectTotals(t *testing.T) {
	categories, groups := scenarioTaxonomy()
	m := NewCategoryMapper(categories, groups)

	txns := scenarioTransactions()
	reversed := make([]core.Transaction, len(txns))
	for i, t := range txns {
		reversed[len(txns)-1-i] = t
	}

	a := GroupByCategory(txns, m.CategoryName, m.GroupInfo, true)
	b := GroupByCategory(reversed, m.CategoryName, m.GroupInfo, true)
	for _, c := range a.List() {
		other, ok := b.Get(c.ID)
		require.True(t, ok)
		assert.Equal(t, c.Total, other.Total)
		assert.Equal(t, c.Transactions, other.Transactions)
	}
}

func TestAggregateAndSort_Empty(t *testing.T) {
	assert.Empty(t, AggregateAndSort(nil))
}

func TestAggregateAndSort_Single(t *testing.T) {
	c := core.CategorySpending{ID: "c", Name: "C", Group: "G", Total: -42, Transactions: 1}
	got := AggregateAndSort([]core.CategorySpending{c})

	require.Len(t, got, 1)
	assert.Equal(t, core.GroupSpending{Name: "G", Total: -42, Categories: []core.CategorySpending{c}}, got[0])
}

func TestAggregateAndSort_OrderAndTies(t *testing.T) {
	in := []core.CategorySpending{
		{ID: "a", Name: "A", Group: "G1", Total: -100},
		{ID: "b", Name: "B", Group: "G2", Total: 300},
		{ID: "c", Name: "C", Group: "G1", Total: 100},
		{ID: "d", Name: "D", Group: "G3", Total: -300},
		{ID: "e", Name: "E", Group: "G1", Total: -250},
	}
	got := AggregateAndSort(in)

	require.Len(t, got, 3)
	// G2 and G3 tie on |300|; G2 was seen first.
	assert.Equal(t, []string{"G2", "G3", "G1"}, []string{got[0].Name, got[1].Name, got[2].Name})
	assert.Equal(t, int64(-250), got[2].Total)

	names := make([]string, 0, 3)
	for _, c := range got[2].Categories {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"E", "A", "C"}, names)

	var groupSum, catSum int64
	for i, g := range got {
		groupSum += g.Total
		if i > 0 {
			assert.GreaterOrEqual(t, core.Abs(got[i-1].Total), core.Abs(g.Total))
		}
	}
	for _, c := range in {
		catSum += c.Total
	}
	assert.Equal(t, catSum, groupSum)
}
