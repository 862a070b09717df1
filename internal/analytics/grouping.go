package analytics

import (
	"sort"

	"ledgerkit/internal/core"
)

type (
	// CategoryNameFunc resolves a category id to a display name.
	CategoryNameFunc func(categoryID string) string

	// GroupInfoFunc resolves a category id to its group classification.
	GroupInfoFunc func(categoryID string) (core.CategoryGroupInfo, bool)
)

// CategoryTotals maps category ids to their spending, remembering the order
// in which categories were first seen.
type CategoryTotals struct {
	byID  map[string]*core.CategorySpending
	order []string
}

func newCategoryTotals() *CategoryTotals {
	return &CategoryTotals{byID: make(map[string]*core.CategorySpending)}
}

// Get returns the spending entry for a category id.
func (c *CategoryTotals) Get(id string) (core.CategorySpending, bool) {
	s, ok := c.byID[id]
	if !ok {
		return core.CategorySpending{}, false
	}
	return *s, true
}

func (c *CategoryTotals) Len() int {
	return len(c.order)
}

// List returns the entries in first-seen order.
func (c *CategoryTotals) List() []core.CategorySpending {
	out := make([]core.CategorySpending, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, *c.byID[id])
	}
	return out
}

// GroupByCategory accumulates signed transaction amounts per category.
//
// Uncategorized transactions are skipped. When includeIncome is false,
// transactions whose category classifies as income are skipped as well.
// A nil groupInfo, or one reporting a miss, falls back to UnknownGroupInfo.
func GroupByCategory(txns []core.Transaction, categoryName CategoryNameFunc, groupInfo GroupInfoFunc, includeIncome bool) *CategoryTotals {
	totals := newCategoryTotals()
	for _, t := range txns {
		if t.Category == "" {
			continue
		}

		info := UnknownGroupInfo
		if groupInfo != nil {
			if resolved, ok := groupInfo(t.Category); ok {
				info = resolved
			}
		}
		if info.IsIncome && !includeIncome {
			continue
		}

		entry, ok := totals.byID[t.Category]
		if !ok {
			name := UnknownCategoryName
			if categoryName != nil {
				name = categoryName(t.Category)
			}
			entry = &core.CategorySpending{
				ID:       t.Category,
				Name:     name,
				Group:    info.Name,
				IsIncome: info.IsIncome,
			}
			totals.byID[t.Category] = entry
			totals.order = append(totals.order, t.Category)
		}
		entry.Total += t.Amount
		entry.Transactions++
	}
	return totals
}

// AggregateAndSort folds categories into groups by group name and orders both
// levels by absolute total, largest first. Equal totals keep input order.
func AggregateAndSort(categories []core.CategorySpending) []core.GroupSpending {
	groups := make([]core.GroupSpending, 0)
	index := make(map[string]int)

	for _, c := range categories {
		i, ok := index[c.Group]
		if !ok {
			i = len(groups)
			index[c.Group] = i
			groups = append(groups, core.GroupSpending{Name: c.Group})
		}
		groups[i].Total += c.Total
		groups[i].Categories = append(groups[i].Categories, c)
	}

	for i := range groups {
		cats := groups[i].Categories
		sort.SliceStable(cats, func(a, b int) bool {
			return core.Abs(cats[a].Total) > core.Abs(cats[b].Total)
		})
	}
	sort.SliceStable(groups, func(a, b int) bool {
		return core.Abs(groups[a].Total) > core.Abs(groups[b].Total)
	})
	return groups
}
