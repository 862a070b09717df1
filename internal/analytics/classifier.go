// Package analytics turns raw ledger data into spending, monthly and balance
// aggregates. Every function here is pure: callers fetch the data, analytics
// only folds it, and nothing is cached between calls.
package analytics

import (
	"strings"

	"ledgerkit/internal/core"
)

const (
	UnknownCategoryName = "Unknown Category"
	UnknownGroupName    = "Unknown Group"
)

// UnknownGroupInfo is the classification used when a category cannot be
// joined to a group: not income, not savings.
var UnknownGroupInfo = core.CategoryGroupInfo{Name: UnknownGroupName}

// CategorySet is a set of category ids.
type CategorySet map[string]struct{}

func NewCategorySet(ids ...string) CategorySet {
	s := make(CategorySet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s CategorySet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// CategoryMapper resolves category ids to names and group classification.
type CategoryMapper struct {
	categoryNames map[string]string
	groupNames    map[string]string
	groupInfo     map[string]core.CategoryGroupInfo
	investment    CategorySet
	income        CategorySet
}

// NewCategoryMapper builds the lookup tables from complete category and
// group lists.
func NewCategoryMapper(categories []core.Category, groups []core.CategoryGroup) *CategoryMapper {
	m := &CategoryMapper{
		categoryNames: make(map[string]string, len(categories)),
		groupNames:    make(map[string]string, len(groups)),
		groupInfo:     make(map[string]core.CategoryGroupInfo, len(categories)),
		investment:    make(CategorySet),
		income:        make(CategorySet),
	}
	for _, g := range groups {
		m.groupNames[g.ID] = g.Name
	}
	for _, c := range categories {
		m.categoryNames[c.ID] = c.Name

		groupName, ok := m.groupNames[c.GroupID]
		if !ok {
			groupName = UnknownGroupName
		}
		info := core.CategoryGroupInfo{
			ID:                    c.GroupID,
			Name:                  groupName,
			IsIncome:              c.IsIncome,
			IsSavingsOrInvestment: isSavingsOrInvestmentGroup(groupName),
		}
		m.groupInfo[c.ID] = info
		if info.IsSavingsOrInvestment {
			m.investment[c.ID] = struct{}{}
		}
		if info.IsIncome {
			m.income[c.ID] = struct{}{}
		}
	}
	return m
}

func isSavingsOrInvestmentGroup(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "investment") || strings.Contains(lower, "savings")
}

// CategoryName returns the category's name or UnknownCategoryName.
func (m *CategoryMapper) CategoryName(id string) string {
	if name, ok := m.categoryNames[id]; ok {
		return name
	}
	return UnknownCategoryName
}

// GroupName returns the group's name or UnknownGroupName.
func (m *CategoryMapper) GroupName(groupID string) string {
	if name, ok := m.groupNames[groupID]; ok {
		return name
	}
	return UnknownGroupName
}

// GroupInfo returns the classification of a category. ok is false for
// unknown category ids.
func (m *CategoryMapper) GroupInfo(id string) (core.CategoryGroupInfo, bool) {
	info, ok := m.groupInfo[id]
	return info, ok
}

// GroupInfoOrUnknown is GroupInfo with UnknownGroupInfo as the fallback.
func (m *CategoryMapper) GroupInfoOrUnknown(id string) core.CategoryGroupInfo {
	if info, ok := m.groupInfo[id]; ok {
		return info
	}
	return UnknownGroupInfo
}

func (m *CategoryMapper) IsInvestmentCategory(id string) bool {
	return m.investment.Has(id)
}

// InvestmentCategories returns the ids of categories in savings or
// investment groups.
func (m *CategoryMapper) InvestmentCategories() CategorySet {
	return copySet(m.investment)
}

// IncomeCategories returns the ids of categories flagged as income.
func (m *CategoryMapper) IncomeCategories() CategorySet {
	return copySet(m.income)
}

func copySet(s CategorySet) CategorySet {
	out := make(CategorySet, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}
