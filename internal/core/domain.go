package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const (
	RuleStagePre  RuleStage = "pre"
	RuleStagePost RuleStage = "post"

	ConditionsAnd = "and"
	ConditionsOr  = "or"
)

type (
	RuleStage string

	// Account is a ledger account. Balance is nil until it has been fetched.
	Account struct {
		ID        string `json:"id"`
		Name      string `json:"name"`
		Type      string `json:"type,omitempty"`
		OffBudget bool   `json:"offbudget"`
		Closed    bool   `json:"closed"`
		Balance   *int64 `json:"balance,omitempty"`
	}

	// Transaction amounts are signed cents: negative is an outflow.
	Transaction struct {
		ID           string `json:"id,omitempty"`
		Account      string `json:"account"`
		Date         string `json:"date"`
		Amount       int64  `json:"amount"`
		Payee        string `json:"payee,omitempty"`
		PayeeName    string `json:"payee_name,omitempty"`
		Category     string `json:"category,omitempty"`
		CategoryName string `json:"category_name,omitempty"`
		Notes        string `json:"notes,omitempty"`
		TransferID   string `json:"transfer_id,omitempty"`
		Cleared      bool   `json:"cleared"`
	}

	Category struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		GroupID  string `json:"group_id"`
		IsIncome bool   `json:"is_income"`
	}

	CategoryGroup struct {
		ID         string     `json:"id"`
		Name       string     `json:"name"`
		IsIncome   bool       `json:"is_income"`
		Categories []Category `json:"categories,omitempty"`
	}

	Payee struct {
		ID           string `json:"id"`
		Name         string `json:"name"`
		TransferAcct string `json:"transfer_acct,omitempty"`
	}

	// Rule is stored and returned as-is. Conditions and actions are never evaluated.
	Rule struct {
		ID           string          `json:"id"`
		Stage        RuleStage       `json:"stage,omitempty"`
		ConditionsOp string          `json:"conditionsOp"`
		Conditions   json.RawMessage `json:"conditions"`
		Actions      json.RawMessage `json:"actions"`
	}
)

var (
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyName        = errors.New("empty name")
	ErrEmptyAccount     = errors.New("empty account")
	ErrEmptyGroup       = errors.New("empty category group")
	ErrInvalidRuleStage = errors.New("invalid rule stage")
	ErrInvalidRule      = errors.New("invalid rule")
)

// IsTransfer reports whether t is a pure transfer between the user's own
// accounts. Transfers that carry a category are treated as regular spending.
func (t Transaction) IsTransfer() bool {
	return t.TransferID != "" && t.Category == ""
}

// OnBudget reports whether the account belongs in default aggregate views.
func (a Account) OnBudget() bool {
	return !a.OffBudget && !a.Closed
}

// BalanceOrZero returns the fetched balance, or 0 when it is unknown.
func (a Account) BalanceOrZero() int64 {
	if a.Balance == nil {
		return 0
	}
	return *a.Balance
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	if len(a.Name) > 200 {
		return errors.New("account name too long (max 200 characters)")
	}
	return nil
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.Account) == "" {
		return ErrEmptyAccount
	}
	if _, err := ParseDate(t.Date); err != nil {
		return err
	}
	if len(t.Notes) > 1000 {
		return errors.New("notes too long (max 1000 characters)")
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if strings.TrimSpace(c.GroupID) == "" {
		return ErrEmptyGroup
	}
	return nil
}

func (g CategoryGroup) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

func (p Payee) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

func (r Rule) Validate() error {
	switch r.Stage {
	case "", RuleStagePre, RuleStagePost:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidRuleStage, r.Stage)
	}
	switch r.ConditionsOp {
	case ConditionsAnd, ConditionsOr:
	default:
		return fmt.Errorf("%w: conditionsOp must be %q or %q", ErrInvalidRule, ConditionsAnd, ConditionsOr)
	}
	if err := requireJSONArray(r.Conditions, "conditions"); err != nil {
		return err
	}
	return requireJSONArray(r.Actions, "actions")
}

func requireJSONArray(raw json.RawMessage, field string) error {
	var items []json.RawMessage
	if len(raw) == 0 {
		return fmt.Errorf("%w: %s is required", ErrInvalidRule, field)
	}
	if err := json.Unmarshal(raw, &items); err != nil {
		return fmt.Errorf("%w: %s must be an array", ErrInvalidRule, field)
	}
	for i, item := range items {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(item, &obj); err != nil {
			return fmt.Errorf("%w: %s[%d] must be an object", ErrInvalidRule, field, i)
		}
		for _, key := range []string{"field", "op", "value"} {
			if _, ok := obj[key]; !ok {
				return fmt.Errorf("%w: %s[%d] is missing %q", ErrInvalidRule, field, i, key)
			}
		}
	}
	return nil
}
