// Package memory is an in-process ledger backend. It can be seeded from a
// YAML file and is what tests and local demos run against.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"ledgerkit/internal/core"
	"ledgerkit/internal/ledger"
)

type Store struct {
	mu           sync.RWMutex
	accounts     []core.Account
	groups       []core.CategoryGroup
	categories   []core.Category
	payees       []core.Payee
	rules        []core.Rule
	transactions []core.Transaction
	newID        func() string
}

var (
	_ ledger.Ledger = (*Store)(nil)
	_ ledger.Pinger = (*Store)(nil)
)

// Seed is the YAML document accepted by NewFromFile.
type Seed struct {
	Accounts     []SeedAccount     `yaml:"accounts"`
	Groups       []SeedGroup       `yaml:"groups"`
	Payees       []SeedPayee       `yaml:"payees"`
	Transactions []SeedTransaction `yaml:"transactions"`
	Rules        []SeedRule        `yaml:"rules"`
}

type SeedAccount struct {
	ID        string `yaml:"id"`
	Name      string `yaml:"name"`
	Type      string `yaml:"type"`
	OffBudget bool   `yaml:"offbudget"`
	Closed    bool   `yaml:"closed"`
}

type SeedGroup struct {
	ID         string         `yaml:"id"`
	Name       string         `yaml:"name"`
	IsIncome   bool           `yaml:"is_income"`
	Categories []SeedCategory `yaml:"categories"`
}

type SeedCategory struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	IsIncome bool   `yaml:"is_income"`
}

type SeedPayee struct {
	ID           string `yaml:"id"`
	Name         string `yaml:"name"`
	TransferAcct string `yaml:"transfer_acct"`
}

type SeedTransaction struct {
	ID         string `yaml:"id"`
	Account    string `yaml:"account"`
	Date       string `yaml:"date"`
	Amount     int64  `yaml:"amount"`
	Payee      string `yaml:"payee"`
	Category   string `yaml:"category"`
	Notes      string `yaml:"notes"`
	TransferID string `yaml:"transfer_id"`
	Cleared    bool   `yaml:"cleared"`
}

type SeedRule struct {
	ID           string `yaml:"id"`
	Stage        string `yaml:"stage"`
	ConditionsOp string `yaml:"conditionsOp"`
	Conditions   []any  `yaml:"conditions"`
	Actions      []any  `yaml:"actions"`
}

// New returns an empty store.
func New() *Store {
	return &Store{newID: uuid.NewString}
}

// NewFromSeed builds a store from an already decoded seed.
func NewFromSeed(seed Seed) (*Store, error) {
	s := New()
	for _, a := range seed.Accounts {
		s.accounts = append(s.accounts, core.Account{
			ID: s.idOr(a.ID), Name: a.Name, Type: a.Type, OffBudget: a.OffBudget, Closed: a.Closed,
		})
	}
	for _, g := range seed.Groups {
		group := core.CategoryGroup{ID: s.idOr(g.ID), Name: g.Name, IsIncome: g.IsIncome}
		s.groups = append(s.groups, group)
		for _, c := range g.Categories {
			s.categories = append(s.categories, core.Category{
				ID: s.idOr(c.ID), Name: c.Name, GroupID: group.ID, IsIncome: c.IsIncome || g.IsIncome,
			})
		}
	}
	for _, p := range seed.Payees {
		s.payees = append(s.payees, core.Payee{ID: s.idOr(p.ID), Name: p.Name, TransferAcct: p.TransferAcct})
	}
	for _, t := range seed.Transactions {
		txn := core.Transaction{
			ID: s.idOr(t.ID), Account: t.Account, Date: t.Date, Amount: t.Amount, Payee: t.Payee,
			Category: t.Category, Notes: t.Notes, TransferID: t.TransferID, Cleared: t.Cleared,
		}
		if err := txn.Validate(); err != nil {
			return nil, fmt.Errorf("seed transaction %s: %w", txn.ID, err)
		}
		s.transactions = append(s.transactions, txn)
	}
	for _, r := range seed.Rules {
		conds, err := json.Marshal(r.Conditions)
		if err != nil {
			return nil, fmt.Errorf("seed rule %s conditions: %w", r.ID, err)
		}
		acts, err := json.Marshal(r.Actions)
		if err != nil {
			return nil, fmt.Errorf("seed rule %s actions: %w", r.ID, err)
		}
		s.rules = append(s.rules, core.Rule{
			ID: s.idOr(r.ID), Stage: core.RuleStage(r.Stage), ConditionsOp: r.ConditionsOp,
			Conditions: conds, Actions: acts,
		})
	}
	return s, nil
}

// NewFromFile loads a YAML seed. An empty path yields the default taxonomy
// with no accounts.
func NewFromFile(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return NewFromSeed(DefaultSeed())
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ledger seed: %w", err)
	}
	var seed Seed
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return nil, fmt.Errorf("parse ledger seed: %w", err)
	}
	return NewFromSeed(seed)
}

// DefaultSeed is a minimal category taxonomy.
func DefaultSeed() Seed {
	return Seed{
		Groups: []SeedGroup{
			{ID: "income", Name: "Income", IsIncome: true, Categories: []SeedCategory{
				{ID: "salary", Name: "Salary"},
				{ID: "other-income", Name: "Other Income"},
			}},
			{ID: "living", Name: "Living", Categories: []SeedCategory{
				{ID: "rent", Name: "Rent"},
				{ID: "groceries", Name: "Groceries"},
				{ID: "utilities", Name: "Utilities"},
				{ID: "transport", Name: "Transport"},
			}},
			{ID: "lifestyle", Name: "Lifestyle", Categories: []SeedCategory{
				{ID: "restaurants", Name: "Restaurants"},
				{ID: "entertainment", Name: "Entertainment"},
			}},
			{ID: "savings", Name: "Investments & Savings", Categories: []SeedCategory{
				{ID: "brokerage", Name: "Brokerage"},
				{ID: "emergency-fund", Name: "Emergency Fund"},
			}},
		},
	}
}

func (s *Store) idOr(id string) string {
	if strings.TrimSpace(id) != "" {
		return id
	}
	return s.newID()
}

func (s *Store) Ping(_ context.Context) error { return nil }

func (s *Store) Accounts(_ context.Context) ([]core.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		bal := s.balanceLocked(a.ID)
		a.Balance = &bal
		out = append(out, a)
	}
	return out, nil
}

func (s *Store) AccountBalance(_ context.Context, accountID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.accountIndex(accountID) < 0 {
		return 0, fmt.Errorf("account %s: %w", accountID, ledger.ErrNotFound)
	}
	return s.balanceLocked(accountID), nil
}

func (s *Store) balanceLocked(accountID string) int64 {
	var total int64
	for _, t := range s.transactions {
		if t.Account == accountID {
			total += t.Amount
		}
	}
	return total
}

func (s *Store) Categories(_ context.Context) ([]core.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Category(nil), s.categories...), nil
}

func (s *Store) CategoryGroups(_ context.Context) ([]core.CategoryGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.CategoryGroup, 0, len(s.groups))
	for _, g := range s.groups {
		g.Categories = nil
		for _, c := range s.categories {
			if c.GroupID == g.ID {
				g.Categories = append(g.Categories, c)
			}
		}
		out = append(out, g)
	}
	return out, nil
}

// Transactions returns matches newest first.
func (s *Store) Transactions(_ context.Context, accountID, start, end string) ([]core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Transaction
	for _, t := range s.transactions {
		if t.Account != accountID {
			continue
		}
		if (start != "" && t.Date < start) || (end != "" && t.Date > end) {
			continue
		}
		t.PayeeName = s.payeeName(t.Payee)
		t.CategoryName = s.categoryName(t.Category)
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out, nil
}

func (s *Store) Payees(_ context.Context) ([]core.Payee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Payee(nil), s.payees...), nil
}

func (s *Store) Rules(_ context.Context) ([]core.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Rule(nil), s.rules...), nil
}

func (s *Store) CreateTransaction(_ context.Context, t core.Transaction) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.accountIndex(t.Account) < 0 {
		return "", fmt.Errorf("account %s: %w", t.Account, ledger.ErrNotFound)
	}
	t.ID = s.idOr(t.ID)
	t.PayeeName, t.CategoryName = "", ""
	s.transactions = append(s.transactions, t)
	return t.ID, nil
}

func (s *Store) UpdateTransaction(_ context.Context, id string, u ledger.TransactionUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.transactionIndex(id)
	if i < 0 {
		return fmt.Errorf("transaction %s: %w", id, ledger.ErrNotFound)
	}
	t := &s.transactions[i]
	if u.Category != nil {
		t.Category = *u.Category
	}
	if u.Payee != nil {
		t.Payee = *u.Payee
	}
	if u.Notes != nil {
		t.Notes = *u.Notes
	}
	if u.Amount != nil {
		t.Amount = *u.Amount
	}
	return nil
}

func (s *Store) DeleteTransaction(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.transactionIndex(id)
	if i < 0 {
		return fmt.Errorf("transaction %s: %w", id, ledger.ErrNotFound)
	}
	s.transactions = append(s.transactions[:i], s.transactions[i+1:]...)
	return nil
}

func (s *Store) CreateAccount(_ context.Context, a core.Account) (string, error) {
	if err := a.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = s.idOr(a.ID)
	a.Balance = nil
	s.accounts = append(s.accounts, a)
	return a.ID, nil
}

func (s *Store) UpdateAccount(_ context.Context, id string, u ledger.AccountUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.accountIndex(id)
	if i < 0 {
		return fmt.Errorf("account %s: %w", id, ledger.ErrNotFound)
	}
	a := &s.accounts[i]
	if u.Name != nil {
		a.Name = *u.Name
	}
	if u.Type != nil {
		a.Type = *u.Type
	}
	if u.OffBudget != nil {
		a.OffBudget = *u.OffBudget
	}
	return nil
}

func (s *Store) SetAccountClosed(_ context.Context, id string, closed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.accountIndex(id)
	if i < 0 {
		return fmt.Errorf("account %s: %w", id, ledger.ErrNotFound)
	}
	s.accounts[i].Closed = closed
	return nil
}

func (s *Store) CreateCategory(_ context.Context, c core.Category) (string, error) {
	if err := c.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.groupIndex(c.GroupID) < 0 {
		return "", fmt.Errorf("category group %s: %w", c.GroupID, ledger.ErrNotFound)
	}
	c.ID = s.idOr(c.ID)
	s.categories = append(s.categories, c)
	return c.ID, nil
}

func (s *Store) UpdateCategory(_ context.Context, id string, u ledger.CategoryUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.categoryIndex(id)
	if i < 0 {
		return fmt.Errorf("category %s: %w", id, ledger.ErrNotFound)
	}
	if u.GroupID != nil && s.groupIndex(*u.GroupID) < 0 {
		return fmt.Errorf("category group %s: %w", *u.GroupID, ledger.ErrNotFound)
	}
	c := &s.categories[i]
	if u.Name != nil {
		c.Name = *u.Name
	}
	if u.GroupID != nil {
		c.GroupID = *u.GroupID
	}
	if u.IsIncome != nil {
		c.IsIncome = *u.IsIncome
	}
	return nil
}

// DeleteCategory removes the category and uncategorizes its transactions.
func (s *Store) DeleteCategory(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.categoryIndex(id)
	if i < 0 {
		return fmt.Errorf("category %s: %w", id, ledger.ErrNotFound)
	}
	s.categories = append(s.categories[:i], s.categories[i+1:]...)
	for j := range s.transactions {
		if s.transactions[j].Category == id {
			s.transactions[j].Category = ""
		}
	}
	return nil
}

func (s *Store) CreateCategoryGroup(_ context.Context, g core.CategoryGroup) (string, error) {
	if err := g.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	g.ID = s.idOr(g.ID)
	g.Categories = nil
	s.groups = append(s.groups, g)
	return g.ID, nil
}

func (s *Store) UpdateCategoryGroup(_ context.Context, id string, u ledger.CategoryGroupUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.groupIndex(id)
	if i < 0 {
		return fmt.Errorf("category group %s: %w", id, ledger.ErrNotFound)
	}
	if u.Name != nil {
		s.groups[i].Name = *u.Name
	}
	if u.IsIncome != nil {
		s.groups[i].IsIncome = *u.IsIncome
	}
	return nil
}

// DeleteCategoryGroup refuses to delete a group that still has categories.
func (s *Store) DeleteCategoryGroup(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.groupIndex(id)
	if i < 0 {
		return fmt.Errorf("category group %s: %w", id, ledger.ErrNotFound)
	}
	for _, c := range s.categories {
		if c.GroupID == id {
			return fmt.Errorf("category group %s still has categories: %w", id, ledger.ErrConflict)
		}
	}
	s.groups = append(s.groups[:i], s.groups[i+1:]...)
	return nil
}

func (s *Store) CreatePayee(_ context.Context, p core.Payee) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.idOr(p.ID)
	s.payees = append(s.payees, p)
	return p.ID, nil
}

func (s *Store) UpdatePayee(_ context.Context, id string, u ledger.PayeeUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.payeeIndex(id)
	if i < 0 {
		return fmt.Errorf("payee %s: %w", id, ledger.ErrNotFound)
	}
	if u.Name != nil {
		s.payees[i].Name = *u.Name
	}
	if u.TransferAcct != nil {
		s.payees[i].TransferAcct = *u.TransferAcct
	}
	return nil
}

func (s *Store) DeletePayee(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.payeeIndex(id)
	if i < 0 {
		return fmt.Errorf("payee %s: %w", id, ledger.ErrNotFound)
	}
	s.payees = append(s.payees[:i], s.payees[i+1:]...)
	for j := range s.transactions {
		if s.transactions[j].Payee == id {
			s.transactions[j].Payee = ""
		}
	}
	return nil
}

func (s *Store) CreateRule(_ context.Context, r core.Rule) (string, error) {
	if err := r.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r.ID = s.idOr(r.ID)
	s.rules = append(s.rules, r)
	return r.ID, nil
}

func (s *Store) UpdateRule(_ context.Context, r core.Rule) error {
	if err := r.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.rules {
		if s.rules[i].ID == r.ID {
			s.rules[i] = r
			return nil
		}
	}
	return fmt.Errorf("rule %s: %w", r.ID, ledger.ErrNotFound)
}

func (s *Store) DeleteRule(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.rules {
		if s.rules[i].ID == id {
			s.rules = append(s.rules[:i], s.rules[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("rule %s: %w", id, ledger.ErrNotFound)
}

func (s *Store) payeeName(id string) string {
	if i := s.payeeIndex(id); i >= 0 {
		return s.payees[i].Name
	}
	return ""
}

func (s *Store) categoryName(id string) string {
	if i := s.categoryIndex(id); i >= 0 {
		return s.categories[i].Name
	}
	return ""
}

func (s *Store) accountIndex(id string) int {
	for i, a := range s.accounts {
		if a.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) transactionIndex(id string) int {
	for i, t := range s.transactions {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) categoryIndex(id string) int {
	if id == "" {
		return -1
	}
	for i, c := range s.categories {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) groupIndex(id string) int {
	for i, g := range s.groups {
		if g.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) payeeIndex(id string) int {
	if id == "" {
		return -1
	}
	for i, p := range s.payees {
		if p.ID == id {
			return i
		}
	}
	return -1
}
