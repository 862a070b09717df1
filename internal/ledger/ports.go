// Package ledger defines the ports through which the rest of the system
// reads and mutates the external ledger, plus the helpers shared by every
// backend: the lazy connection guard and parallel transaction fetching.
package ledger

import (
	"context"
	"errors"

	"ledgerkit/internal/core"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrUnsupported = errors.New("operation not supported by this ledger backend")
	ErrConflict    = errors.New("conflict")
)

// Read ports.
type (
	// AccountReader lists accounts. Accounts returns balances filled in.
	AccountReader interface {
		Accounts(ctx context.Context) ([]core.Account, error)
		AccountBalance(ctx context.Context, accountID string) (int64, error)
	}

	// CategoryReader lists the category taxonomy. CategoryGroups returns each
	// group with its categories nested.
	CategoryReader interface {
		Categories(ctx context.Context) ([]core.Category, error)
		CategoryGroups(ctx context.Context) ([]core.CategoryGroup, error)
	}

	// TransactionReader returns the transactions of one account dated between
	// start and end inclusive (YYYY-MM-DD), with payee and category names
	// resolved.
	TransactionReader interface {
		Transactions(ctx context.Context, accountID, start, end string) ([]core.Transaction, error)
	}

	PayeeReader interface {
		Payees(ctx context.Context) ([]core.Payee, error)
	}

	RuleReader interface {
		Rules(ctx context.Context) ([]core.Rule, error)
	}

	Reader interface {
		AccountReader
		CategoryReader
		TransactionReader
		PayeeReader
		RuleReader
	}
)

// Partial updates: nil fields are left untouched.
type (
	TransactionUpdate struct {
		Category *string
		Payee    *string
		Notes    *string
		Amount   *int64
	}

	AccountUpdate struct {
		Name      *string
		Type      *string
		OffBudget *bool
	}

	CategoryUpdate struct {
		Name     *string
		GroupID  *string
		IsIncome *bool
	}

	CategoryGroupUpdate struct {
		Name     *string
		IsIncome *bool
	}

	PayeeUpdate struct {
		Name         *string
		TransferAcct *string
	}
)

// Write ports.
type (
	TransactionWriter interface {
		CreateTransaction(ctx context.Context, t core.Transaction) (string, error)
		UpdateTransaction(ctx context.Context, id string, u TransactionUpdate) error
		DeleteTransaction(ctx context.Context, id string) error
	}

	AccountWriter interface {
		CreateAccount(ctx context.Context, a core.Account) (string, error)
		UpdateAccount(ctx context.Context, id string, u AccountUpdate) error
		SetAccountClosed(ctx context.Context, id string, closed bool) error
	}

	CategoryWriter interface {
		CreateCategory(ctx context.Context, c core.Category) (string, error)
		UpdateCategory(ctx context.Context, id string, u CategoryUpdate) error
		DeleteCategory(ctx context.Context, id string) error
		CreateCategoryGroup(ctx context.Context, g core.CategoryGroup) (string, error)
		UpdateCategoryGroup(ctx context.Context, id string, u CategoryGroupUpdate) error
		DeleteCategoryGroup(ctx context.Context, id string) error
	}

	PayeeWriter interface {
		CreatePayee(ctx context.Context, p core.Payee) (string, error)
		UpdatePayee(ctx context.Context, id string, u PayeeUpdate) error
		DeletePayee(ctx context.Context, id string) error
	}

	RuleWriter interface {
		CreateRule(ctx context.Context, r core.Rule) (string, error)
		UpdateRule(ctx context.Context, r core.Rule) error
		DeleteRule(ctx context.Context, id string) error
	}

	Writer interface {
		TransactionWriter
		AccountWriter
		CategoryWriter
		PayeeWriter
		RuleWriter
	}

	// Ledger is everything a backend provides.
	Ledger interface {
		Reader
		Writer
	}
)

// Pinger is implemented by backends that can report their health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// TransferCloser is implemented by backends that can post a closing
// transfer and close the account in one atomic write. It returns the ids of
// the created legs.
type TransferCloser interface {
	CloseWithTransfer(ctx context.Context, id string, legs []core.Transaction) ([]string, error)
}
