package ledger

import (
	"context"
	"io"
	"sync"

	"golang.org/x/sync/singleflight"

	"ledgerkit/internal/core"
)

// OpenFunc connects to a ledger backend.
type OpenFunc func(ctx context.Context) (Ledger, error)

// Lazy opens its ledger on first use. Concurrent first callers share one
// open attempt; a failed attempt is not remembered, so the next call retries.
type Lazy struct {
	open  OpenFunc
	group singleflight.Group

	mu     sync.RWMutex
	ledger Ledger
}

var (
	_ Ledger         = (*Lazy)(nil)
	_ TransferCloser = (*Lazy)(nil)
)

func NewLazy(open OpenFunc) *Lazy {
	return &Lazy{open: open}
}

// Get returns the open ledger, connecting if needed. Cancelling ctx stops
// the wait but not an open already in flight for other callers.
func (l *Lazy) Get(ctx context.Context) (Ledger, error) {
	if lg := l.current(); lg != nil {
		return lg, nil
	}

	ch := l.group.DoChan("open", func() (any, error) {
		if lg := l.current(); lg != nil {
			return lg, nil
		}
		lg, err := l.open(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		l.mu.Lock()
		l.ledger = lg
		l.mu.Unlock()
		return lg, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(Ledger), nil
	}
}

func (l *Lazy) current() Ledger {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.ledger
}

// Ping connects if needed and forwards to the backend when it supports it.
func (l *Lazy) Ping(ctx context.Context) error {
	lg, err := l.Get(ctx)
	if err != nil {
		return err
	}
	if p, ok := lg.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Close closes the underlying ledger if it was opened.
func (l *Lazy) Close() error {
	l.mu.Lock()
	lg := l.ledger
	l.ledger = nil
	l.mu.Unlock()
	if c, ok := lg.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (l *Lazy) Accounts(ctx context.Context) ([]core.Account, error) {
	lg, err := l.Get(ctx)
	if err != nil {
		return nil, err
	}
	return lg.Accounts(ctx)
}

func (l *Lazy) AccountBalance(ctx context.Context, accountID string) (int64, error) {
	lg, err := l.Get(ctx)
	if err != nil {
		return 0, err
	}
	return lg.AccountBalance(ctx, accountID)
}

func (l *Lazy) Categories(ctx context.Context) ([]core.Category, error) {
	lg, err := l.Get(ctx)
	if err != nil {
		return nil, err
	}
	return lg.Categories(ctx)
}

func (l *Lazy) CategoryGroups(ctx context.Context) ([]core.CategoryGroup, error) {
	lg, err := l.Get(ctx)
	if err != nil {
		return nil, err
	}
	return lg.CategoryGroups(ctx)
}

func (l *Lazy) Transactions(ctx context.Context, accountID, start, end string) ([]core.Transaction, error) {
	lg, err := l.Get(ctx)
	if err != nil {
		return nil, err
	}
	return lg.Transactions(ctx, accountID, start, end)
}

func (l *Lazy) Payees(ctx context.Context) ([]core.Payee, error) {
	lg, err := l.Get(ctx)
	if err != nil {
		return nil, err
	}
	return lg.Payees(ctx)
}

func (l *Lazy) Rules(ctx context.Context) ([]core.Rule, error) {
	lg, err := l.Get(ctx)
	if err != nil {
		return nil, err
	}
	return lg.Rules(ctx)
}

func (l *Lazy) CreateTransaction(ctx context.Context, t core.Transaction) (string, error) {
	lg, err := l.Get(ctx)
	if err != nil {
		return "", err
	}
	return lg.CreateTransaction(ctx, t)
}

func (l *Lazy) UpdateTransaction(ctx context.Context, id string, u TransactionUpdate) error {
	lg, err := l.Get(ctx)
	if err != nil {
		return err
	}
	return lg.UpdateTransaction(ctx, id, u)
}

func (l *Lazy) DeleteTransaction(ctx context.Context, id string) error {
	lg, err := l.Get(ctx)
	if err != nil {
		return err
	}
	return lg.DeleteTransaction(ctx, id)
}

func (l *Lazy) CreateAccount(ctx context.Context, a core.Account) (string, error) {
	lg, err := l.Get(ctx)
	if err != nil {
		return "", err
	}
	return lg.CreateAccount(ctx, a)
}

func (l *Lazy) UpdateAccount(ctx context.Context, id string, u AccountUpdate) error {
	lg, err := l.Get(ctx)
	if err != nil {
		return err
	}
	return lg.UpdateAccount(ctx, id, u)
}

func (l *Lazy) SetAccountClosed(ctx context.Context, id string, closed bool) error {
	lg, err := l.Get(ctx)
	if err != nil {
		return err
	}
	return lg.SetAccountClosed(ctx, id, closed)
}

// CloseWithTransfer forwards to the backend, or fails with ErrUnsupported
// when the backend cannot close atomically.
func (l *Lazy) CloseWithTransfer(ctx context.Context, id string, legs []core.Transaction) ([]string, error) {
	lg, err := l.Get(ctx)
	if err != nil {
		return nil, err
	}
	tc, ok := lg.(TransferCloser)
	if !ok {
		return nil, ErrUnsupported
	}
	return tc.CloseWithTransfer(ctx, id, legs)
}

func (l *Lazy) CreateCategory(ctx context.Context, c core.Category) (string, error) {
	lg, err := l.Get(ctx)
	if err != nil {
		return "", err
	}
	return lg.CreateCategory(ctx, c)
}

func (l *Lazy) UpdateCategory(ctx context.Context, id string, u CategoryUpdate) error {
	lg, err := l.Get(ctx)
	if err != nil {
		return err
	}
	return lg.UpdateCategory(ctx, id, u)
}

func (l *Lazy) DeleteCategory(ctx context.Context, id string) error {
	lg, err := l.Get(ctx)
	if err != nil {
		return err
	}
	return lg.DeleteCategory(ctx, id)
}

func (l *Lazy) CreateCategoryGroup(ctx context.Context, g core.CategoryGroup) (string, error) {
	lg, err := l.Get(ctx)
	if err != nil {
		return "", err
	}
	return lg.CreateCategoryGroup(ctx, g)
}

func (l *Lazy) UpdateCategoryGroup(ctx context.Context, id string, u CategoryGroupUpdate) error {
	lg, err := l.Get(ctx)
	if err != nil {
		return err
	}
	return lg.UpdateCategoryGroup(ctx, id, u)
}

func (l *Lazy) DeleteCategoryGroup(ctx context.Context, id string) error {
	lg, err := l.Get(ctx)
	if err != nil {
		return err
	}
	return lg.DeleteCategoryGroup(ctx, id)
}

func (l *Lazy) CreatePayee(ctx context.Context, p core.Payee) (string, error) {
	lg, err := l.Get(ctx)
	if err != nil {
		return "", err
	}
	return lg.CreatePayee(ctx, p)
}

func (l *Lazy) UpdatePayee(ctx context.Context, id string, u PayeeUpdate) error {
	lg, err := l.Get(ctx)
	if err != nil {
		return err
	}
	return lg.UpdatePayee(ctx, id, u)
}

func (l *Lazy) DeletePayee(ctx context.Context, id string) error {
	lg, err := l.Get(ctx)
	if err != nil {
		return err
	}
	return lg.DeletePayee(ctx, id)
}

func (l *Lazy) CreateRule(ctx context.Context, r core.Rule) (string, error) {
	lg, err := l.Get(ctx)
	if err != nil {
		return "", err
	}
	return lg.CreateRule(ctx, r)
}

func (l *Lazy) UpdateRule(ctx context.Context, r core.Rule) error {
	lg, err := l.Get(ctx)
	if err != nil {
		return err
	}
	return lg.UpdateRule(ctx, r)
}

func (l *Lazy) DeleteRule(ctx context.Context, id string) error {
	lg, err := l.Get(ctx)
	if err != nil {
		return err
	}
	return lg.DeleteRule(ctx, id)
}
