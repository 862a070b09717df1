package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ledgerkit/internal/amqp"
	"ledgerkit/internal/core"
	"ledgerkit/internal/ledger"
	"ledgerkit/internal/log"
)

// Entity kinds carried by mutation events.
const (
	EntityTransaction   = "transaction"
	EntityAccount       = "account"
	EntityCategory      = "category"
	EntityCategoryGroup = "category_group"
	EntityPayee         = "payee"
	EntityRule          = "rule"
)

var (
	// ErrBalanceRemaining is returned when closing an account that still
	// holds money and no transfer account was named.
	ErrBalanceRemaining = errors.New("account has a non-zero balance")
	ErrInvalidTransfer  = errors.New("invalid transfer account")
)

// EventPublisher is satisfied by *amqp.Client.
type EventPublisher interface {
	Publish(ctx context.Context, ev amqp.LedgerEvent) error
}

// LedgerService applies mutations to the ledger and announces each committed
// one as a LedgerEvent. Publishing is best effort: a failed publish is logged
// and never fails the mutation.
type LedgerService struct {
	ledger ledger.Ledger
	events EventPublisher
	log    *log.StructuredLogger
	now    func() time.Time
}

// NewLedgerService wires a service; events and logger may be nil.
func NewLedgerService(l ledger.Ledger, events EventPublisher, logger *log.Logger) *LedgerService {
	if logger == nil {
		logger = log.Discard()
	}
	return &LedgerService{
		ledger: l,
		events: events,
		log:    log.NewStructuredLogger(logger),
		now:    time.Now,
	}
}

func (s *LedgerService) published(ctx context.Context, op, entity, id string) {
	s.log.LogMutation(ctx, op, entity, id)
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, amqp.NewLedgerEvent(op, entity, id)); err != nil {
		s.log.LogError(ctx, "Failed to publish ledger event", err, log.ComponentAMQP, log.OpPublish,
			log.NewFields().WithEntity(entity, id))
	}
}

func (s *LedgerService) CreateTransaction(ctx context.Context, t core.Transaction) (string, error) {
	id, err := s.ledger.CreateTransaction(ctx, t)
	if err != nil {
		return "", fmt.Errorf("create transaction: %w", err)
	}
	s.published(ctx, amqp.OpCreate, EntityTransaction, id)
	return id, nil
}

func (s *LedgerService) UpdateTransaction(ctx context.Context, id string, u ledger.TransactionUpdate) error {
	if err := s.ledger.UpdateTransaction(ctx, id, u); err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	s.published(ctx, amqp.OpUpdate, EntityTransaction, id)
	return nil
}

func (s *LedgerService) DeleteTransaction(ctx context.Context, id string) error {
	if err := s.ledger.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	s.published(ctx, amqp.OpDelete, EntityTransaction, id)
	return nil
}

// CreateAccount creates the account and, for a non-zero initialBalance, a
// cleared starting-balance transaction dated today.
func (s *LedgerService) CreateAccount(ctx context.Context, a core.Account, initialBalance int64) (string, error) {
	id, err := s.ledger.CreateAccount(ctx, a)
	if err != nil {
		return "", fmt.Errorf("create account: %w", err)
	}
	s.published(ctx, amqp.OpCreate, EntityAccount, id)

	if initialBalance != 0 {
		_, err := s.CreateTransaction(ctx, core.Transaction{
			Account: id,
			Date:    core.DateOf(s.now()).String(),
			Amount:  initialBalance,
			Notes:   "Starting balance",
			Cleared: true,
		})
		if err != nil {
			return id, fmt.Errorf("starting balance: %w", err)
		}
	}
	return id, nil
}

func (s *LedgerService) UpdateAccount(ctx context.Context, id string, u ledger.AccountUpdate) error {
	if err := s.ledger.UpdateAccount(ctx, id, u); err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	s.published(ctx, amqp.OpUpdate, EntityAccount, id)
	return nil
}

type CloseOptions struct {
	// TransferAccountID receives the remaining balance. Required when the
	// balance is not zero.
	TransferAccountID string
	// TransferCategoryID categorizes both legs of the transfer, which is
	// needed when money leaves the budget.
	TransferCategoryID string
}

// CloseAccount closes an account, moving any remaining balance to the
// transfer account as a pair of linked transactions. Either the account ends
// up closed with the balance moved, or nothing changes.
func (s *LedgerService) CloseAccount(ctx context.Context, id string, opts CloseOptions) error {
	balance, err := s.ledger.AccountBalance(ctx, id)
	if err != nil {
		return fmt.Errorf("close account: %w", err)
	}

	if balance == 0 {
		if err := s.ledger.SetAccountClosed(ctx, id, true); err != nil {
			return fmt.Errorf("close account: %w", err)
		}
		s.published(ctx, amqp.OpClose, EntityAccount, id)
		return nil
	}

	if opts.TransferAccountID == "" {
		return fmt.Errorf("close account %s: %w (%s); name a transfer account",
			id, ErrBalanceRemaining, core.Money{Cents: balance}.Dollars().StringFixed(2))
	}
	legs, err := s.transferLegs(ctx, id, balance, opts)
	if err != nil {
		return fmt.Errorf("close account: %w", err)
	}
	ids, err := s.closeWithTransfer(ctx, id, legs)
	if err != nil {
		return fmt.Errorf("close account: %w", err)
	}

	for _, legID := range ids {
		s.published(ctx, amqp.OpCreate, EntityTransaction, legID)
	}
	s.published(ctx, amqp.OpClose, EntityAccount, id)
	return nil
}

func (s *LedgerService) transferLegs(ctx context.Context, from string, balance int64, opts CloseOptions) ([]core.Transaction, error) {
	if opts.TransferAccountID == from {
		return nil, fmt.Errorf("%w: cannot transfer to the account being closed", ErrInvalidTransfer)
	}
	accounts, err := s.ledger.Accounts(ctx)
	if err != nil {
		return nil, err
	}
	target, ok := ledger.FindAccount(accounts, opts.TransferAccountID)
	if !ok {
		return nil, fmt.Errorf("%w: %s not found", ErrInvalidTransfer, opts.TransferAccountID)
	}
	if target.Closed {
		return nil, fmt.Errorf("%w: %s is closed", ErrInvalidTransfer, target.Name)
	}

	transferID := uuid.NewString()
	date := core.DateOf(s.now()).String()
	legs := []core.Transaction{
		{Account: from, Amount: -balance, Notes: "Transfer to " + target.Name},
		{Account: target.ID, Amount: balance, Notes: "Transfer on account close"},
	}
	for i := range legs {
		legs[i].Date = date
		legs[i].TransferID = transferID
		legs[i].Category = opts.TransferCategoryID
		legs[i].Cleared = true
	}
	return legs, nil
}

// closeWithTransfer uses the backend's atomic close when it has one.
// Otherwise it closes the account before posting the legs, so a backend
// that cannot close moves no money, and undoes the close and any posted
// leg when a later write fails.
func (s *LedgerService) closeWithTransfer(ctx context.Context, id string, legs []core.Transaction) ([]string, error) {
	if tc, ok := s.ledger.(ledger.TransferCloser); ok {
		ids, err := tc.CloseWithTransfer(ctx, id, legs)
		if !errors.Is(err, ledger.ErrUnsupported) {
			return ids, err
		}
	}

	if err := s.ledger.SetAccountClosed(ctx, id, true); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(legs))
	for _, leg := range legs {
		legID, err := s.ledger.CreateTransaction(ctx, leg)
		if err != nil {
			return nil, errors.Join(err, s.undoClose(ctx, id, ids))
		}
		ids = append(ids, legID)
	}
	return ids, nil
}

func (s *LedgerService) undoClose(ctx context.Context, id string, legIDs []string) error {
	var errs []error
	for _, legID := range legIDs {
		if err := s.ledger.DeleteTransaction(ctx, legID); err != nil {
			errs = append(errs, fmt.Errorf("undo transfer leg %s: %w", legID, err))
		}
	}
	if err := s.ledger.SetAccountClosed(ctx, id, false); err != nil {
		errs = append(errs, fmt.Errorf("reopen %s: %w", id, err))
	}
	if err := errors.Join(errs...); err != nil {
		s.log.LogError(ctx, "Failed to undo account close", err, log.ComponentService, log.OpClose,
			log.NewFields().WithEntity(EntityAccount, id))
		return err
	}
	return nil
}

func (s *LedgerService) ReopenAccount(ctx context.Context, id string) error {
	if err := s.ledger.SetAccountClosed(ctx, id, false); err != nil {
		return fmt.Errorf("reopen account: %w", err)
	}
	s.published(ctx, amqp.OpReopen, EntityAccount, id)
	return nil
}

func (s *LedgerService) CreateCategory(ctx context.Context, c core.Category) (string, error) {
	id, err := s.ledger.CreateCategory(ctx, c)
	if err != nil {
		return "", fmt.Errorf("create category: %w", err)
	}
	s.published(ctx, amqp.OpCreate, EntityCategory, id)
	return id, nil
}

func (s *LedgerService) UpdateCategory(ctx context.Context, id string, u ledger.CategoryUpdate) error {
	if err := s.ledger.UpdateCategory(ctx, id, u); err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	s.published(ctx, amqp.OpUpdate, EntityCategory, id)
	return nil
}

func (s *LedgerService) DeleteCategory(ctx context.Context, id string) error {
	if err := s.ledger.DeleteCategory(ctx, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	s.published(ctx, amqp.OpDelete, EntityCategory, id)
	return nil
}

func (s *LedgerService) CreateCategoryGroup(ctx context.Context, g core.CategoryGroup) (string, error) {
	id, err := s.ledger.CreateCategoryGroup(ctx, g)
	if err != nil {
		return "", fmt.Errorf("create category group: %w", err)
	}
	s.published(ctx, amqp.OpCreate, EntityCategoryGroup, id)
	return id, nil
}

func (s *LedgerService) UpdateCategoryGroup(ctx context.Context, id string, u ledger.CategoryGroupUpdate) error {
	if err := s.ledger.UpdateCategoryGroup(ctx, id, u); err != nil {
		return fmt.Errorf("update category group: %w", err)
	}
	s.published(ctx, amqp.OpUpdate, EntityCategoryGroup, id)
	return nil
}

func (s *LedgerService) DeleteCategoryGroup(ctx context.Context, id string) error {
	if err := s.ledger.DeleteCategoryGroup(ctx, id); err != nil {
		return fmt.Errorf("delete category group: %w", err)
	}
	s.published(ctx, amqp.OpDelete, EntityCategoryGroup, id)
	return nil
}

func (s *LedgerService) CreatePayee(ctx context.Context, p core.Payee) (string, error) {
	id, err := s.ledger.CreatePayee(ctx, p)
	if err != nil {
		return "", fmt.Errorf("create payee: %w", err)
	}
	s.published(ctx, amqp.OpCreate, EntityPayee, id)
	return id, nil
}

func (s *LedgerService) UpdatePayee(ctx context.Context, id string, u ledger.PayeeUpdate) error {
	if err := s.ledger.UpdatePayee(ctx, id, u); err != nil {
		return fmt.Errorf("update payee: %w", err)
	}
	s.published(ctx, amqp.OpUpdate, EntityPayee, id)
	return nil
}

func (s *LedgerService) DeletePayee(ctx context.Context, id string) error {
	if err := s.ledger.DeletePayee(ctx, id); err != nil {
		return fmt.Errorf("delete payee: %w", err)
	}
	s.published(ctx, amqp.OpDelete, EntityPayee, id)
	return nil
}

func (s *LedgerService) CreateRule(ctx context.Context, r core.Rule) (string, error) {
	id, err := s.ledger.CreateRule(ctx, r)
	if err != nil {
		return "", fmt.Errorf("create rule: %w", err)
	}
	s.published(ctx, amqp.OpCreate, EntityRule, id)
	return id, nil
}

func (s *LedgerService) UpdateRule(ctx context.Context, r core.Rule) error {
	if err := s.ledger.UpdateRule(ctx, r); err != nil {
		return fmt.Errorf("update rule: %w", err)
	}
	s.published(ctx, amqp.OpUpdate, EntityRule, r.ID)
	return nil
}

func (s *LedgerService) DeleteRule(ctx context.Context, id string) error {
	if err := s.ledger.DeleteRule(ctx, id); err != nil {
		return fmt.Errorf("delete rule: %w", err)
	}
	s.published(ctx, amqp.OpDelete, EntityRule, id)
	return nil
}
