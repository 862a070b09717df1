package ledger

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"ledgerkit/internal/core"
)

// maxParallelFetches bounds concurrent per-account transaction fetches.
const maxParallelFetches = 4

// OnBudget keeps the accounts included in default aggregate views.
func OnBudget(accounts []core.Account) []core.Account {
	out := make([]core.Account, 0, len(accounts))
	for _, a := range accounts {
		if a.OnBudget() {
			out = append(out, a)
		}
	}
	return out
}

// Open keeps accounts that are not closed.
func Open(accounts []core.Account) []core.Account {
	out := make([]core.Account, 0, len(accounts))
	for _, a := range accounts {
		if !a.Closed {
			out = append(out, a)
		}
	}
	return out
}

// FindAccount returns the account with the given id.
func FindAccount(accounts []core.Account, id string) (core.Account, bool) {
	for _, a := range accounts {
		if a.ID == id {
			return a, true
		}
	}
	return core.Account{}, false
}

// FetchTransactions loads the transactions of every account in parallel and
// concatenates them in account order. The first failure cancels the rest.
func FetchTransactions(ctx context.Context, r TransactionReader, accounts []core.Account, start, end string) ([]core.Transaction, error) {
	results := make([][]core.Transaction, len(accounts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelFetches)
	for i, a := range accounts {
		g.Go(func() error {
			txns, err := r.Transactions(gctx, a.ID, start, end)
			if err != nil {
				return fmt.Errorf("fetch transactions for account %s: %w", a.ID, err)
			}
			results[i] = txns
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, r := range results {
		total += len(r)
	}
	out := make([]core.Transaction, 0, total)
	for _, r := range results {
		out = append(out, r...)
	}
	return out, nil
}

// Taxonomy is the complete category lookup data needed before classification.
type Taxonomy struct {
	Categories []core.Category
	Groups     []core.CategoryGroup
}

// FetchTaxonomy loads categories and groups concurrently.
func FetchTaxonomy(ctx context.Context, r CategoryReader) (Taxonomy, error) {
	var tax Taxonomy
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		cats, err := r.Categories(gctx)
		if err != nil {
			return fmt.Errorf("fetch categories: %w", err)
		}
		tax.Categories = cats
		return nil
	})
	g.Go(func() error {
		groups, err := r.CategoryGroups(gctx)
		if err != nil {
			return fmt.Errorf("fetch category groups: %w", err)
		}
		tax.Groups = groups
		return nil
	})
	if err := g.Wait(); err != nil {
		return Taxonomy{}, err
	}
	return tax, nil
}
