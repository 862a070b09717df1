package tools

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"ledgerkit/internal/ledger"
	"ledgerkit/internal/report"
)

const (
	resourceScheme  = "ledger"
	accountsURI     = resourceScheme + "://accounts"
	mimeMarkdown    = "text/markdown"
	mimePlainText   = "text/plain"
	transactionsSeg = "transactions"
)

type Resource struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description"`
	MimeType    string `json:"mimeType"`
}

type ResourceContents struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType"`
	Text     string `json:"text"`
}

// Resources lists the account index followed by one entry per account.
func (r *Registry) Resources(ctx context.Context) ([]Resource, error) {
	accounts, err := r.ledger.Accounts(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Resource, 0, len(accounts)+1)
	out = append(out, Resource{
		URI:         accountsURI,
		Name:        "Accounts",
		Description: "All accounts with balances",
		MimeType:    mimeMarkdown,
	})
	for _, a := range accounts {
		typ := a.Type
		if typ == "" {
			typ = "Account"
		}
		desc := fmt.Sprintf("%s (%s)", a.Name, typ)
		if a.Closed {
			desc += " - CLOSED"
		}
		out = append(out, Resource{
			URI:         accountsURI + "/" + a.ID,
			Name:        a.Name,
			Description: desc,
			MimeType:    mimeMarkdown,
		})
	}
	return out, nil
}

// ReadResource resolves ledger://accounts, ledger://accounts/{id} and
// ledger://accounts/{id}/transactions.
func (r *Registry) ReadResource(ctx context.Context, uri string) (ResourceContents, error) {
	u, err := url.Parse(uri)
	if err != nil || u.Scheme != resourceScheme || u.Host != "accounts" {
		return ResourceContents{}, fmt.Errorf("%s: %w", uri, ErrUnknownResource)
	}
	parts := strings.FieldsFunc(u.Path, func(c rune) bool { return c == '/' })

	switch {
	case len(parts) == 0:
		accounts, err := r.ledger.Accounts(ctx)
		if err != nil {
			return ResourceContents{}, err
		}
		text := report.Accounts(accounts) + fmt.Sprintf("\nTotal Accounts: %d\n", len(accounts))
		return ResourceContents{URI: uri, MimeType: mimeMarkdown, Text: text}, nil

	case len(parts) == 1:
		return r.readAccount(ctx, uri, parts[0])

	case len(parts) == 2 && parts[1] == transactionsSeg:
		return r.readAccountTransactions(ctx, uri, parts[0])
	}
	return ResourceContents{}, fmt.Errorf("%s: %w", uri, ErrUnknownResource)
}

func (r *Registry) readAccount(ctx context.Context, uri, id string) (ResourceContents, error) {
	accounts, err := r.ledger.Accounts(ctx)
	if err != nil {
		return ResourceContents{}, err
	}
	account, ok := ledger.FindAccount(accounts, id)
	if !ok {
		return ResourceContents{}, accountNotFound(id)
	}
	balance, err := r.ledger.AccountBalance(ctx, id)
	if err != nil {
		return ResourceContents{}, err
	}
	account.Balance = &balance

	text := report.AccountDetails(account) +
		"\nTo view transactions for this account, use the get-transactions tool.\n"
	return ResourceContents{URI: uri, MimeType: mimeMarkdown, Text: text}, nil
}

func (r *Registry) readAccountTransactions(ctx context.Context, uri, id string) (ResourceContents, error) {
	period, err := r.dateRange("", "")
	if err != nil {
		return ResourceContents{}, err
	}
	txns, err := r.ledger.Transactions(ctx, id, period.Start, period.End)
	if err != nil {
		return ResourceContents{}, err
	}
	if len(txns) == 0 {
		text := fmt.Sprintf("No transactions found for account ID %s between %s and %s", id, period.Start, period.End)
		return ResourceContents{URI: uri, MimeType: mimePlainText, Text: text}, nil
	}
	filter := report.TransactionFilter{Period: period}
	return ResourceContents{
		URI:      uri,
		MimeType: mimeMarkdown,
		Text:     report.Transactions(txns, filter, len(txns), len(txns)),
	}, nil
}
