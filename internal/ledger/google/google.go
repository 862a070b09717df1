// Package google is a ledger backend stored in a Google Sheets spreadsheet.
//
// The spreadsheet holds one tab per entity (Accounts, Groups, Categories,
// Payees, Transactions) with a header row. Reads cover the whole ledger;
// writes append rows. Updates and deletes are not supported because rows
// have no stable address.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"ledgerkit/internal/cache"
	"ledgerkit/internal/core"
	"ledgerkit/internal/ledger"
)

const (
	defaultCacheTTL = 30 * time.Second
	readCacheSize   = 32
)

type tab struct {
	name    string
	headers []string
}

// rng covers every column the tab defines.
func (t tab) rng() string {
	return fmt.Sprintf("%s!A:%c", t.name, 'A'+rune(len(t.headers)-1))
}

var (
	accountsTab     = tab{"Accounts", accountHeaders}
	groupsTab       = tab{"Groups", groupHeaders}
	categoriesTab   = tab{"Categories", categoryHeaders}
	payeesTab       = tab{"Payees", payeeHeaders}
	transactionsTab = tab{"Transactions", transactionHeaders}
)

type Config struct {
	SpreadsheetID   string
	CredentialsJSON string
	CredentialsFile string
	// CacheTTL bounds how stale a read may be; zero means 30s and a
	// negative value disables caching.
	CacheTTL time.Duration
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	// reads caches BatchGet results by range list; every append purges it.
	reads *cache.LRUCache[[][][]any]
}

var (
	_ ledger.Ledger = (*Client)(nil)
	_ ledger.Pinger = (*Client)(nil)
)

func New(ctx context.Context, cfg Config) (*Client, error) {
	id := strings.TrimSpace(cfg.SpreadsheetID)
	if id == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Client{svc: svc, spreadsheetID: id, reads: newReadCache(cfg.CacheTTL)}, nil
}

func newReadCache(ttl time.Duration) *cache.LRUCache[[][][]any] {
	switch {
	case ttl < 0:
		return nil
	case ttl == 0:
		ttl = defaultCacheTTL
	}
	return cache.NewLRUCache[[][][]any](readCacheSize, ttl)
}

// newSheetsService initializes a Sheets service using service account
// credentials, inline JSON taking precedence over a file path.
func newSheetsService(ctx context.Context, cfg Config) (*gsheet.Service, error) {
	var credentialsJSON []byte
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		credentialsJSON = []byte(cfg.CredentialsJSON)
	case strings.TrimSpace(cfg.CredentialsFile) != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", cfg.CredentialsFile)
		b, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	slog.InfoContext(ctx, "Google Sheets service created successfully")
	return service, nil
}

// Ping reads the spreadsheet metadata.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("spreadsheetId").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("ping spreadsheet: %w", err)
	}
	return nil
}

// read fetches several tabs in one request, in order. Results are shared
// with later callers through the read cache and must not be modified.
func (c *Client) read(ctx context.Context, tabs ...tab) ([][][]any, error) {
	ranges := make([]string, len(tabs))
	for i, t := range tabs {
		ranges[i] = t.rng()
	}
	key := strings.Join(ranges, ",")
	if c.reads != nil {
		if values, ok := c.reads.Get(key); ok {
			return values, nil
		}
	}
	resp, err := c.svc.Spreadsheets.Values.BatchGet(c.spreadsheetID).
		Ranges(ranges...).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("FORMATTED_STRING").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	if len(resp.ValueRanges) != len(tabs) {
		return nil, fmt.Errorf("read: expected %d ranges, got %d", len(tabs), len(resp.ValueRanges))
	}
	out := make([][][]any, len(tabs))
	for i, vr := range resp.ValueRanges {
		out[i] = vr.Values
	}
	if c.reads != nil {
		c.reads.Set(key, out)
	}
	return out, nil
}

func (c *Client) readTransactions(ctx context.Context, values [][]any) ([]core.Transaction, error) {
	txns, skipped, err := parseTransactions(values)
	if err != nil {
		return nil, err
	}
	if skipped > 0 {
		slog.WarnContext(ctx, "Skipped unreadable transaction rows", "count", skipped)
	}
	return txns, nil
}

// Accounts implements ledger.AccountReader; balances are summed from the
// Transactions tab.
func (c *Client) Accounts(ctx context.Context) ([]core.Account, error) {
	values, err := c.read(ctx, accountsTab, transactionsTab)
	if err != nil {
		return nil, err
	}
	accounts, err := parseAccounts(values[0])
	if err != nil {
		return nil, err
	}
	txns, err := c.readTransactions(ctx, values[1])
	if err != nil {
		return nil, err
	}
	balances := make(map[string]int64)
	for _, t := range txns {
		balances[t.Account] += t.Amount
	}
	for i := range accounts {
		bal := balances[accounts[i].ID]
		accounts[i].Balance = &bal
	}
	return accounts, nil
}

func (c *Client) AccountBalance(ctx context.Context, accountID string) (int64, error) {
	accounts, err := c.Accounts(ctx)
	if err != nil {
		return 0, err
	}
	for _, a := range accounts {
		if a.ID == accountID {
			return a.BalanceOrZero(), nil
		}
	}
	return 0, fmt.Errorf("account %s: %w", accountID, ledger.ErrNotFound)
}

func (c *Client) taxonomy(ctx context.Context) ([]core.CategoryGroup, []core.Category, error) {
	values, err := c.read(ctx, groupsTab, categoriesTab)
	if err != nil {
		return nil, nil, err
	}
	groups, err := parseGroups(values[0])
	if err != nil {
		return nil, nil, err
	}
	cats, err := parseCategories(values[1], groups)
	if err != nil {
		return nil, nil, err
	}
	return groups, cats, nil
}

func (c *Client) Categories(ctx context.Context) ([]core.Category, error) {
	_, cats, err := c.taxonomy(ctx)
	return cats, err
}

func (c *Client) CategoryGroups(ctx context.Context) ([]core.CategoryGroup, error) {
	groups, cats, err := c.taxonomy(ctx)
	if err != nil {
		return nil, err
	}
	index := make(map[string]int, len(groups))
	for i, g := range groups {
		index[g.ID] = i
	}
	for _, cat := range cats {
		if i, ok := index[cat.GroupID]; ok {
			groups[i].Categories = append(groups[i].Categories, cat)
		}
	}
	return groups, nil
}

// Transactions implements ledger.TransactionReader. Names are resolved from
// the Payees and Categories tabs.
func (c *Client) Transactions(ctx context.Context, accountID, start, end string) ([]core.Transaction, error) {
	values, err := c.read(ctx, transactionsTab, payeesTab, groupsTab, categoriesTab)
	if err != nil {
		return nil, err
	}
	all, err := c.readTransactions(ctx, values[0])
	if err != nil {
		return nil, err
	}
	payees, err := parsePayees(values[1])
	if err != nil {
		return nil, err
	}
	groups, err := parseGroups(values[2])
	if err != nil {
		return nil, err
	}
	cats, err := parseCategories(values[3], groups)
	if err != nil {
		return nil, err
	}
	return filterTransactions(all, payees, cats, accountID, start, end), nil
}

func filterTransactions(all []core.Transaction, payees []core.Payee, cats []core.Category, accountID, start, end string) []core.Transaction {
	payeeNames := make(map[string]string, len(payees))
	for _, p := range payees {
		payeeNames[p.ID] = p.Name
	}
	catNames := make(map[string]string, len(cats))
	for _, cat := range cats {
		catNames[cat.ID] = cat.Name
	}

	var out []core.Transaction
	for _, t := range all {
		if t.Account != accountID {
			continue
		}
		if (start != "" && t.Date < start) || (end != "" && t.Date > end) {
			continue
		}
		t.PayeeName = payeeNames[t.Payee]
		t.CategoryName = catNames[t.Category]
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out
}

func (c *Client) Payees(ctx context.Context) ([]core.Payee, error) {
	values, err := c.read(ctx, payeesTab)
	if err != nil {
		return nil, err
	}
	return parsePayees(values[0])
}

// Rules returns no rules; the spreadsheet layout has no rules tab.
func (c *Client) Rules(_ context.Context) ([]core.Rule, error) {
	return nil, nil
}

func (c *Client) appendRow(ctx context.Context, t tab, row []any) error {
	vr := &gsheet.ValueRange{Values: [][]any{row}}
	_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, t.rng(), vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append to %s: %w", t.name, err)
	}
	if c.reads != nil {
		c.reads.Purge()
	}
	return nil
}

func idOr(id string) string {
	if strings.TrimSpace(id) != "" {
		return id
	}
	return uuid.NewString()
}

func (c *Client) CreateTransaction(ctx context.Context, t core.Transaction) (string, error) {
	if err := t.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	t.ID = idOr(t.ID)
	if err := c.appendRow(ctx, transactionsTab, transactionRow(t)); err != nil {
		return "", err
	}
	slog.InfoContext(ctx, "Transaction appended to sheet", "id", t.ID, "account_id", t.Account, "date", t.Date)
	return t.ID, nil
}

func (c *Client) CreateAccount(ctx context.Context, a core.Account) (string, error) {
	if err := a.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	a.ID = idOr(a.ID)
	return a.ID, c.appendRow(ctx, accountsTab, []any{a.ID, a.Name, a.Type, a.OffBudget, a.Closed})
}

func (c *Client) CreateCategory(ctx context.Context, cat core.Category) (string, error) {
	if err := cat.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	cat.ID = idOr(cat.ID)
	return cat.ID, c.appendRow(ctx, categoriesTab, []any{cat.ID, cat.Name, cat.GroupID, cat.IsIncome})
}

func (c *Client) CreateCategoryGroup(ctx context.Context, g core.CategoryGroup) (string, error) {
	if err := g.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	g.ID = idOr(g.ID)
	return g.ID, c.appendRow(ctx, groupsTab, []any{g.ID, g.Name, g.IsIncome})
}

func (c *Client) CreatePayee(ctx context.Context, p core.Payee) (string, error) {
	if err := p.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	p.ID = idOr(p.ID)
	return p.ID, c.appendRow(ctx, payeesTab, []any{p.ID, p.Name, p.TransferAcct})
}

func unsupported(op string) error {
	return fmt.Errorf("sheets %s: %w", op, ledger.ErrUnsupported)
}

func (c *Client) UpdateTransaction(context.Context, string, ledger.TransactionUpdate) error {
	return unsupported("update transaction")
}

func (c *Client) DeleteTransaction(context.Context, string) error {
	return unsupported("delete transaction")
}

func (c *Client) UpdateAccount(context.Context, string, ledger.AccountUpdate) error {
	return unsupported("update account")
}

func (c *Client) SetAccountClosed(context.Context, string, bool) error {
	return unsupported("close account")
}

func (c *Client) UpdateCategory(context.Context, string, ledger.CategoryUpdate) error {
	return unsupported("update category")
}

func (c *Client) DeleteCategory(context.Context, string) error {
	return unsupported("delete category")
}

func (c *Client) UpdateCategoryGroup(context.Context, string, ledger.CategoryGroupUpdate) error {
	return unsupported("update category group")
}

func (c *Client) DeleteCategoryGroup(context.Context, string) error {
	return unsupported("delete category group")
}

func (c *Client) UpdatePayee(context.Context, string, ledger.PayeeUpdate) error {
	return unsupported("update payee")
}

func (c *Client) DeletePayee(context.Context, string) error {
	return unsupported("delete payee")
}

func (c *Client) CreateRule(context.Context, core.Rule) (string, error) {
	return "", unsupported("create rule")
}

func (c *Client) UpdateRule(context.Context, core.Rule) error {
	return unsupported("update rule")
}

func (c *Client) DeleteRule(context.Context, string) error {
	return unsupported("delete rule")
}
