package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"ledgerkit/internal/core"
	"ledgerkit/internal/ledger"
	"ledgerkit/internal/services"
)

func (r *Registry) registerMutations() {
	idOnly := func(desc string) Schema {
		return object(map[string]Property{"id": stringProp(desc)}, "id")
	}

	r.register(Tool{
		Name:        "create-transaction",
		Description: "Create a new transaction. Use this to add transactions to accounts.",
		InputSchema: object(map[string]Property{
			"account":  stringProp("ID of the account"),
			"date":     stringProp("Transaction date in YYYY-MM-DD format"),
			"amount":   integerProp("Amount in cents; negative for outflows"),
			"payee":    stringProp("Payee ID"),
			"category": stringProp("Category ID"),
			"notes":    stringProp("Free-form notes"),
			"cleared":  boolProp("Whether the transaction has cleared"),
		}, "account", "date", "amount"),
		handler: r.createTransaction,
	})
	r.register(Tool{
		Name:        "update-transaction",
		Description: "Update an existing transaction's category, payee, notes or amount",
		InputSchema: object(map[string]Property{
			"transactionId": stringProp("ID of the transaction to update"),
			"categoryId":    stringProp("New category ID"),
			"payeeId":       stringProp("New payee ID"),
			"notes":         stringProp("New notes"),
			"amount":        integerProp("New amount in cents"),
		}, "transactionId"),
		handler: r.updateTransaction,
	})
	r.register(Tool{
		Name:        "delete-transaction",
		Description: "Delete a transaction",
		InputSchema: idOnly("ID of the transaction to delete"),
		handler:     r.deleteTransaction,
	})

	r.register(Tool{
		Name:        "create-account",
		Description: "Create a new account, optionally with a starting balance",
		InputSchema: object(map[string]Property{
			"name":           stringProp("Account name"),
			"type":           stringProp("Account type, e.g. checking, savings, credit"),
			"offbudget":      boolProp("Track the account off budget"),
			"initialBalance": integerProp("Starting balance in cents"),
		}, "name"),
		handler: r.createAccount,
	})
	r.register(Tool{
		Name:        "update-account",
		Description: "Rename an account or change its type or budget status",
		InputSchema: object(map[string]Property{
			"id":        stringProp("ID of the account"),
			"name":      stringProp("New name"),
			"type":      stringProp("New type"),
			"offbudget": boolProp("Track the account off budget"),
		}, "id"),
		handler: r.updateAccount,
	})
	r.register(Tool{
		Name:        "close-account",
		Description: "Close an account, or reopen it. A remaining balance must be moved to a transfer account.",
		InputSchema: object(map[string]Property{
			"id":                 stringProp("ID of the account"),
			"reopen":             boolProp("Reopen a closed account instead of closing it"),
			"transferAccountId":  stringProp("Account receiving the remaining balance"),
			"transferCategoryId": stringProp("Category for the transfer when money leaves the budget"),
		}, "id"),
		handler: r.closeAccount,
	})

	r.register(Tool{
		Name:        "create-category",
		Description: "Create a category in a category group",
		InputSchema: object(map[string]Property{
			"name":     stringProp("Category name"),
			"groupId":  stringProp("ID of the category group"),
			"isIncome": boolProp("Income category"),
		}, "name", "groupId"),
		handler: r.createCategory,
	})
	r.register(Tool{
		Name:        "update-category",
		Description: "Rename a category or move it to another group",
		InputSchema: object(map[string]Property{
			"id":       stringProp("ID of the category"),
			"name":     stringProp("New name"),
			"groupId":  stringProp("New category group ID"),
			"isIncome": boolProp("Income category"),
		}, "id"),
		handler: r.updateCategory,
	})
	r.register(Tool{
		Name:        "delete-category",
		Description: "Delete a category; its transactions become uncategorized",
		InputSchema: idOnly("ID of the category"),
		handler:     r.deleteCategory,
	})
	r.register(Tool{
		Name:        "create-category-group",
		Description: "Create a category group",
		InputSchema: object(map[string]Property{
			"name":     stringProp("Group name"),
			"isIncome": boolProp("Income group"),
		}, "name"),
		handler: r.createCategoryGroup,
	})
	r.register(Tool{
		Name:        "update-category-group",
		Description: "Rename a category group",
		InputSchema: object(map[string]Property{
			"id":       stringProp("ID of the category group"),
			"name":     stringProp("New name"),
			"isIncome": boolProp("Income group"),
		}, "id"),
		handler: r.updateCategoryGroup,
	})
	r.register(Tool{
		Name:        "delete-category-group",
		Description: "Delete an empty category group",
		InputSchema: idOnly("ID of the category group"),
		handler:     r.deleteCategoryGroup,
	})

	r.register(Tool{
		Name:        "create-payee",
		Description: "Create a payee",
		InputSchema: object(map[string]Property{
			"name":         stringProp("Payee name"),
			"transferAcct": stringProp("Account ID when the payee is a transfer target"),
		}, "name"),
		handler: r.createPayee,
	})
	r.register(Tool{
		Name:        "update-payee",
		Description: "Update a payee",
		InputSchema: object(map[string]Property{
			"id":           stringProp("ID of the payee"),
			"name":         stringProp("New name"),
			"transferAcct": stringProp("Account ID when the payee is a transfer target"),
		}, "id"),
		handler: r.updatePayee,
	})
	r.register(Tool{
		Name:        "delete-payee",
		Description: "Delete a payee",
		InputSchema: idOnly("ID of the payee"),
		handler:     r.deletePayee,
	})

	ruleProps := func(withID bool) Schema {
		props := map[string]Property{
			"stage":        stringProp("Rule stage: pre, post, or empty"),
			"conditionsOp": stringProp("How conditions combine: and | or"),
			"conditions":   arrayProp("Rule conditions"),
			"actions":      arrayProp("Rule actions"),
		}
		required := []string{"conditionsOp", "conditions", "actions"}
		if withID {
			props["id"] = stringProp("ID of the rule")
			required = append([]string{"id"}, required...)
		}
		return object(props, required...)
	}
	r.register(Tool{
		Name:        "create-rule",
		Description: "Create a transaction rule. Rules are stored, not evaluated.",
		InputSchema: ruleProps(false),
		handler:     r.createRule,
	})
	r.register(Tool{
		Name:        "update-rule",
		Description: "Replace a transaction rule",
		InputSchema: ruleProps(true),
		handler:     r.updateRule,
	})
	r.register(Tool{
		Name:        "delete-rule",
		Description: "Delete a transaction rule",
		InputSchema: idOnly("ID of the rule"),
		handler:     r.deleteRule,
	})
}

func done(format string, a ...any) (Result, error) {
	return textResult(fmt.Sprintf(format, a...)), nil
}

type idArgs struct {
	ID string `json:"id"`
}

func decodeID(raw json.RawMessage) (string, error) {
	var args idArgs
	if err := decode(raw, &args); err != nil {
		return "", err
	}
	if err := requireString("id", args.ID); err != nil {
		return "", err
	}
	return args.ID, nil
}

type createTransactionArgs struct {
	Account  string `json:"account"`
	Date     string `json:"date"`
	Amount   *int64 `json:"amount"`
	Payee    string `json:"payee"`
	Category string `json:"category"`
	Notes    string `json:"notes"`
	Cleared  bool   `json:"cleared"`
}

func (r *Registry) createTransaction(ctx context.Context, raw json.RawMessage) (Result, error) {
	var args createTransactionArgs
	if err := decode(raw, &args); err != nil {
		return Result{}, err
	}
	if err := requireString("account", args.Account); err != nil {
		return Result{}, err
	}
	if err := checkDate("date", args.Date); err != nil {
		return Result{}, err
	}
	if args.Amount == nil {
		return Result{}, invalidf("amount is required")
	}
	id, err := r.service.CreateTransaction(ctx, core.Transaction{
		Account:  args.Account,
		Date:     args.Date,
		Amount:   *args.Amount,
		Payee:    args.Payee,
		Category: args.Category,
		Notes:    args.Notes,
		Cleared:  args.Cleared,
	})
	if err != nil {
		return Result{}, err
	}
	return done("Successfully created transaction %s", id)
}

type updateTransactionArgs struct {
	TransactionID string  `json:"transactionId"`
	CategoryID    *string `json:"categoryId"`
	PayeeID       *string `json:"payeeId"`
	Notes         *string `json:"notes"`
	Amount        *int64  `json:"amount"`
}

func (r *Registry) updateTransaction(ctx context.Context, raw json.RawMessage) (Result, error) {
	var args updateTransactionArgs
	if err := decode(raw, &args); err != nil {
		return Result{}, err
	}
	if err := requireString("transactionId", args.TransactionID); err != nil {
		return Result{}, err
	}
	u := ledger.TransactionUpdate{
		Category: trimmed(args.CategoryID),
		Payee:    trimmed(args.PayeeID),
		Notes:    args.Notes,
		Amount:   args.Amount,
	}
	if u == (ledger.TransactionUpdate{}) {
		return Result{}, invalidf("nothing to update")
	}
	if err := r.service.UpdateTransaction(ctx, args.TransactionID, u); err != nil {
		return Result{}, err
	}
	return done("Successfully updated transaction %s", args.TransactionID)
}

func (r *Registry) deleteTransaction(ctx context.Context, raw json.RawMessage) (Result, error) {
	id, err := decodeID(raw)
	if err != nil {
		return Result{}, err
	}
	if err := r.service.DeleteTransaction(ctx, id); err != nil {
		return Result{}, err
	}
	return done("Successfully deleted transaction %s", id)
}

type createAccountArgs struct {
	Name           string `json:"name"`
	Type           string `json:"type"`
	OffBudget      bool   `json:"offbudget"`
	InitialBalance int64  `json:"initialBalance"`
}

func (r *Registry) createAccount(ctx context.Context, raw json.RawMessage) (Result, error) {
	var args createAccountArgs
	if err := decode(raw, &args); err != nil {
		return Result{}, err
	}
	if err := requireString("name", args.Name); err != nil {
		return Result{}, err
	}
	id, err := r.service.CreateAccount(ctx, core.Account{
		Name:      args.Name,
		Type:      args.Type,
		OffBudget: args.OffBudget,
	}, args.InitialBalance)
	if err != nil {
		return Result{}, err
	}
	return done("Successfully created account %s", id)
}

type updateAccountArgs struct {
	ID        string  `json:"id"`
	Name      *string `json:"name"`
	Type      *string `json:"type"`
	OffBudget *bool   `json:"offbudget"`
}

func (r *Registry) updateAccount(ctx context.Context, raw json.RawMessage) (Result, error) {
	var args updateAccountArgs
	if err := decode(raw, &args); err != nil {
		return Result{}, err
	}
	if err := requireString("id", args.ID); err != nil {
		return Result{}, err
	}
	if args.Name != nil {
		if err := requireString("name", *args.Name); err != nil {
			return Result{}, err
		}
	}
	u := ledger.AccountUpdate{Name: trimmed(args.Name), Type: args.Type, OffBudget: args.OffBudget}
	if u == (ledger.AccountUpdate{}) {
		return Result{}, invalidf("nothing to update")
	}
	if err := r.service.UpdateAccount(ctx, args.ID, u); err != nil {
		return Result{}, err
	}
	return done("Successfully updated account %s", args.ID)
}

type closeAccountArgs struct {
	ID                 string `json:"id"`
	Reopen             bool   `json:"reopen"`
	TransferAccountID  string `json:"transferAccountId"`
	TransferCategoryID string `json:"transferCategoryId"`
}

func (r *Registry) closeAccount(ctx context.Context, raw json.RawMessage) (Result, error) {
	var args closeAccountArgs
	if err := decode(raw, &args); err != nil {
		return Result{}, err
	}
	if err := requireString("id", args.ID); err != nil {
		return Result{}, err
	}
	if args.Reopen {
		if err := r.service.ReopenAccount(ctx, args.ID); err != nil {
			return Result{}, err
		}
		return done("Successfully reopened account %s", args.ID)
	}
	err := r.service.CloseAccount(ctx, args.ID, services.CloseOptions{
		TransferAccountID:  args.TransferAccountID,
		TransferCategoryID: args.TransferCategoryID,
	})
	if err != nil {
		return Result{}, err
	}
	return done("Successfully closed account %s", args.ID)
}

type categoryArgs struct {
	ID       string  `json:"id"`
	Name     *string `json:"name"`
	GroupID  *string `json:"groupId"`
	IsIncome *bool   `json:"isIncome"`
}

func (r *Registry) createCategory(ctx context.Context, raw json.RawMessage) (Result, error) {
	var args categoryArgs
	if err := decode(raw, &args); err != nil {
		return Result{}, err
	}
	c := core.Category{}
	if args.Name != nil {
		c.Name = *args.Name
	}
	if args.GroupID != nil {
		c.GroupID = *args.GroupID
	}
	if args.IsIncome != nil {
		c.IsIncome = *args.IsIncome
	}
	if err := requireString("name", c.Name); err != nil {
		return Result{}, err
	}
	if err := requireString("groupId", c.GroupID); err != nil {
		return Result{}, err
	}
	id, err := r.service.CreateCategory(ctx, c)
	if err != nil {
		return Result{}, err
	}
	return done("Successfully created category %s", id)
}

func (r *Registry) updateCategory(ctx context.Context, raw json.RawMessage) (Result, error) {
	var args categoryArgs
	if err := decode(raw, &args); err != nil {
		return Result{}, err
	}
	if err := requireString("id", args.ID); err != nil {
		return Result{}, err
	}
	u := ledger.CategoryUpdate{Name: trimmed(args.Name), GroupID: trimmed(args.GroupID), IsIncome: args.IsIncome}
	if u == (ledger.CategoryUpdate{}) {
		return Result{}, invalidf("nothing to update")
	}
	if err := r.service.UpdateCategory(ctx, args.ID, u); err != nil {
		return Result{}, err
	}
	return done("Successfully updated category %s", args.ID)
}

func (r *Registry) deleteCategory(ctx context.Context, raw json.RawMessage) (Result, error) {
	id, err := decodeID(raw)
	if err != nil {
		return Result{}, err
	}
	if err := r.service.DeleteCategory(ctx, id); err != nil {
		return Result{}, err
	}
	return done("Successfully deleted category %s", id)
}

type categoryGroupArgs struct {
	ID       string  `json:"id"`
	Name     *string `json:"name"`
	IsIncome *bool   `json:"isIncome"`
}

func (r *Registry) createCategoryGroup(ctx context.Context, raw json.RawMessage) (Result, error) {
	var args categoryGroupArgs
	if err := decode(raw, &args); err != nil {
		return Result{}, err
	}
	g := core.CategoryGroup{}
	if args.Name != nil {
		g.Name = *args.Name
	}
	if args.IsIncome != nil {
		g.IsIncome = *args.IsIncome
	}
	if err := requireString("name", g.Name); err != nil {
		return Result{}, err
	}
	id, err := r.service.CreateCategoryGroup(ctx, g)
	if err != nil {
		return Result{}, err
	}
	return done("Successfully created category group %s", id)
}

func (r *Registry) updateCategoryGroup(ctx context.Context, raw json.RawMessage) (Result, error) {
	var args categoryGroupArgs
	if err := decode(raw, &args); err != nil {
		return Result{}, err
	}
	if err := requireString("id", args.ID); err != nil {
		return Result{}, err
	}
	u := ledger.CategoryGroupUpdate{Name: trimmed(args.Name), IsIncome: args.IsIncome}
	if u == (ledger.CategoryGroupUpdate{}) {
		return Result{}, invalidf("nothing to update")
	}
	if err := r.service.UpdateCategoryGroup(ctx, args.ID, u); err != nil {
		return Result{}, err
	}
	return done("Successfully updated category group %s", args.ID)
}

func (r *Registry) deleteCategoryGroup(ctx context.Context, raw json.RawMessage) (Result, error) {
	id, err := decodeID(raw)
	if err != nil {
		return Result{}, err
	}
	if err := r.service.DeleteCategoryGroup(ctx, id); err != nil {
		return Result{}, err
	}
	return done("Successfully deleted category group %s", id)
}

type payeeArgs struct {
	ID           string  `json:"id"`
	Name         *string `json:"name"`
	TransferAcct *string `json:"transferAcct"`
}

func (r *Registry) createPayee(ctx context.Context, raw json.RawMessage) (Result, error) {
	var args payeeArgs
	if err := decode(raw, &args); err != nil {
		return Result{}, err
	}
	p := core.Payee{}
	if args.Name != nil {
		p.Name = *args.Name
	}
	if args.TransferAcct != nil {
		p.TransferAcct = *args.TransferAcct
	}
	if err := requireString("name", p.Name); err != nil {
		return Result{}, err
	}
	id, err := r.service.CreatePayee(ctx, p)
	if err != nil {
		return Result{}, err
	}
	return done("Successfully created payee %s", id)
}

func (r *Registry) updatePayee(ctx context.Context, raw json.RawMessage) (Result, error) {
	var args payeeArgs
	if err := decode(raw, &args); err != nil {
		return Result{}, err
	}
	if err := requireString("id", args.ID); err != nil {
		return Result{}, err
	}
	u := ledger.PayeeUpdate{Name: trimmed(args.Name), TransferAcct: trimmed(args.TransferAcct)}
	if u == (ledger.PayeeUpdate{}) {
		return Result{}, invalidf("nothing to update")
	}
	if err := r.service.UpdatePayee(ctx, args.ID, u); err != nil {
		return Result{}, err
	}
	return done("Successfully updated payee %s", args.ID)
}

func (r *Registry) deletePayee(ctx context.Context, raw json.RawMessage) (Result, error) {
	id, err := decodeID(raw)
	if err != nil {
		return Result{}, err
	}
	if err := r.service.DeletePayee(ctx, id); err != nil {
		return Result{}, err
	}
	return done("Successfully deleted payee %s", id)
}

type ruleArgs struct {
	ID           string          `json:"id"`
	Stage        string          `json:"stage"`
	ConditionsOp string          `json:"conditionsOp"`
	Conditions   json.RawMessage `json:"conditions"`
	Actions      json.RawMessage `json:"actions"`
}

func (a ruleArgs) rule() (core.Rule, error) {
	rule := core.Rule{
		ID:           a.ID,
		Stage:        core.RuleStage(a.Stage),
		ConditionsOp: a.ConditionsOp,
		Conditions:   a.Conditions,
		Actions:      a.Actions,
	}
	if err := rule.Validate(); err != nil {
		return core.Rule{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return rule, nil
}

func (r *Registry) createRule(ctx context.Context, raw json.RawMessage) (Result, error) {
	var args ruleArgs
	if err := decode(raw, &args); err != nil {
		return Result{}, err
	}
	args.ID = ""
	rule, err := args.rule()
	if err != nil {
		return Result{}, err
	}
	id, err := r.service.CreateRule(ctx, rule)
	if err != nil {
		return Result{}, err
	}
	return done("Successfully created rule %s", id)
}

func (r *Registry) updateRule(ctx context.Context, raw json.RawMessage) (Result, error) {
	var args ruleArgs
	if err := decode(raw, &args); err != nil {
		return Result{}, err
	}
	if err := requireString("id", args.ID); err != nil {
		return Result{}, err
	}
	rule, err := args.rule()
	if err != nil {
		return Result{}, err
	}
	if err := r.service.UpdateRule(ctx, rule); err != nil {
		return Result{}, err
	}
	return done("Successfully updated rule %s", args.ID)
}

func (r *Registry) deleteRule(ctx context.Context, raw json.RawMessage) (Result, error) {
	id, err := decodeID(raw)
	if err != nil {
		return Result{}, err
	}
	if err := r.service.DeleteRule(ctx, id); err != nil {
		return Result{}, err
	}
	return done("Successfully deleted rule %s", id)
}
