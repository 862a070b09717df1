package analytics

import (
	"sort"

	"ledgerkit/internal/core"
)

// AccountBalanceHistory reconstructs end-of-month balances for one account
// over the months-long window ending at end, newest month first.
//
// The walk starts from the current balance and undoes transactions newest
// first, so the newest month always equals current. A transaction leaves its
// own month untouched and sets every earlier month to the balance before it
// was posted. Transactions dated after the window are ignored. Rewriting a
// transaction's own month as well would contradict the newest-month anchor;
// the anchor takes precedence.
func AccountBalanceHistory(current int64, txns []core.Transaction, months int, end core.Date) []core.MonthBalance {
	series := reconstruct(current, txns, core.MonthsBack(end.YearMonth(), months))
	fillChanges(series)
	return series
}

// AllAccountsBalanceHistory runs AccountBalanceHistory for each account and
// tags every entry with the account name. Transactions for accounts outside
// the list are dropped. Entries are ordered by month, newest first, then by
// account name.
func AllAccountsBalanceHistory(accounts []core.Account, txns []core.Transaction, months int, end core.Date) []core.MonthBalance {
	byAccount := make(map[string][]core.Transaction, len(accounts))
	for _, a := range accounts {
		byAccount[a.ID] = nil
	}
	for _, t := range txns {
		if _, ok := byAccount[t.Account]; ok {
			byAccount[t.Account] = append(byAccount[t.Account], t)
		}
	}

	window := core.MonthsBack(end.YearMonth(), months)
	out := make([]core.MonthBalance, 0, len(accounts)*len(window))
	for _, a := range accounts {
		series := reconstruct(a.BalanceOrZero(), byAccount[a.ID], window)
		fillChanges(series)
		for i := range series {
			series[i].Account = a.Name
		}
		out = append(out, series...)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].YearMonth(), out[j].YearMonth()
		if a != b {
			return b.Before(a)
		}
		return out[i].Account < out[j].Account
	})
	return out
}

// reconstruct returns one entry per window month, newest first.
func reconstruct(current int64, txns []core.Transaction, window []core.YearMonth) []core.MonthBalance {
	series := make([]core.MonthBalance, len(window))
	pos := make(map[core.YearMonth]int, len(window))
	for i, ym := range window {
		series[i] = core.MonthBalance{Year: ym.Year, Month: ym.Month, Balance: current}
		pos[ym] = i
	}
	if len(window) == 0 {
		return series
	}
	newest := window[0]

	type dated struct {
		ym  core.YearMonth
		txn core.Transaction
	}
	sorted := make([]dated, 0, len(txns))
	for _, t := range txns {
		ym, err := core.ParseYearMonth(t.Date)
		if err != nil || newest.Before(ym) {
			continue
		}
		sorted = append(sorted, dated{ym: ym, txn: t})
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].txn.Date > sorted[j].txn.Date
	})

	running := current
	for _, d := range sorted {
		running -= d.txn.Amount
		for i := range series {
			if series[i].YearMonth().Before(d.ym) {
				series[i].Balance = running
			}
		}
		if i, ok := pos[d.ym]; ok {
			series[i].Transactions++
		}
	}
	return series
}

// fillChanges sets Change on every entry of a newest-first series except
// the oldest one.
func fillChanges(series []core.MonthBalance) {
	for i := 0; i+1 < len(series); i++ {
		change := series[i].Balance - series[i+1].Balance
		series[i].Change = &change
	}
}
