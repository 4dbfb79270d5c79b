package finance

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/Vibebros/sgkb-clanky/internal/store"
)

// Aggregates over transaction slices. Rows without an amount are skipped;
// they carry no information for any of these measures.

// Sum totals the amounts of the given transactions.
func Sum(transactions []store.Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, t := range transactions {
		if t.HasAmount() {
			total = total.Add(t.Amount.Decimal)
		}
	}
	return total
}

// Average returns the mean amount, or zero for an empty (or amount-less) slice.
func Average(transactions []store.Transaction) decimal.Decimal {
	total := decimal.Zero
	count := 0
	for _, t := range transactions {
		if t.HasAmount() {
			total = total.Add(t.Amount.Decimal)
			count++
		}
	}
	if count == 0 {
		return decimal.Zero
	}
	return total.Div(decimal.NewFromInt(int64(count)))
}

// Median returns the middle amount, or zero for an empty slice. For an even
// count it averages the two middle values.
func Median(transactions []store.Transaction) decimal.Decimal {
	var values []decimal.Decimal
	for _, t := range transactions {
		if t.HasAmount() {
			values = append(values, t.Amount.Decimal)
		}
	}
	if len(values) == 0 {
		return decimal.Zero
	}
	sort.Slice(values, func(i, j int) bool { return values[i].LessThan(values[j]) })
	mid := len(values) / 2
	if len(values)%2 == 1 {
		return values[mid]
	}
	return values[mid-1].Add(values[mid]).Div(decimal.NewFromInt(2))
}

// MinTransaction returns the transaction with the smallest amount, or nil.
func MinTransaction(transactions []store.Transaction) *store.Transaction {
	var best *store.Transaction
	for i := range transactions {
		t := &transactions[i]
		if !t.HasAmount() {
			continue
		}
		if best == nil || t.Amount.Decimal.LessThan(best.Amount.Decimal) {
			best = t
		}
	}
	return best
}

// MaxTransaction returns the transaction with the largest amount, or nil.
func MaxTransaction(transactions []store.Transaction) *store.Transaction {
	var best *store.Transaction
	for i := range transactions {
		t := &transactions[i]
		if !t.HasAmount() {
			continue
		}
		if best == nil || t.Amount.Decimal.GreaterThan(best.Amount.Decimal) {
			best = t
		}
	}
	return best
}

// ByCategory counts transactions per category name.
func ByCategory(transactions []store.Transaction) map[string]int {
	totals := make(map[string]int)
	for _, t := range transactions {
		totals[t.Category]++
	}
	return totals
}

// MonthlyTotals sums amounts per "YYYY-MM" bucket of the value date.
func MonthlyTotals(transactions []store.Transaction) map[string]decimal.Decimal {
	totals := make(map[string]decimal.Decimal)
	for _, t := range transactions {
		if !t.HasAmount() || t.ValDate.IsZero() {
			continue
		}
		month := t.ValDate.Format("2006-01")
		totals[month] = totals[month].Add(t.Amount.Decimal)
	}
	return totals
}
