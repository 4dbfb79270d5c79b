package finance

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vibebros/sgkb-clanky/internal/store"
)

func TestSum_SkipsMissingAmounts(t *testing.T) {
	noAmount := outflow("X", "2024-01-01", 0)
	noAmount.Amount = decimal.NullDecimal{}

	total := Sum([]store.Transaction{
		outflow("A", "2024-01-01", -10.50),
		outflow("B", "2024-01-02", -4.50),
		noAmount,
	})

	assert.True(t, total.Equal(decimal.NewFromFloat(-15)), "got %s", total)
}

func TestAverage_EmptyIsZero(t *testing.T) {
	assert.True(t, Average(nil).IsZero())
}

func TestMedian(t *testing.T) {
	odd := []store.Transaction{
		outflow("A", "2024-01-01", -30),
		outflow("B", "2024-01-02", -10),
		outflow("C", "2024-01-03", -20),
	}
	assert.True(t, Median(odd).Equal(decimal.NewFromInt(-20)))

	even := append(odd, outflow("D", "2024-01-04", -40))
	assert.True(t, Median(even).Equal(decimal.NewFromInt(-25)))
}

func TestMinMaxTransaction(t *testing.T) {
	transactions := []store.Transaction{
		outflow("A", "2024-01-01", -30),
		outflow("B", "2024-01-02", -10),
	}

	minTx := MinTransaction(transactions)
	require.NotNil(t, minTx)
	assert.Equal(t, "A", minTx.TextCreditor)

	maxTx := MaxTransaction(transactions)
	require.NotNil(t, maxTx)
	assert.Equal(t, "B", maxTx.TextCreditor)

	assert.Nil(t, MinTransaction(nil))
	assert.Nil(t, MaxTransaction(nil))
}

func TestByCategory(t *testing.T) {
	a := outflow("A", "2024-01-01", -5)
	a.Category = "Lebensmittel"
	b := outflow("B", "2024-01-02", -5)
	b.Category = "Lebensmittel"
	c := outflow("C", "2024-01-03", -5)
	c.Category = "Transport"

	counts := ByCategory([]store.Transaction{a, b, c})
	assert.Equal(t, map[string]int{"Lebensmittel": 2, "Transport": 1}, counts)
}

func TestMonthlyTotals(t *testing.T) {
	totals := MonthlyTotals([]store.Transaction{
		outflow("A", "2024-01-05", -100),
		outflow("B", "2024-01-20", -50),
		outflow("C", "2024-02-01", -25),
	})

	require.Len(t, totals, 2)
	assert.True(t, totals["2024-01"].Equal(decimal.NewFromInt(-150)))
	assert.True(t, totals["2024-02"].Equal(decimal.NewFromInt(-25)))
}
