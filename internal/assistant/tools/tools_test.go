package tools

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vibebros/sgkb-clanky/internal/finance"
	"github.com/Vibebros/sgkb-clanky/internal/store"
)

type fakeStore struct {
	total    int
	rows     []store.Transaction
	outgoing []store.Transaction
	count    int
}

func (f *fakeStore) Query(_ context.Context, _ map[string]interface{}, _, _ int) (int, []store.Transaction, error) {
	return f.total, f.rows, nil
}

func (f *fakeStore) Outgoing(_ context.Context) ([]store.Transaction, error) {
	return f.outgoing, nil
}

func (f *fakeStore) CountAll(_ context.Context) (int, error) {
	return f.count, nil
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	reg := NewRegistry()
	reg.Register(NewCounter(&fakeStore{}))

	tool, ok := reg.Get("count_transactions")
	require.True(t, ok)
	assert.Equal(t, "count_transactions", tool.Name())

	_, ok = reg.Get("nope")
	assert.False(t, ok)

	assert.Len(t, reg.List(), 1)
}

func TestDBSearcher_Execute(t *testing.T) {
	fs := &fakeStore{total: 1, rows: []store.Transaction{{ID: 3, Category: "Transport"}}}
	tool := NewDBSearcher(finance.NewExecutor(fs))

	out, err := tool.Execute(context.Background(), json.RawMessage(`{
		"filters_json": "{\"category\": \"Transport\"}",
		"limit": 10
	}`))
	require.NoError(t, err)

	var result finance.DBResult
	require.NoError(t, json.Unmarshal(out, &result))
	assert.Equal(t, 1, result.Total)
	assert.Equal(t, 10, result.Limit)
	require.Len(t, result.Rows, 1)
}

func TestDBSearcher_BadFiltersJSONIsSoftError(t *testing.T) {
	tool := NewDBSearcher(finance.NewExecutor(&fakeStore{}))

	out, err := tool.Execute(context.Background(), json.RawMessage(`{"filters_json": "{broken"}`))
	require.NoError(t, err, "invalid filters_json must not fail the tool call")

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &payload))
	assert.Contains(t, payload["error"], "filters_json")
	assert.Equal(t, float64(0), payload["total"])
}

func TestRecurringDetector_Execute(t *testing.T) {
	day := func(date string) time.Time {
		d, _ := time.Parse(store.DateLayout, date)
		return d
	}
	pay := func(date string) store.Transaction {
		return store.Transaction{
			TextCreditor: "Sunrise",
			ValDate:      day(date),
			Direction:    store.DirectionOutflow,
			Amount:       decimal.NewNullDecimal(decimal.NewFromInt(-60)),
		}
	}
	fs := &fakeStore{outgoing: []store.Transaction{
		pay("2024-01-05"), pay("2024-02-04"), pay("2024-03-05"),
	}}
	tool := NewRecurringDetector(fs)

	out, err := tool.Execute(context.Background(), nil)
	require.NoError(t, err)

	var records []finance.RecurringPaymentRecord
	require.NoError(t, json.Unmarshal(out, &records))
	require.Len(t, records, 1)
	assert.Equal(t, "SUNRISE", records[0].Creditor)
}

func TestCounter_Execute(t *testing.T) {
	tool := NewCounter(&fakeStore{count: 321})

	out, err := tool.Execute(context.Background(), nil)
	require.NoError(t, err)

	var payload map[string]int
	require.NoError(t, json.Unmarshal(out, &payload))
	assert.Equal(t, 321, payload["count"])
}
