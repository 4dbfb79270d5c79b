package tools

import (
	"context"
	"encoding/json"
)

// TransactionCounter is the slice of the store the count tool needs.
type TransactionCounter interface {
	CountAll(ctx context.Context) (int, error)
}

// Counter reports how many transactions exist in total.
type Counter struct {
	store TransactionCounter
}

// NewCounter creates the count_transactions tool.
func NewCounter(s TransactionCounter) *Counter {
	return &Counter{store: s}
}

func (t *Counter) Name() string { return "count_transactions" }

func (t *Counter) Description() string {
	return "Gibt zurück, wie viele Transaktionen insgesamt gespeichert sind."
}

func (t *Counter) Parameters() map[string]interface{} {
	return map[string]interface{}{"type": "object", "properties": map[string]interface{}{}}
}

// Execute returns the total transaction count.
func (t *Counter) Execute(ctx context.Context, _ json.RawMessage) (json.RawMessage, error) {
	count, err := t.store.CountAll(ctx)
	if err != nil {
		return nil, err
	}
	return json.Marshal(map[string]int{"count": count})
}
