package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Vibebros/sgkb-clanky/internal/finance"
	"github.com/Vibebros/sgkb-clanky/internal/store"
)

// OutgoingLister is the slice of the store the recurring detector tool needs.
type OutgoingLister interface {
	Outgoing(ctx context.Context) ([]store.Transaction, error)
}

// RecurringDetector exposes recurring payment detection to the advisor agent.
type RecurringDetector struct {
	store OutgoingLister
}

// NewRecurringDetector creates the detect_recurring_payments tool.
func NewRecurringDetector(s OutgoingLister) *RecurringDetector {
	return &RecurringDetector{store: s}
}

func (t *RecurringDetector) Name() string { return "detect_recurring_payments" }

func (t *RecurringDetector) Description() string {
	return "Erkennt wiederkehrende ausgehende Zahlungen (Abos, Miete, Nebenkosten) anhand von " +
		"Zahlungsrhythmus und Betragskonsistenz."
}

func (t *RecurringDetector) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"min_occurrences":   map[string]interface{}{"type": "integer", "default": 3},
			"min_interval_days": map[string]interface{}{"type": "integer", "default": 25},
			"max_interval_days": map[string]interface{}{"type": "integer", "default": 35},
			"amount_tolerance":  map[string]interface{}{"type": "number", "default": 0.2},
			"anomaly_tolerance": map[string]interface{}{"type": "number", "default": 0.25},
		},
	}
}

type recurringArgs struct {
	MinOccurrences   int     `json:"min_occurrences"`
	MinIntervalDays  int     `json:"min_interval_days"`
	MaxIntervalDays  int     `json:"max_interval_days"`
	AmountTolerance  float64 `json:"amount_tolerance"`
	AnomalyTolerance float64 `json:"anomaly_tolerance"`
}

// Execute loads outgoing transactions and runs the detector with the
// requested tuning; unset arguments keep their defaults.
func (t *RecurringDetector) Execute(ctx context.Context, params json.RawMessage) (json.RawMessage, error) {
	opts := finance.DefaultDetectorOptions()
	if len(params) > 0 {
		var args recurringArgs
		if err := json.Unmarshal(params, &args); err != nil {
			return nil, fmt.Errorf("parsing detect_recurring_payments arguments: %w", err)
		}
		if args.MinOccurrences > 0 {
			opts.MinOccurrences = args.MinOccurrences
		}
		if args.MinIntervalDays > 0 {
			opts.MinIntervalDays = args.MinIntervalDays
		}
		if args.MaxIntervalDays > 0 {
			opts.MaxIntervalDays = args.MaxIntervalDays
		}
		if args.AmountTolerance > 0 {
			opts.AmountTolerance = args.AmountTolerance
		}
		if args.AnomalyTolerance > 0 {
			opts.AnomalyTolerance = args.AnomalyTolerance
		}
	}

	transactions, err := t.store.Outgoing(ctx)
	if err != nil {
		return nil, err
	}
	return json.Marshal(finance.DetectRecurring(transactions, opts))
}
