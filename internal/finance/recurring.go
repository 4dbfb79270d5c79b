package finance

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Vibebros/sgkb-clanky/internal/store"
)

// DetectorOptions tune the recurring payment detector. The defaults target
// monthly payments: rent, subscriptions, utilities.
type DetectorOptions struct {
	MinOccurrences   int     // minimum group size to consider
	MinIntervalDays  int     // lower bound for a valid payment gap
	MaxIntervalDays  int     // upper bound for a valid payment gap
	AmountTolerance  float64 // relative deviation from the baseline amount
	AnomalyTolerance float64 // fraction of the group allowed to be anomalous
}

// DefaultDetectorOptions returns the standard monthly-payment tuning.
func DefaultDetectorOptions() DetectorOptions {
	return DetectorOptions{
		MinOccurrences:   3,
		MinIntervalDays:  25,
		MaxIntervalDays:  35,
		AmountTolerance:  0.2,
		AnomalyTolerance: 0.25,
	}
}

// AmountAnomaly is a payment whose amount strays from the group baseline.
type AmountAnomaly struct {
	Date   time.Time       `json:"date"`
	Amount decimal.Decimal `json:"amount"`
}

// RecurringPaymentRecord describes one detected recurring payment group.
// Computed per detection call, never persisted.
type RecurringPaymentRecord struct {
	Creditor    string          `json:"creditor"`
	BaseAmount  decimal.Decimal `json:"base_amount"`
	Occurrences int             `json:"occurrences"`
	LastPayment time.Time       `json:"last_payment"`
	Anomalies   []AmountAnomaly `json:"anomalies,omitempty"`
}

// DetectRecurring finds approximately periodic outgoing payments.
//
// Real recurring payments drift: prices change, a month gets skipped. So
// both checks tolerate a bounded fraction of outliers. A group passes when
// at least MinOccurrences-1 consecutive gaps fall inside the interval
// window (most, not all), and when the number of amount anomalies does not
// exceed floor(group size × AnomalyTolerance).
func DetectRecurring(transactions []store.Transaction, opts DetectorOptions) []RecurringPaymentRecord {
	groups := make(map[string][]store.Transaction)
	for _, t := range transactions {
		if t.Direction != store.DirectionOutflow || !t.HasAmount() || t.ValDate.IsZero() {
			continue
		}
		creditor := strings.ToUpper(strings.TrimSpace(t.TextCreditor))
		if creditor == "" {
			creditor = "UNKNOWN"
		}
		groups[creditor] = append(groups[creditor], t)
	}

	var recurring []RecurringPaymentRecord
	for creditor, group := range groups {
		if len(group) < opts.MinOccurrences {
			continue
		}
		sort.Slice(group, func(i, j int) bool {
			return group[i].ValDate.Before(group[j].ValDate)
		})

		validGaps := 0
		for i := 1; i < len(group); i++ {
			gap := int(group[i].ValDate.Sub(group[i-1].ValDate).Hours() / 24)
			if gap >= opts.MinIntervalDays && gap <= opts.MaxIntervalDays {
				validGaps++
			}
		}
		if validGaps < opts.MinOccurrences-1 {
			continue
		}

		baseline := group[0].Amount.Decimal
		tolerance := baseline.Abs().Mul(decimal.NewFromFloat(opts.AmountTolerance))
		var anomalies []AmountAnomaly
		for _, t := range group {
			if t.Amount.Decimal.Sub(baseline).Abs().GreaterThan(tolerance) {
				anomalies = append(anomalies, AmountAnomaly{Date: t.ValDate, Amount: t.Amount.Decimal})
			}
		}
		if len(anomalies) > int(float64(len(group))*opts.AnomalyTolerance) {
			continue
		}

		recurring = append(recurring, RecurringPaymentRecord{
			Creditor:    creditor,
			BaseAmount:  baseline,
			Occurrences: len(group),
			LastPayment: group[len(group)-1].ValDate,
			Anomalies:   anomalies,
		})
	}

	sort.Slice(recurring, func(i, j int) bool {
		return recurring[i].Creditor < recurring[j].Creditor
	})
	return recurring
}
