// Package store persists bank transactions in SQLite and exposes the
// filter-and-fetch capability the query executor is built on: conjunction
// predicates, stable descending value-date order, pagination.
package store

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Direction codes on a transaction.
const (
	DirectionInflow  = 1
	DirectionOutflow = 2
)

// DateLayout is the wire format for transaction dates.
const DateLayout = "2006-01-02"

// Transaction is one bank booking. Amount is nullable because upstream
// exports occasionally omit it; such rows are kept for text search but
// skipped by amount-sensitive consumers (recurring detection, aggregates).
type Transaction struct {
	ID                     int64
	AccountName            string
	CurrencyType           string
	Produkt                string
	CustomerName           string
	TrxID                  int64
	TrxTypeShort           string
	TrxTypeName            string
	BuchungsArtShort       string
	BuchungsArtName        string
	ValDate                time.Time
	TrxDate                time.Time
	Direction              int
	Amount                 decimal.NullDecimal
	TrxCurryName           string
	TextShortCreditor      string
	TextCreditor           string
	TextShortDebitor       string
	TextDebitor            string
	PointOfSaleAndLocation string
	AcquirerCountryName    string
	CardID                 string
	CredIban               string
	CredAddrText           string
	CredRefNr              string
	CredInfo               string
	Category               string
	LogoURL                string
}

// HasAmount reports whether the transaction carries an amount.
func (t *Transaction) HasAmount() bool {
	return t.Amount.Valid
}

// AmountFloat returns the amount as float64, or 0 when absent. Transport
// payloads carry floats; decimal stays internal.
func (t *Transaction) AmountFloat() float64 {
	if !t.Amount.Valid {
		return 0
	}
	f, _ := t.Amount.Decimal.Float64()
	return f
}

// Counterparty returns the best available counterparty text: debitor first,
// creditor as fallback, cut at the first comma.
func (t *Transaction) Counterparty() string {
	raw := strings.TrimSpace(t.TextDebitor)
	if raw == "" {
		raw = strings.TrimSpace(t.TextCreditor)
	}
	name, _, _ := strings.Cut(raw, ",")
	return strings.TrimSpace(name)
}
