package finance

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	clankyotel "github.com/Vibebros/sgkb-clanky/internal/otel"
	"github.com/Vibebros/sgkb-clanky/internal/store"
)

var tracer = clankyotel.Tracer("github.com/Vibebros/sgkb-clanky/internal/finance")

// Pagination bounds enforced on every query, regardless of what the route
// decision asked for.
const (
	MinLimit = 1
	MaxLimit = 100
)

// DefaultResultFields is the projection used when the caller doesn't ask
// for specific columns.
var DefaultResultFields = []string{
	"id",
	"val_date",
	"amount",
	"direction",
	"customer_name",
	"account_name",
	"trx_type_name",
	"acquirer_country_name",
	"text_creditor",
	"trx_type_short",
	"buchungs_art_name",
	"text_debitor",
}

// Querier is the slice of the transaction store the executor needs.
type Querier interface {
	Query(ctx context.Context, filters map[string]interface{}, limit, offset int) (total int, rows []store.Transaction, err error)
}

// DBResult is the transport form of a paginated query: Total counts all
// matches independent of the window, Rows holds at most Limit records with
// transport-safe scalar values (ISO dates, float amounts).
type DBResult struct {
	Total  int                      `json:"total"`
	Limit  int                      `json:"limit"`
	Offset int                      `json:"offset"`
	Rows   []map[string]interface{} `json:"rows"`
}

// Executor runs sanitized filter sets against the transaction store.
type Executor struct {
	store Querier
}

// NewExecutor creates an executor over the given store.
func NewExecutor(q Querier) *Executor {
	return &Executor{store: q}
}

// Execute clamps pagination, runs the query on a worker goroutine so the
// caller's goroutine is never pinned on store I/O, and normalizes row values
// for transport. fields selects the projected columns; nil means
// DefaultResultFields.
func (e *Executor) Execute(ctx context.Context, filters map[string]interface{}, limit, offset int, fields []string) (*DBResult, error) {
	ctx, span := tracer.Start(ctx, "finance.execute_query",
		trace.WithAttributes(
			attribute.Int("query.requested_limit", limit),
			attribute.Int("query.requested_offset", offset),
		))
	defer span.End()

	if limit < MinLimit {
		limit = MinLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if offset < 0 {
		offset = 0
	}
	if len(fields) == 0 {
		fields = DefaultResultFields
	}

	type queryResult struct {
		total int
		rows  []store.Transaction
		err   error
	}
	resultCh := make(chan queryResult, 1)
	go func() {
		total, rows, err := e.store.Query(ctx, filters, limit, offset)
		resultCh <- queryResult{total: total, rows: rows, err: err}
	}()

	var res queryResult
	select {
	case res = <-resultCh:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if res.err != nil {
		span.RecordError(res.err)
		return nil, fmt.Errorf("executing transaction query: %w", res.err)
	}

	out := &DBResult{Total: res.total, Limit: limit, Offset: offset, Rows: make([]map[string]interface{}, 0, len(res.rows))}
	for i := range res.rows {
		row := make(map[string]interface{}, len(fields))
		for _, field := range fields {
			row[field] = fieldValue(&res.rows[i], field)
		}
		out.Rows = append(out.Rows, row)
	}

	span.SetAttributes(attribute.Int("query.total", out.Total))
	return out, nil
}

// fieldValue projects one column of a transaction into its transport form.
// Unknown field names yield nil rather than an error: projections come from
// agent output and must not be able to fail the query.
func fieldValue(t *store.Transaction, field string) interface{} {
	switch field {
	case "id":
		return t.ID
	case "account_name":
		return t.AccountName
	case "currency_type":
		return t.CurrencyType
	case "produkt":
		return t.Produkt
	case "customer_name":
		return t.CustomerName
	case "trx_id":
		return t.TrxID
	case "trx_type_short":
		return t.TrxTypeShort
	case "trx_type_name":
		return t.TrxTypeName
	case "buchungs_art_short":
		return t.BuchungsArtShort
	case "buchungs_art_name":
		return t.BuchungsArtName
	case "val_date":
		if t.ValDate.IsZero() {
			return nil
		}
		return t.ValDate.Format(store.DateLayout)
	case "trx_date":
		if t.TrxDate.IsZero() {
			return nil
		}
		return t.TrxDate.Format(store.DateLayout)
	case "direction":
		return t.Direction
	case "amount":
		if !t.Amount.Valid {
			return nil
		}
		return t.AmountFloat()
	case "trx_curry_name":
		return t.TrxCurryName
	case "text_short_creditor":
		return t.TextShortCreditor
	case "text_creditor":
		return t.TextCreditor
	case "text_short_debitor":
		return t.TextShortDebitor
	case "text_debitor":
		return t.TextDebitor
	case "point_of_sale_and_location":
		return t.PointOfSaleAndLocation
	case "acquirer_country_name":
		return t.AcquirerCountryName
	case "card_id":
		return t.CardID
	case "cred_iban":
		return t.CredIban
	case "cred_addr_text":
		return t.CredAddrText
	case "cred_ref_nr":
		return t.CredRefNr
	case "cred_info":
		return t.CredInfo
	case "category":
		return t.Category
	case "logo_url":
		return t.LogoURL
	}
	return nil
}
