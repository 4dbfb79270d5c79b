package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	clankyotel "github.com/Vibebros/sgkb-clanky/internal/otel"
)

var tracer = clankyotel.Tracer("github.com/Vibebros/sgkb-clanky/internal/store")

const schema = `
CREATE TABLE IF NOT EXISTS bank_transactions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    account_name TEXT NOT NULL DEFAULT '',
    currency_type TEXT NOT NULL DEFAULT '',
    produkt TEXT NOT NULL DEFAULT '',
    customer_name TEXT NOT NULL DEFAULT '',
    trx_id INTEGER NOT NULL DEFAULT 0,
    trx_type_short TEXT NOT NULL DEFAULT '',
    trx_type_name TEXT NOT NULL DEFAULT '',
    buchungs_art_short TEXT NOT NULL DEFAULT '',
    buchungs_art_name TEXT NOT NULL DEFAULT '',
    val_date TEXT NOT NULL DEFAULT '',
    trx_date TEXT NOT NULL DEFAULT '',
    direction INTEGER NOT NULL DEFAULT 0,
    amount NUMERIC,
    trx_curry_name TEXT NOT NULL DEFAULT '',
    text_short_creditor TEXT NOT NULL DEFAULT '',
    text_creditor TEXT NOT NULL DEFAULT '',
    text_short_debitor TEXT NOT NULL DEFAULT '',
    text_debitor TEXT NOT NULL DEFAULT '',
    point_of_sale_and_location TEXT NOT NULL DEFAULT '',
    acquirer_country_name TEXT NOT NULL DEFAULT '',
    card_id TEXT NOT NULL DEFAULT '',
    cred_iban TEXT NOT NULL DEFAULT '',
    cred_addr_text TEXT NOT NULL DEFAULT '',
    cred_ref_nr TEXT NOT NULL DEFAULT '',
    cred_info TEXT NOT NULL DEFAULT '',
    category TEXT NOT NULL DEFAULT '',
    logo_url TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_transactions_val_date ON bank_transactions(val_date);
CREATE INDEX IF NOT EXISTS idx_transactions_direction ON bank_transactions(direction);
CREATE INDEX IF NOT EXISTS idx_transactions_category ON bank_transactions(category);
`

// selectColumns lists every column in scan order. Keep in sync with scanRow.
const selectColumns = `id, account_name, currency_type, produkt, customer_name, trx_id,
 trx_type_short, trx_type_name, buchungs_art_short, buchungs_art_name,
 val_date, trx_date, direction, amount, trx_curry_name,
 text_short_creditor, text_creditor, text_short_debitor, text_debitor,
 point_of_sale_and_location, acquirer_country_name, card_id,
 cred_iban, cred_addr_text, cred_ref_nr, cred_info, category, logo_url`

// Store is a SQLite-backed transaction collection.
type Store struct {
	db *sql.DB
}

// NewStore opens (and if necessary initializes) the transaction database.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening transaction database: %w", err)
	}
	if _, err := db.ExecContext(context.Background(), schema); err != nil {
		return nil, fmt.Errorf("creating transaction schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Insert persists a transaction and sets its ID.
func (s *Store) Insert(ctx context.Context, t *Transaction) error {
	var amount interface{}
	if t.Amount.Valid {
		amount = t.Amount.Decimal.String()
	}
	res, err := s.db.ExecContext(ctx, `
        INSERT INTO bank_transactions (
            account_name, currency_type, produkt, customer_name, trx_id,
            trx_type_short, trx_type_name, buchungs_art_short, buchungs_art_name,
            val_date, trx_date, direction, amount, trx_curry_name,
            text_short_creditor, text_creditor, text_short_debitor, text_debitor,
            point_of_sale_and_location, acquirer_country_name, card_id,
            cred_iban, cred_addr_text, cred_ref_nr, cred_info, category, logo_url
        ) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		t.AccountName, t.CurrencyType, t.Produkt, t.CustomerName, t.TrxID,
		t.TrxTypeShort, t.TrxTypeName, t.BuchungsArtShort, t.BuchungsArtName,
		formatDate(t.ValDate), formatDate(t.TrxDate), t.Direction, amount, t.TrxCurryName,
		t.TextShortCreditor, t.TextCreditor, t.TextShortDebitor, t.TextDebitor,
		t.PointOfSaleAndLocation, t.AcquirerCountryName, t.CardID,
		t.CredIban, t.CredAddrText, t.CredRefNr, t.CredInfo, t.Category, t.LogoURL,
	)
	if err != nil {
		return fmt.Errorf("inserting transaction: %w", err)
	}
	t.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading insert id: %w", err)
	}
	return nil
}

// Query applies the given sanitized filters as a conjunction, returning the
// unpaginated match count plus a window of rows ordered by value date
// descending. Pagination offsets are only meaningful under that fixed order.
func (s *Store) Query(ctx context.Context, filters map[string]interface{}, limit, offset int) (int, []Transaction, error) {
	ctx, span := tracer.Start(ctx, "store.query",
		trace.WithAttributes(
			attribute.Int("query.limit", limit),
			attribute.Int("query.offset", offset),
			attribute.Int("query.filters", len(filters)),
		))
	defer span.End()

	where, args := buildWhere(filters)

	var total int
	countQuery := "SELECT COUNT(*) FROM bank_transactions" + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		span.RecordError(err)
		return 0, nil, fmt.Errorf("counting transactions: %w", err)
	}

	query := "SELECT " + selectColumns + " FROM bank_transactions" + where +
		" ORDER BY val_date DESC, id DESC LIMIT ? OFFSET ?"
	rows, err := s.db.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		span.RecordError(err)
		return 0, nil, fmt.Errorf("querying transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []Transaction
	for rows.Next() {
		t, err := scanRow(rows)
		if err != nil {
			return 0, nil, err
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return 0, nil, fmt.Errorf("iterating transactions: %w", err)
	}

	span.SetAttributes(attribute.Int("query.total", total))
	return total, result, nil
}

// CountAll returns the number of stored transactions.
func (s *Store) CountAll(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM bank_transactions").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting transactions: %w", err)
	}
	return n, nil
}

// Outgoing returns all outflow transactions ordered by value date ascending.
// Used by the recurring payment detector.
func (s *Store) Outgoing(ctx context.Context) ([]Transaction, error) {
	query := "SELECT " + selectColumns + " FROM bank_transactions WHERE direction = ? ORDER BY val_date ASC, id ASC"
	rows, err := s.db.QueryContext(ctx, query, DirectionOutflow)
	if err != nil {
		return nil, fmt.Errorf("querying outgoing transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []Transaction
	for rows.Next() {
		t, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating outgoing transactions: %w", err)
	}
	return result, nil
}

// MissingLogo returns up to limit transactions that have a counterparty text
// but no logo yet. Used by the enrichment job.
func (s *Store) MissingLogo(ctx context.Context, limit int) ([]Transaction, error) {
	query := "SELECT " + selectColumns + ` FROM bank_transactions
        WHERE logo_url = '' AND (text_debitor != '' OR text_creditor != '')
        ORDER BY id ASC LIMIT ?`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("querying transactions without logo: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []Transaction
	for rows.Next() {
		t, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating transactions without logo: %w", err)
	}
	return result, nil
}

// SetLogoURL records the resolved logo for a transaction.
func (s *Store) SetLogoURL(ctx context.Context, id int64, url string) error {
	if _, err := s.db.ExecContext(ctx, "UPDATE bank_transactions SET logo_url = ? WHERE id = ?", url, id); err != nil {
		return fmt.Errorf("updating logo url: %w", err)
	}
	return nil
}

// buildWhere translates sanitized filter keys into SQL predicates. Only keys
// emitted by the sanitizer reach this point; anything else is ignored rather
// than interpolated.
func buildWhere(filters map[string]interface{}) (string, []interface{}) {
	var clauses []string
	var args []interface{}

	addLike := func(column string, value interface{}) {
		s, ok := value.(string)
		if !ok || s == "" {
			return
		}
		clauses = append(clauses, "LOWER("+column+") LIKE ?")
		args = append(args, "%"+strings.ToLower(s)+"%")
	}

	for key, value := range filters {
		switch key {
		case "start_date":
			if s, ok := value.(string); ok && s != "" {
				clauses = append(clauses, "val_date >= ?")
				args = append(args, s)
			}
		case "end_date":
			if s, ok := value.(string); ok && s != "" {
				clauses = append(clauses, "val_date <= ?")
				args = append(args, s)
			}
		case "min_amount":
			if f, ok := value.(float64); ok {
				clauses = append(clauses, "amount >= ?")
				args = append(args, f)
			}
		case "max_amount":
			if f, ok := value.(float64); ok {
				clauses = append(clauses, "amount <= ?")
				args = append(args, f)
			}
		case "direction":
			if d, ok := value.(int); ok {
				clauses = append(clauses, "direction = ?")
				args = append(args, d)
			}
		case "category":
			if s, ok := value.(string); ok && s != "" {
				clauses = append(clauses, "category = ?")
				args = append(args, s)
			}
		case "payment_method", "trx_type_name":
			addLike("trx_type_name", value)
		case "country", "acquirer_country_name":
			addLike("acquirer_country_name", value)
		case "produkt":
			addLike("produkt", value)
		case "account_name":
			addLike("account_name", value)
		case "customer_name":
			addLike("customer_name", value)
		case "buchungs_art_name":
			addLike("buchungs_art_name", value)
		case "text_short_creditor":
			addLike("text_short_creditor", value)
		case "text_creditor":
			addLike("text_creditor", value)
		case "text_debitor":
			addLike("text_debitor", value)
		case "point_of_sale_and_location":
			addLike("point_of_sale_and_location", value)
		case "cred_iban":
			addLike("cred_iban", value)
		case "cred_addr_text":
			addLike("cred_addr_text", value)
		case "cred_ref_nr":
			addLike("cred_ref_nr", value)
		case "cred_info":
			addLike("cred_info", value)
		}
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRow(r rowScanner) (Transaction, error) {
	var t Transaction
	var valDate, trxDate string
	var amount sql.NullString
	err := r.Scan(
		&t.ID, &t.AccountName, &t.CurrencyType, &t.Produkt, &t.CustomerName, &t.TrxID,
		&t.TrxTypeShort, &t.TrxTypeName, &t.BuchungsArtShort, &t.BuchungsArtName,
		&valDate, &trxDate, &t.Direction, &amount, &t.TrxCurryName,
		&t.TextShortCreditor, &t.TextCreditor, &t.TextShortDebitor, &t.TextDebitor,
		&t.PointOfSaleAndLocation, &t.AcquirerCountryName, &t.CardID,
		&t.CredIban, &t.CredAddrText, &t.CredRefNr, &t.CredInfo, &t.Category, &t.LogoURL,
	)
	if err != nil {
		return Transaction{}, fmt.Errorf("scanning transaction: %w", err)
	}
	t.ValDate = parseDate(valDate)
	t.TrxDate = parseDate(trxDate)
	if amount.Valid {
		d, err := decimal.NewFromString(amount.String)
		if err == nil {
			t.Amount = decimal.NewNullDecimal(d)
		}
	}
	return t, nil
}

func formatDate(d time.Time) string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}
	}
	return d
}
