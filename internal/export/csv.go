// Package export renders transaction sets as CSV for spreadsheet handoff.
// Values use the same transport-safe scalar forms as the query executor:
// ISO dates, plain decimal strings for amounts.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/Vibebros/sgkb-clanky/internal/store"
)

// Header is the fixed CSV column order.
var Header = []string{
	"id",
	"val_date",
	"trx_date",
	"amount",
	"currency",
	"direction",
	"customer_name",
	"account_name",
	"trx_type_name",
	"buchungs_art_name",
	"text_creditor",
	"text_debitor",
	"point_of_sale_and_location",
	"acquirer_country_name",
	"category",
}

// WriteCSV streams the given transactions as CSV, header first.
func WriteCSV(w io.Writer, transactions []store.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for i := range transactions {
		if err := cw.Write(record(&transactions[i])); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}
	return nil
}

func record(t *store.Transaction) []string {
	amount := ""
	if t.Amount.Valid {
		amount = t.Amount.Decimal.String()
	}
	valDate := ""
	if !t.ValDate.IsZero() {
		valDate = t.ValDate.Format(store.DateLayout)
	}
	trxDate := ""
	if !t.TrxDate.IsZero() {
		trxDate = t.TrxDate.Format(store.DateLayout)
	}
	return []string{
		strconv.FormatInt(t.ID, 10),
		valDate,
		trxDate,
		amount,
		t.TrxCurryName,
		strconv.Itoa(t.Direction),
		t.CustomerName,
		t.AccountName,
		t.TrxTypeName,
		t.BuchungsArtName,
		t.TextCreditor,
		t.TextDebitor,
		t.PointOfSaleAndLocation,
		t.AcquirerCountryName,
		t.Category,
	}
}
