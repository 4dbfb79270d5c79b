package cmd

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/Vibebros/sgkb-clanky/internal/config"
	"github.com/Vibebros/sgkb-clanky/internal/store"
)

var importCmd = &cobra.Command{
	Use:   "import <file.csv>",
	Short: "Import transactions from a CSV file",
	Long: `Import bank transactions from a CSV file into the local store.

The first row must be a header; columns are matched by name (snake_case,
e.g. val_date, amount, direction, text_creditor). Unknown columns are
ignored, missing ones default to empty.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx, span := tracer.Start(cmd.Context(), "import")
	defer span.End()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.EnsureDataDir(); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	st, err := store.NewStore(cfg.TransactionsDBPath())
	if err != nil {
		return fmt.Errorf("opening transaction store: %w", err)
	}
	defer st.Close()

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("opening csv: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("reading csv header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[name] = i
	}

	imported, skipped := 0, 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("reading csv row: %w", err)
		}
		t, err := parseTransactionRow(columns, row)
		if err != nil {
			log.Warn().Err(err).Int("row", imported+skipped+2).Msg("import_row_skipped")
			skipped++
			continue
		}
		if err := st.Insert(ctx, t); err != nil {
			return err
		}
		imported++
	}

	log.Info().Int("imported", imported).Int("skipped", skipped).Msg("import_done")
	fmt.Printf("Imported %d transactions (%d skipped)\n", imported, skipped)
	return nil
}

func parseTransactionRow(columns map[string]int, row []string) (*store.Transaction, error) {
	field := func(name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return row[idx]
	}

	t := &store.Transaction{
		AccountName:            field("account_name"),
		CurrencyType:           field("currency_type"),
		Produkt:                field("produkt"),
		CustomerName:           field("customer_name"),
		TrxTypeShort:           field("trx_type_short"),
		TrxTypeName:            field("trx_type_name"),
		BuchungsArtShort:       field("buchungs_art_short"),
		BuchungsArtName:        field("buchungs_art_name"),
		TrxCurryName:           field("trx_curry_name"),
		TextShortCreditor:      field("text_short_creditor"),
		TextCreditor:           field("text_creditor"),
		TextShortDebitor:       field("text_short_debitor"),
		TextDebitor:            field("text_debitor"),
		PointOfSaleAndLocation: field("point_of_sale_and_location"),
		AcquirerCountryName:    field("acquirer_country_name"),
		CardID:                 field("card_id"),
		CredIban:               field("cred_iban"),
		CredAddrText:           field("cred_addr_text"),
		CredRefNr:              field("cred_ref_nr"),
		CredInfo:               field("cred_info"),
		Category:               field("category"),
	}

	if v := field("trx_id"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid trx_id %q: %w", v, err)
		}
		t.TrxID = n
	}
	if v := field("direction"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid direction %q: %w", v, err)
		}
		t.Direction = n
	}
	if v := field("amount"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return nil, fmt.Errorf("invalid amount %q: %w", v, err)
		}
		t.Amount = decimal.NewNullDecimal(d)
	}
	if v := field("val_date"); v != "" {
		d, err := time.Parse(store.DateLayout, v)
		if err != nil {
			return nil, fmt.Errorf("invalid val_date %q: %w", v, err)
		}
		t.ValDate = d
	}
	if v := field("trx_date"); v != "" {
		d, err := time.Parse(store.DateLayout, v)
		if err != nil {
			return nil, fmt.Errorf("invalid trx_date %q: %w", v, err)
		}
		t.TrxDate = d
	}
	return t, nil
}
