package cmd

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Vibebros/sgkb-clanky/internal/config"
	"github.com/Vibebros/sgkb-clanky/internal/finance"
	"github.com/Vibebros/sgkb-clanky/internal/store"
)

var (
	recurringMinOccurrences int
	recurringTolerance      float64
)

var recurringCmd = &cobra.Command{
	Use:   "recurring",
	Short: "Detect recurring outgoing payments",
	RunE:  runRecurring,
}

func init() {
	defaults := finance.DefaultDetectorOptions()
	recurringCmd.Flags().IntVar(&recurringMinOccurrences, "min-occurrences", defaults.MinOccurrences, "minimum payments per creditor")
	recurringCmd.Flags().Float64Var(&recurringTolerance, "amount-tolerance", defaults.AmountTolerance, "relative amount deviation tolerance")
	rootCmd.AddCommand(recurringCmd)
}

func runRecurring(cmd *cobra.Command, args []string) error {
	ctx, span := tracer.Start(cmd.Context(), "recurring")
	defer span.End()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	st, err := store.NewStore(cfg.TransactionsDBPath())
	if err != nil {
		return fmt.Errorf("opening transaction store: %w", err)
	}
	defer st.Close()

	transactions, err := st.Outgoing(ctx)
	if err != nil {
		return fmt.Errorf("loading outgoing transactions: %w", err)
	}

	opts := finance.DefaultDetectorOptions()
	opts.MinOccurrences = recurringMinOccurrences
	opts.AmountTolerance = recurringTolerance
	records := finance.DetectRecurring(transactions, opts)

	if len(records) == 0 {
		fmt.Println("No recurring payments detected.")
		return nil
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"Creditor", "Base Amount", "Occurrences", "Last Payment", "Anomalies"})
	for _, r := range records {
		tw.AppendRow(table.Row{
			r.Creditor,
			r.BaseAmount.StringFixed(2),
			r.Occurrences,
			r.LastPayment.Format(store.DateLayout),
			len(r.Anomalies),
		})
	}
	tw.Render()
	return nil
}
