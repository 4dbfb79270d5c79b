package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Vibebros/sgkb-clanky/internal/config"
	"github.com/Vibebros/sgkb-clanky/internal/store"
)

var chatJSON bool

var chatCmd = &cobra.Command{
	Use:   "chat <message>",
	Short: "Send one message to the assistant and print the answer",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runChat,
}

func init() {
	chatCmd.Flags().BoolVar(&chatJSON, "json", false, "print the full structured response as JSON")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx, span := tracer.Start(cmd.Context(), "chat")
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

	engine, err := buildEngine(cfg, st)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	resp, err := engine.Run(ctx, strings.Join(args, " "), nil)
	if err != nil {
		return err
	}

	if chatJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}
	fmt.Printf("[%s] %s\n", resp.Status, resp.Message)
	return nil
}
