package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/ctbkit/ctbkit/pkg/token"
	"github.com/ctbkit/ctbkit/pkg/token/storage"
)

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Inspect and manage the persisted purchase token",
	}

	cmd.AddCommand(newTokenShowCmd())
	cmd.AddCommand(newTokenFetchCmd())
	cmd.AddCommand(newTokenClearCmd())

	return cmd
}

func newTokenShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the persisted token record",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			store, err := newStore(cfg)
			if err != nil {
				return fmt.Errorf("failed to open token storage: %w", err)
			}

			rec, err := store.Load(cmd.Context())
			if errors.Is(err, storage.ErrNotFound) {
				pterm.Info.Println("No token record persisted.")
				return nil
			}
			if err != nil {
				return fmt.Errorf("failed to load token record: %w", err)
			}

			rows := pterm.TableData{
				{"Field", "Value"},
				{"Value", truncate(rec.RawValue, 72)},
				{"Expires", rec.ExpiresAt.Format(time.RFC3339)},
				{"Remaining", rec.TTL().Round(time.Second).String()},
				{"Valid", fmt.Sprintf("%t", rec.IsValid())},
			}
			if err := pterm.DefaultTable.WithHasHeader(true).WithData(rows).Render(); err != nil {
				return err
			}

			renderClaims(rec.RawValue)
			return nil
		},
	}
}

// renderClaims prints JWT claims for the embedded access token when it
// happens to be a JWT. Opaque credentials are skipped silently.
func renderClaims(rawValue string) {
	creds, err := token.ExtractCredentials(rawValue)
	if err != nil || creds.AccessToken == "" {
		return
	}
	claims, err := token.InspectClaims(creds.AccessToken)
	if err != nil {
		return
	}

	rows := pterm.TableData{
		{"Claim", "Value"},
		{"Subject", claims.Subject},
		{"Issuer", claims.Issuer},
	}
	if !claims.IssuedAt.IsZero() {
		rows = append(rows, []string{"Issued", claims.IssuedAt.Format(time.RFC3339)})
	}
	if !claims.ExpiresAt.IsZero() {
		rows = append(rows, []string{"Expires", claims.ExpiresAt.Format(time.RFC3339)})
	}

	pterm.Println()
	_ = pterm.DefaultTable.WithHasHeader(true).WithData(rows).Render()
}

func newTokenFetchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch",
		Short: "Fetch a fresh token and persist it",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			store, err := newStore(cfg)
			if err != nil {
				return fmt.Errorf("failed to open token storage: %w", err)
			}

			mgr := token.NewManager(store, newAPIClient(cfg), token.WithTTL(cfg.TokenTTL))
			defer mgr.Close()

			if err := mgr.FetchAndStore(cmd.Context()); err != nil {
				return fmt.Errorf("failed to fetch token: %w", err)
			}

			rec, ok := mgr.Current()
			if !ok {
				return fmt.Errorf("no token after fetch")
			}

			pterm.Success.Printfln("Token persisted, expires %s", rec.ExpiresAt.Format(time.RFC3339))
			return nil
		},
	}
}

func newTokenClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete the persisted token record",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			store, err := newStore(cfg)
			if err != nil {
				return fmt.Errorf("failed to open token storage: %w", err)
			}

			if err := store.Delete(cmd.Context()); err != nil && !errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("failed to delete token record: %w", err)
			}

			pterm.Success.Println("Token record cleared.")
			return nil
		},
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
