// Package main implements the ctbkit operator CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ctbkit/ctbkit/pkg/api"
	"github.com/ctbkit/ctbkit/pkg/config"
	"github.com/ctbkit/ctbkit/pkg/logx"
	"github.com/ctbkit/ctbkit/pkg/token/storage"
)

var (
	// Version is set at build time
	version = "0.3.0"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ctbkit",
		Short: "ctbkit - Click-to-Buy session and token toolkit",
		Long: `ctbkit manages the client side of a Click-to-Buy integration:
purchase-authorization tokens, modal purchase sessions, and the
cross-frame message bridge.

Tokens are fetched from the host application, persisted with an
absolute expiry, and renewed on a single background timer.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			verbose, _ := cmd.Flags().GetBool("verbose")
			logx.SetVerbose(verbose)
		},
	}

	cmd.PersistentFlags().StringP("config", "c", "", "Path to config file")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	cmd.PersistentFlags().String("locale", "", "Locale applied to frame URLs")

	cmd.AddCommand(newTokenCmd())
	cmd.AddCommand(newOpenCmd())
	cmd.AddCommand(newWatchCmd())

	return cmd
}

// loadConfig builds the effective configuration for a command invocation.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	loader := config.NewLoader()
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		loader.SetConfigFile(path)
	}
	if err := loader.BindFlags(cmd.Flags()); err != nil {
		return nil, fmt.Errorf("failed to bind flags: %w", err)
	}
	return loader.Load()
}

func newStore(cfg *config.Config) (storage.Store, error) {
	return storage.NewFactory().Create(&cfg.Storage, config.AppName)
}

func newAPIClient(cfg *config.Config) *api.Client {
	var opts []api.Option
	if cfg.CSRFToken != "" {
		opts = append(opts, api.WithCSRFToken(cfg.CSRFToken))
	}
	return api.NewClient(cfg.RestRoot, cfg.EventEndpoint, opts...)
}
