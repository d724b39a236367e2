package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/ctbkit/ctbkit/pkg/api"
	"github.com/ctbkit/ctbkit/pkg/bridge"
	"github.com/ctbkit/ctbkit/pkg/host"
	"github.com/ctbkit/ctbkit/pkg/logx"
	"github.com/ctbkit/ctbkit/pkg/session"
	"github.com/ctbkit/ctbkit/pkg/token"
)

func newWatchCmd() *cobra.Command {
	var maxReconnects int

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Connect to the frame relay and process bridge messages",
		Long: `Watch connects to the configured relay endpoint and runs the
cross-frame bridge against a headless surface: sizing requests, token
renewals, and close signals from frame messages are applied exactly as
an embedding would apply them.

Token renewals are persisted, so a long-running watch keeps the stored
token fresh. Interrupt to stop.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if cfg.Bridge.Endpoint == "" {
				return fmt.Errorf("bridge.endpoint is required for watch")
			}
			if cfg.TrustedOrigin == "" {
				return fmt.Errorf("trusted_origin is required for watch")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log := logx.WithComponent("watch")

			store, err := newStore(cfg)
			if err != nil {
				return fmt.Errorf("failed to open token storage: %w", err)
			}

			client := newAPIClient(cfg)
			mgr := token.NewManager(store, client, token.WithTTL(cfg.TokenTTL))
			defer mgr.Close()

			if err := mgr.InitializeFromStorage(ctx); err != nil {
				log.WithError(err).Warn("token initialization failed")
			}

			coord := session.NewCoordinator(session.CoordinatorConfig{
				Tokens:  mgr,
				Fetcher: client,
				Events:  client,
				Surface: &host.MockSurface{},
				Page:    &host.MockPage{},
				Opener:  &host.MockOpener{},
				Dialogs: func(host.Surface) host.Dialog { return &host.MockDialog{} },
				Locale:  cfg.Locale,
				Brand:   cfg.Brand,
				PageID:  cfg.Page,
			})
			defer coord.Close()

			b := bridge.New(cfg.TrustedOrigin, coord, mgr)

			headers := map[string]string{}
			if cfg.CSRFToken != "" {
				headers[api.CSRFHeader] = cfg.CSRFToken
			}

			listener := bridge.NewListener(&bridge.ListenerConfig{
				Endpoint:             cfg.Bridge.Endpoint,
				Headers:              headers,
				MaxReconnectAttempts: maxReconnects,
			}, b)
			defer listener.Close()

			s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
			s.Suffix = fmt.Sprintf(" Connecting to %s...", cfg.Bridge.Endpoint)
			s.Start()

			err = listener.Connect(ctx)
			s.Stop()
			if err != nil {
				return fmt.Errorf("failed to connect to relay: %w", err)
			}

			pterm.Success.Printfln("Connected to %s, watching for frame messages.", cfg.Bridge.Endpoint)

			for {
				select {
				case <-ctx.Done():
					pterm.Info.Println("Stopping.")
					return nil
				case err, ok := <-listener.Errors():
					if !ok {
						return nil
					}
					log.WithError(err).Warn("relay error")
				}
			}
		},
	}

	cmd.Flags().IntVar(&maxReconnects, "max-reconnects", 0, "Limit reconnect attempts (0 = unlimited)")

	return cmd
}
