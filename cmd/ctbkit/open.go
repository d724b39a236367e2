package main

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/ctbkit/ctbkit/pkg/click"
	"github.com/ctbkit/ctbkit/pkg/config"
	"github.com/ctbkit/ctbkit/pkg/gate"
	"github.com/ctbkit/ctbkit/pkg/host"
	"github.com/ctbkit/ctbkit/pkg/session"
	"github.com/ctbkit/ctbkit/pkg/token"
)

func newOpenCmd() *cobra.Command {
	var (
		destination   string
		clickContext  string
		envPairs      []string
		skipInitToken bool
	)

	cmd := &cobra.Command{
		Use:   "open <ctb-id>",
		Short: "Run a purchase-session open against a mock surface",
		Long: `Open simulates a full click-to-session flow on a mock embedding
surface: the trigger click is routed, the gate is evaluated, the purchase
URL is resolved through the token path with per-CTB fallback fetch, and
the resulting frame URL and session state are printed.

No browser or real modal is involved; the host application endpoints are
hit for real.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			return runOpen(cmd, cfg, args[0], destination, clickContext, envPairs, skipInitToken)
		},
	}

	cmd.Flags().StringVar(&destination, "destination", "", "Plain-link fallback URL carried by the trigger")
	cmd.Flags().StringVar(&clickContext, "context", "", "Analytics context attribute on the trigger")
	cmd.Flags().StringArrayVar(&envPairs, "env", nil, "Gate environment entries as key=value")
	cmd.Flags().BoolVar(&skipInitToken, "no-init", false, "Skip the startup token initialization")

	return cmd
}

func runOpen(cmd *cobra.Command, cfg *config.Config, ctbID, destination, clickContext string, envPairs []string, skipInit bool) error {
	ctx := cmd.Context()

	store, err := newStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to open token storage: %w", err)
	}

	client := newAPIClient(cfg)
	mgr := token.NewManager(store, client, token.WithTTL(cfg.TokenTTL))
	defer mgr.Close()

	if !skipInit {
		if err := mgr.InitializeFromStorage(ctx); err != nil {
			pterm.Warning.Printfln("Token initialization failed: %v", err)
		}
	}

	surface := &host.MockSurface{}
	page := &host.MockPage{}
	opener := &host.MockOpener{}

	coord := session.NewCoordinator(session.CoordinatorConfig{
		Tokens:  mgr,
		Fetcher: client,
		Events:  client,
		Surface: surface,
		Page:    page,
		Opener:  opener,
		Dialogs: func(host.Surface) host.Dialog { return &host.MockDialog{} },
		Locale:  cfg.Locale,
		Brand:   cfg.Brand,
		PageID:  cfg.Page,
	})
	defer coord.Close()

	env, err := parseEnvPairs(envPairs)
	if err != nil {
		return err
	}

	trigger := buildTrigger(ctbID, destination, clickContext)
	router := click.NewRouter(coord, gate.New(cfg.Gate.Expression), func() map[string]any { return env })

	consumed := router.HandleClick(ctx, click.Event{Target: trigger})
	if !consumed {
		pterm.Info.Println("Click passed through: gate closed or trigger disabled.")
		return nil
	}

	return renderOpenResult(coord, surface, opener)
}

func buildTrigger(ctbID, destination, clickContext string) host.Element {
	attrs := map[string]string{
		host.AttrCTBID:  ctbID,
		host.AttrAction: "buy",
	}
	if destination != "" {
		attrs[host.AttrHref] = destination
	}
	if clickContext != "" {
		attrs[host.AttrContext] = clickContext
	}
	return host.NewMapElement(attrs)
}

func parseEnvPairs(pairs []string) (map[string]any, error) {
	env := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid env entry %q, expected key=value", pair)
		}
		env[key] = value
	}
	return env, nil
}

func renderOpenResult(coord *session.Coordinator, surface *host.MockSurface, opener *host.MockOpener) error {
	rows := pterm.TableData{{"Field", "Value"}}

	if sess, ok := coord.Current(); ok {
		rows = append(rows,
			[]string{"Session", sess.ID.String()},
			[]string{"CTB ID", sess.CTBID},
			[]string{"State", sess.State.String()},
		)
	} else {
		rows = append(rows, []string{"Session", "closed"})
	}

	if surface.Frame != nil {
		rows = append(rows, []string{"Frame URL", surface.Frame.Src})
	}
	if surface.ErrorBody != "" {
		rows = append(rows, []string{"Error panel", surface.ErrorBody})
	}
	for _, url := range opener.GetOpenedURLs() {
		rows = append(rows, []string{"Would open", url})
	}

	return pterm.DefaultTable.WithHasHeader(true).WithData(rows).Render()
}
