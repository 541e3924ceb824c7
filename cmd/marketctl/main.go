// Command marketctl runs maintenance jobs against the marketplace database.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/shinyyama/campus-market/internal/app"
	"github.com/shinyyama/campus-market/internal/config"
	"github.com/shinyyama/campus-market/internal/db"
	"github.com/shinyyama/campus-market/internal/identity"
	"github.com/spf13/cobra"
)

// operator is the requester maintenance jobs act as. Audit entries carry its id.
var operator = identity.Requester{ID: "marketctl", IsAdmin: true}

func main() {
	_ = godotenv.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "marketctl",
		Short:         "Campus market maintenance commands",
		SilenceUsage: true,
	}
	root.AddCommand(
		newMigrateCmd(),
		newReconcileCmd(),
		newSettleCmd(),
		newGrantAdminCmd(),
		newSeedCmd(),
	)
	return root
}

func withApp(ctx context.Context, fn func(a *app.App) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update tables for every model",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			conn, err := db.Connect(cfg)
			if err != nil {
				return fmt.Errorf("connect db: %w", err)
			}
			if err := db.Migrate(conn); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			log.Printf("migrated")
			return nil
		},
	}
}

func newReconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile-carts",
		Short: "Drop cart entries whose item is gone or no longer for sale",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), func(a *app.App) error {
				report, err := a.Admin.ReconcileCarts(cmd.Context(), operator)
				log.Printf("reconcile: scanned=%d missing=%d unavailable=%d removed=%d",
					report.Scanned, report.MissingItems, report.Unavailable, report.Removed)
				return err
			})
		},
	}
}
