package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"quarters/config"
	"quarters/server"
)

func main() {
	root := &cobra.Command{
		Use:          "quarters",
		Short:        "Lease lifecycle service: invites, approvals, signatures, rent charges",
		SilenceUsage: true,
	}

	root.AddCommand(serveCmd(), chargesCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.MustLoad()
			app := &server.App{}
			if err := app.Initialize(cfg); err != nil {
				log.Fatal(err)
			}
			return app.Run()
		},
	}
}

// Генератор платежей запускается извне (cron/systemd timer), не из сервера.
func chargesCmd() *cobra.Command {
	var (
		dateStr string
		dryRun  bool
	)
	gen := &cobra.Command{
		Use:   "generate",
		Short: "Create the current period's rent charges (idempotent)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.MustLoad()

			ref := time.Now().UTC()
			if dateStr != "" {
				t, err := time.Parse("2006-01-02", dateStr)
				if err != nil {
					return fmt.Errorf("bad --date (want YYYY-MM-DD): %w", err)
				}
				ref = t
			}

			g, closeFn, err := server.NewChargeGenerator(cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			sum, err := g.Generate(context.Background(), ref, dryRun)
			if err != nil {
				return err
			}
			fmt.Printf("created=%d existing=%d skipped=%d\n", sum.Created, sum.Existing, sum.Skipped)
			return nil
		},
	}
	gen.Flags().StringVar(&dateStr, "date", "", "reference date (YYYY-MM-DD), default today")
	gen.Flags().BoolVar(&dryRun, "dry-run", false, "log intended charges without persisting")

	charges := &cobra.Command{Use: "charges", Short: "Billing jobs"}
	charges.AddCommand(gen)
	return charges
}
