package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/orris-inc/tenantbilling/internal/interfaces/cli/migrate"
	"github.com/orris-inc/tenantbilling/internal/interfaces/cli/server"
	"github.com/orris-inc/tenantbilling/internal/interfaces/cli/sweep"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "billing",
		Short: "Tenant billing and entitlement service",
		Long:  `billing tracks tenant subscriptions, trials, downgrades and Paystack payments, and answers plan entitlement checks.`,
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		migrate.NewCommand(),
		sweep.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
