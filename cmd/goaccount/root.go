package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the goaccount CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "goaccount",
		Short: "goaccount - user account lifecycle service",
		Long: `goaccount registers users, confirms registrations by email, logs users
in and out, and resets lost passwords. It stores accounts in SQLite or
PostgreSQL and sessions in Redis.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (YAML)")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewHashCmd())
	cmd.AddCommand(NewBenchCmd())

	return cmd
}
