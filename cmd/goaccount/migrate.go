package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/MrEthical07/goAccount/store/sqlstore"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long:  `Apply all pending schema migrations to the configured SQLite or PostgreSQL database.`,
		RunE:  runMigrate,
	}
	cmd.Flags().String("database.dialect", "sqlite", "database dialect (sqlite or postgres)")
	cmd.Flags().String("database.dsn", "", "database DSN; DATABASE_URL is used when empty")
	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(configFile, cmd.Flags())
	if err != nil {
		return err
	}
	if cfg.Database.DSN == "" {
		return oops.Code("CONFIG_INVALID").Errorf("database.dsn or DATABASE_URL is required")
	}

	ctx := cmd.Context()

	cmd.Println("Connecting to database...")
	db, err := sqlstore.Open(ctx, sqlstore.Dialect(cfg.Database.Dialect), cfg.Database.DSN)
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("operation", "connect to database").Wrap(err)
	}
	defer db.Close()

	cmd.Println("Running migrations...")
	if err := db.Migrate(ctx); err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "run migrations").Wrap(err)
	}

	cmd.Println("Migrations completed successfully")
	return nil
}
