package cli

import (
	"context"
	"log"
	"strings"

	"github.com/spf13/cobra"

	"quiz-attempt-service/internal/config"
	"quiz-attempt-service/internal/infra/sqlstore"
	"quiz-attempt-service/internal/infra/sqlstore/migrations"
)

// NewMigrateCmd applies database migrations.
func NewMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrations(cmd.Context(), *configPath)
		},
	}
}

func runMigrations(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if strings.EqualFold(cfg.Database.Driver, "memory") {
		log.Printf("database driver is memory, nothing to migrate")
		return nil
	}
	db, err := sqlstore.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer db.Close()
	return migrations.Apply(ctx, db)
}
