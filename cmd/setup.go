package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/tclive/internal/shared"
)

// Setup creates the config file if missing, then initializes the database and runs migrations.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := r.configPath
	if configPath == "" {
		configPath = "config.toml"
	}

	if _, err := os.Stat(configPath); err == nil {
		r.logger.Info("using existing config", "path", configPath)
	} else {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}

		config, err := shared.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrInvalidConfig, err)
		}
		config.LogLevel = r.config.LogLevel
		r.config = config
		r.logger.Info("config file created", "path", configPath)
	}

	r.logger.Info("initializing database", "path", r.config.Database.Path)

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	applied, err := shared.MigrationStatus(db)
	if err != nil {
		return err
	}

	r.logger.Infof("setup complete for database: %v", r.config.Database.Path)
	r.writePlain("✓ Config:   %s\n", configPath)
	r.writePlain("✓ Database: %s (%d migrations applied)\n", r.config.Database.Path, len(applied))
	r.writePlainln("Next steps:")
	r.writePlain("1. Set youtube.api_key and youtube.channel_id in %s\n", configPath)
	r.writePlain("2. Run 'tclive live check' to test the YouTube credentials\n")
	r.writePlain("3. Run 'tclive serve' to start the daemon\n")
	return nil
}

// SetupStatus lists applied migrations.
func (r *Runner) SetupStatus(ctx context.Context, cmd *cli.Command) error {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	applied, err := shared.MigrationStatus(db)
	if err != nil {
		return err
	}

	if len(applied) == 0 {
		return r.writePlain("No migrations applied. Run 'tclive setup'.\n")
	}

	for _, m := range applied {
		r.writePlain("%03d  applied %s\n", m.Version, m.AppliedAt.Local().Format("2006-01-02 15:04:05"))
	}
	return nil
}

// SetupRollback reverts the most recent migration.
func (r *Runner) SetupRollback(ctx context.Context, cmd *cli.Command) error {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := shared.RollbackMigration(db); err != nil {
		return fmt.Errorf("failed to roll back migration: %w", err)
	}

	r.logger.Info("rolled back latest migration", "database", r.config.Database.Path)
	return r.writePlain("✓ Rolled back latest migration\n")
}
