package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/homeit/platform/internal/config"
	"github.com/homeit/platform/internal/db"
)

func newMigrateCmd() *cobra.Command {
	var (
		configPath string
		seed       bool
	)

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			gormDB, err := db.Connect(cfg.Database)
			if err != nil {
				return fmt.Errorf("connect to %s: %w", cfg.Database.Name, err)
			}

			if err := db.AutoMigrate(gormDB); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Schema migrated.")

			if seed {
				if err := db.Seed(gormDB); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Development data seeded.")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "homeit.yaml", "path to config file")
	cmd.Flags().BoolVar(&seed, "seed", false, "insert baseline development data")
	return cmd
}
