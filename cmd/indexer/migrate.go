package main

import (
	"context"
	"fmt"

	"github.com/goran-ethernal/DonationIndexor/internal/common"
	"github.com/goran-ethernal/DonationIndexor/internal/config"
	"github.com/goran-ethernal/DonationIndexor/internal/logger"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadFromFile(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		log := logger.NewComponentLoggerFromConfig(common.ComponentStore, cfg.Logging)

		s, _, err := openStore(context.Background(), cfg.DB, log)
		if err != nil {
			return err
		}
		defer s.Close()

		log.Infof("%s store is up to date", cfg.DB.Driver)
		return nil
	},
}
