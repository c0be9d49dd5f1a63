package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"scholarship-engine/internal/common/config"
	"scholarship-engine/internal/common/database"
	"scholarship-engine/internal/modelsync"
	"scholarship-engine/internal/repository"
)

func newActivateCmd() *cobra.Command {
	var (
		version    int
		configPath string
	)

	cmd := &cobra.Command{
		Use:   "activate",
		Short: "Mark a stored model version active",
		Long: `Mark a stored model version active in PostgreSQL. When model sync is
enabled, running engines are told to load it; otherwise they pick it up on
their next restart.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if version <= 0 {
				return fmt.Errorf("--version must be positive")
			}
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			return runActivate(ctx, cmd, cfg, version)
		},
	}

	cmd.Flags().IntVar(&version, "version", 0, "model version to activate")
	cmd.Flags().StringVar(&configPath, "config", "", "config file (defaults to the engine's config lookup)")
	_ = cmd.MarkFlagRequired("version")
	return cmd
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

func runActivate(ctx context.Context, cmd *cobra.Command, cfg *config.Config, version int) error {
	log := cliLogger()

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		return err
	}
	defer pg.Close()

	repo := repository.NewModelRepository(pg.GetDB(), log)
	if _, err := repo.Get(ctx, version); err != nil {
		return err
	}
	latest, err := repo.LatestVersion(ctx)
	if err != nil {
		return err
	}
	if err := repo.Activate(ctx, version); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "model v%d is now active\n", version)

	if !cfg.Model.SyncEnabled {
		return nil
	}
	rdb, err := database.NewRedis(cfg.Database.Redis)
	if err != nil {
		return err
	}
	defer rdb.Close()

	host, _ := os.Hostname()
	pub := modelsync.NewPublisher(rdb.GetClient(), cfg.Model.SyncChannel, "model-trainer@"+host)
	announce := pub.PublishActivated
	if version < latest {
		announce = pub.PublishRollback
	}
	if err := announce(ctx, version); err != nil {
		log.Warn("activation stored but replicas were not notified", map[string]interface{}{"error": err.Error()})
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "announced on %s\n", cfg.Model.SyncChannel)
	return nil
}
