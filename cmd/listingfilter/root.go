package main

import (
	"fmt"

	"github.com/samvad-hq/listing-filter/internal/blocklist"
	"github.com/samvad-hq/listing-filter/internal/config"
	"github.com/samvad-hq/listing-filter/internal/logger"
	"github.com/samvad-hq/listing-filter/internal/page"
	"github.com/samvad-hq/listing-filter/internal/storage"

	"github.com/spf13/cobra"
)

var flagDebug bool

// env holds what every subcommand needs; populated by the root pre-run hook.
var env struct {
	cfg    *config.Config
	log    logger.Logger
	kv     storage.KV
	store  *blocklist.Store
	layout page.Layout
}

var rootCmd = &cobra.Command{
	Use:           "listingfilter",
	Short:         "Hide marketplace listings from blocked sellers",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if flagDebug {
			cfg.LogLevel = "debug"
		}
		if _, err := logger.Init(cfg); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		env.cfg = cfg
		env.log = logger.Default()

		layout, err := page.LoadLayout(cfg.LayoutFile)
		if err != nil {
			return fmt.Errorf("load layout: %w", err)
		}
		env.layout = layout

		kv, err := storage.NewSharedStore(cfg.StorageType, cfg.BBoltPath, storage.Options{
			MaxValueBytes: cfg.StorageMaxValueBytes,
		})
		if err != nil {
			return fmt.Errorf("init storage: %w", err)
		}
		env.kv = kv
		env.store = blocklist.NewStore(kv, cfg.BlocklistKey, env.log)

		env.log.DebugObj("listingfilter configured", "config", cfg)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if env.kv != nil {
			if err := env.kv.Close(); err != nil {
				env.log.ErrorObj("storage close failed", "error", err)
			}
		}
		_ = logger.Close()
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable debug logging")
}
