// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/shelfgrab/internal/acquire"
	"github.com/pdiddy/shelfgrab/internal/httputil"
	"github.com/pdiddy/shelfgrab/internal/secrets"
	"github.com/pdiddy/shelfgrab/internal/store"
	"github.com/pdiddy/shelfgrab/internal/translate"
	"github.com/pdiddy/shelfgrab/pkg/types"
)

func init() {
	viper.SetDefault("catalog", "data.csv")
	viper.SetDefault("out_dir", "out")
	viper.SetDefault("store", store.DefaultJSONPath)
	viper.SetDefault("store_backend", string(types.StoreJSON))
	viper.SetDefault("shelf", acquire.DefaultShelf)
	viper.SetDefault("timeout", httputil.DefaultTimeout)
	viper.SetDefault("primary.requests_per_minute", 60)
	viper.SetDefault("secondary.requests_per_minute", 20)
	viper.SetDefault("translate.url", translate.DefaultURL)
	viper.SetDefault("translate.source", "en")
	viper.SetDefault("translate.target", "ru")
	viper.SetDefault("deferred.poll_base", acquire.DefaultPollBase)
	viper.SetDefault("deferred.poll_jitter", acquire.DefaultPollJitter)
	viper.SetDefault("deferred.drain_interval", acquire.DefaultDrainInterval)

	rootCmd.PersistentFlags().String("store", store.DefaultJSONPath, "record store path")
	rootCmd.PersistentFlags().String("store-backend", string(types.StoreJSON), "record store backend: json or sqlite")
	rootCmd.PersistentFlags().Duration("timeout", httputil.DefaultTimeout, "per-request HTTP timeout")
	bindFlags(rootCmd, map[string]string{
		"store":         "store",
		"store-backend": "store_backend",
		"timeout":       "timeout",
	}, true)
}

// bindFlags binds each flag to its viper key so config files and
// SHELFGRAB_* variables can set it too.
func bindFlags(cmd *cobra.Command, keys map[string]string, persistent bool) {
	flags := cmd.Flags()
	if persistent {
		flags = cmd.PersistentFlags()
	}
	for flag, key := range keys {
		if err := viper.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(fmt.Sprintf("binding --%s: %v", flag, err))
		}
	}
}

// loadConfig resolves the acquisition config from flags, environment,
// config file and secrets, in that order of precedence.
func loadConfig() (types.AcquisitionConfig, error) {
	var cfg types.AcquisitionConfig
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("reading configuration: %w", err)
	}

	timeout := viper.GetDuration("timeout")
	for _, h := range []*types.HTTPConfig{&cfg.Primary.HTTPConfig, &cfg.Secondary.HTTPConfig, &cfg.Translate.HTTPConfig} {
		if h.Timeout <= 0 {
			h.Timeout = timeout
		}
	}
	cfg.Translate.APIKey = loadedSecrets.Or(secrets.LibreTranslateAPIKey, cfg.Translate.APIKey)

	if cfg.Deferred.PollBase < 0 || cfg.Deferred.PollJitter < 0 {
		return cfg, fmt.Errorf("poll delays must not be negative")
	}
	if cfg.Deferred.DrainInterval <= 0 {
		cfg.Deferred.DrainInterval = acquire.DefaultDrainInterval
	}
	return cfg, nil
}

// openStore opens the configured record store.
func openStore(cfg types.AcquisitionConfig) (store.Store, error) {
	return store.Open(cfg.StoreBackend, cfg.StorePath)
}
