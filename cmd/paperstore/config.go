// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/paperstore/internal/secrets"
	"github.com/pdiddy/paperstore/internal/store"
	"github.com/pdiddy/paperstore/pkg/types"
)

const (
	defaultTimeout   = 60 * time.Second
	defaultRateLimit = 1.0
)

func init() {
	viper.SetDefault("http.timeout", defaultTimeout)
	viper.SetDefault("http.max_retries", 3)
	viper.SetDefault("academic.rate_limit", defaultRateLimit)
	viper.SetDefault("semantic_scholar.rate_limit", defaultRateLimit)
	viper.SetDefault("sync.concurrency", 4)
	viper.SetDefault("sync.search_limit", 5)
	viper.SetDefault("sync.lookup_timeout", 30*time.Second)
}

// loadConfig assembles the run configuration from flags, the config file,
// the environment, and the secrets directory.
func loadConfig() types.Config {
	httpCfg := func(section string) types.HTTPConfig {
		return types.HTTPConfig{
			Timeout:    viper.GetDuration("http.timeout"),
			UserAgent:  "paperstore/" + version,
			RateLimit:  viper.GetFloat64(section + ".rate_limit"),
			MaxRetries: viper.GetInt("http.max_retries"),
		}
	}

	return types.Config{
		Academic: types.AcademicConfig{
			HTTPConfig: httpCfg("academic"),
			BaseURL:    viper.GetString("academic.base_url"),
			APIKey:     loadedSecrets.Resolve(secrets.AcademicAPIKey, viper.GetString("academic.api_key"), envPrefix),
		},
		SemanticScholar: types.SemanticScholarConfig{
			HTTPConfig: httpCfg("semantic_scholar"),
			BaseURL:    viper.GetString("semantic_scholar.base_url"),
			APIKey:     loadedSecrets.Resolve(secrets.SemanticScholarAPIKey, viper.GetString("semantic_scholar.api_key"), envPrefix),
		},
		Store: types.StoreConfig{
			Path: viper.GetString("store.path"),
		},
		Sync: types.SyncConfig{
			Rebuild:       viper.GetBool("sync.rebuild"),
			Concurrency:   viper.GetInt("sync.concurrency"),
			SearchLimit:   viper.GetInt("sync.search_limit"),
			LookupTimeout: viper.GetDuration("sync.lookup_timeout"),
			PDFDir:        viper.GetString("sync.pdf_dir"),
		},
	}
}

func openStore(cfg types.Config) (*store.SQLite, error) {
	return store.NewSQLite(cfg.Store)
}
