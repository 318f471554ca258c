// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/paperstore/internal/academic"
	"github.com/pdiddy/paperstore/internal/semanticscholar"
	"github.com/pdiddy/paperstore/internal/syncer"
)

var syncCmd = &cobra.Command{
	Use:   "sync [key...]",
	Short: "Resolve documents against the citation sources and build the citation graph",
	Long: `Sync finds the paper behind each document record that has a "pdf" field.
With no arguments every such record is synced; otherwise only the named
record keys are. Records already marked retrieved are skipped unless
--rebuild is given.`,
	RunE: runSync,
}

func init() {
	f := syncCmd.Flags()
	f.Bool("rebuild", false, "re-sync documents already marked retrieved")
	f.Int("concurrency", 4, "documents synced at once")
	f.Int("search-limit", 5, "candidates requested from search")
	f.Duration("lookup-timeout", 0, "timeout for each corroboration lookup (default 30s)")
	f.String("pdf-dir", "", "directory that relative pdf paths resolve against")
	f.String("academic-url", "", "search API root")
	f.String("semantic-scholar-url", "", "lookup API root")
	f.Float64("rate-limit", 0, "requests per second for each source (0 = config default)")

	viper.BindPFlag("sync.rebuild", f.Lookup("rebuild"))
	viper.BindPFlag("sync.concurrency", f.Lookup("concurrency"))
	viper.BindPFlag("sync.search_limit", f.Lookup("search-limit"))
	viper.BindPFlag("sync.lookup_timeout", f.Lookup("lookup-timeout"))
	viper.BindPFlag("sync.pdf_dir", f.Lookup("pdf-dir"))
	viper.BindPFlag("academic.base_url", f.Lookup("academic-url"))
	viper.BindPFlag("semantic_scholar.base_url", f.Lookup("semantic-scholar-url"))

	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	if cmd.Flags().Changed("rate-limit") {
		rl, _ := cmd.Flags().GetFloat64("rate-limit")
		cfg.Academic.RateLimit = rl
		cfg.SemanticScholar.RateLimit = rl
	}

	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	search := academic.NewClient(cfg.Academic)
	resolve := semanticscholar.NewClient(cfg.SemanticScholar)
	sy := syncer.New(s, search, resolve, cfg.Sync, os.Stdout)

	ctx := cmd.Context()
	if len(args) == 0 {
		result, err := sy.SyncAll(ctx)
		if err != nil {
			return err
		}
		if result.Failed > 0 {
			return fmt.Errorf("%d of %d document(s) failed", result.Failed, result.Total())
		}
		return nil
	}

	if err := sy.LoadAuthors(ctx); err != nil {
		return err
	}
	var failed int
	for _, key := range args {
		if o := sy.SyncDocument(ctx, key); o.State == syncer.StateFailed {
			failed++
		}
	}
	if err := sy.Authors.Save(ctx, s); err != nil {
		fmt.Fprintf(os.Stderr, "warning: saving authors: %v\n", err)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d document(s) failed", failed, len(args))
	}
	return nil
}
