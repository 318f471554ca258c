// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package syncer drives documents through search, corroboration,
// selection, and graph materialization, and persists the chosen paper onto
// the document's record.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/paperstore/internal/academic"
	"github.com/pdiddy/paperstore/internal/cache"
	"github.com/pdiddy/paperstore/internal/graph"
	"github.com/pdiddy/paperstore/internal/pdfmeta"
	"github.com/pdiddy/paperstore/internal/rank"
	"github.com/pdiddy/paperstore/internal/reconcile"
	"github.com/pdiddy/paperstore/internal/record"
	"github.com/pdiddy/paperstore/internal/semanticscholar"
	"github.com/pdiddy/paperstore/internal/store"
	"github.com/pdiddy/paperstore/pkg/types"
)

const (
	defaultConcurrency   = 4
	defaultSearchLimit   = 5
	defaultLookupTimeout = 30 * time.Second
)

// Searcher issues the title query against the search source.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]academic.Entity, error)
}

// Resolver looks a paper up by identifier in the corroborating source.
type Resolver interface {
	LookupByID(ctx context.Context, id types.Identifier) (*semanticscholar.Paper, error)
}

// Syncer runs the sync pipeline. Papers and Authors are shared by every
// document it processes.
type Syncer struct {
	Store    store.Store
	Searcher Searcher
	Resolver Resolver
	Titles   pdfmeta.TitleSource
	Papers   *cache.Papers
	Authors  *cache.Authors
	Graph    *graph.Materializer
	Config   types.SyncConfig
	Now      func() time.Time

	mu  sync.Mutex
	out io.Writer

	authorsMu     sync.Mutex
	authorsLoaded bool
}

// New returns a Syncer with fresh caches and the default title chain.
func New(s store.Store, search Searcher, resolve Resolver, cfg types.SyncConfig, w io.Writer) *Syncer {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = defaultSearchLimit
	}
	if cfg.LookupTimeout <= 0 {
		cfg.LookupTimeout = defaultLookupTimeout
	}
	if w == nil {
		w = io.Discard
	}
	papers := cache.NewPapers()
	return &Syncer{
		Store:    s,
		Searcher: search,
		Resolver: resolve,
		Titles:   pdfmeta.Default(cfg.PDFDir),
		Papers:   papers,
		Authors:  cache.NewAuthors(),
		Graph:    graph.New(s, papers),
		Config:   cfg,
		Now:      time.Now,
		out:      w,
	}
}

func (s *Syncer) logf(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.out, format, args...)
}

// SyncDocument runs the pipeline for the record stored under key. The
// document record is written once, on the transition to ASSOCIATED; a
// failed outcome leaves it untouched.
func (s *Syncer) SyncDocument(ctx context.Context, key string) Outcome {
	o := Outcome{Key: key}
	o.enter(StateNew)

	rec, err := s.Store.GetRecord(ctx, key)
	if err == nil && rec == nil {
		err = fmt.Errorf("%w: %s", ErrRecordNotFound, key)
	}
	if err != nil {
		o.enter(StateSearching)
		return s.failed(&o, err)
	}

	if rec.Has(record.FieldPaperRetrieved) && !s.Config.Rebuild {
		return s.skip(&o, rec)
	}

	// SEARCHING
	o.enter(StateSearching)
	title, err := s.Titles.Title(ctx, rec)
	if title == "" {
		if err != nil {
			err = fmt.Errorf("%w: %v", ErrNoTitle, err)
		} else {
			err = ErrNoTitle
		}
		return s.failed(&o, err)
	}
	o.Title = title
	s.logf("searching: %s (%q)\n", key, title)

	entities, err := s.Searcher.Search(ctx, title, s.Config.SearchLimit)
	if err != nil {
		return s.failed(&o, fmt.Errorf("%w: search: %v", ErrNoCandidates, err))
	}
	var drafts []*types.Paper
	for _, e := range entities {
		if d := academic.Normalize(e); d != nil {
			drafts = append(drafts, d)
		}
	}
	o.Candidates = len(drafts)

	// CORROBORATING
	o.enter(StateCorroborating)
	resolved := s.corroborate(ctx, key, drafts)

	// SELECTING
	o.enter(StateSelecting)
	selected := rank.Select(resolved)
	if selected == nil {
		return s.failed(&o, fmt.Errorf("%w for %q", ErrNoCandidates, title))
	}
	o.Paper = selected

	// MATERIALIZING
	o.enter(StateMaterializing)
	plan, err := s.Graph.Plan(ctx, selected)
	if err != nil {
		return s.failed(&o, err)
	}

	// ASSOCIATING
	o.enter(StateAssociating)
	if err := ctx.Err(); err != nil {
		return s.failed(&o, err)
	}
	stats, err := s.Graph.Apply(ctx, plan)
	o.Graph = stats
	if err != nil {
		return s.failed(&o, err)
	}
	merged := record.Merge(rec, key, record.Encode(selected, s.Now()))
	if err := s.Store.PutRecord(ctx, merged); err != nil {
		return s.failed(&o, fmt.Errorf("writing %s: %w", key, err))
	}

	s.Papers.Store(selected, key)
	s.Authors.AddAll(selected.Authors)

	o.enter(StateAssociated)
	id, _ := selected.DisplayID()
	s.logf("associated: %s -> %s (%d references, %d citations, %d placeholders, %d unaddressable)\n",
		key, id, len(selected.References), len(selected.Citations), stats.Created, stats.Unaddressable)
	return o
}

func (s *Syncer) failed(o *Outcome, err error) Outcome {
	s.logf("failed:  %s (%v)\n", o.Key, err)
	return o.fail(err)
}

// skip loads the stored paper into the caches without any network call.
func (s *Syncer) skip(o *Outcome, rec *store.Record) Outcome {
	o.enter(StateSkipped)
	p, err := record.Decode(rec)
	switch {
	case errors.Is(err, record.ErrIncompleteAuthorData):
		s.logf("warning: %s: %v\n", o.Key, err)
	case err != nil:
		s.logf("warning: %s: stored paper unreadable: %v\n", o.Key, err)
		p = nil
	}
	if p != nil {
		s.Papers.Store(p, o.Key)
		s.Authors.AddAll(p.Authors)
		o.Paper = p
	}
	s.logf("skipped: %s (already retrieved)\n", o.Key)
	return *o
}

// corroborate reconciles every draft with its lookup-source counterpart.
// Lookups run concurrently; results keep the draft order. A failed lookup
// leaves the draft primary-only.
func (s *Syncer) corroborate(ctx context.Context, key string, drafts []*types.Paper) []*types.Paper {
	resolved := make([]*types.Paper, len(drafts))
	var g errgroup.Group
	for i, d := range drafts {
		g.Go(func() error {
			resolved[i] = s.corroborateOne(ctx, key, d)
			return nil
		})
	}
	g.Wait()
	return resolved
}

func (s *Syncer) corroborateOne(ctx context.Context, key string, draft *types.Paper) *types.Paper {
	id, ok := reconcile.LookupKey(draft)
	if !ok {
		return reconcile.Reconcile(draft, nil)
	}

	lctx, cancel := context.WithTimeout(ctx, s.Config.LookupTimeout)
	defer cancel()

	raw, err := s.Resolver.LookupByID(lctx, id)
	if err == nil && raw == nil {
		err = semanticscholar.ErrNotFound
	}
	if err != nil {
		s.logf("warning: %s: %v\n", key, fmt.Errorf("%w for %s: %v", ErrCorroborationUnavailable, id, err))
		return reconcile.Reconcile(draft, nil)
	}
	corroborating := semanticscholar.Normalize(*raw)
	if corroborating == nil {
		s.logf("warning: %s: %v for %s: response carries no identifier\n", key, ErrCorroborationUnavailable, id)
	}
	return reconcile.Reconcile(draft, corroborating)
}
