// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package graph materializes a resolved paper's references and citations
// as store records, creating placeholder records for edge targets the
// store does not know yet.
package graph

import (
	"context"
	"fmt"
	"sync"

	"github.com/pdiddy/paperstore/internal/cache"
	"github.com/pdiddy/paperstore/internal/record"
	"github.com/pdiddy/paperstore/internal/store"
	"github.com/pdiddy/paperstore/pkg/types"
)

// applyMu serializes placeholder writes across every Materializer in the
// process so that two pipelines never both create a record for one
// identifier.
var applyMu sync.Mutex

// Stats counts what happened to a paper's edges.
type Stats struct {
	Created       int // placeholder records written
	Existing      int // targets already in the store
	Unaddressable int // targets with no identifier, dropped
	Duplicates    int // targets already seen earlier in the same paper
}

// Placeholder is one planned placeholder record.
type Placeholder struct {
	Target *types.Paper
	Record store.Record
}

// Plan is the read-only result of walking a paper's edges.
type Plan struct {
	Origin       types.Identifier
	Placeholders []Placeholder
	Stats        Stats
}

// Materializer walks edges against a store. Papers, when set, receives each
// placeholder target under its identifiers and record key.
type Materializer struct {
	Store  store.Store
	Papers *cache.Papers
}

// New returns a Materializer over s.
func New(s store.Store, papers *cache.Papers) *Materializer {
	return &Materializer{Store: s, Papers: papers}
}

// Materialize plans and applies placeholders for p.
func (m *Materializer) Materialize(ctx context.Context, p *types.Paper) (Stats, error) {
	plan, err := m.Plan(ctx, p)
	if err != nil {
		return plan.Stats, err
	}
	return m.Apply(ctx, plan)
}

// Plan walks references then citations in edge order and decides which
// targets need a placeholder. It does not write to the store.
func (m *Materializer) Plan(ctx context.Context, p *types.Paper) (Plan, error) {
	plan := Plan{}
	plan.Origin, _ = p.DisplayID()

	seen := make(map[types.Identifier]bool)
	keys := make(map[string]bool)

	edges := make([]types.PaperReference, 0, len(p.References)+len(p.Citations))
	edges = append(edges, p.References...)
	edges = append(edges, p.Citations...)

	for _, e := range edges {
		ids := e.Identifiers()
		if len(ids) == 0 {
			plan.Stats.Unaddressable++
			continue
		}
		if anySeen(seen, ids) {
			plan.Stats.Duplicates++
			continue
		}
		for _, id := range ids {
			seen[id] = true
		}

		found, err := m.probe(ctx, ids)
		if err != nil {
			return plan, err
		}
		if found {
			plan.Stats.Existing++
			continue
		}

		target := edgeTarget(e)
		key, err := m.placeholderKey(ctx, target, keys)
		if err != nil {
			return plan, err
		}
		keys[key] = true
		plan.Placeholders = append(plan.Placeholders, Placeholder{
			Target: target,
			Record: record.Placeholder(target, plan.Origin, key),
		})
	}
	return plan, nil
}

// Apply writes the planned placeholders. Each target is probed again under
// the process-wide lock; a target some other pipeline created since the
// plan was made counts as existing.
//
// A context cancelled before Apply starts writes nothing. Once writing has
// begun the plan runs to the end; a store error stops it and leaves the
// placeholders written so far in place. Those are complete records that a
// later plan finds as existing.
func (m *Materializer) Apply(ctx context.Context, plan Plan) (Stats, error) {
	stats := plan.Stats
	if len(plan.Placeholders) == 0 {
		return stats, nil
	}
	if err := ctx.Err(); err != nil {
		return stats, err
	}
	ctx = context.WithoutCancel(ctx)

	applyMu.Lock()
	defer applyMu.Unlock()

	for _, ph := range plan.Placeholders {
		found, err := m.probe(ctx, ph.Target.Identifiers())
		if err != nil {
			return stats, err
		}
		if found {
			stats.Existing++
			continue
		}

		rec := ph.Record
		taken, err := m.keyTaken(ctx, rec.Key)
		if err != nil {
			return stats, err
		}
		if taken {
			rec = rec.Clone()
			rec.Key = suffixed(rec.Key, ph.Target)
		}
		if err := m.Store.PutRecord(ctx, rec); err != nil {
			return stats, fmt.Errorf("writing placeholder %s: %w", rec.Key, err)
		}
		stats.Created++
		if m.Papers != nil {
			m.Papers.LoadOrStore(ph.Target, rec.Key)
		}
	}
	return stats, nil
}

// probe reports whether a record exists under any of ids. The paper cache
// is consulted first; it only holds papers that are already on file. The
// store is then tried in the order given, stopping at the first hit.
func (m *Materializer) probe(ctx context.Context, ids []types.Identifier) (bool, error) {
	if m.Papers != nil {
		if _, ok := m.Papers.GetAny(ids); ok {
			return true, nil
		}
	}
	for _, id := range ids {
		keys, err := m.Store.FindRecordsByField(ctx, record.IdentifierField(id.Namespace), id.String())
		if err != nil {
			return false, fmt.Errorf("probing %s: %w", id, err)
		}
		if len(keys) > 0 {
			return true, nil
		}
	}
	return false, nil
}

// placeholderKey returns "$:/paper/<caption>", or the same key suffixed
// with the display id when the plain key is already used by the store or
// by an earlier placeholder in this plan.
func (m *Materializer) placeholderKey(ctx context.Context, target *types.Paper, planned map[string]bool) (string, error) {
	key := record.KeyPrefix + record.Caption(target)
	if planned[key] {
		return suffixed(key, target), nil
	}
	taken, err := m.keyTaken(ctx, key)
	if err != nil {
		return "", err
	}
	if taken {
		return suffixed(key, target), nil
	}
	return key, nil
}

func (m *Materializer) keyTaken(ctx context.Context, key string) (bool, error) {
	rec, err := m.Store.GetRecord(ctx, key)
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", key, err)
	}
	return rec != nil, nil
}

func suffixed(key string, target *types.Paper) string {
	id, _ := target.DisplayID()
	return key + " [" + id.String() + "]"
}

func edgeTarget(e types.PaperReference) *types.Paper {
	if e.Paper != nil {
		return e.Paper
	}
	p := &types.Paper{Origin: e.Origin}
	p.SetIdentifier(e.ID)
	return p
}

func anySeen(seen map[types.Identifier]bool, ids []types.Identifier) bool {
	for _, id := range ids {
		if seen[id] {
			return true
		}
	}
	return false
}
