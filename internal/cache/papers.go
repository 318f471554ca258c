// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache holds the process-wide paper cache and authors table that
// concurrent sync pipelines share.
package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/pdiddy/paperstore/internal/record"
	"github.com/pdiddy/paperstore/internal/store"
	"github.com/pdiddy/paperstore/pkg/types"
)

// Papers maps every known identifier of a paper, and optionally its record
// key, to one shared *types.Paper. A key never points at a paper other than
// the one holding all of that paper's keys.
type Papers struct {
	mu     sync.RWMutex
	byKey  map[string]*types.Paper
	keysOf map[*types.Paper][]string
}

// NewPapers returns an empty cache.
func NewPapers() *Papers {
	return &Papers{
		byKey:  make(map[string]*types.Paper),
		keysOf: make(map[*types.Paper][]string),
	}
}

// Get returns the paper cached under key, which is an identifier string or
// a record key.
func (c *Papers) Get(key string) (*types.Paper, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.byKey[key]
	return p, ok
}

// GetAny returns the paper cached under the first of ids that has an entry.
func (c *Papers) GetAny(ids []types.Identifier) (*types.Paper, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, id := range ids {
		if p, ok := c.byKey[id.String()]; ok {
			return p, true
		}
	}
	return nil, false
}

// LoadOrStore returns the paper already cached under any of p's identifiers
// or extra keys. Otherwise it caches p under all of them and returns p.
// loaded reports whether an existing entry was returned.
func (c *Papers) LoadOrStore(p *types.Paper, extra ...string) (actual *types.Paper, loaded bool) {
	keys := cacheKeys(p, extra)
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		if existing, ok := c.byKey[k]; ok {
			return existing, true
		}
	}
	c.insert(p, keys)
	return p, false
}

// Store caches p under all of its identifiers and extra keys. Any paper
// those keys held is replaced by p everywhere, including under keys p does
// not carry itself.
func (c *Papers) Store(p *types.Paper, extra ...string) {
	keys := cacheKeys(p, extra)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.insert(p, keys)
}

func (c *Papers) insert(p *types.Paper, keys []string) {
	if len(keys) == 0 {
		return
	}
	all := append([]string(nil), c.keysOf[p]...)
	all = append(all, keys...)
	for _, k := range keys {
		old, ok := c.byKey[k]
		if !ok || old == p {
			continue
		}
		all = append(all, c.keysOf[old]...)
		delete(c.keysOf, old)
	}

	seen := make(map[string]bool, len(all))
	merged := all[:0]
	for _, k := range all {
		if seen[k] {
			continue
		}
		seen[k] = true
		merged = append(merged, k)
		c.byKey[k] = p
	}
	c.keysOf[p] = merged
}

// Len returns the number of distinct papers cached.
func (c *Papers) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.keysOf)
}

// Lookup returns the paper known under idOrKey, which is an identifier
// string ("arxiv:1706.03762") or a record key. A cache miss falls back to
// the store: identifiers are found by their identifier field, anything else
// is read as a record key. A paper read from the store is cached under its
// identifiers and record key. Lookup returns nil and no error when neither
// knows the paper.
func (c *Papers) Lookup(ctx context.Context, s store.Store, idOrKey string) (*types.Paper, error) {
	if p, ok := c.Get(idOrKey); ok {
		return p, nil
	}

	key := idOrKey
	if id, err := types.ParseIdentifier(idOrKey); err == nil {
		keys, err := s.FindRecordsByField(ctx, record.IdentifierField(id.Namespace), id.String())
		if err != nil {
			return nil, fmt.Errorf("finding %s: %w", id, err)
		}
		if len(keys) == 0 {
			return nil, nil
		}
		key = keys[0]
	}

	rec, err := s.GetRecord(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}
	if rec == nil {
		return nil, nil
	}
	p, err := record.Decode(rec)
	if p == nil {
		return nil, err
	}
	if err != nil && !errors.Is(err, record.ErrIncompleteAuthorData) {
		return nil, err
	}
	actual, _ := c.LoadOrStore(p, rec.Key)
	return actual, nil
}

// ResolveEdges returns a copy of p whose identifier-only references and
// citations carry the paper Lookup finds for them. Edges nothing knows stay
// identifier-only.
func (c *Papers) ResolveEdges(ctx context.Context, s store.Store, p *types.Paper) (*types.Paper, error) {
	out := p.Clone()
	for _, edges := range [][]types.PaperReference{out.References, out.Citations} {
		for i := range edges {
			if edges[i].Paper != nil || edges[i].ID.IsZero() {
				continue
			}
			target, err := c.Lookup(ctx, s, edges[i].ID.String())
			if err != nil {
				return nil, err
			}
			edges[i].Paper = target
		}
	}
	return out, nil
}

func cacheKeys(p *types.Paper, extra []string) []string {
	var keys []string
	for _, id := range p.Identifiers() {
		keys = append(keys, id.String())
	}
	for _, k := range extra {
		if k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}
