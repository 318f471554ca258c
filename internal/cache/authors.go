// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/pdiddy/paperstore/internal/record"
	"github.com/pdiddy/paperstore/internal/store"
	"github.com/pdiddy/paperstore/pkg/types"
)

// AuthorsKey is the store record that persists the authors table.
const AuthorsKey = record.KeyPrefix + "authors"

// Authors is the authors table, keyed by author identifier. The first
// author seen for an identifier wins; names are never merged.
type Authors struct {
	mu   sync.RWMutex
	byID map[string]types.Author
}

// NewAuthors returns an empty table.
func NewAuthors() *Authors {
	return &Authors{byID: make(map[string]types.Author)}
}

// Add inserts a if no author with its identifier is tabled. Authors without
// an identifier are ignored. It reports whether a was inserted.
func (t *Authors) Add(a types.Author) bool {
	if a.ID.IsZero() {
		return false
	}
	key := a.ID.String()
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.byID[key]; ok {
		return false
	}
	t.byID[key] = a
	return true
}

// AddAll adds each author and returns how many were new.
func (t *Authors) AddAll(authors []types.Author) int {
	n := 0
	for _, a := range authors {
		if t.Add(a) {
			n++
		}
	}
	return n
}

// Get returns the author tabled under id.
func (t *Authors) Get(id types.Identifier) (types.Author, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	a, ok := t.byID[id.String()]
	return a, ok
}

// Len returns the number of tabled authors.
func (t *Authors) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.byID)
}

// List returns the tabled authors sorted by identifier.
func (t *Authors) List() []types.Author {
	t.mu.RLock()
	out := make([]types.Author, 0, len(t.byID))
	for _, a := range t.byID {
		out = append(out, a)
	}
	t.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out
}

type authorEntry struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Institution string `json:"institution"`
}

// Load adds the authors persisted in s. A missing record is not an error.
func (t *Authors) Load(ctx context.Context, s store.Store) error {
	rec, err := s.GetRecord(ctx, AuthorsKey)
	if err != nil {
		return fmt.Errorf("reading authors table: %w", err)
	}
	if rec == nil || rec.Get(record.FieldText) == "" {
		return nil
	}

	var entries []authorEntry
	if err := json.Unmarshal([]byte(rec.Get(record.FieldText)), &entries); err != nil {
		return fmt.Errorf("parsing authors table: %w", err)
	}
	for _, e := range entries {
		id, err := types.ParseIdentifier(e.ID)
		if err != nil {
			return fmt.Errorf("authors table: %w", err)
		}
		t.Add(types.Author{ID: id, Name: e.Name, Institution: e.Institution})
	}
	return nil
}

// Save writes the table to s as a JSON record.
func (t *Authors) Save(ctx context.Context, s store.Store) error {
	authors := t.List()
	entries := make([]authorEntry, len(authors))
	for i, a := range authors {
		entries[i] = authorEntry{ID: a.ID.String(), Name: a.Name, Institution: a.Institution}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling authors table: %w", err)
	}
	return s.PutRecord(ctx, store.Record{Key: AuthorsKey, Fields: map[string]string{
		record.FieldType: "application/json",
		record.FieldText: string(data),
	}})
}
