// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store is the host record store: flat records of named string
// fields, addressed by key and searchable by field value.
package store

import (
	"context"
	"sort"
	"sync"
)

// FieldDraftOf marks a record as an in-progress edit of another record.
// Drafts are invisible to field searches.
const FieldDraftOf = "draft.of"

// Record is one keyed field set.
type Record struct {
	Key    string            `json:"key" yaml:"key"`
	Fields map[string]string `json:"fields" yaml:"fields"`
}

// Get returns the named field, or "" when absent.
func (r *Record) Get(name string) string {
	if r == nil {
		return ""
	}
	return r.Fields[name]
}

// Has reports whether the named field is present.
func (r *Record) Has(name string) bool {
	if r == nil {
		return false
	}
	_, ok := r.Fields[name]
	return ok
}

// Clone returns a deep copy of r.
func (r Record) Clone() Record {
	fields := make(map[string]string, len(r.Fields))
	for k, v := range r.Fields {
		fields[k] = v
	}
	return Record{Key: r.Key, Fields: fields}
}

// Store is the record store consumed by the sync engine.
type Store interface {
	// GetRecord returns the record stored under key, or nil when absent.
	GetRecord(ctx context.Context, key string) (*Record, error)
	// FindRecordsByField returns the sorted keys of non-draft records whose
	// field equals value.
	FindRecordsByField(ctx context.Context, field, value string) ([]string, error)
	// FindRecordsWithField returns the sorted keys of non-draft records that
	// carry field with a non-empty value.
	FindRecordsWithField(ctx context.Context, field string) ([]string, error)
	// PutRecord replaces the field set stored under rec.Key.
	PutRecord(ctx context.Context, rec Record) error
	// ListRecords returns every record ordered by key.
	ListRecords(ctx context.Context) ([]Record, error)
}

// Memory is an in-process Store.
type Memory struct {
	mu      sync.RWMutex
	records map[string]map[string]string
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{records: make(map[string]map[string]string)}
}

func (m *Memory) GetRecord(_ context.Context, key string) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	fields, ok := m.records[key]
	if !ok {
		return nil, nil
	}
	rec := Record{Key: key, Fields: fields}.Clone()
	return &rec, nil
}

func (m *Memory) FindRecordsByField(_ context.Context, field, value string) ([]string, error) {
	return m.find(func(fields map[string]string) bool {
		v, ok := fields[field]
		return ok && v == value
	}), nil
}

func (m *Memory) FindRecordsWithField(_ context.Context, field string) ([]string, error) {
	return m.find(func(fields map[string]string) bool {
		return fields[field] != ""
	}), nil
}

func (m *Memory) find(match func(map[string]string) bool) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var keys []string
	for key, fields := range m.records {
		if _, draft := fields[FieldDraftOf]; draft {
			continue
		}
		if match(fields) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

func (m *Memory) PutRecord(_ context.Context, rec Record) error {
	c := rec.Clone()
	m.mu.Lock()
	m.records[c.Key] = c.Fields
	m.mu.Unlock()
	return nil
}

func (m *Memory) ListRecords(_ context.Context) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Record, 0, len(m.records))
	for key, fields := range m.records {
		out = append(out, Record{Key: key, Fields: fields}.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}
