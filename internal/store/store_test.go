// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paperstore/pkg/types"
)

// --- test helpers ---

func newSQLite(t *testing.T) Store {
	t.Helper()
	s, err := NewSQLite(types.StoreConfig{Path: filepath.Join(t.TempDir(), "db", "test.db")})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// forEachStore runs fn against every Store implementation.
func forEachStore(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Helper()
	impls := map[string]func(t *testing.T) Store{
		"memory": func(*testing.T) Store { return NewMemory() },
		"sqlite": newSQLite,
	}
	for name, open := range impls {
		t.Run(name, func(t *testing.T) { fn(t, open(t)) })
	}
}

func put(t *testing.T, s Store, key string, fields map[string]string) {
	t.Helper()
	require.NoError(t, s.PutRecord(context.Background(), Record{Key: key, Fields: fields}))
}

// --- Store contract ---

func TestGetRecordMissing(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		rec, err := s.GetRecord(context.Background(), "absent")
		require.NoError(t, err)
		assert.Nil(t, rec)
	})
}

func TestPutAndGet(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		put(t, s, "Attention", map[string]string{"pdf": "attention.pdf", "paper-title": "Attention Is All You Need"})

		rec, err := s.GetRecord(context.Background(), "Attention")
		require.NoError(t, err)
		require.NotNil(t, rec)
		assert.Equal(t, "attention.pdf", rec.Get("pdf"))
		assert.True(t, rec.Has("paper-title"))
		assert.False(t, rec.Has("arxiv"))
	})
}

func TestPutReplacesFields(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		put(t, s, "k", map[string]string{"a": "1", "b": "2"})
		put(t, s, "k", map[string]string{"a": "3"})

		rec, err := s.GetRecord(context.Background(), "k")
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"a": "3"}, rec.Fields)
	})
}

func TestGetRecordReturnsCopy(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		put(t, s, "k", map[string]string{"a": "1"})
		rec, err := s.GetRecord(context.Background(), "k")
		require.NoError(t, err)
		rec.Fields["a"] = "changed"

		again, err := s.GetRecord(context.Background(), "k")
		require.NoError(t, err)
		assert.Equal(t, "1", again.Get("a"))
	})
}

func TestFindRecordsByField(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		put(t, s, "b", map[string]string{"arxiv": "arxiv:1706.03762"})
		put(t, s, "a", map[string]string{"arxiv": "arxiv:1706.03762"})
		put(t, s, "c", map[string]string{"arxiv": "arxiv:1810.04805"})
		put(t, s, "Draft of 'a'", map[string]string{"arxiv": "arxiv:1706.03762", FieldDraftOf: "a"})

		keys, err := s.FindRecordsByField(context.Background(), "arxiv", "arxiv:1706.03762")
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, keys)

		keys, err = s.FindRecordsByField(context.Background(), "doi", "doi:10.1/x")
		require.NoError(t, err)
		assert.Empty(t, keys)
	})
}

func TestFindRecordsWithField(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		put(t, s, "with", map[string]string{"pdf": "a.pdf"})
		put(t, s, "empty", map[string]string{"pdf": ""})
		put(t, s, "without", map[string]string{"title": "x"})
		put(t, s, "draft", map[string]string{"pdf": "a.pdf", FieldDraftOf: "with"})

		keys, err := s.FindRecordsWithField(context.Background(), "pdf")
		require.NoError(t, err)
		assert.Equal(t, []string{"with"}, keys)
	})
}

func TestListRecords(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		put(t, s, "z", map[string]string{"a": "1"})
		put(t, s, "m", map[string]string{})
		put(t, s, "a", map[string]string{"b": "2", "c": "3"})

		recs, err := s.ListRecords(context.Background())
		require.NoError(t, err)
		require.Len(t, recs, 3)
		assert.Equal(t, "a", recs[0].Key)
		assert.Equal(t, map[string]string{"b": "2", "c": "3"}, recs[0].Fields)
		assert.Equal(t, "m", recs[1].Key)
		assert.Empty(t, recs[1].Fields)
		assert.Equal(t, "z", recs[2].Key)
	})
}

func TestConcurrentPuts(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				key := string(rune('a' + i))
				assert.NoError(t, s.PutRecord(context.Background(), Record{Key: key, Fields: map[string]string{"tags": "paper"}}))
			}(i)
		}
		wg.Wait()

		keys, err := s.FindRecordsByField(context.Background(), "tags", "paper")
		require.NoError(t, err)
		assert.Len(t, keys, 8)
	})
}

func TestSQLitePersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persist.db")
	s, err := NewSQLite(types.StoreConfig{Path: path})
	require.NoError(t, err)
	require.NoError(t, s.PutRecord(context.Background(), Record{Key: "k", Fields: map[string]string{"a": "1"}}))
	require.NoError(t, s.Close())

	s, err = NewSQLite(types.StoreConfig{Path: path})
	require.NoError(t, err)
	defer s.Close()
	rec, err := s.GetRecord(context.Background(), "k")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "1", rec.Get("a"))
}

// --- Export ---

func TestExportYAML(t *testing.T) {
	s := NewMemory()
	put(t, s, "b", map[string]string{"paper-title": "B"})
	put(t, s, "a", map[string]string{"paper-title": "A"})

	var buf bytes.Buffer
	require.NoError(t, Export(context.Background(), s, FormatYAML, &buf))

	var got []Record
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Key)
	assert.Equal(t, "B", got[1].Fields["paper-title"])
}

func TestExportJSON(t *testing.T) {
	s := NewMemory()
	put(t, s, "a", map[string]string{"paper-title": "A"})

	var buf bytes.Buffer
	require.NoError(t, Export(context.Background(), s, FormatJSON, &buf))
	assert.True(t, strings.HasPrefix(buf.String(), "[\n"))

	var got []Record
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "A", got[0].Fields["paper-title"])
}

func TestExportEmptyAndUnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Export(context.Background(), NewMemory(), FormatJSON, &buf))
	assert.Equal(t, "[]\n", buf.String())

	assert.Error(t, Export(context.Background(), NewMemory(), "xml", &buf))
}
