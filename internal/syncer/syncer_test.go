// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package syncer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paperstore/internal/academic"
	"github.com/pdiddy/paperstore/internal/cache"
	"github.com/pdiddy/paperstore/internal/pdfmeta"
	"github.com/pdiddy/paperstore/internal/record"
	"github.com/pdiddy/paperstore/internal/semanticscholar"
	"github.com/pdiddy/paperstore/internal/store"
	"github.com/pdiddy/paperstore/pkg/types"
)

// --- fakes ---

type fakeSearcher struct {
	calls    atomic.Int32
	entities map[string][]academic.Entity
	err      error
	onSearch func()
}

func (f *fakeSearcher) Search(_ context.Context, query string, _ int) ([]academic.Entity, error) {
	f.calls.Add(1)
	if f.onSearch != nil {
		f.onSearch()
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.entities[query], nil
}

type fakeResolver struct {
	calls  atomic.Int32
	papers map[string]*semanticscholar.Paper
	err    error
}

func (f *fakeResolver) LookupByID(_ context.Context, id types.Identifier) (*semanticscholar.Paper, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.papers[id.String()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", semanticscholar.ErrNotFound, id)
	}
	return p, nil
}

func strptr(s string) *string { return &s }

const attentionTitle = "Attention Is All You Need"

func attentionEntity() academic.Entity {
	e := academic.Entity{
		ID:       123,
		Title:    "attention is all you need",
		Year:     2017,
		Extended: `{"S":[{"Ty":3,"U":"https://arxiv.org/pdf/1706.03762.pdf"}]}`,
	}
	for i := 1; i <= 3; i++ {
		e.Authors = append(e.Authors, academic.Author{ID: int64(i), Name: fmt.Sprintf("ma author %d", i)})
	}
	for i := 1; i <= 5; i++ {
		e.ReferenceIDs = append(e.ReferenceIDs, int64(1000+i))
	}
	return e
}

func attentionS2() *semanticscholar.Paper {
	p := &semanticscholar.Paper{
		PaperID: "204e3073",
		ArxivID: strptr("1706.03762"),
		Title:   attentionTitle,
		Year:    2017,
	}
	for i := 1; i <= 8; i++ {
		p.Authors = append(p.Authors, semanticscholar.Author{AuthorID: strptr(fmt.Sprint(i)), Name: fmt.Sprintf("Author Number%d", i)})
	}
	for i := 1; i <= 50; i++ {
		p.References = append(p.References, semanticscholar.Edge{
			PaperID: fmt.Sprintf("ref%02d", i),
			Title:   fmt.Sprintf("Reference %d", i),
			Authors: []semanticscholar.Author{{Name: "Some Author"}},
		})
	}
	return p
}

type harness struct {
	store    *store.Memory
	search   *fakeSearcher
	resolve  *fakeResolver
	syncer   *Syncer
	log      *bytes.Buffer
	clockNow time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		store: store.NewMemory(),
		search: &fakeSearcher{entities: map[string][]academic.Entity{
			attentionTitle: {attentionEntity()},
		}},
		resolve: &fakeResolver{papers: map[string]*semanticscholar.Paper{
			"arxiv:1706.03762": attentionS2(),
		}},
		log:      &bytes.Buffer{},
		clockNow: time.UnixMilli(1700000000000),
	}
	h.syncer = h.newSyncer(types.SyncConfig{})
	return h
}

func (h *harness) newSyncer(cfg types.SyncConfig) *Syncer {
	s := New(h.store, h.search, h.resolve, cfg, h.log)
	s.Titles = pdfmeta.Fields{record.FieldCaption}
	s.Now = func() time.Time { return h.clockNow }
	return s
}

func (h *harness) putDocument(t *testing.T, key, caption string) {
	t.Helper()
	require.NoError(t, h.store.PutRecord(context.Background(), store.Record{Key: key, Fields: map[string]string{
		record.FieldPDF:     key + ".pdf",
		record.FieldCaption: caption,
		record.FieldTags:    "[[to read]]",
	}}))
}

func (h *harness) get(t *testing.T, key string) *store.Record {
	t.Helper()
	rec, err := h.store.GetRecord(context.Background(), key)
	require.NoError(t, err)
	require.NotNil(t, rec)
	return rec
}

// --- SyncDocument ---

func TestSyncDocumentEndToEnd(t *testing.T) {
	h := newHarness(t)
	h.putDocument(t, "Attention", attentionTitle)

	o := h.syncer.SyncDocument(context.Background(), "Attention")
	require.NoError(t, o.Err)

	assert.Equal(t, StateAssociated, o.State)
	assert.Equal(t, []State{
		StateNew, StateSearching, StateCorroborating, StateSelecting,
		StateMaterializing, StateAssociating, StateAssociated,
	}, o.Path)

	require.NotNil(t, o.Paper)
	assert.Len(t, o.Paper.Authors, 8)
	assert.Len(t, o.Paper.References, 50)
	assert.Equal(t, "ma:123", o.Paper.MAID.String())
	assert.Equal(t, "s2:204e3073", o.Paper.S2ID.String())
	assert.Equal(t, 50, o.Graph.Created)

	rec := h.get(t, "Attention")
	assert.Equal(t, "1700000000000", rec.Get(record.FieldPaperRetrieved))
	assert.Len(t, strings.Split(rec.Get(record.FieldRefID), ","), 50)
	assert.Equal(t, "ma:123", rec.Get(record.FieldMA))
	assert.Equal(t, "arxiv:1706.03762", rec.Get(record.FieldArxiv))
	assert.Equal(t, "Attention.pdf", rec.Get(record.FieldPDF), "host fields are kept")
	assert.Equal(t, "[[to read]] paper", rec.Get(record.FieldTags))

	cached, ok := h.syncer.Papers.Get("Attention")
	require.True(t, ok)
	assert.Same(t, o.Paper, cached)
	assert.Equal(t, 8, h.syncer.Authors.Len())
	assert.Contains(t, h.log.String(), "associated: Attention -> arxiv:1706.03762")
}

func TestSyncDocumentSkipsRetrieved(t *testing.T) {
	h := newHarness(t)
	h.putDocument(t, "Attention", attentionTitle)
	first := h.syncer.SyncDocument(context.Background(), "Attention")
	require.Equal(t, StateAssociated, first.State)
	searches, lookups := h.search.calls.Load(), h.resolve.calls.Load()

	s := h.newSyncer(types.SyncConfig{})
	o := s.SyncDocument(context.Background(), "Attention")

	assert.Equal(t, StateSkipped, o.State)
	assert.Equal(t, []State{StateNew, StateSkipped}, o.Path)
	assert.Equal(t, searches, h.search.calls.Load(), "no search issued")
	assert.Equal(t, lookups, h.resolve.calls.Load(), "no lookup issued")

	require.NotNil(t, o.Paper)
	assert.Equal(t, types.OriginStore, o.Paper.Origin)
	assert.Len(t, o.Paper.References, 50)
	cached, ok := s.Papers.Get("arxiv:1706.03762")
	require.True(t, ok)
	assert.Same(t, o.Paper, cached)
	assert.Contains(t, h.log.String(), "skipped: Attention (already retrieved)")
}

func TestSyncDocumentRebuild(t *testing.T) {
	h := newHarness(t)
	h.putDocument(t, "Attention", attentionTitle)
	h.syncer.SyncDocument(context.Background(), "Attention")

	h.clockNow = h.clockNow.Add(time.Hour)
	o := h.newSyncer(types.SyncConfig{Rebuild: true}).SyncDocument(context.Background(), "Attention")

	assert.Equal(t, StateAssociated, o.State)
	assert.Equal(t, int32(2), h.search.calls.Load())
	assert.Equal(t, 0, o.Graph.Created, "placeholders from the first run are reused")
	assert.Equal(t, 50, o.Graph.Existing)
	assert.Equal(t, "1700003600000", h.get(t, "Attention").Get(record.FieldPaperRetrieved))
}

func TestSyncDocumentEmptySearch(t *testing.T) {
	h := newHarness(t)
	h.putDocument(t, "Unknown", "A Paper Nobody Indexed")

	o := h.syncer.SyncDocument(context.Background(), "Unknown")

	assert.Equal(t, StateFailed, o.State)
	assert.ErrorIs(t, o.Err, ErrNoCandidates)
	assert.Equal(t, []State{StateNew, StateSearching, StateCorroborating, StateSelecting, StateFailed}, o.Path)
	assert.False(t, h.get(t, "Unknown").Has(record.FieldPaperRetrieved))
	assert.Contains(t, h.log.String(), "failed:  Unknown")
}

func TestSyncDocumentSearchError(t *testing.T) {
	h := newHarness(t)
	h.search.err = errors.New("503")
	h.putDocument(t, "Attention", attentionTitle)

	o := h.syncer.SyncDocument(context.Background(), "Attention")

	assert.ErrorIs(t, o.Err, ErrNoCandidates)
	assert.Equal(t, []State{StateNew, StateSearching, StateFailed}, o.Path)
	assert.Equal(t, int32(0), h.resolve.calls.Load())
}

func TestSyncDocumentNoTitle(t *testing.T) {
	h := newHarness(t)
	h.putDocument(t, "Untitled", "")

	o := h.syncer.SyncDocument(context.Background(), "Untitled")

	assert.ErrorIs(t, o.Err, ErrNoTitle)
	assert.Equal(t, []State{StateNew, StateSearching, StateFailed}, o.Path)
	assert.Equal(t, int32(0), h.search.calls.Load())
}

func TestSyncDocumentMissingRecord(t *testing.T) {
	h := newHarness(t)
	o := h.syncer.SyncDocument(context.Background(), "nope")
	assert.ErrorIs(t, o.Err, ErrRecordNotFound)
	assert.Equal(t, StateFailed, o.State)
}

func TestSyncDocumentCorroborationDegrades(t *testing.T) {
	h := newHarness(t)
	h.resolve.err = errors.New("connection reset")
	h.putDocument(t, "Attention", attentionTitle)

	o := h.syncer.SyncDocument(context.Background(), "Attention")

	require.Equal(t, StateAssociated, o.State)
	assert.Len(t, o.Paper.Authors, 3)
	assert.Len(t, o.Paper.References, 5)
	assert.True(t, o.Paper.S2ID.IsZero())
	assert.False(t, o.Paper.Corroborated)
	assert.Contains(t, h.log.String(), "corroboration unavailable")
	assert.Len(t, strings.Split(h.get(t, "Attention").Get(record.FieldRefID), ","), 5)
}

func TestSyncDocumentEdgeInBothSetsPersistedOnce(t *testing.T) {
	h := newHarness(t)
	lookup := h.resolve.papers["arxiv:1706.03762"]
	lookup.Citations = append(lookup.Citations, lookup.References[0], semanticscholar.Edge{PaperID: "citer"})
	h.putDocument(t, "Attention", attentionTitle)

	o := h.syncer.SyncDocument(context.Background(), "Attention")
	require.Equal(t, StateAssociated, o.State)

	rec := h.get(t, "Attention")
	assert.Contains(t, rec.Get(record.FieldRefID), "s2:ref01")
	assert.Equal(t, "s2:citer", rec.Get(record.FieldCiteID))
	assert.Zero(t, o.Graph.Duplicates)
}

func TestSyncDocumentSelectsMostCited(t *testing.T) {
	h := newHarness(t)
	h.search.entities["Attention"] = []academic.Entity{
		{ID: 1, Title: "preprint", Extended: `{"DOI":"10.1/pre"}`},
		{ID: 2, Title: "proceedings", Extended: `{"DOI":"10.1/proc"}`},
	}
	h.resolve.papers["doi:10.1/pre"] = &semanticscholar.Paper{PaperID: "pre",
		Citations: []semanticscholar.Edge{{PaperID: "c1"}}}
	h.resolve.papers["doi:10.1/proc"] = &semanticscholar.Paper{PaperID: "proc",
		Citations: []semanticscholar.Edge{{PaperID: "c1"}, {PaperID: "c2"}, {PaperID: "c3"}}}
	h.putDocument(t, "Doc", "Attention")

	o := h.syncer.SyncDocument(context.Background(), "Doc")

	require.Equal(t, StateAssociated, o.State)
	assert.Equal(t, 2, o.Candidates)
	assert.Equal(t, "proceedings", o.Paper.Title)
	assert.Equal(t, "s2:c1,s2:c2,s2:c3", h.get(t, "Doc").Get(record.FieldCiteID))
}

func TestSyncDocumentPromotesPlaceholder(t *testing.T) {
	h := newHarness(t)
	h.putDocument(t, "Attention", attentionTitle)
	h.syncer.SyncDocument(context.Background(), "Attention")

	key := "$:/paper/Reference 1 (Author)"
	placeholder := h.get(t, key)
	require.Equal(t, "s2:ref01", placeholder.Get(record.FieldS2))
	placeholder.Fields[record.FieldPDF] = "ref1.pdf"
	require.NoError(t, h.store.PutRecord(context.Background(), *placeholder))

	h.search.entities["Reference 1 (Author)"] = []academic.Entity{{ID: 77, Title: "reference 1"}}

	o := h.syncer.SyncDocument(context.Background(), key)

	require.Equal(t, StateAssociated, o.State)
	rec := h.get(t, key)
	assert.Equal(t, "ma:77", rec.Get(record.FieldMA))
	assert.Equal(t, "s2:ref01", rec.Get(record.FieldS2), "identifier on file survives promotion")
	assert.True(t, rec.Has(record.FieldPaperRetrieved))
	assert.Equal(t, "arxiv:1706.03762", rec.Get(record.FieldOriginID))
}

// --- SyncAll ---

type flakyStore struct {
	*store.Memory
	failKey string
}

func (f *flakyStore) PutRecord(ctx context.Context, rec store.Record) error {
	if rec.Key == f.failKey {
		return errors.New("disk full")
	}
	return f.Memory.PutRecord(ctx, rec)
}

func TestSyncAll(t *testing.T) {
	h := newHarness(t)
	h.putDocument(t, "Attention", attentionTitle)
	h.putDocument(t, "Unknown", "A Paper Nobody Indexed")
	require.NoError(t, h.store.PutRecord(context.Background(), store.Record{Key: "Note", Fields: map[string]string{"text": "no pdf"}}))

	result, err := h.syncer.SyncAll(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, 1, result.Associated)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 0, result.Skipped)
	assert.Equal(t, 2, result.Total())
	assert.Contains(t, h.log.String(), "associated: 1, skipped: 0, failed: 1")

	authors := cache.NewAuthors()
	require.NoError(t, authors.Load(context.Background(), h.store))
	assert.Equal(t, 8, authors.Len())

	again, err := h.newSyncer(types.SyncConfig{}).SyncAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, again.Skipped)
	assert.Equal(t, 1, again.Failed)
	assert.NotEqual(t, result.RunID, again.RunID)
}

func TestSyncAllWriteFailureDoesNotAbortBatch(t *testing.T) {
	h := newHarness(t)
	fs := &flakyStore{Memory: h.store, failKey: "Broken"}
	h.putDocument(t, "Attention", attentionTitle)
	h.putDocument(t, "Broken", attentionTitle)

	s := New(fs, h.search, h.resolve, types.SyncConfig{Concurrency: 1}, h.log)
	s.Titles = pdfmeta.Fields{record.FieldCaption}

	result, err := s.SyncAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Associated)
	assert.Equal(t, 1, result.Failed)

	for _, o := range result.Outcomes {
		if o.Key == "Broken" {
			assert.Equal(t, StateAssociating, o.Path[len(o.Path)-2])
			assert.Contains(t, o.Err.Error(), "disk full")
		}
	}
	assert.False(t, h.get(t, "Broken").Has(record.FieldPaperRetrieved))
}

func TestSyncAllConcurrentDocumentsShareCaches(t *testing.T) {
	h := newHarness(t)
	for i := 0; i < 6; i++ {
		h.putDocument(t, fmt.Sprintf("Copy %d", i), attentionTitle)
	}

	result, err := h.newSyncer(types.SyncConfig{Concurrency: 3}).SyncAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, result.Associated)

	keys, err := h.store.FindRecordsByField(context.Background(), record.FieldS2, "s2:ref01")
	require.NoError(t, err)
	assert.Len(t, keys, 1, "one placeholder per identifier")

	created := 0
	for _, o := range result.Outcomes {
		created += o.Graph.Created
	}
	assert.Equal(t, 50, created)
}

func TestSyncAllCancelled(t *testing.T) {
	h := newHarness(t)
	h.putDocument(t, "Attention", attentionTitle)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result, err := h.syncer.SyncAll(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, result.Total())
	assert.False(t, h.get(t, "Attention").Has(record.FieldPaperRetrieved))
}

func TestSyncAllCancelledMidRun(t *testing.T) {
	h := newHarness(t)
	h.putDocument(t, "A first", attentionTitle)
	h.putDocument(t, "B second", attentionTitle)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.search.onSearch = cancel

	result, err := h.newSyncer(types.SyncConfig{Concurrency: 1}).SyncAll(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(1), h.search.calls.Load(), "no document starts after cancellation")
	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, "A first", result.Outcomes[0].Key)
	assert.ErrorIs(t, result.Outcomes[0].Err, context.Canceled)
	assert.Equal(t, 1, result.Total())
	assert.False(t, h.get(t, "A first").Has(record.FieldPaperRetrieved))
	assert.False(t, h.get(t, "B second").Has(record.FieldPaperRetrieved))
}

type authorsFailStore struct {
	*store.Memory
	fails int
}

func (a *authorsFailStore) GetRecord(ctx context.Context, key string) (*store.Record, error) {
	if key == cache.AuthorsKey && a.fails > 0 {
		a.fails--
		return nil, errors.New("locked")
	}
	return a.Memory.GetRecord(ctx, key)
}

func TestLoadAuthorsRetriesAfterFailure(t *testing.T) {
	h := newHarness(t)
	saved := cache.NewAuthors()
	saved.Add(types.Author{ID: types.NewIdentifier(types.NamespaceS2, "1"), Name: "Ashish Vaswani"})
	require.NoError(t, saved.Save(context.Background(), h.store))

	fs := &authorsFailStore{Memory: h.store, fails: 1}
	s := New(fs, h.search, h.resolve, types.SyncConfig{}, h.log)

	_, err := s.SyncAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "locked")

	require.NoError(t, s.LoadAuthors(context.Background()))
	assert.Equal(t, 1, s.Authors.Len())

	require.NoError(t, s.LoadAuthors(context.Background()))
	assert.Equal(t, 1, s.Authors.Len())

	table := cache.NewAuthors()
	require.NoError(t, table.Load(context.Background(), h.store))
	assert.Equal(t, 1, table.Len(), "a failed load never overwrites the saved table")
}

// --- State ---

func TestStateString(t *testing.T) {
	assert.Equal(t, "NEW", StateNew.String())
	assert.Equal(t, "ASSOCIATED", StateAssociated.String())
	assert.Equal(t, "UNKNOWN", State(99).String())
	assert.True(t, StateSkipped.Terminal())
	assert.False(t, StateAssociating.Terminal())
}
