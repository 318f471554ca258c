// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package syncer

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/paperstore/internal/record"
)

// SyncAll syncs every record that carries a pdf field, at most
// Config.Concurrency at a time. Documents are independent: one failing
// never stops the others. Once ctx is cancelled no further document is
// started; documents that never started are not part of the result. The
// authors table is loaded before the first document and saved after the
// last.
func (s *Syncer) SyncAll(ctx context.Context) (BatchResult, error) {
	result := BatchResult{RunID: uuid.NewString()}

	if err := s.LoadAuthors(ctx); err != nil {
		return result, err
	}

	keys, err := s.Store.FindRecordsWithField(ctx, record.FieldPDF)
	if err != nil {
		return result, fmt.Errorf("finding documents: %w", err)
	}
	s.logf("sync %s: %d documents\n", result.RunID, len(keys))

	outcomes := make([]Outcome, len(keys))
	started := make([]bool, len(keys))

	var g errgroup.Group
	g.SetLimit(s.Config.Concurrency)
	for i, key := range keys {
		if ctx.Err() != nil {
			break
		}
		// Go blocks while all slots are busy, so a document may get its
		// slot after the run was cancelled.
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			started[i] = true
			outcomes[i] = s.SyncDocument(ctx, key)
			return nil
		})
	}
	g.Wait()

	for i, o := range outcomes {
		if !started[i] {
			continue
		}
		result.Outcomes = append(result.Outcomes, o)
		switch o.State {
		case StateAssociated:
			result.Associated++
		case StateSkipped:
			result.Skipped++
		default:
			result.Failed++
		}
	}

	s.logf("\nassociated: %d, skipped: %d, failed: %d\n", result.Associated, result.Skipped, result.Failed)

	if err := s.Authors.Save(context.WithoutCancel(ctx), s.Store); err != nil {
		s.logf("warning: authors table write failed: %v\n", err)
	}
	return result, ctx.Err()
}

// LoadAuthors reads the persisted authors table into the shared table. A
// successful load happens at most once per Syncer; after a failure the next
// call tries again.
func (s *Syncer) LoadAuthors(ctx context.Context) error {
	s.authorsMu.Lock()
	defer s.authorsMu.Unlock()
	if s.authorsLoaded {
		return nil
	}
	if err := s.Authors.Load(ctx, s.Store); err != nil {
		return fmt.Errorf("loading authors: %w", err)
	}
	s.authorsLoaded = true
	return nil
}
