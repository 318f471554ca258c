// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package syncer

import (
	"errors"

	"github.com/pdiddy/paperstore/internal/graph"
	"github.com/pdiddy/paperstore/pkg/types"
)

// State is a document's position in the sync pipeline.
type State int

const (
	StateNew State = iota
	StateSearching
	StateCorroborating
	StateSelecting
	StateMaterializing
	StateAssociating
	StateAssociated
	StateFailed
	StateSkipped
)

var stateNames = [...]string{
	StateNew:           "NEW",
	StateSearching:     "SEARCHING",
	StateCorroborating: "CORROBORATING",
	StateSelecting:     "SELECTING",
	StateMaterializing: "MATERIALIZING",
	StateAssociating:   "ASSOCIATING",
	StateAssociated:    "ASSOCIATED",
	StateFailed:        "FAILED",
	StateSkipped:       "SKIPPED",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "UNKNOWN"
	}
	return stateNames[s]
}

// Terminal reports whether no further transition leaves s.
func (s State) Terminal() bool {
	return s == StateAssociated || s == StateFailed || s == StateSkipped
}

// Sentinel errors carried by failed outcomes and warnings.
var (
	ErrNoCandidates             = errors.New("no candidates")
	ErrCorroborationUnavailable = errors.New("corroboration unavailable")
	ErrNoTitle                  = errors.New("no title to search for")
	ErrRecordNotFound           = errors.New("record not found")
)

// Outcome is the result of syncing one document.
type Outcome struct {
	Key        string
	State      State
	Path       []State
	Title      string
	Paper      *types.Paper
	Candidates int
	Graph      graph.Stats
	Err        error
}

func (o *Outcome) enter(s State) {
	o.State = s
	o.Path = append(o.Path, s)
}

func (o *Outcome) fail(err error) Outcome {
	o.Err = err
	o.enter(StateFailed)
	return *o
}

// BatchResult summarizes a multi-document run.
type BatchResult struct {
	RunID      string
	Associated int
	Skipped    int
	Failed     int
	Outcomes   []Outcome
}

// Total returns the number of documents processed.
func (r BatchResult) Total() int {
	return r.Associated + r.Skipped + r.Failed
}
