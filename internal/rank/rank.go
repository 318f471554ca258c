// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package rank picks the best paper among the candidates one search
// returned.
package rank

import (
	"sort"

	"github.com/pdiddy/paperstore/pkg/types"
)

// Sort returns a copy of candidates ordered by citation count, most cited
// first. Candidates with equal counts keep their input order.
func Sort(candidates []*types.Paper) []*types.Paper {
	out := make([]*types.Paper, 0, len(candidates))
	for _, c := range candidates {
		if c != nil {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return len(out[i].Citations) > len(out[j].Citations)
	})
	return out
}

// Select returns the most cited candidate, or nil when there is none.
func Select(candidates []*types.Paper) *types.Paper {
	sorted := Sort(candidates)
	if len(sorted) == 0 {
		return nil
	}
	return sorted[0]
}
