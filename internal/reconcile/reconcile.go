// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package reconcile merges a primary draft from the search source with a
// corroborating draft from the lookup source into one resolved paper.
package reconcile

import "github.com/pdiddy/paperstore/pkg/types"

// lookupOrder is the order in which a draft's identifiers are tried as the
// corroboration key. MA ids are unknown to the lookup source.
var lookupOrder = []types.Namespace{types.NamespaceS2, types.NamespaceArxiv, types.NamespaceDOI}

// LookupKey returns the identifier to corroborate p with. It returns false
// when p has no identifier the lookup source understands.
func LookupKey(p *types.Paper) (types.Identifier, bool) {
	if p == nil {
		return types.Identifier{}, false
	}
	for _, ns := range lookupOrder {
		if id := p.IdentifierFor(ns); !id.IsZero() {
			return id, true
		}
	}
	return types.Identifier{}, false
}

// Reconcile returns a new paper combining primary and corroborating.
// Neither input is modified. A nil corroborating draft yields a copy of
// primary unchanged.
//
// Authors, references, and citations are each replaced by the
// corroborating list when it is at least as long as the primary's, so no
// list ever shrinks. Edges without any identifier are not counted and not
// kept. The arXiv id is filled only when primary lacks one; the S2 id is
// always taken from corroborating when it has one. Every other scalar keeps
// the primary value unless it is empty.
//
// References and citations of the result are disjoint: a citation sharing
// any identifier with a reference is dropped.
func Reconcile(primary, corroborating *types.Paper) *types.Paper {
	if primary == nil {
		return distinctEdges(corroborating.Clone())
	}
	out := primary.Clone()
	if corroborating == nil {
		return distinctEdges(out)
	}

	if len(corroborating.Authors) >= len(out.Authors) {
		out.Authors = append([]types.Author(nil), corroborating.Authors...)
	}
	out.References = richerEdges(out.References, corroborating.References)
	out.Citations = richerEdges(out.Citations, corroborating.Citations)

	if out.ArxivID.IsZero() {
		out.ArxivID = corroborating.ArxivID
	}
	if !corroborating.S2ID.IsZero() {
		out.S2ID = corroborating.S2ID
	}
	if out.DOI.IsZero() {
		out.DOI = corroborating.DOI
	}
	if out.MAID.IsZero() {
		out.MAID = corroborating.MAID
	}
	if out.Title == "" {
		out.Title = corroborating.Title
	}
	if out.Type == "" {
		out.Type = corroborating.Type
	}
	if out.Year == 0 {
		out.Year = corroborating.Year
	}
	if out.Venue == nil && corroborating.Venue != nil {
		v := *corroborating.Venue
		out.Venue = &v
	}
	out.Sources = mergeSources(out.Sources, corroborating.Sources)
	out.Corroborated = true
	return distinctEdges(out)
}

func distinctEdges(p *types.Paper) *types.Paper {
	if p == nil || len(p.References) == 0 || len(p.Citations) == 0 {
		return p
	}
	refs := make(map[types.Identifier]bool)
	for _, e := range p.References {
		for _, id := range e.Identifiers() {
			refs[id] = true
		}
	}
	var cites []types.PaperReference
	for _, e := range p.Citations {
		if !overlaps(refs, e.Identifiers()) {
			cites = append(cites, e)
		}
	}
	p.Citations = cites
	return p
}

func overlaps(set map[types.Identifier]bool, ids []types.Identifier) bool {
	for _, id := range ids {
		if set[id] {
			return true
		}
	}
	return false
}

func richerEdges(primary, corroborating []types.PaperReference) []types.PaperReference {
	p := addressable(primary)
	c := addressable(corroborating)
	if len(c) >= len(p) {
		return c
	}
	return p
}

func addressable(edges []types.PaperReference) []types.PaperReference {
	var out []types.PaperReference
	for _, e := range edges {
		if e.Addressable() {
			out = append(out, e)
		}
	}
	return out
}

func mergeSources(primary, corroborating []types.PaperSource) []types.PaperSource {
	seen := make(map[string]bool, len(primary))
	for _, s := range primary {
		seen[s.URL] = true
	}
	out := primary
	for _, s := range corroborating {
		if seen[s.URL] {
			continue
		}
		seen[s.URL] = true
		out = append(out, s)
	}
	return out
}
