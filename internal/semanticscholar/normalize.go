// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package semanticscholar

import "github.com/pdiddy/paperstore/pkg/types"

// Normalize converts a paper-by-id response into a draft paper whose
// references and citations are fully resolved nested drafts. It returns
// nil when the payload carries no identifier.
func Normalize(p Paper) *types.Paper {
	draft := normalizePaper(p.PaperID, p.ArxivID, p.DOI, p.Title, p.Year, p.Venue, p.Authors)
	if draft == nil {
		return nil
	}
	draft.References = normalizeEdges(p.References)
	draft.Citations = normalizeEdges(p.Citations)
	return draft
}

// NormalizeEdge converts one reference or citation entry. It returns false
// when the embedded paper has no identifier.
func NormalizeEdge(e Edge) (types.PaperReference, bool) {
	target := normalizePaper(e.PaperID, e.ArxivID, e.DOI, e.Title, e.Year, e.Venue, e.Authors)
	if target == nil {
		return types.PaperReference{}, false
	}
	return types.PaperReference{
		Paper:       target,
		Influential: types.InfluenceOf(e.IsInfluential),
		Origin:      types.OriginSemanticScholar,
	}, true
}

func normalizeEdges(edges []Edge) []types.PaperReference {
	var out []types.PaperReference
	for _, e := range edges {
		if ref, ok := NormalizeEdge(e); ok {
			out = append(out, ref)
		}
	}
	return out
}

func normalizePaper(paperID string, arxivID, doi *string, title string, year int, venue string, authors []Author) *types.Paper {
	p := &types.Paper{
		Title:   title,
		Year:    year,
		S2ID:    types.NewIdentifier(types.NamespaceS2, paperID),
		ArxivID: types.NewIdentifier(types.NamespaceArxiv, deref(arxivID)),
		DOI:     types.NewIdentifier(types.NamespaceDOI, deref(doi)),
		Origin:  types.OriginSemanticScholar,
	}
	if _, ok := p.DisplayID(); !ok {
		return nil
	}
	if venue != "" {
		p.Venue = &types.ConferenceInstance{Name: venue}
	}
	for _, a := range authors {
		p.Authors = append(p.Authors, types.Author{
			ID:   types.NewIdentifier(types.NamespaceS2, deref(a.AuthorID)),
			Name: a.Name,
		})
	}
	return p
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
