// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package semanticscholar

// Paper is the raw paper-by-id response.
type Paper struct {
	PaperID    string   `json:"paperId"`
	ArxivID    *string  `json:"arxivId"`
	DOI        *string  `json:"doi"`
	Title      string   `json:"title"`
	Year       int      `json:"year"`
	Venue      string   `json:"venue"`
	Authors    []Author `json:"authors"`
	References []Edge   `json:"references"`
	Citations  []Edge   `json:"citations"`
}

// Edge is one entry of a paper's references or citations. It embeds the
// referenced paper's own metadata.
type Edge struct {
	PaperID       string   `json:"paperId"`
	ArxivID       *string  `json:"arxivId"`
	DOI           *string  `json:"doi"`
	Title         string   `json:"title"`
	Year          int      `json:"year"`
	Venue         string   `json:"venue"`
	Authors       []Author `json:"authors"`
	IsInfluential *bool    `json:"isInfluential"`
}

// Author is one entry of an authors list. AuthorID is null for authors the
// source has not disambiguated.
type Author struct {
	AuthorID *string `json:"authorId"`
	Name     string  `json:"name"`
}
