// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "strings"

// Origin records which source produced a paper, author, or edge.
type Origin string

const (
	OriginAcademic        Origin = "academic"
	OriginSemanticScholar Origin = "semantic_scholar"
	OriginStore           Origin = "store"
)

// Influence is the tri-state influential flag a source may report on a
// reference or citation.
type Influence int8

const (
	InfluenceUnknown Influence = iota
	InfluenceYes
	InfluenceNo
)

// InfluenceOf converts an optional source flag into an Influence.
func InfluenceOf(flag *bool) Influence {
	switch {
	case flag == nil:
		return InfluenceUnknown
	case *flag:
		return InfluenceYes
	default:
		return InfluenceNo
	}
}

func (i Influence) String() string {
	switch i {
	case InfluenceYes:
		return "influential"
	case InfluenceNo:
		return "not influential"
	default:
		return "unknown"
	}
}

// Author is a paper author. Authors are deduplicated by ID only.
type Author struct {
	ID          Identifier `json:"id" yaml:"id"`
	Name        string     `json:"name,omitempty" yaml:"name,omitempty"`
	Institution string     `json:"institution,omitempty" yaml:"institution,omitempty"`
}

// Surname returns the last whitespace-separated token of the author name.
func (a Author) Surname() string {
	parts := strings.Fields(a.Name)
	if len(parts) == 0 {
		return ""
	}
	return parts[len(parts)-1]
}

// Conference is a venue series.
type Conference struct {
	ID   string `json:"id,omitempty" yaml:"id,omitempty"`
	Name string `json:"name" yaml:"name"`
}

// ConferenceInstance is one edition of a Conference.
type ConferenceInstance struct {
	ID         string      `json:"id,omitempty" yaml:"id,omitempty"`
	Name       string      `json:"name" yaml:"name"`
	Conference *Conference `json:"conference,omitempty" yaml:"conference,omitempty"`
}

// SourceType classifies a PaperSource location.
type SourceType int

// SourcePDF is the source type the academic API uses for PDF downloads.
const SourcePDF SourceType = 3

// PaperSource is a candidate download location reported by a source.
type PaperSource struct {
	Type SourceType `json:"type" yaml:"type"`
	URL  string     `json:"url" yaml:"url"`
}

// PaperReference is a reference or citation edge. Paper is nil when the
// source only supplied an identifier; ID then holds that identifier.
type PaperReference struct {
	Paper       *Paper     `json:"paper,omitempty" yaml:"paper,omitempty"`
	ID          Identifier `json:"id,omitempty" yaml:"id,omitempty"`
	Influential Influence  `json:"influential" yaml:"influential"`
	Origin      Origin     `json:"origin,omitempty" yaml:"origin,omitempty"`
}

// Resolved reports whether the edge carries paper data beyond an identifier.
func (r PaperReference) Resolved() bool {
	return r.Paper != nil
}

// Identifiers returns every identifier known for the edge target, in
// namespace preference order.
func (r PaperReference) Identifiers() []Identifier {
	if r.Paper != nil {
		return r.Paper.Identifiers()
	}
	if r.ID.IsZero() {
		return nil
	}
	return []Identifier{r.ID}
}

// TargetID returns the display identifier of the edge target.
func (r PaperReference) TargetID() (Identifier, bool) {
	ids := r.Identifiers()
	if len(ids) == 0 {
		return Identifier{}, false
	}
	return ids[0], true
}

// Addressable reports whether the edge target has at least one identifier.
func (r PaperReference) Addressable() bool {
	_, ok := r.TargetID()
	return ok
}

// Paper is the canonical paper aggregate. A paper holds at most one
// identifier per namespace; none of them is canonical.
type Paper struct {
	Title        string              `json:"title" yaml:"title"`
	Type         string              `json:"type,omitempty" yaml:"type,omitempty"`
	Year         int                 `json:"year,omitempty" yaml:"year,omitempty"`
	References   []PaperReference    `json:"references,omitempty" yaml:"references,omitempty"`
	Citations    []PaperReference    `json:"citations,omitempty" yaml:"citations,omitempty"`
	Authors      []Author            `json:"authors,omitempty" yaml:"authors,omitempty"`
	Venue        *ConferenceInstance `json:"venue,omitempty" yaml:"venue,omitempty"`
	DOI          Identifier          `json:"doi,omitempty" yaml:"doi,omitempty"`
	ArxivID      Identifier          `json:"arxiv_id,omitempty" yaml:"arxiv_id,omitempty"`
	S2ID         Identifier          `json:"s2_id,omitempty" yaml:"s2_id,omitempty"`
	MAID         Identifier          `json:"ma_id,omitempty" yaml:"ma_id,omitempty"`
	Sources      []PaperSource       `json:"sources,omitempty" yaml:"sources,omitempty"`
	Origin       Origin              `json:"origin,omitempty" yaml:"origin,omitempty"`
	Corroborated bool                `json:"corroborated,omitempty" yaml:"corroborated,omitempty"`
}

// Identifiers returns the paper's identifiers in namespace preference order.
func (p *Paper) Identifiers() []Identifier {
	var ids []Identifier
	for _, ns := range PreferenceOrder {
		if id := p.IdentifierFor(ns); !id.IsZero() {
			ids = append(ids, id)
		}
	}
	return ids
}

// IdentifierFor returns the paper's identifier in ns, if any.
func (p *Paper) IdentifierFor(ns Namespace) Identifier {
	switch ns {
	case NamespaceArxiv:
		return p.ArxivID
	case NamespaceDOI:
		return p.DOI
	case NamespaceMA:
		return p.MAID
	case NamespaceS2:
		return p.S2ID
	}
	return Identifier{}
}

// SetIdentifier stores id in the field for its namespace.
func (p *Paper) SetIdentifier(id Identifier) {
	switch id.Namespace {
	case NamespaceArxiv:
		p.ArxivID = id
	case NamespaceDOI:
		p.DOI = id
	case NamespaceMA:
		p.MAID = id
	case NamespaceS2:
		p.S2ID = id
	}
}

// DisplayID returns the first identifier in namespace preference order.
func (p *Paper) DisplayID() (Identifier, bool) {
	ids := p.Identifiers()
	if len(ids) == 0 {
		return Identifier{}, false
	}
	return ids[0], true
}

// AuthorAbbreviation returns "Smith" for one author, "Smith and Jones" for
// two, and "Smith et al" for three or more. It is empty without authors.
func (p *Paper) AuthorAbbreviation() string {
	switch len(p.Authors) {
	case 0:
		return ""
	case 1:
		return p.Authors[0].Surname()
	case 2:
		return p.Authors[0].Surname() + " and " + p.Authors[1].Surname()
	default:
		return p.Authors[0].Surname() + " et al"
	}
}

// Clone returns a copy of p whose slices can be modified independently.
// Nested edge papers are shared.
func (p *Paper) Clone() *Paper {
	if p == nil {
		return nil
	}
	c := *p
	c.References = append([]PaperReference(nil), p.References...)
	c.Citations = append([]PaperReference(nil), p.Citations...)
	c.Authors = append([]Author(nil), p.Authors...)
	c.Sources = append([]PaperSource(nil), p.Sources...)
	return &c
}
