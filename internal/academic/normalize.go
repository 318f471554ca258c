// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package academic

import (
	"encoding/json"
	"strings"

	"github.com/pdiddy/paperstore/pkg/types"
)

// arXiv PDF URL prefixes recognized when recovering an arXiv identifier
// from an entity's sources.
var arxivPDFPrefixes = []string{
	"http://arxiv.org/pdf/",
	"https://arxiv.org/pdf/",
}

// Normalize converts an evaluate entity into a draft paper. It returns nil
// when the entity carries no identifier.
func Normalize(e Entity) *types.Paper {
	if e.ID == 0 {
		return nil
	}
	maID := types.NewIdentifier(types.NamespaceMA, formatID(e.ID))

	p := &types.Paper{
		Title:  e.Title,
		Type:   string(e.PaperType),
		Year:   e.Year,
		MAID:   maID,
		Origin: types.OriginAcademic,
	}

	// Only reference ids are supplied; this source reports no citations.
	for _, rid := range e.ReferenceIDs {
		if rid == 0 {
			continue
		}
		p.References = append(p.References, types.PaperReference{
			ID:          types.NewIdentifier(types.NamespaceMA, formatID(rid)),
			Influential: types.InfluenceUnknown,
			Origin:      types.OriginAcademic,
		})
	}

	for _, a := range e.Authors {
		author := types.Author{Name: a.Name, Institution: a.Institution}
		if a.ID != 0 {
			author.ID = types.NewIdentifier(types.NamespaceMA, formatID(a.ID))
		}
		p.Authors = append(p.Authors, author)
	}

	if e.Conference != nil {
		conf := &types.Conference{Name: e.Conference.Name}
		if e.Conference.ID != 0 {
			conf.ID = formatID(e.Conference.ID)
		}
		inst := &types.ConferenceInstance{Conference: conf}
		if e.Instance != nil {
			inst.Name = e.Instance.Name
			if e.Instance.ID != 0 {
				inst.ID = formatID(e.Instance.ID)
			}
		}
		p.Venue = inst
	}

	if ext, ok := parseExtended(e.Extended); ok {
		p.DOI = types.NewIdentifier(types.NamespaceDOI, ext.DOI)
		for _, s := range ext.Sources {
			p.Sources = append(p.Sources, types.PaperSource{Type: types.SourceType(s.Type), URL: s.URL})
		}
	}

	if id, ok := ArxivFromSources(p.Sources); ok {
		p.ArxivID = id
	}

	return p
}

// parseExtended decodes the E attribute. Malformed JSON is ignored.
func parseExtended(raw string) (extended, bool) {
	if strings.TrimSpace(raw) == "" {
		return extended{}, false
	}
	var ext extended
	if err := json.Unmarshal([]byte(raw), &ext); err != nil {
		return extended{}, false
	}
	return ext, true
}

// ArxivFromSources returns the arXiv identifier recovered from the first
// PDF source whose URL matches an arXiv PDF prefix, scanning in list order.
func ArxivFromSources(sources []types.PaperSource) (types.Identifier, bool) {
	for _, s := range sources {
		if s.Type != types.SourcePDF {
			continue
		}
		if id, ok := ArxivFromPDFURL(s.URL); ok {
			return id, true
		}
	}
	return types.Identifier{}, false
}

// ArxivFromPDFURL recovers "<category>.<number>" from an arXiv PDF URL by
// stripping the host and path prefix and keeping the first two
// dot-separated segments of the file name. "https://arxiv.org/pdf/1706.03762.pdf"
// yields arxiv:1706.03762.
func ArxivFromPDFURL(url string) (types.Identifier, bool) {
	for _, prefix := range arxivPDFPrefixes {
		if !strings.HasPrefix(url, prefix) {
			continue
		}
		name := strings.TrimPrefix(url, prefix)
		parts := strings.Split(name, ".")
		if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
			return types.Identifier{}, false
		}
		return types.NewIdentifier(types.NamespaceArxiv, parts[0]+"."+parts[1]), true
	}
	return types.Identifier{}, false
}
