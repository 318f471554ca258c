// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package record

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/paperstore/internal/store"
	"github.com/pdiddy/paperstore/pkg/types"
)

// ErrIncompleteAuthorData is returned alongside a decoded paper when the
// author-id and author-name lists differ in length. The names are dropped.
var ErrIncompleteAuthorData = errors.New("author id and name lists differ in length")

// Encode returns the canonical field set for a resolved paper. Edges are
// written as the display ids of their targets; targets without any
// identifier are omitted.
func Encode(p *types.Paper, now time.Time) map[string]string {
	fields := map[string]string{
		FieldPaperRetrieved: strconv.FormatInt(now.UnixMilli(), 10),
		FieldPaperTitle:     p.Title,
		FieldDate:           "",
		FieldDOI:            p.DOI.String(),
		FieldMA:             p.MAID.String(),
		FieldArxiv:          p.ArxivID.String(),
		FieldS2:             p.S2ID.String(),
		FieldTags:           TagPaper,
	}
	if p.Year != 0 {
		fields[FieldDate] = strconv.Itoa(p.Year)
	}
	fields[FieldRefID], fields[FieldInflRefID] = encodeEdges(p.References)
	fields[FieldCiteID], fields[FieldInflCiteID] = encodeEdges(p.Citations)

	ids := make([]string, len(p.Authors))
	names := make([]string, len(p.Authors))
	for i, a := range p.Authors {
		ids[i] = a.ID.String()
		names[i] = a.Name
	}
	fields[FieldAuthorID] = strings.Join(ids, ",")
	fields[FieldAuthorName] = joinNames(names)
	return fields
}

func encodeEdges(edges []types.PaperReference) (all, influential string) {
	var ids, infl []string
	for _, e := range edges {
		id, ok := e.TargetID()
		if !ok {
			continue
		}
		ids = append(ids, id.String())
		if e.Influential == types.InfluenceYes {
			infl = append(infl, id.String())
		}
	}
	return strings.Join(ids, ","), strings.Join(infl, ",")
}

// Merge returns the record stored under key after writing encoded onto
// existing. Fields the encoding does not name are kept. Identifier fields
// the encoding leaves empty keep their existing value, and tags are the
// union of both.
func Merge(existing *store.Record, key string, encoded map[string]string) store.Record {
	out := store.Record{Key: key, Fields: make(map[string]string)}
	if existing != nil {
		out = existing.Clone()
		out.Key = key
	}
	for name, value := range encoded {
		switch {
		case isIdentifierField(name) && value == "":
			// Keep what is on file.
		case name == FieldTags:
			out.Fields[name] = unionTags(out.Fields[name], value)
		default:
			out.Fields[name] = value
		}
	}
	return out
}

// Decode rebuilds a paper from a stored record. Edges come back as
// identifier-only references. A malformed identifier anywhere in the record
// fails the decode with types.ErrMalformedIdentifier.
func Decode(rec *store.Record) (*types.Paper, error) {
	p := &types.Paper{
		Title:  rec.Get(FieldPaperTitle),
		Origin: types.OriginStore,
	}
	if y, err := strconv.Atoi(strings.TrimSpace(rec.Get(FieldDate))); err == nil {
		p.Year = y
	}

	for _, ns := range types.PreferenceOrder {
		v := rec.Get(IdentifierField(ns))
		if v == "" {
			continue
		}
		id, err := types.ParseIdentifier(v)
		if err != nil {
			return nil, fmt.Errorf("record %s field %s: %w", rec.Key, IdentifierField(ns), err)
		}
		if id.Namespace != ns {
			return nil, fmt.Errorf("record %s field %s holds %s: %w", rec.Key, IdentifierField(ns), id, types.ErrMalformedIdentifier)
		}
		p.SetIdentifier(id)
	}

	var err error
	if p.References, err = decodeEdges(rec, FieldRefID, FieldInflRefID); err != nil {
		return nil, err
	}
	if p.Citations, err = decodeEdges(rec, FieldCiteID, FieldInflCiteID); err != nil {
		return nil, err
	}
	return decodeAuthors(rec, p)
}

func decodeEdges(rec *store.Record, field, inflField string) ([]types.PaperReference, error) {
	ids, err := types.ParseIdentifierList(rec.Get(field))
	if err != nil {
		return nil, fmt.Errorf("record %s field %s: %w", rec.Key, field, err)
	}
	infl, err := types.ParseIdentifierList(rec.Get(inflField))
	if err != nil {
		return nil, fmt.Errorf("record %s field %s: %w", rec.Key, inflField, err)
	}
	influential := make(map[types.Identifier]bool, len(infl))
	for _, id := range infl {
		influential[id] = true
	}

	var edges []types.PaperReference
	for _, id := range ids {
		e := types.PaperReference{ID: id, Origin: types.OriginStore}
		if influential[id] {
			e.Influential = types.InfluenceYes
		}
		edges = append(edges, e)
	}
	return edges, nil
}

func decodeAuthors(rec *store.Record, p *types.Paper) (*types.Paper, error) {
	idField := rec.Get(FieldAuthorID)
	if idField == "" {
		return p, nil
	}
	ids := strings.Split(idField, ",")
	var names []string
	if rec.Has(FieldAuthorName) {
		names = splitNames(rec.Get(FieldAuthorName))
	}

	var incomplete error
	if names != nil && len(names) != len(ids) {
		incomplete = fmt.Errorf("record %s: %d ids, %d names: %w", rec.Key, len(ids), len(names), ErrIncompleteAuthorData)
		names = nil
	}

	for i, raw := range ids {
		a := types.Author{}
		if raw = strings.TrimSpace(raw); raw != "" {
			id, err := types.ParseIdentifier(raw)
			if err != nil {
				return nil, fmt.Errorf("record %s field %s: %w", rec.Key, FieldAuthorID, err)
			}
			a.ID = id
		}
		if names != nil {
			a.Name = names[i]
		}
		p.Authors = append(p.Authors, a)
	}
	return p, incomplete
}

// Caption returns the display caption of a placeholder for target:
// "<title> (<author abbreviation>)", the bare title when there are no
// authors, or the display id when there is no title.
func Caption(target *types.Paper) string {
	if target.Title == "" {
		id, _ := target.DisplayID()
		return id.String()
	}
	if abbrev := target.AuthorAbbreviation(); abbrev != "" {
		return target.Title + " (" + abbrev + ")"
	}
	return target.Title
}

// Placeholder returns the minimal record for a paper known only as an edge
// target. origin is the paper whose edge produced it. Placeholders carry no
// retrieved marker and no edges, so a later sync of the record promotes it.
func Placeholder(target *types.Paper, origin types.Identifier, key string) store.Record {
	fields := map[string]string{
		FieldCaption: Caption(target),
		FieldTags:    TagPaper,
		FieldType:    "text/x-markdown",
		FieldText:    "# Paper",
	}
	if target.Title != "" {
		fields[FieldPaperTitle] = target.Title
	}
	for _, id := range target.Identifiers() {
		fields[IdentifierField(id.Namespace)] = id.String()
	}
	if !origin.IsZero() {
		fields[FieldOriginID] = origin.String()
	}
	return store.Record{Key: key, Fields: fields}
}
