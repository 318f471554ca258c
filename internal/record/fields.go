// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package record converts papers to and from the flat field sets kept in
// the host store.
package record

import (
	"sort"
	"strings"

	"github.com/pdiddy/paperstore/pkg/types"
)

// Persisted field names. These are a stable contract with the host.
const (
	FieldPaperRetrieved = "paper-retrieved"
	FieldPaperTitle     = "paper-title"
	FieldDate           = "date"
	FieldDOI            = "doi"
	FieldMA             = "ma"
	FieldArxiv          = "arxiv"
	FieldS2             = "s2"
	FieldRefID          = "ref-id"
	FieldInflRefID      = "infl-ref-id"
	FieldCiteID         = "cite-id"
	FieldInflCiteID     = "infl-cite-id"
	FieldAuthorID       = "author-id"
	FieldAuthorName     = "author-name"

	FieldPDF      = "pdf"
	FieldCaption  = "caption"
	FieldTags     = "tags"
	FieldType     = "type"
	FieldText     = "text"
	FieldOriginID = "origin-id"
)

// TagPaper classifies a record as a paper.
const TagPaper = "paper"

// KeyPrefix is the key prefix of system records the engine creates.
const KeyPrefix = "$:/paper/"

// IdentifierField returns the field that stores identifiers in ns.
func IdentifierField(ns types.Namespace) string {
	switch ns {
	case types.NamespaceMA:
		return FieldMA
	case types.NamespaceArxiv:
		return FieldArxiv
	case types.NamespaceDOI:
		return FieldDOI
	case types.NamespaceS2:
		return FieldS2
	}
	return ""
}

func isIdentifierField(name string) bool {
	switch name {
	case FieldMA, FieldArxiv, FieldDOI, FieldS2:
		return true
	}
	return false
}

// ParseTags splits a tags field. Tags are space separated; a tag that
// contains spaces is wrapped in double square brackets.
func ParseTags(s string) []string {
	var tags []string
	for {
		s = strings.TrimLeft(s, " ")
		if s == "" {
			return tags
		}
		if strings.HasPrefix(s, "[[") {
			if end := strings.Index(s, "]]"); end >= 0 {
				tags = append(tags, s[2:end])
				s = s[end+2:]
				continue
			}
		}
		tag, rest, _ := strings.Cut(s, " ")
		tags = append(tags, tag)
		s = rest
	}
}

// FormatTags joins tags into a tags field value.
func FormatTags(tags []string) string {
	parts := make([]string, 0, len(tags))
	for _, t := range tags {
		if strings.Contains(t, " ") {
			t = "[[" + t + "]]"
		}
		parts = append(parts, t)
	}
	return strings.Join(parts, " ")
}

// HasTag reports whether the tags field value contains tag.
func HasTag(field, tag string) bool {
	for _, t := range ParseTags(field) {
		if t == tag {
			return true
		}
	}
	return false
}

// unionTags returns the tags of a followed by those of b not in a, with
// the b-only tags sorted.
func unionTags(a, b string) string {
	tags := ParseTags(a)
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		seen[t] = true
	}
	var extra []string
	for _, t := range ParseTags(b) {
		if !seen[t] {
			seen[t] = true
			extra = append(extra, t)
		}
	}
	sort.Strings(extra)
	return FormatTags(append(tags, extra...))
}

// joinNames comma-joins names, escaping commas and backslashes inside a
// name with a backslash so the list stays aligned with author-id.
func joinNames(names []string) string {
	escaped := make([]string, len(names))
	for i, n := range names {
		n = strings.ReplaceAll(n, `\`, `\\`)
		escaped[i] = strings.ReplaceAll(n, ",", `\,`)
	}
	return strings.Join(escaped, ",")
}

// splitNames reverses joinNames. Values written without escapes split on
// every comma.
func splitNames(s string) []string {
	var names []string
	var cur strings.Builder
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '\\' && i+1 < len(s):
			i++
			cur.WriteByte(s[i])
		case c == ',':
			names = append(names, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	return append(names, cur.String())
}
