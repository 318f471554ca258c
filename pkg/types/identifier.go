// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the canonical identity model shared by paperstore:
// multi-namespace identifiers, papers, authors, citation edges, and the
// configuration structs for each stage.
package types

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedIdentifier is returned when an identifier string carries an
// unrecognized namespace prefix or no value.
var ErrMalformedIdentifier = errors.New("malformed identifier")

// Namespace tags the scheme an identifier belongs to.
type Namespace string

const (
	NamespaceMA    Namespace = "ma"
	NamespaceArxiv Namespace = "arxiv"
	NamespaceDOI   Namespace = "doi"
	NamespaceS2    Namespace = "s2"
)

// PreferenceOrder lists namespaces from most to least preferred when a
// single display or lookup key is required.
var PreferenceOrder = []Namespace{NamespaceArxiv, NamespaceDOI, NamespaceMA, NamespaceS2}

// Preference returns the rank of ns in PreferenceOrder (lower is preferred).
// Unknown namespaces rank after all known ones.
func Preference(ns Namespace) int {
	for i, n := range PreferenceOrder {
		if n == ns {
			return i
		}
	}
	return len(PreferenceOrder)
}

// Valid reports whether ns is one of the four known namespaces.
func (ns Namespace) Valid() bool {
	return Preference(ns) < len(PreferenceOrder)
}

// Identifier is a namespaced paper or author identifier. The zero value
// means "no identifier".
type Identifier struct {
	Namespace Namespace `json:"namespace" yaml:"namespace"`
	Value     string    `json:"value" yaml:"value"`
}

// NewIdentifier returns an identifier in ns, or the zero Identifier when
// value is empty.
func NewIdentifier(ns Namespace, value string) Identifier {
	value = strings.TrimSpace(value)
	if value == "" {
		return Identifier{}
	}
	return Identifier{Namespace: ns, Value: value}
}

// IsZero reports whether the identifier is absent.
func (id Identifier) IsZero() bool {
	return id.Value == ""
}

// String returns the "<namespace>:<value>" form, or "" for the zero value.
func (id Identifier) String() string {
	if id.IsZero() {
		return ""
	}
	return string(id.Namespace) + ":" + id.Value
}

// Less orders identifiers by namespace preference, then by value.
func (id Identifier) Less(other Identifier) bool {
	pi, po := Preference(id.Namespace), Preference(other.Namespace)
	if pi != po {
		return pi < po
	}
	return id.Value < other.Value
}

// ParseIdentifier parses the "<namespace>:<value>" form. The namespace
// prefix is matched case-insensitively so "arXiv:1706.03762" is accepted;
// the value is kept verbatim.
func ParseIdentifier(s string) (Identifier, error) {
	s = strings.TrimSpace(s)
	prefix, value, ok := strings.Cut(s, ":")
	if !ok {
		return Identifier{}, fmt.Errorf("%w: %q has no namespace prefix", ErrMalformedIdentifier, s)
	}
	ns := Namespace(strings.ToLower(prefix))
	if !ns.Valid() {
		return Identifier{}, fmt.Errorf("%w: unknown namespace %q", ErrMalformedIdentifier, prefix)
	}
	if value == "" {
		return Identifier{}, fmt.Errorf("%w: %q has an empty value", ErrMalformedIdentifier, s)
	}
	return Identifier{Namespace: ns, Value: value}, nil
}

// ParseIdentifierList parses a comma-joined list of identifiers, skipping
// empty entries.
func ParseIdentifierList(s string) ([]Identifier, error) {
	var ids []Identifier
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		id, err := ParseIdentifier(part)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// MarshalText encodes the identifier in its "<namespace>:<value>" form.
func (id Identifier) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText parses the "<namespace>:<value>" form. Empty text yields
// the zero Identifier.
func (id *Identifier) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*id = Identifier{}
		return nil
	}
	parsed, err := ParseIdentifier(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
