// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pdfmeta finds the title to search for when syncing a record.
package pdfmeta

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/pdiddy/paperstore/internal/record"
	"github.com/pdiddy/paperstore/internal/store"
)

// TitleSource returns the title of the document a record describes, or ""
// when the source has none.
type TitleSource interface {
	Title(ctx context.Context, rec *store.Record) (string, error)
}

// PDF reads the Title entry of the Info dictionary of the file named by the
// record's pdf field. Relative paths are resolved against Dir.
type PDF struct {
	Dir string
}

func (s PDF) Title(_ context.Context, rec *store.Record) (string, error) {
	name := rec.Get(record.FieldPDF)
	if name == "" {
		return "", nil
	}
	path := name
	if !filepath.IsAbs(path) && s.Dir != "" {
		path = filepath.Join(s.Dir, path)
	}
	return InfoTitle(path)
}

// InfoTitle returns the trimmed Info Title of the PDF at path.
func InfoTitle(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return strings.TrimSpace(r.Trailer().Key("Info").Key("Title").Text()), nil
}

// Fields returns the first non-empty record field among its names.
type Fields []string

func (s Fields) Title(_ context.Context, rec *store.Record) (string, error) {
	for _, name := range s {
		if v := strings.TrimSpace(rec.Get(name)); v != "" {
			return v, nil
		}
	}
	return "", nil
}

// Chain tries each source in order and returns the first non-empty title.
// Source errors are returned only when no source produced a title.
type Chain []TitleSource

func (c Chain) Title(ctx context.Context, rec *store.Record) (string, error) {
	var errs []error
	for _, src := range c {
		title, err := src.Title(ctx, rec)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if title != "" {
			return title, nil
		}
	}
	return "", errors.Join(errs...)
}

// Default is the PDF Info title, then paper-title, then caption.
func Default(pdfDir string) Chain {
	return Chain{PDF{Dir: pdfDir}, Fields{record.FieldPaperTitle, record.FieldCaption}}
}
