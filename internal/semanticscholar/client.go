// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package semanticscholar looks papers up by identifier in the Semantic
// Scholar paper API and normalizes the responses into draft papers.
package semanticscholar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pdiddy/paperstore/internal/httputil"
	"github.com/pdiddy/paperstore/pkg/types"
)

// apiBase is the paper endpoint root. Declared as a var so tests can
// substitute an httptest server.
var apiBase = "https://api.semanticscholar.org/v1/paper"

const sourceName = "Semantic Scholar"

// ErrNotFound is returned when the API has no paper for the identifier.
var ErrNotFound = errors.New("paper not found in Semantic Scholar")

// ErrUnsupportedNamespace is returned for identifiers the API cannot look up.
var ErrUnsupportedNamespace = errors.New("identifier namespace not supported for lookup")

// Client performs paper-by-id lookups.
type Client struct {
	http    *httputil.Client
	apiKey  string
	baseURL string
}

// NewClient creates a client from cfg.
func NewClient(cfg types.SemanticScholarConfig) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = apiBase
	}
	return &Client{
		http:    httputil.NewClient(cfg.HTTPConfig),
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(base, "/"),
	}
}

// LookupPath returns the path segment the API expects for id: the bare S2
// id, "arXiv:<id>", or the bare DOI.
func LookupPath(id types.Identifier) (string, error) {
	switch id.Namespace {
	case types.NamespaceS2:
		return id.Value, nil
	case types.NamespaceArxiv:
		return "arXiv:" + id.Value, nil
	case types.NamespaceDOI:
		return id.Value, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedNamespace, id)
	}
}

// LookupByID fetches the raw paper for id. A 404 yields ErrNotFound.
func (c *Client) LookupByID(ctx context.Context, id types.Identifier) (*Paper, error) {
	path, err := LookupPath(id)
	if err != nil {
		return nil, err
	}
	// DOIs contain slashes that the API expects unescaped.
	reqURL := c.baseURL + "/" + (&url.URL{Path: path}).EscapedPath()

	header := http.Header{}
	if c.apiKey != "" {
		header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.http.Get(ctx, reqURL, header)
	if err != nil {
		return nil, fmt.Errorf("Semantic Scholar API request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	case http.StatusTooManyRequests:
		return nil, fmt.Errorf("Semantic Scholar lookup of %s: %w", id, httputil.ErrRateLimited)
	default:
		return nil, &httputil.APIError{Source: sourceName, StatusCode: resp.StatusCode, URL: reqURL}
	}

	var p Paper
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("parsing Semantic Scholar response: %w", err)
	}
	return &p, nil
}
