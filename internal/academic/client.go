// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package academic queries the interpret+evaluate academic search API and
// normalizes its entities into draft papers.
package academic

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/paperstore/internal/httputil"
	"github.com/pdiddy/paperstore/pkg/types"
)

// apiBase is the academic API root. Declared as a var so tests can
// substitute an httptest server.
var apiBase = "https://api.labs.cognitive.microsoft.com/academic/v1.0"

const sourceName = "academic"

// Client talks to the interpret and evaluate endpoints.
type Client struct {
	http    *httputil.Client
	apiKey  string
	baseURL string
}

// NewClient creates a client from cfg.
func NewClient(cfg types.AcademicConfig) *Client {
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

// Search interprets query and evaluates every #GetPapers expression,
// returning paper entities deduplicated by Id in first-seen order.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]Entity, error) {
	exprs, err := c.Interpret(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	seen := make(map[int64]bool)
	var entities []Entity
	for _, expr := range exprs {
		found, err := c.Evaluate(ctx, expr, limit)
		if err != nil {
			return nil, err
		}
		for _, e := range found {
			if e.EntityType != entityPaper || seen[e.ID] {
				continue
			}
			seen[e.ID] = true
			entities = append(entities, e)
		}
	}
	return entities, nil
}

// Interpret returns the evaluate expressions produced by #GetPapers rules
// for a natural-language query.
func (c *Client) Interpret(ctx context.Context, query string, limit int) ([]string, error) {
	params := url.Values{"query": {query}}
	if limit > 0 {
		params.Set("count", strconv.Itoa(limit))
	}

	var ir interpretResponse
	if err := c.getJSON(ctx, "interpret", params, &ir); err != nil {
		return nil, err
	}

	var exprs []string
	for _, in := range ir.Interpretations {
		for _, r := range in.Rules {
			if r.Name == getPapersRule && r.Output.Value != "" {
				exprs = append(exprs, r.Output.Value)
			}
		}
	}
	return exprs, nil
}

// Evaluate runs one query expression and returns the raw entities.
func (c *Client) Evaluate(ctx context.Context, expr string, limit int) ([]Entity, error) {
	params := url.Values{
		"expr":       {expr},
		"model":      {"latest"},
		"offset":     {"0"},
		"attributes": {strings.Join(defaultAttributes, ",")},
	}
	if limit > 0 {
		params.Set("count", strconv.Itoa(limit))
	}

	var er evaluateResponse
	if err := c.getJSON(ctx, "evaluate", params, &er); err != nil {
		return nil, err
	}
	return er.Entities, nil
}

func (c *Client) getJSON(ctx context.Context, action string, params url.Values, v any) error {
	reqURL := c.baseURL + "/" + action + "?" + params.Encode()

	header := http.Header{}
	if c.apiKey != "" {
		header.Set("Ocp-Apim-Subscription-Key", c.apiKey)
	}

	resp, err := c.http.Get(ctx, reqURL, header)
	if err != nil {
		return fmt.Errorf("academic %s request: %w", action, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("academic %s: %w", action, httputil.ErrRateLimited)
	case resp.StatusCode != http.StatusOK:
		return &httputil.APIError{Source: sourceName, StatusCode: resp.StatusCode, URL: reqURL}
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("parsing academic %s response: %w", action, err)
	}
	return nil
}
