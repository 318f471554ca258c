// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paperstore/pkg/types"
)

func init() {
	RetryBaseDelay = time.Millisecond
}

func TestClientRetriesOn429(t *testing.T) {
	tests := []struct {
		name       string
		throttled  int32
		maxRetries int
		wantStatus int
		wantCalls  int32
	}{
		{"recovers after two 429s", 2, 5, http.StatusOK, 3},
		{"gives up and returns the last 429", 10, 3, http.StatusTooManyRequests, 4},
		{"no throttling", 0, 1, http.StatusOK, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				if atomic.AddInt32(&calls, 1) <= tt.throttled {
					w.WriteHeader(http.StatusTooManyRequests)
					return
				}
				w.WriteHeader(http.StatusOK)
			}))
			defer ts.Close()

			c := NewClient(types.HTTPConfig{MaxRetries: tt.maxRetries})
			resp, err := c.Get(context.Background(), ts.URL, nil)
			require.NoError(t, err)
			resp.Body.Close()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantCalls, atomic.LoadInt32(&calls))
		})
	}
}

func TestClientBackoffHonorsContext(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	old := RetryBaseDelay
	RetryBaseDelay = 500 * time.Millisecond
	defer func() { RetryBaseDelay = old }()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := NewClient(types.HTTPConfig{}).Get(ctx, ts.URL, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClientGetSetsHeaders(t *testing.T) {
	var gotUA, gotKey, gotAccept string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotKey = r.Header.Get("x-api-key")
		gotAccept = r.Header.Get("Accept")
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	c := NewClient(types.HTTPConfig{UserAgent: "test/0.1", RateLimit: 100})
	resp, err := c.Get(context.Background(), ts.URL, http.Header{"X-Api-Key": {"secret"}})
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "test/0.1", gotUA)
	assert.Equal(t, "secret", gotKey)
	assert.Equal(t, "application/json", gotAccept)
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient(types.HTTPConfig{})
	assert.Equal(t, defaultUserAgent, c.UserAgent)
	assert.Equal(t, defaultTimeout, c.HTTP.Timeout)
	assert.True(t, c.Limiter.Allow())
}

func TestStatusCode(t *testing.T) {
	err := fmt.Errorf("lookup: %w", &APIError{Source: "test", StatusCode: 503, URL: "http://x"})
	assert.Equal(t, 503, StatusCode(err))
	assert.Equal(t, 0, StatusCode(fmt.Errorf("plain")))
	assert.Contains(t, err.Error(), "HTTP 503")
}
