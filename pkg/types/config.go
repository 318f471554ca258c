package types

import "time"

// HTTPConfig holds shared HTTP settings used by the source clients.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "paperstore/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`

	// RateLimit is the maximum number of requests per second (0 = unlimited).
	RateLimit float64 `json:"rate_limit" yaml:"rate_limit"`

	// MaxRetries is the number of retries on HTTP 429 (0 = default of 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// AcademicConfig holds settings for the interpret+evaluate search source.
type AcademicConfig struct {
	HTTPConfig `yaml:",inline"`

	// BaseURL is the API root (default https://api.labs.cognitive.microsoft.com/academic/v1.0).
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// APIKey is the subscription key sent as Ocp-Apim-Subscription-Key.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
}

// SemanticScholarConfig holds settings for the paper-by-id lookup source.
type SemanticScholarConfig struct {
	HTTPConfig `yaml:",inline"`

	// BaseURL is the paper endpoint root (default https://api.semanticscholar.org/v1/paper).
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// APIKey is an optional key for higher rate limits.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
}

// StoreConfig locates the host record store.
type StoreConfig struct {
	// Path is the SQLite database file (e.g. "paperstore.db").
	Path string `json:"path" yaml:"path"`
}

// SyncConfig holds settings for the sync orchestrator.
type SyncConfig struct {
	// Rebuild forces a re-sync of documents already marked retrieved.
	Rebuild bool `json:"rebuild" yaml:"rebuild"`

	// Concurrency bounds how many documents are synced at once (default 4).
	Concurrency int `json:"concurrency" yaml:"concurrency"`

	// SearchLimit is the number of candidates requested from search (default 5).
	SearchLimit int `json:"search_limit" yaml:"search_limit"`

	// LookupTimeout bounds each corroboration lookup (default 30s).
	LookupTimeout time.Duration `json:"lookup_timeout" yaml:"lookup_timeout"`

	// PDFDir is the directory that relative "pdf" field values resolve against.
	PDFDir string `json:"pdf_dir" yaml:"pdf_dir"`
}

// Config groups all stage configurations.
type Config struct {
	Academic        AcademicConfig        `json:"academic" yaml:"academic"`
	SemanticScholar SemanticScholarConfig `json:"semantic_scholar" yaml:"semantic_scholar"`
	Store           StoreConfig           `json:"store" yaml:"store"`
	Sync            SyncConfig            `json:"sync" yaml:"sync"`
}
