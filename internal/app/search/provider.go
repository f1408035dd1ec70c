// Package search provides track search across metadata providers.
package search

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/osa030/tunedeck/internal/domain/track"
)

// Duration filters.
const (
	DurationShort  = "short"
	DurationMedium = "medium"
	DurationLong   = "long"
)

// Page size bounds.
const (
	DefaultMaxResults = 20
	MaxMaxResults     = 50
)

var (
	ErrEmptyQuery         = errors.New("query is required")
	ErrInvalidDuration    = errors.New("invalid duration filter")
	ErrTrackNotFound      = errors.New("track not found")
	ErrMissingCredentials = errors.New("provider credentials are missing")
	ErrNoProviders        = errors.New("no search providers configured")
)

// Request describes one search.
type Request struct {
	Query      string
	MaxResults int
	Duration   string // short, medium, long or empty
	PageToken  string
	Source     string // Restricts the search to one provider, for continuation pages
}

// Normalize trims the query, applies the default page size and validates the filters.
func (r Request) Normalize(defaultMax int) (Request, error) {
	r.Query = strings.TrimSpace(r.Query)
	if r.Query == "" {
		return r, ErrEmptyQuery
	}
	if defaultMax <= 0 {
		defaultMax = DefaultMaxResults
	}
	if r.MaxResults <= 0 {
		r.MaxResults = defaultMax
	}
	if r.MaxResults > MaxMaxResults {
		r.MaxResults = MaxMaxResults
	}
	switch r.Duration {
	case "", DurationShort, DurationMedium, DurationLong:
	default:
		return r, errors.Wrapf(ErrInvalidDuration, "%q", r.Duration)
	}
	return r, nil
}

// Response is one page of results.
type Response struct {
	Items         []track.Track `json:"items"`
	NextPageToken string        `json:"nextPageToken,omitempty"`
	TotalResults  int           `json:"totalResults"`
	Source        string        `json:"source"`
	Notice        string        `json:"notice,omitempty"`
}

// Provider is the interface for search providers.
type Provider interface {
	// Search runs one search. Implementations receive a normalized request.
	Search(ctx context.Context, req Request) (Response, error)

	// Name returns the provider name (used in config).
	Name() string
}

// Resolver is implemented by providers that can look a track up by source id.
type Resolver interface {
	Lookup(ctx context.Context, sourceID string) (track.Track, error)
}
