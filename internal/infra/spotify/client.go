// Package spotify provides a search client for the Spotify API.
package spotify

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/osa030/tunedeck/internal/domain/track"
)

// Track ID and source prefixes.
const (
	TrackIDPrefix = "spotify-"
	URIPrefix     = "spotify:track:"
)

// Client is a Spotify API client authenticated with client credentials.
type Client struct {
	client     *spotify.Client
	market     string
	maxRetries int
	retryDelay time.Duration
}

// Config represents Spotify client configuration.
type Config struct {
	ClientID     string
	ClientSecret string
	Market       string
	TokenURL     string // Overrides the accounts service token endpoint
	BaseURL      string // Overrides the Web API base URL; must end with a slash
}

// Page is one page of track search results.
type Page struct {
	Tracks     []track.Track
	Total      int
	NextOffset int // -1 when there are no more results
}

// New creates a new Spotify client.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New("spotify client id and secret are required")
	}

	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = spotifyauth.TokenURL
	}
	creds := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     tokenURL,
	}

	var opts []spotify.ClientOption
	if cfg.BaseURL != "" {
		opts = append(opts, spotify.WithBaseURL(cfg.BaseURL))
	}

	return &Client{
		client:     spotify.New(creds.Client(ctx), opts...),
		market:     cfg.Market,
		maxRetries: 3,
		retryDelay: time.Second,
	}, nil
}

// Search searches tracks on Spotify.
func (c *Client) Search(ctx context.Context, query string, limit, offset int) (Page, error) {
	if strings.TrimSpace(query) == "" {
		return Page{}, errors.New("search query is required")
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 50 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	opts := []spotify.RequestOption{spotify.Limit(limit), spotify.Offset(offset)}
	if c.market != "" {
		opts = append(opts, spotify.Market(c.market))
	}

	var result *spotify.SearchResult
	err := c.retry(func() error {
		r, err := c.client.Search(ctx, query, spotify.SearchTypeTrack, opts...)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return Page{}, errors.Wrap(err, "failed to search")
	}

	page := Page{Tracks: make([]track.Track, 0), NextOffset: -1}
	if result.Tracks == nil {
		return page, nil
	}
	for _, t := range result.Tracks.Tracks {
		page.Tracks = append(page.Tracks, convertTrack(&t))
	}
	page.Total = int(result.Tracks.Total)
	if next := offset + len(result.Tracks.Tracks); len(result.Tracks.Tracks) > 0 && next < page.Total {
		page.NextOffset = next
	}
	return page, nil
}

// GetTrack retrieves track information by ID, URL, or URI.
func (c *Client) GetTrack(ctx context.Context, trackID string) (track.Track, error) {
	id := ExtractTrackID(trackID)
	if id == "" {
		return track.Track{}, errors.New("track id is required")
	}

	var opts []spotify.RequestOption
	if c.market != "" {
		opts = append(opts, spotify.Market(c.market))
	}

	var result *spotify.FullTrack
	err := c.retry(func() error {
		t, err := c.client.GetTrack(ctx, spotify.ID(id), opts...)
		if err != nil {
			return err
		}
		result = t
		return nil
	})
	if err != nil {
		return track.Track{}, errors.Wrap(err, "failed to get track")
	}
	return convertTrack(result), nil
}

// convertTrack converts a Spotify FullTrack to a domain Track.
func convertTrack(t *spotify.FullTrack) track.Track {
	artists := make([]string, len(t.Artists))
	for i, a := range t.Artists {
		artists[i] = a.Name
	}

	var thumbnail string
	if len(t.Album.Images) > 0 {
		thumbnail = t.Album.Images[0].URL
	}

	return track.Track{
		ID:           TrackIDPrefix + string(t.ID),
		Title:        t.Name,
		Artist:       strings.Join(artists, ", "),
		Duration:     time.Duration(t.Duration) * time.Millisecond,
		ThumbnailURL: thumbnail,
		SourceID:     URIPrefix + string(t.ID),
	}
}

// retry retries an operation with linear backoff.
func (c *Client) retry(fn func() error) error {
	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !isRetryable(err) {
			return err
		}

		if i < c.maxRetries-1 {
			time.Sleep(c.retryDelay * time.Duration(i+1))
		}
	}
	return errors.Wrap(lastErr, "max retries exceeded")
}

// isRetryable checks if an error is retryable.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	// Rate limit errors and server errors are retryable
	errStr := err.Error()
	return strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "500") ||
		strings.Contains(errStr, "502") ||
		strings.Contains(errStr, "503") ||
		strings.Contains(errStr, "504")
}

// ExtractTrackID extracts the track ID from a Spotify track URL, URI or
// tunedeck track ID.
func ExtractTrackID(input string) string {
	input = strings.TrimSpace(input)
	switch {
	case strings.HasPrefix(input, URIPrefix):
		return strings.TrimPrefix(input, URIPrefix)
	case strings.HasPrefix(input, TrackIDPrefix):
		return strings.TrimPrefix(input, TrackIDPrefix)
	}

	// https://open.spotify.com/track/ID or https://open.spotify.com/intl-XX/track/ID
	if strings.Contains(input, "open.spotify.com") && strings.Contains(input, "/track/") {
		parts := strings.Split(input, "/track/")
		id := strings.Split(parts[len(parts)-1], "?")[0]
		return strings.TrimRight(id, "/")
	}

	return input
}
