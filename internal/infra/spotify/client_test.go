package spotify

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractTrackID(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Spotify URI format",
			input:    "spotify:track:4uLU6hMCjMI75M1A2tKUQC",
			expected: "4uLU6hMCjMI75M1A2tKUQC",
		},
		{
			name:     "Track ID with prefix",
			input:    "spotify-4uLU6hMCjMI75M1A2tKUQC",
			expected: "4uLU6hMCjMI75M1A2tKUQC",
		},
		{
			name:     "Spotify URL format",
			input:    "https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC",
			expected: "4uLU6hMCjMI75M1A2tKUQC",
		},
		{
			name:     "Localized URL with query params",
			input:    "https://open.spotify.com/intl-ja/track/abc123?si=xyz",
			expected: "abc123",
		},
		{
			name:     "Plain track ID",
			input:    "abc123",
			expected: "abc123",
		},
		{
			name:     "Empty string",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractTrackID(tt.input))
		})
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{name: "nil error", err: nil, expected: false},
		{name: "rate limit error with 429", err: errors.New("Error 429: rate limit exceeded"), expected: true},
		{name: "server error 500", err: errors.New("Error 500: internal server error"), expected: true},
		{name: "server error 503", err: errors.New("503 Service Unavailable"), expected: true},
		{name: "client error 400", err: errors.New("400 Bad Request"), expected: false},
		{name: "not found error", err: errors.New("404 not found"), expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, isRetryable(tt.err))
		})
	}
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"test-token","token_type":"bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/v1/search", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		assert.Equal(t, "queen", r.URL.Query().Get("q"))
		assert.Equal(t, "track", r.URL.Query().Get("type"))
		assert.Equal(t, "2", r.URL.Query().Get("limit"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"tracks":{"href":"","limit":2,"offset":0,"total":5,"items":[
			{"id":"abc","name":"Bohemian Rhapsody","duration_ms":354000,"artists":[{"name":"Queen"}],"album":{"name":"A Night at the Opera","images":[{"url":"https://img/1.jpg"}]}},
			{"id":"def","name":"Under Pressure","duration_ms":248000,"artists":[{"name":"Queen"},{"name":"David Bowie"}],"album":{"name":"Hot Space","images":[]}}
		]}}`))
	})
	mux.HandleFunc("/v1/tracks/abc", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"abc","name":"Bohemian Rhapsody","duration_ms":354000,"artists":[{"name":"Queen"}],"album":{"name":"A Night at the Opera","images":[]}}`))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestClient(t *testing.T, server *httptest.Server) *Client {
	t.Helper()
	c, err := New(context.Background(), Config{
		ClientID:     "id",
		ClientSecret: "secret",
		TokenURL:     server.URL + "/api/token",
		BaseURL:      server.URL + "/v1/",
	})
	require.NoError(t, err)
	return c
}

func TestNew_RequiresCredentials(t *testing.T) {
	_, err := New(context.Background(), Config{ClientID: "id"})
	assert.Error(t, err)
}

func TestSearch(t *testing.T) {
	c := newTestClient(t, newTestServer(t))

	page, err := c.Search(context.Background(), "queen", 2, 0)
	require.NoError(t, err)

	require.Len(t, page.Tracks, 2)
	assert.Equal(t, 5, page.Total)
	assert.Equal(t, 2, page.NextOffset)

	first := page.Tracks[0]
	assert.Equal(t, "spotify-abc", first.ID)
	assert.Equal(t, "spotify:track:abc", first.SourceID)
	assert.Equal(t, "Queen", first.Artist)
	assert.Equal(t, 354*time.Second, first.Duration)
	assert.Equal(t, "https://img/1.jpg", first.ThumbnailURL)
	assert.Equal(t, "Queen, David Bowie", page.Tracks[1].Artist)
}

func TestSearch_EmptyQuery(t *testing.T) {
	c := newTestClient(t, newTestServer(t))

	_, err := c.Search(context.Background(), "  ", 10, 0)
	assert.Error(t, err)
}

func TestGetTrack(t *testing.T) {
	c := newTestClient(t, newTestServer(t))

	got, err := c.GetTrack(context.Background(), "spotify:track:abc")
	require.NoError(t, err)
	assert.Equal(t, "spotify-abc", got.ID)
	assert.Equal(t, "Bohemian Rhapsody", got.Title)
}
