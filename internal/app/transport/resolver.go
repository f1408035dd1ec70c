package transport

import (
	"context"
	"net/url"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/osa030/tunedeck/internal/domain/track"
)

// SpotifyURIPrefix marks source IDs that refer to Spotify tracks.
const SpotifyURIPrefix = "spotify:track:"

// Resolver turns a track's SourceID into a playable stream URL.
type Resolver interface {
	Resolve(ctx context.Context, t track.Track) (string, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ctx context.Context, t track.Track) (string, error)

// Resolve implements Resolver.
func (f ResolverFunc) Resolve(ctx context.Context, t track.Track) (string, error) {
	return f(ctx, t)
}

// YouTubeResolver maps video IDs to watch URLs. It performs no stream
// extraction; the URL is what a browser media element would be pointed at.
type YouTubeResolver struct{}

// Resolve implements Resolver.
func (YouTubeResolver) Resolve(_ context.Context, t track.Track) (string, error) {
	id := strings.TrimSpace(t.SourceID)
	if id == "" || strings.HasPrefix(id, "spotify:") {
		return "", ErrUnresolvable
	}
	return "https://www.youtube.com/watch?v=" + url.QueryEscape(id), nil
}

// SpotifyResolver maps spotify:track: URIs to open.spotify.com URLs.
type SpotifyResolver struct{}

// Resolve implements Resolver.
func (SpotifyResolver) Resolve(_ context.Context, t track.Track) (string, error) {
	if !strings.HasPrefix(t.SourceID, SpotifyURIPrefix) {
		return "", ErrUnresolvable
	}
	id := strings.TrimPrefix(t.SourceID, SpotifyURIPrefix)
	if id == "" {
		return "", ErrUnresolvable
	}
	return "https://open.spotify.com/track/" + id, nil
}

// ChainResolver tries resolvers in order and returns the first URL.
type ChainResolver []Resolver

// Resolve implements Resolver.
func (c ChainResolver) Resolve(ctx context.Context, t track.Track) (string, error) {
	for _, r := range c {
		u, err := r.Resolve(ctx, t)
		if err == nil {
			return u, nil
		}
		if !errors.Is(err, ErrUnresolvable) {
			return "", err
		}
	}
	return "", errors.Wrapf(ErrUnresolvable, "source %q", t.SourceID)
}

// DefaultResolver resolves Spotify URIs and YouTube video IDs.
func DefaultResolver() Resolver {
	return ChainResolver{SpotifyResolver{}, YouTubeResolver{}}
}
