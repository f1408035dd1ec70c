package search

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/tunedeck/internal/domain/track"
	"github.com/osa030/tunedeck/internal/infra/spotify"
)

type SpotifyProviderConfig struct {
	ClientID     string `mapstructure:"client_id" validate:"required"`
	ClientSecret string `mapstructure:"client_secret" validate:"required"`
	Market       string `mapstructure:"market" validate:"omitempty,len=2"`
	TokenURL     string `mapstructure:"token_url" validate:"omitempty,url"`
	BaseURL      string `mapstructure:"base_url" validate:"omitempty,url"`
}

// SpotifyClient defines the Spotify operations needed by the provider.
type SpotifyClient interface {
	Search(ctx context.Context, query string, limit, offset int) (spotify.Page, error)
	GetTrack(ctx context.Context, trackID string) (track.Track, error)
}

// SpotifyProvider searches tracks through the Spotify Web API.
// Page tokens are result offsets.
type SpotifyProvider struct {
	client SpotifyClient
}

// NewSpotifyProvider creates a SpotifyProvider from provider settings.
func NewSpotifyProvider(ctx context.Context, settings map[string]any) (*SpotifyProvider, error) {
	var config SpotifyProviderConfig
	if err := mapstructure.Decode(settings, &config); err != nil {
		return nil, errors.Wrap(err, "failed to decode settings")
	}
	if config.ClientID == "" || config.ClientSecret == "" {
		return nil, errors.Wrap(ErrMissingCredentials, "spotify client_id and client_secret")
	}
	if err := defaults.Set(&config); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}
	if err := validator.New().Struct(config); err != nil {
		zlog.Error().Msgf("spotify provider validation failed: %v", err)
		return nil, errors.Wrap(err, "validation failed")
	}

	client, err := spotify.New(ctx, spotify.Config{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		Market:       config.Market,
		TokenURL:     config.TokenURL,
		BaseURL:      config.BaseURL,
	})
	if err != nil {
		return nil, err
	}
	return NewSpotifyProviderWithClient(client), nil
}

// NewSpotifyProviderWithClient creates a SpotifyProvider over an existing client.
func NewSpotifyProviderWithClient(client SpotifyClient) *SpotifyProvider {
	return &SpotifyProvider{client: client}
}

// Search runs a track search. The duration filter is applied to the returned page.
func (p *SpotifyProvider) Search(ctx context.Context, req Request) (Response, error) {
	offset := 0
	if req.PageToken != "" {
		n, err := strconv.Atoi(req.PageToken)
		if err != nil || n < 0 {
			return Response{}, errors.Newf("invalid page token %q", req.PageToken)
		}
		offset = n
	}

	page, err := p.client.Search(ctx, req.Query, req.MaxResults, offset)
	if err != nil {
		return Response{}, err
	}

	items := make([]track.Track, 0, len(page.Tracks))
	for _, t := range page.Tracks {
		if matchesDuration(t.Duration, req.Duration) {
			items = append(items, t)
		}
	}

	resp := Response{Items: items, TotalResults: page.Total, Source: p.Name()}
	if page.NextOffset >= 0 {
		resp.NextPageToken = strconv.Itoa(page.NextOffset)
	}
	return resp, nil
}

// Lookup retrieves a track by Spotify URI or tunedeck id.
// Other source ids are reported as not found.
func (p *SpotifyProvider) Lookup(ctx context.Context, sourceID string) (track.Track, error) {
	if !strings.HasPrefix(sourceID, spotify.URIPrefix) && !strings.HasPrefix(sourceID, spotify.TrackIDPrefix) {
		return track.Track{}, ErrTrackNotFound
	}
	lookupCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return p.client.GetTrack(lookupCtx, sourceID)
}

// Name returns the provider name.
func (p *SpotifyProvider) Name() string {
	return "spotify"
}
