package search

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/tunedeck/internal/domain/track"
	"github.com/osa030/tunedeck/internal/infra/youtube"
)

type YouTubeProviderConfig struct {
	APIKey     string `mapstructure:"api_key" validate:"required"`
	RegionCode string `mapstructure:"region_code" default:"US" validate:"len=2"`
	Language   string `mapstructure:"language"`
	BaseURL    string `mapstructure:"base_url" validate:"omitempty,url"`
}

// YouTubeClient defines the YouTube operations needed by the provider.
type YouTubeClient interface {
	Search(ctx context.Context, p youtube.SearchParams) (youtube.SearchResult, error)
	Video(ctx context.Context, id string) (track.Track, error)
}

// YouTubeProvider searches music videos through the YouTube Data API.
type YouTubeProvider struct {
	client YouTubeClient
}

// NewYouTubeProvider creates a YouTubeProvider from provider settings.
func NewYouTubeProvider(settings map[string]any) (*YouTubeProvider, error) {
	var config YouTubeProviderConfig
	if err := mapstructure.Decode(settings, &config); err != nil {
		return nil, errors.Wrap(err, "failed to decode settings")
	}
	if config.APIKey == "" || config.APIKey == "demo-key" {
		return nil, errors.Wrap(ErrMissingCredentials, "youtube api_key")
	}
	if err := defaults.Set(&config); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}
	if err := validator.New().Struct(config); err != nil {
		zlog.Error().Msgf("youtube provider validation failed: %v", err)
		return nil, errors.Wrap(err, "validation failed")
	}

	client, err := youtube.New(youtube.Config{
		APIKey:     config.APIKey,
		BaseURL:    config.BaseURL,
		RegionCode: config.RegionCode,
		Language:   config.Language,
	})
	if err != nil {
		return nil, err
	}
	return NewYouTubeProviderWithClient(client), nil
}

// NewYouTubeProviderWithClient creates a YouTubeProvider over an existing client.
func NewYouTubeProviderWithClient(client YouTubeClient) *YouTubeProvider {
	return &YouTubeProvider{client: client}
}

// Search runs the query against the search and videos endpoints.
func (p *YouTubeProvider) Search(ctx context.Context, req Request) (Response, error) {
	result, err := p.client.Search(ctx, youtube.SearchParams{
		Query:      req.Query,
		MaxResults: req.MaxResults,
		PageToken:  req.PageToken,
		Duration:   req.Duration,
	})
	if err != nil {
		return Response{}, err
	}
	return Response{
		Items:         result.Tracks,
		NextPageToken: result.NextPageToken,
		TotalResults:  result.TotalResults,
		Source:        p.Name(),
	}, nil
}

// Lookup retrieves a video by id.
func (p *YouTubeProvider) Lookup(ctx context.Context, sourceID string) (track.Track, error) {
	t, err := p.client.Video(ctx, sourceID)
	if errors.Is(err, youtube.ErrNotFound) {
		return track.Track{}, errors.Mark(err, ErrTrackNotFound)
	}
	return t, err
}

// Name returns the provider name.
func (p *YouTubeProvider) Name() string {
	return "youtube"
}
