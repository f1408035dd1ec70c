// Package youtube provides a client for the YouTube Data API v3.
package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/tunedeck/internal/domain/track"
)

// TrackIDPrefix prefixes the video id in tunedeck track ids.
const TrackIDPrefix = "youtube-"

// PlaceholderThumbnail is used when a video has no thumbnails.
const PlaceholderThumbnail = "https://placehold.co/320x180?text=No+Image+Available"

// Duration filters accepted by the search endpoint.
const (
	DurationShort  = "short"
	DurationMedium = "medium"
	DurationLong   = "long"
)

const defaultBaseURL = "https://www.googleapis.com/youtube/v3/"

// ErrNotFound is returned when a video id does not resolve.
var ErrNotFound = errors.New("video not found")

// Client is a YouTube Data API client.
type Client struct {
	apiKey     string
	baseURL    string
	regionCode string
	language   string
	httpClient *http.Client
}

// Config represents YouTube client configuration.
type Config struct {
	APIKey     string
	BaseURL    string // Overrides the API base URL; must end with a slash
	RegionCode string
	Language   string
}

// SearchParams describes one search request.
type SearchParams struct {
	Query      string
	MaxResults int
	PageToken  string
	Duration   string // short, medium, long or empty
}

// SearchResult is one page of search results.
type SearchResult struct {
	Tracks        []track.Track
	NextPageToken string
	TotalResults  int
}

// Thumbnail is one thumbnail rendition of a video.
type Thumbnail struct {
	URL string `json:"url"`
}

type snippet struct {
	Title        string               `json:"title"`
	Description  string               `json:"description"`
	ChannelTitle string               `json:"channelTitle"`
	PublishedAt  string               `json:"publishedAt"`
	Thumbnails   map[string]Thumbnail `json:"thumbnails"`
}

type searchResponse struct {
	NextPageToken string `json:"nextPageToken"`
	PageInfo      struct {
		TotalResults int `json:"totalResults"`
	} `json:"pageInfo"`
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet snippet `json:"snippet"`
	} `json:"items"`
}

type videosResponse struct {
	Items []video `json:"items"`
}

type video struct {
	ID             string  `json:"id"`
	Snippet        snippet `json:"snippet"`
	ContentDetails struct {
		Duration string `json:"duration"`
	} `json:"contentDetails"`
}

// apiError represents an error response from the YouTube API.
type apiError struct {
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// New creates a new YouTube client.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("youtube API key is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	region := cfg.RegionCode
	if region == "" {
		region = "US"
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		regionCode: region,
		language:   cfg.Language,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// Search searches music videos and fills their durations from the videos endpoint.
// Reference: https://developers.google.com/youtube/v3/docs/search/list
func (c *Client) Search(ctx context.Context, p SearchParams) (SearchResult, error) {
	query := strings.TrimSpace(p.Query)
	if query == "" {
		return SearchResult{}, errors.New("search query is required")
	}

	limit := p.MaxResults
	if limit <= 0 {
		limit = 20
	}
	if limit > 50 {
		limit = 50
	}

	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("key", c.apiKey)
	params.Set("q", query)
	params.Set("type", "video")
	params.Set("maxResults", strconv.Itoa(limit))
	params.Set("videoCategoryId", "10")
	params.Set("safeSearch", "moderate")
	params.Set("videoEmbeddable", "true")
	params.Set("videoSyndicated", "true")
	params.Set("regionCode", c.regionCode)
	if c.language != "" {
		params.Set("relevanceLanguage", c.language)
	}
	if p.PageToken != "" {
		params.Set("pageToken", p.PageToken)
	}
	switch p.Duration {
	case "":
	case DurationShort, DurationMedium, DurationLong:
		params.Set("videoDuration", p.Duration)
	default:
		return SearchResult{}, errors.Newf("invalid duration filter %q", p.Duration)
	}

	var resp searchResponse
	if err := c.get(ctx, "search", params, &resp); err != nil {
		return SearchResult{}, errors.Wrap(err, "failed to search")
	}

	ids := make([]string, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.ID.VideoID != "" {
			ids = append(ids, item.ID.VideoID)
		}
	}

	// Durations are only available from the videos endpoint
	durations := make(map[string]time.Duration, len(ids))
	if len(ids) > 0 {
		videos, err := c.Videos(ctx, ids)
		if err != nil {
			zlog.Warn().Err(err).Msgf("youtube: failed to fetch video details count=%d", len(ids))
		}
		for _, v := range videos {
			durations[strings.TrimPrefix(v.ID, TrackIDPrefix)] = v.Duration
		}
	}

	result := SearchResult{
		Tracks:        make([]track.Track, 0, len(ids)),
		NextPageToken: resp.NextPageToken,
		TotalResults:  resp.PageInfo.TotalResults,
	}
	for _, item := range resp.Items {
		if item.ID.VideoID == "" {
			continue
		}
		t := convert(item.ID.VideoID, item.Snippet)
		t.Duration = durations[item.ID.VideoID]
		result.Tracks = append(result.Tracks, t)
	}

	zlog.Debug().Msgf("youtube: search query=%q results=%d total=%d", query, len(result.Tracks), result.TotalResults)
	return result, nil
}

// Videos retrieves video details by id.
// Reference: https://developers.google.com/youtube/v3/docs/videos/list
func (c *Client) Videos(ctx context.Context, ids []string) ([]track.Track, error) {
	if len(ids) == 0 {
		return nil, errors.New("video ids are required")
	}

	params := url.Values{}
	params.Set("part", "snippet,contentDetails,statistics")
	params.Set("key", c.apiKey)
	params.Set("id", strings.Join(ids, ","))

	var resp videosResponse
	if err := c.get(ctx, "videos", params, &resp); err != nil {
		return nil, errors.Wrap(err, "failed to get videos")
	}

	tracks := make([]track.Track, 0, len(resp.Items))
	for _, v := range resp.Items {
		t := convert(v.ID, v.Snippet)
		t.Duration = ParseDuration(v.ContentDetails.Duration)
		tracks = append(tracks, t)
	}
	return tracks, nil
}

// Video retrieves a single video by id.
func (c *Client) Video(ctx context.Context, id string) (track.Track, error) {
	id = strings.TrimPrefix(strings.TrimSpace(id), TrackIDPrefix)
	if id == "" {
		return track.Track{}, errors.New("video id is required")
	}
	tracks, err := c.Videos(ctx, []string{id})
	if err != nil {
		return track.Track{}, err
	}
	if len(tracks) == 0 {
		return track.Track{}, errors.Wrapf(ErrNotFound, "video %s", id)
	}
	return tracks[0], nil
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values, v any) error {
	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, endpoint, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "failed to execute request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "failed to read response body")
	}

	var apiErr apiError
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != nil && apiErr.Error.Message != "" {
		return errors.Newf("youtube API error: %s (code: %d)", apiErr.Error.Message, apiErr.Error.Code)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.Newf("youtube API error: %s", resp.Status)
	}

	if err := json.Unmarshal(body, v); err != nil {
		return errors.Wrap(err, "failed to decode response")
	}
	return nil
}

func convert(videoID string, s snippet) track.Track {
	title, artist := ParseTitle(s.Title)
	if artist == "" {
		artist = s.ChannelTitle
	}
	return track.Track{
		ID:           TrackIDPrefix + videoID,
		Title:        title,
		Artist:       artist,
		ThumbnailURL: BestThumbnail(s.Thumbnails),
		SourceID:     videoID,
	}
}

var titlePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(.+?)\s*[-–—]\s*(.+?)(?:\s*\(.*?\)|\s*\[.*?\])*$`), // Artist - Title (Official Video)
	regexp.MustCompile(`^(.+?)\s*[:|]\s*(.+?)(?:\s*\(.*?\)|\s*\[.*?\])*$`),  // Artist: Title, Artist | Title
	regexp.MustCompile(`^(.+?)\s*"(.+?)".*$`),                              // Artist "Title"
	regexp.MustCompile(`^(.+?)\s*'(.+?)'.*$`),                              // Artist 'Title'
}

// ParseTitle splits a video title into song title and artist.
// The artist is empty when no known pattern matches.
func ParseTitle(raw string) (title, artist string) {
	raw = strings.TrimSpace(raw)
	for _, p := range titlePatterns {
		if m := p.FindStringSubmatch(raw); m != nil {
			return strings.TrimSpace(m[2]), strings.TrimSpace(m[1])
		}
	}
	return raw, ""
}

var durationPattern = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

// ParseDuration parses an ISO-8601 video duration such as PT4M13S.
// Unparseable input yields zero.
func ParseDuration(iso string) time.Duration {
	m := durationPattern.FindStringSubmatch(iso)
	if m == nil {
		return 0
	}
	var d time.Duration
	units := []time.Duration{time.Hour, time.Minute, time.Second}
	for i, unit := range units {
		if m[i+1] == "" {
			continue
		}
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return 0
		}
		d += time.Duration(n) * unit
	}
	return d
}

// BestThumbnail picks the highest resolution thumbnail available.
func BestThumbnail(thumbnails map[string]Thumbnail) string {
	for _, key := range []string{"maxres", "high", "medium", "default"} {
		if t, ok := thumbnails[key]; ok && t.URL != "" {
			return t.URL
		}
	}
	return PlaceholderThumbnail
}
