package search

import (
	"context"
	"strings"
	"time"

	"github.com/osa030/tunedeck/internal/domain/track"
)

// DemoProvider serves the bundled catalog. It never fails.
type DemoProvider struct {
	catalog []track.Track
}

// NewDemoProvider creates a provider over the bundled catalog.
func NewDemoProvider() *DemoProvider {
	return &DemoProvider{catalog: DemoCatalog()}
}

// DemoCatalog returns the bundled tracks.
func DemoCatalog() []track.Track {
	demo := func(id, title, artist string, seconds int, sourceID, thumb string) track.Track {
		return track.Track{
			ID:           id,
			Title:        title,
			Artist:       artist,
			Duration:     time.Duration(seconds) * time.Second,
			ThumbnailURL: "https://placehold.co/320x180?text=" + thumb,
			SourceID:     sourceID,
		}
	}
	return []track.Track{
		demo("demo-1", "Bohemian Rhapsody", "Queen", 355, "fJ9rUzIMcZQ", "Queen+Bohemian+Rhapsody+Classic+Rock+Album+Cover"),
		demo("demo-2", "Stairway to Heaven", "Led Zeppelin", 482, "QkF3oxziUI4", "Led+Zeppelin+Stairway+To+Heaven+Rock+Classic"),
		demo("demo-3", "Hotel California", "Eagles", 391, "BciS5krYL80", "Eagles+Hotel+California+70s+Rock+Masterpiece"),
		demo("demo-4", "Imagine", "John Lennon", 183, "YkgkThdzX-8", "John+Lennon+Imagine+Peace+Song+Classic"),
		demo("demo-5", "Sweet Child O Mine", "Guns N Roses", 356, "1w7OgIMMRc4", "Guns+N+Roses+Sweet+Child+O+Mine+Rock+Guitar"),
		demo("demo-6", "Billie Jean", "Michael Jackson", 294, "Zi_XLOBDo_Y", "Michael+Jackson+Billie+Jean+Pop+King+Dance"),
	}
}

// Search matches the query against title and artist, case-insensitively.
// The catalog is small enough to return in one page.
func (p *DemoProvider) Search(_ context.Context, req Request) (Response, error) {
	q := strings.ToLower(strings.TrimSpace(req.Query))
	items := make([]track.Track, 0)
	for _, t := range p.catalog {
		if !strings.Contains(strings.ToLower(t.Title), q) && !strings.Contains(strings.ToLower(t.Artist), q) {
			continue
		}
		if !matchesDuration(t.Duration, req.Duration) {
			continue
		}
		items = append(items, t)
	}
	return Response{Items: items, TotalResults: len(items), Source: p.Name()}, nil
}

// Lookup finds a catalog track by track id or source id.
func (p *DemoProvider) Lookup(_ context.Context, sourceID string) (track.Track, error) {
	for _, t := range p.catalog {
		if t.ID == sourceID || t.SourceID == sourceID {
			return t, nil
		}
	}
	return track.Track{}, ErrTrackNotFound
}

// Name returns the provider name.
func (p *DemoProvider) Name() string {
	return "demo"
}

// matchesDuration applies the video-platform duration buckets:
// short is under 4 minutes, medium 4 to 20 minutes, long over 20 minutes.
func matchesDuration(d time.Duration, filter string) bool {
	switch filter {
	case DurationShort:
		return d < 4*time.Minute
	case DurationMedium:
		return d >= 4*time.Minute && d <= 20*time.Minute
	case DurationLong:
		return d > 20*time.Minute
	default:
		return true
	}
}
