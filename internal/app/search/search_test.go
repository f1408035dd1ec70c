package search

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/tunedeck/internal/domain/track"
	"github.com/osa030/tunedeck/internal/infra/config"
)

type fakeProvider struct {
	name    string
	resp    Response
	err     error
	tracks  map[string]track.Track
	lastReq Request
	calls   int
}

func (p *fakeProvider) Search(_ context.Context, req Request) (Response, error) {
	p.calls++
	p.lastReq = req
	return p.resp, p.err
}

func (p *fakeProvider) Lookup(_ context.Context, sourceID string) (track.Track, error) {
	if p.err != nil {
		return track.Track{}, p.err
	}
	if t, ok := p.tracks[sourceID]; ok {
		return t, nil
	}
	return track.Track{}, ErrTrackNotFound
}

func (p *fakeProvider) Name() string { return p.name }

func titles(tracks []track.Track) []string {
	result := make([]string, len(tracks))
	for i, t := range tracks {
		result[i] = t.Title
	}
	return result
}

func TestRequest_Normalize(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		want    Request
		wantErr error
	}{
		{name: "defaults", req: Request{Query: "  queen "}, want: Request{Query: "queen", MaxResults: 20}},
		{name: "clamped", req: Request{Query: "q", MaxResults: 99}, want: Request{Query: "q", MaxResults: 50}},
		{name: "duration kept", req: Request{Query: "q", MaxResults: 5, Duration: DurationLong}, want: Request{Query: "q", MaxResults: 5, Duration: DurationLong}},
		{name: "empty query", req: Request{Query: "   "}, wantErr: ErrEmptyQuery},
		{name: "bad duration", req: Request{Query: "q", Duration: "epic"}, wantErr: ErrInvalidDuration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.req.Normalize(0)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDemoProvider_Search(t *testing.T) {
	p := NewDemoProvider()

	tests := []struct {
		name     string
		req      Request
		expected []string
	}{
		{name: "artist match", req: Request{Query: "Queen"}, expected: []string{"Bohemian Rhapsody"}},
		{name: "case insensitive title", req: Request{Query: "hotel"}, expected: []string{"Hotel California"}},
		{name: "short filter", req: Request{Query: "i", Duration: DurationShort}, expected: []string{"Imagine"}},
		{name: "long filter", req: Request{Query: "e", Duration: DurationLong}, expected: []string{}},
		{name: "no match", req: Request{Query: "zzz"}, expected: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := p.Search(context.Background(), tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, titles(resp.Items))
			assert.Equal(t, len(tt.expected), resp.TotalResults)
			assert.Equal(t, "demo", resp.Source)
			assert.Empty(t, resp.NextPageToken)
		})
	}
}

func TestDemoProvider_Lookup(t *testing.T) {
	p := NewDemoProvider()

	got, err := p.Lookup(context.Background(), "fJ9rUzIMcZQ")
	require.NoError(t, err)
	assert.Equal(t, "demo-1", got.ID)
	assert.Equal(t, 355*time.Second, got.Duration)

	got, err = p.Lookup(context.Background(), "demo-4")
	require.NoError(t, err)
	assert.Equal(t, "Imagine", got.Title)

	_, err = p.Lookup(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrTrackNotFound)
}

func TestProviderChain_FallbackNotice(t *testing.T) {
	failing := &fakeProvider{name: "youtube", err: errors.New("quota exceeded")}
	chain := NewProviderChain([]ProviderWithMetadata{
		{Provider: failing, DisplayName: "YouTube"},
		{Provider: NewDemoProvider(), DisplayName: "Demo"},
	}, 20)

	resp, err := chain.Search(context.Background(), Request{Query: "Queen"})
	require.NoError(t, err)

	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 20, failing.lastReq.MaxResults)
	assert.Equal(t, []string{"Bohemian Rhapsody"}, titles(resp.Items))
	assert.Equal(t, "demo", resp.Source)
	assert.Contains(t, resp.Notice, "YouTube")
}

func TestProviderChain_FirstSuccessWins(t *testing.T) {
	first := &fakeProvider{name: "youtube", resp: Response{Items: []track.Track{{ID: "youtube-x", Title: "X"}}, NextPageToken: "n"}}
	second := &fakeProvider{name: "demo"}
	chain := NewProviderChain([]ProviderWithMetadata{
		{Provider: first, DisplayName: "YouTube"},
		{Provider: second, DisplayName: "Demo"},
	}, 10)

	resp, err := chain.Search(context.Background(), Request{Query: "x"})
	require.NoError(t, err)
	assert.Equal(t, "youtube", resp.Source)
	assert.Empty(t, resp.Notice)
	assert.Equal(t, 0, second.calls)
}

func TestProviderChain_SourceRestrictsProviders(t *testing.T) {
	first := &fakeProvider{name: "youtube", err: errors.New("down")}
	second := &fakeProvider{name: "spotify", resp: Response{Items: []track.Track{{ID: "s"}}}}
	chain := NewProviderChain([]ProviderWithMetadata{
		{Provider: first, DisplayName: "YouTube"},
		{Provider: second, DisplayName: "Spotify"},
	}, 10)

	_, err := chain.Search(context.Background(), Request{Query: "x", PageToken: "p2", Source: "spotify"})
	require.NoError(t, err)
	assert.Equal(t, 0, first.calls)
	assert.Equal(t, "p2", second.lastReq.PageToken)

	_, err = chain.Search(context.Background(), Request{Query: "x", PageToken: "p2", Source: "youtube"})
	assert.Error(t, err, "continuation pages do not fall back")
}

func TestProviderChain_Errors(t *testing.T) {
	_, err := NewProviderChain(nil, 10).Search(context.Background(), Request{Query: "x"})
	assert.ErrorIs(t, err, ErrNoProviders)

	chain := NewProviderChain([]ProviderWithMetadata{{Provider: NewDemoProvider(), DisplayName: "Demo"}}, 10)
	_, err = chain.Search(context.Background(), Request{Query: " "})
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestProviderChain_Lookup(t *testing.T) {
	remote := &fakeProvider{name: "youtube", tracks: map[string]track.Track{"abc": {ID: "youtube-abc"}}}
	chain := NewProviderChain([]ProviderWithMetadata{
		{Provider: NewDemoProvider(), DisplayName: "Demo"},
		{Provider: remote, DisplayName: "YouTube"},
	}, 10)

	got, err := chain.Lookup(context.Background(), "fJ9rUzIMcZQ")
	require.NoError(t, err)
	assert.Equal(t, "demo-1", got.ID, "demo catalog is checked first")

	got, err = chain.Lookup(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "youtube-abc", got.ID)

	_, err = chain.Lookup(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrTrackNotFound)

	remote.err = errors.New("network down")
	_, err = chain.Lookup(context.Background(), "missing")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrTrackNotFound))
}

func TestProviderChain_LookupSkipsFailingProvider(t *testing.T) {
	unreachable := &fakeProvider{name: "youtube", err: errors.New("dial tcp: network unreachable")}
	remote := &fakeProvider{name: "spotify", tracks: map[string]track.Track{"abc": {ID: "spotify-abc"}}}
	chain := NewProviderChain([]ProviderWithMetadata{
		{Provider: unreachable, DisplayName: "YouTube"},
		{Provider: remote, DisplayName: "Spotify"},
		{Provider: NewDemoProvider(), DisplayName: "Demo"},
	}, 10)

	tests := []struct {
		name     string
		sourceID string
		wantID   string
	}{
		{name: "demo id by source", sourceID: "fJ9rUzIMcZQ", wantID: "demo-1"},
		{name: "demo id", sourceID: "demo-1", wantID: "demo-1"},
		{name: "later provider", sourceID: "abc", wantID: "spotify-abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := chain.Lookup(context.Background(), tt.sourceID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, got.ID)
		})
	}

	_, err := chain.Lookup(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "network unreachable")
}

func TestNewProviderChainFromConfig(t *testing.T) {
	chain, err := NewProviderChainFromConfig(context.Background(), config.SearchConfig{
		DefaultMaxResults: 20,
		Providers: []config.ProviderConfig{
			{Type: config.ProviderYouTube, DisplayName: "YouTube"},
			{Type: config.ProviderSpotify},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"demo"}, chain.Providers(), "providers without credentials are skipped, demo closes the chain")

	chain, err = NewProviderChainFromConfig(context.Background(), config.SearchConfig{
		Providers: []config.ProviderConfig{
			{Type: config.ProviderYouTube, DisplayName: "YouTube", Settings: map[string]any{"api_key": "k"}},
			{Type: config.ProviderDemo, DisplayName: "Demo"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"YouTube", "Demo"}, chain.Providers())

	_, err = NewProviderChainFromConfig(context.Background(), config.SearchConfig{
		Providers: []config.ProviderConfig{{Type: config.ProviderYouTube, Settings: map[string]any{"api_key": "k", "region_code": "USA"}}},
	})
	assert.Error(t, err)

	_, err = NewProviderChainFromConfig(context.Background(), config.SearchConfig{
		Providers: []config.ProviderConfig{{Type: "lastfm"}},
	})
	assert.Error(t, err)
}

type fakeHistory struct {
	queries []string
}

func (h *fakeHistory) Add(q string) error {
	h.queries = append(h.queries, q)
	return nil
}

func TestSession_SearchAndLoadMore(t *testing.T) {
	p := &fakeProvider{name: "youtube", resp: Response{
		Items:         []track.Track{{ID: "1", Title: "One"}},
		NextPageToken: "page2",
		TotalResults:  2,
	}}
	history := &fakeHistory{}
	s := NewSession(NewProviderChain([]ProviderWithMetadata{{Provider: p, DisplayName: "YouTube"}}, 20), history)

	resp, committed, err := s.Search(context.Background(), Request{Query: " one "})
	require.NoError(t, err)
	assert.True(t, committed)
	assert.Len(t, resp.Items, 1)
	assert.Equal(t, []string{" one "}, history.queries)

	results := s.Results()
	assert.Equal(t, "one", results.Query)
	assert.Equal(t, "page2", results.NextPageToken)
	assert.False(t, results.Loading)

	p.resp = Response{Items: []track.Track{{ID: "2", Title: "Two"}}, Source: "youtube"}
	results, err = s.LoadMore(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "page2", p.lastReq.PageToken)
	assert.Equal(t, "youtube", p.lastReq.Source)
	assert.Equal(t, []string{"One", "Two"}, titles(results.Items))
	assert.Empty(t, results.NextPageToken)

	_, err = s.LoadMore(context.Background())
	assert.ErrorIs(t, err, ErrNoMoreResults)
	assert.Len(t, history.queries, 1, "pages are not recorded as searches")

	s.Clear()
	assert.Empty(t, s.Results().Items)
	assert.Empty(t, s.Results().Query)
}

func TestSession_SearchError(t *testing.T) {
	history := &fakeHistory{}
	s := NewSession(NewProviderChain(nil, 20), history)

	_, committed, err := s.Search(context.Background(), Request{Query: "x"})
	assert.Error(t, err)
	assert.True(t, committed)
	assert.NotEmpty(t, s.Results().Error)
	assert.Empty(t, history.queries)
}

// gatedSearcher blocks searches for gated queries until released.
type gatedSearcher struct {
	mu      sync.Mutex
	gates   map[string]chan struct{}
	started chan string
}

func (g *gatedSearcher) Search(_ context.Context, req Request) (Response, error) {
	g.mu.Lock()
	gate := g.gates[req.Query]
	g.mu.Unlock()
	g.started <- req.Query
	if gate != nil {
		<-gate
	}
	return Response{Items: []track.Track{{ID: req.Query, Title: req.Query}}, Source: "fake"}, nil
}

func TestSession_StaleResponseDiscarded(t *testing.T) {
	slow := make(chan struct{})
	g := &gatedSearcher{gates: map[string]chan struct{}{"slow": slow}, started: make(chan string, 2)}
	s := NewSession(g, nil)

	done := make(chan bool, 1)
	go func() {
		_, committed, _ := s.Search(context.Background(), Request{Query: "slow"})
		done <- committed
	}()
	require.Equal(t, "slow", <-g.started)

	_, committed, err := s.Search(context.Background(), Request{Query: "fast"})
	require.NoError(t, err)
	assert.True(t, committed)
	<-g.started

	close(slow)
	assert.False(t, <-done, "the earlier request completed last and must not commit")
	assert.Equal(t, []string{"fast"}, titles(s.Results().Items))
}

func TestSession_ClearDiscardsInFlight(t *testing.T) {
	slow := make(chan struct{})
	g := &gatedSearcher{gates: map[string]chan struct{}{"slow": slow}, started: make(chan string, 1)}
	s := NewSession(g, nil)

	done := make(chan bool, 1)
	go func() {
		_, committed, _ := s.Search(context.Background(), Request{Query: "slow"})
		done <- committed
	}()
	<-g.started

	s.Clear()
	close(slow)

	assert.False(t, <-done)
	assert.Empty(t, s.Results().Items)
}

func TestCategories(t *testing.T) {
	assert.Len(t, Categories(), 6)
	c, ok := CategoryByID("rock")
	require.True(t, ok)
	assert.Equal(t, "rock music classics", c.Query)
	_, ok = CategoryByID("jazz")
	assert.False(t, ok)
}
