package search

import (
	"context"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/tunedeck/internal/domain/track"
)

// ErrNoMoreResults is returned by LoadMore when the last page was reached.
var ErrNoMoreResults = errors.New("no more results")

// Searcher runs searches.
type Searcher interface {
	Search(ctx context.Context, req Request) (Response, error)
}

// HistoryRecorder keeps submitted queries.
type HistoryRecorder interface {
	Add(query string) error
}

// Results is the committed state of a search session.
type Results struct {
	Query         string        `json:"query"`
	Duration      string        `json:"duration,omitempty"`
	Items         []track.Track `json:"items"`
	NextPageToken string        `json:"nextPageToken,omitempty"`
	TotalResults  int           `json:"totalResults"`
	Source        string        `json:"source,omitempty"`
	Notice        string        `json:"notice,omitempty"`
	Loading       bool          `json:"loading"`
	Error         string        `json:"error,omitempty"`
}

// Session holds the results of the latest search. Every request takes a
// generation number and only the latest generation may commit.
type Session struct {
	searcher Searcher
	history  HistoryRecorder

	mu         sync.Mutex
	generation uint64
	request    Request
	results    Results
}

// NewSession creates a search session. history may be nil.
func NewSession(searcher Searcher, history HistoryRecorder) *Session {
	return &Session{
		searcher: searcher,
		history:  history,
		results:  Results{Items: make([]track.Track, 0)},
	}
}

// Search runs a new search and replaces the results when it is still the
// latest request. The response is returned either way; committed reports
// whether it became the session's results.
func (s *Session) Search(ctx context.Context, req Request) (Response, bool, error) {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.results.Loading = true
	s.mu.Unlock()

	resp, err := s.searcher.Search(ctx, req)

	s.mu.Lock()
	committed := gen == s.generation
	if committed {
		s.results.Loading = false
		if err != nil {
			s.results.Error = err.Error()
		} else {
			s.request = req
			s.request.PageToken = ""
			s.request.Source = resp.Source
			s.results = Results{
				Query:         strings.TrimSpace(req.Query),
				Duration:      req.Duration,
				Items:         append(make([]track.Track, 0, len(resp.Items)), resp.Items...),
				NextPageToken: resp.NextPageToken,
				TotalResults:  resp.TotalResults,
				Source:        resp.Source,
				Notice:        resp.Notice,
			}
		}
	} else {
		zlog.Debug().Msgf("search: discarding stale response generation=%d latest=%d", gen, s.generation)
	}
	s.mu.Unlock()

	if err != nil {
		return Response{}, committed, err
	}

	if s.history != nil {
		if herr := s.history.Add(req.Query); herr != nil {
			zlog.Warn().Msgf("search: failed to record query error=%v", herr)
		}
	}
	return resp, committed, nil
}

// LoadMore fetches the next page of the committed search and appends it.
func (s *Session) LoadMore(ctx context.Context) (Results, error) {
	s.mu.Lock()
	if s.results.NextPageToken == "" {
		results := s.snapshotLocked()
		s.mu.Unlock()
		return results, ErrNoMoreResults
	}
	s.generation++
	gen := s.generation
	req := s.request
	req.PageToken = s.results.NextPageToken
	s.results.Loading = true
	s.mu.Unlock()

	resp, err := s.searcher.Search(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		zlog.Debug().Msgf("search: discarding stale page generation=%d latest=%d", gen, s.generation)
		return s.snapshotLocked(), nil
	}
	s.results.Loading = false
	if err != nil {
		s.results.Error = err.Error()
		return s.snapshotLocked(), err
	}
	s.results.Items = append(s.results.Items, resp.Items...)
	s.results.NextPageToken = resp.NextPageToken
	s.results.Error = ""
	return s.snapshotLocked(), nil
}

// Clear drops the results. In-flight requests become no-ops.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.request = Request{}
	s.results = Results{Items: make([]track.Track, 0)}
}

// Results returns a copy of the committed results.
func (s *Session) Results() Results {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Results {
	r := s.results
	r.Items = append(make([]track.Track, 0, len(s.results.Items)), s.results.Items...)
	return r
}
