package httpapi

import (
	"net/http"
	"strconv"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/tunedeck/internal/app/search"
	"github.com/osa030/tunedeck/internal/domain/track"
)

type trackResponse struct {
	Track track.Track `json:"track"`
}

type categoriesResponse struct {
	Categories []search.Category `json:"categories"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := q.Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "Query parameter is required")
		return
	}

	req := search.Request{
		Query:     query,
		Duration:  q.Get("duration"),
		PageToken: q.Get("pageToken"),
		Source:    q.Get("source"),
	}
	if v := q.Get("maxResults"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "maxResults must be a number")
			return
		}
		req.MaxResults = n
	}

	resp, committed, err := s.session.Search().Search(r.Context(), req)
	if err != nil {
		writeErr(w, err)
		return
	}
	if !committed {
		zlog.Debug().Msgf("http: search superseded query=%q", query)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTrack(w http.ResponseWriter, r *http.Request) {
	videoID := r.URL.Query().Get("videoId")
	if videoID == "" {
		writeError(w, http.StatusBadRequest, "VideoId parameter is required")
		return
	}

	t, err := s.session.Lookup(r.Context(), videoID)
	switch {
	case errors.Is(err, search.ErrTrackNotFound):
		writeError(w, http.StatusNotFound, "Track not found")
		return
	case err != nil:
		zlog.Error().Msgf("http: track lookup failed video_id=%s error=%v", videoID, err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, trackResponse{Track: t})
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, categoriesResponse{Categories: search.Categories()})
}

func (s *Server) handleSearchResults(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.session.Search().Results())
}

func (s *Server) handleSearchMore(w http.ResponseWriter, r *http.Request) {
	results, err := s.session.Search().LoadMore(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleSearchClear(w http.ResponseWriter, r *http.Request) {
	s.session.Search().Clear()
	writeJSON(w, http.StatusOK, s.session.Search().Results())
}
