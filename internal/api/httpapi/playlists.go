package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/osa030/tunedeck/internal/domain/playlist"
	"github.com/osa030/tunedeck/internal/domain/track"
)

// The /api/playlists endpoints do not touch the library. They echo the
// request back so clients that keep playlists locally get a consistent
// shape. The persisted library lives under /api/library/playlists.

type stubPlaylistRequest struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Tracks      []track.Track `json:"tracks"`
}

type stubPlaylist struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Tracks      []track.Track `json:"tracks"`
	CoverImage  string        `json:"coverImage,omitempty"`
	CreatedAt   *time.Time    `json:"createdAt,omitempty"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

type stubPlaylistResponse struct {
	Playlist stubPlaylist `json:"playlist"`
	Message  string       `json:"message"`
}

type stubPlaylistsResponse struct {
	Playlists []stubPlaylist `json:"playlists"`
	Message   string         `json:"message"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func (s *Server) handleStubListPlaylists(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, stubPlaylistsResponse{
		Playlists: make([]stubPlaylist, 0),
		Message:   "Playlists are managed client-side for demo",
	})
}

func (s *Server) handleStubCreatePlaylist(w http.ResponseWriter, r *http.Request) {
	var req stubPlaylistRequest
	if err := s.decode(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Playlist name is required")
		return
	}

	now := time.Now().UTC()
	writeJSON(w, http.StatusCreated, stubPlaylistResponse{
		Playlist: stubPlaylist{
			ID:          "playlist-" + strconv.FormatInt(now.UnixMilli(), 10),
			Name:        req.Name,
			Description: req.Description,
			Tracks:      make([]track.Track, 0),
			CoverImage:  playlist.CoverImageURL(req.Name),
			CreatedAt:   &now,
			UpdatedAt:   now,
		},
		Message: "Playlist created successfully",
	})
}

func (s *Server) handleStubUpdatePlaylist(w http.ResponseWriter, r *http.Request) {
	var req stubPlaylistRequest
	if err := s.decode(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	if req.ID == "" {
		writeError(w, http.StatusBadRequest, "Playlist ID is required")
		return
	}
	if req.Tracks == nil {
		req.Tracks = make([]track.Track, 0)
	}

	writeJSON(w, http.StatusOK, stubPlaylistResponse{
		Playlist: stubPlaylist{
			ID:          req.ID,
			Name:        req.Name,
			Description: req.Description,
			Tracks:      req.Tracks,
			UpdatedAt:   time.Now().UTC(),
		},
		Message: "Playlist updated successfully",
	})
}

func (s *Server) handleStubDeletePlaylist(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("id") == "" {
		writeError(w, http.StatusBadRequest, "Playlist ID is required")
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Playlist deleted successfully"})
}
