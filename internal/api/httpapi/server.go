// Package httpapi exposes the player, search and library as JSON over HTTP.
package httpapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/tunedeck/internal/app/session"
)

// Server holds the HTTP handlers.
type Server struct {
	session    *session.Manager
	corsOrigin string
	validate   *validator.Validate
}

// New creates a new Server. An empty corsOrigin allows any origin.
func New(sess *session.Manager, corsOrigin string) *Server {
	if corsOrigin == "" {
		corsOrigin = "*"
	}
	return &Server{
		session:    sess,
		corsOrigin: corsOrigin,
		validate:   validator.New(),
	}
}

// Handler returns the routed handler with CORS applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Search
	mux.HandleFunc("GET /api/youtube/search", s.handleSearch)
	mux.HandleFunc("GET /api/youtube/track", s.handleTrack)
	mux.HandleFunc("GET /api/youtube/categories", s.handleCategories)
	mux.HandleFunc("GET /api/search/results", s.handleSearchResults)
	mux.HandleFunc("POST /api/search/more", s.handleSearchMore)
	mux.HandleFunc("DELETE /api/search/results", s.handleSearchClear)

	// Stateless playlist endpoints kept for clients that manage playlists themselves
	mux.HandleFunc("GET /api/playlists", s.handleStubListPlaylists)
	mux.HandleFunc("POST /api/playlists", s.handleStubCreatePlaylist)
	mux.HandleFunc("PUT /api/playlists", s.handleStubUpdatePlaylist)
	mux.HandleFunc("DELETE /api/playlists", s.handleStubDeletePlaylist)

	// Library
	mux.HandleFunc("GET /api/library/playlists", s.handleListPlaylists)
	mux.HandleFunc("POST /api/library/playlists", s.handleCreatePlaylist)
	mux.HandleFunc("GET /api/library/playlists/{id}", s.handleGetPlaylist)
	mux.HandleFunc("PUT /api/library/playlists/{id}", s.handleUpdatePlaylist)
	mux.HandleFunc("DELETE /api/library/playlists/{id}", s.handleDeletePlaylist)
	mux.HandleFunc("POST /api/library/playlists/{id}/tracks", s.handleAddPlaylistTrack)
	mux.HandleFunc("DELETE /api/library/playlists/{id}/tracks/{trackID}", s.handleRemovePlaylistTrack)
	mux.HandleFunc("POST /api/library/playlists/{id}/play", s.handlePlayPlaylist)
	mux.HandleFunc("GET /api/library/favorites", s.handleListFavorites)
	mux.HandleFunc("POST /api/library/favorites", s.handleAddFavorite)
	mux.HandleFunc("DELETE /api/library/favorites/{id}", s.handleRemoveFavorite)
	mux.HandleFunc("GET /api/library/recent", s.handleListRecent)
	mux.HandleFunc("DELETE /api/library/recent", s.handleClearRecent)
	mux.HandleFunc("GET /api/library/search-history", s.handleListHistory)
	mux.HandleFunc("DELETE /api/library/search-history", s.handleClearHistory)
	mux.HandleFunc("GET /api/library/settings", s.handleGetSettings)
	mux.HandleFunc("PUT /api/library/settings", s.handlePutSettings)
	mux.HandleFunc("GET /api/library/theme", s.handleGetTheme)
	mux.HandleFunc("PUT /api/library/theme", s.handlePutTheme)
	mux.HandleFunc("GET /api/library/export", s.handleExport)
	mux.HandleFunc("POST /api/library/import", s.handleImport)

	// Player
	mux.HandleFunc("GET /api/player", s.handleStatus)
	mux.HandleFunc("GET /api/player/events", s.handleEvents)
	mux.HandleFunc("POST /api/player/play", s.handlePlay)
	mux.HandleFunc("POST /api/player/pause", s.handlePause)
	mux.HandleFunc("POST /api/player/toggle", s.handleToggle)
	mux.HandleFunc("POST /api/player/stop", s.handleStop)
	mux.HandleFunc("POST /api/player/next", s.handleNext)
	mux.HandleFunc("POST /api/player/previous", s.handlePrevious)
	mux.HandleFunc("POST /api/player/seek", s.handleSeek)
	mux.HandleFunc("POST /api/player/volume", s.handleVolume)
	mux.HandleFunc("POST /api/player/mute", s.handleMute)
	mux.HandleFunc("POST /api/player/shuffle", s.handleShuffle)
	mux.HandleFunc("POST /api/player/repeat", s.handleRepeat)
	mux.HandleFunc("PUT /api/player/queue", s.handleSetQueue)
	mux.HandleFunc("POST /api/player/queue", s.handleAddToQueue)
	mux.HandleFunc("POST /api/player/queue/sources", s.handleEnqueueSources)
	mux.HandleFunc("DELETE /api/player/queue", s.handleClearQueue)
	mux.HandleFunc("DELETE /api/player/queue/{index}", s.handleRemoveFromQueue)
	mux.HandleFunc("POST /api/player/current", s.handleSetCurrent)

	mux.HandleFunc("GET /healthz", s.handleHealthz)

	return s.cors(mux)
}

// cors sets CORS headers on every response and answers preflight requests.
func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", s.corsOrigin)
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		zlog.Debug().Msgf("http: request method=%s path=%s", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
