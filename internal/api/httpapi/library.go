package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/cockroachdb/errors"

	"github.com/osa030/tunedeck/internal/app/library"
	"github.com/osa030/tunedeck/internal/app/queue"
	"github.com/osa030/tunedeck/internal/domain/playlist"
	"github.com/osa030/tunedeck/internal/domain/track"
)

type playlistResponse struct {
	Playlist playlist.Playlist `json:"playlist"`
}

type playlistsResponse struct {
	Playlists []playlist.Playlist `json:"playlists"`
}

type tracksResponse struct {
	Tracks []track.Track `json:"tracks"`
}

type historyResponse struct {
	Queries []string `json:"queries"`
}

type themeRequest struct {
	Theme library.Theme `json:"theme" validate:"required"`
}

type createPlaylistRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

type updatePlaylistRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// trackInput names a track either inline or by source id.
type trackInput struct {
	Track    *track.Track `json:"track"`
	SourceID string       `json:"sourceId" validate:"required_without=Track"`
}

type settingsRequest struct {
	Volume      *float64          `json:"volume" validate:"omitempty,gte=0,lte=1"`
	Muted       *bool             `json:"isMuted"`
	Shuffle     *bool             `json:"shuffle"`
	Repeat      *queue.RepeatMode `json:"repeat"`
	Crossfade   *bool             `json:"crossfade"`
	HighQuality *bool             `json:"highQuality"`
}

func (in trackInput) resolve(ctx context.Context, s *Server) (track.Track, error) {
	if in.Track != nil {
		return *in.Track, in.Track.Validate()
	}
	return s.session.Lookup(ctx, in.SourceID)
}

func (s *Server) handleListPlaylists(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, playlistsResponse{Playlists: s.session.Library().Playlists.List()})
}

func (s *Server) handleCreatePlaylist(w http.ResponseWriter, r *http.Request) {
	var req createPlaylistRequest
	if err := s.decode(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	pl, err := s.session.Library().Playlists.Create(req.Name, req.Description)
	if err := persisted(err); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, playlistResponse{Playlist: pl})
}

func (s *Server) handleGetPlaylist(w http.ResponseWriter, r *http.Request) {
	pl, ok := s.session.Library().Playlists.Get(r.PathValue("id"))
	if !ok {
		writeErr(w, errors.Wrapf(library.ErrPlaylistNotFound, "id %s", r.PathValue("id")))
		return
	}
	writeJSON(w, http.StatusOK, playlistResponse{Playlist: pl})
}

func (s *Server) handleUpdatePlaylist(w http.ResponseWriter, r *http.Request) {
	var req updatePlaylistRequest
	if err := s.decode(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	pl, err := s.session.Library().Playlists.Update(r.PathValue("id"), func(p *playlist.Playlist) {
		if req.Name != nil {
			p.Name = *req.Name
		}
		if req.Description != nil {
			p.Description = *req.Description
		}
	})
	if err := persisted(err); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, playlistResponse{Playlist: pl})
}

func (s *Server) handleDeletePlaylist(w http.ResponseWriter, r *http.Request) {
	if err := persisted(s.session.Library().Playlists.Delete(r.PathValue("id"))); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Playlist deleted successfully"})
}

func (s *Server) handleAddPlaylistTrack(w http.ResponseWriter, r *http.Request) {
	var in trackInput
	if err := s.decode(r, &in); err != nil {
		writeErr(w, err)
		return
	}
	t, err := in.resolve(r.Context(), s)
	if err != nil {
		writeErr(w, err)
		return
	}

	id := r.PathValue("id")
	playlists := s.session.Library().Playlists
	if _, err := playlists.AddTrack(id, t); persisted(err) != nil {
		writeErr(w, err)
		return
	}
	pl, _ := playlists.Get(id)
	writeJSON(w, http.StatusOK, playlistResponse{Playlist: pl})
}

func (s *Server) handleRemovePlaylistTrack(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	playlists := s.session.Library().Playlists
	if _, err := playlists.RemoveTrack(id, r.PathValue("trackID")); persisted(err) != nil {
		writeErr(w, err)
		return
	}
	pl, _ := playlists.Get(id)
	writeJSON(w, http.StatusOK, playlistResponse{Playlist: pl})
}

// handlePlayPlaylist replaces the queue with the playlist and plays from
// ?start= (default 0).
func (s *Server) handlePlayPlaylist(w http.ResponseWriter, r *http.Request) {
	pl, ok := s.session.Library().Playlists.Get(r.PathValue("id"))
	if !ok {
		writeErr(w, errors.Wrapf(library.ErrPlaylistNotFound, "id %s", r.PathValue("id")))
		return
	}
	start := 0
	if v := r.URL.Query().Get("start"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid start %q", v))
			return
		}
		start = n
	}
	if err := s.session.Player().PlayQueue(pl.Tracks, start); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.session.Player().Status())
}

func (s *Server) handleListFavorites(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, tracksResponse{Tracks: nonNil(s.session.Library().Favorites.List())})
}

func (s *Server) handleAddFavorite(w http.ResponseWriter, r *http.Request) {
	var in trackInput
	if err := s.decode(r, &in); err != nil {
		writeErr(w, err)
		return
	}
	t, err := in.resolve(r.Context(), s)
	if err != nil {
		writeErr(w, err)
		return
	}
	favorites := s.session.Library().Favorites
	if _, err := favorites.Add(t); persisted(err) != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tracksResponse{Tracks: nonNil(favorites.List())})
}

func (s *Server) handleRemoveFavorite(w http.ResponseWriter, r *http.Request) {
	favorites := s.session.Library().Favorites
	if _, err := favorites.Remove(r.PathValue("id")); persisted(err) != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tracksResponse{Tracks: nonNil(favorites.List())})
}

func (s *Server) handleListRecent(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, tracksResponse{Tracks: nonNil(s.session.Library().Recent.List())})
}

func (s *Server) handleClearRecent(w http.ResponseWriter, r *http.Request) {
	if err := persisted(s.session.Library().Recent.Clear()); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tracksResponse{Tracks: make([]track.Track, 0)})
}

func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	queries := s.session.Library().History.List()
	if queries == nil {
		queries = make([]string, 0)
	}
	writeJSON(w, http.StatusOK, historyResponse{Queries: queries})
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	if err := persisted(s.session.Library().History.Clear()); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, historyResponse{Queries: make([]string, 0)})
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.session.Library().Settings.Get())
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := s.decode(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	settings, err := s.session.UpdateSettings(func(st *library.Settings) {
		if req.Volume != nil {
			st.Volume = *req.Volume
		}
		if req.Muted != nil {
			st.Muted = *req.Muted
		}
		if req.Shuffle != nil {
			st.Shuffle = *req.Shuffle
		}
		if req.Repeat != nil {
			st.Repeat = *req.Repeat
		}
		if req.Crossfade != nil {
			st.Crossfade = *req.Crossfade
		}
		if req.HighQuality != nil {
			st.HighQuality = *req.HighQuality
		}
	})
	if err := persisted(err); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleGetTheme(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, themeRequest{Theme: s.session.Library().Theme.Get()})
}

func (s *Server) handlePutTheme(w http.ResponseWriter, r *http.Request) {
	var req themeRequest
	if err := s.decode(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	if err := persisted(s.session.Library().Theme.Set(req.Theme)); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, themeRequest{Theme: s.session.Library().Theme.Get()})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	backup := s.session.Library().Export()
	name := fmt.Sprintf("tunedeck-backup-%s.json", backup.ExportDate.Format("2006-01-02"))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	writeJSON(w, http.StatusOK, backup)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var backup library.Backup
	if err := s.decode(r, &backup); err != nil {
		writeErr(w, err)
		return
	}
	if backup.Theme != "" && !backup.Theme.Valid() {
		writeErr(w, errors.Wrapf(library.ErrInvalidTheme, "got %q", backup.Theme))
		return
	}
	if err := persisted(s.session.Import(backup)); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Library imported successfully"})
}

func nonNil(tracks []track.Track) []track.Track {
	if tracks == nil {
		return make([]track.Track, 0)
	}
	return tracks
}
