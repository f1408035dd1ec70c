package httpapi

import (
	"net/http"
	"strconv"

	"github.com/cockroachdb/errors"

	"github.com/osa030/tunedeck/internal/app/playback"
	"github.com/osa030/tunedeck/internal/domain/track"
)

type seekRequest struct {
	Position *float64 `json:"position" validate:"required,gte=0"`
}

type volumeRequest struct {
	Volume *float64 `json:"volume" validate:"required"`
}

type setQueueRequest struct {
	Tracks []track.Track `json:"tracks"`
	Start  int           `json:"start" validate:"gte=0"`
	Play   *bool         `json:"play"`
}

type addToQueueRequest struct {
	Tracks []track.Track `json:"tracks" validate:"required,min=1"`
}

type enqueueSourcesRequest struct {
	SourceIDs []string `json:"sourceIds" validate:"required,min=1,dive,required"`
	Play      bool     `json:"play"`
}

type setCurrentRequest struct {
	Track track.Track `json:"track"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.session.Player().Status())
}

// playerAction runs fn and answers with the resulting status.
func (s *Server) playerAction(w http.ResponseWriter, fn func(*playback.Controller) error) {
	if err := fn(s.session.Player()); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.session.Player().Status())
}

func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	s.playerAction(w, (*playback.Controller).Play)
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	s.playerAction(w, (*playback.Controller).Pause)
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	s.playerAction(w, (*playback.Controller).TogglePlay)
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	s.playerAction(w, (*playback.Controller).Stop)
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	s.playerAction(w, (*playback.Controller).SkipNext)
}

func (s *Server) handlePrevious(w http.ResponseWriter, r *http.Request) {
	s.playerAction(w, (*playback.Controller).SkipPrevious)
}

func (s *Server) handleSeek(w http.ResponseWriter, r *http.Request) {
	var req seekRequest
	if err := s.decode(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	s.playerAction(w, func(c *playback.Controller) error {
		return c.Seek(*req.Position)
	})
}

func (s *Server) handleVolume(w http.ResponseWriter, r *http.Request) {
	var req volumeRequest
	if err := s.decode(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	s.playerAction(w, func(c *playback.Controller) error {
		c.SetVolume(*req.Volume)
		return nil
	})
}

func (s *Server) handleMute(w http.ResponseWriter, r *http.Request) {
	s.playerAction(w, func(c *playback.Controller) error {
		c.ToggleMute()
		return nil
	})
}

func (s *Server) handleShuffle(w http.ResponseWriter, r *http.Request) {
	s.playerAction(w, func(c *playback.Controller) error {
		c.ToggleShuffle()
		return nil
	})
}

func (s *Server) handleRepeat(w http.ResponseWriter, r *http.Request) {
	s.playerAction(w, func(c *playback.Controller) error {
		c.CycleRepeat()
		return nil
	})
}

// handleSetQueue replaces the queue. It plays from start unless play is
// explicitly false.
func (s *Server) handleSetQueue(w http.ResponseWriter, r *http.Request) {
	var req setQueueRequest
	if err := s.decode(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	for _, t := range req.Tracks {
		if err := t.Validate(); err != nil {
			writeErr(w, err)
			return
		}
	}
	s.playerAction(w, func(c *playback.Controller) error {
		if req.Play != nil && !*req.Play {
			if req.Start != 0 {
				return errors.Wrap(errBadRequest, "start requires play")
			}
			return c.SetQueue(req.Tracks)
		}
		return c.PlayQueue(req.Tracks, req.Start)
	})
}

func (s *Server) handleAddToQueue(w http.ResponseWriter, r *http.Request) {
	var req addToQueueRequest
	if err := s.decode(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	s.playerAction(w, func(c *playback.Controller) error {
		return c.AddToQueue(req.Tracks...)
	})
}

func (s *Server) handleEnqueueSources(w http.ResponseWriter, r *http.Request) {
	var req enqueueSourcesRequest
	if err := s.decode(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	s.playerAction(w, func(*playback.Controller) error {
		_, err := s.session.Enqueue(r.Context(), req.SourceIDs, req.Play)
		return err
	})
}

func (s *Server) handleClearQueue(w http.ResponseWriter, r *http.Request) {
	s.playerAction(w, (*playback.Controller).ClearQueue)
}

func (s *Server) handleRemoveFromQueue(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeErr(w, errors.Wrapf(playback.ErrIndexOutOfRange, "index %q", r.PathValue("index")))
		return
	}
	s.playerAction(w, func(c *playback.Controller) error {
		return c.RemoveFromQueue(index)
	})
}

func (s *Server) handleSetCurrent(w http.ResponseWriter, r *http.Request) {
	var req setCurrentRequest
	if err := s.decode(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	s.playerAction(w, func(c *playback.Controller) error {
		return c.SetCurrentTrack(req.Track)
	})
}
