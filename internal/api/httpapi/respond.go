package httpapi

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/tunedeck/internal/app/library"
	"github.com/osa030/tunedeck/internal/app/playback"
	"github.com/osa030/tunedeck/internal/app/search"
	"github.com/osa030/tunedeck/internal/app/session"
	"github.com/osa030/tunedeck/internal/app/transport"
	"github.com/osa030/tunedeck/internal/domain/playlist"
	"github.com/osa030/tunedeck/internal/domain/track"
	"github.com/osa030/tunedeck/internal/infra/storage"
)

// maxBodyBytes bounds request bodies; library imports are the largest.
const maxBodyBytes = 8 << 20

var errBadRequest = errors.New("bad request")

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zlog.Warn().Msgf("http: failed to encode response error=%v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeErr maps err to a status code and writes it.
func writeErr(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		zlog.Error().Msgf("http: request failed status=%d error=%v", status, err)
	}
	writeError(w, status, err.Error())
}

func statusFor(err error) int {
	var validationErrs validator.ValidationErrors
	switch {
	case errors.As(err, &validationErrs),
		errors.Is(err, errBadRequest),
		errors.Is(err, search.ErrEmptyQuery),
		errors.Is(err, search.ErrInvalidDuration),
		errors.Is(err, playback.ErrIndexOutOfRange),
		errors.Is(err, playback.ErrInvalidSeek),
		errors.Is(err, library.ErrInvalidTheme),
		errors.Is(err, playlist.ErrEmptyName),
		errors.Is(err, track.ErrEmptyID),
		errors.Is(err, track.ErrNegativeDuration):
		return http.StatusBadRequest
	case errors.Is(err, search.ErrTrackNotFound),
		errors.Is(err, library.ErrPlaylistNotFound),
		errors.Is(err, search.ErrNoMoreResults):
		return http.StatusNotFound
	case transport.IsPlaybackError(err):
		return http.StatusConflict
	case errors.Is(err, playback.ErrClosed),
		errors.Is(err, session.ErrSessionClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// decode reads a JSON body into v and validates it.
func (s *Server) decode(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return errors.Mark(errors.Wrap(err, "failed to read body"), errBadRequest)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return errors.Mark(errors.Wrap(err, "invalid JSON body"), errBadRequest)
	}
	if err := s.validate.Struct(v); err != nil {
		return err
	}
	return nil
}

// persisted drops storage unavailability: the change is kept in memory and
// the request still succeeds.
func persisted(err error) error {
	if err != nil && errors.Is(err, storage.ErrUnavailable) {
		zlog.Warn().Msgf("http: library change kept in memory only error=%v", err)
		return nil
	}
	return err
}
