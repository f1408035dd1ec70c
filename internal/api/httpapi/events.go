package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/tunedeck/internal/app/notification"
	"github.com/osa030/tunedeck/internal/app/playback"
)

const (
	eventStatus       = "status"
	streamBufferSize  = 16
	keepAliveInterval = 15 * time.Second
)

// handleEvents streams player snapshots as server-sent events. The current
// status is sent first, then one event per published snapshot.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming is not supported")
		return
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	// Send initial state before subscribing
	if err := writeEvent(w, 0, s.session.Player().Status()); err != nil {
		zlog.Warn().Msgf("http: failed to send initial status error=%v", err)
		return
	}
	flusher.Flush()

	stream := notification.NewChannelStream(streamBufferSize)
	notifications := s.session.Notifications()
	subscriptionID := notifications.Subscribe(stream)
	defer notifications.Unsubscribe(subscriptionID)
	zlog.Debug().Msgf("http: events subscribed subscription_id=%s", subscriptionID)

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			zlog.Debug().Msgf("http: events client gone subscription_id=%s", subscriptionID)
			return
		case <-s.session.Done():
			return
		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case n := <-stream.C():
			if err := writeEvent(w, n.SequenceNo, n.Status); err != nil {
				zlog.Warn().Msgf("http: failed to send status subscription_id=%s error=%v", subscriptionID, err)
				return
			}
			flusher.Flush()
		}
	}
}

// writeEvent writes one status event. A zero seq omits the id line.
func writeEvent(w http.ResponseWriter, seq uint64, status playback.Status) error {
	data, err := json.Marshal(status)
	if err != nil {
		return errors.Wrap(err, "failed to encode status")
	}
	if seq > 0 {
		if _, err := fmt.Fprintf(w, "id: %d\n", seq); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventStatus, data)
	return err
}
