// Package notification broadcasts player snapshots to subscribers.
package notification

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/tunedeck/internal/app/playback"
)

// ErrStreamFull is returned by a stream that cannot take more notifications.
var ErrStreamFull = errors.New("notification stream is full")

const sendTimeout = 500 * time.Millisecond

// Notification is one status broadcast.
type Notification struct {
	SequenceNo uint64          `json:"sequenceNo"`
	Status     playback.Status `json:"status"`
}

// Stream represents a notification stream for a subscriber.
type Stream interface {
	Send(Notification) error
}

// subscription represents a subscriber's subscription.
type subscription struct {
	id     string
	stream Stream
}

// Manager manages notification subscriptions and broadcasting.
type Manager struct {
	mu            sync.RWMutex
	subscriptions map[string]*subscription

	sequenceMu sync.Mutex
	sequenceNo uint64
	last       *Notification
}

// NewManager creates a new notification manager.
func NewManager() *Manager {
	return &Manager{
		subscriptions: make(map[string]*subscription),
	}
}

// Subscribe adds a new subscription and returns the subscription ID.
func (m *Manager) Subscribe(stream Stream) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.New().String()
	m.subscriptions[id] = &subscription{id: id, stream: stream}
	zlog.Debug().Msgf("notification: subscribed subscription=%s", id)
	return id
}

// Unsubscribe removes a subscription.
func (m *Manager) Unsubscribe(subscriptionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.subscriptions, subscriptionID)
}

// Publish broadcasts a player status. It implements playback.Publisher.
func (m *Manager) Publish(status playback.Status) {
	m.Broadcast(status)
}

// Broadcast sends a status to all subscribers and returns the notification sent.
// Each stream send runs with a timeout so a slow subscriber cannot stall the rest.
func (m *Manager) Broadcast(status playback.Status) Notification {
	m.sequenceMu.Lock()
	m.sequenceNo++
	n := Notification{SequenceNo: m.sequenceNo, Status: status}
	m.last = &n
	m.sequenceMu.Unlock()

	m.mu.RLock()
	// Copy subscriptions to avoid holding lock during sends
	subs := make([]*subscription, 0, len(m.subscriptions))
	for _, sub := range m.subscriptions {
		subs = append(subs, sub)
	}
	m.mu.RUnlock()

	var wg sync.WaitGroup
	for _, sub := range subs {
		wg.Add(1)
		go func(s *subscription) {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
			defer cancel()

			done := make(chan error, 1)
			go func() {
				done <- s.stream.Send(n)
			}()

			select {
			case err := <-done:
				if err != nil {
					zlog.Debug().Msgf("notification: send failed subscription=%s error=%v", s.id, err)
				}
			case <-ctx.Done():
				zlog.Warn().Msgf("notification: send timed out subscription=%s", s.id)
			}
		}(sub)
	}

	wg.Wait()
	return n
}

// Last returns the most recent notification.
func (m *Manager) Last() (Notification, bool) {
	m.sequenceMu.Lock()
	defer m.sequenceMu.Unlock()
	if m.last == nil {
		return Notification{}, false
	}
	return *m.last, true
}

// SubscriberCount returns the number of active subscribers.
func (m *Manager) SubscriberCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subscriptions)
}

// Close closes the manager and removes all subscriptions.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscriptions = make(map[string]*subscription)
}

// ChannelStream is a Stream backed by a buffered channel. Send never blocks;
// when the buffer is full the notification is dropped.
type ChannelStream struct {
	ch chan Notification
}

// NewChannelStream creates a ChannelStream with the given buffer size.
func NewChannelStream(size int) *ChannelStream {
	if size <= 0 {
		size = 16
	}
	return &ChannelStream{ch: make(chan Notification, size)}
}

// Send implements Stream.
func (s *ChannelStream) Send(n Notification) error {
	select {
	case s.ch <- n:
		return nil
	default:
		return ErrStreamFull
	}
}

// C returns the receive side of the stream.
func (s *ChannelStream) C() <-chan Notification {
	return s.ch
}
