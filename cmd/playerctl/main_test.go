package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/tunedeck/internal/api/httpapi"
	"github.com/osa030/tunedeck/internal/app/playback"
	"github.com/osa030/tunedeck/internal/app/session"
	"github.com/osa030/tunedeck/internal/infra/config"
	"github.com/osa030/tunedeck/internal/infra/storage"
)

func newTestClient(t *testing.T) (*client, *session.Manager) {
	t.Helper()
	cfg, err := config.Parse([]byte("storage:\n  driver: memory\n"))
	require.NoError(t, err)
	m, err := session.NewManager(context.Background(), cfg, session.WithStore(storage.NewMemory()))
	require.NoError(t, err)
	require.NoError(t, m.Start())

	srv := httptest.NewServer(httpapi.New(m, "").Handler())
	t.Cleanup(srv.Close)
	t.Cleanup(m.Close)
	return newClient(srv.URL+"/", srv.Client()), m
}

func runCommand(t *testing.T, c *client, args ...string) (string, error) {
	t.Helper()
	command, err := app.Parse(args)
	require.NoError(t, err)
	var out bytes.Buffer
	err = run(context.Background(), c, command, &out)
	return out.String(), err
}

func TestRun(t *testing.T) {
	c, m := newTestClient(t)

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"status idle", []string{"status"}, []string{"Idle", "Queue: empty"}},
		{"search", []string{"search", "Queen"}, []string{"1 results from demo", "fJ9rUzIMcZQ", "Bohemian Rhapsody"}},
		{"queue", []string{"queue", "fJ9rUzIMcZQ", "YkgkThdzX-8"}, []string{"Queue (2 tracks", "Queen - Bohemian Rhapsody"}},
		{"play", []string{"play"}, []string{"Playing"}},
		{"next", []string{"next"}, []string{"Track: John Lennon - Imagine"}},
		{"volume", []string{"volume", "0.25"}, []string{"Volume: 25%"}},
		{"mute", []string{"mute"}, []string{"(muted)"}},
		{"repeat", []string{"repeat"}, []string{"Repeat: playlist"}},
		{"pause", []string{"pause"}, []string{"Paused"}},
		{"clear", []string{"clear"}, []string{"Queue: empty"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runCommand(t, c, tt.args...)
			require.NoError(t, err)
			for _, want := range tt.want {
				assert.Contains(t, out, want)
			}
		})
	}

	assert.Equal(t, playback.StateIdle, m.Player().Status().State)
}

func TestRun_ServerError(t *testing.T) {
	c, _ := newTestClient(t)

	_, err := runCommand(t, c, "queue", "unknown-id")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")

	_, err = runCommand(t, c, "seek", "10")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

func TestClient_Events(t *testing.T) {
	c, m := newTestClient(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var seqs []string
	done := make(chan error, 1)
	go func() {
		done <- c.events(ctx, func(seq string, st playback.Status) {
			seqs = append(seqs, seq)
			if len(seqs) == 2 {
				cancel()
			}
		})
	}()

	require.Eventually(t, func() bool { return m.Notifications().SubscriberCount() == 1 }, 2*time.Second, 10*time.Millisecond)
	m.Player().SetVolume(0.5)

	require.NoError(t, <-done)
	require.Len(t, seqs, 2)
	assert.Empty(t, seqs[0], "initial state has no sequence")
	assert.NotEmpty(t, seqs[1])
}
