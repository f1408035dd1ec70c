package track

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrack_Validate(t *testing.T) {
	tests := []struct {
		name    string
		track   Track
		wantErr error
	}{
		{
			name: "valid track",
			track: Track{
				ID:       "demo-1",
				Title:    "Bohemian Rhapsody",
				Artist:   "Queen",
				Duration: 355 * time.Second,
				SourceID: "fJ9rUzIMcZQ",
			},
		},
		{
			name:    "empty ID",
			track:   Track{Title: "Untitled"},
			wantErr: ErrEmptyID,
		},
		{
			name:    "negative duration",
			track:   Track{ID: "x", Duration: -time.Second},
			wantErr: ErrNegativeDuration,
		},
		{
			name:  "zero duration is allowed",
			track: Track{ID: "x"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.track.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestTrack_SameAs(t *testing.T) {
	a := Track{ID: "a", Title: "One"}
	b := Track{ID: "a", Title: "One (Live)"}
	c := Track{ID: "c", Title: "One"}

	assert.True(t, a.SameAs(b))
	assert.False(t, a.SameAs(c))
}

func TestIndexOfAndContains(t *testing.T) {
	tracks := []Track{{ID: "a"}, {ID: "b"}, {ID: "a"}}

	assert.Equal(t, 0, IndexOf(tracks, "a"))
	assert.Equal(t, 1, IndexOf(tracks, "b"))
	assert.Equal(t, -1, IndexOf(tracks, "z"))
	assert.True(t, ContainsID(tracks, "b"))
	assert.False(t, ContainsID(nil, "b"))
	assert.Equal(t, []Track{{ID: "b"}}, RemoveID(tracks, "a"))
}

func TestTrack_JSON(t *testing.T) {
	added := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	original := Track{
		ID:           "youtube-abc",
		Title:        "Song",
		Artist:       "Band",
		Duration:     253 * time.Second,
		ThumbnailURL: "https://img/abc.jpg",
		SourceID:     "abc",
		AddedAt:      added,
	}

	data, err := json.Marshal(original)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, float64(253), raw["duration"])
	assert.Equal(t, "abc", raw["sourceId"])
	assert.Equal(t, "https://img/abc.jpg", raw["thumbnail"])

	var decoded Track
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, original, decoded)
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0:00"},
		{9 * time.Second, "0:09"},
		{253 * time.Second, "4:13"},
		{3723 * time.Second, "1:02:03"},
		{-5 * time.Second, "0:00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatDuration(tt.in), "FormatDuration(%v)", tt.in)
	}
}
