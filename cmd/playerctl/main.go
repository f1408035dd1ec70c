// Package main provides the player CLI for the tunedeck HTTP API.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"

	"github.com/osa030/tunedeck/internal/app/playback"
	"github.com/osa030/tunedeck/internal/app/search"
	"github.com/osa030/tunedeck/internal/domain/track"
)

var (
	app    = kingpin.New("tunedeck-playerctl", "tunedeck player remote control")
	server = app.Flag("server", "Server address").Default("http://localhost:8080").Envar("TUNEDECK_SERVER").String()

	statusCmd = app.Command("status", "Show the player status").Default()

	// search command
	searchCmd      = app.Command("search", "Search for tracks")
	searchQuery    = searchCmd.Arg("query", "Search query").Required().String()
	searchDuration = searchCmd.Flag("duration", "Duration filter (short, medium, long)").Enum(search.DurationShort, search.DurationMedium, search.DurationLong)
	searchMax      = searchCmd.Flag("max", "Maximum results").Default("10").Int()

	playCmd    = app.Command("play", "Start or resume playback")
	pauseCmd   = app.Command("pause", "Pause playback")
	nextCmd    = app.Command("next", "Skip to the next track")
	prevCmd    = app.Command("prev", "Go back to the previous track")
	muteCmd    = app.Command("mute", "Toggle mute")
	shuffleCmd = app.Command("shuffle", "Toggle shuffle")
	repeatCmd  = app.Command("repeat", "Cycle repeat mode (none, playlist, track)")

	seekCmd     = app.Command("seek", "Seek within the current track")
	seekSeconds = seekCmd.Arg("seconds", "Position in seconds").Required().Float64()

	volumeCmd   = app.Command("volume", "Set the volume")
	volumeLevel = volumeCmd.Arg("level", "Volume between 0 and 1").Required().Float64()

	// queue command
	queueCmd  = app.Command("queue", "Add tracks to the queue by video id")
	queueIDs  = queueCmd.Arg("video-id", "Video ids").Required().Strings()
	queuePlay = queueCmd.Flag("play", "Start playing the first added track").Bool()

	clearCmd  = app.Command("clear", "Clear the queue")
	eventsCmd = app.Command("events", "Stream player events")
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, newClient(*server, nil), command, os.Stdout); err != nil {
		fmt.Printf("Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, c *client, command string, out io.Writer) error {
	var (
		st  playback.Status
		err error
	)

	switch command {
	case statusCmd.FullCommand():
		st, err = c.status(ctx)
	case searchCmd.FullCommand():
		resp, err := c.search(ctx, *searchQuery, *searchDuration, *searchMax)
		if err != nil {
			return err
		}
		printSearch(out, resp)
		return nil
	case playCmd.FullCommand():
		st, err = c.action(ctx, "play", nil)
	case pauseCmd.FullCommand():
		st, err = c.action(ctx, "pause", nil)
	case nextCmd.FullCommand():
		st, err = c.action(ctx, "next", nil)
	case prevCmd.FullCommand():
		st, err = c.action(ctx, "previous", nil)
	case muteCmd.FullCommand():
		st, err = c.action(ctx, "mute", nil)
	case shuffleCmd.FullCommand():
		st, err = c.action(ctx, "shuffle", nil)
	case repeatCmd.FullCommand():
		st, err = c.action(ctx, "repeat", nil)
	case seekCmd.FullCommand():
		st, err = c.action(ctx, "seek", map[string]float64{"position": *seekSeconds})
	case volumeCmd.FullCommand():
		st, err = c.action(ctx, "volume", map[string]float64{"volume": *volumeLevel})
	case queueCmd.FullCommand():
		st, err = c.enqueue(ctx, *queueIDs, *queuePlay)
	case clearCmd.FullCommand():
		st, err = c.clearQueue(ctx)
	case eventsCmd.FullCommand():
		fmt.Fprintln(out, "Subscribed to player events. Press Ctrl+C to exit.")
		return c.events(ctx, func(seq string, st playback.Status) {
			if seq == "" {
				fmt.Fprintln(out, "\n=== INITIAL STATE ===")
			} else {
				fmt.Fprintf(out, "\n[Sequence: %s] === STATE CHANGED ===\n", seq)
			}
			printStatus(out, st)
		})
	default:
		return fmt.Errorf("unknown command %q", command)
	}
	if err != nil {
		return err
	}
	printStatus(out, st)
	return nil
}

func formatState(state playback.State) string {
	switch state {
	case playback.StatePlaying:
		return "▶️  Playing"
	case playback.StatePaused:
		return "⏸  Paused"
	case playback.StateIdle:
		return "⏹  Idle"
	case playback.StateError:
		return "⚠️  Error"
	default:
		return "❓ Unknown"
	}
}

func printStatus(out io.Writer, st playback.Status) {
	fmt.Fprintf(out, "State: %s\n", formatState(st.State))
	if st.Error != "" {
		fmt.Fprintf(out, "  Error: %s\n", st.Error)
	}
	if cur := st.Queue.Current; cur != nil {
		fmt.Fprintf(out, "Track: %s - %s\n", cur.Artist, cur.Title)
		fmt.Fprintf(out, "  Position: %s / %s (%.0f%%)\n",
			track.FormatDuration(st.Position), track.FormatDuration(st.Duration), st.ProgressPercent())
	}
	volume := fmt.Sprintf("%.0f%%", st.Volume*100)
	if st.Muted {
		volume += " (muted)"
	}
	fmt.Fprintf(out, "Volume: %s\n", volume)
	fmt.Fprintf(out, "Shuffle: %v  Repeat: %s\n", st.Queue.Shuffle, st.Queue.Repeat)

	if len(st.Queue.Tracks) == 0 {
		fmt.Fprintln(out, "Queue: empty")
		return
	}
	fmt.Fprintf(out, "Queue (%d tracks, %s):\n", st.Queue.Len(), track.FormatDuration(st.Queue.TotalDuration()))
	for i, t := range st.Queue.Tracks {
		marker := "  "
		if i == st.Queue.CurrentIndex {
			marker = "> "
		}
		fmt.Fprintf(out, "%s%2d. %s - %s [%s]\n", marker, i+1, t.Artist, t.Title, track.FormatDuration(t.Duration))
	}
}

func printSearch(out io.Writer, resp search.Response) {
	if resp.Notice != "" {
		fmt.Fprintf(out, "Notice: %s\n", resp.Notice)
	}
	fmt.Fprintf(out, "%d results from %s:\n", len(resp.Items), resp.Source)
	for _, t := range resp.Items {
		fmt.Fprintf(out, "  %-14s %s - %s [%s]\n", t.SourceID, t.Artist, t.Title, track.FormatDuration(t.Duration))
	}
}
