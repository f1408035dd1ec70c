package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/osa030/tunedeck/internal/app/playback"
	"github.com/osa030/tunedeck/internal/app/search"
)

// client talks to the tunedeck HTTP API.
type client struct {
	baseURL    string
	httpClient *http.Client
}

func newClient(baseURL string, httpClient *http.Client) *client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &client{baseURL: strings.TrimSuffix(baseURL, "/"), httpClient: httpClient}
}

func (c *client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "failed to encode request")
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil || apiErr.Error == "" {
			return errors.Newf("server returned %s", resp.Status)
		}
		return errors.Newf("server returned %d: %s", resp.StatusCode, apiErr.Error)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "failed to decode response")
	}
	return nil
}

func (c *client) status(ctx context.Context) (playback.Status, error) {
	var st playback.Status
	err := c.do(ctx, http.MethodGet, "/api/player", nil, &st)
	return st, err
}

// action posts to a player endpoint and returns the resulting status.
func (c *client) action(ctx context.Context, name string, body any) (playback.Status, error) {
	var st playback.Status
	err := c.do(ctx, http.MethodPost, "/api/player/"+name, body, &st)
	return st, err
}

func (c *client) search(ctx context.Context, query, duration string, maxResults int) (search.Response, error) {
	params := url.Values{"q": {query}}
	if duration != "" {
		params.Set("duration", duration)
	}
	if maxResults > 0 {
		params.Set("maxResults", fmt.Sprint(maxResults))
	}
	var resp search.Response
	err := c.do(ctx, http.MethodGet, "/api/youtube/search?"+params.Encode(), nil, &resp)
	return resp, err
}

func (c *client) enqueue(ctx context.Context, sourceIDs []string, play bool) (playback.Status, error) {
	body := map[string]any{"sourceIds": sourceIDs, "play": play}
	return c.action(ctx, "queue/sources", body)
}

func (c *client) clearQueue(ctx context.Context) (playback.Status, error) {
	var st playback.Status
	err := c.do(ctx, http.MethodDelete, "/api/player/queue", nil, &st)
	return st, err
}

// events streams status events until ctx is done or the server closes the
// stream. fn is called once per event.
func (c *client) events(ctx context.Context, fn func(seq string, st playback.Status)) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/player/events", nil)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "failed to subscribe")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errors.Newf("server returned %s", resp.Status)
	}

	var seq, data string
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 4<<20)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "id: "):
			seq = strings.TrimPrefix(line, "id: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		case line == "":
			if data == "" {
				continue
			}
			var st playback.Status
			if err := json.Unmarshal([]byte(data), &st); err != nil {
				return errors.Wrap(err, "failed to decode event")
			}
			fn(seq, st)
			seq, data = "", ""
		}
	}
	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		return errors.Wrap(err, "stream error")
	}
	return nil
}
