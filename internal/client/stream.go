package client

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"focusroom/backend/internal/model"
)

// Subscribe streams active-timer snapshots until ctx is done, reconnecting
// with backoff whenever the stream drops. Every (re)connection starts with
// the current snapshot, which is delivered with Resync set.
func (c *Client) Subscribe(ctx context.Context) (<-chan model.ActiveTimerSnapshot, error) {
	updates := make(chan model.ActiveTimerSnapshot, 4)

	go func() {
		defer close(updates)

		delay := c.retryDelay
		for {
			delivered, err := c.streamOnce(ctx, updates)
			if ctx.Err() != nil {
				return
			}
			if delivered {
				delay = c.retryDelay
			}
			log.Printf("client: snapshot stream closed, reconnecting in %s: %v", delay, err)

			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
			delay *= 2
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}
	}()

	return updates, nil
}

// streamOnce holds one stream open and reports whether it delivered anything.
func (c *Client) streamOnce(ctx context.Context, updates chan<- model.ActiveTimerSnapshot) (bool, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/timer/active/stream", nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.streamClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("open stream: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, decodeAPIError(resp)
	}

	delivered := false
	err = readEvents(resp.Body, func(event, data string) error {
		if event != "snapshot" {
			return nil
		}
		var snapshot model.ActiveTimerSnapshot
		if err := json.Unmarshal([]byte(data), &snapshot); err != nil {
			return fmt.Errorf("decode snapshot: %w", err)
		}
		snapshot.Resync = !delivered
		select {
		case updates <- snapshot:
			delivered = true
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	if err == nil {
		err = io.EOF
	}
	return delivered, err
}

// readEvents parses a text/event-stream body, calling fn once per
// dispatched event. Comment lines are skipped.
func readEvents(r io.Reader, fn func(event, data string) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)

	var event string
	var data []string
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			if len(data) > 0 {
				if event == "" {
					event = "message"
				}
				if err := fn(event, strings.Join(data, "\n")); err != nil {
					return err
				}
			}
			event, data = "", nil
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "event":
			event = value
		case "data":
			data = append(data, value)
		}
	}
	return scanner.Err()
}
