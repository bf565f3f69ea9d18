package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"smartmenu/constants"
	"smartmenu/dispatcher"
	"smartmenu/intent"
	"smartmenu/model"
	"smartmenu/state"
)

var (
	ErrPollTimeout = errors.New("voice: command did not finish in time")
	ErrNoSlug      = errors.New("voice: smartmenu slug unknown")
)

// Command is the recognizer's view of one voice request.
type Command struct {
	ID         string        `json:"id"`
	Status     string        `json:"status"`
	Transcript string        `json:"transcript"`
	Intent     intent.Intent `json:"intent"`
	Error      string        `json:"error,omitempty"`
}

func (c *Command) Done() bool {
	return c.Status == model.VoiceCompleted || c.Status == model.VoiceFailed
}

// Submission carries the page context sent with a voice command.
type Submission struct {
	Transcript   string   `json:"transcript,omitempty"`
	Locale       string   `json:"locale,omitempty"`
	RestaurantID state.ID `json:"restaurant_id,omitempty"`
	MenuID       state.ID `json:"menu_id,omitempty"`
	OrderID      state.ID `json:"order_id,omitempty"`
}

type Client struct {
	api      *dispatcher.Client
	interval time.Duration
	attempts int
}

func NewClient(api *dispatcher.Client, interval time.Duration, attempts int) *Client {
	if interval <= 0 {
		interval = 350 * time.Millisecond
	}
	if attempts <= 0 {
		attempts = 40
	}
	return &Client{api: api, interval: interval, attempts: attempts}
}

func commandsPath(slug string) string {
	return "/smartmenus/" + url.PathEscape(slug) + "/voice_commands"
}

func decodeCreated(raw []byte) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode voice command: %w", err)
	}
	if out.ID == "" {
		return "", errors.New("voice: server returned no command id")
	}
	return out.ID, nil
}

// SubmitTranscript posts a browser-recognized transcript.
func (c *Client) SubmitTranscript(ctx context.Context, slug string, s Submission) (string, error) {
	if slug == "" {
		return "", ErrNoSlug
	}
	raw, err := c.api.Do(ctx, http.MethodPost, commandsPath(slug), s)
	if err != nil {
		return "", err
	}
	return decodeCreated(raw)
}

// SubmitAudio uploads recorded audio as multipart form data.
func (c *Client) SubmitAudio(ctx context.Context, slug string, s Submission, audio io.Reader, contentType string) (string, error) {
	if slug == "" {
		return "", ErrNoSlug
	}
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreatePart(map[string][]string{
		"Content-Disposition": {`form-data; name="audio"; filename="voice.webm"`},
		"Content-Type":        {contentType},
	})
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(fw, audio); err != nil {
		return "", fmt.Errorf("copy audio: %w", err)
	}
	fields := map[string]string{"locale": s.Locale}
	for k, id := range map[string]state.ID{"restaurant_id": s.RestaurantID, "menu_id": s.MenuID, "order_id": s.OrderID} {
		if id != 0 {
			fields[k] = id.String()
		}
	}
	for k, v := range fields {
		if v == "" {
			continue
		}
		if err := mw.WriteField(k, v); err != nil {
			return "", err
		}
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.api.URL(commandsPath(slug)), &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	if c.api.CSRF != nil {
		req.Header.Set(constants.CSRFHeader, c.api.CSRF())
	}
	raw, err := c.api.Send(req)
	if err != nil {
		return "", err
	}
	return decodeCreated(raw)
}

// Poll fetches the command until it completes or fails. A body that does not
// decode ends polling immediately.
func (c *Client) Poll(ctx context.Context, slug, id string) (*Command, error) {
	path := commandsPath(slug) + "/" + url.PathEscape(id)
	for i := 0; i < c.attempts; i++ {
		var cmd Command
		if err := c.api.GetJSON(ctx, path, &cmd); err != nil {
			return nil, err
		}
		if cmd.Done() {
			return &cmd, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.interval):
		}
	}
	return nil, ErrPollTimeout
}
