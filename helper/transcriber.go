package helper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"
)

// WhisperTranscriber posts audio to an OpenAI-compatible
// /audio/transcriptions endpoint.
type WhisperTranscriber struct {
	URL    string
	APIKey string
	Model  string
	Client *http.Client
}

// NewWhisperTranscriber returns nil when no endpoint is configured, which
// leaves audio commands failing with ErrNoTranscriber.
func NewWhisperTranscriber(url, apiKey, model string) *WhisperTranscriber {
	if url == "" {
		return nil
	}
	if model == "" {
		model = "whisper-1"
	}
	return &WhisperTranscriber{URL: url, APIKey: apiKey, Model: model, Client: &http.Client{Timeout: 30 * time.Second}}
}

func extensionFor(contentType string) string {
	switch {
	case strings.Contains(contentType, "ogg"):
		return "ogg"
	case strings.Contains(contentType, "wav"):
		return "wav"
	case strings.Contains(contentType, "mpeg"), strings.Contains(contentType, "mp3"):
		return "mp3"
	case strings.Contains(contentType, "mp4"), strings.Contains(contentType, "m4a"):
		return "m4a"
	}
	return "webm"
}

func (w *WhisperTranscriber) Transcribe(ctx context.Context, audio []byte, contentType, locale string) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="voice.%s"`, extensionFor(contentType)))
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	part, err := mw.CreatePart(h)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(audio); err != nil {
		return "", err
	}
	_ = mw.WriteField("model", w.Model)
	if locale != "" {
		_ = mw.WriteField("language", strings.SplitN(locale, "-", 2)[0])
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if w.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+w.APIKey)
	}
	resp, err := w.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcribe: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("transcribe: %w", err)
	}
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("transcribe: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	var out struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("transcribe: %w", err)
	}
	return strings.TrimSpace(out.Text), nil
}
