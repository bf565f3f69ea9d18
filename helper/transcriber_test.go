package helper

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartmenu/model"
)

func TestWhisperTranscriber(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer k-1", r.Header.Get("Authorization"))
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		assert.Equal(t, "whisper-1", r.FormValue("model"))
		assert.Equal(t, "fr", r.FormValue("language"))

		f, fh, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			return
		}
		defer f.Close()
		assert.Equal(t, "voice.ogg", fh.Filename)
		raw, _ := io.ReadAll(f)
		assert.Equal(t, []byte("OggS"), raw)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":" deux pizzas margherita "}`))
	}))
	defer srv.Close()

	tr := NewWhisperTranscriber(srv.URL, "k-1", "")
	require.NotNil(t, tr)
	text, err := tr.Transcribe(context.Background(), []byte("OggS"), "audio/ogg", "fr-FR")
	require.NoError(t, err)
	assert.Equal(t, "deux pizzas margherita", text)

	p := VoiceProcessor{Transcriber: tr}
	text, err = p.transcript(context.Background(), &model.VoiceCommand{Audio: []byte("OggS"), AudioContentType: "audio/ogg", Locale: "fr"})
	require.NoError(t, err)
	assert.Equal(t, "deux pizzas margherita", text)
}

func TestWhisperTranscriberErrors(t *testing.T) {
	assert.Nil(t, NewWhisperTranscriber("", "", ""))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewWhisperTranscriber(srv.URL, "", "").Transcribe(context.Background(), []byte{1}, "", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
	assert.Contains(t, err.Error(), "quota exceeded")
}
