package voice

import (
	"context"
	"errors"
	"io"

	"smartmenu/logger"
	"smartmenu/model"
	"smartmenu/state"
)

var ErrDisabled = errors.New("voice: voice ordering is disabled for this menu")

// Pipeline submits a spoken request, waits for the recognizer and executes
// the resulting intent. Network and polling failures are logged and the
// command is dropped.
type Pipeline struct {
	client  *Client
	exec    *Executor
	store   *state.Store
	locale  string
	enabled bool
	log     *logger.Logger
}

func NewPipeline(client *Client, exec *Executor, store *state.Store, locale string, enabled bool, log *logger.Logger) *Pipeline {
	if log == nil {
		log = logger.Discard("voice")
	}
	return &Pipeline{client: client, exec: exec, store: store, locale: locale, enabled: enabled, log: log}
}

func (p *Pipeline) submission(transcript string) Submission {
	s := Submission{Transcript: transcript, Locale: p.locale}
	s.RestaurantID, _ = p.store.RestaurantID()
	s.MenuID, _ = p.store.CurrentMenuID()
	s.OrderID, _ = p.store.CurrentOrderID()
	return s
}

// Say handles a transcript recognized on the device.
func (p *Pipeline) Say(ctx context.Context, transcript string) (Result, error) {
	if !p.enabled {
		return Result{}, ErrDisabled
	}
	slug := p.store.Slug()
	id, err := p.client.SubmitTranscript(ctx, slug, p.submission(transcript))
	if err != nil {
		p.log.Error("submit_transcript", err, logger.Fields{"slug": slug})
		return Result{}, err
	}
	return p.await(ctx, slug, id)
}

// SayAudio uploads recorded audio for server-side recognition.
func (p *Pipeline) SayAudio(ctx context.Context, audio io.Reader, contentType string) (Result, error) {
	if !p.enabled {
		return Result{}, ErrDisabled
	}
	slug := p.store.Slug()
	id, err := p.client.SubmitAudio(ctx, slug, p.submission(""), audio, contentType)
	if err != nil {
		p.log.Error("submit_audio", err, logger.Fields{"slug": slug})
		return Result{}, err
	}
	return p.await(ctx, slug, id)
}

func (p *Pipeline) await(ctx context.Context, slug, id string) (Result, error) {
	cmd, err := p.client.Poll(ctx, slug, id)
	if err != nil {
		p.log.Warn("poll_voice_command", err, logger.Fields{"slug": slug, "id": id})
		return Result{}, err
	}
	if cmd.Status == model.VoiceFailed {
		p.log.Warn("voice_command_failed", errors.New(cmd.Error), logger.Fields{"id": id})
		return p.exec.say(MsgFailed), nil
	}
	p.log.Info("voice_command", logger.Fields{"id": id, "intent": string(cmd.Intent.Type), "qty": cmd.Intent.Qty})
	return p.exec.Execute(ctx, cmd)
}
