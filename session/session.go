package session

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sync"
	"time"

	"smartmenu/channel"
	"smartmenu/config"
	"smartmenu/dispatcher"
	"smartmenu/intent"
	"smartmenu/logger"
	"smartmenu/state"
	"smartmenu/voice"
)

// Options configures one smartmenu page view.
type Options struct {
	BaseURL string
	HTTP    dispatcher.Doer
	Dataset state.Attrs
	UI      dispatcher.UI
	Page    voice.Page
	Display voice.Display
	Mic     voice.MicOpener
	Locale  string

	Settings config.Settings
	Log      *logger.Logger
}

// Session owns everything a single page view needs: the order store, the
// dispatcher, the voice pipeline and the order channel. Nothing is shared
// between sessions.
type Session struct {
	Store      *state.Store
	API        *dispatcher.Client
	Dispatcher *dispatcher.Dispatcher
	Toast      *voice.Toaster
	Voice      *voice.Pipeline
	Mic        *voice.MicLease

	base      string
	log       *logger.Logger
	unlisten  func()
	closeOnce sync.Once
}

func matcherFor(m config.Matching) *intent.Matcher {
	t := intent.DefaultThresholds()
	if m.Reject > 0 {
		t.Reject = m.Reject
	}
	if m.VisibleAccept > 0 {
		t.VisibleAccept = m.VisibleAccept
	}
	if m.VisibleBonus > 0 {
		t.VisibleBonus = m.VisibleBonus
	}
	return intent.NewMatcher(t)
}

func httpClient(d dispatcher.Doer) dispatcher.Doer {
	if d != nil {
		return d
	}
	return &http.Client{Timeout: 15 * time.Second}
}

func New(o Options) *Session {
	log := o.Log
	if log == nil {
		log = logger.New("smartmenu")
	}
	store := state.NewStore(nil, o.Dataset)
	api := dispatcher.NewClient(o.BaseURL, httpClient(o.HTTP), store.CSRFToken)
	s := &Session{
		Store:    store,
		API:      api,
		base:     o.BaseURL,
		log:      log,
		unlisten: store.Listen(),
	}

	cfg := o.Settings
	s.Dispatcher = dispatcher.New(api, store, o.UI, log, dispatcher.Config{
		Cooldown:   cfg.DispatchCooldown,
		SuccessURL: cfg.PublicBaseURL + "/payments/success",
		CancelURL:  cfg.PublicBaseURL + "/payments/cancel",
	})
	s.Toast = voice.NewToaster(o.Display, o.Locale, cfg.Voice.ToastTTL)
	exec := voice.NewExecutor(o.Page, s.Dispatcher, store, matcherFor(cfg.Matching), s.Toast, log)
	client := voice.NewClient(api, cfg.Voice.PollInterval, cfg.Voice.PollAttempts)
	s.Voice = voice.NewPipeline(client, exec, store, o.Locale, cfg.Voice.Enabled, log)
	if o.Mic != nil {
		s.Mic = voice.NewMicLease(o.Mic, cfg.Voice.MicIdle)
	}
	return s
}

// Hydrate loads the current state from the server.
func (s *Session) Hydrate(ctx context.Context) bool {
	return s.Dispatcher.Reconcile(ctx)
}

var errNotState = errors.New("order channel message is not a state payload")

// handleOrderMessage applies a pushed state payload through the bus so the
// store only ever changes via ApplyStateUpdate.
func (s *Session) handleOrderMessage(_ context.Context, raw []byte) error {
	if !state.LooksLikeState(raw) {
		return errNotState
	}
	if _, err := state.ParsePayload(raw); err != nil {
		return err
	}
	s.Store.Bus().Publish(state.TopicStateUpdate, raw)
	return nil
}

// OrderChannel subscribes to the pushed state of this smartmenu.
func (s *Session) OrderChannel() (*channel.Consumer, error) {
	slug := s.Store.Slug()
	if slug == "" {
		return nil, voice.ErrNoSlug
	}
	u, err := channel.WebsocketURL(s.base, "/ws/ordr/"+url.PathEscape(slug))
	if err != nil {
		return nil, err
	}
	return channel.NewConsumer(channel.Config{
		URL: u,
		OnConnect: func(ctx context.Context) error {
			s.Hydrate(ctx)
			return nil
		},
	}, s.handleOrderMessage, s.log), nil
}

// Run hydrates the store and follows the order channel until ctx is done.
func (s *Session) Run(ctx context.Context) error {
	s.Hydrate(ctx)
	c, err := s.OrderChannel()
	if err != nil {
		return err
	}
	return c.Run(ctx)
}

// Close releases the microphone and detaches the store. It is safe to call
// more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		if s.Mic != nil {
			s.Mic.Close()
		}
		s.Toast.Close()
		s.unlisten()
	})
}
