package presence

import (
	"context"
	"net/http"
	"sync"
	"time"

	"smartmenu/dispatcher"
	"smartmenu/logger"
)

const (
	EventAppear     = "appear"
	EventAway       = "away"
	EventDisconnect = "disconnect"
)

// Sender delivers a heartbeat event for the watched resource.
type Sender interface {
	Send(ctx context.Context, event string) error
}

// Heartbeat turns bursts of user activity into a single debounced "appear"
// and reports "away" once the user has been idle for IdleAfter.
type Heartbeat struct {
	send      Sender
	debounce  time.Duration
	idleAfter time.Duration
	log       *logger.Logger

	mu       sync.Mutex
	pending  *time.Timer
	idle     *time.Timer
	away     bool
	closed   bool
	inflight sync.WaitGroup
}

func NewHeartbeat(send Sender, debounce, idleAfter time.Duration, log *logger.Logger) *Heartbeat {
	if debounce <= 0 {
		debounce = time.Second
	}
	if idleAfter <= 0 {
		idleAfter = 5 * time.Minute
	}
	if log == nil {
		log = logger.Discard("presence")
	}
	return &Heartbeat{send: send, debounce: debounce, idleAfter: idleAfter, log: log}
}

// Activity records a user interaction.
func (h *Heartbeat) Activity() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	if h.pending != nil {
		h.pending.Stop()
	}
	h.pending = time.AfterFunc(h.debounce, func() { h.fire(EventAppear) })

	if h.idle != nil {
		h.idle.Stop()
	}
	h.idle = time.AfterFunc(h.idleAfter, func() { h.fire(EventAway) })
}

func (h *Heartbeat) fire(event string) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	switch event {
	case EventAppear:
		h.away = false
	case EventAway:
		if h.away {
			h.mu.Unlock()
			return
		}
		h.away = true
	}
	h.inflight.Add(1)
	h.mu.Unlock()

	defer h.inflight.Done()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.send.Send(ctx, event); err != nil {
		h.log.Debug("heartbeat_failed", logger.Fields{"event": event, "error": err.Error()})
	}
}

// Close stops the timers and sends a final "disconnect".
func (h *Heartbeat) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	if h.pending != nil {
		h.pending.Stop()
	}
	if h.idle != nil {
		h.idle.Stop()
	}
	h.mu.Unlock()

	h.inflight.Wait()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.send.Send(ctx, EventDisconnect); err != nil {
		h.log.Debug("heartbeat_failed", logger.Fields{"event": EventDisconnect, "error": err.Error()})
	}
}

type presenceBody struct {
	Resource   string `json:"resource"`
	ResourceID uint   `json:"resource_id"`
	Event      string `json:"event"`
}

// HTTPSender posts heartbeats to /presence.
type HTTPSender struct {
	client     *dispatcher.Client
	resource   string
	resourceID uint
}

func NewHTTPSender(client *dispatcher.Client, resource string, resourceID uint) *HTTPSender {
	return &HTTPSender{client: client, resource: resource, resourceID: resourceID}
}

func (s *HTTPSender) Send(ctx context.Context, event string) error {
	_, err := s.client.Do(ctx, http.MethodPost, "/presence",
		presenceBody{Resource: s.resource, ResourceID: s.resourceID, Event: event})
	return err
}
