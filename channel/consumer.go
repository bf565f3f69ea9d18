package channel

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/fasthttp/websocket"

	"smartmenu/logger"
)

var ErrGaveUp = errors.New("channel: reconnect attempts exhausted")

// Status of a consumer connection.
type Status string

const (
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusDisconnected Status = "disconnected"
	StatusFailed       Status = "failed"
)

// Handler consumes one message. Errors are logged and the message dropped.
type Handler func(ctx context.Context, raw []byte) error

type Config struct {
	URL    string
	Header http.Header

	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	MaxAttempts    int

	// OnConnect runs after every successful (re)connect, before messages are
	// read. Boards use it to reload what was missed while offline.
	OnConnect func(ctx context.Context) error
	OnStatus  func(Status)
}

func (c *Config) defaults() {
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = time.Second
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 10 * time.Second
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 5
	}
}

// Consumer reads one websocket subscription and reconnects with exponential
// backoff. A successful connect resets the attempt counter.
type Consumer struct {
	cfg    Config
	handle Handler
	dialer *websocket.Dialer
	log    *logger.Logger

	mu     sync.Mutex
	status Status
}

func NewConsumer(cfg Config, handle Handler, log *logger.Logger) *Consumer {
	cfg.defaults()
	if log == nil {
		log = logger.Discard("channel")
	}
	return &Consumer{
		cfg:    cfg,
		handle: handle,
		dialer: &websocket.Dialer{HandshakeTimeout: 10 * time.Second, Proxy: http.ProxyFromEnvironment},
		log:    log,
		status: StatusDisconnected,
	}
}

func (c *Consumer) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func (c *Consumer) setStatus(s Status) {
	c.mu.Lock()
	c.status = s
	c.mu.Unlock()
	if c.cfg.OnStatus != nil {
		c.cfg.OnStatus(s)
	}
}

// Backoff returns the wait before reconnect attempt n (1-based).
func Backoff(n int, initial, max time.Duration) time.Duration {
	d := initial
	for i := 1; i < n; i++ {
		d *= 2
		if d >= max {
			return max
		}
	}
	return min(d, max)
}

// Run consumes until ctx is done (returning nil) or reconnecting gives up
// (returning ErrGaveUp).
func (c *Consumer) Run(ctx context.Context) error {
	attempts := 0
	for {
		c.setStatus(StatusConnecting)
		conn, _, err := c.dialer.DialContext(ctx, c.cfg.URL, c.cfg.Header)
		if err == nil {
			attempts = 0
			err = c.serve(ctx, conn)
		}
		if ctx.Err() != nil {
			c.setStatus(StatusDisconnected)
			return nil
		}

		attempts++
		if attempts > c.cfg.MaxAttempts {
			c.setStatus(StatusFailed)
			c.log.Error("reconnect", ErrGaveUp, logger.Fields{"url": c.cfg.URL, "attempts": attempts - 1})
			return ErrGaveUp
		}
		wait := Backoff(attempts, c.cfg.InitialBackoff, c.cfg.MaxBackoff)
		c.setStatus(StatusDisconnected)
		c.log.Warn("disconnected", err, logger.Fields{"url": c.cfg.URL, "attempt": attempts, "retry_in": wait.String()})

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(wait):
		}
	}
}

func (c *Consumer) serve(ctx context.Context, conn *websocket.Conn) error {
	defer conn.Close()
	c.setStatus(StatusConnected)
	c.log.Info("connected", logger.Fields{"url": c.cfg.URL})

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	if c.cfg.OnConnect != nil {
		if err := c.cfg.OnConnect(ctx); err != nil {
			c.log.Warn("on_connect", err, logger.Fields{"url": c.cfg.URL})
		}
	}

	for {
		kind, raw, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read %s: %w", c.cfg.URL, err)
		}
		if kind != websocket.TextMessage && kind != websocket.BinaryMessage {
			continue
		}
		if err := c.handle(ctx, raw); err != nil {
			c.log.Warn("drop_message", err, logger.Fields{"url": c.cfg.URL, "size": len(raw)})
		}
	}
}

// WebsocketURL turns an http(s) base URL plus path into a ws(s) URL.
func WebsocketURL(base, path string) (string, error) {
	u, err := url.Parse(strings.TrimRight(base, "/") + path)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https", "wss":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	return u.String(), nil
}
