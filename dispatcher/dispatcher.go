package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"smartmenu/logger"
	"smartmenu/state"
)

var (
	ErrInFlight       = errors.New("dispatcher: command already in flight")
	ErrMissingContext = errors.New("dispatcher: missing order context")
)

// Modal identifies a dialog the dispatcher may dismiss after a verb succeeds.
type Modal string

const (
	ModalStartOrder   Modal = "start-order"
	ModalAddItem      Modal = "add-item"
	ModalConfirmOrder Modal = "confirm-order"
	ModalRequestBill  Modal = "request-bill"
	ModalPay          Modal = "pay-order"
)

const startOrderPrompt = "Please select a table before starting an order."

// UI is the set of page effects the dispatcher can trigger.
type UI interface {
	Alert(msg string)
	ShowStartOrder()
	HideModal(m Modal)
	Redirect(url string)
	Spinner(on bool)
}

// DefaultCooldown is how long a verb stays latched after it finishes.
const DefaultCooldown = 500 * time.Millisecond

// Config tunes a dispatcher. A zero Cooldown means DefaultCooldown and a
// negative one releases latches as soon as the request returns.
type Config struct {
	Cooldown   time.Duration
	SuccessURL string
	CancelURL  string
}

// Dispatcher turns user verbs into REST calls against the order backend.
type Dispatcher struct {
	api   *Client
	store *state.Store
	bus   *state.Bus
	ui    UI
	log   *logger.Logger
	cfg   Config

	startLatch  Latch
	submitLatch Latch
	billLatch   Latch
	payLatch    Latch
	bundleLatch Latch
}

// New builds a dispatcher. State responses are published as state:update,
// so the store should be listening on the same bus.
func New(api *Client, store *state.Store, ui UI, log *logger.Logger, cfg Config) *Dispatcher {
	switch {
	case cfg.Cooldown == 0:
		cfg.Cooldown = DefaultCooldown
	case cfg.Cooldown < 0:
		cfg.Cooldown = 0
	}
	if log == nil {
		log = logger.Discard("dispatcher")
	}
	return &Dispatcher{api: api, store: store, bus: store.Bus(), ui: ui, log: log, cfg: cfg}
}

var (
	postRefetch  = regexp.MustCompile(`/(ordrs|ordritems)(/|$)`)
	patchRefetch = regexp.MustCompile(`/(ordrs|ordritems)/`)
)

func needsRefetch(method, path string) bool {
	switch method {
	case http.MethodPost:
		return postRefetch.MatchString(path)
	case http.MethodPatch:
		return patchRefetch.MatchString(path)
	}
	return false
}

func (d *Dispatcher) post(ctx context.Context, path string, body any) ([]byte, error) {
	return d.send(ctx, http.MethodPost, path, body)
}

func (d *Dispatcher) patch(ctx context.Context, path string, body any) ([]byte, error) {
	return d.send(ctx, http.MethodPatch, path, body)
}

func (d *Dispatcher) send(ctx context.Context, method, path string, body any) ([]byte, error) {
	req := state.Request{Method: method, URL: path, Body: body}
	d.spinner(true)
	d.bus.Publish(state.TopicRequestStart, req)

	raw, err := d.api.Do(ctx, method, path, body)
	d.spinner(false)
	if err != nil {
		req.Err = err
		var he *HTTPError
		if errors.As(err, &he) {
			req.Status = he.Status
		}
		d.bus.Publish(state.TopicRequestError, req)
		d.log.Error("request", err, logger.Fields{"method": method, "path": path})
		return nil, err
	}
	req.Status = http.StatusOK
	d.bus.Publish(state.TopicRequestComplete, req)

	if state.LooksLikeState(raw) {
		d.bus.Publish(state.TopicStateUpdate, raw)
	}
	if needsRefetch(method, path) {
		d.Reconcile(ctx)
	}
	return raw, nil
}

func (d *Dispatcher) spinner(on bool) {
	d.store.SetSpinner(on)
	if d.ui != nil {
		d.ui.Spinner(on)
	}
}

// Reconcile refetches the smartmenu state and applies it. It is best effort:
// failures are logged and the last known state is kept.
func (d *Dispatcher) Reconcile(ctx context.Context) bool {
	slug := d.store.Slug()
	if slug == "" {
		return false
	}
	raw, err := d.api.Get(ctx, "/smartmenus/"+slug+".json")
	if err != nil {
		d.log.Warn("reconcile", err, logger.Fields{"slug": slug})
		return false
	}
	if !state.LooksLikeState(raw) {
		return false
	}
	d.bus.Publish(state.TopicStateUpdate, raw)
	return true
}

func (d *Dispatcher) alert(msg string) {
	if d.ui != nil {
		d.ui.Alert(msg)
	}
}

func (d *Dispatcher) hide(m Modal) {
	if d.ui != nil {
		d.ui.HideModal(m)
	}
}

func (d *Dispatcher) orderPath(rid, oid state.ID) string {
	return fmt.Sprintf("/restaurants/%d/ordrs/%d", rid, oid)
}

// orderContext returns restaurant and order ids, or ErrMissingContext.
func (d *Dispatcher) orderContext(verb string) (state.ID, state.ID, error) {
	rid, okR := d.store.RestaurantID()
	oid, okO := d.store.CurrentOrderID()
	if !okR || !okO {
		d.log.Warn(verb, ErrMissingContext, logger.Fields{"restaurant_id": rid, "order_id": oid})
		return rid, oid, ErrMissingContext
	}
	return rid, oid, nil
}

func (d *Dispatcher) optionalEmployee() *state.ID {
	if id, ok := d.store.CurrentEmployeeID(); ok {
		return &id
	}
	return nil
}
