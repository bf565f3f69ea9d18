package voice

import (
	"context"
	"errors"
	"strings"

	"smartmenu/dispatcher"
	"smartmenu/intent"
	"smartmenu/logger"
	"smartmenu/model"
	"smartmenu/state"
)

// Control names a button of the smartmenu page.
type Control string

const (
	ControlStartOrder   Control = "start-order"
	ControlCloseOrder   Control = "close-order"
	ControlConfirmOrder Control = "confirm-order"
	ControlRequestBill  Control = "request-bill"
)

// Page is what the executor can see and press on the menu page.
type Page interface {
	// Click presses an enabled control and reports whether it was there.
	Click(c Control) bool
	// ShowStartOrder opens the start order dialog, false if the page has none.
	ShowStartOrder() bool
	// Catalog lists the menu items with their current visibility.
	Catalog() []intent.Item
}

// Verbs is the subset of the dispatcher the executor drives.
type Verbs interface {
	AddItem(ctx context.Context, menuitemID state.ID, price float64) error
	RemoveItem(ctx context.Context, itemID state.ID) error
	SubmitOrder(ctx context.Context) error
	RequestBill(ctx context.Context) error
	CloseOrder(ctx context.Context, tip float64) error
}

var _ Verbs = (*dispatcher.Dispatcher)(nil)

// Result is what the user was told and how many lines were touched.
type Result struct {
	Message string
	Count   int
}

type Executor struct {
	page    Page
	verbs   Verbs
	store   *state.Store
	matcher *intent.Matcher
	toast   *Toaster
	log     *logger.Logger
}

func NewExecutor(page Page, verbs Verbs, store *state.Store, matcher *intent.Matcher, toast *Toaster, log *logger.Logger) *Executor {
	if matcher == nil {
		matcher = intent.NewMatcher(intent.DefaultThresholds())
	}
	if log == nil {
		log = logger.Discard("voice")
	}
	return &Executor{page: page, verbs: verbs, store: store, matcher: matcher, toast: toast, log: log}
}

func (e *Executor) say(key MessageKey, args ...any) Result {
	return Result{Message: e.toast.Show(key, args...)}
}

// Execute carries out a completed voice command.
func (e *Executor) Execute(ctx context.Context, cmd *Command) (Result, error) {
	in := cmd.Intent
	switch in.Type {
	case intent.Empty:
		return e.say(MsgNothingHeard), nil
	case intent.Unknown, "":
		return e.say(MsgNotUnderstood, cmd.Transcript), nil
	case intent.StartOrder:
		if e.page.Click(ControlStartOrder) || e.page.ShowStartOrder() {
			return e.say(MsgStartingOrder), nil
		}
		return e.say(MsgCannotStart), nil
	case intent.CloseOrder:
		return e.closeOrder(ctx)
	}

	_, okR := e.store.RestaurantID()
	_, okM := e.store.CurrentMenuID()
	if !okR || !okM {
		return e.say(MsgMissingContext), nil
	}

	switch in.Type {
	case intent.SubmitOrder:
		return e.clickOrCall(ctx, ControlConfirmOrder, e.verbs.SubmitOrder, MsgSubmitting, MsgCannotSubmit)
	case intent.RequestBill:
		return e.clickOrCall(ctx, ControlRequestBill, e.verbs.RequestBill, MsgRequestingBill, MsgCannotBill)
	}

	if _, ok := e.store.CurrentOrderID(); !ok {
		return e.say(MsgStartFirst), nil
	}

	switch in.Type {
	case intent.AddItem:
		return e.addItem(ctx, cmd)
	case intent.RemoveItem:
		return e.removeItem(ctx, cmd)
	}
	return e.say(MsgNotUnderstood, cmd.Transcript), nil
}

func (e *Executor) closeOrder(ctx context.Context) (Result, error) {
	if e.page.Click(ControlCloseOrder) {
		return e.say(MsgClosingOrder), nil
	}
	err := e.verbs.CloseOrder(ctx, 0)
	switch {
	case errors.Is(err, dispatcher.ErrMissingContext):
		return e.say(MsgNoOrderToClose), nil
	case err != nil:
		e.log.Error("close_order", err, nil)
		return e.say(MsgFailed), err
	}
	return e.say(MsgOrderClosed), nil
}

func (e *Executor) clickOrCall(ctx context.Context, c Control, verb func(context.Context) error, ok, cannot MessageKey) (Result, error) {
	if e.page.Click(c) {
		return e.say(ok), nil
	}
	err := verb(ctx)
	switch {
	case err == nil, errors.Is(err, dispatcher.ErrInFlight):
		return e.say(ok), nil
	case errors.Is(err, dispatcher.ErrMissingContext):
		return e.say(cannot), nil
	}
	e.log.Error(string(c), err, nil)
	return e.say(cannot), err
}

// resolve finds the menu item the user meant: the spoken query first, then
// the whole transcript, then the item the recognizer already matched.
func (e *Executor) resolve(cmd *Command) (intent.Item, bool) {
	catalog := e.page.Catalog()
	opts := intent.Options{PreferVisible: true}
	for _, q := range []string{cmd.Intent.Query, strings.ToLower(cmd.Transcript)} {
		if strings.TrimSpace(q) == "" {
			continue
		}
		if m := e.matcher.BestMatch(q, catalog, opts); m != nil {
			return intent.Item{ID: m.ID, Name: m.Name, Price: m.Price}, true
		}
	}
	if id := cmd.Intent.MenuitemID; id != 0 {
		for _, it := range catalog {
			if it.ID == id {
				return it, true
			}
		}
	}
	return intent.Item{}, false
}

func (e *Executor) addItem(ctx context.Context, cmd *Command) (Result, error) {
	item, ok := e.resolve(cmd)
	if !ok {
		return e.say(MsgNoMatch, cmd.Intent.Query), nil
	}
	qty := cmd.Intent.Quantity()
	added := 0
	for i := 0; i < qty; i++ {
		if err := e.verbs.AddItem(ctx, state.ID(item.ID), item.Price); err != nil {
			e.log.Error("add_item", err, logger.Fields{"menuitem_id": item.ID, "added": added, "qty": qty})
			if added == 0 {
				return e.say(MsgFailed), err
			}
			break
		}
		added++
	}
	r := e.say(MsgAdded, added)
	r.Count = added
	return r, nil
}

// removeItem walks the current order lines in snapshot order and removes up
// to qty opened lines of the matched item. Fewer matches than requested is
// not an error.
func (e *Executor) removeItem(ctx context.Context, cmd *Command) (Result, error) {
	items := e.store.OrderItems()
	if len(items) == 0 {
		return e.say(MsgNoItems), nil
	}
	target, ok := e.resolve(cmd)
	if !ok {
		return e.say(MsgNoMatch, cmd.Intent.Query), nil
	}
	qty := cmd.Intent.Quantity()
	removed := 0
	for _, it := range items {
		if removed >= qty {
			break
		}
		if uint(it.MenuitemID) != target.ID || strings.ToLower(it.Status) != model.ItemStatusName(model.ItemAdded) {
			continue
		}
		if err := e.verbs.RemoveItem(ctx, it.ID); err != nil {
			e.log.Error("remove_item", err, logger.Fields{"item_id": it.ID})
			continue
		}
		removed++
	}
	if removed == 0 {
		return e.say(MsgNothingToRemove), nil
	}
	r := e.say(MsgRemoved, removed)
	r.Count = removed
	return r, nil
}
