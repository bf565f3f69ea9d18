package dispatcher

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"smartmenu/logger"
	"smartmenu/model"
	"smartmenu/state"
)

type ordrBody struct {
	Ordr ordrFields `json:"ordr"`
}

type ordrFields struct {
	TablesettingID *state.ID `json:"tablesetting_id,omitempty"`
	RestaurantID   state.ID  `json:"restaurant_id"`
	MenuID         *state.ID `json:"menu_id,omitempty"`
	EmployeeID     *state.ID `json:"employee_id,omitempty"`
	Ordercapacity  int       `json:"ordercapacity,omitempty"`
	Status         int       `json:"status"`
	Tip            *float64  `json:"tip,omitempty"`
}

type ordritemBody struct {
	Ordritem ordritemFields `json:"ordritem"`
}

type ordritemFields struct {
	OrdrID        state.ID `json:"ordr_id"`
	MenuitemID    state.ID `json:"menuitem_id"`
	Status        int      `json:"status"`
	Ordritemprice string   `json:"ordritemprice"`
}

type removeBody struct {
	Ordritem struct {
		Status        int `json:"status"`
		Ordritemprice int `json:"ordritemprice"`
	} `json:"ordritem"`
}

func idPtr(id state.ID, ok bool) *state.ID {
	if !ok {
		return nil
	}
	return &id
}

// StartOrder opens a new order for the current table.
func (d *Dispatcher) StartOrder(ctx context.Context, capacity int) error {
	if !d.startLatch.TryAcquire() {
		return ErrInFlight
	}
	defer d.startLatch.Release()

	rid, okR := d.store.RestaurantID()
	tid, okT := d.store.CurrentTableID()
	mid, okM := d.store.CurrentMenuID()
	if !okR || !okT || !okM {
		d.alert(startOrderPrompt)
		return ErrMissingContext
	}
	if capacity <= 0 {
		capacity = 1
	}
	body := ordrBody{Ordr: ordrFields{
		TablesettingID: &tid,
		RestaurantID:   rid,
		MenuID:         &mid,
		EmployeeID:     d.optionalEmployee(),
		Ordercapacity:  capacity,
		Status:         model.OrderCodeOpened,
	}}
	if _, err := d.post(ctx, fmt.Sprintf("/restaurants/%d/ordrs", rid), body); err != nil {
		return err
	}
	d.hide(ModalStartOrder)
	return nil
}

// acceptingOrder resolves the order new lines go to. Without one the start
// order dialog is shown instead.
func (d *Dispatcher) acceptingOrder() (state.ID, state.ID, error) {
	oid, okO := d.store.CurrentOrderID()
	status := d.store.CurrentOrderStatus()
	if !okO || status == "" || !model.OrderStatus(status).AcceptsItems() {
		d.hide(ModalAddItem)
		if d.ui != nil {
			d.ui.ShowStartOrder()
		}
		return 0, 0, ErrMissingContext
	}
	rid, okR := d.store.RestaurantID()
	if !okR {
		d.log.Warn("add_item", ErrMissingContext, logger.Fields{"order_id": oid})
		return 0, 0, ErrMissingContext
	}
	return rid, oid, nil
}

// AddItem appends one line for menuitemID at price to the current order.
func (d *Dispatcher) AddItem(ctx context.Context, menuitemID state.ID, price float64) error {
	rid, oid, err := d.acceptingOrder()
	if err != nil {
		return err
	}
	if err := d.addLine(ctx, rid, oid, menuitemID, price); err != nil {
		return err
	}
	d.hide(ModalAddItem)
	return nil
}

func (d *Dispatcher) addLine(ctx context.Context, rid, oid, menuitemID state.ID, price float64) error {
	body := ordritemBody{Ordritem: ordritemFields{
		OrdrID:        oid,
		MenuitemID:    menuitemID,
		Status:        model.ItemAdded,
		Ordritemprice: model.FormatPrice(price),
	}}
	_, err := d.post(ctx, fmt.Sprintf("/restaurants/%d/ordritems", rid), body)
	return err
}

// RemoveItem marks a line removed and zeroes its price.
func (d *Dispatcher) RemoveItem(ctx context.Context, itemID state.ID) error {
	rid, ok := d.store.RestaurantID()
	if !ok || itemID == 0 {
		d.log.Warn("remove_item", ErrMissingContext, logger.Fields{"item_id": itemID})
		return ErrMissingContext
	}
	var body removeBody
	body.Ordritem.Status = model.ItemRemoved
	_, err := d.patch(ctx, fmt.Sprintf("/restaurants/%d/ordritems/%d", rid, itemID), body)
	return err
}

func (d *Dispatcher) statusBody(rid state.ID, status int, tip *float64) ordrBody {
	return ordrBody{Ordr: ordrFields{
		TablesettingID: idPtr(d.store.CurrentTableID()),
		RestaurantID:   rid,
		MenuID:         idPtr(d.store.CurrentMenuID()),
		EmployeeID:     d.optionalEmployee(),
		Status:         status,
		Tip:            tip,
	}}
}

// SubmitOrder sends the opened lines to the kitchen.
func (d *Dispatcher) SubmitOrder(ctx context.Context) error {
	if !d.submitLatch.TryAcquire() {
		return ErrInFlight
	}
	rid, oid, err := d.orderContext("submit_order")
	if err != nil {
		d.submitLatch.Release()
		return err
	}
	defer d.submitLatch.ReleaseAfter(d.cfg.Cooldown)

	if _, err := d.patch(ctx, d.orderPath(rid, oid), d.statusBody(rid, model.OrderCodeOrdered, nil)); err != nil {
		return err
	}
	d.hide(ModalConfirmOrder)
	return nil
}

func billSettled(status string) bool {
	s := model.OrderStatus(status)
	return s == model.OrderBillRequested || s == model.OrderClosed
}

// RequestBill asks for the bill. It does nothing once the bill was requested
// or the order is closed.
func (d *Dispatcher) RequestBill(ctx context.Context) error {
	if billSettled(d.store.CurrentOrderStatus()) {
		return nil
	}
	if !d.billLatch.TryAcquire() {
		return ErrInFlight
	}
	rid, oid, err := d.orderContext("request_bill")
	if err != nil {
		d.billLatch.Release()
		return err
	}
	defer d.billLatch.ReleaseAfter(d.cfg.Cooldown)

	if err := d.requestBill(ctx, rid, oid); err != nil {
		d.alert("Could not request the bill. Please try again.")
		return err
	}
	d.hide(ModalRequestBill)
	return nil
}

func (d *Dispatcher) requestBill(ctx context.Context, rid, oid state.ID) error {
	_, err := d.patch(ctx, d.orderPath(rid, oid), d.statusBody(rid, model.OrderCodeBillRequested, nil))
	return err
}

type paymentAttemptBody struct {
	OrdrID     state.ID `json:"ordr_id"`
	SuccessURL string   `json:"success_url,omitempty"`
	CancelURL  string   `json:"cancel_url,omitempty"`
	Tip        *float64 `json:"tip,omitempty"`
}

type checkoutBody struct {
	SuccessURL string   `json:"success_url,omitempty"`
	CancelURL  string   `json:"cancel_url,omitempty"`
	Tip        *float64 `json:"tip,omitempty"`
}

// checkoutURL picks the redirect target out of a payment response.
func checkoutURL(raw []byte) string {
	var resp struct {
		CheckoutURL string `json:"checkout_url"`
		RedirectURL string `json:"redirect_url"`
		URL         string `json:"url"`
		Data        *struct {
			CheckoutURL string `json:"checkout_url"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return ""
	}
	for _, u := range []string{resp.CheckoutURL, resp.RedirectURL, resp.URL} {
		if strings.TrimSpace(u) != "" {
			return u
		}
	}
	if resp.Data != nil {
		return resp.Data.CheckoutURL
	}
	return ""
}

// PayOrder moves the order to billrequested if needed, opens a payment
// session and redirects to it. The checkout_session route is the fallback
// when payment attempts are unavailable.
func (d *Dispatcher) PayOrder(ctx context.Context, tip float64) error {
	if !d.payLatch.TryAcquire() {
		return ErrInFlight
	}
	defer d.payLatch.ReleaseAfter(d.cfg.Cooldown)

	rid, oid, err := d.orderContext("pay_order")
	if err != nil {
		return err
	}
	var tipPtr *float64
	if tip > 0 {
		tipPtr = &tip
	}
	if model.OrderStatus(d.store.CurrentOrderStatus()) != model.OrderBillRequested {
		if err := d.requestBill(ctx, rid, oid); err != nil {
			d.alert("Payment could not be started. Please try again.")
			return err
		}
	}

	url, err := d.paymentAttempt(ctx, oid, tipPtr)
	if err != nil {
		d.log.Warn("payment_attempt", err, logger.Fields{"order_id": oid})
		url, err = d.checkoutSession(ctx, rid, oid, tipPtr)
	}
	if err != nil {
		d.alert("Payment could not be started. Please try again.")
		return err
	}
	d.hide(ModalPay)
	if d.ui != nil {
		d.ui.Redirect(url)
	}
	return nil
}

func (d *Dispatcher) paymentAttempt(ctx context.Context, oid state.ID, tip *float64) (string, error) {
	raw, err := d.post(ctx, "/payments/payment_attempts", paymentAttemptBody{
		OrdrID: oid, SuccessURL: d.cfg.SuccessURL, CancelURL: d.cfg.CancelURL, Tip: tip,
	})
	if err != nil {
		return "", err
	}
	if u := checkoutURL(raw); u != "" {
		return u, nil
	}
	return "", fmt.Errorf("payment attempt for order %d: no checkout url", oid)
}

func (d *Dispatcher) checkoutSession(ctx context.Context, rid, oid state.ID, tip *float64) (string, error) {
	raw, err := d.post(ctx, d.orderPath(rid, oid)+"/payments/checkout_session", checkoutBody{
		SuccessURL: d.cfg.SuccessURL, CancelURL: d.cfg.CancelURL, Tip: tip,
	})
	if err != nil {
		return "", err
	}
	if u := checkoutURL(raw); u != "" {
		return u, nil
	}
	return "", fmt.Errorf("checkout session for order %d: no checkout url", oid)
}

// CloseOrder marks the order paid and closed, optionally recording a tip.
func (d *Dispatcher) CloseOrder(ctx context.Context, tip float64) error {
	rid, oid, err := d.orderContext("close_order")
	if err != nil {
		return err
	}
	var tipPtr *float64
	if tip > 0 {
		tipPtr = &tip
	}
	_, err = d.patch(ctx, d.orderPath(rid, oid), d.statusBody(rid, model.OrderCodeClosed, tipPtr))
	return err
}
