package helper

import (
	"errors"
	"time"

	"smartmenu/constants"
	"smartmenu/model"
)

var (
	ErrOrderClosed         = errors.New(constants.ORDER_CLOSED)
	ErrItemsStillOpen      = errors.New(constants.ITEMS_STILL_OPEN)
	ErrNoSubmittedItems    = errors.New(constants.NO_SUBMITTED_ITEMS)
	ErrMustBeBillRequested = errors.New(constants.MUST_BE_BILLREQUESTED)
	ErrOrderTotalZero      = errors.New(constants.ORDER_TOTAL_ZERO)
	ErrInvalidTransition   = errors.New(constants.INVALID_TRANSITION)
)

// BillSettled statuses make a bill request a no-op.
func BillSettled(s model.OrderStatus) bool {
	return s == model.OrderBillRequested || s == model.OrderPaid || s == model.OrderClosed
}

// CheckRequestBill applies the bill request rules to an order whose
// unsubmitted lines have already been sent to the stations.
func CheckRequestBill(items []model.Ordritem) error {
	submitted := 0
	for _, it := range items {
		switch {
		case it.Status == model.ItemAdded:
			return ErrItemsStillOpen
		case it.Status >= model.ItemOrdered:
			submitted++
		}
	}
	if submitted == 0 {
		return ErrNoSubmittedItems
	}
	return nil
}

// CanAdvanceOrder allows forward moves only. Reopening is not supported.
func CanAdvanceOrder(from, to model.OrderStatus) bool {
	return to.Code() >= from.Code()
}

// ItemCodeFor is the line status mirrored from an order status.
func ItemCodeFor(s model.OrderStatus) (int, bool) {
	switch s {
	case model.OrderOrdered, model.OrderPreparing:
		return model.ItemOrdered, true
	case model.OrderReady:
		return model.ItemPrepared, true
	case model.OrderDelivered, model.OrderBillRequested, model.OrderPaid, model.OrderClosed:
		return model.ItemDelivered, true
	}
	return 0, false
}

// CascadeItems mirrors an order status onto its submitted, non-removed lines
// and returns the lines that changed. Lines never move backwards.
func CascadeItems(items []model.Ordritem, s model.OrderStatus) []model.Ordritem {
	code, ok := ItemCodeFor(s)
	if !ok {
		return nil
	}
	var changed []model.Ordritem
	for i := range items {
		it := &items[i]
		if it.Status == model.ItemRemoved || it.Status < model.ItemOrdered || it.Status >= code {
			continue
		}
		it.Status = code
		changed = append(changed, *it)
	}
	return changed
}

// StampStatus records when the order reached a milestone status.
func StampStatus(o *model.Ordr, s model.OrderStatus, now time.Time) {
	switch s {
	case model.OrderOrdered:
		if o.OrderedAt == nil {
			o.OrderedAt = &now
		}
	case model.OrderBillRequested:
		o.BillRequestedAt = &now
	case model.OrderPaid, model.OrderClosed:
		if o.PaidAt == nil {
			o.PaidAt = &now
		}
	}
}

// ClearsTickets reports whether a status takes the order off the station boards.
func ClearsTickets(s model.OrderStatus) bool {
	return s.Terminal()
}
