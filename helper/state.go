package helper

import (
	"strings"
	"time"

	"smartmenu/model"
	"smartmenu/state"
)

var currencySymbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
	"CHF": "CHF",
	"CAD": "$",
	"AUD": "$",
}

func currencyFor(code string) state.Currency {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		code = "USD"
	}
	sym, ok := currencySymbols[code]
	if !ok {
		sym = code
	}
	return state.Currency{Code: code, Symbol: sym}
}

// StateInput is everything the smartmenu state of one page needs. Order is
// nil when the table has no open order; its lines must have Menuitem loaded.
type StateInput struct {
	Smartmenu model.Smartmenu
	Order     *model.Ordr
	SessionID string
	CSRFToken string
	Now       time.Time
}

func countItems(items []model.Ordritem) state.Counts {
	var c state.Counts
	for _, it := range items {
		switch it.Status {
		case model.ItemAdded:
			c.OpenedCount++
			c.AddedCount++
		case model.ItemRemoved:
			c.RemovedCount++
			continue
		case model.ItemOrdered:
			c.OrderedOnlyCount++
			c.OrderedCount++
		case model.ItemPrepared:
			c.ReadyCount++
			c.OrderedCount++
		case model.ItemDelivered:
			c.DeliveredCount++
			c.OrderedCount++
		}
		c.TotalCount++
	}
	return c
}

// BuildState renders the smartmenu state payload the order channel and the
// state endpoint share.
func BuildState(in StateInput) state.Context {
	sm := in.Smartmenu
	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}
	ctx := state.Context{
		Session: &state.Session{ID: in.SessionID, Slug: sm.Slug, CSRFToken: in.CSRFToken},
		MenuID:  state.ID(sm.MenuId),
		Restaurant: state.Restaurant{
			ID:           state.ID(sm.RestaurantId),
			AllowAlcohol: sm.Restaurant.AllowAlcohol,
			AllowedNow:   sm.Restaurant.AllowAlcohol,
		},
		Participants: state.Participants{MenuParticipantID: state.ID(sm.ID)},
		Version:      now.UnixMilli(),
	}
	if sm.TablesettingId != nil {
		ctx.TableID = state.ID(*sm.TablesettingId)
	}

	o := in.Order
	if o == nil {
		ctx.Flags = state.Flags{DisplayStartOrder: ctx.TableID != 0}
		return ctx
	}

	status := o.StatusName()
	ctx.Order = state.Order{ID: state.ID(o.ID), Status: string(status), Items: []state.Item{}}
	for _, it := range o.Ordritems {
		ctx.Order.Items = append(ctx.Order.Items, state.Item{
			ID:         state.ID(it.ID),
			MenuitemID: state.ID(it.MenuitemId),
			Name:       it.Menuitem.Name,
			Status:     model.ItemStatusName(it.Status),
			Price:      it.Ordritemprice,
		})
	}
	ctx.Order.Counts = countItems(o.Ordritems)
	switch status {
	case model.OrderPreparing:
		ctx.Order.PreparingCount = ctx.Order.OrderedCount
	case model.OrderBillRequested:
		ctx.Order.BillrequestedCount = ctx.Order.TotalCount
	case model.OrderPaid:
		ctx.Order.PaidCount = ctx.Order.TotalCount
	case model.OrderClosed:
		ctx.Order.ClosedCount = ctx.Order.TotalCount
	}
	if o.EmployeeId != nil {
		ctx.EmployeeID = state.ID(*o.EmployeeId)
	}
	if o.TablesettingId != 0 {
		ctx.TableID = state.ID(o.TablesettingId)
	}
	ctx.Participants.OrderParticipantID = state.ID(o.ID)

	gross := o.Gross
	if gross <= 0 {
		for _, it := range o.Ordritems {
			if it.Status != model.ItemRemoved {
				gross += it.Ordritemprice
			}
		}
		gross = round2(gross)
	}
	ctx.Totals = &state.Totals{
		Nett:        o.Nett,
		Tax:         o.Tax,
		Service:     o.Service,
		Tip:         o.Tip,
		Covercharge: o.Covercharge,
		Gross:       gross,
		Currency:    currencyFor(sm.Restaurant.Currency),
	}

	counts := ctx.Order.Counts
	ctx.Flags = state.Flags{
		MenuItemsEnabled:    status.AcceptsItems(),
		DisplayConfirmOrder: counts.OpenedCount > 0 && status.AcceptsItems(),
		DisplayRequestBill:  counts.TotalCount > 0 && counts.OpenedCount == 0 && !BillSettled(status),
		DisplayPay:          status == model.OrderBillRequested,
		DisplayClose:        status == model.OrderBillRequested || status == model.OrderPaid,
	}
	return ctx
}

// StateEnvelope wraps the context the way the order channel and the state
// endpoint send it.
func StateEnvelope(ctx state.Context) map[string]any {
	return map[string]any{"state": ctx}
}
