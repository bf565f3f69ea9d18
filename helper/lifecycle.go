package helper

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"smartmenu/logger"
	"smartmenu/model"
)

// LoadOrder fetches a restaurant's order with everything the payloads need.
func LoadOrder(db *gorm.DB, rid, id uint) (*model.Ordr, error) {
	var o model.Ordr
	err := db.Preload("Restaurant").Preload("Menu").Preload("Tablesetting").
		Preload("Ordritems", func(tx *gorm.DB) *gorm.DB { return tx.Order("id") }).
		Preload("Ordritems.Menuitem").Preload("Ordritems.Notes").
		Where("id = ? AND restaurant_id = ?", id, rid).
		First(&o).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// RecalculateTotals prices the loaded order and stores the result.
func RecalculateTotals(tx *gorm.DB, o *model.Ordr) error {
	var taxes []model.Tax
	if err := tx.Where("restaurant_id = ?", o.RestaurantId).Order("sequence").Find(&taxes).Error; err != nil {
		return err
	}
	CalculateTotals(o.Ordritems, o.Ordercapacity, o.Menu.Covercharge, taxes, o.Tip).Apply(o)
	return tx.Model(o).Select("nett", "tax", "service", "tip", "covercharge", "gross").Updates(o).Error
}

// SmartmenuForOrder finds the table smartmenu an order belongs to.
func SmartmenuForOrder(db *gorm.DB, o *model.Ordr) (model.Smartmenu, bool) {
	var sm model.Smartmenu
	err := db.Preload("Restaurant").
		Where("restaurant_id = ? AND tablesetting_id = ?", o.RestaurantId, o.TablesettingId).
		First(&sm).Error
	return sm, err == nil
}

// OpenOrderForTable is the order a table's smartmenu currently shows.
func OpenOrderForTable(db *gorm.DB, sm model.Smartmenu) (*model.Ordr, error) {
	if sm.TablesettingId == nil {
		return nil, nil
	}
	var o model.Ordr
	err := db.Where("restaurant_id = ? AND tablesetting_id = ? AND status < ?", sm.RestaurantId, *sm.TablesettingId, model.OrderCodeClosed).
		Order("id DESC").First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return LoadOrder(db, o.RestaurantId, o.ID)
}

// StatusChange is what ChangeOrderStatus did, kept for the broadcasts sent
// after the transaction commits.
type StatusChange struct {
	Old          model.OrderStatus
	New          model.OrderStatus
	Tickets      []model.StationTicket
	Collected    []model.StationTicket
	CollectedOld []string
	Noop         bool
}

// ChangeOrderStatus applies a status change inside tx: it submits pending
// lines, enforces the bill rules, mirrors the status onto lines and clears
// station tickets once the order leaves the kitchen.
func ChangeOrderStatus(tx *gorm.DB, o *model.Ordr, to model.OrderStatus, now time.Time) (StatusChange, error) {
	from := o.StatusName()
	res := StatusChange{Old: from, New: to}

	if to == model.OrderBillRequested && BillSettled(from) {
		res.New, res.Noop = from, true
		return res, nil
	}
	if !CanAdvanceOrder(from, to) {
		return res, ErrInvalidTransition
	}
	if to == model.OrderPaid && from != model.OrderBillRequested && from != model.OrderPaid {
		return res, ErrMustBeBillRequested
	}

	if to == model.OrderOrdered || to == model.OrderBillRequested {
		tickets, err := SubmitUnsubmittedItems(tx, o)
		if err != nil {
			return res, err
		}
		res.Tickets = tickets
		if len(tickets) > 0 {
			if err := reloadItems(tx, o); err != nil {
				return res, err
			}
		}
	}
	if to == model.OrderBillRequested {
		if err := CheckRequestBill(o.Ordritems); err != nil {
			return res, err
		}
	}

	for _, it := range CascadeItems(o.Ordritems, to) {
		if err := tx.Model(&model.Ordritem{}).Where("id = ?", it.ID).Update("status", it.Status).Error; err != nil {
			return res, err
		}
	}

	o.Status = to.Code()
	StampStatus(o, to, now)
	if err := tx.Model(o).Select("status", "ordered_at", "bill_requested_at", "paid_at").Updates(o).Error; err != nil {
		return res, err
	}

	if ClearsTickets(to) {
		collected, old, err := CollectTickets(tx, o.ID)
		if err != nil {
			return res, err
		}
		res.Collected, res.CollectedOld = collected, old
	}
	res.Noop = from == to && len(res.Tickets) == 0
	return res, nil
}

func reloadItems(tx *gorm.DB, o *model.Ordr) error {
	o.Ordritems = nil
	return tx.Preload("Menuitem").Preload("Notes").Where("ordr_id = ?", o.ID).Order("id").Find(&o.Ordritems).Error
}

// AnnounceStatusChange sends the kitchen, station and order channel messages
// for a committed status change.
func AnnounceStatusChange(ctx context.Context, db *gorm.DB, o *model.Ordr, res StatusChange) {
	table := o.Tablesetting.Name
	for _, t := range res.Tickets {
		BroadcastNewTicket(ctx, t, table)
	}
	for i, t := range res.Collected {
		BroadcastTicketStatus(ctx, t, table, res.CollectedOld[i])
	}
	switch {
	case res.Old == model.OrderOpened && res.New != model.OrderOpened && !res.New.Terminal():
		BroadcastNewOrder(ctx, *o)
	case res.Old != res.New:
		BroadcastStatusChange(ctx, *o, res.Old)
	}
	PublishOrderState(ctx, db, o)
}

// PublishOrderState pushes the current order state to its smartmenu.
func PublishOrderState(ctx context.Context, db *gorm.DB, o *model.Ordr) {
	sm, ok := SmartmenuForOrder(db, o)
	if !ok {
		appLog.Debug("order_state_no_smartmenu", logger.Fields{"order_id": o.ID})
		st := BuildState(StateInput{Order: o})
		st.Session = nil
		publishJSON(ctx, OrderChannel(o.ID), StateEnvelope(st))
		return
	}
	BroadcastOrderState(ctx, sm, o)
}
