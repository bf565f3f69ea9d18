package helper

import (
	"context"
	"fmt"
	"time"

	"smartmenu/board"
	"smartmenu/constants"
	"smartmenu/model"
)

// QueueLimit bounds the orders carried by a queue_update.
const QueueLimit = 10

func KitchenChannel(rid uint) string { return fmt.Sprintf(constants.KitchenChannel, rid) }

func StationChannel(station string, rid uint) string {
	return fmt.Sprintf(constants.StationChannel, station, rid)
}

func OrderChannel(id uint) string { return fmt.Sprintf(constants.OrderChannel, id) }

func OrderSlugChannel(slug string) string { return fmt.Sprintf(constants.OrderSlugChannel, slug) }

func PresenceChannel(resource string, id uint) string {
	return fmt.Sprintf(constants.PresenceChannel, resource, id)
}

func BroadcastNewOrder(ctx context.Context, o model.Ordr) {
	card := OrderCardFor(o)
	publishJSON(ctx, KitchenChannel(o.RestaurantId), board.NewOrder{
		Header: board.NewHeader(board.EventNewOrder),
		Order:  &card,
	})
}

func BroadcastStatusChange(ctx context.Context, o model.Ordr, oldStatus model.OrderStatus) {
	card := OrderCardFor(o)
	publishJSON(ctx, KitchenChannel(o.RestaurantId), board.StatusChange{
		Header:    board.NewHeader(board.EventStatusChange),
		OrderID:   o.ID,
		OldStatus: string(oldStatus),
		NewStatus: string(o.StatusName()),
		Order:     &card,
	})
}

// BroadcastQueueUpdate sends the queue length and the first QueueLimit orders.
func BroadcastQueueUpdate(ctx context.Context, rid uint, orders []model.Ordr) {
	n := len(orders)
	cards := make([]board.OrderCard, 0, min(n, QueueLimit))
	for i := 0; i < n && i < QueueLimit; i++ {
		cards = append(cards, OrderCardFor(orders[i]))
	}
	publishJSON(ctx, KitchenChannel(rid), board.QueueUpdate{
		Header:      board.NewHeader(board.EventQueueUpdate),
		QueueLength: &n,
		Orders:      cards,
	})
}

// AlertSeverity is critical once stock is gone.
func AlertSeverity(level int) string {
	if level <= 0 {
		return "critical"
	}
	return "warning"
}

func BroadcastInventoryAlert(ctx context.Context, rid uint, itemName string, level, threshold int) {
	publishJSON(ctx, KitchenChannel(rid), board.InventoryAlert{
		Header:       board.NewHeader(board.EventInventoryAlert),
		ItemName:     itemName,
		CurrentLevel: level,
		Threshold:    threshold,
		Severity:     AlertSeverity(level),
	})
}

func BroadcastStaffAssignment(ctx context.Context, rid, orderID uint, staff board.Staff) {
	publishJSON(ctx, KitchenChannel(rid), board.StaffAssignment{
		Header:  board.NewHeader(board.EventStaffAssignment),
		OrderID: orderID,
		Staff:   &staff,
	})
}

func BroadcastMetrics(ctx context.Context, rid uint, metrics map[string]float64) {
	publishJSON(ctx, KitchenChannel(rid), board.MetricsUpdate{
		Header:  board.NewHeader(board.EventMetricsUpdate),
		Metrics: metrics,
	})
}

func BroadcastNewTicket(ctx context.Context, t model.StationTicket, table string) {
	card := TicketCardFor(t, table)
	publishJSON(ctx, StationChannel(t.Station, t.RestaurantId), board.NewTicket{
		Header: board.NewHeader(board.EventNewTicket),
		Ticket: &card,
	})
}

func BroadcastTicketStatus(ctx context.Context, t model.StationTicket, table, oldStatus string) {
	card := TicketCardFor(t, table)
	publishJSON(ctx, StationChannel(t.Station, t.RestaurantId), board.TicketStatusChange{
		Header:    board.NewHeader(board.EventStatusChange),
		Ticket:    &card,
		OldStatus: oldStatus,
		NewStatus: t.Status,
	})
}

// BroadcastOrderState pushes the order state to both order channels. The
// session block is left out so subscribers keep their own CSRF token.
func BroadcastOrderState(ctx context.Context, sm model.Smartmenu, o *model.Ordr) {
	st := BuildState(StateInput{Smartmenu: sm, Order: o})
	st.Session = nil
	msg := StateEnvelope(st)
	if o != nil {
		publishJSON(ctx, OrderChannel(o.ID), msg)
	}
	if sm.Slug != "" {
		publishJSON(ctx, OrderSlugChannel(sm.Slug), msg)
	}
}

// KitchenMetrics summarizes the active orders of a restaurant.
func KitchenMetrics(orders []model.Ordr, now time.Time) map[string]float64 {
	m := map[string]float64{"pending": 0, "preparing": 0, "ready": 0, "avg_wait_minutes": 0}
	var waited float64
	var timed int
	for _, o := range orders {
		switch o.StatusName() {
		case model.OrderOrdered:
			m["pending"]++
		case model.OrderPreparing:
			m["preparing"]++
		case model.OrderReady:
			m["ready"]++
		}
		if o.OrderedAt != nil {
			waited += now.Sub(*o.OrderedAt).Minutes()
			timed++
		}
	}
	if timed > 0 {
		m["avg_wait_minutes"] = round2(waited / float64(timed))
	}
	return m
}
