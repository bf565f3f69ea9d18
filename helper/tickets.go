package helper

import (
	"time"

	"gorm.io/gorm"

	"smartmenu/board"
	"smartmenu/model"
)

// StationBatch is the set of lines one station ticket will carry.
type StationBatch struct {
	Station string
	Items   []model.Ordritem
}

// Unsubmitted lines are opened or ordered and not yet on a ticket.
func Unsubmitted(it model.Ordritem) bool {
	return it.StationTicketId == nil && (it.Status == model.ItemAdded || it.Status == model.ItemOrdered)
}

// GroupByStation splits unsubmitted lines by station, kitchen first.
// Lines need their Menuitem loaded to be routed.
func GroupByStation(items []model.Ordritem) []StationBatch {
	byStation := map[string][]model.Ordritem{}
	for _, it := range items {
		if !Unsubmitted(it) {
			continue
		}
		st := model.StationForItemtype(it.Menuitem.Itemtype)
		byStation[st] = append(byStation[st], it)
	}
	var out []StationBatch
	for _, st := range []string{model.StationKitchen, model.StationBar} {
		if len(byStation[st]) > 0 {
			out = append(out, StationBatch{Station: st, Items: byStation[st]})
		}
	}
	return out
}

// ShouldRollupReady reports whether every ticket is ready while the order is
// still in the preparation flow.
func ShouldRollupReady(s model.OrderStatus, tickets []model.StationTicket) bool {
	switch s {
	case model.OrderOpened, model.OrderOrdered, model.OrderPreparing:
	default:
		return false
	}
	if len(tickets) == 0 {
		return false
	}
	for _, t := range tickets {
		if t.Status != model.TicketReady && t.Status != model.TicketCollected {
			return false
		}
	}
	return true
}

func nextSequence(tx *gorm.DB, orderID uint, station string) (int, error) {
	var max int
	err := tx.Model(&model.StationTicket{}).
		Where("ordr_id = ? AND station = ?", orderID, station).
		Select("COALESCE(MAX(sequence), 0)").
		Scan(&max).Error
	return max + 1, err
}

// SubmitUnsubmittedItems creates one ticket per station for the order's
// unsubmitted lines, promotes opened lines to ordered and moves an opened
// order to ordered. The returned tickets carry their lines.
func SubmitUnsubmittedItems(tx *gorm.DB, order *model.Ordr) ([]model.StationTicket, error) {
	var items []model.Ordritem
	if err := tx.Preload("Menuitem").Preload("Notes").
		Where("ordr_id = ? AND status IN ? AND station_ticket_id IS NULL", order.ID, []int{model.ItemAdded, model.ItemOrdered}).
		Order("id").
		Find(&items).Error; err != nil {
		return nil, err
	}

	now := time.Now()
	var tickets []model.StationTicket
	for _, batch := range GroupByStation(items) {
		seq, err := nextSequence(tx, order.ID, batch.Station)
		if err != nil {
			return nil, err
		}
		ticket := model.StationTicket{
			RestaurantId: order.RestaurantId,
			OrdrId:       order.ID,
			Station:      batch.Station,
			Status:       model.TicketOrdered,
			Sequence:     seq,
			SubmittedAt:  now,
		}
		if err := tx.Create(&ticket).Error; err != nil {
			return nil, err
		}

		ids := make([]uint, 0, len(batch.Items))
		for i := range batch.Items {
			ids = append(ids, batch.Items[i].ID)
			batch.Items[i].StationTicketId = &ticket.ID
			batch.Items[i].Status = model.ItemOrdered
		}
		if err := tx.Model(&model.Ordritem{}).Where("id IN ?", ids).
			Updates(map[string]any{"station_ticket_id": ticket.ID, "status": model.ItemOrdered}).Error; err != nil {
			return nil, err
		}
		ticket.Ordritems = batch.Items
		tickets = append(tickets, ticket)
	}

	if len(tickets) > 0 && order.StatusName() == model.OrderOpened {
		order.Status = model.OrderCodeOrdered
		StampStatus(order, model.OrderOrdered, now)
		if err := tx.Model(order).Updates(map[string]any{"status": order.Status, "ordered_at": order.OrderedAt}).Error; err != nil {
			return nil, err
		}
	}
	return tickets, nil
}

// RollupOrderStatus moves the order to ready once all of its tickets are.
// Noop is set when nothing changed.
func RollupOrderStatus(tx *gorm.DB, order *model.Ordr, now time.Time) (StatusChange, error) {
	var tickets []model.StationTicket
	if err := tx.Where("ordr_id = ?", order.ID).Find(&tickets).Error; err != nil {
		return StatusChange{}, err
	}
	if !ShouldRollupReady(order.StatusName(), tickets) {
		return StatusChange{Old: order.StatusName(), New: order.StatusName(), Noop: true}, nil
	}
	return ChangeOrderStatus(tx, order, model.OrderReady, now)
}

// CollectTickets takes every open ticket of the order off the station boards
// and returns the tickets that changed together with their previous status.
func CollectTickets(tx *gorm.DB, orderID uint) ([]model.StationTicket, []string, error) {
	var tickets []model.StationTicket
	if err := tx.Where("ordr_id = ? AND status <> ?", orderID, model.TicketCollected).Find(&tickets).Error; err != nil {
		return nil, nil, err
	}
	old := make([]string, len(tickets))
	for i := range tickets {
		old[i] = tickets[i].Status
		tickets[i].Status = model.TicketCollected
		if err := tx.Model(&tickets[i]).Update("status", model.TicketCollected).Error; err != nil {
			return nil, nil, err
		}
	}
	return tickets, old, nil
}

func cardItems(items []model.Ordritem) []board.CardItem {
	out := make([]board.CardItem, 0, len(items))
	for _, it := range items {
		if it.Status == model.ItemRemoved {
			continue
		}
		ci := board.CardItem{Name: it.Menuitem.Name}
		for _, n := range it.Notes {
			ci.Notes = append(ci.Notes, n.Note)
		}
		out = append(out, ci)
	}
	return out
}

// TicketCardFor is the station payload of a ticket. Lines must be loaded
// with their Menuitem.
func TicketCardFor(t model.StationTicket, table string) board.TicketCard {
	return board.TicketCard{
		ID:        t.ID,
		OrderID:   t.OrdrId,
		Station:   t.Station,
		Status:    t.Status,
		Sequence:  t.Sequence,
		Table:     table,
		CreatedAt: t.CreatedAt,
		Items:     cardItems(t.Ordritems),
	}
}

// OrderCardFor is the kitchen payload of an order.
func OrderCardFor(o model.Ordr) board.OrderCard {
	items := cardItems(o.Ordritems)
	return board.OrderCard{
		ID:         o.ID,
		Status:     string(o.StatusName()),
		Table:      o.Tablesetting.Name,
		ItemsCount: len(items),
		Total:      o.Gross,
		OrderedAt:  o.OrderedAt,
		CreatedAt:  o.CreatedAt,
		Items:      items,
	}
}
