package board

import (
	"context"
	"fmt"
	"strconv"

	"golang.org/x/sync/singleflight"

	"smartmenu/logger"
	"smartmenu/model"
)

// Notifier plays the new-card chime and raises desktop notifications.
type Notifier interface {
	Chime()
	Desktop(title, body string)
}

type NopNotifier struct{}

func (NopNotifier) Chime()                {}
func (NopNotifier) Desktop(string, string) {}

type OrderFetcher interface {
	FetchOrder(ctx context.Context, id uint) (*OrderCard, error)
}

type TicketFetcher interface {
	FetchTicket(ctx context.Context, id uint) (*TicketCard, error)
}

// OrderCardToCard projects an order payload onto a kitchen card.
func OrderCardToCard(o OrderCard) Card {
	return Card{
		ID:        o.ID,
		OrderID:   o.ID,
		Status:    o.Status,
		Table:     o.Table,
		CreatedAt: o.CreatedAt,
		Items:     o.Items,
	}
}

// TicketCardToCard projects a station ticket payload onto a card.
func TicketCardToCard(t TicketCard) Card {
	return Card{
		ID:        t.ID,
		OrderID:   t.OrderID,
		Status:    t.Status,
		Table:     t.Table,
		CreatedAt: t.CreatedAt,
		Items:     t.Items,
	}
}

// KitchenReconciler applies kitchen channel events to a board. It tolerates
// duplicated and reordered delivery: replays are no-ops and a status change
// for an unknown order fetches and materializes the card once.
type KitchenReconciler struct {
	board  *Board
	fetch  OrderFetcher
	notify Notifier
	log    *logger.Logger
	heal   singleflight.Group
}

func NewKitchenReconciler(b *Board, fetch OrderFetcher, notify Notifier, log *logger.Logger) *KitchenReconciler {
	if notify == nil {
		notify = NopNotifier{}
	}
	if log == nil {
		log = logger.Discard("kitchen")
	}
	return &KitchenReconciler{board: b, fetch: fetch, notify: notify, log: log}
}

func (k *KitchenReconciler) Board() *Board { return k.board }

// HandleMessage decodes and applies one raw channel message.
func (k *KitchenReconciler) HandleMessage(ctx context.Context, raw []byte) error {
	ev, err := DecodeKitchenEvent(raw)
	if err != nil {
		k.log.Warn("decode_event", err, logger.Fields{"payload": string(raw)})
		return err
	}
	return k.Apply(ctx, ev)
}

func (k *KitchenReconciler) Apply(ctx context.Context, ev KitchenEvent) error {
	switch e := ev.(type) {
	case *NewOrder:
		k.addOrder(*e.Order)
	case *StatusChange:
		return k.statusChange(ctx, e)
	case *QueueUpdate:
		k.board.SetMetric(Pending, *e.QueueLength)
	case *InventoryAlert:
		k.board.AddAlert(*e)
		if e.CurrentLevel == 0 {
			k.notify.Desktop("Out of Stock: "+e.ItemName, fmt.Sprintf("%s is out of stock", e.ItemName))
		}
	case *StaffAssignment:
		k.board.Assign(e.OrderID, *e.Staff)
	case *MetricsUpdate:
		k.board.SetStats(e.Metrics)
	default:
		return fmt.Errorf("%w: %T", ErrInvalidEvent, ev)
	}
	return nil
}

// settleMetrics keeps the column counts in step with a Move outcome for a
// card that sat in oldCol before.
func settleMetrics(b *Board, out Outcome, oldCol Column, hadOld bool, status string) {
	if !hadOld {
		return
	}
	switch out {
	case Removed:
		b.AdjustMetric(oldCol, -1)
	case Moved:
		if newCol, _ := ColumnFor(status); newCol != oldCol {
			b.AdjustMetric(oldCol, -1)
			b.AdjustMetric(newCol, 1)
		}
	}
}

func (k *KitchenReconciler) addOrder(o OrderCard) bool {
	if _, ok := ColumnFor(o.Status); !ok {
		o.Status = model.TicketOrdered
	}
	col, _ := ColumnFor(o.Status)
	oldCol, hadOld := k.board.ColumnOf(o.ID)
	if out := k.board.Insert(OrderCardToCard(o)); out != Inserted {
		settleMetrics(k.board, out, oldCol, hadOld, o.Status)
		return false
	}
	k.board.AdjustMetric(col, 1)
	k.notify.Chime()
	k.notify.Desktop("New Order", fmt.Sprintf("Order #%d received", o.ID))
	return true
}

func (k *KitchenReconciler) statusChange(ctx context.Context, e *StatusChange) error {
	oldCol, hadOld := k.board.ColumnOf(e.OrderID)
	if out := k.board.Move(e.OrderID, e.NewStatus); out != Missing {
		settleMetrics(k.board, out, oldCol, hadOld, e.NewStatus)
		return nil
	}
	if _, relevant := ColumnFor(e.NewStatus); !relevant {
		return nil
	}
	return k.selfHeal(ctx, e)
}

// selfHeal materializes a card the board never saw created. Concurrent heals
// for the same order share one fetch; the broadcast status wins over the
// fetched one.
func (k *KitchenReconciler) selfHeal(ctx context.Context, e *StatusChange) error {
	_, err, _ := k.heal.Do(strconv.FormatUint(uint64(e.OrderID), 10), func() (any, error) {
		if _, exists := k.board.ColumnOf(e.OrderID); exists {
			return nil, nil
		}
		var order *OrderCard
		var err error
		if k.fetch != nil {
			order, err = k.fetch.FetchOrder(ctx, e.OrderID)
		}
		if order == nil {
			if e.Order == nil {
				if err == nil {
					err = fmt.Errorf("order %d: no fetcher", e.OrderID)
				}
				k.log.Error("self_heal", err, logger.Fields{"order_id": e.OrderID})
				return nil, err
			}
			k.log.Warn("self_heal", err, logger.Fields{"order_id": e.OrderID, "fallback": "event payload"})
			order = e.Order
		}
		o := *order
		o.ID = e.OrderID
		o.Status = e.NewStatus
		k.addOrder(o)
		return nil, nil
	})
	return err
}

// StationReconciler applies station channel events to a board.
type StationReconciler struct {
	station string
	board   *Board
	fetch   TicketFetcher
	notify  Notifier
	log     *logger.Logger
	heal    singleflight.Group
}

func NewStationReconciler(station string, b *Board, fetch TicketFetcher, notify Notifier, log *logger.Logger) *StationReconciler {
	if notify == nil {
		notify = NopNotifier{}
	}
	if log == nil {
		log = logger.Discard("station")
	}
	return &StationReconciler{station: station, board: b, fetch: fetch, notify: notify, log: log}
}

func (s *StationReconciler) Board() *Board { return s.board }

func (s *StationReconciler) Station() string { return s.station }

func (s *StationReconciler) HandleMessage(ctx context.Context, raw []byte) error {
	ev, err := DecodeStationEvent(raw)
	if err != nil {
		s.log.Warn("decode_event", err, logger.Fields{"station": s.station, "payload": string(raw)})
		return err
	}
	return s.Apply(ctx, ev)
}

func (s *StationReconciler) Apply(ctx context.Context, ev StationEvent) error {
	switch e := ev.(type) {
	case *NewTicket:
		s.addTicket(*e.Ticket)
		return nil
	case *TicketStatusChange:
		return s.statusChange(ctx, e.Ticket.ID, e.NewStatus, e.Ticket)
	}
	return fmt.Errorf("%w: %T", ErrInvalidEvent, ev)
}

func (s *StationReconciler) addTicket(t TicketCard) bool {
	col, ok := ColumnFor(t.Status)
	if !ok {
		return false
	}
	oldCol, hadOld := s.board.ColumnOf(t.ID)
	if out := s.board.Insert(TicketCardToCard(t)); out != Inserted {
		settleMetrics(s.board, out, oldCol, hadOld, t.Status)
		return false
	}
	s.board.AdjustMetric(col, 1)
	s.notify.Chime()
	s.notify.Desktop("New Ticket", fmt.Sprintf("Order #%d for %s", t.OrderID, s.station))
	return true
}

func (s *StationReconciler) statusChange(ctx context.Context, id uint, status string, ticket *TicketCard) error {
	oldCol, hadOld := s.board.ColumnOf(id)
	if out := s.board.Move(id, status); out != Missing {
		settleMetrics(s.board, out, oldCol, hadOld, status)
		return nil
	}
	if _, relevant := ColumnFor(status); !relevant {
		return nil
	}
	_, err, _ := s.heal.Do(strconv.FormatUint(uint64(id), 10), func() (any, error) {
		if _, exists := s.board.ColumnOf(id); exists {
			return nil, nil
		}
		t := *ticket
		if s.fetch != nil {
			fetched, err := s.fetch.FetchTicket(ctx, id)
			if err != nil {
				s.log.Warn("self_heal", err, logger.Fields{"ticket_id": id, "fallback": "event payload"})
			} else if fetched != nil {
				t = *fetched
			}
		}
		t.ID = id
		t.Status = status
		s.addTicket(t)
		return nil, nil
	})
	return err
}

// TicketUpdater persists a ticket status chosen by staff.
type TicketUpdater interface {
	UpdateTicketStatus(ctx context.Context, id uint, status string) error
}

// Advance moves a ticket one step forward on behalf of staff. The board is
// updated before the request so the later broadcast is a replay.
func (s *StationReconciler) Advance(ctx context.Context, up TicketUpdater, id uint, to string) error {
	card, ok := s.board.Card(id)
	if !ok {
		return fmt.Errorf("ticket %d is not on the board", id)
	}
	if !CanTransition(card.Status, to) {
		return fmt.Errorf("ticket %d: %s -> %s not allowed", id, card.Status, to)
	}
	if err := s.statusChange(ctx, id, to, &TicketCard{ID: id}); err != nil {
		return err
	}
	if err := up.UpdateTicketStatus(ctx, id, to); err != nil {
		s.log.Error("update_ticket_status", err, logger.Fields{"ticket_id": id, "status": to})
		return err
	}
	return nil
}

type OrderUpdater interface {
	UpdateOrderStatus(ctx context.Context, id uint, status string) error
}

// Advance sends the card's footer action. The kitchen board moves the card
// when the resulting status_change arrives.
func (k *KitchenReconciler) Advance(ctx context.Context, up OrderUpdater, id uint) error {
	card, ok := k.board.Card(id)
	if !ok || card.Action.NextStatus == "" {
		return fmt.Errorf("order %d has no pending kitchen action", id)
	}
	if err := up.UpdateOrderStatus(ctx, id, card.Action.NextStatus); err != nil {
		k.log.Error("update_order_status", err, logger.Fields{"order_id": id, "status": card.Action.NextStatus})
		return err
	}
	return nil
}
