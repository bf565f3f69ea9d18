package board

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

var ErrInvalidEvent = errors.New("board: invalid event")

var validate = validator.New()

// Event names carried in the "event" field of channel messages.
const (
	EventNewOrder        = "new_order"
	EventStatusChange    = "status_change"
	EventQueueUpdate     = "queue_update"
	EventInventoryAlert  = "inventory_alert"
	EventStaffAssignment = "staff_assignment"
	EventMetricsUpdate   = "metrics_update"
	EventNewTicket       = "new_ticket"
)

// Header is shared by every channel message.
type Header struct {
	Event     string `json:"event"`
	Timestamp string `json:"timestamp,omitempty"`
}

func NewHeader(event string) Header {
	return Header{Event: event, Timestamp: time.Now().UTC().Format(time.RFC3339)}
}

type CardItem struct {
	Name  string   `json:"name"`
	Notes []string `json:"notes,omitempty"`
}

// OrderCard is the order payload of kitchen messages and of the order detail
// endpoint used for self-healing.
type OrderCard struct {
	ID         uint       `json:"id" validate:"required"`
	Status     string     `json:"status"`
	Table      string     `json:"table,omitempty"`
	ItemsCount int        `json:"items_count"`
	Total      float64    `json:"total"`
	OrderedAt  *time.Time `json:"ordered_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	Items      []CardItem `json:"items,omitempty"`
}

type TicketCard struct {
	ID        uint       `json:"id" validate:"required"`
	OrderID   uint       `json:"order_id"`
	Station   string     `json:"station,omitempty"`
	Status    string     `json:"status"`
	Sequence  int        `json:"sequence,omitempty"`
	Table     string     `json:"table,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	Items     []CardItem `json:"items,omitempty"`
}

type Staff struct {
	ID    uint   `json:"id" validate:"required"`
	Email string `json:"email"`
}

// KitchenEvent is one of the *NewOrder, *StatusChange, *QueueUpdate,
// *InventoryAlert, *StaffAssignment or *MetricsUpdate messages.
type KitchenEvent interface {
	kitchenEvent()
}

// StationEvent is either *NewTicket or *TicketStatusChange.
type StationEvent interface {
	stationEvent()
}

type NewOrder struct {
	Header
	Order *OrderCard `json:"order" validate:"required"`
}

type StatusChange struct {
	Header
	OrderID   uint       `json:"order_id" validate:"required"`
	OldStatus string     `json:"old_status"`
	NewStatus string     `json:"new_status" validate:"required"`
	Order     *OrderCard `json:"order,omitempty"`
}

type QueueUpdate struct {
	Header
	QueueLength *int        `json:"queue_length" validate:"required,min=0"`
	Orders      []OrderCard `json:"orders,omitempty"`
}

type InventoryAlert struct {
	Header
	ItemName     string `json:"item_name" validate:"required"`
	CurrentLevel int    `json:"current_level"`
	Threshold    int    `json:"threshold"`
	Severity     string `json:"severity"`
}

type StaffAssignment struct {
	Header
	OrderID uint   `json:"order_id" validate:"required"`
	Staff   *Staff `json:"staff" validate:"required"`
}

type MetricsUpdate struct {
	Header
	Metrics map[string]float64 `json:"metrics" validate:"required"`
}

type NewTicket struct {
	Header
	Ticket *TicketCard `json:"ticket" validate:"required"`
}

type TicketStatusChange struct {
	Header
	Ticket    *TicketCard `json:"ticket" validate:"required"`
	OldStatus string      `json:"old_status"`
	NewStatus string      `json:"new_status" validate:"required"`
}

func (*NewOrder) kitchenEvent()        {}
func (*StatusChange) kitchenEvent()    {}
func (*QueueUpdate) kitchenEvent()     {}
func (*InventoryAlert) kitchenEvent()  {}
func (*StaffAssignment) kitchenEvent() {}
func (*MetricsUpdate) kitchenEvent()   {}

func (*NewTicket) stationEvent()          {}
func (*TicketStatusChange) stationEvent() {}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidEvent, fmt.Sprintf(format, args...))
}

func eventName(raw []byte) (string, error) {
	var h Header
	if err := json.Unmarshal(raw, &h); err != nil {
		return "", invalid("%v", err)
	}
	if h.Event == "" {
		return "", invalid("missing event")
	}
	return h.Event, nil
}

func decodeInto(raw []byte, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return invalid("%v", err)
	}
	if err := validate.Struct(v); err != nil {
		return invalid("%v", err)
	}
	return nil
}

// DecodeKitchenEvent validates a kitchen channel message and returns its
// concrete type.
func DecodeKitchenEvent(raw []byte) (KitchenEvent, error) {
	name, err := eventName(raw)
	if err != nil {
		return nil, err
	}
	var ev KitchenEvent
	switch name {
	case EventNewOrder:
		ev = &NewOrder{}
	case EventStatusChange:
		ev = &StatusChange{}
	case EventQueueUpdate:
		ev = &QueueUpdate{}
	case EventInventoryAlert:
		ev = &InventoryAlert{}
	case EventStaffAssignment:
		ev = &StaffAssignment{}
	case EventMetricsUpdate:
		ev = &MetricsUpdate{}
	default:
		return nil, invalid("unknown kitchen event %q", name)
	}
	if err := decodeInto(raw, ev); err != nil {
		return nil, err
	}
	return ev, nil
}

// DecodeStationEvent validates a station channel message.
func DecodeStationEvent(raw []byte) (StationEvent, error) {
	name, err := eventName(raw)
	if err != nil {
		return nil, err
	}
	switch name {
	case EventNewTicket:
		ev := &NewTicket{}
		if err := decodeInto(raw, ev); err != nil {
			return nil, err
		}
		if ev.Ticket.Status == "" {
			return nil, invalid("new_ticket %d without status", ev.Ticket.ID)
		}
		return ev, nil
	case EventStatusChange:
		ev := &TicketStatusChange{}
		if err := decodeInto(raw, ev); err != nil {
			return nil, err
		}
		return ev, nil
	}
	return nil, invalid("unknown station event %q", name)
}
