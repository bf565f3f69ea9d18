package board

import (
	"sort"
	"sync"
	"time"

	"smartmenu/model"
)

type Kind int

const (
	Kitchen Kind = iota
	Station
)

type Column string

const (
	Pending   Column = "pending"
	Preparing Column = "preparing"
	Ready     Column = "ready"
)

var Columns = []Column{Pending, Preparing, Ready}

const (
	headerOrdered   = "bg-danger-subtle"
	headerPreparing = "bg-warning-subtle"
	headerReady     = "bg-success-subtle"
)

// Action is the footer button of a card.
type Action struct {
	Label      string
	NextStatus string
}

// Card is one order (kitchen) or station ticket on the board.
type Card struct {
	ID        uint
	OrderID   uint
	Status    string
	Table     string
	CreatedAt time.Time
	Items     []CardItem
	Header    string
	Action    Action
}

// Outcome reports what a status change did to the board.
type Outcome int

const (
	Missing Outcome = iota
	Unchanged
	Moved
	Removed
	Ignored
	Inserted
)

// Board is the projection of a kitchen or station dashboard: three status
// columns with cards newest first, badge counts and the metric tiles.
type Board struct {
	mu      sync.Mutex
	kind    Kind
	cols    map[Column][]*Card
	at      map[uint]Column
	metrics map[Column]int
	stats   map[string]float64
	alerts  []InventoryAlert
	staff   map[uint]Staff
}

const maxAlerts = 20

func New(kind Kind) *Board {
	return &Board{
		kind:    kind,
		cols:    map[Column][]*Card{},
		at:      map[uint]Column{},
		metrics: map[Column]int{},
		stats:   map[string]float64{},
		staff:   map[uint]Staff{},
	}
}

func (b *Board) Kind() Kind { return b.kind }

// ColumnFor maps a status onto its column.
func ColumnFor(status string) (Column, bool) {
	switch status {
	case model.TicketOrdered:
		return Pending, true
	case model.TicketPreparing:
		return Preparing, true
	case model.TicketReady:
		return Ready, true
	}
	return "", false
}

// Terminal statuses take a card off the board.
func (b *Board) Terminal(status string) bool {
	if b.kind == Station {
		return status == model.TicketCollected
	}
	return model.OrderStatus(status).Terminal()
}

func (b *Board) actionFor(status string) Action {
	switch status {
	case model.TicketOrdered:
		return Action{Label: "Start Preparing", NextStatus: model.TicketPreparing}
	case model.TicketPreparing:
		return Action{Label: "Mark Ready", NextStatus: model.TicketReady}
	case model.TicketReady:
		next := string(model.OrderDelivered)
		if b.kind == Station {
			next = model.TicketCollected
		}
		return Action{Label: "Mark as Collected", NextStatus: next}
	}
	return Action{}
}

func headerFor(status string) string {
	switch status {
	case model.TicketPreparing:
		return headerPreparing
	case model.TicketReady:
		return headerReady
	}
	return headerOrdered
}

func (b *Board) decorate(c *Card) {
	c.Header = headerFor(c.Status)
	c.Action = b.actionFor(c.Status)
}

// Insert puts a card at the top of its status column and reports Inserted.
// A card already on the board is moved instead and the Move outcome is
// returned. Statuses without a column are Ignored.
func (b *Board) Insert(c Card) Outcome {
	col, ok := ColumnFor(c.Status)
	if !ok {
		return Ignored
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.at[c.ID]; exists {
		return b.moveLocked(c.ID, c.Status)
	}
	card := c
	card.Items = append([]CardItem(nil), c.Items...)
	b.decorate(&card)
	b.cols[col] = append([]*Card{&card}, b.cols[col]...)
	b.at[c.ID] = col
	return Inserted
}

// Load replaces the board content with an initial snapshot, keeping order.
func (b *Board) Load(cards []Card) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cols = map[Column][]*Card{}
	b.at = map[uint]Column{}
	for _, c := range cards {
		col, ok := ColumnFor(c.Status)
		if !ok {
			continue
		}
		if _, dup := b.at[c.ID]; dup {
			continue
		}
		card := c
		b.decorate(&card)
		b.cols[col] = append(b.cols[col], &card)
		b.at[c.ID] = col
	}
	for _, col := range Columns {
		b.metrics[col] = len(b.cols[col])
	}
}

// Move applies a status change to an existing card.
func (b *Board) Move(id uint, status string) Outcome {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.moveLocked(id, status)
}

func (b *Board) moveLocked(id uint, status string) Outcome {
	from, ok := b.at[id]
	if !ok {
		return Missing
	}
	idx := b.indexOf(from, id)
	card := b.cols[from][idx]

	to, onBoard := ColumnFor(status)
	if !onBoard {
		if !b.Terminal(status) && b.kind == Kitchen {
			return Ignored
		}
		b.removeAt(from, idx)
		delete(b.at, id)
		return Removed
	}
	if card.Status == status && from == to {
		return Unchanged
	}
	card.Status = status
	b.decorate(card)
	if from != to {
		b.removeAt(from, idx)
		b.cols[to] = append(b.cols[to], card)
		b.at[id] = to
	}
	return Moved
}

func (b *Board) indexOf(col Column, id uint) int {
	for i, c := range b.cols[col] {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func (b *Board) removeAt(col Column, idx int) {
	cards := b.cols[col]
	b.cols[col] = append(cards[:idx:idx], cards[idx+1:]...)
}

// Card returns a copy of the card with id.
func (b *Board) Card(id uint) (Card, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	col, ok := b.at[id]
	if !ok {
		return Card{}, false
	}
	return *b.cols[col][b.indexOf(col, id)], true
}

// ColumnOf reports where a card currently sits.
func (b *Board) ColumnOf(id uint) (Column, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	col, ok := b.at[id]
	return col, ok
}

// Cards lists a column top to bottom.
func (b *Board) Cards(col Column) []Card {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Card, 0, len(b.cols[col]))
	for _, c := range b.cols[col] {
		out = append(out, *c)
	}
	return out
}

// Badge is the number of cards in a column.
func (b *Board) Badge(col Column) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.cols[col])
}

// EmptyVisible reports whether the column placeholder is shown.
func (b *Board) EmptyVisible(col Column) bool {
	return b.Badge(col) == 0
}

// Sort orders a column by creation time, oldest first when asc.
func (b *Board) Sort(col Column, asc bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	cards := b.cols[col]
	sort.SliceStable(cards, func(i, j int) bool {
		if asc {
			return cards[i].CreatedAt.Before(cards[j].CreatedAt)
		}
		return cards[i].CreatedAt.After(cards[j].CreatedAt)
	})
}

// AdjustMetric changes a metric tile, never below zero.
func (b *Board) AdjustMetric(col Column, delta int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.metrics[col] = max(0, b.metrics[col]+delta)
}

func (b *Board) SetMetric(col Column, v int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.metrics[col] = max(0, v)
}

func (b *Board) Metric(col Column) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.metrics[col]
}

// SetStats replaces the free-form metrics pushed by metrics_update.
func (b *Board) SetStats(m map[string]float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stats = make(map[string]float64, len(m))
	for k, v := range m {
		b.stats[k] = v
	}
}

func (b *Board) Stats() map[string]float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[string]float64, len(b.stats))
	for k, v := range b.stats {
		out[k] = v
	}
	return out
}

// AddAlert keeps the most recent inventory alerts, newest first.
func (b *Board) AddAlert(a InventoryAlert) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.alerts = append([]InventoryAlert{a}, b.alerts...)
	if len(b.alerts) > maxAlerts {
		b.alerts = b.alerts[:maxAlerts]
	}
}

func (b *Board) Alerts() []InventoryAlert {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]InventoryAlert(nil), b.alerts...)
}

func (b *Board) Assign(orderID uint, s Staff) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.staff[orderID] = s
}

func (b *Board) Assignment(orderID uint) (Staff, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.staff[orderID]
	return s, ok
}

// CanTransition reports whether staff may move a station ticket from one
// status to the next.
func CanTransition(from, to string) bool {
	next, ok := model.NextTicketStatus(from)
	return ok && next == to
}
