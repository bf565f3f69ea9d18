package state

import (
	"strings"
	"sync"
)

// Attribute keys understood by the fallback sources.
const (
	AttrOrderID      = "orderId"
	AttrOrderStatus  = "orderStatus"
	AttrTableID      = "tableId"
	AttrMenuID       = "menuId"
	AttrEmployeeID   = "employeeId"
	AttrRestaurantID = "restaurantId"
	AttrSlug         = "smartmenuId"
)

// Attrs is a flat key/value source such as the page bootstrap attributes.
type Attrs map[string]string

func (a Attrs) get(key string) string {
	if a == nil {
		return ""
	}
	return strings.TrimSpace(a[key])
}

// Store holds the single current order view of a smartmenu page.
//
// Every accessor resolves through the same chain: live state first, then
// the legacy attributes, then the dataset attributes captured at page load.
type Store struct {
	mu       sync.RWMutex
	ctx      Context
	hydrated bool
	legacy   Attrs
	dataset  Attrs
	spinner  bool
	bus      *Bus
}

func NewStore(bus *Bus, dataset Attrs) *Store {
	if bus == nil {
		bus = NewBus()
	}
	return &Store{bus: bus, dataset: dataset}
}

func (s *Store) Bus() *Bus { return s.bus }

// Listen applies every state:update published on the bus until the
// returned func is called.
func (s *Store) Listen() func() {
	return s.bus.Subscribe(TopicStateUpdate, func(ev Event) {
		switch p := ev.Payload.(type) {
		case Payload:
			s.ApplyStateUpdate(p)
		case *Payload:
			if p != nil {
				s.ApplyStateUpdate(*p)
			}
		case []byte:
			_ = s.ApplyStateJSON(p)
		case Context:
			s.ApplyStateUpdate(PayloadFrom(p))
		}
	})
}

// ApplyStateUpdate replaces the context with p. Fields absent from p keep
// their previous values; an absent order key preserves the previous order.
func (s *Store) ApplyStateUpdate(p Payload) Context {
	s.mu.Lock()
	prev := s.ctx
	next := Context{
		Session:      prev.Session,
		Order:        prev.Order,
		Totals:       prev.Totals,
		Flags:        prev.Flags,
		TableID:      prev.TableID,
		EmployeeID:   prev.EmployeeID,
		MenuID:       prev.MenuID,
		Restaurant:   prev.Restaurant,
		Participants: prev.Participants,
		Version:      prev.Version,
	}
	if p.Session != nil {
		next.Session = p.Session
	}
	if p.HasOrder {
		next.Order = p.Order
		if next.Order.Items == nil {
			next.Order.Items = []Item{}
		}
	}
	if p.Totals != nil {
		next.Totals = p.Totals
	}
	if p.Flags != nil {
		next.Flags = *p.Flags
	}
	if p.TableID != nil {
		next.TableID = *p.TableID
	}
	if p.EmployeeID != nil {
		next.EmployeeID = *p.EmployeeID
	}
	if p.MenuID != nil {
		next.MenuID = *p.MenuID
	}
	if r := p.Restaurant; r != nil {
		if r.ID != nil {
			next.Restaurant.ID = *r.ID
		}
		if r.AllowAlcohol != nil {
			next.Restaurant.AllowAlcohol = *r.AllowAlcohol
		}
		if r.AllowedNow != nil {
			next.Restaurant.AllowedNow = *r.AllowedNow
		}
		if r.VerifyAgeText != nil {
			next.Restaurant.VerifyAgeText = *r.VerifyAgeText
		}
		if r.SalesDisabledText != nil {
			next.Restaurant.SalesDisabledText = *r.SalesDisabledText
		}
		if r.PolicyBlockedText != nil {
			next.Restaurant.PolicyBlockedText = *r.PolicyBlockedText
		}
	}
	if pt := p.Participants; pt != nil {
		if pt.OrderParticipantID != nil {
			next.Participants.OrderParticipantID = *pt.OrderParticipantID
		}
		if pt.MenuParticipantID != nil {
			next.Participants.MenuParticipantID = *pt.MenuParticipantID
		}
	}
	if p.Version != nil {
		next.Version = *p.Version
	}
	s.ctx = next.clone()
	s.hydrated = true
	out := s.ctx.clone()
	s.mu.Unlock()

	s.bus.Publish(TopicStateChanged, out)
	return out
}

// ApplyStateJSON decodes raw and applies it.
func (s *Store) ApplyStateJSON(raw []byte) error {
	p, err := ParsePayload(raw)
	if err != nil {
		return err
	}
	s.ApplyStateUpdate(p)
	return nil
}

// Snapshot returns a copy of the live context.
func (s *Store) Snapshot() Context {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ctx.clone()
}

// Hydrated reports whether any state update has been applied yet.
func (s *Store) Hydrated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hydrated
}

// SetLegacy installs the legacy attribute source (older page nodes).
func (s *Store) SetLegacy(a Attrs) {
	s.mu.Lock()
	s.legacy = a
	s.mu.Unlock()
}

// SetDataset replaces the dataset source, as when the page context element changes.
func (s *Store) SetDataset(a Attrs) {
	s.mu.Lock()
	s.dataset = a
	out := s.ctx.clone()
	s.mu.Unlock()
	s.bus.Publish(TopicStateChanged, out)
}

// SetSpinner is the only field changed outside ApplyStateUpdate.
func (s *Store) SetSpinner(on bool) {
	s.mu.Lock()
	s.spinner = on
	s.mu.Unlock()
}

func (s *Store) Spinner() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.spinner
}

func (s *Store) resolveID(live ID, key string) (ID, bool) {
	if live != 0 {
		return live, true
	}
	if id, ok := ParseID(s.legacy.get(key)); ok {
		return id, true
	}
	return ParseID(s.dataset.get(key))
}

func (s *Store) CurrentOrderID() (ID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resolveID(s.ctx.Order.ID, AttrOrderID)
}

func (s *Store) CurrentTableID() (ID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resolveID(s.ctx.TableID, AttrTableID)
}

func (s *Store) CurrentMenuID() (ID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resolveID(s.ctx.MenuID, AttrMenuID)
}

func (s *Store) CurrentEmployeeID() (ID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resolveID(s.ctx.EmployeeID, AttrEmployeeID)
}

func (s *Store) RestaurantID() (ID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resolveID(s.ctx.Restaurant.ID, AttrRestaurantID)
}

// CurrentOrderStatus is lowercased, "" when unknown.
func (s *Store) CurrentOrderStatus() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if st := strings.TrimSpace(s.ctx.Order.Status); st != "" {
		return strings.ToLower(st)
	}
	if st := s.legacy.get(AttrOrderStatus); st != "" {
		return strings.ToLower(st)
	}
	return strings.ToLower(s.dataset.get(AttrOrderStatus))
}

// Slug is the smartmenu slug used for state refetches and voice commands.
func (s *Store) Slug() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.ctx.Session != nil && s.ctx.Session.Slug != "" {
		return s.ctx.Session.Slug
	}
	if v := s.legacy.get(AttrSlug); v != "" {
		return v
	}
	return s.dataset.get(AttrSlug)
}

// CSRFToken comes from the session state.
func (s *Store) CSRFToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.ctx.Session == nil {
		return ""
	}
	return s.ctx.Session.CSRFToken
}

// OrderItems returns a copy of the current order lines in snapshot order.
func (s *Store) OrderItems() []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Item(nil), s.ctx.Order.Items...)
}

// Flags of the live context.
func (s *Store) Flags() Flags {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ctx.Flags
}
