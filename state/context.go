package state

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Item is one order line as the smartmenu state reports it.
type Item struct {
	ID         ID      `json:"id"`
	MenuitemID ID      `json:"menuitem_id"`
	Name       string  `json:"name,omitempty"`
	Status     string  `json:"status"`
	Price      float64 `json:"price"`
}

type Counts struct {
	AddedCount         int `json:"addedCount"`
	OrderedCount       int `json:"orderedCount"`
	TotalCount         int `json:"totalCount"`
	OpenedCount        int `json:"openedCount"`
	RemovedCount       int `json:"removedCount"`
	OrderedOnlyCount   int `json:"orderedOnlyCount"`
	PreparingCount     int `json:"preparingCount"`
	ReadyCount         int `json:"readyCount"`
	DeliveredCount     int `json:"deliveredCount"`
	BillrequestedCount int `json:"billrequestedCount"`
	PaidCount          int `json:"paidCount"`
	ClosedCount        int `json:"closedCount"`
}

type Order struct {
	ID     ID     `json:"id"`
	Status string `json:"status"`
	Items  []Item `json:"items"`
	Counts
}

type Currency struct {
	Code   string `json:"code"`
	Symbol string `json:"symbol"`
}

type Totals struct {
	Nett        float64  `json:"nett"`
	Tax         float64  `json:"tax"`
	Service     float64  `json:"service"`
	Tip         float64  `json:"tip"`
	Covercharge float64  `json:"covercharge"`
	Gross       float64  `json:"gross"`
	Currency    Currency `json:"currency"`
}

type Flags struct {
	MenuItemsEnabled    bool `json:"menuItemsEnabled"`
	DisplayStartOrder   bool `json:"displayStartOrder"`
	DisplayConfirmOrder bool `json:"displayConfirmOrder"`
	DisplayRequestBill  bool `json:"displayRequestBill"`
	DisplayPay          bool `json:"displayPay"`
	DisplayClose        bool `json:"displayClose"`
}

type Restaurant struct {
	ID                ID     `json:"id"`
	AllowAlcohol      bool   `json:"allowAlcohol"`
	AllowedNow        bool   `json:"allowedNow"`
	VerifyAgeText     string `json:"verifyAgeText"`
	SalesDisabledText string `json:"salesDisabledText"`
	PolicyBlockedText string `json:"policyBlockedText"`
}

type Participants struct {
	OrderParticipantID ID `json:"orderParticipantId"`
	MenuParticipantID  ID `json:"menuParticipantId"`
}

type Session struct {
	ID        string `json:"id"`
	Slug      string `json:"slug"`
	CSRFToken string `json:"csrfToken"`
}

// Context is the typed view of one smartmenu page: the current order plus
// the restaurant/table/menu it belongs to. It changes only through
// Store.ApplyStateUpdate.
type Context struct {
	Session      *Session     `json:"session"`
	Order        Order        `json:"order"`
	Totals       *Totals      `json:"totals"`
	Flags        Flags        `json:"flags"`
	TableID      ID           `json:"tableId"`
	EmployeeID   ID           `json:"employeeId"`
	MenuID       ID           `json:"menuId"`
	Restaurant   Restaurant   `json:"restaurant"`
	Participants Participants `json:"participants"`
	Version      int64        `json:"version"`
}

func (c Context) clone() Context {
	out := c
	if c.Order.Items != nil {
		out.Order.Items = append(make([]Item, 0, len(c.Order.Items)), c.Order.Items...)
	}
	if c.Session != nil {
		s := *c.Session
		out.Session = &s
	}
	if c.Totals != nil {
		t := *c.Totals
		out.Totals = &t
	}
	return out
}

// Payload is a decoded state update. Nil fields were absent (or null) and
// keep their previous value; HasOrder distinguishes an absent order key.
type Payload struct {
	Session      *Session
	HasOrder     bool
	Order        Order
	Totals       *Totals
	Flags        *Flags
	TableID      *ID
	EmployeeID   *ID
	MenuID       *ID
	Restaurant   *RestaurantPatch
	Participants *ParticipantsPatch
	Version      *int64
}

type RestaurantPatch struct {
	ID                *ID     `json:"id"`
	AllowAlcohol      *bool   `json:"allowAlcohol"`
	AllowedNow        *bool   `json:"allowedNow"`
	VerifyAgeText     *string `json:"verifyAgeText"`
	SalesDisabledText *string `json:"salesDisabledText"`
	PolicyBlockedText *string `json:"policyBlockedText"`
}

type ParticipantsPatch struct {
	OrderParticipantID *ID `json:"orderParticipantId"`
	MenuParticipantID  *ID `json:"menuParticipantId"`
}

var ErrNotState = errors.New("payload is not a state object")

// stateKeys are the fields whose presence makes a response "look like state".
var stateKeys = []string{"state", "order", "menuId", "tableId", "restaurant"}

// LooksLikeState reports whether a command response carries state worth applying.
func LooksLikeState(raw []byte) bool {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return false
	}
	for _, k := range stateKeys {
		if v, ok := m[k]; ok && !isNull(v) {
			return true
		}
	}
	return false
}

// ParsePayload decodes either {"state": {...}} or a bare state object.
func ParsePayload(raw []byte) (Payload, error) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrNotState, err)
	}
	if inner, ok := m["state"]; ok && !isNull(inner) {
		m = nil
		if err := json.Unmarshal(inner, &m); err != nil {
			return Payload{}, fmt.Errorf("%w: %v", ErrNotState, err)
		}
	}

	var p Payload
	var err error
	decode := func(key string, dst any) bool {
		v, ok := m[key]
		if !ok || isNull(v) || err != nil {
			return false
		}
		if e := json.Unmarshal(v, dst); e != nil {
			err = fmt.Errorf("state.%s: %w", key, e)
			return false
		}
		return true
	}

	var session Session
	if decode("session", &session) {
		p.Session = &session
	}
	if v, ok := m["order"]; ok {
		p.HasOrder = true
		if !isNull(v) {
			decode("order", &p.Order)
		}
	}
	var totals Totals
	if decode("totals", &totals) {
		p.Totals = &totals
	}
	var flags Flags
	if decode("flags", &flags) {
		p.Flags = &flags
	}
	p.TableID = decodeID("tableId", decode)
	p.EmployeeID = decodeID("employeeId", decode)
	p.MenuID = decodeID("menuId", decode)
	var rp RestaurantPatch
	if decode("restaurant", &rp) {
		p.Restaurant = &rp
	}
	var pp ParticipantsPatch
	if decode("participants", &pp) {
		p.Participants = &pp
	}
	var version int64
	if decode("version", &version) {
		p.Version = &version
	}
	if err != nil {
		return Payload{}, err
	}
	for i := range p.Order.Items {
		p.Order.Items[i].Status = strings.ToLower(p.Order.Items[i].Status)
	}
	return p, nil
}

func decodeID(key string, decode func(string, any) bool) *ID {
	var id ID
	if !decode(key, &id) {
		return nil
	}
	return &id
}

func isNull(v json.RawMessage) bool {
	return len(bytes.TrimSpace(v)) == 0 || string(bytes.TrimSpace(v)) == "null"
}

// PayloadFrom turns a full Context into a Payload that replaces every field.
func PayloadFrom(c Context) Payload {
	p := Payload{
		Session:    c.Session,
		HasOrder:   true,
		Order:      c.Order,
		Totals:     c.Totals,
		Flags:      &c.Flags,
		TableID:    &c.TableID,
		EmployeeID: &c.EmployeeID,
		MenuID:     &c.MenuID,
		Version:    &c.Version,
	}
	r := c.Restaurant
	p.Restaurant = &RestaurantPatch{
		ID: &r.ID, AllowAlcohol: &r.AllowAlcohol, AllowedNow: &r.AllowedNow,
		VerifyAgeText: &r.VerifyAgeText, SalesDisabledText: &r.SalesDisabledText, PolicyBlockedText: &r.PolicyBlockedText,
	}
	pt := c.Participants
	p.Participants = &ParticipantsPatch{OrderParticipantID: &pt.OrderParticipantID, MenuParticipantID: &pt.MenuParticipantID}
	return p
}
