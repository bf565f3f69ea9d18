package model

import (
	"strconv"
	"strings"
	"time"
)

type OrderStatus string

const (
	OrderOpened        OrderStatus = "opened"
	OrderOrdered       OrderStatus = "ordered"
	OrderPreparing     OrderStatus = "preparing"
	OrderReady         OrderStatus = "ready"
	OrderDelivered     OrderStatus = "delivered"
	OrderBillRequested OrderStatus = "billrequested"
	OrderPaid          OrderStatus = "paid"
	OrderClosed        OrderStatus = "closed"
)

// Numeric status codes as sent in ordr PATCH bodies.
const (
	OrderCodeOpened        = 0
	OrderCodeOrdered       = 20
	OrderCodePreparing     = 22
	OrderCodeReady         = 24
	OrderCodeDelivered     = 25
	OrderCodeBillRequested = 30
	OrderCodePaid          = 35
	OrderCodeClosed        = 40
)

var orderCodes = map[int]OrderStatus{
	OrderCodeOpened:        OrderOpened,
	OrderCodeOrdered:       OrderOrdered,
	OrderCodePreparing:     OrderPreparing,
	OrderCodeReady:         OrderReady,
	OrderCodeDelivered:     OrderDelivered,
	OrderCodeBillRequested: OrderBillRequested,
	OrderCodePaid:          OrderPaid,
	OrderCodeClosed:        OrderClosed,
}

// OrderStatusFromCode maps a numeric code to its name, ok is false for unknown codes.
func OrderStatusFromCode(code int) (OrderStatus, bool) {
	s, ok := orderCodes[code]
	return s, ok
}

func (s OrderStatus) Code() int {
	for code, name := range orderCodes {
		if name == s {
			return code
		}
	}
	return -1
}

// ParseOrderStatus accepts either the name ("Ordered", "billrequested") or the numeric code ("20").
func ParseOrderStatus(v string) (OrderStatus, bool) {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return "", false
	}
	if n, err := strconv.Atoi(v); err == nil {
		return OrderStatusFromCode(n)
	}
	s := OrderStatus(v)
	if s.Code() < 0 {
		return "", false
	}
	return s, true
}

// Terminal statuses take an order off the kitchen board.
func (s OrderStatus) Terminal() bool {
	switch s {
	case OrderDelivered, OrderBillRequested, OrderPaid, OrderClosed:
		return true
	}
	return false
}

// AcceptsItems reports whether lines may still be attached.
func (s OrderStatus) AcceptsItems() bool {
	return s != OrderBillRequested && s != OrderClosed && s != OrderPaid
}

type Ordr struct {
	DTO
	RestaurantId    uint            `gorm:"index;not null" json:"restaurantId"`
	MenuId          uint            `gorm:"index;not null" json:"menuId"`
	TablesettingId  uint            `gorm:"index;not null" json:"tablesettingId"`
	EmployeeId      *uint           `json:"employeeId,omitempty"`
	Ordercapacity   int             `gorm:"default:1" json:"ordercapacity"`
	Status          int             `gorm:"not null;default:0" json:"status"`
	Nett            float64         `json:"nett"`
	Tax             float64         `json:"tax"`
	Service         float64         `json:"service"`
	Tip             float64         `json:"tip"`
	Covercharge     float64         `json:"covercharge"`
	Gross           float64         `json:"gross"`
	OrderedAt       *time.Time      `json:"orderedAt,omitempty"`
	BillRequestedAt *time.Time      `json:"billRequestedAt,omitempty"`
	PaidAt          *time.Time      `json:"paidAt,omitempty"`
	ReceiptEmail    string          `json:"receiptEmail,omitempty"`
	Ordritems       []Ordritem      `gorm:"foreignKey:OrdrId" json:"ordritems,omitempty"`
	Restaurant      Restaurant      `gorm:"foreignKey:RestaurantId" json:"-"`
	Menu            Menu            `gorm:"foreignKey:MenuId" json:"-"`
	Tablesetting    Tablesetting    `gorm:"foreignKey:TablesettingId" json:"-"`
	StationTickets  []StationTicket `gorm:"foreignKey:OrdrId" json:"-"`
}

func (o *Ordr) StatusName() OrderStatus {
	s, ok := OrderStatusFromCode(o.Status)
	if !ok {
		return OrderOpened
	}
	return s
}

type CreateOrdrInput struct {
	TablesettingId uint  `json:"tablesetting_id" validate:"required,gt=0"`
	RestaurantId   uint  `json:"restaurant_id" validate:"required,gt=0"`
	MenuId         uint  `json:"menu_id" validate:"required,gt=0"`
	Ordercapacity  int   `json:"ordercapacity" validate:"omitempty,min=1,max=50"`
	Status         int   `json:"status" validate:"oneof=0"`
	EmployeeId     *uint `json:"employee_id" validate:"omitempty,gt=0"`
}

type UpdateOrdrInput struct {
	TablesettingId *uint    `json:"tablesetting_id" validate:"omitempty,gt=0"`
	RestaurantId   *uint    `json:"restaurant_id" validate:"omitempty,gt=0"`
	MenuId         *uint    `json:"menu_id" validate:"omitempty,gt=0"`
	EmployeeId     *uint    `json:"employee_id" validate:"omitempty,gt=0"`
	Status         *int     `json:"status" validate:"omitempty,oneof=0 20 22 24 25 30 35 40"`
	Tip            *float64 `json:"tip" validate:"omitempty,min=0"`
	ReceiptEmail   string   `json:"receipt_email" validate:"omitempty,email"`
}
