package model

import "time"

const (
	StationKitchen = "kitchen"
	StationBar     = "bar"
)

const (
	TicketOrdered   = "ordered"
	TicketPreparing = "preparing"
	TicketReady     = "ready"
	TicketCollected = "collected"
)

var ticketNext = map[string]string{
	TicketOrdered:   TicketPreparing,
	TicketPreparing: TicketReady,
	TicketReady:     TicketCollected,
}

// NextTicketStatus is the only forward step allowed from status.
func NextTicketStatus(status string) (string, bool) {
	next, ok := ticketNext[status]
	return next, ok
}

func StationForItemtype(itemtype string) string {
	if itemtype == ItemFood {
		return StationKitchen
	}
	return StationBar
}

type StationTicket struct {
	DTO
	RestaurantId uint       `gorm:"index;not null" json:"restaurantId"`
	OrdrId       uint       `gorm:"index;not null" json:"ordrId"`
	Station      string     `gorm:"size:16;not null" json:"station"`
	Status       string     `gorm:"size:16;not null;default:'ordered'" json:"status"`
	Sequence     int        `gorm:"not null" json:"sequence"`
	SubmittedAt  time.Time  `json:"submittedAt"`
	Ordr         Ordr       `gorm:"foreignKey:OrdrId" json:"-"`
	Ordritems    []Ordritem `gorm:"foreignKey:StationTicketId" json:"-"`
}

type UpdateTicketStatusInput struct {
	Status string `json:"status" validate:"required,oneof=preparing ready collected"`
}

type UpdateKitchenStatusInput struct {
	Status string `json:"status" validate:"required,oneof=preparing ready delivered"`
}

type AssignStaffInput struct {
	StaffId uint   `json:"staff_id" validate:"required,gt=0"`
	Email   string `json:"email" validate:"omitempty,email"`
}

type InventoryAlertInput struct {
	ItemName     string `json:"item_name" validate:"required,max=120"`
	CurrentLevel int    `json:"current_level" validate:"min=0"`
	Threshold    int    `json:"threshold" validate:"min=0"`
}
