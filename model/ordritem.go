package model

// Ordritem status codes.
const (
	ItemAdded     = 0
	ItemRemoved   = 10
	ItemOrdered   = 20
	ItemPrepared  = 30
	ItemDelivered = 40
)

// ItemStatusName is the lowercase label used in state payloads.
func ItemStatusName(code int) string {
	switch code {
	case ItemAdded:
		return "opened"
	case ItemRemoved:
		return "removed"
	case ItemOrdered:
		return "ordered"
	case ItemPrepared:
		return "prepared"
	case ItemDelivered:
		return "delivered"
	}
	return "unknown"
}

type Ordritem struct {
	DTO
	OrdrId          uint           `gorm:"index;not null" json:"ordrId"`
	MenuitemId      uint           `gorm:"index;not null" json:"menuitemId"`
	Ordritemprice   float64        `json:"ordritemprice"`
	Status          int            `gorm:"not null;default:0" json:"status"`
	StationTicketId *uint          `gorm:"index" json:"stationTicketId,omitempty"`
	Menuitem        Menuitem       `gorm:"foreignKey:MenuitemId" json:"-"`
	Notes           []OrdritemNote `gorm:"foreignKey:OrdritemId" json:"notes,omitempty"`
}

type OrdritemNote struct {
	DTO
	OrdritemId uint   `gorm:"index;not null" json:"ordritemId"`
	Note       string `json:"note"`
}

// Ordritemprice arrives as "5.50" from the smartmenu client, PriceString accepts both forms.
type CreateOrdritemInput struct {
	OrdrId        uint        `json:"ordr_id" validate:"required,gt=0"`
	MenuitemId    uint        `json:"menuitem_id" validate:"required,gt=0"`
	Status        int         `json:"status" validate:"oneof=0 20"`
	Ordritemprice PriceString `json:"ordritemprice"`
	Note          string      `json:"note" validate:"omitempty,max=500"`
}

type UpdateOrdritemInput struct {
	Status        *int         `json:"status" validate:"omitempty,oneof=0 10 20 30 40"`
	Ordritemprice *PriceString `json:"ordritemprice"`
}
