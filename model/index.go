package model

import (
	"time"

	"gorm.io/gorm"
)

type DTO struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TokenClaim is what the staff JWT carries.
type TokenClaim struct {
	UserId       uint   `json:"sub"`
	Email        string `json:"email"`
	RestaurantId uint   `json:"restaurantId"`
}

// Pagination is read from ?limit=&page=. Both must be set to take effect.
type Pagination struct {
	Limit *int `json:"limit" query:"limit"`
	Page  *int `json:"page" query:"page"`
}

// Tables lists every persisted model in migration order.
func Tables() []any {
	return []any{
		&Restaurant{},
		&Menu{},
		&Menuitem{},
		&Tablesetting{},
		&Smartmenu{},
		&Tax{},
		&Ordr{},
		&StationTicket{},
		&Ordritem{},
		&OrdritemNote{},
		&VoiceCommand{},
		&PaymentAttempt{},
	}
}
