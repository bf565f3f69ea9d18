package model

import (
	"time"

	"gorm.io/datatypes"
)

const (
	VoicePending    = "pending"
	VoiceProcessing = "processing"
	VoiceCompleted  = "completed"
	VoiceFailed     = "failed"
)

type VoiceCommand struct {
	ID               string         `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
	SmartmenuSlug    string         `gorm:"index;size:120" json:"smartmenuSlug"`
	RestaurantId     uint           `json:"restaurantId"`
	MenuId           uint           `json:"menuId"`
	OrdrId           *uint          `json:"ordrId,omitempty"`
	Locale           string         `gorm:"size:10" json:"locale"`
	Transcript       string         `json:"transcript"`
	Audio            []byte         `gorm:"type:bytea" json:"-"`
	AudioContentType string         `json:"-"`
	Status           string         `gorm:"size:16;index;default:'pending'" json:"status"`
	Intent           datatypes.JSON `json:"intent,omitempty"`
	ErrorMessage     string         `json:"error,omitempty"`
}

// Terminal reports whether polling can stop.
func (v *VoiceCommand) Terminal() bool {
	return v.Status == VoiceCompleted || v.Status == VoiceFailed
}

type CreateVoiceCommandInput struct {
	Transcript   string `json:"transcript" form:"transcript" validate:"omitempty,max=1000"`
	Locale       string `json:"locale" form:"locale" validate:"omitempty,max=10"`
	RestaurantId uint   `json:"restaurant_id" form:"restaurant_id" validate:"omitempty,gt=0"`
	MenuId       uint   `json:"menu_id" form:"menu_id" validate:"omitempty,gt=0"`
	OrdrId       uint   `json:"order_id" form:"order_id" validate:"omitempty,gt=0"`
}
