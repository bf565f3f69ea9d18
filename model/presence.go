package model

import "time"

const (
	PresenceActive  = "active"
	PresenceIdle    = "idle"
	PresenceOffline = "offline"
)

// Presence is both the Redis record and the channel payload.
type Presence struct {
	UserId     uint      `json:"user_id"`
	Email      string    `json:"email"`
	Status     string    `json:"status"`
	Event      string    `json:"event"`
	Resource   string    `json:"resource,omitempty"`
	ResourceId uint      `json:"resource_id,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

type PresenceInput struct {
	Resource   string `json:"resource" validate:"required,oneof=kitchen bar restaurant menu"`
	ResourceId uint   `json:"resource_id" validate:"required,gt=0"`
	Event      string `json:"event" validate:"required,oneof=appear away disconnect"`
}
