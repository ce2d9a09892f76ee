package models

type AccountEventType string

const (
	EventUserRegistered  AccountEventType = "user_registered"
	EventPasswordChanged AccountEventType = "password_changed"
	EventUserLoggedOut   AccountEventType = "user_logged_out"
)

// AccountEvent is published to Kafka after account state changes.
type AccountEvent struct {
	EventType AccountEventType `json:"event_type"`
	UserID    int64            `json:"user_id"`
	Email     string           `json:"email,omitempty"`
	CreatedAt string           `json:"created_at"`
}
