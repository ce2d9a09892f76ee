package models

import "time"

// BlacklistEntry marks a refresh token id (jti) as permanently rejected.
type BlacklistEntry struct {
	TokenID       string    `json:"jti"`
	UserID        int64     `json:"user_id"`
	ExpiresAt     time.Time `json:"expires_at"`
	BlacklistedAt time.Time `json:"blacklisted_at"`
}
