package models

import "time"

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	IsActive     bool      `json:"is_active"`
	IsStaff      bool      `json:"is_staff"`
	DateJoined   time.Time `json:"date_joined"`
}

// ProfileUpdate holds the user fields that may be changed through the profile
// endpoint. Nil fields are left untouched.
type ProfileUpdate struct {
	FirstName *string
	LastName  *string
	Email     *string
}
