package models

import "time"

type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// TokenClaims is the verified content of an access or refresh token.
// Every token carries a TokenID; only refresh ids are ever blacklisted.
type TokenClaims struct {
	UserID    int64
	Type      TokenType
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenPair is returned by login, registration and refresh. Refresh is empty
// when an operation produces only an access token.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}
