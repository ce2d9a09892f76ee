package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/honeynil/ecommerce-api/internal/models"
	pkgerrors "github.com/honeynil/ecommerce-api/pkg/errors"
)

var ErrEmptySecret = errors.New("JWT secret not set")

type tokenClaims struct {
	UserID    int64            `json:"user_id"`
	TokenType models.TokenType `json:"token_type"`
	jwt.RegisteredClaims
}

// TokenCodec signs and verifies HS256 access and refresh tokens. It holds no
// mutable state and is safe for concurrent use.
type TokenCodec struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

type CodecOption func(*TokenCodec)

// WithClock overrides the time source used for iat/exp and verification.
func WithClock(now func() time.Time) CodecOption {
	return func(c *TokenCodec) {
		c.now = now
	}
}

func NewTokenCodec(secret []byte, accessTTL, refreshTTL time.Duration, opts ...CodecOption) (*TokenCodec, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	c := &TokenCodec{
		secret:     secret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *TokenCodec) AccessTTL() time.Duration  { return c.accessTTL }
func (c *TokenCodec) RefreshTTL() time.Duration { return c.refreshTTL }

// IssueAccessToken issues an access token. Every token carries a random jti,
// so two tokens issued within the same second still differ.
func (c *TokenCodec) IssueAccessToken(userID int64) (string, error) {
	return c.issue(userID, models.TokenTypeAccess, c.accessTTL, uuid.NewString())
}

func (c *TokenCodec) IssueRefreshToken(userID int64) (string, error) {
	return c.issue(userID, models.TokenTypeRefresh, c.refreshTTL, uuid.NewString())
}

func (c *TokenCodec) issue(userID int64, typ models.TokenType, ttl time.Duration, jti string) (string, error) {
	now := c.now()
	claims := tokenClaims{
		UserID:    userID,
		TokenType: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        jti,
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", typ, err)
	}
	return signed, nil
}

// Verify checks signature, algorithm, expiry and claim shape. Every failure
// wraps pkgerrors.ErrInvalidToken. The blacklist is not consulted.
func (c *TokenCodec) Verify(token string) (*models.TokenClaims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(c.now),
	)

	var claims tokenClaims
	_, err := parser.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return c.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", pkgerrors.ErrInvalidToken, err)
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID != claims.UserID {
		return nil, fmt.Errorf("%w: invalid subject", pkgerrors.ErrInvalidToken)
	}

	switch claims.TokenType {
	case models.TokenTypeAccess:
	case models.TokenTypeRefresh:
		if claims.ID == "" {
			return nil, fmt.Errorf("%w: refresh token without jti", pkgerrors.ErrInvalidToken)
		}
	default:
		return nil, fmt.Errorf("%w: unknown token type %q", pkgerrors.ErrInvalidToken, claims.TokenType)
	}

	out := &models.TokenClaims{
		UserID:    userID,
		Type:      claims.TokenType,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	return out, nil
}

// VerifyType is Verify plus a token type check.
func (c *TokenCodec) VerifyType(token string, typ models.TokenType) (*models.TokenClaims, error) {
	claims, err := c.Verify(token)
	if err != nil {
		return nil, err
	}
	if claims.Type != typ {
		return nil, fmt.Errorf("%w: expected %s token, got %s", pkgerrors.ErrInvalidToken, typ, claims.Type)
	}
	return claims, nil
}
