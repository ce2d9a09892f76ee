package auth

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/honeynil/ecommerce-api/internal/config"
	"github.com/honeynil/ecommerce-api/internal/models"
)

// accessCookieMaxAge matches the access token lifetime.
const accessCookieMaxAge = 300 * time.Second

// CookieTransport delivers tokens through HTTP cookies instead of JSON fields.
// Set and clear use identical Path, SameSite, Secure and HttpOnly attributes,
// otherwise browsers keep the old cookie.
type CookieTransport struct {
	accessName    string
	refreshName   string
	secure        bool
	httpOnly      bool
	sameSite      http.SameSite
	refreshMaxAge time.Duration
	now           func() time.Time
}

func NewCookieTransport(cfg config.CookieConfig) *CookieTransport {
	if cfg.SameSite == http.SameSiteNoneMode && !cfg.Secure {
		slog.Warn("SameSite=None cookies without Secure are rejected by browsers")
	}
	return &CookieTransport{
		accessName:    cfg.AccessTokenName,
		refreshName:   cfg.RefreshTokenName,
		secure:        cfg.Secure,
		httpOnly:      cfg.HTTPOnly,
		sameSite:      cfg.SameSite,
		refreshMaxAge: cfg.MaxAge,
		now:           time.Now,
	}
}

func (c *CookieTransport) AccessCookieName() string  { return c.accessName }
func (c *CookieTransport) RefreshCookieName() string { return c.refreshName }

// WriteTokens sets the access cookie and, when the pair carries one, the
// refresh cookie.
func (c *CookieTransport) WriteTokens(w http.ResponseWriter, tokens models.TokenPair) {
	http.SetCookie(w, c.cookie(c.accessName, tokens.Access, accessCookieMaxAge))
	if tokens.Refresh != "" {
		http.SetCookie(w, c.cookie(c.refreshName, tokens.Refresh, c.refreshMaxAge))
	}
	w.Header().Set("Cache-Control", "no-store")
}

// ClearTokens expires both cookies.
func (c *CookieTransport) ClearTokens(w http.ResponseWriter) {
	for _, name := range []string{c.refreshName, c.accessName} {
		ck := c.cookie(name, "", 0)
		ck.MaxAge = -1
		ck.Expires = time.Unix(0, 0)
		http.SetCookie(w, ck)
	}
	w.Header().Set("Cache-Control", "no-store")
}

// ReadRefreshToken prefers the refresh cookie and falls back to the value
// sent in the request body. The cookie name is returned so the caller can
// answer in cookie mode.
func (c *CookieTransport) ReadRefreshToken(r *http.Request, fallback string) (token, cookieName string, fromCookie bool) {
	if ck, err := r.Cookie(c.refreshName); err == nil && ck.Value != "" {
		return ck.Value, c.refreshName, true
	}
	return fallback, c.refreshName, false
}

func (c *CookieTransport) ReadAccessToken(r *http.Request) string {
	if ck, err := r.Cookie(c.accessName); err == nil {
		return ck.Value
	}
	return ""
}

func (c *CookieTransport) cookie(name, value string, maxAge time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		Expires:  c.now().Add(maxAge).UTC(),
		Secure:   c.secure,
		HttpOnly: c.httpOnly,
		SameSite: c.sameSite,
	}
}
