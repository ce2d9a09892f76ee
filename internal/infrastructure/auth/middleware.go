package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/honeynil/ecommerce-api/internal/models"
)

type contextKey string

const userIDKey contextKey = "user_id"

// UserIDFromContext returns the id set by AuthMiddleware.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok
}

func ContextWithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// AuthMiddleware accepts an access token from the Authorization header
// ("Bearer <token>") or, failing that, from the access cookie. Access tokens
// are not checked against the blacklist.
func AuthMiddleware(codec *TokenCodec, cookies *CookieTransport) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				writeUnauthorized(w, "invalid authorization header")
				return
			}
			if tokenStr == "" && cookies != nil {
				tokenStr = cookies.ReadAccessToken(r)
			}
			if tokenStr == "" {
				writeUnauthorized(w, "authentication credentials were not provided")
				return
			}

			claims, err := codec.VerifyType(tokenStr, models.TokenTypeAccess)
			if err != nil {
				slog.Warn("rejected access token", "path", r.URL.Path, "error", err)
				writeUnauthorized(w, "invalid token")
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithUserID(r.Context(), claims.UserID)))
		})
	}
}

// bearerToken returns ("", true) for an absent header and ok=false for a
// header that is present but not a bearer credential.
func bearerToken(header string) (string, bool) {
	if header == "" {
		return "", true
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

func writeUnauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
