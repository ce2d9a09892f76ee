package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/honeynil/ecommerce-api/internal/infrastructure/auth"
	"github.com/honeynil/ecommerce-api/internal/infrastructure/observability"
	"github.com/honeynil/ecommerce-api/internal/models"
	service "github.com/honeynil/ecommerce-api/internal/services"
	pkgerrors "github.com/honeynil/ecommerce-api/pkg/errors"
)

type Handler struct {
	auth    service.AuthService
	users   service.UserService
	cookies *auth.CookieTransport
}

func NewHandler(authService service.AuthService, userService service.UserService, cookies *auth.CookieTransport) *Handler {
	return &Handler{
		auth:    authService,
		users:   userService,
		cookies: cookies,
	}
}

type errorResponse struct {
	Error  string              `json:"error"`
	Fields map[string][]string `json:"fields,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// authResponse is returned by register and login. Tokens is nil in cookie mode.
type authResponse struct {
	User   *models.User      `json:"user"`
	Tokens *models.TokenPair `json:"tokens,omitempty"`
}

func (h *Handler) RegisterPublicRoutes(r *mux.Router) {
	r.HandleFunc("/register", h.Register).Methods(http.MethodPost)
	r.HandleFunc("/login", h.Login).Methods(http.MethodPost)
	r.HandleFunc("/token/refresh", h.Refresh).Methods(http.MethodPost)
	r.HandleFunc("/logout", h.Logout).Methods(http.MethodPost)
}

func (h *Handler) RegisterProtectedRoutes(r *mux.Router) {
	r.HandleFunc("/change-password", h.ChangePassword).Methods(http.MethodPost)
	r.HandleFunc("/me", h.CurrentUser).Methods(http.MethodGet)
	r.HandleFunc("/me", h.UpdateProfile).Methods(http.MethodPatch)
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, http.StatusBadRequest, err)
		return
	}

	user, err := h.auth.Register(r.Context(), service.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	pair, err := h.auth.IssueTokenPair(user)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeAuthResponse(w, http.StatusCreated, user, pair, req.UseCookies)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, http.StatusBadRequest, err)
		return
	}

	user, pair, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeAuthResponse(w, http.StatusOK, user, pair, req.UseCookies)
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, http.StatusBadRequest, err)
		return
	}

	token, _, fromCookie := h.cookies.ReadRefreshToken(r, req.Refresh)
	if token == "" {
		h.writeError(w, r, http.StatusBadRequest, errors.New("refresh token is required"))
		return
	}

	pair, err := h.auth.Refresh(r.Context(), token)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrInvalidToken) {
			h.writeError(w, r, http.StatusUnauthorized, pkgerrors.ErrInvalidToken)
			return
		}
		h.writeServiceError(w, r, err)
		return
	}

	if req.UseCookies || fromCookie {
		h.cookies.WriteTokens(w, pair)
		writeJSON(w, http.StatusOK, messageResponse{Message: "token refreshed"})
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, http.StatusBadRequest, err)
		return
	}

	token, _, _ := h.cookies.ReadRefreshToken(r, req.Refresh)
	if token == "" {
		h.writeError(w, r, http.StatusBadRequest, errors.New("refresh token is required"))
		return
	}

	if err := h.auth.Logout(r.Context(), token); err != nil {
		if errors.Is(err, pkgerrors.ErrInvalidToken) {
			h.writeError(w, r, http.StatusBadRequest, pkgerrors.ErrInvalidToken)
			return
		}
		h.writeServiceError(w, r, err)
		return
	}

	h.cookies.ClearTokens(w)
	writeJSON(w, http.StatusOK, messageResponse{Message: "logged out"})
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.writeError(w, r, http.StatusUnauthorized, errors.New("user not authenticated"))
		return
	}

	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, http.StatusBadRequest, err)
		return
	}

	if err := h.auth.ChangePassword(r.Context(), userID, req.OldPassword, req.NewPassword); err != nil {
		if errors.Is(err, pkgerrors.ErrUserNotFound) {
			h.writeError(w, r, http.StatusUnauthorized, err)
			return
		}
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "password changed successfully"})
}

func (h *Handler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.writeError(w, r, http.StatusUnauthorized, errors.New("user not authenticated"))
		return
	}

	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		// The token outlived its user.
		if errors.Is(err, pkgerrors.ErrUserNotFound) {
			h.writeError(w, r, http.StatusUnauthorized, err)
			return
		}
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.writeError(w, r, http.StatusUnauthorized, errors.New("user not authenticated"))
		return
	}

	var req updateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, http.StatusBadRequest, err)
		return
	}

	user, err := h.users.UpdateProfile(r.Context(), userID, models.ProfileUpdate{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
	})
	if err != nil {
		if errors.Is(err, pkgerrors.ErrUserNotFound) {
			h.writeError(w, r, http.StatusUnauthorized, err)
			return
		}
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (h *Handler) writeAuthResponse(w http.ResponseWriter, status int, user *models.User, pair models.TokenPair, useCookies bool) {
	resp := authResponse{User: user}
	if useCookies {
		h.cookies.WriteTokens(w, pair)
	} else {
		resp.Tokens = &pair
	}
	writeJSON(w, status, resp)
}

// writeServiceError maps domain errors to HTTP statuses. Anything unknown is
// a 500 and its message is not exposed.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, pkgerrors.ErrValidation),
		errors.Is(err, pkgerrors.ErrDuplicateEmail),
		errors.Is(err, pkgerrors.ErrIncorrectPassword):
		h.writeError(w, r, http.StatusBadRequest, err)
	case errors.Is(err, pkgerrors.ErrInvalidCredentials):
		h.writeError(w, r, http.StatusUnauthorized, err)
	case errors.Is(err, pkgerrors.ErrAccountDisabled):
		h.writeError(w, r, http.StatusForbidden, err)
	case errors.Is(err, pkgerrors.ErrInvalidToken):
		h.writeError(w, r, http.StatusUnauthorized, pkgerrors.ErrInvalidToken)
	case errors.Is(err, pkgerrors.ErrUserNotFound):
		h.writeError(w, r, http.StatusNotFound, err)
	default:
		observability.Logger(r.Context()).Error("request failed", "path", r.URL.Path, "error", err)
		h.writeError(w, r, http.StatusInternalServerError, errors.New("internal server error"))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	resp := errorResponse{Error: err.Error()}
	var verr *pkgerrors.ValidationError
	if errors.As(err, &verr) {
		resp.Fields = verr.Fields
	}
	if status < http.StatusInternalServerError {
		observability.Logger(r.Context()).Debug("request rejected", "path", r.URL.Path, "status", status, "error", err)
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
