package handlers

import (
	"encoding/json"
	"net/http"

	"stay-web/internal/apiclient"
	"stay-web/internal/middleware"
	"stay-web/internal/models"
	"stay-web/internal/services"
	"stay-web/internal/session"

	"github.com/rs/zerolog/log"
)

// AuthHandler handles login state for browser callers
type AuthHandler struct {
	client *apiclient.Client
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(client *apiclient.Client) *AuthHandler {
	return &AuthHandler{client: client}
}

// UserResponse wraps the current user, which may be null
type UserResponse struct {
	User  *models.User `json:"user"`
	Token string       `json:"token,omitempty"`
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := services.Validate(req); err != nil {
		respondAPIError(w, r, err)
		return
	}

	user, err := h.client.Login(r.Context(), req)
	if err != nil {
		log.Info().Err(err).Str("email", req.Email).Msg("Login rejected")
		respondAPIError(w, r, err)
		return
	}

	h.respondAuthenticated(w, r, user)
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := services.Validate(req); err != nil {
		respondAPIError(w, r, err)
		return
	}

	user, err := h.client.Register(r.Context(), req)
	if err != nil {
		respondAPIError(w, r, err)
		return
	}

	log.Info().Int64("user_id", user.ID).Msg("User registered")
	h.respondAuthenticated(w, r, user)
}

func (h *AuthHandler) respondAuthenticated(w http.ResponseWriter, r *http.Request, user *models.User) {
	var token string
	if s := session.FromContext(r.Context()); s != nil {
		token = s.Token(r.Context())
	}
	if token != "" {
		middleware.SetTokenCookie(w, token)
	}

	respondJSON(w, http.StatusOK, UserResponse{User: user, Token: token})
}

// Logout handles POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.client.Logout(r.Context()); err != nil {
		respondAPIError(w, r, err)
		return
	}

	middleware.ClearTokenCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.client.CurrentUser(r.Context())
	if err != nil {
		respondAPIError(w, r, err)
		return
	}
	if user == nil {
		middleware.ClearStaleToken(w, r)
	}

	respondJSON(w, http.StatusOK, UserResponse{User: user})
}
