package main

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"focusService/internal/auth"
)

// AuthHandler handles registration, login, and profile requests.
type AuthHandler struct {
	authRepo auth.AuthRepository
	log      zerolog.Logger
}

func NewAuthHandler(authRepo auth.AuthRepository, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		authRepo: authRepo,
		log:      log.With().Str("component", "auth_handler").Logger(),
	}
}

func (h *AuthHandler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	h.register(w, r, auth.RoleUser)
}

// RegisterAdminUser creates an ADMIN account; exposed for development setups.
func (h *AuthHandler) RegisterAdminUser(w http.ResponseWriter, r *http.Request) {
	h.register(w, r, auth.RoleAdmin)
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request, role string) {
	var req auth.NewUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON", "Failed to parse request body")
		return
	}
	if strings.TrimSpace(req.Username) == "" || strings.TrimSpace(req.Password) == "" || strings.TrimSpace(req.Email) == "" {
		writeError(w, http.StatusBadRequest, "Validation error", "username, password and email are required")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to hash password")
		writeError(w, http.StatusInternalServerError, "Failed to create user", "Internal server error")
		return
	}

	user := &auth.User{
		Username:     req.Username,
		Email:        req.Email,
		Role:         role,
		PasswordHash: hash,
	}
	if err := h.authRepo.CreateUser(r.Context(), user); err != nil {
		h.log.Warn().Err(err).Str("username", req.Username).Msg("failed to create user")
		if strings.Contains(err.Error(), "already exists") {
			writeError(w, http.StatusConflict, "User already exists", err.Error())
			return
		}
		if strings.Contains(err.Error(), "required") || strings.Contains(err.Error(), "invalid email") {
			writeError(w, http.StatusBadRequest, "Validation error", err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to create user", "Internal server error")
		return
	}

	token, err := auth.GenerateJWT(user)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to generate token")
		writeError(w, http.StatusInternalServerError, "Failed to generate token", "Internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"user":  user,
		"token": token,
	})
}

func (h *AuthHandler) LoginUser(w http.ResponseWriter, r *http.Request) {
	var creds auth.UserLoginCredentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON", "Failed to parse request body")
		return
	}

	ok, err := h.authRepo.AuthenticateUser(r.Context(), creds.Username, creds.Password)
	if err != nil || !ok {
		writeError(w, http.StatusUnauthorized, "Invalid credentials", "")
		return
	}

	user, err := h.authRepo.GetUserInfo(r.Context(), creds.Username)
	if err != nil {
		h.log.Error().Err(err).Str("username", creds.Username).Msg("failed to load user after login")
		writeError(w, http.StatusInternalServerError, "Login failed", "Internal server error")
		return
	}

	token, err := auth.GenerateJWT(user)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to generate token")
		writeError(w, http.StatusInternalServerError, "Failed to generate token", "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, auth.UserLoginResponse{Token: token})
}

func (h *AuthHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	_, username, _, ok := auth.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated", "")
		return
	}

	user, err := h.authRepo.GetUserInfo(r.Context(), username)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load profile", "")
		return
	}
	writeJSON(w, http.StatusOK, user)
}
