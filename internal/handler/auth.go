package handler

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"tripshare/internal/httputil"
	"tripshare/internal/logger"
	"tripshare/internal/model"
	"tripshare/internal/service"
	"tripshare/internal/transport/http/middleware"
)

// AuthHandler groups auth-related HTTP endpoints and their dependencies.
type AuthHandler struct {
	userService *service.UserService
	verifier    *service.CredentialVerifier
	tokens      *service.TokenService
	log         zerolog.Logger
}

// NewAuthHandler wires dependencies for authentication endpoints.
func NewAuthHandler(userService *service.UserService, verifier *service.CredentialVerifier, tokens *service.TokenService) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		verifier:    verifier,
		tokens:      tokens,
		log:         logger.For("AuthHandler"),
	}
}

// Register handles sign-up
// POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterInput
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.userService.Register(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.log, "Register", err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, user)
}

// Login verifies credentials and issues a session
// POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	identity, err := h.verifier.Verify(r.Context(), req.Username, req.Password)
	if err != nil {
		writeServiceError(w, h.log, "Login", err)
		return
	}

	tokenPair, err := h.tokens.Issue(r.Context(), identity, r.Header.Get("User-Agent"), httputil.ClientIP(r))
	if err != nil {
		h.log.Error().Err(err).Str("user", identity.ID).Msg("Login: token issue FAILED")
		httputil.WriteInternalError(w, "Failed to generate tokens")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, model.LoginResponse{
		User:         identity,
		AccessToken:  tokenPair.AccessToken,
		RefreshToken: tokenPair.RefreshToken,
		ExpiresIn:    tokenPair.ExpiresIn,
	})
}

// Me returns the currently authenticated user
// GET /me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	user, err := h.userService.GetByID(r.Context(), userID)
	if err != nil {
		writeServiceError(w, h.log, "Me", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, user)
}

// Refresh rotates the token pair
// POST /auth/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req model.RefreshRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.RefreshToken == "" {
		httputil.WriteBadRequest(w, "Refresh token is required")
		return
	}

	tokenPair, _, err := h.tokens.Refresh(r.Context(), req.RefreshToken, r.Header.Get("User-Agent"), httputil.ClientIP(r))
	if err != nil {
		switch {
		case errors.Is(err, model.ErrRefreshTokenNotFound):
			httputil.WriteUnauthorizedWithCode(w, model.CodeTokenInvalid, "Invalid refresh token")
		case errors.Is(err, model.ErrRefreshTokenExpired):
			httputil.WriteUnauthorizedWithCode(w, model.CodeTokenExpired, "Refresh token has expired")
		case errors.Is(err, model.ErrRefreshTokenReused):
			httputil.WriteUnauthorizedWithCode(w, model.CodeTokenReused, "Refresh token reuse detected. Please login again.")
		default:
			h.log.Error().Err(err).Msg("Refresh FAILED")
			httputil.WriteInternalError(w, "Failed to refresh tokens")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, tokenPair)
}

// Logout revokes one refresh token
// POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req model.LogoutRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.RefreshToken == "" {
		httputil.WriteBadRequest(w, "Refresh token is required")
		return
	}

	// an unknown token still counts as logged out
	if err := h.tokens.Revoke(r.Context(), req.RefreshToken); err != nil && !errors.Is(err, model.ErrRefreshTokenNotFound) {
		h.log.Error().Err(err).Msg("Logout FAILED")
		httputil.WriteInternalError(w, "Failed to logout")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Logged out successfully",
	})
}

// LogoutAll revokes every refresh token of the caller
// POST /auth/logout-all
func (h *AuthHandler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	if err := h.tokens.RevokeAll(r.Context(), userID); err != nil {
		h.log.Error().Err(err).Str("user", userID).Msg("LogoutAll FAILED")
		httputil.WriteInternalError(w, "Failed to logout from all devices")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Logged out from all devices",
	})
}
