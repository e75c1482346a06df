package handler

import (
	"net/http"

	"github.com/utsav306/farmconnect-sub000/internal/api"
	"github.com/utsav306/farmconnect-sub000/internal/models"
	"github.com/utsav306/farmconnect-sub000/internal/service"
)

// AuthHandler handles registration, login and the caller's own account
type AuthHandler struct {
	authService *service.AuthService
	fail        api.ErrorWriter
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, fail api.ErrorWriter) *AuthHandler {
	return &AuthHandler{authService: authService, fail: fail}
}

type userResponse struct {
	User *models.User `json:"user"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Register creates an account and signs it in
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := api.DecodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	user, err := h.authService.Register(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	api.RespondJSON(w, http.StatusCreated, userResponse{User: user})
}

// Login exchanges credentials for a token
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := api.DecodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	token, user, err := h.authService.Login(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	api.RespondJSON(w, http.StatusOK, loginResponse{Token: token, User: user})
}

// Me returns the caller's profile
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.authService.Me(r.Context(), caller(r).UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.RespondJSON(w, http.StatusOK, userResponse{User: user})
}

// ChangePassword replaces the caller's password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req models.ChangePasswordRequest
	if err := api.DecodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.authService.ChangePassword(r.Context(), caller(r).UserID, req); err != nil {
		h.fail(w, r, err)
		return
	}

	api.RespondJSON(w, http.StatusOK, api.MessageResponse{Message: "Password changed successfully"})
}

// UpdateProfile edits the caller's profile fields
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req models.ProfileUpdateRequest
	if err := api.DecodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	user, err := h.authService.UpdateProfile(r.Context(), caller(r).UserID, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.RespondJSON(w, http.StatusOK, userResponse{User: user})
}
