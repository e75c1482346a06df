package handler

import (
	"net/http"

	"github.com/utsav306/farmconnect-sub000/internal/api"
	"github.com/utsav306/farmconnect-sub000/internal/apperr"
	"github.com/utsav306/farmconnect-sub000/internal/models"
	"github.com/utsav306/farmconnect-sub000/internal/service"
)

// UserHandler handles account administration
type UserHandler struct {
	userService *service.UserService
	fail        api.ErrorWriter
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *service.UserService, fail api.ErrorWriter) *UserHandler {
	return &UserHandler{userService: userService, fail: fail}
}

type usersResponse struct {
	Users []models.User `json:"users"`
}

// ListUsers lists all users
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.ListUsers(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if users == nil {
		users = []models.User{}
	}
	api.RespondJSON(w, http.StatusOK, usersResponse{Users: users})
}

// UpdateRoles replaces a user's role set
func (h *UserHandler) UpdateRoles(w http.ResponseWriter, r *http.Request) {
	id, err := api.PathID(r, "id", apperr.ErrUserNotFound)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var req models.RolesUpdateRequest
	if err := api.DecodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	user, err := h.userService.UpdateRoles(r.Context(), caller(r).UserID, id, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.RespondJSON(w, http.StatusOK, userResponse{User: user})
}

// SetStatus activates or deactivates an account
func (h *UserHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := api.PathID(r, "id", apperr.ErrUserNotFound)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var req models.StatusUpdateRequest
	if err := api.DecodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	user, err := h.userService.SetStatus(r.Context(), caller(r).UserID, id, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.RespondJSON(w, http.StatusOK, userResponse{User: user})
}

// DeleteUser retires an account; its orders and listings stay
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := api.PathID(r, "id", apperr.ErrUserNotFound)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.userService.DeleteUser(r.Context(), caller(r).UserID, id); err != nil {
		h.fail(w, r, err)
		return
	}
	api.RespondJSON(w, http.StatusOK, api.MessageResponse{Message: "User deleted successfully"})
}
