package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hongminglow/volunteer-hours/internal/http/respond"
	"github.com/hongminglow/volunteer-hours/internal/middleware"
	"github.com/hongminglow/volunteer-hours/internal/models"
	"github.com/hongminglow/volunteer-hours/internal/models/dto"
	"github.com/hongminglow/volunteer-hours/internal/policy"
	"github.com/hongminglow/volunteer-hours/internal/storage"
)

// UserHandler exposes the role table and admin role changes.
type UserHandler struct {
	store  storage.UserStore
	logger *slog.Logger
}

func NewUserHandler(store storage.UserStore, logger *slog.Logger) *UserHandler {
	return &UserHandler{store: store, logger: logger}
}

// Register attaches the public role listing.
func (h *UserHandler) Register(r chi.Router) {
	r.Get("/roles", h.handleRoles)
}

func (h *UserHandler) RegisterAuthenticated(r chi.Router) {
	r.Patch("/users/{userID}/role", h.handleUpdateRole)
}

func (h *UserHandler) handleRoles(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, "ok", policy.Describe())
}

func (h *UserHandler) handleUpdateRole(w http.ResponseWriter, r *http.Request) {
	current := middleware.UserFromContext(r.Context())
	if !policy.IsAdmin(current) {
		respond.Forbidden(w)
		return
	}
	id, ok := pathID(w, r, "userID")
	if !ok {
		return
	}
	var req dto.UpdateRoleRequest
	if !decode(w, r, &req) {
		return
	}
	role, err := models.ParseRole(req.Role)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if id == current.ID && role != models.RoleAdmin {
		respond.Error(w, http.StatusBadRequest, "admins cannot demote themselves")
		return
	}
	updated, err := h.store.UpdateRole(r.Context(), id, role)
	if err != nil {
		storeError(w, h.logger, "update role", err)
		return
	}
	h.logger.Info("role changed", "user_id", id, "role", role, "by", current.ID)
	respond.JSON(w, http.StatusOK, "role updated", updated)
}
