package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/hongminglow/volunteer-hours/internal/auth"
	"github.com/hongminglow/volunteer-hours/internal/http/respond"
	"github.com/hongminglow/volunteer-hours/internal/middleware"
	"github.com/hongminglow/volunteer-hours/internal/models"
	"github.com/hongminglow/volunteer-hours/internal/models/dto"
	"github.com/hongminglow/volunteer-hours/internal/storage"
)

// AuthHandler owns register/login endpoints backed by the user store.
type AuthHandler struct {
	store  storage.UserStore
	tokens *auth.TokenManager
	admins []string
	logger *slog.Logger
}

// NewAuthHandler constructs the handler. Usernames listed in admins register
// as admins; everyone else starts as a volunteer.
func NewAuthHandler(store storage.UserStore, tokens *auth.TokenManager, admins []string, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{store: store, tokens: tokens, admins: admins, logger: logger}
}

// Register attaches the public auth routes.
func (h *AuthHandler) Register(r chi.Router) {
	r.Post("/register", h.handleRegister)
	r.Post("/login", h.handleLogin)
}

// RegisterAuthenticated attaches routes that need a current user.
func (h *AuthHandler) RegisterAuthenticated(r chi.Router) {
	r.Get("/me", h.handleMe)
}

func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if !decode(w, r, &req) {
		return
	}
	passwordHash, err := hashPassword(req.Password)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	user := models.User{
		Username:     strings.TrimSpace(req.Username),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Name:         strings.TrimSpace(req.Name),
		Role:         models.RoleVolunteer,
		PasswordHash: passwordHash,
	}
	if slices.Contains(h.admins, user.Username) {
		user.Role = models.RoleAdmin
	}
	created, err := h.store.CreateUser(r.Context(), user)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrAlreadyExists):
			respond.Error(w, http.StatusConflict, "user already exists")
		default:
			h.logger.Error("create user", "error", err)
			respond.Error(w, http.StatusInternalServerError, "failed to create user")
		}
		return
	}

	respond.JSON(w, http.StatusCreated, "user created", created)
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if !decode(w, r, &req) {
		return
	}
	identifier := strings.TrimSpace(req.Identifier)
	if strings.Contains(identifier, "@") {
		// Emails are stored lowercased.
		identifier = strings.ToLower(identifier)
	}
	user, err := h.store.FindByUsernameOrEmail(r.Context(), identifier)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Error(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		h.logger.Error("login: fetch user", "identifier", identifier, "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to fetch user")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		respond.Error(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	token, err := h.tokens.Generate(user)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "failed to generate token")
		return
	}
	respond.JSON(w, http.StatusOK, "login successful", dto.LoginResponse{Token: token, User: user})
}

func (h *AuthHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, "ok", middleware.UserFromContext(r.Context()))
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
