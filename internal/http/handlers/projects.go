package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hongminglow/volunteer-hours/internal/http/respond"
	"github.com/hongminglow/volunteer-hours/internal/middleware"
	"github.com/hongminglow/volunteer-hours/internal/models"
	"github.com/hongminglow/volunteer-hours/internal/models/dto"
	"github.com/hongminglow/volunteer-hours/internal/policy"
	"github.com/hongminglow/volunteer-hours/internal/storage"
)

// ProjectHandler manages projects and their volunteer rosters.
type ProjectHandler struct {
	projects storage.ProjectStore
	logger   *slog.Logger
}

func NewProjectHandler(projects storage.ProjectStore, logger *slog.Logger) *ProjectHandler {
	return &ProjectHandler{projects: projects, logger: logger}
}

func (h *ProjectHandler) Register(r chi.Router) {
	r.Get("/projects", h.handleList)
	r.Post("/projects", h.handleCreate)
	r.Get("/projects/{projectID}/volunteers", h.handleRoster)
	r.Post("/projects/{projectID}/volunteers", h.handleAddVolunteer)
}

func (h *ProjectHandler) handleList(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		respond.Forbidden(w)
		return
	}
	projects, err := h.projects.ListByManager(r.Context(), user.ID)
	if err != nil {
		storeError(w, h.logger, "list projects", err)
		return
	}
	if projects == nil {
		projects = []models.Project{}
	}
	respond.JSON(w, http.StatusOK, "ok", projects)
}

func (h *ProjectHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if !policy.CanApproveTimeLogs(user) {
		respond.Forbidden(w)
		return
	}
	var req dto.CreateProjectRequest
	if !decode(w, r, &req) {
		return
	}
	created, err := h.projects.CreateProject(r.Context(), models.Project{
		Name:      strings.TrimSpace(req.Name),
		ManagerID: user.ID,
	})
	if err != nil {
		storeError(w, h.logger, "create project", err)
		return
	}
	respond.JSON(w, http.StatusCreated, "project created", created)
}

// managedProject loads the path's project and checks the caller manages it
// (admins manage everything).
func (h *ProjectHandler) managedProject(w http.ResponseWriter, r *http.Request) (models.Project, bool) {
	user := middleware.UserFromContext(r.Context())
	if !policy.CanApproveTimeLogs(user) {
		respond.Forbidden(w)
		return models.Project{}, false
	}
	id, ok := pathID(w, r, "projectID")
	if !ok {
		return models.Project{}, false
	}
	project, err := h.projects.GetProject(r.Context(), id)
	if err != nil {
		storeError(w, h.logger, "get project", err)
		return models.Project{}, false
	}
	if project.ManagerID != user.ID && !policy.IsAdmin(user) {
		respond.Forbidden(w)
		return models.Project{}, false
	}
	return project, true
}

func (h *ProjectHandler) handleRoster(w http.ResponseWriter, r *http.Request) {
	project, ok := h.managedProject(w, r)
	if !ok {
		return
	}
	roster, err := h.projects.ListVolunteers(r.Context(), project.ID)
	if err != nil {
		storeError(w, h.logger, "list volunteers", err)
		return
	}
	if roster == nil {
		roster = []models.Volunteer{}
	}
	respond.JSON(w, http.StatusOK, "ok", roster)
}

func (h *ProjectHandler) handleAddVolunteer(w http.ResponseWriter, r *http.Request) {
	project, ok := h.managedProject(w, r)
	if !ok {
		return
	}
	var req dto.AddVolunteerRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.projects.AddVolunteer(r.Context(), project.ID, req.VolunteerID); err != nil {
		storeError(w, h.logger, "add volunteer", err)
		return
	}
	respond.JSON(w, http.StatusCreated, "volunteer added", map[string]int64{
		"project_id":   project.ID,
		"volunteer_id": req.VolunteerID,
	})
}
