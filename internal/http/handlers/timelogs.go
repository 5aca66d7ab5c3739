package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hongminglow/volunteer-hours/internal/http/respond"
	"github.com/hongminglow/volunteer-hours/internal/middleware"
	"github.com/hongminglow/volunteer-hours/internal/models"
	"github.com/hongminglow/volunteer-hours/internal/models/dto"
	"github.com/hongminglow/volunteer-hours/internal/policy"
	"github.com/hongminglow/volunteer-hours/internal/storage"
)

// TimeLogHandler serves time-log CRUD gated by the policy predicates.
type TimeLogHandler struct {
	logs     storage.TimeLogStore
	projects storage.ProjectStore
	logger   *slog.Logger
}

func NewTimeLogHandler(logs storage.TimeLogStore, projects storage.ProjectStore, logger *slog.Logger) *TimeLogHandler {
	return &TimeLogHandler{logs: logs, projects: projects, logger: logger}
}

// Register attaches the time-log routes. All of them need a current user.
func (h *TimeLogHandler) Register(r chi.Router) {
	r.Post("/timelogs", h.handleCreate)
	r.Get("/timelogs", h.handleList)
	r.Get("/timelogs/{timelogID}", h.handleGet)
	r.Patch("/timelogs/{timelogID}", h.handleUpdate)
	r.Delete("/timelogs/{timelogID}", h.handleDelete)
}

func (h *TimeLogHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		respond.Forbidden(w)
		return
	}
	var req dto.CreateTimeLogRequest
	if !decode(w, r, &req) {
		return
	}
	volunteerID := user.ID
	if req.VolunteerID != nil && *req.VolunteerID != user.ID {
		if !policy.CanLogHoursForOthers(user) {
			respond.Forbidden(w)
			return
		}
		volunteerID = *req.VolunteerID
	}
	date, err := time.Parse(dto.DateLayout, req.Date)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid date")
		return
	}
	if !h.checkRoster(w, r, user, req.ProjectID, volunteerID) {
		return
	}

	created, err := h.logs.CreateTimeLog(r.Context(), models.TimeLog{
		VolunteerID: volunteerID,
		Date:        date,
		Hours:       req.Hours,
		ProjectID:   req.ProjectID,
		TaskID:      req.TaskID,
		TaskTitle:   req.TaskTitle,
		Activity:    req.Activity,
	})
	if err != nil {
		storeError(w, h.logger, "create time log", err)
		return
	}
	respond.JSON(w, http.StatusCreated, "time log created", created)
}

func (h *TimeLogHandler) handleList(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		respond.Forbidden(w)
		return
	}
	status, ok := models.ParseTimeLogStatus(r.URL.Query().Get("status"))
	if !ok {
		respond.Error(w, http.StatusBadRequest, "invalid status")
		return
	}
	volunteerID, err := queryID(r, "volunteer_id")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	projectID, err := queryID(r, "project_id")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	limit, offset := paging(r)
	filter := storage.TimeLogFilter{
		VolunteerID: volunteerID,
		ProjectID:   projectID,
		Status:      status,
		Limit:       limit,
		Offset:      offset,
	}

	switch {
	case volunteerID != nil && *volunteerID == user.ID:
	case !policy.CanApproveTimeLogs(user):
		if volunteerID != nil {
			respond.Forbidden(w)
			return
		}
		filter.VolunteerID = &user.ID
	case !policy.CanViewAllTimeLogs(user):
		filter.ManagerID = &user.ID
	}

	logs, err := h.logs.ListTimeLogs(r.Context(), filter)
	if err != nil {
		storeError(w, h.logger, "list time logs", err)
		return
	}
	if logs == nil {
		logs = []models.TimeLog{}
	}
	respond.JSON(w, http.StatusOK, "ok", logs)
}

// load fetches the path's time log and applies allow. It writes the response
// on any failure.
func (h *TimeLogHandler) load(w http.ResponseWriter, r *http.Request, allow func(*models.User, *models.TimeLog) bool) (*models.User, *models.TimeLog, bool) {
	user := middleware.UserFromContext(r.Context())
	id, ok := pathID(w, r, "timelogID")
	if !ok {
		return nil, nil, false
	}
	log, err := h.logs.GetTimeLog(r.Context(), id)
	if err != nil {
		storeError(w, h.logger, "get time log", err)
		return nil, nil, false
	}
	if !allow(user, &log) {
		respond.Forbidden(w)
		return nil, nil, false
	}
	return user, &log, true
}

func (h *TimeLogHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	_, log, ok := h.load(w, r, policy.CanViewTimeLog)
	if !ok {
		return
	}
	respond.JSON(w, http.StatusOK, "ok", log)
}

func (h *TimeLogHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	user, log, ok := h.load(w, r, policy.CanEditTimeLog)
	if !ok {
		return
	}
	var req dto.UpdateTimeLogRequest
	if !decode(w, r, &req) {
		return
	}
	if err := req.Apply(log); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid date")
		return
	}
	if !h.checkRoster(w, r, user, req.ProjectID, log.VolunteerID) {
		return
	}
	updated, err := h.logs.UpdateTimeLog(r.Context(), *log, policy.IsAdmin(user))
	if err != nil {
		storeError(w, h.logger, "update time log", err)
		return
	}
	respond.JSON(w, http.StatusOK, "time log updated", updated)
}

func (h *TimeLogHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	user, log, ok := h.load(w, r, policy.CanDeleteTimeLog)
	if !ok {
		return
	}
	if err := h.logs.DeleteTimeLog(r.Context(), log.ID, policy.IsAdmin(user)); err != nil {
		storeError(w, h.logger, "delete time log", err)
		return
	}
	if log.Approved {
		// Approved hours may already be counted in external totals.
		h.logger.Warn("approved time log deleted", "timelog_id", log.ID, "hours", log.Hours, "by", user.ID)
	}
	respond.NoContent(w)
}

// checkRoster requires volunteerID to be on projectID's roster before a log
// is attached to it. Admins may attach any project. It writes the response
// when the check fails.
func (h *TimeLogHandler) checkRoster(w http.ResponseWriter, r *http.Request, user *models.User, projectID *int64, volunteerID int64) bool {
	if projectID == nil || policy.IsAdmin(user) {
		return true
	}
	onRoster, err := h.onRoster(r.Context(), *projectID, volunteerID)
	if err != nil {
		storeError(w, h.logger, "check project roster", err)
		return false
	}
	if !onRoster {
		respond.Forbidden(w)
		return false
	}
	return true
}

func (h *TimeLogHandler) onRoster(ctx context.Context, projectID, volunteerID int64) (bool, error) {
	roster, err := h.projects.ListVolunteers(ctx, projectID)
	if err != nil {
		return false, err
	}
	return slices.ContainsFunc(roster, func(v models.Volunteer) bool { return v.ID == volunteerID }), nil
}
