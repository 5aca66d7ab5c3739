package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hongminglow/volunteer-hours/internal/approvals"
	"github.com/hongminglow/volunteer-hours/internal/http/respond"
	"github.com/hongminglow/volunteer-hours/internal/middleware"
	"github.com/hongminglow/volunteer-hours/internal/models"
	"github.com/hongminglow/volunteer-hours/internal/models/dto"
	"github.com/hongminglow/volunteer-hours/internal/policy"
	"github.com/hongminglow/volunteer-hours/internal/storage"
)

// ApprovalHandler serves the approval queue, the dashboard shortlist and the
// approve action.
type ApprovalHandler struct {
	service *approvals.Service
	logs    storage.TimeLogStore
	logger  *slog.Logger
}

func NewApprovalHandler(service *approvals.Service, logs storage.TimeLogStore, logger *slog.Logger) *ApprovalHandler {
	return &ApprovalHandler{service: service, logs: logs, logger: logger}
}

func (h *ApprovalHandler) Register(r chi.Router) {
	r.Get("/approvals/queue", h.handleQueue)
	r.Get("/approvals/summary", h.handleSummary)
	r.Post("/timelogs/{timelogID}/approve", h.handleApprove)
}

// handleQueue lists every pending log in the caller's scope, paged.
func (h *ApprovalHandler) handleQueue(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if !policy.CanAccessApprovalQueue(user) {
		respond.Forbidden(w)
		return
	}
	limit, offset := paging(r)
	filter := storage.TimeLogFilter{Status: models.StatusPending, Limit: limit, Offset: offset}
	if !policy.CanViewAllTimeLogs(user) {
		filter.ManagerID = &user.ID
	}
	logs, err := h.logs.ListTimeLogs(r.Context(), filter)
	if err != nil {
		storeError(w, h.logger, "list approval queue", err)
		return
	}
	if logs == nil {
		logs = []models.TimeLog{}
	}
	respond.JSON(w, http.StatusOK, "ok", logs)
}

func (h *ApprovalHandler) handleSummary(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	sum, err := h.service.PendingSummaryForManager(r.Context(), user)
	if err != nil {
		if errors.Is(err, approvals.ErrForbidden) {
			respond.Forbidden(w)
			return
		}
		storeError(w, h.logger, "build pending summary", err)
		return
	}
	respond.JSON(w, http.StatusOK, "ok", dto.NewPendingSummaryResponse(sum))
}

func (h *ApprovalHandler) handleApprove(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	id, ok := pathID(w, r, "timelogID")
	if !ok {
		return
	}
	approved, sum, err := h.service.Approve(r.Context(), user, id)
	if err != nil {
		if errors.Is(err, approvals.ErrForbidden) {
			respond.Forbidden(w)
			return
		}
		storeError(w, h.logger, "approve time log", err)
		return
	}
	respond.JSON(w, http.StatusOK, "time log approved", dto.ApproveResponse{
		TimeLog: approved,
		Summary: dto.NewPendingSummaryResponse(sum),
	})
}
