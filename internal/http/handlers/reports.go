package handlers

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hongminglow/volunteer-hours/internal/http/respond"
	"github.com/hongminglow/volunteer-hours/internal/middleware"
	"github.com/hongminglow/volunteer-hours/internal/models"
	"github.com/hongminglow/volunteer-hours/internal/models/dto"
	"github.com/hongminglow/volunteer-hours/internal/policy"
	"github.com/hongminglow/volunteer-hours/internal/storage"
)

// maxExportRows bounds a single CSV export.
const maxExportRows = 10000

// ReportHandler serves the hours dashboard totals and CSV exports.
type ReportHandler struct {
	logs      storage.TimeLogStore
	logger    *slog.Logger
	exportMax int
}

func NewReportHandler(logs storage.TimeLogStore, logger *slog.Logger) *ReportHandler {
	return &ReportHandler{logs: logs, logger: logger, exportMax: maxExportRows}
}

func (h *ReportHandler) Register(r chi.Router) {
	r.Get("/hours/summary", h.handleHoursSummary)
	r.Get("/reports/hours.csv", h.handleExport)
}

func (h *ReportHandler) handleHoursSummary(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	volunteerID, err := queryID(r, "volunteer_id")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if !policy.CanViewHoursDashboard(user, volunteerID) {
		respond.Forbidden(w)
		return
	}
	target := user.ID
	if volunteerID != nil {
		target = *volunteerID
	}
	sum, err := h.logs.SummarizeHours(r.Context(), target)
	if err != nil {
		storeError(w, h.logger, "summarize hours", err)
		return
	}
	respond.JSON(w, http.StatusOK, "ok", sum)
}

func (h *ReportHandler) handleExport(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if !policy.CanExportReports(user) {
		respond.Forbidden(w)
		return
	}
	from, err := queryDate(r, "from")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	to, err := queryDate(r, "to")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	status, ok := models.ParseTimeLogStatus(r.URL.Query().Get("status"))
	if !ok {
		respond.Error(w, http.StatusBadRequest, "invalid status")
		return
	}
	// One extra row tells a full export apart from a cut one.
	filter := storage.TimeLogFilter{Status: status, From: from, To: to, Limit: h.exportMax + 1}
	if !policy.CanViewAllTimeLogs(user) {
		filter.ManagerID = &user.ID
	}
	logs, err := h.logs.ListTimeLogs(r.Context(), filter)
	if err != nil {
		storeError(w, h.logger, "export hours", err)
		return
	}

	if len(logs) > h.exportMax {
		logs = logs[:h.exportMax]
		w.Header().Set("X-Export-Truncated", "true")
		h.logger.Info("hours export truncated", "user_id", user.ID, "limit", h.exportMax)
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="hours.csv"`)
	w.WriteHeader(http.StatusOK)
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"id", "volunteer_id", "date", "hours", "project", "task", "activity", "approved", "approved_by", "approved_at"})
	for _, l := range logs {
		_ = cw.Write([]string{
			strconv.FormatInt(l.ID, 10),
			strconv.FormatInt(l.VolunteerID, 10),
			l.Date.Format(dto.DateLayout),
			strconv.FormatFloat(l.Hours, 'f', -1, 64),
			deref(l.ProjectName),
			deref(l.TaskTitle),
			deref(l.Activity),
			strconv.FormatBool(l.Approved),
			deref(l.ApprovedByName),
			formatTime(l.ApprovedAt),
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		h.logger.Error("write csv export", "error", err)
	}
}

func queryDate(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(dto.DateLayout, raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: want YYYY-MM-DD", name)
	}
	return &t, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
