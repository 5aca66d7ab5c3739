// Package approvals builds the bounded "recent pending hours" shortlist shown
// to supervisors and performs the approve action that refreshes it.
package approvals

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hongminglow/volunteer-hours/internal/models"
	"github.com/hongminglow/volunteer-hours/internal/policy"
	"github.com/hongminglow/volunteer-hours/internal/storage"
)

// ErrForbidden is returned when the caller is outside the supervisor set.
var ErrForbidden = errors.New("forbidden")

// Limits bounds the fan-out of a single summary run.
type Limits struct {
	MaxProjects   int
	MaxVolunteers int
	MaxResults    int
	FetchTimeout  time.Duration
	Concurrency   int
}

// DefaultLimits are the bounds used when nothing is configured.
func DefaultLimits() Limits {
	return Limits{
		MaxProjects:   5,
		MaxVolunteers: 15,
		MaxResults:    5,
		FetchTimeout:  5 * time.Second,
		Concurrency:   8,
	}
}

func (l Limits) normalized() Limits {
	d := DefaultLimits()
	if l.MaxProjects <= 0 {
		l.MaxProjects = d.MaxProjects
	}
	if l.MaxVolunteers <= 0 {
		l.MaxVolunteers = d.MaxVolunteers
	}
	if l.MaxResults <= 0 {
		l.MaxResults = d.MaxResults
	}
	if l.FetchTimeout <= 0 {
		l.FetchTimeout = d.FetchTimeout
	}
	if l.Concurrency <= 0 {
		l.Concurrency = d.Concurrency
	}
	return l
}

// Summary is the shortlist of pending logs plus the names needed to show it.
type Summary struct {
	Logs                 []models.TimeLog
	VolunteerNames       map[int64]string
	ProjectsConsidered   int
	VolunteersConsidered int
	ProjectsTruncated    bool
	VolunteersTruncated  bool
}

// Service aggregates pending time logs across a manager's projects.
type Service struct {
	projects storage.ProjectStore
	logs     storage.TimeLogStore
	limits   Limits
	logger   *slog.Logger
	metrics  *Metrics
}

// NewService constructs the service. Zero limits fall back to DefaultLimits;
// a nil logger discards output and nil metrics are skipped.
func NewService(projects storage.ProjectStore, logs storage.TimeLogStore, limits Limits, logger *slog.Logger, metrics *Metrics) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		projects: projects,
		logs:     logs,
		limits:   limits.normalized(),
		logger:   logger,
		metrics:  metrics,
	}
}

// Limits returns the effective bounds.
func (s *Service) Limits() Limits {
	return s.limits
}

// PendingSummaryForManager loads the manager's projects and summarizes them.
func (s *Service) PendingSummaryForManager(ctx context.Context, manager *models.User) (Summary, error) {
	if !policy.CanAccessApprovalQueue(manager) {
		return Summary{}, ErrForbidden
	}
	projects, err := s.projects.ListByManager(ctx, manager.ID)
	if err != nil {
		return Summary{}, fmt.Errorf("list projects for manager %d: %w", manager.ID, err)
	}
	return s.PendingSummary(ctx, manager.ID, projects), nil
}

// PendingSummary never fails: a roster or time-log call that errors or times
// out contributes nothing and the run continues with what it has.
//
// Only the first MaxProjects projects and the first MaxVolunteers distinct
// volunteers (in roster order) are considered; the Truncated flags report
// when either bound was hit.
func (s *Service) PendingSummary(ctx context.Context, managerID int64, projects []models.Project) Summary {
	start := time.Now()
	defer func() { s.metrics.observe(time.Since(start).Seconds()) }()

	sum := Summary{VolunteerNames: map[int64]string{}}
	if len(projects) > s.limits.MaxProjects {
		sum.ProjectsTruncated = true
		s.metrics.truncated(boundProjects)
		s.logger.Info("pending summary truncated projects",
			"manager_id", managerID, "projects", len(projects), "limit", s.limits.MaxProjects)
		projects = projects[:s.limits.MaxProjects]
	}
	sum.ProjectsConsidered = len(projects)
	if len(projects) == 0 {
		return sum
	}

	rosters := s.fetchRosters(ctx, projects)

	var volunteerIDs []int64
	for _, roster := range rosters {
		for _, v := range roster {
			if _, seen := sum.VolunteerNames[v.ID]; seen {
				continue
			}
			if len(volunteerIDs) == s.limits.MaxVolunteers {
				sum.VolunteersTruncated = true
				continue
			}
			sum.VolunteerNames[v.ID] = v.Name
			volunteerIDs = append(volunteerIDs, v.ID)
		}
	}
	if sum.VolunteersTruncated {
		s.metrics.truncated(boundVolunteers)
		s.logger.Info("pending summary truncated volunteers",
			"manager_id", managerID, "limit", s.limits.MaxVolunteers)
	}
	sum.VolunteersConsidered = len(volunteerIDs)
	if len(volunteerIDs) == 0 {
		return sum
	}

	perVolunteer := s.fetchPending(ctx, volunteerIDs)

	var pending []models.TimeLog
	for _, logs := range perVolunteer {
		for _, l := range logs {
			// The upstream status filter is not trusted.
			if !l.Approved {
				pending = append(pending, l)
			}
		}
	}
	slices.SortStableFunc(pending, func(a, b models.TimeLog) int {
		return b.Date.Compare(a.Date)
	})
	if len(pending) > s.limits.MaxResults {
		pending = pending[:s.limits.MaxResults]
	}
	sum.Logs = pending
	return sum
}

// Approve marks a log approved and recomputes the approver's summary. On
// failure the error is returned and no summary is produced.
func (s *Service) Approve(ctx context.Context, approver *models.User, logID int64) (models.TimeLog, Summary, error) {
	if !policy.CanApproveTimeLogs(approver) {
		return models.TimeLog{}, Summary{}, ErrForbidden
	}
	approved, err := s.logs.ApproveTimeLog(ctx, logID, approver.ID)
	if err != nil {
		return models.TimeLog{}, Summary{}, fmt.Errorf("approve time log %d: %w", logID, err)
	}
	s.logger.Info("time log approved", "timelog_id", logID, "approver_id", approver.ID)

	sum, err := s.PendingSummaryForManager(ctx, approver)
	if err != nil {
		// The approval itself succeeded; report it with an empty refresh.
		s.logger.Warn("refresh pending summary after approval", "approver_id", approver.ID, "error", err)
		return approved, Summary{VolunteerNames: map[int64]string{}}, nil
	}
	return approved, sum, nil
}

// fetchRosters loads each project's roster concurrently. Slot i holds the
// roster of projects[i] so merge order never depends on completion order.
func (s *Service) fetchRosters(ctx context.Context, projects []models.Project) [][]models.Volunteer {
	out := make([][]models.Volunteer, len(projects))
	var g errgroup.Group
	g.SetLimit(s.limits.Concurrency)
	for i, p := range projects {
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(ctx, s.limits.FetchTimeout)
			defer cancel()
			roster, err := s.projects.ListVolunteers(callCtx, p.ID)
			if err != nil {
				s.metrics.fetchFailed(callRoster)
				s.logger.Warn("roster fetch failed", "project_id", p.ID, "error", err)
				return nil
			}
			out[i] = roster
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (s *Service) fetchPending(ctx context.Context, volunteerIDs []int64) [][]models.TimeLog {
	out := make([][]models.TimeLog, len(volunteerIDs))
	var g errgroup.Group
	g.SetLimit(s.limits.Concurrency)
	for i, id := range volunteerIDs {
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(ctx, s.limits.FetchTimeout)
			defer cancel()
			logs, err := s.logs.ListTimeLogs(callCtx, storage.TimeLogFilter{
				VolunteerID: &id,
				Status:      models.StatusPending,
			})
			if err != nil {
				s.metrics.fetchFailed(callTimeLogs)
				s.logger.Warn("pending time log fetch failed", "volunteer_id", id, "error", err)
				return nil
			}
			out[i] = logs
			return nil
		})
	}
	_ = g.Wait()
	return out
}
