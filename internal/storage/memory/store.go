// Package memory provides mutex-guarded in-process implementations of the
// storage interfaces, used for local runs and tests.
package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/hongminglow/volunteer-hours/internal/models"
	"github.com/hongminglow/volunteer-hours/internal/storage"
)

var (
	_ storage.UserStore    = (*Store)(nil)
	_ storage.ProjectStore = (*Store)(nil)
	_ storage.TimeLogStore = (*Store)(nil)
)

// Store keeps users, projects, rosters and time logs in maps.
type Store struct {
	mu       sync.RWMutex
	nextID   int64
	users    map[int64]models.User
	projects map[int64]models.Project
	// roster preserves assignment order per project.
	roster map[int64][]int64
	logs   map[int64]models.TimeLog
	now    func() time.Time
}

// New returns an empty store.
func New() *Store {
	return &Store{
		users:    make(map[int64]models.User),
		projects: make(map[int64]models.Project),
		roster:   make(map[int64][]int64),
		logs:     make(map[int64]models.TimeLog),
		now:      time.Now,
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// --- users ---

func (s *Store) CreateUser(_ context.Context, user models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if strings.EqualFold(existing.Username, user.Username) || strings.EqualFold(existing.Email, user.Email) {
			return models.User{}, storage.ErrAlreadyExists
		}
	}
	if user.Role == "" {
		user.Role = models.RoleVolunteer
	}
	user.ID = s.id()
	user.CreatedAt = s.now()
	s.users[user.ID] = user
	return user, nil
}

func (s *Store) FindByID(_ context.Context, id int64) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return u, nil
}

func (s *Store) FindByUsernameOrEmail(_ context.Context, identifier string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Username == identifier || u.Email == identifier {
			return u, nil
		}
	}
	return models.User{}, storage.ErrNotFound
}

func (s *Store) UpdateRole(_ context.Context, id int64, role models.Role) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	u.Role = role
	s.users[id] = u
	return u, nil
}

// --- projects ---

func (s *Store) CreateProject(_ context.Context, project models.Project) (models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	project.ID = s.id()
	project.CreatedAt = s.now()
	s.projects[project.ID] = project
	return project, nil
}

func (s *Store) GetProject(_ context.Context, id int64) (models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[id]
	if !ok {
		return models.Project{}, storage.ErrNotFound
	}
	return p, nil
}

func (s *Store) ListByManager(_ context.Context, managerID int64) ([]models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Project
	for _, p := range s.projects {
		if p.ManagerID == managerID {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b models.Project) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (s *Store) ListVolunteers(_ context.Context, projectID int64) ([]models.Volunteer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.projects[projectID]; !ok {
		return nil, storage.ErrNotFound
	}
	ids := s.roster[projectID]
	out := make([]models.Volunteer, 0, len(ids))
	for _, id := range ids {
		u := s.users[id]
		out = append(out, models.Volunteer{ID: u.ID, Name: u.DisplayName(), Email: u.Email})
	}
	return out, nil
}

func (s *Store) AddVolunteer(_ context.Context, projectID, volunteerID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[projectID]; !ok {
		return storage.ErrNotFound
	}
	if _, ok := s.users[volunteerID]; !ok {
		return storage.ErrNotFound
	}
	if slices.Contains(s.roster[projectID], volunteerID) {
		return storage.ErrAlreadyExists
	}
	s.roster[projectID] = append(s.roster[projectID], volunteerID)
	return nil
}

// --- time logs ---

func (s *Store) CreateTimeLog(_ context.Context, log models.TimeLog) (models.TimeLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[log.VolunteerID]; !ok {
		return models.TimeLog{}, storage.ErrNotFound
	}
	if log.ProjectID != nil {
		if _, ok := s.projects[*log.ProjectID]; !ok {
			return models.TimeLog{}, storage.ErrNotFound
		}
	}
	now := s.now()
	log.ID = s.id()
	log.Approved = false
	log.ApprovedBy = nil
	log.ApprovedAt = nil
	log.CreatedAt = now
	log.UpdatedAt = now
	s.logs[log.ID] = log
	return s.decorate(log), nil
}

func (s *Store) GetTimeLog(_ context.Context, id int64) (models.TimeLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.logs[id]
	if !ok {
		return models.TimeLog{}, storage.ErrNotFound
	}
	return s.decorate(l), nil
}

func (s *Store) ListTimeLogs(_ context.Context, f storage.TimeLogFilter) ([]models.TimeLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var managed map[int64]bool
	if f.ManagerID != nil {
		managed = make(map[int64]bool)
		for _, p := range s.projects {
			if p.ManagerID != *f.ManagerID {
				continue
			}
			for _, vid := range s.roster[p.ID] {
				managed[vid] = true
			}
		}
	}
	var out []models.TimeLog
	for _, l := range s.logs {
		switch {
		case f.VolunteerID != nil && l.VolunteerID != *f.VolunteerID:
			continue
		case f.ProjectID != nil && (l.ProjectID == nil || *l.ProjectID != *f.ProjectID):
			continue
		case managed != nil && !managed[l.VolunteerID]:
			continue
		case f.From != nil && l.Date.Before(*f.From):
			continue
		case f.To != nil && l.Date.After(*f.To):
			continue
		case !f.Status.Matches(l):
			continue
		}
		out = append(out, s.decorate(l))
	}
	slices.SortFunc(out, func(a, b models.TimeLog) int {
		if c := b.Date.Compare(a.Date); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return nil, nil
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *Store) UpdateTimeLog(_ context.Context, log models.TimeLog, allowApproved bool) (models.TimeLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.logs[log.ID]
	if !ok {
		return models.TimeLog{}, storage.ErrNotFound
	}
	if existing.Approved && !allowApproved {
		return models.TimeLog{}, storage.ErrAlreadyApproved
	}
	existing.Date = log.Date
	existing.Hours = log.Hours
	existing.ProjectID = log.ProjectID
	existing.TaskID = log.TaskID
	existing.TaskTitle = log.TaskTitle
	existing.Activity = log.Activity
	existing.UpdatedAt = s.now()
	s.logs[log.ID] = existing
	return s.decorate(existing), nil
}

func (s *Store) DeleteTimeLog(_ context.Context, id int64, allowApproved bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.logs[id]
	if !ok {
		return storage.ErrNotFound
	}
	if l.Approved && !allowApproved {
		return storage.ErrAlreadyApproved
	}
	delete(s.logs, id)
	return nil
}

func (s *Store) ApproveTimeLog(_ context.Context, id, approverID int64) (models.TimeLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.logs[id]
	if !ok {
		return models.TimeLog{}, storage.ErrNotFound
	}
	if l.Approved {
		return models.TimeLog{}, storage.ErrAlreadyApproved
	}
	now := s.now()
	l.Approved = true
	l.ApprovedBy = &approverID
	l.ApprovedAt = &now
	l.UpdatedAt = now
	s.logs[id] = l
	return s.decorate(l), nil
}

func (s *Store) SummarizeHours(_ context.Context, volunteerID int64) (models.HoursSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sum := models.HoursSummary{VolunteerID: volunteerID}
	for _, l := range s.logs {
		if l.VolunteerID != volunteerID {
			continue
		}
		if l.Approved {
			sum.ApprovedHours += l.Hours
			sum.ApprovedCount++
		} else {
			sum.PendingHours += l.Hours
			sum.PendingCount++
		}
	}
	return sum, nil
}

// decorate fills the denormalized project and approver names. Callers hold mu.
func (s *Store) decorate(l models.TimeLog) models.TimeLog {
	l.ProjectName = nil
	l.ApprovedByName = nil
	if l.ProjectID != nil {
		if p, ok := s.projects[*l.ProjectID]; ok {
			name := p.Name
			l.ProjectName = &name
		}
	}
	if l.ApprovedBy != nil {
		if u, ok := s.users[*l.ApprovedBy]; ok {
			name := u.DisplayName()
			l.ApprovedByName = &name
		}
	}
	return l
}
