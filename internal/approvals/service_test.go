package approvals

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/volunteer-hours/internal/models"
	"github.com/hongminglow/volunteer-hours/internal/storage"
	"github.com/hongminglow/volunteer-hours/internal/storage/memory"
)

var errUpstream = errors.New("upstream unavailable")

// fakeStore wraps the memory store with failure and latency injection on the
// two calls the aggregation fans out.
type fakeStore struct {
	*memory.Store

	mu          sync.Mutex
	rosterErr   map[int64]error
	logsErr     map[int64]error
	staleLogs   map[int64][]models.TimeLog
	approveErr  error
	jitter      bool
	rosterCalls atomic.Int32
	logsCalls   atomic.Int32
	hang        map[int64]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		Store:     memory.New(),
		rosterErr: map[int64]error{},
		logsErr:   map[int64]error{},
		staleLogs: map[int64][]models.TimeLog{},
		hang:      map[int64]bool{},
	}
}

func (f *fakeStore) sleep() {
	if f.jitter {
		time.Sleep(time.Duration(rand.IntN(3000)) * time.Microsecond)
	}
}

func (f *fakeStore) ListVolunteers(ctx context.Context, projectID int64) ([]models.Volunteer, error) {
	f.rosterCalls.Add(1)
	f.sleep()
	f.mu.Lock()
	err := f.rosterErr[projectID]
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return f.Store.ListVolunteers(ctx, projectID)
}

func (f *fakeStore) ListTimeLogs(ctx context.Context, filter storage.TimeLogFilter) ([]models.TimeLog, error) {
	f.logsCalls.Add(1)
	f.sleep()
	if filter.VolunteerID != nil {
		id := *filter.VolunteerID
		f.mu.Lock()
		err, hang, stale := f.logsErr[id], f.hang[id], f.staleLogs[id]
		f.mu.Unlock()
		if hang {
			<-ctx.Done()
			return nil, ctx.Err()
		}
		if err != nil {
			return nil, err
		}
		if stale != nil {
			return stale, nil
		}
	}
	return f.Store.ListTimeLogs(ctx, filter)
}

func (f *fakeStore) ApproveTimeLog(ctx context.Context, id, approverID int64) (models.TimeLog, error) {
	if f.approveErr != nil {
		return models.TimeLog{}, f.approveErr
	}
	return f.Store.ApproveTimeLog(ctx, id, approverID)
}

type fixture struct {
	t       *testing.T
	ctx     context.Context
	store   *fakeStore
	manager models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := newFakeStore()
	manager, err := store.CreateUser(ctx, models.User{Username: "pm", Email: "pm@example.com", Role: models.RoleProjectManager})
	require.NoError(t, err)
	return &fixture{t: t, ctx: ctx, store: store, manager: manager}
}

func (fx *fixture) project(name string) models.Project {
	fx.t.Helper()
	p, err := fx.store.CreateProject(fx.ctx, models.Project{Name: name, ManagerID: fx.manager.ID})
	require.NoError(fx.t, err)
	return p
}

func (fx *fixture) volunteer(name string, projects ...models.Project) models.User {
	fx.t.Helper()
	u, err := fx.store.CreateUser(fx.ctx, models.User{Username: name, Email: name + "@example.com", Name: name})
	require.NoError(fx.t, err)
	for _, p := range projects {
		require.NoError(fx.t, fx.store.AddVolunteer(fx.ctx, p.ID, u.ID))
	}
	return u
}

func (fx *fixture) log(volunteer models.User, day int) models.TimeLog {
	fx.t.Helper()
	l, err := fx.store.CreateTimeLog(fx.ctx, models.TimeLog{
		VolunteerID: volunteer.ID,
		Date:        time.Date(2026, time.May, day, 0, 0, 0, 0, time.UTC),
		Hours:       1.5,
	})
	require.NoError(fx.t, err)
	return l
}

func (fx *fixture) service(limits Limits) *Service {
	return NewService(fx.store, fx.store, limits, nil, NewMetrics(prometheus.NewRegistry()))
}

func ids(logs []models.TimeLog) []int64 {
	out := make([]int64, 0, len(logs))
	for _, l := range logs {
		out = append(out, l.ID)
	}
	return out
}

func TestPendingSummary_NoProjectsIssuesNoCalls(t *testing.T) {
	fx := newFixture(t)
	sum := fx.service(Limits{}).PendingSummary(fx.ctx, fx.manager.ID, nil)

	assert.Empty(t, sum.Logs)
	assert.Empty(t, sum.VolunteerNames)
	assert.Zero(t, fx.store.rosterCalls.Load())
	assert.Zero(t, fx.store.logsCalls.Load())
}

func TestPendingSummary_EmptyRostersSkipTimeLogCalls(t *testing.T) {
	fx := newFixture(t)
	p := fx.project("empty")
	sum := fx.service(Limits{}).PendingSummary(fx.ctx, fx.manager.ID, []models.Project{p})

	assert.Empty(t, sum.Logs)
	assert.Equal(t, int32(1), fx.store.rosterCalls.Load())
	assert.Zero(t, fx.store.logsCalls.Load())
}

func TestPendingSummary_ConsidersFirstFiveProjects(t *testing.T) {
	fx := newFixture(t)
	var projects []models.Project
	for i := 0; i < 6; i++ {
		projects = append(projects, fx.project("p"))
	}
	// Only the sixth project's volunteer has pending hours.
	v := fx.volunteer("late", projects[5])
	fx.log(v, 1)

	svc := fx.service(Limits{})
	sum := svc.PendingSummary(fx.ctx, fx.manager.ID, projects)

	assert.Equal(t, int32(5), fx.store.rosterCalls.Load())
	assert.Equal(t, 5, sum.ProjectsConsidered)
	assert.True(t, sum.ProjectsTruncated)
	assert.Empty(t, sum.Logs)
	assert.Equal(t, 1.0, testutil.ToFloat64(svc.metrics.Truncations.WithLabelValues(boundProjects)))
}

func TestPendingSummary_RosterFailureIsIsolated(t *testing.T) {
	fx := newFixture(t)
	p1, p2, p3 := fx.project("a"), fx.project("b"), fx.project("c")
	v1 := fx.volunteer("v1", p1)
	v3 := fx.volunteer("v3", p3)
	broken := fx.volunteer("broken", p2)
	l1 := fx.log(v1, 2)
	l3 := fx.log(v3, 4)
	fx.log(broken, 9)
	fx.store.rosterErr[p2.ID] = errUpstream

	svc := fx.service(Limits{})
	sum := svc.PendingSummary(fx.ctx, fx.manager.ID, []models.Project{p1, p2, p3})

	assert.Equal(t, []int64{l3.ID, l1.ID}, ids(sum.Logs))
	assert.NotContains(t, sum.VolunteerNames, broken.ID)
	assert.Equal(t, "v1", sum.VolunteerNames[v1.ID])
	assert.Equal(t, 1.0, testutil.ToFloat64(svc.metrics.FetchFailures.WithLabelValues(callRoster)))
}

func TestPendingSummary_DeduplicatesAndCapsVolunteers(t *testing.T) {
	fx := newFixture(t)
	p1, p2 := fx.project("a"), fx.project("b")
	var vols []models.User
	for i := 0; i < 17; i++ {
		vols = append(vols, fx.volunteer(string(rune('a'+i))+"vol", p1))
	}
	// Shared volunteers appear on both rosters but count once.
	require.NoError(t, fx.store.AddVolunteer(fx.ctx, p2.ID, vols[0].ID))
	require.NoError(t, fx.store.AddVolunteer(fx.ctx, p2.ID, vols[1].ID))

	svc := fx.service(Limits{})
	sum := svc.PendingSummary(fx.ctx, fx.manager.ID, []models.Project{p1, p2})

	assert.Equal(t, 15, sum.VolunteersConsidered)
	assert.Len(t, sum.VolunteerNames, 15)
	assert.True(t, sum.VolunteersTruncated)
	assert.Equal(t, int32(15), fx.store.logsCalls.Load())
	for _, v := range vols[:15] {
		assert.Contains(t, sum.VolunteerNames, v.ID)
	}
	assert.NotContains(t, sum.VolunteerNames, vols[15].ID)
	assert.NotContains(t, sum.VolunteerNames, vols[16].ID)
}

func TestPendingSummary_SortsAndTruncatesResults(t *testing.T) {
	fx := newFixture(t)
	p := fx.project("a")
	a, b := fx.volunteer("a", p), fx.volunteer("b", p)
	days := []int{3, 12, 7, 1, 20, 15, 9}
	for i, d := range days {
		if i%2 == 0 {
			fx.log(a, d)
		} else {
			fx.log(b, d)
		}
	}

	sum := fx.service(Limits{}).PendingSummary(fx.ctx, fx.manager.ID, []models.Project{p})

	require.Len(t, sum.Logs, 5)
	var got []int
	for _, l := range sum.Logs {
		got = append(got, l.Date.Day())
	}
	assert.Equal(t, []int{20, 15, 12, 9, 7}, got)
}

func TestPendingSummary_RefiltersApprovedLogs(t *testing.T) {
	fx := newFixture(t)
	p := fx.project("a")
	v := fx.volunteer("v", p)
	pending := fx.log(v, 2)
	approver := fx.manager.ID
	fx.store.staleLogs[v.ID] = []models.TimeLog{
		pending,
		{ID: 999, VolunteerID: v.ID, Date: pending.Date.AddDate(0, 0, 5), Hours: 1, Approved: true, ApprovedBy: &approver},
	}

	sum := fx.service(Limits{}).PendingSummary(fx.ctx, fx.manager.ID, []models.Project{p})
	assert.Equal(t, []int64{pending.ID}, ids(sum.Logs))
}

func TestPendingSummary_TimeLogFailureAndTimeoutDegrade(t *testing.T) {
	fx := newFixture(t)
	p := fx.project("a")
	ok, failing, slow := fx.volunteer("ok", p), fx.volunteer("failing", p), fx.volunteer("slow", p)
	good := fx.log(ok, 3)
	fx.log(failing, 4)
	fx.log(slow, 5)
	fx.store.logsErr[failing.ID] = errUpstream
	fx.store.hang[slow.ID] = true

	svc := fx.service(Limits{FetchTimeout: 20 * time.Millisecond})
	sum := svc.PendingSummary(fx.ctx, fx.manager.ID, []models.Project{p})

	assert.Equal(t, []int64{good.ID}, ids(sum.Logs))
	assert.Equal(t, 3, sum.VolunteersConsidered)
	assert.Equal(t, 2.0, testutil.ToFloat64(svc.metrics.FetchFailures.WithLabelValues(callTimeLogs)))
}

func TestPendingSummary_DeterministicUnderReordering(t *testing.T) {
	fx := newFixture(t)
	var projects []models.Project
	for i := 0; i < 4; i++ {
		projects = append(projects, fx.project("p"))
	}
	for i := 0; i < 12; i++ {
		v := fx.volunteer(string(rune('a'+i))+"x", projects[i%4])
		// Shared dates force the stable tie-break to matter.
		fx.log(v, 1+i%3)
	}
	fx.store.jitter = true

	svc := fx.service(Limits{MaxResults: 8})
	first := svc.PendingSummary(fx.ctx, fx.manager.ID, projects)
	for i := 0; i < 10; i++ {
		again := svc.PendingSummary(fx.ctx, fx.manager.ID, projects)
		assert.Equal(t, ids(first.Logs), ids(again.Logs))
		assert.Equal(t, first.VolunteerNames, again.VolunteerNames)
	}
	for i := 1; i < len(first.Logs); i++ {
		assert.False(t, first.Logs[i].Date.After(first.Logs[i-1].Date), "dates must be non-increasing")
	}
}

func TestPendingSummary_ConfigurableBounds(t *testing.T) {
	fx := newFixture(t)
	p1, p2, p3 := fx.project("a"), fx.project("b"), fx.project("c")
	for i, p := range []models.Project{p1, p2, p3} {
		v := fx.volunteer(string(rune('a'+i))+"v", p)
		fx.log(v, i+1)
		fx.log(v, i+10)
	}

	sum := fx.service(Limits{MaxProjects: 2, MaxVolunteers: 1, MaxResults: 1}).
		PendingSummary(fx.ctx, fx.manager.ID, []models.Project{p1, p2, p3})

	assert.Equal(t, 2, sum.ProjectsConsidered)
	assert.Equal(t, 1, sum.VolunteersConsidered)
	assert.True(t, sum.ProjectsTruncated)
	assert.True(t, sum.VolunteersTruncated)
	require.Len(t, sum.Logs, 1)
	assert.Equal(t, 10, sum.Logs[0].Date.Day())
}

func TestPendingSummaryForManager(t *testing.T) {
	fx := newFixture(t)
	p := fx.project("a")
	v := fx.volunteer("v", p)
	l := fx.log(v, 6)
	svc := fx.service(Limits{})

	sum, err := svc.PendingSummaryForManager(fx.ctx, &fx.manager)
	require.NoError(t, err)
	assert.Equal(t, []int64{l.ID}, ids(sum.Logs))

	_, err = svc.PendingSummaryForManager(fx.ctx, &v)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.PendingSummaryForManager(fx.ctx, nil)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestApprove_RecomputesSummary(t *testing.T) {
	fx := newFixture(t)
	p := fx.project("a")
	v := fx.volunteer("v", p)
	first := fx.log(v, 8)
	second := fx.log(v, 3)
	svc := fx.service(Limits{})

	approved, sum, err := svc.Approve(fx.ctx, &fx.manager, first.ID)
	require.NoError(t, err)
	assert.True(t, approved.Approved)
	assert.Equal(t, []int64{second.ID}, ids(sum.Logs))
}

func TestApprove_FailureSurfacesWithoutSummary(t *testing.T) {
	fx := newFixture(t)
	p := fx.project("a")
	v := fx.volunteer("v", p)
	l := fx.log(v, 8)
	svc := fx.service(Limits{})

	before := svc.PendingSummary(fx.ctx, fx.manager.ID, []models.Project{p})
	fx.store.approveErr = errUpstream

	_, sum, err := svc.Approve(fx.ctx, &fx.manager, l.ID)
	require.ErrorIs(t, err, errUpstream)
	assert.Empty(t, sum.Logs)

	after := svc.PendingSummary(fx.ctx, fx.manager.ID, []models.Project{p})
	assert.Equal(t, ids(before.Logs), ids(after.Logs))
}

func TestApprove_AlreadyApprovedAndForbidden(t *testing.T) {
	fx := newFixture(t)
	p := fx.project("a")
	v := fx.volunteer("v", p)
	l := fx.log(v, 8)
	svc := fx.service(Limits{})

	_, _, err := svc.Approve(fx.ctx, &v, l.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, _, err = svc.Approve(fx.ctx, &fx.manager, l.ID)
	require.NoError(t, err)
	_, _, err = svc.Approve(fx.ctx, &fx.manager, l.ID)
	assert.ErrorIs(t, err, storage.ErrAlreadyApproved)
}

func TestLimitsNormalized(t *testing.T) {
	svc := NewService(nil, nil, Limits{MaxResults: 3}, nil, nil)
	got := svc.Limits()
	assert.Equal(t, 5, got.MaxProjects)
	assert.Equal(t, 15, got.MaxVolunteers)
	assert.Equal(t, 3, got.MaxResults)
	assert.Equal(t, 5*time.Second, got.FetchTimeout)
}
