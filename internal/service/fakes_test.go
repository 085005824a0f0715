package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/TWRT/asana-dashboard/internal/models"
	"github.com/TWRT/asana-dashboard/internal/repository"
)

var testNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeSource struct {
	users       []models.Assignee
	sections    []models.Section
	tasks       map[string][]*models.Task
	subtasks    map[string][]*models.Subtask
	subtaskErr  error
	sectionsErr error

	mu           sync.Mutex
	subtaskCalls int
}

func (f *fakeSource) GetTeamUsers(ctx context.Context, teamGid string) ([]models.Assignee, error) {
	return f.users, nil
}

func (f *fakeSource) GetSections(ctx context.Context, projectGid string) ([]models.Section, error) {
	if f.sectionsErr != nil {
		return nil, f.sectionsErr
	}
	return f.sections, nil
}

func (f *fakeSource) GetSectionTasks(ctx context.Context, sectionGid string) ([]*models.Task, error) {
	return f.tasks[sectionGid], nil
}

func (f *fakeSource) GetSubtasks(ctx context.Context, taskGid string) ([]*models.Subtask, error) {
	f.mu.Lock()
	f.subtaskCalls++
	f.mu.Unlock()
	if f.subtaskErr != nil {
		return nil, f.subtaskErr
	}
	return f.subtasks[taskGid], nil
}

type fakeCache struct {
	entry       *repository.CachedReport
	failReplace int
	replaces    int
}

func (c *fakeCache) Latest(ctx context.Context) (*repository.CachedReport, error) {
	if c.entry == nil {
		return nil, repository.ErrNotFound
	}
	return c.entry, nil
}

func (c *fakeCache) Replace(ctx context.Context, report *models.Report) error {
	c.replaces++
	if c.failReplace > 0 {
		c.failReplace--
		return errors.New("database is locked")
	}
	payload, err := report.ToJSON()
	if err != nil {
		return err
	}
	c.entry = &repository.CachedReport{Payload: payload, LastUpdated: report.LastUpdated, StoredAt: testNow}
	return nil
}

func (c *fakeCache) put(r *models.Report) {
	payload, err := r.ToJSON()
	if err != nil {
		panic(err)
	}
	c.entry = &repository.CachedReport{Payload: payload, LastUpdated: r.LastUpdated, StoredAt: r.LastUpdated}
}

type fakeBuilder struct {
	report *models.Report
	err    error
	calls  int
}

func (b *fakeBuilder) Build(ctx context.Context, progress ProgressFunc) (*models.Report, error) {
	b.calls++
	if b.err != nil {
		return nil, b.err
	}
	return b.report, nil
}

type fakeRoles map[string]*models.UserRoleInfo

func (f fakeRoles) GetRoleInfo(ctx context.Context, email string) (*models.UserRoleInfo, error) {
	if r, ok := f[models.NormalizeEmail(email)]; ok {
		return r, nil
	}
	return nil, repository.ErrNotFound
}

type fakePrefs struct {
	last   map[string]string
	setErr error
}

func (p *fakePrefs) GetLastSelected(ctx context.Context, email string) (string, error) {
	if gid, ok := p.last[email]; ok {
		return gid, nil
	}
	return "", repository.ErrNotFound
}

func (p *fakePrefs) SetLastSelected(ctx context.Context, email, gid string) error {
	if p.setErr != nil {
		return p.setErr
	}
	if p.last == nil {
		p.last = map[string]string{}
	}
	p.last[email] = gid
	return nil
}

type staticReports struct {
	report *models.Report
	err    error
}

func (s staticReports) Current(ctx context.Context) (*models.Report, error) {
	return s.report, s.err
}

func ref(a models.Assignee) *models.Assignee { return &a }

var (
	alice = models.Assignee{Gid: "A", Name: "Alice", Email: "alice@example.com"}
	bob   = models.Assignee{Gid: "B", Name: "Bob", Email: "bob@example.com"}
)

// dashboardReport has Alice completing one subtask and owning an overdue one,
// and Bob with a single open subtask.
func dashboardReport() *models.Report {
	return &models.Report{
		TeamUsers: []models.Assignee{alice, bob},
		Sections: []*models.Section{{
			Gid:  "s1",
			Name: "Eng",
			Tasks: []*models.Task{{
				Gid:     "t1",
				Name:    "Core",
				Project: "Core",
				Subtasks: []*models.Subtask{
					{Gid: "st1", Assignee: ref(alice), Completed: true, CreatedAt: "2024-06-01T09:00:00Z", CompletedAt: "2024-06-03T09:00:00Z"},
					{Gid: "st2", Assignee: ref(alice), CreatedAt: "2024-06-01T09:00:00Z", DueOn: "2024-06-10"},
					{Gid: "st3", Assignee: ref(bob), CreatedAt: "2024-06-12T09:00:00Z"},
				},
			}},
		}},
		LastUpdated: testNow,
	}
}

// blockingBuilder holds Build until release is closed, then reports the
// build context's state on observed.
type blockingBuilder struct {
	report   *models.Report
	started  chan struct{}
	release  chan struct{}
	observed chan buildContext
}

type buildContext struct {
	err         error
	hasDeadline bool
}

func newBlockingBuilder(report *models.Report) *blockingBuilder {
	return &blockingBuilder{
		report:   report,
		started:  make(chan struct{}),
		release:  make(chan struct{}),
		observed: make(chan buildContext, 1),
	}
}

func (b *blockingBuilder) Build(ctx context.Context, progress ProgressFunc) (*models.Report, error) {
	close(b.started)
	<-b.release
	_, hasDeadline := ctx.Deadline()
	b.observed <- buildContext{err: ctx.Err(), hasDeadline: hasDeadline}
	return b.report, nil
}
