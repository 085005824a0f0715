package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/TWRT/asana-dashboard/internal/analytics"
	"github.com/TWRT/asana-dashboard/internal/models"
	"github.com/TWRT/asana-dashboard/internal/repository"
)

var ErrForbidden = errors.New("forbidden")

type ReportProvider interface {
	Current(ctx context.Context) (*models.Report, error)
}

type RoleStore interface {
	GetRoleInfo(ctx context.Context, email string) (*models.UserRoleInfo, error)
}

type PreferenceStore interface {
	GetLastSelected(ctx context.Context, email string) (string, error)
	SetLastSelected(ctx context.Context, email, gid string) error
}

type AssigneeList struct {
	Role     models.UserRoleInfo `json:"role"`
	Persons  []models.Assignee   `json:"persons"`
	Selected string              `json:"selected,omitempty"`
}

type PerformanceView struct {
	Assignee    models.Assignee        `json:"assignee"`
	Performance analytics.Performance  `json:"performance"`
	Team        analytics.TeamAverages `json:"team"`
}

type DashboardService struct {
	reports  ReportProvider
	roles    RoleStore
	prefs    PreferenceStore
	defaults analytics.Options
	logger   *slog.Logger
}

func NewDashboardService(
	reports ReportProvider,
	roles RoleStore,
	prefs PreferenceStore,
	defaults analytics.Options,
	logger *slog.Logger,
) *DashboardService {
	return &DashboardService{
		reports:  reports,
		roles:    roles,
		prefs:    prefs,
		defaults: defaults,
		logger:   logger,
	}
}

// Role resolves the caller. Unknown callers are forbidden.
func (s *DashboardService) Role(ctx context.Context, email string) (*models.UserRoleInfo, error) {
	if email == "" {
		return nil, ErrForbidden
	}
	role, err := s.roles.GetRoleInfo(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: unknown user %s", ErrForbidden, email)
	}
	if err != nil {
		return nil, fmt.Errorf("get role: %w", err)
	}
	return role, nil
}

func (s *DashboardService) Assignees(ctx context.Context, email string) (*AssigneeList, error) {
	_, role, sel, err := s.load(ctx, email)
	if err != nil {
		return nil, err
	}

	list := &AssigneeList{Role: *role, Persons: sel.Visible()}
	if gid, ok := sel.Selected(); ok {
		list.Selected = gid
	}
	return list, nil
}

// Stats returns gid's dashboard when the caller may see gid, and remembers
// the pick for next time.
func (s *DashboardService) Stats(ctx context.Context, email, gid string, opts analytics.Options) (*analytics.AssigneeStats, error) {
	report, _, sel, err := s.load(ctx, email)
	if err != nil {
		return nil, err
	}
	if err := sel.Select(gid); err != nil {
		return nil, err
	}

	stats := analytics.ProcessAssigneeStats(report, gid, s.options(opts))
	if stats == nil {
		return nil, fmt.Errorf("assignee %s: %w", gid, repository.ErrNotFound)
	}

	if err := s.prefs.SetLastSelected(ctx, email, gid); err != nil {
		s.logger.Warn("saving last selected", "email", email, "gid", gid, "error", err)
	}
	return stats, nil
}

func (s *DashboardService) Performance(ctx context.Context, email, gid string) (*PerformanceView, error) {
	report, _, sel, err := s.load(ctx, email)
	if err != nil {
		return nil, err
	}
	if err := sel.Select(gid); err != nil {
		return nil, err
	}

	opts := s.options(analytics.Options{})
	stats := analytics.ProcessAssigneeStats(report, gid, opts)
	if stats == nil {
		return nil, fmt.Errorf("assignee %s: %w", gid, repository.ErrNotFound)
	}

	team := analytics.ComputeTeamAverages(report, opts)
	return &PerformanceView{
		Assignee:    stats.Assignee,
		Performance: analytics.ComputePerformance(stats, team),
		Team:        team,
	}, nil
}

func (s *DashboardService) Team(ctx context.Context, email string) (analytics.TeamAverages, error) {
	if _, err := s.Role(ctx, email); err != nil {
		return analytics.TeamAverages{}, err
	}
	report, err := s.reports.Current(ctx)
	if err != nil {
		return analytics.TeamAverages{}, err
	}
	return analytics.ComputeTeamAverages(report, s.options(analytics.Options{})), nil
}

func (s *DashboardService) load(ctx context.Context, email string) (*models.Report, *models.UserRoleInfo, *analytics.Selection, error) {
	role, err := s.Role(ctx, email)
	if err != nil {
		return nil, nil, nil, err
	}

	report, err := s.reports.Current(ctx)
	if err != nil {
		return nil, nil, nil, err
	}

	preferred, err := s.prefs.GetLastSelected(ctx, email)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		s.logger.Warn("loading last selected", "email", email, "error", err)
	}

	sel := analytics.NewSelection(*role)
	sel.OnRosterLoaded(report.Assignees(), preferred)
	return report, role, sel, nil
}

func (s *DashboardService) options(opts analytics.Options) analytics.Options {
	if opts.Weeks <= 0 {
		opts.Weeks = s.defaults.Weeks
	}
	if opts.Months <= 0 {
		opts.Months = s.defaults.Months
	}
	if opts.Now.IsZero() {
		opts.Now = s.defaults.Now
	}
	return opts
}
