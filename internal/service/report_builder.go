package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/TWRT/asana-dashboard/internal/client"
	"github.com/TWRT/asana-dashboard/internal/models"
	"golang.org/x/sync/errgroup"
)

// ProgressFunc is called after each task's subtasks are fetched.
type ProgressFunc func(done, total int)

// Builder produces a fresh report snapshot.
type Builder interface {
	Build(ctx context.Context, progress ProgressFunc) (*models.Report, error)
}

type ReportBuilder struct {
	source      client.ReportSource
	projectGid  string
	teamGid     string
	concurrency int
	logger      *slog.Logger
	now         func() time.Time
}

func NewReportBuilder(
	source client.ReportSource,
	projectGid string,
	teamGid string,
	concurrency int,
	logger *slog.Logger,
) *ReportBuilder {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &ReportBuilder{
		source:      source,
		projectGid:  projectGid,
		teamGid:     teamGid,
		concurrency: concurrency,
		logger:      logger,
		now:         time.Now,
	}
}

// Build fetches the roster, every section with its tasks, and every task's
// subtasks. Any fetch error aborts the whole build.
func (b *ReportBuilder) Build(ctx context.Context, progress ProgressFunc) (*models.Report, error) {
	start := b.now()

	var roster []models.Assignee
	if b.teamGid != "" {
		users, err := b.source.GetTeamUsers(ctx, b.teamGid)
		if err != nil {
			return nil, fmt.Errorf("build report: %w", err)
		}
		roster = users
	}

	sections, err := b.source.GetSections(ctx, b.projectGid)
	if err != nil {
		return nil, fmt.Errorf("build report: %w", err)
	}

	report := &models.Report{
		Sections:  make([]*models.Section, len(sections)),
		TeamUsers: roster,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)
	for i := range sections {
		section := sections[i]
		report.Sections[i] = &section
		g.Go(func() error {
			tasks, err := b.source.GetSectionTasks(gctx, section.Gid)
			if err != nil {
				return err
			}
			report.Sections[i].Tasks = tasks
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("build report: %w", err)
	}

	var tasks []*models.Task
	for _, s := range report.Sections {
		tasks = append(tasks, s.Tasks...)
	}

	var (
		mu   sync.Mutex
		done int
	)
	total := len(tasks)
	if progress != nil {
		progress(0, total)
	}

	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)
	for _, task := range tasks {
		g.Go(func() error {
			subtasks, err := b.source.GetSubtasks(gctx, task.Gid)
			if err != nil {
				return err
			}
			task.Subtasks = subtasks

			mu.Lock()
			done++
			if progress != nil {
				progress(done, total)
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("build report: %w", err)
	}

	report.LastUpdated = b.now().UTC()
	nSections, nTasks, nSubtasks := report.Counts()
	b.logger.Info("report built",
		"sections", nSections,
		"tasks", nTasks,
		"subtasks", nSubtasks,
		"team_users", len(roster),
		"duration", b.now().Sub(start),
	)
	return report, nil
}
