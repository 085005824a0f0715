package client

import (
	"context"

	"github.com/TWRT/asana-dashboard/internal/models"
)

type RosterProvider interface {
	GetTeamUsers(ctx context.Context, teamGid string) ([]models.Assignee, error)
}

type SectionProvider interface {
	GetSections(ctx context.Context, projectGid string) ([]models.Section, error)
	GetSectionTasks(ctx context.Context, sectionGid string) ([]*models.Task, error)
}

type SubtaskProvider interface {
	GetSubtasks(ctx context.Context, taskGid string) ([]*models.Subtask, error)
}

// ReportSource is everything needed to build a report snapshot.
type ReportSource interface {
	RosterProvider
	SectionProvider
	SubtaskProvider
}
