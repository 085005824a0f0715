package analytics

import (
	"fmt"
	"sort"
	"time"

	"github.com/TWRT/asana-dashboard/internal/models"
)

const (
	DefaultWeeks  = 52
	DefaultMonths = 12

	UnassignedProject = "Unassigned"

	StatusCompleted  = "Completed"
	StatusInProgress = "In Progress"
	StatusOverdue    = "Overdue"
)

// Options controls the series windows. Zero values fall back to the defaults
// and the current time.
type Options struct {
	Weeks  int
	Months int
	Now    time.Time
}

func (o Options) withDefaults() Options {
	if o.Weeks <= 0 {
		o.Weeks = DefaultWeeks
	}
	if o.Months <= 0 {
		o.Months = DefaultMonths
	}
	if o.Now.IsZero() {
		o.Now = time.Now()
	}
	o.Now = o.Now.UTC()
	return o
}

type WeeklyTaskData struct {
	Week      string `json:"week"`
	WeekStart string `json:"week_start"`
	Assigned  int    `json:"assigned"`
	Completed int    `json:"completed"`
}

type MonthlyTaskData struct {
	Month      string `json:"month"`
	MonthStart string `json:"month_start"`
	Assigned   int    `json:"assigned"`
	Completed  int    `json:"completed"`
}

type ProjectDistribution struct {
	Project    string  `json:"project"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

type StatusDistribution struct {
	Status     string  `json:"status"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// AssigneeStats is everything a person's dashboard shows, over both the
// subtasks they own and the ones they follow.
type AssigneeStats struct {
	Assignee            models.Assignee       `json:"assignee"`
	TotalTasks          int                   `json:"total_tasks"`
	CompletedTasks      int                   `json:"completed_tasks"`
	OverdueTasks        int                   `json:"overdue_tasks"`
	InProgressTasks     int                   `json:"in_progress_tasks"`
	CompletionRate      float64               `json:"completion_rate"`
	AverageTimePerTask  float64               `json:"average_time_per_task"`
	AverageTasksPerWeek float64               `json:"average_tasks_per_week"`
	AssignedCount       int                   `json:"assigned_count"`
	CollaboratingCount  int                   `json:"collaborating_count"`
	WeeklyData          []WeeklyTaskData      `json:"weekly_data"`
	MonthlyData         []MonthlyTaskData     `json:"monthly_data"`
	ProjectDistribution []ProjectDistribution `json:"project_distribution"`
	StatusDistribution  []StatusDistribution  `json:"status_distribution"`
}

// ProcessAssigneeStats computes the dashboard for gid. It returns nil when gid
// is not on the report's roster.
func ProcessAssigneeStats(r *models.Report, gid string, opts Options) *AssigneeStats {
	assignee, ok := r.FindAssignee(gid)
	if !ok {
		return nil
	}
	opts = opts.withDefaults()

	data := GetUserDataAt(r, gid, opts.Now)
	entries := collect(r, gid)
	items := make([]models.Item, 0, len(entries))
	for _, e := range entries {
		items = append(items, e.subtask)
	}

	counts := countStatuses(items, opts.Now)
	weekly := weeklySeries(items, opts.Weeks, opts.Now)

	assignedTotal := 0
	for _, w := range weekly {
		assignedTotal += w.Assigned
	}

	return &AssigneeStats{
		Assignee:            assignee,
		TotalTasks:          counts.total,
		CompletedTasks:      counts.completed,
		OverdueTasks:        counts.overdue,
		InProgressTasks:     counts.inProgress,
		CompletionRate:      data.Combined.CompletionRate,
		AverageTimePerTask:  data.Combined.AverageTimePerTask,
		AverageTasksPerWeek: float64(assignedTotal) / float64(opts.Weeks),
		AssignedCount:       data.AssigneeData.TotalTasks,
		CollaboratingCount:  data.CollaboratorData.TotalTasks,
		WeeklyData:          weekly,
		MonthlyData:         monthlySeries(items, opts.Months, opts.Now),
		ProjectDistribution: projectDistribution(entries),
		StatusDistribution:  counts.distribution(),
	}
}

type statusCounts struct {
	total      int
	completed  int
	overdue    int
	inProgress int
}

// countStatuses derives in-progress as the remainder so the three buckets
// always add up to total.
func countStatuses(items []models.Item, now time.Time) statusCounts {
	c := statusCounts{total: len(items)}
	for _, item := range items {
		switch {
		case item.IsCompleted():
			c.completed++
		case item.IsOverdueAt(now):
			c.overdue++
		}
	}
	c.inProgress = c.total - c.completed - c.overdue
	return c
}

func (c statusCounts) distribution() []StatusDistribution {
	buckets := []StatusDistribution{
		{Status: StatusCompleted, Count: c.completed},
		{Status: StatusInProgress, Count: c.inProgress},
		{Status: StatusOverdue, Count: c.overdue},
	}
	out := make([]StatusDistribution, 0, len(buckets))
	for _, b := range buckets {
		if b.Count == 0 {
			continue
		}
		b.Percentage = percentage(b.Count, c.total)
		out = append(out, b)
	}
	return out
}

// weekStart returns the Monday 00:00 UTC of t's ISO week.
func weekStart(t time.Time) time.Time {
	t = t.UTC()
	offset := (int(t.Weekday()) + 6) % 7
	return time.Date(t.Year(), t.Month(), t.Day()-offset, 0, 0, 0, 0, time.UTC)
}

func isoWeekKey(t time.Time) string {
	year, week := t.UTC().ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// weeklySeries returns exactly weeks buckets, oldest first, ending with the
// week containing now.
func weeklySeries(items []models.Item, weeks int, now time.Time) []WeeklyTaskData {
	current := weekStart(now)
	series := make([]WeeklyTaskData, weeks)
	index := make(map[string]int, weeks)
	for i := 0; i < weeks; i++ {
		start := current.AddDate(0, 0, -7*(weeks-1-i))
		key := isoWeekKey(start)
		series[i] = WeeklyTaskData{Week: key, WeekStart: start.Format(models.DateLayout)}
		index[key] = i
	}

	for _, item := range items {
		if created, ok := item.CreatedTime(); ok {
			if i, ok := index[isoWeekKey(created)]; ok {
				series[i].Assigned++
			}
		}
		if completed, ok := item.CompletedTime(); ok {
			if i, ok := index[isoWeekKey(completed)]; ok {
				series[i].Completed++
			}
		}
	}
	return series
}

// monthlySeries returns exactly months buckets, oldest first, ending with
// now's calendar month.
func monthlySeries(items []models.Item, months int, now time.Time) []MonthlyTaskData {
	current := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	series := make([]MonthlyTaskData, months)
	index := make(map[string]int, months)
	for i := 0; i < months; i++ {
		start := current.AddDate(0, -(months - 1 - i), 0)
		key := start.Format("2006-01")
		series[i] = MonthlyTaskData{Month: key, MonthStart: start.Format(models.DateLayout)}
		index[key] = i
	}

	for _, item := range items {
		if created, ok := item.CreatedTime(); ok {
			if i, ok := index[created.UTC().Format("2006-01")]; ok {
				series[i].Assigned++
			}
		}
		if completed, ok := item.CompletedTime(); ok {
			if i, ok := index[completed.UTC().Format("2006-01")]; ok {
				series[i].Completed++
			}
		}
	}
	return series
}

// projectOf resolves the project label: the subtask's own, then the parent
// task's, then the section name.
func projectOf(e entry) string {
	switch {
	case e.subtask.Project != "":
		return e.subtask.Project
	case e.task != nil && e.task.Project != "":
		return e.task.Project
	case e.section != nil && e.section.Name != "":
		return e.section.Name
	default:
		return UnassignedProject
	}
}

func projectDistribution(entries []entry) []ProjectDistribution {
	counts := make(map[string]int)
	for _, e := range entries {
		counts[projectOf(e)]++
	}

	out := make([]ProjectDistribution, 0, len(counts))
	for project, count := range counts {
		out = append(out, ProjectDistribution{
			Project:    project,
			Count:      count,
			Percentage: percentage(count, len(entries)),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Project < out[j].Project
	})
	return out
}
