package analytics

import (
	"reflect"
	"testing"
	"time"

	"github.com/TWRT/asana-dashboard/internal/models"
)

func TestProcessAssigneeStatsWorkedExample(t *testing.T) {
	stats := ProcessAssigneeStats(exampleReport(), "A", Options{Now: testNow})
	if stats == nil {
		t.Fatal("expected stats for A")
	}

	wantStatus := []StatusDistribution{
		{Status: StatusCompleted, Count: 1, Percentage: 50},
		{Status: StatusOverdue, Count: 1, Percentage: 50},
	}
	if !reflect.DeepEqual(stats.StatusDistribution, wantStatus) {
		t.Errorf("StatusDistribution = %+v, want %+v", stats.StatusDistribution, wantStatus)
	}

	wantProjects := []ProjectDistribution{{Project: "Core", Count: 2, Percentage: 100}}
	if !reflect.DeepEqual(stats.ProjectDistribution, wantProjects) {
		t.Errorf("ProjectDistribution = %+v, want %+v", stats.ProjectDistribution, wantProjects)
	}

	if stats.TotalTasks != 2 || stats.CompletionRate != 50 || stats.AverageTimePerTask != 2 {
		t.Errorf("summary = %d tasks, %v%%, %v days", stats.TotalTasks, stats.CompletionRate, stats.AverageTimePerTask)
	}
	if stats.AssignedCount != 2 || stats.CollaboratingCount != 0 {
		t.Errorf("assigned/collaborating = %d/%d, want 2/0", stats.AssignedCount, stats.CollaboratingCount)
	}
}

func TestProcessAssigneeStatsUnknownGID(t *testing.T) {
	if stats := ProcessAssigneeStats(exampleReport(), "ghost", Options{Now: testNow}); stats != nil {
		t.Errorf("expected nil for unknown gid, got %+v", stats)
	}
}

func TestProcessAssigneeStatsIdleMember(t *testing.T) {
	r := exampleReport()
	r.TeamUsers = append(r.TeamUsers, bob)

	stats := ProcessAssigneeStats(r, "B", Options{Now: testNow})
	if stats == nil {
		t.Fatal("idle roster member should still get stats")
	}
	if stats.TotalTasks != 0 || stats.CompletionRate != 0 || stats.AverageTimePerTask != 0 {
		t.Errorf("idle stats not zero: %+v", stats)
	}
	if len(stats.ProjectDistribution) != 0 || len(stats.StatusDistribution) != 0 {
		t.Errorf("idle distributions should be empty: %+v %+v", stats.ProjectDistribution, stats.StatusDistribution)
	}
	if len(stats.WeeklyData) != DefaultWeeks || len(stats.MonthlyData) != DefaultMonths {
		t.Errorf("series lengths = %d/%d, want %d/%d", len(stats.WeeklyData), len(stats.MonthlyData), DefaultWeeks, DefaultMonths)
	}
}

func TestSeriesZeroFill(t *testing.T) {
	for _, n := range []int{1, 4, 13, 52, 104} {
		stats := ProcessAssigneeStats(exampleReport(), "A", Options{Weeks: n, Months: n, Now: testNow})
		if len(stats.WeeklyData) != n {
			t.Errorf("weeks=%d: got %d weekly buckets", n, len(stats.WeeklyData))
		}
		if len(stats.MonthlyData) != n {
			t.Errorf("months=%d: got %d monthly buckets", n, len(stats.MonthlyData))
		}
		last := stats.WeeklyData[n-1]
		if last.Week != "2024-W24" || last.WeekStart != "2024-06-10" {
			t.Errorf("weeks=%d: last bucket = %+v, want 2024-W24 starting 2024-06-10", n, last)
		}
	}
}

func TestWeeklySeriesBuckets(t *testing.T) {
	now := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	items := []models.Item{
		&models.Subtask{CreatedAt: "2024-01-01", CompletedAt: "2024-01-03", Completed: true},
		&models.Subtask{CreatedAt: "2023-12-27T15:00:00Z"},
		&models.Subtask{CreatedAt: "2023-06-01"},
	}

	got := weeklySeries(items, 3, now)
	want := []WeeklyTaskData{
		{Week: "2023-W52", WeekStart: "2023-12-25", Assigned: 1},
		{Week: "2024-W01", WeekStart: "2024-01-01", Assigned: 1, Completed: 1},
		{Week: "2024-W02", WeekStart: "2024-01-08"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("weeklySeries = %+v, want %+v", got, want)
	}
}

func TestMonthlySeriesBuckets(t *testing.T) {
	now := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	items := []models.Item{
		&models.Subtask{CreatedAt: "2024-01-01", CompletedAt: "2024-01-03", Completed: true},
		&models.Subtask{CreatedAt: "2023-12-27T15:00:00Z"},
	}

	got := monthlySeries(items, 3, now)
	want := []MonthlyTaskData{
		{Month: "2023-11", MonthStart: "2023-11-01"},
		{Month: "2023-12", MonthStart: "2023-12-01", Assigned: 1},
		{Month: "2024-01", MonthStart: "2024-01-01", Assigned: 1, Completed: 1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("monthlySeries = %+v, want %+v", got, want)
	}
}

func TestStatusPartitionIsComplete(t *testing.T) {
	items := []models.Item{
		&models.Subtask{Completed: true},
		&models.Subtask{Completed: true, DueOn: "2020-01-01"},
		&models.Subtask{DueOn: "2020-01-01"},
		&models.Subtask{DueOn: "2099-01-01"},
		&models.Subtask{CreatedAt: "2020-01-01"},
		&models.Subtask{},
		&models.Task{DueOn: "2020-01-01"},
		&models.Task{CreatedAt: "2020-01-01"},
	}

	c := countStatuses(items, testNow)
	if c.completed+c.overdue+c.inProgress != c.total {
		t.Fatalf("partition %+v does not add up", c)
	}
	if c.completed != 2 || c.overdue != 3 || c.inProgress != 3 {
		t.Errorf("counts = %+v, want 2 completed, 3 overdue, 3 in progress", c)
	}
}

func TestProjectDistributionFallbacks(t *testing.T) {
	r := &models.Report{
		Sections: []*models.Section{
			{
				Name: "Ops",
				Tasks: []*models.Task{
					{
						Project: "Infra",
						Subtasks: []*models.Subtask{
							{Gid: "1", Assignee: ref(alice), Project: "Billing"},
							{Gid: "2", Assignee: ref(alice)},
							{Gid: "3", Assignee: ref(alice)},
						},
					},
					{
						Subtasks: []*models.Subtask{
							{Gid: "4", Assignee: ref(alice)},
						},
					},
				},
			},
			{
				Tasks: []*models.Task{
					{Subtasks: []*models.Subtask{{Gid: "5", Assignee: ref(alice)}}},
				},
			},
		},
		TeamUsers: []models.Assignee{alice},
	}

	got := ProcessAssigneeStats(r, "A", Options{Now: testNow}).ProjectDistribution
	want := []ProjectDistribution{
		{Project: "Infra", Count: 2, Percentage: 40},
		{Project: "Billing", Count: 1, Percentage: 20},
		{Project: "Ops", Count: 1, Percentage: 20},
		{Project: UnassignedProject, Count: 1, Percentage: 20},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ProjectDistribution = %+v, want %+v", got, want)
	}
}
