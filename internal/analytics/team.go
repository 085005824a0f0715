package analytics

import (
	"math"

	"github.com/TWRT/asana-dashboard/internal/models"
)

type TeamAverages struct {
	AverageCompletionRate float64 `json:"average_completion_rate"`
	AverageTasksPerWeek   float64 `json:"average_tasks_per_week"`
	AverageTimePerTask    float64 `json:"average_time_per_task"`
	TotalTeamMembers      int     `json:"total_team_members"`
}

// ComputeTeamAverages averages every roster member's stats. Idle members
// count with zeros.
func ComputeTeamAverages(r *models.Report, opts Options) TeamAverages {
	roster := r.Assignees()
	stats := make([]*AssigneeStats, 0, len(roster))
	for _, a := range roster {
		if s := ProcessAssigneeStats(r, a.Gid, opts); s != nil {
			stats = append(stats, s)
		}
	}
	return TeamAveragesFromStats(stats)
}

// TeamAveragesFromStats averages precomputed per-person stats.
func TeamAveragesFromStats(stats []*AssigneeStats) TeamAverages {
	team := TeamAverages{TotalTeamMembers: len(stats)}
	if len(stats) == 0 {
		return team
	}
	for _, s := range stats {
		team.AverageCompletionRate += s.CompletionRate
		team.AverageTasksPerWeek += s.AverageTasksPerWeek
		team.AverageTimePerTask += s.AverageTimePerTask
	}
	n := float64(len(stats))
	team.AverageCompletionRate /= n
	team.AverageTasksPerWeek /= n
	team.AverageTimePerTask /= n
	return team
}

const (
	MetricCompletionRate = "completion_rate"
	MetricProductivity   = "productivity"
	MetricCompletedTasks = "completed_tasks"
	MetricTimeManagement = "time_management"
	MetricConsistency    = "consistency"
	MetricSpeed          = "speed"

	TierExcellent        = "excellent"
	TierGood             = "good"
	TierFair             = "fair"
	TierNeedsImprovement = "needs improvement"

	// timeManagementBaseline stands in for a team overdue aggregate, which is not tracked.
	timeManagementBaseline = 80
	neutralScore           = 50
)

// PerformanceMetric is one radar axis. MaxValue scales the chart and the
// overall score.
type PerformanceMetric struct {
	Metric          string  `json:"metric"`
	Label           string  `json:"label"`
	IndividualValue float64 `json:"individual_value"`
	TeamAverage     float64 `json:"team_average"`
	MaxValue        float64 `json:"max_value"`
}

type Performance struct {
	Metrics      []PerformanceMetric `json:"metrics"`
	OverallScore int                 `json:"overall_score"`
	Tier         string              `json:"tier"`
}

// ComputePerformance scores one person against the team baseline.
func ComputePerformance(stats *AssigneeStats, team TeamAverages) Performance {
	// Productivity puts a lifetime total against a weekly team average. The units differ.
	productivity := float64(stats.TotalTasks)
	teamCompleted := team.AverageTasksPerWeek * team.AverageCompletionRate / 100
	completed := float64(stats.CompletedTasks)

	metrics := []PerformanceMetric{
		{
			Metric:          MetricCompletionRate,
			Label:           "Completion Rate",
			IndividualValue: stats.CompletionRate,
			TeamAverage:     team.AverageCompletionRate,
			MaxValue:        100,
		},
		{
			Metric:          MetricProductivity,
			Label:           "Productivity",
			IndividualValue: productivity,
			TeamAverage:     team.AverageTasksPerWeek,
			MaxValue:        math.Max(productivity, team.AverageTasksPerWeek),
		},
		{
			Metric:          MetricCompletedTasks,
			Label:           "Completed Tasks",
			IndividualValue: completed,
			TeamAverage:     teamCompleted,
			MaxValue:        math.Max(completed, teamCompleted),
		},
		{
			Metric:          MetricTimeManagement,
			Label:           "Time Management",
			IndividualValue: timeManagementScore(stats),
			TeamAverage:     timeManagementBaseline,
			MaxValue:        100,
		},
		{
			Metric:          MetricConsistency,
			Label:           "Consistency",
			IndividualValue: consistencyScore(stats.WeeklyData),
			TeamAverage:     neutralScore,
			MaxValue:        100,
		},
		{
			Metric:          MetricSpeed,
			Label:           "Speed",
			IndividualValue: speedScore(stats.AverageTimePerTask, team.AverageTimePerTask),
			TeamAverage:     neutralScore,
			MaxValue:        100,
		},
	}

	score := OverallScore(metrics)
	return Performance{Metrics: metrics, OverallScore: score, Tier: Tier(score)}
}

// OverallScore is the rounded unweighted mean of value/max*100. A metric with a
// zero max contributes 0.
func OverallScore(metrics []PerformanceMetric) int {
	if len(metrics) == 0 {
		return 0
	}
	sum := 0.0
	for _, m := range metrics {
		if m.MaxValue > 0 {
			sum += m.IndividualValue / m.MaxValue * 100
		}
	}
	return int(math.Round(sum / float64(len(metrics))))
}

func Tier(score int) string {
	switch {
	case score >= 80:
		return TierExcellent
	case score >= 65:
		return TierGood
	case score >= 50:
		return TierFair
	default:
		return TierNeedsImprovement
	}
}

func timeManagementScore(stats *AssigneeStats) float64 {
	if stats.OverdueTasks == 0 {
		return 100
	}
	return math.Max(0, 100-percentage(stats.OverdueTasks, stats.TotalTasks))
}

// consistencyScore penalizes the coefficient of variation of weekly completions,
// over weeks that completed anything.
func consistencyScore(weekly []WeeklyTaskData) float64 {
	var values []float64
	for _, w := range weekly {
		if w.Completed > 0 {
			values = append(values, float64(w.Completed))
		}
	}
	if len(values) < 2 {
		return neutralScore
	}
	cv := coefficientOfVariation(values)
	return clamp(100-cv*50, 0, 100)
}

func speedScore(individual, team float64) float64 {
	if individual <= 0 || team <= 0 {
		return neutralScore
	}
	return clamp(team/individual*50, 0, 100)
}

// coefficientOfVariation is the population standard deviation over the mean.
func coefficientOfVariation(values []float64) float64 {
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	if mean == 0 {
		return 0
	}
	variance := 0.0
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(values))
	return math.Sqrt(variance) / mean
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
