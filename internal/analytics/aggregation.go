// Package analytics turns a report snapshot into per-person KPIs, time series,
// distributions and team comparisons. Every function here is pure: missing
// data degrades to documented defaults and no ratio ever divides by zero.
package analytics

import (
	"time"

	"github.com/TWRT/asana-dashboard/internal/models"
)

// ItemSet is one partition of a person's work. Tasks holds the parent tasks
// that group the partition's subtasks; all counts are over Subtasks.
type ItemSet struct {
	Tasks              []*models.Task    `json:"tasks"`
	Subtasks           []*models.Subtask `json:"subtasks"`
	TotalTasks         int               `json:"total_tasks"`
	CompletedTasks     int               `json:"completed_tasks"`
	OverdueTasks       int               `json:"overdue_tasks"`
	CompletionRate     float64           `json:"completion_rate"`
	AverageTimePerTask float64           `json:"average_time_per_task"`
}

// UserData splits a person's subtasks into the ones they own and the ones
// they only follow. Combined is the union of both.
type UserData struct {
	AssigneeData     ItemSet `json:"assignee_data"`
	CollaboratorData ItemSet `json:"collaborator_data"`
	Combined         ItemSet `json:"combined"`
}

// entry is a subtask relevant to one person together with its place in the tree.
type entry struct {
	subtask  *models.Subtask
	task     *models.Task
	section  *models.Section
	watching bool
}

type accumulator struct {
	set       ItemSet
	seenTasks map[string]bool
	timeTotal int
	timed     int
}

func newAccumulator() *accumulator {
	return &accumulator{
		set: ItemSet{
			Tasks:    []*models.Task{},
			Subtasks: []*models.Subtask{},
		},
		seenTasks: make(map[string]bool),
	}
}

func (a *accumulator) addTask(t *models.Task) {
	if a.seenTasks[t.Gid] {
		return
	}
	a.seenTasks[t.Gid] = true
	a.set.Tasks = append(a.set.Tasks, t)
}

func (a *accumulator) addSubtask(s *models.Subtask, now time.Time) {
	a.set.Subtasks = append(a.set.Subtasks, s)
	a.set.TotalTasks++
	if s.Completed {
		a.set.CompletedTasks++
		if days, ok := s.ResolvedTimeSpent(); ok {
			a.timeTotal += days
			a.timed++
		}
	}
	if s.IsOverdueAt(now) {
		a.set.OverdueTasks++
	}
}

func (a *accumulator) finish() ItemSet {
	a.set.CompletionRate = percentage(a.set.CompletedTasks, a.set.TotalTasks)
	if a.timed > 0 {
		a.set.AverageTimePerTask = float64(a.timeTotal) / float64(a.timed)
	}
	return a.set
}

// GetUserData partitions the report for gid using the current time.
func GetUserData(r *models.Report, gid string) UserData {
	return GetUserDataAt(r, gid, time.Now())
}

// GetUserDataAt partitions the report for gid, judging overdue items against now.
func GetUserDataAt(r *models.Report, gid string, now time.Time) UserData {
	assigned, watching, combined := newAccumulator(), newAccumulator(), newAccumulator()

	for _, section := range r.Sections {
		for _, task := range section.Tasks {
			if task.Assignee != nil && task.Assignee.Gid == gid {
				assigned.addTask(task)
				combined.addTask(task)
			}
		}
	}

	for _, e := range collect(r, gid) {
		target := assigned
		if e.watching {
			target = watching
		}
		target.addTask(e.task)
		target.addSubtask(e.subtask, now)
		combined.addTask(e.task)
		combined.addSubtask(e.subtask, now)
	}

	return UserData{
		AssigneeData:     assigned.finish(),
		CollaboratorData: watching.finish(),
		Combined:         combined.finish(),
	}
}

// collect walks sections, tasks and subtasks once and returns every subtask
// gid is assigned to or follows.
func collect(r *models.Report, gid string) []entry {
	var entries []entry
	for _, section := range r.Sections {
		for _, task := range section.Tasks {
			for _, sub := range task.Subtasks {
				switch {
				case sub.IsAssignedTo(gid):
					entries = append(entries, entry{subtask: sub, task: task, section: section})
				case sub.IsFollowedBy(gid):
					entries = append(entries, entry{subtask: sub, task: task, section: section, watching: true})
				}
			}
		}
	}
	return entries
}

func percentage(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}
