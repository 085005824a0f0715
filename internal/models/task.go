package models

import (
	"math"
	"time"
)

// staleAfter is how long an undated subtask may stay open before it counts as overdue.
const staleAfter = 7 * 24 * time.Hour

type ItemKind string

const (
	KindTask    ItemKind = "Task"
	KindSubtask ItemKind = "Subtask"
)

// Item is the capability shared by tasks and subtasks.
type Item interface {
	Kind() ItemKind
	ItemGID() string
	IsCompleted() bool
	IsOverdueAt(now time.Time) bool
	CreatedTime() (time.Time, bool)
	CompletedTime() (time.Time, bool)
	// ResolvedTimeSpent returns the time spent in days and whether it could be computed.
	ResolvedTimeSpent() (int, bool)
}

type Assignee struct {
	Gid   string `json:"gid"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// Follower watches a subtask without being assigned to it.
type Follower struct {
	Gid  string `json:"gid"`
	Name string `json:"name"`
}

type Subtask struct {
	Gid         string     `json:"gid"`
	Name        string     `json:"name"`
	Assignee    *Assignee  `json:"assignee,omitempty"`
	Followers   []Follower `json:"followers"`
	Completed   bool       `json:"completed"`
	CreatedAt   string     `json:"created_at,omitempty"`
	CompletedAt string     `json:"completed_at,omitempty"`
	DueOn       string     `json:"due_on,omitempty"`
	Project     string     `json:"project,omitempty"`
	Priority    string     `json:"priority,omitempty"`
}

func (s *Subtask) Kind() ItemKind    { return KindSubtask }
func (s *Subtask) ItemGID() string   { return s.Gid }
func (s *Subtask) IsCompleted() bool { return s.Completed }

func (s *Subtask) CreatedTime() (time.Time, bool)   { return ParseDate(s.CreatedAt) }
func (s *Subtask) CompletedTime() (time.Time, bool) { return ParseDate(s.CompletedAt) }

// IsOverdue reports whether the subtask is open past its due date. Subtasks
// without a due date are overdue once they have been open for seven days.
func (s *Subtask) IsOverdue() bool {
	return s.IsOverdueAt(time.Now())
}

func (s *Subtask) IsOverdueAt(now time.Time) bool {
	if s.Completed {
		return false
	}
	if s.DueOn != "" {
		due, ok := ParseDate(s.DueOn)
		return ok && due.Before(now)
	}
	created, ok := ParseDate(s.CreatedAt)
	return ok && now.Sub(created) > staleAfter
}

// TimeSpent returns the whole days between creation and completion, rounded up.
func (s *Subtask) TimeSpent() int {
	days, _ := s.ResolvedTimeSpent()
	return days
}

func (s *Subtask) ResolvedTimeSpent() (int, bool) {
	return spanDays(s.CreatedAt, s.CompletedAt)
}

// IsAssignedTo reports whether gid is the subtask assignee.
func (s *Subtask) IsAssignedTo(gid string) bool {
	return s.Assignee != nil && s.Assignee.Gid == gid
}

// IsFollowedBy reports whether gid appears among the followers.
func (s *Subtask) IsFollowedBy(gid string) bool {
	for _, f := range s.Followers {
		if f.Gid == gid {
			return true
		}
	}
	return false
}

type Task struct {
	Gid         string     `json:"gid"`
	Name        string     `json:"name"`
	Assignee    *Assignee  `json:"assignee,omitempty"`
	Completed   bool       `json:"completed"`
	CompletedAt string     `json:"completed_at,omitempty"`
	CreatedAt   string     `json:"created_at,omitempty"`
	DueOn       string     `json:"due_on,omitempty"`
	Priority    string     `json:"priority,omitempty"`
	Project     string     `json:"project,omitempty"`
	Subtasks    []*Subtask `json:"subtasks"`
}

func (t *Task) Kind() ItemKind    { return KindTask }
func (t *Task) ItemGID() string   { return t.Gid }
func (t *Task) IsCompleted() bool { return t.Completed }

func (t *Task) CreatedTime() (time.Time, bool)   { return ParseDate(t.CreatedAt) }
func (t *Task) CompletedTime() (time.Time, bool) { return ParseDate(t.CompletedAt) }

// IsOverdue only looks at due_on. Unlike Subtask there is no age fallback.
func (t *Task) IsOverdue() bool {
	return t.IsOverdueAt(time.Now())
}

func (t *Task) IsOverdueAt(now time.Time) bool {
	if t.Completed || t.DueOn == "" {
		return false
	}
	due, ok := ParseDate(t.DueOn)
	return ok && due.Before(now)
}

// SubtaskCompletionRate is the percentage of completed subtasks, 0 without subtasks.
func (t *Task) SubtaskCompletionRate() float64 {
	if len(t.Subtasks) == 0 {
		return 0
	}
	completed := 0
	for _, s := range t.Subtasks {
		if s.Completed {
			completed++
		}
	}
	return float64(completed) / float64(len(t.Subtasks)) * 100
}

// TotalTimeSpent uses the task's own dates when both exist, otherwise the sum of
// its subtasks.
func (t *Task) TotalTimeSpent() int {
	days, _ := t.ResolvedTimeSpent()
	return days
}

func (t *Task) ResolvedTimeSpent() (int, bool) {
	if days, ok := spanDays(t.CreatedAt, t.CompletedAt); ok {
		return days, true
	}
	total, resolved := 0, false
	for _, s := range t.Subtasks {
		if days, ok := s.ResolvedTimeSpent(); ok {
			total += days
			resolved = true
		}
	}
	return total, resolved
}

// InvolvesAssignee reports whether gid owns the task or any of its subtasks.
func (t *Task) InvolvesAssignee(gid string) bool {
	if t.Assignee != nil && t.Assignee.Gid == gid {
		return true
	}
	for _, s := range t.Subtasks {
		if s.IsAssignedTo(gid) {
			return true
		}
	}
	return false
}

type Section struct {
	Gid   string  `json:"gid"`
	Name  string  `json:"name"`
	Tasks []*Task `json:"tasks"`
}

// TasksForAssignee returns the tasks where gid is the assignee of the task or of
// one of its subtasks.
func (s *Section) TasksForAssignee(gid string) []*Task {
	var tasks []*Task
	for _, t := range s.Tasks {
		if t.InvolvesAssignee(gid) {
			tasks = append(tasks, t)
		}
	}
	return tasks
}

func spanDays(createdAt, completedAt string) (int, bool) {
	created, ok := ParseDate(createdAt)
	if !ok {
		return 0, false
	}
	completed, ok := ParseDate(completedAt)
	if !ok {
		return 0, false
	}
	d := completed.Sub(created)
	if d < 0 {
		return 0, false
	}
	return int(math.Ceil(d.Hours() / 24)), true
}
