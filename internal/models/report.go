package models

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// Report is one full snapshot of the tracked project. It is rebuilt from
// scratch on every refresh and never patched in place.
type Report struct {
	Sections    []*Section `json:"sections"`
	TeamUsers   []Assignee `json:"team_users"`
	LastUpdated time.Time  `json:"last_updated"`
}

// Assignees returns the roster. TeamUsers wins when present; otherwise every
// distinct task or subtask assignee is collected, ordered by name.
func (r *Report) Assignees() []Assignee {
	if len(r.TeamUsers) > 0 {
		return r.TeamUsers
	}

	seen := make(map[string]Assignee)
	add := func(a *Assignee) {
		if a == nil || a.Gid == "" {
			return
		}
		if prev, ok := seen[a.Gid]; ok && prev.Email != "" {
			return
		}
		seen[a.Gid] = *a
	}
	for _, section := range r.Sections {
		for _, task := range section.Tasks {
			add(task.Assignee)
			for _, sub := range task.Subtasks {
				add(sub.Assignee)
			}
		}
	}

	assignees := make([]Assignee, 0, len(seen))
	for _, a := range seen {
		assignees = append(assignees, a)
	}
	sort.Slice(assignees, func(i, j int) bool {
		if assignees[i].Name != assignees[j].Name {
			return assignees[i].Name < assignees[j].Name
		}
		return assignees[i].Gid < assignees[j].Gid
	})
	return assignees
}

// FindAssignee looks gid up in the roster.
func (r *Report) FindAssignee(gid string) (Assignee, bool) {
	for _, a := range r.Assignees() {
		if a.Gid == gid {
			return a, true
		}
	}
	return Assignee{}, false
}

// Counts returns the number of sections, tasks and subtasks in the report.
func (r *Report) Counts() (sections, tasks, subtasks int) {
	sections = len(r.Sections)
	for _, s := range r.Sections {
		tasks += len(s.Tasks)
		for _, t := range s.Tasks {
			subtasks += len(t.Subtasks)
		}
	}
	return sections, tasks, subtasks
}

func (r *Report) ToJSON() ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	return data, nil
}

func FromJSON(data []byte) (*Report, error) {
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("unmarshal report: %w", err)
	}
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("unmarshal report: %w", err)
	}
	return &r, nil
}

// Validate rejects null sections, tasks and subtasks.
func (r *Report) Validate() error {
	for i, section := range r.Sections {
		if section == nil {
			return fmt.Errorf("section %d is null", i)
		}
		for j, task := range section.Tasks {
			if task == nil {
				return fmt.Errorf("section %s task %d is null", section.Gid, j)
			}
			for k, sub := range task.Subtasks {
				if sub == nil {
					return fmt.Errorf("task %s subtask %d is null", task.Gid, k)
				}
			}
		}
	}
	return nil
}
