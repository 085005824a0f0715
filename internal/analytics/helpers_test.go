package analytics

import (
	"time"

	"github.com/TWRT/asana-dashboard/internal/models"
)

var (
	testNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	alice   = models.Assignee{Gid: "A", Name: "Alice", Email: "alice@example.com"}
	bob     = models.Assignee{Gid: "B", Name: "Bob", Email: "bob@example.com"}
)

func ref(a models.Assignee) *models.Assignee {
	return &a
}

// exampleReport is one "Eng" section with one "Core" task owned by Alice and
// two subtasks: one done in two days, one long overdue.
func exampleReport() *models.Report {
	return &models.Report{
		Sections: []*models.Section{
			{
				Gid:  "sec-eng",
				Name: "Eng",
				Tasks: []*models.Task{
					{
						Gid:      "task-1",
						Name:     "Core platform",
						Assignee: ref(alice),
						Project:  "Core",
						Subtasks: []*models.Subtask{
							{
								Gid:         "sub-1",
								Name:        "Design",
								Assignee:    ref(alice),
								Completed:   true,
								CreatedAt:   "2024-01-01",
								CompletedAt: "2024-01-03",
							},
							{
								Gid:      "sub-2",
								Name:     "Ship",
								Assignee: ref(alice),
								DueOn:    "2020-01-01",
							},
						},
					},
				},
			},
		},
		TeamUsers:   []models.Assignee{alice},
		LastUpdated: testNow,
	}
}
