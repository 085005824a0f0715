package analytics

import (
	"errors"

	"github.com/TWRT/asana-dashboard/internal/models"
)

var ErrSelectionForbidden = errors.New("selection not permitted for this role")

// FilterByEmails keeps persons whose email is on the allow-list. Persons
// without an email always pass.
func FilterByEmails(persons []models.Assignee, viewableEmails []string) []models.Assignee {
	allowed := make(map[string]bool, len(viewableEmails))
	for _, e := range viewableEmails {
		allowed[models.NormalizeEmail(e)] = true
	}

	out := make([]models.Assignee, 0, len(persons))
	for _, p := range persons {
		if p.Email == "" || allowed[models.NormalizeEmail(p.Email)] {
			out = append(out, p)
		}
	}
	return out
}

// VisiblePersons applies the role rules: directors and admins see the whole
// roster, everyone else goes through FilterByEmails.
func VisiblePersons(persons []models.Assignee, role models.UserRoleInfo) []models.Assignee {
	if role.RoleLevel.SeesEveryone() {
		return persons
	}
	return FilterByEmails(persons, role.CanViewEmails)
}

type SelectionState int

const (
	SelectionNone SelectionState = iota
	SelectionSelected
)

// Selection tracks which person a caller is looking at. It starts empty and
// moves to SELECTED on roster load or an explicit, permitted pick.
type Selection struct {
	role    models.UserRoleInfo
	visible []models.Assignee
	state   SelectionState
	gid     string
}

func NewSelection(role models.UserRoleInfo) *Selection {
	return &Selection{role: role}
}

func (s *Selection) State() SelectionState { return s.state }

// Selected returns the selected gid, if any.
func (s *Selection) Selected() (string, bool) {
	return s.gid, s.state == SelectionSelected
}

// Visible returns the persons the caller may pick from.
func (s *Selection) Visible() []models.Assignee {
	return s.visible
}

// OnRosterLoaded computes the visible set and auto-selects. Operational users
// get themselves; others get preferredGID when it is visible, else the first
// visible person.
func (s *Selection) OnRosterLoaded(persons []models.Assignee, preferredGID string) {
	s.visible = VisiblePersons(persons, s.role)

	if s.role.RoleLevel == models.RoleOperational {
		if self, ok := s.self(); ok {
			s.set(self.Gid)
		}
		return
	}

	if preferredGID != "" && s.isVisible(preferredGID) {
		s.set(preferredGID)
		return
	}
	if len(s.visible) > 0 {
		s.set(s.visible[0].Gid)
	}
}

// Select switches to gid when the caller is allowed to see that person.
// Operational users can never move off their own data.
func (s *Selection) Select(gid string) error {
	if !s.isVisible(gid) {
		return ErrSelectionForbidden
	}
	if s.role.RoleLevel == models.RoleOperational {
		self, ok := s.self()
		if !ok || self.Gid != gid {
			return ErrSelectionForbidden
		}
	}
	s.set(gid)
	return nil
}

func (s *Selection) set(gid string) {
	s.gid = gid
	s.state = SelectionSelected
}

func (s *Selection) isVisible(gid string) bool {
	for _, p := range s.visible {
		if p.Gid == gid {
			return true
		}
	}
	return false
}

func (s *Selection) self() (models.Assignee, bool) {
	email := models.NormalizeEmail(s.role.Email)
	if email == "" {
		return models.Assignee{}, false
	}
	for _, p := range s.visible {
		if models.NormalizeEmail(p.Email) == email {
			return p, true
		}
	}
	return models.Assignee{}, false
}
