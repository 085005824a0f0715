package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/TWRT/asana-dashboard/internal/analytics"
	"github.com/TWRT/asana-dashboard/internal/models"
	"github.com/TWRT/asana-dashboard/internal/service"
)

const (
	maxWeeks  = 520
	maxMonths = 120
)

type DashboardService interface {
	Role(ctx context.Context, email string) (*models.UserRoleInfo, error)
	Assignees(ctx context.Context, email string) (*service.AssigneeList, error)
	Stats(ctx context.Context, email, gid string, opts analytics.Options) (*analytics.AssigneeStats, error)
	Performance(ctx context.Context, email, gid string) (*service.PerformanceView, error)
	Team(ctx context.Context, email string) (analytics.TeamAverages, error)
}

type DashboardHandler struct {
	dashboardService DashboardService
	logger           *slog.Logger
}

func NewDashboardHandler(dashboardService DashboardService, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
		logger:           logger,
	}
}

func (h *DashboardHandler) ListAssignees(w http.ResponseWriter, r *http.Request) {
	list, err := h.dashboardService.Assignees(r.Context(), callerEmail(r))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *DashboardHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	weeks, err := windowParam(r, "weeks", maxWeeks)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	months, err := windowParam(r, "months", maxMonths)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	stats, err := h.dashboardService.Stats(r.Context(), callerEmail(r), r.PathValue("gid"), analytics.Options{Weeks: weeks, Months: months})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *DashboardHandler) GetPerformance(w http.ResponseWriter, r *http.Request) {
	view, err := h.dashboardService.Performance(r.Context(), callerEmail(r), r.PathValue("gid"))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *DashboardHandler) GetTeam(w http.ResponseWriter, r *http.Request) {
	team, err := h.dashboardService.Team(r.Context(), callerEmail(r))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, team)
}

// RequireRole rejects callers below min before calling next.
func (h *DashboardHandler) RequireRole(min models.RoleLevel, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role, err := h.dashboardService.Role(r.Context(), callerEmail(r))
		if err != nil {
			writeServiceError(w, h.logger, err)
			return
		}
		if role.RoleLevel < min {
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		next(w, r)
	}
}

// windowParam reads an optional positive integer query parameter. Absent means 0.
func windowParam(r *http.Request, name string, max int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 || n > max {
		return 0, fmt.Errorf("%s must be an integer between 1 and %d", name, max)
	}
	return n, nil
}
