package api

import (
	"log/slog"
	"net/http"

	"github.com/TWRT/asana-dashboard/internal/api/handlers"
	"github.com/TWRT/asana-dashboard/internal/models"
)

func SetupRouter(
	reportService handlers.ReportService,
	dashboardService handlers.DashboardService,
	adminService handlers.AdminService,
	logger *slog.Logger,
) *http.ServeMux {
	mux := http.NewServeMux()

	reportHandler := handlers.NewReportHandler(reportService, logger)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService, logger)
	adminHandler := handlers.NewAdminHandler(adminService, logger)

	members := func(h http.HandlerFunc) http.HandlerFunc {
		return dashboardHandler.RequireRole(models.RoleOperational, h)
	}
	directors := func(h http.HandlerFunc) http.HandlerFunc {
		return dashboardHandler.RequireRole(models.RoleDirector, h)
	}
	admins := func(h http.HandlerFunc) http.HandlerFunc {
		return dashboardHandler.RequireRole(models.RoleAdmin, h)
	}

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	mux.HandleFunc("GET /report", members(reportHandler.GetReport))
	mux.HandleFunc("POST /report/refresh", directors(reportHandler.RefreshReport))

	mux.HandleFunc("GET /dashboard/assignees", dashboardHandler.ListAssignees)
	mux.HandleFunc("GET /dashboard/assignees/{gid}/stats", dashboardHandler.GetStats)
	mux.HandleFunc("GET /dashboard/assignees/{gid}/performance", dashboardHandler.GetPerformance)
	mux.HandleFunc("GET /dashboard/team", dashboardHandler.GetTeam)

	mux.HandleFunc("GET /admin/departments", admins(adminHandler.ListDepartments))
	mux.HandleFunc("POST /admin/departments", admins(adminHandler.CreateDepartment))
	mux.HandleFunc("DELETE /admin/departments/{id}", admins(adminHandler.DeleteDepartment))
	mux.HandleFunc("GET /admin/users", admins(adminHandler.ListUsers))
	mux.HandleFunc("POST /admin/users", admins(adminHandler.SaveUser))
	mux.HandleFunc("DELETE /admin/users/{id}", admins(adminHandler.DeleteUser))

	return mux
}
