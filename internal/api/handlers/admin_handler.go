package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/TWRT/asana-dashboard/internal/models"
)

type AdminService interface {
	CreateDepartment(ctx context.Context, name string) (*models.Department, error)
	ListDepartments(ctx context.Context) ([]models.Department, error)
	DeleteDepartment(ctx context.Context, id string) error
	SaveUser(ctx context.Context, u models.UserRole) (*models.UserRole, error)
	ListUsers(ctx context.Context) ([]models.UserRole, error)
	DeleteUser(ctx context.Context, id string) error
}

type CreateDepartmentRequestBody struct {
	Name string `json:"name"`
}

type SaveUserRequestBody struct {
	Email        string           `json:"email"`
	Name         string           `json:"name"`
	RoleLevel    models.RoleLevel `json:"role_level"`
	DepartmentID string           `json:"department_id"`
}

type AdminHandler struct {
	adminService AdminService
	logger       *slog.Logger
}

func NewAdminHandler(adminService AdminService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
		logger:       logger,
	}
}

func (h *AdminHandler) ListDepartments(w http.ResponseWriter, r *http.Request) {
	departments, err := h.adminService.ListDepartments(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, departments)
}

func (h *AdminHandler) CreateDepartment(w http.ResponseWriter, r *http.Request) {
	var reqBody CreateDepartmentRequestBody
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		writeError(w, http.StatusBadRequest, "JSON error: "+err.Error())
		return
	}

	department, err := h.adminService.CreateDepartment(r.Context(), reqBody.Name)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, department)
}

func (h *AdminHandler) DeleteDepartment(w http.ResponseWriter, r *http.Request) {
	if err := h.adminService.DeleteDepartment(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.adminService.ListUsers(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *AdminHandler) SaveUser(w http.ResponseWriter, r *http.Request) {
	var reqBody SaveUserRequestBody
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		writeError(w, http.StatusBadRequest, "JSON error: "+err.Error())
		return
	}

	user, err := h.adminService.SaveUser(r.Context(), models.UserRole{
		Email:        reqBody.Email,
		Name:         reqBody.Name,
		RoleLevel:    reqBody.RoleLevel,
		DepartmentID: reqBody.DepartmentID,
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.adminService.DeleteUser(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
