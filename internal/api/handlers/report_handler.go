package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/TWRT/asana-dashboard/internal/models"
	"github.com/dustin/go-humanize"
)

type ReportService interface {
	Current(ctx context.Context) (*models.Report, error)
	Refresh(ctx context.Context) (*models.Report, error)
}

type ReportSummary struct {
	LastUpdated time.Time `json:"last_updated"`
	Age         string    `json:"age"`
	Sections    int       `json:"sections"`
	Tasks       int       `json:"tasks"`
	Subtasks    int       `json:"subtasks"`
	TeamUsers   int       `json:"team_users"`
}

type ReportHandler struct {
	reportService ReportService
	logger        *slog.Logger
}

func NewReportHandler(reportService ReportService, logger *slog.Logger) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
		logger:        logger,
	}
}

func (h *ReportHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.reportService.Current(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, summarize(report))
}

func (h *ReportHandler) RefreshReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.reportService.Refresh(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	h.logger.Info("report refreshed", "by", callerEmail(r), "last_updated", report.LastUpdated)
	writeJSON(w, http.StatusOK, summarize(report))
}

func summarize(report *models.Report) ReportSummary {
	sections, tasks, subtasks := report.Counts()
	return ReportSummary{
		LastUpdated: report.LastUpdated,
		Age:         humanize.Time(report.LastUpdated),
		Sections:    sections,
		Tasks:       tasks,
		Subtasks:    subtasks,
		TeamUsers:   len(report.Assignees()),
	}
}
