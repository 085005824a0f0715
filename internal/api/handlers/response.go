package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/TWRT/asana-dashboard/internal/analytics"
	"github.com/TWRT/asana-dashboard/internal/client/asana"
	"github.com/TWRT/asana-dashboard/internal/repository"
	"github.com/TWRT/asana-dashboard/internal/service"
)

// UserHeader carries the caller's email, set by the auth proxy.
const UserHeader = "X-User-Email"

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps service errors onto status codes. Unexpected errors
// are logged and reported without detail.
func writeServiceError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, service.ErrForbidden), errors.Is(err, analytics.ErrSelectionForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, service.ErrReportUnavailable):
		if rle, ok := asana.IsRateLimitError(err); ok {
			w.Header().Set("Retry-After", strconv.Itoa(int(rle.RetryAfter.Round(time.Second)/time.Second)))
		}
		writeError(w, http.StatusServiceUnavailable, service.ErrReportUnavailable.Error())
	default:
		logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func callerEmail(r *http.Request) string {
	return r.Header.Get(UserHeader)
}
