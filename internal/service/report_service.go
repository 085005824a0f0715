package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/TWRT/asana-dashboard/internal/models"
	"github.com/TWRT/asana-dashboard/internal/repository"
	"golang.org/x/sync/singleflight"
)

var ErrReportUnavailable = errors.New("unable to compute report")

const (
	replaceAttempts       = 3
	defaultRefreshTimeout = 10 * time.Minute
)

type ReportService struct {
	cache   repository.ReportCache
	builder Builder
	ttl     time.Duration
	logger  *slog.Logger
	now     func() time.Time
	group   singleflight.Group

	refreshTimeout time.Duration
}

// NewReportService wires the cache and builder. builder may be nil when no
// Asana credentials are configured; the service then only serves the cache.
func NewReportService(cache repository.ReportCache, builder Builder, ttl time.Duration, logger *slog.Logger) *ReportService {
	return &ReportService{
		cache:   cache,
		builder: builder,
		ttl:     ttl,
		logger:  logger,
		now:     time.Now,

		refreshTimeout: defaultRefreshTimeout,
	}
}

// Current returns the cached report while it is fresh, otherwise rebuilds.
// A stale report is served when the rebuild fails.
func (s *ReportService) Current(ctx context.Context) (*models.Report, error) {
	cached := s.cached(ctx)
	if cached != nil && s.now().Sub(cached.LastUpdated) < s.ttl {
		return cached, nil
	}

	fresh, err := s.Refresh(ctx)
	if err == nil {
		return fresh, nil
	}
	if cached != nil {
		s.logger.Warn("serving stale report", "last_updated", cached.LastUpdated, "error", err)
		return cached, nil
	}
	return nil, err
}

// Cached returns the stored report regardless of age.
func (s *ReportService) Cached(ctx context.Context) (*models.Report, error) {
	if r := s.cached(ctx); r != nil {
		return r, nil
	}
	return nil, ErrReportUnavailable
}

// Refresh rebuilds the report and replaces the cache. Concurrent callers share
// one build, which outlives any single caller's cancellation.
func (s *ReportService) Refresh(ctx context.Context) (*models.Report, error) {
	if s.builder == nil {
		return nil, fmt.Errorf("%w: asana is not configured", ErrReportUnavailable)
	}

	ch := s.group.DoChan("refresh", func() (any, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.refreshTimeout)
		defer cancel()

		report, err := s.builder.Build(ctx, func(done, total int) {
			s.logger.Debug("fetching subtasks", "done", done, "total", total)
		})
		if err != nil {
			s.logger.Error("report refresh failed", "error", err)
			return nil, fmt.Errorf("%w: %w", ErrReportUnavailable, err)
		}

		if err := s.store(ctx, report); err != nil {
			s.logger.Error("caching report failed", "error", err)
		}
		return report, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*models.Report), nil
	}
}

// store retries the whole transactional replace.
func (s *ReportService) store(ctx context.Context, report *models.Report) error {
	var err error
	for attempt := 1; attempt <= replaceAttempts; attempt++ {
		if err = s.cache.Replace(ctx, report); err == nil {
			return nil
		}
		s.logger.Warn("replace cached report", "attempt", attempt, "error", err)
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return err
}

func (s *ReportService) cached(ctx context.Context) *models.Report {
	entry, err := s.cache.Latest(ctx)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("reading cached report", "error", err)
		}
		return nil
	}

	report, err := models.FromJSON(entry.Payload)
	if err != nil {
		s.logger.Warn("discarding malformed cached report", "error", err)
		return nil
	}
	if report.LastUpdated.IsZero() {
		report.LastUpdated = entry.LastUpdated
	}
	return report
}
