package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/TWRT/asana-dashboard/internal/analytics"
	"github.com/TWRT/asana-dashboard/internal/repository"
)

func newTestReportService(cache *fakeCache, builder Builder) *ReportService {
	s := NewReportService(cache, builder, 12*time.Hour, discardLogger())
	s.now = func() time.Time { return testNow }
	return s
}

func TestReportService_FreshCacheSkipsBuild(t *testing.T) {
	cache := &fakeCache{}
	cached := dashboardReport()
	cached.LastUpdated = testNow.Add(-time.Hour)
	cache.put(cached)
	builder := &fakeBuilder{report: dashboardReport()}

	got, err := newTestReportService(cache, builder).Current(context.Background())
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if builder.calls != 0 {
		t.Errorf("builder calls = %d, want 0", builder.calls)
	}
	if !got.LastUpdated.Equal(cached.LastUpdated) {
		t.Errorf("LastUpdated = %v, want %v", got.LastUpdated, cached.LastUpdated)
	}
}

func TestReportService_ExpiredCacheRebuilds(t *testing.T) {
	cache := &fakeCache{}
	stale := dashboardReport()
	stale.LastUpdated = testNow.Add(-13 * time.Hour)
	cache.put(stale)
	builder := &fakeBuilder{report: dashboardReport()}

	got, err := newTestReportService(cache, builder).Current(context.Background())
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if builder.calls != 1 {
		t.Errorf("builder calls = %d, want 1", builder.calls)
	}
	if !got.LastUpdated.Equal(testNow) {
		t.Errorf("LastUpdated = %v, want %v", got.LastUpdated, testNow)
	}
	if !cache.entry.LastUpdated.Equal(testNow) {
		t.Errorf("cache not replaced, last_updated = %v", cache.entry.LastUpdated)
	}
}

func TestReportService_MalformedCacheIsMiss(t *testing.T) {
	payloads := map[string]string{
		"invalid json":  `{not json`,
		"null section":  `{"sections":[null]}`,
		"null task":     `{"sections":[{"gid":"s1","tasks":[null]}]}`,
		"null subtask":  `{"sections":[{"gid":"s1","tasks":[{"gid":"t1","subtasks":[null]}]}]}`,
		"wrong shape":   `{"sections":{"gid":"s1"}}`,
		"empty payload": ``,
	}
	for name, payload := range payloads {
		t.Run(name, func(t *testing.T) {
			cache := &fakeCache{entry: &repository.CachedReport{Payload: []byte(payload), LastUpdated: testNow}}
			builder := &fakeBuilder{report: dashboardReport()}

			got, err := newTestReportService(cache, builder).Current(context.Background())
			if err != nil {
				t.Fatalf("Current: %v", err)
			}
			if builder.calls != 1 {
				t.Errorf("builder calls = %d, want 1", builder.calls)
			}
			if stats := analytics.ProcessAssigneeStats(got, "A", analytics.Options{Now: testNow}); stats == nil {
				t.Error("rebuilt report has no stats for A")
			}
		})
	}
}

func TestReportService_MalformedCacheWithoutBuilderUnavailable(t *testing.T) {
	cache := &fakeCache{entry: &repository.CachedReport{Payload: []byte(`{"sections":[null]}`), LastUpdated: testNow}}

	_, err := newTestReportService(cache, nil).Current(context.Background())
	if !errors.Is(err, ErrReportUnavailable) {
		t.Fatalf("err = %v, want ErrReportUnavailable", err)
	}
}

func TestReportService_BuildFailureServesStale(t *testing.T) {
	cache := &fakeCache{}
	stale := dashboardReport()
	stale.LastUpdated = testNow.Add(-48 * time.Hour)
	cache.put(stale)

	got, err := newTestReportService(cache, &fakeBuilder{err: errors.New("asana down")}).Current(context.Background())
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if !got.LastUpdated.Equal(stale.LastUpdated) {
		t.Errorf("LastUpdated = %v, want stale %v", got.LastUpdated, stale.LastUpdated)
	}
}

func TestReportService_Unavailable(t *testing.T) {
	tests := []struct {
		name    string
		builder Builder
	}{
		{"fetch failure", &fakeBuilder{err: errors.New("asana down")}},
		{"not configured", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestReportService(&fakeCache{}, tt.builder).Current(context.Background())
			if !errors.Is(err, ErrReportUnavailable) {
				t.Fatalf("err = %v, want ErrReportUnavailable", err)
			}
		})
	}
}

func TestReportService_RetriesReplace(t *testing.T) {
	cache := &fakeCache{failReplace: 2}

	if _, err := newTestReportService(cache, &fakeBuilder{report: dashboardReport()}).Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if cache.replaces != 3 {
		t.Errorf("replace attempts = %d, want 3", cache.replaces)
	}
	if cache.entry == nil {
		t.Error("cache still empty after retries")
	}
}

func TestReportService_Cached(t *testing.T) {
	s := newTestReportService(&fakeCache{}, nil)
	if _, err := s.Cached(context.Background()); !errors.Is(err, ErrReportUnavailable) {
		t.Fatalf("err = %v, want ErrReportUnavailable", err)
	}
}

func TestReportService_RefreshOutlivesCaller(t *testing.T) {
	builder := newBlockingBuilder(dashboardReport())
	s := newTestReportService(&fakeCache{}, builder)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		_, err := s.Refresh(ctx)
		errc <- err
	}()

	<-builder.started
	cancel()
	if err := <-errc; !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled caller err = %v, want context.Canceled", err)
	}

	close(builder.release)
	select {
	case got := <-builder.observed:
		if got.err != nil {
			t.Errorf("build context err = %v, want nil", got.err)
		}
		if !got.hasDeadline {
			t.Error("build context has no deadline")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("build never finished")
	}
}
