package pipeline

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/mlechner/polier/internal/repository"
)

// DefaultRefreshCooldown is the minimum gap between manual refreshes
// of the same tenant.
const DefaultRefreshCooldown = 60 * time.Minute

// RefreshService runs an on-demand snapshot + insight pass for a
// single tenant, rate limited per tenant through the persisted
// last_refresh_at stamp.
type RefreshService struct {
	tenants   repository.TenantRepo
	snapshots *SnapshotService
	insights  *InsightService
	observer  RunObserver
	cooldown  time.Duration
	now       func() time.Time
}

func NewRefreshService(
	tenants repository.TenantRepo,
	snapshots *SnapshotService,
	insights *InsightService,
	observer RunObserver,
) *RefreshService {
	return &RefreshService{
		tenants:   tenants,
		snapshots: snapshots,
		insights:  insights,
		observer:  observerOrNoop(observer),
		cooldown:  DefaultRefreshCooldown,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// SetCooldown overrides the refresh cooldown. Zero or negative keeps
// the default.
func (s *RefreshService) SetCooldown(d time.Duration) {
	if d > 0 {
		s.cooldown = d
	}
}

func (s *RefreshService) SetNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Refresh runs snapshots and insights for one tenant. Inside the
// cooldown window it returns a *RateLimitError; that is an expected
// outcome for the caller to surface, not a pipeline failure.
func (s *RefreshService) Refresh(ctx context.Context, tenantID string) (*RefreshResult, error) {
	tenant, err := s.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("loading tenant: %w", err)
	}

	now := s.now()
	if tenant.LastRefreshAt != nil {
		elapsed := now.Sub(*tenant.LastRefreshAt)
		if elapsed < s.cooldown {
			next := tenant.LastRefreshAt.Add(s.cooldown)
			return nil, &RateLimitError{
				TenantID:      tenantID,
				NextRefreshAt: next,
				WaitMinutes:   int(math.Ceil(next.Sub(now).Minutes())),
			}
		}
	}

	start := now
	asOf := truncateToDay(now)

	snapReport, err := s.snapshots.GenerateTenantSnapshots(ctx, tenantID, asOf)
	if err != nil {
		return nil, fmt.Errorf("refreshing snapshots: %w", err)
	}
	insightReport, err := s.insights.RunTenantInsights(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("refreshing insights: %w", err)
	}

	if err := s.tenants.SetLastRefreshAt(ctx, tenantID, now); err != nil {
		return nil, fmt.Errorf("stamping refresh time: %w", err)
	}

	s.observer.ObserveRun(ctx, RunEvent{
		Name:      "manual_refresh",
		StartedAt: start,
		Duration:  s.now().Sub(start),
		Success:   true,
		Fields: map[string]any{
			"tenant":            tenantID,
			"snapshots_created": snapReport.Created,
			"phase_insights":    insightReport.PhaseInsights,
		},
	})

	return &RefreshResult{
		TenantID:      tenantID,
		LastRefreshAt: now,
		Snapshots:     snapReport,
		Insights:      insightReport,
	}, nil
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
