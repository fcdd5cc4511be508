package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/BradenHooton/novatech/internal/models"
	"github.com/BradenHooton/novatech/internal/sanitize"
	"github.com/BradenHooton/novatech/internal/security"
	"github.com/BradenHooton/novatech/pkg/clock"
)

// TopPagesLimit is the number of pages listed in the summary
const TopPagesLimit = 10

// PageViewRepository stores and aggregates page views
type PageViewRepository interface {
	Create(ctx context.Context, v *models.PageView) error
	CountSince(ctx context.Context, since time.Time) (int, error)
	CountByColumn(ctx context.Context, column string) (map[string]int, error)
	TopPages(ctx context.Context, limit int) ([]models.PageCount, error)
}

// PageViewInput is a page view reported by the site front end
type PageViewInput struct {
	PagePath   string
	PageTitle  string
	DeviceType string
	Country    string
	UserAgent  string
	SessionID  string
}

// AnalyticsService records page views and builds the dashboard summary
type AnalyticsService struct {
	repo    PageViewRepository
	limiter *security.Limiter
	policy  security.RoutePolicy
	clock   clock.Clock
	logger  *slog.Logger
}

// NewAnalyticsService creates a new AnalyticsService
func NewAnalyticsService(repo PageViewRepository, limiter *security.Limiter, policy security.RoutePolicy, clk clock.Clock, logger *slog.Logger) *AnalyticsService {
	if clk == nil {
		clk = clock.Real()
	}
	return &AnalyticsService{
		repo:    repo,
		limiter: limiter,
		policy:  policy,
		clock:   clk,
		logger:  logger,
	}
}

// TrackPageView stores a page view. It reports false, without error, when the
// identity is over its analytics budget and the view was dropped.
func (s *AnalyticsService) TrackPageView(ctx context.Context, in PageViewInput, identity string) (bool, error) {
	if !s.limiter.AllowPolicy(identity, security.ClassAnalytics, s.policy) {
		return false, nil
	}

	view := &models.PageView{
		PagePath:   sanitize.EscapeText(in.PagePath, 500),
		PageTitle:  sanitize.EscapeText(in.PageTitle, 500),
		DeviceType: sanitize.EscapeText(in.DeviceType, 500),
		Country:    sanitize.EscapeText(in.Country, 100),
		UserAgent:  sanitize.EscapeText(in.UserAgent, 500),
		SessionID:  sanitize.EscapeText(in.SessionID, 100),
		ViewedAt:   s.clock.Now().UTC(),
	}
	if view.PagePath == "" {
		return false, sanitize.NewFieldError("page_path", sanitize.ErrRequired)
	}
	if view.DeviceType == "" {
		view.DeviceType = "unknown"
	}
	if view.Country == "" {
		view.Country = "Unknown"
	}

	if err := s.repo.Create(ctx, view); err != nil {
		return false, fmt.Errorf("failed to store page view: %w", err)
	}
	return true, nil
}

// Summary aggregates all page views. Weeks start on Monday; day boundaries are UTC.
func (s *AnalyticsService) Summary(ctx context.Context) (*models.AnalyticsSummary, error) {
	now := s.clock.Now().UTC()
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	weekStart := todayStart.AddDate(0, 0, -daysSinceMonday(todayStart))
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	summary := &models.AnalyticsSummary{}

	counts := []struct {
		since time.Time
		dst   *int
	}{
		{time.Time{}, &summary.TotalVisits},
		{todayStart, &summary.VisitsToday},
		{weekStart, &summary.VisitsThisWeek},
		{monthStart, &summary.VisitsThisMonth},
	}
	for _, c := range counts {
		n, err := s.repo.CountSince(ctx, c.since)
		if err != nil {
			return nil, fmt.Errorf("failed to count page views: %w", err)
		}
		*c.dst = n
	}

	var err error
	if summary.DeviceBreakdown, err = s.repo.CountByColumn(ctx, "device_type"); err != nil {
		return nil, fmt.Errorf("failed to count devices: %w", err)
	}
	if summary.CountryBreakdown, err = s.repo.CountByColumn(ctx, "country"); err != nil {
		return nil, fmt.Errorf("failed to count countries: %w", err)
	}
	if summary.TopPages, err = s.repo.TopPages(ctx, TopPagesLimit); err != nil {
		return nil, fmt.Errorf("failed to list top pages: %w", err)
	}

	return summary, nil
}

func daysSinceMonday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}
