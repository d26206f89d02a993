package service

import (
	"context"
	"fmt"
	"time"

	"cluster_kita/internal/domain"
	"cluster_kita/internal/utils"

	"github.com/sirupsen/logrus"
)

const latestAnnouncements = 5

// ResidentStats is the resident dashboard
type ResidentStats struct {
	PendingBills  int64                 `json:"pending_bills"`
	OverdueBills  int64                 `json:"overdue_bills"`
	TotalReports  int64                 `json:"total_reports"`
	RecentReports int64                 `json:"recent_reports"` // last 24 hours
	Announcements []domain.Announcement `json:"announcements"`
}

// AdminStats is the admin dashboard
type AdminStats struct {
	Users         int64 `json:"users"`
	PendingBills  int64 `json:"pending_bills"`
	OverdueBills  int64 `json:"overdue_bills"`
	PaidBills     int64 `json:"paid_bills"`
	TotalReports  int64 `json:"total_reports"`
	RecentReports int64 `json:"recent_reports"`
	Announcements int64 `json:"announcements"`
}

// ResidentDashboard returns the caller's counters, cached briefly
func (s *Service) ResidentDashboard(ctx context.Context, user *domain.User) (*ResidentStats, error) {
	if user == nil {
		return nil, domain.ErrUnauthenticated
	}
	key := utils.ResidentStatsCacheKey(user.ID)
	var stats ResidentStats
	if hit, err := utils.GetCache(ctx, s.rdb, key, &stats); err == nil && hit {
		return &stats, nil
	}

	counts, err := s.store.Bills().CountByStatus(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("count bills: %w", err)
	}
	stats.PendingBills = counts[domain.BillPending]
	stats.OverdueBills = counts[domain.BillOverdue]
	if stats.TotalReports, err = s.store.Reports().Count(ctx, user.ID, time.Time{}); err != nil {
		return nil, fmt.Errorf("count reports: %w", err)
	}
	if stats.RecentReports, err = s.store.Reports().Count(ctx, user.ID, s.now().Add(-24*time.Hour)); err != nil {
		return nil, fmt.Errorf("count reports: %w", err)
	}
	if stats.Announcements, err = s.LatestAnnouncements(ctx, latestAnnouncements); err != nil {
		return nil, err
	}

	if err := utils.SetCache(ctx, s.rdb, key, stats, utils.CacheTTL); err != nil {
		logrus.WithError(err).Warn("Dashboard cache write failed")
	}
	return &stats, nil
}

// AdminDashboard returns portal-wide counters, cached briefly
func (s *Service) AdminDashboard(ctx context.Context, actor *domain.User) (*AdminStats, error) {
	if err := authorize(actor, domain.CapAdminPortal); err != nil {
		return nil, err
	}
	var stats AdminStats
	if hit, err := utils.GetCache(ctx, s.rdb, utils.AdminStatsCacheKey, &stats); err == nil && hit {
		return &stats, nil
	}

	var err error
	if stats.Users, err = s.store.Users().Count(ctx); err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	counts, err := s.store.Bills().CountByStatus(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("count bills: %w", err)
	}
	stats.PendingBills = counts[domain.BillPending]
	stats.OverdueBills = counts[domain.BillOverdue]
	stats.PaidBills = counts[domain.BillPaid]
	if stats.TotalReports, err = s.store.Reports().Count(ctx, "", time.Time{}); err != nil {
		return nil, fmt.Errorf("count reports: %w", err)
	}
	if stats.RecentReports, err = s.store.Reports().Count(ctx, "", s.now().Add(-24*time.Hour)); err != nil {
		return nil, fmt.Errorf("count reports: %w", err)
	}
	if stats.Announcements, err = s.store.Announcements().Count(ctx); err != nil {
		return nil, fmt.Errorf("count announcements: %w", err)
	}

	if err := utils.SetCache(ctx, s.rdb, utils.AdminStatsCacheKey, stats, utils.CacheTTL); err != nil {
		logrus.WithError(err).Warn("Dashboard cache write failed")
	}
	return &stats, nil
}
