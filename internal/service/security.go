package service

import (
	"context"
	"fmt"

	"cluster_kita/internal/domain"
	"cluster_kita/internal/notify"

	"github.com/sirupsen/logrus"
)

// RaiseSOS logs an emergency and alerts every admin that has a phone number
func (s *Service) RaiseSOS(ctx context.Context, user *domain.User, t domain.SOSType) (*domain.SOSLog, error) {
	if err := authorize(user, domain.CapRaiseSOS); err != nil {
		return nil, err
	}
	if _, ok := domain.ParseSOSType(string(t)); !ok {
		return nil, domain.Invalid("type", "jenis darurat tidak dikenal")
	}
	entry := &domain.SOSLog{UserID: &user.ID, Type: t}
	if err := s.store.SOS().Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("log sos: %w", err)
	}
	logrus.WithFields(logrus.Fields{
		"sos_id":  entry.ID,
		"user_id": user.ID,
		"type":    t,
	}).Warn("SOS raised")

	admins, err := s.store.Users().ListByRole(ctx, domain.RoleAdmin)
	if err != nil {
		// The alert is logged; notification is best effort
		logrus.WithError(err).Error("Failed to load admins for SOS notification")
		return entry, nil
	}
	body := notify.Emergency(t, user.Name, s.now())
	for i := range admins {
		s.notify(ctx, "sos", admins[i].Phone(), body)
	}
	return entry, nil
}

// ListSOSForUser returns the caller's alerts
func (s *Service) ListSOSForUser(ctx context.Context, user *domain.User) ([]domain.SOSLog, error) {
	if user == nil {
		return nil, domain.ErrUnauthenticated
	}
	return s.store.SOS().ListByUser(ctx, user.ID)
}

// ListAllSOS returns every alert with its reporter
func (s *Service) ListAllSOS(ctx context.Context, actor *domain.User) ([]domain.SOSLog, error) {
	if err := authorize(actor, domain.CapViewSOS); err != nil {
		return nil, err
	}
	return s.store.SOS().ListAll(ctx)
}
