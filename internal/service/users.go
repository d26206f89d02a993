package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cluster_kita/internal/domain"
	"cluster_kita/internal/identity"
	"cluster_kita/internal/repository"

	"github.com/sirupsen/logrus"
)

// ContactInput is the onboarding and profile form
type ContactInput struct {
	Phone string `validate:"required,min=8,max=20"`
	Block string `validate:"max=50"`
}

func (in *ContactInput) normalize() {
	in.Phone = strings.ReplaceAll(strings.TrimSpace(in.Phone), " ", "")
	in.Block = strings.ToUpper(strings.TrimSpace(in.Block))
}

func duplicateContact(err error) error {
	if errors.Is(err, domain.ErrDuplicate) {
		return fmt.Errorf("nomor telepon atau blok sudah terdaftar: %w", domain.ErrDuplicate)
	}
	return err
}

// UpsertFromIdentity creates or refreshes a profile from identity provider data.
// Role and block are never changed here.
func (s *Service) UpsertFromIdentity(ctx context.Context, p identity.Profile) error {
	if p.ID == "" {
		return domain.Invalid("id", "user id is missing")
	}
	u := &domain.User{ID: p.ID, Name: p.Name, Email: p.Email, PhoneNumber: p.Phone}
	if err := s.store.Users().Upsert(ctx, u); err != nil {
		return fmt.Errorf("upsert user %s: %w", p.ID, err)
	}
	return nil
}

// GetProfile loads the profile of an authenticated subject
func (s *Service) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	return s.store.Users().Get(ctx, userID)
}

// CompleteOnboarding creates the caller's profile with contact details
func (s *Service) CompleteOnboarding(ctx context.Context, p identity.Profile, in ContactInput) (*domain.User, error) {
	in.normalize()
	if err := s.check(in); err != nil {
		return nil, err
	}
	if p.ID == "" {
		return nil, domain.ErrUnauthenticated
	}
	err := s.store.Atomic(ctx, func(store repository.Store) error {
		u := &domain.User{ID: p.ID, Name: p.Name, Email: p.Email, PhoneNumber: trimPtr(in.Phone)}
		if err := store.Users().Upsert(ctx, u); err != nil {
			return err
		}
		return store.Users().UpdateContact(ctx, p.ID, trimPtr(in.Phone), trimPtr(in.Block))
	})
	if err != nil {
		return nil, duplicateContact(fmt.Errorf("save profile: %w", err))
	}
	logrus.WithField("user_id", p.ID).Info("Onboarding completed")
	return s.store.Users().Get(ctx, p.ID)
}

// UpdateContact changes the caller's own phone and block
func (s *Service) UpdateContact(ctx context.Context, user *domain.User, in ContactInput) error {
	if user == nil {
		return domain.ErrUnauthenticated
	}
	in.normalize()
	if err := s.check(in); err != nil {
		return err
	}
	if err := s.store.Users().UpdateContact(ctx, user.ID, trimPtr(in.Phone), trimPtr(in.Block)); err != nil {
		return duplicateContact(fmt.Errorf("save contact: %w", err))
	}
	return nil
}

// ListUsers returns every profile
func (s *Service) ListUsers(ctx context.Context, actor *domain.User) ([]domain.User, error) {
	if err := authorize(actor, domain.CapManageUsers); err != nil {
		return nil, err
	}
	users, err := s.store.Users().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// GetUser returns a profile to its owner or to an admin
func (s *Service) GetUser(ctx context.Context, actor *domain.User, id string) (*domain.User, error) {
	if actor == nil {
		return nil, domain.ErrUnauthenticated
	}
	if actor.ID != id && !actor.Can(domain.CapManageUsers) {
		return nil, domain.ErrForbidden
	}
	return s.store.Users().Get(ctx, id)
}

// UpdateUserRole sets the role of a user; setting the current role again is a no-op
func (s *Service) UpdateUserRole(ctx context.Context, actor *domain.User, id string, role domain.Role) error {
	if err := authorize(actor, domain.CapManageUsers); err != nil {
		return err
	}
	if _, ok := domain.ParseRole(string(role)); !ok {
		return domain.Invalid("role", "peran tidak dikenal")
	}
	return s.GrantRole(ctx, id, role)
}

// GrantRole sets a role without an acting admin, for bootstrap tooling
func (s *Service) GrantRole(ctx context.Context, id string, role domain.Role) error {
	if _, err := s.store.Users().Get(ctx, id); err != nil {
		return fmt.Errorf("load user %s: %w", id, err)
	}
	if err := s.store.Users().UpdateRole(ctx, id, role); err != nil {
		return fmt.Errorf("update role: %w", err)
	}
	logrus.WithFields(logrus.Fields{"user_id": id, "role": role}).Info("User role updated")
	return nil
}

// AssignBlock sets or clears the block number of a user
func (s *Service) AssignBlock(ctx context.Context, actor *domain.User, id, block string) error {
	if err := authorize(actor, domain.CapManageUsers); err != nil {
		return err
	}
	if len(block) > 50 {
		return domain.Invalid("block", "maksimal 50")
	}
	if _, err := s.store.Users().Get(ctx, id); err != nil {
		return fmt.Errorf("load user %s: %w", id, err)
	}
	if err := s.store.Users().UpdateBlock(ctx, id, trimPtr(strings.ToUpper(block))); err != nil {
		return duplicateContact(fmt.Errorf("assign block: %w", err))
	}
	return nil
}
