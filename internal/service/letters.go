package service

import (
	"context"
	"fmt"
	"strings"

	"cluster_kita/internal/domain"
)

// LetterInput is the letter request form
type LetterInput struct {
	LetterType string `validate:"required,max=100"`
	Purpose    string `validate:"required"`
}

// CreateLetter requests an administrative letter
func (s *Service) CreateLetter(ctx context.Context, user *domain.User, in LetterInput) (*domain.UserLetter, error) {
	if err := authorize(user, domain.CapRequestLetter); err != nil {
		return nil, err
	}
	if err := s.check(in); err != nil {
		return nil, err
	}
	l := &domain.UserLetter{
		UserID:     user.ID,
		LetterType: strings.TrimSpace(in.LetterType),
		Purpose:    strings.TrimSpace(in.Purpose),
		Status:     domain.LetterPending,
	}
	if err := s.store.Letters().Create(ctx, l); err != nil {
		return nil, fmt.Errorf("create letter: %w", err)
	}
	return l, nil
}

func (s *Service) ListLettersForUser(ctx context.Context, user *domain.User) ([]domain.UserLetter, error) {
	if user == nil {
		return nil, domain.ErrUnauthenticated
	}
	return s.store.Letters().ListByUser(ctx, user.ID)
}

func (s *Service) ListAllLetters(ctx context.Context, actor *domain.User) ([]domain.UserLetter, error) {
	if err := authorize(actor, domain.CapManageLetters); err != nil {
		return nil, err
	}
	return s.store.Letters().ListAll(ctx)
}

// UpdateLetter sets the processing status and admin notes of a request
func (s *Service) UpdateLetter(ctx context.Context, actor *domain.User, id string, status domain.LetterStatus, notes string) error {
	if err := authorize(actor, domain.CapManageLetters); err != nil {
		return err
	}
	if _, ok := domain.ParseLetterStatus(string(status)); !ok {
		return domain.Invalid("status", "status surat tidak dikenal")
	}
	if _, err := s.store.Letters().Get(ctx, id); err != nil {
		return err
	}
	return s.store.Letters().Update(ctx, id, status, strings.TrimSpace(notes))
}
