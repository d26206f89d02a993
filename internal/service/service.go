// Package service holds the business operations of the cluster portal.
// Every operation takes the acting user and re-checks its capability, so a
// forbidden call never reaches the store.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cluster_kita/internal/domain"
	"cluster_kita/internal/gateway/midtrans"
	"cluster_kita/internal/metrics"
	"cluster_kita/internal/repository"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// PaymentGateway is the subset of the Midtrans client used by the payment flow
type PaymentGateway interface {
	CreateCharge(ctx context.Context, orderID string, amount decimal.Decimal, customer *midtrans.Customer) (*midtrans.Charge, error)
	VerifyCharge(ctx context.Context, ref string) (*midtrans.Status, error)
	ValidSignature(n *midtrans.Status) bool
}

// Notifier delivers a text message to a phone number
type Notifier interface {
	Send(ctx context.Context, to, body string) error
}

// Options configures a Service
type Options struct {
	Store           repository.Store
	Redis           *redis.Client
	Gateway         PaymentGateway
	Notifier        Notifier
	VerifySignature bool
	Now             func() time.Time
}

// Service implements every operation of the portal
type Service struct {
	store           repository.Store
	rdb             *redis.Client
	gateway         PaymentGateway
	notifier        Notifier
	verifySignature bool
	validate        *validator.Validate
	now             func() time.Time
}

// New builds a Service
func New(opts Options) *Service {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		store:           opts.Store,
		rdb:             opts.Redis,
		gateway:         opts.Gateway,
		notifier:        opts.Notifier,
		verifySignature: opts.VerifySignature,
		validate:        validator.New(validator.WithRequiredStructEnabled()),
		now:             now,
	}
}

// Ping checks the database and, when configured, redis
func (s *Service) Ping(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if s.rdb != nil {
		if err := s.rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}

// authorize checks that actor is signed in and holds the capability
func authorize(actor *domain.User, c domain.Capability) error {
	if actor == nil {
		return domain.ErrUnauthenticated
	}
	if !actor.Can(c) {
		return domain.ErrForbidden
	}
	return nil
}

// check runs struct validation and reports the first failing field
func (s *Service) check(in any) error {
	err := s.validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return domain.Invalid(strings.ToLower(fe.Field()), describe(fe))
	}
	return domain.Invalid("", err.Error())
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "wajib diisi"
	case "min":
		return "minimal " + fe.Param()
	case "max":
		return "maksimal " + fe.Param()
	case "url":
		return "harus berupa URL"
	case "oneof":
		return "harus salah satu dari " + fe.Param()
	}
	return "tidak valid"
}

// notify sends a best effort message; failures are logged and counted only
func (s *Service) notify(ctx context.Context, kind, phone, body string) {
	if s.notifier == nil || phone == "" {
		return
	}
	err := s.notifier.Send(ctx, phone, body)
	metrics.Notification(kind, err)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"kind":  kind,
			"phone": phone,
			"error": err,
		}).Warn("Failed to send notification")
	}
}

func trimPtr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
