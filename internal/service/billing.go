package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cluster_kita/internal/domain"
	"cluster_kita/internal/export"
	"cluster_kita/internal/utils"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// CreateBillInput is the admin form for a new bill
type CreateBillInput struct {
	UserID  string          `validate:"required"`
	Month   int             `validate:"min=1,max=12"`
	Year    int             `validate:"min=2000,max=2100"`
	Amount  decimal.Decimal `validate:"-"`
	DueDate *time.Time      `validate:"-"`
}

// ListBillsForUser returns the caller's bills, newest period first
func (s *Service) ListBillsForUser(ctx context.Context, user *domain.User) ([]domain.Bill, error) {
	if user == nil {
		return nil, domain.ErrUnauthenticated
	}
	bills, err := s.store.Bills().ListByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("list bills: %w", err)
	}
	return bills, nil
}

// ListAllBills returns every bill with its owner
func (s *Service) ListAllBills(ctx context.Context, actor *domain.User) ([]domain.Bill, error) {
	if err := authorize(actor, domain.CapManageBills); err != nil {
		return nil, err
	}
	bills, err := s.store.Bills().ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list all bills: %w", err)
	}
	return bills, nil
}

// CreateBill issues a bill; a second bill for the same user and period is ErrDuplicate
func (s *Service) CreateBill(ctx context.Context, actor *domain.User, in CreateBillInput) (*domain.Bill, error) {
	if err := authorize(actor, domain.CapManageBills); err != nil {
		return nil, err
	}
	if err := s.check(in); err != nil {
		return nil, err
	}
	if in.Amount.IsNegative() {
		return nil, domain.Invalid("amount", "tidak boleh negatif")
	}
	if _, err := s.store.Users().Get(ctx, in.UserID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.Invalid("user_id", "warga tidak ditemukan")
		}
		return nil, fmt.Errorf("load bill owner: %w", err)
	}

	if in.DueDate != nil {
		due := domain.CalendarDate(*in.DueDate)
		in.DueDate = &due
	}

	bill := &domain.Bill{
		UserID:  in.UserID,
		Month:   in.Month,
		Year:    in.Year,
		Amount:  in.Amount,
		Status:  domain.BillPending,
		DueDate: in.DueDate,
	}
	// The unique (user_id, month, year) index decides duplicates
	if err := s.store.Bills().Create(ctx, bill); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, fmt.Errorf("bill %s for this user: %w", bill.Period(), domain.ErrDuplicate)
		}
		return nil, fmt.Errorf("create bill: %w", err)
	}

	s.invalidateStats(ctx, bill.UserID)
	logrus.WithFields(logrus.Fields{
		"bill_id": bill.ID,
		"user_id": bill.UserID,
		"period":  bill.Period(),
		"amount":  bill.Amount.String(),
	}).Info("Bill created")
	return bill, nil
}

// UpdateBillStatus lets an admin overwrite a bill status
func (s *Service) UpdateBillStatus(ctx context.Context, actor *domain.User, billID string, status domain.BillStatus) (*domain.Bill, error) {
	if err := authorize(actor, domain.CapManageBills); err != nil {
		return nil, err
	}
	if _, ok := domain.ParseBillStatus(string(status)); !ok {
		return nil, domain.Invalid("status", "status tagihan tidak dikenal")
	}
	bill, err := s.store.Bills().Get(ctx, billID)
	if err != nil {
		return nil, fmt.Errorf("load bill: %w", err)
	}
	if err := s.store.Bills().UpdateStatus(ctx, billID, status); err != nil {
		return nil, fmt.Errorf("update bill status: %w", err)
	}
	bill.Status = status
	s.invalidateStats(ctx, bill.UserID)
	return bill, nil
}

// MarkOverdue flips pending bills due before asOf to overdue
func (s *Service) MarkOverdue(ctx context.Context, actor *domain.User, asOf time.Time) (int64, error) {
	if err := authorize(actor, domain.CapManageBills); err != nil {
		return 0, err
	}
	return s.SweepOverdue(ctx, asOf)
}

// SweepOverdue is MarkOverdue for trusted callers such as the CLI.
// Bills become overdue the day after their due date, in local time.
func (s *Service) SweepOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	asOf = domain.CalendarDate(asOf.In(domain.LocalZone))
	n, err := s.store.Bills().MarkOverdue(ctx, asOf)
	if err != nil {
		return 0, fmt.Errorf("mark overdue bills: %w", err)
	}
	if n > 0 {
		s.invalidateAllStats(ctx)
	}
	logrus.WithFields(logrus.Fields{"as_of": asOf.Format(time.DateOnly), "count": n}).Info("Overdue bills marked")
	return n, nil
}

// ExportBills renders the whole ledger as an xlsx workbook
func (s *Service) ExportBills(ctx context.Context, actor *domain.User) ([]byte, error) {
	bills, err := s.ListAllBills(ctx, actor)
	if err != nil {
		return nil, err
	}
	txs, err := s.store.Transactions().ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return export.Ledger(bills, txs)
}

// ListTransactionsForUser returns the caller's payment attempts
func (s *Service) ListTransactionsForUser(ctx context.Context, user *domain.User) ([]domain.Transaction, error) {
	if user == nil {
		return nil, domain.ErrUnauthenticated
	}
	txs, err := s.store.Transactions().ListByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

// ListAllTransactions returns every payment attempt with its payer
func (s *Service) ListAllTransactions(ctx context.Context, actor *domain.User) ([]domain.Transaction, error) {
	if err := authorize(actor, domain.CapManageBills); err != nil {
		return nil, err
	}
	txs, err := s.store.Transactions().ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

func (s *Service) invalidateStats(ctx context.Context, userID string) {
	if err := utils.DeleteCache(ctx, s.rdb, utils.AdminStatsCacheKey, utils.ResidentStatsCacheKey(userID)); err != nil {
		logrus.WithError(err).Warn("Failed to invalidate dashboard cache")
	}
}

// invalidateAllStats drops every dashboard cache entry
func (s *Service) invalidateAllStats(ctx context.Context) {
	if s.rdb == nil {
		return
	}
	var keys []string
	iter := s.rdb.Scan(ctx, 0, "dashboard:*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	err := iter.Err()
	if err == nil {
		err = utils.DeleteCache(ctx, s.rdb, keys...)
	}
	if err != nil {
		logrus.WithError(err).Warn("Failed to invalidate dashboard cache")
	}
}
