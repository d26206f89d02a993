package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"

	"cluster_kita/internal/domain"
	"cluster_kita/internal/gateway/midtrans"
	"cluster_kita/internal/metrics"
	"cluster_kita/internal/notify"
	"cluster_kita/internal/repository"
	"cluster_kita/internal/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Webhook outcomes
const (
	OutcomePaid    = "paid"
	OutcomeFailed  = "failed"
	OutcomeNoop    = "noop"
	OutcomeIgnored = "ignored"
)

// Payment is a created charge the payer is redirected to
type Payment struct {
	TransactionID string
	OrderID       string
	Amount        decimal.Decimal
	RedirectURL   string
}

// orderID is unique per attempt and stays under the gateway's 50 character limit
func orderID(userID string, millis int64) string {
	if len(userID) > 16 {
		userID = userID[len(userID)-16:]
	}
	return fmt.Sprintf("IPL-%s-%d-%s", userID, millis, uuid.NewString()[:8])
}

// CreatePaymentForBills charges the selected bills of the caller in one QRIS payment
func (s *Service) CreatePaymentForBills(ctx context.Context, user *domain.User, billIDs []string) (*Payment, error) {
	if err := authorize(user, domain.CapPayBills); err != nil {
		return nil, err
	}
	billIDs = slices.Clone(billIDs)
	slices.Sort(billIDs)
	billIDs = slices.Compact(billIDs)
	if len(billIDs) == 0 {
		return nil, domain.Invalid("bill_ids", "pilih minimal satu tagihan")
	}

	bills, err := s.store.Bills().ListByIDsForUser(ctx, user.ID, billIDs, false)
	if err != nil {
		return nil, fmt.Errorf("load bills: %w", err)
	}
	if _, err := payableTotal(bills, billIDs); err != nil {
		metrics.Payment("rejected")
		return nil, err
	}

	// One payment creation per user at a time
	lockKey := utils.PaymentLockKey(user.ID)
	token, err := utils.AcquireLock(ctx, s.rdb, lockKey, utils.PaymentLockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire payment lock: %w", err)
	}
	if token == "" {
		metrics.Payment("in_progress")
		return nil, domain.ErrPaymentInProgress
	}
	defer func() {
		if err := utils.ReleaseLock(context.WithoutCancel(ctx), s.rdb, lockKey, token); err != nil {
			logrus.WithError(err).WithField("user_id", user.ID).Warn("Failed to release payment lock")
		}
	}()

	if err := s.refreshPending(ctx, billIDs); err != nil {
		return nil, err
	}

	tx := &domain.Transaction{
		UserID:        user.ID,
		Status:        domain.TransactionPending,
		PaymentMethod: domain.PaymentMethodQRIS,
		OrderID:       orderID(user.ID, s.now().UnixMilli()),
	}
	err = s.store.Atomic(ctx, func(store repository.Store) error {
		bills, err := store.Bills().ListByIDsForUser(ctx, user.ID, billIDs, true)
		if err != nil {
			return err
		}
		if tx.AmountPaid, err = payableTotal(bills, billIDs); err != nil {
			return err
		}
		// A bill carries at most one live charge
		pending, err := store.Transactions().PendingForBills(ctx, billIDs)
		if err != nil {
			return err
		}
		if len(pending) > 0 {
			return domain.Invalid("bill_ids", "tagihan masih menunggu pembayaran QRIS sebelumnya")
		}
		if err := store.Transactions().Create(ctx, tx); err != nil {
			return err
		}
		return store.Transactions().LinkBills(ctx, tx.ID, billIDs)
	})
	if errors.Is(err, domain.ErrValidation) || errors.Is(err, domain.ErrNotFound) {
		metrics.Payment("rejected")
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("record pending transaction: %w", err)
	}

	charge, err := s.gateway.CreateCharge(ctx, tx.OrderID, tx.AmountPaid, &midtrans.Customer{
		FirstName: user.Name,
		Email:     user.Email,
		Phone:     user.Phone(),
	})
	if err != nil {
		metrics.Payment("gateway_error")
		fields := logrus.Fields{"order_id": tx.OrderID, "user_id": user.ID, "error": err}
		var gerr *midtrans.GatewayError
		if errors.As(err, &gerr) {
			// The gateway answered, so no charge exists
			if ferr := s.store.Transactions().SetStatus(context.WithoutCancel(ctx), tx.ID, domain.TransactionFailed, nil); ferr != nil {
				logrus.WithError(ferr).WithField("transaction_id", tx.ID).Error("Failed to mark transaction failed")
			}
			logrus.WithFields(fields).Error("Payment gateway rejected charge")
		} else {
			// The charge may exist; the webhook or the next attempt settles it
			logrus.WithFields(fields).Warn("Payment gateway unreachable, transaction left pending")
		}
		return nil, fmt.Errorf("create charge: %w", err)
	}

	if charge.TransactionID != "" {
		if err := s.store.Transactions().SetExternalID(ctx, tx.ID, charge.TransactionID); err != nil {
			// The webhook can still match the order id
			logrus.WithError(err).WithField("transaction_id", tx.ID).Error("Failed to store gateway transaction id")
		}
	}

	metrics.Payment("created")
	logrus.WithFields(logrus.Fields{
		"transaction_id": tx.ID,
		"order_id":       tx.OrderID,
		"user_id":        user.ID,
		"bills":          len(billIDs),
		"amount":         tx.AmountPaid.String(),
	}).Info("Payment created")

	return &Payment{
		TransactionID: tx.ID,
		OrderID:       tx.OrderID,
		Amount:        tx.AmountPaid,
		RedirectURL:   charge.RedirectURL,
	}, nil
}

// payableTotal sums the bills once every id was found and every bill is still open
func payableTotal(bills []domain.Bill, billIDs []string) (decimal.Decimal, error) {
	if len(bills) != len(billIDs) {
		return decimal.Zero, fmt.Errorf("bills: %w", domain.ErrNotFound)
	}
	total := decimal.Zero
	for i := range bills {
		if !bills[i].Payable() {
			return decimal.Zero, domain.Invalid("bill_ids", fmt.Sprintf("tagihan %s sudah lunas", bills[i].Period()))
		}
		total = total.Add(bills[i].Amount)
	}
	return total, nil
}

// refreshPending asks the gateway about earlier charges still pending for the
// bills. Settled ones mark the bills paid, dead ones stop blocking a new charge.
func (s *Service) refreshPending(ctx context.Context, billIDs []string) error {
	pending, err := s.store.Transactions().PendingForBills(ctx, billIDs)
	if err != nil {
		return fmt.Errorf("load pending transactions: %w", err)
	}
	for i := range pending {
		tx := &pending[i]
		status, err := s.gateway.VerifyCharge(ctx, tx.Reference())
		var gerr *midtrans.GatewayError
		switch {
		case errors.As(err, &gerr) && gerr.StatusCode == http.StatusNotFound:
			// The charge never reached the gateway
			status = &midtrans.Status{TransactionStatus: midtrans.StatusFailure}
		case err != nil:
			return fmt.Errorf("verify pending charge %s: %w", tx.OrderID, err)
		}
		if status.OrderID == "" {
			status.OrderID = tx.OrderID
		}
		outcome, err := s.reconcile(ctx, status)
		if err != nil {
			return fmt.Errorf("reconcile pending charge %s: %w", tx.OrderID, err)
		}
		logrus.WithFields(logrus.Fields{
			"order_id": tx.OrderID,
			"outcome":  outcome,
		}).Info("Pending charge refreshed")
	}
	return nil
}

// findTransaction matches the gateway transaction id first, then the order id
func findTransaction(ctx context.Context, store repository.Store, st *midtrans.Status, forUpdate bool) (*domain.Transaction, error) {
	for _, ref := range []string{st.TransactionID, st.OrderID} {
		if ref == "" {
			continue
		}
		tx, err := store.Transactions().FindByReference(ctx, ref, forUpdate)
		if err == nil {
			return tx, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	}
	return nil, domain.ErrNotFound
}

// HandleGatewayWebhook reconciles a payment notification. Replays and
// notifications for already settled transactions are no-ops.
func (s *Service) HandleGatewayWebhook(ctx context.Context, n *midtrans.Status) (string, error) {
	if s.verifySignature && n.SignatureKey != "" && !s.gateway.ValidSignature(n) {
		metrics.Webhook("invalid_signature")
		return "", domain.ErrInvalidSignature
	}
	if n.Reference() == "" {
		return "", domain.Invalid("order_id", "missing transaction reference")
	}

	// Never trust the notification body for the status itself
	status, err := s.gateway.VerifyCharge(ctx, n.Reference())
	if err != nil {
		metrics.Webhook("verify_error")
		return "", fmt.Errorf("verify charge %s: %w", n.Reference(), err)
	}
	if status.OrderID == "" {
		status.OrderID = n.OrderID
	}
	if status.TransactionID == "" {
		status.TransactionID = n.TransactionID
	}
	return s.reconcile(ctx, status)
}

// reconcile applies a gateway-verified status to the matching transaction.
// A success is final. A settlement still overrides a local failure, since
// the gateway holds the money.
func (s *Service) reconcile(ctx context.Context, status *midtrans.Status) (string, error) {
	var (
		outcome = OutcomeNoop
		txID    string
		payer   string
		amount  decimal.Decimal
		late    bool
		doubled []string
		paidAt  = status.PaidAt(s.now())
	)
	err := s.store.Atomic(ctx, func(store repository.Store) error {
		tx, err := findTransaction(ctx, store, status, true)
		if err != nil {
			return err
		}
		txID, payer, amount = tx.ID, tx.UserID, tx.AmountPaid

		if tx.ExternalID == nil && status.TransactionID != "" {
			if err := store.Transactions().SetExternalID(ctx, tx.ID, status.TransactionID); err != nil {
				return err
			}
		}

		switch {
		case tx.Status == domain.TransactionSuccess:
			return nil
		case status.Paid():
			late = tx.Status == domain.TransactionFailed
			if err := store.Transactions().SetStatus(ctx, tx.ID, domain.TransactionSuccess, &paidAt); err != nil {
				return err
			}
			billIDs, err := store.Transactions().BillIDs(ctx, tx.ID)
			if err != nil {
				return err
			}
			bills, err := store.Bills().ListByIDsForUser(ctx, tx.UserID, billIDs, true)
			if err != nil {
				return err
			}
			for _, b := range bills {
				if b.Status == domain.BillPaid {
					doubled = append(doubled, b.ID)
				}
			}
			if err := store.Bills().MarkPaid(ctx, billIDs); err != nil {
				return err
			}
			outcome = OutcomePaid
		case status.Failed() && tx.Status == domain.TransactionPending:
			if err := store.Transactions().SetStatus(ctx, tx.ID, domain.TransactionFailed, nil); err != nil {
				return err
			}
			outcome = OutcomeFailed
		}
		return nil
	})
	if errors.Is(err, domain.ErrNotFound) {
		metrics.Webhook(OutcomeIgnored)
		logrus.WithFields(logrus.Fields{
			"order_id":       status.OrderID,
			"transaction_id": status.TransactionID,
		}).Warn("Webhook for unknown transaction ignored")
		return OutcomeIgnored, err
	}
	if err != nil {
		metrics.Webhook("error")
		return "", fmt.Errorf("reconcile transaction: %w", err)
	}

	metrics.Webhook(outcome)
	logrus.WithFields(logrus.Fields{
		"order_id":           status.OrderID,
		"transaction_status": status.TransactionStatus,
		"outcome":            outcome,
	}).Info("Webhook reconciled")

	if late {
		metrics.Webhook("late_settlement")
		logrus.WithFields(logrus.Fields{
			"transaction_id": txID,
			"order_id":       status.OrderID,
		}).Error("Settlement received for a transaction marked failed")
	}
	if len(doubled) > 0 {
		metrics.Webhook("double_settlement")
		logrus.WithFields(logrus.Fields{
			"transaction_id": txID,
			"order_id":       status.OrderID,
			"bill_ids":       doubled,
		}).Error("Bills settled by more than one payment")
	}

	if outcome == OutcomePaid {
		s.invalidateStats(ctx, payer)
		if user, err := s.store.Users().Get(ctx, payer); err == nil {
			s.notify(ctx, "payment", user.Phone(), notify.PaymentConfirmation(user.Name, amount, paidAt))
		}
	}
	return outcome, nil
}
