package repository

import (
	"context"
	"errors"
	"time"

	"cluster_kita/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type gormBills struct{ db *gorm.DB }

func (r *gormBills) Create(ctx context.Context, b *domain.Bill) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(b).Error)
}

func (r *gormBills) Get(ctx context.Context, id string) (*domain.Bill, error) {
	var b domain.Bill
	if err := r.db.WithContext(ctx).First(&b, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &b, nil
}

func (r *gormBills) ListByUser(ctx context.Context, userID string) ([]domain.Bill, error) {
	var bills []domain.Bill
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("year desc").Order("month desc").Find(&bills).Error
	return bills, translate(err)
}

func (r *gormBills) ListAll(ctx context.Context) ([]domain.Bill, error) {
	var bills []domain.Bill
	err := r.db.WithContext(ctx).Preload("User").
		Order("year desc").Order("month desc").Find(&bills).Error
	return bills, translate(err)
}

func (r *gormBills) ListByIDsForUser(ctx context.Context, userID string, ids []string, forUpdate bool) ([]domain.Bill, error) {
	q := r.db.WithContext(ctx)
	if forUpdate {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var bills []domain.Bill
	err := q.Where("id IN ? AND user_id = ?", ids, userID).
		Order("year asc").Order("month asc").Find(&bills).Error
	return bills, translate(err)
}

func (r *gormBills) UpdateStatus(ctx context.Context, id string, status domain.BillStatus) error {
	err := r.db.WithContext(ctx).Model(&domain.Bill{}).Where("id = ?", id).Update("status", status).Error
	return translate(err)
}

func (r *gormBills) MarkPaid(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Model(&domain.Bill{}).Where("id IN ?", ids).Update("status", domain.BillPaid).Error
	return translate(err)
}

func (r *gormBills) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&domain.Bill{}).
		Where("status = ? AND due_date IS NOT NULL AND due_date < ?", domain.BillPending, asOf).
		Update("status", domain.BillOverdue)
	return res.RowsAffected, translate(res.Error)
}

func (r *gormBills) CountByStatus(ctx context.Context, userID string) (map[domain.BillStatus]int64, error) {
	var rows []struct {
		Status domain.BillStatus
		Total  int64
	}
	q := r.db.WithContext(ctx).Model(&domain.Bill{}).Select("status, count(*) as total").Group("status")
	if userID != "" {
		q = q.Where("user_id = ?", userID)
	}
	if err := q.Scan(&rows).Error; err != nil {
		return nil, translate(err)
	}
	counts := make(map[domain.BillStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Total
	}
	return counts, nil
}

type gormTransactions struct{ db *gorm.DB }

func (r *gormTransactions) Create(ctx context.Context, t *domain.Transaction) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(t).Error)
}

func (r *gormTransactions) LinkBills(ctx context.Context, transactionID string, billIDs []string) error {
	if len(billIDs) == 0 {
		return nil
	}
	details := make([]domain.TransactionBillDetail, len(billIDs))
	for i, id := range billIDs {
		details[i] = domain.TransactionBillDetail{TransactionID: transactionID, BillID: id}
	}
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(&details).Error)
}

func (r *gormTransactions) SetExternalID(ctx context.Context, id, externalID string) error {
	err := r.db.WithContext(ctx).Model(&domain.Transaction{}).Where("id = ?", id).
		Update("external_id", externalID).Error
	return translate(err)
}

func (r *gormTransactions) SetStatus(ctx context.Context, id string, status domain.TransactionStatus, paymentTime *time.Time) error {
	updates := map[string]any{"status": status}
	if paymentTime != nil {
		updates["payment_time"] = *paymentTime
	}
	err := r.db.WithContext(ctx).Model(&domain.Transaction{}).Where("id = ?", id).Updates(updates).Error
	return translate(err)
}

func (r *gormTransactions) PendingForBills(ctx context.Context, billIDs []string) ([]domain.Transaction, error) {
	var txs []domain.Transaction
	if len(billIDs) == 0 {
		return txs, nil
	}
	err := r.db.WithContext(ctx).
		Distinct("transactions.*").
		Joins("JOIN transaction_bill_details d ON d.transaction_id = transactions.id").
		Where("d.ipl_bill_id IN ? AND transactions.status = ?", billIDs, domain.TransactionPending).
		Order("transactions.created_at asc").
		Find(&txs).Error
	return txs, translate(err)
}

func (r *gormTransactions) FindByReference(ctx context.Context, ref string, forUpdate bool) (*domain.Transaction, error) {
	for _, column := range []string{"external_id", "order_id"} {
		q := r.db.WithContext(ctx)
		if forUpdate {
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var t domain.Transaction
		err := q.Where(column+" = ?", ref).First(&t).Error
		if err == nil {
			return &t, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, translate(err)
		}
	}
	return nil, domain.ErrNotFound
}

func (r *gormTransactions) BillIDs(ctx context.Context, transactionID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&domain.TransactionBillDetail{}).
		Where("transaction_id = ?", transactionID).Pluck("ipl_bill_id", &ids).Error
	return ids, translate(err)
}

func (r *gormTransactions) ListByUser(ctx context.Context, userID string) ([]domain.Transaction, error) {
	var txs []domain.Transaction
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at desc").Find(&txs).Error
	return txs, translate(err)
}

func (r *gormTransactions) ListAll(ctx context.Context) ([]domain.Transaction, error) {
	var txs []domain.Transaction
	err := r.db.WithContext(ctx).Preload("User").Order("created_at desc").Find(&txs).Error
	return txs, translate(err)
}
