package repository

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"cluster_kita/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockStore(t *testing.T) (*GormStore, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(gormmysql.New(gormmysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return NewGormStore(db), mock
}

func TestGormUsersGetNotFound(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery("SELECT \\* FROM `users` WHERE id = \\?").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email"}))

	_, err := store.Users().Get(context.Background(), "user_1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormBillCreateDuplicatePeriod(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec("INSERT INTO `ipl_bills`").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	err := store.Bills().Create(context.Background(), &domain.Bill{
		UserID: "user_1", Month: 1, Year: 2025, Amount: decimal.NewFromInt(150000), Status: domain.BillPending,
	})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormFindByReferenceFallsBackToOrderID(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery("SELECT \\* FROM `transactions` WHERE external_id = \\?.*FOR UPDATE").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery("SELECT \\* FROM `transactions` WHERE order_id = \\?.*FOR UPDATE").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "amount_paid", "status", "payment_method", "order_id", "created_at"}).
			AddRow("tx_1", "user_1", "300000.00", "pending", "qris", "IPL-user_1-1", time.Now()))

	tx, err := store.Transactions().FindByReference(context.Background(), "IPL-user_1-1", true)
	require.NoError(t, err)
	assert.Equal(t, "tx_1", tx.ID)
	assert.True(t, tx.AmountPaid.Equal(decimal.NewFromInt(300000)))
	assert.Equal(t, domain.TransactionPending, tx.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormMarkOverdueReturnsAffectedRows(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec("UPDATE `ipl_bills` SET `status`=\\?.*WHERE status = \\? AND due_date IS NOT NULL AND due_date < \\?").
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := store.Bills().MarkOverdue(context.Background(), time.Now())
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormAtomicRollsBackOnError(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `transactions`").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectRollback()

	boom := errors.New("gateway down")
	err := store.Atomic(context.Background(), func(tx Store) error {
		if err := tx.Transactions().Create(context.Background(), &domain.Transaction{
			UserID: "user_1", AmountPaid: decimal.NewFromInt(1), Status: domain.TransactionPending,
			PaymentMethod: domain.PaymentMethodQRIS, OrderID: "IPL-1",
		}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormAnnouncementDeleteMissing(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec("DELETE FROM `announcements`").WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.Announcements().Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormBillCountByStatus(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery("SELECT status, count\\(\\*\\) as total FROM `ipl_bills`").
		WillReturnRows(sqlmock.NewRows([]string{"status", "total"}).
			AddRow("pending", 2).
			AddRow("paid", 5))

	counts, err := store.Bills().CountByStatus(context.Background(), "user_1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, counts[domain.BillPending])
	assert.EqualValues(t, 5, counts[domain.BillPaid])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormFacilityGetForUpdateLocksRow(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery("SELECT \\* FROM `facilities` WHERE id = \\?.*FOR UPDATE").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "is_active"}).AddRow("fac_1", "Clubhouse", true))

	f, err := store.Facilities().GetForUpdate(context.Background(), "fac_1")
	require.NoError(t, err)
	assert.Equal(t, "Clubhouse", f.Name)
	assert.True(t, f.IsActive)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// timeArgs accepts any argument and keeps the time values it sees
type timeArgs struct{ seen *[]time.Time }

func (a timeArgs) Match(v driver.Value) bool {
	if t, ok := v.(time.Time); ok {
		*a.seen = append(*a.seen, t.UTC())
	}
	return true
}

func TestGormBillDueDateRoundTrip(t *testing.T) {
	store, mock := newMockStore(t)
	due := domain.CalendarDate(time.Date(2025, 3, 10, 0, 0, 0, 0, domain.LocalZone))
	var written []time.Time
	arg := timeArgs{seen: &written}
	mock.ExpectExec("INSERT INTO `ipl_bills`").
		WithArgs(arg, arg, arg, arg, arg, arg, arg, arg, arg).
		WillReturnResult(sqlmock.NewResult(1, 1))

	bill := &domain.Bill{UserID: "user_1", Month: 3, Year: 2025, Amount: decimal.NewFromInt(150000), Status: domain.BillPending, DueDate: &due}
	require.NoError(t, store.Bills().Create(context.Background(), bill))
	// the driver writes UTC, so the date column keeps the 10th
	assert.Contains(t, written, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC))

	mock.ExpectQuery("SELECT \\* FROM `ipl_bills` WHERE id = \\?").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "month", "year", "amount", "status", "due_date"}).
			AddRow(bill.ID, "user_1", 3, 2025, "150000.00", "pending", time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)))
	got, err := store.Bills().Get(context.Background(), bill.ID)
	require.NoError(t, err)
	require.NotNil(t, got.DueDate)
	assert.Equal(t, "2025-03-10", got.DueDate.Format(time.DateOnly))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormUpsertKeepsPhoneWhenMissing(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec("INSERT INTO `users` .* ON DUPLICATE KEY UPDATE .*`phone_number`=COALESCE\\(VALUES\\(phone_number\\), phone_number\\)").
		WillReturnResult(sqlmock.NewResult(1, 2))

	err := store.Users().Upsert(context.Background(), &domain.User{ID: "user_1", Name: "Sari", Email: "sari@example.com"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
