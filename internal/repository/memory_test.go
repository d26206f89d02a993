package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"cluster_kita/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func seedUser(t *testing.T, s Store, id string) {
	t.Helper()
	require.NoError(t, s.Users().Upsert(context.Background(), &domain.User{
		ID: id, Name: id, Email: id + "@example.com",
	}))
}

func TestMemoryUpsertKeepsRoleAndBlock(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	seedUser(t, s, "u1")
	require.NoError(t, s.Users().UpdateRole(ctx, "u1", domain.RoleAdmin))
	require.NoError(t, s.Users().UpdateBlock(ctx, "u1", strPtr("A1")))

	require.NoError(t, s.Users().Upsert(ctx, &domain.User{ID: "u1", Name: "Renamed", Email: "new@example.com"}))

	u, err := s.Users().Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", u.Name)
	assert.Equal(t, domain.RoleAdmin, u.Role)
	assert.Equal(t, "A1", u.Block())
}

func TestMemoryUpsertWithoutPhoneKeepsPhone(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	seedUser(t, s, "u1")
	require.NoError(t, s.Users().UpdateContact(ctx, "u1", strPtr("081234567890"), nil))

	require.NoError(t, s.Users().Upsert(ctx, &domain.User{ID: "u1", Name: "u1", Email: "u1@example.com"}))
	u, err := s.Users().Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "081234567890", u.Phone())

	require.NoError(t, s.Users().Upsert(ctx, &domain.User{ID: "u1", Name: "u1", Email: "u1@example.com", PhoneNumber: strPtr("+6281299999999")}))
	u, err = s.Users().Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "+6281299999999", u.Phone())
}

func TestMemoryUniqueColumns(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	seedUser(t, s, "u1")
	seedUser(t, s, "u2")

	require.NoError(t, s.Users().UpdateContact(ctx, "u1", strPtr("0811"), strPtr("B2")))
	assert.ErrorIs(t, s.Users().UpdateContact(ctx, "u2", strPtr("0811"), nil), domain.ErrDuplicate)
	assert.ErrorIs(t, s.Users().UpdateBlock(ctx, "u2", strPtr("B2")), domain.ErrDuplicate)

	bill := func() *domain.Bill {
		return &domain.Bill{UserID: "u1", Month: 3, Year: 2025, Amount: decimal.NewFromInt(100000), Status: domain.BillPending}
	}
	require.NoError(t, s.Bills().Create(ctx, bill()))
	assert.ErrorIs(t, s.Bills().Create(ctx, bill()), domain.ErrDuplicate)
}

func TestMemoryAtomicRestoresOnError(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	seedUser(t, s, "u1")

	boom := errors.New("boom")
	err := s.Atomic(ctx, func(tx Store) error {
		require.NoError(t, tx.Bills().Create(ctx, &domain.Bill{UserID: "u1", Month: 1, Year: 2025, Status: domain.BillPending}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	bills, err := s.Bills().ListByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, bills)
}

func TestMemoryAtomicCancelledDiscardsWrites(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := NewMemoryStore()
	seedUser(t, s, "u1")

	err := s.Atomic(ctx, func(tx Store) error {
		require.NoError(t, tx.Bills().Create(ctx, &domain.Bill{UserID: "u1", Month: 1, Year: 2025, Status: domain.BillPending}))
		cancel()
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)

	bills, err := s.Bills().ListByUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, bills)
}

func TestMemoryMarkOverdue(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	seedUser(t, s, "u1")
	now := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	past := now.AddDate(0, 0, -5)
	future := now.AddDate(0, 0, 5)

	require.NoError(t, s.Bills().Create(ctx, &domain.Bill{UserID: "u1", Month: 1, Year: 2025, Status: domain.BillPending, DueDate: &past}))
	require.NoError(t, s.Bills().Create(ctx, &domain.Bill{UserID: "u1", Month: 2, Year: 2025, Status: domain.BillPaid, DueDate: &past}))
	require.NoError(t, s.Bills().Create(ctx, &domain.Bill{UserID: "u1", Month: 3, Year: 2025, Status: domain.BillPending, DueDate: &future}))

	n, err := s.Bills().MarkOverdue(ctx, now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	counts, err := s.Bills().CountByStatus(ctx, "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, counts[domain.BillOverdue])
	assert.EqualValues(t, 1, counts[domain.BillPaid])
	assert.EqualValues(t, 1, counts[domain.BillPending])
}

func TestMemoryBookingOverlaps(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	start := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	booking := &domain.FacilityBooking{
		FacilityID: "f1", UserID: "u1", StartTime: start, EndTime: start.Add(2 * time.Hour), Status: domain.BookingApproved,
	}
	require.NoError(t, s.Bookings().Create(ctx, booking))

	overlap, err := s.Bookings().Overlaps(ctx, "f1", start.Add(time.Hour), start.Add(3*time.Hour))
	require.NoError(t, err)
	assert.True(t, overlap)

	overlap, err = s.Bookings().Overlaps(ctx, "f1", start.Add(2*time.Hour), start.Add(3*time.Hour))
	require.NoError(t, err)
	assert.False(t, overlap, "touching slots do not overlap")

	require.NoError(t, s.Bookings().UpdateStatus(ctx, booking.ID, domain.BookingCancelled))
	overlap, err = s.Bookings().Overlaps(ctx, "f1", start, start.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, overlap)
}

func TestMemoryTransactionReference(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	tx := &domain.Transaction{UserID: "u1", OrderID: "IPL-1", Status: domain.TransactionPending}
	require.NoError(t, s.Transactions().Create(ctx, tx))
	require.NoError(t, s.Transactions().SetExternalID(ctx, tx.ID, "mid-1"))

	byExternal, err := s.Transactions().FindByReference(ctx, "mid-1", true)
	require.NoError(t, err)
	assert.Equal(t, tx.ID, byExternal.ID)

	byOrder, err := s.Transactions().FindByReference(ctx, "IPL-1", false)
	require.NoError(t, err)
	assert.Equal(t, tx.ID, byOrder.ID)

	_, err = s.Transactions().FindByReference(ctx, "nope", false)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMemoryPollVoteOnce(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	poll := &domain.Poll{Question: "Q?", Options: []domain.PollOption{{OptionText: "A"}, {OptionText: "B"}}}
	require.NoError(t, s.Polls().Create(ctx, poll))

	got, err := s.Polls().Get(ctx, poll.ID)
	require.NoError(t, err)
	require.Len(t, got.Options, 2)

	optionID := got.Options[0].ID
	require.NoError(t, s.Polls().Vote(ctx, &domain.PollVote{PollID: poll.ID, PollOptionID: optionID, UserID: "u1"}))
	assert.ErrorIs(t, s.Polls().Vote(ctx, &domain.PollVote{PollID: poll.ID, PollOptionID: optionID, UserID: "u1"}), domain.ErrDuplicate)

	tally, err := s.Polls().Tally(ctx, poll.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, tally[optionID])
}
