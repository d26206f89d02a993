package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"cluster_kita/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateBillOnePerPeriod(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	in := CreateBillInput{UserID: h.resident.ID, Month: 3, Year: 2025, Amount: decimal.NewFromInt(150000)}

	bill, err := h.svc.CreateBill(ctx, h.admin, in)
	require.NoError(t, err)
	assert.Equal(t, domain.BillPending, bill.Status)

	_, err = h.svc.CreateBill(ctx, h.admin, in)
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	bills, err := h.svc.ListBillsForUser(ctx, h.resident)
	require.NoError(t, err)
	assert.Len(t, bills, 1)
}

func TestCreateBillValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	cases := map[string]CreateBillInput{
		"month":    {UserID: h.resident.ID, Month: 13, Year: 2025, Amount: decimal.NewFromInt(1)},
		"negative": {UserID: h.resident.ID, Month: 1, Year: 2025, Amount: decimal.NewFromInt(-1)},
		"user":     {UserID: "ghost", Month: 1, Year: 2025, Amount: decimal.NewFromInt(1)},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := h.svc.CreateBill(ctx, h.admin, in)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestResidentCannotUseAdminOperations(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.addBill(t, h.resident.ID, 1, 100000, domain.BillPending)
	ticket, err := h.svc.CreateReport(ctx, h.resident, ReportInput{Category: "kebersihan", Description: "Sampah menumpuk"})
	require.NoError(t, err)

	_, err = h.svc.ListAllBills(ctx, h.resident)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = h.svc.CreateBill(ctx, h.resident, CreateBillInput{UserID: h.resident.ID, Month: 2, Year: 2025, Amount: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = h.svc.CreateFacility(ctx, h.resident, FacilityInput{Name: "Kolam"})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	err = h.svc.UpdateReportTicketStatus(ctx, h.resident, ticket.ID, domain.ReportDone)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	// nothing changed
	bills, err := h.svc.ListBillsForUser(ctx, h.resident)
	require.NoError(t, err)
	assert.Len(t, bills, 1)
	facilities, err := h.svc.ListActiveFacilities(ctx)
	require.NoError(t, err)
	assert.Empty(t, facilities)
	reports, err := h.svc.ListReportsForUser(ctx, h.resident)
	require.NoError(t, err)
	assert.Equal(t, domain.ReportNew, reports[0].Status)
}

func TestUnauthenticatedActor(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.ListAllBills(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestMarkOverdue(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	due := testNow.AddDate(0, 0, -1)
	_, err := h.svc.CreateBill(ctx, h.admin, CreateBillInput{UserID: h.resident.ID, Month: 2, Year: 2025, Amount: decimal.NewFromInt(1000), DueDate: &due})
	require.NoError(t, err)

	_, err = h.svc.MarkOverdue(ctx, h.resident, testNow)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	n, err := h.svc.MarkOverdue(ctx, h.admin, testNow)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	bills, err := h.svc.ListBillsForUser(ctx, h.resident)
	require.NoError(t, err)
	assert.Equal(t, domain.BillOverdue, bills[0].Status)
}

func TestSweepOverdueDropsEveryDashboard(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.addBill(t, h.resident.ID, 2, 1000, domain.BillPending)
	due := testNow.AddDate(0, 0, -3)
	_, err := h.svc.CreateBill(ctx, h.admin, CreateBillInput{UserID: h.resident.ID, Month: 1, Year: 2025, Amount: decimal.NewFromInt(1000), DueDate: &due})
	require.NoError(t, err)

	for i := 0; i < 250; i++ {
		require.NoError(t, h.mr.Set(fmt.Sprintf("dashboard:resident:u%d", i), "{}"))
	}
	require.NoError(t, h.mr.Set("dashboard:admin", "{}"))
	require.NoError(t, h.mr.Set("session:keep", "1"))

	n, err := h.svc.SweepOverdue(ctx, testNow)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	for _, key := range h.mr.Keys() {
		assert.NotContains(t, key, "dashboard:")
	}
	assert.True(t, h.mr.Exists("session:keep"))
}

func TestUpdateBillStatus(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	bill := h.addBill(t, h.resident.ID, 1, 1000, domain.BillPending)

	_, err := h.svc.UpdateBillStatus(ctx, h.admin, bill.ID, "lunas")
	assert.ErrorIs(t, err, domain.ErrValidation)

	updated, err := h.svc.UpdateBillStatus(ctx, h.admin, bill.ID, domain.BillPaid)
	require.NoError(t, err)
	assert.Equal(t, domain.BillPaid, updated.Status)

	_, err = h.svc.UpdateBillStatus(ctx, h.admin, "missing", domain.BillPaid)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestExportBills(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.addBill(t, h.resident.ID, 1, 1000, domain.BillPending)

	_, err := h.svc.ExportBills(ctx, h.resident)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	data, err := h.svc.ExportBills(ctx, h.admin)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

func TestDashboards(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.addBill(t, h.resident.ID, 1, 1000, domain.BillPending)
	h.addBill(t, h.resident.ID, 2, 1000, domain.BillOverdue)
	_, err := h.svc.CreateAnnouncement(ctx, h.admin, AnnouncementInput{Title: "Kerja bakti", Content: "Minggu pagi"})
	require.NoError(t, err)

	stats, err := h.svc.ResidentDashboard(ctx, h.resident)
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.PendingBills)
	assert.EqualValues(t, 1, stats.OverdueBills)
	require.Len(t, stats.Announcements, 1)
	assert.True(t, h.mr.Exists("dashboard:resident:"+h.resident.ID))

	_, err = h.svc.AdminDashboard(ctx, h.resident)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	admin, err := h.svc.AdminDashboard(ctx, h.admin)
	require.NoError(t, err)
	assert.EqualValues(t, 2, admin.Users)
	assert.EqualValues(t, 1, admin.Announcements)

	// a new bill drops the cached counters
	_, err = h.svc.CreateBill(ctx, h.admin, CreateBillInput{UserID: h.resident.ID, Month: 3, Year: 2025, Amount: decimal.NewFromInt(1)})
	require.NoError(t, err)
	assert.False(t, h.mr.Exists("dashboard:resident:"+h.resident.ID))
	stats, err = h.svc.ResidentDashboard(ctx, h.resident)
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.PendingBills)
}

func TestDueDateIsACalendarDate(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	due := time.Date(2025, 3, 10, 0, 0, 0, 0, domain.LocalZone)
	bill, err := h.svc.CreateBill(ctx, h.admin, CreateBillInput{UserID: h.resident.ID, Month: 3, Year: 2025, Amount: decimal.NewFromInt(150000), DueDate: &due})
	require.NoError(t, err)
	require.NotNil(t, bill.DueDate)
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), *bill.DueDate)

	// still on time during the due date itself
	n, err := h.svc.SweepOverdue(ctx, time.Date(2025, 3, 10, 23, 0, 0, 0, domain.LocalZone))
	require.NoError(t, err)
	assert.Zero(t, n)

	// 00:30 WIB on the next day is still the 10th in UTC
	n, err = h.svc.SweepOverdue(ctx, time.Date(2025, 3, 11, 0, 30, 0, 0, domain.LocalZone))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}
