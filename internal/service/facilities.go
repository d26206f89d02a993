package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cluster_kita/internal/domain"
	"cluster_kita/internal/notify"
	"cluster_kita/internal/repository"

	"github.com/sirupsen/logrus"
)

// ReportInput is the issue report form
type ReportInput struct {
	Category       string `validate:"required"`
	Description    string `validate:"required"`
	LocationDetail string `validate:"max=255"`
	ImageURL       string `validate:"omitempty,url"`
}

// CreateReport files an issue report with status baru
func (s *Service) CreateReport(ctx context.Context, user *domain.User, in ReportInput) (*domain.ReportTicket, error) {
	if err := authorize(user, domain.CapSubmitReport); err != nil {
		return nil, err
	}
	if err := s.check(in); err != nil {
		return nil, err
	}
	category, ok := domain.ParseReportCategory(in.Category)
	if !ok {
		return nil, domain.Invalid("category", "kategori tidak dikenal")
	}
	t := &domain.ReportTicket{
		UserID:         user.ID,
		Category:       category,
		Description:    strings.TrimSpace(in.Description),
		LocationDetail: strings.TrimSpace(in.LocationDetail),
		ImageURL:       in.ImageURL,
		Status:         domain.ReportNew,
	}
	if err := s.store.Reports().Create(ctx, t); err != nil {
		return nil, fmt.Errorf("create report: %w", err)
	}
	s.invalidateStats(ctx, user.ID)
	return t, nil
}

// ListReportsForUser returns the caller's reports
func (s *Service) ListReportsForUser(ctx context.Context, user *domain.User) ([]domain.ReportTicket, error) {
	if user == nil {
		return nil, domain.ErrUnauthenticated
	}
	return s.store.Reports().ListByUser(ctx, user.ID)
}

// ListAllReports returns every report with its reporter
func (s *Service) ListAllReports(ctx context.Context, actor *domain.User) ([]domain.ReportTicket, error) {
	if err := authorize(actor, domain.CapManageReports); err != nil {
		return nil, err
	}
	return s.store.Reports().ListAll(ctx)
}

// UpdateReportTicketStatus moves a report through its workflow and tells the reporter
func (s *Service) UpdateReportTicketStatus(ctx context.Context, actor *domain.User, id string, status domain.ReportStatus) error {
	if err := authorize(actor, domain.CapManageReports); err != nil {
		return err
	}
	if _, ok := domain.ParseReportStatus(string(status)); !ok {
		return domain.Invalid("status", "status laporan tidak dikenal")
	}
	ticket, err := s.store.Reports().Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Reports().UpdateStatus(ctx, id, status); err != nil {
		return fmt.Errorf("update report status: %w", err)
	}
	s.invalidateStats(ctx, ticket.UserID)
	s.notify(ctx, "report", ticket.User.Phone(), notify.ReportStatusUpdate(ticket.ID, status))
	return nil
}

// FacilityInput is the admin facility form
type FacilityInput struct {
	Name             string `validate:"required,max=100"`
	Description      string
	ImageURL         string `validate:"omitempty,url"`
	RequiresApproval bool
}

// ListActiveFacilities returns the facilities residents may book
func (s *Service) ListActiveFacilities(ctx context.Context) ([]domain.Facility, error) {
	return s.store.Facilities().List(ctx, true)
}

// ListAllFacilities includes inactive facilities
func (s *Service) ListAllFacilities(ctx context.Context, actor *domain.User) ([]domain.Facility, error) {
	if err := authorize(actor, domain.CapManageFacilities); err != nil {
		return nil, err
	}
	return s.store.Facilities().List(ctx, false)
}

// CreateFacility adds an active facility
func (s *Service) CreateFacility(ctx context.Context, actor *domain.User, in FacilityInput) (*domain.Facility, error) {
	if err := authorize(actor, domain.CapManageFacilities); err != nil {
		return nil, err
	}
	if err := s.check(in); err != nil {
		return nil, err
	}
	f := &domain.Facility{
		Name:             strings.TrimSpace(in.Name),
		Description:      in.Description,
		ImageURL:         in.ImageURL,
		RequiresApproval: in.RequiresApproval,
		IsActive:         true,
	}
	if err := s.store.Facilities().Create(ctx, f); err != nil {
		return nil, fmt.Errorf("create facility: %w", err)
	}
	return f, nil
}

// SetFacilityActive opens or closes a facility for booking
func (s *Service) SetFacilityActive(ctx context.Context, actor *domain.User, id string, active bool) error {
	if err := authorize(actor, domain.CapManageFacilities); err != nil {
		return err
	}
	if _, err := s.store.Facilities().Get(ctx, id); err != nil {
		return err
	}
	return s.store.Facilities().SetActive(ctx, id, active)
}

// BookingInput is the booking form
type BookingInput struct {
	FacilityID string    `validate:"required"`
	Start      time.Time `validate:"required"`
	End        time.Time `validate:"required"`
	Notes      string    `validate:"max=1000"`
}

// CreateBooking reserves a facility slot. Facilities without approval are
// approved immediately.
func (s *Service) CreateBooking(ctx context.Context, user *domain.User, in BookingInput) (*domain.FacilityBooking, error) {
	if err := authorize(user, domain.CapBookFacility); err != nil {
		return nil, err
	}
	if err := s.check(in); err != nil {
		return nil, err
	}
	if !in.End.After(in.Start) {
		return nil, domain.Invalid("end_time", "harus setelah waktu mulai")
	}
	if in.Start.Before(s.now()) {
		return nil, domain.Invalid("start_time", "tidak boleh di masa lalu")
	}

	var booking *domain.FacilityBooking
	var facility *domain.Facility
	err := s.store.Atomic(ctx, func(store repository.Store) error {
		var err error
		facility, err = store.Facilities().GetForUpdate(ctx, in.FacilityID)
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Invalid("facility_id", "fasilitas tidak ditemukan")
		}
		if err != nil {
			return err
		}
		if !facility.IsActive {
			return domain.Invalid("facility_id", "fasilitas sedang tidak tersedia")
		}
		overlap, err := store.Bookings().Overlaps(ctx, facility.ID, in.Start, in.End)
		if err != nil {
			return err
		}
		if overlap {
			return domain.Invalid("start_time", "jadwal bentrok dengan booking lain")
		}
		status := domain.BookingApproved
		if facility.RequiresApproval {
			status = domain.BookingPending
		}
		booking = &domain.FacilityBooking{
			FacilityID: facility.ID,
			UserID:     user.ID,
			StartTime:  in.Start,
			EndTime:    in.End,
			Status:     status,
			Notes:      strings.TrimSpace(in.Notes),
		}
		return store.Bookings().Create(ctx, booking)
	})
	if err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"booking_id":  booking.ID,
		"facility_id": facility.ID,
		"status":      booking.Status,
	}).Info("Booking created")
	s.notify(ctx, "booking", user.Phone(), notify.BookingConfirmation(facility.Name, booking.StartTime, booking.Status))
	return booking, nil
}

// ListBookingsForUser returns the caller's bookings by start time
func (s *Service) ListBookingsForUser(ctx context.Context, user *domain.User) ([]domain.FacilityBooking, error) {
	if user == nil {
		return nil, domain.ErrUnauthenticated
	}
	return s.store.Bookings().ListByUser(ctx, user.ID)
}

// ListAllBookings returns every booking with facility and user
func (s *Service) ListAllBookings(ctx context.Context, actor *domain.User) ([]domain.FacilityBooking, error) {
	if err := authorize(actor, domain.CapManageBookings); err != nil {
		return nil, err
	}
	return s.store.Bookings().ListAll(ctx)
}

// DecideBooking approves or rejects a pending booking
func (s *Service) DecideBooking(ctx context.Context, actor *domain.User, id string, approve bool) error {
	if err := authorize(actor, domain.CapManageBookings); err != nil {
		return err
	}
	booking, err := s.store.Bookings().Get(ctx, id)
	if err != nil {
		return err
	}
	if booking.Status != domain.BookingPending {
		return domain.Invalid("status", "booking sudah diproses")
	}
	status := domain.BookingRejected
	if approve {
		status = domain.BookingApproved
	}
	if err := s.store.Bookings().UpdateStatus(ctx, id, status); err != nil {
		return fmt.Errorf("update booking status: %w", err)
	}
	facilityName := ""
	if booking.Facility != nil {
		facilityName = booking.Facility.Name
	}
	if booking.User != nil {
		s.notify(ctx, "booking", booking.User.Phone(), notify.BookingConfirmation(facilityName, booking.StartTime, status))
	}
	return nil
}

// CancelBooking lets the owner release an active booking
func (s *Service) CancelBooking(ctx context.Context, user *domain.User, id string) error {
	if user == nil {
		return domain.ErrUnauthenticated
	}
	booking, err := s.store.Bookings().Get(ctx, id)
	if err != nil {
		return err
	}
	if booking.UserID != user.ID {
		return domain.ErrForbidden
	}
	if !booking.Active() {
		return domain.Invalid("status", "booking tidak dapat dibatalkan")
	}
	return s.store.Bookings().UpdateStatus(ctx, id, domain.BookingCancelled)
}
