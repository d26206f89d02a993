package repository

import (
	"context"
	"time"

	"cluster_kita/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type gormReports struct{ db *gorm.DB }

func (r *gormReports) Create(ctx context.Context, t *domain.ReportTicket) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(t).Error)
}

func (r *gormReports) Get(ctx context.Context, id string) (*domain.ReportTicket, error) {
	var t domain.ReportTicket
	if err := r.db.WithContext(ctx).Preload("User").First(&t, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

func (r *gormReports) ListByUser(ctx context.Context, userID string) ([]domain.ReportTicket, error) {
	var tickets []domain.ReportTicket
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at desc").Find(&tickets).Error
	return tickets, translate(err)
}

func (r *gormReports) ListAll(ctx context.Context) ([]domain.ReportTicket, error) {
	var tickets []domain.ReportTicket
	err := r.db.WithContext(ctx).Preload("User").Order("created_at desc").Find(&tickets).Error
	return tickets, translate(err)
}

func (r *gormReports) UpdateStatus(ctx context.Context, id string, status domain.ReportStatus) error {
	err := r.db.WithContext(ctx).Model(&domain.ReportTicket{}).Where("id = ?", id).Update("status", status).Error
	return translate(err)
}

func (r *gormReports) Count(ctx context.Context, userID string, since time.Time) (int64, error) {
	var total int64
	q := r.db.WithContext(ctx).Model(&domain.ReportTicket{})
	if !since.IsZero() {
		q = q.Where("created_at >= ?", since)
	}
	if userID != "" {
		q = q.Where("user_id = ?", userID)
	}
	err := q.Count(&total).Error
	return total, translate(err)
}

type gormFacilities struct{ db *gorm.DB }

func (r *gormFacilities) List(ctx context.Context, activeOnly bool) ([]domain.Facility, error) {
	var items []domain.Facility
	q := r.db.WithContext(ctx).Order("name asc")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	err := q.Find(&items).Error
	return items, translate(err)
}

func (r *gormFacilities) Get(ctx context.Context, id string) (*domain.Facility, error) {
	var f domain.Facility
	if err := r.db.WithContext(ctx).First(&f, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &f, nil
}

func (r *gormFacilities) GetForUpdate(ctx context.Context, id string) (*domain.Facility, error) {
	var f domain.Facility
	err := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&f, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &f, nil
}

func (r *gormFacilities) Create(ctx context.Context, f *domain.Facility) error {
	return translate(r.db.WithContext(ctx).Create(f).Error)
}

func (r *gormFacilities) SetActive(ctx context.Context, id string, active bool) error {
	err := r.db.WithContext(ctx).Model(&domain.Facility{}).Where("id = ?", id).Update("is_active", active).Error
	return translate(err)
}

type gormBookings struct{ db *gorm.DB }

func (r *gormBookings) Create(ctx context.Context, b *domain.FacilityBooking) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(b).Error)
}

func (r *gormBookings) Get(ctx context.Context, id string) (*domain.FacilityBooking, error) {
	var b domain.FacilityBooking
	if err := r.db.WithContext(ctx).Preload("Facility").Preload("User").First(&b, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &b, nil
}

func (r *gormBookings) ListByUser(ctx context.Context, userID string) ([]domain.FacilityBooking, error) {
	var items []domain.FacilityBooking
	err := r.db.WithContext(ctx).Preload("Facility").Where("user_id = ?", userID).
		Order("start_time asc").Find(&items).Error
	return items, translate(err)
}

func (r *gormBookings) ListAll(ctx context.Context) ([]domain.FacilityBooking, error) {
	var items []domain.FacilityBooking
	err := r.db.WithContext(ctx).Preload("Facility").Preload("User").
		Order("start_time desc").Find(&items).Error
	return items, translate(err)
}

func (r *gormBookings) UpdateStatus(ctx context.Context, id string, status domain.BookingStatus) error {
	err := r.db.WithContext(ctx).Model(&domain.FacilityBooking{}).Where("id = ?", id).Update("status", status).Error
	return translate(err)
}

func (r *gormBookings) Overlaps(ctx context.Context, facilityID string, start, end time.Time) (bool, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&domain.FacilityBooking{}).
		Where("facility_id = ? AND status IN ?", facilityID, []domain.BookingStatus{domain.BookingPending, domain.BookingApproved}).
		Where("start_time < ? AND end_time > ?", end, start).
		Count(&total).Error
	return total > 0, translate(err)
}

type gormLetters struct{ db *gorm.DB }

func (r *gormLetters) Create(ctx context.Context, l *domain.UserLetter) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(l).Error)
}

func (r *gormLetters) Get(ctx context.Context, id string) (*domain.UserLetter, error) {
	var l domain.UserLetter
	if err := r.db.WithContext(ctx).Preload("User").First(&l, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &l, nil
}

func (r *gormLetters) ListByUser(ctx context.Context, userID string) ([]domain.UserLetter, error) {
	var items []domain.UserLetter
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at desc").Find(&items).Error
	return items, translate(err)
}

func (r *gormLetters) ListAll(ctx context.Context) ([]domain.UserLetter, error) {
	var items []domain.UserLetter
	err := r.db.WithContext(ctx).Preload("User").Order("created_at desc").Find(&items).Error
	return items, translate(err)
}

func (r *gormLetters) Update(ctx context.Context, id string, status domain.LetterStatus, notes string) error {
	err := r.db.WithContext(ctx).Model(&domain.UserLetter{}).Where("id = ?", id).
		Updates(map[string]any{"status": status, "admin_notes": notes}).Error
	return translate(err)
}
