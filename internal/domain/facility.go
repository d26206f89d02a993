package domain

import "time"

// ReportStatus is the handling state of a report ticket
type ReportStatus string

const (
	ReportNew        ReportStatus = "baru"
	ReportInProgress ReportStatus = "ditangani"
	ReportDone       ReportStatus = "selesai"
)

// ParseReportStatus validates a report status coming from a form
func ParseReportStatus(s string) (ReportStatus, bool) {
	switch ReportStatus(s) {
	case ReportNew, ReportInProgress, ReportDone:
		return ReportStatus(s), true
	}
	return "", false
}

// Label returns the human readable status
func (s ReportStatus) Label() string {
	switch s {
	case ReportNew:
		return "Laporan baru"
	case ReportInProgress:
		return "Laporan sedang ditangani"
	case ReportDone:
		return "Laporan telah selesai"
	}
	return string(s)
}

// ReportCategory groups report tickets
type ReportCategory string

const (
	CategoryCleanliness ReportCategory = "kebersihan"
	CategorySecurity    ReportCategory = "keamanan"
	CategoryLighting    ReportCategory = "penerangan"
	CategoryFacility    ReportCategory = "fasilitas"
	CategoryOther       ReportCategory = "lainnya"
)

// ReportCategories lists the categories in display order
var ReportCategories = []ReportCategory{
	CategoryCleanliness, CategorySecurity, CategoryLighting, CategoryFacility, CategoryOther,
}

// ParseReportCategory validates a report category coming from a form
func ParseReportCategory(s string) (ReportCategory, bool) {
	for _, c := range ReportCategories {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// ReportTicket Model
type ReportTicket struct {
	ID             string         `gorm:"primaryKey;size:36" json:"id"`
	UserID         string         `gorm:"size:255;not null;index" json:"user_id"`
	Category       ReportCategory `gorm:"size:20;not null" json:"category"`
	Description    string         `gorm:"type:text;not null" json:"description"`
	LocationDetail string         `gorm:"size:255" json:"location_detail"`
	ImageURL       string         `gorm:"type:text" json:"image_url"`
	Status         ReportStatus   `gorm:"size:20;not null;default:baru" json:"status"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	User           *User          `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE;" json:"user,omitempty"`
}

// Facility Model
type Facility struct {
	ID               string `gorm:"primaryKey;size:36" json:"id"`
	Name             string `gorm:"size:100;not null" json:"name"`
	Description      string `gorm:"type:text" json:"description"`
	ImageURL         string `gorm:"type:text" json:"image_url"`
	RequiresApproval bool   `gorm:"not null" json:"requires_approval"`
	IsActive         bool   `gorm:"not null" json:"is_active"`
}

// BookingStatus is the state of a facility booking
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingApproved  BookingStatus = "approved"
	BookingRejected  BookingStatus = "rejected"
	BookingCancelled BookingStatus = "cancelled"
)

// Label returns the status phrase used in notifications
func (s BookingStatus) Label() string {
	switch s {
	case BookingPending:
		return "sedang menunggu persetujuan"
	case BookingApproved:
		return "telah disetujui"
	case BookingRejected:
		return "ditolak"
	case BookingCancelled:
		return "dibatalkan"
	}
	return string(s)
}

// FacilityBooking Model
type FacilityBooking struct {
	ID         string        `gorm:"primaryKey;size:36" json:"id"`
	FacilityID string        `gorm:"size:36;not null;index" json:"facility_id"`
	UserID     string        `gorm:"size:255;not null;index" json:"user_id"`
	StartTime  time.Time     `gorm:"not null" json:"start_time"`
	EndTime    time.Time     `gorm:"not null" json:"end_time"` // Must be after StartTime
	Status     BookingStatus `gorm:"size:20;not null;default:pending" json:"status"`
	Notes      string        `gorm:"type:text" json:"notes"`
	CreatedAt  time.Time     `json:"created_at"`
	Facility   *Facility     `gorm:"foreignKey:FacilityID;constraint:OnDelete:CASCADE;" json:"facility,omitempty"`
	User       *User         `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE;" json:"user,omitempty"`
}

// Active reports whether the booking still holds its time slot
func (b *FacilityBooking) Active() bool {
	return b.Status == BookingPending || b.Status == BookingApproved
}
