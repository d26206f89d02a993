package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LocalZone is the community's wall clock (WIB)
var LocalZone = time.FixedZone("WIB", 7*60*60)

// CalendarDate keeps the year, month and day of t as midnight UTC, the
// form date columns are written and read back in.
func CalendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// BillStatus is the lifecycle state of an IPL bill
type BillStatus string

const (
	BillPending BillStatus = "pending"
	BillPaid    BillStatus = "paid"
	BillOverdue BillStatus = "overdue"
)

// ParseBillStatus validates a status coming from a form
func ParseBillStatus(s string) (BillStatus, bool) {
	switch BillStatus(s) {
	case BillPending, BillPaid, BillOverdue:
		return BillStatus(s), true
	}
	return "", false
}

// Bill Model (IPL dues for one unit and one month)
type Bill struct {
	ID        string          `gorm:"primaryKey;size:36" json:"id"`                                            // UUID primary key
	UserID    string          `gorm:"size:255;not null;uniqueIndex:idx_bill_period,priority:1" json:"user_id"` // Owner
	Month     int             `gorm:"not null;uniqueIndex:idx_bill_period,priority:2" json:"month"`            // 1-12
	Year      int             `gorm:"not null;uniqueIndex:idx_bill_period,priority:3" json:"year"`             // Billing year
	Amount    decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`                               // Amount due
	Status    BillStatus      `gorm:"size:20;not null;default:pending;index" json:"status"`                    // pending, paid, overdue
	DueDate   *time.Time      `gorm:"type:date" json:"due_date"`                                               // Optional due date
	CreatedAt time.Time       `json:"created_at"`                                                              // Creation timestamp
	UpdatedAt time.Time       `json:"updated_at"`                                                              // Last update timestamp
	User      *User           `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE;" json:"user,omitempty"`    // Owner profile
}

// TableName keeps the schema's table name
func (Bill) TableName() string { return "ipl_bills" }

// Payable reports whether the bill can be included in a payment
func (b *Bill) Payable() bool {
	return b.Status == BillPending || b.Status == BillOverdue
}

// Period formats the billing period as MM/YYYY
func (b *Bill) Period() string {
	return time.Date(b.Year, time.Month(b.Month), 1, 0, 0, 0, 0, time.UTC).Format("01/2006")
}
