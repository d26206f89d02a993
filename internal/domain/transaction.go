package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionStatus is the state of a payment attempt
type TransactionStatus string

const (
	TransactionPending TransactionStatus = "pending"
	TransactionSuccess TransactionStatus = "success"
	TransactionFailed  TransactionStatus = "failed"
)

// PaymentMethodQRIS is the only payment method offered to residents
const PaymentMethodQRIS = "qris"

// Transaction Model (one payment attempt at the gateway)
type Transaction struct {
	ID            string            `gorm:"primaryKey;size:36" json:"id"`                        // UUID primary key
	UserID        string            `gorm:"size:255;not null;index" json:"user_id"`              // Payer
	AmountPaid    decimal.Decimal   `gorm:"type:decimal(10,2);not null" json:"amount_paid"`      // Total of linked bills
	Status        TransactionStatus `gorm:"size:20;not null;default:pending" json:"status"`      // pending, success, failed
	PaymentMethod string            `gorm:"size:50;not null;default:qris" json:"payment_method"` // Gateway payment type
	OrderID       string            `gorm:"size:255;not null;uniqueIndex" json:"order_id"`       // Merchant order id sent to the gateway
	ExternalID    *string           `gorm:"size:255;uniqueIndex" json:"external_id"`             // Gateway transaction id
	PaymentTime   *time.Time        `json:"payment_time"`                                        // Settlement time
	CreatedAt     time.Time         `json:"created_at"`                                          // Creation timestamp
	User          *User             `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE;" json:"user,omitempty"`
}

// Terminal reports whether the transaction reached success or failed
func (t *Transaction) Terminal() bool {
	return t.Status == TransactionSuccess || t.Status == TransactionFailed
}

// Reference returns the gateway id when known, the order id otherwise
func (t *Transaction) Reference() string {
	if t.ExternalID != nil && *t.ExternalID != "" {
		return *t.ExternalID
	}
	return t.OrderID
}

// TransactionBillDetail links a transaction to the bills it settles
type TransactionBillDetail struct {
	ID            string `gorm:"primaryKey;size:36" json:"id"`
	TransactionID string `gorm:"size:36;not null;uniqueIndex:idx_tx_bill,priority:1" json:"transaction_id"`
	BillID        string `gorm:"column:ipl_bill_id;size:36;not null;uniqueIndex:idx_tx_bill,priority:2" json:"ipl_bill_id"`

	Transaction *Transaction `gorm:"foreignKey:TransactionID;constraint:OnDelete:CASCADE;" json:"-"`
	Bill        *Bill        `gorm:"foreignKey:BillID;constraint:OnDelete:CASCADE;" json:"-"`
}

// TableName keeps the schema's table name
func (TransactionBillDetail) TableName() string { return "transaction_bill_details" }
