package midtrans

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"time"
)

// Transaction statuses reported by the gateway
const (
	StatusSettlement = "settlement"
	StatusCapture    = "capture"
	StatusPending    = "pending"
	StatusCancel     = "cancel"
	StatusExpire     = "expire"
	StatusDeny       = "deny"
	StatusFailure    = "failure"
)

// Fraud check outcomes on card captures
const (
	FraudAccept    = "accept"
	FraudChallenge = "challenge"
	FraudDeny      = "deny"
)

const timeLayout = "2006-01-02 15:04:05"

// Gateway timestamps are Western Indonesia Time
var wib = time.FixedZone("WIB", 7*60*60)

// Status is both the HTTP notification body and the status API response
type Status struct {
	StatusCode        string `json:"status_code"`
	StatusMessage     string `json:"status_message"`
	TransactionID     string `json:"transaction_id"`
	OrderID           string `json:"order_id"`
	GrossAmount       string `json:"gross_amount"`
	PaymentType       string `json:"payment_type"`
	TransactionStatus string `json:"transaction_status"`
	TransactionTime   string `json:"transaction_time"`
	SettlementTime    string `json:"settlement_time"`
	FraudStatus       string `json:"fraud_status"`
	SignatureKey      string `json:"signature_key"`
}

// Reference is the id used to look the transaction up
func (s *Status) Reference() string {
	if s.TransactionID != "" {
		return s.TransactionID
	}
	return s.OrderID
}

// Paid reports a settled payment, or a capture the fraud check accepted
func (s *Status) Paid() bool {
	switch s.TransactionStatus {
	case StatusSettlement:
		return true
	case StatusCapture:
		return s.FraudStatus == "" || s.FraudStatus == FraudAccept
	}
	return false
}

// Failed reports a payment that will never settle
func (s *Status) Failed() bool {
	switch s.TransactionStatus {
	case StatusCancel, StatusExpire, StatusDeny, StatusFailure:
		return true
	}
	return false
}

// PaidAt returns settlement_time, falling back to transaction_time and then now
func (s *Status) PaidAt(now time.Time) time.Time {
	for _, v := range []string{s.SettlementTime, s.TransactionTime} {
		if t, err := time.ParseInLocation(timeLayout, v, wib); err == nil {
			return t
		}
	}
	return now
}

// SignatureKey computes sha512(order_id + status_code + gross_amount + server_key)
func SignatureKey(orderID, statusCode, grossAmount, serverKey string) string {
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(sum[:])
}

// ValidSignature checks a notification against the server key
func (c *Client) ValidSignature(n *Status) bool {
	expected := SignatureKey(n.OrderID, n.StatusCode, n.GrossAmount, c.serverKey)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(n.SignatureKey)) == 1
}
