package midtrans

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClientWithBaseURL("server-key", srv.URL)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestCreateCharge(t *testing.T) {
	var got chargeRequest
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v2/charge", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "server-key", user)
		assert.Empty(t, pass)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		writeJSON(w, http.StatusOK, map[string]any{
			"status_code":    "201",
			"status_message": "QRIS transaction is created",
			"transaction_id": "mid-123",
			"order_id":       got.TransactionDetails.OrderID,
			"actions": []map[string]string{
				{"name": "generate-qr-code", "method": "GET", "url": "https://qr.example/123"},
				{"name": "deeplink-redirect", "method": "GET", "url": "https://deeplink.example/123"},
			},
		})
	})

	charge, err := client.CreateCharge(context.Background(), "IPL-u1-1", decimal.RequireFromString("120000.00"),
		&Customer{FirstName: "Budi", Email: "budi@example.com", Phone: "0812"})
	require.NoError(t, err)
	assert.Equal(t, "mid-123", charge.TransactionID)
	assert.Equal(t, "https://qr.example/123", charge.RedirectURL)

	assert.Equal(t, PaymentTypeQRIS, got.PaymentType)
	assert.Equal(t, "IPL-u1-1", got.TransactionDetails.OrderID)
	assert.EqualValues(t, 120000, got.TransactionDetails.GrossAmount)
	require.NotNil(t, got.CustomerDetails)
	assert.Equal(t, "Budi", got.CustomerDetails.FirstName)
}

func TestCreateChargeHTTPError(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{
			"status_code":    "401",
			"status_message": "Access denied",
		})
	})

	_, err := client.CreateCharge(context.Background(), "IPL-1", decimal.NewFromInt(1000), nil)
	var gwErr *GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, http.StatusUnauthorized, gwErr.StatusCode)
	assert.Equal(t, "Access denied", gwErr.Message)
}

func TestCreateChargeBodyError(t *testing.T) {
	// Midtrans reports some failures with HTTP 200 and a failing status_code
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status_code":    "406",
			"status_message": "Duplicate order ID",
		})
	})

	_, err := client.CreateCharge(context.Background(), "IPL-1", decimal.NewFromInt(1000), nil)
	var gwErr *GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, 406, gwErr.StatusCode)
}

func TestVerifyCharge(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/mid-123/status", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]string{
			"status_code":        "200",
			"transaction_id":     "mid-123",
			"order_id":           "IPL-1",
			"gross_amount":       "120000.00",
			"transaction_status": "settlement",
			"settlement_time":    "2025-03-01 10:15:00",
		})
	})

	status, err := client.VerifyCharge(context.Background(), "mid-123")
	require.NoError(t, err)
	assert.True(t, status.Paid())
	assert.False(t, status.Failed())
	assert.Equal(t, "mid-123", status.Reference())

	paidAt := status.PaidAt(time.Now())
	assert.Equal(t, time.Date(2025, 3, 1, 3, 15, 0, 0, time.UTC), paidAt.UTC())
}

func TestSignature(t *testing.T) {
	client := NewClientWithBaseURL("server-key", "http://unused")
	n := &Status{OrderID: "IPL-1", StatusCode: "200", GrossAmount: "120000.00"}
	n.SignatureKey = SignatureKey(n.OrderID, n.StatusCode, n.GrossAmount, "server-key")
	assert.Len(t, n.SignatureKey, 128)
	assert.True(t, client.ValidSignature(n))

	n.GrossAmount = "1.00"
	assert.False(t, client.ValidSignature(n))
}

func TestCaptureNeedsFraudAccept(t *testing.T) {
	assert.True(t, (&Status{TransactionStatus: StatusCapture}).Paid())
	assert.True(t, (&Status{TransactionStatus: StatusCapture, FraudStatus: FraudAccept}).Paid())
	assert.False(t, (&Status{TransactionStatus: StatusCapture, FraudStatus: FraudChallenge}).Paid())
	assert.False(t, (&Status{TransactionStatus: StatusCapture, FraudStatus: FraudDeny}).Paid())
	assert.True(t, (&Status{TransactionStatus: StatusSettlement, FraudStatus: FraudAccept}).Paid())
}

func TestStatusClassification(t *testing.T) {
	for _, s := range []string{StatusCancel, StatusExpire, StatusDeny, StatusFailure} {
		assert.True(t, (&Status{TransactionStatus: s}).Failed(), s)
	}
	pending := &Status{TransactionStatus: StatusPending, OrderID: "IPL-1"}
	assert.False(t, pending.Paid())
	assert.False(t, pending.Failed())
	assert.Equal(t, "IPL-1", pending.Reference())
}
