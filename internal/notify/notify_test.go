package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cluster_kita/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWhatsAppSend(t *testing.T) {
	var got message
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer wa-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	wa := NewWhatsApp(srv.URL, "wa-key")
	require.NoError(t, wa.Send(context.Background(), "628123", "halo"))
	assert.Equal(t, "whatsapp", got.MessagingProduct)
	assert.Equal(t, "628123", got.To)
	assert.Equal(t, "text", got.Type)
	assert.Equal(t, "halo", got.Text.Body)
}

func TestWhatsAppSendFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"bad number"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	err := NewWhatsApp(srv.URL, "wa-key").Send(context.Background(), "628123", "halo")
	assert.Error(t, err)
}

func TestWhatsAppNotConfigured(t *testing.T) {
	err := NewWhatsApp("", "").Send(context.Background(), "628123", "halo")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestMessages(t *testing.T) {
	at := time.Date(2025, 3, 1, 10, 15, 0, 0, time.UTC)

	msg := PaymentConfirmation("Budi", decimal.NewFromInt(120000), at)
	assert.Contains(t, msg, "Terima kasih Budi")
	assert.Contains(t, msg, "Rp 120.000")
	assert.Contains(t, msg, "Lunas pada: 1/3/2025")

	assert.Contains(t, Emergency(domain.SOSMedical, "Siti", at), "Darurat Medis\nDilaporkan oleh: Siti")
	assert.Contains(t, ReportStatusUpdate("r-1", domain.ReportInProgress), "Status: Laporan sedang ditangani")
	assert.Contains(t, BookingConfirmation("Aula", at, domain.BookingApproved), "Status: telah disetujui")
}
