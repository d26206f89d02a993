package notify

import (
	"fmt"
	"time"

	"cluster_kita/internal/domain"
	"cluster_kita/internal/utils"

	"github.com/shopspring/decimal"
)

const (
	dateLayout     = "2/1/2006"
	dateTimeLayout = "2/1/2006, 15.04.05"
)

// PaymentConfirmation is sent to the payer after a settled payment
func PaymentConfirmation(name string, amount decimal.Decimal, paidAt time.Time) string {
	return fmt.Sprintf(".cluster Kita - Pembayaran IPL Berhasil!\n\n"+
		"Terima kasih %s, pembayaran IPL sebesar %s telah diterima.\n\n"+
		"Lunas pada: %s\n\nHormat kami,\nAdmin Cluster",
		name, utils.FormatRupiah(amount), paidAt.Format(dateLayout))
}

// Emergency is sent to every admin when an SOS is raised
func Emergency(t domain.SOSType, reporter string, at time.Time) string {
	return fmt.Sprintf(".cluster Kita - PERMINTAAN BANTUAN DARURAT!\n\n%s\n"+
		"Dilaporkan oleh: %s\nWaktu: %s\n\nSegera tangani permintaan darurat ini.",
		t.Label(), reporter, at.Format(dateTimeLayout))
}

// ReportStatusUpdate is sent to the reporter when a ticket changes status
func ReportStatusUpdate(reportID string, status domain.ReportStatus) string {
	return fmt.Sprintf(".cluster Kita - Update Status Laporan\n\n"+
		"Laporan Anda (ID: %s)\nStatus: %s\n\n"+
		"Terima kasih atas partisipasi Anda dalam menjaga lingkungan cluster.",
		reportID, status.Label())
}

// BookingConfirmation is sent when a booking is created or decided
func BookingConfirmation(facility string, start time.Time, status domain.BookingStatus) string {
	return fmt.Sprintf(".cluster Kita - Konfirmasi Booking Fasilitas\n\n"+
		"Booking untuk %s\nPada tanggal: %s\nStatus: %s\n\n"+
		"Silakan datang sesuai jadwal jika sudah disetujui.",
		facility, start.Format(dateLayout), status.Label())
}
