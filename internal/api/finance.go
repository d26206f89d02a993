package api

import (
	"net/http"

	"cluster_kita/internal/middleware"
	"cluster_kita/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// BillsPageHandler lists the caller's bills and payment attempts
func BillsPageHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		user := middleware.CurrentUser(c)
		bills, err := svc.ListBillsForUser(ctx, user)
		if err != nil {
			fail(c, err)
			return
		}
		txs, err := svc.ListTransactionsForUser(ctx, user)
		if err != nil {
			fail(c, err)
			return
		}
		page(c, "bills.html", gin.H{"Title": "Tagihan IPL", "Bills": bills, "Transactions": txs})
	}
}

// PayBillsHandler creates a QRIS charge for the selected bills and sends the
// payer to the gateway page.
func PayBillsHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := middleware.CurrentUser(c)
		payment, err := svc.CreatePaymentForBills(c.Request.Context(), user, c.PostFormArray("bill_ids"))
		if err != nil {
			logrus.WithFields(logrus.Fields{"user_id": user.ID, "error": err}).Warn("Payment not created")
			if statusOf(err) == http.StatusInternalServerError {
				// Gateway and storage failures stay on the bills page
				redirect(c, "/finance/bills", "error", "Gagal membuat pembayaran. Silakan coba lagi.")
				return
			}
			back(c, "/finance/bills", err)
			return
		}
		if payment.RedirectURL == "" {
			done(c, "/finance/bills", "Pembayaran dibuat dengan nomor "+payment.OrderID)
			return
		}
		c.Redirect(http.StatusSeeOther, payment.RedirectURL)
	}
}
