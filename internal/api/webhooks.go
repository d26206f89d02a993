package api

import (
	"errors"
	"io"
	"net/http"

	"cluster_kita/internal/domain"
	"cluster_kita/internal/gateway/midtrans"
	"cluster_kita/internal/identity"
	"cluster_kita/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// maxWebhookBody bounds webhook payloads
const maxWebhookBody = 1 << 20

// MidtransWebhookHandler reconciles payment notifications. Unknown
// transactions are acknowledged so the gateway stops retrying; storage
// failures answer 500 so it redelivers.
func MidtransWebhookHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var n midtrans.Status
		if err := c.ShouldBindJSON(&n); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid payload"})
			return
		}
		outcome, err := svc.HandleGatewayWebhook(c.Request.Context(), &n)
		switch {
		case err == nil:
			c.JSON(http.StatusOK, gin.H{"status": "success", "outcome": outcome})
		case errors.Is(err, domain.ErrInvalidSignature):
			logrus.WithField("order_id", n.OrderID).Warn("Webhook signature rejected")
			c.JSON(http.StatusForbidden, gin.H{"status": "error", "message": "invalid signature"})
		case errors.Is(err, domain.ErrNotFound):
			c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		case errors.Is(err, domain.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		default:
			logrus.WithFields(logrus.Fields{
				"order_id": n.OrderID,
				"error":    err,
			}).Error("Webhook processing failed")
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "processing failed"})
		}
	}
}

// IdentityWebhookHandler keeps profiles in sync with the identity provider
func IdentityWebhookHandler(svc *service.Service, verifier *identity.WebhookVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
		if err != nil {
			c.String(http.StatusBadRequest, "Error reading body")
			return
		}
		err = verifier.Verify(c.Request.Header, body)
		if errors.Is(err, identity.ErrMissingHeaders) {
			c.String(http.StatusBadRequest, "Error occurred -- no svix headers")
			return
		}
		if err != nil {
			logrus.WithError(err).Warn("Identity webhook rejected")
			c.String(http.StatusBadRequest, "Error occurred")
			return
		}

		evt, err := identity.ParseEvent(body)
		if err != nil {
			c.String(http.StatusBadRequest, "Error occurred")
			return
		}

		switch evt.Kind() {
		case identity.EventUserCreated, identity.EventUserUpdated:
			if err := svc.UpsertFromIdentity(c.Request.Context(), evt.Data.Profile()); err != nil {
				logrus.WithFields(logrus.Fields{
					"user_id": evt.Data.ID,
					"event":   evt.Kind(),
					"error":   err,
				}).Error("Failed to sync user")
				c.String(http.StatusInternalServerError, "Error occurred")
				return
			}
			logrus.WithFields(logrus.Fields{"user_id": evt.Data.ID, "event": evt.Kind()}).Info("User synced")
		case identity.EventUserDeleted:
			// Profiles are kept; bills and payments reference them
			logrus.WithField("user_id", evt.Data.ID).Info("User deleted at identity provider")
		default:
			logrus.WithField("event", evt.Kind()).Debug("Identity event ignored")
		}
		c.String(http.StatusOK, "")
	}
}
