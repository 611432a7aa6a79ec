package server

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	billingdomain "github.com/sanjail3/Influencer-AI-App/internal/billing/domain"
	userdomain "github.com/sanjail3/Influencer-AI-App/internal/user/domain"
	"go.uber.org/zap"
)

// HandleBillingWebhook ingests payment-provider events. The response is
// 200 once the event is durably stored; processing failures live on the
// stored row, not in the response.
func (s *Server) HandleBillingWebhook(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil || len(body) == 0 {
		AbortWithError(c, invalidRequestError())
		return
	}

	if secret := s.cfg.Payment.WebhookSecret; secret != "" {
		if !verifySignature(body, secret, c.GetHeader("X-Signature")) {
			AbortWithError(c, billingdomain.ErrInvalidSignature)
			return
		}
	}

	eventName := strings.TrimSpace(c.GetHeader("X-Event-Name"))
	if eventName == "" {
		AbortWithError(c, billingdomain.ErrInvalidPayload)
		return
	}

	if err := s.billingSvc.Ingest(c.Request.Context(), eventName, body); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

func verifySignature(body []byte, secret, signature string) bool {
	if signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(strings.TrimSpace(signature)))
}

type identityEvent struct {
	Type string `json:"type"`
	Data struct {
		ID             string `json:"id"`
		EmailAddresses []struct {
			EmailAddress string `json:"email_address"`
		} `json:"email_addresses"`
	} `json:"data"`
}

// HandleIdentityWebhook syncs identity-provider user events onto local
// User rows. user.created applies the welcome grant through the ledger.
func (s *Server) HandleIdentityWebhook(c *gin.Context) {
	var event identityEvent
	if err := c.ShouldBindJSON(&event); err != nil || event.Data.ID == "" {
		AbortWithError(c, invalidRequestError())
		return
	}

	email := ""
	if len(event.Data.EmailAddresses) > 0 {
		email = event.Data.EmailAddresses[0].EmailAddress
	}

	ctx := c.Request.Context()
	switch event.Type {
	case "user.created":
		if _, err := s.userSvc.Register(ctx, userdomain.RegisterRequest{
			ExternalID: event.Data.ID,
			Email:      email,
		}); err != nil {
			AbortWithError(c, err)
			return
		}
	case "user.updated":
		if _, err := s.userSvc.UpdateEmail(ctx, event.Data.ID, email); err != nil {
			AbortWithError(c, err)
			return
		}
	case "user.deleted":
		if err := s.userSvc.Delete(ctx, event.Data.ID); err != nil {
			AbortWithError(c, err)
			return
		}
	default:
		s.log.Debug("ignored identity event", zap.String("type", event.Type))
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
