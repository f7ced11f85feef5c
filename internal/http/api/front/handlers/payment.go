package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/onelinediary/server/internal/billing"
	log "github.com/sirupsen/logrus"
)

const maxWebhookBodyBytes = int64(65536)

// PaymentHandler serves checkout, provider webhooks and client-side payment confirmation.
type PaymentHandler struct {
	payments *billing.Payments
}

// NewPaymentHandler constructs a PaymentHandler.
func NewPaymentHandler(payments *billing.Payments) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

type checkoutRequest struct {
	PriceID string `json:"priceId"`
}

func providerDisabled(c *gin.Context) {
	c.JSON(http.StatusServiceUnavailable, gin.H{"error": billing.ErrProviderDisabled.Error()})
}

func readWebhookBody(c *gin.Context) ([]byte, bool) {
	body, errRead := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBodyBytes))
	if errRead != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return nil, false
	}
	return body, true
}

// CreateCheckoutSession opens a Stripe checkout session for the caller.
func (h *PaymentHandler) CreateCheckoutSession(c *gin.Context) {
	if !h.payments.StripeEnabled() {
		providerDisabled(c)
		return
	}
	userID := getUserID(c)
	ctx := c.Request.Context()

	var body checkoutRequest
	if c.Request.ContentLength != 0 {
		if errBind := c.ShouldBindJSON(&body); errBind != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
	}
	priceID := strings.TrimSpace(body.PriceID)
	if priceID == "" {
		priceID = h.payments.Stripe().DefaultPriceID()
	}
	if priceID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Price ID is required"})
		return
	}

	premium, errPremium := h.payments.Service().IsPremium(ctx, userID)
	if errPremium != nil {
		log.WithError(errPremium).WithField("user_id", userID).Error("payment: subscription lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create checkout session"})
		return
	}
	if premium {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Already subscribed"})
		return
	}

	sess, errCheckout := h.payments.Stripe().CreateCheckout(ctx, userID, getUserEmail(c), priceID)
	if errCheckout != nil {
		log.WithError(errCheckout).WithField("user_id", userID).Error("payment: stripe checkout failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create checkout session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessionId": sess.ID, "url": sess.URL})
}

// StripeWebhook applies a signed Stripe event.
func (h *PaymentHandler) StripeWebhook(c *gin.Context) {
	if !h.payments.StripeEnabled() {
		providerDisabled(c)
		return
	}
	body, ok := readWebhookBody(c)
	if !ok {
		return
	}
	signature := c.GetHeader("Stripe-Signature")
	if signature == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No signature"})
		return
	}
	if errHandle := h.payments.HandleStripeWebhook(c.Request.Context(), body, signature); errHandle != nil {
		if errors.Is(errHandle, billing.ErrInvalidSignature) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid signature"})
			return
		}
		log.WithError(errHandle).Error("payment: stripe webhook failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Webhook handler failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}

// IamportWebhook verifies an Iamport receipt server-side and grants the purchased plan.
func (h *PaymentHandler) IamportWebhook(c *gin.Context) {
	if !h.payments.IamportEnabled() {
		providerDisabled(c)
		return
	}
	body, ok := readWebhookBody(c)
	if !ok {
		return
	}
	var receipt billing.IamportReceipt
	if errDecode := json.Unmarshal(body, &receipt); errDecode != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if _, errHandle := h.payments.HandleIamport(c.Request.Context(), receipt, body); errHandle != nil {
		if billing.IsVerificationError(errHandle) {
			log.WithError(errHandle).WithField("imp_uid", receipt.ImpUID).Warn("payment: iamport receipt rejected")
			c.JSON(http.StatusOK, gin.H{"success": false, "message": errHandle.Error()})
			return
		}
		if errors.Is(errHandle, billing.ErrPaymentAlreadyUsed) || errors.Is(errHandle, billing.ErrPaymentConsumed) {
			c.JSON(http.StatusConflict, gin.H{"success": false, "message": errHandle.Error()})
			return
		}
		log.WithError(errHandle).WithField("imp_uid", receipt.ImpUID).Error("payment: iamport webhook failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Webhook error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// TossWebhook applies a Toss notification.
func (h *PaymentHandler) TossWebhook(c *gin.Context) {
	if !h.payments.TossEnabled() {
		providerDisabled(c)
		return
	}
	body, ok := readWebhookBody(c)
	if !ok {
		return
	}
	if errHandle := h.payments.HandleTossWebhook(c.Request.Context(), body); errHandle != nil {
		if billing.IsVerificationError(errHandle) {
			log.WithError(errHandle).Warn("payment: toss notification rejected")
			c.JSON(http.StatusBadRequest, gin.H{"error": errHandle.Error()})
			return
		}
		// Toss redelivers on any non-2xx; an already-applied payment will never succeed.
		if errors.Is(errHandle, billing.ErrPaymentAlreadyUsed) || errors.Is(errHandle, billing.ErrPaymentConsumed) {
			log.WithError(errHandle).Warn("payment: toss notification already applied")
			c.JSON(http.StatusOK, gin.H{"received": true, "applied": false})
			return
		}
		log.WithError(errHandle).Error("payment: toss webhook failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Webhook error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}

// ManualSubscription verifies a client-reported Toss payment and grants it to the caller.
func (h *PaymentHandler) ManualSubscription(c *gin.Context) {
	h.grantClaim(c, false)
}

// ForceSubscription verifies a client-reported Toss payment and replaces the caller's subscription.
func (h *PaymentHandler) ForceSubscription(c *gin.Context) {
	h.grantClaim(c, true)
}

func (h *PaymentHandler) grantClaim(c *gin.Context, replace bool) {
	if !h.payments.TossEnabled() {
		providerDisabled(c)
		return
	}
	userID := getUserID(c)
	var claim billing.TossClaim
	if errBind := c.ShouldBindJSON(&claim); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": billing.ErrMissingFields.Error()})
		return
	}

	grant := h.payments.ManualGrant
	if replace {
		grant = h.payments.ForceGrant
	}
	sub, errGrant := grant(c.Request.Context(), userID, claim)
	if errGrant != nil {
		switch {
		case billing.IsVerificationError(errGrant):
			c.JSON(http.StatusBadRequest, gin.H{"error": errGrant.Error()})
		case errors.Is(errGrant, billing.ErrPaymentAlreadyUsed),
			errors.Is(errGrant, billing.ErrPaymentConsumed),
			errors.Is(errGrant, billing.ErrLifetimeActive):
			c.JSON(http.StatusConflict, gin.H{"error": errGrant.Error()})
		default:
			log.WithError(errGrant).WithField("user_id", userID).Error("payment: grant failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create subscription"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "subscription": subscriptionView(sub), "verified": true})
}

// RefreshSubscription expires a lapsed subscription and reports the current status.
func (h *PaymentHandler) RefreshSubscription(c *gin.Context) {
	userID := getUserID(c)
	status, errRefresh := h.payments.Service().Refresh(c.Request.Context(), userID)
	if errRefresh != nil {
		log.WithError(errRefresh).WithField("user_id", userID).Error("payment: refresh failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to refresh subscription"})
		return
	}
	c.JSON(http.StatusOK, status)
}
