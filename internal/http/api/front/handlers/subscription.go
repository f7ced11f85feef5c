package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/onelinediary/server/internal/billing"
	log "github.com/sirupsen/logrus"
)

// SubscriptionHandler serves subscription status and cancellation.
type SubscriptionHandler struct {
	subscriptions *billing.Service
}

// NewSubscriptionHandler constructs a SubscriptionHandler.
func NewSubscriptionHandler(subscriptions *billing.Service) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptions: subscriptions}
}

// Get reports the caller's subscription status.
func (h *SubscriptionHandler) Get(c *gin.Context) {
	userID := getUserID(c)
	status, errStatus := h.subscriptions.Status(c.Request.Context(), userID)
	if errStatus != nil {
		log.WithError(errStatus).WithField("user_id", userID).Error("subscription: status failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch subscription"})
		return
	}
	c.JSON(http.StatusOK, status)
}

// Cancel ends the caller's active subscription immediately.
func (h *SubscriptionHandler) Cancel(c *gin.Context) {
	userID := getUserID(c)
	sub, errCancel := h.subscriptions.Cancel(c.Request.Context(), userID)
	if errCancel != nil {
		if errors.Is(errCancel, billing.ErrNoActiveSubscription) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Active subscription not found"})
			return
		}
		log.WithError(errCancel).WithField("user_id", userID).Error("subscription: cancel failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to cancel subscription"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "subscription": subscriptionView(sub)})
}
