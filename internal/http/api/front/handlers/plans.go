package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/onelinediary/server/internal/models"
	"github.com/onelinediary/server/internal/settings"
)

// PlanFrontHandler serves the purchasable plans.
type PlanFrontHandler struct {
	stripePriceID string
	tossClientKey string
}

// NewPlanFrontHandler constructs a PlanFrontHandler. The Toss client key is
// public and lets the client open the Toss payment widget.
func NewPlanFrontHandler(stripePriceID, tossClientKey string) *PlanFrontHandler {
	return &PlanFrontHandler{stripePriceID: stripePriceID, tossClientKey: tossClientKey}
}

// List returns the paid plans and the themes they unlock.
func (h *PlanFrontHandler) List(c *gin.Context) {
	plans := []gin.H{
		{
			"plan_type":   models.PlanPremium,
			"amount":      settings.PremiumMonthlyAmount,
			"currency":    "KRW",
			"period_days": int(settings.PremiumPeriod.Hours() / 24),
		},
		{
			"plan_type":   models.PlanLifetimePremium,
			"amount":      settings.PremiumLifetimeAmount,
			"currency":    "KRW",
			"period_days": nil,
		},
	}
	c.JSON(http.StatusOK, gin.H{
		"plans":         plans,
		"themes":        settings.Themes,
		"stripePriceId": h.stripePriceID,
		"tossClientKey": h.tossClientKey,
	})
}
