package billing

import (
	"time"

	"github.com/onelinediary/server/internal/models"
	"github.com/onelinediary/server/internal/settings"
)

// PlanForAmount maps a verified KRW amount to the plan it buys.
func PlanForAmount(amount int64) (models.PlanType, bool) {
	switch amount {
	case settings.PremiumMonthlyAmount:
		return models.PlanPremium, true
	case settings.PremiumLifetimeAmount:
		return models.PlanLifetimePremium, true
	default:
		return "", false
	}
}

// EndDateFor returns the end of the paid period starting at now; nil means no expiry.
func EndDateFor(plan models.PlanType, now time.Time) *time.Time {
	if plan != models.PlanPremium {
		return nil
	}
	end := now.Add(settings.PremiumPeriod).UTC()
	return &end
}

// IsPremiumPlan reports whether plan unlocks premium features.
func IsPremiumPlan(plan models.PlanType) bool {
	return plan == models.PlanPremium || plan == models.PlanLifetimePremium
}
