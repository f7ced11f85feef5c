package models

import "time"

// PlanType is the subscription tier.
type PlanType string

// PlanType constants.
const (
	PlanFree            PlanType = "free"
	PlanPremium         PlanType = "premium"
	PlanLifetimePremium PlanType = "lifetime_premium"
)

// SubscriptionStatus is the lifecycle state of a subscription row.
type SubscriptionStatus string

// SubscriptionStatus constants.
const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
	SubscriptionInactive  SubscriptionStatus = "inactive"
)

// Subscription holds a user's plan and the provider identifiers that granted it.
// At most one row per user may be active; see db.Migrate for the partial index.
type Subscription struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID uint64 `gorm:"not null;index"` // Owning user ID.

	PlanType  PlanType           `gorm:"type:text;not null;default:'free'"`   // Subscribed tier.
	Status    SubscriptionStatus `gorm:"type:text;not null;default:'active'"` // Lifecycle status.
	StartDate time.Time          `gorm:"not null"`                            // Start of the paid period.
	EndDate   *time.Time         // End of the paid period; nil for free and lifetime plans.

	Provider string `gorm:"type:text"`          // Payment provider that last granted the plan.
	Amount   int64  `gorm:"not null;default:0"` // Last verified amount in KRW.

	StripeCustomerID     string `gorm:"type:text"`       // Stripe customer ID.
	StripeSubscriptionID string `gorm:"type:text;index"` // Stripe subscription ID.
	ImpUID               string `gorm:"type:text"`       // Iamport payment UID.
	ImpMerchantUID       string `gorm:"type:text"`       // Iamport merchant UID.
	TossOrderID          string `gorm:"type:text;index"` // Toss order ID.
	TossPaymentKey       string `gorm:"type:text"`       // Toss payment key.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
