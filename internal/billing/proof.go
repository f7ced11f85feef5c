package billing

import "github.com/onelinediary/server/internal/models"

// Provider names recorded on subscriptions and payment events.
const (
	ProviderStripe  = "stripe"
	ProviderIamport = "iamport"
	ProviderToss    = "toss"
)

// Proof is evidence that a payment happened. Only the provider verifiers in
// this package can produce a verified Proof, so every grant path goes through
// a server-side check.
type Proof struct {
	Provider string
	Plan     models.PlanType
	Amount   int64

	StripeCustomerID     string
	StripeSubscriptionID string
	ImpUID               string
	ImpMerchantUID       string
	TossOrderID          string
	TossPaymentKey       string

	verified bool
}

// Verified reports whether the proof was produced by a provider verifier.
func (p Proof) Verified() bool { return p.verified }

func verified(p Proof) Proof {
	p.verified = true
	return p
}

// correlationUpdates returns the non-empty provider identifiers as column updates.
func (p Proof) correlationUpdates() map[string]any {
	out := map[string]any{}
	set := func(column, value string) {
		if value != "" {
			out[column] = value
		}
	}
	set("stripe_customer_id", p.StripeCustomerID)
	set("stripe_subscription_id", p.StripeSubscriptionID)
	set("imp_uid", p.ImpUID)
	set("imp_merchant_uid", p.ImpMerchantUID)
	set("toss_order_id", p.TossOrderID)
	set("toss_payment_key", p.TossPaymentKey)
	return out
}
