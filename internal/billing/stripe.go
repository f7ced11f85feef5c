package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/onelinediary/server/internal/config"
	"github.com/onelinediary/server/internal/models"
	"github.com/onelinediary/server/internal/settings"
	log "github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/checkout/session"
	"github.com/stripe/stripe-go/v79/webhook"
)

// Stripe event types handled by the webhook.
const (
	StripeEventCheckoutCompleted   = "checkout.session.completed"
	StripeEventSubscriptionDeleted = "customer.subscription.deleted"
)

var (
	// ErrProviderDisabled indicates the provider has no credentials configured.
	ErrProviderDisabled = errors.New("payment provider not configured")
	// ErrInvalidSignature indicates a webhook payload failed signature verification.
	ErrInvalidSignature = errors.New("Invalid signature")
)

// StripeProvider creates checkout sessions and verifies Stripe webhooks.
type StripeProvider struct {
	sessions      session.Client
	webhookSecret string
	priceID       string
	baseURL       string
}

// NewStripeProvider constructs a provider from cfg. backend may be nil to use
// the default Stripe API backend. It returns nil when Stripe is not configured.
func NewStripeProvider(cfg config.StripeConfig, baseURL string, backend stripe.Backend) *StripeProvider {
	if !cfg.Enabled() {
		return nil
	}
	if backend == nil {
		backend = stripe.GetBackend(stripe.APIBackend)
	}
	return &StripeProvider{
		sessions:      session.Client{B: backend, Key: strings.TrimSpace(cfg.SecretKey)},
		webhookSecret: strings.TrimSpace(cfg.WebhookSecret),
		priceID:       strings.TrimSpace(cfg.PriceID),
		baseURL:       strings.TrimRight(baseURL, "/"),
	}
}

// DefaultPriceID returns the configured monthly price.
func (p *StripeProvider) DefaultPriceID() string {
	if p == nil {
		return ""
	}
	return p.priceID
}

// CreateCheckout opens a subscription checkout session for userID.
func (p *StripeProvider) CreateCheckout(ctx context.Context, userID uint64, email, priceID string) (*stripe.CheckoutSession, error) {
	if p == nil {
		return nil, ErrProviderDisabled
	}
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(p.baseURL + "/payment/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripe.String(p.baseURL + "/payment/cancel"),
		Metadata: map[string]string{
			"userId": strconv.FormatUint(userID, 10),
		},
	}
	if email = strings.TrimSpace(email); email != "" {
		params.CustomerEmail = stripe.String(email)
	}
	params.Context = ctx
	sess, errNew := p.sessions.New(params)
	if errNew != nil {
		return nil, fmt.Errorf("billing: stripe checkout: %w", errNew)
	}
	return sess, nil
}

// ParseEvent verifies the Stripe-Signature header and decodes the event.
func (p *StripeProvider) ParseEvent(payload []byte, signature string) (stripe.Event, error) {
	if p == nil {
		return stripe.Event{}, ErrProviderDisabled
	}
	event, errConstruct := webhook.ConstructEventWithOptions(payload, signature, p.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if errConstruct != nil {
		log.WithError(errConstruct).Warn("billing: stripe signature verification failed")
		return stripe.Event{}, ErrInvalidSignature
	}
	return event, nil
}

// ApplyStripeEvent reconciles subscriptions for a verified Stripe event.
// Unhandled event types are recorded and ignored.
func (s *Service) ApplyStripeEvent(ctx context.Context, event stripe.Event) error {
	if event.Data == nil {
		return fmt.Errorf("billing: stripe event %s: missing data", event.ID)
	}
	switch string(event.Type) {
	case StripeEventCheckoutCompleted:
		var sess stripe.CheckoutSession
		if errDecode := json.Unmarshal(event.Data.Raw, &sess); errDecode != nil {
			return fmt.Errorf("billing: decode checkout session: %w", errDecode)
		}
		return s.applyCheckoutCompleted(ctx, event, sess)
	case StripeEventSubscriptionDeleted:
		var sub stripe.Subscription
		if errDecode := json.Unmarshal(event.Data.Raw, &sub); errDecode != nil {
			return fmt.Errorf("billing: decode subscription: %w", errDecode)
		}
		_, errProcess := s.ProcessEvent(ctx, Event{
			Provider: ProviderStripe,
			Key:      event.ID,
			Type:     string(event.Type),
			Payload:  event.Data.Raw,
		}, func(tx *Service) error {
			n, errCancel := tx.CancelByStripeSubscription(ctx, sub.ID)
			if errCancel != nil {
				return errCancel
			}
			log.WithFields(log.Fields{"stripe_subscription": sub.ID, "cancelled": n}).Info("billing: stripe subscription deleted")
			return nil
		})
		return errProcess
	default:
		log.WithField("type", event.Type).Debug("billing: ignoring stripe event")
		return nil
	}
}

func (s *Service) applyCheckoutCompleted(ctx context.Context, event stripe.Event, sess stripe.CheckoutSession) error {
	userID, errParse := strconv.ParseUint(strings.TrimSpace(sess.Metadata["userId"]), 10, 64)
	if errParse != nil || userID == 0 {
		log.WithField("session", sess.ID).Warn("billing: checkout session without user metadata")
		return nil
	}
	if sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusUnpaid {
		log.WithField("session", sess.ID).Info("billing: checkout session not paid yet")
		return nil
	}
	proof := Proof{
		Provider: ProviderStripe,
		Plan:     models.PlanPremium,
		Amount:   settings.PremiumMonthlyAmount,
	}
	if sess.AmountTotal > 0 {
		proof.Amount = sess.AmountTotal
	}
	if sess.Customer != nil {
		proof.StripeCustomerID = sess.Customer.ID
	}
	if sess.Subscription != nil {
		proof.StripeSubscriptionID = sess.Subscription.ID
	}
	_, errProcess := s.ProcessEvent(ctx, Event{
		Provider: ProviderStripe,
		Key:      event.ID,
		Type:     string(event.Type),
		UserID:   &userID,
		Payload:  event.Data.Raw,
	}, func(tx *Service) error {
		_, errGrant := tx.Grant(ctx, userID, verified(proof))
		return errGrant
	})
	return errProcess
}
