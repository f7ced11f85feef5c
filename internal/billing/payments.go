package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/onelinediary/server/internal/identity"
	"github.com/onelinediary/server/internal/models"
	log "github.com/sirupsen/logrus"
)

const (
	eventTypeIamportPaid = "iamport.paid"
	eventTypeManualGrant = "manual"
	eventTypeForceGrant  = "force"
)

var (
	// ErrBuyerNotFound indicates the paying email has no account.
	ErrBuyerNotFound = errors.New("사용자 없음")
	// ErrMissingFields indicates a payment claim without order, key or amount.
	ErrMissingFields = errors.New("Missing required fields")
)

// UserDirectory resolves paying emails to user IDs.
type UserDirectory interface {
	LookupByEmail(ctx context.Context, email string) (uint64, error)
}

// Payments routes provider notifications and client claims through the
// matching verifier into the subscription Service.
type Payments struct {
	service *Service
	stripe  *StripeProvider
	iamport *IamportVerifier
	toss    *TossVerifier
	users   UserDirectory
}

// NewPayments wires verifiers to service. Nil verifiers disable their provider.
func NewPayments(service *Service, stripe *StripeProvider, iamport *IamportVerifier, toss *TossVerifier, users UserDirectory) *Payments {
	return &Payments{service: service, stripe: stripe, iamport: iamport, toss: toss, users: users}
}

// Service returns the underlying subscription service.
func (p *Payments) Service() *Service { return p.service }

// Stripe returns the Stripe provider, or nil when disabled.
func (p *Payments) Stripe() *StripeProvider { return p.stripe }

// StripeEnabled reports whether Stripe routes can be served.
func (p *Payments) StripeEnabled() bool { return p != nil && p.stripe != nil }

// IamportEnabled reports whether Iamport receipts can be verified.
func (p *Payments) IamportEnabled() bool { return p != nil && p.iamport != nil }

// TossEnabled reports whether Toss payments can be verified.
func (p *Payments) TossEnabled() bool { return p != nil && p.toss != nil }

// HandleStripeWebhook verifies and applies a Stripe webhook delivery.
func (p *Payments) HandleStripeWebhook(ctx context.Context, payload []byte, signature string) error {
	event, errParse := p.stripe.ParseEvent(payload, signature)
	if errParse != nil {
		return errParse
	}
	return p.service.ApplyStripeEvent(ctx, event)
}

// HandleIamport verifies an Iamport receipt and grants the purchased plan to the buyer.
func (p *Payments) HandleIamport(ctx context.Context, receipt IamportReceipt, payload []byte) (models.Subscription, error) {
	proof, email, errVerify := p.iamport.Verify(ctx, receipt)
	if errVerify != nil {
		return models.Subscription{}, errVerify
	}
	userID, errUser := p.lookupBuyer(ctx, email)
	if errUser != nil {
		return models.Subscription{}, errUser
	}
	return p.service.GrantForEvent(ctx, Event{
		Provider: ProviderIamport,
		Key:      receipt.ImpUID,
		Type:     eventTypeIamportPaid,
		UserID:   &userID,
		Payload:  payload,
	}, proof, false)
}

// HandleTossWebhook applies a Toss notification. Confirmed payments are
// verified against the Toss API before any grant.
func (p *Payments) HandleTossWebhook(ctx context.Context, payload []byte) error {
	var hook TossWebhook
	if errDecode := json.Unmarshal(payload, &hook); errDecode != nil {
		return fmt.Errorf("billing: decode toss webhook: %w", errDecode)
	}
	var data TossWebhookData
	if len(hook.Data) > 0 {
		if errDecode := json.Unmarshal(hook.Data, &data); errDecode != nil {
			return fmt.Errorf("billing: decode toss webhook data: %w", errDecode)
		}
	}

	switch hook.EventType {
	case TossEventPaymentConfirmed:
		proof, errVerify := p.toss.Verify(ctx, TossClaim{OrderID: data.OrderID, PaymentKey: data.PaymentKey, Amount: data.Amount})
		if errVerify != nil {
			return errVerify
		}
		userID, errUser := p.lookupBuyer(ctx, data.CustomerEmail)
		if errors.Is(errUser, ErrBuyerNotFound) {
			log.WithField("order_id", data.OrderID).Warn("billing: toss payment for unknown customer")
			return nil
		}
		if errUser != nil {
			return errUser
		}
		_, errGrant := p.service.GrantForEvent(ctx, Event{
			Provider: ProviderToss,
			Key:      TossEventKey(hook.EventType, data),
			Type:     hook.EventType,
			UserID:   &userID,
			Payload:  payload,
		}, proof, false)
		return errGrant
	case TossEventPaymentStatusChanged:
		if data.Status != TossStatusCanceled {
			return nil
		}
		_, errProcess := p.service.ProcessEvent(ctx, Event{
			Provider: ProviderToss,
			Key:      TossEventKey(hook.EventType, data),
			Type:     hook.EventType,
			Payload:  payload,
		}, func(tx *Service) error {
			n, errCancel := tx.CancelByTossOrder(ctx, data.OrderID)
			if errCancel != nil {
				return errCancel
			}
			log.WithFields(log.Fields{"order_id": data.OrderID, "cancelled": n}).Info("billing: toss payment cancelled")
			return nil
		})
		return errProcess
	default:
		log.WithField("type", hook.EventType).Debug("billing: ignoring toss event")
		return nil
	}
}

// ManualGrant verifies a client-reported Toss payment and grants it to userID.
func (p *Payments) ManualGrant(ctx context.Context, userID uint64, claim TossClaim) (models.Subscription, error) {
	return p.grantClaim(ctx, userID, claim, eventTypeManualGrant, false)
}

// ForceGrant verifies a client-reported Toss payment, cancels the current
// subscription and starts a new one.
func (p *Payments) ForceGrant(ctx context.Context, userID uint64, claim TossClaim) (models.Subscription, error) {
	return p.grantClaim(ctx, userID, claim, eventTypeForceGrant, true)
}

func (p *Payments) grantClaim(ctx context.Context, userID uint64, claim TossClaim, eventType string, replace bool) (models.Subscription, error) {
	if strings.TrimSpace(claim.OrderID) == "" || strings.TrimSpace(claim.PaymentKey) == "" || claim.Amount <= 0 {
		return models.Subscription{}, ErrMissingFields
	}
	proof, errVerify := p.toss.Verify(ctx, claim)
	if errVerify != nil {
		return models.Subscription{}, errVerify
	}
	return p.service.GrantForEvent(ctx, Event{
		Provider: ProviderToss,
		Key:      claim.PaymentKey,
		Type:     eventType,
		UserID:   &userID,
	}, proof, replace)
}

func (p *Payments) lookupBuyer(ctx context.Context, email string) (uint64, error) {
	if p.users == nil {
		return 0, ErrBuyerNotFound
	}
	userID, errLookup := p.users.LookupByEmail(ctx, email)
	if errors.Is(errLookup, identity.ErrUserNotFound) {
		return 0, ErrBuyerNotFound
	}
	if errLookup != nil {
		return 0, errLookup
	}
	return userID, nil
}

// IsVerificationError reports whether err is a payment verification outcome
// that should be reported to the caller rather than treated as a server fault.
func IsVerificationError(err error) bool {
	for _, target := range []error{
		ErrPaymentNotCompleted,
		ErrVerificationFailed,
		ErrAmountMismatch,
		ErrOrderMismatch,
		ErrBuyerNotFound,
		ErrMissingFields,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
