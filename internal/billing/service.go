package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/onelinediary/server/internal/db"
	"github.com/onelinediary/server/internal/models"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	// ErrUnverifiedPayment rejects grants whose proof was not produced by a verifier.
	ErrUnverifiedPayment = errors.New("payment not verified")
	// ErrNoActiveSubscription indicates the user has no active subscription row.
	ErrNoActiveSubscription = errors.New("Active subscription not found")
	// ErrLifetimeActive refuses to swap an active lifetime plan for a time-limited one.
	ErrLifetimeActive = errors.New("Lifetime subscription already active")
)

// Status is the subscription summary returned to clients.
type Status struct {
	IsPremium bool            `json:"isPremium"`
	PlanType  models.PlanType `json:"planType"`
	Status    string          `json:"status"`
	StartDate *time.Time      `json:"startDate,omitempty"`
	EndDate   *time.Time      `json:"endDate,omitempty"`
}

// Service reconciles subscription rows. Every paid state change goes through Grant or Replace.
type Service struct {
	db  *gorm.DB
	now func() time.Time
}

// NewService constructs a subscription Service.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db, now: time.Now}
}

// WithDB returns a copy of the service bound to db, typically a transaction.
func (s *Service) WithDB(db *gorm.DB) *Service {
	if s == nil {
		return nil
	}
	clone := *s
	clone.db = db
	return &clone
}

// CreateFree inserts the active free subscription of a new account.
func CreateFree(tx *gorm.DB, userID uint64, now time.Time) error {
	sub := models.Subscription{
		UserID:    userID,
		PlanType:  models.PlanFree,
		Status:    models.SubscriptionActive,
		StartDate: now.UTC(),
	}
	if errCreate := tx.Create(&sub).Error; errCreate != nil {
		return fmt.Errorf("billing: create free subscription: %w", errCreate)
	}
	return nil
}

// Grant activates proof.Plan for userID. An existing active row is updated in
// place, otherwise a new active row is inserted. An insert that loses a race
// against the one-active-row index is retried once as an update.
func (s *Service) Grant(ctx context.Context, userID uint64, proof Proof) (models.Subscription, error) {
	if !proof.Verified() {
		return models.Subscription{}, ErrUnverifiedPayment
	}
	if userID == 0 {
		return models.Subscription{}, fmt.Errorf("billing: grant: missing user")
	}

	var (
		sub     models.Subscription
		errLast error
	)
	for attempt := 0; attempt < 2; attempt++ {
		sub, errLast = s.grantOnce(ctx, userID, proof)
		if errLast == nil {
			log.WithFields(log.Fields{
				"user_id":  userID,
				"provider": proof.Provider,
				"plan":     sub.PlanType,
			}).Info("billing: subscription granted")
			return sub, nil
		}
		if !db.IsUniqueViolation(errLast) {
			break
		}
		log.WithFields(log.Fields{"user_id": userID, "attempt": attempt + 1}).Warn("billing: concurrent grant detected, retrying as update")
	}
	return models.Subscription{}, errLast
}

func (s *Service) grantOnce(ctx context.Context, userID uint64, proof Proof) (models.Subscription, error) {
	var out models.Subscription
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := s.now().UTC()
		plan := proof.Plan
		var current models.Subscription
		errFind := db.ForUpdate(tx).
			Where("user_id = ? AND status = ?", userID, models.SubscriptionActive).
			Take(&current).Error
		switch {
		case errFind == nil:
			if current.PlanType == models.PlanLifetimePremium && plan == models.PlanPremium {
				plan = models.PlanLifetimePremium
			}
			updates := proof.correlationUpdates()
			updates["plan_type"] = plan
			updates["status"] = models.SubscriptionActive
			updates["start_date"] = now
			updates["end_date"] = nil
			if end := EndDateFor(plan, now); end != nil {
				updates["end_date"] = *end
			}
			updates["provider"] = proof.Provider
			updates["amount"] = proof.Amount
			updates["updated_at"] = now
			if errUpdate := tx.Model(&models.Subscription{}).Where("id = ?", current.ID).Updates(updates).Error; errUpdate != nil {
				return fmt.Errorf("billing: update subscription: %w", errUpdate)
			}
			if errReload := tx.Where("id = ?", current.ID).Take(&out).Error; errReload != nil {
				return fmt.Errorf("billing: reload subscription: %w", errReload)
			}
			return nil
		case errors.Is(errFind, gorm.ErrRecordNotFound):
			created := newPaidSubscription(userID, plan, proof, now)
			if errCreate := tx.Create(&created).Error; errCreate != nil {
				return fmt.Errorf("billing: create subscription: %w", errCreate)
			}
			out = created
			return nil
		default:
			return fmt.Errorf("billing: find active subscription: %w", errFind)
		}
	})
	if errTx != nil {
		return models.Subscription{}, errTx
	}
	return out, nil
}

func newPaidSubscription(userID uint64, plan models.PlanType, proof Proof, now time.Time) models.Subscription {
	return models.Subscription{
		UserID:               userID,
		PlanType:             plan,
		Status:               models.SubscriptionActive,
		StartDate:            now,
		EndDate:              EndDateFor(plan, now),
		Provider:             proof.Provider,
		Amount:               proof.Amount,
		StripeCustomerID:     proof.StripeCustomerID,
		StripeSubscriptionID: proof.StripeSubscriptionID,
		ImpUID:               proof.ImpUID,
		ImpMerchantUID:       proof.ImpMerchantUID,
		TossOrderID:          proof.TossOrderID,
		TossPaymentKey:       proof.TossPaymentKey,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}

// Replace cancels the user's active subscription and inserts a fresh one for proof.
// An active lifetime plan is never replaced by a time-limited one.
func (s *Service) Replace(ctx context.Context, userID uint64, proof Proof) (models.Subscription, error) {
	if !proof.Verified() {
		return models.Subscription{}, ErrUnverifiedPayment
	}
	var out models.Subscription
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := s.now().UTC()
		var current models.Subscription
		errFind := db.ForUpdate(tx).
			Where("user_id = ? AND status = ?", userID, models.SubscriptionActive).
			Take(&current).Error
		if errFind != nil && !errors.Is(errFind, gorm.ErrRecordNotFound) {
			return fmt.Errorf("billing: find active subscription: %w", errFind)
		}
		if errFind == nil && current.PlanType == models.PlanLifetimePremium && proof.Plan != models.PlanLifetimePremium {
			return ErrLifetimeActive
		}
		if errCancel := tx.Model(&models.Subscription{}).
			Where("user_id = ? AND status = ?", userID, models.SubscriptionActive).
			Updates(map[string]any{
				"status":     models.SubscriptionCancelled,
				"end_date":   now,
				"updated_at": now,
			}).Error; errCancel != nil {
			return fmt.Errorf("billing: cancel previous subscription: %w", errCancel)
		}
		created := newPaidSubscription(userID, proof.Plan, proof, now)
		if errCreate := tx.Create(&created).Error; errCreate != nil {
			return fmt.Errorf("billing: create subscription: %w", errCreate)
		}
		out = created
		return nil
	})
	if errTx != nil {
		return models.Subscription{}, errTx
	}
	return out, nil
}

// Cancel ends the user's active subscription immediately.
func (s *Service) Cancel(ctx context.Context, userID uint64) (models.Subscription, error) {
	var out models.Subscription
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.Subscription
		errFind := db.ForUpdate(tx).
			Where("user_id = ? AND status = ?", userID, models.SubscriptionActive).
			Take(&current).Error
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return ErrNoActiveSubscription
		}
		if errFind != nil {
			return fmt.Errorf("billing: find active subscription: %w", errFind)
		}
		now := s.now().UTC()
		if errUpdate := tx.Model(&models.Subscription{}).Where("id = ?", current.ID).Updates(map[string]any{
			"status":     models.SubscriptionCancelled,
			"end_date":   now,
			"updated_at": now,
		}).Error; errUpdate != nil {
			return fmt.Errorf("billing: cancel subscription: %w", errUpdate)
		}
		current.Status = models.SubscriptionCancelled
		current.EndDate = &now
		current.UpdatedAt = now
		out = current
		return nil
	})
	if errTx != nil {
		return models.Subscription{}, errTx
	}
	return out, nil
}

// CancelByStripeSubscription cancels active rows correlated with a Stripe subscription.
func (s *Service) CancelByStripeSubscription(ctx context.Context, stripeSubscriptionID string) (int64, error) {
	return s.cancelWhere(ctx, "stripe_subscription_id = ?", stripeSubscriptionID)
}

// CancelByTossOrder cancels active rows correlated with a Toss order.
func (s *Service) CancelByTossOrder(ctx context.Context, orderID string) (int64, error) {
	return s.cancelWhere(ctx, "toss_order_id = ?", orderID)
}

func (s *Service) cancelWhere(ctx context.Context, query string, value string) (int64, error) {
	if value == "" {
		return 0, nil
	}
	now := s.now().UTC()
	res := s.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where(query, value).
		Where("status = ?", models.SubscriptionActive).
		Updates(map[string]any{
			"status":     models.SubscriptionCancelled,
			"end_date":   now,
			"updated_at": now,
		})
	if res.Error != nil {
		return 0, fmt.Errorf("billing: cancel subscription: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// Active returns the user's active subscription row, or nil.
func (s *Service) Active(ctx context.Context, userID uint64) (*models.Subscription, error) {
	var sub models.Subscription
	errFind := s.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, models.SubscriptionActive).
		Take(&sub).Error
	if errors.Is(errFind, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if errFind != nil {
		return nil, fmt.Errorf("billing: find active subscription: %w", errFind)
	}
	return &sub, nil
}

// Status summarizes the user's active subscription.
func (s *Service) Status(ctx context.Context, userID uint64) (Status, error) {
	sub, errActive := s.Active(ctx, userID)
	if errActive != nil {
		return Status{}, errActive
	}
	return StatusOf(sub, s.now()), nil
}

// StatusOf builds the client summary of sub at now.
func StatusOf(sub *models.Subscription, now time.Time) Status {
	if sub == nil {
		return Status{IsPremium: false, PlanType: models.PlanFree, Status: string(models.SubscriptionInactive)}
	}
	start := sub.StartDate
	return Status{
		IsPremium: isPremiumAt(sub, now),
		PlanType:  sub.PlanType,
		Status:    string(sub.Status),
		StartDate: &start,
		EndDate:   sub.EndDate,
	}
}

func isPremiumAt(sub *models.Subscription, now time.Time) bool {
	if sub == nil || sub.Status != models.SubscriptionActive || !IsPremiumPlan(sub.PlanType) {
		return false
	}
	if sub.PlanType == models.PlanLifetimePremium {
		return true
	}
	return sub.EndDate == nil || sub.EndDate.After(now)
}

// IsPremium reports whether userID currently has premium access.
func (s *Service) IsPremium(ctx context.Context, userID uint64) (bool, error) {
	status, errStatus := s.Status(ctx, userID)
	if errStatus != nil {
		return false, errStatus
	}
	return status.IsPremium, nil
}

// Refresh expires the user's lapsed subscription and returns the current status.
func (s *Service) Refresh(ctx context.Context, userID uint64) (Status, error) {
	if _, errExpire := s.expire(ctx, s.db.WithContext(ctx).Where("user_id = ?", userID)); errExpire != nil {
		return Status{}, errExpire
	}
	return s.Status(ctx, userID)
}

// ExpireDue marks every lapsed time-limited subscription inactive.
func (s *Service) ExpireDue(ctx context.Context) (int64, error) {
	return s.expire(ctx, s.db.WithContext(ctx))
}

func (s *Service) expire(ctx context.Context, scope *gorm.DB) (int64, error) {
	now := s.now().UTC()
	res := scope.
		Model(&models.Subscription{}).
		Where("status = ? AND plan_type = ?", models.SubscriptionActive, models.PlanPremium).
		Where("end_date IS NOT NULL AND end_date < ?", now).
		Updates(map[string]any{
			"status":     models.SubscriptionInactive,
			"updated_at": now,
		})
	if res.Error != nil {
		return 0, fmt.Errorf("billing: expire subscriptions: %w", res.Error)
	}
	return res.RowsAffected, nil
}
