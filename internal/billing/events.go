package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/onelinediary/server/internal/models"
	log "github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrPaymentAlreadyUsed indicates a provider payment was already applied to another user.
	ErrPaymentAlreadyUsed = errors.New("payment already applied to another account")
	// ErrPaymentConsumed indicates a replayed payment whose subscription is no longer active.
	ErrPaymentConsumed = errors.New("payment already applied")
)

// Event identifies one provider notification or payment confirmation.
type Event struct {
	Provider string
	Key      string
	Type     string
	UserID   *uint64
	Payload  []byte
}

// ProcessEvent records ev and runs apply in the same transaction. A duplicate
// (provider, key) reports processed=false without calling apply. When apply
// fails the record is rolled back so a redelivery is retried.
func (s *Service) ProcessEvent(ctx context.Context, ev Event, apply func(*Service) error) (bool, error) {
	provider := strings.TrimSpace(ev.Provider)
	key := strings.TrimSpace(ev.Key)
	if provider == "" || key == "" {
		return false, fmt.Errorf("billing: process event: missing provider or key")
	}
	processed := false
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := models.PaymentEvent{
			Provider:    provider,
			EventKey:    key,
			EventType:   ev.Type,
			UserID:      ev.UserID,
			ProcessedAt: s.now().UTC(),
		}
		if len(ev.Payload) > 0 {
			row.Payload = datatypes.JSON(ev.Payload)
		}
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "provider"}, {Name: "event_key"}},
			DoNothing: true,
		}).Create(&row)
		if res.Error != nil {
			return fmt.Errorf("billing: record event: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return checkEventOwner(tx, provider, key, ev.UserID)
		}
		processed = true
		if apply == nil {
			return nil
		}
		return apply(s.WithDB(tx))
	})
	if errTx != nil {
		return false, errTx
	}
	if !processed {
		log.WithFields(log.Fields{"provider": provider, "key": key}).Info("billing: duplicate event skipped")
	}
	return processed, nil
}

func checkEventOwner(tx *gorm.DB, provider, key string, userID *uint64) error {
	if userID == nil {
		return nil
	}
	var existing models.PaymentEvent
	if errFind := tx.Where("provider = ? AND event_key = ?", provider, key).Take(&existing).Error; errFind != nil {
		return fmt.Errorf("billing: load event: %w", errFind)
	}
	if existing.UserID != nil && *existing.UserID != *userID {
		return ErrPaymentAlreadyUsed
	}
	return nil
}

// GrantForEvent grants proof to ev.UserID once per event key. A replayed key
// returns the user's current active subscription, or ErrPaymentConsumed when
// that subscription has since ended. With replace the existing
// subscription is cancelled and a new row is started.
func (s *Service) GrantForEvent(ctx context.Context, ev Event, proof Proof, replace bool) (models.Subscription, error) {
	if ev.UserID == nil {
		return models.Subscription{}, fmt.Errorf("billing: grant for event: missing user")
	}
	userID := *ev.UserID
	var sub models.Subscription
	processed, errProcess := s.ProcessEvent(ctx, ev, func(tx *Service) error {
		var errGrant error
		if replace {
			sub, errGrant = tx.Replace(ctx, userID, proof)
		} else {
			sub, errGrant = tx.Grant(ctx, userID, proof)
		}
		return errGrant
	})
	if errProcess != nil {
		return models.Subscription{}, errProcess
	}
	if processed {
		return sub, nil
	}
	active, errActive := s.Active(ctx, userID)
	if errActive != nil {
		return models.Subscription{}, errActive
	}
	if active == nil {
		return models.Subscription{}, ErrPaymentConsumed
	}
	return *active, nil
}
