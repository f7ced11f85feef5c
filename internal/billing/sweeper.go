package billing

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

const defaultSweepInterval = 10 * time.Minute

// Sweeper periodically marks lapsed premium subscriptions inactive.
type Sweeper struct {
	service  *Service
	interval time.Duration
}

// NewSweeper constructs an expiry sweeper for service.
func NewSweeper(service *Service, interval time.Duration) *Sweeper {
	if service == nil {
		return nil
	}
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	return &Sweeper{service: service, interval: interval}
}

// Start runs the sweep loop in the background until ctx is done.
func (s *Sweeper) Start(ctx context.Context) {
	if s == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	go s.run(ctx)
	log.Infof("subscription sweeper started (interval=%s)", s.interval)
}

func (s *Sweeper) run(ctx context.Context) {
	if _, err := s.SweepOnce(ctx); err != nil {
		log.WithError(err).Warn("subscription sweeper: initial sweep failed")
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx); err != nil {
				log.WithError(err).Warn("subscription sweeper: sweep failed")
			}
		}
	}
}

// SweepOnce expires every lapsed subscription and returns how many changed.
func (s *Sweeper) SweepOnce(ctx context.Context) (int64, error) {
	if s == nil || s.service == nil {
		return 0, fmt.Errorf("subscription sweeper: nil service")
	}
	n, err := s.service.ExpireDue(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		log.WithField("expired", n).Info("subscription sweeper: expired subscriptions")
	}
	return n, nil
}
