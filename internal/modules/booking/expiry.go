package booking

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// ExpiryRunner periodically times out ride requests that never got a
// driver response. One instance per process.
type ExpiryRunner struct {
	service  *Service
	interval time.Duration
	log      *zap.Logger
}

func NewExpiryRunner(service *Service, interval time.Duration, log *zap.Logger) *ExpiryRunner {
	return &ExpiryRunner{
		service:  service,
		interval: interval,
		log:      log.With(zap.String("service", "booking_expiry")),
	}
}

// Run blocks until the context is cancelled.
func (r *ExpiryRunner) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := r.service.ExpireStaleRequests(ctx)
			if err != nil {
				r.log.Error("expiry sweep failed", zap.Error(err))
				continue
			}
			if n > 0 {
				r.log.Info("expired stale ride requests", zap.Int("count", n))
			}
		}
	}
}
