package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// QuoteExpirer is satisfied by service.QuoteService.
type QuoteExpirer interface {
	ExpireDue(ctx context.Context, now time.Time) (int, error)
}

// RunQuoteExpiry calls ExpireDue every interval until ctx is cancelled.
func RunQuoteExpiry(ctx context.Context, expirer QuoteExpirer, interval time.Duration, logger *zap.Logger) {
	if expirer == nil || interval <= 0 {
		return
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case tick := <-ticker.C:
			n, err := expirer.ExpireDue(ctx, tick.UTC())
			if err != nil {
				logger.Error("quote expiry run failed", zap.Error(err))
				continue
			}
			if n > 0 {
				logger.Info("quotes expired", zap.Int("count", n))
			}
		}
	}
}
