package jobs

import (
	"context"

	"rentflow-backend/internal/logger"
)

// ExpireBookings expires PENDING bookings whose start date passed more than
// booking.expire_after ago.
func (jr *JobRunner) ExpireBookings() {
	jr.runWithRecovery("ExpireBookings", func(ctx context.Context) {
		cfg := jr.config.Booking
		cutoff := jr.now().UTC().Add(-cfg.ExpireAfter)

		count, err := jr.services.Booking.ExpirePendingBookings(ctx, cutoff, cfg.ExpireBatchSize)
		if err != nil {
			logger.Error("Failed to expire pending bookings", "cutoff", cutoff, "error", err)
			return
		}
		logger.Info("Expired pending bookings", "count", count, "cutoff", cutoff)
	})
}
