package service

import (
	"context"
	"errors"
	"time"

	bookingserrors "staybook/internal/bookings/errors"
	"staybook/internal/bookings/events"
	"staybook/internal/bookings/repository"
	"staybook/pkg/config"
	apperrors "staybook/pkg/errors"
	"staybook/pkg/logger"
	"staybook/pkg/metrics"
	"staybook/pkg/model"

	"github.com/google/uuid"
)

// SweepResult counts what one reconciliation pass did.
type SweepResult struct {
	Released  int
	Drifted   int
	Waiting   int
	Failed    int
	Confirmed int
	Cancelled int
}

// Reconciler settles bookings the saga could not finish cleanly: cancelled
// bookings whose compensating release failed or found nothing to release,
// and PENDING bookings left behind by a crash.
type Reconciler struct {
	repo      repository.BookingRepository
	remote    Reservations
	publisher events.Publisher
	metrics   *metrics.Metrics
	cfg       *config.Config
	now       func() time.Time
}

func NewReconciler(
	repo repository.BookingRepository,
	remote Reservations,
	publisher events.Publisher,
	m *metrics.Metrics,
	cfg *config.Config,
) *Reconciler {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Reconciler{
		repo:      repo,
		remote:    remote,
		publisher: publisher,
		metrics:   m,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Run sweeps every ReconcileInterval until ctx is cancelled.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.ReconcileInterval)
	defer ticker.Stop()

	r.cfg.Log.Info("Reconciler started",
		"interval", r.cfg.ReconcileInterval,
		"stale_pending_after", r.cfg.StalePendingAfter,
	)

	for {
		select {
		case <-ctx.Done():
			r.cfg.Log.Info("Reconciler stopped")
			return
		case <-ticker.C:
			result, err := r.Sweep(ctx)
			if err != nil {
				r.cfg.Log.Error("Reconciliation sweep failed", "error", err)
				continue
			}
			if result != (SweepResult{}) {
				r.cfg.Log.Info("Reconciliation sweep finished",
					"released", result.Released,
					"drifted", result.Drifted,
					"waiting", result.Waiting,
					"failed", result.Failed,
					"confirmed", result.Confirmed,
					"cancelled", result.Cancelled,
				)
			}
		}
	}
}

func (r *Reconciler) Sweep(ctx context.Context) (SweepResult, error) {
	var result SweepResult

	pending, err := r.repo.FindCompensationPending(ctx, r.cfg.ReconcileBatch)
	if err != nil {
		return result, err
	}
	for _, b := range pending {
		r.retryCompensation(ctx, b, &result)
	}

	cutoff := r.now().UTC().Add(-r.cfg.StalePendingAfter)
	stale, err := r.repo.FindStalePending(ctx, cutoff, r.cfg.ReconcileBatch)
	if err != nil {
		return result, err
	}
	for _, b := range stale {
		r.settleStale(ctx, b, &result)
	}

	return result, nil
}

// retryCompensation releases again for a cancelled booking. A NotFound
// clears the flag only once the booking is older than StalePendingAfter,
// which exceeds the saga budget, so a hold still in flight has landed by then.
func (r *Reconciler) retryCompensation(ctx context.Context, b *model.Booking, result *SweepResult) {
	correlationID := uuid.New().String()
	log := r.cfg.Log.WithSaga(b.RequestID, correlationID).With(logger.KeyBookingID, b.ID)
	lock, err := r.remote.Release(ctx, correlationID, b.RequestID)
	if err != nil && !apperrors.HasCode(err, apperrors.CodeNotFound) {
		result.Failed++
		r.metrics.Reconciled(metrics.ReconcileFailed)
		log.Warn("Compensation retry failed", "error", err)
		return
	}
	if err != nil && b.UpdatedAt.After(r.now().UTC().Add(-r.cfg.StalePendingAfter)) {
		result.Waiting++
		log.Debug("No hold found yet, re-checking on a later sweep")
		return
	}

	if lock != nil && lock.Status == model.LockConfirmed {
		// Release cannot undo a confirm; the room stays booked while the
		// booking says CANCELLED.
		result.Drifted++
		r.metrics.Reconciled(metrics.ReconcileDrift)
		log.Error("Cancelled booking has a confirmed reservation, manual correction required",
			logger.KeyRoomID, b.RoomID,
			"saga_correlation_id", b.CorrelationID,
		)
	} else {
		result.Released++
		r.metrics.Reconciled(metrics.ReconcileReleased)
	}

	if err := r.repo.ClearCompensationPending(ctx, b.ID); err != nil {
		log.Error("Failed to clear compensation flag", "error", err)
	}
}

// settleStale drives a PENDING booking to a terminal state. The release
// either frees a hold or reports that the confirm already won.
func (r *Reconciler) settleStale(ctx context.Context, b *model.Booking, result *SweepResult) {
	correlationID := uuid.New().String()
	log := r.cfg.Log.WithSaga(b.RequestID, correlationID).With(logger.KeyBookingID, b.ID)
	lock, err := r.remote.Release(ctx, correlationID, b.RequestID)
	if err != nil && !apperrors.HasCode(err, apperrors.CodeNotFound) {
		result.Failed++
		r.metrics.Reconciled(metrics.ReconcileFailed)
		log.Warn("Failed to settle stale pending booking", "error", err)
		return
	}

	t := repository.Transition{From: model.BookingPending, To: model.BookingCancelled}
	eventType := events.BookingCancelled
	outcome := metrics.ReconcileCancelled
	if lock != nil && lock.Status == model.LockConfirmed {
		t.To = model.BookingConfirmed
		eventType = events.BookingConfirmed
		outcome = metrics.ReconcileConfirmed
	}

	updated, err := r.repo.Transition(ctx, b.ID, t)
	if errors.Is(err, bookingserrors.ErrTransitionLost) {
		// The saga finished it in the meantime.
		return
	}
	if err != nil {
		result.Failed++
		r.metrics.Reconciled(metrics.ReconcileFailed)
		log.Error("Failed to settle stale pending booking", "error", err)
		return
	}

	if updated.Status == model.BookingConfirmed {
		result.Confirmed++
	} else {
		result.Cancelled++
	}
	r.metrics.Reconciled(outcome)
	log.Info("Stale pending booking settled", "status", updated.Status)

	if err := r.publisher.Publish(ctx, eventType, updated); err != nil {
		log.Warn("Failed to publish booking event", "event_type", eventType, "error", err)
	}
}
