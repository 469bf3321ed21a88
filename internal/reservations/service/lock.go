package service

import (
	"context"
	"errors"
	"net/http"
	"time"

	reservationserrors "staybook/internal/reservations/errors"
	"staybook/internal/reservations/repository"
	"staybook/internal/reservations/validator"
	"staybook/pkg/config"
	apperrors "staybook/pkg/errors"
	"staybook/pkg/logger"
	"staybook/pkg/metrics"
	"staybook/pkg/model"
)

// LockService is the holder side of the booking saga. Every operation is
// idempotent per request_id.
type LockService interface {
	Hold(ctx context.Context, requestID string, roomID int64, start, end time.Time) (*model.ReservationLock, error)
	Confirm(ctx context.Context, requestID string) (*model.ReservationLock, error)
	Release(ctx context.Context, requestID string) (*model.ReservationLock, error)
	Get(ctx context.Context, requestID string) (*model.ReservationLock, error)
}

type lockService struct {
	locks     repository.LockRepository
	guards    repository.RoomGuardRepository
	rooms     repository.RoomRepository
	validator *validator.LockValidator
	metrics   *metrics.Metrics
	cfg       *config.Config
}

func NewLockService(
	locks repository.LockRepository,
	guards repository.RoomGuardRepository,
	rooms repository.RoomRepository,
	validator *validator.LockValidator,
	m *metrics.Metrics,
	cfg *config.Config,
) LockService {
	return &lockService{
		locks:     locks,
		guards:    guards,
		rooms:     rooms,
		validator: validator,
		metrics:   m,
		cfg:       cfg,
	}
}

func (s *lockService) Hold(ctx context.Context, requestID string, roomID int64, start, end time.Time) (*model.ReservationLock, error) {
	candidate := &model.ReservationLock{
		RequestID: requestID,
		RoomID:    roomID,
		StartDate: start.UTC(),
		EndDate:   end.UTC(),
		Status:    model.LockHeld,
	}
	var result *model.ReservationLock
	var created bool
	err := s.locks.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		result, created = nil, false

		// A replay returns the stored lock whatever its payload says.
		existing, err := s.locks.FindByRequestID(txCtx, requestID)
		if err == nil {
			result = existing
			return nil
		}
		if !errors.Is(err, reservationserrors.ErrNotFound) {
			return apperrors.Internal("Failed to look up reservation lock", err)
		}

		if err := s.validate(candidate); err != nil {
			return err
		}

		if err := s.guards.Touch(txCtx, roomID); err != nil {
			return apperrors.Internal("Failed to acquire room guard", err)
		}

		conflicts, err := s.locks.FindOverlapping(txCtx, roomID, candidate.StartDate, candidate.EndDate)
		if err != nil {
			return apperrors.Internal("Failed to check room availability", err)
		}
		if len(conflicts) > 0 {
			return apperrors.DateConflict("Room is not available for the requested dates").WithDetails(map[string]any{
				"room_id":        roomID,
				"conflicting_id": conflicts[0].RequestID,
			})
		}

		lock := *candidate
		if err := s.locks.Create(txCtx, &lock); err != nil {
			return err
		}
		result, created = &lock, true
		return nil
	})

	if errors.Is(err, reservationserrors.ErrDuplicateRequest) {
		// A concurrent hold with the same request_id committed first.
		return s.Get(ctx, requestID)
	}
	if err != nil {
		if apperrors.HasCode(err, apperrors.CodeDateConflict) {
			s.cfg.Log.Info("Hold rejected, dates overlap an active lock",
				logger.KeyRequestID, requestID,
				logger.KeyRoomID, roomID,
			)
			return nil, err
		}
		s.logFailure("hold", requestID, err)
		if apperrors.IsAppError(err) {
			return nil, err
		}
		return nil, apperrors.Internal("Failed to hold room", err)
	}

	if created {
		s.metrics.LockTransition(model.LockHeld)
		s.cfg.Log.Info("Room held",
			logger.KeyRequestID, result.RequestID,
			logger.KeyRoomID, result.RoomID,
			"start_date", result.StartDate,
			"end_date", result.EndDate,
		)
	}
	return result, nil
}

func (s *lockService) Confirm(ctx context.Context, requestID string) (*model.ReservationLock, error) {
	if err := s.validateRequestID(requestID); err != nil {
		return nil, err
	}

	var result *model.ReservationLock
	var transitioned bool
	err := s.locks.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		result, transitioned = nil, false

		lock, err := s.findLock(txCtx, requestID)
		if err != nil {
			return err
		}

		switch lock.Status {
		case model.LockConfirmed:
			result = lock
			return nil
		case model.LockReleased:
			return apperrors.InvalidState("Hold has already been released", http.StatusUnprocessableEntity)
		}

		confirmed, err := s.locks.Transition(txCtx, requestID, model.LockHeld, model.LockConfirmed)
		if err != nil {
			if errors.Is(err, reservationserrors.ErrTransitionLost) {
				return s.resolveLostTransition(txCtx, requestID, model.LockConfirmed, &result)
			}
			return apperrors.Internal("Failed to confirm hold", err)
		}

		if err := s.rooms.IncrementTimesBooked(txCtx, confirmed.RoomID); err != nil {
			return apperrors.Internal("Failed to update room popularity", err)
		}
		result, transitioned = confirmed, true
		return nil
	})
	if err != nil {
		s.logFailure("confirm", requestID, err)
		return nil, err
	}

	if transitioned {
		s.metrics.LockTransition(model.LockConfirmed)
		s.cfg.Log.Info("Hold confirmed", logger.KeyRequestID, requestID, logger.KeyRoomID, result.RoomID)
	}
	return result, nil
}

func (s *lockService) Release(ctx context.Context, requestID string) (*model.ReservationLock, error) {
	if err := s.validateRequestID(requestID); err != nil {
		return nil, err
	}

	var result *model.ReservationLock
	var transitioned bool
	err := s.locks.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		result, transitioned = nil, false

		lock, err := s.findLock(txCtx, requestID)
		if err != nil {
			return err
		}

		// Releasing a confirmed lock is a no-op; the stay stands.
		if lock.Status == model.LockReleased || lock.Status == model.LockConfirmed {
			result = lock
			return nil
		}

		released, err := s.locks.Transition(txCtx, requestID, model.LockHeld, model.LockReleased)
		if err != nil {
			if errors.Is(err, reservationserrors.ErrTransitionLost) {
				return s.resolveLostTransition(txCtx, requestID, model.LockReleased, &result)
			}
			return apperrors.Internal("Failed to release hold", err)
		}
		result, transitioned = released, true
		return nil
	})
	if err != nil {
		s.logFailure("release", requestID, err)
		return nil, err
	}

	if transitioned {
		s.metrics.LockTransition(model.LockReleased)
		s.cfg.Log.Info("Hold released", logger.KeyRequestID, requestID, logger.KeyRoomID, result.RoomID)
	}
	return result, nil
}

func (s *lockService) Get(ctx context.Context, requestID string) (*model.ReservationLock, error) {
	if err := s.validateRequestID(requestID); err != nil {
		return nil, err
	}
	return s.findLock(ctx, requestID)
}

// resolveLostTransition handles a compare-and-set that matched nothing: the
// lock moved on between read and write, so the current state decides.
func (s *lockService) resolveLostTransition(ctx context.Context, requestID, target string, result **model.ReservationLock) error {
	current, err := s.findLock(ctx, requestID)
	if err != nil {
		return err
	}

	switch {
	case current.Status == target:
		*result = current
		return nil
	case target == model.LockReleased && current.Status == model.LockConfirmed:
		*result = current
		return nil
	case target == model.LockConfirmed && current.Status == model.LockReleased:
		return apperrors.InvalidState("Hold has already been released", http.StatusUnprocessableEntity)
	}
	return apperrors.Internal("Reservation lock in unexpected state", errors.New(current.Status))
}

func (s *lockService) findLock(ctx context.Context, requestID string) (*model.ReservationLock, error) {
	lock, err := s.locks.FindByRequestID(ctx, requestID)
	if err != nil {
		if errors.Is(err, reservationserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Reservation", requestID)
		}
		return nil, apperrors.Internal("Failed to retrieve reservation lock", err)
	}
	return lock, nil
}

func (s *lockService) validate(lock *model.ReservationLock) error {
	if err := s.validator.Validate(lock); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return apperrors.InvalidInput(validationErrs.Error()).WithDetails(validationErrs.Details())
		}
		return apperrors.InvalidInput(err.Error())
	}
	return nil
}

func (s *lockService) validateRequestID(requestID string) error {
	if err := s.validator.ValidateRequestID(requestID); err != nil {
		return apperrors.InvalidInput(err.Error())
	}
	return nil
}

func (s *lockService) logFailure(op, requestID string, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.HTTPStatus < http.StatusInternalServerError {
		s.cfg.Log.Info("Reservation request rejected", "operation", op, logger.KeyRequestID, requestID, "code", appErr.Code)
		return
	}
	s.cfg.Log.Error("Reservation request failed", "operation", op, logger.KeyRequestID, requestID, "error", err)
}
