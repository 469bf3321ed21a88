package service

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	bookingserrors "staybook/internal/bookings/errors"
	"staybook/internal/bookings/events"
	"staybook/internal/bookings/repository"
	"staybook/internal/bookings/validator"
	"staybook/pkg/config"
	apperrors "staybook/pkg/errors"
	"staybook/pkg/logger"
	"staybook/pkg/metrics"
	"staybook/pkg/model"

	"github.com/google/uuid"
)

// Reservations is the remote holder as seen by the saga. Implemented by
// *client.ReservationClient.
type Reservations interface {
	RoomSource
	Hold(ctx context.Context, correlationID, requestID string, roomID int64, start, end string) (*model.ReservationLock, error)
	Confirm(ctx context.Context, correlationID, requestID string) (*model.ReservationLock, error)
	Release(ctx context.Context, correlationID, requestID string) (*model.ReservationLock, error)
}

type BookingService interface {
	Create(ctx context.Context, input *model.CreateBookingInput) (*model.Booking, error)
	Cancel(ctx context.Context, id string, requester model.Requester) (*model.Booking, error)
	Get(ctx context.Context, id string, requester model.Requester) (*model.Booking, error)
	List(ctx context.Context, requester model.Requester) ([]*model.Booking, error)
	ListAll(ctx context.Context, requester model.Requester, limit int, offset int64) ([]*model.Booking, int64, error)
}

type bookingService struct {
	repo      repository.BookingRepository
	remote    Reservations
	selector  *RoomSelector
	publisher events.Publisher
	validator *validator.BookingValidator
	metrics   *metrics.Metrics
	cfg       *config.Config
}

func NewBookingService(
	repo repository.BookingRepository,
	remote Reservations,
	publisher events.Publisher,
	validator *validator.BookingValidator,
	m *metrics.Metrics,
	cfg *config.Config,
) BookingService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &bookingService{
		repo:      repo,
		remote:    remote,
		selector:  NewRoomSelector(remote, cfg.Log),
		publisher: publisher,
		validator: validator,
		metrics:   m,
		cfg:       cfg,
	}
}

// Create runs the booking saga at most once per request_id and returns the
// booking in a terminal state.
func (s *bookingService) Create(ctx context.Context, input *model.CreateBookingInput) (*model.Booking, error) {
	if err := s.validateInput(input); err != nil {
		s.metrics.SagaOutcome(metrics.SagaRejected)
		return nil, err
	}

	existing, err := s.repo.FindByRequestID(ctx, input.RequestID)
	if err == nil {
		return s.idempotentHit(existing, input.RequesterID)
	}
	if !errors.Is(err, bookingserrors.ErrNotFound) {
		s.cfg.Log.Error("Failed to look up booking by request id", logger.KeyRequestID, input.RequestID, "error", err)
		return nil, apperrors.Internal("Failed to create booking", err)
	}

	correlationID := uuid.New().String()
	log := s.cfg.Log.WithSaga(input.RequestID, correlationID)
	// Past this point the saga must reach a terminal state even if the
	// caller goes away.
	sagaCtx := context.WithoutCancel(ctx)

	var roomID int64
	if input.RoomID != nil {
		roomID = *input.RoomID
	}
	if input.AutoSelect {
		room, err := s.selector.Select(sagaCtx, correlationID)
		if err != nil {
			s.metrics.SagaOutcome(metrics.SagaRejected)
			return nil, err
		}
		roomID = room.ID
	}

	booking := &model.Booking{
		RequestID:     input.RequestID,
		RequesterID:   input.RequesterID,
		RoomID:        roomID,
		StartDate:     input.StartDate.UTC(),
		EndDate:       input.EndDate.UTC(),
		Status:        model.BookingPending,
		CorrelationID: correlationID,
	}
	if err := s.validate(booking); err != nil {
		s.metrics.SagaOutcome(metrics.SagaRejected)
		return nil, err
	}

	if err := s.repo.Create(sagaCtx, booking); err != nil {
		if errors.Is(err, bookingserrors.ErrDuplicateRequest) {
			// A concurrent create with the same request_id won the insert.
			winner, findErr := s.repo.FindByRequestID(sagaCtx, input.RequestID)
			if findErr != nil {
				return nil, apperrors.Internal("Failed to create booking", findErr)
			}
			return s.idempotentHit(winner, input.RequesterID)
		}
		log.Error("Failed to persist pending booking", "error", err)
		return nil, apperrors.Internal("Failed to create booking", err)
	}

	log.Info("Booking saga started",
		logger.KeyBookingID, booking.ID,
		logger.KeyRoomID, booking.RoomID,
		"auto_select", input.AutoSelect,
	)

	return s.runSaga(sagaCtx, booking)
}

func (s *bookingService) runSaga(ctx context.Context, booking *model.Booking) (*model.Booking, error) {
	log := s.cfg.Log.WithSaga(booking.RequestID, booking.CorrelationID).With(logger.KeyBookingID, booking.ID)
	start := booking.StartDate.Format(time.DateOnly)
	end := booking.EndDate.Format(time.DateOnly)

	_, sagaErr := s.remote.Hold(ctx, booking.CorrelationID, booking.RequestID, booking.RoomID, start, end)
	failedStep := "hold"
	if sagaErr == nil {
		_, sagaErr = s.remote.Confirm(ctx, booking.CorrelationID, booking.RequestID)
		failedStep = "confirm"
	}

	if sagaErr == nil {
		confirmed, err := s.finish(ctx, booking, repository.Transition{
			From: model.BookingPending,
			To:   model.BookingConfirmed,
		})
		if err != nil {
			return nil, err
		}
		s.metrics.SagaOutcome(metrics.SagaConfirmed)
		log.Info("Booking confirmed", logger.KeyRoomID, confirmed.RoomID)
		return confirmed, nil
	}

	log.Warn("Booking saga step failed, compensating", "step", failedStep, "error", sagaErr)

	// A hold that failed without a holder verdict may still land after the
	// release, so a NotFound then proves nothing.
	holdUncertain := failedStep == "hold" && apperrors.HasCode(sagaErr, apperrors.CodeRemoteFailure)
	released := s.compensate(ctx, log, booking, holdUncertain)
	cancelled, err := s.finish(ctx, booking, repository.Transition{
		From:                model.BookingPending,
		To:                  model.BookingCancelled,
		CompensationPending: !released,
	})
	if err != nil {
		return nil, err
	}
	s.metrics.SagaOutcome(metrics.SagaCancelled)
	log.Info("Booking cancelled", "compensation_pending", cancelled.CompensationPending)
	return cancelled, nil
}

// finish applies the terminal transition and announces it. When the
// transition is lost, the record was already finished elsewhere and its
// current state is returned.
func (s *bookingService) finish(ctx context.Context, booking *model.Booking, t repository.Transition) (*model.Booking, error) {
	updated, err := s.repo.Transition(ctx, booking.ID, t)
	if errors.Is(err, bookingserrors.ErrTransitionLost) {
		current, findErr := s.repo.FindByID(ctx, booking.ID)
		if findErr != nil {
			return nil, apperrors.Internal("Failed to finish booking", findErr)
		}
		return current, nil
	}
	if err != nil {
		s.cfg.Log.WithSaga(booking.RequestID, booking.CorrelationID).Error("Failed to persist booking outcome",
			logger.KeyBookingID, booking.ID,
			"status", t.To,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to finish booking", err)
	}

	eventType := events.BookingConfirmed
	if updated.Status == model.BookingCancelled {
		eventType = events.BookingCancelled
	}
	s.publish(ctx, eventType, updated)
	return updated, nil
}

// compensate releases the hold and reports whether the holder acknowledged.
// A NotFound answer settles the booking only when the hold is known not to
// be in flight; otherwise the reconciler re-checks it later.
func (s *bookingService) compensate(ctx context.Context, log *logger.Logger, booking *model.Booking, holdUncertain bool) bool {
	_, err := s.remote.Release(ctx, booking.CorrelationID, booking.RequestID)
	if err == nil {
		return true
	}
	if apperrors.HasCode(err, apperrors.CodeNotFound) {
		if holdUncertain {
			log.Info("No hold to release yet, leaving booking for reconciliation")
			return false
		}
		return true
	}

	s.metrics.CompensationFailed()
	log.Error("Compensating release failed", "error", err)
	return false
}

func (s *bookingService) idempotentHit(existing *model.Booking, requesterID string) (*model.Booking, error) {
	if existing.RequesterID != requesterID {
		return nil, apperrors.Forbidden("request_id belongs to another requester")
	}
	s.metrics.SagaOutcome(metrics.SagaIdempotent)
	s.cfg.Log.WithSaga(existing.RequestID, existing.CorrelationID).Info("Booking already exists for request",
		logger.KeyBookingID, existing.ID,
		"status", existing.Status,
	)
	return existing, nil
}

// Cancel moves a confirmed booking to CANCELLED after a best-effort release.
func (s *bookingService) Cancel(ctx context.Context, id string, requester model.Requester) (*model.Booking, error) {
	booking, err := s.Get(ctx, id, requester)
	if err != nil {
		return nil, err
	}
	if booking.Status != model.BookingConfirmed {
		return nil, apperrors.InvalidState("Only confirmed bookings can be cancelled", http.StatusConflict).WithDetails(map[string]any{
			"status": booking.Status,
		})
	}

	ctx = context.WithoutCancel(ctx)
	correlationID := uuid.New().String()
	log := s.cfg.Log.WithSaga(booking.RequestID, correlationID).With(logger.KeyBookingID, booking.ID)
	if _, err := s.remote.Release(ctx, correlationID, booking.RequestID); err != nil {
		log.Warn("Release on cancel failed", "error", err)
	}

	cancelled, err := s.repo.Transition(ctx, booking.ID, repository.Transition{
		From: model.BookingConfirmed,
		To:   model.BookingCancelled,
	})
	if errors.Is(err, bookingserrors.ErrTransitionLost) {
		return nil, apperrors.InvalidState("Booking was cancelled concurrently", http.StatusConflict)
	}
	if err != nil {
		log.Error("Failed to cancel booking", "error", err)
		return nil, apperrors.Internal("Failed to cancel booking", err)
	}

	s.publish(ctx, events.BookingCancelled, cancelled)
	log.Info("Booking cancelled by requester", "requester_id", requester.ID)
	return cancelled, nil
}

func (s *bookingService) Get(ctx context.Context, id string, requester model.Requester) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) || errors.Is(err, bookingserrors.ErrInvalidID) {
			return nil, apperrors.NotFoundWithID("Booking", id)
		}
		return nil, apperrors.Internal("Failed to retrieve booking", err)
	}

	if !requester.CanAccess(booking) {
		return nil, apperrors.Forbidden("Booking belongs to another requester")
	}
	return booking, nil
}

func (s *bookingService) List(ctx context.Context, requester model.Requester) ([]*model.Booking, error) {
	bookings, err := s.repo.FindByRequester(ctx, requester.ID)
	if err != nil {
		s.cfg.Log.Error("Failed to list bookings", "requester_id", requester.ID, "error", err)
		return nil, apperrors.Internal("Failed to retrieve bookings", err)
	}
	return bookings, nil
}

func (s *bookingService) ListAll(ctx context.Context, requester model.Requester, limit int, offset int64) ([]*model.Booking, int64, error) {
	if !requester.Admin {
		return nil, 0, apperrors.Forbidden("Listing all bookings requires the ADMIN scope")
	}

	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count bookings", "error", errCount)
			errCount = apperrors.Internal("Failed to count bookings", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		bookings, errFind = s.repo.FindAll(ctx, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list bookings", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve bookings", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return bookings, count, nil
}

func (s *bookingService) publish(ctx context.Context, eventType string, booking *model.Booking) {
	if err := s.publisher.Publish(ctx, eventType, booking); err != nil {
		s.cfg.Log.WithSaga(booking.RequestID, booking.CorrelationID).Warn("Failed to publish booking event",
			"event_type", eventType,
			logger.KeyBookingID, booking.ID,
			"error", err,
		)
	}
}

func (s *bookingService) validateInput(input *model.CreateBookingInput) error {
	if err := s.validator.ValidateInput(input); err != nil {
		return toAppError(err)
	}
	return nil
}

func (s *bookingService) validate(booking *model.Booking) error {
	if err := s.validator.Validate(booking); err != nil {
		return toAppError(err)
	}
	return nil
}

func toAppError(err error) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		return apperrors.InvalidInput(validationErrs.Error()).WithDetails(validationErrs.Details())
	}
	return apperrors.InvalidInput(err.Error())
}
