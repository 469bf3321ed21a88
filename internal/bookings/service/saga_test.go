package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"staybook/internal/bookings/validator"
	"staybook/internal/reservations/handler"
	"staybook/internal/reservations/reservationstest"
	reservationsservice "staybook/internal/reservations/service"
	reservationsvalidator "staybook/internal/reservations/validator"
	"staybook/pkg/client"
	"staybook/pkg/model"
	"staybook/pkg/retry"

	"github.com/julienschmidt/httprouter"
)

// sagaHarness runs the booking service against a real reservations service
// served over HTTP from an in-memory store.
type sagaHarness struct {
	store *reservationstest.Store
	repo  *memBookingRepo
	pub   *mockPublisher
	svc   BookingService
}

// newSagaHarness wraps the reservations routes in wrap, when given, so a
// test can fail individual endpoints.
func newSagaHarness(t *testing.T, wrap func(http.Handler) http.Handler, rooms ...*model.Room) *sagaHarness {
	t.Helper()
	cfg := testConfig()

	store := reservationstest.NewStore(rooms...)
	locks := reservationsservice.NewLockService(
		store.Locks(),
		store.Guards(),
		store.Rooms(),
		reservationsvalidator.NewLockValidator(cfg.Log),
		nil,
		cfg,
	)
	router := httprouter.New()
	handler.NewReservationHandler(locks, reservationsservice.NewRoomService(store.Rooms(), cfg), cfg.Log).RegisterRoutes(router)

	var h http.Handler = router
	if wrap != nil {
		h = wrap(h)
	}
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)

	policy := retry.Policy{Timeout: time.Second, MaxAttempts: 2, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
	remote := client.NewReservationClient(server.URL, policy, nil, cfg.Log)

	repo := newMemBookingRepo()
	pub := &mockPublisher{}
	return &sagaHarness{
		store: store,
		repo:  repo,
		pub:   pub,
		svc:   NewBookingService(repo, remote, pub, validator.NewBookingValidator(cfg.Log), nil, cfg),
	}
}

func bookingInput(requestID string, roomID int64, start, end int) *model.CreateBookingInput {
	return &model.CreateBookingInput{
		RequestID:   requestID,
		RequesterID: "user-1",
		RoomID:      roomPtr(roomID),
		StartDate:   day(start),
		EndDate:     day(end),
	}
}

func TestSaga_ConfirmsAgainstReservationsService(t *testing.T) {
	h := newSagaHarness(t, nil, &model.Room{ID: 10, Number: "110", Available: true, TimesBooked: 2})

	booking, err := h.svc.Create(context.Background(), bookingInput("req-1", 10, 1, 3))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if booking.Status != model.BookingConfirmed || booking.CompensationPending {
		t.Fatalf("booking = %+v", booking)
	}

	if got := h.store.CountByStatus(model.LockConfirmed); got != 1 {
		t.Errorf("confirmed locks = %d, want 1", got)
	}
	if h.store.LockCount() != 1 {
		t.Errorf("locks = %d, want 1", h.store.LockCount())
	}
	lock := h.store.Reservation("req-1")
	if lock == nil || lock.RoomID != 10 || !lock.StartDate.Equal(day(1)) || !lock.EndDate.Equal(day(3)) {
		t.Errorf("lock = %+v", lock)
	}
	if got := h.store.TimesBooked(10); got != 3 {
		t.Errorf("times_booked = %d, want 3", got)
	}
}

func TestSaga_OverlappingBookingIsCancelled(t *testing.T) {
	h := newSagaHarness(t, nil, &model.Room{ID: 10, Number: "110", Available: true})

	if _, err := h.svc.Create(context.Background(), bookingInput("req-1", 10, 1, 3)); err != nil {
		t.Fatalf("first Create() error = %v", err)
	}

	second, err := h.svc.Create(context.Background(), bookingInput("req-2", 10, 3, 5))
	if err != nil {
		t.Fatalf("second Create() error = %v", err)
	}
	if second.Status != model.BookingCancelled {
		t.Errorf("status = %s, want CANCELLED", second.Status)
	}
	if second.CompensationPending {
		t.Error("a rejected hold leaves nothing to compensate")
	}
	if h.store.Reservation("req-2") != nil {
		t.Error("the rejected request must not own a lock")
	}
	if got := h.store.CountByStatus(model.LockConfirmed); got != 1 {
		t.Errorf("confirmed locks = %d, want 1", got)
	}
	if got := h.store.TimesBooked(10); got != 1 {
		t.Errorf("times_booked = %d, want 1", got)
	}
}

func TestSaga_ConfirmFailureReleasesHold(t *testing.T) {
	failConfirm := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/api/v1/reservations/confirm" {
				http.Error(w, "confirm unavailable", http.StatusServiceUnavailable)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
	h := newSagaHarness(t, failConfirm, &model.Room{ID: 10, Number: "110", Available: true})

	booking, err := h.svc.Create(context.Background(), bookingInput("req-1", 10, 1, 3))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if booking.Status != model.BookingCancelled || booking.CompensationPending {
		t.Fatalf("booking = %+v", booking)
	}

	if got := h.store.CountByStatus(model.LockHeld); got != 0 {
		t.Errorf("held locks = %d, want 0", got)
	}
	if lock := h.store.Reservation("req-1"); lock == nil || lock.Status != model.LockReleased {
		t.Errorf("lock = %+v, want RELEASED", lock)
	}
	if got := h.store.TimesBooked(10); got != 0 {
		t.Errorf("times_booked = %d, want 0", got)
	}

	// The released range is free again.
	next, err := h.svc.Create(context.Background(), bookingInput("req-2", 10, 1, 3))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if next.Status != model.BookingCancelled {
		t.Errorf("confirm still fails, status = %s", next.Status)
	}
	if lock := h.store.Reservation("req-2"); lock == nil || lock.Status != model.LockReleased {
		t.Errorf("lock = %+v, want a fresh hold that was released", lock)
	}
}

func TestSaga_AutoSelectPicksLeastBookedRoom(t *testing.T) {
	h := newSagaHarness(t, nil,
		&model.Room{ID: 10, Number: "110", Available: true, TimesBooked: 4},
		&model.Room{ID: 11, Number: "111", Available: true, TimesBooked: 1},
		&model.Room{ID: 12, Number: "112", Available: false},
	)

	input := bookingInput("req-1", 0, 1, 2)
	input.RoomID = nil
	input.AutoSelect = true

	booking, err := h.svc.Create(context.Background(), input)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if booking.Status != model.BookingConfirmed || booking.RoomID != 11 {
		t.Errorf("booking = %+v, want CONFIRMED on room 11", booking)
	}
	if got := h.store.TimesBooked(11); got != 2 {
		t.Errorf("times_booked = %d, want 2", got)
	}
}
