package service

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	bookingserrors "staybook/internal/bookings/errors"
	"staybook/internal/bookings/repository"
	"staybook/internal/bookings/validator"
	"staybook/pkg/config"
	"staybook/pkg/logger"
	"staybook/pkg/model"
)

type memBookingRepo struct {
	mu       sync.Mutex
	bookings map[string]*model.Booking
	nextID   int

	createErr     error
	transitionErr error
	afterCreate   func(b *model.Booking)
}

func newMemBookingRepo() *memBookingRepo {
	return &memBookingRepo{bookings: make(map[string]*model.Booking)}
}

func (r *memBookingRepo) put(b model.Booking) *model.Booking {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	if b.ID == "" {
		b.ID = fmt.Sprintf("booking-%d", r.nextID)
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	r.bookings[b.ID] = &b
	cp := b
	return &cp
}

func (r *memBookingRepo) get(id string) *model.Booking {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil
	}
	cp := *b
	return &cp
}

func (r *memBookingRepo) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.bookings)
}

func (r *memBookingRepo) Create(ctx context.Context, booking *model.Booking) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.mu.Lock()
	for _, b := range r.bookings {
		if b.RequestID == booking.RequestID {
			r.mu.Unlock()
			return bookingserrors.ErrDuplicateRequest
		}
	}
	r.nextID++
	booking.ID = fmt.Sprintf("booking-%d", r.nextID)
	booking.CreatedAt = time.Now().UTC()
	booking.UpdatedAt = booking.CreatedAt
	cp := *booking
	r.bookings[booking.ID] = &cp
	r.mu.Unlock()

	if r.afterCreate != nil {
		r.afterCreate(booking)
	}
	return nil
}

func (r *memBookingRepo) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	if b := r.get(id); b != nil {
		return b, nil
	}
	return nil, bookingserrors.ErrNotFound
}

func (r *memBookingRepo) FindByRequestID(ctx context.Context, requestID string) (*model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.bookings {
		if b.RequestID == requestID {
			cp := *b
			return &cp, nil
		}
	}
	return nil, bookingserrors.ErrNotFound
}

func (r *memBookingRepo) filter(keep func(*model.Booking) bool) []*model.Booking {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.Booking, 0)
	for _, b := range r.bookings {
		if keep(b) {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *memBookingRepo) FindByRequester(ctx context.Context, requesterID string) ([]*model.Booking, error) {
	return r.filter(func(b *model.Booking) bool { return b.RequesterID == requesterID }), nil
}

func (r *memBookingRepo) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, error) {
	all := r.filter(func(*model.Booking) bool { return true })
	if int(offset) >= len(all) {
		return []*model.Booking{}, nil
	}
	all = all[offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (r *memBookingRepo) Count(ctx context.Context) (int64, error) {
	return int64(r.size()), nil
}

func (r *memBookingRepo) Transition(ctx context.Context, id string, t repository.Transition) (*model.Booking, error) {
	if r.transitionErr != nil {
		return nil, r.transitionErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok || b.Status != t.From {
		return nil, bookingserrors.ErrTransitionLost
	}
	b.Status = t.To
	b.CompensationPending = t.CompensationPending
	b.UpdatedAt = time.Now().UTC()
	cp := *b
	return &cp, nil
}

func (r *memBookingRepo) ClearCompensationPending(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return bookingserrors.ErrNotFound
	}
	b.CompensationPending = false
	return nil
}

func (r *memBookingRepo) FindCompensationPending(ctx context.Context, limit int) ([]*model.Booking, error) {
	out := r.filter(func(b *model.Booking) bool { return b.CompensationPending })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memBookingRepo) FindStalePending(ctx context.Context, createdBefore time.Time, limit int) ([]*model.Booking, error) {
	out := r.filter(func(b *model.Booking) bool {
		return b.Status == model.BookingPending && b.CreatedAt.Before(createdBefore)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// mockReservations records every call and answers through optional funcs.
type mockReservations struct {
	mu    sync.Mutex
	calls []string

	holdFunc        func(roomID int64, start, end string) (*model.ReservationLock, error)
	confirmFunc     func() (*model.ReservationLock, error)
	releaseFunc     func() (*model.ReservationLock, error)
	recommendedFunc func() ([]model.RoomView, error)

	correlationIDs []string
}

func (m *mockReservations) record(op, correlationID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, op)
	m.correlationIDs = append(m.correlationIDs, correlationID)
}

func (m *mockReservations) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *mockReservations) Hold(ctx context.Context, correlationID, requestID string, roomID int64, start, end string) (*model.ReservationLock, error) {
	m.record("hold", correlationID)
	if m.holdFunc != nil {
		return m.holdFunc(roomID, start, end)
	}
	return &model.ReservationLock{RequestID: requestID, RoomID: roomID, Status: model.LockHeld}, nil
}

func (m *mockReservations) Confirm(ctx context.Context, correlationID, requestID string) (*model.ReservationLock, error) {
	m.record("confirm", correlationID)
	if m.confirmFunc != nil {
		return m.confirmFunc()
	}
	return &model.ReservationLock{RequestID: requestID, Status: model.LockConfirmed}, nil
}

func (m *mockReservations) Release(ctx context.Context, correlationID, requestID string) (*model.ReservationLock, error) {
	m.record("release", correlationID)
	if m.releaseFunc != nil {
		return m.releaseFunc()
	}
	return &model.ReservationLock{RequestID: requestID, Status: model.LockReleased}, nil
}

func (m *mockReservations) RecommendedRooms(ctx context.Context, correlationID string) ([]model.RoomView, error) {
	m.record("recommended", correlationID)
	if m.recommendedFunc != nil {
		return m.recommendedFunc()
	}
	return nil, nil
}

type mockPublisher struct {
	mu     sync.Mutex
	events []string
	err    error
}

func (p *mockPublisher) Publish(ctx context.Context, eventType string, booking *model.Booking) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, eventType+":"+booking.Status)
	return p.err
}

func testConfig() *config.Config {
	return &config.Config{
		ReconcileInterval: time.Minute,
		StalePendingAfter: 5 * time.Minute,
		ReconcileBatch:    50,
		Log: logger.New(logger.Config{
			Level:   "error",
			Format:  logger.JSON,
			Output:  io.Discard,
			Service: "test",
		}),
	}
}

func newTestBookingService(repo *memBookingRepo, remote *mockReservations, pub *mockPublisher) BookingService {
	cfg := testConfig()
	return NewBookingService(repo, remote, pub, validator.NewBookingValidator(cfg.Log), nil, cfg)
}

func day(d int) time.Time {
	return time.Date(2025, time.June, d, 0, 0, 0, 0, time.UTC)
}

func roomPtr(id int64) *int64 { return &id }
