// Package reservationstest provides an in-memory stand-in for the
// reservations collections, for tests that need the real lock service
// without a Mongo replica set.
package reservationstest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	reservationserrors "staybook/internal/reservations/errors"
	"staybook/internal/reservations/repository"
	mongotx "staybook/pkg/db/mongo"
	"staybook/pkg/model"
)

// Store holds locks, rooms and room guards. ExecuteTransaction serializes
// callbacks the way the room guard serializes them in Mongo.
type Store struct {
	txMu sync.Mutex
	mu   sync.Mutex

	locks  map[string]*model.ReservationLock
	rooms  map[int64]*model.Room
	guards map[int64]int
	nextID int

	// BeforeCreate runs ahead of every lock insert.
	BeforeCreate func(lock *model.ReservationLock)
	// TouchErr fails every room guard touch.
	TouchErr error
	// FindErr fails every room catalog read.
	FindErr error
}

func NewStore(rooms ...*model.Room) *Store {
	s := &Store{
		locks:  make(map[string]*model.ReservationLock),
		rooms:  make(map[int64]*model.Room),
		guards: make(map[int64]int),
	}
	for _, r := range rooms {
		s.rooms[r.ID] = r
	}
	return s
}

func (s *Store) Locks() repository.LockRepository { return &lockRepo{s: s} }

func (s *Store) Guards() repository.RoomGuardRepository { return &guardRepo{s: s} }

func (s *Store) Rooms() repository.RoomRepository { return &roomRepo{s: s} }

// Put stores lock as given, bypassing the lock service.
func (s *Store) Put(lock model.ReservationLock) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	lock.ID = fmt.Sprintf("lock-%d", s.nextID)
	s.locks[lock.RequestID] = &lock
}

// Reservation returns a copy of the lock for requestID, or nil.
func (s *Store) Reservation(requestID string) *model.ReservationLock {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[requestID]
	if !ok {
		return nil
	}
	cp := *l
	return &cp
}

// CountByStatus counts locks in status across every room.
func (s *Store) CountByStatus(status string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, l := range s.locks {
		if l.Status == status {
			n++
		}
	}
	return n
}

func (s *Store) LockCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.locks)
}

func (s *Store) TimesBooked(roomID int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rooms[roomID].TimesBooked
}

// GuardTouches is how often the guard of roomID was touched.
func (s *Store) GuardTouches(roomID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.guards[roomID]
}

// TouchedRooms is the number of rooms whose guard was touched at all.
func (s *Store) TouchedRooms() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.guards)
}

type lockRepo struct{ s *Store }

func (r *lockRepo) Create(ctx context.Context, lock *model.ReservationLock) error {
	if r.s.BeforeCreate != nil {
		r.s.BeforeCreate(lock)
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.locks[lock.RequestID]; ok {
		return reservationserrors.ErrDuplicateRequest
	}
	r.s.nextID++
	lock.ID = fmt.Sprintf("lock-%d", r.s.nextID)
	lock.CreatedAt = time.Now().UTC()
	lock.UpdatedAt = lock.CreatedAt
	cp := *lock
	r.s.locks[lock.RequestID] = &cp
	return nil
}

func (r *lockRepo) FindByRequestID(ctx context.Context, requestID string) (*model.ReservationLock, error) {
	if l := r.s.Reservation(requestID); l != nil {
		return l, nil
	}
	return nil, reservationserrors.ErrNotFound
}

func (r *lockRepo) FindOverlapping(ctx context.Context, roomID int64, start, end time.Time) ([]*model.ReservationLock, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*model.ReservationLock
	for _, l := range r.s.locks {
		if l.RoomID == roomID && l.IsActive() && l.Overlaps(start, end) {
			cp := *l
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *lockRepo) Transition(ctx context.Context, requestID, from, to string) (*model.ReservationLock, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.locks[requestID]
	if !ok || l.Status != from {
		return nil, reservationserrors.ErrTransitionLost
	}
	l.Status = to
	l.UpdatedAt = time.Now().UTC()
	cp := *l
	return &cp, nil
}

func (r *lockRepo) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	r.s.txMu.Lock()
	defer r.s.txMu.Unlock()
	return fn(ctx)
}

type guardRepo struct{ s *Store }

func (r *guardRepo) Touch(ctx context.Context, roomID int64) error {
	if r.s.TouchErr != nil {
		return r.s.TouchErr
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.guards[roomID]++
	return nil
}

type roomRepo struct{ s *Store }

func (r *roomRepo) sorted(less func(a, b *model.Room) bool, filter func(*model.Room) bool) []*model.Room {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*model.Room, 0, len(r.s.rooms))
	for _, room := range r.s.rooms {
		if filter == nil || filter(room) {
			cp := *room
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func (r *roomRepo) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Room, error) {
	if r.s.FindErr != nil {
		return nil, r.s.FindErr
	}
	all := r.sorted(func(a, b *model.Room) bool { return a.ID < b.ID }, nil)
	if int(offset) >= len(all) {
		return []*model.Room{}, nil
	}
	all = all[offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (r *roomRepo) Count(ctx context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return int64(len(r.s.rooms)), nil
}

// FindAvailable orders least booked first, then by id.
func (r *roomRepo) FindAvailable(ctx context.Context) ([]*model.Room, error) {
	if r.s.FindErr != nil {
		return nil, r.s.FindErr
	}
	return r.sorted(func(a, b *model.Room) bool {
		if a.TimesBooked != b.TimesBooked {
			return a.TimesBooked < b.TimesBooked
		}
		return a.ID < b.ID
	}, func(room *model.Room) bool { return room.Available }), nil
}

func (r *roomRepo) FindPopular(ctx context.Context, limit int) ([]*model.Room, error) {
	if r.s.FindErr != nil {
		return nil, r.s.FindErr
	}
	out := r.sorted(func(a, b *model.Room) bool {
		if a.TimesBooked != b.TimesBooked {
			return a.TimesBooked > b.TimesBooked
		}
		return a.ID < b.ID
	}, nil)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *roomRepo) IncrementTimesBooked(ctx context.Context, roomID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if room, ok := r.s.rooms[roomID]; ok {
		room.TimesBooked++
	}
	return nil
}
