// Package memory provides an in-process transactional store. A unit of work
// holds the store mutex, mutates a private copy of the state and swaps it in
// only when the callback succeeds.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/roomdesk/service-booking/internal/application"
	"github.com/roomdesk/service-booking/internal/domain/booking"
	"github.com/roomdesk/service-booking/internal/domain/room"
)

type roomRecord struct {
	ID          uuid.UUID
	Name        string
	Capacity    int
	Description string
	Active      bool
	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type bookingRecord struct {
	ID          uuid.UUID
	RoomID      uuid.UUID
	Principal   *string
	Start       time.Time
	End         time.Time
	Status      string
	Purpose     string
	CancelledAt *time.Time
	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type historyRecord struct {
	ID            uuid.UUID
	BookingID     uuid.UUID
	Action        string
	Actor         *string
	Timestamp     time.Time
	Notes         string
	PreviousStart *time.Time
	PreviousEnd   *time.Time
}

type state struct {
	rooms    map[uuid.UUID]roomRecord
	bookings map[uuid.UUID]bookingRecord
	history  []historyRecord
}

func newState() *state {
	return &state{
		rooms:    map[uuid.UUID]roomRecord{},
		bookings: map[uuid.UUID]bookingRecord{},
	}
}

// clone copies the maps and slice. Records are values; their pointer fields
// are never mutated in place, so sharing them is safe.
func (s *state) clone() *state {
	c := &state{
		rooms:    make(map[uuid.UUID]roomRecord, len(s.rooms)),
		bookings: make(map[uuid.UUID]bookingRecord, len(s.bookings)),
		history:  make([]historyRecord, len(s.history)),
	}
	for k, v := range s.rooms {
		c.rooms[k] = v
	}
	for k, v := range s.bookings {
		c.bookings[k] = v
	}
	copy(c.history, s.history)
	return c
}

// access runs fn against a state. Outside a unit it takes the store mutex;
// inside a unit it points at the unit's private copy.
type access func(fn func(st *state) error) error

// Store is an application.UnitOfWork held entirely in memory.
type Store struct {
	mu sync.Mutex
	st *state
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{st: newState()}
}

func (s *Store) locked(fn func(st *state) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.st)
}

// Rooms returns a repository reading committed state.
func (s *Store) Rooms() room.RoomRepository { return &roomRepo{access: s.locked} }

// Bookings returns a repository reading committed state.
func (s *Store) Bookings() booking.BookingRepository { return &bookingRepo{access: s.locked} }

// History returns a repository reading committed state.
func (s *Store) History() booking.HistoryRepository { return &historyRepo{access: s.locked} }

// Within runs fn against a private copy of the state and commits it only if
// fn returns nil and ctx is still live. Units are fully serialised.
func (s *Store) Within(ctx context.Context, fn func(ctx context.Context, tx application.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	draft := s.st.clone()
	if err := fn(ctx, &memTx{st: draft}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.st = draft
	return nil
}

// Ping satisfies the readiness probe.
func (s *Store) Ping(context.Context) error { return nil }

type memTx struct {
	st *state
}

func (t *memTx) direct(fn func(st *state) error) error { return fn(t.st) }

func (t *memTx) Rooms() room.RoomRepository          { return &roomRepo{access: t.direct} }
func (t *memTx) Bookings() booking.BookingRepository { return &bookingRepo{access: t.direct} }
func (t *memTx) History() booking.HistoryRepository  { return &historyRepo{access: t.direct} }

// LockRoom is a lookup: the unit already holds the store mutex.
func (t *memTx) LockRoom(ctx context.Context, roomID uuid.UUID) (*room.Room, error) {
	return t.Rooms().FindByID(ctx, roomID)
}

var (
	_ application.UnitOfWork = (*Store)(nil)
	_ application.Tx         = (*memTx)(nil)
)
