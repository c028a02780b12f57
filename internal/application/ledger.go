package application

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/roomdesk/service-booking/internal/domain/apperr"
	"github.com/roomdesk/service-booking/internal/domain/booking"
	"github.com/roomdesk/service-booking/internal/domain/interval"
	"github.com/roomdesk/service-booking/internal/domain/room"
	"github.com/roomdesk/service-booking/internal/pkg/clock"
)

// Ledger owns booking records. Write methods run on a Tx and assume the
// caller already holds the room lock.
type Ledger struct {
	clock clock.Clock
}

// NewLedger creates a Ledger.
func NewLedger(c clock.Clock) *Ledger {
	return &Ledger{clock: c}
}

// Create validates the range, re-checks overlap and persists a confirmed booking.
func (l *Ledger) Create(
	ctx context.Context,
	tx Tx,
	rm *room.Room,
	start, end time.Time,
	purpose string,
	principal *string,
) (*booking.Booking, error) {
	bk, err := booking.NewBooking(rm.ID(), start, end, purpose, principal, l.clock.Now())
	if err != nil {
		return nil, err
	}

	overlap, err := tx.Bookings().HasOverlap(ctx, rm.ID(), bk.Slot(), nil)
	if err != nil {
		return nil, err
	}
	if overlap {
		return nil, apperr.RoomConflict(rm.ID(), bk.Slot().Start(), bk.Slot().End())
	}

	if err := tx.Bookings().Save(ctx, bk); err != nil {
		return nil, err
	}
	return bk, nil
}

// Cancel locks the booking row and moves it to cancelled. It returns the
// booking and the range it held.
func (l *Ledger) Cancel(ctx context.Context, tx Tx, id uuid.UUID) (*booking.Booking, interval.Interval, error) {
	bk, err := tx.Bookings().FindByIDForUpdate(ctx, id)
	if err != nil {
		return nil, interval.Interval{}, err
	}

	previous := bk.Slot()
	if err := bk.Cancel(l.clock.Now()); err != nil {
		return nil, interval.Interval{}, err
	}

	bk.IncrementVersion()
	if err := tx.Bookings().Update(ctx, bk); err != nil {
		return nil, interval.Interval{}, err
	}
	return bk, previous, nil
}

// Reschedule moves a locked booking to [start, end), checking overlap
// against every other blocking booking on the room.
func (l *Ledger) Reschedule(ctx context.Context, tx Tx, bk *booking.Booking, start, end time.Time) (interval.Interval, error) {
	previous, err := bk.Reschedule(start, end, l.clock.Now())
	if err != nil {
		return interval.Interval{}, err
	}

	id := bk.ID()
	overlap, err := tx.Bookings().HasOverlap(ctx, bk.RoomID(), bk.Slot(), &id)
	if err != nil {
		return interval.Interval{}, err
	}
	if overlap {
		return interval.Interval{}, apperr.RoomConflict(bk.RoomID(), bk.Slot().Start(), bk.Slot().End())
	}

	bk.IncrementVersion()
	if err := tx.Bookings().Update(ctx, bk); err != nil {
		return interval.Interval{}, err
	}
	return previous, nil
}

// Get returns one booking.
func (l *Ledger) Get(ctx context.Context, repos Repositories, id uuid.UUID) (*booking.Booking, error) {
	return repos.Bookings().FindByID(ctx, id)
}

// ListAll returns bookings ordered by start time, newest first.
func (l *Ledger) ListAll(ctx context.Context, repos Repositories, filter booking.ListFilter) ([]*booking.Booking, error) {
	return repos.Bookings().ListAll(ctx, filter)
}
