package application

import (
	"context"

	"github.com/google/uuid"

	"github.com/roomdesk/service-booking/internal/domain/booking"
	"github.com/roomdesk/service-booking/internal/domain/room"
)

// Repositories groups the repositories visible to a caller.
type Repositories interface {
	Rooms() room.RoomRepository
	Bookings() booking.BookingRepository
	History() booking.HistoryRepository
}

// Tx is the transactional view handed to UnitOfWork.Within.
type Tx interface {
	Repositories

	// LockRoom serialises writers on roomID until the unit ends and returns
	// the room as seen under the lock.
	LockRoom(ctx context.Context, roomID uuid.UUID) (*room.Room, error)
}

// UnitOfWork runs fn atomically: every write made through tx commits
// together or not at all. Reads outside Within use the embedded repositories.
type UnitOfWork interface {
	Repositories
	Within(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
