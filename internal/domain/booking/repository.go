package booking

import (
	"context"

	"github.com/google/uuid"

	"github.com/roomdesk/service-booking/internal/domain/interval"
)

// ListFilter narrows booking listings. Zero value lists everything.
type ListFilter struct {
	Status *BookingStatus
	RoomID *uuid.UUID
}

// BookingRepository defines the persistence contract for booking aggregates.
type BookingRepository interface {
	// FindByID retrieves a booking by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)

	// FindByIDForUpdate retrieves a booking and holds a row lock until the
	// surrounding transaction ends.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Booking, error)

	// ListAll retrieves bookings ordered by start time, newest first.
	ListAll(ctx context.Context, filter ListFilter) ([]*Booking, error)

	// HasOverlap reports whether a pending or confirmed booking on roomID
	// overlaps slot. excludeID skips one booking (used when rescheduling).
	HasOverlap(ctx context.Context, roomID uuid.UUID, slot interval.Interval, excludeID *uuid.UUID) (bool, error)

	// BookedRoomIDs returns the rooms holding a pending or confirmed booking that overlaps slot.
	BookedRoomIDs(ctx context.Context, slot interval.Interval) (map[uuid.UUID]struct{}, error)

	// CountByStatus returns booking counts grouped by status (admin).
	CountByStatus(ctx context.Context) (map[string]int64, error)

	// Save persists a new booking.
	Save(ctx context.Context, booking *Booking) error

	// Update persists changes to an existing booking with optimistic locking.
	Update(ctx context.Context, booking *Booking) error
}

// HistoryRepository is append-only: entries are never updated or removed.
type HistoryRepository interface {
	Append(ctx context.Context, entry *HistoryEntry) error

	// ListByBooking returns entries newest first.
	ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]*HistoryEntry, error)

	// ListByBookings groups entries per booking, newest first within each group.
	ListByBookings(ctx context.Context, bookingIDs []uuid.UUID) (map[uuid.UUID][]*HistoryEntry, error)
}
