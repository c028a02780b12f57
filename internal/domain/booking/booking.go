package booking

import (
	"time"

	"github.com/google/uuid"

	"github.com/roomdesk/service-booking/internal/domain/apperr"
	"github.com/roomdesk/service-booking/internal/domain/interval"
)

// Booking is the aggregate root for a room reservation.
type Booking struct {
	id          uuid.UUID
	roomID      uuid.UUID
	principal   *string
	slot        interval.Interval
	status      BookingStatus
	purpose     string
	cancelledAt *time.Time

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// ValidateSlot checks a requested range against the booking rules at instant now.
func ValidateSlot(start, end, now time.Time) (interval.Interval, error) {
	slot, err := interval.New(start, end)
	if err != nil {
		return interval.Interval{}, apperr.ErrInvalidTimeRange
	}
	if slot.Start().Before(now) {
		return interval.Interval{}, apperr.ErrPastBooking
	}
	return slot, nil
}

// NewBooking creates a confirmed Booking for roomID. principal may be nil.
func NewBooking(
	roomID uuid.UUID,
	start, end time.Time,
	purpose string,
	principal *string,
	now time.Time,
) (*Booking, error) {
	if roomID == uuid.Nil {
		return nil, apperr.NewValidationError("room ID is required")
	}
	slot, err := ValidateSlot(start, end, now)
	if err != nil {
		return nil, err
	}

	now = now.UTC()
	return &Booking{
		id:        uuid.New(),
		roomID:    roomID,
		principal: principal,
		slot:      slot,
		status:    StatusConfirmed,
		purpose:   purpose,
		version:   1,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// ReconstructBooking rebuilds a Booking from persistence data (no validation).
func ReconstructBooking(
	id uuid.UUID,
	roomID uuid.UUID,
	principal *string,
	slot interval.Interval,
	status BookingStatus,
	purpose string,
	cancelledAt *time.Time,
	version int64,
	createdAt time.Time,
	updatedAt time.Time,
) *Booking {
	return &Booking{
		id:          id,
		roomID:      roomID,
		principal:   principal,
		slot:        slot,
		status:      status,
		purpose:     purpose,
		cancelledAt: cancelledAt,
		version:     version,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
}

// --- Getters ---

// ID returns the booking's unique identifier.
func (b *Booking) ID() uuid.UUID { return b.id }

// RoomID returns the booked room.
func (b *Booking) RoomID() uuid.UUID { return b.roomID }

// Principal returns the booking owner, or nil for anonymous bookings.
func (b *Booking) Principal() *string { return b.principal }

// Slot returns the reserved interval.
func (b *Booking) Slot() interval.Interval { return b.slot }

// Status returns the current booking status.
func (b *Booking) Status() BookingStatus { return b.status }

// Purpose returns the free-form purpose text.
func (b *Booking) Purpose() string { return b.purpose }

// CancelledAt returns the cancellation time.
func (b *Booking) CancelledAt() *time.Time { return b.cancelledAt }

// Version returns the entity version for optimistic locking.
func (b *Booking) Version() int64 { return b.version }

// CreatedAt returns the creation timestamp.
func (b *Booking) CreatedAt() time.Time { return b.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (b *Booking) UpdatedAt() time.Time { return b.updatedAt }

// --- Behavior ---

// Cancel moves the booking to cancelled. A cancelled booking cannot be cancelled again.
func (b *Booking) Cancel(now time.Time) error {
	if b.status == StatusCancelled {
		return apperr.ErrAlreadyCancelled
	}
	if !b.status.CanTransitionTo(StatusCancelled) {
		return apperr.NewInvalidStateError(string(b.status), string(StatusCancelled))
	}
	now = now.UTC()
	b.status = StatusCancelled
	b.cancelledAt = &now
	b.updatedAt = now
	return nil
}

// Reschedule moves the booking to a new range and returns the previous one.
func (b *Booking) Reschedule(start, end, now time.Time) (interval.Interval, error) {
	if b.status == StatusCancelled {
		return interval.Interval{}, apperr.ErrAlreadyCancelled
	}
	slot, err := ValidateSlot(start, end, now)
	if err != nil {
		return interval.Interval{}, err
	}
	previous := b.slot
	b.slot = slot
	b.updatedAt = now.UTC()
	return previous, nil
}

// IncrementVersion bumps the version for optimistic locking.
func (b *Booking) IncrementVersion() {
	b.version++
}
