// Package events holds the wire contracts for booking and room events.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Default topics.
const (
	TopicBookingEvents = "booking.events"
	TopicRoomEvents    = "room.events"
)

// Event types.
const (
	BookingCreated     = "booking.created"
	BookingCancelled   = "booking.cancelled"
	BookingRescheduled = "booking.rescheduled"

	RoomUpserted    = "room.upserted"
	RoomDeactivated = "room.deactivated"
)

// BookingCreatedEvent is published after a booking commits.
type BookingCreatedEvent struct {
	BookingID  uuid.UUID `json:"booking_id"`
	RoomID     uuid.UUID `json:"room_id"`
	Principal  *string   `json:"principal,omitempty"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	OccurredAt time.Time `json:"occurred_at"`
}

// BookingCancelledEvent is published after a cancellation commits.
type BookingCancelledEvent struct {
	BookingID  uuid.UUID `json:"booking_id"`
	RoomID     uuid.UUID `json:"room_id"`
	Actor      *string   `json:"actor,omitempty"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	OccurredAt time.Time `json:"occurred_at"`
}

// BookingRescheduledEvent is published after a booking moves.
type BookingRescheduledEvent struct {
	BookingID     uuid.UUID `json:"booking_id"`
	RoomID        uuid.UUID `json:"room_id"`
	Actor         *string   `json:"actor,omitempty"`
	PreviousStart time.Time `json:"previous_start_time"`
	PreviousEnd   time.Time `json:"previous_end_time"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// RoomUpsertedEvent is consumed from the facilities directory.
type RoomUpsertedEvent struct {
	RoomID      uuid.UUID `json:"room_id"`
	Name        string    `json:"name"`
	Capacity    int       `json:"capacity"`
	Description string    `json:"description"`
	Active      bool      `json:"active"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// RoomDeactivatedEvent closes a room for new bookings.
type RoomDeactivatedEvent struct {
	RoomID     uuid.UUID `json:"room_id"`
	OccurredAt time.Time `json:"occurred_at"`
}
