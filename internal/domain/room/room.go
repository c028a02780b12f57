package room

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/roomdesk/service-booking/internal/domain/apperr"
)

// MaxNameLength bounds the room name.
const MaxNameLength = 100

// Room is the aggregate root for a bookable meeting room.
type Room struct {
	id          uuid.UUID
	name        string
	capacity    int
	description string
	active      bool
	version     int64
	createdAt   time.Time
	updatedAt   time.Time
}

// NewRoom creates a new active Room.
func NewRoom(name string, capacity int, description string) (*Room, error) {
	return NewRoomWithID(uuid.New(), name, capacity, description)
}

// NewRoomWithID creates a new active Room under an externally assigned id.
func NewRoomWithID(id uuid.UUID, name string, capacity int, description string) (*Room, error) {
	if id == uuid.Nil {
		return nil, apperr.NewValidationError("room ID is required")
	}
	name = strings.TrimSpace(name)
	if err := validate(name, capacity); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Room{
		id:          id,
		name:        name,
		capacity:    capacity,
		description: strings.TrimSpace(description),
		active:      true,
		version:     1,
		createdAt:   now,
		updatedAt:   now,
	}, nil
}

// ReconstructRoom rebuilds a Room from persistence data (no validation).
func ReconstructRoom(
	id uuid.UUID,
	name string,
	capacity int,
	description string,
	active bool,
	version int64,
	createdAt time.Time,
	updatedAt time.Time,
) *Room {
	return &Room{
		id:          id,
		name:        name,
		capacity:    capacity,
		description: description,
		active:      active,
		version:     version,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
}

func validate(name string, capacity int) error {
	if name == "" {
		return apperr.NewValidationError("room name is required")
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return apperr.NewValidationError("room name must be at most 100 characters")
	}
	if capacity <= 0 {
		return apperr.NewValidationError("room capacity must be positive")
	}
	return nil
}

// --- Getters ---

// ID returns the room's unique identifier.
func (r *Room) ID() uuid.UUID { return r.id }

// Name returns the unique display name.
func (r *Room) Name() string { return r.name }

// Capacity returns the seat count.
func (r *Room) Capacity() int { return r.capacity }

// Description returns the free-form description.
func (r *Room) Description() string { return r.description }

// Active reports whether the room accepts new bookings.
func (r *Room) Active() bool { return r.active }

// Version returns the entity version for optimistic locking.
func (r *Room) Version() int64 { return r.version }

// CreatedAt returns the creation timestamp.
func (r *Room) CreatedAt() time.Time { return r.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (r *Room) UpdatedAt() time.Time { return r.updatedAt }

// --- Behavior ---

// UpdateDetails replaces the descriptive fields after validating them.
func (r *Room) UpdateDetails(name string, capacity int, description string) error {
	name = strings.TrimSpace(name)
	if err := validate(name, capacity); err != nil {
		return err
	}
	r.name = name
	r.capacity = capacity
	r.description = strings.TrimSpace(description)
	r.updatedAt = time.Now().UTC()
	return nil
}

// Activate reopens the room for bookings.
func (r *Room) Activate() {
	r.active = true
	r.updatedAt = time.Now().UTC()
}

// Deactivate closes the room for new bookings. Existing bookings are untouched.
func (r *Room) Deactivate() {
	r.active = false
	r.updatedAt = time.Now().UTC()
}

// IncrementVersion bumps the version for optimistic locking.
func (r *Room) IncrementVersion() {
	r.version++
	r.updatedAt = time.Now().UTC()
}
