package room

import (
	"context"

	"github.com/google/uuid"
)

// RoomRepository defines the persistence contract for room aggregates.
type RoomRepository interface {
	// FindByID retrieves a room by id. Missing rooms yield apperr.ErrRoomNotFound.
	FindByID(ctx context.Context, id uuid.UUID) (*Room, error)

	// ListActive returns active rooms ordered by name.
	ListActive(ctx context.Context) ([]*Room, error)

	// ListAll returns every room ordered by name (admin).
	ListAll(ctx context.Context) ([]*Room, error)

	// Save persists a new room. Duplicate names yield apperr.ErrRoomNameTaken.
	Save(ctx context.Context, room *Room) error

	// Update persists changes to an existing room with optimistic locking.
	Update(ctx context.Context, room *Room) error
}
