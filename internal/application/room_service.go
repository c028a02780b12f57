package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/roomdesk/service-booking/internal/cache"
	"github.com/roomdesk/service-booking/internal/domain/apperr"
	"github.com/roomdesk/service-booking/internal/domain/interval"
	"github.com/roomdesk/service-booking/internal/domain/room"
)

const activeRoomsCacheKey = "rooms:active"

// RoomService is the room registry: lookups, availability and admin writes.
type RoomService struct {
	uow    UnitOfWork
	cache  cache.Cache
	logger *zap.Logger
}

// NewRoomService creates a RoomService. A nil cache disables caching.
func NewRoomService(uow UnitOfWork, c cache.Cache, logger *zap.Logger) *RoomService {
	if c == nil {
		c = cache.NoopCache{}
	}
	return &RoomService{uow: uow, cache: c, logger: logger}
}

// FindRoom returns a room by id, active or not.
func (s *RoomService) FindRoom(ctx context.Context, id uuid.UUID) (*RoomDTO, error) {
	rm, err := s.uow.Rooms().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := toRoomDTO(rm)
	return &dto, nil
}

// IsAvailable reports whether no pending or confirmed booking on roomID
// overlaps [start, end). Invalid ranges are never available. The room's
// active flag is not consulted here.
func (s *RoomService) IsAvailable(ctx context.Context, roomID uuid.UUID, start, end time.Time) (bool, error) {
	slot, err := interval.New(start, end)
	if err != nil {
		return false, nil
	}
	overlap, err := s.uow.Bookings().HasOverlap(ctx, roomID, slot, nil)
	if err != nil {
		return false, err
	}
	return !overlap, nil
}

// ListActive returns active rooms ordered by name.
func (s *RoomService) ListActive(ctx context.Context) ([]RoomDTO, error) {
	var cached []RoomDTO
	hit, err := s.cache.GetJSON(ctx, activeRoomsCacheKey, &cached)
	if err != nil {
		s.logger.Warn("room cache read failed", zap.Error(err))
	}
	if hit {
		return cached, nil
	}

	rooms, err := s.uow.Rooms().ListActive(ctx)
	if err != nil {
		return nil, err
	}
	dtos := make([]RoomDTO, len(rooms))
	for i, rm := range rooms {
		dtos[i] = toRoomDTO(rm)
	}

	if err := s.cache.SetJSON(ctx, activeRoomsCacheKey, dtos); err != nil {
		s.logger.Warn("room cache write failed", zap.Error(err))
	}
	return dtos, nil
}

// ListAll returns every room including inactive ones (admin).
func (s *RoomService) ListAll(ctx context.Context) ([]RoomDTO, error) {
	rooms, err := s.uow.Rooms().ListAll(ctx)
	if err != nil {
		return nil, err
	}
	dtos := make([]RoomDTO, len(rooms))
	for i, rm := range rooms {
		dtos[i] = toRoomDTO(rm)
	}
	return dtos, nil
}

// ListAvailable returns active rooms free for [start, end). With both bounds
// nil every active room is returned. A single bound or end <= start is
// rejected with INVALID_RANGE.
func (s *RoomService) ListAvailable(ctx context.Context, start, end *time.Time) (*AvailableRoomsDTO, error) {
	if (start == nil) != (end == nil) {
		return nil, apperr.InvalidRange("both start_time and end_time are required")
	}

	active, err := s.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	if start == nil {
		out := make([]AvailableRoomDTO, len(active))
		for i, r := range active {
			out[i] = toAvailableRoomDTO(r)
		}
		return &AvailableRoomsDTO{AvailableRooms: out, Count: len(out)}, nil
	}

	slot, err := interval.New(*start, *end)
	if err != nil {
		return nil, apperr.InvalidRange("end time must be after start time")
	}

	booked, err := s.uow.Bookings().BookedRoomIDs(ctx, slot)
	if err != nil {
		return nil, err
	}

	out := make([]AvailableRoomDTO, 0, len(active))
	for _, r := range active {
		if _, taken := booked[r.ID]; taken {
			continue
		}
		out = append(out, toAvailableRoomDTO(r))
	}

	s0, e0 := slot.Start(), slot.End()
	return &AvailableRoomsDTO{
		AvailableRooms: out,
		StartTime:      &s0,
		EndTime:        &e0,
		Count:          len(out),
	}, nil
}

// CreateRoom registers a new active room (admin).
func (s *RoomService) CreateRoom(ctx context.Context, req CreateRoomRequest) (*RoomDTO, error) {
	rm, err := room.NewRoom(req.Name, req.Capacity, req.Description)
	if err != nil {
		return nil, err
	}
	if err := s.uow.Rooms().Save(ctx, rm); err != nil {
		return nil, err
	}
	s.invalidate(ctx)

	s.logger.Info("room created", zap.String("room_id", rm.ID().String()), zap.String("name", rm.Name()))
	dto := toRoomDTO(rm)
	return &dto, nil
}

// UpdateRoom patches a room (admin). The row is locked so the change
// serialises with bookings being created on the same room.
func (s *RoomService) UpdateRoom(ctx context.Context, id uuid.UUID, req UpdateRoomRequest) (*RoomDTO, error) {
	var updated *room.Room
	err := s.uow.Within(ctx, func(ctx context.Context, tx Tx) error {
		rm, err := tx.LockRoom(ctx, id)
		if err != nil {
			return err
		}

		name, capacity, description := rm.Name(), rm.Capacity(), rm.Description()
		if req.Name != nil {
			name = *req.Name
		}
		if req.Capacity != nil {
			capacity = *req.Capacity
		}
		if req.Description != nil {
			description = *req.Description
		}
		if err := rm.UpdateDetails(name, capacity, description); err != nil {
			return err
		}
		if req.IsActive != nil {
			if *req.IsActive {
				rm.Activate()
			} else {
				rm.Deactivate()
			}
		}

		rm.IncrementVersion()
		if err := tx.Rooms().Update(ctx, rm); err != nil {
			return err
		}
		updated = rm
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)

	dto := toRoomDTO(updated)
	return &dto, nil
}

// UpsertRoom applies a room record from the facilities directory feed,
// creating it under the given id when unknown.
func (s *RoomService) UpsertRoom(ctx context.Context, id uuid.UUID, name string, capacity int, description string, active bool) error {
	_, err := s.uow.Rooms().FindByID(ctx, id)
	switch {
	case err == nil:
		_, err = s.UpdateRoom(ctx, id, UpdateRoomRequest{
			Name:        &name,
			Capacity:    &capacity,
			Description: &description,
			IsActive:    &active,
		})
		return err
	case !apperr.IsCode(err, apperr.CodeRoomNotFound):
		return err
	}

	rm, err := room.NewRoomWithID(id, name, capacity, description)
	if err != nil {
		return err
	}
	if !active {
		rm.Deactivate()
	}
	if err := s.uow.Rooms().Save(ctx, rm); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// DeactivateRoom closes a room for new bookings.
func (s *RoomService) DeactivateRoom(ctx context.Context, id uuid.UUID) error {
	inactive := false
	_, err := s.UpdateRoom(ctx, id, UpdateRoomRequest{IsActive: &inactive})
	return err
}

func (s *RoomService) invalidate(ctx context.Context) {
	if err := s.cache.Delete(ctx, activeRoomsCacheKey); err != nil {
		s.logger.Warn("room cache invalidation failed", zap.Error(err))
	}
}
