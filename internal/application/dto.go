package application

import (
	"time"

	"github.com/google/uuid"

	"github.com/roomdesk/service-booking/internal/domain/booking"
	"github.com/roomdesk/service-booking/internal/domain/room"
)

const (
	anonymousUserName = "Anonymous"
	systemUserName    = "System"
)

// CreateBookingRequest holds the data needed to book a room.
// The handlers validate the wire body before building it.
type CreateBookingRequest struct {
	StartTime time.Time
	EndTime   time.Time
	Purpose   string
}

// RescheduleBookingRequest moves a booking to a new range.
type RescheduleBookingRequest struct {
	StartTime time.Time
	EndTime   time.Time
}

// CreateRoomRequest registers a new room (admin).
type CreateRoomRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Capacity    int    `json:"capacity" binding:"required,gt=0"`
	Description string `json:"description"`
}

// UpdateRoomRequest patches a room (admin). Nil fields are left unchanged.
type UpdateRoomRequest struct {
	Name        *string `json:"name" binding:"omitempty,max=100"`
	Capacity    *int    `json:"capacity" binding:"omitempty,gt=0"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
}

// RoomDTO is the response representation of a room.
type RoomDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Capacity    int       `json:"capacity"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// AvailableRoomDTO is the trimmed room shape returned by availability queries.
type AvailableRoomDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Capacity    int       `json:"capacity"`
	Description string    `json:"description"`
}

// AvailableRoomsDTO is the availability query result.
type AvailableRoomsDTO struct {
	AvailableRooms []AvailableRoomDTO `json:"available_rooms"`
	StartTime      *time.Time         `json:"start_time,omitempty"`
	EndTime        *time.Time         `json:"end_time,omitempty"`
	Count          int                `json:"count"`
}

// HistoryDTO is the response representation of a history entry.
type HistoryDTO struct {
	ID                uuid.UUID  `json:"id"`
	Action            string     `json:"action"`
	User              *string    `json:"user"`
	UserName          string     `json:"user_name"`
	Timestamp         time.Time  `json:"timestamp"`
	Notes             string     `json:"notes"`
	PreviousStartTime *time.Time `json:"previous_start_time"`
	PreviousEndTime   *time.Time `json:"previous_end_time"`
}

// BookingDTO is the response representation of a booking.
type BookingDTO struct {
	ID              uuid.UUID    `json:"id"`
	MeetingRoom     uuid.UUID    `json:"meeting_room"`
	MeetingRoomName string       `json:"meeting_room_name"`
	User            *string      `json:"user"`
	UserName        string       `json:"user_name"`
	StartTime       time.Time    `json:"start_time"`
	EndTime         time.Time    `json:"end_time"`
	Status          string       `json:"status"`
	Purpose         string       `json:"purpose"`
	CancelledAt     *time.Time   `json:"cancelled_at,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
	History         []HistoryDTO `json:"history"`
}

// CancelResultDTO is returned by a successful cancellation.
type CancelResultDTO struct {
	Message string     `json:"message"`
	Booking BookingDTO `json:"booking"`
}

// BookingStatsDTO summarises bookings by status (admin).
type BookingStatsDTO struct {
	TotalBookings int64            `json:"total_bookings"`
	ByStatus      map[string]int64 `json:"by_status"`
}

func toRoomDTO(r *room.Room) RoomDTO {
	return RoomDTO{
		ID:          r.ID(),
		Name:        r.Name(),
		Capacity:    r.Capacity(),
		Description: r.Description(),
		IsActive:    r.Active(),
		CreatedAt:   r.CreatedAt(),
		UpdatedAt:   r.UpdatedAt(),
	}
}

func toAvailableRoomDTO(r RoomDTO) AvailableRoomDTO {
	return AvailableRoomDTO{
		ID:          r.ID,
		Name:        r.Name,
		Capacity:    r.Capacity,
		Description: r.Description,
	}
}

func toHistoryDTO(e *booking.HistoryEntry) HistoryDTO {
	name := systemUserName
	if e.Actor() != nil {
		name = *e.Actor()
	}
	return HistoryDTO{
		ID:                e.ID(),
		Action:            string(e.Action()),
		User:              e.Actor(),
		UserName:          name,
		Timestamp:         e.Timestamp(),
		Notes:             e.Notes(),
		PreviousStartTime: e.PreviousStart(),
		PreviousEndTime:   e.PreviousEnd(),
	}
}

func toBookingDTO(bk *booking.Booking, roomName string, history []*booking.HistoryEntry) BookingDTO {
	name := anonymousUserName
	if bk.Principal() != nil {
		name = *bk.Principal()
	}
	h := make([]HistoryDTO, len(history))
	for i, e := range history {
		h[i] = toHistoryDTO(e)
	}
	return BookingDTO{
		ID:              bk.ID(),
		MeetingRoom:     bk.RoomID(),
		MeetingRoomName: roomName,
		User:            bk.Principal(),
		UserName:        name,
		StartTime:       bk.Slot().Start(),
		EndTime:         bk.Slot().End(),
		Status:          string(bk.Status()),
		Purpose:         bk.Purpose(),
		CancelledAt:     bk.CancelledAt(),
		CreatedAt:       bk.CreatedAt(),
		UpdatedAt:       bk.UpdatedAt(),
		History:         h,
	}
}
