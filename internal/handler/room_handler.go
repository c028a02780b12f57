package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/roomdesk/service-booking/internal/application"
	"github.com/roomdesk/service-booking/internal/pkg/auth"
	"github.com/roomdesk/service-booking/internal/pkg/middleware"
	"github.com/roomdesk/service-booking/internal/pkg/response"
)

// RoomHandler handles HTTP requests for meeting rooms and booking a room.
type RoomHandler struct {
	rooms    *application.RoomService
	bookings *application.BookingService
}

// NewRoomHandler creates a new RoomHandler.
func NewRoomHandler(rooms *application.RoomService, bookings *application.BookingService) *RoomHandler {
	return &RoomHandler{rooms: rooms, bookings: bookings}
}

// RegisterRoutes registers meeting room routes. Authentication is optional:
// anonymous callers may list and book rooms.
func (h *RoomHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	rooms := r.Group("/api/v1/meeting-rooms")
	rooms.Use(middleware.OptionalAuthMiddleware(jwtManager))
	{
		rooms.GET("", h.ListRooms)
		rooms.GET("/available", h.ListAvailable)
		rooms.GET("/:id", h.GetRoom)
		rooms.POST("/:id/book", h.BookRoom)
	}
}

// ListRooms handles GET /api/v1/meeting-rooms.
func (h *RoomHandler) ListRooms(c *gin.Context) {
	rooms, err := h.rooms.ListActive(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, rooms)
}

// ListAvailable handles GET /api/v1/meeting-rooms/available.
func (h *RoomHandler) ListAvailable(c *gin.Context) {
	start, ok := optionalInstant(c, "start_time")
	if !ok {
		return
	}
	end, ok := optionalInstant(c, "end_time")
	if !ok {
		return
	}

	result, err := h.rooms.ListAvailable(c.Request.Context(), start, end)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// GetRoom handles GET /api/v1/meeting-rooms/:id.
func (h *RoomHandler) GetRoom(c *gin.Context) {
	roomID, ok := parseIDParam(c, "room")
	if !ok {
		return
	}

	room, err := h.rooms.FindRoom(c.Request.Context(), roomID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, room)
}

type bookRoomBody struct {
	timeRangeBody
	Purpose string `json:"purpose" binding:"max=2000"`
}

// BookRoom handles POST /api/v1/meeting-rooms/:id/book.
func (h *RoomHandler) BookRoom(c *gin.Context) {
	roomID, ok := parseIDParam(c, "room")
	if !ok {
		return
	}

	var body bookRoomBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BindError(c, err)
		return
	}
	start, end, ok := body.parse(c)
	if !ok {
		return
	}

	result, err := h.bookings.CreateBooking(c.Request.Context(), roomID, application.CreateBookingRequest{
		StartTime: start,
		EndTime:   end,
		Purpose:   body.Purpose,
	}, middleware.GetPrincipal(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}
