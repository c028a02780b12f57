package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/roomdesk/service-booking/internal/application"
	"github.com/roomdesk/service-booking/internal/pkg/auth"
	"github.com/roomdesk/service-booking/internal/pkg/middleware"
	"github.com/roomdesk/service-booking/internal/pkg/response"
)

// AdminHandler handles admin HTTP requests for room management and stats.
type AdminHandler struct {
	rooms    *application.RoomService
	bookings *application.BookingService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(rooms *application.RoomService, bookings *application.BookingService) *AdminHandler {
	return &AdminHandler{rooms: rooms, bookings: bookings}
}

// RegisterRoutes registers admin routes.
func (h *AdminHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)
	adminRole := middleware.RequireRole(auth.RoleAdmin)

	admin := r.Group("/api/v1/admin")
	admin.Use(authMW, adminRole)
	{
		admin.GET("/meeting-rooms", h.ListRooms)
		admin.POST("/meeting-rooms", h.CreateRoom)
		admin.PATCH("/meeting-rooms/:id", h.UpdateRoom)
		admin.GET("/stats/bookings", h.BookingStats)
	}
}

// ListRooms handles GET /api/v1/admin/meeting-rooms, inactive rooms included.
func (h *AdminHandler) ListRooms(c *gin.Context) {
	rooms, err := h.rooms.ListAll(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, rooms)
}

// CreateRoom handles POST /api/v1/admin/meeting-rooms.
func (h *AdminHandler) CreateRoom(c *gin.Context) {
	var req application.CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	room, err := h.rooms.CreateRoom(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, room)
}

// UpdateRoom handles PATCH /api/v1/admin/meeting-rooms/:id.
func (h *AdminHandler) UpdateRoom(c *gin.Context) {
	roomID, ok := parseIDParam(c, "room")
	if !ok {
		return
	}

	var req application.UpdateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	room, err := h.rooms.UpdateRoom(c.Request.Context(), roomID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, room)
}

// BookingStats handles GET /api/v1/admin/stats/bookings.
func (h *AdminHandler) BookingStats(c *gin.Context) {
	stats, err := h.bookings.GetBookingStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, stats)
}
