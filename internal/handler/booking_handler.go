package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/roomdesk/service-booking/internal/application"
	"github.com/roomdesk/service-booking/internal/domain/booking"
	"github.com/roomdesk/service-booking/internal/pkg/auth"
	"github.com/roomdesk/service-booking/internal/pkg/middleware"
	"github.com/roomdesk/service-booking/internal/pkg/response"
)

// BookingHandler handles HTTP requests for booking operations.
type BookingHandler struct {
	service *application.BookingService
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(service *application.BookingService) *BookingHandler {
	return &BookingHandler{service: service}
}

// RegisterRoutes registers all booking routes on the given router group.
func (h *BookingHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	bookings := r.Group("/api/v1/bookings")
	bookings.Use(middleware.OptionalAuthMiddleware(jwtManager))
	{
		bookings.GET("", h.ListBookings)
		bookings.GET("/:id", h.GetBooking)
		bookings.GET("/:id/history", h.GetBookingHistory)
		bookings.POST("/:id/cancel", h.CancelBooking)
		bookings.PATCH("/:id", h.RescheduleBooking)
	}
}

// ListBookings handles GET /api/v1/bookings. Optional filters: status, room_id.
func (h *BookingHandler) ListBookings(c *gin.Context) {
	var filter booking.ListFilter
	if raw := c.Query("status"); raw != "" {
		status, err := booking.ParseBookingStatus(raw)
		if err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		filter.Status = &status
	}
	if raw := c.Query("room_id"); raw != "" {
		roomID, err := uuid.Parse(raw)
		if err != nil {
			response.BadRequest(c, "invalid room ID")
			return
		}
		filter.RoomID = &roomID
	}

	result, err := h.service.ListBookings(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// GetBooking handles GET /api/v1/bookings/:id.
func (h *BookingHandler) GetBooking(c *gin.Context) {
	bookingID, ok := parseIDParam(c, "booking")
	if !ok {
		return
	}

	result, err := h.service.GetBooking(c.Request.Context(), bookingID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// GetBookingHistory handles GET /api/v1/bookings/:id/history.
func (h *BookingHandler) GetBookingHistory(c *gin.Context) {
	bookingID, ok := parseIDParam(c, "booking")
	if !ok {
		return
	}

	result, err := h.service.GetBookingHistory(c.Request.Context(), bookingID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// CancelBooking handles POST /api/v1/bookings/:id/cancel.
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	bookingID, ok := parseIDParam(c, "booking")
	if !ok {
		return
	}

	result, err := h.service.CancelBooking(c.Request.Context(), bookingID, middleware.GetPrincipal(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// RescheduleBooking handles PATCH /api/v1/bookings/:id.
func (h *BookingHandler) RescheduleBooking(c *gin.Context) {
	bookingID, ok := parseIDParam(c, "booking")
	if !ok {
		return
	}

	var body timeRangeBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BindError(c, err)
		return
	}
	start, end, ok := body.parse(c)
	if !ok {
		return
	}

	result, err := h.service.RescheduleBooking(c.Request.Context(), bookingID, application.RescheduleBookingRequest{
		StartTime: start,
		EndTime:   end,
	}, middleware.GetPrincipal(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}
