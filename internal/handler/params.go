package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/roomdesk/service-booking/internal/domain/apperr"
	"github.com/roomdesk/service-booking/internal/domain/interval"
	"github.com/roomdesk/service-booking/internal/pkg/response"
)

// timeRangeBody is the wire shape of a requested range. Times arrive as
// strings so that naive timestamps can be rejected explicitly.
type timeRangeBody struct {
	StartTime string `json:"start_time" binding:"required"`
	EndTime   string `json:"end_time" binding:"required"`
}

func (b timeRangeBody) parse(c *gin.Context) (time.Time, time.Time, bool) {
	start, err := interval.ParseInstant(b.StartTime)
	if err != nil {
		response.BadRequest(c, "start_time must be an RFC 3339 timestamp with a UTC offset")
		return time.Time{}, time.Time{}, false
	}
	end, err := interval.ParseInstant(b.EndTime)
	if err != nil {
		response.BadRequest(c, "end_time must be an RFC 3339 timestamp with a UTC offset")
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

func parseIDParam(c *gin.Context, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid "+what+" ID")
		return uuid.Nil, false
	}
	return id, true
}

// optionalInstant parses query parameter key; absent or empty yields nil.
func optionalInstant(c *gin.Context, key string) (*time.Time, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	t, err := interval.ParseInstant(raw)
	if err != nil {
		response.Error(c, apperr.InvalidRange(key+" must be an RFC 3339 timestamp with a UTC offset"))
		return nil, false
	}
	return &t, true
}
