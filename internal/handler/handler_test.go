package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/roomdesk/service-booking/internal/application"
	"github.com/roomdesk/service-booking/internal/events"
	"github.com/roomdesk/service-booking/internal/handler"
	"github.com/roomdesk/service-booking/internal/pkg/auth"
	"github.com/roomdesk/service-booking/internal/pkg/clock"
	"github.com/roomdesk/service-booking/internal/repository/memory"
)

var baseTime = time.Date(2030, 5, 6, 8, 0, 0, 0, time.UTC)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

type testServer struct {
	router *gin.Engine
	jwt    *auth.JWTManager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := zap.NewNop()
	store := memory.NewStore()
	clk := clock.NewMockClock(baseTime)
	jwtManager := auth.NewJWTManager("test-secret", "service-booking", time.Hour)

	rooms := application.NewRoomService(store, nil, logger)
	bookings := application.NewBookingService(
		store,
		application.NewLedger(clk),
		application.NewHistoryRecorder(clk),
		events.NewNoopPublisher(logger),
		"",
		clk,
		logger,
	)

	r := gin.New()
	api := r.Group("")
	handler.NewRoomHandler(rooms, bookings).RegisterRoutes(api, jwtManager)
	handler.NewBookingHandler(bookings).RegisterRoutes(api, jwtManager)
	handler.NewAdminHandler(rooms, bookings).RegisterRoutes(api, jwtManager)
	return &testServer{router: r, jwt: jwtManager}
}

func (s *testServer) token(t *testing.T, subject, role string) string {
	t.Helper()
	tok, err := s.jwt.GenerateAccessToken(subject, role)
	require.NoError(t, err)
	return tok
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func (s *testServer) createRoom(t *testing.T, name string) application.RoomDTO {
	t.Helper()
	code, env := s.do(t, http.MethodPost, "/api/v1/admin/meeting-rooms", s.token(t, "root", auth.RoleAdmin),
		map[string]any{"name": name, "capacity": 6, "description": "test room"})
	require.Equal(t, http.StatusCreated, code)
	var rm application.RoomDTO
	require.NoError(t, json.Unmarshal(env.Data, &rm))
	return rm
}

func rfc(hour int) string {
	return baseTime.Add(time.Duration(hour) * time.Hour).Format(time.RFC3339)
}

func TestBookRoomFlow(t *testing.T) {
	s := newTestServer(t)
	rm := s.createRoom(t, "Atlas")
	bookPath := "/api/v1/meeting-rooms/" + rm.ID.String() + "/book"

	code, env := s.do(t, http.MethodPost, bookPath, s.token(t, "alice", auth.RoleMember),
		map[string]any{"start_time": rfc(2), "end_time": rfc(3), "purpose": "Standup"})
	require.Equal(t, http.StatusCreated, code)
	var created application.BookingDTO
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "alice", created.UserName)
	assert.Equal(t, "Atlas", created.MeetingRoomName)

	code, env = s.do(t, http.MethodPost, bookPath, "",
		map[string]any{"start_time": rfc(2), "end_time": rfc(4)})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "ROOM_CONFLICT", env.Error.Code)
	assert.Equal(t, rm.ID.String(), env.Error.Details["room_id"])

	code, env = s.do(t, http.MethodGet, "/api/v1/meeting-rooms/available?start_time="+rfc(2)+"&end_time="+rfc(3), "", nil)
	require.Equal(t, http.StatusOK, code)
	var avail application.AvailableRoomsDTO
	require.NoError(t, json.Unmarshal(env.Data, &avail))
	assert.Equal(t, 0, avail.Count)

	cancelPath := "/api/v1/bookings/" + created.ID.String() + "/cancel"
	code, env = s.do(t, http.MethodPost, cancelPath, "", nil)
	require.Equal(t, http.StatusOK, code)
	var cancelled application.CancelResultDTO
	require.NoError(t, json.Unmarshal(env.Data, &cancelled))
	assert.Equal(t, "Booking cancelled successfully", cancelled.Message)
	assert.Equal(t, "cancelled", cancelled.Booking.Status)

	code, env = s.do(t, http.MethodPost, cancelPath, "", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "ALREADY_CANCELLED", env.Error.Code)

	code, env = s.do(t, http.MethodGet, "/api/v1/bookings/"+created.ID.String()+"/history", "", nil)
	require.Equal(t, http.StatusOK, code)
	var history []application.HistoryDTO
	require.NoError(t, json.Unmarshal(env.Data, &history))
	require.Len(t, history, 2)
	assert.Equal(t, "cancelled", history[0].Action)
}

func TestBookRoomValidation(t *testing.T) {
	s := newTestServer(t)
	rm := s.createRoom(t, "Atlas")
	bookPath := "/api/v1/meeting-rooms/" + rm.ID.String() + "/book"

	tests := []struct {
		name     string
		path     string
		body     map[string]any
		wantCode int
		wantErr  string
	}{
		{name: "missing end", path: bookPath, body: map[string]any{"start_time": rfc(2)}, wantCode: http.StatusBadRequest, wantErr: "VALIDATION_FAILED"},
		{name: "naive timestamp", path: bookPath, body: map[string]any{"start_time": "2030-05-06T10:00:00", "end_time": rfc(3)}, wantCode: http.StatusBadRequest, wantErr: "VALIDATION_FAILED"},
		{name: "inverted range", path: bookPath, body: map[string]any{"start_time": rfc(3), "end_time": rfc(2)}, wantCode: http.StatusBadRequest, wantErr: "INVALID_TIME_RANGE"},
		{name: "past", path: bookPath, body: map[string]any{"start_time": rfc(-2), "end_time": rfc(-1)}, wantCode: http.StatusBadRequest, wantErr: "PAST_BOOKING"},
		{name: "unknown room", path: "/api/v1/meeting-rooms/7d1b5b2e-0000-4000-8000-000000000000/book", body: map[string]any{"start_time": rfc(2), "end_time": rfc(3)}, wantCode: http.StatusNotFound, wantErr: "ROOM_NOT_FOUND"},
		{name: "malformed room id", path: "/api/v1/meeting-rooms/not-a-uuid/book", body: map[string]any{"start_time": rfc(2), "end_time": rfc(3)}, wantCode: http.StatusBadRequest, wantErr: "VALIDATION_FAILED"},
		{name: "purpose too long", path: bookPath, body: map[string]any{"start_time": rfc(2), "end_time": rfc(3), "purpose": strings.Repeat("x", 2001)}, wantCode: http.StatusBadRequest, wantErr: "VALIDATION_FAILED"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := s.do(t, http.MethodPost, tt.path, "", tt.body)
			assert.Equal(t, tt.wantCode, code)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.wantErr, env.Error.Code)
		})
	}
}

func TestAvailableRoomsQuery(t *testing.T) {
	s := newTestServer(t)
	s.createRoom(t, "Atlas")
	s.createRoom(t, "Borealis")

	code, env := s.do(t, http.MethodGet, "/api/v1/meeting-rooms/available", "", nil)
	require.Equal(t, http.StatusOK, code)
	var avail application.AvailableRoomsDTO
	require.NoError(t, json.Unmarshal(env.Data, &avail))
	assert.Equal(t, 2, avail.Count)

	code, env = s.do(t, http.MethodGet, "/api/v1/meeting-rooms/available?start_time="+rfc(2), "", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "INVALID_RANGE", env.Error.Code)

	code, env = s.do(t, http.MethodGet, "/api/v1/meeting-rooms/available?start_time="+rfc(3)+"&end_time="+rfc(2), "", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "INVALID_RANGE", env.Error.Code)

	code, env = s.do(t, http.MethodGet, "/api/v1/meeting-rooms/available?start_time=tomorrow&end_time="+rfc(2), "", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "INVALID_RANGE", env.Error.Code)
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(t, http.MethodPost, "/api/v1/admin/meeting-rooms", "", map[string]any{"name": "Atlas", "capacity": 2})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)

	code, env = s.do(t, http.MethodPost, "/api/v1/admin/meeting-rooms", s.token(t, "bob", auth.RoleMember), map[string]any{"name": "Atlas", "capacity": 2})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "FORBIDDEN", env.Error.Code)
}

func TestAdminRoomManagement(t *testing.T) {
	s := newTestServer(t)
	admin := s.token(t, "root", auth.RoleAdmin)
	rm := s.createRoom(t, "Atlas")

	code, env := s.do(t, http.MethodPost, "/api/v1/admin/meeting-rooms", admin, map[string]any{"name": "Atlas", "capacity": 3})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "ROOM_NAME_TAKEN", env.Error.Code)

	code, env = s.do(t, http.MethodPost, "/api/v1/admin/meeting-rooms", admin, map[string]any{"name": "Nova", "capacity": 0})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "VALIDATION_FAILED", env.Error.Code)

	code, _ = s.do(t, http.MethodPatch, "/api/v1/admin/meeting-rooms/"+rm.ID.String(), admin, map[string]any{"is_active": false})
	require.Equal(t, http.StatusOK, code)

	code, env = s.do(t, http.MethodPost, "/api/v1/meeting-rooms/"+rm.ID.String()+"/book", "",
		map[string]any{"start_time": rfc(2), "end_time": rfc(3)})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "ROOM_INACTIVE", env.Error.Code)

	code, env = s.do(t, http.MethodGet, "/api/v1/meeting-rooms", "", nil)
	require.Equal(t, http.StatusOK, code)
	var active []application.RoomDTO
	require.NoError(t, json.Unmarshal(env.Data, &active))
	assert.Empty(t, active)

	code, env = s.do(t, http.MethodGet, "/api/v1/admin/meeting-rooms", admin, nil)
	require.Equal(t, http.StatusOK, code)
	var all []application.RoomDTO
	require.NoError(t, json.Unmarshal(env.Data, &all))
	assert.Len(t, all, 1)

	code, env = s.do(t, http.MethodGet, "/api/v1/admin/stats/bookings", admin, nil)
	require.Equal(t, http.StatusOK, code)
	var stats application.BookingStatsDTO
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.Equal(t, int64(0), stats.TotalBookings)
}

func TestListBookingsStatusFilter(t *testing.T) {
	s := newTestServer(t)
	rm := s.createRoom(t, "Atlas")
	bookPath := "/api/v1/meeting-rooms/" + rm.ID.String() + "/book"
	for _, h := range []int{1, 3} {
		code, _ := s.do(t, http.MethodPost, bookPath, "", map[string]any{"start_time": rfc(h), "end_time": rfc(h + 1)})
		require.Equal(t, http.StatusCreated, code)
	}

	code, env := s.do(t, http.MethodGet, "/api/v1/bookings?status=confirmed", "", nil)
	require.Equal(t, http.StatusOK, code)
	var list []application.BookingDTO
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list, 2)
	assert.True(t, list[0].StartTime.After(list[1].StartTime))

	code, env = s.do(t, http.MethodGet, "/api/v1/bookings?status=archived", "", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "VALIDATION_FAILED", env.Error.Code)
}

func TestRescheduleEndpoint(t *testing.T) {
	s := newTestServer(t)
	rm := s.createRoom(t, "Atlas")
	code, env := s.do(t, http.MethodPost, "/api/v1/meeting-rooms/"+rm.ID.String()+"/book", "",
		map[string]any{"start_time": rfc(1), "end_time": rfc(2)})
	require.Equal(t, http.StatusCreated, code)
	var created application.BookingDTO
	require.NoError(t, json.Unmarshal(env.Data, &created))

	code, env = s.do(t, http.MethodPatch, "/api/v1/bookings/"+created.ID.String(), "",
		map[string]any{"start_time": rfc(4), "end_time": rfc(5)})
	require.Equal(t, http.StatusOK, code)
	var moved application.BookingDTO
	require.NoError(t, json.Unmarshal(env.Data, &moved))
	assert.Equal(t, "updated", moved.History[0].Action)

	code, env = s.do(t, http.MethodPatch, "/api/v1/bookings/"+created.ID.String(), "",
		map[string]any{"start_time": rfc(6)})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "VALIDATION_FAILED", env.Error.Code)

	code, env = s.do(t, http.MethodGet, "/api/v1/bookings/00000000-0000-4000-8000-000000000001", "", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "BOOKING_NOT_FOUND", env.Error.Code)
}
