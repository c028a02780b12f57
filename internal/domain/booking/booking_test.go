package booking

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roomdesk/service-booking/internal/domain/apperr"
	"github.com/roomdesk/service-booking/internal/domain/interval"
)

var now = time.Date(2030, 3, 4, 8, 0, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

func TestNewBooking(t *testing.T) {
	roomID := uuid.New()
	start := now.Add(time.Hour)
	end := now.Add(2 * time.Hour)

	bk, err := NewBooking(roomID, start, end, "standup", strPtr("alice"), now)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, bk.ID())
	assert.Equal(t, roomID, bk.RoomID())
	assert.Equal(t, StatusConfirmed, bk.Status())
	assert.Equal(t, "alice", *bk.Principal())
	assert.True(t, bk.Slot().Start().Equal(start))
	assert.True(t, bk.Slot().End().Equal(end))
	assert.Nil(t, bk.CancelledAt())
	assert.Equal(t, int64(1), bk.Version())
}

func TestNewBooking_Validation(t *testing.T) {
	roomID := uuid.New()

	tests := []struct {
		name    string
		start   time.Time
		end     time.Time
		wantErr error
	}{
		{"end equals start", now.Add(time.Hour), now.Add(time.Hour), apperr.ErrInvalidTimeRange},
		{"end before start", now.Add(2 * time.Hour), now.Add(time.Hour), apperr.ErrInvalidTimeRange},
		{"starts in the past", now.Add(-time.Minute), now.Add(time.Hour), apperr.ErrPastBooking},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBooking(roomID, tt.start, tt.end, "", nil, now)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("start exactly now is allowed", func(t *testing.T) {
		_, err := NewBooking(roomID, now, now.Add(time.Minute), "", nil, now)
		assert.NoError(t, err)
	})

	t.Run("nil room", func(t *testing.T) {
		_, err := NewBooking(uuid.Nil, now.Add(time.Hour), now.Add(2*time.Hour), "", nil, now)
		assert.Error(t, err)
	})
}

func TestBooking_Cancel(t *testing.T) {
	bk, err := NewBooking(uuid.New(), now.Add(time.Hour), now.Add(2*time.Hour), "", nil, now)
	require.NoError(t, err)

	require.NoError(t, bk.Cancel(now))
	assert.Equal(t, StatusCancelled, bk.Status())
	require.NotNil(t, bk.CancelledAt())
	assert.True(t, bk.CancelledAt().Equal(now))

	err = bk.Cancel(now.Add(time.Minute))
	assert.ErrorIs(t, err, apperr.ErrAlreadyCancelled)
}

func TestBooking_CancelPending(t *testing.T) {
	slot := interval.MustNew(now.Add(time.Hour), now.Add(2*time.Hour))
	bk := ReconstructBooking(uuid.New(), uuid.New(), nil, slot, StatusPending, "", nil, 1, now, now)

	require.NoError(t, bk.Cancel(now))
	assert.Equal(t, StatusCancelled, bk.Status())
}

func TestBooking_Reschedule(t *testing.T) {
	bk, err := NewBooking(uuid.New(), now.Add(time.Hour), now.Add(2*time.Hour), "", nil, now)
	require.NoError(t, err)
	original := bk.Slot()

	prev, err := bk.Reschedule(now.Add(3*time.Hour), now.Add(4*time.Hour), now)
	require.NoError(t, err)
	assert.Equal(t, original, prev)
	assert.True(t, bk.Slot().Start().Equal(now.Add(3*time.Hour)))

	_, err = bk.Reschedule(now.Add(-time.Hour), now.Add(time.Hour), now)
	assert.ErrorIs(t, err, apperr.ErrPastBooking)

	require.NoError(t, bk.Cancel(now))
	_, err = bk.Reschedule(now.Add(5*time.Hour), now.Add(6*time.Hour), now)
	assert.ErrorIs(t, err, apperr.ErrAlreadyCancelled)
}

func TestBookingStatus_Transitions(t *testing.T) {
	assert.True(t, StatusPending.CanTransitionTo(StatusConfirmed))
	assert.True(t, StatusPending.CanTransitionTo(StatusCancelled))
	assert.True(t, StatusConfirmed.CanTransitionTo(StatusCancelled))
	assert.False(t, StatusConfirmed.CanTransitionTo(StatusPending))
	assert.False(t, StatusCancelled.CanTransitionTo(StatusConfirmed))

	assert.True(t, StatusCancelled.IsTerminal())
	assert.False(t, StatusConfirmed.IsTerminal())

	assert.True(t, StatusPending.BlocksRoom())
	assert.True(t, StatusConfirmed.BlocksRoom())
	assert.False(t, StatusCancelled.BlocksRoom())
}

func TestParseBookingStatus(t *testing.T) {
	s, err := ParseBookingStatus("confirmed")
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, s)

	_, err = ParseBookingStatus("requested")
	assert.Error(t, err)
}

func TestNewHistoryEntry(t *testing.T) {
	bookingID := uuid.New()
	prev := interval.MustNew(now.Add(time.Hour), now.Add(2*time.Hour))

	t.Run("created ignores previous range", func(t *testing.T) {
		e, err := NewHistoryEntry(bookingID, ActionCreated, nil, "Booking created", &prev, now)
		require.NoError(t, err)
		assert.Nil(t, e.PreviousStart())
		assert.Nil(t, e.PreviousEnd())
		assert.Nil(t, e.Actor())
		assert.True(t, e.Timestamp().Equal(now))
	})

	t.Run("cancelled keeps previous range", func(t *testing.T) {
		e, err := NewHistoryEntry(bookingID, ActionCancelled, strPtr("bob"), "", &prev, now)
		require.NoError(t, err)
		require.NotNil(t, e.PreviousStart())
		assert.True(t, e.PreviousStart().Equal(prev.Start()))
		assert.True(t, e.PreviousEnd().Equal(prev.End()))
		assert.Equal(t, "", e.Notes())
	})

	t.Run("unknown action", func(t *testing.T) {
		_, err := NewHistoryEntry(bookingID, HistoryAction("deleted"), nil, "", nil, now)
		assert.Error(t, err)
	})
}
