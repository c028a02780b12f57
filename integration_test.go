//go:build integration

package main_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/roomdesk/service-booking/internal/application"
	"github.com/roomdesk/service-booking/internal/domain/apperr"
	"github.com/roomdesk/service-booking/internal/domain/booking"
	"github.com/roomdesk/service-booking/internal/domain/room"
	bookingEvents "github.com/roomdesk/service-booking/internal/events"
	"github.com/roomdesk/service-booking/internal/pkg/kafka"
	"github.com/roomdesk/service-booking/internal/proto/events"
	"github.com/roomdesk/service-booking/internal/repository"
)

func slot(hoursFromNow, length int) (time.Time, time.Time) {
	base := time.Now().UTC().Truncate(time.Hour).Add(24 * time.Hour)
	start := base.Add(time.Duration(hoursFromNow) * time.Hour)
	return start, start.Add(time.Duration(length) * time.Hour)
}

// TestConcurrentCreates_ExactlyOneWins races many bookings for the same slot
// against PostgreSQL and expects the room lock to admit exactly one.
func TestConcurrentCreates_ExactlyOneWins(t *testing.T) {
	db := setupPostgres(t)
	stack := setupBookingStack(t, db, nil)
	roomID := seedRoom(t, stack)
	start, end := slot(1, 1)

	const workers = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
		others    []error
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			principal := fmt.Sprintf("user-%d", i)
			_, err := stack.Bookings.CreateBooking(context.Background(), roomID, application.CreateBookingRequest{
				StartTime: start,
				EndTime:   end,
			}, &principal)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, apperr.ErrRoomConflict):
				conflicts++
			default:
				others = append(others, err)
			}
		}(i)
	}
	wg.Wait()

	require.Empty(t, others)
	assert.Equal(t, 1, successes)
	assert.Equal(t, workers-1, conflicts)

	var count int64
	require.NoError(t, db.Model(&repository.BookingModel{}).Where("room_id = ?", roomID).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	var historyCount int64
	require.NoError(t, db.Model(&repository.HistoryModel{}).Count(&historyCount).Error)
	assert.Equal(t, int64(1), historyCount)
}

// TestExclusionConstraint_RejectsOverlapWithoutLock writes overlapping rows
// straight through the repository, skipping the overlap query, and expects
// the database constraint to surface as a room conflict.
func TestExclusionConstraint_RejectsOverlapWithoutLock(t *testing.T) {
	db := setupPostgres(t)
	stack := setupBookingStack(t, db, nil)
	roomID := seedRoom(t, stack)
	ctx := context.Background()

	start, end := slot(2, 2)
	first, err := booking.NewBooking(roomID, start, end, "", nil, time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, stack.UoW.Within(ctx, func(ctx context.Context, tx application.Tx) error {
		return tx.Bookings().Save(ctx, first)
	}))

	second, err := booking.NewBooking(roomID, start.Add(time.Hour), end.Add(time.Hour), "", nil, time.Now().UTC())
	require.NoError(t, err)
	err = stack.UoW.Within(ctx, func(ctx context.Context, tx application.Tx) error {
		return tx.Bookings().Save(ctx, second)
	})
	assert.ErrorIs(t, err, apperr.ErrRoomConflict)

	// Touching ranges are not an overlap.
	third, err := booking.NewBooking(roomID, end, end.Add(time.Hour), "", nil, time.Now().UTC())
	require.NoError(t, err)
	assert.NoError(t, stack.UoW.Within(ctx, func(ctx context.Context, tx application.Tx) error {
		return tx.Bookings().Save(ctx, third)
	}))
}

// TestRoomRepository_OnlyNameCollisionIsNameTaken separates the unique name
// index from a primary key collision on the same id.
func TestRoomRepository_OnlyNameCollisionIsNameTaken(t *testing.T) {
	db := setupPostgres(t)
	stack := setupBookingStack(t, db, nil)
	ctx := context.Background()

	first, err := room.NewRoom("Vega", 6, "")
	require.NoError(t, err)
	require.NoError(t, stack.UoW.Rooms().Save(ctx, first))

	sameName, err := room.NewRoom("Vega", 4, "")
	require.NoError(t, err)
	assert.ErrorIs(t, stack.UoW.Rooms().Save(ctx, sameName), apperr.ErrRoomNameTaken)

	sameID, err := room.NewRoomWithID(first.ID(), "Lyra", 4, "")
	require.NoError(t, err)
	err = stack.UoW.Rooms().Save(ctx, sameID)
	require.Error(t, err)
	assert.NotErrorIs(t, err, apperr.ErrRoomNameTaken)
}

// TestUnitOfWork_RollbackLeavesNoRows checks that a failure after the
// booking insert discards it together with its history.
func TestUnitOfWork_RollbackLeavesNoRows(t *testing.T) {
	db := setupPostgres(t)
	stack := setupBookingStack(t, db, nil)
	roomID := seedRoom(t, stack)
	ctx := context.Background()
	start, end := slot(3, 1)

	boom := errors.New("history sink failed")
	err := stack.UoW.Within(ctx, func(ctx context.Context, tx application.Tx) error {
		bk, err := booking.NewBooking(roomID, start, end, "", nil, time.Now().UTC())
		if err != nil {
			return err
		}
		if err := tx.Bookings().Save(ctx, bk); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	var count int64
	require.NoError(t, db.Model(&repository.BookingModel{}).Count(&count).Error)
	assert.Zero(t, count)
}

// TestCancelAndReschedule_AgainstPostgres runs the booking lifecycle on the
// real store, including history ordering and the cancelled-slot release.
func TestCancelAndReschedule_AgainstPostgres(t *testing.T) {
	db := setupPostgres(t)
	stack := setupBookingStack(t, db, nil)
	roomID := seedRoom(t, stack)
	ctx := context.Background()

	start, end := slot(4, 1)
	created, err := stack.Bookings.CreateBooking(ctx, roomID, application.CreateBookingRequest{StartTime: start, EndTime: end}, nil)
	require.NoError(t, err)

	newStart, newEnd := slot(6, 1)
	moved, err := stack.Bookings.RescheduleBooking(ctx, created.ID, application.RescheduleBookingRequest{StartTime: newStart, EndTime: newEnd}, nil)
	require.NoError(t, err)
	assert.True(t, moved.StartTime.Equal(newStart))

	result, err := stack.Bookings.CancelBooking(ctx, created.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, "cancelled", result.Booking.Status)
	require.Len(t, result.Booking.History, 3)
	assert.Equal(t, "cancelled", result.Booking.History[0].Action)
	assert.True(t, result.Booking.History[0].PreviousStartTime.Equal(newStart))

	_, err = stack.Bookings.CancelBooking(ctx, created.ID, nil)
	assert.ErrorIs(t, err, apperr.ErrAlreadyCancelled)

	// The cancelled slot is free again.
	_, err = stack.Bookings.CreateBooking(ctx, roomID, application.CreateBookingRequest{StartTime: newStart, EndTime: newEnd}, nil)
	assert.NoError(t, err)

	free, err := stack.Rooms.IsAvailable(ctx, roomID, start, end)
	require.NoError(t, err)
	assert.True(t, free)
}

// TestRoomEvents_UpsertsRoomAndPublishesBookingCreated drives the room
// directory consumer through Kafka and checks the booking event round trip.
func TestRoomEvents_UpsertsRoomAndPublishesBookingCreated(t *testing.T) {
	db := setupPostgres(t)
	brokers := setupKafka(t, events.TopicBookingEvents, events.TopicRoomEvents)

	logger, _ := zap.NewDevelopment()
	producer := kafka.NewProducer(brokers, logger)
	defer func() { _ = producer.Close() }()
	stack := setupBookingStack(t, db, producer)

	groupID := fmt.Sprintf("test-rooms-%s", uuid.New().String()[:8])
	consumer := bookingEvents.NewRoomEventConsumer(brokers, groupID, events.TopicRoomEvents, stack.Rooms, logger)
	defer func() { _ = consumer.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = consumer.Start(ctx) }()
	time.Sleep(3 * time.Second) // Wait for consumer group join.

	roomID := uuid.New()
	publishTestEvent(t, brokers, events.TopicRoomEvents, "facilities-directory", events.RoomUpserted, events.RoomUpsertedEvent{
		RoomID:     roomID,
		Name:       "Orion",
		Capacity:   10,
		Active:     true,
		OccurredAt: time.Now().UTC(),
	})

	require.Eventually(t, func() bool {
		_, err := stack.Rooms.FindRoom(context.Background(), roomID)
		return err == nil
	}, 15*time.Second, 200*time.Millisecond, "room was not upserted from the directory feed")

	start, end := slot(8, 1)
	created, err := stack.Bookings.CreateBooking(context.Background(), roomID, application.CreateBookingRequest{StartTime: start, EndTime: end}, nil)
	require.NoError(t, err)

	ce := consumeOneEvent(t, brokers, events.TopicBookingEvents, events.BookingCreated, 15*time.Second)
	var evt events.BookingCreatedEvent
	require.NoError(t, ce.ParseData(&evt))
	assert.Equal(t, created.ID, evt.BookingID)
	assert.Equal(t, roomID, evt.RoomID)

	publishTestEvent(t, brokers, events.TopicRoomEvents, "facilities-directory", events.RoomDeactivated, events.RoomDeactivatedEvent{
		RoomID:     roomID,
		OccurredAt: time.Now().UTC(),
	})
	require.Eventually(t, func() bool {
		rm, err := stack.Rooms.FindRoom(context.Background(), roomID)
		return err == nil && !rm.IsActive
	}, 15*time.Second, 200*time.Millisecond, "room was not deactivated")
}
