package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/roomdesk/service-booking/internal/domain/apperr"
	"github.com/roomdesk/service-booking/internal/domain/booking"
	"github.com/roomdesk/service-booking/internal/domain/interval"
	"github.com/roomdesk/service-booking/internal/pkg/clock"
	"github.com/roomdesk/service-booking/internal/proto/events"
)

const (
	eventSource          = "service-booking"
	cancelSuccessMessage = "Booking cancelled successfully"
)

// EventPublisher delivers CloudEvents to a broker topic.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic string, ce events.CloudEvent) error
}

// BookingService coordinates bookings: every state change and its history
// entry commit in one unit of work, and events go out after commit.
type BookingService struct {
	uow       UnitOfWork
	ledger    *Ledger
	recorder  *HistoryRecorder
	publisher EventPublisher
	topic     string
	clock     clock.Clock
	logger    *zap.Logger
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	uow UnitOfWork,
	ledger *Ledger,
	recorder *HistoryRecorder,
	publisher EventPublisher,
	topic string,
	c clock.Clock,
	logger *zap.Logger,
) *BookingService {
	if topic == "" {
		topic = events.TopicBookingEvents
	}
	return &BookingService{
		uow:       uow,
		ledger:    ledger,
		recorder:  recorder,
		publisher: publisher,
		topic:     topic,
		clock:     c,
		logger:    logger,
	}
}

// CreateBooking books roomID for the requested range. Checks run in order:
// room exists, room active, range valid, range not in the past, no overlap.
func (s *BookingService) CreateBooking(ctx context.Context, roomID uuid.UUID, req CreateBookingRequest, principal *string) (*BookingDTO, error) {
	rm, err := s.uow.Rooms().FindByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !rm.Active() {
		return nil, apperr.ErrRoomInactive
	}
	if _, err := booking.ValidateSlot(req.StartTime, req.EndTime, s.clock.Now()); err != nil {
		return nil, err
	}

	var (
		created *booking.Booking
		entry   *booking.HistoryEntry
	)
	err = s.uow.Within(ctx, func(ctx context.Context, tx Tx) error {
		locked, err := tx.LockRoom(ctx, roomID)
		if err != nil {
			return err
		}
		if !locked.Active() {
			return apperr.ErrRoomInactive
		}

		bk, err := s.ledger.Create(ctx, tx, locked, req.StartTime, req.EndTime, req.Purpose, principal)
		if err != nil {
			return err
		}
		e, err := s.recorder.Record(ctx, tx.History(), bk.ID(), booking.ActionCreated, principal, NoteCreated, nil)
		if err != nil {
			return err
		}
		created, entry, rm = bk, e, locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("booking created",
		zap.String("booking_id", created.ID().String()),
		zap.String("room_id", roomID.String()),
		zap.Time("start", created.Slot().Start()),
		zap.Time("end", created.Slot().End()),
	)

	s.publishEvent(ctx, events.BookingCreated, created.ID().String(), events.BookingCreatedEvent{
		BookingID:  created.ID(),
		RoomID:     roomID,
		Principal:  principal,
		StartTime:  created.Slot().Start(),
		EndTime:    created.Slot().End(),
		OccurredAt: s.clock.Now(),
	})

	result := toBookingDTO(created, rm.Name(), []*booking.HistoryEntry{entry})
	return &result, nil
}

// CancelBooking cancels a booking and records who did it. The status check
// runs under the row lock, so of two concurrent cancels exactly one wins
// and the other sees ALREADY_CANCELLED.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID uuid.UUID, principal *string) (*CancelResultDTO, error) {
	var (
		cancelled *booking.Booking
		previous  interval.Interval
	)
	err := s.uow.Within(ctx, func(ctx context.Context, tx Tx) error {
		bk, prev, err := s.ledger.Cancel(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		if _, err := s.recorder.Record(ctx, tx.History(), bk.ID(), booking.ActionCancelled, principal, NoteCancelled, &prev); err != nil {
			return err
		}
		cancelled, previous = bk, prev
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("booking cancelled", zap.String("booking_id", bookingID.String()))

	s.publishEvent(ctx, events.BookingCancelled, bookingID.String(), events.BookingCancelledEvent{
		BookingID:  bookingID,
		RoomID:     cancelled.RoomID(),
		Actor:      principal,
		StartTime:  previous.Start(),
		EndTime:    previous.End(),
		OccurredAt: s.clock.Now(),
	})

	dto, err := s.hydrate(ctx, cancelled)
	if err != nil {
		return nil, err
	}
	return &CancelResultDTO{Message: cancelSuccessMessage, Booking: *dto}, nil
}

// RescheduleBooking moves a booking to a new range on the same room.
func (s *BookingService) RescheduleBooking(ctx context.Context, bookingID uuid.UUID, req RescheduleBookingRequest, principal *string) (*BookingDTO, error) {
	var (
		moved    *booking.Booking
		previous interval.Interval
	)
	err := s.uow.Within(ctx, func(ctx context.Context, tx Tx) error {
		bk, err := tx.Bookings().FindByIDForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		if bk.Status() == booking.StatusCancelled {
			return apperr.ErrAlreadyCancelled
		}

		rm, err := tx.LockRoom(ctx, bk.RoomID())
		if err != nil {
			return err
		}
		if !rm.Active() {
			return apperr.ErrRoomInactive
		}

		prev, err := s.ledger.Reschedule(ctx, tx, bk, req.StartTime, req.EndTime)
		if err != nil {
			return err
		}
		if _, err := s.recorder.Record(ctx, tx.History(), bk.ID(), booking.ActionUpdated, principal, NoteRescheduled, &prev); err != nil {
			return err
		}
		moved, previous = bk, prev
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.BookingRescheduled, bookingID.String(), events.BookingRescheduledEvent{
		BookingID:     bookingID,
		RoomID:        moved.RoomID(),
		Actor:         principal,
		PreviousStart: previous.Start(),
		PreviousEnd:   previous.End(),
		StartTime:     moved.Slot().Start(),
		EndTime:       moved.Slot().End(),
		OccurredAt:    s.clock.Now(),
	})

	return s.hydrate(ctx, moved)
}

// GetBooking returns one booking with its history.
func (s *BookingService) GetBooking(ctx context.Context, bookingID uuid.UUID) (*BookingDTO, error) {
	bk, err := s.ledger.Get(ctx, s.uow, bookingID)
	if err != nil {
		return nil, err
	}
	return s.hydrate(ctx, bk)
}

// GetBookingHistory returns the audit trail of one booking, newest first.
func (s *BookingService) GetBookingHistory(ctx context.Context, bookingID uuid.UUID) ([]HistoryDTO, error) {
	if _, err := s.ledger.Get(ctx, s.uow, bookingID); err != nil {
		return nil, err
	}
	entries, err := s.uow.History().ListByBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	out := make([]HistoryDTO, len(entries))
	for i, e := range entries {
		out[i] = toHistoryDTO(e)
	}
	return out, nil
}

// ListBookings returns bookings ordered by start time, newest first, each
// with its history embedded.
func (s *BookingService) ListBookings(ctx context.Context, filter booking.ListFilter) ([]BookingDTO, error) {
	bookings, err := s.ledger.ListAll(ctx, s.uow, filter)
	if err != nil {
		return nil, err
	}
	if len(bookings) == 0 {
		return []BookingDTO{}, nil
	}

	ids := make([]uuid.UUID, len(bookings))
	for i, bk := range bookings {
		ids[i] = bk.ID()
	}
	history, err := s.uow.History().ListByBookings(ctx, ids)
	if err != nil {
		return nil, err
	}
	names, err := s.roomNames(ctx)
	if err != nil {
		return nil, err
	}

	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = toBookingDTO(bk, names[bk.RoomID()], history[bk.ID()])
	}
	return dtos, nil
}

// GetBookingStats returns aggregate booking statistics (admin).
func (s *BookingService) GetBookingStats(ctx context.Context) (*BookingStatsDTO, error) {
	counts, err := s.uow.Bookings().CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	var total int64
	for _, c := range counts {
		total += c
	}

	return &BookingStatsDTO{
		TotalBookings: total,
		ByStatus:      counts,
	}, nil
}

func (s *BookingService) hydrate(ctx context.Context, bk *booking.Booking) (*BookingDTO, error) {
	entries, err := s.uow.History().ListByBooking(ctx, bk.ID())
	if err != nil {
		return nil, err
	}
	var name string
	rm, err := s.uow.Rooms().FindByID(ctx, bk.RoomID())
	switch {
	case err == nil:
		name = rm.Name()
	case !apperr.IsCode(err, apperr.CodeRoomNotFound):
		return nil, err
	}
	dto := toBookingDTO(bk, name, entries)
	return &dto, nil
}

func (s *BookingService) roomNames(ctx context.Context) (map[uuid.UUID]string, error) {
	rooms, err := s.uow.Rooms().ListAll(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[uuid.UUID]string, len(rooms))
	for _, rm := range rooms {
		names[rm.ID()] = rm.Name()
	}
	return names, nil
}

func (s *BookingService) publishEvent(ctx context.Context, eventType, key string, data any) {
	if s.publisher == nil {
		return
	}
	cloudEvent, err := events.NewCloudEvent(eventSource, eventType, data)
	if err != nil {
		s.logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}
	cloudEvent.Subject = key

	// The booking is already committed; a publish failure is logged only.
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.publisher.PublishEvent(pubCtx, s.topic, cloudEvent); err != nil {
		s.logger.Error("failed to publish event",
			zap.String("topic", s.topic),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}
