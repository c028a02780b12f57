package application

import (
	"context"

	"github.com/google/uuid"

	"github.com/roomdesk/service-booking/internal/domain/booking"
	"github.com/roomdesk/service-booking/internal/domain/interval"
	"github.com/roomdesk/service-booking/internal/pkg/clock"
	"github.com/roomdesk/service-booking/internal/pkg/errs"
)

// Default history notes.
const (
	NoteCreated     = "Booking created"
	NoteCancelled   = "Cancelled via API"
	NoteRescheduled = "Rescheduled via API"
)

// HistoryRecorder appends audit entries inside the caller's unit of work.
type HistoryRecorder struct {
	clock clock.Clock
}

// NewHistoryRecorder creates a HistoryRecorder.
func NewHistoryRecorder(c clock.Clock) *HistoryRecorder {
	return &HistoryRecorder{clock: c}
}

// Record appends one entry. previous is the range before the change and is
// ignored for created entries.
func (r *HistoryRecorder) Record(
	ctx context.Context,
	repo booking.HistoryRepository,
	bookingID uuid.UUID,
	action booking.HistoryAction,
	actor *string,
	notes string,
	previous *interval.Interval,
) (*booking.HistoryEntry, error) {
	entry, err := booking.NewHistoryEntry(bookingID, action, actor, notes, previous, r.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := repo.Append(ctx, entry); err != nil {
		return nil, errs.Wrap(err, "append history entry")
	}
	return entry, nil
}
