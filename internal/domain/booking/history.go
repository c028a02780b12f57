package booking

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/roomdesk/service-booking/internal/domain/interval"
)

// HistoryAction names a recorded lifecycle event.
type HistoryAction string

const (
	ActionCreated   HistoryAction = "created"
	ActionUpdated   HistoryAction = "updated"
	ActionCancelled HistoryAction = "cancelled"
)

// IsValid returns true for known actions.
func (a HistoryAction) IsValid() bool {
	switch a {
	case ActionCreated, ActionUpdated, ActionCancelled:
		return true
	}
	return false
}

// ParseHistoryAction converts a string to a HistoryAction.
func ParseHistoryAction(s string) (HistoryAction, error) {
	a := HistoryAction(s)
	if !a.IsValid() {
		return "", fmt.Errorf("invalid history action: %s", s)
	}
	return a, nil
}

// HistoryEntry is an immutable audit record attached to a booking.
type HistoryEntry struct {
	id            uuid.UUID
	bookingID     uuid.UUID
	action        HistoryAction
	actor         *string
	timestamp     time.Time
	notes         string
	previousStart *time.Time
	previousEnd   *time.Time
}

// NewHistoryEntry builds an entry stamped at the given instant. previous is
// only kept for updated and cancelled actions.
func NewHistoryEntry(
	bookingID uuid.UUID,
	action HistoryAction,
	actor *string,
	notes string,
	previous *interval.Interval,
	at time.Time,
) (*HistoryEntry, error) {
	if !action.IsValid() {
		return nil, fmt.Errorf("invalid history action: %s", action)
	}

	e := &HistoryEntry{
		id:        uuid.New(),
		bookingID: bookingID,
		action:    action,
		actor:     actor,
		timestamp: at.UTC(),
		notes:     notes,
	}
	if previous != nil && action != ActionCreated {
		start, end := previous.Start(), previous.End()
		e.previousStart = &start
		e.previousEnd = &end
	}
	return e, nil
}

// ReconstructHistoryEntry rebuilds an entry from persistence data.
func ReconstructHistoryEntry(
	id uuid.UUID,
	bookingID uuid.UUID,
	action HistoryAction,
	actor *string,
	timestamp time.Time,
	notes string,
	previousStart *time.Time,
	previousEnd *time.Time,
) *HistoryEntry {
	return &HistoryEntry{
		id:            id,
		bookingID:     bookingID,
		action:        action,
		actor:         actor,
		timestamp:     timestamp,
		notes:         notes,
		previousStart: previousStart,
		previousEnd:   previousEnd,
	}
}

func (h *HistoryEntry) ID() uuid.UUID             { return h.id }
func (h *HistoryEntry) BookingID() uuid.UUID      { return h.bookingID }
func (h *HistoryEntry) Action() HistoryAction     { return h.action }
func (h *HistoryEntry) Actor() *string            { return h.actor }
func (h *HistoryEntry) Timestamp() time.Time      { return h.timestamp }
func (h *HistoryEntry) Notes() string             { return h.notes }
func (h *HistoryEntry) PreviousStart() *time.Time { return h.previousStart }
func (h *HistoryEntry) PreviousEnd() *time.Time   { return h.previousEnd }
