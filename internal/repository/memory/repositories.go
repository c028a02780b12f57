package memory

import (
	"context"
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/roomdesk/service-booking/internal/domain/apperr"
	"github.com/roomdesk/service-booking/internal/domain/booking"
	"github.com/roomdesk/service-booking/internal/domain/interval"
	"github.com/roomdesk/service-booking/internal/domain/room"
)

// --- Rooms ---

type roomRepo struct {
	access access
}

func (r *roomRepo) FindByID(_ context.Context, id uuid.UUID) (*room.Room, error) {
	var out *room.Room
	err := r.access(func(st *state) error {
		rec, ok := st.rooms[id]
		if !ok {
			return apperr.RoomNotFound(id)
		}
		out = toDomainRoom(rec)
		return nil
	})
	return out, err
}

func (r *roomRepo) ListActive(_ context.Context) ([]*room.Room, error) {
	return r.list(func(rec roomRecord) bool { return rec.Active })
}

func (r *roomRepo) ListAll(_ context.Context) ([]*room.Room, error) {
	return r.list(func(roomRecord) bool { return true })
}

func (r *roomRepo) list(keep func(roomRecord) bool) ([]*room.Room, error) {
	var out []*room.Room
	err := r.access(func(st *state) error {
		recs := make([]roomRecord, 0, len(st.rooms))
		for _, rec := range st.rooms {
			if keep(rec) {
				recs = append(recs, rec)
			}
		}
		sort.Slice(recs, func(i, j int) bool { return recs[i].Name < recs[j].Name })
		out = make([]*room.Room, len(recs))
		for i, rec := range recs {
			out[i] = toDomainRoom(rec)
		}
		return nil
	})
	return out, err
}

func (r *roomRepo) Save(_ context.Context, rm *room.Room) error {
	return r.access(func(st *state) error {
		if _, exists := st.rooms[rm.ID()]; exists {
			return errors.Newf("room %s already exists", rm.ID())
		}
		if nameTaken(st, rm.Name(), rm.ID()) {
			return apperr.ErrRoomNameTaken
		}
		st.rooms[rm.ID()] = toRoomRecord(rm)
		return nil
	})
}

func (r *roomRepo) Update(_ context.Context, rm *room.Room) error {
	return r.access(func(st *state) error {
		cur, ok := st.rooms[rm.ID()]
		if !ok {
			return apperr.RoomNotFound(rm.ID())
		}
		if cur.Version != rm.Version()-1 {
			return apperr.ErrConcurrentModification
		}
		if nameTaken(st, rm.Name(), rm.ID()) {
			return apperr.ErrRoomNameTaken
		}
		st.rooms[rm.ID()] = toRoomRecord(rm)
		return nil
	})
}

func nameTaken(st *state, name string, self uuid.UUID) bool {
	for id, rec := range st.rooms {
		if id != self && rec.Name == name {
			return true
		}
	}
	return false
}

// --- Bookings ---

type bookingRepo struct {
	access access
}

func (r *bookingRepo) FindByID(_ context.Context, id uuid.UUID) (*booking.Booking, error) {
	var out *booking.Booking
	err := r.access(func(st *state) error {
		rec, ok := st.bookings[id]
		if !ok {
			return apperr.BookingNotFound(id)
		}
		bk, err := toDomainBooking(rec)
		out = bk
		return err
	})
	return out, err
}

// FindByIDForUpdate is FindByID: a unit already holds the store mutex.
func (r *bookingRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	return r.FindByID(ctx, id)
}

func (r *bookingRepo) ListAll(_ context.Context, filter booking.ListFilter) ([]*booking.Booking, error) {
	var out []*booking.Booking
	err := r.access(func(st *state) error {
		recs := make([]bookingRecord, 0, len(st.bookings))
		for _, rec := range st.bookings {
			if filter.Status != nil && rec.Status != string(*filter.Status) {
				continue
			}
			if filter.RoomID != nil && rec.RoomID != *filter.RoomID {
				continue
			}
			recs = append(recs, rec)
		}
		sort.Slice(recs, func(i, j int) bool {
			if !recs[i].Start.Equal(recs[j].Start) {
				return recs[i].Start.After(recs[j].Start)
			}
			return recs[i].CreatedAt.After(recs[j].CreatedAt)
		})
		out = make([]*booking.Booking, 0, len(recs))
		for _, rec := range recs {
			bk, err := toDomainBooking(rec)
			if err != nil {
				return err
			}
			out = append(out, bk)
		}
		return nil
	})
	return out, err
}

func blocks(rec bookingRecord, slot interval.Interval) bool {
	return booking.BookingStatus(rec.Status).BlocksRoom() &&
		interval.Overlaps(rec.Start, rec.End, slot.Start(), slot.End())
}

func (r *bookingRepo) HasOverlap(_ context.Context, roomID uuid.UUID, slot interval.Interval, excludeID *uuid.UUID) (bool, error) {
	var found bool
	err := r.access(func(st *state) error {
		for _, rec := range st.bookings {
			if rec.RoomID != roomID {
				continue
			}
			if excludeID != nil && rec.ID == *excludeID {
				continue
			}
			if blocks(rec, slot) {
				found = true
				return nil
			}
		}
		return nil
	})
	return found, err
}

func (r *bookingRepo) BookedRoomIDs(_ context.Context, slot interval.Interval) (map[uuid.UUID]struct{}, error) {
	out := map[uuid.UUID]struct{}{}
	err := r.access(func(st *state) error {
		for _, rec := range st.bookings {
			if blocks(rec, slot) {
				out[rec.RoomID] = struct{}{}
			}
		}
		return nil
	})
	return out, err
}

func (r *bookingRepo) CountByStatus(_ context.Context) (map[string]int64, error) {
	counts := make(map[string]int64)
	err := r.access(func(st *state) error {
		for _, rec := range st.bookings {
			counts[rec.Status]++
		}
		return nil
	})
	return counts, err
}

func (r *bookingRepo) Save(_ context.Context, bk *booking.Booking) error {
	return r.access(func(st *state) error {
		if _, ok := st.rooms[bk.RoomID()]; !ok {
			return apperr.RoomNotFound(bk.RoomID())
		}
		if _, exists := st.bookings[bk.ID()]; exists {
			return errors.Newf("booking %s already exists", bk.ID())
		}
		rec := toBookingRecord(bk)
		if err := checkExclusion(st, rec); err != nil {
			return err
		}
		st.bookings[bk.ID()] = rec
		return nil
	})
}

func (r *bookingRepo) Update(_ context.Context, bk *booking.Booking) error {
	return r.access(func(st *state) error {
		cur, ok := st.bookings[bk.ID()]
		if !ok {
			return apperr.BookingNotFound(bk.ID())
		}
		if cur.Version != bk.Version()-1 {
			return apperr.ErrConcurrentModification
		}
		rec := toBookingRecord(bk)
		if err := checkExclusion(st, rec); err != nil {
			return err
		}
		st.bookings[bk.ID()] = rec
		return nil
	})
}

// checkExclusion mirrors the database exclusion constraint: two blocking
// bookings on one room never overlap, whatever the caller checked.
func checkExclusion(st *state, rec bookingRecord) error {
	if !booking.BookingStatus(rec.Status).BlocksRoom() {
		return nil
	}
	slot, err := interval.New(rec.Start, rec.End)
	if err != nil {
		return apperr.ErrInvalidTimeRange
	}
	for id, other := range st.bookings {
		if id == rec.ID || other.RoomID != rec.RoomID {
			continue
		}
		if blocks(other, slot) {
			return apperr.RoomConflict(rec.RoomID, rec.Start, rec.End)
		}
	}
	return nil
}

// --- History ---

type historyRepo struct {
	access access
}

func (r *historyRepo) Append(_ context.Context, e *booking.HistoryEntry) error {
	return r.access(func(st *state) error {
		if _, ok := st.bookings[e.BookingID()]; !ok {
			return apperr.BookingNotFound(e.BookingID())
		}
		st.history = append(st.history, toHistoryRecord(e))
		return nil
	})
}

func (r *historyRepo) ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]*booking.HistoryEntry, error) {
	grouped, err := r.ListByBookings(ctx, []uuid.UUID{bookingID})
	if err != nil {
		return nil, err
	}
	if entries, ok := grouped[bookingID]; ok {
		return entries, nil
	}
	return []*booking.HistoryEntry{}, nil
}

func (r *historyRepo) ListByBookings(_ context.Context, bookingIDs []uuid.UUID) (map[uuid.UUID][]*booking.HistoryEntry, error) {
	want := make(map[uuid.UUID]struct{}, len(bookingIDs))
	for _, id := range bookingIDs {
		want[id] = struct{}{}
	}

	out := make(map[uuid.UUID][]*booking.HistoryEntry, len(bookingIDs))
	err := r.access(func(st *state) error {
		// Walk newest-appended first so equal timestamps keep reverse insertion order.
		for i := len(st.history) - 1; i >= 0; i-- {
			rec := st.history[i]
			if _, ok := want[rec.BookingID]; !ok {
				continue
			}
			e, err := toDomainHistory(rec)
			if err != nil {
				return err
			}
			out[rec.BookingID] = append(out[rec.BookingID], e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for id := range out {
		entries := out[id]
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].Timestamp().After(entries[j].Timestamp())
		})
	}
	return out, nil
}

// --- Conversion Helpers ---

func toRoomRecord(rm *room.Room) roomRecord {
	return roomRecord{
		ID:          rm.ID(),
		Name:        rm.Name(),
		Capacity:    rm.Capacity(),
		Description: rm.Description(),
		Active:      rm.Active(),
		Version:     rm.Version(),
		CreatedAt:   rm.CreatedAt(),
		UpdatedAt:   rm.UpdatedAt(),
	}
}

func toDomainRoom(rec roomRecord) *room.Room {
	return room.ReconstructRoom(
		rec.ID,
		rec.Name,
		rec.Capacity,
		rec.Description,
		rec.Active,
		rec.Version,
		rec.CreatedAt,
		rec.UpdatedAt,
	)
}

func toBookingRecord(bk *booking.Booking) bookingRecord {
	return bookingRecord{
		ID:          bk.ID(),
		RoomID:      bk.RoomID(),
		Principal:   bk.Principal(),
		Start:       bk.Slot().Start(),
		End:         bk.Slot().End(),
		Status:      string(bk.Status()),
		Purpose:     bk.Purpose(),
		CancelledAt: bk.CancelledAt(),
		Version:     bk.Version(),
		CreatedAt:   bk.CreatedAt(),
		UpdatedAt:   bk.UpdatedAt(),
	}
}

func toDomainBooking(rec bookingRecord) (*booking.Booking, error) {
	status, err := booking.ParseBookingStatus(rec.Status)
	if err != nil {
		return nil, err
	}
	slot, err := interval.New(rec.Start, rec.End)
	if err != nil {
		return nil, errors.Wrapf(err, "stored booking %s has invalid range", rec.ID)
	}
	return booking.ReconstructBooking(
		rec.ID,
		rec.RoomID,
		rec.Principal,
		slot,
		status,
		rec.Purpose,
		rec.CancelledAt,
		rec.Version,
		rec.CreatedAt,
		rec.UpdatedAt,
	), nil
}

func toHistoryRecord(e *booking.HistoryEntry) historyRecord {
	return historyRecord{
		ID:            e.ID(),
		BookingID:     e.BookingID(),
		Action:        string(e.Action()),
		Actor:         e.Actor(),
		Timestamp:     e.Timestamp(),
		Notes:         e.Notes(),
		PreviousStart: e.PreviousStart(),
		PreviousEnd:   e.PreviousEnd(),
	}
}

func toDomainHistory(rec historyRecord) (*booking.HistoryEntry, error) {
	action, err := booking.ParseHistoryAction(rec.Action)
	if err != nil {
		return nil, err
	}
	return booking.ReconstructHistoryEntry(
		rec.ID,
		rec.BookingID,
		action,
		rec.Actor,
		rec.Timestamp,
		rec.Notes,
		rec.PreviousStart,
		rec.PreviousEnd,
	), nil
}
