package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/roomdesk/service-booking/internal/domain/apperr"
	bookingDomain "github.com/roomdesk/service-booking/internal/domain/booking"
	"github.com/roomdesk/service-booking/internal/domain/interval"
	"github.com/roomdesk/service-booking/internal/pkg/errs"
)

// BookingModel is the GORM model for the bookings table.
type BookingModel struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	RoomID      uuid.UUID  `gorm:"type:uuid;index;not null"`
	Principal   *string    `gorm:"size:255"`
	StartTime   time.Time  `gorm:"type:timestamptz;not null"`
	EndTime     time.Time  `gorm:"type:timestamptz;not null"`
	Status      string     `gorm:"not null;size:20;index"`
	Purpose     string     `gorm:"type:text;not null;default:''"`
	CancelledAt *time.Time `gorm:"type:timestamptz"`
	Version     int64      `gorm:"not null;default:1"`
	CreatedAt   time.Time  `gorm:"type:timestamptz;not null"`
	UpdatedAt   time.Time  `gorm:"type:timestamptz;not null"`
}

// TableName returns the table name for the GORM model.
func (BookingModel) TableName() string {
	return "bookings"
}

// GormBookingRepository is the GORM-based implementation of BookingRepository.
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository.
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// FindByID retrieves a booking by its unique identifier.
func (r *GormBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	return r.find(r.db.WithContext(ctx), id)
}

// FindByIDForUpdate retrieves a booking and locks its row until the
// surrounding transaction ends.
func (r *GormBookingRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	return r.find(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *GormBookingRepository) find(db *gorm.DB, id uuid.UUID) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := db.Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.BookingNotFound(id)
		}
		return nil, errs.Wrap(err, "failed to find booking by ID")
	}
	return toDomainBooking(&model)
}

// ListAll retrieves bookings ordered by start time, newest first.
func (r *GormBookingRepository) ListAll(ctx context.Context, filter bookingDomain.ListFilter) ([]*bookingDomain.Booking, error) {
	query := r.db.WithContext(ctx)
	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}
	if filter.RoomID != nil {
		query = query.Where("room_id = ?", *filter.RoomID)
	}

	var models []BookingModel
	if err := query.Order("start_time DESC").Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, errs.Wrap(err, "failed to list bookings")
	}

	bookings := make([]*bookingDomain.Booking, len(models))
	for i, m := range models {
		bk, err := toDomainBooking(&m)
		if err != nil {
			return nil, err
		}
		bookings[i] = bk
	}
	return bookings, nil
}

// blockingOverlap restricts a query to pending or confirmed bookings whose
// range intersects slot. Touching ranges do not intersect.
func blockingOverlap(db *gorm.DB, slot interval.Interval) *gorm.DB {
	return db.Model(&BookingModel{}).
		Where("status IN ?", blockingStatusValues()).
		Where("start_time < ? AND end_time > ?", slot.End(), slot.Start())
}

// HasOverlap reports whether a blocking booking on roomID intersects slot,
// ignoring excludeID when set.
func (r *GormBookingRepository) HasOverlap(ctx context.Context, roomID uuid.UUID, slot interval.Interval, excludeID *uuid.UUID) (bool, error) {
	query := blockingOverlap(r.db.WithContext(ctx), slot).Where("room_id = ?", roomID)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, errs.Wrap(err, "failed to check booking overlap")
	}
	return count > 0, nil
}

// BookedRoomIDs returns the set of rooms holding a blocking booking that
// intersects slot.
func (r *GormBookingRepository) BookedRoomIDs(ctx context.Context, slot interval.Interval) (map[uuid.UUID]struct{}, error) {
	var ids []uuid.UUID
	if err := blockingOverlap(r.db.WithContext(ctx), slot).
		Distinct("room_id").
		Pluck("room_id", &ids).Error; err != nil {
		return nil, errs.Wrap(err, "failed to list booked rooms")
	}

	booked := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		booked[id] = struct{}{}
	}
	return booked, nil
}

// CountByStatus returns booking counts grouped by status (admin).
func (r *GormBookingRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var results []statusCount
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&results).Error; err != nil {
		return nil, errs.Wrap(err, "failed to count by status")
	}

	counts := make(map[string]int64)
	for _, sc := range results {
		counts[sc.Status] = sc.Count
	}
	return counts, nil
}

// Save persists a new booking.
func (r *GormBookingRepository) Save(ctx context.Context, bk *bookingDomain.Booking) error {
	model := toBookingModel(bk)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return translateBookingWrite(err, bk, "failed to save booking")
	}
	return nil
}

// Update persists changes to an existing booking with optimistic locking.
func (r *GormBookingRepository) Update(ctx context.Context, bk *bookingDomain.Booking) error {
	model := toBookingModel(bk)

	// IncrementVersion was already called, so the stored row holds Version()-1.
	expectedVersion := bk.Version() - 1
	result := r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]any{
			"start_time":   model.StartTime,
			"end_time":     model.EndTime,
			"status":       model.Status,
			"purpose":      model.Purpose,
			"cancelled_at": model.CancelledAt,
			"version":      model.Version,
			"updated_at":   model.UpdatedAt,
		})

	if result.Error != nil {
		return translateBookingWrite(result.Error, bk, "failed to update booking")
	}
	if result.RowsAffected == 0 {
		return apperr.ErrConcurrentModification
	}
	return nil
}

// translateBookingWrite maps the exclusion constraint to a room conflict so
// callers see the same error whichever guard caught the overlap.
func translateBookingWrite(err error, bk *bookingDomain.Booking, msg string) error {
	if isExclusionViolation(err) {
		return apperr.RoomConflict(bk.RoomID(), bk.Slot().Start(), bk.Slot().End())
	}
	return errs.Wrap(err, msg)
}

func blockingStatusValues() []string {
	statuses := bookingDomain.BlockingStatuses()
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

// --- Conversion Helpers ---

func toBookingModel(bk *bookingDomain.Booking) *BookingModel {
	return &BookingModel{
		ID:          bk.ID(),
		RoomID:      bk.RoomID(),
		Principal:   bk.Principal(),
		StartTime:   bk.Slot().Start(),
		EndTime:     bk.Slot().End(),
		Status:      string(bk.Status()),
		Purpose:     bk.Purpose(),
		CancelledAt: bk.CancelledAt(),
		Version:     bk.Version(),
		CreatedAt:   bk.CreatedAt(),
		UpdatedAt:   bk.UpdatedAt(),
	}
}

func toDomainBooking(m *BookingModel) (*bookingDomain.Booking, error) {
	status, err := bookingDomain.ParseBookingStatus(m.Status)
	if err != nil {
		return nil, err
	}
	slot, err := interval.New(m.StartTime, m.EndTime)
	if err != nil {
		return nil, errs.Wrapf(err, "stored booking %s has invalid range", m.ID)
	}

	return bookingDomain.ReconstructBooking(
		m.ID,
		m.RoomID,
		m.Principal,
		slot,
		status,
		m.Purpose,
		utcPtr(m.CancelledAt),
		m.Version,
		m.CreatedAt.UTC(),
		m.UpdatedAt.UTC(),
	), nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
