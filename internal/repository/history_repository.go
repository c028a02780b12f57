package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	bookingDomain "github.com/roomdesk/service-booking/internal/domain/booking"
	"github.com/roomdesk/service-booking/internal/pkg/errs"
)

// HistoryModel is the GORM model for the booking_history table.
type HistoryModel struct {
	ID                uuid.UUID  `gorm:"type:uuid;primaryKey"`
	BookingID         uuid.UUID  `gorm:"type:uuid;not null;index"`
	Action            string     `gorm:"type:varchar(20);not null"`
	Actor             *string    `gorm:"size:255"`
	Timestamp         time.Time  `gorm:"type:timestamptz;not null"`
	Notes             string     `gorm:"type:text;not null;default:''"`
	PreviousStartTime *time.Time `gorm:"type:timestamptz"`
	PreviousEndTime   *time.Time `gorm:"type:timestamptz"`
}

// TableName sets the table name.
func (HistoryModel) TableName() string { return "booking_history" }

// GormHistoryRepository implements HistoryRepository using GORM.
type GormHistoryRepository struct {
	db *gorm.DB
}

// NewGormHistoryRepository creates a new GormHistoryRepository.
func NewGormHistoryRepository(db *gorm.DB) *GormHistoryRepository {
	return &GormHistoryRepository{db: db}
}

// Append persists a history entry. Entries are never updated.
func (r *GormHistoryRepository) Append(ctx context.Context, entry *bookingDomain.HistoryEntry) error {
	model := toHistoryModel(entry)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return errs.Wrap(err, "failed to append booking history")
	}
	return nil
}

// ListByBooking returns the entries of one booking, newest first.
func (r *GormHistoryRepository) ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]*bookingDomain.HistoryEntry, error) {
	var models []HistoryModel
	if err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("timestamp DESC").
		Find(&models).Error; err != nil {
		return nil, errs.Wrap(err, "failed to list booking history")
	}

	entries := make([]*bookingDomain.HistoryEntry, 0, len(models))
	for _, m := range models {
		e, err := toHistoryDomain(&m)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// ListByBookings loads the history of many bookings in one query, grouped by
// booking and newest first within each group.
func (r *GormHistoryRepository) ListByBookings(ctx context.Context, bookingIDs []uuid.UUID) (map[uuid.UUID][]*bookingDomain.HistoryEntry, error) {
	grouped := make(map[uuid.UUID][]*bookingDomain.HistoryEntry, len(bookingIDs))
	if len(bookingIDs) == 0 {
		return grouped, nil
	}

	var models []HistoryModel
	if err := r.db.WithContext(ctx).
		Where("booking_id IN ?", bookingIDs).
		Order("timestamp DESC").
		Find(&models).Error; err != nil {
		return nil, errs.Wrap(err, "failed to list booking history")
	}

	for _, m := range models {
		e, err := toHistoryDomain(&m)
		if err != nil {
			return nil, err
		}
		grouped[m.BookingID] = append(grouped[m.BookingID], e)
	}
	return grouped, nil
}

func toHistoryModel(e *bookingDomain.HistoryEntry) HistoryModel {
	return HistoryModel{
		ID:                e.ID(),
		BookingID:         e.BookingID(),
		Action:            string(e.Action()),
		Actor:             e.Actor(),
		Timestamp:         e.Timestamp(),
		Notes:             e.Notes(),
		PreviousStartTime: e.PreviousStart(),
		PreviousEndTime:   e.PreviousEnd(),
	}
}

func toHistoryDomain(m *HistoryModel) (*bookingDomain.HistoryEntry, error) {
	action, err := bookingDomain.ParseHistoryAction(m.Action)
	if err != nil {
		return nil, err
	}
	return bookingDomain.ReconstructHistoryEntry(
		m.ID,
		m.BookingID,
		action,
		m.Actor,
		m.Timestamp.UTC(),
		m.Notes,
		utcPtr(m.PreviousStartTime),
		utcPtr(m.PreviousEndTime),
	), nil
}
