package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/roomdesk/service-booking/internal/domain/apperr"
	roomDomain "github.com/roomdesk/service-booking/internal/domain/room"
	"github.com/roomdesk/service-booking/internal/pkg/errs"
)

// RoomModel is the GORM model for the meeting_rooms table.
type RoomModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name        string    `gorm:"type:varchar(100);not null;uniqueIndex"`
	Capacity    int       `gorm:"not null"`
	Description string    `gorm:"type:text;not null;default:''"`
	IsActive    bool      `gorm:"not null;default:true;index"`
	Version     int64     `gorm:"not null;default:1"`
	CreatedAt   time.Time `gorm:"type:timestamptz;not null"`
	UpdatedAt   time.Time `gorm:"type:timestamptz;not null"`
}

func (RoomModel) TableName() string { return "meeting_rooms" }

// GormRoomRepository implements RoomRepository using GORM.
type GormRoomRepository struct {
	db *gorm.DB
}

func NewGormRoomRepository(db *gorm.DB) *GormRoomRepository {
	return &GormRoomRepository{db: db}
}

func (r *GormRoomRepository) FindByID(ctx context.Context, id uuid.UUID) (*roomDomain.Room, error) {
	return r.find(r.db.WithContext(ctx), id)
}

// findForUpdate takes a row lock held until the surrounding transaction ends.
func (r *GormRoomRepository) findForUpdate(ctx context.Context, id uuid.UUID) (*roomDomain.Room, error) {
	return r.find(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *GormRoomRepository) find(db *gorm.DB, id uuid.UUID) (*roomDomain.Room, error) {
	var model RoomModel
	if err := db.Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.RoomNotFound(id)
		}
		return nil, errs.Wrap(err, "failed to find room by ID")
	}
	return toRoomDomain(&model), nil
}

func (r *GormRoomRepository) ListActive(ctx context.Context) ([]*roomDomain.Room, error) {
	return r.list(r.db.WithContext(ctx).Where("is_active = ?", true))
}

func (r *GormRoomRepository) ListAll(ctx context.Context) ([]*roomDomain.Room, error) {
	return r.list(r.db.WithContext(ctx))
}

func (r *GormRoomRepository) list(db *gorm.DB) ([]*roomDomain.Room, error) {
	var models []RoomModel
	if err := db.Order("name ASC").Find(&models).Error; err != nil {
		return nil, errs.Wrap(err, "failed to list rooms")
	}
	rooms := make([]*roomDomain.Room, len(models))
	for i, m := range models {
		rooms[i] = toRoomDomain(&m)
	}
	return rooms, nil
}

func (r *GormRoomRepository) Save(ctx context.Context, rm *roomDomain.Room) error {
	model := toRoomModel(rm)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if isRoomNameTaken(err) {
			return apperr.ErrRoomNameTaken
		}
		return errs.Wrap(err, "failed to save room")
	}
	return nil
}

func (r *GormRoomRepository) Update(ctx context.Context, rm *roomDomain.Room) error {
	model := toRoomModel(rm)
	previousVersion := rm.Version() - 1

	result := r.db.WithContext(ctx).
		Model(&RoomModel{}).
		Where("id = ? AND version = ?", model.ID, previousVersion).
		Updates(map[string]any{
			"name":        model.Name,
			"capacity":    model.Capacity,
			"description": model.Description,
			"is_active":   model.IsActive,
			"version":     model.Version,
			"updated_at":  model.UpdatedAt,
		})

	if result.Error != nil {
		if isRoomNameTaken(result.Error) {
			return apperr.ErrRoomNameTaken
		}
		return errs.Wrap(result.Error, "failed to update room")
	}
	if result.RowsAffected == 0 {
		return apperr.ErrConcurrentModification
	}
	return nil
}

// --- Conversions ---

func toRoomModel(rm *roomDomain.Room) *RoomModel {
	return &RoomModel{
		ID:          rm.ID(),
		Name:        rm.Name(),
		Capacity:    rm.Capacity(),
		Description: rm.Description(),
		IsActive:    rm.Active(),
		Version:     rm.Version(),
		CreatedAt:   rm.CreatedAt(),
		UpdatedAt:   rm.UpdatedAt(),
	}
}

func toRoomDomain(m *RoomModel) *roomDomain.Room {
	return roomDomain.ReconstructRoom(
		m.ID,
		m.Name, m.Capacity, m.Description,
		m.IsActive,
		m.Version,
		m.CreatedAt.UTC(), m.UpdatedAt.UTC(),
	)
}
