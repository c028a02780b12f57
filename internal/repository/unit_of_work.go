package repository

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/binary"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/roomdesk/service-booking/internal/application"
	"github.com/roomdesk/service-booking/internal/domain/booking"
	"github.com/roomdesk/service-booking/internal/domain/room"
	"github.com/roomdesk/service-booking/internal/pkg/errs"
)

const (
	maxTxRetries  = 3
	txBackoffBase = 50 * time.Millisecond
)

// GormUnitOfWork runs units of work in Postgres read-committed transactions.
// Writers on one room serialise on its row lock; the exclusion constraint on
// bookings catches anything that slips past it.
type GormUnitOfWork struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewGormUnitOfWork creates a GormUnitOfWork.
func NewGormUnitOfWork(db *gorm.DB, logger *zap.Logger) *GormUnitOfWork {
	return &GormUnitOfWork{db: db, logger: logger}
}

func (u *GormUnitOfWork) Rooms() room.RoomRepository { return NewGormRoomRepository(u.db) }

func (u *GormUnitOfWork) Bookings() booking.BookingRepository {
	return NewGormBookingRepository(u.db)
}

func (u *GormUnitOfWork) History() booking.HistoryRepository {
	return NewGormHistoryRepository(u.db)
}

// Within runs fn in a transaction, retrying on serialization failures and
// deadlocks with jittered exponential backoff.
func (u *GormUnitOfWork) Within(ctx context.Context, fn func(ctx context.Context, tx application.Tx) error) error {
	for attempt := 0; ; attempt++ {
		err := u.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
			return fn(ctx, &gormTx{db: db})
		}, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
		if err == nil {
			return nil
		}

		if !isRetryableError(err) {
			return err
		}
		if attempt == maxTxRetries {
			u.logger.Error("transaction failed after max retries",
				zap.Int("attempts", attempt+1),
				zap.Error(err),
			)
			return errs.Mark(err, errs.ErrMaxRetries)
		}

		wait := calculateBackoff(attempt, txBackoffBase)
		u.logger.Warn("retrying transaction",
			zap.Int("attempt", attempt+1),
			zap.Int64("wait_ms", wait.Milliseconds()),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// Ping checks database connectivity for the readiness probe.
func (u *GormUnitOfWork) Ping(ctx context.Context) error {
	sqlDB, err := u.db.DB()
	if err != nil {
		return errs.Mark(err, errs.ErrDatabase)
	}
	return sqlDB.PingContext(ctx)
}

type gormTx struct {
	db *gorm.DB
}

func (t *gormTx) Rooms() room.RoomRepository { return NewGormRoomRepository(t.db) }

func (t *gormTx) Bookings() booking.BookingRepository { return NewGormBookingRepository(t.db) }

func (t *gormTx) History() booking.HistoryRepository { return NewGormHistoryRepository(t.db) }

// LockRoom takes SELECT ... FOR UPDATE on the room row.
func (t *gormTx) LockRoom(ctx context.Context, roomID uuid.UUID) (*room.Room, error) {
	return NewGormRoomRepository(t.db).findForUpdate(ctx, roomID)
}

func calculateBackoff(attempt int, base time.Duration) time.Duration {
	wait := time.Duration(1<<attempt) * base
	return wait + time.Duration(cryptoRandInt63n(int64(wait/5)))
}

func cryptoRandInt63n(n int64) int64 {
	if n <= 0 {
		return 0
	}
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0
	}
	// #nosec G115 -- high bit masked off
	return int64(binary.BigEndian.Uint64(buf[:])&0x7FFFFFFFFFFFFFFF) % n
}

var (
	_ application.UnitOfWork = (*GormUnitOfWork)(nil)
	_ application.Tx         = (*gormTx)(nil)
)
