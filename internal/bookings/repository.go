package bookings

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrBookingNotFound = errors.New("booking not found")

type Repository interface {
	CreateBooking(ctx context.Context, booking *Booking) error
	GetBookingByID(ctx context.Context, id uint) (*Booking, error)
	GetUserBookings(ctx context.Context, userID uint, limit, offset int) ([]Booking, error)

	// CancelConfirmedBooking flips a confirmed booking to cancelled and
	// writes the cancellation audit row in one transaction.
	CancelConfirmedBooking(ctx context.Context, id uint, reason string) error

	// ConfirmBookingTx marks a booking confirmed inside the caller's
	// transaction. Used by payment settlement only.
	ConfirmBookingTx(tx *gorm.DB, id uint) error

	// GetBookingForUpdateTx loads a booking and its lines under an exclusive
	// lock inside the caller's transaction.
	GetBookingForUpdateTx(tx *gorm.DB, id uint) (*Booking, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateBooking(ctx context.Context, booking *Booking) error {
	return r.db.WithContext(ctx).Create(booking).Error
}

func (r *repository) GetBookingByID(ctx context.Context, id uint) (*Booking, error) {
	var booking Booking
	err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("id = ?", id).
		First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return &booking, nil
}

func (r *repository) GetUserBookings(ctx context.Context, userID uint, limit, offset int) ([]Booking, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	var bookings []Booking
	err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&bookings).Error

	return bookings, err
}

func (r *repository) CancelConfirmedBooking(ctx context.Context, id uint, reason string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()

		// Guard the transition in the WHERE clause so two concurrent cancels
		// cannot both write an audit row
		result := tx.Model(&Booking{}).
			Where("id = ? AND status = ?", id, StatusConfirmed).
			Updates(map[string]interface{}{
				"status":       StatusCancelled,
				"cancelled_at": now,
				"updated_at":   now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			// Lost the race to a concurrent cancel or state change. Re-read
			// inside the transaction to tell a missing booking apart.
			var current Booking
			if err := tx.Where("id = ?", id).First(&current).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrBookingNotFound
				}
				return err
			}
			return ErrInvalidState
		}

		return tx.Create(&Cancellation{
			BookingID:   id,
			CancelledAt: now,
			Reason:      reason,
		}).Error
	})
}

func (r *repository) ConfirmBookingTx(tx *gorm.DB, id uint) error {
	result := tx.Model(&Booking{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     StatusConfirmed,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrBookingNotFound
	}
	return nil
}

func (r *repository) GetBookingForUpdateTx(tx *gorm.DB, id uint) (*Booking, error) {
	var booking Booking
	err := tx.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Lines").
		Where("id = ?", id).
		First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return &booking, nil
}
