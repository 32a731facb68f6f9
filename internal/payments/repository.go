package payments

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

var ErrPaymentNotFound = errors.New("payment not found")

type Repository interface {
	// CreateTx inserts a payment row inside the caller's transaction.
	CreateTx(tx *gorm.DB, payment *Payment) error

	GetByOrderCode(ctx context.Context, orderCode int64) (*Payment, error)
	GetByBookingID(ctx context.Context, bookingID uint) (*Payment, error)

	// CompletePendingTx flips a pending payment to completed inside the
	// caller's transaction. Returns false when the payment was not pending,
	// which is how replayed callbacks are detected.
	CompletePendingTx(tx *gorm.DB, orderCode int64, paidAt time.Time) (bool, error)

	// FailPending flips a pending payment to failed. Returns false when the
	// payment was not pending.
	FailPending(ctx context.Context, orderCode int64) (bool, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateTx(tx *gorm.DB, payment *Payment) error {
	return tx.Create(payment).Error
}

func (r *repository) GetByOrderCode(ctx context.Context, orderCode int64) (*Payment, error) {
	var payment Payment
	err := r.db.WithContext(ctx).
		Where("order_code = ?", orderCode).
		First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return &payment, nil
}

func (r *repository) GetByBookingID(ctx context.Context, bookingID uint) (*Payment, error) {
	var payment Payment
	err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("created_at DESC").
		First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return &payment, nil
}

func (r *repository) CompletePendingTx(tx *gorm.DB, orderCode int64, paidAt time.Time) (bool, error) {
	// The status guard in the WHERE clause makes the transition race-free:
	// of two concurrent callbacks only one sees RowsAffected == 1
	result := tx.Model(&Payment{}).
		Where("order_code = ? AND status = ?", orderCode, StatusPending).
		Updates(map[string]interface{}{
			"status":     StatusCompleted,
			"paid_at":    paidAt,
			"updated_at": paidAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) FailPending(ctx context.Context, orderCode int64) (bool, error) {
	result := r.db.WithContext(ctx).Model(&Payment{}).
		Where("order_code = ? AND status = ?", orderCode, StatusPending).
		Updates(map[string]interface{}{
			"status":     StatusFailed,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
