package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"thticket/internal/bookings"
	"thticket/internal/inventory"
	"thticket/internal/notifications"
	"thticket/pkg/logger"
)

var (
	ErrForbidden      = errors.New("booking does not belong to user")
	ErrInvalidState   = errors.New("booking is not payable in its current state")
	ErrEmptyLines     = errors.New("booking has no ticket lines")
	ErrInvalidAmount  = errors.New("payment amount must be positive")
	ErrAmountMismatch = errors.New("client amount does not match booking total")
)

type Service interface {
	// Initiate opens a checkout session for a pending booking. Stock is
	// checked but not decremented; the decrement happens at settlement.
	Initiate(ctx context.Context, userID uint, req InitiateRequest) (*PaymentSession, error)

	// SettleSuccess handles the gateway success callback for an order code.
	// Safe to call any number of times; only the first call settles.
	SettleSuccess(ctx context.Context, orderCode int64) (*SettlementResult, error)

	// SettleFailure handles the gateway cancel/failure callback. A payment
	// that already completed is never downgraded.
	SettleFailure(ctx context.Context, orderCode int64) (*SettlementResult, error)

	GetByOrderCode(ctx context.Context, orderCode int64) (*Payment, error)
}

type service struct {
	db          *gorm.DB
	repo        Repository
	bookingRepo bookings.Repository
	gateway     Gateway
	producer    notifications.Producer
	log         *logger.Logger
}

func NewService(db *gorm.DB, repo Repository, bookingRepo bookings.Repository, gateway Gateway, producer notifications.Producer) Service {
	return &service{
		db:          db,
		repo:        repo,
		bookingRepo: bookingRepo,
		gateway:     gateway,
		producer:    producer,
		log:         logger.GetDefault(),
	}
}

// ParseAmount converts a decimal amount string to integer minor units,
// truncating any fractional part toward zero.
func ParseAmount(raw string) (int64, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", raw, err)
	}
	truncated := d.IntPart()
	if truncated <= 0 {
		return 0, ErrInvalidAmount
	}
	return truncated, nil
}

func (s *service) Initiate(ctx context.Context, userID uint, req InitiateRequest) (*PaymentSession, error) {
	orderCode := OrderCodeForBooking(req.BookingID)

	var payment *Payment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		booking, err := s.bookingRepo.GetBookingForUpdateTx(tx, req.BookingID)
		if err != nil {
			return err
		}
		if booking.UserID != userID {
			return ErrForbidden
		}
		if !booking.IsPending() {
			return ErrInvalidState
		}
		if len(booking.Lines) == 0 {
			return ErrEmptyLines
		}

		amount := booking.TotalAmount()
		if amount <= 0 {
			return ErrInvalidAmount
		}

		// Clients may echo the total they quoted; fractional digits are
		// dropped before comparison
		if req.Amount != "" {
			quoted, err := ParseAmount(req.Amount)
			if err != nil {
				return err
			}
			if quoted != amount {
				return ErrAmountMismatch
			}
		}

		existing := &Payment{}
		findErr := tx.Where("order_code = ?", orderCode).First(existing).Error
		switch {
		case findErr == nil:
			// A session already exists for this booking. Completed or failed
			// payments are terminal; pending ones get a fresh checkout link.
			if existing.Status != StatusPending {
				return ErrInvalidState
			}
			payment = existing
		case errors.Is(findErr, gorm.ErrRecordNotFound):
			payment = &Payment{
				BookingID: booking.ID,
				Amount:    amount,
				Method:    "payos",
				Status:    StatusPending,
				OrderCode: orderCode,
			}
			if err := s.repo.CreateTx(tx, payment); err != nil {
				return err
			}
		default:
			return findErr
		}

		// Fail fast when current stock cannot cover the booking. This holds
		// no reservation; settlement re-validates under lock.
		return inventory.ReserveCheck(tx, booking.TicketQuantities())
	})
	if err != nil {
		return nil, err
	}

	// Gateway call happens outside the transaction so a slow provider never
	// holds row locks
	description := fmt.Sprintf("Booking #%d", payment.BookingID)
	checkoutURL, err := s.gateway.CreateCheckout(ctx, payment.OrderCode, payment.Amount, description)
	if err != nil {
		return nil, fmt.Errorf("failed to open checkout session: %w", err)
	}

	s.log.LogPaymentInitiated(ctx, payment.BookingID, payment.OrderCode, payment.Amount)

	return &PaymentSession{
		PaymentID:   payment.ID,
		BookingID:   payment.BookingID,
		OrderCode:   payment.OrderCode,
		Amount:      payment.Amount,
		CheckoutURL: checkoutURL,
	}, nil
}

func (s *service) SettleSuccess(ctx context.Context, orderCode int64) (*SettlementResult, error) {
	payment, err := s.repo.GetByOrderCode(ctx, orderCode)
	if err != nil {
		return nil, err
	}

	// Replayed callback for a settled payment: acknowledge, change nothing
	if payment.IsCompleted() {
		return &SettlementResult{
			OrderCode:   orderCode,
			BookingID:   payment.BookingID,
			Status:      StatusCompleted,
			AlreadyDone: true,
		}, nil
	}

	var booking *bookings.Booking
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()

		flipped, err := s.repo.CompletePendingTx(tx, orderCode, now)
		if err != nil {
			return err
		}
		if !flipped {
			// Lost the race to another callback, or the payment was already
			// failed. Re-read inside the transaction to tell which.
			var current Payment
			if err := tx.Where("order_code = ?", orderCode).First(&current).Error; err != nil {
				return err
			}
			if current.IsCompleted() {
				return nil
			}
			return ErrInvalidState
		}

		booking, err = s.bookingRepo.GetBookingForUpdateTx(tx, payment.BookingID)
		if err != nil {
			return err
		}

		// Stock leaves the ledger here, not at booking time. If it ran out
		// since the quote, the whole settlement rolls back.
		if err := inventory.Decrement(tx, booking.TicketQuantities()); err != nil {
			return err
		}

		return s.bookingRepo.ConfirmBookingTx(tx, booking.ID)
	})
	if err != nil {
		s.log.LogSettlementError(ctx, orderCode, err)
		return nil, err
	}

	if booking == nil {
		// Concurrent callback already settled inside its own transaction
		return &SettlementResult{
			OrderCode:   orderCode,
			BookingID:   payment.BookingID,
			Status:      StatusCompleted,
			AlreadyDone: true,
		}, nil
	}

	s.log.LogPaymentSettled(ctx, orderCode, string(StatusCompleted))
	s.publishConfirmation(ctx, booking, payment)

	return &SettlementResult{
		OrderCode: orderCode,
		BookingID: booking.ID,
		Status:    StatusCompleted,
	}, nil
}

func (s *service) SettleFailure(ctx context.Context, orderCode int64) (*SettlementResult, error) {
	payment, err := s.repo.GetByOrderCode(ctx, orderCode)
	if err != nil {
		return nil, err
	}

	// A completed payment is never downgraded by a late failure callback
	if payment.IsCompleted() {
		s.log.InfoWithContext(ctx, "ignoring failure callback for completed payment", map[string]interface{}{
			"order_code": orderCode,
		})
		return &SettlementResult{
			OrderCode:   orderCode,
			BookingID:   payment.BookingID,
			Status:      StatusCompleted,
			AlreadyDone: true,
		}, nil
	}

	flipped, err := s.repo.FailPending(ctx, orderCode)
	if err != nil {
		return nil, err
	}
	if !flipped {
		// Already failed; replayed callbacks are acknowledged quietly
		return &SettlementResult{
			OrderCode:   orderCode,
			BookingID:   payment.BookingID,
			Status:      StatusFailed,
			AlreadyDone: true,
		}, nil
	}

	// The booking stays pending; no stock was taken, nothing to release
	s.log.LogPaymentSettled(ctx, orderCode, string(StatusFailed))

	return &SettlementResult{
		OrderCode: orderCode,
		BookingID: payment.BookingID,
		Status:    StatusFailed,
	}, nil
}

func (s *service) GetByOrderCode(ctx context.Context, orderCode int64) (*Payment, error) {
	return s.repo.GetByOrderCode(ctx, orderCode)
}

// publishConfirmation emits the booking-confirmed message. Settlement has
// already committed, so a broker error is logged and swallowed.
func (s *service) publishConfirmation(ctx context.Context, booking *bookings.Booking, payment *Payment) {
	msg := &notifications.BookingConfirmed{
		BookingID:   booking.ID,
		EventID:     booking.EventID,
		UserID:      booking.UserID,
		OrderCode:   payment.OrderCode,
		Amount:      payment.Amount,
		BuyerEmail:  booking.Email,
		BuyerName:   booking.FullName,
		ConfirmedAt: time.Now().UTC(),
	}
	if err := s.producer.PublishBookingConfirmed(ctx, msg); err != nil {
		s.log.ErrorWithContext(ctx, "failed to publish booking confirmation", err, map[string]interface{}{
			"booking_id": booking.ID,
		})
	}
}
