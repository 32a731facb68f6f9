package payments

import (
	"time"
)

// Status represents the lifecycle of a payment attempt
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// orderCodeOffset keeps gateway order codes out of the small-integer range
// so they cannot collide with ids handed out before the offset scheme.
const orderCodeOffset = 10000

// Payment is one settlement attempt for a booking. OrderCode is the key the
// gateway echoes back in callbacks; it is derived from the booking id so a
// booking maps to exactly one payment session.
type Payment struct {
	ID        uint       `json:"id" gorm:"primaryKey"`
	BookingID uint       `json:"booking_id" gorm:"index;not null"`
	Amount    int64      `json:"amount" gorm:"not null"`
	Method    string     `json:"method" gorm:"type:varchar(20);default:'payos'"`
	Status    Status     `json:"status" gorm:"type:varchar(20);check:status IN ('pending', 'completed', 'failed');default:'pending'"`
	OrderCode int64      `json:"order_code" gorm:"uniqueIndex;not null"`
	PaidAt    *time.Time `json:"paid_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// TableName sets the table name for Payment
func (Payment) TableName() string {
	return "payments"
}

func (p *Payment) IsCompleted() bool {
	return p.Status == StatusCompleted
}

// OrderCodeForBooking derives the gateway order code from a booking id.
func OrderCodeForBooking(bookingID uint) int64 {
	return int64(bookingID) + orderCodeOffset
}

// BookingIDForOrderCode is the inverse of OrderCodeForBooking.
func BookingIDForOrderCode(orderCode int64) uint {
	return uint(orderCode - orderCodeOffset)
}

// InitiateRequest starts a checkout session for a pending booking. Amount is
// the client-side quoted total as a decimal string; when present it must match
// the booking total after truncation toward zero.
type InitiateRequest struct {
	BookingID uint   `json:"booking_id" binding:"required"`
	Amount    string `json:"amount,omitempty"`
}

// PaymentSession is returned to the client after a checkout session opens.
type PaymentSession struct {
	PaymentID   uint   `json:"payment_id"`
	BookingID   uint   `json:"booking_id"`
	OrderCode   int64  `json:"order_code"`
	Amount      int64  `json:"amount"`
	CheckoutURL string `json:"checkout_url"`
}

// SettlementResult reports the outcome of a gateway callback.
type SettlementResult struct {
	OrderCode   int64  `json:"order_code"`
	BookingID   uint   `json:"booking_id"`
	Status      Status `json:"status"`
	AlreadyDone bool   `json:"already_done,omitempty"`
}
