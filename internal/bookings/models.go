package bookings

import (
	"time"
)

// Booking defines the main booking structure. Contact fields are captured at
// booking time, not sourced live from the user profile.
type Booking struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	UserID      uint       `json:"user_id" gorm:"index;not null"`
	EventID     uint       `json:"event_id" gorm:"index;not null"`
	FullName    string     `json:"full_name" gorm:"not null;size:100"`
	Email       string     `json:"email" gorm:"not null;size:100"`
	Phone       string     `json:"phone" gorm:"not null;size:20"`
	Status      Status     `json:"status" gorm:"type:varchar(20);check:status IN ('pending', 'confirmed', 'cancelled');default:'pending'"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`

	// Relationships
	Lines []BookingLine `json:"lines,omitempty" gorm:"foreignKey:BookingID;constraint:OnDelete:CASCADE;"`
}

// BookingLine binds a ticket type to a requested quantity. UnitPrice is the
// price copied at booking time; later ticket-type edits never change it.
type BookingLine struct {
	ID           uint  `json:"id" gorm:"primaryKey"`
	BookingID    uint  `json:"booking_id" gorm:"index;not null"`
	TicketTypeID uint  `json:"ticket_type_id" gorm:"index;not null"`
	Quantity     int   `json:"quantity" gorm:"not null;check:quantity > 0"`
	UnitPrice    int64 `json:"unit_price" gorm:"not null"`
}

// Cancellation is an audit record written when a confirmed booking is
// cancelled. No restock or refund happens here.
type Cancellation struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	BookingID   uint      `json:"booking_id" gorm:"index;not null"`
	CancelledAt time.Time `json:"cancelled_at" gorm:"not null"`
	Reason      string    `json:"reason,omitempty" gorm:"size:255"`
}

// TableName sets the table name for Booking
func (Booking) TableName() string {
	return "bookings"
}

// TableName sets the table name for BookingLine
func (BookingLine) TableName() string {
	return "booking_lines"
}

// TableName sets the table name for Cancellation
func (Cancellation) TableName() string {
	return "cancellations"
}

// Helper methods for booking management
func (b *Booking) IsPending() bool {
	return b.Status == StatusPending
}

func (b *Booking) IsConfirmed() bool {
	return b.Status == StatusConfirmed
}

func (b *Booking) IsCancelled() bool {
	return b.Status == StatusCancelled
}

// TotalAmount sums quantity x frozen unit price across all lines, in minor
// currency units.
func (b *Booking) TotalAmount() int64 {
	var total int64
	for _, line := range b.Lines {
		total += line.UnitPrice * int64(line.Quantity)
	}
	return total
}

// TicketQuantities maps ticket type id to requested quantity across lines.
func (b *Booking) TicketQuantities() map[uint]int {
	quantities := make(map[uint]int, len(b.Lines))
	for _, line := range b.Lines {
		quantities[line.TicketTypeID] += line.Quantity
	}
	return quantities
}
