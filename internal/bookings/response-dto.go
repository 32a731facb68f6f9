package bookings

import "time"

// BookingResponse represents a booking in API responses
type BookingResponse struct {
	ID          uint          `json:"id"`
	EventID     uint          `json:"event_id"`
	FullName    string        `json:"full_name"`
	Email       string        `json:"email"`
	Phone       string        `json:"phone"`
	Status      Status        `json:"status"`
	TotalAmount int64         `json:"total_amount"`
	Lines       []BookingLine `json:"lines"`
	CreatedAt   time.Time     `json:"created_at"`
	CancelledAt *time.Time    `json:"cancelled_at,omitempty"`
}

// ToResponse converts a Booking to its API representation
func (b *Booking) ToResponse() BookingResponse {
	lines := b.Lines
	if lines == nil {
		lines = []BookingLine{}
	}

	return BookingResponse{
		ID:          b.ID,
		EventID:     b.EventID,
		FullName:    b.FullName,
		Email:       b.Email,
		Phone:       b.Phone,
		Status:      b.Status,
		TotalAmount: b.TotalAmount(),
		Lines:       lines,
		CreatedAt:   b.CreatedAt,
		CancelledAt: b.CancelledAt,
	}
}
