package bookings

// BookingLineRequest is one requested ticket type + quantity
type BookingLineRequest struct {
	TicketTypeID uint `json:"ticket_type_id" binding:"required"`
	Quantity     int  `json:"quantity" binding:"required,min=1"`
}

// CreateBookingRequest represents the booking creation payload
type CreateBookingRequest struct {
	EventID  uint                 `json:"event_id" binding:"required"`
	FullName string               `json:"full_name" binding:"required,min=2,max=100"`
	Email    string               `json:"email" binding:"required,email"`
	Phone    string               `json:"phone" binding:"required,max=20"`
	Lines    []BookingLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// CancelBookingRequest carries an optional cancellation reason
type CancelBookingRequest struct {
	Reason string `json:"reason" binding:"max=255"`
}
