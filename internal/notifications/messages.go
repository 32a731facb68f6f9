package notifications

import (
	"encoding/json"
	"fmt"
	"time"
)

// BookingConfirmed is published after a payment settles and the booking
// flips to confirmed. Consumers use it to send confirmation emails.
type BookingConfirmed struct {
	BookingID   uint      `json:"booking_id"`
	EventID     uint      `json:"event_id"`
	UserID      uint      `json:"user_id"`
	OrderCode   int64     `json:"order_code"`
	Amount      int64     `json:"amount"`
	BuyerEmail  string    `json:"buyer_email"`
	BuyerName   string    `json:"buyer_name"`
	ConfirmedAt time.Time `json:"confirmed_at"`
}

// PartitionKey routes all messages for one booking to the same partition.
func (m *BookingConfirmed) PartitionKey() string {
	return fmt.Sprintf("booking-%d", m.BookingID)
}

// ToJSON serializes the message for the wire.
func (m *BookingConfirmed) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}
