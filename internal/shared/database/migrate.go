package database

import (
	"thticket/internal/bookings"
	"thticket/internal/events"
	"thticket/internal/payments"
	"thticket/internal/users"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&users.User{},
		&events.Event{},
		&events.TicketType{},
		&bookings.Booking{},
		&bookings.BookingLine{},
		&bookings.Cancellation{},
		&payments.Payment{},
	)
	if err != nil {
		return err
	}
	return MigrateConstraints(db)
}
