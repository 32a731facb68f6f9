package bookings

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	glogger "gorm.io/gorm/logger"

	"thticket/internal/events"
)

func newTestService(t *testing.T) (Service, *gorm.DB, *events.Event) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: glogger.Default.LogMode(glogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&events.Event{},
		&events.TicketType{},
		&Booking{},
		&BookingLine{},
		&Cancellation{},
	))

	event := &events.Event{
		Name:        "Bangkok Indie Fest",
		VenueName:   "Moonstar Studio",
		StartTime:   time.Now().AddDate(0, 1, 0),
		Status:      events.StatusPublished,
		OrganizerID: 1,
		TicketTypes: []events.TicketType{
			{Name: "Regular", Price: 150000, Quantity: 100},
			{Name: "VIP", Price: 350000, Quantity: 10},
		},
	}
	require.NoError(t, db.Create(event).Error)

	svc := NewService(NewRepository(db), events.NewRepository(db))
	return svc, db, event
}

func validRequest(event *events.Event, lines []BookingLineRequest) CreateBookingRequest {
	return CreateBookingRequest{
		EventID:  event.ID,
		FullName: "Somchai Prasert",
		Email:    "somchai@example.com",
		Phone:    "0812345678",
		Lines:    lines,
	}
}

func TestCreateBookingFreezesUnitPrices(t *testing.T) {
	svc, db, event := newTestService(t)
	regular := event.TicketTypes[0]

	resp, err := svc.CreateBooking(context.Background(), 7, validRequest(event, []BookingLineRequest{
		{TicketTypeID: regular.ID, Quantity: 2},
	}))
	require.NoError(t, err)
	require.Len(t, resp.Lines, 1)
	assert.Equal(t, int64(150000), resp.Lines[0].UnitPrice)

	// The organizer raises the price after the quote
	require.NoError(t, db.Model(&events.TicketType{}).
		Where("id = ?", regular.ID).
		Update("price", 200000).Error)

	var line BookingLine
	require.NoError(t, db.Where("booking_id = ?", resp.ID).First(&line).Error)
	assert.Equal(t, int64(150000), line.UnitPrice, "stored line keeps the price quoted at booking time")
}

func TestCreateBookingStartsPendingAndHoldsNoStock(t *testing.T) {
	svc, db, event := newTestService(t)
	regular := event.TicketTypes[0]

	resp, err := svc.CreateBooking(context.Background(), 7, validRequest(event, []BookingLineRequest{
		{TicketTypeID: regular.ID, Quantity: 150}, // more than stock, still fine
	}))
	require.NoError(t, err)
	assert.Equal(t, StatusPending, resp.Status)

	var tt events.TicketType
	require.NoError(t, db.First(&tt, regular.ID).Error)
	assert.Equal(t, 100, tt.Quantity)
}

func TestCreateBookingRejectsUnknownEvent(t *testing.T) {
	svc, _, event := newTestService(t)

	req := validRequest(event, []BookingLineRequest{{TicketTypeID: 1, Quantity: 1}})
	req.EventID = 999

	_, err := svc.CreateBooking(context.Background(), 7, req)
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestCreateBookingRejectsForeignTicketType(t *testing.T) {
	svc, db, event := newTestService(t)

	// A ticket type hanging off a different event
	other := &events.Event{
		Name:        "Other Fest",
		VenueName:   "Elsewhere",
		StartTime:   time.Now().AddDate(0, 2, 0),
		OrganizerID: 1,
		TicketTypes: []events.TicketType{{Name: "GA", Price: 90000, Quantity: 10}},
	}
	require.NoError(t, db.Create(other).Error)

	_, err := svc.CreateBooking(context.Background(), 7, validRequest(event, []BookingLineRequest{
		{TicketTypeID: other.TicketTypes[0].ID, Quantity: 1},
	}))
	assert.ErrorIs(t, err, ErrTicketTypeNotFound)
}

func TestCancelBookingWritesAuditRowWithoutRestock(t *testing.T) {
	svc, db, event := newTestService(t)
	regular := event.TicketTypes[0]

	resp, err := svc.CreateBooking(context.Background(), 7, validRequest(event, []BookingLineRequest{
		{TicketTypeID: regular.ID, Quantity: 2},
	}))
	require.NoError(t, err)

	// Simulate a settled payment so the booking is cancellable
	require.NoError(t, db.Model(&Booking{}).
		Where("id = ?", resp.ID).
		Update("status", StatusConfirmed).Error)

	require.NoError(t, svc.CancelBooking(context.Background(), resp.ID, 7, "cannot attend"))

	var booking Booking
	require.NoError(t, db.First(&booking, resp.ID).Error)
	assert.Equal(t, StatusCancelled, booking.Status)
	assert.NotNil(t, booking.CancelledAt)

	var audit Cancellation
	require.NoError(t, db.Where("booking_id = ?", resp.ID).First(&audit).Error)
	assert.Equal(t, "cannot attend", audit.Reason)

	// Cancellation does not return tickets to the pool
	var tt events.TicketType
	require.NoError(t, db.First(&tt, regular.ID).Error)
	assert.Equal(t, 100, tt.Quantity)
}

func TestCancelBookingRejectsPendingBooking(t *testing.T) {
	svc, _, event := newTestService(t)

	resp, err := svc.CreateBooking(context.Background(), 7, validRequest(event, []BookingLineRequest{
		{TicketTypeID: event.TicketTypes[0].ID, Quantity: 1},
	}))
	require.NoError(t, err)

	err = svc.CancelBooking(context.Background(), resp.ID, 7, "changed my mind")
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestCancelConfirmedBookingRacedCancelReportsInvalidState(t *testing.T) {
	svc, db, event := newTestService(t)
	repo := NewRepository(db)

	resp, err := svc.CreateBooking(context.Background(), 7, validRequest(event, []BookingLineRequest{
		{TicketTypeID: event.TicketTypes[0].ID, Quantity: 1},
	}))
	require.NoError(t, err)
	require.NoError(t, db.Model(&Booking{}).
		Where("id = ?", resp.ID).
		Update("status", StatusConfirmed).Error)

	require.NoError(t, repo.CancelConfirmedBooking(context.Background(), resp.ID, "first"))

	// A second cancel lost the guarded-update race: the booking exists but is
	// no longer confirmed
	err = repo.CancelConfirmedBooking(context.Background(), resp.ID, "second")
	assert.ErrorIs(t, err, ErrInvalidState)

	err = repo.CancelConfirmedBooking(context.Background(), 999, "gone")
	assert.ErrorIs(t, err, ErrBookingNotFound)

	// Only the winning cancel wrote an audit row
	var count int64
	require.NoError(t, db.Model(&Cancellation{}).Where("booking_id = ?", resp.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCancelBookingRejectsForeignUser(t *testing.T) {
	svc, db, event := newTestService(t)

	resp, err := svc.CreateBooking(context.Background(), 7, validRequest(event, []BookingLineRequest{
		{TicketTypeID: event.TicketTypes[0].ID, Quantity: 1},
	}))
	require.NoError(t, err)
	require.NoError(t, db.Model(&Booking{}).
		Where("id = ?", resp.ID).
		Update("status", StatusConfirmed).Error)

	err = svc.CancelBooking(context.Background(), resp.ID, 8, "not mine")
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestCancelBookingUnknownBooking(t *testing.T) {
	svc, _, _ := newTestService(t)

	err := svc.CancelBooking(context.Background(), 999, 7, "")
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestGetUserBookingsScopedToOwner(t *testing.T) {
	svc, _, event := newTestService(t)

	for range [3]struct{}{} {
		_, err := svc.CreateBooking(context.Background(), 7, validRequest(event, []BookingLineRequest{
			{TicketTypeID: event.TicketTypes[0].ID, Quantity: 1},
		}))
		require.NoError(t, err)
	}
	_, err := svc.CreateBooking(context.Background(), 8, validRequest(event, []BookingLineRequest{
		{TicketTypeID: event.TicketTypes[0].ID, Quantity: 1},
	}))
	require.NoError(t, err)

	mine, err := svc.GetUserBookings(context.Background(), 7, 10, 0)
	require.NoError(t, err)
	assert.Len(t, mine, 3)
	for _, b := range mine {
		assert.Equal(t, uint(7), b.UserID)
	}
}

func TestBookingTotalAmount(t *testing.T) {
	booking := &Booking{Lines: []BookingLine{
		{TicketTypeID: 1, Quantity: 2, UnitPrice: 150000},
		{TicketTypeID: 2, Quantity: 1, UnitPrice: 350000},
	}}

	assert.Equal(t, int64(650000), booking.TotalAmount())
	assert.Equal(t, map[uint]int{1: 2, 2: 1}, booking.TicketQuantities())
}
