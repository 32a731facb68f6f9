package payments

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	glogger "gorm.io/gorm/logger"

	"thticket/internal/bookings"
	"thticket/internal/events"
	"thticket/internal/inventory"
	"thticket/internal/notifications"
)

// fakeGateway records checkout calls and returns a canned URL.
type fakeGateway struct {
	calls []int64
	err   error
}

func (g *fakeGateway) CreateCheckout(ctx context.Context, orderCode, amount int64, description string) (string, error) {
	g.calls = append(g.calls, orderCode)
	if g.err != nil {
		return "", g.err
	}
	return fmt.Sprintf("https://pay.example.com/checkout/%d", orderCode), nil
}

// recordingProducer captures published confirmations.
type recordingProducer struct {
	published []*notifications.BookingConfirmed
	err       error
}

func (p *recordingProducer) PublishBookingConfirmed(ctx context.Context, msg *notifications.BookingConfirmed) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, msg)
	return nil
}

func (p *recordingProducer) Close() error { return nil }

type testEnv struct {
	db       *gorm.DB
	svc      Service
	gateway  *fakeGateway
	producer *recordingProducer
	repo     Repository
	bookRepo bookings.Repository
	regular  *events.TicketType
	vip      *events.TicketType
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: glogger.Default.LogMode(glogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&events.Event{},
		&events.TicketType{},
		&bookings.Booking{},
		&bookings.BookingLine{},
		&bookings.Cancellation{},
		&Payment{},
	))

	event := &events.Event{
		Name:        "Bangkok Indie Fest",
		VenueName:   "Moonstar Studio",
		StartTime:   mustParseTime(t, "2026-10-17T18:00:00Z"),
		Status:      events.StatusPublished,
		OrganizerID: 1,
		TicketTypes: []events.TicketType{
			{Name: "Regular", Price: 150000, Quantity: 10},
			{Name: "VIP", Price: 350000, Quantity: 2},
		},
	}
	require.NoError(t, db.Create(event).Error)

	gateway := &fakeGateway{}
	producer := &recordingProducer{}
	repo := NewRepository(db)
	bookRepo := bookings.NewRepository(db)

	return &testEnv{
		db:       db,
		svc:      NewService(db, repo, bookRepo, gateway, producer),
		gateway:  gateway,
		producer: producer,
		repo:     repo,
		bookRepo: bookRepo,
		regular:  &event.TicketTypes[0],
		vip:      &event.TicketTypes[1],
	}
}

func mustParseTime(t *testing.T, value string) time.Time {
	t.Helper()

	parsed, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)
	return parsed
}

func (e *testEnv) createBooking(t *testing.T, userID uint, lines []bookings.BookingLine) *bookings.Booking {
	t.Helper()

	booking := &bookings.Booking{
		UserID:   userID,
		EventID:  e.regular.EventID,
		FullName: "Somchai Prasert",
		Email:    "somchai@example.com",
		Phone:    "0812345678",
		Status:   bookings.StatusPending,
		Lines:    lines,
	}
	require.NoError(t, e.db.Create(booking).Error)
	return booking
}

func (e *testEnv) ticketQuantity(t *testing.T, id uint) int {
	t.Helper()

	var tt events.TicketType
	require.NoError(t, e.db.First(&tt, id).Error)
	return tt.Quantity
}

func (e *testEnv) bookingStatus(t *testing.T, id uint) bookings.Status {
	t.Helper()

	var b bookings.Booking
	require.NoError(t, e.db.First(&b, id).Error)
	return b.Status
}

func (e *testEnv) paymentStatus(t *testing.T, orderCode int64) Status {
	t.Helper()

	var p Payment
	require.NoError(t, e.db.Where("order_code = ?", orderCode).First(&p).Error)
	return p.Status
}

func TestInitiateCreatesPendingPaymentWithDerivedOrderCode(t *testing.T) {
	env := newTestEnv(t)
	booking := env.createBooking(t, 7, []bookings.BookingLine{
		{TicketTypeID: env.regular.ID, Quantity: 2, UnitPrice: 150000},
	})

	session, err := env.svc.Initiate(context.Background(), 7, InitiateRequest{BookingID: booking.ID})
	require.NoError(t, err)

	assert.Equal(t, booking.ID, session.BookingID)
	assert.Equal(t, OrderCodeForBooking(booking.ID), session.OrderCode)
	assert.Equal(t, int64(300000), session.Amount)
	assert.Contains(t, session.CheckoutURL, "https://pay.example.com/checkout/")

	// Gateway was called exactly once, after the payment row committed
	assert.Equal(t, []int64{session.OrderCode}, env.gateway.calls)
	assert.Equal(t, StatusPending, env.paymentStatus(t, session.OrderCode))

	// Stock is only checked, never taken, at initiation
	assert.Equal(t, 10, env.ticketQuantity(t, env.regular.ID))
	assert.Equal(t, bookings.StatusPending, env.bookingStatus(t, booking.ID))
}

func TestInitiateRejectsForeignBooking(t *testing.T) {
	env := newTestEnv(t)
	booking := env.createBooking(t, 7, []bookings.BookingLine{
		{TicketTypeID: env.regular.ID, Quantity: 1, UnitPrice: 150000},
	})

	_, err := env.svc.Initiate(context.Background(), 8, InitiateRequest{BookingID: booking.ID})
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Empty(t, env.gateway.calls)
}

func TestInitiateRejectsMissingBooking(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Initiate(context.Background(), 7, InitiateRequest{BookingID: 999})
	assert.ErrorIs(t, err, bookings.ErrBookingNotFound)
}

func TestInitiateRejectsNonPendingBooking(t *testing.T) {
	env := newTestEnv(t)
	booking := env.createBooking(t, 7, []bookings.BookingLine{
		{TicketTypeID: env.regular.ID, Quantity: 1, UnitPrice: 150000},
	})
	require.NoError(t, env.db.Model(booking).Update("status", bookings.StatusConfirmed).Error)

	_, err := env.svc.Initiate(context.Background(), 7, InitiateRequest{BookingID: booking.ID})
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestInitiateRejectsEmptyBooking(t *testing.T) {
	env := newTestEnv(t)
	booking := env.createBooking(t, 7, nil)

	_, err := env.svc.Initiate(context.Background(), 7, InitiateRequest{BookingID: booking.ID})
	assert.ErrorIs(t, err, ErrEmptyLines)
}

func TestInitiateFailsFastWhenStockCannotCover(t *testing.T) {
	env := newTestEnv(t)
	booking := env.createBooking(t, 7, []bookings.BookingLine{
		{TicketTypeID: env.vip.ID, Quantity: 3, UnitPrice: 350000},
	})

	_, err := env.svc.Initiate(context.Background(), 7, InitiateRequest{BookingID: booking.ID})
	require.Error(t, err)
	assert.True(t, inventory.IsInsufficientStock(err))

	// The whole transaction rolled back, including the payment row
	var count int64
	require.NoError(t, env.db.Model(&Payment{}).Count(&count).Error)
	assert.Zero(t, count)
	assert.Empty(t, env.gateway.calls)
}

func TestInitiateTwiceReturnsFreshSessionForSamePayment(t *testing.T) {
	env := newTestEnv(t)
	booking := env.createBooking(t, 7, []bookings.BookingLine{
		{TicketTypeID: env.regular.ID, Quantity: 1, UnitPrice: 150000},
	})

	first, err := env.svc.Initiate(context.Background(), 7, InitiateRequest{BookingID: booking.ID})
	require.NoError(t, err)

	second, err := env.svc.Initiate(context.Background(), 7, InitiateRequest{BookingID: booking.ID})
	require.NoError(t, err)

	assert.Equal(t, first.OrderCode, second.OrderCode)

	var count int64
	require.NoError(t, env.db.Model(&Payment{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestReinitiateFailsFastWhenStockDrainedSinceFirstAttempt(t *testing.T) {
	env := newTestEnv(t)
	booking := env.createBooking(t, 7, []bookings.BookingLine{
		{TicketTypeID: env.vip.ID, Quantity: 2, UnitPrice: 350000},
	})

	_, err := env.svc.Initiate(context.Background(), 7, InitiateRequest{BookingID: booking.ID})
	require.NoError(t, err)

	// Another settlement takes the remaining VIP stock
	require.NoError(t, env.db.Model(&events.TicketType{}).
		Where("id = ?", env.vip.ID).
		Update("quantity", 0).Error)

	_, err = env.svc.Initiate(context.Background(), 7, InitiateRequest{BookingID: booking.ID})
	require.Error(t, err)
	assert.True(t, inventory.IsInsufficientStock(err))

	// The original pending payment survives; only one checkout was opened
	assert.Equal(t, StatusPending, env.paymentStatus(t, OrderCodeForBooking(booking.ID)))
	assert.Len(t, env.gateway.calls, 1)
}

func TestInitiateValidatesQuotedAmountWithTruncation(t *testing.T) {
	env := newTestEnv(t)
	booking := env.createBooking(t, 7, []bookings.BookingLine{
		{TicketTypeID: env.regular.ID, Quantity: 2, UnitPrice: 150000},
	})

	// Fractional digits are truncated toward zero before comparison
	_, err := env.svc.Initiate(context.Background(), 7, InitiateRequest{
		BookingID: booking.ID,
		Amount:    "300000.99",
	})
	assert.NoError(t, err)
}

func TestInitiateRejectsMismatchedQuotedAmount(t *testing.T) {
	env := newTestEnv(t)
	booking := env.createBooking(t, 7, []bookings.BookingLine{
		{TicketTypeID: env.regular.ID, Quantity: 2, UnitPrice: 150000},
	})

	_, err := env.svc.Initiate(context.Background(), 7, InitiateRequest{
		BookingID: booking.ID,
		Amount:    "299999",
	})
	assert.ErrorIs(t, err, ErrAmountMismatch)
}

func TestSettleSuccessConfirmsBookingAndTakesStock(t *testing.T) {
	env := newTestEnv(t)
	booking := env.createBooking(t, 7, []bookings.BookingLine{
		{TicketTypeID: env.regular.ID, Quantity: 2, UnitPrice: 150000},
		{TicketTypeID: env.vip.ID, Quantity: 1, UnitPrice: 350000},
	})

	session, err := env.svc.Initiate(context.Background(), 7, InitiateRequest{BookingID: booking.ID})
	require.NoError(t, err)

	result, err := env.svc.SettleSuccess(context.Background(), session.OrderCode)
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, result.Status)
	assert.False(t, result.AlreadyDone)
	assert.Equal(t, booking.ID, result.BookingID)

	assert.Equal(t, StatusCompleted, env.paymentStatus(t, session.OrderCode))
	assert.Equal(t, bookings.StatusConfirmed, env.bookingStatus(t, booking.ID))
	assert.Equal(t, 8, env.ticketQuantity(t, env.regular.ID))
	assert.Equal(t, 1, env.ticketQuantity(t, env.vip.ID))

	// Confirmation went out exactly once
	require.Len(t, env.producer.published, 1)
	assert.Equal(t, booking.ID, env.producer.published[0].BookingID)
	assert.Equal(t, session.OrderCode, env.producer.published[0].OrderCode)
	assert.Equal(t, "somchai@example.com", env.producer.published[0].BuyerEmail)
}

func TestSettleSuccessIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	booking := env.createBooking(t, 7, []bookings.BookingLine{
		{TicketTypeID: env.regular.ID, Quantity: 3, UnitPrice: 150000},
	})

	session, err := env.svc.Initiate(context.Background(), 7, InitiateRequest{BookingID: booking.ID})
	require.NoError(t, err)

	_, err = env.svc.SettleSuccess(context.Background(), session.OrderCode)
	require.NoError(t, err)

	// The gateway redelivers; nothing changes the second time around
	replay, err := env.svc.SettleSuccess(context.Background(), session.OrderCode)
	require.NoError(t, err)
	assert.True(t, replay.AlreadyDone)

	assert.Equal(t, 7, env.ticketQuantity(t, env.regular.ID))
	assert.Len(t, env.producer.published, 1)
}

func TestSettleSuccessFailsWhenStockRanOut(t *testing.T) {
	env := newTestEnv(t)

	first := env.createBooking(t, 7, []bookings.BookingLine{
		{TicketTypeID: env.vip.ID, Quantity: 2, UnitPrice: 350000},
	})
	second := env.createBooking(t, 8, []bookings.BookingLine{
		{TicketTypeID: env.vip.ID, Quantity: 1, UnitPrice: 350000},
	})

	firstSession, err := env.svc.Initiate(context.Background(), 7, InitiateRequest{BookingID: first.ID})
	require.NoError(t, err)
	secondSession, err := env.svc.Initiate(context.Background(), 8, InitiateRequest{BookingID: second.ID})
	require.NoError(t, err)

	// First settlement takes the last VIP tickets
	_, err = env.svc.SettleSuccess(context.Background(), firstSession.OrderCode)
	require.NoError(t, err)
	assert.Equal(t, 0, env.ticketQuantity(t, env.vip.ID))

	// Second settlement cannot be honored; everything it touched rolls back
	_, err = env.svc.SettleSuccess(context.Background(), secondSession.OrderCode)
	require.Error(t, err)
	assert.True(t, inventory.IsInsufficientStock(err))

	assert.Equal(t, StatusPending, env.paymentStatus(t, secondSession.OrderCode))
	assert.Equal(t, bookings.StatusPending, env.bookingStatus(t, second.ID))
	assert.Equal(t, 0, env.ticketQuantity(t, env.vip.ID))
}

func TestSettleSuccessUnknownOrderCode(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.SettleSuccess(context.Background(), 99999)
	assert.ErrorIs(t, err, ErrPaymentNotFound)
}

func TestSettleFailureMarksPaymentFailed(t *testing.T) {
	env := newTestEnv(t)
	booking := env.createBooking(t, 7, []bookings.BookingLine{
		{TicketTypeID: env.regular.ID, Quantity: 2, UnitPrice: 150000},
	})

	session, err := env.svc.Initiate(context.Background(), 7, InitiateRequest{BookingID: booking.ID})
	require.NoError(t, err)

	result, err := env.svc.SettleFailure(context.Background(), session.OrderCode)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, result.Status)

	// No stock moved and the booking never confirmed
	assert.Equal(t, StatusFailed, env.paymentStatus(t, session.OrderCode))
	assert.Equal(t, bookings.StatusPending, env.bookingStatus(t, booking.ID))
	assert.Equal(t, 10, env.ticketQuantity(t, env.regular.ID))
	assert.Empty(t, env.producer.published)
}

func TestSettleFailureNeverDowngradesCompletedPayment(t *testing.T) {
	env := newTestEnv(t)
	booking := env.createBooking(t, 7, []bookings.BookingLine{
		{TicketTypeID: env.regular.ID, Quantity: 1, UnitPrice: 150000},
	})

	session, err := env.svc.Initiate(context.Background(), 7, InitiateRequest{BookingID: booking.ID})
	require.NoError(t, err)

	_, err = env.svc.SettleSuccess(context.Background(), session.OrderCode)
	require.NoError(t, err)

	// A late failure callback for an already settled payment changes nothing
	result, err := env.svc.SettleFailure(context.Background(), session.OrderCode)
	require.NoError(t, err)
	assert.True(t, result.AlreadyDone)
	assert.Equal(t, StatusCompleted, result.Status)

	assert.Equal(t, StatusCompleted, env.paymentStatus(t, session.OrderCode))
	assert.Equal(t, bookings.StatusConfirmed, env.bookingStatus(t, booking.ID))
}

func TestSettleFailureIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	booking := env.createBooking(t, 7, []bookings.BookingLine{
		{TicketTypeID: env.regular.ID, Quantity: 1, UnitPrice: 150000},
	})

	session, err := env.svc.Initiate(context.Background(), 7, InitiateRequest{BookingID: booking.ID})
	require.NoError(t, err)

	_, err = env.svc.SettleFailure(context.Background(), session.OrderCode)
	require.NoError(t, err)

	replay, err := env.svc.SettleFailure(context.Background(), session.OrderCode)
	require.NoError(t, err)
	assert.True(t, replay.AlreadyDone)
	assert.Equal(t, StatusFailed, replay.Status)
}

func TestParseAmountTruncatesTowardZero(t *testing.T) {
	amount, err := ParseAmount("150.75")
	require.NoError(t, err)
	assert.Equal(t, int64(150), amount)

	amount, err = ParseAmount("300000")
	require.NoError(t, err)
	assert.Equal(t, int64(300000), amount)
}

func TestParseAmountRejectsNonPositive(t *testing.T) {
	_, err := ParseAmount("0.99")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = ParseAmount("-12")
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestParseAmountRejectsGarbage(t *testing.T) {
	_, err := ParseAmount("twelve")
	assert.Error(t, err)
}

func TestOrderCodeRoundTrip(t *testing.T) {
	assert.Equal(t, int64(10042), OrderCodeForBooking(42))
	assert.Equal(t, uint(42), BookingIDForOrderCode(10042))
}
