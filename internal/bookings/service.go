package bookings

import (
	"context"
	"errors"
	"fmt"

	"thticket/internal/events"
	"thticket/pkg/logger"
)

var (
	// ErrForbidden is returned when a buyer acts on a booking they don't own
	ErrForbidden = errors.New("booking does not belong to user")

	// ErrInvalidState is returned when the booking status does not allow the
	// requested transition, e.g. cancelling a booking that never paid
	ErrInvalidState = errors.New("operation not valid for current booking status")

	ErrEventNotFound      = errors.New("event not found")
	ErrTicketTypeNotFound = errors.New("ticket type not found")
)

// Service interface defines the contract for booking business logic
type Service interface {
	CreateBooking(ctx context.Context, userID uint, req CreateBookingRequest) (*BookingResponse, error)
	GetBooking(ctx context.Context, bookingID uint) (*Booking, error)
	GetUserBookings(ctx context.Context, userID uint, limit, offset int) ([]Booking, error)
	CancelBooking(ctx context.Context, bookingID uint, userID uint, reason string) error
}

type service struct {
	repo      Repository
	eventRepo events.Repository
}

// NewService creates a new booking service instance
func NewService(repo Repository, eventRepo events.Repository) Service {
	return &service{
		repo:      repo,
		eventRepo: eventRepo,
	}
}

// CreateBooking records a pending booking with prices frozen from the current
// ticket data. No stock is checked or held here: a pending booking is a
// non-binding quote, and inventory is only committed at payment settlement.
func (s *service) CreateBooking(ctx context.Context, userID uint, req CreateBookingRequest) (*BookingResponse, error) {
	event, err := s.eventRepo.GetEventByID(ctx, req.EventID)
	if err != nil {
		if errors.Is(err, events.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to load event: %w", err)
	}

	ticketTypes := make(map[uint]*events.TicketType, len(event.TicketTypes))
	for i := range event.TicketTypes {
		ticketTypes[event.TicketTypes[i].ID] = &event.TicketTypes[i]
	}

	lines := make([]BookingLine, 0, len(req.Lines))
	for _, lineReq := range req.Lines {
		// Every referenced ticket type must belong to the requested event
		ticketType, ok := ticketTypes[lineReq.TicketTypeID]
		if !ok {
			return nil, fmt.Errorf("ticket type %d: %w", lineReq.TicketTypeID, ErrTicketTypeNotFound)
		}

		lines = append(lines, BookingLine{
			TicketTypeID: ticketType.ID,
			Quantity:     lineReq.Quantity,
			UnitPrice:    ticketType.Price, // copied, not referenced
		})
	}

	booking := &Booking{
		UserID:   userID,
		EventID:  req.EventID,
		FullName: req.FullName,
		Email:    req.Email,
		Phone:    req.Phone,
		Status:   StatusPending,
		Lines:    lines,
	}

	if err := s.repo.CreateBooking(ctx, booking); err != nil {
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	logger.GetDefault().LogBookingCreated(ctx, booking.ID, booking.EventID, userID)

	resp := booking.ToResponse()
	return &resp, nil
}

// GetBooking retrieves a booking by ID
func (s *service) GetBooking(ctx context.Context, bookingID uint) (*Booking, error) {
	return s.repo.GetBookingByID(ctx, bookingID)
}

// GetUserBookings retrieves bookings for a specific user
func (s *service) GetUserBookings(ctx context.Context, userID uint, limit, offset int) ([]Booking, error) {
	return s.repo.GetUserBookings(ctx, userID, limit, offset)
}

// CancelBooking cancels a confirmed booking. Only the owning buyer may
// cancel, and only from confirmed: a pending booking that never paid simply
// stays pending. Tickets are not restocked.
func (s *service) CancelBooking(ctx context.Context, bookingID uint, userID uint, reason string) error {
	booking, err := s.repo.GetBookingByID(ctx, bookingID)
	if err != nil {
		return err
	}

	if booking.UserID != userID {
		return ErrForbidden
	}

	if !booking.IsConfirmed() {
		return ErrInvalidState
	}

	if err := s.repo.CancelConfirmedBooking(ctx, bookingID, reason); err != nil {
		return fmt.Errorf("failed to cancel booking: %w", err)
	}

	logger.GetDefault().LogBookingCancelled(ctx, bookingID, userID)
	return nil
}
