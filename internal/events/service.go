package events

import (
	"context"
	"errors"
	"log/slog"
	"math"

	"thticket/internal/shared/config"
	"thticket/pkg/cache"
	"thticket/pkg/logger"
)

// ErrNotOrganizer is returned when someone other than the owning organizer
// tries to edit an event or its ticket types.
var ErrNotOrganizer = errors.New("only the event organizer may modify this event")

type Service interface {
	CreateEvent(ctx context.Context, organizerID uint, req CreateEventRequest) (*EventResponse, error)
	GetEventByID(ctx context.Context, id uint) (*EventResponse, error)
	GetAllEvents(ctx context.Context, query EventListQuery) (*PaginatedEvents, error)
	PublishEvent(ctx context.Context, id uint, organizerID uint) error
	UpdateTicketType(ctx context.Context, eventID, ticketTypeID, organizerID uint, req UpdateTicketTypeRequest) (*TicketType, error)
}

type service struct {
	repo         Repository
	cacheService cache.Service
	cacheTTL     config.RedisConfig
}

func NewService(repo Repository, cacheService cache.Service, redisCfg config.RedisConfig) Service {
	return &service{
		repo:         repo,
		cacheService: cacheService,
		cacheTTL:     redisCfg,
	}
}

func (s *service) CreateEvent(ctx context.Context, organizerID uint, req CreateEventRequest) (*EventResponse, error) {
	ticketTypes := make([]TicketType, 0, len(req.TicketTypes))
	for _, tt := range req.TicketTypes {
		ticketTypes = append(ticketTypes, TicketType{
			Name:     tt.Name,
			Price:    tt.Price,
			Quantity: tt.Quantity,
		})
	}

	event := &Event{
		Name:        req.Name,
		Description: req.Description,
		VenueName:   req.VenueName,
		Address:     req.Address,
		Category:    req.Category,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		ImageURL:    req.ImageURL,
		Status:      StatusDraft,
		OrganizerID: organizerID,
		TicketTypes: ticketTypes,
	}

	if err := s.repo.CreateEvent(ctx, event); err != nil {
		return nil, err
	}

	resp := event.ToResponse()
	return &resp, nil
}

func (s *service) GetEventByID(ctx context.Context, id uint) (*EventResponse, error) {
	// Serve from cache when possible; stock freshness is not critical on the
	// catalog path because the real quantity check happens at settlement.
	if s.cacheService != nil {
		var cached EventResponse
		hit, err := s.cacheService.GetJSON(ctx, cache.EventKey(id), &cached)
		if err != nil {
			logger.GetDefault().Warn("event cache read failed", slog.Any("error", err))
		} else if hit {
			return &cached, nil
		}
	}

	event, err := s.repo.GetEventByID(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := event.ToResponse()

	if s.cacheService != nil {
		if err := s.cacheService.SetJSON(ctx, cache.EventKey(id), resp, s.cacheTTL.EventCacheTTL); err != nil {
			logger.GetDefault().Warn("event cache write failed", slog.Any("error", err))
		}
	}

	return &resp, nil
}

func (s *service) GetAllEvents(ctx context.Context, query EventListQuery) (*PaginatedEvents, error) {
	events, totalCount, err := s.repo.GetAllEvents(ctx, query)
	if err != nil {
		return nil, err
	}

	if query.Page <= 0 {
		query.Page = 1
	}
	if query.Limit <= 0 {
		query.Limit = 10
	}

	responses := make([]EventResponse, 0, len(events))
	for i := range events {
		responses = append(responses, events[i].ToResponse())
	}

	return &PaginatedEvents{
		Events:     responses,
		TotalCount: totalCount,
		Page:       query.Page,
		Limit:      query.Limit,
		TotalPages: int(math.Ceil(float64(totalCount) / float64(query.Limit))),
	}, nil
}

func (s *service) PublishEvent(ctx context.Context, id uint, organizerID uint) error {
	event, err := s.repo.GetEventByID(ctx, id)
	if err != nil {
		return err
	}

	if event.OrganizerID != organizerID {
		return ErrNotOrganizer
	}

	if err := s.repo.UpdateEventStatus(ctx, id, StatusPublished); err != nil {
		return err
	}

	s.invalidateEventCache(ctx, id)
	return nil
}

// UpdateTicketType applies organizer edits to a ticket type. Existing booking
// lines keep the unit price they were created with.
func (s *service) UpdateTicketType(ctx context.Context, eventID, ticketTypeID, organizerID uint, req UpdateTicketTypeRequest) (*TicketType, error) {
	event, err := s.repo.GetEventByID(ctx, eventID)
	if err != nil {
		return nil, err
	}

	if event.OrganizerID != organizerID {
		return nil, ErrNotOrganizer
	}

	ticketType, err := s.repo.GetTicketType(ctx, ticketTypeID)
	if err != nil {
		return nil, err
	}
	if ticketType.EventID != eventID {
		return nil, ErrTicketTypeNotFound
	}

	if req.Name != nil {
		ticketType.Name = *req.Name
	}
	if req.Price != nil {
		ticketType.Price = *req.Price
	}
	if req.Quantity != nil {
		ticketType.Quantity = *req.Quantity
	}

	if err := s.repo.UpdateTicketType(ctx, ticketType); err != nil {
		return nil, err
	}

	s.invalidateEventCache(ctx, eventID)
	return ticketType, nil
}

func (s *service) invalidateEventCache(ctx context.Context, eventID uint) {
	if s.cacheService == nil {
		return
	}
	if err := s.cacheService.Delete(ctx, cache.EventKey(eventID)); err != nil {
		logger.GetDefault().Warn("event cache invalidation failed", slog.Any("error", err))
	}
}
