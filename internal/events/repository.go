package events

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

var (
	ErrEventNotFound      = errors.New("event not found")
	ErrTicketTypeNotFound = errors.New("ticket type not found")
)

type Repository interface {
	CreateEvent(ctx context.Context, event *Event) error
	GetEventByID(ctx context.Context, id uint) (*Event, error)
	GetAllEvents(ctx context.Context, query EventListQuery) ([]Event, int64, error)
	UpdateEventStatus(ctx context.Context, id uint, status EventStatus) error

	GetTicketType(ctx context.Context, id uint) (*TicketType, error)
	GetTicketTypesByEventID(ctx context.Context, eventID uint) ([]TicketType, error)
	UpdateTicketType(ctx context.Context, ticketType *TicketType) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateEvent(ctx context.Context, event *Event) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *repository) GetEventByID(ctx context.Context, id uint) (*Event, error) {
	var event Event
	err := r.db.WithContext(ctx).
		Preload("TicketTypes").
		Where("id = ?", id).
		First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return &event, nil
}

func (r *repository) GetAllEvents(ctx context.Context, query EventListQuery) ([]Event, int64, error) {
	var events []Event
	var totalCount int64

	// Set defaults
	if query.Page <= 0 {
		query.Page = 1
	}
	if query.Limit <= 0 {
		query.Limit = 10
	}

	// Only published events are listed publicly
	baseQuery := r.db.WithContext(ctx).
		Model(&Event{}).
		Where("status = ?", StatusPublished)

	if query.Category != "" {
		baseQuery = baseQuery.Where("category = ?", query.Category)
	}

	if query.Search != "" {
		pattern := "%" + query.Search + "%"
		baseQuery = baseQuery.Where("name ILIKE ? OR description ILIKE ?", pattern, pattern)
	}

	// Get total count
	if err := baseQuery.Count(&totalCount).Error; err != nil {
		return nil, 0, err
	}

	// Get paginated results
	offset := (query.Page - 1) * query.Limit
	err := baseQuery.
		Preload("TicketTypes").
		Order("start_time ASC").
		Offset(offset).
		Limit(query.Limit).
		Find(&events).Error

	return events, totalCount, err
}

func (r *repository) UpdateEventStatus(ctx context.Context, id uint, status EventStatus) error {
	result := r.db.WithContext(ctx).
		Model(&Event{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrEventNotFound
	}
	return nil
}

func (r *repository) GetTicketType(ctx context.Context, id uint) (*TicketType, error) {
	var ticketType TicketType
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&ticketType).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTicketTypeNotFound
		}
		return nil, err
	}
	return &ticketType, nil
}

func (r *repository) GetTicketTypesByEventID(ctx context.Context, eventID uint) ([]TicketType, error) {
	var ticketTypes []TicketType
	err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("id ASC").
		Find(&ticketTypes).Error
	return ticketTypes, err
}

// UpdateTicketType persists organizer edits. This never touches stock held
// under settlement locks: organizer edits are out of scope for concurrency.
func (r *repository) UpdateTicketType(ctx context.Context, ticketType *TicketType) error {
	return r.db.WithContext(ctx).Save(ticketType).Error
}
