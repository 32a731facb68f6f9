package events

import (
	"time"
)

type Event struct {
	ID          uint        `json:"id" gorm:"primaryKey"`
	Name        string      `json:"name" gorm:"not null;size:255"`
	Description string      `json:"description" gorm:"type:text"`
	VenueName   string      `json:"venue_name" gorm:"not null;size:255"`
	Address     string      `json:"address" gorm:"size:255"`
	Category    string      `json:"category" gorm:"size:50"`
	StartTime   time.Time   `json:"start_time" gorm:"not null"`
	EndTime     *time.Time  `json:"end_time,omitempty"`
	ImageURL    string      `json:"image_url" gorm:"size:500"`
	Status      EventStatus `json:"status" gorm:"type:varchar(20);default:'draft'"`
	OrganizerID uint        `json:"organizer_id" gorm:"index;not null"`
	CreatedAt   time.Time   `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time   `json:"updated_at" gorm:"autoUpdateTime"`

	// Relationships
	TicketTypes []TicketType `json:"ticket_types,omitempty" gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE;"`
}

// TicketType is a purchasable admission category for one event.
// Price is in minor currency units. Quantity is the remaining stock and is
// decremented in place at payment settlement, never anywhere else.
type TicketType struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	EventID  uint   `json:"event_id" gorm:"index;not null"`
	Name     string `json:"name" gorm:"not null;size:50"`
	Price    int64  `json:"price" gorm:"not null;check:price >= 0"`
	Quantity int    `json:"quantity" gorm:"not null;check:quantity >= 0"`
}

// TableName specifies the table name for GORM
func (Event) TableName() string {
	return "events"
}

func (TicketType) TableName() string {
	return "ticket_types"
}

type CreateTicketTypeRequest struct {
	Name     string `json:"name" binding:"required,min=1,max=50"`
	Price    int64  `json:"price" binding:"min=0"`
	Quantity int    `json:"quantity" binding:"required,min=0"`
}

type CreateEventRequest struct {
	Name        string                    `json:"name" binding:"required,min=3,max=255"`
	Description string                    `json:"description" binding:"max=2000"`
	VenueName   string                    `json:"venue_name" binding:"required,min=3,max=255"`
	Address     string                    `json:"address" binding:"max=255"`
	Category    string                    `json:"category" binding:"max=50"`
	StartTime   time.Time                 `json:"start_time" binding:"required"`
	EndTime     *time.Time                `json:"end_time"`
	ImageURL    string                    `json:"image_url" binding:"omitempty,url"`
	TicketTypes []CreateTicketTypeRequest `json:"ticket_types" binding:"required,min=1,dive"`
}

type UpdateTicketTypeRequest struct {
	Name     *string `json:"name" binding:"omitempty,min=1,max=50"`
	Price    *int64  `json:"price" binding:"omitempty,min=0"`
	Quantity *int    `json:"quantity" binding:"omitempty,min=0"`
}

type EventListQuery struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	Limit    int    `form:"limit" binding:"omitempty,min=1,max=100"`
	Search   string `form:"search"`
	Category string `form:"category"`
}

type EventResponse struct {
	ID          uint         `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	VenueName   string       `json:"venue_name"`
	Address     string       `json:"address"`
	Category    string       `json:"category"`
	StartTime   time.Time    `json:"start_time"`
	EndTime     *time.Time   `json:"end_time,omitempty"`
	ImageURL    string       `json:"image_url"`
	Status      EventStatus  `json:"status"`
	OrganizerID uint         `json:"organizer_id"`
	TicketTypes []TicketType `json:"ticket_types"`
	CreatedAt   time.Time    `json:"created_at"`
}

type PaginatedEvents struct {
	Events     []EventResponse `json:"events"`
	TotalCount int64           `json:"total_count"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
	TotalPages int             `json:"total_pages"`
}

// Helper method to convert Event to EventResponse
func (e *Event) ToResponse() EventResponse {
	ticketTypes := e.TicketTypes
	if ticketTypes == nil {
		ticketTypes = []TicketType{}
	}

	return EventResponse{
		ID:          e.ID,
		Name:        e.Name,
		Description: e.Description,
		VenueName:   e.VenueName,
		Address:     e.Address,
		Category:    e.Category,
		StartTime:   e.StartTime,
		EndTime:     e.EndTime,
		ImageURL:    e.ImageURL,
		Status:      e.Status,
		OrganizerID: e.OrganizerID,
		TicketTypes: ticketTypes,
		CreatedAt:   e.CreatedAt,
	}
}
