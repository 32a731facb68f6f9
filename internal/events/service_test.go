package events

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	glogger "gorm.io/gorm/logger"

	"thticket/internal/shared/config"
)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: glogger.Default.LogMode(glogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Event{}, &TicketType{}))

	// nil cache: the service must work without Redis
	svc := NewService(NewRepository(db), nil, config.RedisConfig{EventCacheTTL: time.Minute})
	return svc, db
}

func createRequest() CreateEventRequest {
	return CreateEventRequest{
		Name:      "Bangkok Indie Fest",
		VenueName: "Moonstar Studio",
		StartTime: time.Now().AddDate(0, 1, 0),
		TicketTypes: []CreateTicketTypeRequest{
			{Name: "Regular", Price: 150000, Quantity: 300},
			{Name: "VIP", Price: 350000, Quantity: 50},
		},
	}
}

func TestCreateEventStartsAsDraft(t *testing.T) {
	svc, _ := newTestService(t)

	resp, err := svc.CreateEvent(context.Background(), 1, createRequest())
	require.NoError(t, err)

	assert.Equal(t, StatusDraft, resp.Status)
	assert.Equal(t, uint(1), resp.OrganizerID)
	require.Len(t, resp.TicketTypes, 2)
	assert.Equal(t, int64(150000), resp.TicketTypes[0].Price)
}

func TestPublishEventRequiresOwningOrganizer(t *testing.T) {
	svc, db := newTestService(t)

	resp, err := svc.CreateEvent(context.Background(), 1, createRequest())
	require.NoError(t, err)

	err = svc.PublishEvent(context.Background(), resp.ID, 2)
	assert.ErrorIs(t, err, ErrNotOrganizer)

	require.NoError(t, svc.PublishEvent(context.Background(), resp.ID, 1))

	var event Event
	require.NoError(t, db.First(&event, resp.ID).Error)
	assert.Equal(t, StatusPublished, event.Status)
}

func TestPublishEventUnknownEvent(t *testing.T) {
	svc, _ := newTestService(t)

	err := svc.PublishEvent(context.Background(), 999, 1)
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestGetAllEventsListsOnlyPublished(t *testing.T) {
	svc, _ := newTestService(t)

	draft, err := svc.CreateEvent(context.Background(), 1, createRequest())
	require.NoError(t, err)

	published, err := svc.CreateEvent(context.Background(), 1, createRequest())
	require.NoError(t, err)
	require.NoError(t, svc.PublishEvent(context.Background(), published.ID, 1))

	page, err := svc.GetAllEvents(context.Background(), EventListQuery{})
	require.NoError(t, err)

	assert.Equal(t, int64(1), page.TotalCount)
	require.Len(t, page.Events, 1)
	assert.Equal(t, published.ID, page.Events[0].ID)
	assert.NotEqual(t, draft.ID, page.Events[0].ID)
}

func TestUpdateTicketTypeAppliesPartialEdits(t *testing.T) {
	svc, _ := newTestService(t)

	resp, err := svc.CreateEvent(context.Background(), 1, createRequest())
	require.NoError(t, err)
	regular := resp.TicketTypes[0]

	newPrice := int64(175000)
	updated, err := svc.UpdateTicketType(context.Background(), resp.ID, regular.ID, 1, UpdateTicketTypeRequest{
		Price: &newPrice,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(175000), updated.Price)
	assert.Equal(t, "Regular", updated.Name, "unset fields stay untouched")
	assert.Equal(t, 300, updated.Quantity)
}

func TestUpdateTicketTypeRequiresOwningOrganizer(t *testing.T) {
	svc, _ := newTestService(t)

	resp, err := svc.CreateEvent(context.Background(), 1, createRequest())
	require.NoError(t, err)

	newPrice := int64(1)
	_, err = svc.UpdateTicketType(context.Background(), resp.ID, resp.TicketTypes[0].ID, 2, UpdateTicketTypeRequest{
		Price: &newPrice,
	})
	assert.ErrorIs(t, err, ErrNotOrganizer)
}

func TestUpdateTicketTypeRejectsForeignTicketType(t *testing.T) {
	svc, _ := newTestService(t)

	first, err := svc.CreateEvent(context.Background(), 1, createRequest())
	require.NoError(t, err)
	second, err := svc.CreateEvent(context.Background(), 1, createRequest())
	require.NoError(t, err)

	quantity := 5
	_, err = svc.UpdateTicketType(context.Background(), first.ID, second.TicketTypes[0].ID, 1, UpdateTicketTypeRequest{
		Quantity: &quantity,
	})
	assert.ErrorIs(t, err, ErrTicketTypeNotFound)
}

func TestGetEventByIDWithoutCache(t *testing.T) {
	svc, _ := newTestService(t)

	created, err := svc.CreateEvent(context.Background(), 1, createRequest())
	require.NoError(t, err)

	fetched, err := svc.GetEventByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, fetched.ID)
	assert.Len(t, fetched.TicketTypes, 2)
}
