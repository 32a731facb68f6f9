// Command seed loads a small demo dataset: one organizer, one buyer and a
// published event with two ticket types. Safe to run repeatedly; rows that
// already exist are left alone.
package main

import (
	"log"
	"time"

	"thticket/internal/events"
	"thticket/internal/shared/config"
	"thticket/internal/shared/database"
	"thticket/internal/users"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg := config.Load()

	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatalf("failed to connect: %v", err)
	}
	defer db.Close()

	gdb := db.GetPostgreSQL()

	organizer, err := seedUser(gdb, "organizer@thticket.dev", "Nok Paweena", users.RoleOrganizer)
	if err != nil {
		log.Fatalf("failed to seed organizer: %v", err)
	}

	if _, err := seedUser(gdb, "buyer@thticket.dev", "Somchai Prasert", users.RoleUser); err != nil {
		log.Fatalf("failed to seed buyer: %v", err)
	}

	if err := seedEvent(gdb, organizer.ID); err != nil {
		log.Fatalf("failed to seed event: %v", err)
	}

	log.Println("✅ Seed data loaded")
}

func seedUser(db *gorm.DB, email, name string, role users.Role) (*users.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &users.User{
		FullName: name,
		Email:    email,
		Phone:    "0812345678",
		Password: string(hashed),
		Role:     role,
	}

	// Email carries a unique index, so DoNothing makes reruns idempotent
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(user).Error; err != nil {
		return nil, err
	}
	if user.ID == 0 {
		if err := db.Where("email = ?", email).First(user).Error; err != nil {
			return nil, err
		}
	}
	return user, nil
}

func seedEvent(db *gorm.DB, organizerID uint) error {
	var count int64
	if err := db.Model(&events.Event{}).Where("organizer_id = ?", organizerID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		log.Println("events already seeded, skipping")
		return nil
	}

	start := time.Now().AddDate(0, 1, 0).Truncate(time.Hour)
	end := start.Add(6 * time.Hour)

	event := &events.Event{
		Name:        "Bangkok Indie Fest 2026",
		Description: "A full day of indie bands across two stages.",
		VenueName:   "Moonstar Studio",
		Address:     "Ladprao 80, Bangkok",
		Category:    "music",
		StartTime:   start,
		EndTime:     &end,
		Status:      events.StatusPublished,
		OrganizerID: organizerID,
		TicketTypes: []events.TicketType{
			{Name: "Regular", Price: 150000, Quantity: 300},
			{Name: "VIP", Price: 350000, Quantity: 50},
		},
	}

	return db.Create(event).Error
}
