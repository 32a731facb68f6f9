package database

import (
	"gorm.io/gorm"
)

// MigrateConstraints adds critical database constraints for concurrency control
func MigrateConstraints(db *gorm.DB) error {
	// Stock can never go negative, even if application-level validation is
	// bypassed. Postgres cannot ADD CONSTRAINT IF NOT EXISTS, hence the block.
	err := db.Exec(`
		DO $$ BEGIN
			ALTER TABLE ticket_types
			ADD CONSTRAINT ticket_types_quantity_non_negative
			CHECK (quantity >= 0);
		EXCEPTION
			WHEN duplicate_object THEN NULL;
		END $$;
	`).Error
	if err != nil {
		return err
	}

	// Gateway callbacks resolve payments by order code; it must be unique
	err = db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_payments_order_code
		ON payments (order_code);
	`).Error
	if err != nil {
		return err
	}

	// Index for listing a booking's lines during settlement
	err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_booking_lines_booking_id
		ON booking_lines (booking_id);
	`).Error
	if err != nil {
		return err
	}

	return nil
}
