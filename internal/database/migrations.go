package database

import (
	"github.com/shareloop/shareloop-backend/internal/models"
	"gorm.io/gorm"
)

func RunMigrations(db *gorm.DB) error {
	// Create tables if they don't exist
	err := db.AutoMigrate(
		&models.User{},
		&models.ItemRequest{},
		&models.Item{},
		&models.Booking{},
		&models.Comment{},
	)
	if err != nil {
		return err
	}

	// Storage-level backstop for the no-double-booking invariant: two APPROVED
	// bookings on one item may not hold overlapping [start, end) windows even
	// if an application-level check is ever bypassed.
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS btree_gist`).Error; err != nil {
		return err
	}

	var constraintExists bool
	err = db.Raw(`
		SELECT EXISTS (
			SELECT 1
			FROM pg_constraint
			WHERE conname = 'bookings_no_approved_overlap'
		)`).Scan(&constraintExists).Error
	if err != nil {
		return err
	}

	if !constraintExists {
		err = db.Exec(`
			ALTER TABLE bookings
			ADD CONSTRAINT bookings_no_approved_overlap
			EXCLUDE USING gist (
				item_id WITH =,
				tsrange(start_date, end_date) WITH &&
			) WHERE (status = 'APPROVED' AND deleted_at IS NULL)`).Error
		if err != nil {
			return err
		}
	}

	return nil
}
