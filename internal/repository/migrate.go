package repository

import (
	"gorm.io/gorm"

	"ridebooking/internal/modules/notify"
)

// Migrate creates or updates the schema for every persisted model.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&bookingModel{},
		&historyModel{},
		&notify.Preference{},
	)
}
