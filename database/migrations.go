package database

import (
	"gorm.io/gorm"

	"eventix/models"
)

// Migrate runs AutoMigrate for every persisted model. It is called from main
// in development; production schemas are managed through reviewed migrations.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Event{},
		&models.PaymentTransaction{},
		&models.CallbackAudit{},
		&models.Booking{},
	)
}
