package database

import (
	"fmt"

	"gorm.io/gorm"

	"clippost-server/services/assistant-api/internal/infrastructure/database/entities"
)

// AutoMigrate applies schema migrations for all persisted entities.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&entities.Conversation{},
		&entities.Message{},
		&entities.Post{},
		&entities.WriteConfirmation{},
		&entities.ProviderBinding{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
