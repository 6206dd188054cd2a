package entities

import (
	"time"

	"clippost-server/services/assistant-api/internal/domain/credential"
)

// ProviderBinding represents the database schema for per-user provider credentials
type ProviderBinding struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	UserID       string `gorm:"type:varchar(64);uniqueIndex:idx_binding_user_provider;not null"`
	Provider     string `gorm:"type:varchar(32);uniqueIndex:idx_binding_user_provider;not null"`
	EncryptedKey string `gorm:"type:text;not null"`
}

// TableName specifies the table name for ProviderBinding.
func (ProviderBinding) TableName() string {
	return "provider_bindings"
}

// EtoD converts database entity to domain model
func (b *ProviderBinding) EtoD() *credential.Binding {
	return &credential.Binding{
		ID:           b.ID,
		UserID:       b.UserID,
		Provider:     b.Provider,
		EncryptedKey: b.EncryptedKey,
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.UpdatedAt,
	}
}

// NewSchemaProviderBinding creates a database entity from domain model
func NewSchemaProviderBinding(b *credential.Binding) *ProviderBinding {
	return &ProviderBinding{
		ID:           b.ID,
		UserID:       b.UserID,
		Provider:     b.Provider,
		EncryptedKey: b.EncryptedKey,
	}
}
