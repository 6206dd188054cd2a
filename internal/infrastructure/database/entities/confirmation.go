package entities

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	"clippost-server/services/assistant-api/internal/domain/confirmation"
)

// WriteConfirmation represents the database schema for staged write proposals
type WriteConfirmation struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`

	PublicID   string         `gorm:"type:varchar(50);uniqueIndex;not null"`
	UserID     string         `gorm:"type:varchar(64);index:idx_confirmation_user;not null"`
	ToolName   string         `gorm:"type:varchar(64);not null"`
	Payload    datatypes.JSON `gorm:"type:jsonb;not null"`
	ExpiresAt  time.Time      `gorm:"not null"`
	ExecutedAt *time.Time
}

// TableName specifies the table name for WriteConfirmation.
func (WriteConfirmation) TableName() string {
	return "write_confirmations"
}

// EtoD converts database entity to domain model
func (c *WriteConfirmation) EtoD() *confirmation.Confirmation {
	return &confirmation.Confirmation{
		ID:         c.ID,
		PublicID:   c.PublicID,
		UserID:     c.UserID,
		ToolName:   c.ToolName,
		Payload:    json.RawMessage(c.Payload),
		CreatedAt:  c.CreatedAt,
		ExpiresAt:  c.ExpiresAt,
		ExecutedAt: c.ExecutedAt,
	}
}

// NewSchemaWriteConfirmation creates a database entity from domain model
func NewSchemaWriteConfirmation(c *confirmation.Confirmation) *WriteConfirmation {
	return &WriteConfirmation{
		ID:         c.ID,
		PublicID:   c.PublicID,
		UserID:     c.UserID,
		ToolName:   c.ToolName,
		Payload:    datatypes.JSON(c.Payload),
		ExpiresAt:  c.ExpiresAt,
		ExecutedAt: c.ExecutedAt,
	}
}
