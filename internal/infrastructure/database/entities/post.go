package entities

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	"clippost-server/services/assistant-api/internal/domain/catalog"
)

// Post represents the database schema for shared posts
type Post struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	PublicID string         `gorm:"type:varchar(50);uniqueIndex;not null"`
	UserID   string         `gorm:"type:varchar(64);index:idx_post_user;not null"`
	Title    string         `gorm:"type:varchar(512);not null"`
	URL      string         `gorm:"type:text;not null"`
	Type     string         `gorm:"type:varchar(16);not null"`
	Status   string         `gorm:"type:varchar(16);index:idx_post_status;not null;default:'active'"`
	Category string         `gorm:"type:varchar(64);index:idx_post_category"`
	Hashtags datatypes.JSON `gorm:"type:jsonb"`
}

// TableName specifies the table name for Post.
func (Post) TableName() string {
	return "posts"
}

// EtoD converts database entity to domain model
func (p *Post) EtoD() *catalog.Post {
	var hashtags []string
	if len(p.Hashtags) > 0 {
		_ = json.Unmarshal(p.Hashtags, &hashtags)
	}

	return &catalog.Post{
		ID:        p.ID,
		PublicID:  p.PublicID,
		OwnerID:   p.UserID,
		Title:     p.Title,
		URL:       p.URL,
		Type:      catalog.PostType(p.Type),
		Status:    catalog.PostStatus(p.Status),
		Category:  p.Category,
		Hashtags:  hashtags,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// NewSchemaPost creates a database entity from domain model
func NewSchemaPost(p *catalog.Post) *Post {
	var hashtags datatypes.JSON
	if len(p.Hashtags) > 0 {
		raw, err := json.Marshal(p.Hashtags)
		if err == nil {
			hashtags = datatypes.JSON(raw)
		}
	}

	return &Post{
		ID:       p.ID,
		PublicID: p.PublicID,
		UserID:   p.OwnerID,
		Title:    p.Title,
		URL:      p.URL,
		Type:     string(p.Type),
		Status:   string(p.Status),
		Category: p.Category,
		Hashtags: hashtags,
	}
}
