package catalog

import (
	"context"
	"time"
)

// PostStatus is the moderation status of a shared post.
type PostStatus string

const (
	PostStatusActive   PostStatus = "active"
	PostStatusHidden   PostStatus = "hidden"
	PostStatusArchived PostStatus = "archived"
)

// ValidStatus reports whether raw names a known post status.
func ValidStatus(raw string) bool {
	switch PostStatus(raw) {
	case PostStatusActive, PostStatusHidden, PostStatusArchived:
		return true
	}
	return false
}

// PostType is the media kind of a shared post.
type PostType string

const (
	PostTypeLink    PostType = "link"
	PostTypeVideo   PostType = "video"
	PostTypeImage   PostType = "image"
	PostTypeArticle PostType = "article"
)

// ValidType reports whether raw names a known post type.
func ValidType(raw string) bool {
	switch PostType(raw) {
	case PostTypeLink, PostTypeVideo, PostTypeImage, PostTypeArticle:
		return true
	}
	return false
}

// Post is a shared link on the board.
type Post struct {
	ID        uint
	PublicID  string
	OwnerID   string
	Title     string
	URL       string
	Type      PostType
	Status    PostStatus
	Category  string
	Hashtags  []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CategoryCount is a category name with the number of posts carrying it.
type CategoryCount struct {
	Name      string
	PostCount int64
}

// HashtagCount is a hashtag with its usage count across posts.
type HashtagCount struct {
	Tag   string
	Count int64
}

// SearchFilter narrows a post search.
type SearchFilter struct {
	Query    string
	Category string
	Limit    int
}

// NewPost carries the fields needed to create a post.
type NewPost struct {
	OwnerID  string
	Title    string
	URL      string
	Type     PostType
	Category string
	Hashtags []string
}

// Repository provides persistence for the post catalog.
type Repository interface {
	SearchPosts(ctx context.Context, filter SearchFilter) ([]*Post, error)
	FindByPublicID(ctx context.Context, publicID string) (*Post, error)
	ListCategories(ctx context.Context) ([]*CategoryCount, error)
	TopHashtags(ctx context.Context, limit int) ([]*HashtagCount, error)
	CreatePost(ctx context.Context, post NewPost) (*Post, error)
	UpdateStatus(ctx context.Context, publicID, ownerID string, status PostStatus) (*Post, error)
}
