package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	domain "clippost-server/services/assistant-api/internal/domain/catalog"
	"clippost-server/services/assistant-api/internal/infrastructure/database"
	"clippost-server/services/assistant-api/internal/infrastructure/database/entities"
	"clippost-server/services/assistant-api/internal/utils/platformerrors"
)

// Repository persists the post catalog. Calls join an active transaction
// when the context carries one.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a catalog repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) conn(ctx context.Context) *gorm.DB {
	return database.TxFrom(ctx, r.db).WithContext(ctx)
}

// SearchPosts returns active posts matching the filter.
func (r *Repository) SearchPosts(ctx context.Context, filter domain.SearchFilter) ([]*domain.Post, error) {
	query := r.conn(ctx).Model(&entities.Post{}).
		Where("status = ?", string(domain.PostStatusActive))

	if filter.Query != "" {
		query = query.Where("title ILIKE ?", "%"+filter.Query+"%")
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var records []entities.Post
	if err := query.Order("created_at DESC").Find(&records).Error; err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to search posts",
			err,
			"post-search-error",
		)
	}

	result := make([]*domain.Post, len(records))
	for i := range records {
		result[i] = records[i].EtoD()
	}
	return result, nil
}

// FindByPublicID fetches a post by its public ID.
func (r *Repository) FindByPublicID(ctx context.Context, publicID string) (*domain.Post, error) {
	var entity entities.Post
	if err := r.conn(ctx).
		Where("public_id = ?", publicID).
		First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, platformerrors.NewError(
				ctx,
				platformerrors.LayerRepository,
				platformerrors.ErrorTypeNotFound,
				fmt.Sprintf("post not found: %s", publicID),
				nil,
				"post-not-found",
			)
		}
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to fetch post",
			err,
			"post-fetch-error",
		)
	}

	return entity.EtoD(), nil
}

// ListCategories returns every category with its active post count.
func (r *Repository) ListCategories(ctx context.Context) ([]*domain.CategoryCount, error) {
	var rows []struct {
		Category  string
		PostCount int64
	}
	if err := r.conn(ctx).Model(&entities.Post{}).
		Select("category, COUNT(*) AS post_count").
		Where("status = ? AND category <> ''", string(domain.PostStatusActive)).
		Group("category").
		Order("post_count DESC").
		Scan(&rows).Error; err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to list categories",
			err,
			"category-list-error",
		)
	}

	result := make([]*domain.CategoryCount, len(rows))
	for i, row := range rows {
		result[i] = &domain.CategoryCount{Name: row.Category, PostCount: row.PostCount}
	}
	return result, nil
}

// TopHashtags returns the most used hashtags across active posts. Hashtags
// are stored as JSON arrays, so the aggregation unnests them in SQL.
func (r *Repository) TopHashtags(ctx context.Context, limit int) ([]*domain.HashtagCount, error) {
	var rows []struct {
		Tag   string
		Count int64
	}
	if err := r.conn(ctx).Raw(`
		SELECT tag, COUNT(*) AS count
		FROM posts, jsonb_array_elements_text(hashtags) AS tag
		WHERE status = ?
		GROUP BY tag
		ORDER BY count DESC, tag ASC
		LIMIT ?`, string(domain.PostStatusActive), limit).
		Scan(&rows).Error; err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to aggregate hashtags",
			err,
			"hashtag-top-error",
		)
	}

	result := make([]*domain.HashtagCount, len(rows))
	for i, row := range rows {
		result[i] = &domain.HashtagCount{Tag: row.Tag, Count: row.Count}
	}
	return result, nil
}

// CreatePost inserts a new active post owned by the given user.
func (r *Repository) CreatePost(ctx context.Context, post domain.NewPost) (*domain.Post, error) {
	record := &domain.Post{
		PublicID: fmt.Sprintf("post_%s", uuid.NewString()),
		OwnerID:  post.OwnerID,
		Title:    post.Title,
		URL:      post.URL,
		Type:     post.Type,
		Status:   domain.PostStatusActive,
		Category: post.Category,
		Hashtags: post.Hashtags,
	}
	entity := entities.NewSchemaPost(record)

	if err := r.conn(ctx).Create(entity).Error; err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to create post",
			err,
			"post-create-error",
		)
	}

	return entity.EtoD(), nil
}

// UpdateStatus changes a post's status. The owner filter keeps users from
// touching posts they do not own; a mismatch looks like a missing post.
func (r *Repository) UpdateStatus(ctx context.Context, publicID, ownerID string, status domain.PostStatus) (*domain.Post, error) {
	result := r.conn(ctx).Model(&entities.Post{}).
		Where("public_id = ? AND user_id = ?", publicID, ownerID).
		Update("status", string(status))
	if result.Error != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to update post status",
			result.Error,
			"post-status-update-error",
		)
	}
	if result.RowsAffected == 0 {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeNotFound,
			fmt.Sprintf("post not found: %s", publicID),
			nil,
			"post-status-not-found",
		)
	}

	return r.FindByPublicID(ctx, publicID)
}
