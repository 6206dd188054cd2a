package credential

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domain "clippost-server/services/assistant-api/internal/domain/credential"
	"clippost-server/services/assistant-api/internal/infrastructure/database/entities"
	"clippost-server/services/assistant-api/internal/utils/platformerrors"
)

// Repository persists per-user provider credentials.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a credential repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Upsert inserts or replaces the user's binding for a provider.
func (r *Repository) Upsert(ctx context.Context, binding *domain.Binding) error {
	entity := entities.NewSchemaProviderBinding(binding)

	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "provider"}},
			DoUpdates: clause.AssignmentColumns([]string{"encrypted_key", "updated_at"}),
		}).
		Create(entity).Error; err != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to upsert provider binding",
			err,
			"binding-upsert-error",
		)
	}

	binding.ID = entity.ID
	return nil
}

// FindByUserAndProvider fetches the user's binding for a provider.
func (r *Repository) FindByUserAndProvider(ctx context.Context, userID, provider string) (*domain.Binding, error) {
	var entity entities.ProviderBinding
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND provider = ?", userID, provider).
		First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, platformerrors.NewError(
				ctx,
				platformerrors.LayerRepository,
				platformerrors.ErrorTypeNotFound,
				fmt.Sprintf("provider binding not found: %s", provider),
				nil,
				"binding-not-found",
			)
		}
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to fetch provider binding",
			err,
			"binding-fetch-error",
		)
	}

	return entity.EtoD(), nil
}

// Delete removes the user's binding for a provider.
func (r *Repository) Delete(ctx context.Context, userID, provider string) error {
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND provider = ?", userID, provider).
		Delete(&entities.ProviderBinding{}).Error; err != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to delete provider binding",
			err,
			"binding-delete-error",
		)
	}
	return nil
}
