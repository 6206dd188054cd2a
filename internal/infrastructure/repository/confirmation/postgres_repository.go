package confirmation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domain "clippost-server/services/assistant-api/internal/domain/confirmation"
	"clippost-server/services/assistant-api/internal/infrastructure/database"
	"clippost-server/services/assistant-api/internal/infrastructure/database/entities"
	"clippost-server/services/assistant-api/internal/utils/platformerrors"
)

// Repository persists staged write confirmations.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a confirmation repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) conn(ctx context.Context) *gorm.DB {
	return database.TxFrom(ctx, r.db).WithContext(ctx)
}

// Create inserts the confirmation record.
func (r *Repository) Create(ctx context.Context, conf *domain.Confirmation) error {
	entity := entities.NewSchemaWriteConfirmation(conf)

	if err := r.conn(ctx).Create(entity).Error; err != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to create confirmation",
			err,
			"confirmation-create-error",
		)
	}

	conf.ID = entity.ID
	conf.CreatedAt = entity.CreatedAt
	return nil
}

// FindForUpdate fetches a confirmation by public ID, locking its row for the
// duration of the enclosing transaction so concurrent executes serialize.
func (r *Repository) FindForUpdate(ctx context.Context, publicID string) (*domain.Confirmation, error) {
	var entity entities.WriteConfirmation
	if err := r.conn(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("public_id = ?", publicID).
		First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, platformerrors.NewError(
				ctx,
				platformerrors.LayerRepository,
				platformerrors.ErrorTypeNotFound,
				fmt.Sprintf("confirmation not found: %s", publicID),
				nil,
				"confirmation-not-found",
			)
		}
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to fetch confirmation",
			err,
			"confirmation-fetch-error",
		)
	}

	return entity.EtoD(), nil
}

// MarkExecuted records the execution time of a consumed confirmation.
func (r *Repository) MarkExecuted(ctx context.Context, id uint, executedAt time.Time) error {
	result := r.conn(ctx).Model(&entities.WriteConfirmation{}).
		Where("id = ? AND executed_at IS NULL", id).
		Update("executed_at", executedAt)
	if result.Error != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to mark confirmation executed",
			result.Error,
			"confirmation-mark-error",
		)
	}
	if result.RowsAffected == 0 {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeConflict,
			fmt.Sprintf("confirmation already executed: %d", id),
			nil,
			"confirmation-mark-conflict",
		)
	}
	return nil
}
