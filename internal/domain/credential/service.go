package credential

import (
	"context"
	"fmt"
	"time"

	"clippost-server/services/assistant-api/internal/infrastructure/crypto"
	"clippost-server/services/assistant-api/internal/utils/platformerrors"
)

// Binding associates a user with an encrypted API key for one provider.
// At most one binding exists per (user, provider) pair.
type Binding struct {
	ID           uint
	UserID       string
	Provider     string
	EncryptedKey string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Repository provides persistence for provider bindings.
type Repository interface {
	Upsert(ctx context.Context, binding *Binding) error
	FindByUserAndProvider(ctx context.Context, userID, provider string) (*Binding, error)
	Delete(ctx context.Context, userID, provider string) error
}

// Service encrypts credentials at rest and decrypts them on demand.
type Service struct {
	repo   Repository
	secret string
}

// NewService builds a credential service.
func NewService(repo Repository, secret string) *Service {
	return &Service{repo: repo, secret: secret}
}

// Save encrypts the API key and upserts the user's binding for the provider.
func (s *Service) Save(ctx context.Context, userID, provider, apiKey string) error {
	encrypted, err := crypto.EncryptString(s.secret, apiKey)
	if err != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerDomain,
			platformerrors.ErrorTypeInternal,
			"failed to encrypt credential",
			err,
			"credential-encrypt-error",
		)
	}

	return s.repo.Upsert(ctx, &Binding{
		UserID:       userID,
		Provider:     provider,
		EncryptedKey: encrypted,
	})
}

// Resolve returns the decrypted API key for the user's provider binding.
// A missing binding and a failed decryption are distinct failures so the
// caller can report them separately.
func (s *Service) Resolve(ctx context.Context, userID, provider string) (string, error) {
	binding, err := s.repo.FindByUserAndProvider(ctx, userID, provider)
	if err != nil {
		if platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound) {
			return "", platformerrors.NewError(
				ctx,
				platformerrors.LayerDomain,
				platformerrors.ErrorTypeValidation,
				fmt.Sprintf("no credential configured for provider %s", provider),
				nil,
				"credential-missing",
			)
		}
		return "", err
	}

	apiKey, err := crypto.DecryptString(s.secret, binding.EncryptedKey)
	if err != nil {
		return "", platformerrors.NewError(
			ctx,
			platformerrors.LayerDomain,
			platformerrors.ErrorTypeInternal,
			fmt.Sprintf("failed to decrypt credential for provider %s", provider),
			err,
			"credential-decrypt-error",
		)
	}
	return apiKey, nil
}

// Remove deletes the user's binding for the provider.
func (s *Service) Remove(ctx context.Context, userID, provider string) error {
	return s.repo.Delete(ctx, userID, provider)
}
