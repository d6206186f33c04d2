package repository

import (
	"context"

	"github.com/glindberg2000/ella-ai-sub000/internal/domain"
)

// UserRepository defines methods for user operations
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	ListActive(ctx context.Context) ([]*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
}

// CredentialRepository defines methods over stored provider credentials
type CredentialRepository interface {
	GetByProvider(ctx context.Context, provider string) (*domain.Credential, error)
	Upsert(ctx context.Context, cred *domain.Credential) error
	MarkFailed(ctx context.Context, provider string) error
}
