package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/glindberg2000/ella-ai-sub000/internal/domain"
	"github.com/glindberg2000/ella-ai-sub000/pkg/database"
)

// credentialRepository implements CredentialRepository interface
type credentialRepository struct {
	db *database.Postgres
}

// NewCredentialRepository creates a new credential repository
func NewCredentialRepository(db *database.Postgres) CredentialRepository {
	return &credentialRepository{db: db}
}

// GetByProvider retrieves the stored credential for a provider
func (r *credentialRepository) GetByProvider(ctx context.Context, provider string) (*domain.Credential, error) {
	query := `
		SELECT provider, access_token, refresh_token, expiry, status, updated_at
		FROM credentials
		WHERE provider = $1
	`

	cred := &domain.Credential{}
	err := r.db.DB.QueryRowContext(ctx, query, provider).Scan(
		&cred.Provider,
		&cred.AccessToken,
		&cred.RefreshToken,
		&cred.Expiry,
		&cred.Status,
		&cred.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("credential for provider %s not found: %w", provider, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get credential: %w", err)
	}

	return cred, nil
}

// Upsert stores a credential, replacing any existing row for the provider.
// Re-consent goes through here too, which resets a failed status.
func (r *credentialRepository) Upsert(ctx context.Context, cred *domain.Credential) error {
	query := `
		INSERT INTO credentials (provider, access_token, refresh_token, expiry, status, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (provider) DO UPDATE
		SET access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			expiry = EXCLUDED.expiry,
			status = EXCLUDED.status,
			updated_at = NOW()
	`

	if cred.Status == "" {
		cred.Status = domain.CredentialValid
	}

	_, err := r.db.DB.ExecContext(ctx, query,
		cred.Provider,
		cred.AccessToken,
		cred.RefreshToken,
		cred.Expiry,
		cred.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert credential: %w", err)
	}

	return nil
}

// MarkFailed flags a credential as needing re-consent
func (r *credentialRepository) MarkFailed(ctx context.Context, provider string) error {
	query := `
		UPDATE credentials
		SET status = $2, updated_at = NOW()
		WHERE provider = $1
	`

	result, err := r.db.DB.ExecContext(ctx, query, provider, domain.CredentialFailed)
	if err != nil {
		return fmt.Errorf("failed to mark credential failed: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("credential for provider %s not found: %w", provider, ErrNotFound)
	}

	return nil
}
