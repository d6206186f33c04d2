package repository

import (
	"github.com/glindberg2000/ella-ai-sub000/pkg/database"
)

// Repositories holds all repository interfaces
type Repositories struct {
	User       UserRepository
	Credential CredentialRepository
}

// NewRepositories creates all repositories
func NewRepositories(db *database.Postgres) *Repositories {
	return &Repositories{
		User:       NewUserRepository(db),
		Credential: NewCredentialRepository(db),
	}
}
