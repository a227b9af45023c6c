package repository

import (
	"errors"

	"github.com/libertyblog/api/internal/domain/entity"
)

// Sentinel errors returned by repository implementations.
var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate")
)

// UserRepository defines the interface for account persistence.
type UserRepository interface {
	Create(u *entity.User) error
	GetByID(id string) (*entity.User, error)
	GetByEmail(email string) (*entity.User, error)
	Update(u *entity.User) error
	UpdatePassword(id, passwordHash string) error

	// Confirm flips is_verified and is_active together in a single
	// statement; a concurrent reader never sees one without the other.
	Confirm(id string) error

	// List returns non-staff, non-superuser accounts.
	List(limit, offset int) ([]*entity.User, error)

	CreateProfile(p *entity.UserProfile) error
	GetProfile(userID string) (*entity.UserProfile, error)
	UpdateProfile(p *entity.UserProfile) error
	AddPublishedPosts(userID string, delta int) error
}
