package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/crm-backend/internal/domain/entity"
	"github.com/sangkips/crm-backend/internal/domain/enum"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	Update(ctx context.Context, user *entity.User) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]entity.User, error)
	ListByRoles(ctx context.Context, roles ...enum.Role) ([]entity.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string, changedAt time.Time) error

	// RecordLogin stores a login entry and trims history to entity.MaxLoginHistory.
	RecordLogin(ctx context.Context, userID uuid.UUID, entry *entity.LoginHistory) error
	// LoginHistory returns the retained entries, newest first.
	LoginHistory(ctx context.Context, userID uuid.UUID) ([]entity.LoginHistory, error)
}

// PasswordResetTokenRepository defines the interface for password reset token operations
type PasswordResetTokenRepository interface {
	Create(ctx context.Context, token *entity.PasswordResetToken) error
	GetByToken(ctx context.Context, token string) (*entity.PasswordResetToken, error)
	MarkAsUsed(ctx context.Context, token string) error
	DeleteByEmail(ctx context.Context, email string) error
	// DeleteExpired removes expired and used tokens and reports how many were removed
	DeleteExpired(ctx context.Context) (int64, error)
}
