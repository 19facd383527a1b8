package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/sangkips/crm-backend/internal/domain/entity"
	"github.com/sangkips/crm-backend/internal/domain/enum"
	"github.com/sangkips/crm-backend/internal/domain/policy"
	"github.com/sangkips/crm-backend/internal/domain/repository"
	"github.com/sangkips/crm-backend/internal/infrastructure/cache"
	"github.com/sangkips/crm-backend/internal/infrastructure/storage"
	"github.com/sangkips/crm-backend/pkg/apperror"
	"go.uber.org/zap"
)

// UserService handles user management operations
type UserService struct {
	userRepo repository.UserRepository
	store    storage.Storage
	effects  effects
}

// NewUserService creates a new user service. store may be nil, in which case
// avatars are left in place when their user is deleted. Profile writes bump
// reportCache because reports carry user names and the sales rep list.
func NewUserService(userRepo repository.UserRepository, store storage.Storage, reportCache *cache.ReportCache, logger *zap.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		store:    store,
		effects:  newEffects(logger, nil, reportCache),
	}
}

// ListUsers returns every user, newest first
func (s *UserService) ListUsers(ctx context.Context, actor policy.Actor) ([]entity.User, error) {
	if err := policy.Authorize(actor, policy.UserList, nil); err != nil {
		return nil, err
	}
	return s.userRepo.List(ctx)
}

// GetUser returns a user by ID
func (s *UserService) GetUser(ctx context.Context, actor policy.Actor, id uuid.UUID) (*entity.User, error) {
	if err := policy.Authorize(actor, policy.UserRead, &id); err != nil {
		return nil, err
	}
	return s.find(ctx, id)
}

func (s *UserService) find(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.NewNotFoundError("User")
	}
	return user, nil
}

// UpdateUserInput carries the profile fields to change. Nil fields are kept.
type UpdateUserInput struct {
	Name     *string
	Email    *string
	Role     *enum.Role
	Position *string
	Phone    *string
	Bio      *string
	Avatar   *string
}

// UpdateUser updates a user's profile. Changing the role requires admin.
func (s *UserService) UpdateUser(ctx context.Context, actor policy.Actor, id uuid.UUID, input *UpdateUserInput) (*entity.User, error) {
	if err := policy.Authorize(actor, policy.UserUpdate, &id); err != nil {
		return nil, err
	}
	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Role != nil && *input.Role != user.Role {
		if err := policy.Authorize(actor, policy.UserChangeRole, nil); err != nil {
			return nil, err
		}
		if !input.Role.IsValid() {
			return nil, apperror.NewBadRequestError("Invalid role " + input.Role.String())
		}
		user.Role = *input.Role
	}

	if input.Email != nil {
		addr := normalizeEmail(*input.Email)
		if addr != user.Email {
			other, err := s.userRepo.GetByEmail(ctx, addr)
			if err != nil {
				return nil, err
			}
			if other != nil {
				return nil, apperror.NewConflictError("Email already in use")
			}
			user.Email = addr
		}
	}

	setString(&user.Name, input.Name)
	setString(&user.Position, input.Position)
	setString(&user.Phone, input.Phone)
	setString(&user.Bio, input.Bio)
	setString(&user.Avatar, input.Avatar)

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	s.effects.invalidateReports(ctx)
	return user, nil
}

// DeleteUser removes a user. Their leads and quotations keep dangling references.
func (s *UserService) DeleteUser(ctx context.Context, actor policy.Actor, id uuid.UUID) error {
	if err := policy.Authorize(actor, policy.UserDelete, &id); err != nil {
		return err
	}
	user, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := s.userRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.removeFile(ctx, "avatar", user.Avatar)
	s.effects.invalidateReports(ctx)
	return nil
}

func (s *UserService) removeFile(ctx context.Context, effect, url string) {
	if s.store == nil || url == "" {
		return
	}
	if key, ok := s.store.KeyFromURL(url); ok {
		s.effects.failed(effect+"_delete", s.store.Delete(ctx, key), zap.String("key", key))
	}
}

// SettingsPatch holds the preference fields to change. Nil fields are kept.
type SettingsPatch struct {
	Language           *string
	Timezone           *string
	EmailNotifications *bool
	SMSNotifications   *bool
	AppNotifications   *bool
	Theme              *string
}

// UpdateSettings merges patch into the user's preferences. Self only.
func (s *UserService) UpdateSettings(ctx context.Context, actor policy.Actor, id uuid.UUID, patch *SettingsPatch) (*entity.UserSettings, error) {
	if err := policy.Authorize(actor, policy.UserSettings, &id); err != nil {
		return nil, err
	}
	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	st := &user.Settings
	setString(&st.Language, patch.Language)
	setString(&st.Timezone, patch.Timezone)
	setBool(&st.EmailNotifications, patch.EmailNotifications)
	setBool(&st.SMSNotifications, patch.SMSNotifications)
	setBool(&st.AppNotifications, patch.AppNotifications)
	setString(&st.Theme, patch.Theme)

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return &user.Settings, nil
}

// SecurityPatch holds the security toggles to change. Nil fields are kept.
type SecurityPatch struct {
	TwoFactorAuth      *bool
	SessionTimeout     *bool
	LoginNotifications *bool
	PasswordExpiry     *bool
}

// UpdateSecurity merges patch into the user's security settings. Self only.
func (s *UserService) UpdateSecurity(ctx context.Context, actor policy.Actor, id uuid.UUID, patch *SecurityPatch) (*entity.SecuritySettings, error) {
	if err := policy.Authorize(actor, policy.UserSecurity, &id); err != nil {
		return nil, err
	}
	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	sec := &user.Security
	setBool(&sec.TwoFactorAuth, patch.TwoFactorAuth)
	setBool(&sec.SessionTimeout, patch.SessionTimeout)
	setBool(&sec.LoginNotifications, patch.LoginNotifications)
	setBool(&sec.PasswordExpiry, patch.PasswordExpiry)

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return &user.Security, nil
}

// LoginHistory returns the retained sign-ins of a user, newest first
func (s *UserService) LoginHistory(ctx context.Context, actor policy.Actor, id uuid.UUID) ([]entity.LoginHistory, error) {
	if err := policy.Authorize(actor, policy.UserLoginHistory, &id); err != nil {
		return nil, err
	}
	if _, err := s.find(ctx, id); err != nil {
		return nil, err
	}
	return s.userRepo.LoginHistory(ctx, id)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
