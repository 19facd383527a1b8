package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/crm-backend/internal/domain/entity"
	"github.com/sangkips/crm-backend/internal/domain/enum"
	"github.com/sangkips/crm-backend/internal/domain/repository"
	"github.com/sangkips/crm-backend/internal/infrastructure/cache"
	"github.com/sangkips/crm-backend/pkg/apperror"
	"github.com/sangkips/crm-backend/pkg/email"
	"github.com/sangkips/crm-backend/pkg/utils"
	"go.uber.org/zap"
)

const resetTokenTTL = time.Hour

var (
	errInvalidCredentials = apperror.NewAppError(http.StatusUnauthorized, "Invalid credentials")
	errInvalidResetToken  = apperror.NewBadRequestError("Invalid or expired reset token")
)

// AuthService handles authentication-related operations
type AuthService struct {
	userRepo          repository.UserRepository
	passwordResetRepo repository.PasswordResetTokenRepository
	jwtManager        *utils.JWTManager
	emailService      *email.EmailService
	reportCache       *cache.ReportCache
	logger            *zap.Logger
	now               func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo repository.UserRepository,
	passwordResetRepo repository.PasswordResetTokenRepository,
	jwtManager *utils.JWTManager,
	emailService *email.EmailService,
	reportCache *cache.ReportCache,
	logger *zap.Logger,
) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		userRepo:          userRepo,
		passwordResetRepo: passwordResetRepo,
		jwtManager:        jwtManager,
		emailService:      emailService,
		reportCache:       reportCache,
		logger:            logger,
		now:               nowUTC,
	}
}

// RegisterInput represents the registration input
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// Register creates a new employee account
func (s *AuthService) Register(ctx context.Context, input *RegisterInput) (*entity.User, error) {
	addr := normalizeEmail(input.Email)
	existing, err := s.userRepo.GetByEmail(ctx, addr)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.NewBadRequestError("User with this email already exists")
	}

	hashed, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := &entity.User{
		Name:     strings.TrimSpace(input.Name),
		Email:    addr,
		Password: hashed,
		Role:     enum.RoleEmployee,
		Settings: entity.DefaultUserSettings(),
		Security: entity.DefaultSecuritySettings(s.now()),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("user registered", zap.String("user_id", user.ID.String()))
	// New employees join the sales rep list.
	newEffects(s.logger, nil, s.reportCache).invalidateReports(ctx)
	return user, nil
}

// LoginInput represents the login input
type LoginInput struct {
	Email     string
	Password  string
	UserAgent string
	IP        string
}

// LoginOutput represents the login output
type LoginOutput struct {
	User         *entity.User
	AccessToken  string
	RefreshToken string
}

// Login authenticates a user, records the sign-in and returns tokens
func (s *AuthService) Login(ctx context.Context, input *LoginInput) (*LoginOutput, error) {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(input.Email))
	if err != nil {
		return nil, err
	}
	if user == nil || !utils.CheckPasswordHash(input.Password, user.Password) {
		return nil, errInvalidCredentials
	}

	device, browser := describeUserAgent(input.UserAgent)
	entry := &entity.LoginHistory{
		Device:    device,
		Browser:   browser,
		IP:        orUnknown(input.IP),
		Timestamp: s.now(),
	}
	if err := s.userRepo.RecordLogin(ctx, user.ID, entry); err != nil {
		return nil, err
	}

	return s.issue(user)
}

// RefreshToken exchanges a refresh token for a new token pair
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*LoginOutput, error) {
	userID, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, apperror.ErrInvalidToken
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.ErrInvalidToken
	}
	return s.issue(user)
}

func (s *AuthService) issue(user *entity.User) (*LoginOutput, error) {
	access, err := s.jwtManager.GenerateAccessToken(user.ID, user.Email, user.Role.String())
	if err != nil {
		return nil, err
	}
	refresh, err := s.jwtManager.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, err
	}
	return &LoginOutput{User: user, AccessToken: access, RefreshToken: refresh}, nil
}

// GetCurrentUser returns the current user by ID
func (s *AuthService) GetCurrentUser(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.NewNotFoundError("User")
	}
	return user, nil
}

// ChangePasswordInput represents the change password input
type ChangePasswordInput struct {
	UserID          uuid.UUID
	CurrentPassword string
	NewPassword     string
}

// ChangePassword changes the user's password
func (s *AuthService) ChangePassword(ctx context.Context, input *ChangePasswordInput) error {
	user, err := s.userRepo.GetByID(ctx, input.UserID)
	if err != nil {
		return err
	}
	if user == nil {
		return apperror.NewNotFoundError("User")
	}

	if !utils.CheckPasswordHash(input.CurrentPassword, user.Password) {
		return apperror.NewAppError(http.StatusUnauthorized, "Current password is incorrect")
	}

	hashed, err := utils.HashPassword(input.NewPassword)
	if err != nil {
		return err
	}
	return s.userRepo.UpdatePassword(ctx, user.ID, hashed, s.now())
}

// ForgotPassword mails a reset token when the address belongs to a user.
// It reports success either way so callers cannot probe for accounts.
func (s *AuthService) ForgotPassword(ctx context.Context, address string) error {
	addr := normalizeEmail(address)
	user, err := s.userRepo.GetByEmail(ctx, addr)
	if err != nil {
		return err
	}
	if user == nil {
		return nil
	}

	if err := s.passwordResetRepo.DeleteByEmail(ctx, addr); err != nil {
		return err
	}

	token, err := utils.RandomToken(32)
	if err != nil {
		return err
	}
	resetToken := &entity.PasswordResetToken{
		Email:     addr,
		Token:     token,
		ExpiresAt: s.now().Add(resetTokenTTL),
	}
	if err := s.passwordResetRepo.Create(ctx, resetToken); err != nil {
		return err
	}

	if err := s.emailService.SendPasswordResetEmail(addr, token); err != nil {
		level := s.logger.Warn
		if errors.Is(err, email.ErrNotConfigured) {
			level = s.logger.Debug
		}
		level("password reset email not sent", zap.String("user_id", user.ID.String()), zap.Error(err))
	}
	return nil
}

// ResetPasswordInput represents the reset password input
type ResetPasswordInput struct {
	Email       string
	Token       string
	NewPassword string
}

// ResetPassword resets the user's password using a valid token
func (s *AuthService) ResetPassword(ctx context.Context, input *ResetPasswordInput) error {
	addr := normalizeEmail(input.Email)
	resetToken, err := s.passwordResetRepo.GetByToken(ctx, input.Token)
	if err != nil {
		return err
	}
	if resetToken == nil || resetToken.Email != addr || !resetToken.IsValid(s.now()) {
		return errInvalidResetToken
	}

	user, err := s.userRepo.GetByEmail(ctx, addr)
	if err != nil {
		return err
	}
	if user == nil {
		return errInvalidResetToken
	}

	hashed, err := utils.HashPassword(input.NewPassword)
	if err != nil {
		return err
	}
	if err := s.userRepo.UpdatePassword(ctx, user.ID, hashed, s.now()); err != nil {
		return err
	}

	// The password is already changed; token bookkeeping failures only leave
	// rows for the cleanup sweep.
	if err := s.passwordResetRepo.MarkAsUsed(ctx, input.Token); err != nil {
		s.logger.Warn("failed to mark reset token used", zap.Error(err))
	}
	if err := s.passwordResetRepo.DeleteByEmail(ctx, addr); err != nil {
		s.logger.Warn("failed to delete reset tokens", zap.Error(err))
	}
	return nil
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Unknown"
	}
	return s
}

// describeUserAgent reduces a User-Agent header to a device class and a browser name.
func describeUserAgent(ua string) (device, browser string) {
	if strings.TrimSpace(ua) == "" {
		return "Unknown", "Unknown"
	}
	l := strings.ToLower(ua)

	switch {
	case strings.Contains(l, "ipad") || strings.Contains(l, "tablet"):
		device = "Tablet"
	case strings.Contains(l, "mobi") || strings.Contains(l, "iphone") || strings.Contains(l, "android"):
		device = "Mobile"
	default:
		device = "Desktop"
	}

	// Order matters: Edge and Opera also announce Chrome, Chrome also announces Safari.
	switch {
	case strings.Contains(l, "edg/") || strings.Contains(l, "edge/"):
		browser = "Edge"
	case strings.Contains(l, "opr/") || strings.Contains(l, "opera"):
		browser = "Opera"
	case strings.Contains(l, "firefox/"):
		browser = "Firefox"
	case strings.Contains(l, "chrome/") || strings.Contains(l, "crios/"):
		browser = "Chrome"
	case strings.Contains(l, "safari/"):
		browser = "Safari"
	default:
		browser = "Other"
	}
	return device, browser
}
