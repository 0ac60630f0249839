package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"

	"github.com/authstack/go-auth-service/internal/logging"
	"github.com/authstack/go-auth-service/internal/user"
)

var (
	ErrUsernameRequired   = errors.New("username is required")
	ErrEmailRequired      = errors.New("email is required")
	ErrPasswordRequired   = errors.New("password is required")
	ErrResetCodeRequired  = errors.New("reset code is required")
	ErrInvalidEmailFormat = errors.New("invalid email format")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidResetCode   = errors.New("invalid or expired token")
)

// Service is the credential and session manager. All state lives in the user
// directory; the service itself holds no cross-request mutable state, so
// concurrent requests for different users are fully independent.
type Service struct {
	directory    UserDirectory
	emailService EmailService
	tokenService TokenService
	hasher       PasswordHasher
	logger       *logging.Logger
	sessionTTL   time.Duration
	resetCodeTTL time.Duration
	now          func() time.Time
}

func NewService(
	directory UserDirectory,
	emailService EmailService,
	tokenService TokenService,
	hasher PasswordHasher,
	logger *logging.Logger,
	sessionTTL time.Duration,
	resetCodeTTL time.Duration,
) *Service {
	return &Service{
		directory:    directory,
		emailService: emailService,
		tokenService: tokenService,
		hasher:       hasher,
		logger:       logger,
		sessionTTL:   sessionTTL,
		resetCodeTTL: resetCodeTTL,
		now:          time.Now,
	}
}

// Register creates a new user account. The plaintext password is discarded
// immediately after hashing and never logged.
func (s *Service) Register(ctx context.Context, username, email, password string) (*user.User, error) {
	if err := validateRegistration(username, email, password); err != nil {
		return nil, err
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now()
	newUser := &user.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.directory.Create(ctx, newUser); err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			return nil, user.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("user registered", "user_id", newUser.ID)
	return newUser, nil
}

// Login verifies the credentials and issues a session token whose expiry is
// exactly sessionTTL after issuance. Unknown email and wrong password fail
// with distinct error kinds.
func (s *Service) Login(ctx context.Context, email, password string) (string, *user.User, error) {
	if email == "" {
		return "", nil, ErrEmailRequired
	}
	if password == "" {
		return "", nil, ErrPasswordRequired
	}

	existing, err := s.directory.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return "", nil, user.ErrNotFound
		}
		return "", nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := s.hasher.Compare(existing.PasswordHash, password); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.tokenService.CreateToken(existing.ID, existing.Email, s.sessionTTL)
	if err != nil {
		return "", nil, fmt.Errorf("failed to create session token: %w", err)
	}

	s.logger.Info("user logged in", "user_id", existing.ID)
	return token, existing, nil
}

// GetUser loads a user by the opaque id carried in a session token.
func (s *Service) GetUser(ctx context.Context, id string) (*user.User, error) {
	u, err := s.directory.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// RequestPasswordReset stores a fresh one-time code on the user record,
// overwriting any pending code, and dispatches it by email. The send is
// synchronous: a notifier failure surfaces to the caller instead of being
// swallowed.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	if email == "" {
		return ErrEmailRequired
	}

	existing, err := s.directory.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.ErrNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	code, err := generateResetCode()
	if err != nil {
		return err
	}

	expiresAt := s.now().Add(s.resetCodeTTL)
	if err := s.directory.SetResetCode(ctx, existing.ID, code, expiresAt); err != nil {
		return fmt.Errorf("failed to store reset code: %w", err)
	}

	if err := s.emailService.SendPasswordResetCode(ctx, existing.Email, code); err != nil {
		s.logger.Warn("reset code email failed", "user_id", existing.ID, "error", err)
		return fmt.Errorf("failed to send reset code: %w", err)
	}

	s.logger.Info("reset code issued", "user_id", existing.ID)
	return nil
}

// ResetPassword consumes a pending reset code and installs a new password.
// The code is single-use: success clears it, so a replay fails.
func (s *Service) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	if email == "" {
		return ErrEmailRequired
	}
	if code == "" {
		return ErrResetCodeRequired
	}
	if newPassword == "" {
		return ErrPasswordRequired
	}

	existing, err := s.directory.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			// No user for this (email, code) pair; indistinguishable from a bad code
			return ErrInvalidResetCode
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	if !existing.HasPendingReset() {
		return ErrInvalidResetCode
	}
	if subtle.ConstantTimeCompare([]byte(*existing.ResetCode), []byte(code)) != 1 {
		return ErrInvalidResetCode
	}
	// Valid strictly before expiry; at or past it the code is dead even if
	// the stale fields still linger on the record
	if !s.now().Before(*existing.ResetCodeExpiry) {
		return ErrInvalidResetCode
	}

	passwordHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.directory.CompletePasswordReset(ctx, existing.ID, passwordHash); err != nil {
		return fmt.Errorf("failed to reset password: %w", err)
	}

	s.logger.Info("password reset completed", "user_id", existing.ID)
	return nil
}

func validateRegistration(username, email, password string) error {
	if username == "" {
		return ErrUsernameRequired
	}
	if email == "" {
		return ErrEmailRequired
	}
	if password == "" {
		return ErrPasswordRequired
	}
	if len(email) > 254 {
		return ErrInvalidEmailFormat
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return ErrInvalidEmailFormat
	}
	return nil
}
