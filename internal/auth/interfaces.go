package auth

import (
	"context"
	"time"

	"github.com/authstack/go-auth-service/internal/user"
)

// TokenService defines the interface for session token creation and
// validation. The production implementation is PasetoService (PASETO
// v4.local); tokens are self-contained, so validation needs no directory
// round-trip.
type TokenService interface {
	CreateToken(userID, email string, duration time.Duration) (string, error)
	VerifyToken(tokenStr string) (*TokenClaims, error)
}

// UserDirectory is the external collaborator storing user records, keyed by
// unique email. The production implementation is the Firestore-backed
// user.Repository.
type UserDirectory interface {
	Create(ctx context.Context, u *user.User) error
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	GetByID(ctx context.Context, id string) (*user.User, error)
	SetResetCode(ctx context.Context, id string, code string, expiresAt time.Time) error
	CompletePasswordReset(ctx context.Context, id string, passwordHash string) error
}

// EmailService defines the interface for outbound mail.
type EmailService interface {
	SendPasswordResetCode(ctx context.Context, toEmail, code string) error
}
