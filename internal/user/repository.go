package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already exists")
)

const usersCollection = "users"

// Repository is the Firestore-backed user directory. Documents live in the
// `users` collection keyed by the opaque user id; email uniqueness is
// enforced inside a transaction since Firestore has no unique indexes.
type Repository struct {
	client *firestore.Client
	now    func() time.Time
}

func NewRepository(client *firestore.Client) *Repository {
	return &Repository{client: client, now: time.Now}
}

func (r *Repository) users() *firestore.CollectionRef {
	return r.client.Collection(usersCollection)
}

// Create stores a new user. Returns ErrDuplicateEmail if another document
// already holds the same email address.
func (r *Repository) Create(ctx context.Context, u *User) error {
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		query := r.users().Where("email", "==", u.Email).Limit(1)
		_, err := tx.Documents(query).Next()
		if err == nil {
			return ErrDuplicateEmail
		}
		if err != iterator.Done {
			return fmt.Errorf("failed to check existing email: %w", err)
		}
		return tx.Create(r.users().Doc(u.ID), u)
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByEmail retrieves a user by email
func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	iter := r.users().Where("email", "==", email).Limit(1).Documents(ctx)
	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return docToUser(doc)
}

// GetByID retrieves a user by ID
func (r *Repository) GetByID(ctx context.Context, id string) (*User, error) {
	doc, err := r.users().Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return docToUser(doc)
}

// SetResetCode stores a pending reset code and its expiry on the user,
// overwriting any previous pending code.
func (r *Repository) SetResetCode(ctx context.Context, id string, code string, expiresAt time.Time) error {
	_, err := r.users().Doc(id).Update(ctx, []firestore.Update{
		{Path: "resetToken", Value: code},
		{Path: "resetTokenExpiry", Value: expiresAt},
		{Path: "updatedAt", Value: r.now()},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return ErrNotFound
		}
		return fmt.Errorf("failed to set reset code: %w", err)
	}
	return nil
}

// CompletePasswordReset swaps in the new password hash and clears the reset
// code fields in a single update, so a consumed code cannot be replayed.
func (r *Repository) CompletePasswordReset(ctx context.Context, id string, passwordHash string) error {
	_, err := r.users().Doc(id).Update(ctx, []firestore.Update{
		{Path: "passwordHash", Value: passwordHash},
		{Path: "resetToken", Value: firestore.Delete},
		{Path: "resetTokenExpiry", Value: firestore.Delete},
		{Path: "updatedAt", Value: r.now()},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return ErrNotFound
		}
		return fmt.Errorf("failed to complete password reset: %w", err)
	}
	return nil
}

func docToUser(doc *firestore.DocumentSnapshot) (*User, error) {
	var u User
	if err := doc.DataTo(&u); err != nil {
		return nil, fmt.Errorf("failed to parse user document: %w", err)
	}
	u.ID = doc.Ref.ID
	return &u, nil
}
