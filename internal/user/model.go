package user

import (
	"time"
)

// User is a record in the user directory. Secret fields carry `json:"-"` so
// they can never appear in an API response.
type User struct {
	ID              string     `firestore:"-" json:"id"`
	Username        string     `firestore:"username" json:"username"`
	Email           string     `firestore:"email" json:"email"`
	PasswordHash    string     `firestore:"passwordHash" json:"-"`
	ResetCode       *string    `firestore:"resetToken,omitempty" json:"-"`
	ResetCodeExpiry *time.Time `firestore:"resetTokenExpiry,omitempty" json:"-"`
	CreatedAt       time.Time  `firestore:"createdAt" json:"created_at"`
	UpdatedAt       time.Time  `firestore:"updatedAt" json:"updated_at"`
}

// HasPendingReset reports whether a reset code is stored on the record.
// A stored code may still be expired; expiry is checked by the caller.
func (u *User) HasPendingReset() bool {
	return u.ResetCode != nil && u.ResetCodeExpiry != nil
}
