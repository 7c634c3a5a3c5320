package auth

import (
	"context"
	"time"
)

// UserStore persists identities. Missing rows are reported as
// store.ErrNotFound and duplicate emails as store.ErrUniqueViolation.
type UserStore interface {
	CreateUser(ctx context.Context, u *User) error
	FindUserByEmail(ctx context.Context, email string) (*User, error)
	FindUserByID(ctx context.Context, id string) (*User, error)
	UpdateUserRole(ctx context.Context, id string, role Role, updatedAt time.Time) error
}
