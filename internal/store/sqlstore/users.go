package sqlstore

import (
	"context"
	"database/sql"
	"time"

	"permitdesk.org/internal/auth"
)

const userColumns = `id, email, password_hash, name, role, is_active, created_at, updated_at`

type userRow struct {
	ID           string         `db:"id"`
	Email        string         `db:"email"`
	PasswordHash string         `db:"password_hash"`
	Name         sql.NullString `db:"name"`
	Role         string         `db:"role"`
	IsActive     bool           `db:"is_active"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

func (r userRow) toUser() *auth.User {
	u := &auth.User{
		ID:           r.ID,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		Role:         auth.Role(r.Role),
		IsActive:     r.IsActive,
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
	if r.Name.Valid {
		name := r.Name.String
		u.Name = &name
	}
	return u
}

func (s *Store) CreateUser(ctx context.Context, u *auth.User) error {
	var name sql.NullString
	if u.Name != nil {
		name = sql.NullString{String: *u.Name, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		u.ID, u.Email, u.PasswordHash, name, string(u.Role), u.IsActive, u.CreatedAt.UTC(), u.UpdatedAt.UTC())
	return translateError(err)
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*auth.User, error) {
	var row userRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(`SELECT `+userColumns+` FROM users WHERE email = ?`), email)
	if err != nil {
		return nil, translateError(err)
	}
	return row.toUser(), nil
}

func (s *Store) FindUserByID(ctx context.Context, id string) (*auth.User, error) {
	var row userRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(`SELECT `+userColumns+` FROM users WHERE id = ?`), id)
	if err != nil {
		return nil, translateError(err)
	}
	return row.toUser(), nil
}

func (s *Store) UpdateUserRole(ctx context.Context, id string, role auth.Role, updatedAt time.Time) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`UPDATE users SET role = ?, updated_at = ? WHERE id = ?`),
		string(role), updatedAt.UTC(), id)
	if err != nil {
		return translateError(err)
	}
	return requireAffected(res)
}
