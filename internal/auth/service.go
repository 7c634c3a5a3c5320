package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"permitdesk.org/internal/ids"
	"permitdesk.org/internal/store"
)

const minPasswordLength = 6

// RegisterInput carries the registration form.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
}

// LoginInput carries the login form.
type LoginInput struct {
	Email    string
	Password string
}

// Session is returned by Register and Login.
type Session struct {
	User        *User
	AccessToken string
	ExpiresAt   time.Time
}

// Service verifies credentials and issues session tokens.
type Service struct {
	users      UserStore
	tokens     *TokenCodec
	bcryptCost int
	now        func() time.Time
}

// ServiceOption customizes Service.
type ServiceOption func(*Service)

// WithBcryptCost sets the hashing cost for new passwords.
func WithBcryptCost(cost int) ServiceOption {
	return func(s *Service) {
		if cost > 0 {
			s.bcryptCost = cost
		}
	}
}

// WithServiceClock replaces the time source used for timestamps.
func WithServiceClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService wires the user store and token codec.
func NewService(users UserStore, tokens *TokenCodec, opts ...ServiceOption) (*Service, error) {
	if users == nil {
		return nil, errors.New("user store is required")
	}
	if tokens == nil {
		return nil, errors.New("token codec is required")
	}
	s := &Service{
		users:      users,
		tokens:     tokens,
		bcryptCost: DefaultBcryptCost,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Register creates a USER identity and signs it in.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if len(in.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLength)
	}
	if len(in.Password) > MaxPasswordBytes {
		return nil, fmt.Errorf("%w: password must be at most %d bytes", ErrInvalidInput, MaxPasswordBytes)
	}

	if _, err := s.users.FindUserByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	hash, err := HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	now := s.now().UTC()
	user := &User{
		ID:           ids.NewEntityID(),
		Email:        email,
		PasswordHash: hash,
		Name:         optionalName(in.Name),
		Role:         RoleUser,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrUniqueViolation) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return s.session(user)
}

// Login checks credentials. Unknown, inactive and wrong-password attempts
// are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, in LoginInput) (*Session, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || in.Password == "" {
		return nil, ErrInvalidCredentials
	}
	user, err := s.users.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	if err := VerifyPassword(user.PasswordHash, in.Password); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.session(user)
}

// Profile returns the identity behind a verified token.
func (s *Service) Profile(ctx context.Context, userID string) (*User, error) {
	user, err := s.users.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}
	return user, nil
}

// Authenticate verifies a bearer token.
func (s *Service) Authenticate(token string) (Principal, error) {
	return s.tokens.Verify(token)
}

// EnsureAdmin creates an ADMIN identity for email, or promotes the existing
// account. It reports whether anything changed.
func (s *Service) EnsureAdmin(ctx context.Context, email, password, name string) (bool, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return false, err
	}
	existing, err := s.users.FindUserByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.Role == RoleAdmin {
			return false, nil
		}
		if err := s.users.UpdateUserRole(ctx, existing.ID, RoleAdmin, s.now().UTC()); err != nil {
			return false, fmt.Errorf("promote admin: %w", err)
		}
		return true, nil
	case !errors.Is(err, store.ErrNotFound):
		return false, err
	}

	if len(password) < minPasswordLength {
		return false, fmt.Errorf("%w: admin password must be at least %d characters", ErrInvalidInput, minPasswordLength)
	}
	if len(password) > MaxPasswordBytes {
		return false, fmt.Errorf("%w: password must be at most %d bytes", ErrInvalidInput, MaxPasswordBytes)
	}
	hash, err := HashPassword(password, s.bcryptCost)
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}
	now := s.now().UTC()
	admin := &User{
		ID:           ids.NewEntityID(),
		Email:        email,
		PasswordHash: hash,
		Name:         optionalName(name),
		Role:         RoleAdmin,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.CreateUser(ctx, admin); err != nil {
		return false, fmt.Errorf("create admin: %w", err)
	}
	return true, nil
}

func (s *Service) session(user *User) (*Session, error) {
	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &Session{User: user, AccessToken: token, ExpiresAt: expiresAt}, nil
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", fmt.Errorf("%w: invalid email", ErrInvalidInput)
	}
	return email, nil
}

func optionalName(name string) *string {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	return &name
}
