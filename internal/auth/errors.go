package auth

import "errors"

var (
	ErrUnauthenticated       = errors.New("auth: authentication required")
	ErrInvalidCredentials    = errors.New("auth: invalid credentials")
	ErrInvalidToken          = errors.New("auth: invalid token")
	ErrInsufficientRole      = errors.New("auth: insufficient role")
	ErrInsufficientOwnership = errors.New("auth: insufficient ownership")
	ErrEmailTaken            = errors.New("auth: email already registered")
	ErrInvalidInput          = errors.New("auth: invalid input")
)
