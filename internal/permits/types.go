// Package permits holds permit applications and the service that
// orchestrates their lifecycle.
package permits

import (
	"context"
	"errors"
	"math"
	"time"
)

// Status is the review state of an application. Any status may follow any other.
type Status string

const (
	StatusPending  Status = "Pending"
	StatusApproved Status = "Approved"
	StatusRejected Status = "Rejected"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

var (
	ErrNotFound     = errors.New("permits: application not found")
	ErrInvalidInput = errors.New("permits: invalid input")
)

// Application is a permit application record.
type Application struct {
	ID             string
	ApplicantName  string
	ApplicantEmail string
	PermitType     string
	Status         Status
	SubmittedAt    time.Time
	OwnerUserID    *string
}

// CreateInput is the accepted shape for new applications.
type CreateInput struct {
	ApplicantName  string
	ApplicantEmail string
	PermitType     string
}

// Patch updates non-status fields. Nil fields are left unchanged.
type Patch struct {
	ApplicantName  *string
	ApplicantEmail *string
	PermitType     *string
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.ApplicantName == nil && p.ApplicantEmail == nil && p.PermitType == nil
}

// Page selects a 1-based page. The zero value selects everything.
type Page struct {
	Number int
	Limit  int
}

// All reports whether the page selects every record.
func (p Page) All() bool { return p.Limit <= 0 }

// Offset returns the number of records to skip.
// Pages beyond the addressable range saturate at math.MaxInt.
func (p Page) Offset() int {
	if p.All() || p.Number <= 1 {
		return 0
	}
	if p.Number-1 > math.MaxInt/p.Limit {
		return math.MaxInt
	}
	return (p.Number - 1) * p.Limit
}

// ListFilter narrows List queries. A nil OwnerUserID lists every record.
type ListFilter struct {
	OwnerUserID *string
	Page        Page
}

// Store persists applications. Missing rows are reported as store.ErrNotFound.
type Store interface {
	CreateApplication(ctx context.Context, app *Application) error
	GetApplication(ctx context.Context, id string) (*Application, error)
	ListApplications(ctx context.Context, f ListFilter) ([]*Application, int, error)
	UpdateApplication(ctx context.Context, app *Application) error
	DeleteApplication(ctx context.Context, id string) error
}
