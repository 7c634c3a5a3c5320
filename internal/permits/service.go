package permits

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"permitdesk.org/internal/auth"
	"permitdesk.org/internal/ids"
	"permitdesk.org/internal/store"
)

// Service applies ownership rules around the store. It holds no locks;
// fetch-then-mutate sequences rely on the store's per-record atomicity.
type Service struct {
	store Store
	now   func() time.Time
}

// Option customizes Service.
type Option func(*Service)

// WithClock replaces the submission timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService wires the application store.
func NewService(st Store, opts ...Option) (*Service, error) {
	if st == nil {
		return nil, errors.New("permits store is required")
	}
	s := &Service{store: st, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Create stores a Pending application owned by ownerID.
func (s *Service) Create(ctx context.Context, in CreateInput, ownerID string) (*Application, error) {
	name, err := requireText("applicant_name", in.ApplicantName)
	if err != nil {
		return nil, err
	}
	email, err := requireEmail(in.ApplicantEmail)
	if err != nil {
		return nil, err
	}
	permitType, err := requireText("permit_type", in.PermitType)
	if err != nil {
		return nil, err
	}
	app := &Application{
		ID:             ids.NewEntityID(),
		ApplicantName:  name,
		ApplicantEmail: email,
		PermitType:     permitType,
		Status:         StatusPending,
		SubmittedAt:    s.now().UTC().Truncate(time.Microsecond),
	}
	if ownerID != "" {
		owner := ownerID
		app.OwnerUserID = &owner
	}
	if err := s.store.CreateApplication(ctx, app); err != nil {
		return nil, err
	}
	return app, nil
}

// List returns the caller's applications, or every application for admins,
// newest first, together with the unpaged total.
func (s *Service) List(ctx context.Context, caller auth.Principal, page Page) ([]*Application, int, error) {
	f := ListFilter{Page: page}
	if !caller.IsAdmin() {
		owner := caller.UserID
		f.OwnerUserID = &owner
	}
	return s.store.ListApplications(ctx, f)
}

// Get returns one application if the caller may view it.
func (s *Service) Get(ctx context.Context, id string, caller auth.Principal) (*Application, error) {
	return s.authorized(ctx, id, auth.ActionView, caller)
}

// Update applies a field patch. Status is not part of Patch.
func (s *Service) Update(ctx context.Context, id string, p Patch, caller auth.Principal) (*Application, error) {
	app, err := s.authorized(ctx, id, auth.ActionUpdate, caller)
	if err != nil {
		return nil, err
	}
	if p.Empty() {
		return app, nil
	}
	if p.ApplicantName != nil {
		if app.ApplicantName, err = requireText("applicant_name", *p.ApplicantName); err != nil {
			return nil, err
		}
	}
	if p.ApplicantEmail != nil {
		if app.ApplicantEmail, err = requireEmail(*p.ApplicantEmail); err != nil {
			return nil, err
		}
	}
	if p.PermitType != nil {
		if app.PermitType, err = requireText("permit_type", *p.PermitType); err != nil {
			return nil, err
		}
	}
	if err := s.store.UpdateApplication(ctx, app); err != nil {
		return nil, mapNotFound(err)
	}
	return app, nil
}

// UpdateStatus sets the status unconditionally. Callers are gated to admins
// at the routing layer.
func (s *Service) UpdateStatus(ctx context.Context, id string, status Status) (*Application, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: application_status must be one of Pending, Approved, Rejected", ErrInvalidInput)
	}
	app, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	app.Status = status
	if err := s.store.UpdateApplication(ctx, app); err != nil {
		return nil, mapNotFound(err)
	}
	return app, nil
}

// Delete removes an application the caller may delete and returns it.
func (s *Service) Delete(ctx context.Context, id string, caller auth.Principal) (*Application, error) {
	app, err := s.authorized(ctx, id, auth.ActionDelete, caller)
	if err != nil {
		return nil, err
	}
	if err := s.store.DeleteApplication(ctx, id); err != nil {
		return nil, mapNotFound(err)
	}
	return app, nil
}

func (s *Service) authorized(ctx context.Context, id string, action auth.Action, caller auth.Principal) (*Application, error) {
	app, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.AuthorizeOwnership(action, app.OwnerUserID, caller); err != nil {
		return nil, err
	}
	return app, nil
}

func (s *Service) fetch(ctx context.Context, id string) (*Application, error) {
	if !ids.IsEntityID(id) {
		return nil, ErrNotFound
	}
	app, err := s.store.GetApplication(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return app, nil
}

func mapNotFound(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func requireText(field, v string) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", fmt.Errorf("%w: %s is required", ErrInvalidInput, field)
	}
	return v, nil
}

func requireEmail(v string) (string, error) {
	v = strings.TrimSpace(v)
	addr, err := mail.ParseAddress(v)
	if err != nil || addr.Address != v {
		return "", fmt.Errorf("%w: applicant_email must be a valid email", ErrInvalidInput)
	}
	return v, nil
}
