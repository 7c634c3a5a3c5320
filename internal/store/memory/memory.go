// Package memory is a process-local store used by tests and by
// DB_ADAPTER=memory deployments.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"permitdesk.org/internal/auth"
	"permitdesk.org/internal/permits"
	"permitdesk.org/internal/store"
)

// Store keeps identities and applications in maps guarded by a mutex.
// Returned records are copies.
type Store struct {
	mu      sync.RWMutex
	users   map[string]auth.User
	emails  map[string]string
	permits map[string]permits.Application
}

// New returns an empty store.
func New() *Store {
	return &Store{
		users:   make(map[string]auth.User),
		emails:  make(map[string]string),
		permits: make(map[string]permits.Application),
	}
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() error { return nil }

func (s *Store) CreateUser(_ context.Context, u *auth.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; ok {
		return store.ErrUniqueViolation
	}
	if _, ok := s.emails[u.Email]; ok {
		return store.ErrUniqueViolation
	}
	s.users[u.ID] = cloneUser(*u)
	s.emails[u.Email] = u.ID
	return nil
}

func (s *Store) FindUserByEmail(_ context.Context, email string) (*auth.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.emails[email]
	if !ok {
		return nil, store.ErrNotFound
	}
	u := cloneUser(s.users[id])
	return &u, nil
}

func (s *Store) FindUserByID(_ context.Context, id string) (*auth.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	u = cloneUser(u)
	return &u, nil
}

func (s *Store) UpdateUserRole(_ context.Context, id string, role auth.Role, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return store.ErrNotFound
	}
	u.Role = role
	u.UpdatedAt = updatedAt
	s.users[id] = u
	return nil
}

func (s *Store) CreateApplication(_ context.Context, app *permits.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.permits[app.ID]; ok {
		return store.ErrUniqueViolation
	}
	if app.OwnerUserID != nil {
		if _, ok := s.users[*app.OwnerUserID]; !ok {
			return store.ErrForeignKeyViolation
		}
	}
	s.permits[app.ID] = cloneApplication(*app)
	return nil
}

func (s *Store) GetApplication(_ context.Context, id string) (*permits.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	app, ok := s.permits[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	app = cloneApplication(app)
	return &app, nil
}

func (s *Store) ListApplications(_ context.Context, f permits.ListFilter) ([]*permits.Application, int, error) {
	s.mu.RLock()
	matched := make([]permits.Application, 0, len(s.permits))
	for _, app := range s.permits {
		if f.OwnerUserID != nil && (app.OwnerUserID == nil || *app.OwnerUserID != *f.OwnerUserID) {
			continue
		}
		matched = append(matched, cloneApplication(app))
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].SubmittedAt.Equal(matched[j].SubmittedAt) {
			return matched[i].SubmittedAt.After(matched[j].SubmittedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	total := len(matched)
	if !f.Page.All() {
		start := min(f.Page.Offset(), total)
		end := min(start+f.Page.Limit, total)
		matched = matched[start:end]
	}
	out := make([]*permits.Application, len(matched))
	for i := range matched {
		out[i] = &matched[i]
	}
	return out, total, nil
}

func (s *Store) UpdateApplication(_ context.Context, app *permits.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.permits[app.ID]; !ok {
		return store.ErrNotFound
	}
	s.permits[app.ID] = cloneApplication(*app)
	return nil
}

func (s *Store) DeleteApplication(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.permits[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.permits, id)
	return nil
}

func cloneUser(u auth.User) auth.User {
	if u.Name != nil {
		name := *u.Name
		u.Name = &name
	}
	return u
}

func cloneApplication(a permits.Application) permits.Application {
	if a.OwnerUserID != nil {
		owner := *a.OwnerUserID
		a.OwnerUserID = &owner
	}
	return a
}
