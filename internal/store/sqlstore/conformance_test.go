package sqlstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"permitdesk.org/internal/auth"
	"permitdesk.org/internal/ids"
	"permitdesk.org/internal/permits"
	"permitdesk.org/internal/store"
)

// exerciseStore runs the same round trips against every SQL dialect.
func exerciseStore(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()
	now := time.Date(2025, 4, 2, 8, 15, 30, 123456000, time.UTC)
	name := "Alice"

	alice := &auth.User{
		ID: ids.NewEntityID(), Email: "alice@x.com", PasswordHash: "hash", Name: &name,
		Role: auth.RoleUser, IsActive: true, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, s.CreateUser(ctx, alice))

	dup := *alice
	dup.ID = ids.NewEntityID()
	require.ErrorIs(t, s.CreateUser(ctx, &dup), store.ErrUniqueViolation)

	got, err := s.FindUserByEmail(ctx, "alice@x.com")
	require.NoError(t, err)
	require.Equal(t, alice.ID, got.ID)
	require.NotNil(t, got.Name)
	require.Equal(t, "Alice", *got.Name)
	require.True(t, got.IsActive)
	require.True(t, got.CreatedAt.Equal(now), "created_at %v", got.CreatedAt)

	_, err = s.FindUserByEmail(ctx, "nobody@x.com")
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.UpdateUserRole(ctx, alice.ID, auth.RoleAdmin, now.Add(time.Minute)))
	got, err = s.FindUserByID(ctx, alice.ID)
	require.NoError(t, err)
	require.Equal(t, auth.RoleAdmin, got.Role)
	require.ErrorIs(t, s.UpdateUserRole(ctx, ids.NewEntityID(), auth.RoleAdmin, now), store.ErrNotFound)

	ghost := ids.NewEntityID()
	orphan := &permits.Application{
		ID: ids.NewEntityID(), ApplicantName: "G", ApplicantEmail: "g@x.com", PermitType: "T",
		Status: permits.StatusPending, SubmittedAt: now, OwnerUserID: &ghost,
	}
	require.ErrorIs(t, s.CreateApplication(ctx, orphan), store.ErrForeignKeyViolation)

	bad := &permits.Application{
		ID: ids.NewEntityID(), ApplicantName: "B", ApplicantEmail: "b@x.com", PermitType: "T",
		Status: permits.Status("Archived"), SubmittedAt: now,
	}
	require.ErrorIs(t, s.CreateApplication(ctx, bad), store.ErrInvalidData)

	var created []*permits.Application
	for i := 0; i < 3; i++ {
		app := &permits.Application{
			ID:             ids.NewEntityID(),
			ApplicantName:  "Alice",
			ApplicantEmail: "alice@x.com",
			PermitType:     "Building",
			Status:         permits.StatusPending,
			SubmittedAt:    now.Add(time.Duration(i) * time.Hour),
			OwnerUserID:    &alice.ID,
		}
		require.NoError(t, s.CreateApplication(ctx, app))
		created = append(created, app)
	}
	unlinked := &permits.Application{
		ID: ids.NewEntityID(), ApplicantName: "N", ApplicantEmail: "n@x.com", PermitType: "Event",
		Status: permits.StatusPending, SubmittedAt: now.Add(-time.Hour),
	}
	require.NoError(t, s.CreateApplication(ctx, unlinked))

	one, err := s.GetApplication(ctx, created[0].ID)
	require.NoError(t, err)
	require.Equal(t, created[0].ApplicantName, one.ApplicantName)
	require.True(t, one.SubmittedAt.Equal(now))
	require.NotNil(t, one.OwnerUserID)
	require.Equal(t, alice.ID, *one.OwnerUserID)

	all, total, err := s.ListApplications(ctx, permits.ListFilter{})
	require.NoError(t, err)
	require.Equal(t, 4, total)
	require.Len(t, all, 4)
	require.Equal(t, created[2].ID, all[0].ID)
	require.Equal(t, unlinked.ID, all[3].ID)
	require.Nil(t, all[3].OwnerUserID)

	page, total, err := s.ListApplications(ctx, permits.ListFilter{
		OwnerUserID: &alice.ID,
		Page:        permits.Page{Number: 2, Limit: 2},
	})
	require.NoError(t, err)
	require.Equal(t, 3, total)
	require.Len(t, page, 1)
	require.Equal(t, created[0].ID, page[0].ID)

	one.Status = permits.StatusApproved
	one.PermitType = "Renovation"
	require.NoError(t, s.UpdateApplication(ctx, one))
	again, err := s.GetApplication(ctx, one.ID)
	require.NoError(t, err)
	require.Equal(t, permits.StatusApproved, again.Status)
	require.Equal(t, "Renovation", again.PermitType)

	require.NoError(t, s.DeleteApplication(ctx, one.ID))
	require.ErrorIs(t, s.DeleteApplication(ctx, one.ID), store.ErrNotFound)
	require.ErrorIs(t, s.UpdateApplication(ctx, one), store.ErrNotFound)
	_, err = s.GetApplication(ctx, one.ID)
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.Ping(ctx))
}
