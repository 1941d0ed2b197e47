package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietanh2810/kids-ledger-api/internal/domain"
)

func TestAuthService_Resolve(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc := NewAuthService(fakeUsers{store})
	vol := store.addUser(domain.RoleVolunteer, "victor")

	t.Run("persisted role wins over the claim", func(t *testing.T) {
		caller, err := svc.Resolve(ctx, domain.Identity{SubjectID: vol.SubjectID, Email: "x@example.com", RoleClaim: "admin"})
		require.NoError(t, err)
		assert.Equal(t, vol.ID, caller.UserID)
		assert.Equal(t, domain.RoleVolunteer, caller.Role)
		assert.Equal(t, vol.Email, caller.Email)
		assert.True(t, caller.Registered())
	})

	t.Run("claim is the fallback for unregistered callers", func(t *testing.T) {
		caller, err := svc.Resolve(ctx, domain.Identity{SubjectID: "new", RoleClaim: "parent"})
		require.NoError(t, err)
		assert.False(t, caller.Registered())
		assert.Equal(t, domain.RoleParent, caller.Role)
	})

	t.Run("unknown claim grants nothing", func(t *testing.T) {
		caller, err := svc.Resolve(ctx, domain.Identity{SubjectID: "new", RoleClaim: "root"})
		require.NoError(t, err)
		assert.Empty(t, caller.Role)
	})
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc := NewAuthService(fakeUsers{store})

	user, err := svc.Register(ctx, domain.Identity{SubjectID: "s1", Email: " Pat@Example.com "}, Profile{Name: " Pat ", City: "Springfield"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleParent, user.Role)
	assert.Equal(t, "pat@example.com", user.Email)
	assert.Equal(t, "Pat", user.Name)
	assert.Equal(t, "Springfield", user.City)

	_, err = svc.Register(ctx, domain.Identity{SubjectID: "s1", Email: "other@example.com"}, Profile{Name: "Pat"})
	assert.ErrorIs(t, err, ErrUserSubjectExists)

	_, err = svc.Register(ctx, domain.Identity{SubjectID: "s2", Email: "pat@example.com"}, Profile{Name: "Pat"})
	assert.ErrorIs(t, err, ErrUserEmailExists)

	staff, err := svc.Register(ctx, domain.Identity{SubjectID: "s3", Email: "v@example.com", RoleClaim: "volunteer"}, Profile{Name: "Vic"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleVolunteer, staff.Role)

	_, err = svc.Register(ctx, domain.Identity{SubjectID: "s4", Email: "n@example.com"}, Profile{})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Register(ctx, domain.Identity{SubjectID: "s5"}, Profile{Name: "No Mail"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUserService_ChangeRole(t *testing.T) {
	ctx := context.Background()

	setup := func(claimErr error) (*UserService, *memStore, *fakeClaims, domain.Caller, domain.User) {
		store := newMemStore()
		claims := &fakeClaims{err: claimErr}
		svc := NewUserService(fakeUsers{store}, store, fakeAudit{store}, claims, Paging{Default: 50, Max: 1000})
		admin := callerFor(store.addUser(domain.RoleAdmin, "alice"))
		target := store.addUser(domain.RoleParent, "paula")

		return svc, store, claims, admin, target
	}

	t.Run("persists the role then updates the claim", func(t *testing.T) {
		svc, store, claims, admin, target := setup(nil)

		user, err := svc.ChangeRole(ctx, admin, target.ID, domain.RoleVolunteer)
		require.NoError(t, err)
		assert.Equal(t, domain.RoleVolunteer, user.Role)
		assert.Equal(t, []string{target.SubjectID + "=volunteer"}, claims.calls)

		require.Len(t, store.audits, 1)
		assert.Equal(t, domain.AuditRoleChange, store.audits[0].Action)
		assert.Equal(t, "parent", store.audits[0].Details["from"])
	})

	t.Run("claim failure keeps the saved role", func(t *testing.T) {
		svc, store, _, admin, target := setup(errors.New("provider down"))

		user, err := svc.ChangeRole(ctx, admin, target.ID, domain.RoleAdmin)
		assert.ErrorIs(t, err, ErrClaimSync)
		assert.Equal(t, domain.RoleAdmin, user.Role)
		assert.Equal(t, domain.RoleAdmin, store.users[target.ID].Role)
	})

	t.Run("claim update survives a cancelled request", func(t *testing.T) {
		svc, _, claims, admin, target := setup(nil)
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := svc.ChangeRole(cancelled, admin, target.ID, domain.RoleVolunteer)
		require.NoError(t, err)
		require.Len(t, claims.ctxErrs, 1)
		assert.NoError(t, claims.ctxErrs[0])
	})

	t.Run("admin only", func(t *testing.T) {
		svc, store, claims, _, target := setup(nil)
		vol := callerFor(store.addUser(domain.RoleVolunteer, "victor"))

		_, err := svc.ChangeRole(ctx, vol, target.ID, domain.RoleAdmin)
		assert.ErrorIs(t, err, ErrForbidden)
		assert.Empty(t, claims.calls)
	})

	t.Run("unknown role or user", func(t *testing.T) {
		svc, _, claims, admin, target := setup(nil)

		_, err := svc.ChangeRole(ctx, admin, target.ID, domain.Role("root"))
		assert.ErrorIs(t, err, ErrValidation)

		_, err = svc.ChangeRole(ctx, admin, uuid.New(), domain.RoleAdmin)
		assert.ErrorIs(t, err, ErrUserNotFound)
		assert.Empty(t, claims.calls)
	})
}

func TestUserService_Profile(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc := NewUserService(fakeUsers{store}, store, fakeAudit{store}, &fakeClaims{}, Paging{Default: 50, Max: 1000})
	me := callerFor(store.addUser(domain.RoleParent, "paula"))

	user, err := svc.UpdateProfile(ctx, me, Profile{Name: "Paula P", Phone: " 555-0100 "})
	require.NoError(t, err)
	assert.Equal(t, "Paula P", user.Name)
	assert.Equal(t, "555-0100", user.Phone)

	got, err := svc.Me(ctx, me)
	require.NoError(t, err)
	assert.Equal(t, "Paula P", got.Name)

	_, err = svc.Me(ctx, domain.Caller{SubjectID: "ghost"})
	assert.ErrorIs(t, err, ErrUnregistered)

	_, err = svc.UpdateProfile(ctx, me, Profile{})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUserService_ListClampsPage(t *testing.T) {
	store := newMemStore()
	svc := NewUserService(fakeUsers{store}, store, fakeAudit{store}, &fakeClaims{}, Paging{Default: 2, Max: 3})
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		store.addUser(domain.RoleParent, name)
	}

	page, err := svc.List(context.Background(), domain.UserQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(5), page.Total)
	assert.Len(t, page.Data, 2)

	page, err = svc.List(context.Background(), domain.UserQuery{Page: domain.Page{Limit: 100}})
	require.NoError(t, err)
	assert.Len(t, page.Data, 3)
}
