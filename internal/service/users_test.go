package service

import (
	"context"
	"testing"

	"cluster_kita/internal/domain"
	"cluster_kita/internal/identity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompleteOnboarding(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p := identity.Profile{ID: "user_new", Name: "Sari", Email: "sari@example.com"}

	_, err := h.svc.CompleteOnboarding(ctx, p, ContactInput{Phone: "123"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	u, err := h.svc.CompleteOnboarding(ctx, p, ContactInput{Phone: " 0812 3456 7890 ", Block: "c-7"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleResident, u.Role)
	assert.Equal(t, "081234567890", u.Phone())
	require.NotNil(t, u.BlockNumber)
	assert.Equal(t, "C-7", *u.BlockNumber)

	// phone numbers are unique
	_, err = h.svc.CompleteOnboarding(ctx, identity.Profile{ID: "user_other", Name: "Budi"}, ContactInput{Phone: "081234567890"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
	_, err = h.svc.GetProfile(ctx, "user_other")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpsertFromIdentityKeepsRole(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.svc.UpsertFromIdentity(ctx, identity.Profile{ID: h.admin.ID, Name: "Renamed", Email: "new@example.com"}))
	u, err := h.svc.GetProfile(ctx, h.admin.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", u.Name)
	assert.Equal(t, domain.RoleAdmin, u.Role)

	assert.ErrorIs(t, h.svc.UpsertFromIdentity(ctx, identity.Profile{}), domain.ErrValidation)
}

func TestIdentityUpdateWithoutPhoneKeepsOnboardingPhone(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.svc.UpsertFromIdentity(ctx, identity.Profile{ID: h.resident.ID, Name: "Sari W", Email: "sari@example.com"}))
	u, err := h.svc.GetProfile(ctx, h.resident.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sari W", u.Name)
	assert.Equal(t, *h.resident.PhoneNumber, u.Phone())
}

func TestUpdateUserRoleIsIdempotent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.svc.UpdateUserRole(ctx, h.admin, h.resident.ID, domain.RoleAdmin))
	require.NoError(t, h.svc.UpdateUserRole(ctx, h.admin, h.resident.ID, domain.RoleAdmin))

	admins, err := h.store.Users().ListByRole(ctx, domain.RoleAdmin)
	require.NoError(t, err)
	assert.Len(t, admins, 2)

	assert.ErrorIs(t, h.svc.UpdateUserRole(ctx, h.admin, h.resident.ID, "superuser"), domain.ErrValidation)
	assert.ErrorIs(t, h.svc.UpdateUserRole(ctx, h.admin, "ghost", domain.RoleAdmin), domain.ErrNotFound)
}

func TestResidentCannotChangeRoles(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	err := h.svc.UpdateUserRole(ctx, h.resident, h.resident.ID, domain.RoleAdmin)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	u, err := h.svc.GetProfile(ctx, h.resident.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleResident, u.Role)

	_, err = h.svc.GetUser(ctx, h.resident, h.admin.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = h.svc.GetUser(ctx, h.resident, h.resident.ID)
	require.NoError(t, err)
}

func TestAssignBlock(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	other := h.addUser(t, "user_2", domain.RoleResident, "")

	require.NoError(t, h.svc.AssignBlock(ctx, h.admin, h.resident.ID, "a-1"))
	err := h.svc.AssignBlock(ctx, h.admin, other.ID, "A-1")
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	require.NoError(t, h.svc.AssignBlock(ctx, h.admin, h.resident.ID, ""))
	u, err := h.svc.GetProfile(ctx, h.resident.ID)
	require.NoError(t, err)
	assert.Nil(t, u.BlockNumber)
}
