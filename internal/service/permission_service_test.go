package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/talentmap/bidding-api/internal/auth"
	"github.com/talentmap/bidding-api/internal/domain"
	"github.com/talentmap/bidding-api/internal/service"
	"github.com/talentmap/bidding-api/internal/testutil"
)

func TestPermissionService_CanAct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bureau := domain.Scope{Kind: domain.ScopeBureau, Code: bureauCode}

	tests := []struct {
		name  string
		user  *auth.UserContext
		scope domain.Scope
		want  bool
	}{
		{"granted bureau", &auth.UserContext{Perdet: aoPerdet}, bureau, true},
		{"other bureau", &auth.UserContext{Perdet: otherAO}, bureau, false},
		{"super user", &auth.UserContext{Perdet: stranger, Roles: []domain.Role{domain.RoleSuperUser}}, bureau, true},
		{"empty code", &auth.UserContext{Perdet: aoPerdet}, domain.Scope{Kind: domain.ScopeBureau}, false},
		{"CDO from bidder profile", &auth.UserContext{Perdet: cdoPerdet}, domain.Scope{Kind: domain.ScopeCDO, Code: bidderA}, true},
		{"not the CDO", &auth.UserContext{Perdet: stranger}, domain.Scope{Kind: domain.ScopeCDO, Code: bidderA}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.permissions.CanAct(ctx, tt.user, tt.scope)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("CDO grant without profile link", func(t *testing.T) {
		testutil.GrantScope(t, f.db, stranger, domain.ScopeCDO, bidderB)
		ok, err := f.permissions.IsCDOFor(ctx, &auth.UserContext{Perdet: stranger}, bidderB)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestPermissionService_PositionPermissions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ok, err := f.permissions.HasBureauPermission(ctx, &auth.UserContext{Perdet: aoPerdet}, cpID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.permissions.HasOrgPermission(ctx, &auth.UserContext{Perdet: aoPerdet}, cpID)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = f.permissions.HasOrgPermission(ctx, &auth.UserContext{Perdet: orgPerdet}, cpID)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = f.permissions.HasBureauPermission(ctx, &auth.UserContext{Perdet: aoPerdet}, 404)
	assert.ErrorIs(t, err, service.ErrPositionNotFound)
}

func TestPermissionService_GrantAdministration(t *testing.T) {
	f := newFixture(t)
	admin := testutil.ContextWithUser("0001", domain.RoleSuperUser)
	scope := domain.Scope{Kind: domain.ScopeOrg, Code: "EUR-PARIS"}

	err := f.permissions.Grant(asAO(aoPerdet), bidderA, scope)
	assert.ErrorIs(t, err, service.ErrPermissionDenied)

	err = f.permissions.Grant(admin, bidderA, domain.Scope{Kind: "region", Code: "X"})
	assert.ErrorIs(t, err, service.ErrInvalidScope)

	require.NoError(t, f.permissions.Grant(admin, bidderA, scope))
	require.NoError(t, f.permissions.Grant(admin, bidderA, scope), "granting twice is a no-op")

	grants, err := f.permissions.ListGrants(asBidder(bidderA), bidderA)
	require.NoError(t, err)
	require.Len(t, grants, 1)
	assert.Equal(t, "EUR-PARIS", grants[0].ScopeCode)

	_, err = f.permissions.ListGrants(asBidder(bidderB), bidderA)
	assert.ErrorIs(t, err, service.ErrPermissionDenied)

	require.NoError(t, f.permissions.Revoke(admin, bidderA, scope))
	grants, err = f.permissions.ListGrants(admin, bidderA)
	require.NoError(t, err)
	assert.Empty(t, grants)
}
