package access_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/mercato/access"
	"github.com/xraph/mercato/errs"
	"github.com/xraph/mercato/types"
)

func TestRegistryGrantRevoke(t *testing.T) {
	r := access.NewRegistry("admin")

	assert.True(t, r.IsAuthorized("admin", access.RoleAdmin))
	assert.False(t, r.IsAuthorized("admin", access.RoleReleaseAuthority),
		"admin must not hold release authority implicitly")

	require.NoError(t, r.Grant("admin", "writer", access.RoleWriter))
	assert.True(t, r.IsAuthorized("writer", access.RoleWriter))

	err := r.Grant("writer", "someone", access.RoleAdmin)
	assert.ErrorIs(t, err, errs.ErrUnauthorized)

	require.NoError(t, r.Revoke("admin", "writer", access.RoleWriter))
	assert.False(t, r.IsAuthorized("writer", access.RoleWriter))

	assert.ErrorIs(t, r.Revoke("admin", "admin", access.RoleAdmin), errs.ErrInvalidState)
	assert.ErrorIs(t, r.Grant("admin", "", access.RoleWriter), errs.ErrInputInvalid)
}

func TestRequire(t *testing.T) {
	r := access.NewRegistry("admin")
	require.NoError(t, r.Grant("admin", "writer", access.RoleWriter))

	assert.NoError(t, access.Require(r, "writer", access.RoleAdmin, access.RoleWriter))
	assert.ErrorIs(t, access.Require(r, "nobody", access.RoleAdmin, access.RoleWriter), errs.ErrMissingRole)

	allowAll := access.AuthorizerFunc(func(_ types.Address, _ access.Role) bool { return true })
	assert.NoError(t, access.Require(allowAll, "anyone", access.RoleReleaseAuthority))
}
