// Package access defines the capability check every mercato component is
// constructed with, plus an in-memory role registry implementing it.
package access

import (
	"sync"

	"github.com/xraph/mercato/errs"
	"github.com/xraph/mercato/types"
)

// Role names a capability.
type Role string

const (
	// RoleAdmin mints composites, manages fulfillers, prices and tokens.
	RoleAdmin Role = "admin"
	// RoleWriter may create collections.
	RoleWriter Role = "writer"
	// RoleReleaseAuthority may release items held in escrow. Admins do not
	// hold it implicitly.
	RoleReleaseAuthority Role = "release_authority"
)

// Authorizer answers whether actor holds role.
type Authorizer interface {
	IsAuthorized(actor types.Address, role Role) bool
}

// AuthorizerFunc adapts a function to Authorizer.
type AuthorizerFunc func(actor types.Address, role Role) bool

// IsAuthorized implements Authorizer.
func (f AuthorizerFunc) IsAuthorized(actor types.Address, role Role) bool {
	return f(actor, role)
}

// Require returns errs.ErrMissingRole unless actor holds one of roles.
func Require(a Authorizer, actor types.Address, roles ...Role) error {
	for _, r := range roles {
		if a.IsAuthorized(actor, r) {
			return nil
		}
	}
	return errs.ErrMissingRole
}

// Registry is an in-memory Authorizer. Admins grant and revoke every role.
type Registry struct {
	mu     sync.RWMutex
	grants map[Role]map[types.Address]struct{}
}

// NewRegistry creates a registry with admin as its first administrator.
func NewRegistry(admin types.Address) *Registry {
	r := &Registry{grants: make(map[Role]map[types.Address]struct{})}
	r.add(admin, RoleAdmin)
	return r
}

// IsAuthorized implements Authorizer.
func (r *Registry) IsAuthorized(actor types.Address, role Role) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.grants[role][actor]
	return ok
}

// Grant gives actor the role. Only admins may grant.
func (r *Registry) Grant(caller, actor types.Address, role Role) error {
	if actor.IsZero() {
		return errs.ErrInvalidAddress
	}
	if !r.IsAuthorized(caller, RoleAdmin) {
		return errs.ErrMissingRole
	}
	r.add(actor, role)
	return nil
}

// Revoke removes the role from actor. Only admins may revoke, and an admin
// cannot revoke its own admin role.
func (r *Registry) Revoke(caller, actor types.Address, role Role) error {
	if !r.IsAuthorized(caller, RoleAdmin) {
		return errs.ErrMissingRole
	}
	if caller == actor && role == RoleAdmin {
		return errs.New(errs.ErrInvalidState, "admin cannot revoke itself")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.grants[role], actor)
	return nil
}

// Members lists the actors holding role, in no particular order.
func (r *Registry) Members(role Role) []types.Address {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]types.Address, 0, len(r.grants[role]))
	for a := range r.grants[role] {
		out = append(out, a)
	}
	return out
}

func (r *Registry) add(actor types.Address, role Role) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.grants[role] == nil {
		r.grants[role] = make(map[types.Address]struct{})
	}
	r.grants[role][actor] = struct{}{}
}
