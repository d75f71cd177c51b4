// Package rbac defines the caller roles the ledger engine gates on.
//
// Roles are passed to engine operations as explicit parameters rather than
// read from ambient request state, so services stay testable without a
// request pipeline. Handlers resolve the role once at the boundary.
package rbac

import (
	"net/http"
	"strconv"
	"strings"
)

// Role names the capability level of the caller.
type Role string

const (
	// RoleAdmin may update and delete sales.
	RoleAdmin Role = "admin"
	// RoleStaff may create sales and post restocks.
	RoleStaff Role = "staff"
)

// IsAdmin reports whether the role carries administrator capabilities.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

// RoleHeader carries the authenticated caller role, set upstream by the
// session layer which owns authentication.
const RoleHeader = "X-Caller-Role"

// FromRequest resolves the caller role from the request, defaulting to staff.
func FromRequest(r *http.Request) Role {
	switch strings.ToLower(strings.TrimSpace(r.Header.Get(RoleHeader))) {
	case string(RoleAdmin):
		return RoleAdmin
	default:
		return RoleStaff
	}
}

// ActorHeader carries the authenticated caller id, set upstream alongside the
// role header. Audit rows attribute mutations to this id.
const ActorHeader = "X-Caller-ID"

// ActorFromRequest resolves the caller id from the request. Absent or
// malformed values resolve to zero, the anonymous actor.
func ActorFromRequest(r *http.Request) int64 {
	id, err := strconv.ParseInt(strings.TrimSpace(r.Header.Get(ActorHeader)), 10, 64)
	if err != nil || id < 0 {
		return 0
	}
	return id
}
