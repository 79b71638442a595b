// Package authz implements the access policy layer. Every store-facing route
// passes through an explicit authorization check so stricter per-entity rules
// can be introduced later without touching storage.
package authz

// Action enumerates the operations the policy can decide on.
type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Policy decides whether an authenticated caller may perform an action on an
// entity. Unauthenticated callers never reach the policy; they are rejected
// by the middleware first.
type Policy interface {
	Allow(entity string, action Action) bool
}

// UniformPolicy grants every authenticated caller every action on every
// entity. There is no ownership or tenancy concept.
type UniformPolicy struct{}

// Allow always grants access.
func (UniformPolicy) Allow(string, Action) bool { return true }
