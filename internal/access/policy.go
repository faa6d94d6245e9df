// Package access classifies actors against the startup admin and ban lists.
package access

import "errors"

// ErrDenied is the expected outcome of a failed gate check. It is normal
// control flow, not a fault.
var ErrDenied = errors.New("access denied")

// Policy holds the immutable admin and ban sets fixed at startup. The two
// predicates are independent: an identifier present in both sets is refused
// ordinary commands but still admitted by the admin gate.
type Policy struct {
	admins map[int64]struct{}
	banned map[int64]struct{}
}

// NewPolicy constructs a Policy from the configured identifier lists.
func NewPolicy(adminIDs, banIDs []int64) *Policy {
	policy := &Policy{
		admins: make(map[int64]struct{}, len(adminIDs)),
		banned: make(map[int64]struct{}, len(banIDs)),
	}

	for _, id := range adminIDs {
		policy.admins[id] = struct{}{}
	}
	for _, id := range banIDs {
		policy.banned[id] = struct{}{}
	}

	return policy
}

// IsAdmin reports whether the actor is in the administrator set.
func (p *Policy) IsAdmin(actorID int64) bool {
	if p == nil {
		return false
	}
	_, ok := p.admins[actorID]
	return ok
}

// IsBanned reports whether the actor is in the ban set.
func (p *Policy) IsBanned(actorID int64) bool {
	if p == nil {
		return false
	}
	_, ok := p.banned[actorID]
	return ok
}
