package auth

import (
	"slices"
	"strings"
)

// RequirementKind classifies how a route is protected.
type RequirementKind int

const (
	KindPublic RequirementKind = iota
	KindAuthenticated
	KindRoleRestricted
)

// Requirement is the access rule attached to a route.
type Requirement struct {
	Kind  RequirementKind
	Roles []Role
}

// Public admits any caller, with or without a token.
func Public() Requirement { return Requirement{Kind: KindPublic} }

// AuthenticatedOnly admits any caller presenting a valid token.
func AuthenticatedOnly() Requirement { return Requirement{Kind: KindAuthenticated} }

// RoleRestricted admits callers holding one of roles. An empty list
// degrades to AuthenticatedOnly.
func RoleRestricted(roles ...Role) Requirement {
	if len(roles) == 0 {
		return AuthenticatedOnly()
	}
	out := make([]Role, 0, len(roles))
	for _, r := range roles {
		if !slices.Contains(out, r) {
			out = append(out, r)
		}
	}
	return Requirement{Kind: KindRoleRestricted, Roles: out}
}

// IsPublic reports whether the requirement skips authentication.
func (r Requirement) IsPublic() bool { return r.Kind == KindPublic }

func (r Requirement) String() string {
	switch r.Kind {
	case KindPublic:
		return "public"
	case KindAuthenticated:
		return "authenticated"
	default:
		names := make([]string, len(r.Roles))
		for i, role := range r.Roles {
			names[i] = string(role)
		}
		return "roles(" + strings.Join(names, ",") + ")"
	}
}

// Decide applies req to the caller. A nil caller means no valid token was
// presented.
func Decide(req Requirement, caller *Principal) error {
	if req.Kind == KindPublic {
		return nil
	}
	if caller == nil {
		return ErrUnauthenticated
	}
	if req.Kind == KindAuthenticated || len(req.Roles) == 0 {
		return nil
	}
	if slices.Contains(req.Roles, caller.Role) {
		return nil
	}
	return ErrInsufficientRole
}
