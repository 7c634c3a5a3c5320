package auth

// Action is an operation on an owned resource.
type Action int

const (
	ActionView Action = iota
	ActionUpdate
	ActionDelete
)

func (a Action) String() string {
	switch a {
	case ActionView:
		return "view"
	case ActionUpdate:
		return "update"
	case ActionDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// AuthorizeOwnership admits admins for every action and other callers only
// for records they own. Records without an owner are admin-only.
func AuthorizeOwnership(action Action, ownerUserID *string, caller Principal) error {
	if caller.IsAdmin() {
		return nil
	}
	if ownerUserID == nil || *ownerUserID == "" || caller.UserID == "" {
		return ErrInsufficientOwnership
	}
	if *ownerUserID != caller.UserID {
		return ErrInsufficientOwnership
	}
	return nil
}
