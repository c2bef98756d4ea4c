package access

import (
	"errors"
	"strings"
)

// ErrUnknownSubject is returned by directories when the user row is gone.
var ErrUnknownSubject = errors.New("staff user not found")

// Subject is the persisted authorization state of a staff user, read fresh
// from the store for every decision.
type Subject struct {
	UserID          string
	Email           string
	Name            string
	RoleID          string
	RoleName        string
	Active          bool
	RolePermissions []string
	UserPermissions []string
}

// Effective returns role permissions united with the user's additive
// overrides. The admin role always resolves to the full catalog, whatever is
// stored on the row.
func Effective(roleName string, rolePerms, userPerms []string) []string {
	if roleName == RoleAdmin {
		return AllPermissions()
	}
	combined := make([]string, 0, len(rolePerms)+len(userPerms))
	combined = append(combined, rolePerms...)
	combined = append(combined, userPerms...)
	return dedupe(combined)
}

func (s Subject) Effective() []string {
	roleName := s.RoleName
	if roleName == "" {
		roleName = RoleEmployee
	}
	return Effective(roleName, s.RolePermissions, s.UserPermissions)
}

// Allows reports whether perms grants resource:action. A view check passes
// on any permission held for the resource.
func Allows(perms []string, resource, action string) bool {
	want := Permission(resource, action)
	prefix := resource + ":"
	for _, p := range perms {
		if p == want {
			return true
		}
		if action == ActionView && strings.HasPrefix(p, prefix) {
			return true
		}
	}
	return false
}
