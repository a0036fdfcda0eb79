package gate

import (
	"strings"

	"github.com/louisbranch/warehouse/internal/services/web/session"
)

// Policy decides whether an identity may proceed. A nil identity means the
// session has no user.
type Policy struct {
	// Name identifies the policy in logs and traces.
	Name string
	// Allow reports whether user may proceed. A nil Allow denies everyone.
	Allow func(user *session.UserIdentity) bool
	// UnauthorizedTarget overrides Targets.Unauthorized for identities this
	// policy rejects.
	UnauthorizedTarget string
}

// Allows evaluates p against user.
func (p Policy) Allows(user *session.UserIdentity) bool {
	if p.Allow == nil {
		return false
	}
	return p.Allow(user)
}

// WithUnauthorizedTarget returns a copy of p that sends rejected identities
// to target.
func (p Policy) WithUnauthorizedTarget(target string) Policy {
	p.UnauthorizedTarget = strings.TrimSpace(target)
	return p
}

// Authenticated allows any identity, whatever its role.
func Authenticated() Policy {
	return Policy{
		Name: "authenticated",
		Allow: func(user *session.UserIdentity) bool {
			return user != nil && strings.TrimSpace(user.ID) != ""
		},
	}
}

// RoleIn allows identities whose role is one of roles. Roles outside the
// closed role set never match, even if listed.
func RoleIn(roles ...session.Role) Policy {
	allowed := make(map[session.Role]struct{}, len(roles))
	names := make([]string, 0, len(roles))
	for _, role := range roles {
		if !role.Known() {
			continue
		}
		if _, dup := allowed[role]; dup {
			continue
		}
		allowed[role] = struct{}{}
		names = append(names, role.String())
	}
	return Policy{
		Name: "roles(" + strings.Join(names, ",") + ")",
		Allow: func(user *session.UserIdentity) bool {
			if user == nil || strings.TrimSpace(user.ID) == "" || !user.Role.Known() {
				return false
			}
			_, ok := allowed[user.Role]
			return ok
		},
	}
}

// AdminOrManager is the policy for warehouse administration pages.
func AdminOrManager() Policy {
	return RoleIn(session.RoleAdmin, session.RoleWarehouseManager)
}
