package auth

import (
	"slices"

	"github.com/joeydtaylor/steeze-bridge/pkg/framework"
)

// Policy restricts a route to authenticated callers, named users or roles.
// Users takes precedence over Roles. The admin role passes every role check.
type Policy struct {
	RequireAuth bool
	Users       []string
	Roles       []string
}

func (p Policy) empty() bool {
	return !p.RequireAuth && len(p.Users) == 0 && len(p.Roles) == 0
}

// Guard returns a route guard enforcing p. With a nil m only an empty policy
// passes.
func (m *Middleware) Guard(p Policy) framework.Guard {
	return func(req *framework.Request) error {
		if p.empty() {
			return nil
		}
		if m == nil {
			return framework.Unauthorized()
		}
		ctx := req.Context()
		u, _ := UserFrom(ctx)
		if u.Username == "" {
			return framework.Unauthorized()
		}
		switch {
		case len(p.Users) > 0:
			if !slices.Contains(p.Users, u.Username) {
				return framework.Forbidden()
			}
		case len(p.Roles) > 0:
			if !m.IsAdmin(ctx) && !slices.Contains(p.Roles, u.Role.Name) {
				return framework.Forbidden()
			}
		}
		return nil
	}
}
