package auth

import "context"

func (m *Middleware) GetUser(ctx context.Context) User {
	u, _ := UserFrom(ctx)
	return u
}

func (m *Middleware) IsRole(ctx context.Context, role Role) bool {
	if u, ok := UserFrom(ctx); ok {
		return u.Role.Name == role.Name || m.isAdminRole(u.Role.Name)
	}
	return false
}

func (m *Middleware) IsAdmin(ctx context.Context) bool {
	u, ok := UserFrom(ctx)
	return ok && m.isAdminRole(u.Role.Name)
}

func (m *Middleware) IsUser(ctx context.Context, username string) bool {
	if u, ok := UserFrom(ctx); ok {
		return u.Username == username || m.isAdminRole(u.Role.Name)
	}
	return false
}

func (m *Middleware) IsAuthenticated(ctx context.Context) bool {
	u, ok := UserFrom(ctx)
	return ok && u.Username != ""
}

func (m *Middleware) isAdminRole(name string) bool {
	if m == nil {
		return false
	}
	return m.adminRole != "" && name == m.adminRole
}
