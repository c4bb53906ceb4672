package model

import "slices"

// User is a back-office account or a site customer as returned by the backend.
type User struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Phone     string `json:"phone,omitempty"`
	Role      string `json:"role"`
	CreatedAt Time   `json:"created_at"`
}

// Identity is the result of an auth check against the backend.
type Identity struct {
	Authenticated bool  `json:"authenticated"`
	User          *User `json:"user,omitempty"`
}

// Role returns the role of the authenticated user, or "" if there is none.
func (id Identity) Role() string {
	if !id.Authenticated || id.User == nil {
		return ""
	}
	return id.User.Role
}

// Roles.
const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
	RoleUser  = "user"
)

// BackOffice lists the roles allowed into admin pages.
var BackOffice = []string{RoleAdmin, RoleStaff}

// RoleIn reports whether role is one of allowed.
func RoleIn(role string, allowed ...string) bool {
	return role != "" && slices.Contains(allowed, role)
}
