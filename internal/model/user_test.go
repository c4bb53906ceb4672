package model

import "testing"

func TestRoleIn(t *testing.T) {
	tests := []struct {
		role    string
		allowed []string
		want    bool
	}{
		{RoleAdmin, BackOffice, true},
		{RoleStaff, BackOffice, true},
		{RoleUser, BackOffice, false},
		{RoleStaff, []string{RoleAdmin}, false},
		{"", []string{""}, false},
		{RoleAdmin, nil, false},
	}

	for _, tt := range tests {
		if got := RoleIn(tt.role, tt.allowed...); got != tt.want {
			t.Errorf("RoleIn(%q, %v) = %v, want %v", tt.role, tt.allowed, got, tt.want)
		}
	}
}

func TestIdentityRole(t *testing.T) {
	if got := (Identity{Authenticated: true}).Role(); got != "" {
		t.Errorf("role without user = %q", got)
	}
	if got := (Identity{User: &User{Role: RoleAdmin}}).Role(); got != "" {
		t.Errorf("role when unauthenticated = %q", got)
	}
	if got := (Identity{Authenticated: true, User: &User{Role: RoleStaff}}).Role(); got != RoleStaff {
		t.Errorf("role = %q, want staff", got)
	}
}
