// Package permission decides which actors may use privileged AP controls.
package permission

import (
	"context"
	"strings"

	"github.com/erp/apcontrols/internal/domain/finance"
)

// RoleChecker grants the override privilege to a fixed set of roles.
// Role names compare case-insensitively.
type RoleChecker struct {
	allowed map[string]struct{}
}

// NewRoleChecker creates a checker for roles. Blank entries are ignored.
func NewRoleChecker(roles []string) *RoleChecker {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		role = normalize(role)
		if role == "" {
			continue
		}
		allowed[role] = struct{}{}
	}
	return &RoleChecker{allowed: allowed}
}

// CanOverride reports whether the actor's role is one of the allowed roles
func (c *RoleChecker) CanOverride(_ context.Context, actor finance.Actor) (bool, error) {
	role := normalize(actor.Role)
	if role == "" {
		return false, nil
	}
	_, ok := c.allowed[role]
	return ok, nil
}

// Roles returns the allowed roles in normalized form
func (c *RoleChecker) Roles() []string {
	roles := make([]string, 0, len(c.allowed))
	for role := range c.allowed {
		roles = append(roles, role)
	}
	return roles
}

func normalize(role string) string {
	return strings.ToLower(strings.TrimSpace(role))
}

var _ finance.OverridePermissionChecker = (*RoleChecker)(nil)
