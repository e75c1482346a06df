package models

import (
	"database/sql/driver"
	"fmt"

	"github.com/lib/pq"
)

// Role is the closed set of account roles.
type Role string

const (
	RoleUser      Role = "user"
	RoleFarmer    Role = "farmer"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// AllRoles lists every role in display order.
var AllRoles = []Role{RoleUser, RoleFarmer, RoleModerator, RoleAdmin}

// ParseRole accepts only members of the enumeration.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUser, RoleFarmer, RoleModerator, RoleAdmin:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// SelfAssignable reports whether a user may pick this role at registration.
func (r Role) SelfAssignable() bool {
	switch r {
	case RoleUser, RoleFarmer:
		return true
	case RoleModerator, RoleAdmin:
		return false
	}
	return false
}

// Permission names an action gated by role membership.
type Permission int

const (
	PermManageOwnProducts Permission = iota
	PermViewFarmerOrders
	PermUpdateOrderFulfilment
	PermViewDashboard
	PermModerateContent
	PermManageUsers
)

func (p Permission) String() string {
	switch p {
	case PermManageOwnProducts:
		return "manage_own_products"
	case PermViewFarmerOrders:
		return "view_farmer_orders"
	case PermUpdateOrderFulfilment:
		return "update_order_fulfilment"
	case PermViewDashboard:
		return "view_dashboard"
	case PermModerateContent:
		return "moderate_content"
	case PermManageUsers:
		return "manage_users"
	}
	return fmt.Sprintf("permission(%d)", int(p))
}

// Allows reports whether a single role grants p.
func (r Role) Allows(p Permission) bool {
	switch r {
	case RoleAdmin:
		return true
	case RoleFarmer:
		switch p {
		case PermManageOwnProducts, PermViewFarmerOrders, PermUpdateOrderFulfilment, PermViewDashboard:
			return true
		case PermModerateContent, PermManageUsers:
			return false
		}
	case RoleModerator:
		switch p {
		case PermModerateContent:
			return true
		case PermManageOwnProducts, PermViewFarmerOrders, PermUpdateOrderFulfilment, PermViewDashboard, PermManageUsers:
			return false
		}
	case RoleUser:
		return false
	}
	return false
}

// Roles is a user's role set. It is stored as a Postgres TEXT[].
type Roles []Role

// Has reports membership.
func (rs Roles) Has(role Role) bool {
	for _, r := range rs {
		if r == role {
			return true
		}
	}
	return false
}

// Allows reports whether any role in the set grants p.
func (rs Roles) Allows(p Permission) bool {
	for _, r := range rs {
		if r.Allows(p) {
			return true
		}
	}
	return false
}

// Normalize drops duplicates while keeping first-seen order.
func (rs Roles) Normalize() Roles {
	out := make(Roles, 0, len(rs))
	for _, r := range rs {
		if !out.Has(r) {
			out = append(out, r)
		}
	}
	return out
}

// ParseRoles validates every entry and rejects an empty set.
func ParseRoles(raw []string) (Roles, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("at least one role is required")
	}
	rs := make(Roles, 0, len(raw))
	for _, s := range raw {
		r, err := ParseRole(s)
		if err != nil {
			return nil, err
		}
		rs = append(rs, r)
	}
	return rs.Normalize(), nil
}

// Strings returns the raw role names.
func (rs Roles) Strings() []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = string(r)
	}
	return out
}

// Value implements driver.Valuer.
func (rs Roles) Value() (driver.Value, error) {
	return pq.StringArray(rs.Strings()).Value()
}

// Scan implements sql.Scanner.
func (rs *Roles) Scan(src any) error {
	var arr pq.StringArray
	if err := arr.Scan(src); err != nil {
		return err
	}
	parsed, err := ParseRoles(arr)
	if err != nil {
		return err
	}
	*rs = parsed
	return nil
}
