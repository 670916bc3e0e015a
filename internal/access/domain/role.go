package domain

import "slices"

const (
	RoleAdmin    = "admin"
	RoleEmployee = "employee"
)

// Permission is a fine-grained right carried by a PermissionedRole
type Permission string

const (
	PermissionAdd    Permission = "add"
	PermissionEdit   Permission = "edit"
	PermissionDelete Permission = "delete"
	PermissionView   Permission = "view"
)

// AdminPermissions are granted to every admin at signup
var AdminPermissions = []Permission{PermissionAdd, PermissionEdit, PermissionDelete}

// Role is either a SimpleRole or a PermissionedRole
type Role interface {
	RoleName() string
	isRole()
}

// SimpleRole is a bare role tag
type SimpleRole struct {
	Name string `json:"name"`
}

func (r SimpleRole) RoleName() string { return r.Name }

func (SimpleRole) isRole() {}

// PermissionedRole is a role tag plus an explicit permission list
type PermissionedRole struct {
	Name        string       `json:"name"`
	Permissions []Permission `json:"permissions"`
}

func (r PermissionedRole) RoleName() string { return r.Name }

func (PermissionedRole) isRole() {}

// Has reports whether the role grants p
func (r PermissionedRole) Has(p Permission) bool {
	return slices.Contains(r.Permissions, p)
}
