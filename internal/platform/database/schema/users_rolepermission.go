package schema

// UserRolePermissionTable represents the 'users.role_permission' join table
type UserRolePermissionTable struct {
	Table        string
	RoleID       string
	PermissionID string
}

// UserRolePermission is the schema definition for users.role_permission
var UserRolePermission = UserRolePermissionTable{
	Table:        "users.role_permission",
	RoleID:       "roleid",
	PermissionID: "permissionid",
}
