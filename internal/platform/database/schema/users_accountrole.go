package schema

// UserAccountRoleTable represents the 'users.account_role' join table
type UserAccountRoleTable struct {
	Table     string
	AccountID string
	RoleID    string
}

// UserAccountRole is the schema definition for users.account_role
var UserAccountRole = UserAccountRoleTable{
	Table:     "users.account_role",
	AccountID: "accountid",
	RoleID:    "roleid",
}
