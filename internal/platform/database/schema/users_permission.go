package schema

// UserPermissionTable represents the 'users.permission' table
type UserPermissionTable struct {
	Table       string
	ID          string
	Name        string
	Module      string
	Description string
	CreatedAt   string
}

// UserPermission is the schema definition for users.permission
var UserPermission = UserPermissionTable{
	Table:       "users.permission",
	ID:          "id",
	Name:        "name",
	Module:      "module",
	Description: "description",
	CreatedAt:   "createdat",
}

func (t UserPermissionTable) Columns() []string {
	return []string{t.ID, t.Name, t.Module, t.Description}
}
