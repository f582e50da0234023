package schema

// UserAccountTable represents the 'users.account' table
type UserAccountTable struct {
	Table               string
	ID                  string
	Email               string
	PasswordHash        string
	FullName            string
	Phone               string
	Status              string
	FailedLoginAttempts string
	LockedUntil         string
	RefreshToken        string
	CreatedAt           string
	UpdatedAt           string
	DeletedAt           string
}

// UserAccount is the schema definition for users.account
var UserAccount = UserAccountTable{
	Table:               "users.account",
	ID:                  "id",
	Email:               "email",
	PasswordHash:        "passwordhash",
	FullName:            "fullname",
	Phone:               "phone",
	Status:              "status",
	FailedLoginAttempts: "failedloginattempts",
	LockedUntil:         "lockeduntil",
	RefreshToken:        "refreshtoken",
	CreatedAt:           "createdat",
	UpdatedAt:           "updatedat",
	DeletedAt:           "deletedat",
}

// Columns returns all standard column names
func (t UserAccountTable) Columns() []string {
	return []string{
		t.ID, t.Email, t.PasswordHash, t.FullName, t.Phone, t.Status,
		t.FailedLoginAttempts, t.LockedUntil, t.RefreshToken, t.CreatedAt, t.UpdatedAt,
	}
}
