package schema

// UserAccountTable represents the 'users.account' table
type UserAccountTable struct {
	Table     string
	ID        string
	AuthID    string
	Email     string
	Password  string
	Role      string
	FirstName string
	LastName  string
	AvatarKey string
	CreatedAt string
	UpdatedAt string
	DeletedAt string
}

// UserAccount is the schema definition for users.account
var UserAccount = UserAccountTable{
	Table:     "users.account",
	ID:        "id",
	AuthID:    "authid",
	Email:     "email",
	Password:  "passwordhash",
	Role:      "role",
	FirstName: "firstname",
	LastName:  "lastname",
	AvatarKey: "avatarkey",
	CreatedAt: "createdat",
	UpdatedAt: "updatedat",
	DeletedAt: "deletedat",
}

// Columns returns all standard column names
func (t UserAccountTable) Columns() []string {
	return []string{
		t.ID, t.AuthID, t.Email, t.Password, t.Role, t.FirstName, t.LastName,
		t.AvatarKey, t.CreatedAt, t.UpdatedAt, t.DeletedAt,
	}
}
