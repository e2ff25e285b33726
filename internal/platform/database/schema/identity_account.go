package schema

// IdentityAccountTable represents the 'identity.account' table
type IdentityAccountTable struct {
	Table     string
	ID        string
	Email     string
	Password  string
	CreatedAt string
	UpdatedAt string
}

// IdentityAccount is the schema definition for identity.account
var IdentityAccount = IdentityAccountTable{
	Table:     "identity.account",
	ID:        "id",
	Email:     "email",
	Password:  "passwordhash",
	CreatedAt: "createdat",
	UpdatedAt: "updatedat",
}
