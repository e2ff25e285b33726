package schema

// IdentityProfileTable represents the 'identity.profile' table
type IdentityProfileTable struct {
	Table     string
	ID        string
	Email     string
	Role      string
	CreatedAt string
	UpdatedAt string
}

// IdentityProfile is the schema definition for identity.profile
var IdentityProfile = IdentityProfileTable{
	Table:     "identity.profile",
	ID:        "id",
	Email:     "email",
	Role:      "role",
	CreatedAt: "createdat",
	UpdatedAt: "updatedat",
}
