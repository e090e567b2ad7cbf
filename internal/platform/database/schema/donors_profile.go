package schema

// DonorProfileTable represents the 'donors.profile' table
type DonorProfileTable struct {
	Table       string
	ID          string
	UserID      string
	IsAnonymous string
	CreatedAt   string
	UpdatedAt   string
}

// DonorProfile is the schema definition for donors.profile
var DonorProfile = DonorProfileTable{
	Table:       "donors.profile",
	ID:          "id",
	UserID:      "userid",
	IsAnonymous: "isanonymous",
	CreatedAt:   "createdat",
	UpdatedAt:   "updatedat",
}

func (t DonorProfileTable) Columns() []string {
	return []string{t.ID, t.UserID, t.IsAnonymous, t.CreatedAt, t.UpdatedAt}
}
