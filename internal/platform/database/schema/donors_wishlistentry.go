package schema

// WishlistEntryTable represents the 'donors.wishlistentry' table
type WishlistEntryTable struct {
	Table     string
	ID        string
	DonorID   string
	ProjectID string
	CreatedAt string
}

// WishlistEntry is the schema definition for donors.wishlistentry
var WishlistEntry = WishlistEntryTable{
	Table:     "donors.wishlistentry",
	ID:        "id",
	DonorID:   "donorid",
	ProjectID: "projectid",
	CreatedAt: "createdat",
}

func (t WishlistEntryTable) Columns() []string {
	return []string{t.ID, t.DonorID, t.ProjectID, t.CreatedAt}
}
