package schema

// DonationTable represents the 'donors.donation' table
type DonationTable struct {
	Table       string
	ID          string
	DonorID     string
	ProjectID   string
	AmountCents string
	Message     string
	CreatedAt   string
}

// Donation is the schema definition for donors.donation
var Donation = DonationTable{
	Table:       "donors.donation",
	ID:          "id",
	DonorID:     "donorid",
	ProjectID:   "projectid",
	AmountCents: "amountcents",
	Message:     "message",
	CreatedAt:   "createdat",
}

func (t DonationTable) Columns() []string {
	return []string{t.ID, t.DonorID, t.ProjectID, t.AmountCents, t.Message, t.CreatedAt}
}
