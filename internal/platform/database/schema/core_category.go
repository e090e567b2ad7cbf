package schema

// CategoryTable represents the 'core.category' table
type CategoryTable struct {
	Table     string
	ID        string
	Name      string
	Slug      string
	SortOrder string
	CreatedAt string
}

// Category is the schema definition for core.category
var Category = CategoryTable{
	Table:     "core.category",
	ID:        "id",
	Name:      "name",
	Slug:      "slug",
	SortOrder: "sortorder",
	CreatedAt: "createdat",
}

func (t CategoryTable) Columns() []string {
	return []string{t.ID, t.Name, t.Slug, t.SortOrder, t.CreatedAt}
}
