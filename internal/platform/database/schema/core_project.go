package schema

// ProjectTable represents the 'core.project' table
type ProjectTable struct {
	Table       string
	ID          string
	TeacherID   string
	CategoryID  string
	Title       string
	Slug        string
	Description string
	GoalCents   string
	CoverKey    string
	Status      string
	CreatedAt   string
	UpdatedAt   string
	DeletedAt   string
}

// Project is the schema definition for core.project
var Project = ProjectTable{
	Table:       "core.project",
	ID:          "id",
	TeacherID:   "teacherid",
	CategoryID:  "categoryid",
	Title:       "title",
	Slug:        "slug",
	Description: "description",
	GoalCents:   "goalcents",
	CoverKey:    "coverkey",
	Status:      "status",
	CreatedAt:   "createdat",
	UpdatedAt:   "updatedat",
	DeletedAt:   "deletedat",
}

func (t ProjectTable) Columns() []string {
	return []string{
		t.ID, t.TeacherID, t.CategoryID, t.Title, t.Slug, t.Description,
		t.GoalCents, t.CoverKey, t.Status, t.CreatedAt, t.UpdatedAt, t.DeletedAt,
	}
}
