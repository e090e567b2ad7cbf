package category

import "time"

// Category groups funding projects by subject area (e.g. "STEM", "Arts & Music").
type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	SortOrder int       `json:"sort_order"`
	CreatedAt time.Time `json:"-"`
}
