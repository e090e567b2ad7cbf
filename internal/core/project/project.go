package project

import (
	"time"

	"github.com/classraise/classraise/internal/core/category"
)

// # Lifecycle States

const (
	StatusDraft  = "draft"  // Visible only to the owning teacher.
	StatusActive = "active" // Open for donations and wishlisting.
	StatusFunded = "funded" // Goal reached; still listed.
	StatusClosed = "closed" // Archived; hidden from default listings.
)

// Project is a classroom funding campaign created by a teacher.
type Project struct {
	ID          string             `json:"id"`
	TeacherID   string             `json:"teacher_id"`
	CategoryID  string             `json:"category_id"`
	Category    *category.Category `json:"category,omitempty"`
	Title       string             `json:"title"`
	Slug        string             `json:"slug"`
	Description string             `json:"description"`
	GoalCents   int64              `json:"goal_cents"`
	RaisedCents int64              `json:"raised_cents"` // Aggregated from donations at query time.
	CoverKey    string             `json:"-"`
	CoverURL    string             `json:"cover_url,omitempty"`
	Status      string             `json:"status"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// ListFilter narrows project listings. Zero values mean "no constraint".
type ListFilter struct {
	CategoryID string
	TeacherID  string
	Status     string
}
