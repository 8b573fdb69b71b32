package domain

import "time"

// Recipe is a user-owned recipe with many-to-many links to tags and ingredients.
// IDs are sqlite rowids; list filtering and ordering are defined over them.
// UserID is immutable after creation; updates never reassign ownership.
type Recipe struct {
	ID          int64     `json:"id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	TimeMinutes int       `json:"time_minutes"`
	Price       string    `json:"price"` // Decimal amount, stored as text (e.g. "8.00")
	Link        string    `json:"link,omitempty"`
	Description string    `json:"description,omitempty"`
	ImagePath   string    `json:"image_path,omitempty"`
	BlurHash    string    `json:"blur_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Associations, populated on reads. Never nil in API responses.
	Tags        []*Tag        `json:"tags"`
	Ingredients []*Ingredient `json:"ingredients"`
}

// Touch updates the UpdatedAt timestamp.
func (r *Recipe) Touch() {
	r.UpdatedAt = time.Now()
}

// InitTimestamps sets both CreatedAt and UpdatedAt to now.
func (r *Recipe) InitTimestamps() {
	now := time.Now()
	r.CreatedAt = now
	r.UpdatedAt = now
}
