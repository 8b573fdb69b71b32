package domain

import "time"

// AttrKind distinguishes the two recipe attribute types that share
// identical shape and behavior.
type AttrKind string

const (
	// KindTag identifies the tag attribute kind.
	KindTag AttrKind = "tag"
	// KindIngredient identifies the ingredient attribute kind.
	KindIngredient AttrKind = "ingredient"
)

// RecipeAttr is the common shape of tags and ingredients: a named record
// owned by one user. (UserID, Name) is the natural key used by the
// reconciler's get-or-create, but uniqueness is not enforced by the store:
// duplicates can exist when records are created through the direct
// tag/ingredient endpoints.
type RecipeAttr struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Touch updates the UpdatedAt timestamp.
func (a *RecipeAttr) Touch() {
	a.UpdatedAt = time.Now()
}

// InitTimestamps sets both CreatedAt and UpdatedAt to now.
func (a *RecipeAttr) InitTimestamps() {
	now := time.Now()
	a.CreatedAt = now
	a.UpdatedAt = now
}

// Tag categorizes a user's recipes ("Vegan", "Dessert").
type Tag = RecipeAttr

// Ingredient is a component of a user's recipes ("Salt", "Ginger").
type Ingredient = RecipeAttr
