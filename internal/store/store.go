// Package store defines the persistence interface for the RecipeBox server.
// The sqlite subpackage provides the production implementation.
package store

import (
	"context"

	"github.com/recipebox/recipebox-server/internal/domain"
)

// Store is the persistence interface consumed by the service layer.
// All recipe/tag/ingredient operations are scoped to an owning user ID;
// reads of records owned by another user return ErrNotFound.
type Store interface {
	UserStore
	SessionStore
	RecipeStore
	AttrStore

	Close() error
}

// UserStore persists user accounts.
type UserStore interface {
	CreateUser(ctx context.Context, u *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateUser(ctx context.Context, u *domain.User) error
	CountUsers(ctx context.Context) (int, error)
}

// SessionStore persists refresh-token sessions.
type SessionStore interface {
	CreateSession(ctx context.Context, s *domain.Session) error
	GetSessionByTokenHash(ctx context.Context, tokenHash string) (*domain.Session, error)
	UpdateSession(ctx context.Context, s *domain.Session) error
	DeleteSession(ctx context.Context, id string) error
	DeleteExpiredSessions(ctx context.Context) (int, error)
}

// RecipeStore persists recipes and their attribute associations.
type RecipeStore interface {
	CreateRecipe(ctx context.Context, r *domain.Recipe) error
	GetRecipe(ctx context.Context, userID string, id int64) (*domain.Recipe, error)
	// ListRecipes returns all of the user's recipes ordered by descending ID,
	// with tags and ingredients populated.
	ListRecipes(ctx context.Context, userID string) ([]*domain.Recipe, error)
	// ListRecipesByIDs returns the user's recipes with the given IDs ordered by
	// descending ID. IDs that don't resolve to an owned recipe are skipped.
	ListRecipesByIDs(ctx context.Context, userID string, ids []int64) ([]*domain.Recipe, error)
	UpdateRecipe(ctx context.Context, r *domain.Recipe) error
	DeleteRecipe(ctx context.Context, userID string, id int64) error

	// AttachAttr links an attribute to a recipe. Idempotent.
	AttachAttr(ctx context.Context, kind domain.AttrKind, recipeID, attrID int64) error
	// ClearAttrs removes all associations of the given kind from a recipe.
	// The attribute records themselves are never deleted.
	ClearAttrs(ctx context.Context, kind domain.AttrKind, recipeID int64) error
	// FirstRecipeIDWithAttr returns the lowest recipe ID owned by the user that
	// has the given attribute attached, optionally restricted to a working set
	// of candidate recipe IDs (nil means all). ok is false when no recipe matches.
	FirstRecipeIDWithAttr(ctx context.Context, kind domain.AttrKind, userID string, attrID int64, within []int64) (id int64, ok bool, err error)
}

// AttrStore persists tags and ingredients, parameterized by kind since the
// two share identical shape and behavior.
type AttrStore interface {
	CreateAttr(ctx context.Context, kind domain.AttrKind, a *domain.RecipeAttr) error
	GetAttr(ctx context.Context, kind domain.AttrKind, userID string, id int64) (*domain.RecipeAttr, error)
	// FindAttrByName returns the oldest record with the exact (userID, name)
	// key, or ErrNotFound.
	FindAttrByName(ctx context.Context, kind domain.AttrKind, userID, name string) (*domain.RecipeAttr, error)
	// ListAttrs returns the user's attributes ordered by descending name.
	// When assignedOnly is true, only attributes attached to at least one of
	// the user's recipes are returned (deduplicated).
	ListAttrs(ctx context.Context, kind domain.AttrKind, userID string, assignedOnly bool) ([]*domain.RecipeAttr, error)
	UpdateAttr(ctx context.Context, kind domain.AttrKind, a *domain.RecipeAttr) error
	// DeleteAttr removes the record and any recipe associations pointing at it.
	DeleteAttr(ctx context.Context, kind domain.AttrKind, userID string, id int64) error
}
