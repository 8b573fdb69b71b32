package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/recipebox/recipebox-server/internal/domain"
	domainerrors "github.com/recipebox/recipebox-server/internal/errors"
	"github.com/recipebox/recipebox-server/internal/media/images"
	"github.com/recipebox/recipebox-server/internal/store"
	"github.com/recipebox/recipebox-server/internal/validation"
)

// RecipeService orchestrates recipe CRUD, nested tag/ingredient
// reconciliation, and the ID-based list filter.
type RecipeService struct {
	store      store.Store
	processor  *images.Processor
	imageStore *images.Storage
	validator  *validation.Validator
	logger     *slog.Logger
}

// NewRecipeService creates a new recipe service.
func NewRecipeService(
	store store.Store,
	processor *images.Processor,
	imageStore *images.Storage,
	validator *validation.Validator,
	logger *slog.Logger,
) *RecipeService {
	return &RecipeService{
		store:      store,
		processor:  processor,
		imageStore: imageStore,
		validator:  validator,
		logger:     logger,
	}
}

// AttrInput is a nested tag or ingredient reference in a recipe payload.
type AttrInput struct {
	Name string `json:"name" validate:"required,max=255"`
}

// CreateRecipeRequest contains the data for a new recipe.
type CreateRecipeRequest struct {
	Title       string      `json:"title" validate:"required,max=255"`
	TimeMinutes int         `json:"time_minutes" validate:"gte=0"`
	Price       string      `json:"price" validate:"required,price"`
	Link        string      `json:"link,omitempty" validate:"max=255"`
	Description string      `json:"description,omitempty"`
	Tags        []AttrInput `json:"tags,omitempty" validate:"dive"`
	Ingredients []AttrInput `json:"ingredients,omitempty" validate:"dive"`
}

// UpdateRecipeRequest contains a recipe update. Nil scalar fields are left
// unchanged. Association lists always replace the current sets: an absent
// list clears that kind entirely.
type UpdateRecipeRequest struct {
	Title       *string     `json:"title,omitempty" validate:"omitempty,min=1,max=255"`
	TimeMinutes *int        `json:"time_minutes,omitempty" validate:"omitempty,gte=0"`
	Price       *string     `json:"price,omitempty" validate:"omitempty,price"`
	Link        *string     `json:"link,omitempty" validate:"omitempty,max=255"`
	Description *string     `json:"description,omitempty"`
	Tags        []AttrInput `json:"tags,omitempty" validate:"dive"`
	Ingredients []AttrInput `json:"ingredients,omitempty" validate:"dive"`
}

// ListFilter holds the raw comma-separated ID filter parameters.
type ListFilter struct {
	Tags        string
	Ingredients string
}

// Create persists a new recipe owned by userID and reconciles its nested
// tag and ingredient names.
func (s *RecipeService) Create(ctx context.Context, userID string, req CreateRecipeRequest) (*domain.Recipe, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	recipe := &domain.Recipe{
		UserID:      userID,
		Title:       req.Title,
		TimeMinutes: req.TimeMinutes,
		Price:       req.Price,
		Link:        req.Link,
		Description: req.Description,
	}
	recipe.InitTimestamps()

	if err := s.store.CreateRecipe(ctx, recipe); err != nil {
		return nil, fmt.Errorf("create recipe: %w", err)
	}

	if err := s.reconcileAttrs(ctx, userID, recipe.ID, domain.KindTag, req.Tags); err != nil {
		return nil, err
	}
	if err := s.reconcileAttrs(ctx, userID, recipe.ID, domain.KindIngredient, req.Ingredients); err != nil {
		return nil, err
	}

	s.logger.Info("recipe created", "recipe_id", recipe.ID, "user_id", userID)

	return s.store.GetRecipe(ctx, userID, recipe.ID)
}

// Get returns a single recipe with its associations. Recipes owned by other
// users are reported as not found.
func (s *RecipeService) Get(ctx context.Context, userID string, recipeID int64) (*domain.Recipe, error) {
	recipe, err := s.store.GetRecipe(ctx, userID, recipeID)
	if err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("recipe not found")
		}
		return nil, err
	}
	return recipe, nil
}

// List returns the user's recipes ordered by descending ID, optionally
// narrowed by tag and ingredient ID filters.
//
// Each filter phase picks at most one recipe per requested ID: the
// lowest-ID recipe in the current working set carrying that attribute. The
// tag phase runs against all of the user's recipes; the ingredient phase
// runs against the tag-narrowed working set. The final result is
// deduplicated and ordered by descending ID.
func (s *RecipeService) List(ctx context.Context, userID string, filter ListFilter) ([]*domain.Recipe, error) {
	if filter.Tags == "" && filter.Ingredients == "" {
		return s.store.ListRecipes(ctx, userID)
	}

	// nil means unrestricted; an empty non-nil set matches nothing.
	var working []int64

	if filter.Tags != "" {
		tagIDs, err := parseIDList(filter.Tags, "tags")
		if err != nil {
			return nil, err
		}
		working, err = s.pickPerAttr(ctx, userID, domain.KindTag, tagIDs, working)
		if err != nil {
			return nil, err
		}
	}

	if filter.Ingredients != "" {
		ingredientIDs, err := parseIDList(filter.Ingredients, "ingredients")
		if err != nil {
			return nil, err
		}
		working, err = s.pickPerAttr(ctx, userID, domain.KindIngredient, ingredientIDs, working)
		if err != nil {
			return nil, err
		}
	}

	return s.store.ListRecipesByIDs(ctx, userID, working)
}

// pickPerAttr runs one filter phase: for each requested attribute ID, pick
// the lowest-ID matching recipe within the working set, and return the
// union of picks.
func (s *RecipeService) pickPerAttr(ctx context.Context, userID string, kind domain.AttrKind, attrIDs, within []int64) ([]int64, error) {
	picks := []int64{}
	seen := make(map[int64]bool)

	for _, attrID := range attrIDs {
		recipeID, ok, err := s.store.FirstRecipeIDWithAttr(ctx, kind, userID, attrID, within)
		if err != nil {
			return nil, fmt.Errorf("filter by %s %d: %w", kind, attrID, err)
		}
		if ok && !seen[recipeID] {
			seen[recipeID] = true
			picks = append(picks, recipeID)
		}
	}

	return picks, nil
}

// Update applies a partial or full update. Provided scalar fields replace
// the stored values; the owner is never touched. Both association kinds are
// cleared and rebuilt from the request lists on every update.
func (s *RecipeService) Update(ctx context.Context, userID string, recipeID int64, req UpdateRecipeRequest) (*domain.Recipe, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	recipe, err := s.Get(ctx, userID, recipeID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		recipe.Title = *req.Title
	}
	if req.TimeMinutes != nil {
		recipe.TimeMinutes = *req.TimeMinutes
	}
	if req.Price != nil {
		recipe.Price = *req.Price
	}
	if req.Link != nil {
		recipe.Link = *req.Link
	}
	if req.Description != nil {
		recipe.Description = *req.Description
	}
	recipe.Touch()

	if err := s.store.UpdateRecipe(ctx, recipe); err != nil {
		return nil, fmt.Errorf("update recipe: %w", err)
	}

	// Full association replacement: clear first, then reconcile the
	// provided names. An absent list leaves that kind empty.
	for _, kind := range []domain.AttrKind{domain.KindTag, domain.KindIngredient} {
		if err := s.store.ClearAttrs(ctx, kind, recipe.ID); err != nil {
			return nil, fmt.Errorf("clear %ss: %w", kind, err)
		}
	}
	if err := s.reconcileAttrs(ctx, userID, recipe.ID, domain.KindTag, req.Tags); err != nil {
		return nil, err
	}
	if err := s.reconcileAttrs(ctx, userID, recipe.ID, domain.KindIngredient, req.Ingredients); err != nil {
		return nil, err
	}

	return s.store.GetRecipe(ctx, userID, recipe.ID)
}

// Delete removes a recipe and its stored image. Tag and ingredient records
// survive; only the associations go away.
func (s *RecipeService) Delete(ctx context.Context, userID string, recipeID int64) error {
	recipe, err := s.Get(ctx, userID, recipeID)
	if err != nil {
		return err
	}

	if err := s.store.DeleteRecipe(ctx, userID, recipeID); err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("recipe not found")
		}
		return err
	}

	if recipe.ImagePath != "" {
		if err := s.imageStore.Delete(recipe.ImagePath); err != nil {
			s.logger.Warn("failed to delete recipe image", "recipe_id", recipeID, "error", err)
		}
	}

	s.logger.Info("recipe deleted", "recipe_id", recipeID, "user_id", userID)
	return nil
}

// UploadImage validates and stores an image for a recipe, replacing any
// previous one, and records the new path and blurhash.
func (s *RecipeService) UploadImage(ctx context.Context, userID string, recipeID int64, data []byte) (*domain.Recipe, error) {
	recipe, err := s.Get(ctx, userID, recipeID)
	if err != nil {
		return nil, err
	}

	result, err := s.processor.Process(data)
	if err != nil {
		return nil, domainerrors.Validation("invalid image").WithCause(err)
	}

	oldPath := recipe.ImagePath
	recipe.ImagePath = result.Filename
	recipe.BlurHash = result.BlurHash
	recipe.Touch()

	if err := s.store.UpdateRecipe(ctx, recipe); err != nil {
		return nil, fmt.Errorf("update recipe image: %w", err)
	}

	if oldPath != "" {
		if err := s.imageStore.Delete(oldPath); err != nil {
			s.logger.Warn("failed to delete replaced image", "recipe_id", recipeID, "error", err)
		}
	}

	return recipe, nil
}

// GetImage returns the stored image bytes and content type for a recipe.
func (s *RecipeService) GetImage(ctx context.Context, userID string, recipeID int64) ([]byte, string, error) {
	recipe, err := s.Get(ctx, userID, recipeID)
	if err != nil {
		return nil, "", err
	}

	if recipe.ImagePath == "" {
		return nil, "", domainerrors.NotFound("recipe has no image")
	}

	data, err := s.imageStore.Get(recipe.ImagePath)
	if err != nil {
		return nil, "", domainerrors.NotFound("recipe image not found").WithCause(err)
	}

	return data, images.ContentType(recipe.ImagePath), nil
}

// reconcileAttrs get-or-creates each named attribute under the requesting
// user and attaches it to the recipe. Names are trimmed before matching;
// duplicate names in one payload attach once. The get-or-create is not
// atomic: concurrent requests may create duplicate (user, name) records,
// which is legal.
func (s *RecipeService) reconcileAttrs(ctx context.Context, userID string, recipeID int64, kind domain.AttrKind, inputs []AttrInput) error {
	for _, input := range inputs {
		name := strings.TrimSpace(input.Name)
		if name == "" {
			return domainerrors.Validationf("%s name cannot be blank", kind)
		}

		attr, err := s.store.FindAttrByName(ctx, kind, userID, name)
		if domainerrors.Is(err, store.ErrNotFound) {
			attr = &domain.RecipeAttr{
				UserID: userID,
				Name:   name,
			}
			attr.InitTimestamps()
			if err := s.store.CreateAttr(ctx, kind, attr); err != nil {
				return fmt.Errorf("create %s: %w", kind, err)
			}
		} else if err != nil {
			return fmt.Errorf("find %s: %w", kind, err)
		}

		if err := s.store.AttachAttr(ctx, kind, recipeID, attr.ID); err != nil {
			return fmt.Errorf("attach %s: %w", kind, err)
		}
	}
	return nil
}

// parseIDList splits a comma-separated ID list. Any non-integer entry is a
// validation error.
func parseIDList(raw, field string) ([]int64, error) {
	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))

	for _, part := range parts {
		part = strings.TrimSpace(part)
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, domainerrors.Validationf("invalid %s filter value: %q is not an integer", field, part)
		}
		ids = append(ids, id)
	}

	return ids, nil
}
