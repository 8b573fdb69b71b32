package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/recipebox/recipebox-server/internal/domain"
	domainerrors "github.com/recipebox/recipebox-server/internal/errors"
	"github.com/recipebox/recipebox-server/internal/store"
	"github.com/recipebox/recipebox-server/internal/validation"
)

// AttrService manages one kind of recipe attribute (tags or ingredients).
// Both kinds share identical behavior, so the kind is fixed at construction.
type AttrService struct {
	kind      domain.AttrKind
	store     store.Store
	validator *validation.Validator
	logger    *slog.Logger
}

// NewTagService creates the service managing tags.
func NewTagService(store store.Store, validator *validation.Validator, logger *slog.Logger) *AttrService {
	return &AttrService{kind: domain.KindTag, store: store, validator: validator, logger: logger}
}

// NewIngredientService creates the service managing ingredients.
func NewIngredientService(store store.Store, validator *validation.Validator, logger *slog.Logger) *AttrService {
	return &AttrService{kind: domain.KindIngredient, store: store, validator: validator, logger: logger}
}

// AttrRequest contains the data for creating or renaming an attribute.
type AttrRequest struct {
	Name string `json:"name" validate:"required,max=255"`
}

// List returns the user's attributes ordered by descending name. With
// assignedOnly set, only attributes attached to at least one recipe are
// returned.
func (s *AttrService) List(ctx context.Context, userID string, assignedOnly bool) ([]*domain.RecipeAttr, error) {
	return s.store.ListAttrs(ctx, s.kind, userID, assignedOnly)
}

// Create persists a new attribute owned by userID. Duplicate names are
// allowed here; the recipe reconciler resolves them oldest-first.
func (s *AttrService) Create(ctx context.Context, userID string, req AttrRequest) (*domain.RecipeAttr, error) {
	name, err := s.cleanName(req)
	if err != nil {
		return nil, err
	}

	attr := &domain.RecipeAttr{
		UserID: userID,
		Name:   name,
	}
	attr.InitTimestamps()

	if err := s.store.CreateAttr(ctx, s.kind, attr); err != nil {
		return nil, fmt.Errorf("create %s: %w", s.kind, err)
	}

	s.logger.Info("attribute created", "kind", s.kind, "id", attr.ID, "user_id", userID)
	return attr, nil
}

// Update renames an attribute. Attributes owned by other users are reported
// as not found.
func (s *AttrService) Update(ctx context.Context, userID string, id int64, req AttrRequest) (*domain.RecipeAttr, error) {
	name, err := s.cleanName(req)
	if err != nil {
		return nil, err
	}

	attr, err := s.store.GetAttr(ctx, s.kind, userID, id)
	if err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFoundf("%s not found", s.kind)
		}
		return nil, err
	}

	attr.Name = name
	attr.Touch()

	if err := s.store.UpdateAttr(ctx, s.kind, attr); err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFoundf("%s not found", s.kind)
		}
		return nil, fmt.Errorf("update %s: %w", s.kind, err)
	}

	return attr, nil
}

// Delete removes an attribute record and detaches it from any recipes.
func (s *AttrService) Delete(ctx context.Context, userID string, id int64) error {
	if err := s.store.DeleteAttr(ctx, s.kind, userID, id); err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFoundf("%s not found", s.kind)
		}
		return fmt.Errorf("delete %s: %w", s.kind, err)
	}

	s.logger.Info("attribute deleted", "kind", s.kind, "id", id, "user_id", userID)
	return nil
}

// cleanName validates the request and returns the trimmed name.
func (s *AttrService) cleanName(req AttrRequest) (string, error) {
	if err := s.validator.Validate(req); err != nil {
		return "", err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return "", domainerrors.Validationf("%s name cannot be blank", s.kind)
	}
	return name, nil
}
