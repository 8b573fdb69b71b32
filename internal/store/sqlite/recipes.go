package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/recipebox/recipebox-server/internal/domain"
	"github.com/recipebox/recipebox-server/internal/store"
)

// recipeColumns is the ordered list of columns selected in recipe queries.
// Must match the scan order in scanRecipe.
const recipeColumns = `id, user_id, title, time_minutes, price, link,
	description, image_path, blur_hash, created_at, updated_at`

// scanRecipe scans a sql.Row (or sql.Rows via its Scan method) into a domain.Recipe.
// Associations are left empty; callers load them separately.
func scanRecipe(scanner interface{ Scan(dest ...any) error }) (*domain.Recipe, error) {
	var r domain.Recipe

	var (
		createdAt string
		updatedAt string
	)

	err := scanner.Scan(
		&r.ID,
		&r.UserID,
		&r.Title,
		&r.TimeMinutes,
		&r.Price,
		&r.Link,
		&r.Description,
		&r.ImagePath,
		&r.BlurHash,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	r.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	r.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	return &r, nil
}

// CreateRecipe inserts a new recipe and sets its generated ID.
func (s *Store) CreateRecipe(ctx context.Context, r *domain.Recipe) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO recipes (user_id, title, time_minutes, price, link,
			description, image_path, blur_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.UserID,
		r.Title,
		r.TimeMinutes,
		r.Price,
		r.Link,
		r.Description,
		r.ImagePath,
		r.BlurHash,
		formatTime(r.CreatedAt),
		formatTime(r.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert recipe: %w", err)
	}

	r.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("recipe insert id: %w", err)
	}
	return nil
}

// GetRecipe retrieves a recipe by ID, scoped to the owning user, with
// associations populated. A recipe owned by another user is indistinguishable
// from a missing one: both return store.ErrNotFound.
func (s *Store) GetRecipe(ctx context.Context, userID string, id int64) (*domain.Recipe, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+recipeColumns+` FROM recipes WHERE id = ? AND user_id = ?`, id, userID)

	r, err := scanRecipe(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := s.loadAssociations(ctx, []*domain.Recipe{r}); err != nil {
		return nil, err
	}
	return r, nil
}

// ListRecipes returns all of the user's recipes ordered by descending ID.
func (s *Store) ListRecipes(ctx context.Context, userID string) ([]*domain.Recipe, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recipeColumns+` FROM recipes WHERE user_id = ? ORDER BY id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recipes, err := collectRecipes(rows)
	if err != nil {
		return nil, err
	}

	if err := s.loadAssociations(ctx, recipes); err != nil {
		return nil, err
	}
	return recipes, nil
}

// ListRecipesByIDs returns the user's recipes with the given IDs ordered by
// descending ID. Unowned or missing IDs are skipped silently.
func (s *Store) ListRecipesByIDs(ctx context.Context, userID string, ids []int64) ([]*domain.Recipe, error) {
	if len(ids) == 0 {
		return []*domain.Recipe{}, nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, 0, len(ids)+1)
	args = append(args, userID)
	for _, id := range ids {
		args = append(args, id)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recipeColumns+` FROM recipes
		 WHERE user_id = ? AND id IN (`+placeholders+`)
		 ORDER BY id DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recipes, err := collectRecipes(rows)
	if err != nil {
		return nil, err
	}

	if err := s.loadAssociations(ctx, recipes); err != nil {
		return nil, err
	}
	return recipes, nil
}

// UpdateRecipe persists mutable recipe fields. Ownership is part of the
// WHERE clause, so the owner can never change through this path.
func (s *Store) UpdateRecipe(ctx context.Context, r *domain.Recipe) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE recipes
		SET title = ?, time_minutes = ?, price = ?, link = ?, description = ?,
			image_path = ?, blur_hash = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		r.Title,
		r.TimeMinutes,
		r.Price,
		r.Link,
		r.Description,
		r.ImagePath,
		r.BlurHash,
		formatTime(r.UpdatedAt),
		r.ID,
		r.UserID,
	)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteRecipe removes a recipe owned by the user. Join rows are removed by
// the schema's ON DELETE CASCADE; tag and ingredient records survive.
func (s *Store) DeleteRecipe(ctx context.Context, userID string, id int64) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM recipes WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// AttachAttr links an attribute to a recipe. INSERT OR IGNORE makes repeated
// attaches a no-op.
func (s *Store) AttachAttr(ctx context.Context, kind domain.AttrKind, recipeID, attrID int64) error {
	t := tablesFor(kind)
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(
		`INSERT OR IGNORE INTO %s (recipe_id, %s) VALUES (?, ?)`, t.joinTable, t.joinCol),
		recipeID, attrID)
	if err != nil {
		return fmt.Errorf("attach %s: %w", kind, err)
	}
	return nil
}

// ClearAttrs removes all associations of the given kind from a recipe.
func (s *Store) ClearAttrs(ctx context.Context, kind domain.AttrKind, recipeID int64) error {
	t := tablesFor(kind)
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(
		`DELETE FROM %s WHERE recipe_id = ?`, t.joinTable), recipeID)
	if err != nil {
		return fmt.Errorf("clear %ss: %w", kind, err)
	}
	return nil
}

// FirstRecipeIDWithAttr returns the lowest recipe ID owned by the user that
// has the attribute attached, optionally restricted to a candidate working
// set. ok is false when nothing matches.
func (s *Store) FirstRecipeIDWithAttr(ctx context.Context, kind domain.AttrKind, userID string, attrID int64, within []int64) (int64, bool, error) {
	t := tablesFor(kind)

	query := fmt.Sprintf(`
		SELECT r.id FROM recipes r
		JOIN %s j ON j.recipe_id = r.id
		WHERE r.user_id = ? AND j.%s = ?`, t.joinTable, t.joinCol)
	args := []any{userID, attrID}

	if within != nil {
		if len(within) == 0 {
			return 0, false, nil
		}
		placeholders := strings.Repeat("?,", len(within))
		query += ` AND r.id IN (` + placeholders[:len(placeholders)-1] + `)`
		for _, id := range within {
			args = append(args, id)
		}
	}

	query += ` ORDER BY r.id ASC LIMIT 1`

	var id int64
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

// collectRecipes drains a rows cursor into a slice.
func collectRecipes(rows *sql.Rows) ([]*domain.Recipe, error) {
	var recipes []*domain.Recipe
	for rows.Next() {
		r, err := scanRecipe(rows)
		if err != nil {
			return nil, err
		}
		recipes = append(recipes, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if recipes == nil {
		recipes = []*domain.Recipe{}
	}
	return recipes, nil
}

// loadAssociations populates Tags and Ingredients for the given recipes.
func (s *Store) loadAssociations(ctx context.Context, recipes []*domain.Recipe) error {
	byID := make(map[int64]*domain.Recipe, len(recipes))
	for _, r := range recipes {
		r.Tags = []*domain.Tag{}
		r.Ingredients = []*domain.Ingredient{}
		byID[r.ID] = r
	}
	if len(recipes) == 0 {
		return nil
	}

	for _, kind := range []domain.AttrKind{domain.KindTag, domain.KindIngredient} {
		if err := s.loadAttrsForRecipes(ctx, kind, byID); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) loadAttrsForRecipes(ctx context.Context, kind domain.AttrKind, byID map[int64]*domain.Recipe) error {
	t := tablesFor(kind)

	ids := make([]int64, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT j.recipe_id, a.id, a.user_id, a.name, a.created_at, a.updated_at
		FROM %s j
		JOIN %s a ON a.id = j.%s
		WHERE j.recipe_id IN (%s)
		ORDER BY a.id ASC`, t.joinTable, t.table, t.joinCol, placeholders), args...)
	if err != nil {
		return fmt.Errorf("load %ss: %w", kind, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			recipeID  int64
			a         domain.RecipeAttr
			createdAt string
			updatedAt string
		)
		if err := rows.Scan(&recipeID, &a.ID, &a.UserID, &a.Name, &createdAt, &updatedAt); err != nil {
			return err
		}
		if a.CreatedAt, err = parseTime(createdAt); err != nil {
			return err
		}
		if a.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return err
		}

		r := byID[recipeID]
		if r == nil {
			continue
		}
		if kind == domain.KindTag {
			r.Tags = append(r.Tags, &a)
		} else {
			r.Ingredients = append(r.Ingredients, &a)
		}
	}
	return rows.Err()
}
