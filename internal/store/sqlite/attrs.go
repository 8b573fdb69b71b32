package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/recipebox/recipebox-server/internal/domain"
	"github.com/recipebox/recipebox-server/internal/store"
)

// attrColumns is the ordered list of columns selected in attribute queries.
// Must match the scan order in scanAttr.
const attrColumns = `id, user_id, name, created_at, updated_at`

// scanAttr scans a sql.Row (or sql.Rows via its Scan method) into a domain.RecipeAttr.
func scanAttr(scanner interface{ Scan(dest ...any) error }) (*domain.RecipeAttr, error) {
	var a domain.RecipeAttr

	var (
		createdAt string
		updatedAt string
	)

	err := scanner.Scan(
		&a.ID,
		&a.UserID,
		&a.Name,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	a.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	a.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	return &a, nil
}

// CreateAttr inserts a new tag or ingredient and sets its generated ID.
func (s *Store) CreateAttr(ctx context.Context, kind domain.AttrKind, a *domain.RecipeAttr) error {
	t := tablesFor(kind)
	res, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (user_id, name, created_at, updated_at)
		VALUES (?, ?, ?, ?)`, t.table),
		a.UserID,
		a.Name,
		formatTime(a.CreatedAt),
		formatTime(a.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert %s: %w", kind, err)
	}

	a.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("%s insert id: %w", kind, err)
	}
	return nil
}

// GetAttr retrieves a tag or ingredient by ID, scoped to the owning user.
// Returns store.ErrNotFound for missing and foreign-owned records alike.
func (s *Store) GetAttr(ctx context.Context, kind domain.AttrKind, userID string, id int64) (*domain.RecipeAttr, error) {
	t := tablesFor(kind)
	row := s.db.QueryRowContext(ctx, fmt.Sprintf(
		`SELECT %s FROM %s WHERE id = ? AND user_id = ?`, attrColumns, t.table), id, userID)

	a, err := scanAttr(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// FindAttrByName retrieves the oldest tag or ingredient of the user with an
// exact name match. Returns store.ErrNotFound when none matches.
func (s *Store) FindAttrByName(ctx context.Context, kind domain.AttrKind, userID, name string) (*domain.RecipeAttr, error) {
	t := tablesFor(kind)
	row := s.db.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE user_id = ? AND name = ?
		ORDER BY id ASC LIMIT 1`, attrColumns, t.table), userID, name)

	a, err := scanAttr(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// ListAttrs returns the user's tags or ingredients ordered by name descending.
// With assignedOnly set, only records attached to at least one recipe are
// returned, each once.
func (s *Store) ListAttrs(ctx context.Context, kind domain.AttrKind, userID string, assignedOnly bool) ([]*domain.RecipeAttr, error) {
	t := tablesFor(kind)

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE user_id = ? ORDER BY name DESC, id DESC`, attrColumns, t.table)
	if assignedOnly {
		query = fmt.Sprintf(`
			SELECT DISTINCT a.id, a.user_id, a.name, a.created_at, a.updated_at
			FROM %s a
			JOIN %s j ON j.%s = a.id
			WHERE a.user_id = ?
			ORDER BY a.name DESC, a.id DESC`, t.table, t.joinTable, t.joinCol)
	}

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	attrs := []*domain.RecipeAttr{}
	for rows.Next() {
		a, err := scanAttr(rows)
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, a)
	}
	return attrs, rows.Err()
}

// UpdateAttr persists a renamed tag or ingredient, scoped to the owning user.
func (s *Store) UpdateAttr(ctx context.Context, kind domain.AttrKind, a *domain.RecipeAttr) error {
	t := tablesFor(kind)
	res, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		UPDATE %s SET name = ?, updated_at = ? WHERE id = ? AND user_id = ?`, t.table),
		a.Name,
		formatTime(a.UpdatedAt),
		a.ID,
		a.UserID,
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

// DeleteAttr removes a tag or ingredient owned by the user. Join rows are
// removed by ON DELETE CASCADE; recipes themselves are untouched.
func (s *Store) DeleteAttr(ctx context.Context, kind domain.AttrKind, userID string, id int64) error {
	t := tablesFor(kind)
	res, err := s.db.ExecContext(ctx, fmt.Sprintf(
		`DELETE FROM %s WHERE id = ? AND user_id = ?`, t.table), id, userID)
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
