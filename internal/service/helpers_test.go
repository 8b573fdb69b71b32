package service

import (
	"context"
	"encoding/hex"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/recipebox/recipebox-server/internal/auth"
	"github.com/recipebox/recipebox-server/internal/domain"
	"github.com/recipebox/recipebox-server/internal/id"
	"github.com/recipebox/recipebox-server/internal/media/images"
	"github.com/recipebox/recipebox-server/internal/store/sqlite"
	"github.com/recipebox/recipebox-server/internal/validation"
	"github.com/stretchr/testify/require"
)

// testServices bundles everything the service tests need.
type testServices struct {
	store      *sqlite.Store
	auth       *AuthService
	sessions   *SessionService
	recipes    *RecipeService
	tags       *AttrService
	ingredients *AttrService
	tokens     *auth.TokenService
}

// setupServices creates the full service stack on a temporary database.
func setupServices(t *testing.T) *testServices {
	t.Helper()

	tmpDir := t.TempDir()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	s, err := sqlite.Open(filepath.Join(tmpDir, "test.db"), log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	authKey, err := auth.LoadOrGenerateKey(tmpDir)
	require.NoError(t, err)

	tokenService, err := auth.NewTokenService(
		hex.EncodeToString(authKey),
		15*time.Minute,
		30*24*time.Hour,
	)
	require.NoError(t, err)

	imageStore, err := images.NewStorage(filepath.Join(tmpDir, "images"))
	require.NoError(t, err)
	processor := images.NewProcessor(imageStore, log)

	v := validation.New()

	sessionService := NewSessionService(s, tokenService, log)

	return &testServices{
		store:      s,
		auth:       NewAuthService(s, tokenService, sessionService, v, log),
		sessions:   sessionService,
		recipes:    NewRecipeService(s, processor, imageStore, v, log),
		tags:       NewTagService(s, v, log),
		ingredients: NewIngredientService(s, v, log),
		tokens:     tokenService,
	}
}

// createServiceTestUser inserts a user directly into the store.
func createServiceTestUser(t *testing.T, ts *testServices, email string) *domain.User {
	t.Helper()

	passwordHash, err := auth.HashPassword("SecurePassword123!")
	require.NoError(t, err)

	userID, err := id.Generate("usr")
	require.NoError(t, err)

	user := &domain.User{
		ID:           userID,
		Email:        email,
		PasswordHash: passwordHash,
		FirstName:    "Test",
		LastName:     "User",
		DisplayName:  "Test User",
	}
	user.InitTimestamps()

	require.NoError(t, ts.store.CreateUser(context.Background(), user))
	return user
}

// attrNames extracts the names from an attribute slice, in order.
func attrNames(attrs []*domain.RecipeAttr) []string {
	names := make([]string, 0, len(attrs))
	for _, a := range attrs {
		names = append(names, a.Name)
	}
	return names
}

// recipeIDs extracts the IDs from a recipe slice, in order.
func recipeIDs(recipes []*domain.Recipe) []int64 {
	ids := make([]int64, 0, len(recipes))
	for _, r := range recipes {
		ids = append(ids, r.ID)
	}
	return ids
}

// fmtIDs renders IDs as a comma-separated filter parameter.
func fmtIDs(ids ...int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}
