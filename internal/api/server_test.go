package api

import (
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/require"

	"github.com/recipebox/recipebox-server/internal/auth"
	"github.com/recipebox/recipebox-server/internal/media/images"
	"github.com/recipebox/recipebox-server/internal/service"
	"github.com/recipebox/recipebox-server/internal/store/sqlite"
	"github.com/recipebox/recipebox-server/internal/validation"
)

// testEnvelope mirrors the response envelope for decoding in tests.
type testEnvelope[T any] struct {
	Success bool          `json:"success"`
	Data    T             `json:"data"`
	Error   *ErrorPayload `json:"error"`
}

// testServer wraps the API server for testing.
type testServer struct {
	*Server
	api          humatest.TestAPI
	tokenService *auth.TokenService
}

// setupTestServer creates a full API server on a temporary database.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	tmpDir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	st, err := sqlite.Open(filepath.Join(tmpDir, "test.db"), logger)
	require.NoError(t, err)

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
	processor := images.NewProcessor(imageStore, logger)

	v := validation.New()

	sessionService := service.NewSessionService(st, tokenService, logger)
	authService := service.NewAuthService(st, tokenService, sessionService, v, logger)

	services := &Services{
		Auth:       authService,
		Session:    sessionService,
		Recipe:     service.NewRecipeService(st, processor, imageStore, v, logger),
		Tag:        service.NewTagService(st, v, logger),
		Ingredient: service.NewIngredientService(st, v, logger),
	}

	s := NewServer(st, services, imageStore, logger)

	t.Cleanup(func() {
		s.Close()
		_ = st.Close()
	})

	return &testServer{
		Server:       s,
		api:          humatest.Wrap(t, s.api),
		tokenService: tokenService,
	}
}

// setupRootUser runs initial setup and returns the access token.
func (ts *testServer) setupRootUser(t *testing.T) string {
	t.Helper()

	resp := ts.api.Post("/api/v1/auth/setup", map[string]any{
		"email":      "admin@test.com",
		"password":   "TestPassword123!",
		"first_name": "Test",
		"last_name":  "Admin",
	})
	require.Equal(t, http.StatusOK, resp.Code, "Setup failed: %s", resp.Body.String())

	var envelope testEnvelope[AuthResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	return envelope.Data.AccessToken
}

// registerAndLogin creates a second user and returns their access token.
func (ts *testServer) registerAndLogin(t *testing.T, email string) string {
	t.Helper()

	resp := ts.api.Post("/api/v1/auth/register", map[string]any{
		"email":      email,
		"password":   "TestPassword123!",
		"first_name": "Other",
		"last_name":  "User",
	})
	require.Equal(t, http.StatusCreated, resp.Code, "Register failed: %s", resp.Body.String())

	resp = ts.api.Post("/api/v1/auth/login", map[string]any{
		"email":    email,
		"password": "TestPassword123!",
	})
	require.Equal(t, http.StatusOK, resp.Code, "Login failed: %s", resp.Body.String())

	var envelope testEnvelope[AuthResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	return envelope.Data.AccessToken
}

func bearer(token string) string {
	return "Authorization: Bearer " + token
}
