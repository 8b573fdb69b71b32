package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_Success(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/auth/setup", map[string]any{
		"email":      "admin@test.com",
		"password":   "TestPassword123!",
		"first_name": "Test",
		"last_name":  "Admin",
	})
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[AuthResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))

	assert.True(t, envelope.Success)
	assert.NotEmpty(t, envelope.Data.AccessToken)
	assert.NotEmpty(t, envelope.Data.RefreshToken)
	assert.Equal(t, "Bearer", envelope.Data.TokenType)
	assert.Equal(t, "admin@test.com", envelope.Data.User.Email)
	assert.True(t, envelope.Data.User.IsRoot)
}

func TestSetup_AlreadyConfigured(t *testing.T) {
	ts := setupTestServer(t)
	ts.setupRootUser(t)

	resp := ts.api.Post("/api/v1/auth/setup", map[string]any{
		"email":      "admin2@test.com",
		"password":   "TestPassword123!",
		"first_name": "Second",
		"last_name":  "Admin",
	})
	assert.Equal(t, http.StatusConflict, resp.Code)

	var envelope testEnvelope[struct{}]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.False(t, envelope.Success)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "ALREADY_CONFIGURED", envelope.Error.Code)
}

func TestSetup_ValidationError(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/auth/setup", map[string]any{
		"email":      "not-an-email",
		"password":   "short",
		"first_name": "",
		"last_name":  "",
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	var envelope testEnvelope[struct{}]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.False(t, envelope.Success)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "VALIDATION", envelope.Error.Code)
	assert.NotNil(t, envelope.Error.Details)
}

func TestRegister_BeforeSetup(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/auth/register", map[string]any{
		"email":      "user@test.com",
		"password":   "TestPassword123!",
		"first_name": "Regular",
		"last_name":  "User",
	})
	assert.Equal(t, http.StatusForbidden, resp.Code)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	ts := setupTestServer(t)
	ts.setupRootUser(t)

	resp := ts.api.Post("/api/v1/auth/register", map[string]any{
		"email":      "admin@test.com",
		"password":   "TestPassword123!",
		"first_name": "Dup",
		"last_name":  "User",
	})
	assert.Equal(t, http.StatusConflict, resp.Code)
}

func TestLogin_Success(t *testing.T) {
	ts := setupTestServer(t)
	ts.setupRootUser(t)

	resp := ts.api.Post("/api/v1/auth/login", map[string]any{
		"email":       "admin@test.com",
		"password":    "TestPassword123!",
		"device_name": "Test Device",
	})
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[AuthResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.NotEmpty(t, envelope.Data.AccessToken)
	assert.NotEmpty(t, envelope.Data.SessionID)
}

func TestLogin_WrongPassword(t *testing.T) {
	ts := setupTestServer(t)
	ts.setupRootUser(t)

	resp := ts.api.Post("/api/v1/auth/login", map[string]any{
		"email":    "admin@test.com",
		"password": "WrongPassword123!",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestRefresh_RotatesTokens(t *testing.T) {
	ts := setupTestServer(t)
	ts.setupRootUser(t)

	resp := ts.api.Post("/api/v1/auth/login", map[string]any{
		"email":    "admin@test.com",
		"password": "TestPassword123!",
	})
	require.Equal(t, http.StatusOK, resp.Code)

	var loginEnvelope testEnvelope[AuthResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &loginEnvelope))

	resp = ts.api.Post("/api/v1/auth/refresh", map[string]any{
		"refresh_token": loginEnvelope.Data.RefreshToken,
	})
	require.Equal(t, http.StatusOK, resp.Code)

	var refreshEnvelope testEnvelope[AuthResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &refreshEnvelope))
	assert.NotEqual(t, loginEnvelope.Data.RefreshToken, refreshEnvelope.Data.RefreshToken)
	assert.Equal(t, loginEnvelope.Data.SessionID, refreshEnvelope.Data.SessionID)

	// Old refresh token is invalid after rotation.
	resp = ts.api.Post("/api/v1/auth/refresh", map[string]any{
		"refresh_token": loginEnvelope.Data.RefreshToken,
	})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestLogout_RevokesSession(t *testing.T) {
	ts := setupTestServer(t)
	ts.setupRootUser(t)

	resp := ts.api.Post("/api/v1/auth/login", map[string]any{
		"email":    "admin@test.com",
		"password": "TestPassword123!",
	})
	require.Equal(t, http.StatusOK, resp.Code)

	var loginEnvelope testEnvelope[AuthResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &loginEnvelope))

	resp = ts.api.Post("/api/v1/auth/logout", map[string]any{
		"session_id": loginEnvelope.Data.SessionID,
	})
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Post("/api/v1/auth/refresh", map[string]any{
		"refresh_token": loginEnvelope.Data.RefreshToken,
	})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestAuthRateLimit(t *testing.T) {
	ts := setupTestServer(t)
	ts.setupRootUser(t)

	body := map[string]any{
		"email":    "admin@test.com",
		"password": "WrongPassword123!",
	}

	// Burn through the burst allowance.
	limited := false
	for i := 0; i < 15; i++ {
		resp := ts.api.Post("/api/v1/auth/login", body)
		if resp.Code == http.StatusTooManyRequests {
			limited = true

			var envelope testEnvelope[struct{}]
			require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
			require.NotNil(t, envelope.Error)
			assert.Equal(t, "RATE_LIMITED", envelope.Error.Code)
			break
		}
	}
	assert.True(t, limited, "expected a 429 after exhausting the burst")

	// Non-auth routes are not limited.
	resp := ts.api.Get("/health")
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestGetCurrentUser(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.setupRootUser(t)

	resp := ts.api.Get("/api/v1/users/me", bearer(token))
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[UserResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Equal(t, "admin@test.com", envelope.Data.Email)
	assert.Equal(t, "Test Admin", envelope.Data.DisplayName)
}

func TestGetCurrentUser_Unauthorized(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/users/me")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = ts.api.Get("/api/v1/users/me", "Authorization: Bearer garbage")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}
