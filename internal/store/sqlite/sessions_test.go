package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/recipebox/recipebox-server/internal/domain"
	"github.com/recipebox/recipebox-server/internal/id"
	"github.com/recipebox/recipebox-server/internal/store"
)

func makeTestSession(userID, tokenHash string, expiresAt time.Time) *domain.Session {
	now := time.Now()
	return &domain.Session{
		ID:               id.MustGenerate("ses"),
		UserID:           userID,
		RefreshTokenHash: tokenHash,
		DeviceName:       "test-device",
		IPAddress:        "127.0.0.1",
		ExpiresAt:        expiresAt,
		CreatedAt:        now,
		LastSeenAt:       now,
	}
}

func TestCreateAndGetSession(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	userID := insertTestUser(t, s, "sess@example.com")
	sess := makeTestSession(userID, "hash-abc", time.Now().Add(time.Hour))

	if err := s.CreateSession(ctx, sess); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	got, err := s.GetSessionByTokenHash(ctx, "hash-abc")
	if err != nil {
		t.Fatalf("GetSessionByTokenHash: %v", err)
	}
	if got.ID != sess.ID {
		t.Errorf("ID: got %q, want %q", got.ID, sess.ID)
	}
	if got.UserID != userID {
		t.Errorf("UserID: got %q, want %q", got.UserID, userID)
	}
	if got.DeviceName != "test-device" {
		t.Errorf("DeviceName: got %q", got.DeviceName)
	}
	if got.IsExpired() {
		t.Error("session should not be expired")
	}
}

func TestGetSession_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetSessionByTokenHash(context.Background(), "no-such-hash")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateSession_RotatesHash(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	userID := insertTestUser(t, s, "rotate@example.com")
	sess := makeTestSession(userID, "hash-old", time.Now().Add(time.Hour))
	if err := s.CreateSession(ctx, sess); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	sess.RefreshTokenHash = "hash-new"
	sess.LastSeenAt = time.Now()
	if err := s.UpdateSession(ctx, sess); err != nil {
		t.Fatalf("UpdateSession: %v", err)
	}

	// Old hash no longer resolves.
	if _, err := s.GetSessionByTokenHash(ctx, "hash-old"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected old hash to be gone, got %v", err)
	}

	got, err := s.GetSessionByTokenHash(ctx, "hash-new")
	if err != nil {
		t.Fatalf("GetSessionByTokenHash (new): %v", err)
	}
	if got.ID != sess.ID {
		t.Errorf("ID: got %q, want %q", got.ID, sess.ID)
	}
}

func TestDeleteSession(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	userID := insertTestUser(t, s, "del@example.com")
	sess := makeTestSession(userID, "hash-del", time.Now().Add(time.Hour))
	if err := s.CreateSession(ctx, sess); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	if err := s.DeleteSession(ctx, sess.ID); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	if _, err := s.GetSessionByTokenHash(ctx, "hash-del"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected session gone, got %v", err)
	}

	// Deleting again is a no-op.
	if err := s.DeleteSession(ctx, sess.ID); err != nil {
		t.Errorf("DeleteSession (missing): %v", err)
	}
}

func TestDeleteExpiredSessions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	userID := insertTestUser(t, s, "expiry@example.com")

	expired := makeTestSession(userID, "hash-expired", time.Now().Add(-time.Hour))
	live := makeTestSession(userID, "hash-live", time.Now().Add(time.Hour))
	if err := s.CreateSession(ctx, expired); err != nil {
		t.Fatalf("CreateSession expired: %v", err)
	}
	if err := s.CreateSession(ctx, live); err != nil {
		t.Fatalf("CreateSession live: %v", err)
	}

	n, err := s.DeleteExpiredSessions(ctx)
	if err != nil {
		t.Fatalf("DeleteExpiredSessions: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 session removed, got %d", n)
	}

	if _, err := s.GetSessionByTokenHash(ctx, "hash-expired"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected expired session gone, got %v", err)
	}
	if _, err := s.GetSessionByTokenHash(ctx, "hash-live"); err != nil {
		t.Errorf("live session should remain: %v", err)
	}
}
