package store

import (
	"testing"
	"time"

	"github.com/aulaflow/aulaflow/internal/model"
)

func insertTestUser(t *testing.T, s *Store) int64 {
	t.Helper()
	userID, err := s.CreateUser(model.User{
		Username: "docente", PasswordHash: "x", Role: model.UserRoleTeacher, Active: true,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return userID
}

// setSessionExpiry rewrites a session's expiry directly, standing in for
// the passage of time.
func setSessionExpiry(t *testing.T, s *Store, token string, at time.Time) {
	t.Helper()
	if _, err := s.db.Exec(
		`UPDATE auth_sessions SET expires_at = ? WHERE id = ?`, at, token,
	); err != nil {
		t.Fatalf("set session expiry: %v", err)
	}
}

func TestAuthSessionLifecycle(t *testing.T) {
	s := newTestStore(t)
	userID := insertTestUser(t, s)

	token, err := s.CreateAuthSession(userID)
	if err != nil {
		t.Fatalf("CreateAuthSession: %v", err)
	}
	if len(token) != 64 {
		t.Errorf("expected 64-char hex token, got %d chars", len(token))
	}

	sess, err := s.GetAuthSession(token)
	if err != nil {
		t.Fatalf("GetAuthSession: %v", err)
	}
	if sess == nil || sess.UserID != userID {
		t.Fatalf("expected session for user %d, got %+v", userID, sess)
	}

	if err := s.DeleteAuthSession(token); err != nil {
		t.Fatalf("DeleteAuthSession: %v", err)
	}
	sess, err = s.GetAuthSession(token)
	if err != nil {
		t.Fatalf("GetAuthSession after delete: %v", err)
	}
	if sess != nil {
		t.Error("expected nil session after delete")
	}

	// Unknown token is nil, not an error.
	sess, err = s.GetAuthSession("deadbeef")
	if err != nil || sess != nil {
		t.Errorf("unknown token: sess=%v err=%v", sess, err)
	}
}

func TestAuthSessionSlidingRenewal(t *testing.T) {
	s := newTestStore(t)
	userID := insertTestUser(t, s)

	token, err := s.CreateAuthSession(userID)
	if err != nil {
		t.Fatalf("CreateAuthSession: %v", err)
	}

	// With plenty of lifetime left the expiry is untouched.
	sess, err := s.GetAuthSession(token)
	if err != nil {
		t.Fatalf("GetAuthSession: %v", err)
	}
	fresh := sess.ExpiresAt
	sess, err = s.GetAuthSession(token)
	if err != nil {
		t.Fatalf("GetAuthSession: %v", err)
	}
	if !sess.ExpiresAt.Equal(fresh) {
		t.Errorf("fresh session renewed: %v -> %v", fresh, sess.ExpiresAt)
	}

	// Inside the renewal window the lifetime is extended.
	setSessionExpiry(t, s, token, time.Now().Add(time.Hour))
	sess, err = s.GetAuthSession(token)
	if err != nil {
		t.Fatalf("GetAuthSession near expiry: %v", err)
	}
	if sess == nil {
		t.Fatal("expected session near expiry")
	}
	if remaining := time.Until(sess.ExpiresAt); remaining < 23*time.Hour {
		t.Errorf("expected renewed expiry, %v remaining", remaining)
	}

	// Past expiry the session is gone, renewal window or not.
	setSessionExpiry(t, s, token, time.Now().Add(-time.Minute))
	sess, err = s.GetAuthSession(token)
	if err != nil {
		t.Fatalf("GetAuthSession expired: %v", err)
	}
	if sess != nil {
		t.Error("expected nil for expired session")
	}
}

func TestAuthSessionPruning(t *testing.T) {
	s := newTestStore(t)
	userID := insertTestUser(t, s)

	stale, err := s.CreateAuthSession(userID)
	if err != nil {
		t.Fatalf("CreateAuthSession: %v", err)
	}
	setSessionExpiry(t, s, stale, time.Now().Add(-time.Hour))

	// A fresh login sweeps the user's expired tokens.
	live, err := s.CreateAuthSession(userID)
	if err != nil {
		t.Fatalf("CreateAuthSession: %v", err)
	}
	var count int
	if err := s.db.QueryRow(
		`SELECT COUNT(*) FROM auth_sessions WHERE user_id = ?`, userID,
	).Scan(&count); err != nil {
		t.Fatalf("count sessions: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 session after pruning, got %d", count)
	}

	// The periodic sweep catches the rest.
	setSessionExpiry(t, s, live, time.Now().Add(-time.Minute))
	n, err := s.CleanupExpiredSessions()
	if err != nil {
		t.Fatalf("CleanupExpiredSessions: %v", err)
	}
	if n != 1 {
		t.Errorf("CleanupExpiredSessions removed %d, want 1", n)
	}
}

func TestGetUserByUsername(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.CreateUser(model.User{
		Username: "admin", DisplayName: "Admin", PasswordHash: "h", Role: model.UserRoleAdmin, Active: true,
	}); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	u, err := s.GetUserByUsername("admin")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if u == nil || u.Role != model.UserRoleAdmin {
		t.Fatalf("expected admin user, got %+v", u)
	}

	u, err = s.GetUserByUsername("nadie")
	if err != nil {
		t.Fatalf("GetUserByUsername missing: %v", err)
	}
	if u != nil {
		t.Error("expected nil for unknown username")
	}

	count, err := s.UserCount()
	if err != nil {
		t.Fatalf("UserCount: %v", err)
	}
	if count != 1 {
		t.Errorf("UserCount = %d, want 1", count)
	}
}
