package store

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"time"

	"github.com/aulaflow/aulaflow/internal/model"
)

const (
	authSessionTTL = 24 * time.Hour
	// Sessions read with less than this much lifetime left are renewed, so
	// a teacher working through a long preparation session is not logged
	// out mid-edit.
	authSessionRenewBelow = authSessionTTL / 2
)

// CreateAuthSession issues a new session token for a user. Expired sessions
// belonging to the same user are pruned on the way, so stale rows never
// outlive the next login.
func (s *Store) CreateAuthSession(userID int64) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", err
	}
	now := time.Now()
	if _, err := s.db.Exec(
		`DELETE FROM auth_sessions WHERE user_id = ? AND expires_at < ?`, userID, now,
	); err != nil {
		return "", err
	}
	_, err = s.db.Exec(
		`INSERT INTO auth_sessions (id, user_id, created_at, expires_at) VALUES (?, ?, ?, ?)`,
		token, userID, now, now.Add(authSessionTTL),
	)
	if err != nil {
		return "", err
	}
	return token, nil
}

// GetAuthSession returns the session for the given token, or nil if not
// found or expired. Sessions close to expiry get their lifetime extended
// (sliding renewal).
func (s *Store) GetAuthSession(token string) (*model.AuthSession, error) {
	var sess model.AuthSession
	err := s.db.QueryRow(
		`SELECT id, user_id, created_at, expires_at FROM auth_sessions WHERE id = ?`, token,
	).Scan(&sess.ID, &sess.UserID, &sess.CreatedAt, &sess.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	now := time.Now()
	if now.After(sess.ExpiresAt) {
		_ = s.DeleteAuthSession(token)
		return nil, nil
	}
	if sess.ExpiresAt.Sub(now) < authSessionRenewBelow {
		renewed := now.Add(authSessionTTL)
		if _, err := s.db.Exec(
			`UPDATE auth_sessions SET expires_at = ? WHERE id = ?`, renewed, token,
		); err != nil {
			return nil, err
		}
		sess.ExpiresAt = renewed
	}
	return &sess, nil
}

// DeleteAuthSession removes a session token.
func (s *Store) DeleteAuthSession(token string) error {
	_, err := s.db.Exec(`DELETE FROM auth_sessions WHERE id = ?`, token)
	return err
}

// CleanupExpiredSessions removes every expired session regardless of user.
// The server runs this periodically.
func (s *Store) CleanupExpiredSessions() (int64, error) {
	res, err := s.db.Exec(`DELETE FROM auth_sessions WHERE expires_at < ?`, time.Now())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
