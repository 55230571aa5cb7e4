package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CreateSession issues a new admin session token valid for ttl.
func (d *Database) CreateSession(email string, ttl time.Duration) (*Session, error) {
	s := &Session{
		Token:     uuid.NewString(),
		Email:     email,
		ExpiresAt: d.now().Add(ttl).UTC(),
	}
	_, err := d.db.Exec(`INSERT INTO sessions (token, email, expires_at) VALUES (?, ?, ?)`, s.Token, s.Email, toMillis(s.ExpiresAt))
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return s, nil
}

// GetSession returns the session for token if it exists and has not expired.
func (d *Database) GetSession(token string) (*Session, error) {
	var s Session
	var expires int64
	err := d.db.QueryRow(`SELECT token, email, expires_at FROM sessions WHERE token = ?`, token).Scan(&s.Token, &s.Email, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	s.ExpiresAt = fromMillis(expires)
	if !s.ExpiresAt.After(d.now()) {
		return nil, fmt.Errorf("session expired: %w", ErrNotFound)
	}
	return &s, nil
}

// ExtendSession moves the expiry of a live session to ttl from now. Expired
// sessions are not revived.
func (d *Database) ExtendSession(token string, ttl time.Duration) (*Session, error) {
	now := d.now()
	expires := now.Add(ttl).UTC()
	result, err := d.db.Exec(
		`UPDATE sessions SET expires_at = ? WHERE token = ? AND expires_at > ?`,
		toMillis(expires), token, toMillis(now),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to extend session: %w", err)
	}
	if err := checkAffected(result, "session", "token"); err != nil {
		return nil, err
	}
	return d.GetSession(token)
}

func (d *Database) DeleteSession(token string) error {
	if _, err := d.db.Exec(`DELETE FROM sessions WHERE token = ?`, token); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (d *Database) DeleteExpiredSessions() (int64, error) {
	result, err := d.db.Exec(`DELETE FROM sessions WHERE expires_at <= ?`, toMillis(d.now()))
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}
