package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Credentials is the persisted login of a profile.
type Credentials struct {
	BaseURL     string
	Token       string
	UserID      string
	DisplayName string
	ExpiresAt   string
	SavedAt     time.Time
}

// SaveCredentials stores c as the profile's only login, replacing any
// previous one.
func (db *DB) SaveCredentials(c Credentials) error {
	if c.Token == "" {
		return errors.New("save credentials: empty token")
	}
	saved := c.SavedAt
	if saved.IsZero() {
		saved = time.Now()
	}
	_, err := db.Exec(`
		INSERT INTO credentials (id, base_url, token, user_id, display_name, expires_at, saved_at)
		VALUES (1, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			base_url = excluded.base_url,
			token = excluded.token,
			user_id = excluded.user_id,
			display_name = excluded.display_name,
			expires_at = excluded.expires_at,
			saved_at = excluded.saved_at`,
		c.BaseURL, c.Token, c.UserID, c.DisplayName, c.ExpiresAt, saved.UnixMilli())
	if err != nil {
		return fmt.Errorf("save credentials: %w", err)
	}
	return nil
}

// LoadCredentials returns the stored login, or nil when logged out.
func (db *DB) LoadCredentials() (*Credentials, error) {
	var c Credentials
	var saved int64
	err := db.QueryRow(`
		SELECT base_url, token, user_id, display_name, expires_at, saved_at
		FROM credentials WHERE id = 1`).
		Scan(&c.BaseURL, &c.Token, &c.UserID, &c.DisplayName, &c.ExpiresAt, &saved)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load credentials: %w", err)
	}
	c.SavedAt = time.UnixMilli(saved)
	return &c, nil
}

// ClearCredentials forgets the stored login.
func (db *DB) ClearCredentials() error {
	if _, err := db.Exec(`DELETE FROM credentials`); err != nil {
		return fmt.Errorf("clear credentials: %w", err)
	}
	return nil
}
