package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

type rowExecer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

const touchUserSQL = `
INSERT INTO users (user_id, ip_address, user_agent, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(user_id) DO UPDATE SET
    ip_address = excluded.ip_address,
    user_agent = excluded.user_agent,
    updated_at = excluded.updated_at
RETURNING user_id, ip_address, user_agent, created_at, updated_at`

// TouchUser inserts the listener if absent, otherwise refreshes its address,
// user agent, and updated_at. The stored row is returned.
func (s *Store) TouchUser(ctx context.Context, params TouchUserParams) (user User, err error) {
	defer observe("touch_user", time.Now(), &err)
	if strings.TrimSpace(params.UserID) == "" {
		return User{}, errors.New("touch user: user id is required")
	}
	ctx = ensureContext(ctx)
	err = retryOnBusy(ctx, func() error {
		var opErr error
		user, opErr = touchUser(ctx, s.db, params, s.clock.next())
		return opErr
	})
	return user, err
}

func touchUser(ctx context.Context, q rowExecer, params TouchUserParams, now string) (User, error) {
	var (
		user      User
		ipAddress sql.NullString
		userAgent sql.NullString
	)
	row := q.QueryRowContext(ctx, touchUserSQL,
		params.UserID,
		nullableString(params.IPAddress),
		nullableString(params.UserAgent),
		now,
		now,
	)
	if err := row.Scan(&user.UserID, &ipAddress, &userAgent, &user.CreatedAt, &user.UpdatedAt); err != nil {
		return User{}, fmt.Errorf("upsert user: %w", err)
	}
	user.IPAddress = stringPtr(ipAddress)
	user.UserAgent = stringPtr(userAgent)
	return user, nil
}

// GetUser returns the listener row, or false when it does not exist.
func (s *Store) GetUser(ctx context.Context, userID string) (User, bool, error) {
	var (
		user      User
		ipAddress sql.NullString
		userAgent sql.NullString
	)
	row := s.db.QueryRowContext(ensureContext(ctx),
		"SELECT user_id, ip_address, user_agent, created_at, updated_at FROM users WHERE user_id = ?", userID)
	if err := row.Scan(&user.UserID, &ipAddress, &userAgent, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, false, nil
		}
		return User{}, false, fmt.Errorf("get user: %w", err)
	}
	user.IPAddress = stringPtr(ipAddress)
	user.UserAgent = stringPtr(userAgent)
	return user, true, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func stringPtr(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	v := value.String
	return &v
}

func nullablePtr(value *string) any {
	if value == nil {
		return nil
	}
	return *value
}
