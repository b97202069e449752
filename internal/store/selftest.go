package store

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

// SelfTest writes a throwaway listener, song, and vote through the data
// access layer, checks the aggregate, and removes the rows again.
func (s *Store) SelfTest(ctx context.Context) (err error) {
	defer observe("self_test", time.Now(), &err)
	ctx = ensureContext(ctx)

	suffix := strconv.FormatInt(time.Now().UnixNano(), 36)
	userID := "selftest_user_" + suffix
	songID := "selftest_song_" + suffix
	now := s.clock.next()

	defer func() {
		cleanup := []struct {
			sql string
			arg string
		}{
			{"DELETE FROM song_ratings WHERE user_id = ?", userID},
			{"DELETE FROM songs WHERE song_id = ?", songID},
			{"DELETE FROM users WHERE user_id = ?", userID},
		}
		for _, stmt := range cleanup {
			if _, cleanErr := s.Query(ctx, stmt.sql, stmt.arg); cleanErr != nil && err == nil {
				err = fmt.Errorf("self test cleanup: %w", cleanErr)
			}
		}
	}()

	if _, err := s.Query(ctx,
		"INSERT INTO users (user_id, ip_address, user_agent, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
		userID, "127.0.0.1", "radiocalico-selftest", now, now); err != nil {
		return fmt.Errorf("self test insert user: %w", err)
	}
	if _, err := s.Query(ctx,
		"INSERT INTO songs (song_id, artist, title, album, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		songID, "Test Artist", "Test Song", "Test Album", now, now); err != nil {
		return fmt.Errorf("self test insert song: %w", err)
	}
	inserted, err := s.Query(ctx,
		"INSERT INTO song_ratings (user_id, song_id, rating, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
		userID, songID, RatingUp, now, now)
	if err != nil {
		return fmt.Errorf("self test insert rating: %w", err)
	}
	if inserted.Changes != 1 || inserted.LastInsertID == 0 {
		return fmt.Errorf("self test insert rating: changes=%d last_insert_id=%d", inserted.Changes, inserted.LastInsertID)
	}

	result, err := s.Query(ctx,
		"SELECT thumbs_up, thumbs_down, total_votes FROM song_rating_summary WHERE song_id = ?", songID)
	if err != nil {
		return fmt.Errorf("self test read summary: %w", err)
	}
	if len(result.Rows) != 1 {
		return fmt.Errorf("self test read summary: expected 1 row, got %d", len(result.Rows))
	}
	row := result.Rows[0]
	if toInt64(row["thumbs_up"]) != 1 || toInt64(row["thumbs_down"]) != 0 || toInt64(row["total_votes"]) != 1 {
		return fmt.Errorf("self test read summary: unexpected aggregate %v", row)
	}
	return nil
}

func toInt64(value any) int64 {
	switch v := value.(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	default:
		return -1
	}
}
