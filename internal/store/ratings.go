package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// MinVotesForRanking is the vote count a song needs to appear in TopRated.
const MinVotesForRanking = 3

const upsertSongSQL = `
INSERT INTO songs (song_id, artist, title, album, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(song_id) DO UPDATE SET
    artist = excluded.artist,
    title = excluded.title,
    album = excluded.album,
    updated_at = excluded.updated_at`

const upsertRatingSQL = `
INSERT INTO song_ratings (user_id, song_id, rating, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(user_id, song_id) DO UPDATE SET
    rating = excluded.rating,
    updated_at = excluded.updated_at`

const summarySQL = `
SELECT song_id, artist, title, album, thumbs_up, thumbs_down, total_votes
FROM song_rating_summary
WHERE song_id = ?`

const topRatedSQL = `
SELECT song_id, artist, title, album, thumbs_up, thumbs_down, total_votes,
       CAST(thumbs_up AS REAL) / NULLIF(total_votes, 0) AS approval_rate
FROM song_rating_summary
WHERE total_votes >= ?
ORDER BY approval_rate DESC, total_votes DESC, song_id ASC
LIMIT ?`

// SubmitRating records one vote and returns the song's refreshed aggregate.
// The listener touch, song upsert, rating upsert, and aggregate read share a
// single transaction.
func (s *Store) SubmitRating(ctx context.Context, params SubmitRatingParams) (summary Summary, err error) {
	defer observe("submit_rating", time.Now(), &err)
	if params.Rating != RatingUp && params.Rating != RatingDown {
		return Summary{}, fmt.Errorf("submit rating: invalid rating %q", params.Rating)
	}
	if strings.TrimSpace(params.User.UserID) == "" || strings.TrimSpace(params.SongID) == "" {
		return Summary{}, errors.New("submit rating: user id and song id are required")
	}
	ctx = ensureContext(ctx)
	err = retryOnBusy(ctx, func() error {
		var opErr error
		summary, opErr = s.submitRatingTx(ctx, params)
		return opErr
	})
	return summary, err
}

func (s *Store) submitRatingTx(ctx context.Context, params SubmitRatingParams) (Summary, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Summary{}, fmt.Errorf("begin rating tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := s.clock.next()
	if _, err := touchUser(ctx, tx, params.User, now); err != nil {
		return Summary{}, err
	}
	if _, err := tx.ExecContext(ctx, upsertSongSQL,
		params.SongID, params.Artist, params.Title, nullablePtr(params.Album), now, now,
	); err != nil {
		return Summary{}, fmt.Errorf("upsert song: %w", err)
	}
	if _, err := tx.ExecContext(ctx, upsertRatingSQL,
		params.User.UserID, params.SongID, params.Rating, now, now,
	); err != nil {
		return Summary{}, fmt.Errorf("upsert rating: %w", err)
	}
	summary, found, err := songSummary(ctx, tx, params.SongID)
	if err != nil {
		return Summary{}, err
	}
	if !found {
		return Summary{}, fmt.Errorf("read summary: song %s missing after upsert", params.SongID)
	}
	if err := tx.Commit(); err != nil {
		return Summary{}, fmt.Errorf("commit rating tx: %w", err)
	}
	return summary, nil
}

// SongSummary returns the aggregate for songID, or false when the song has
// never been rated.
func (s *Store) SongSummary(ctx context.Context, songID string) (summary Summary, found bool, err error) {
	defer observe("song_summary", time.Now(), &err)
	return songSummary(ensureContext(ctx), s.db, songID)
}

func songSummary(ctx context.Context, q rowExecer, songID string) (Summary, bool, error) {
	var (
		summary Summary
		album   sql.NullString
	)
	row := q.QueryRowContext(ctx, summarySQL, songID)
	if err := row.Scan(&summary.SongID, &summary.Artist, &summary.Title, &album,
		&summary.ThumbsUp, &summary.ThumbsDown, &summary.TotalVotes); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Summary{}, false, nil
		}
		return Summary{}, false, fmt.Errorf("read summary: %w", err)
	}
	summary.Album = stringPtr(album)
	return summary, true, nil
}

// UserVote returns the listener's current vote on songID, or nil.
func (s *Store) UserVote(ctx context.Context, userID, songID string) (vote *string, err error) {
	defer observe("user_vote", time.Now(), &err)
	var rating string
	row := s.db.QueryRowContext(ensureContext(ctx),
		"SELECT rating FROM song_ratings WHERE user_id = ? AND song_id = ?", userID, songID)
	if err := row.Scan(&rating); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("read user vote: %w", err)
	}
	return &rating, nil
}

// TopRated returns up to limit songs with at least MinVotesForRanking votes,
// best approval rate first.
func (s *Store) TopRated(ctx context.Context, limit int) (songs []RankedSong, err error) {
	defer observe("top_rated", time.Now(), &err)
	if limit <= 0 {
		return []RankedSong{}, nil
	}
	rows, err := s.db.QueryContext(ensureContext(ctx), topRatedSQL, MinVotesForRanking, limit)
	if err != nil {
		return nil, fmt.Errorf("query top rated: %w", err)
	}
	defer rows.Close()

	songs = []RankedSong{}
	for rows.Next() {
		var (
			song  RankedSong
			album sql.NullString
			rate  sql.NullFloat64
		)
		if err := rows.Scan(&song.SongID, &song.Artist, &song.Title, &album,
			&song.ThumbsUp, &song.ThumbsDown, &song.TotalVotes, &rate); err != nil {
			return nil, fmt.Errorf("scan top rated: %w", err)
		}
		song.Album = stringPtr(album)
		song.ApprovalRate = rate.Float64
		songs = append(songs, song)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate top rated: %w", err)
	}
	return songs, nil
}
