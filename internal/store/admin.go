package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// RecentLimit bounds the users and votes lists of the admin report.
const RecentLimit = 20

const adminSongsSQL = `
SELECT song_id, artist, title, album, thumbs_up, thumbs_down, total_votes,
       CASE
           WHEN total_votes > 0 THEN ROUND(CAST(thumbs_up AS REAL) / total_votes * 100, 1)
           ELSE 0
       END AS approval_percentage
FROM song_rating_summary
ORDER BY total_votes DESC, thumbs_up DESC, song_id ASC`

const recentUsersSQL = `
SELECT u.user_id, u.ip_address, u.user_agent, u.created_at, u.updated_at,
       (SELECT COUNT(*) FROM song_ratings sr WHERE sr.user_id = u.user_id) AS votes_cast
FROM users u
ORDER BY u.updated_at DESC, u.user_id ASC
LIMIT ?`

const recentVotesSQL = `
SELECT sr.rating, sr.user_id, sr.created_at, sr.updated_at, s.artist, s.title
FROM song_ratings sr
JOIN songs s ON sr.song_id = s.song_id
ORDER BY sr.updated_at DESC, sr.id DESC
LIMIT ?`

const statsSQL = `
SELECT
    (SELECT COUNT(*) FROM songs)                                 AS total_songs,
    (SELECT COUNT(*) FROM song_ratings)                          AS total_votes,
    (SELECT COUNT(*) FROM users)                                 AS total_users,
    (SELECT COUNT(*) FROM song_ratings WHERE rating = 'up')      AS total_thumbs_up,
    (SELECT COUNT(*) FROM song_ratings WHERE rating = 'down')    AS total_thumbs_down`

// AdminSongs returns every song aggregate with its approval percentage.
func (s *Store) AdminSongs(ctx context.Context) (songs []AdminSong, err error) {
	defer observe("admin_songs", time.Now(), &err)
	rows, err := s.db.QueryContext(ensureContext(ctx), adminSongsSQL)
	if err != nil {
		return nil, fmt.Errorf("query admin songs: %w", err)
	}
	defer rows.Close()

	songs = []AdminSong{}
	for rows.Next() {
		var (
			song  AdminSong
			album sql.NullString
		)
		if err := rows.Scan(&song.SongID, &song.Artist, &song.Title, &album,
			&song.ThumbsUp, &song.ThumbsDown, &song.TotalVotes, &song.ApprovalPercentage); err != nil {
			return nil, fmt.Errorf("scan admin song: %w", err)
		}
		song.Album = stringPtr(album)
		songs = append(songs, song)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate admin songs: %w", err)
	}
	return songs, nil
}

// RecentUsers returns the most recently active listeners with vote counts.
func (s *Store) RecentUsers(ctx context.Context, limit int) (users []UserActivity, err error) {
	defer observe("recent_users", time.Now(), &err)
	rows, err := s.db.QueryContext(ensureContext(ctx), recentUsersSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent users: %w", err)
	}
	defer rows.Close()

	users = []UserActivity{}
	for rows.Next() {
		var (
			user      UserActivity
			ipAddress sql.NullString
			userAgent sql.NullString
		)
		if err := rows.Scan(&user.UserID, &ipAddress, &userAgent, &user.CreatedAt, &user.UpdatedAt, &user.VotesCast); err != nil {
			return nil, fmt.Errorf("scan recent user: %w", err)
		}
		user.IPAddress = stringPtr(ipAddress)
		user.UserAgent = stringPtr(userAgent)
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recent users: %w", err)
	}
	return users, nil
}

// RecentVotes returns the most recently cast or changed votes.
func (s *Store) RecentVotes(ctx context.Context, limit int) (votes []RecentVote, err error) {
	defer observe("recent_votes", time.Now(), &err)
	rows, err := s.db.QueryContext(ensureContext(ctx), recentVotesSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent votes: %w", err)
	}
	defer rows.Close()

	votes = []RecentVote{}
	for rows.Next() {
		var vote RecentVote
		if err := rows.Scan(&vote.Rating, &vote.UserID, &vote.CreatedAt, &vote.UpdatedAt, &vote.Artist, &vote.Title); err != nil {
			return nil, fmt.Errorf("scan recent vote: %w", err)
		}
		votes = append(votes, vote)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recent votes: %w", err)
	}
	return votes, nil
}

// Stats returns whole-database totals.
func (s *Store) Stats(ctx context.Context) (stats Stats, err error) {
	defer observe("stats", time.Now(), &err)
	row := s.db.QueryRowContext(ensureContext(ctx), statsSQL)
	if err := row.Scan(&stats.TotalSongs, &stats.TotalVotes, &stats.TotalUsers,
		&stats.TotalThumbsUp, &stats.TotalThumbsDown); err != nil {
		return Stats{}, fmt.Errorf("query stats: %w", err)
	}
	return stats, nil
}
