package store

// Rating values accepted by song_ratings.
const (
	RatingUp   = "up"
	RatingDown = "down"
)

// User is a pseudo-anonymous listener.
type User struct {
	UserID    string  `json:"user_id"`
	IPAddress *string `json:"ip_address"`
	UserAgent *string `json:"user_agent"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
}

// Summary is the aggregate vote count for one song.
type Summary struct {
	SongID     string  `json:"song_id"`
	Artist     string  `json:"artist"`
	Title      string  `json:"title"`
	Album      *string `json:"album"`
	ThumbsUp   int64   `json:"thumbs_up"`
	ThumbsDown int64   `json:"thumbs_down"`
	TotalVotes int64   `json:"total_votes"`
}

// RankedSong is a Summary with its approval rate in [0, 1].
type RankedSong struct {
	Summary
	ApprovalRate float64 `json:"approval_rate"`
}

// AdminSong is a Summary with its approval percentage rounded to one decimal.
type AdminSong struct {
	Summary
	ApprovalPercentage float64 `json:"approval_percentage"`
}

// UserActivity is a listener row with the number of votes they hold.
type UserActivity struct {
	User
	VotesCast int64 `json:"votes_cast"`
}

// RecentVote is a single vote joined with its song.
type RecentVote struct {
	Rating    string `json:"rating"`
	UserID    string `json:"user_id"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
	Artist    string `json:"artist"`
	Title     string `json:"title"`
}

// Stats are whole-database totals.
type Stats struct {
	TotalSongs      int64 `json:"total_songs"`
	TotalVotes      int64 `json:"total_votes"`
	TotalUsers      int64 `json:"total_users"`
	TotalThumbsUp   int64 `json:"total_thumbs_up"`
	TotalThumbsDown int64 `json:"total_thumbs_down"`
}

// TouchUserParams describes a listener registration or refresh.
type TouchUserParams struct {
	UserID    string
	IPAddress string
	UserAgent string
}

// SubmitRatingParams describes one vote. SongID must already be the song's fingerprint.
type SubmitRatingParams struct {
	User   TouchUserParams
	SongID string
	Artist string
	Title  string
	Album  *string
	Rating string
}
