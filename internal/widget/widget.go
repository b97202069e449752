package widget

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"radiocalico/internal/api"
	"radiocalico/internal/logging"
	"radiocalico/internal/store"
)

var (
	// ErrVoteInFlight reports a vote attempted while another is pending.
	ErrVoteInFlight = errors.New("vote already in flight")
	// ErrNoTrack reports a vote with no current track.
	ErrNoTrack = errors.New("no current track to rate")
)

// RatingAPI is the subset of the API client the widget uses.
type RatingAPI interface {
	SongRating(ctx context.Context, artist, title, userID string) (api.SongRating, error)
	SubmitRating(ctx context.Context, req api.SubmitRatingRequest) (store.Summary, error)
}

// Track identifies the song currently on air.
type Track struct {
	Artist string
	Title  string
	Album  string
}

func (t Track) valid() bool {
	return t.Artist != "" && t.Title != ""
}

func (t Track) same(other Track) bool {
	return t.Artist == other.Artist && t.Title == other.Title
}

// State is a snapshot of the widget.
type State struct {
	Track      Track
	ThumbsUp   int64
	ThumbsDown int64
	TotalVotes int64
	// UserVote is "up", "down" or empty when the listener has not voted.
	UserVote string
	// Voting is true while a vote is pending; the controls are disabled.
	Voting    bool
	LastError string
}

// StatusText is the line shown beneath the rating controls.
func (s State) StatusText() string {
	switch {
	case !s.Track.valid():
		return "Rate this song"
	case s.UserVote == store.RatingUp:
		return "You liked this song"
	case s.UserVote == store.RatingDown:
		return "You disliked this song"
	case s.TotalVotes == 1:
		return "1 vote total"
	case s.TotalVotes > 1:
		return fmt.Sprintf("%d votes total", s.TotalVotes)
	default:
		return "Rate this song"
	}
}

// Widget holds rating state for one listener.
type Widget struct {
	api    RatingAPI
	userID string
	logger *slog.Logger

	mu    sync.Mutex
	state State
	// generation counts SetTrack calls; a lookup only applies if no newer
	// SetTrack started while it was in flight.
	generation uint64
}

// New constructs a widget voting as userID.
func New(ratings RatingAPI, userID string, logger *slog.Logger) *Widget {
	return &Widget{
		api:    ratings,
		userID: userID,
		logger: logging.NewComponentLogger(logger, "widget"),
	}
}

// UserID returns the identity votes are cast as.
func (w *Widget) UserID() string {
	return w.userID
}

// State returns a snapshot of the current state.
func (w *Widget) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// SetTrack switches to track and loads its aggregate and the listener's vote.
// A lookup failure leaves zero counts and records the error.
func (w *Widget) SetTrack(ctx context.Context, track Track) error {
	track = Track{
		Artist: strings.TrimSpace(track.Artist),
		Title:  strings.TrimSpace(track.Title),
		Album:  strings.TrimSpace(track.Album),
	}

	w.mu.Lock()
	// A pending vote keeps the controls disabled across the track change.
	w.state = State{Track: track, Voting: w.state.Voting}
	w.generation++
	generation := w.generation
	w.mu.Unlock()

	if !track.valid() {
		return nil
	}

	rating, err := w.api.SongRating(ctx, track.Artist, track.Title, w.userID)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.generation != generation {
		return nil
	}
	if err != nil {
		w.state.LastError = err.Error()
		w.logger.Warn("rating lookup failed",
			logging.Error(err),
			logging.String("artist", track.Artist),
			logging.String("title", track.Title),
		)
		return fmt.Errorf("load rating: %w", err)
	}
	w.state.ThumbsUp = rating.ThumbsUp
	w.state.ThumbsDown = rating.ThumbsDown
	w.state.TotalVotes = rating.TotalVotes
	w.state.UserVote = ""
	if rating.UserVote != nil {
		w.state.UserVote = *rating.UserVote
	}
	return nil
}

// Vote submits rating for the current track. It fails fast with
// ErrVoteInFlight while another vote is pending. Failures are recorded in
// LastError and never retried.
func (w *Widget) Vote(ctx context.Context, rating string) (State, error) {
	if rating != store.RatingUp && rating != store.RatingDown {
		return w.State(), fmt.Errorf("rating must be %q or %q", store.RatingUp, store.RatingDown)
	}

	w.mu.Lock()
	if w.state.Voting {
		state := w.state
		w.mu.Unlock()
		return state, ErrVoteInFlight
	}
	track := w.state.Track
	if !track.valid() {
		state := w.state
		w.mu.Unlock()
		return state, ErrNoTrack
	}
	w.state.Voting = true
	w.state.LastError = ""
	w.mu.Unlock()

	req := api.SubmitRatingRequest{
		UserID: w.userID,
		Artist: track.Artist,
		Title:  track.Title,
		Rating: rating,
	}
	if track.Album != "" {
		album := track.Album
		req.Album = &album
	}
	summary, err := w.api.SubmitRating(ctx, req)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.state.Voting = false
	if err != nil {
		w.state.LastError = "Failed to save rating: " + err.Error()
		w.logger.Warn("vote failed",
			logging.Error(err),
			logging.String("rating", rating),
			logging.String("artist", track.Artist),
			logging.String("title", track.Title),
		)
		return w.state, fmt.Errorf("submit rating: %w", err)
	}
	if w.state.Track.same(track) {
		w.state.ThumbsUp = summary.ThumbsUp
		w.state.ThumbsDown = summary.ThumbsDown
		w.state.TotalVotes = summary.TotalVotes
		w.state.UserVote = rating
	}
	w.logger.Info("vote recorded",
		logging.String("rating", rating),
		logging.String("artist", track.Artist),
		logging.String("title", track.Title),
	)
	return w.state, nil
}
