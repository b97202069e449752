package api

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"radiocalico/internal/logging"
	"radiocalico/internal/metrics"
	"radiocalico/internal/store"
)

// RatingStore abstracts the persistence operations the rating service needs.
type RatingStore interface {
	Ping(ctx context.Context) error
	Version(ctx context.Context) (string, error)
	Migrate(ctx context.Context) error
	TouchUser(ctx context.Context, params store.TouchUserParams) (store.User, error)
	SubmitRating(ctx context.Context, params store.SubmitRatingParams) (store.Summary, error)
	SongSummary(ctx context.Context, songID string) (store.Summary, bool, error)
	UserVote(ctx context.Context, userID, songID string) (*string, error)
	TopRated(ctx context.Context, limit int) ([]store.RankedSong, error)
	AdminSongs(ctx context.Context) ([]store.AdminSong, error)
	RecentUsers(ctx context.Context, limit int) ([]store.UserActivity, error)
	RecentVotes(ctx context.Context, limit int) ([]store.RecentVote, error)
	Stats(ctx context.Context) (store.Stats, error)
}

// RatingService exposes the rating operations returning API DTOs.
type RatingService struct {
	store  RatingStore
	logger *slog.Logger
	now    func() time.Time
}

// NewRatingService constructs a RatingService around the provided store.
func NewRatingService(st RatingStore, logger *slog.Logger) *RatingService {
	if st == nil {
		return nil
	}
	return &RatingService{
		store:  st,
		logger: logging.NewComponentLogger(logger, "ratings"),
		now:    time.Now,
	}
}

var errNoStore = errors.New("rating store unavailable")

// RegisterUser inserts or refreshes a listener.
func (s *RatingService) RegisterUser(ctx context.Context, req RegisterUserRequest, caller Caller) (store.User, error) {
	if s == nil || s.store == nil {
		return store.User{}, errNoStore
	}
	req.normalize()
	if err := validateRequest(&req, msgUserRequired, nil); err != nil {
		return store.User{}, err
	}
	user, err := s.store.TouchUser(ctx, store.TouchUserParams{
		UserID:    req.UserID,
		IPAddress: caller.IPAddress,
		UserAgent: caller.UserAgent,
	})
	if err != nil {
		s.log(ctx).Error("user registration failed", logging.Error(err), logging.String(logging.FieldUserID, req.UserID))
		return store.User{}, err
	}
	return user, nil
}

// SubmitRating validates and records a vote, returning the song's aggregate.
func (s *RatingService) SubmitRating(ctx context.Context, req SubmitRatingRequest, caller Caller) (store.Summary, error) {
	if s == nil || s.store == nil {
		return store.Summary{}, errNoStore
	}
	req.normalize()
	if err := validateRequest(&req, msgRatingRequired, map[string]string{
		"Rating.oneof": msgRatingInvalid,
	}); err != nil {
		return store.Summary{}, err
	}
	ctx = logging.WithUserID(ctx, req.UserID)

	songID := Fingerprint(req.Artist, req.Title)
	summary, err := s.store.SubmitRating(ctx, store.SubmitRatingParams{
		User: store.TouchUserParams{
			UserID:    req.UserID,
			IPAddress: caller.IPAddress,
			UserAgent: caller.UserAgent,
		},
		SongID: songID,
		Artist: req.Artist,
		Title:  req.Title,
		Album:  req.Album,
		Rating: req.Rating,
	})
	if err != nil {
		logging.ErrorWithContext(s.log(ctx), "rating submission failed", "rating_submit_failed",
			logging.Error(err),
			logging.String(logging.FieldSongID, songID),
			logging.String(logging.FieldErrorHint, "check database_path permissions and disk space"),
		)
		return store.Summary{}, err
	}
	metrics.RecordVote(req.Rating)
	s.log(ctx).Debug("rating recorded",
		logging.String(logging.FieldSongID, songID),
		logging.String("rating", req.Rating),
		logging.Int64("total_votes", summary.TotalVotes),
	)
	return summary, nil
}

// SongRating returns the aggregate for artist/title and userID's vote. A
// never-rated song yields zero counts with the requested artist and title.
func (s *RatingService) SongRating(ctx context.Context, artist, title, userID string) (SongRating, error) {
	if s == nil || s.store == nil {
		return SongRating{}, errNoStore
	}
	songID := Fingerprint(artist, title)
	summary, found, err := s.store.SongSummary(ctx, songID)
	if err != nil {
		s.log(ctx).Error("rating lookup failed", logging.Error(err), logging.String(logging.FieldSongID, songID))
		return SongRating{}, err
	}
	if !found {
		summary = store.Summary{SongID: songID, Artist: artist, Title: title}
	}

	result := SongRating{Summary: summary}
	if userID = strings.TrimSpace(userID); userID != "" {
		vote, err := s.store.UserVote(ctx, userID, songID)
		if err != nil {
			s.log(ctx).Error("user vote lookup failed", logging.Error(err), logging.String(logging.FieldSongID, songID))
			return SongRating{}, err
		}
		result.UserVote = vote
	}
	return result, nil
}

// TopRated returns the best-rated songs with enough votes to rank.
func (s *RatingService) TopRated(ctx context.Context, limit int) ([]store.RankedSong, error) {
	if s == nil || s.store == nil {
		return nil, errNoStore
	}
	songs, err := s.store.TopRated(ctx, ClampTopLimit(limit))
	if err != nil {
		s.log(ctx).Error("top ratings query failed", logging.Error(err))
		return nil, err
	}
	return songs, nil
}

// AdminReport assembles the full admin view of songs, listeners, votes, and totals.
func (s *RatingService) AdminReport(ctx context.Context) (AdminReport, error) {
	if s == nil || s.store == nil {
		return AdminReport{}, errNoStore
	}
	var (
		report AdminReport
		err    error
	)
	if report.Songs, err = s.store.AdminSongs(ctx); err != nil {
		return AdminReport{}, s.adminFailure(ctx, err)
	}
	if report.Users, err = s.store.RecentUsers(ctx, store.RecentLimit); err != nil {
		return AdminReport{}, s.adminFailure(ctx, err)
	}
	if report.RecentVotes, err = s.store.RecentVotes(ctx, store.RecentLimit); err != nil {
		return AdminReport{}, s.adminFailure(ctx, err)
	}
	if report.Stats, err = s.store.Stats(ctx); err != nil {
		return AdminReport{}, s.adminFailure(ctx, err)
	}
	return report, nil
}

func (s *RatingService) adminFailure(ctx context.Context, err error) error {
	s.log(ctx).Error("admin report failed", logging.Error(err))
	return err
}

// Health pings the store. The timestamp is RFC3339 UTC with milliseconds.
func (s *RatingService) Health(ctx context.Context) (HealthResponse, error) {
	if s == nil || s.store == nil {
		return HealthResponse{Status: "error", Message: errNoStore.Error()}, errNoStore
	}
	if err := s.store.Ping(ctx); err != nil {
		s.log(ctx).Error("health check failed", logging.Error(err))
		return HealthResponse{Status: "error", Message: err.Error()}, err
	}
	return HealthResponse{
		Status:    "healthy",
		Database:  "connected",
		Timestamp: s.now().UTC().Format("2006-01-02T15:04:05.000Z"),
	}, nil
}

// DatabaseInfo reports the database engine and version.
func (s *RatingService) DatabaseInfo(ctx context.Context) (DatabaseInfo, error) {
	if s == nil || s.store == nil {
		return DatabaseInfo{}, errNoStore
	}
	version, err := s.store.Version(ctx)
	if err != nil {
		s.log(ctx).Error("database version query failed", logging.Error(err))
		return DatabaseInfo{}, err
	}
	return DatabaseInfo{DatabaseType: "SQLite", Version: version}, nil
}

// InitDatabase applies any pending schema migrations.
func (s *RatingService) InitDatabase(ctx context.Context) error {
	if s == nil || s.store == nil {
		return errNoStore
	}
	if err := s.store.Migrate(ctx); err != nil {
		s.log(ctx).Error("database init failed", logging.Error(err))
		return err
	}
	s.log(ctx).Info("database initialized")
	return nil
}

func (s *RatingService) log(ctx context.Context) *slog.Logger {
	return logging.WithContext(ctx, s.logger)
}

// ParseTopLimit interprets the limit query parameter. Anything that is not a
// positive integer falls back to DefaultTopLimit; larger values are capped.
func ParseTopLimit(raw string) int {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || value <= 0 {
		return DefaultTopLimit
	}
	return ClampTopLimit(value)
}

// ClampTopLimit bounds limit to [1, MaxTopLimit], using DefaultTopLimit for non-positive input.
func ClampTopLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultTopLimit
	case limit > MaxTopLimit:
		return MaxTopLimit
	default:
		return limit
	}
}
