package api

import (
	"context"
	"errors"
	"testing"
	"time"

	"radiocalico/internal/logging"
	"radiocalico/internal/store"
	"radiocalico/internal/testsupport"
)

type mockRatingStore struct {
	RatingStore
	pingErr      error
	submitted    []store.SubmitRatingParams
	submitErr    error
	topLimit     int
	summaryFound bool
}

func (m *mockRatingStore) Ping(context.Context) error { return m.pingErr }

func (m *mockRatingStore) SubmitRating(_ context.Context, p store.SubmitRatingParams) (store.Summary, error) {
	if m.submitErr != nil {
		return store.Summary{}, m.submitErr
	}
	m.submitted = append(m.submitted, p)
	return store.Summary{SongID: p.SongID, Artist: p.Artist, Title: p.Title, ThumbsUp: 1, TotalVotes: 1}, nil
}

func (m *mockRatingStore) TopRated(_ context.Context, limit int) ([]store.RankedSong, error) {
	m.topLimit = limit
	return []store.RankedSong{}, nil
}

func newTestService(t *testing.T) *RatingService {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	return NewRatingService(testsupport.MustOpenStore(t, cfg), logging.NewNop())
}

func TestSubmitRatingValidation(t *testing.T) {
	mock := &mockRatingStore{}
	svc := NewRatingService(mock, nil)
	ctx := context.Background()

	tests := []struct {
		name string
		req  SubmitRatingRequest
		want string
	}{
		{"missing user", SubmitRatingRequest{Artist: "A", Title: "T", Rating: "up"}, msgRatingRequired},
		{"blank artist", SubmitRatingRequest{UserID: "u", Artist: "   ", Title: "T", Rating: "up"}, msgRatingRequired},
		{"missing title", SubmitRatingRequest{UserID: "u", Artist: "A", Rating: "up"}, msgRatingRequired},
		{"missing rating", SubmitRatingRequest{UserID: "u", Artist: "A", Title: "T"}, msgRatingRequired},
		{"invalid rating", SubmitRatingRequest{UserID: "u", Artist: "A", Title: "T", Rating: "sideways"}, msgRatingInvalid},
		{"required wins over invalid", SubmitRatingRequest{Artist: "A", Title: "T", Rating: "sideways"}, msgRatingRequired},
		{"uppercase is invalid", SubmitRatingRequest{UserID: "u", Artist: "A", Title: "T", Rating: "UP"}, msgRatingInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SubmitRating(ctx, tt.req, Caller{})
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if err.Error() != tt.want {
				t.Fatalf("message = %q, want %q", err.Error(), tt.want)
			}
		})
	}
	if len(mock.submitted) != 0 {
		t.Fatalf("store should not be called for invalid requests, got %d calls", len(mock.submitted))
	}
}

func TestSubmitRatingPassesFingerprintAndCaller(t *testing.T) {
	mock := &mockRatingStore{}
	svc := NewRatingService(mock, nil)
	album := "  "

	_, err := svc.SubmitRating(context.Background(), SubmitRatingRequest{
		UserID: " user_1 ", Artist: "Artist", Title: "Title", Album: &album, Rating: "down",
	}, Caller{IPAddress: "10.1.1.1", UserAgent: "agent"})
	if err != nil {
		t.Fatalf("SubmitRating: %v", err)
	}
	if len(mock.submitted) != 1 {
		t.Fatalf("expected one store call, got %d", len(mock.submitted))
	}
	got := mock.submitted[0]
	if got.SongID != Fingerprint("Artist", "Title") {
		t.Fatalf("unexpected song id %q", got.SongID)
	}
	if got.User.UserID != "user_1" || got.User.IPAddress != "10.1.1.1" || got.User.UserAgent != "agent" {
		t.Fatalf("unexpected user params: %+v", got.User)
	}
	if got.Album != nil {
		t.Fatalf("expected blank album to become nil, got %q", *got.Album)
	}
}

func TestSubmitRatingSurfacesStoreError(t *testing.T) {
	storeErr := errors.New("disk I/O error")
	svc := NewRatingService(&mockRatingStore{submitErr: storeErr}, nil)
	_, err := svc.SubmitRating(context.Background(), SubmitRatingRequest{UserID: "u", Artist: "A", Title: "T", Rating: "up"}, Caller{})
	if !errors.Is(err, storeErr) {
		t.Fatalf("expected store error, got %v", err)
	}
	if errors.Is(err, ErrValidation) {
		t.Fatal("store errors must not be reported as validation errors")
	}
}

func TestRegisterUserRequiresID(t *testing.T) {
	svc := NewRatingService(&mockRatingStore{}, nil)
	_, err := svc.RegisterUser(context.Background(), RegisterUserRequest{UserID: "  "}, Caller{})
	if !errors.Is(err, ErrValidation) || err.Error() != msgUserRequired {
		t.Fatalf("expected %q validation error, got %v", msgUserRequired, err)
	}
}

func TestParseTopLimit(t *testing.T) {
	cases := map[string]int{
		"":      DefaultTopLimit,
		"5":     5,
		"0":     DefaultTopLimit,
		"-3":    DefaultTopLimit,
		"abc":   DefaultTopLimit,
		"2.5":   DefaultTopLimit,
		"100":   100,
		"10000": MaxTopLimit,
	}
	for raw, want := range cases {
		if got := ParseTopLimit(raw); got != want {
			t.Errorf("ParseTopLimit(%q) = %d, want %d", raw, got, want)
		}
	}
}

func TestTopRatedClampsLimit(t *testing.T) {
	mock := &mockRatingStore{}
	svc := NewRatingService(mock, nil)
	if _, err := svc.TopRated(context.Background(), 500); err != nil {
		t.Fatalf("TopRated: %v", err)
	}
	if mock.topLimit != MaxTopLimit {
		t.Fatalf("expected clamp to %d, got %d", MaxTopLimit, mock.topLimit)
	}
}

func TestHealth(t *testing.T) {
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 6_000_000, time.UTC)
	svc := NewRatingService(&mockRatingStore{}, nil)
	svc.now = func() time.Time { return fixed }

	health, err := svc.Health(context.Background())
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if health.Status != "healthy" || health.Database != "connected" || health.Timestamp != "2024-01-02T03:04:05.006Z" {
		t.Fatalf("unexpected health: %+v", health)
	}

	failing := NewRatingService(&mockRatingStore{pingErr: errors.New("database is closed")}, nil)
	health, err = failing.Health(context.Background())
	if err == nil || health.Status != "error" || health.Message != "database is closed" {
		t.Fatalf("unexpected failing health: %+v, %v", health, err)
	}
}

func TestNilServiceReturnsError(t *testing.T) {
	var svc *RatingService
	if _, err := svc.TopRated(context.Background(), 10); err == nil {
		t.Fatal("expected error from nil service")
	}
	if NewRatingService(nil, nil) != nil {
		t.Fatal("expected nil service for nil store")
	}
}

func TestSongRatingRoundTrip(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.SubmitRating(ctx, SubmitRatingRequest{UserID: "u1", Artist: "A", Title: "T", Rating: "up"}, Caller{}); err != nil {
		t.Fatalf("SubmitRating: %v", err)
	}
	got, err := svc.SongRating(ctx, "A", "T", "u1")
	if err != nil {
		t.Fatalf("SongRating: %v", err)
	}
	if got.ThumbsUp != 1 || got.ThumbsDown != 0 || got.TotalVotes != 1 {
		t.Fatalf("unexpected aggregate: %+v", got.Summary)
	}
	if got.UserVote == nil || *got.UserVote != "up" {
		t.Fatalf("expected user vote up, got %v", got.UserVote)
	}

	anonymous, err := svc.SongRating(ctx, "a", "t", "")
	if err != nil {
		t.Fatalf("SongRating: %v", err)
	}
	if anonymous.TotalVotes != 1 || anonymous.UserVote != nil {
		t.Fatalf("expected folded lookup without vote, got %+v", anonymous)
	}
}

func TestSongRatingNeverRated(t *testing.T) {
	svc := newTestService(t)
	got, err := svc.SongRating(context.Background(), "Nobody", "Nothing", "u1")
	if err != nil {
		t.Fatalf("SongRating: %v", err)
	}
	if got.SongID != Fingerprint("Nobody", "Nothing") {
		t.Fatalf("expected computed song id, got %q", got.SongID)
	}
	if got.Artist != "Nobody" || got.Title != "Nothing" || got.Album != nil {
		t.Fatalf("expected request echo, got %+v", got.Summary)
	}
	if got.ThumbsUp != 0 || got.ThumbsDown != 0 || got.TotalVotes != 0 || got.UserVote != nil {
		t.Fatalf("expected zero aggregate, got %+v", got)
	}
}

func TestTwoListenersHalfApproval(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	for i, rating := range []string{"up", "down", "up", "down"} {
		req := SubmitRatingRequest{UserID: string(rune('a' + i)), Artist: "A", Title: "T", Rating: rating}
		if _, err := svc.SubmitRating(ctx, req, Caller{}); err != nil {
			t.Fatalf("SubmitRating: %v", err)
		}
	}
	top, err := svc.TopRated(ctx, 10)
	if err != nil {
		t.Fatalf("TopRated: %v", err)
	}
	if len(top) != 1 || top[0].ApprovalRate != 0.5 {
		t.Fatalf("expected one song at 0.5, got %+v", top)
	}
}

func TestAdminReport(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	if _, err := svc.RegisterUser(ctx, RegisterUserRequest{UserID: "listener"}, Caller{IPAddress: "1.2.3.4"}); err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}
	if _, err := svc.SubmitRating(ctx, SubmitRatingRequest{UserID: "listener", Artist: "A", Title: "T", Rating: "up"}, Caller{}); err != nil {
		t.Fatalf("SubmitRating: %v", err)
	}

	report, err := svc.AdminReport(ctx)
	if err != nil {
		t.Fatalf("AdminReport: %v", err)
	}
	if len(report.Songs) != 1 || report.Songs[0].ApprovalPercentage != 100 {
		t.Fatalf("unexpected songs: %+v", report.Songs)
	}
	if len(report.Users) != 1 || report.Users[0].VotesCast != 1 {
		t.Fatalf("unexpected users: %+v", report.Users)
	}
	if len(report.RecentVotes) != 1 || report.RecentVotes[0].Artist != "A" {
		t.Fatalf("unexpected votes: %+v", report.RecentVotes)
	}
	if report.Stats.TotalUsers != 1 || report.Stats.TotalThumbsUp != 1 {
		t.Fatalf("unexpected stats: %+v", report.Stats)
	}

	info, err := svc.DatabaseInfo(ctx)
	if err != nil || info.DatabaseType != "SQLite" || info.Version == "" {
		t.Fatalf("unexpected database info: %+v, %v", info, err)
	}
	if err := svc.InitDatabase(ctx); err != nil {
		t.Fatalf("InitDatabase: %v", err)
	}
}
