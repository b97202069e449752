package client_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"radiocalico/internal/api"
	"radiocalico/internal/client"
	"radiocalico/internal/logging"
	"radiocalico/internal/server"
	"radiocalico/internal/testsupport"
)

func newAPI(t *testing.T, opts ...testsupport.ConfigOption) *httptest.Server {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	st := testsupport.MustOpenStore(t, cfg)
	srv, err := server.New(cfg, st, logging.NewNop())
	if err != nil {
		t.Fatalf("server.New: %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func TestClientRatingRoundTrip(t *testing.T) {
	ts := newAPI(t)
	c := client.New(ts.URL + "/")
	ctx := context.Background()

	health, err := c.Health(ctx)
	if err != nil || health.Status != "healthy" {
		t.Fatalf("Health: %+v, %v", health, err)
	}
	info, err := c.DatabaseInfo(ctx)
	if err != nil || info.DatabaseType != "SQLite" {
		t.Fatalf("DatabaseInfo: %+v, %v", info, err)
	}

	user, err := c.RegisterUser(ctx, "user_1")
	if err != nil || user.UserID != "user_1" {
		t.Fatalf("RegisterUser: %+v, %v", user, err)
	}

	summary, err := c.SubmitRating(ctx, api.SubmitRatingRequest{UserID: "user_1", Artist: "AC/DC", Title: "T.N.T.", Rating: "up"})
	if err != nil {
		t.Fatalf("SubmitRating: %v", err)
	}
	if summary.ThumbsUp != 1 || summary.TotalVotes != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	rating, err := c.SongRating(ctx, "AC/DC", "T.N.T.", "user_1")
	if err != nil {
		t.Fatalf("SongRating: %v", err)
	}
	if rating.UserVote == nil || *rating.UserVote != "up" || rating.TotalVotes != 1 {
		t.Fatalf("unexpected rating: %+v", rating)
	}

	anon, err := c.SongRating(ctx, "AC/DC", "T.N.T.", "")
	if err != nil || anon.UserVote != nil {
		t.Fatalf("expected no vote without user id: %+v, %v", anon, err)
	}

	top, err := c.TopRated(ctx, 5)
	if err != nil {
		t.Fatalf("TopRated: %v", err)
	}
	if len(top) != 0 {
		t.Fatalf("single-vote song should not rank, got %d", len(top))
	}
}

func TestClientSurfacesValidationErrors(t *testing.T) {
	ts := newAPI(t)
	c := client.New(ts.URL)

	_, err := c.SubmitRating(context.Background(), api.SubmitRatingRequest{UserID: "u", Artist: "A", Title: "T", Rating: "meh"})
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest || apiErr.Message != `rating must be either "up" or "down"` {
		t.Fatalf("unexpected api error: %+v", apiErr)
	}
	if errors.Is(err, client.ErrUnauthorized) {
		t.Fatal("validation error must not match ErrUnauthorized")
	}
}

func TestClientAdmin(t *testing.T) {
	ts := newAPI(t, testsupport.WithAdminToken("tok"))
	ctx := context.Background()

	if _, err := client.New(ts.URL).AdminData(ctx); !errors.Is(err, client.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized without token, got %v", err)
	}
	if _, err := client.New(ts.URL, client.WithAdminToken("wrong")).AdminData(ctx); !errors.Is(err, client.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized with wrong token, got %v", err)
	}

	c := client.New(ts.URL, client.WithAdminToken("tok"))
	msg, err := c.InitDatabase(ctx)
	if err != nil || msg != "Database initialized successfully" {
		t.Fatalf("InitDatabase: %q, %v", msg, err)
	}
	report, err := c.AdminData(ctx)
	if err != nil {
		t.Fatalf("AdminData: %v", err)
	}
	if report.Stats.TotalVotes != 0 || report.Songs == nil {
		t.Fatalf("unexpected empty report: %+v", report)
	}
}

func TestClientAdminDisabled(t *testing.T) {
	ts := newAPI(t)
	_, err := client.New(ts.URL, client.WithAdminToken("tok")).AdminData(context.Background())
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 APIError, got %v", err)
	}
	if !errors.Is(err, client.ErrUnauthorized) {
		t.Fatal("403 should match ErrUnauthorized")
	}
}

func TestClientHealthFailureMessage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"status":"error","message":"database is locked"}`))
	}))
	defer ts.Close()

	_, err := client.New(ts.URL).Health(context.Background())
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "database is locked" {
		t.Fatalf("expected health message surfaced, got %v", err)
	}
}

func TestClientNonJSONError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer ts.Close()

	_, err := client.New(ts.URL).TopRated(context.Background(), 0)
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusBadGateway || apiErr.Message != "bad gateway" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestClientRequiresBaseURL(t *testing.T) {
	if _, err := client.New("").Health(context.Background()); err == nil {
		t.Fatal("expected error without base url")
	}
}

func TestNewFromConfig(t *testing.T) {
	ts := newAPI(t)
	cfg := testsupport.NewConfig(t, testsupport.WithAPIURL(ts.URL))
	c := client.NewFromConfig(cfg)
	if c.BaseURL() != ts.URL {
		t.Fatalf("expected base url %q, got %q", ts.URL, c.BaseURL())
	}
	if _, err := c.Health(context.Background()); err != nil {
		t.Fatalf("Health: %v", err)
	}
}
