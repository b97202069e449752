package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordDBQueryClassifiesErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"canceled", fmt.Errorf("submit rating: %w", context.Canceled), "canceled"},
		{"deadline", context.DeadlineExceeded, "deadline"},
		{"busy", errors.New("database is locked (5) (SQLITE_BUSY)"), "busy"},
		{"constraint", errors.New("UNIQUE constraint failed: users.user_id"), "constraint"},
		{"other", errors.New("disk I/O error"), "other"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			counter := DBQueryErrors.WithLabelValues("test_"+tt.name, tt.want)
			before := testutil.ToFloat64(counter)
			RecordDBQuery("test_"+tt.name, time.Millisecond, tt.err)
			if got := testutil.ToFloat64(counter); got != before+1 {
				t.Fatalf("error counter = %v, want %v", got, before+1)
			}
		})
	}
}

func TestRecordDBQuerySuccessDoesNotCountError(t *testing.T) {
	RecordDBQuery("test_success", time.Millisecond, nil)
	if got := testutil.ToFloat64(DBQueryErrors.WithLabelValues("test_success", "other")); got != 0 {
		t.Fatalf("unexpected error count %v", got)
	}
}

func TestRecordVote(t *testing.T) {
	up := VotesSubmitted.WithLabelValues("up")
	before := testutil.ToFloat64(up)
	RecordVote("UP")
	if got := testutil.ToFloat64(up); got != before+1 {
		t.Fatalf("votes{up} = %v, want %v", got, before+1)
	}
}

func TestMiddlewareLabelsByRoutePattern(t *testing.T) {
	router := chi.NewRouter()
	router.Use(Middleware)
	router.Get("/api/songs/{artist}/{title}/ratings", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	counter := APIRequestsTotal.WithLabelValues(http.MethodGet, "/api/songs/{artist}/{title}/ratings", "418")
	before := testutil.ToFloat64(counter)

	req := httptest.NewRequest(http.MethodGet, "/api/songs/Nina/Feeling%20Good/ratings", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := testutil.ToFloat64(counter); got != before+1 {
		t.Fatalf("requests counter = %v, want %v", got, before+1)
	}
	if got := testutil.ToFloat64(APIActiveRequests); got != 0 {
		t.Fatalf("active requests = %v, want 0", got)
	}
}

func TestMetricGathering(t *testing.T) {
	RecordAPIRequest(http.MethodGet, "/api/health", "200", time.Millisecond)
	problems, err := testutil.GatherAndLint(prometheus.DefaultGatherer)
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, p := range problems {
		t.Errorf("lint problem for %s: %s", p.Metric, p.Text)
	}
}
