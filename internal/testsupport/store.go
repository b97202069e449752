package testsupport

import (
	"context"
	"fmt"
	"testing"

	"radiocalico/internal/config"
	"radiocalico/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// SeedVotes records ups thumbs-up and downs thumbs-down votes on songID from
// distinct synthetic listeners and returns the final aggregate.
func SeedVotes(t testing.TB, st *store.Store, songID, artist, title string, ups, downs int) store.Summary {
	t.Helper()

	var summary store.Summary
	submit := func(i int, rating string) {
		var err error
		summary, err = st.SubmitRating(context.Background(), store.SubmitRatingParams{
			User:   store.TouchUserParams{UserID: fmt.Sprintf("seed_%s_%s_%d", songID, rating, i)},
			SongID: songID,
			Artist: artist,
			Title:  title,
			Rating: rating,
		})
		if err != nil {
			t.Fatalf("store.SubmitRating: %v", err)
		}
	}
	for i := 0; i < ups; i++ {
		submit(i, store.RatingUp)
	}
	for i := 0; i < downs; i++ {
		submit(i, store.RatingDown)
	}
	return summary
}
