package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestClockNeverRepeats(t *testing.T) {
	frozen := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	c := newClock(func() time.Time { return frozen })

	first := c.next()
	second := c.next()
	if second <= first {
		t.Fatalf("expected strictly increasing timestamps, got %q then %q", first, second)
	}
	if len(first) != len(second) || len(first) != len(TimestampLayout) {
		t.Fatalf("expected fixed-width timestamps, got %q and %q", first, second)
	}
	parsed, err := ParseTimestamp(second)
	if err != nil {
		t.Fatalf("ParseTimestamp: %v", err)
	}
	if got := parsed.Sub(frozen); got != time.Nanosecond {
		t.Fatalf("expected 1ns step, got %s", got)
	}
}

func TestClockToleratesBackwardsWallTime(t *testing.T) {
	times := []time.Time{
		time.Date(2024, 5, 1, 12, 0, 1, 0, time.UTC),
		time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	i := 0
	c := newClock(func() time.Time {
		ts := times[i]
		if i < len(times)-1 {
			i++
		}
		return ts
	})
	first := c.next()
	second := c.next()
	if second <= first {
		t.Fatalf("expected clock to stay monotonic, got %q then %q", first, second)
	}
}

func TestClockRaiseFloor(t *testing.T) {
	frozen := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	c := newClock(func() time.Time { return frozen })
	floor := frozen.Add(time.Hour)
	c.raiseFloor(floor)
	c.raiseFloor(frozen)

	parsed, err := ParseTimestamp(c.next())
	if err != nil {
		t.Fatalf("ParseTimestamp: %v", err)
	}
	if !parsed.After(floor) {
		t.Fatalf("expected timestamp after %s, got %s", floor, parsed)
	}
}

func TestReopenSeedsClockFromStoredTimestamps(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "radiocalico.db")
	const future = "2099-01-01T00:00:00.000000000Z"

	st, err := OpenPath(ctx, path)
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	if _, err := st.Query(ctx,
		"INSERT INTO users (user_id, created_at, updated_at) VALUES (?, ?, ?)", "u1", future, future); err != nil {
		t.Fatalf("insert user: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	st, err = OpenPath(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	st.clock.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

	user, err := st.TouchUser(ctx, TouchUserParams{UserID: "u1"})
	if err != nil {
		t.Fatalf("TouchUser: %v", err)
	}
	if user.UpdatedAt <= future {
		t.Fatalf("updated_at went backwards after restart: %q <= %q", user.UpdatedAt, future)
	}
}

func TestReturnsRows(t *testing.T) {
	cases := map[string]bool{
		"SELECT 1":                                 true,
		"  select * from users":                    true,
		"WITH x AS (SELECT 1) SELECT * FROM x":     true,
		"PRAGMA foreign_keys":                      true,
		"INSERT INTO users VALUES (1) RETURNING *": true,
		"insert into users values (1)":             false,
		"DELETE FROM users":                        false,
		"":                                         false,
	}
	for query, want := range cases {
		if got := returnsRows(query); got != want {
			t.Errorf("returnsRows(%q) = %v, want %v", query, got, want)
		}
	}
}

func TestIsSQLiteBusy(t *testing.T) {
	if isSQLiteBusy(nil) {
		t.Fatal("nil is not busy")
	}
	if !isSQLiteBusy(busyErr{}) {
		t.Fatal("expected code 5 to be busy")
	}
	if !isSQLiteBusy(stringErr("database is locked")) {
		t.Fatal("expected message match to be busy")
	}
	if isSQLiteBusy(stringErr("no such table: users")) {
		t.Fatal("unexpected busy classification")
	}
}

type busyErr struct{}

func (busyErr) Error() string { return "busy" }
func (busyErr) Code() int     { return 5 }

type stringErr string

func (e stringErr) Error() string { return string(e) }
