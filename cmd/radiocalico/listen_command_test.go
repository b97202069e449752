package main

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func waitForOutput(t *testing.T, out *syncBuffer, substr string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if strings.Contains(out.String(), substr) {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("output never contained %q:\n%s", substr, out.String())
}

func TestListenRatesCurrentTrack(t *testing.T) {
	metadata := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"artist":"Live Artist","title":"On Air","album":"Broadcast","bit_depth":24,"sample_rate":48000,"prev_artist_1":"Old","prev_title_1":"Song"}`))
	}))
	defer metadata.Close()
	env := setupCLITestEnv(t, envOptions{metadataURL: metadata.URL})

	stdinReader, stdinWriter := io.Pipe()
	out := &syncBuffer{}
	cmd := newRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(stdinReader)
	cmd.SetArgs([]string{"--config", env.configPath, "listen", "--skip-stream"})

	done := make(chan error, 1)
	go func() { done <- cmd.Execute() }()

	waitForOutput(t, out, "Now playing: Live Artist - On Air")
	requireContains(t, out.String(), "Source quality: 24-bit 48kHz")
	requireContains(t, out.String(), "Previously: Old - Song")
	requireContains(t, out.String(), "Rate this song")

	if _, err := io.WriteString(stdinWriter, "up\n"); err != nil {
		t.Fatalf("write stdin: %v", err)
	}
	waitForOutput(t, out, "You liked this song")

	if _, err := io.WriteString(stdinWriter, "q\n"); err != nil {
		t.Fatalf("write stdin: %v", err)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("listen: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("listen did not exit after quit")
	}
	_ = stdinWriter.Close()

	rating, ok, err := env.store.SongSummary(t.Context(), songIDFor("Live Artist", "On Air"))
	if err != nil || !ok || rating.ThumbsUp != 1 {
		t.Fatalf("expected stored vote, got %+v ok=%v err=%v", rating, ok, err)
	}
}
