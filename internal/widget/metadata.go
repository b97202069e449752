package widget

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"radiocalico/internal/logging"
)

const (
	defaultPollInterval = 5 * time.Second
	maxMetadataBytes    = 1 << 20
)

// HTTPDoer describes the HTTP client used for metadata and stream probes.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// TrackSink receives track changes from the Poller.
type TrackSink interface {
	SetTrack(ctx context.Context, track Track) error
}

// Metadata is the now-playing document served at the metadata URL.
type Metadata struct {
	Artist      string `json:"artist"`
	Title       string `json:"title"`
	Album       string `json:"album"`
	Date        string `json:"date"`
	BitDepth    int    `json:"bit_depth"`
	SampleRate  int    `json:"sample_rate"`
	PrevArtist1 string `json:"prev_artist_1"`
	PrevTitle1  string `json:"prev_title_1"`
	PrevArtist2 string `json:"prev_artist_2"`
	PrevTitle2  string `json:"prev_title_2"`
	PrevArtist3 string `json:"prev_artist_3"`
	PrevTitle3  string `json:"prev_title_3"`
	PrevArtist4 string `json:"prev_artist_4"`
	PrevTitle4  string `json:"prev_title_4"`
	PrevArtist5 string `json:"prev_artist_5"`
	PrevTitle5  string `json:"prev_title_5"`
}

// Track returns the song currently on air.
func (m Metadata) Track() Track {
	return Track{Artist: m.Artist, Title: m.Title, Album: m.Album}
}

// PreviousTracks returns up to five recently played tracks, newest first,
// skipping entries missing an artist or title.
func (m Metadata) PreviousTracks() []Track {
	pairs := [][2]string{
		{m.PrevArtist1, m.PrevTitle1},
		{m.PrevArtist2, m.PrevTitle2},
		{m.PrevArtist3, m.PrevTitle3},
		{m.PrevArtist4, m.PrevTitle4},
		{m.PrevArtist5, m.PrevTitle5},
	}
	tracks := make([]Track, 0, len(pairs))
	for _, pair := range pairs {
		if pair[0] == "" || pair[1] == "" {
			continue
		}
		tracks = append(tracks, Track{Artist: pair[0], Title: pair[1]})
	}
	return tracks
}

// SourceQuality describes the upstream encoding, e.g. "24-bit 96kHz".
func (m Metadata) SourceQuality() string {
	if m.BitDepth <= 0 || m.SampleRate <= 0 {
		return ""
	}
	return fmt.Sprintf("%d-bit %gkHz", m.BitDepth, float64(m.SampleRate)/1000)
}

// Poller fetches now-playing metadata on a fixed interval and forwards
// track changes to a TrackSink.
type Poller struct {
	url      string
	interval time.Duration
	client   HTTPDoer
	sink     TrackSink
	logger   *slog.Logger
	onUpdate func(Metadata, bool)

	current Track
	loaded  bool
}

// PollerOption customizes a Poller.
type PollerOption func(*Poller)

// WithPollInterval overrides the fixed delay between fetches.
func WithPollInterval(interval time.Duration) PollerOption {
	return func(p *Poller) {
		if interval > 0 {
			p.interval = interval
		}
	}
}

// WithPollerHTTPClient overrides the HTTP client used for fetches.
func WithPollerHTTPClient(client HTTPDoer) PollerOption {
	return func(p *Poller) {
		if client != nil {
			p.client = client
		}
	}
}

// WithPollerLogger sets the logger for fetch failures and track changes.
func WithPollerLogger(logger *slog.Logger) PollerOption {
	return func(p *Poller) {
		p.logger = logging.NewComponentLogger(logger, "metadata")
	}
}

// WithMetadataHandler registers fn to run after every successful fetch.
// changed reports whether the fetch switched tracks.
func WithMetadataHandler(fn func(meta Metadata, changed bool)) PollerOption {
	return func(p *Poller) {
		p.onUpdate = fn
	}
}

// NewPoller constructs a poller for url feeding sink.
func NewPoller(url string, sink TrackSink, opts ...PollerOption) *Poller {
	p := &Poller{
		url:      url,
		interval: defaultPollInterval,
		client:   &http.Client{Timeout: 10 * time.Second},
		sink:     sink,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run fetches immediately and then every interval until ctx is done. Fetch
// errors are logged and retried at the next tick.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		if _, err := p.Poll(ctx); err != nil && ctx.Err() == nil {
			p.logger.Warn("metadata fetch failed",
				logging.Error(err),
				logging.String("url", p.url),
				logging.String(logging.FieldImpact, "track and ratings may be stale"),
			)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Poll performs one fetch, calling SetTrack on the first load or when the
// artist or title changed. It reports whether the track changed.
func (p *Poller) Poll(ctx context.Context) (bool, error) {
	meta, err := p.Fetch(ctx)
	if err != nil {
		return false, err
	}
	track := meta.Track()
	changed := !p.loaded || !p.current.same(track)
	if changed {
		p.loaded = true
		p.current = track
		p.logger.Info("track changed",
			logging.String("artist", track.Artist),
			logging.String("title", track.Title),
		)
		if p.sink != nil {
			if err := p.sink.SetTrack(ctx, track); err != nil {
				p.logger.Warn("rating refresh failed", logging.Error(err))
			}
		}
	}
	if p.onUpdate != nil {
		p.onUpdate(meta, changed)
	}
	return changed, nil
}

// Fetch retrieves and decodes the metadata document once.
func (p *Poller) Fetch(ctx context.Context) (Metadata, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return Metadata{}, fmt.Errorf("build metadata request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := p.client.Do(req)
	if err != nil {
		return Metadata{}, fmt.Errorf("fetch metadata: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return Metadata{}, fmt.Errorf("metadata returned %d", resp.StatusCode)
	}
	var meta Metadata
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxMetadataBytes)).Decode(&meta); err != nil {
		if errors.Is(err, io.EOF) {
			return Metadata{}, errors.New("metadata response was empty")
		}
		return Metadata{}, fmt.Errorf("decode metadata: %w", err)
	}
	return meta, nil
}
