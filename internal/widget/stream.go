package widget

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"radiocalico/internal/config"
	"radiocalico/internal/logging"
)

const (
	defaultFallbackDelay = 2 * time.Second
	playlistTag          = "#EXTM3U"
)

// ErrAllStreamsFailed reports that every configured variant failed its probe.
var ErrAllStreamsFailed = errors.New("all stream variants failed")

// Selector picks the first playable HLS variant.
type Selector struct {
	variants []config.StreamVariant
	delay    time.Duration
	client   HTTPDoer
	logger   *slog.Logger
	wait     func(ctx context.Context, d time.Duration) error
}

// NewSelector tries variants in order, waiting delay between failed probes.
func NewSelector(variants []config.StreamVariant, delay time.Duration, client HTTPDoer, logger *slog.Logger) *Selector {
	if delay <= 0 {
		delay = defaultFallbackDelay
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Selector{
		variants: variants,
		delay:    delay,
		client:   client,
		logger:   logging.NewComponentLogger(logger, "stream"),
		wait:     sleepContext,
	}
}

// Select returns the first variant whose probe succeeds. After the last
// variant fails the error wraps ErrAllStreamsFailed and is terminal.
func (s *Selector) Select(ctx context.Context) (config.StreamVariant, error) {
	if len(s.variants) == 0 {
		return config.StreamVariant{}, fmt.Errorf("%w: no variants configured", ErrAllStreamsFailed)
	}
	var lastErr error
	for i, variant := range s.variants {
		if i > 0 {
			if err := s.wait(ctx, s.delay); err != nil {
				return config.StreamVariant{}, err
			}
		}
		err := s.Probe(ctx, variant)
		if err == nil {
			s.logger.Info("stream selected",
				logging.String("variant", variant.Name),
				logging.String("url", variant.URL),
				logging.Int("attempt", i+1),
			)
			return variant, nil
		}
		if ctx.Err() != nil {
			return config.StreamVariant{}, ctx.Err()
		}
		lastErr = err
		s.logger.Warn("stream variant failed, trying fallback",
			logging.String("variant", variant.Name),
			logging.Error(err),
		)
	}
	return config.StreamVariant{}, fmt.Errorf("%w: %v", ErrAllStreamsFailed, lastErr)
}

// Probe checks that variant answers 2xx with an HLS playlist body.
func (s *Selector) Probe(ctx context.Context, variant config.StreamVariant) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, variant.URL, nil)
	if err != nil {
		return fmt.Errorf("build probe request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("probe %s: %w", variant.Name, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("probe %s: status %d", variant.Name, resp.StatusCode)
	}
	head, err := io.ReadAll(io.LimitReader(resp.Body, 512))
	if err != nil {
		return fmt.Errorf("probe %s: read body: %w", variant.Name, err)
	}
	head = bytes.TrimPrefix(head, []byte("\xef\xbb\xbf"))
	if !bytes.HasPrefix(bytes.TrimLeft(head, " \t\r\n"), []byte(playlistTag)) {
		return fmt.Errorf("probe %s: response is not an HLS playlist", variant.Name)
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
