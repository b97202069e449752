package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"radiocalico/internal/logging"
	"radiocalico/internal/widget"
)

func newListenCommand(ctx *commandContext) *cobra.Command {
	var skipStream bool

	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Follow the live stream and rate tracks from the terminal",
		Long: "Follow the now-playing feed and rate the current track.\n\n" +
			"Commands read from stdin: up (u), down (d), status (s), quit (q).",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runListen(cmd, ctx, skipStream)
		},
	}
	cmd.Flags().BoolVar(&skipStream, "skip-stream", false, "Do not probe the HLS stream variants")
	return cmd
}

type listenPrinter struct {
	mu  sync.Mutex
	out io.Writer
}

func (p *listenPrinter) printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, format, args...)
}

func (p *listenPrinter) state(state widget.State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	printWidgetState(p.out, state)
}

func runListen(cmd *cobra.Command, ctx *commandContext, skipStream bool) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := ctx.cliLogger(cmd)
	if err != nil {
		return err
	}
	runCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	userID, err := widget.LoadOrCreateIdentity(cfg.Client.IdentityPath)
	if err != nil {
		return err
	}
	apiClient, err := ctx.apiClient()
	if err != nil {
		return err
	}
	if _, err := apiClient.RegisterUser(runCtx, userID); err != nil {
		logger.Warn("listener registration failed", logging.Error(err), logging.String(logging.FieldUserID, userID))
	}

	printer := &listenPrinter{out: cmd.OutOrStdout()}
	printer.printf("Listening as %s\n", userID)

	if !skipStream {
		selector := widget.NewSelector(cfg.Stream.Variants, cfg.FallbackDelay(), nil, logger)
		variant, err := selector.Select(runCtx)
		switch {
		case err == nil:
			printer.printf("Stream: %s (%s)\n", variant.Name, variant.URL)
		case errors.Is(err, widget.ErrAllStreamsFailed):
			printer.printf("Stream unavailable: %v\n", err)
		case runCtx.Err() != nil:
			return nil
		default:
			return err
		}
	}

	w := widget.New(apiClient, userID, logger)
	poller := widget.NewPoller(cfg.Stream.MetadataURL, w,
		widget.WithPollInterval(cfg.MetadataPollInterval()),
		widget.WithPollerLogger(logger),
		widget.WithMetadataHandler(func(meta widget.Metadata, changed bool) {
			if !changed {
				return
			}
			printer.printf("\nNow playing: %s - %s\n", meta.Artist, meta.Title)
			if meta.Album != "" && meta.Album != meta.Title {
				printer.printf("  %s\n", meta.Album)
			}
			if quality := meta.SourceQuality(); quality != "" {
				printer.printf("  Source quality: %s\n", quality)
			}
			if prev := meta.PreviousTracks(); len(prev) > 0 {
				printer.printf("  Previously: %s - %s\n", prev[0].Artist, prev[0].Title)
			}
			printer.state(w.State())
		}),
	)

	pollDone := make(chan error, 1)
	go func() { pollDone <- poller.Run(runCtx) }()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(cmd.InOrStdin())
		for scanner.Scan() {
			select {
			case lines <- strings.TrimSpace(strings.ToLower(scanner.Text())):
			case <-runCtx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-runCtx.Done():
			return <-pollDone
		case line, ok := <-lines:
			if !ok {
				cancel()
				return <-pollDone
			}
			if quit := handleListenInput(runCtx, w, printer, line); quit {
				cancel()
				return <-pollDone
			}
		}
	}
}

func handleListenInput(ctx context.Context, w *widget.Widget, printer *listenPrinter, line string) bool {
	switch line {
	case "":
		return false
	case "q", "quit", "exit":
		return true
	case "s", "status":
		printer.state(w.State())
	case "u", "up", "d", "down":
		rating := "up"
		if strings.HasPrefix(line, "d") {
			rating = "down"
		}
		// A second vote while this one is pending reports ErrVoteInFlight.
		go func() {
			state, err := w.Vote(ctx, rating)
			switch {
			case errors.Is(err, widget.ErrVoteInFlight):
				printer.printf("  vote already in progress\n")
			case errors.Is(err, widget.ErrNoTrack):
				printer.printf("  no current track to rate\n")
			default:
				printer.state(state)
			}
		}()
	default:
		printer.printf("  unknown command %q (up, down, status, quit)\n", line)
	}
	return false
}
