package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"radiocalico/internal/api"
	"radiocalico/internal/widget"
)

func newRateCommand(ctx *commandContext) *cobra.Command {
	var artist, title, album string
	var userID string

	cmd := &cobra.Command{
		Use:       "rate <up|down>",
		Short:     "Rate a song as this listener",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.cliLogger(cmd)
			if err != nil {
				return err
			}
			if userID == "" {
				if userID, err = widget.LoadOrCreateIdentity(cfg.Client.IdentityPath); err != nil {
					return err
				}
			}
			apiClient, err := ctx.apiClient()
			if err != nil {
				return err
			}

			w := widget.New(apiClient, userID, logger)
			if err := w.SetTrack(cmd.Context(), widget.Track{Artist: artist, Title: title, Album: album}); err != nil {
				return err
			}
			state, err := w.Vote(cmd.Context(), strings.ToLower(args[0]))
			if err != nil {
				if errors.Is(err, widget.ErrNoTrack) {
					return errors.New("--artist and --title are required")
				}
				return err
			}
			printWidgetState(cmd.OutOrStdout(), state)
			return nil
		},
	}
	cmd.Flags().StringVar(&artist, "artist", "", "Song artist")
	cmd.Flags().StringVar(&title, "title", "", "Song title")
	cmd.Flags().StringVar(&album, "album", "", "Album name")
	cmd.Flags().StringVar(&userID, "user", "", "Vote as this user ID instead of the stored identity")
	return cmd
}

func newSongCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "song <artist> <title>",
		Short: "Show the rating for a song and this listener's vote",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			userID, err := widget.LoadOrCreateIdentity(cfg.Client.IdentityPath)
			if err != nil {
				return err
			}
			apiClient, err := ctx.apiClient()
			if err != nil {
				return err
			}
			rating, err := apiClient.SongRating(cmd.Context(), args[0], args[1], userID)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, rating)
			}
			printWidgetState(cmd.OutOrStdout(), stateFromRating(rating))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func stateFromRating(rating api.SongRating) widget.State {
	state := widget.State{
		Track:      widget.Track{Artist: rating.Artist, Title: rating.Title},
		ThumbsUp:   rating.ThumbsUp,
		ThumbsDown: rating.ThumbsDown,
		TotalVotes: rating.TotalVotes,
	}
	if rating.Album != nil {
		state.Track.Album = *rating.Album
	}
	if rating.UserVote != nil {
		state.UserVote = *rating.UserVote
	}
	return state
}

func printWidgetState(out io.Writer, state widget.State) {
	fmt.Fprintf(out, "%s - %s\n", state.Track.Artist, state.Track.Title)
	fmt.Fprintf(out, "  up %s  down %s  %s\n",
		strconv.FormatInt(state.ThumbsUp, 10),
		strconv.FormatInt(state.ThumbsDown, 10),
		state.StatusText(),
	)
	if state.LastError != "" {
		fmt.Fprintf(out, "  error: %s\n", state.LastError)
	}
}
