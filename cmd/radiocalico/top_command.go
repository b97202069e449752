package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"radiocalico/internal/api"
	"radiocalico/internal/store"
)

func newTopCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "top",
		Short: "List the top-rated songs",
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient, err := ctx.apiClient()
			if err != nil {
				return err
			}
			songs, err := apiClient.TopRated(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, songs)
			}
			out := cmd.OutOrStdout()
			if len(songs) == 0 {
				fmt.Fprintf(out, "No songs have %d or more votes yet\n", store.MinVotesForRanking)
				return nil
			}
			fmt.Fprintln(out, renderTopTable(songs))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", api.DefaultTopLimit, "Number of songs to show")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func renderTopTable(songs []store.RankedSong) string {
	rows := make([][]string, 0, len(songs))
	for i, song := range songs {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			song.Artist,
			song.Title,
			strconv.FormatInt(song.ThumbsUp, 10),
			strconv.FormatInt(song.ThumbsDown, 10),
			strconv.FormatInt(song.TotalVotes, 10),
			formatPercent(song.ApprovalRate * 100),
		})
	}
	return renderTable(
		[]string{"#", "Artist", "Title", "Up", "Down", "Votes", "Approval"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight},
	)
}

func formatPercent(value float64) string {
	return strconv.FormatFloat(value, 'f', 1, 64) + "%"
}
