package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"radiocalico/internal/api"
	"radiocalico/internal/client"
)

func newAdminCommand(ctx *commandContext) *cobra.Command {
	adminCmd := &cobra.Command{
		Use:   "admin",
		Short: "Admin reports (requires server.admin_token)",
	}
	adminCmd.AddCommand(newAdminReportCommand(ctx))
	adminCmd.AddCommand(newAdminInitDBCommand(ctx))
	return adminCmd
}

func newAdminReportCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show songs, recent listeners, recent votes, and totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient, err := ctx.apiClient()
			if err != nil {
				return err
			}
			report, err := apiClient.AdminData(cmd.Context())
			if err != nil {
				return wrapAdminError(err)
			}
			if jsonOutput {
				return writeJSON(cmd, report)
			}
			printAdminReport(cmd.OutOrStdout(), report)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newAdminInitDBCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "init-db",
		Short: "Ask the server to apply pending schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient, err := ctx.apiClient()
			if err != nil {
				return err
			}
			message, err := apiClient.InitDatabase(cmd.Context())
			if err != nil {
				return wrapAdminError(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), message)
			return nil
		},
	}
}

func wrapAdminError(err error) error {
	if errors.Is(err, client.ErrUnauthorized) {
		return fmt.Errorf("admin request rejected (%s); check server.admin_token", describeAPIError(err))
	}
	return err
}

func printAdminReport(out io.Writer, report api.AdminReport) {
	fmt.Fprintln(out, "Totals")
	fmt.Fprint(out, renderStats(report.Stats))
	fmt.Fprintln(out)

	songRows := make([][]string, 0, len(report.Songs))
	for _, song := range report.Songs {
		songRows = append(songRows, []string{
			song.Artist,
			song.Title,
			strconv.FormatInt(song.ThumbsUp, 10),
			strconv.FormatInt(song.ThumbsDown, 10),
			strconv.FormatInt(song.TotalVotes, 10),
			formatPercent(song.ApprovalPercentage),
		})
	}
	fmt.Fprintln(out, "Songs")
	fmt.Fprintln(out, renderTable(
		[]string{"Artist", "Title", "Up", "Down", "Votes", "Approval"},
		songRows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight},
	))
	fmt.Fprintln(out)

	userRows := make([][]string, 0, len(report.Users))
	for _, user := range report.Users {
		userRows = append(userRows, []string{
			user.UserID,
			valueOrDash(user.IPAddress),
			strconv.FormatInt(user.VotesCast, 10),
			user.UpdatedAt,
		})
	}
	fmt.Fprintln(out, "Recent listeners")
	fmt.Fprintln(out, renderTable(
		[]string{"User", "IP", "Votes", "Last seen"},
		userRows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
	))
	fmt.Fprintln(out)

	voteRows := make([][]string, 0, len(report.RecentVotes))
	for _, vote := range report.RecentVotes {
		voteRows = append(voteRows, []string{vote.UpdatedAt, vote.UserID, vote.Rating, vote.Artist, vote.Title})
	}
	fmt.Fprintln(out, "Recent votes")
	fmt.Fprintln(out, renderTable(
		[]string{"When", "User", "Rating", "Artist", "Title"},
		voteRows,
		nil,
	))
}

func valueOrDash(value *string) string {
	if value == nil || *value == "" {
		return "-"
	}
	return *value
}
