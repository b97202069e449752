package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"radiocalico/internal/client"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check the rating API and its database",
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient, err := ctx.apiClient()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			fmt.Fprintf(out, "API %s\n", apiClient.BaseURL())
			health, err := apiClient.Health(cmd.Context())
			if err != nil {
				fmt.Fprintln(out, renderStatusLine("Health", statusError, describeAPIError(err), colorize))
				return errors.New("rating API unhealthy")
			}
			fmt.Fprintln(out, renderStatusLine("Health", statusOK, health.Status+" ("+health.Timestamp+")", colorize))
			fmt.Fprintln(out, renderStatusLine("Database", statusOK, health.Database, colorize))

			info, err := apiClient.DatabaseInfo(cmd.Context())
			if err != nil {
				fmt.Fprintln(out, renderStatusLine("Engine", statusWarn, describeAPIError(err), colorize))
				return nil
			}
			fmt.Fprintln(out, renderStatusLine("Engine", statusInfo, info.DatabaseType+" "+info.Version, colorize))
			return nil
		},
	}
}

// describeAPIError prefers the server-reported message over transport detail.
func describeAPIError(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return fmt.Sprintf("%d %s", apiErr.StatusCode, apiErr.Message)
	}
	return err.Error()
}
