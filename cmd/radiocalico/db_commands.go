package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"radiocalico/internal/store"
)

func newDBCommand(ctx *commandContext) *cobra.Command {
	dbCmd := &cobra.Command{
		Use:   "db",
		Short: "Database maintenance",
	}
	dbCmd.AddCommand(newDBInitCommand(ctx))
	dbCmd.AddCommand(newDBStatsCommand(ctx))
	return dbCmd
}

func newDBInitCommand(ctx *commandContext) *cobra.Command {
	var skipSelfTest bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the schema and run a store self-test",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), ctx, func(st *store.Store) error {
				out := cmd.OutOrStdout()
				versions, err := st.AppliedMigrations(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Database: %s\n", st.Path())
				fmt.Fprintf(out, "Applied migrations: %s\n", strings.Join(versions, ", "))
				if skipSelfTest {
					return nil
				}
				if err := st.SelfTest(cmd.Context()); err != nil {
					return fmt.Errorf("self-test: %w", err)
				}
				fmt.Fprintln(out, "Self-test passed")
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&skipSelfTest, "skip-self-test", false, "Only apply migrations")
	return cmd
}

func newDBStatsCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show vote totals straight from the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), ctx, func(st *store.Store) error {
				stats, err := st.Stats(cmd.Context())
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, stats)
				}
				fmt.Fprint(cmd.OutOrStdout(), renderStats(stats))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func withStore(cmdCtx context.Context, ctx *commandContext, fn func(*store.Store) error) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	st, err := store.OpenPath(cmdCtx, cfg.Paths.DatabasePath)
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(st)
}

func renderStats(stats store.Stats) string {
	rows := [][]string{
		{"Songs", strconv.FormatInt(stats.TotalSongs, 10)},
		{"Listeners", strconv.FormatInt(stats.TotalUsers, 10)},
		{"Votes", strconv.FormatInt(stats.TotalVotes, 10)},
		{"Thumbs up", strconv.FormatInt(stats.TotalThumbsUp, 10)},
		{"Thumbs down", strconv.FormatInt(stats.TotalThumbsDown, 10)},
	}
	return renderTable([]string{"Metric", "Count"}, rows, []columnAlignment{alignLeft, alignRight}) + "\n"
}
