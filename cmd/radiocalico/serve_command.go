package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"radiocalico/internal/logging"
	"radiocalico/internal/server"
	"radiocalico/internal/store"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the rating API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), ctx)
		},
	}
}

func runServer(cmdCtx context.Context, ctx *commandContext) error {
	if cmdCtx == nil {
		cmdCtx = context.Background()
	}
	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	st, err := store.Open(cfg)
	if err != nil {
		logger.Error("open rating store", logging.Error(err), logging.String("path", cfg.Paths.DatabasePath))
		return err
	}
	defer st.Close()

	srv, err := server.New(cfg, st, logger)
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}
	if err := srv.Start(signalCtx); err != nil {
		return fmt.Errorf("start server: %w", err)
	}
	defer srv.Stop()

	if cfg.Server.AdminToken == "" {
		fmt.Fprintln(os.Stderr, "warn: admin API disabled; set server.admin_token or RADIOCALICO_ADMIN_TOKEN to enable it")
	}

	<-signalCtx.Done()
	logger.Info("radiocalico server shutting down")
	return nil
}
