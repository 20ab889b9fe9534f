package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lorenzotomasdiez/debate-coach/internal/server"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the debate session over HTTP and websocket",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	cmd.Flags().String("addr", "", "Listen address (default from config, :8080)")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := newSession(ctx, cmd, os.Stderr)
	if err != nil {
		return err
	}
	defer s.Close()

	addr := s.cfg.Addr
	if cmd.Flags().Changed("addr") {
		addr, _ = cmd.Flags().GetString("addr")
	}

	srv := server.New(s.engine, server.Options{
		Gatherer:  s.metrics.Registry(),
		Logger:    s.log.Named("server"),
		AccessLog: os.Stderr,
	})
	s.engine.OnTurn = srv.PublishTurn
	s.engine.OnStatus = srv.PublishStatus

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Listen(addr) }()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	s.log.Info(context.Background(), "shutting down")
	s.engine.Cancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("serve: shutdown: %w", err)
	}

	dir, err := s.export(cmd)
	if err != nil {
		return err
	}
	if dir != "" {
		fmt.Printf("Session exported to: %s\n", dir)
	}
	return nil
}
