package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/lorenzotomasdiez/debate-coach/internal/tui"
)

func newChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive debate session in the terminal",
		Args:  cobra.NoArgs,
		RunE:  runChat,
	}
}

func runChat(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// The TUI owns the terminal, so logs are discarded unless --log-file is set.
	s, err := newSession(ctx, cmd, io.Discard)
	if err != nil {
		return err
	}
	defer s.Close()

	program := tea.NewProgram(tui.New(ctx, s.engine), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("chat: %w", err)
	}
	s.engine.Cancel()

	dir, err := s.export(cmd)
	if err != nil {
		return err
	}
	if dir != "" {
		fmt.Printf("Session exported to: %s\n", dir)
	}
	return nil
}
