package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lorenzotomasdiez/debate-coach/internal/debate"
	"github.com/lorenzotomasdiez/debate-coach/internal/output"
)

func newAskCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask <argument>",
		Short: "Submit one argument and print the reply",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runAsk,
	}
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	s, err := newSession(ctx, cmd, os.Stderr)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := ask(ctx, s.engine, strings.Join(args, " ")); err != nil {
		return err
	}
	if s.narrator != nil && s.engine.Snapshot().Voice {
		s.narrator.Wait()
	}

	dir, err := s.export(cmd)
	if err != nil {
		return err
	}
	if dir != "" {
		fmt.Printf("\nSession exported to: %s\n", dir)
	}
	return nil
}

// ask prints the session banner, runs one exchange and prints both turns and
// the running score.
func ask(ctx context.Context, engine *debate.Engine, argument string) error {
	output.PrintSession(engine.Snapshot())
	engine.OnTurn = func(turn debate.Turn) {
		output.PrintTurn(turn, engine.Snapshot().Mode)
	}
	defer func() { engine.OnTurn = nil }()

	if _, err := engine.Exchange(ctx, argument); err != nil {
		return fmt.Errorf("ask: %w", err)
	}
	output.PrintScore(engine.AverageScore())
	return nil
}
