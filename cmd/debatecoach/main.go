package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "debatecoach",
		Short: "Practice debating against an AI coach, opponent or judge",
		Long: "Runs a turn-based debate session against a generative model. Each reply carries a " +
			"counterargument, a 0-10 score and a coaching tip; scores are averaged across the session.",
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.String("api-key", "", "Model API key (overrides GEMINI_API_KEY / OPENROUTER_API_KEY)")
	flags.String("provider", "", "Model provider: gemini or openrouter")
	flags.String("model", "", "Provider model name (default: provider default)")
	flags.String("topic", "", "Debate topic")
	flags.String("mode", "", "Persona: Coach, Opponent or Judge")
	flags.Bool("voice", true, "Narrate replies with a local text-to-speech command")
	flags.String("output-dir", "", "Base directory for exported sessions")
	flags.Bool("export", false, "Export the transcript when the session ends")
	flags.String("log-file", "", "Write logs to this file instead of stderr")

	root.AddCommand(newChatCmd())
	root.AddCommand(newAskCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newModelsCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
