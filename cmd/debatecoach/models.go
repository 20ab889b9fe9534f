package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lorenzotomasdiez/debate-coach/internal/config"
	"github.com/lorenzotomasdiez/debate-coach/internal/logger"
	"github.com/lorenzotomasdiez/debate-coach/internal/models"
	"github.com/lorenzotomasdiez/debate-coach/internal/openrouter"
)

func newModelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models [name]",
		Short: "List free OpenRouter models, or resolve one by ID or name",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runModels,
	}
}

func runModels(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	apiKey := cfg.APIKey
	if cfg.Provider != config.ProviderOpenRouter {
		apiKey = config.ProviderKey(config.ProviderOpenRouter)
	}
	var opts []openrouter.Option
	if cfg.Provider == config.ProviderOpenRouter {
		opts = append(opts, openrouter.WithBaseURL(cfg.BaseURL))
	}

	log := logger.Init(os.Stderr)
	registry := freeRegistry(ctx, openrouter.NewClient(apiKey, opts...), log)

	var name string
	if len(args) == 1 {
		name = args[0]
	}
	return printModels(cmd.OutOrStdout(), registry, name)
}

// printModels writes a table of free models, or only the one matching name.
func printModels(w io.Writer, registry *models.Registry, name string) error {
	list := registry.FreeModels()
	if name != "" {
		m, err := registry.Pick(name)
		if err != nil {
			return err
		}
		list = []openrouter.Model{m}
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME")
	for _, m := range list {
		fmt.Fprintf(tw, "%s\t%s\n", m.ID, m.Name)
	}
	return tw.Flush()
}
