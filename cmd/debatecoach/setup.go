package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lorenzotomasdiez/debate-coach/internal/config"
	"github.com/lorenzotomasdiez/debate-coach/internal/debate"
	"github.com/lorenzotomasdiez/debate-coach/internal/gemini"
	"github.com/lorenzotomasdiez/debate-coach/internal/logger"
	"github.com/lorenzotomasdiez/debate-coach/internal/metrics"
	"github.com/lorenzotomasdiez/debate-coach/internal/models"
	"github.com/lorenzotomasdiez/debate-coach/internal/openrouter"
	"github.com/lorenzotomasdiez/debate-coach/internal/output"
	"github.com/lorenzotomasdiez/debate-coach/internal/speech"
)

// session bundles everything a subcommand needs to run one debate.
type session struct {
	cfg      *config.Config
	log      logger.Logger
	metrics  *metrics.Manager
	engine   *debate.Engine
	narrator *speech.Narrator
	model    string
	closeLog func() error
}

// loadConfig layers .env, the config file, DEBATECOACH_* variables and
// finally any flags the user set.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if err := config.LoadDotEnv(".env"); err != nil {
		return nil, err
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("provider") {
		p, _ := flags.GetString("provider")
		cfg.Provider = strings.ToLower(strings.TrimSpace(p))
		if os.Getenv("DEBATECOACH_API_KEY") == "" {
			cfg.APIKey = config.ProviderKey(cfg.Provider)
		}
	}
	overrideString(cmd, "api-key", &cfg.APIKey)
	overrideString(cmd, "model", &cfg.Model)
	overrideString(cmd, "topic", &cfg.Topic)
	overrideString(cmd, "mode", &cfg.Mode)
	overrideString(cmd, "output-dir", &cfg.OutputDir)
	if flags.Changed("voice") {
		cfg.Voice, _ = flags.GetBool("voice")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func overrideString(cmd *cobra.Command, name string, dst *string) {
	if cmd.Flags().Changed(name) {
		*dst, _ = cmd.Flags().GetString(name)
	}
}

// openLog returns the log destination and its closer. fallback is used when
// --log-file is not set.
func openLog(cmd *cobra.Command, fallback io.Writer) (io.Writer, func() error, error) {
	path, _ := cmd.Flags().GetString("log-file")
	if path == "" {
		return fallback, func() error { return nil }, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	return f, f.Close, nil
}

// newSession builds the engine and its collaborators. Logs go to
// defaultLog unless --log-file is set.
func newSession(ctx context.Context, cmd *cobra.Command, defaultLog io.Writer) (*session, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if err := cfg.RequireAPIKey(); err != nil {
		return nil, err
	}

	w, closeLog, err := openLog(cmd, defaultLog)
	if err != nil {
		return nil, err
	}
	log := logger.Init(w)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		closeLog()
		return nil, err
	}

	client, modelName, err := newModelClient(ctx, cfg, log)
	if err != nil {
		closeLog()
		return nil, err
	}

	mgr := metrics.NewManager()
	state := debate.NewState(cfg.Topic, cfg.PersonaMode(), cfg.Voice)

	narrator := newNarrator(cfg, log)
	var speaker debate.Speaker
	if narrator != nil {
		speaker = narrator
	}

	engine := debate.NewEngine(state, client, speaker)
	engine.SetLogger(log.Named("engine"))
	engine.SetRecorder(mgr)
	engine.SetTimeout(cfg.RequestTimeout())

	log.Info(ctx, "session ready",
		logger.String("session", engine.ID()),
		logger.String("provider", cfg.Provider),
		logger.String("model", modelName),
		logger.String("mode", cfg.PersonaMode().String()),
		logger.Bool("narration", narrator != nil))

	return &session{
		cfg:      cfg,
		log:      log,
		metrics:  mgr,
		engine:   engine,
		narrator: narrator,
		model:    modelName,
		closeLog: closeLog,
	}, nil
}

// Close stops narration and releases the log file.
func (s *session) Close() error {
	if s.narrator != nil {
		s.narrator.Stop()
	}
	return s.closeLog()
}

// export writes the transcript when --export is set.
func (s *session) export(cmd *cobra.Command) (string, error) {
	if on, _ := cmd.Flags().GetBool("export"); !on {
		return "", nil
	}
	dir, err := output.ExportSession(s.cfg.OutputDir, s.engine.Snapshot(), s.engine.AverageScore())
	if err != nil {
		return "", fmt.Errorf("exporting session: %w", err)
	}
	s.log.Info(context.Background(), "session exported", logger.String("dir", dir))
	return dir, nil
}

func newModelClient(ctx context.Context, cfg *config.Config, log logger.Logger) (debate.ModelClient, string, error) {
	switch cfg.Provider {
	case config.ProviderOpenRouter:
		client := openrouter.NewClient(cfg.APIKey, openrouter.WithBaseURL(cfg.BaseURL))
		m, err := freeRegistry(ctx, client, log).Pick(cfg.Model)
		if err != nil {
			return nil, "", fmt.Errorf("selecting model: %w", err)
		}
		return &openrouter.Generator{Client: client, Model: m.ID}, m.ID, nil
	default:
		client, err := gemini.NewClient(ctx, gemini.Options{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
		})
		if err != nil {
			return nil, "", err
		}
		return client, client.Model(), nil
	}
}

type modelLister interface {
	ListModels(ctx context.Context) ([]openrouter.Model, error)
}

// freeRegistry fetches live models and falls back to the built-in list when
// the catalog is unreachable or has no free models.
func freeRegistry(ctx context.Context, lister modelLister, log logger.Logger) *models.Registry {
	all, err := lister.ListModels(ctx)
	if err != nil {
		log.Warn(ctx, "could not fetch models, using defaults", logger.Err(err))
		all = models.DefaultFreeModels()
	}
	registry := models.NewRegistry(all)
	if len(registry.FreeModels()) == 0 {
		registry = models.NewRegistry(models.DefaultFreeModels())
	}
	return registry
}

// newNarrator returns nil when no synthesizer is available.
func newNarrator(cfg *config.Config, log logger.Logger) *speech.Narrator {
	n, err := speech.FromCommand(cfg.SpeechCommand)
	if err != nil {
		log.Warn(context.Background(), "narration disabled", logger.Err(err))
		return nil
	}
	n.SetLogger(log.Named("speech"))
	return n
}
