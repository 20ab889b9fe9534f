package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/lorenzotomasdiez/debate-coach/internal/config"
	"github.com/lorenzotomasdiez/debate-coach/internal/debate"
	"github.com/lorenzotomasdiez/debate-coach/internal/debate/persona"
	"github.com/lorenzotomasdiez/debate-coach/internal/gemini"
	"github.com/lorenzotomasdiez/debate-coach/internal/logger"
	"github.com/lorenzotomasdiez/debate-coach/internal/models"
	"github.com/lorenzotomasdiez/debate-coach/internal/openrouter"
)

var envKeys = []string{
	"GEMINI_API_KEY",
	"OPENROUTER_API_KEY",
	config.FileEnv,
	"DEBATECOACH_PROVIDER",
	"DEBATECOACH_API_KEY",
	"DEBATECOACH_MODEL",
	"DEBATECOACH_TOPIC",
	"DEBATECOACH_MODE",
	"DEBATECOACH_VOICE",
	"DEBATECOACH_OUTPUT_DIR",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func subcommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd, rest, err := newRootCmd().Find(args)
	if err != nil {
		t.Fatalf("find %v: %v", args, err)
	}
	if err := cmd.ParseFlags(rest); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return cmd
}

func TestRootRegistersSubcommands(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"chat", "ask", "serve", "models"} {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestLoadConfigFlagOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "env-key")

	cmd := subcommand(t, "ask", "--topic", "Nuclear Power", "--mode", "judge", "--voice=false", "--output-dir", "runs")
	cfg, err := loadConfig(cmd)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Topic != "Nuclear Power" {
		t.Errorf("Topic = %q", cfg.Topic)
	}
	if cfg.PersonaMode() != persona.Judge {
		t.Errorf("Mode = %q", cfg.Mode)
	}
	if cfg.Voice {
		t.Error("Voice should be off")
	}
	if cfg.OutputDir != "runs" {
		t.Errorf("OutputDir = %q", cfg.OutputDir)
	}
	if cfg.APIKey != "env-key" {
		t.Errorf("APIKey = %q", cfg.APIKey)
	}
}

func TestLoadConfigKeepsDefaultsWithoutFlags(t *testing.T) {
	clearEnv(t)

	cfg, err := loadConfig(subcommand(t, "ask"))
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if !cfg.Voice {
		t.Error("voice default should stay on when the flag is not set")
	}
	if cfg.Topic != "Artificial Intelligence in Education" {
		t.Errorf("Topic = %q", cfg.Topic)
	}
}

func TestLoadConfigProviderFlagSwitchesKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "gemini-key")
	t.Setenv("OPENROUTER_API_KEY", "openrouter-key")

	cfg, err := loadConfig(subcommand(t, "ask", "--provider", "OpenRouter"))
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Provider != config.ProviderOpenRouter {
		t.Errorf("Provider = %q", cfg.Provider)
	}
	if cfg.APIKey != "openrouter-key" {
		t.Errorf("APIKey = %q", cfg.APIKey)
	}
}

func TestLoadConfigRejectsUnknownMode(t *testing.T) {
	clearEnv(t)

	_, err := loadConfig(subcommand(t, "ask", "--mode", "referee"))
	if !errors.Is(err, config.ErrInvalidConfig) {
		t.Fatalf("err = %v, want ErrInvalidConfig", err)
	}
}

type fakeLister struct {
	models []openrouter.Model
	err    error
}

func (f *fakeLister) ListModels(context.Context) ([]openrouter.Model, error) {
	return f.models, f.err
}

func TestFreeRegistryFallsBackOnError(t *testing.T) {
	reg := freeRegistry(context.Background(), &fakeLister{err: errors.New("offline")}, logger.Nop())
	if got, want := len(reg.FreeModels()), len(models.DefaultFreeModels()); got != want {
		t.Errorf("free models = %d, want %d", got, want)
	}
}

func TestFreeRegistryFallsBackWhenNothingFree(t *testing.T) {
	paid := []openrouter.Model{{ID: "paid/model", Pricing: &openrouter.Pricing{Prompt: "0.01", Completion: "0.02"}}}
	reg := freeRegistry(context.Background(), &fakeLister{models: paid}, logger.Nop())
	m, err := reg.Pick("")
	if err != nil {
		t.Fatalf("Pick: %v", err)
	}
	if m.ID != models.DefaultFreeModels()[0].ID {
		t.Errorf("picked %q", m.ID)
	}
}

func TestFreeRegistryUsesLiveModels(t *testing.T) {
	free := &openrouter.Pricing{Prompt: "0", Completion: "0"}
	live := []openrouter.Model{{ID: "live/one:free", Name: "Live One", Pricing: free}}
	reg := freeRegistry(context.Background(), &fakeLister{models: live}, logger.Nop())
	if len(reg.FreeModels()) != 1 || reg.FreeModels()[0].ID != "live/one:free" {
		t.Errorf("free models = %+v", reg.FreeModels())
	}
}

func TestPrintModels(t *testing.T) {
	reg := models.NewRegistry(models.DefaultFreeModels())

	var buf bytes.Buffer
	if err := printModels(&buf, reg, ""); err != nil {
		t.Fatalf("printModels: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1+len(models.DefaultFreeModels()) {
		t.Errorf("got %d lines:\n%s", len(lines), buf.String())
	}

	buf.Reset()
	if err := printModels(&buf, reg, "llama 3.3 70b instruct"); err != nil {
		t.Fatalf("printModels by name: %v", err)
	}
	if !strings.Contains(buf.String(), "meta-llama/llama-3.3-70b-instruct:free") {
		t.Errorf("output = %q", buf.String())
	}

	if err := printModels(&buf, reg, "nope"); !errors.Is(err, models.ErrModelNotFound) {
		t.Errorf("err = %v, want ErrModelNotFound", err)
	}
}

func TestNewModelClientGemini(t *testing.T) {
	cfg := config.New()
	cfg.APIKey = "k"
	client, name, err := newModelClient(context.Background(), cfg, logger.Nop())
	if err != nil {
		t.Fatalf("newModelClient: %v", err)
	}
	if _, ok := client.(*gemini.Client); !ok {
		t.Errorf("client = %T, want *gemini.Client", client)
	}
	if name != gemini.DefaultModel {
		t.Errorf("model = %q", name)
	}
}

func TestNewModelClientOpenRouterPicksLiveModel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"data":[{"id":"live/one:free","name":"Live One","pricing":{"prompt":"0","completion":"0"}}]}`)
	}))
	defer server.Close()

	cfg := config.New()
	cfg.Provider = config.ProviderOpenRouter
	cfg.APIKey = "k"
	cfg.BaseURL = server.URL
	client, name, err := newModelClient(context.Background(), cfg, logger.Nop())
	if err != nil {
		t.Fatalf("newModelClient: %v", err)
	}
	g, ok := client.(*openrouter.Generator)
	if !ok {
		t.Fatalf("client = %T, want *openrouter.Generator", client)
	}
	if name != "live/one:free" || g.Model != name {
		t.Errorf("model = %q, generator model = %q", name, g.Model)
	}
}

type cannedModel struct{ text string }

func (c cannedModel) Generate(context.Context, string) ([]string, error) {
	return []string{c.text}, nil
}

func TestAskRunsOneExchange(t *testing.T) {
	engine := debate.NewEngine(debate.NewState("Remote Work", persona.Coach, false),
		cannedModel{text: "Counterargument: Isolation.\nScore: 6\nCoaching Tip: Cite data."}, nil)

	if err := ask(context.Background(), engine, "Remote work boosts output."); err != nil {
		t.Fatalf("ask: %v", err)
	}
	turns := engine.Transcript()
	if len(turns) != 3 {
		t.Fatalf("transcript has %d turns, want 3", len(turns))
	}
	if engine.AverageScore() != 6 {
		t.Errorf("AverageScore = %v", engine.AverageScore())
	}
	if engine.OnTurn != nil {
		t.Error("ask should detach its printer")
	}
}

func TestAskRejectsBlankArgument(t *testing.T) {
	engine := debate.NewEngine(debate.NewState("Remote Work", persona.Coach, false), cannedModel{}, nil)
	err := ask(context.Background(), engine, "   ")
	if !errors.Is(err, debate.ErrBlankInput) {
		t.Errorf("err = %v, want ErrBlankInput", err)
	}
}
