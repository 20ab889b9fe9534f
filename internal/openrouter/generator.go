package openrouter

import (
	"context"
	"errors"

	"github.com/lorenzotomasdiez/debate-coach/internal/debate"
)

// ErrNoChoices is returned when a completion carries no choice.
var ErrNoChoices = errors.New("openrouter: response has no choices")

// Completer is the part of Client that Generator needs.
type Completer interface {
	ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// Generator answers debate prompts with a fixed model. The persona
// instruction goes out as the system message and the conversation as the
// user message.
type Generator struct {
	Client      Completer
	Model       string
	Temperature *float64
}

// Generate returns the content of the first choice as a single fragment.
func (g *Generator) Generate(ctx context.Context, prompt string) ([]string, error) {
	resp, err := g.Client.ChatCompletion(ctx, ChatRequest{
		Model:       g.Model,
		Messages:    promptMessages(prompt),
		Temperature: g.Temperature,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, ErrNoChoices
	}
	return []string{resp.Choices[0].Message.Content}, nil
}

func promptMessages(prompt string) []Message {
	instructions, conversation := debate.SplitPrompt(prompt)
	if instructions == "" {
		return []Message{{Role: RoleUser, Content: conversation}}
	}
	return []Message{
		{Role: RoleSystem, Content: instructions},
		{Role: RoleUser, Content: conversation},
	}
}
