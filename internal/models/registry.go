package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lorenzotomasdiez/debate-coach/internal/openrouter"
)

var (
	// ErrNoFreeModels is returned by Pick on an empty registry.
	ErrNoFreeModels = errors.New("models: no free models available")
	// ErrModelNotFound is returned by Pick when the preferred model is not free.
	ErrModelNotFound = errors.New("models: model not found")
)

// Registry holds a filtered list of free models.
type Registry struct {
	free []openrouter.Model
}

// NewRegistry creates a registry, keeping only free models (Prompt == "0" and Completion == "0").
// Models with nil Pricing are excluded.
func NewRegistry(models []openrouter.Model) *Registry {
	var free []openrouter.Model
	for _, m := range models {
		if isFree(m) {
			free = append(free, m)
		}
	}
	return &Registry{free: free}
}

func isFree(m openrouter.Model) bool {
	return m.Pricing != nil && m.Pricing.Prompt == "0" && m.Pricing.Completion == "0"
}

// FreeModels returns all free models in the registry.
func (r *Registry) FreeModels() []openrouter.Model {
	return r.free
}

// Pick returns the free model whose ID or name matches preferred, ignoring
// case. An empty preference picks the first free model.
func (r *Registry) Pick(preferred string) (openrouter.Model, error) {
	if len(r.free) == 0 {
		return openrouter.Model{}, ErrNoFreeModels
	}
	preferred = strings.TrimSpace(preferred)
	if preferred == "" {
		return r.free[0], nil
	}
	for _, m := range r.free {
		if strings.EqualFold(m.ID, preferred) || strings.EqualFold(m.Name, preferred) {
			return m, nil
		}
	}
	return openrouter.Model{}, fmt.Errorf("%w: %q", ErrModelNotFound, preferred)
}

// DefaultFreeModels returns a hardcoded fallback list of known free models.
func DefaultFreeModels() []openrouter.Model {
	free := &openrouter.Pricing{Prompt: "0", Completion: "0"}
	return []openrouter.Model{
		{ID: "google/gemini-2.0-flash-exp:free", Name: "Gemini 2.0 Flash Experimental", Pricing: free},
		{ID: "meta-llama/llama-3.3-70b-instruct:free", Name: "Llama 3.3 70B Instruct", Pricing: free},
		{ID: "qwen/qwen3-235b-a22b:free", Name: "Qwen3 235B A22B", Pricing: free},
		{ID: "mistralai/mistral-small-3.2-24b-instruct:free", Name: "Mistral Small 3.2 24B", Pricing: free},
		{ID: "openai/gpt-oss-120b:free", Name: "GPT OSS 120B", Pricing: free},
	}
}
