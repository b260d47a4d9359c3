// internal/llm/factory/factory.go
package factory

import (
	"fmt"

	"github.com/newthinker/crossover/internal/config"
	"github.com/newthinker/crossover/internal/core"
	"github.com/newthinker/crossover/internal/llm"
	"github.com/newthinker/crossover/internal/llm/claude"
	"github.com/newthinker/crossover/internal/llm/ollama"
	"github.com/newthinker/crossover/internal/llm/openai"
)

// New creates an LLM provider based on configuration. An empty provider
// means reviews are disabled and yields ErrConfigMissing.
func New(cfg config.LLMConfig) (llm.Provider, error) {
	switch cfg.Provider {
	case "":
		return nil, core.Errorf(core.ErrConfigMissing, "no llm provider configured")
	case "claude":
		return claude.New(cfg.Claude.APIKey, cfg.Claude.Model, cfg.Claude.BaseURL)
	case "openai":
		return openai.New(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.BaseURL)
	case "ollama":
		return ollama.New(cfg.Ollama.Endpoint, cfg.Ollama.Model, cfg.Ollama.Timeout)
	default:
		return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown LLM provider: %s", cfg.Provider))
	}
}
