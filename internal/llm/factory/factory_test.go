// internal/llm/factory/factory_test.go
package factory

import (
	"errors"
	"testing"

	"github.com/newthinker/crossover/internal/config"
	"github.com/newthinker/crossover/internal/core"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.LLMConfig
		want    string
		wantErr *core.Error
	}{
		{
			name: "claude",
			cfg:  config.LLMConfig{Provider: "claude", Claude: config.ClaudeConfig{APIKey: "test-key", Model: "claude-3-sonnet"}},
			want: "claude",
		},
		{
			name: "openai",
			cfg:  config.LLMConfig{Provider: "openai", OpenAI: config.OpenAIConfig{APIKey: "test-key", Model: "gpt-4"}},
			want: "openai",
		},
		{
			name: "ollama",
			cfg:  config.LLMConfig{Provider: "ollama", Ollama: config.OllamaConfig{Endpoint: "http://localhost:11434", Model: "llama3"}},
			want: "ollama",
		},
		{name: "disabled", cfg: config.LLMConfig{}, wantErr: core.ErrConfigMissing},
		{name: "unknown", cfg: config.LLMConfig{Provider: "unknown"}, wantErr: core.ErrConfigInvalid},
		{name: "claude missing key", cfg: config.LLMConfig{Provider: "claude"}, wantErr: core.ErrConfigMissing},
		{name: "openai missing key", cfg: config.LLMConfig{Provider: "openai"}, wantErr: core.ErrConfigMissing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(tt.cfg)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr.Code, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p.Name() != tt.want {
				t.Errorf("expected %s provider, got %s", tt.want, p.Name())
			}
		})
	}
}
