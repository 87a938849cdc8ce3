// Package llm provides answer generation via Ollama.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
)

var (
	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrCompletionFailed indicates the model call failed.
	ErrCompletionFailed = errors.New("completion failed")
)

// Completer generates an answer from an assembled prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Config holds configuration for the completion service.
type Config struct {
	// BaseURL is the Ollama server URL.
	BaseURL string

	// Model is the completion model (e.g. llama3.2:8b).
	Model string

	// RequestTimeout bounds a single completion call. Local models can be
	// minutes-scale on long prompts.
	RequestTimeout time.Duration
}

// Validate validates the configuration.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("%w: base URL required", ErrInvalidConfig)
	}
	if c.Model == "" {
		return fmt.Errorf("%w: model required", ErrInvalidConfig)
	}
	return nil
}

// Service generates completions through a single shared Ollama client.
// Safe for concurrent use by multiple in-flight requests.
type Service struct {
	llm    *ollama.LLM
	config Config
}

// NewService creates a new completion service with the given configuration.
func NewService(config Config) (*Service, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	if config.RequestTimeout == 0 {
		config.RequestTimeout = 2 * time.Minute
	}

	llmClient, err := ollama.New(
		ollama.WithServerURL(config.BaseURL),
		ollama.WithModel(config.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("creating ollama client: %w", err)
	}

	return &Service{llm: llmClient, config: config}, nil
}

// Complete generates an answer for the given prompt and returns the model
// output verbatim.
func (s *Service) Complete(ctx context.Context, prompt string) (string, error) {
	if prompt == "" {
		return "", fmt.Errorf("%w: prompt cannot be empty", ErrInvalidConfig)
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.RequestTimeout)
	defer cancel()

	answer, err := llms.GenerateFromSinglePrompt(ctx, s.llm, prompt)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCompletionFailed, err)
	}
	return answer, nil
}

// Ensure Service implements Completer.
var _ Completer = (*Service)(nil)
