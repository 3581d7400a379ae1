package driven

import "context"

// LLMService writes the prose parts of a report (summary, negotiation draft)
// and answers contract questions. Risk findings never depend on it; when it
// is nil those prose features are skipped with a note.
type LLMService interface {
	// Generate completes a single prompt.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// Chat completes a message list, used for grounded questions.
	Chat(ctx context.Context, messages []ChatMessage, opts ChatOptions) (string, error)

	// ModelName is recorded on each report.
	ModelName() string

	// Ping checks reachability with a minimal request.
	Ping(ctx context.Context) error

	Close() error
}

// GenerateOptions tunes a Generate call. Zero values use provider defaults.
type GenerateOptions struct {
	MaxTokens   int
	Temperature float64

	// System is prepended as a system instruction where the provider supports it.
	System string

	// StopWords end the completion early.
	StopWords []string
}

// ChatMessage is one turn. Role is "system", "user" or "assistant".
type ChatMessage struct {
	Role    string
	Content string
}

// ChatOptions tunes a Chat call.
type ChatOptions struct {
	MaxTokens   int
	Temperature float64
}
