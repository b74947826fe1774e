package ai

import "context"

const (
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
)

// Completer is a text-completion oracle: a system instruction plus a user message in, text out.
type Completer interface {
	GenerateContent(ctx context.Context, system, message string) (string, error)
	Model() string
}
