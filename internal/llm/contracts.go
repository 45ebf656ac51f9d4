// Package llm abstracts the AI providers behind a single summarize
// capability. The pipeline depends only on Provider, never on a
// vendor's request shape.
package llm

import (
	"context"
	"strings"
	"time"
)

// Provider turns a piece of document text into a summary under the
// given prompt instructions. Implementations never retry; retry policy
// belongs to the caller.
type Provider interface {
	Name() string
	Summarize(ctx context.Context, text, instructions string) (string, error)
}

// Config is shared client configuration for the HTTP providers.
type Config struct {
	APIKey      string
	Model       string
	BaseURL     string // optional override, e.g. an OpenRouter-compatible endpoint
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

// BuildPrompt assembles the request body text the same way for every
// provider: instructions first, then the document, then a closing nudge.
func BuildPrompt(instructions, text string) string {
	var b strings.Builder
	b.WriteString(instructions)
	b.WriteString("\n\nHere is the document to summarize:\n\n")
	b.WriteString(text)
	b.WriteString("\n\nPlease provide the summary based on the instructions above.")
	return b.String()
}
