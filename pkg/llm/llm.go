// Package llm wraps chat-completion APIs behind a single blocking call.
//
// Only plain-text conversations are supported: the search pipeline sends one
// prompt and reads one answer back.
package llm

import (
	"context"
	"errors"
	"net/http"
)

// Role is the author of a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Completer returns the model's reply to a conversation.
type Completer interface {
	Complete(ctx context.Context, msgs []Message) (string, error)
}

var (
	// ErrEmptyConversation is returned when Complete is called without
	// messages.
	ErrEmptyConversation = errors.New("llm: empty conversation")

	// ErrNoCompletion is returned when the provider answers without any
	// candidate text.
	ErrNoCompletion = errors.New("llm: no completion returned")

	// ErrUnknownRole is returned for a message role outside RoleSystem,
	// RoleUser and RoleAssistant.
	ErrUnknownRole = errors.New("llm: unknown role")
)

// Default answer settings.
const (
	DefaultOpenAIModel = "gpt-3.5-turbo"
	DefaultGeminiModel = "gemini-2.0-flash"
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 256
	DefaultTopP        = 1.0
)

type config struct {
	model       string
	temperature float64
	maxTokens   int
	topP        float64
	baseURL     string
	httpClient  *http.Client
}

func newConfig(model string, opts []Option) config {
	c := config{
		model:       model,
		temperature: DefaultTemperature,
		maxTokens:   DefaultMaxTokens,
		topP:        DefaultTopP,
	}
	for _, o := range opts {
		o(&c)
	}
	if c.httpClient == nil {
		c.httpClient = http.DefaultClient
	}
	return c
}

// Option configures a Completer.
type Option func(*config)

// WithModel sets the model name.
func WithModel(model string) Option {
	return func(c *config) {
		if model != "" {
			c.model = model
		}
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(c *config) { c.temperature = t }
}

// WithMaxTokens caps the length of the reply.
func WithMaxTokens(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxTokens = n
		}
	}
}

// WithTopP sets nucleus sampling.
func WithTopP(p float64) Option {
	return func(c *config) { c.topP = p }
}

// WithBaseURL overrides the API base URL.
func WithBaseURL(url string) Option {
	return func(c *config) { c.baseURL = url }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *config) { c.httpClient = client }
}
