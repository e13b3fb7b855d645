package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// Gemini implements [Completer] with the Gemini generateContent API.
// System messages become the system instruction.
type Gemini struct {
	client *genai.Client
	cfg    config
}

var _ Completer = (*Gemini)(nil)

// NewGemini creates a Gemini completer.
func NewGemini(ctx context.Context, apiKey string, opts ...Option) (*Gemini, error) {
	cfg := newConfig(DefaultGeminiModel, opts)
	cc := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.httpClient,
	}
	if cfg.baseURL != "" {
		cc.HTTPOptions.BaseURL = cfg.baseURL
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("llm: genai client: %w", err)
	}
	return &Gemini{client: client, cfg: cfg}, nil
}

// Complete sends msgs and concatenates the text parts of the first
// candidate.
func (g *Gemini) Complete(ctx context.Context, msgs []Message) (string, error) {
	if len(msgs) == 0 {
		return "", ErrEmptyConversation
	}

	temp := float32(g.cfg.temperature)
	topP := float32(g.cfg.topP)
	gcfg := &genai.GenerateContentConfig{
		Temperature:     &temp,
		TopP:            &topP,
		MaxOutputTokens: int32(g.cfg.maxTokens),
	}

	var (
		contents []*genai.Content
		system   []*genai.Part
	)
	for _, m := range msgs {
		switch m.Role {
		case RoleSystem:
			system = append(system, genai.NewPartFromText(m.Content))
		case RoleUser:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		case RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			return "", fmt.Errorf("%w: %q", ErrUnknownRole, m.Role)
		}
	}
	if len(system) > 0 {
		gcfg.SystemInstruction = &genai.Content{Parts: system}
	}
	if len(contents) == 0 {
		return "", ErrEmptyConversation
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.cfg.model, contents, gcfg)
	if err != nil {
		return "", fmt.Errorf("llm: gemini generate: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrNoCompletion
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return sb.String(), nil
}

// Model returns the configured model name.
func (g *Gemini) Model() string {
	return g.cfg.model
}
