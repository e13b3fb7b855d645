package llm

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
)

// OpenAI implements [Completer] with the chat completions API.
type OpenAI struct {
	client *openai.Client
	cfg    config
}

var _ Completer = (*OpenAI)(nil)

// NewOpenAI creates an OpenAI completer. The default model is
// gpt-3.5-turbo.
func NewOpenAI(apiKey string, opts ...Option) *OpenAI {
	cfg := newConfig(DefaultOpenAIModel, opts)
	clientOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(cfg.httpClient),
	}
	if cfg.baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(cfg.baseURL))
	}
	client := openai.NewClient(clientOpts...)
	return &OpenAI{client: &client, cfg: cfg}
}

// Complete sends msgs and returns the first choice's content.
func (o *OpenAI) Complete(ctx context.Context, msgs []Message) (string, error) {
	if len(msgs) == 0 {
		return "", ErrEmptyConversation
	}
	oaiMsgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case RoleSystem:
			oaiMsgs = append(oaiMsgs, openai.SystemMessage(m.Content))
		case RoleUser:
			oaiMsgs = append(oaiMsgs, openai.UserMessage(m.Content))
		case RoleAssistant:
			oaiMsgs = append(oaiMsgs, openai.AssistantMessage(m.Content))
		default:
			return "", fmt.Errorf("%w: %q", ErrUnknownRole, m.Role)
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:       o.cfg.model,
		Messages:    oaiMsgs,
		Temperature: param.NewOpt(o.cfg.temperature),
		MaxTokens:   param.NewOpt(int64(o.cfg.maxTokens)),
		TopP:        param.NewOpt(o.cfg.topP),
	}
	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("llm: openai chat: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoCompletion
	}
	return resp.Choices[0].Message.Content, nil
}

// Model returns the configured model name.
func (o *OpenAI) Model() string {
	return o.cfg.model
}
