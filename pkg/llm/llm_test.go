package llm_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shubhpawar/office-ladies-podcast-search/pkg/llm"
)

// chatRequest is the part of a chat completion request the tests inspect.
type chatRequest struct {
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
	TopP        float64 `json:"top_p"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func newFakeChat(t *testing.T, reply string, got *chatRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(got); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-test",
			"object":  "chat.completion",
			"created": 1700000000,
			"model":   got.Model,
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": reply},
			}},
		})
	}))
}

func TestOpenAIComplete(t *testing.T) {
	var req chatRequest
	srv := newFakeChat(t, "Dwight wins.", &req)
	defer srv.Close()

	c := llm.NewOpenAI("test-key", llm.WithBaseURL(srv.URL))
	got, err := c.Complete(context.Background(), []llm.Message{
		{Role: llm.RoleSystem, Content: "be brief"},
		{Role: llm.RoleUser, Content: "who wins the basketball game?"},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != "Dwight wins." {
		t.Errorf("Complete = %q", got)
	}

	if req.Model != llm.DefaultOpenAIModel {
		t.Errorf("model = %q, want %q", req.Model, llm.DefaultOpenAIModel)
	}
	if req.Temperature != 0.7 || req.MaxTokens != 256 || req.TopP != 1 {
		t.Errorf("params = %+v", req)
	}
	if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[1].Role != "user" {
		t.Errorf("messages = %+v", req.Messages)
	}
	if req.Messages[1].Content != "who wins the basketball game?" {
		t.Errorf("user content = %q", req.Messages[1].Content)
	}
}

func TestOpenAIOptions(t *testing.T) {
	var req chatRequest
	srv := newFakeChat(t, "ok", &req)
	defer srv.Close()

	c := llm.NewOpenAI("test-key",
		llm.WithBaseURL(srv.URL),
		llm.WithModel("gpt-4o-mini"),
		llm.WithTemperature(0.2),
		llm.WithMaxTokens(64),
	)
	if _, err := c.Complete(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "hi"}}); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if req.Model != "gpt-4o-mini" || req.Temperature != 0.2 || req.MaxTokens != 64 {
		t.Errorf("params = %+v", req)
	}
	if c.Model() != "gpt-4o-mini" {
		t.Errorf("Model() = %q", c.Model())
	}
}

func TestOpenAIErrors(t *testing.T) {
	c := llm.NewOpenAI("test-key", llm.WithBaseURL("http://127.0.0.1:0"))
	if _, err := c.Complete(context.Background(), nil); !errors.Is(err, llm.ErrEmptyConversation) {
		t.Errorf("empty conversation error = %v", err)
	}
	if _, err := c.Complete(context.Background(), []llm.Message{{Role: "narrator", Content: "x"}}); !errors.Is(err, llm.ErrUnknownRole) {
		t.Errorf("unknown role error = %v", err)
	}
}

func TestGeminiComplete(t *testing.T) {
	var body struct {
		Contents []struct {
			Role  string `json:"role"`
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"contents"`
		SystemInstruction *struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"systemInstruction"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{
					"role":  "model",
					"parts": []map[string]any{{"text": "Bears. "}, {"text": "Beets."}},
				},
				"finishReason": "STOP",
			}},
		})
	}))
	defer srv.Close()

	ctx := context.Background()
	c, err := llm.NewGemini(ctx, "test-key", llm.WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("NewGemini: %v", err)
	}
	got, err := c.Complete(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: "answer in two words"},
		{Role: llm.RoleUser, Content: "what does Dwight farm?"},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != "Bears. Beets." {
		t.Errorf("Complete = %q", got)
	}
	if len(body.Contents) != 1 || body.Contents[0].Role != "user" || body.Contents[0].Parts[0].Text != "what does Dwight farm?" {
		t.Errorf("contents = %+v", body.Contents)
	}
	if body.SystemInstruction == nil || body.SystemInstruction.Parts[0].Text != "answer in two words" {
		t.Errorf("systemInstruction = %+v", body.SystemInstruction)
	}
}

func TestGeminiSystemOnly(t *testing.T) {
	ctx := context.Background()
	c, err := llm.NewGemini(ctx, "test-key", llm.WithBaseURL("http://127.0.0.1:0"))
	if err != nil {
		t.Fatalf("NewGemini: %v", err)
	}
	_, err = c.Complete(ctx, []llm.Message{{Role: llm.RoleSystem, Content: "x"}})
	if !errors.Is(err, llm.ErrEmptyConversation) {
		t.Errorf("error = %v, want ErrEmptyConversation", err)
	}
}
