package embed

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// Gemini embedding models.
const (
	ModelGeminiEmbedding001 = "gemini-embedding-001"
	ModelGeminiText004      = "text-embedding-004"
)

const (
	geminiMaxBatch     = 100 // contents per batchEmbedContents call
	geminiDefaultDim   = 384
	geminiDefaultModel = ModelGeminiEmbedding001
)

// Gemini implements [Embedder] using the Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
	dim    int
	batch  int
}

var _ Embedder = (*Gemini)(nil)

// NewGemini creates a Gemini embedder. WithBaseURL and WithHTTPClient are
// passed to the genai client.
func NewGemini(ctx context.Context, apiKey string, opts ...Option) (*Gemini, error) {
	cfg := config{
		model:     geminiDefaultModel,
		dim:       geminiDefaultDim,
		batchSize: geminiMaxBatch,
	}.apply(opts)

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
		return nil, fmt.Errorf("embed: genai client: %w", err)
	}
	return &Gemini{
		client: client,
		model:  cfg.model,
		dim:    cfg.dim,
		batch:  min(cfg.batchSize, geminiMaxBatch),
	}, nil
}

// Embed returns the embedding for a single text.
func (g *Gemini) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyInput
	}
	vecs, err := g.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch returns embeddings for multiple texts. No text may be empty.
func (g *Gemini) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyInput
	}
	for i, t := range texts {
		if t == "" {
			return nil, fmt.Errorf("%w: text %d", ErrEmptyInput, i)
		}
	}

	result := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += g.batch {
		end := min(i+g.batch, len(texts))
		vecs, err := g.callAPI(ctx, texts[i:end])
		if err != nil {
			return nil, fmt.Errorf("embed: gemini batch [%d:%d]: %w", i, end, err)
		}
		result = append(result, vecs...)
	}
	return result, nil
}

// Dimension returns the configured vector dimensionality.
func (g *Gemini) Dimension() int {
	return g.dim
}

// Model returns the Gemini model identifier.
func (g *Gemini) Model() string {
	return g.model
}

func (g *Gemini) callAPI(ctx context.Context, texts []string) ([][]float32, error) {
	contents := make([]*genai.Content, len(texts))
	for i, t := range texts {
		contents[i] = genai.NewContentFromText(t, genai.RoleUser)
	}
	dim := int32(g.dim)
	resp, err := g.client.Models.EmbedContent(ctx, g.model, contents, &genai.EmbedContentConfig{
		OutputDimensionality: &dim,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("got %d embeddings for %d texts", len(resp.Embeddings), len(texts))
	}

	vecs := make([][]float32, len(texts))
	for i, e := range resp.Embeddings {
		if e == nil || len(e.Values) != g.dim {
			n := 0
			if e != nil {
				n = len(e.Values)
			}
			return nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, n, g.dim)
		}
		vecs[i] = e.Values
	}
	return vecs, nil
}
