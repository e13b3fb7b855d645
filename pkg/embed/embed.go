// Package embed turns transcript segments and search queries into dense
// vectors.
//
// The same [Embedder] must be used to build an index and to query it: the
// vectors of different models or dimensions are not comparable.
//
// # Implementations
//
//   - [OpenAI] calls the OpenAI embeddings API (or any compatible provider
//     via [WithBaseURL]). Defaults to text-embedding-3-small cut to 384
//     dimensions.
//   - [Gemini] calls the Gemini embedContent API through
//     google.golang.org/genai.
//
// # Quick Start
//
//	e := embed.NewOpenAI(os.Getenv("OPENAI_API_KEY"))
//	vec, err := e.Embed(ctx, "why is the warehouse dusty")
//
//	vecs, err := e.EmbedBatch(ctx, segmentTexts)
package embed

import (
	"context"
	"errors"
)

// Embedder converts text into dense float32 vectors.
type Embedder interface {
	// Embed returns the embedding vector for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns one vector per text, in input order.
	// Implementations split large batches into several API calls
	// transparently.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the dimensionality of the output vectors.
	Dimension() int
}

// Common errors.
var (
	// ErrEmptyInput is returned when the input text is empty.
	ErrEmptyInput = errors.New("embed: empty input")

	// ErrDimensionMismatch is returned when the provider answers with
	// vectors of a different size than configured.
	ErrDimensionMismatch = errors.New("embed: dimension mismatch")
)

func float64sToFloat32s(in []float64) []float32 {
	out := make([]float32, len(in))
	for i, v := range in {
		out[i] = float32(v)
	}
	return out
}
