package embed

import "net/http"

// config holds shared configuration for embedder implementations.
type config struct {
	model      string
	dim        int
	batchSize  int
	baseURL    string
	httpClient *http.Client
}

// apply overlays opts on the provider defaults in c.
func (c config) apply(opts []Option) config {
	for _, o := range opts {
		o(&c)
	}
	if c.httpClient == nil {
		c.httpClient = http.DefaultClient
	}
	return c
}

// Option configures an embedder.
type Option func(*config)

// WithModel sets the embedding model name.
func WithModel(model string) Option {
	return func(c *config) {
		if model != "" {
			c.model = model
		}
	}
}

// WithDimension sets the output vector dimensionality. Both text-embedding-3
// models and gemini-embedding-001 can shorten their vectors.
func WithDimension(dim int) Option {
	return func(c *config) {
		if dim > 0 {
			c.dim = dim
		}
	}
}

// WithBatchSize caps the number of texts sent in one API call. Values above
// the provider limit are clamped to it.
func WithBatchSize(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.batchSize = n
		}
	}
}

// WithBaseURL overrides the API base URL.
func WithBaseURL(url string) Option {
	return func(c *config) { c.baseURL = url }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *config) { c.httpClient = client }
}
