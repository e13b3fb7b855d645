package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/shubhpawar/office-ladies-podcast-search/cmd/podsearch/internal/config"
	"github.com/shubhpawar/office-ladies-podcast-search/pkg/embed"
	"github.com/shubhpawar/office-ladies-podcast-search/pkg/ingest"
	"github.com/shubhpawar/office-ladies-podcast-search/pkg/llm"
	"github.com/shubhpawar/office-ladies-podcast-search/pkg/search"
	"github.com/shubhpawar/office-ladies-podcast-search/pkg/segment"
	"github.com/shubhpawar/office-ladies-podcast-search/pkg/storage"
	"github.com/shubhpawar/office-ladies-podcast-search/pkg/transcript"
	"github.com/shubhpawar/office-ladies-podcast-search/pkg/vecstore"
)

// env holds the components built from the config for one command run.
type env struct {
	cfg      *config.Config
	embedder embed.Embedder
	index    vecstore.Index
	cache    search.Cache
	closers  []func() error
}

// Close releases everything env opened, in reverse order.
func (e *env) Close() error {
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// openEnv builds the embedder, index and cache.
func openEnv(ctx context.Context) (*env, error) {
	cfg, err := GetConfig()
	if err != nil {
		return nil, err
	}
	e := &env{cfg: cfg}
	if e.embedder, err = newEmbedder(ctx, cfg.Embed); err != nil {
		return nil, err
	}
	if e.index, err = openIndex(ctx, cfg.Index, e.embedder.Dimension()); err != nil {
		return nil, err
	}
	e.closers = append(e.closers, e.index.Close)
	if cfg.Cache.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.Addr,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
		})
		e.cache = search.NewRedisCache(rdb, cfg.Cache.TTL)
		e.closers = append(e.closers, rdb.Close)
	}
	return e, nil
}

func (e *env) pipeline() (*search.Pipeline, error) {
	return search.New(search.Config{
		Embedder: e.embedder,
		Index:    e.index,
		Cache:    e.cache,
		Logger:   slog.Default().With("component", "search"),
	})
}

func (e *env) ingester() (*ingest.Ingester, error) {
	return newIngester(e.cfg, e.embedder, e.index)
}

// newIngester wires an Ingester. embedder and index may be nil for parse-only
// use.
func newIngester(cfg *config.Config, embedder embed.Embedder, index vecstore.Index) (*ingest.Ingester, error) {
	src, err := openSource(cfg.Source)
	if err != nil {
		return nil, err
	}
	seg, err := segment.New(cfg.Segment)
	if err != nil {
		return nil, err
	}
	return ingest.New(ingest.Config{
		Source:    src,
		Cleaner:   transcript.NewCleaner(cfg.Transcript),
		Segmenter: seg,
		Embedder:  embedder,
		Index:     index,
		BatchSize: cfg.Ingest.BatchSize,
		Logger:    slog.Default().With("component", "ingest"),
	})
}

func openSource(c config.SourceConfig) (storage.FileStore, error) {
	switch c.Kind {
	case config.SourceS3:
		return storage.NewS3FromEnv(c.S3)
	default:
		return storage.NewLocal(c.Dir)
	}
}

func newEmbedder(ctx context.Context, c config.EmbedConfig) (embed.Embedder, error) {
	if c.APIKey == "" {
		return nil, fmt.Errorf("embed: no API key for provider %s (set embed.api_key or %s)", c.Provider, keyEnv(c.Provider))
	}
	opts := []embed.Option{
		embed.WithModel(c.Model),
		embed.WithDimension(c.Dimension),
		embed.WithBatchSize(c.BatchSize),
	}
	if c.BaseURL != "" {
		opts = append(opts, embed.WithBaseURL(c.BaseURL))
	}
	switch c.Provider {
	case config.ProviderGemini:
		return embed.NewGemini(ctx, c.APIKey, opts...)
	default:
		return embed.NewOpenAI(c.APIKey, opts...), nil
	}
}

func openIndex(ctx context.Context, c config.IndexConfig, dim int) (vecstore.Index, error) {
	switch c.Backend {
	case config.IndexMemory:
		slog.Warn("memory index is not persisted; records are lost when the command exits")
		return vecstore.NewMemory(), nil
	case config.IndexPgVector:
		return vecstore.NewPgVector(ctx, vecstore.PgVectorOptions{
			DSN:       c.PgVector.DSN,
			Table:     c.PgVector.Table,
			Dimension: dim,
		})
	case config.IndexMilvus:
		return vecstore.NewMilvus(ctx, vecstore.MilvusOptions{
			Address:    c.Milvus.Address,
			Username:   c.Milvus.Username,
			Password:   c.Milvus.Password,
			APIKey:     c.Milvus.APIKey,
			Collection: c.Milvus.Collection,
			Dimension:  dim,
		})
	default:
		return vecstore.NewBadger(vecstore.BadgerOptions{
			Dir:    c.Badger.Dir,
			Logger: slog.Default(),
		})
	}
}

func newCompleter(ctx context.Context, c config.LLMConfig) (llm.Completer, error) {
	if c.APIKey == "" {
		return nil, fmt.Errorf("llm: no API key for provider %s (set llm.api_key or %s)", c.Provider, keyEnv(c.Provider))
	}
	opts := []llm.Option{
		llm.WithModel(c.Model),
		llm.WithTemperature(c.Temperature),
		llm.WithMaxTokens(c.MaxTokens),
		llm.WithTopP(c.TopP),
	}
	if c.BaseURL != "" {
		opts = append(opts, llm.WithBaseURL(c.BaseURL))
	}
	switch c.Provider {
	case config.ProviderGemini:
		return llm.NewGemini(ctx, c.APIKey, opts...)
	default:
		return llm.NewOpenAI(c.APIKey, opts...), nil
	}
}

func keyEnv(provider string) string {
	if provider == config.ProviderGemini {
		return config.EnvGeminiKey
	}
	return config.EnvOpenAIKey
}
