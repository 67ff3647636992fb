package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"coachrag/internal/config"
	"coachrag/internal/embedding"
	"coachrag/internal/embedding/cache"
	embopenai "coachrag/internal/embedding/openai"
	"coachrag/internal/embedding/tfidf"
	"coachrag/internal/index"
	"coachrag/internal/llm"
	"coachrag/internal/llm/mock"
	chatopenai "coachrag/internal/llm/openai"
	"coachrag/internal/service"
	"coachrag/internal/store"
	"coachrag/internal/store/memory"
	"coachrag/internal/store/sqlite"
	"coachrag/internal/summarizer"
	"coachrag/internal/synthesis"
	"coachrag/internal/vectorstore"
	vmemory "coachrag/internal/vectorstore/memory"
	"coachrag/internal/vectorstore/qdrant"
)

// components holds everything main assembles from the config.
type components struct {
	coach   *service.Coach
	closers []func() error
}

func (c *components) close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		errs = append(errs, c.closers[i]())
	}
	return errors.Join(errs...)
}

// assemble wires the service from cfg. strategy overrides the configured
// synthesis strategy when non-empty.
func assemble(cfg *config.AppConfig, strategy string) (*components, error) {
	c := &components{}

	plain, structured, err := buildGateways(cfg)
	if err != nil {
		return nil, err
	}

	var sum summarizer.Summarizer
	switch cfg.Summarizer.Type {
	case "llm":
		sum = summarizer.NewLLM(plain)
	case "frequency":
		sum = summarizer.NewFrequency(cfg.Summarizer.MaxSentences)
	default:
		return nil, fmt.Errorf("unknown summarizer: %s", cfg.Summarizer.Type)
	}

	newEmbedder, closeCache, err := buildEmbedderFactory(cfg)
	if err != nil {
		return nil, err
	}
	if closeCache != nil {
		c.closers = append(c.closers, closeCache)
	}

	newStore, err := buildVectorStoreFactory(cfg)
	if err != nil {
		_ = c.close()
		return nil, err
	}

	if strategy == "" {
		strategy = cfg.Synthesis.Strategy
	}
	strat, err := synthesis.New(synthesis.Options{
		Strategy:   strategy,
		Gateway:    structured,
		Builder:    index.Builder{NewEmbedder: newEmbedder, NewStore: newStore},
		TopK:       cfg.Synthesis.TopK,
		Structured: cfg.LLM.StructuredOutput,
	})
	if err != nil {
		_ = c.close()
		return nil, err
	}

	st, err := openStore(cfg)
	if err != nil {
		_ = c.close()
		return nil, err
	}
	c.closers = append(c.closers, st.Close)

	c.coach = service.New(service.Options{
		Store:       st,
		Summarizer:  sum,
		Strategy:    strat,
		Instruction: cfg.Synthesis.Instruction,
		Workers:     cfg.Concurrency.SummarizeWorkers,
	})
	c.closers = append(c.closers, func() error { return c.coach.Close(context.Background()) })
	slog.Debug("components assembled", "comp", "main",
		"llm", cfg.LLM.Type, "embedder", cfg.Embedder.Type, "vector_store", cfg.VectorStore.Type,
		"summarizer", cfg.Summarizer.Type, "strategy", strat.Name(), "store", cfg.Store.Type)
	return c, nil
}

// buildGateways returns the gateway used for summaries and the one used for
// synthesis. They differ only when structured output is enabled. Both share
// one rate limiter.
func buildGateways(cfg *config.AppConfig) (plain, synth llm.Gateway, err error) {
	limiter := llm.NewLimiter(cfg.Concurrency.RequestsPerMinute)
	timeout := time.Duration(cfg.Concurrency.CallTimeoutSecs) * time.Second
	wrap := func(g llm.Gateway) llm.Gateway {
		return llm.WithRateLimit(llm.WithTimeout(g, timeout), limiter)
	}

	switch cfg.LLM.Type {
	case "mock":
		g := wrap(mock.New())
		return g, g, nil
	case "openai":
		client, err := chatopenai.NewClient(chatopenai.Config{
			BaseURL:     cfg.LLM.BaseURL,
			APIKeyEnv:   cfg.LLM.APIKeyEnv,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			Timeout:     time.Duration(cfg.LLM.TimeoutSecs) * time.Second,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("llm init failed: %w", err)
		}
		plain = wrap(client)
		if cfg.LLM.StructuredOutput {
			return plain, wrap(client.Structured()), nil
		}
		return plain, plain, nil
	default:
		return nil, nil, fmt.Errorf("unknown llm: %s", cfg.LLM.Type)
	}
}

func buildEmbedderFactory(cfg *config.AppConfig) (func() embedding.Embedder, func() error, error) {
	switch cfg.Embedder.Type {
	case "tfidf":
		return func() embedding.Embedder { return tfidf.NewEmbedder() }, nil, nil
	case "openai":
		if cfg.Embedder.OpenAI == nil {
			return nil, nil, errors.New("openai embedder config missing")
		}
		o := cfg.Embedder.OpenAI
		client, err := embopenai.NewClient(embopenai.Config{
			BaseURL:    o.BaseURL,
			APIKeyEnv:  o.APIKeyEnv,
			Model:      o.Model,
			Timeout:    time.Duration(o.TimeoutSecs) * time.Second,
			MaxRetries: o.MaxRetries,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("openai embedder init failed: %w", err)
		}
		// The remote model is stateless, so every index may share one client.
		var emb embedding.Embedder = client
		var closer func() error
		switch cfg.Embedder.Cache.Type {
		case "memory":
			emb = cache.New(client, cache.NewMemory())
		case "redis":
			cc := cfg.Embedder.Cache
			r := cache.NewRedis(cache.RedisConfig{
				Addr:      cc.Addr,
				Password:  os.Getenv(cc.PasswordEnv),
				DB:        cc.DB,
				KeyPrefix: cc.KeyPrefix,
				TTL:       time.Duration(cc.TTLSecs) * time.Second,
			})
			emb = cache.New(client, r)
			closer = r.Close
		}
		return func() embedding.Embedder { return emb }, closer, nil
	default:
		return nil, nil, fmt.Errorf("unknown embedder: %s", cfg.Embedder.Type)
	}
}

func buildVectorStoreFactory(cfg *config.AppConfig) (func() vectorstore.Storage, error) {
	switch cfg.VectorStore.Type {
	case "memory":
		return func() vectorstore.Storage { return vmemory.NewStorage() }, nil
	case "qdrant":
		q := cfg.VectorStore.Qdrant
		if q == nil {
			return nil, errors.New("qdrant config missing")
		}
		apiKey := ""
		if q.APIKeyEnv != "" {
			apiKey = os.Getenv(q.APIKeyEnv)
		}
		return func() vectorstore.Storage {
			return qdrant.NewStorage(qdrant.Config{
				URL:        q.URL,
				APIKey:     apiKey,
				Collection: q.CollectionPrefix + "-" + uuid.NewString()[:8],
				Timeout:    time.Duration(q.TimeoutSecs) * time.Second,
			})
		}, nil
	default:
		return nil, fmt.Errorf("unknown vector store: %s", cfg.VectorStore.Type)
	}
}

func openStore(cfg *config.AppConfig) (store.Store, error) {
	switch cfg.Store.Type {
	case "sqlite":
		s, err := sqlite.NewStore(cfg.Store.Dir)
		if err != nil {
			return nil, fmt.Errorf("open answer store: %w", err)
		}
		return s, nil
	case "memory":
		return memory.NewStore(), nil
	default:
		return nil, fmt.Errorf("unknown store: %s", cfg.Store.Type)
	}
}
