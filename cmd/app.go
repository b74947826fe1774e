package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/soto-lp/internal/ai"
	"github.com/spigell/soto-lp/internal/ai/anthropic"
	"github.com/spigell/soto-lp/internal/ai/gemini"
	"github.com/spigell/soto-lp/internal/cache"
	"github.com/spigell/soto-lp/internal/dispatch"
	"github.com/spigell/soto-lp/internal/extract"
	"github.com/spigell/soto-lp/internal/logger"
	"github.com/spigell/soto-lp/internal/maps"
	"github.com/spigell/soto-lp/internal/matching"
	"github.com/spigell/soto-lp/internal/metrics"
	"github.com/spigell/soto-lp/internal/secrets"
	"github.com/spigell/soto-lp/internal/store"
)

const (
	cacheMemory = "memory"
	cacheRedis  = "redis"
	cacheNone   = "none"
)

// application holds the wired components shared by every command.
type application struct {
	config   *Config
	logger   *zap.Logger
	store    *store.Store
	service  *dispatch.Service
	metrics  *metrics.Metrics
	registry *prometheus.Registry
	closers  []func() error
}

// newApplication builds the logger, reads the config and wires the dispatch service.
// Oracle and cache problems are logged and degrade the service instead of failing it.
func newApplication(ctx context.Context) *application {
	lg, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		lg.Fatal("getting a config", zap.Error(err))
	}

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(redacted(config), "", "  ")
	lg.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	path := config.Database.Path
	if path == "" {
		path = store.DefaultPath
	}
	st, err := store.Open(ctx, path, lg)
	if err != nil {
		lg.Fatal("opening the database", zap.Error(err), zap.String("path", path))
	}

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	a := &application{
		config:   config,
		logger:   lg,
		store:    st,
		metrics:  m,
		registry: registry,
		closers:  []func() error{st.Close},
	}

	completer, err := newCompleter(ctx, config.AI, lg)
	if err != nil {
		lg.Warn("text oracle disabled, jobs will use pattern extraction", zap.Error(err))
		completer = nil
	}

	extractor := extract.New(completer, a.newCache(), lg, extract.Options{
		Timeout:      config.AI.Timeout,
		MaxLogLength: config.AI.MaxLogLength,
		Metrics:      m,
	})

	matcher := matching.New(newDistanceOracle(config.Maps, lg), lg, matching.Options{
		Concurrency: config.Matching.Concurrency,
		Timeout:     config.Matching.Timeout,
		Metrics:     m,
	})

	a.service = dispatch.New(st, extractor, matcher, lg)
	return a
}

func (a *application) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("closing resources", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}

// newCompleter returns the configured text oracle, or nil when no provider is set.
func newCompleter(ctx context.Context, cfg *AIConfig, lg *zap.Logger) (ai.Completer, error) {
	switch cfg.Provider {
	case "":
		lg.Info("no ai provider configured, jobs will use pattern extraction")
		return nil, nil
	case ai.ProviderGemini:
		p := providerConfig(cfg.Gemini)
		apiKey, err := secrets.Load(secrets.Source{
			Name:  "gemini api key",
			Value: p.APIKey,
			File:  p.APIKeyFile,
		})
		if err != nil {
			return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
		}

		genLogger := logger.WithOracleFields(lg, ai.ProviderGemini, p.Model).With(
			zap.Int("ai_retry_attempts", p.MaxRetries),
		)
		return gemini.NewGenerator(ctx, apiKey, p.Model, p.MaxRetries, genLogger)
	case ai.ProviderAnthropic:
		p := providerConfig(cfg.Anthropic)
		apiKey, err := secrets.Load(secrets.Source{
			Name:  "anthropic api key",
			Value: p.APIKey,
			File:  p.APIKeyFile,
		})
		if err != nil {
			return nil, fmt.Errorf("%w (set ai.anthropic.api-key-file or ANTHROPIC_API_KEY_FILE)", err)
		}
		return anthropic.New(apiKey, p.Model, p.MaxRetries, logger.WithOracleFields(lg, ai.ProviderAnthropic, p.Model))
	default:
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}
}

func providerConfig(p *ProviderConfig) *ProviderConfig {
	if p == nil {
		return &ProviderConfig{}
	}
	return p
}

// newCache picks the extraction cache backend. It returns nil when caching is off.
func (a *application) newCache() extract.Cache {
	cfg := a.config.Cache
	switch cfg.Backend {
	case "", cacheMemory:
		c, err := cache.NewLRU(cfg.Size)
		if err != nil {
			a.logger.Warn("extraction cache disabled", zap.Error(err))
			return nil
		}
		return c
	case cacheRedis:
		rc := cfg.Redis
		if rc == nil || rc.Addr == "" {
			a.logger.Warn("extraction cache disabled", zap.String("reason", "cache.redis.addr is not set"))
			return nil
		}
		client := redis.NewClient(&redis.Options{
			Addr:     rc.Addr,
			Password: rc.Password,
			DB:       rc.DB,
		})
		a.closers = append(a.closers, client.Close)
		return cache.NewRedis(client, rc.Prefix, rc.TTL, a.logger)
	case cacheNone:
		return nil
	default:
		a.logger.Warn("extraction cache disabled", zap.String("reason", "unknown backend"), zap.String("backend", cfg.Backend))
		return nil
	}
}

// newDistanceOracle returns the maps client, or nil when no API key is configured.
func newDistanceOracle(cfg *MapsConfig, lg *zap.Logger) matching.DistanceOracle {
	apiKey, err := secrets.Load(secrets.Source{
		Name:  "maps api key",
		Value: cfg.APIKey,
		File:  cfg.APIKeyFile,
	})
	if err != nil {
		lg.Warn("distance oracle disabled, matching will produce no candidates",
			zap.Error(err),
			zap.String("hint", "set maps.api-key-file or MAPS_API_KEY_FILE"),
		)
		return nil
	}

	client := maps.New(apiKey, lg)
	if cfg.Attempts > 0 {
		client.Attempts = cfg.Attempts
	}
	if cfg.RetryDelay > 0 {
		client.RetryDelay = cfg.RetryDelay
	}
	return client
}

// redacted returns a copy of config safe to log.
func redacted(config *Config) Config {
	c := *config
	hide := func(p *ProviderConfig) *ProviderConfig {
		if p == nil {
			return nil
		}
		cp := *p
		if cp.APIKey != "" {
			cp.APIKey = "***"
		}
		return &cp
	}

	aiCfg := *c.AI
	aiCfg.Gemini = hide(aiCfg.Gemini)
	aiCfg.Anthropic = hide(aiCfg.Anthropic)
	c.AI = &aiCfg

	mp := *c.Maps
	if mp.APIKey != "" {
		mp.APIKey = "***"
	}
	c.Maps = &mp

	if c.Cache.Redis != nil && c.Cache.Redis.Password != "" {
		cc := *c.Cache
		r := *cc.Redis
		r.Password = "***"
		cc.Redis = &r
		c.Cache = &cc
	}
	return c
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
