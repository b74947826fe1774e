// Package extract turns free-text job descriptions into confidence-scored structured jobs.
//
// A text-completion oracle does the heavy lifting. Whenever it is unavailable or returns
// something unusable, a deterministic pattern-based extractor takes over, so Extract always
// produces a job.
package extract

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/spigell/soto-lp/internal/ai"
	"github.com/spigell/soto-lp/internal/domain"
	"github.com/spigell/soto-lp/internal/logger"
	"github.com/spigell/soto-lp/internal/metrics"
	"github.com/spigell/soto-lp/internal/utils"
)

//go:embed prompt.md
var systemPrompt string

const (
	messageTemplate     = "Job text:\n{{JOB_TEXT}}\n\nJSON Response:"
	defaultMaxLogLength = 200
)

var (
	// ErrEmptyText is reported when the job text is blank.
	ErrEmptyText = errors.New("job text is empty")
	// ErrNoOracle is reported when no text-completion oracle is configured.
	ErrNoOracle = errors.New("text oracle is not configured")
)

// Source tells where an extracted job came from.
type Source string

const (
	SourceOracle   Source = "oracle"
	SourceFallback Source = "fallback"
	SourceCache    Source = "cache"
)

// Outcome is the result of one extraction. Err is set only for fallback outcomes and records
// why the oracle path was abandoned.
type Outcome struct {
	Job    domain.StructuredJob
	Source Source
	Err    error
}

// Fallback reports whether the job was produced by the pattern-based extractor.
func (o Outcome) Fallback() bool {
	return o.Source == SourceFallback
}

// Cache memoizes oracle extractions by CacheKey. Implementations must store at most one value
// per key; a lost race may compute twice but never overwrites.
type Cache interface {
	Get(ctx context.Context, key string) (domain.StructuredJob, bool)
	Add(ctx context.Context, key string, job domain.StructuredJob)
}

// Options tunes an Extractor.
type Options struct {
	// Timeout bounds a single oracle call. Zero means no extra bound.
	Timeout      time.Duration
	MaxLogLength int
	Metrics      *metrics.Metrics
}

type Extractor struct {
	completer ai.Completer
	cache     Cache
	logger    *zap.Logger
	timeout   time.Duration
	maxLogLen int
	metrics   *metrics.Metrics
}

// New builds an Extractor. completer and cache may be nil: without a completer every
// extraction is a fallback, without a cache nothing is memoized.
func New(completer ai.Completer, cache Cache, log *zap.Logger, opts Options) *Extractor {
	maxLogLen := opts.MaxLogLength
	if maxLogLen <= 0 {
		maxLogLen = defaultMaxLogLength
	}

	log = logger.OrNop(log)
	if completer != nil {
		log = logger.WithOracleFields(log, "", completer.Model())
	}

	return &Extractor{
		completer: completer,
		cache:     cache,
		logger:    log,
		timeout:   opts.Timeout,
		maxLogLen: maxLogLen,
		metrics:   opts.Metrics,
	}
}

// CacheKey derives the cache key of a job text. Only surrounding whitespace is ignored.
func CacheKey(text string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(text)))
	return hex.EncodeToString(sum[:])
}

// Extract produces the structured form of raw. It never fails: oracle, parsing and payload
// problems all end in a fallback outcome.
func (e *Extractor) Extract(ctx context.Context, raw string) Outcome {
	text := strings.TrimSpace(raw)
	if text == "" {
		return e.fallback(raw, ErrEmptyText)
	}

	key := CacheKey(text)
	if e.cache != nil {
		if job, ok := e.cache.Get(ctx, key); ok {
			e.logger.Debug("using cached extraction", zap.String("cache_key", key))
			e.metrics.Extraction(string(SourceCache))
			return Outcome{Job: job, Source: SourceCache}
		}
	}

	if e.completer == nil {
		return e.fallback(raw, ErrNoOracle)
	}

	job, err := e.fromOracle(ctx, text)
	if err != nil {
		return e.fallback(raw, err)
	}

	if e.cache != nil {
		e.cache.Add(ctx, key, job)
	}

	e.metrics.Extraction(string(SourceOracle))
	return Outcome{Job: job, Source: SourceOracle}
}

func (e *Extractor) fromOracle(ctx context.Context, text string) (domain.StructuredJob, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	message := buildMessage(text)
	e.logger.Debug("oracle extraction request",
		zap.Int("message_length", utf8.RuneCountInString(message)),
		zap.String("message_preview", utils.TruncateForLog(message, e.maxLogLen)),
	)

	raw, err := e.completer.GenerateContent(ctx, systemPrompt, message)
	if err != nil {
		e.metrics.OracleFailure("request")
		return domain.StructuredJob{}, fmt.Errorf("request oracle extraction: %w", err)
	}

	e.logger.Debug("oracle extraction response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, e.maxLogLen)),
	)

	job, err := parsePayload(raw)
	if err != nil {
		e.metrics.OracleFailure("parse")
		return domain.StructuredJob{}, err
	}

	return job, nil
}

func (e *Extractor) fallback(raw string, cause error) Outcome {
	e.logger.Warn("falling back to pattern extraction",
		zap.String("text_preview", utils.TruncateForLog(raw, e.maxLogLen)),
		zap.Error(cause),
	)
	e.metrics.Extraction(string(SourceFallback))
	return Outcome{Job: Fallback(raw), Source: SourceFallback, Err: cause}
}

func buildMessage(text string) string {
	return strings.ReplaceAll(messageTemplate, "{{JOB_TEXT}}", text)
}
