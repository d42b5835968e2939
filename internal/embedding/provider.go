// Package embedding turns short texts into semantic vectors using the best
// available model per language, with a process-wide cache.
package embedding

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/raphaelgruber/wayword-go/internal/metrics"
)

// Mode identifies which class of model serves a language.
type Mode string

const (
	// ModeContextual is the higher-fidelity token-averaged model.
	ModeContextual Mode = "contextual"

	// ModeStatic is the word-vector lexicon fallback.
	ModeStatic Mode = "static"

	// ModeUnavailable means no model can embed the language.
	ModeUnavailable Mode = "unavailable"
)

// Source is one embedding backend covering some set of languages. Ready
// must be a cheap, read-only probe: a Vector lookup that hits a not-ready
// source returns nothing rather than blocking on asset loading.
type Source interface {
	// Mode identifies the class of this source.
	Mode() Mode

	// Ready reports whether the source can embed the canonical language
	// right now, without loading anything.
	Ready(lang string) bool

	// Prepare loads assets for the language. May be slow (model pull,
	// lexicon read). Failure leaves Ready reporting false.
	Prepare(ctx context.Context, lang string) error

	// Embed produces one fixed vector for already-normalized text.
	Embed(ctx context.Context, lang, text string) ([]float32, error)
}

// Provider resolves texts to vectors through an ordered list of sources,
// highest fidelity first. All embedding failures are swallowed: callers get
// a missing vector and the scoring pipeline degrades around it.
type Provider struct {
	sources   []Source
	cache     *Cache
	collector *metrics.Collector
	logger    *slog.Logger
}

// NewProvider creates a provider over the given sources, tried in order.
// A nil cache gets a fresh one, so tests can construct isolated instances.
func NewProvider(cache *Cache, logger *slog.Logger, sources ...Source) *Provider {
	if cache == nil {
		cache = NewCache()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{
		sources: sources,
		cache:   cache,
		logger:  logger.With("component", "embedding"),
	}
}

// WithCollector records per-call model timings into c. A nil collector
// disables recording. Returns the provider for chaining at construction.
func (p *Provider) WithCollector(c *metrics.Collector) *Provider {
	p.collector = c
	return p
}

// Normalize lower-cases and trims text the way every cache key and model
// input is normalized.
func Normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// Vector returns the embedding for (text, languageCode), or ok=false when
// the text normalizes to nothing, no model is ready for the language, or
// the model fails. It never returns an error and never blocks on cold-start
// asset loading.
func (p *Provider) Vector(ctx context.Context, text, languageCode string) ([]float32, bool) {
	normalized := Normalize(text)
	if normalized == "" {
		return nil, false
	}
	lang := CanonicalLanguage(languageCode)

	if v, ok := p.cache.Get(lang, normalized); ok {
		return v, true
	}

	src := p.readySource(lang)
	if src == nil {
		return nil, false
	}

	start := time.Now()
	vector, err := src.Embed(ctx, lang, normalized)
	if p.collector != nil {
		// Cache hits are free; only real model calls count.
		p.collector.RecordTiming(metrics.OpEmbedding, time.Since(start))
	}
	if err != nil {
		p.logger.Warn("embedding failed",
			"lang", lang, "mode", src.Mode(), "text_len", len(normalized),
			"duration_ms", time.Since(start).Milliseconds(), "error", err)
		return nil, false
	}
	if len(vector) == 0 {
		return nil, false
	}

	p.cache.Put(lang, normalized, vector)
	return vector, true
}

// Available reports whether any model can embed the language. Read-only.
func (p *Provider) Available(languageCode string) bool {
	return p.Mode(languageCode) != ModeUnavailable
}

// Mode reports which model class would serve the language. Read-only: it
// never mutates cache or source state.
func (p *Provider) Mode(languageCode string) Mode {
	lang := CanonicalLanguage(languageCode)
	if src := p.readySource(lang); src != nil {
		return src.Mode()
	}
	return ModeUnavailable
}

// PrepareLanguage warms the best source willing to load the language and
// returns the mode that ended up ready. Failures are non-fatal; the mode
// probe simply keeps reporting unavailable.
func (p *Provider) PrepareLanguage(ctx context.Context, languageCode string) Mode {
	lang := CanonicalLanguage(languageCode)
	for _, src := range p.sources {
		if src.Ready(lang) {
			return src.Mode()
		}
		if err := src.Prepare(ctx, lang); err != nil {
			p.logger.Warn("warm-up failed", "lang", lang, "mode", src.Mode(), "error", err)
			continue
		}
		if src.Ready(lang) {
			p.logger.Info("language ready", "lang", lang, "mode", src.Mode())
			return src.Mode()
		}
	}
	return ModeUnavailable
}

// Prepare warms every given language. Intended to run before interactive
// use so first-use scoring never waits on model downloads.
func (p *Provider) Prepare(ctx context.Context, languageCodes []string) {
	for _, code := range languageCodes {
		p.PrepareLanguage(ctx, code)
	}
}

func (p *Provider) readySource(lang string) Source {
	for _, src := range p.sources {
		if src.Ready(lang) {
			return src
		}
	}
	return nil
}
