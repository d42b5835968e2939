package recommend

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/raphaelgruber/wayword-go/internal/language"
	"github.com/raphaelgruber/wayword-go/internal/metrics"
	"github.com/raphaelgruber/wayword-go/internal/models"
)

// Vectorizer is the slice of the embedding provider the engine needs.
type Vectorizer interface {
	Vector(ctx context.Context, text, languageCode string) ([]float32, bool)
}

// Request carries everything one recommendation pass needs. Now may be left
// zero to use the wall clock.
type Request struct {
	Intent   models.IntentProfile
	Location *models.LatLng
	History  []models.HistoricalPlace
	Now      time.Time
}

// Engine coordinates time filtering, scoring, quality gating and tiering.
// It holds no per-request state and performs no I/O of its own; it is safe
// for concurrent use.
type Engine struct {
	cfg       Config
	provider  Vectorizer
	scorer    *Scorer
	collector *metrics.Collector
	logger    *slog.Logger
}

// NewEngine validates the configuration and builds an engine.
func NewEngine(cfg Config, provider Vectorizer, logger *slog.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		cfg:      cfg,
		provider: provider,
		scorer:   NewScorer(cfg),
		logger:   logger.With("component", "recommend"),
	}, nil
}

// WithCollector records per-pass scoring timings into c. A nil collector
// disables recording. Returns the engine for chaining at construction.
func (e *Engine) WithCollector(c *metrics.Collector) *Engine {
	e.collector = c
	return e
}

// Recommend runs the full pipeline. It always returns a well-formed result:
// per-item failures degrade that item out of consideration, and total
// convergence on an empty result is the documented fallback trigger, not an
// error.
func (e *Engine) Recommend(ctx context.Context, req Request) models.RecommendationResult {
	empty := models.RecommendationResult{Sections: []models.Section{}}

	if len(req.History) == 0 || req.Intent.Empty() {
		return empty
	}

	lang := language.Code(req.Intent.NativeLanguage)
	vectors := e.vectorizeIntent(ctx, req.Intent, lang)
	if len(vectors) == 0 {
		e.logger.Debug("no intent field embedded", "lang", lang)
		return empty
	}

	now := req.Now
	if now.IsZero() {
		now = time.Now()
	}
	nowMinutes := now.Hour()*60 + now.Minute()

	scoreStart := time.Now()
	var pool []models.ScoredCandidate
	kept := 0
	for _, place := range req.History {
		minutes, ok := resolveMinutes(place)
		if !ok {
			e.logger.Debug("place has no resolvable time", "place", place.ID)
			continue
		}
		if circularMinuteDistance(minutes, nowMinutes) > e.cfg.TimeWindowMinutes {
			continue
		}
		kept++
		pool = append(pool, e.scorer.Score(place, vectors, req.Location, nowMinutes)...)
	}
	if e.collector != nil {
		e.collector.RecordTiming(metrics.OpScore, time.Since(scoreStart))
	}
	if kept == 0 {
		return empty
	}

	var quality []models.ScoredCandidate
	for _, c := range pool {
		if c.Score > e.cfg.QualityThreshold {
			quality = append(quality, c)
		}
	}

	sort.SliceStable(quality, func(i, j int) bool {
		return quality[i].Score > quality[j].Score
	})

	result := models.RecommendationResult{
		Sections:   e.tier(quality),
		QualityMet: len(quality) >= e.cfg.MinQualityMatches,
	}

	e.logger.Debug("recommendation assembled",
		"places", len(req.History), "in_window", kept,
		"scored", len(pool), "quality", len(quality),
		"quality_met", result.QualityMet)

	return result
}

// vectorizeIntent embeds every non-empty intent field. Fields whose
// embedding fails are dropped with a warning.
func (e *Engine) vectorizeIntent(ctx context.Context, intent models.IntentProfile, lang string) IntentVectors {
	vectors := make(IntentVectors)
	for _, f := range models.IntentFields {
		text := intent.Field(f)
		if text == "" {
			continue
		}
		v, ok := e.provider.Vector(ctx, text, lang)
		if !ok {
			e.logger.Warn("intent field dropped", "field", f, "lang", lang)
			continue
		}
		vectors[f] = v
	}
	return vectors
}

// tier splits the sorted quality pool into the two ranked sections; the
// remainder past both sections is discarded.
func (e *Engine) tier(sorted []models.ScoredCandidate) []models.Section {
	sections := []models.Section{}
	if len(sorted) == 0 {
		return sections
	}

	first := min(len(sorted), e.cfg.SectionSize)
	sections = append(sections, models.Section{
		Title: models.SectionMostLikely,
		Items: sorted[:first],
	})

	if len(sorted) > first {
		second := min(len(sorted)-first, e.cfg.SectionSize)
		sections = append(sections, models.Section{
			Title: models.SectionLikely,
			Items: sorted[first : first+second],
		})
	}
	return sections
}
