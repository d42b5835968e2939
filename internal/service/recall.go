// Package service orchestrates the recall pipeline: load the place timeline,
// rank it against the traveler's intent, and fall back to a remote predictor
// when local recall does not meet the quality gate.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/raphaelgruber/wayword-go/internal/client"
	"github.com/raphaelgruber/wayword-go/internal/metrics"
	"github.com/raphaelgruber/wayword-go/internal/models"
	"github.com/raphaelgruber/wayword-go/internal/recommend"
)

// HistorySource supplies the place timeline to rank.
type HistorySource interface {
	Snapshot(ctx context.Context, limit int) ([]models.HistoricalPlace, error)
}

// Recommender ranks a timeline against an intent profile.
type Recommender interface {
	Recommend(ctx context.Context, req recommend.Request) models.RecommendationResult
}

// RecallService ties the history store, the ranking engine and the optional
// fallback predictor together.
type RecallService struct {
	history      HistorySource
	engine       Recommender
	fallback     client.Predictor
	collector    *metrics.Collector
	historyLimit int
	logger       *slog.Logger
}

// NewRecallService creates the recall orchestrator. fallback and collector
// may be nil; historyLimit caps how many places are loaded per request.
func NewRecallService(
	history HistorySource,
	engine Recommender,
	fallback client.Predictor,
	collector *metrics.Collector,
	historyLimit int,
	logger *slog.Logger,
) *RecallService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecallService{
		history:      history,
		engine:       engine,
		fallback:     fallback,
		collector:    collector,
		historyLimit: historyLimit,
		logger:       logger.With("component", "recall"),
	}
}

// RecallRequest is one recommendation request.
type RecallRequest struct {
	Intent   models.IntentProfile
	Location *models.LatLng
	Now      time.Time
}

// Recall loads the timeline, ranks it, and consults the fallback predictor
// when the local result does not meet the quality gate. The local result is
// returned unchanged if the fallback is unconfigured or fails; degraded
// recall is never an error.
func (s *RecallService) Recall(ctx context.Context, req RecallRequest) (models.RecommendationResult, error) {
	historyStart := time.Now()
	places, err := s.history.Snapshot(ctx, s.historyLimit)
	if err != nil {
		return models.RecommendationResult{}, err
	}
	s.record(metrics.OpHistoryQuery, time.Since(historyStart))

	recommendStart := time.Now()
	result := s.engine.Recommend(ctx, recommend.Request{
		Intent:   req.Intent,
		Location: req.Location,
		History:  places,
		Now:      req.Now,
	})
	s.record(metrics.OpRecommend, time.Since(recommendStart))

	if result.QualityMet || s.fallback == nil {
		return result, nil
	}

	s.logger.Warn("local recall below quality gate, consulting fallback",
		"predictor", s.fallback.Name(),
		"local_sections", len(result.Sections))

	fallbackStart := time.Now()
	predicted, err := s.fallback.Predict(ctx, req.Intent, req.Location)
	s.record(metrics.OpFallback, time.Since(fallbackStart))
	if err != nil {
		s.logger.Warn("fallback predictor failed, keeping local result",
			"predictor", s.fallback.Name(), "error", err)
		return result, nil
	}
	if predicted == nil || len(predicted.Sections) == 0 {
		return result, nil
	}

	return mergeFallback(result, *predicted), nil
}

func (s *RecallService) record(op string, d time.Duration) {
	if s.collector != nil {
		s.collector.RecordTiming(op, d)
	}
}

// mergeFallback appends predicted sections after the local ones, skipping
// predicted items whose ID already appears locally. QualityMet stays false:
// synthetic candidates do not satisfy the gate.
func mergeFallback(local, predicted models.RecommendationResult) models.RecommendationResult {
	seen := make(map[string]bool)
	for _, section := range local.Sections {
		for _, item := range section.Items {
			seen[item.ID] = true
		}
	}

	merged := local
	for _, section := range predicted.Sections {
		var items []models.ScoredCandidate
		for _, item := range section.Items {
			if !seen[item.ID] {
				items = append(items, item)
			}
		}
		if len(items) > 0 {
			merged.Sections = append(merged.Sections, models.Section{
				Title: section.Title,
				Items: items,
			})
		}
	}
	return merged
}
