package service

import (
	"context"
	"errors"
	"testing"

	"github.com/raphaelgruber/wayword-go/internal/metrics"
	"github.com/raphaelgruber/wayword-go/internal/models"
	"github.com/raphaelgruber/wayword-go/internal/recommend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHistory struct {
	places []models.HistoricalPlace
	err    error
	limit  int
}

func (f *fakeHistory) Snapshot(_ context.Context, limit int) ([]models.HistoricalPlace, error) {
	f.limit = limit
	return f.places, f.err
}

type fakeEngine struct {
	result models.RecommendationResult
	got    recommend.Request
}

func (f *fakeEngine) Recommend(_ context.Context, req recommend.Request) models.RecommendationResult {
	f.got = req
	return f.result
}

type fakePredictor struct {
	result *models.RecommendationResult
	err    error
	calls  int
}

func (f *fakePredictor) Predict(context.Context, models.IntentProfile, *models.LatLng) (*models.RecommendationResult, error) {
	f.calls++
	return f.result, f.err
}

func (f *fakePredictor) Name() string { return "fake" }

func localResult(qualityMet bool, ids ...string) models.RecommendationResult {
	items := make([]models.ScoredCandidate, 0, len(ids))
	for _, id := range ids {
		items = append(items, models.ScoredCandidate{ID: id, Score: 0.5})
	}
	sections := []models.Section{}
	if len(items) > 0 {
		sections = append(sections, models.Section{Title: models.SectionMostLikely, Items: items})
	}
	return models.RecommendationResult{Sections: sections, QualityMet: qualityMet}
}

func TestRecallQualityMetSkipsFallback(t *testing.T) {
	engine := &fakeEngine{result: localResult(true, "place:1#a", "place:2#b")}
	predictor := &fakePredictor{result: &models.RecommendationResult{}}
	history := &fakeHistory{places: []models.HistoricalPlace{{ID: "place:1"}}}

	svc := NewRecallService(history, engine, predictor, nil, 100, nil)
	result, err := svc.Recall(context.Background(), RecallRequest{
		Intent: models.IntentProfile{Waiting: "waiting"},
	})
	require.NoError(t, err)

	assert.True(t, result.QualityMet)
	assert.Equal(t, 0, predictor.calls)
	assert.Equal(t, 100, history.limit)
	assert.Len(t, engine.got.History, 1)
}

func TestRecallFallbackOnLowQuality(t *testing.T) {
	engine := &fakeEngine{result: localResult(false, "place:1#a")}
	predictor := &fakePredictor{result: &models.RecommendationResult{
		Sections: []models.Section{{Title: models.SectionLikely, Items: []models.ScoredCandidate{
			{ID: "predicted:0", Score: 0.6, DisplayName: "Bakery"},
		}}},
	}}

	svc := NewRecallService(&fakeHistory{}, engine, predictor, nil, 100, nil)
	result, err := svc.Recall(context.Background(), RecallRequest{
		Intent: models.IntentProfile{Errands: "buy bread"},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, predictor.calls)
	require.Len(t, result.Sections, 2)
	assert.Equal(t, "Bakery", result.Sections[1].Items[0].DisplayName)
	assert.False(t, result.QualityMet, "synthetic candidates must not satisfy the gate")
}

func TestRecallFallbackDeduplicates(t *testing.T) {
	engine := &fakeEngine{result: localResult(false, "place:1#a")}
	predictor := &fakePredictor{result: &models.RecommendationResult{
		Sections: []models.Section{{Title: models.SectionLikely, Items: []models.ScoredCandidate{
			{ID: "place:1#a", Score: 0.6},
		}}},
	}}

	svc := NewRecallService(&fakeHistory{}, engine, predictor, nil, 100, nil)
	result, err := svc.Recall(context.Background(), RecallRequest{
		Intent: models.IntentProfile{Errands: "buy bread"},
	})
	require.NoError(t, err)

	// The only predicted item was a duplicate, so no section is appended.
	assert.Len(t, result.Sections, 1)
}

func TestRecallFallbackErrorKeepsLocal(t *testing.T) {
	engine := &fakeEngine{result: localResult(false, "place:1#a")}
	predictor := &fakePredictor{err: errors.New("model unavailable")}

	svc := NewRecallService(&fakeHistory{}, engine, predictor, nil, 100, nil)
	result, err := svc.Recall(context.Background(), RecallRequest{
		Intent: models.IntentProfile{Rest: "somewhere to sit"},
	})
	require.NoError(t, err)
	assert.Len(t, result.Sections, 1)
	assert.False(t, result.QualityMet)
}

func TestRecallNoFallbackConfigured(t *testing.T) {
	engine := &fakeEngine{result: localResult(false)}

	svc := NewRecallService(&fakeHistory{}, engine, nil, nil, 100, nil)
	result, err := svc.Recall(context.Background(), RecallRequest{
		Intent: models.IntentProfile{Social: "meeting friends"},
	})
	require.NoError(t, err)
	assert.Empty(t, result.Sections)
}

func TestRecallHistoryError(t *testing.T) {
	history := &fakeHistory{err: errors.New("connection lost")}
	engine := &fakeEngine{}

	svc := NewRecallService(history, engine, nil, nil, 100, nil)
	_, err := svc.Recall(context.Background(), RecallRequest{
		Intent: models.IntentProfile{Waiting: "waiting"},
	})
	require.Error(t, err)
}

func TestRecallRecordsMetrics(t *testing.T) {
	collector := metrics.NewCollector()
	engine := &fakeEngine{result: localResult(false)}
	predictor := &fakePredictor{result: &models.RecommendationResult{}}

	svc := NewRecallService(&fakeHistory{}, engine, predictor, collector, 100, nil)
	_, err := svc.Recall(context.Background(), RecallRequest{
		Intent: models.IntentProfile{Browsing: "window shopping"},
	})
	require.NoError(t, err)

	snap := collector.Snapshot()
	require.NotNil(t, snap.HistoryQuery)
	require.NotNil(t, snap.Recommend)
	require.NotNil(t, snap.Fallback)
	assert.Equal(t, int64(1), snap.Recommend.Count)
}
