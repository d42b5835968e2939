package recommend_test

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/raphaelgruber/wayword-go/internal/metrics"
	"github.com/raphaelgruber/wayword-go/internal/models"
	"github.com/raphaelgruber/wayword-go/internal/recommend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeVectorizer maps known texts to vectors; unknown texts fail.
type fakeVectorizer struct {
	vectors map[string][]float32
	calls   int
}

func (f *fakeVectorizer) Vector(_ context.Context, text, _ string) ([]float32, bool) {
	f.calls++
	v, ok := f.vectors[text]
	return v, ok
}

// unitVec returns a unit vector whose cosine against [1,0] equals sim.
func unitVec(sim float64) []float32 {
	return []float32{float32(sim), float32(math.Sqrt(1 - sim*sim))}
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

// nineAM is a fixed clock so the 90-minute window is predictable.
var nineAM = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func newEngine(t *testing.T, v recommend.Vectorizer, mutate ...func(*recommend.Config)) *recommend.Engine {
	t.Helper()
	cfg := recommend.DefaultConfig()
	for _, m := range mutate {
		m(&cfg)
	}
	e, err := recommend.NewEngine(cfg, v, nil)
	require.NoError(t, err)
	return e
}

func historyPlace(id string, hour int, moments ...models.Moment) models.HistoricalPlace {
	name := "Place " + id
	return models.HistoricalPlace{
		ID:     id,
		Name:   &name,
		Hour:   intPtr(hour),
		Groups: []models.MomentGroup{{Category: "general", Moments: moments}},
	}
}

func TestRecommendEmptyInputs(t *testing.T) {
	v := &fakeVectorizer{vectors: map[string][]float32{"walking": {1, 0}}}
	e := newEngine(t, v)
	intent := models.IntentProfile{Movement: "walking"}
	history := []models.HistoricalPlace{historyPlace("p1", 9, models.Moment{Text: "m", Embedding: unitVec(0.9)})}

	t.Run("no history", func(t *testing.T) {
		got := e.Recommend(context.Background(), recommend.Request{Intent: intent, Now: nineAM})
		assert.True(t, got.Empty())
		assert.False(t, got.QualityMet)
		assert.Equal(t, 0, v.calls, "nothing embedded on short-circuit")
	})

	t.Run("no intent", func(t *testing.T) {
		got := e.Recommend(context.Background(), recommend.Request{History: history, Now: nineAM})
		assert.True(t, got.Empty())
		assert.False(t, got.QualityMet)
	})
}

func TestRecommendAllIntentFieldsFailEmbedding(t *testing.T) {
	v := &fakeVectorizer{vectors: map[string][]float32{}}
	e := newEngine(t, v)

	got := e.Recommend(context.Background(), recommend.Request{
		Intent:  models.IntentProfile{Movement: "walking", Errands: "shopping"},
		History: []models.HistoricalPlace{historyPlace("p1", 9, models.Moment{Text: "m", Embedding: unitVec(0.9)})},
		Now:     nineAM,
	})
	assert.True(t, got.Empty())
	assert.False(t, got.QualityMet)
	assert.Equal(t, 2, v.calls, "both fields attempted")
}

func TestRecommendPartialFieldFailureDegrades(t *testing.T) {
	v := &fakeVectorizer{vectors: map[string][]float32{"walking": {1, 0}}}
	e := newEngine(t, v)

	got := e.Recommend(context.Background(), recommend.Request{
		Intent: models.IntentProfile{Movement: "walking", Errands: "unembeddable"},
		History: []models.HistoricalPlace{
			historyPlace("p1", 9,
				models.Moment{Text: "a", Embedding: unitVec(0.9)},
				models.Moment{Text: "b", Embedding: unitVec(0.8)},
			),
		},
		Now: nineAM,
	})
	assert.False(t, got.Empty(), "surviving field still scores")
	assert.True(t, got.QualityMet)
}

func TestRecommendTimeWindow(t *testing.T) {
	v := &fakeVectorizer{vectors: map[string][]float32{"walking": {1, 0}}}
	e := newEngine(t, v)
	moment := models.Moment{Text: "m", Embedding: unitVec(0.9)}

	inWindow := historyPlace("in", 9, moment)      // 9:00, exactly now
	edge := historyPlace("edge", 0, moment)        // midnight; 540 minutes away
	outOfWindow := historyPlace("out", 15, moment) // 6 hours away
	var noTime models.HistoricalPlace
	noTime.ID = "untimed"
	noTime.Groups = inWindow.Groups

	t.Run("only places inside the window score", func(t *testing.T) {
		got := e.Recommend(context.Background(), recommend.Request{
			Intent:  models.IntentProfile{Movement: "walking"},
			History: []models.HistoricalPlace{inWindow, edge, outOfWindow, noTime},
			Now:     nineAM,
		})
		require.False(t, got.Empty())
		all := append(got.MostLikely(), got.Likely()...)
		for _, c := range all {
			assert.Equal(t, "in", c.Place.ID)
		}
	})

	t.Run("window miss converges to fallback signal", func(t *testing.T) {
		got := e.Recommend(context.Background(), recommend.Request{
			Intent:  models.IntentProfile{Movement: "walking"},
			History: []models.HistoricalPlace{outOfWindow, noTime},
			Now:     nineAM,
		})
		assert.True(t, got.Empty())
		assert.False(t, got.QualityMet)
	})

	t.Run("window is circular across midnight", func(t *testing.T) {
		lateNight := historyPlace("late", 23, moment)
		halfPastMidnight := time.Date(2026, 3, 14, 0, 30, 0, 0, time.UTC)
		got := e.Recommend(context.Background(), recommend.Request{
			Intent:  models.IntentProfile{Movement: "walking"},
			History: []models.HistoricalPlace{lateNight},
			Now:     halfPastMidnight,
		})
		assert.False(t, got.Empty(), "23:00 is 90 minutes from 00:30 the circular way")
	})
}

func TestRecommendQualityGate(t *testing.T) {
	v := &fakeVectorizer{vectors: map[string][]float32{"walking": {1, 0}}}
	e := newEngine(t, v)

	t.Run("single quality candidate fails the gate", func(t *testing.T) {
		got := e.Recommend(context.Background(), recommend.Request{
			Intent:  models.IntentProfile{Movement: "walking"},
			History: []models.HistoricalPlace{historyPlace("p1", 9, models.Moment{Text: "m", Embedding: unitVec(0.9)})},
			Now:     nineAM,
		})
		assert.False(t, got.QualityMet, "one candidate is below the minimum-matches floor")
		assert.Len(t, got.MostLikely(), 1, "the section itself may be non-empty")
	})

	t.Run("two quality candidates pass", func(t *testing.T) {
		got := e.Recommend(context.Background(), recommend.Request{
			Intent: models.IntentProfile{Movement: "walking"},
			History: []models.HistoricalPlace{
				historyPlace("p1", 9, models.Moment{Text: "a", Embedding: unitVec(0.9)}),
				historyPlace("p2", 9, models.Moment{Text: "b", Embedding: unitVec(0.8)}),
			},
			Now: nineAM,
		})
		assert.True(t, got.QualityMet)
	})

	t.Run("sub-threshold candidates do not count", func(t *testing.T) {
		got := e.Recommend(context.Background(), recommend.Request{
			Intent: models.IntentProfile{Movement: "walking"},
			History: []models.HistoricalPlace{
				historyPlace("p1", 9, models.Moment{Text: "a", Embedding: unitVec(0.9)}),
				historyPlace("p2", 9, models.Moment{Text: "b", Embedding: unitVec(0.3)}),
			},
			Now: nineAM,
		})
		assert.False(t, got.QualityMet)
	})
}

func TestRecommendTiering(t *testing.T) {
	v := &fakeVectorizer{vectors: map[string][]float32{"walking": {1, 0}}}
	e := newEngine(t, v)

	var history []models.HistoricalPlace
	for i := 0; i < 7; i++ {
		sim := 0.90 - float64(i)*0.05 // 0.90 down to 0.60, all above 0.45
		history = append(history, historyPlace(
			fmt.Sprintf("p%d", i), 9,
			models.Moment{Text: fmt.Sprintf("moment %d", i), Embedding: unitVec(sim)},
		))
	}

	got := e.Recommend(context.Background(), recommend.Request{
		Intent:  models.IntentProfile{Movement: "walking"},
		History: history,
		Now:     nineAM,
	})

	require.True(t, got.QualityMet)
	require.Len(t, got.Sections, 2)
	assert.Equal(t, models.SectionMostLikely, got.Sections[0].Title)
	assert.Equal(t, models.SectionLikely, got.Sections[1].Title)
	assert.Len(t, got.MostLikely(), 5)
	assert.Len(t, got.Likely(), 2)

	all := append(got.MostLikely(), got.Likely()...)
	for i := 1; i < len(all); i++ {
		assert.GreaterOrEqual(t, all[i-1].Score, all[i].Score, "sections sorted descending across the split")
	}
}

func TestRecommendDiscardsBeyondSecondSection(t *testing.T) {
	v := &fakeVectorizer{vectors: map[string][]float32{"walking": {1, 0}}}
	e := newEngine(t, v)

	var history []models.HistoricalPlace
	for i := 0; i < 13; i++ {
		history = append(history, historyPlace(
			fmt.Sprintf("p%d", i), 9,
			models.Moment{Text: fmt.Sprintf("moment %d", i), Embedding: unitVec(0.9 - float64(i)*0.01)},
		))
	}

	got := e.Recommend(context.Background(), recommend.Request{
		Intent:  models.IntentProfile{Movement: "walking"},
		History: history,
		Now:     nineAM,
	})
	assert.Len(t, got.MostLikely(), 5)
	assert.Len(t, got.Likely(), 5)
	require.Len(t, got.Sections, 2, "remainder is discarded, not sectioned")
}

func TestRecommendProximityRanksCloserFirst(t *testing.T) {
	v := &fakeVectorizer{vectors: map[string][]float32{"walking": {1, 0}}}
	e := newEngine(t, v)
	user := models.LatLng{Lat: 48.0, Lng: 16.0}

	near := historyPlace("near", 9, models.Moment{Text: "same text near", Embedding: unitVec(0.6)})
	near.Location = &models.LatLng{Lat: 48.00045, Lng: 16.0} // ~50m
	far := historyPlace("far", 9, models.Moment{Text: "same text far", Embedding: unitVec(0.6)})
	far.Location = &models.LatLng{Lat: 48.009, Lng: 16.0} // ~1000m

	got := e.Recommend(context.Background(), recommend.Request{
		Intent:   models.IntentProfile{Movement: "walking"},
		Location: &user,
		History:  []models.HistoricalPlace{far, near},
		Now:      nineAM,
	})

	items := got.MostLikely()
	require.Len(t, items, 2)
	assert.Equal(t, "near", items[0].Place.ID)
	assert.InDelta(t, 0.2, items[0].Score-items[1].Score, 1e-6, "closer place scores exactly 0.2 higher")
}

func TestRecommendEndToEnd(t *testing.T) {
	// Intent "walking to work" against one place holding an on-topic and an
	// off-topic moment. Embeddings are precomputed against the intent
	// direction [1,0].
	v := &fakeVectorizer{vectors: map[string][]float32{
		"walking to work": {1, 0},
	}}
	e := newEngine(t, v)

	office := models.HistoricalPlace{
		ID:        "office",
		Name:      strPtr("Office"),
		TimeLabel: strPtr("8:45 AM"),
		Groups: []models.MomentGroup{{
			Category: "commute",
			Moments: []models.Moment{
				{Text: "Ordering coffee", Embedding: unitVec(0.12)},
				{Text: "Walking to the office", Embedding: unitVec(0.52)},
			},
		}},
	}

	got := e.Recommend(context.Background(), recommend.Request{
		Intent:  models.IntentProfile{Movement: "walking to work", NativeLanguage: "Spanish"},
		History: []models.HistoricalPlace{office},
		Now:     nineAM,
	})

	// The coffee moment clears the 0.1 floor but not the 0.45 quality bar;
	// only the walking moment survives, and one candidate fails the gate.
	items := got.MostLikely()
	require.Len(t, items, 1)
	assert.Equal(t, "Walking to the office", items[0].Place.Groups[0].Moments[0].Text)
	assert.Equal(t, models.FieldMovement, items[0].MatchedField)
	assert.Equal(t, "Office", items[0].DisplayName)
	assert.False(t, got.QualityMet)
}

func TestNewEngineRejectsInvalidConfig(t *testing.T) {
	cfg := recommend.DefaultConfig()
	cfg.SectionSize = 0
	_, err := recommend.NewEngine(cfg, &fakeVectorizer{}, nil)
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*recommend.Config)
		ok     bool
	}{
		{"defaults", func(*recommend.Config) {}, true},
		{"negative floor", func(c *recommend.Config) { c.NoiseFloor = -0.1 }, false},
		{"threshold below floor", func(c *recommend.Config) { c.QualityThreshold = 0.05 }, false},
		{"zero matches", func(c *recommend.Config) { c.MinQualityMatches = 0 }, false},
		{"zero window", func(c *recommend.Config) { c.TimeWindowMinutes = 0 }, false},
		{"oversized window", func(c *recommend.Config) { c.TimeWindowMinutes = 1000 }, false},
		{"inverted radii", func(c *recommend.Config) { c.ProximityFarMeters = 50 }, false},
		{"inverted boosts", func(c *recommend.Config) { c.ProximityNearBoost = 0.05 }, false},
		{"inverted time windows", func(c *recommend.Config) { c.TimeBoostNearMinutes = 500 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := recommend.DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestRecommendRecordsScoreTiming(t *testing.T) {
	v := &fakeVectorizer{vectors: map[string][]float32{"walking": {1, 0}}}
	collector := metrics.NewCollector()
	e := newEngine(t, v).WithCollector(collector)

	history := []models.HistoricalPlace{
		historyPlace("p1", 9, models.Moment{Text: "m", Embedding: unitVec(0.9)}),
	}
	e.Recommend(context.Background(), recommend.Request{
		Intent:  models.IntentProfile{Movement: "walking"},
		History: history,
		Now:     nineAM,
	})

	snap := collector.Snapshot()
	require.NotNil(t, snap.Score)
	assert.Equal(t, int64(1), snap.Score.Count)
}
