package recommend

import (
	"math"
	"strings"
	"testing"

	"github.com/raphaelgruber/wayword-go/internal/models"
)

// vecAt returns a unit vector whose cosine against [1,0] equals sim.
func vecAt(sim float64) []float32 {
	return []float32{float32(sim), float32(math.Sqrt(1 - sim*sim))}
}

func placeWithMoments(id string, moments ...models.Moment) models.HistoricalPlace {
	name := "Test place"
	return models.HistoricalPlace{
		ID:     id,
		Name:   &name,
		Hour:   intPtr(9),
		Groups: []models.MomentGroup{{Category: "general", Moments: moments}},
	}
}

func TestScoreSkipsMomentsWithoutEmbedding(t *testing.T) {
	s := NewScorer(DefaultConfig())
	place := placeWithMoments("place:1",
		models.Moment{Text: "no vector"},
		models.Moment{Text: "has vector", Embedding: vecAt(0.9)},
	)
	intent := IntentVectors{models.FieldMovement: {1, 0}}

	got := s.Score(place, intent, nil, 540)
	if len(got) != 1 {
		t.Fatalf("got %d candidates, want 1", len(got))
	}
	if got[0].Place.Groups[0].Moments[0].Text != "has vector" {
		t.Errorf("unembedded moment leaked into candidates: %+v", got[0])
	}
}

func TestScoreNoiseFloor(t *testing.T) {
	t.Run("prunes weak matches before boosts", func(t *testing.T) {
		s := NewScorer(DefaultConfig())
		place := placeWithMoments("place:1",
			models.Moment{Text: "noise", Embedding: vecAt(0.05)},
			models.Moment{Text: "signal", Embedding: vecAt(0.5)},
		)
		intent := IntentVectors{models.FieldMovement: {1, 0}}

		// Even a 0.2 proximity boost cannot rescue a sub-floor similarity.
		loc := models.LatLng{Lat: 48.0, Lng: 16.0}
		place.Location = &models.LatLng{Lat: 48.0, Lng: 16.0}

		got := s.Score(place, intent, &loc, 540)
		if len(got) != 1 {
			t.Fatalf("got %d candidates, want 1", len(got))
		}
		if got[0].Place.Groups[0].Moments[0].Text != "signal" {
			t.Errorf("wrong survivor: %+v", got[0])
		}
	})

	t.Run("floor is inclusive", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.NoiseFloor = 0
		s := NewScorer(cfg)
		// Orthogonal vectors put the similarity at exactly 0, right on
		// the floor, with no float32 rounding in play.
		place := placeWithMoments("place:1",
			models.Moment{Text: "at floor", Embedding: []float32{0, 1}},
			models.Moment{Text: "above floor", Embedding: []float32{1, 0}},
		)
		intent := IntentVectors{models.FieldMovement: {1, 0}}

		got := s.Score(place, intent, nil, 540)
		if len(got) != 1 {
			t.Fatalf("got %d candidates, want 1", len(got))
		}
		if got[0].Place.Groups[0].Moments[0].Text != "above floor" {
			t.Errorf("at-floor moment survived: %+v", got[0])
		}
	})
}

func TestScoreBestFieldAndTieBreak(t *testing.T) {
	s := NewScorer(DefaultConfig())
	place := placeWithMoments("place:1",
		models.Moment{Text: "walking to the office", Embedding: []float32{1, 0}},
	)

	t.Run("best field recorded", func(t *testing.T) {
		intent := IntentVectors{
			models.FieldMovement: vecAt(0.9),
			models.FieldErrands:  vecAt(0.3),
		}
		got := s.Score(place, intent, nil, 540)
		if len(got) != 1 {
			t.Fatalf("got %d candidates", len(got))
		}
		if got[0].MatchedField != models.FieldMovement {
			t.Errorf("matched field = %q, want movement", got[0].MatchedField)
		}
	})

	t.Run("exact tie goes to first field in canonical order", func(t *testing.T) {
		same := vecAt(0.8)
		intent := IntentVectors{
			models.FieldSocial:  same,
			models.FieldWaiting: same,
		}
		got := s.Score(place, intent, nil, 540)
		if len(got) != 1 {
			t.Fatalf("got %d candidates", len(got))
		}
		// waiting precedes social in the canonical field order.
		if got[0].MatchedField != models.FieldWaiting {
			t.Errorf("tie broke to %q, want waiting", got[0].MatchedField)
		}
	})
}

func TestScoreProximityBoost(t *testing.T) {
	s := NewScorer(DefaultConfig())
	user := models.LatLng{Lat: 48.0, Lng: 16.0}
	moment := models.Moment{Text: "ordering", Embedding: vecAt(0.5)}
	intent := IntentVectors{models.FieldMovement: {1, 0}}

	near := placeWithMoments("near", moment)
	near.Location = &models.LatLng{Lat: 48.00045, Lng: 16.0} // ~50m

	mid := placeWithMoments("mid", moment)
	mid.Location = &models.LatLng{Lat: 48.0027, Lng: 16.0} // ~300m

	far := placeWithMoments("far", moment)
	far.Location = &models.LatLng{Lat: 48.009, Lng: 16.0} // ~1000m

	nearScore := s.Score(near, intent, &user, 540)[0].Score
	midScore := s.Score(mid, intent, &user, 540)[0].Score
	farScore := s.Score(far, intent, &user, 540)[0].Score

	if d := nearScore - farScore; math.Abs(d-0.2) > 1e-6 {
		t.Errorf("near-far delta = %v, want exactly 0.2", d)
	}
	if d := midScore - farScore; math.Abs(d-0.1) > 1e-6 {
		t.Errorf("mid-far delta = %v, want exactly 0.1", d)
	}

	t.Run("zero coordinates never boost", func(t *testing.T) {
		nullIsland := placeWithMoments("null", moment)
		nullIsland.Location = &models.LatLng{}
		base := s.Score(nullIsland, intent, &user, 540)[0].Score
		if math.Abs(base-farScore) > 1e-6 {
			t.Errorf("null-island place boosted: %v vs %v", base, farScore)
		}
	})

	t.Run("no user fix never boosts", func(t *testing.T) {
		base := s.Score(near, intent, nil, 540)[0].Score
		if math.Abs(base-farScore) > 1e-6 {
			t.Errorf("boost applied without a user fix: %v", base)
		}
	})
}

func TestScoreTimeBoostDisabledByDefault(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.TimeBoostEnabled {
		t.Fatal("time boost must default to off")
	}

	s := NewScorer(cfg)
	place := placeWithMoments("place:1", models.Moment{Text: "m", Embedding: vecAt(0.5)})
	intent := IntentVectors{models.FieldMovement: {1, 0}}

	// Place hour is 9:00; now is 9:30. Were the boost on, this would add 0.15.
	got := s.Score(place, intent, nil, 9*60+30)
	if math.Abs(got[0].Score-0.5) > 1e-6 {
		t.Errorf("score = %v, want 0.5 with time boost off", got[0].Score)
	}
}

func TestScoreTimeBoostEnabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TimeBoostEnabled = true
	s := NewScorer(cfg)

	place := placeWithMoments("place:1", models.Moment{Text: "m", Embedding: vecAt(0.5)})
	intent := IntentVectors{models.FieldMovement: {1, 0}}

	tests := []struct {
		name       string
		nowMinutes int
		want       float64
	}{
		{"within two hours", 10 * 60, 0.5 + 0.15},
		{"within four hours", 12*60 + 30, 0.5 + 0.08},
		{"too far", 16 * 60, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Score(place, intent, nil, tt.nowMinutes)
			if math.Abs(got[0].Score-tt.want) > 1e-6 {
				t.Errorf("score = %v, want %v", got[0].Score, tt.want)
			}
		})
	}
}

func TestScoreCandidateIdentityAndNarrowing(t *testing.T) {
	s := NewScorer(DefaultConfig())
	place := models.HistoricalPlace{
		ID:   "place:1",
		Hour: intPtr(9),
		Groups: []models.MomentGroup{
			{Category: "ordering", Moments: []models.Moment{
				{Text: "a coffee please", Embedding: vecAt(0.6)},
				{Text: "the bill please", Embedding: vecAt(0.7)},
			}},
			{Category: "smalltalk", Moments: []models.Moment{
				{Text: "nice weather", Embedding: vecAt(0.8)},
			}},
		},
	}
	intent := IntentVectors{models.FieldSocial: {1, 0}}

	got := s.Score(place, intent, nil, 540)
	if len(got) != 3 {
		t.Fatalf("got %d candidates, want 3", len(got))
	}

	ids := map[string]bool{}
	for _, c := range got {
		if ids[c.ID] {
			t.Errorf("duplicate candidate ID %q", c.ID)
		}
		ids[c.ID] = true

		if len(c.Place.Groups) != 1 || len(c.Place.Groups[0].Moments) != 1 {
			t.Errorf("candidate %q not narrowed to one moment", c.ID)
		}
		if !strings.HasPrefix(c.ID, "place:1#") {
			t.Errorf("candidate ID %q lacks place prefix", c.ID)
		}
	}
}

func TestScoreNoUpperClamp(t *testing.T) {
	s := NewScorer(DefaultConfig())
	user := models.LatLng{Lat: 48.0, Lng: 16.0}
	place := placeWithMoments("place:1", models.Moment{Text: "m", Embedding: []float32{1, 0}})
	place.Location = &models.LatLng{Lat: 48.0001, Lng: 16.0}
	intent := IntentVectors{models.FieldMovement: {1, 0}}

	got := s.Score(place, intent, &user, 540)
	if got[0].Score <= 1.0 {
		t.Errorf("score = %v, want >1.0 (similarity 1.0 + near boost)", got[0].Score)
	}
}

func TestCandidateIDStableAndDistinct(t *testing.T) {
	a := candidateID("place:1", "ordering coffee")
	b := candidateID("place:1", "ordering coffee")
	c := candidateID("place:1", "ordering tea")
	d := candidateID("place:2", "ordering coffee")

	if a != b {
		t.Error("same inputs must produce the same ID")
	}
	if a == c || a == d {
		t.Error("different inputs must produce different IDs")
	}
}
