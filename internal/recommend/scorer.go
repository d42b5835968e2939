package recommend

import (
	"fmt"
	"hash/fnv"

	"github.com/raphaelgruber/wayword-go/internal/models"
)

// IntentVectors maps intent field names to their embedded vectors. All
// vectors must come from the same language context.
type IntentVectors map[models.IntentField][]float32

// Scorer produces scored candidates from one historical place. Scoring is
// pure: moments are expected to carry precomputed embeddings and the scorer
// never invokes the embedding provider.
type Scorer struct {
	cfg Config
}

// NewScorer creates a scorer with the given configuration.
func NewScorer(cfg Config) *Scorer {
	return &Scorer{cfg: cfg}
}

// Score walks every moment in every group of the place and emits one
// candidate per moment whose best field similarity clears the noise floor.
// nowMinutes is the current time of day; userLocation may be nil.
func (s *Scorer) Score(place models.HistoricalPlace, intent IntentVectors, userLocation *models.LatLng, nowMinutes int) []models.ScoredCandidate {
	if len(intent) == 0 {
		return nil
	}

	proximity := s.proximityBoost(place, userLocation)
	timeBoost := s.timeBoost(place, nowMinutes)

	var candidates []models.ScoredCandidate
	for _, group := range place.Groups {
		for _, moment := range group.Moments {
			if moment.Embedding == nil {
				continue
			}

			best := 0.0
			bestField := models.IntentField("")
			// Canonical field order makes exact ties deterministic: the
			// first field encountered wins. The choice is arbitrary, not
			// semantically meaningful.
			for _, f := range models.IntentFields {
				vec, ok := intent[f]
				if !ok {
					continue
				}
				if sim := cosineSimilarity(moment.Embedding, vec); sim > best {
					best = sim
					bestField = f
				}
			}

			// Pruned before boosts apply.
			if best <= s.cfg.NoiseFloor {
				continue
			}

			candidates = append(candidates, models.ScoredCandidate{
				ID:           candidateID(place.ID, moment.Text),
				Place:        place.WithOnlyMoment(group.Category, moment),
				Score:        best + proximity + timeBoost,
				MatchedField: bestField,
				DisplayName:  place.DisplayName(),
			})
		}
	}
	return candidates
}

func (s *Scorer) proximityBoost(place models.HistoricalPlace, userLocation *models.LatLng) float64 {
	if userLocation == nil || userLocation.Zero() {
		return 0
	}
	if place.Location == nil || place.Location.Zero() {
		return 0
	}
	switch d := distanceMeters(*userLocation, *place.Location); {
	case d < s.cfg.ProximityNearMeters:
		return s.cfg.ProximityNearBoost
	case d < s.cfg.ProximityFarMeters:
		return s.cfg.ProximityFarBoost
	default:
		return 0
	}
}

func (s *Scorer) timeBoost(place models.HistoricalPlace, nowMinutes int) float64 {
	if !s.cfg.TimeBoostEnabled {
		return 0
	}
	minutes, ok := resolveMinutes(place)
	if !ok {
		return 0
	}
	switch d := circularMinuteDistance(minutes, nowMinutes); {
	case d <= s.cfg.TimeBoostNearMinutes:
		return s.cfg.TimeBoostNear
	case d <= s.cfg.TimeBoostFarMinutes:
		return s.cfg.TimeBoostFar
	default:
		return 0
	}
}

// candidateID builds a composite identifier unique across candidates from
// the same place.
func candidateID(placeID, momentText string) string {
	h := fnv.New32a()
	h.Write([]byte(momentText))
	return fmt.Sprintf("%s#%08x", placeID, h.Sum32())
}
