package models

// Section titles, in rank order.
const (
	SectionMostLikely = "MOST LIKELY"
	SectionLikely     = "LIKELY"
)

// ScoredCandidate is one ranked match: a place narrowed to the single
// moment that matched, the score it earned, and which intent field produced
// the best similarity. Candidates are created fresh per request and never
// persisted.
type ScoredCandidate struct {
	// ID is a composite of the place ID and a hash of the moment text,
	// unique across candidates from the same place.
	ID string `json:"id"`

	Place HistoricalPlace `json:"place"`

	Score float64 `json:"score"`

	MatchedField IntentField `json:"matched_field"`

	DisplayName string `json:"display_name"`
}

// Section is a labeled, rank-ordered slice of candidates.
type Section struct {
	Title string            `json:"title"`
	Items []ScoredCandidate `json:"items"`
}

// RecommendationResult is the immutable output of one recommendation
// request. When QualityMet is false the caller should discard Sections and
// fall back to the remote prediction service.
type RecommendationResult struct {
	Sections   []Section `json:"sections"`
	QualityMet bool      `json:"quality_met"`
}

// Empty reports whether no section holds any candidate.
func (r RecommendationResult) Empty() bool {
	for _, s := range r.Sections {
		if len(s.Items) > 0 {
			return false
		}
	}
	return true
}

// MostLikely returns the first section's items, or nil.
func (r RecommendationResult) MostLikely() []ScoredCandidate {
	if len(r.Sections) > 0 {
		return r.Sections[0].Items
	}
	return nil
}

// Likely returns the second section's items, or nil.
func (r RecommendationResult) Likely() []ScoredCandidate {
	if len(r.Sections) > 1 {
		return r.Sections[1].Items
	}
	return nil
}
