package models

// LatLng is a WGS84 coordinate pair.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Zero reports whether the coordinate is the (0,0) null-island sentinel some
// upstream fixes produce. Such coordinates are treated as absent.
func (l LatLng) Zero() bool {
	return l.Lat == 0 && l.Lng == 0
}

// Moment is the smallest unit of historical learning content: a short
// display text plus its precomputed embedding. A nil Embedding means the
// moment was never vectorized; it is excluded from scoring, never treated
// as a zero vector.
type Moment struct {
	Text      string    `json:"text"`
	Embedding []float32 `json:"embedding,omitempty"`
}

// MomentGroup collects the moments of one category within a place.
type MomentGroup struct {
	Category string   `json:"category"`
	Moments  []Moment `json:"moments"`
}

// HistoricalPlace is a previously visited location and its learning
// moments. Most fields are optional; a place whose time of day cannot be
// resolved from TimeLabel, CreatedAt, or Hour is skipped entirely.
type HistoricalPlace struct {
	ID   string  `json:"id"`
	Name *string `json:"name,omitempty"`

	Location *LatLng `json:"location,omitempty"`

	// Hour is an explicit hour of day (0-23), the last-resort time source.
	Hour *int `json:"hour,omitempty"`

	// TimeLabel is a free-text clock label such as "8:30 AM".
	TimeLabel *string `json:"time_label,omitempty"`

	// CreatedAt is an RFC 3339 creation timestamp. Kept as a string so a
	// malformed value degrades this one place instead of failing a decode.
	CreatedAt *string `json:"created_at,omitempty"`

	// Context is a free-text description of the visit.
	Context *string `json:"context,omitempty"`

	Groups []MomentGroup `json:"groups,omitempty"`
}

// DisplayName returns the human-displayable name for the place, falling
// back to the context description.
func (p HistoricalPlace) DisplayName() string {
	if p.Name != nil && *p.Name != "" {
		return *p.Name
	}
	if p.Context != nil && *p.Context != "" {
		return *p.Context
	}
	return "Unknown place"
}

// WithOnlyMoment returns a copy of the place narrowed to a single moment in
// a single group, so a scored candidate is self-contained.
func (p HistoricalPlace) WithOnlyMoment(category string, m Moment) HistoricalPlace {
	narrowed := p
	narrowed.Groups = []MomentGroup{{Category: category, Moments: []Moment{m}}}
	return narrowed
}
