// Package recommend implements the on-device recall engine: field-wise
// semantic scoring of historical moments, time-window filtering, proximity
// boosting, tiered result assembly, and the quality gate that decides
// whether local results are trustworthy.
package recommend

import "fmt"

// Config holds every threshold and boost toggle of the engine. Zero values
// are invalid; start from DefaultConfig.
type Config struct {
	// NoiseFloor discards a moment whose best similarity is at or below
	// this value, before any boost applies.
	NoiseFloor float64 `yaml:"noise_floor"`

	// QualityThreshold keeps only candidates scoring strictly above it.
	QualityThreshold float64 `yaml:"quality_threshold"`

	// MinQualityMatches is the quality gate: fewer quality candidates than
	// this and the result signals the caller to fall back remotely.
	MinQualityMatches int `yaml:"min_quality_matches"`

	// TimeWindowMinutes is the circular distance from "now" within which a
	// place's time of day is still considered relevant.
	TimeWindowMinutes int `yaml:"time_window_minutes"`

	// SectionSize caps each result section.
	SectionSize int `yaml:"section_size"`

	// Proximity boost: flat additions when the place is within the near or
	// far radius of the user's fix.
	ProximityNearMeters float64 `yaml:"proximity_near_meters"`
	ProximityNearBoost  float64 `yaml:"proximity_near_boost"`
	ProximityFarMeters  float64 `yaml:"proximity_far_meters"`
	ProximityFarBoost   float64 `yaml:"proximity_far_boost"`

	// Time-of-day boost. Off by default; the coefficients stay fixed even
	// when disabled so enabling it is a one-flag change.
	TimeBoostEnabled     bool    `yaml:"time_boost_enabled"`
	TimeBoostNearMinutes int     `yaml:"time_boost_near_minutes"`
	TimeBoostNear        float64 `yaml:"time_boost_near"`
	TimeBoostFarMinutes  int     `yaml:"time_boost_far_minutes"`
	TimeBoostFar         float64 `yaml:"time_boost_far"`
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		NoiseFloor:        0.1,
		QualityThreshold:  0.45,
		MinQualityMatches: 2,
		TimeWindowMinutes: 90,
		SectionSize:       5,

		ProximityNearMeters: 100,
		ProximityNearBoost:  0.2,
		ProximityFarMeters:  500,
		ProximityFarBoost:   0.1,

		TimeBoostEnabled:     false,
		TimeBoostNearMinutes: 120,
		TimeBoostNear:        0.15,
		TimeBoostFarMinutes:  240,
		TimeBoostFar:         0.08,
	}
}

// Validate checks internal consistency.
func (c Config) Validate() error {
	if c.NoiseFloor < 0 || c.NoiseFloor >= 1 {
		return fmt.Errorf("noise floor %v out of range [0,1)", c.NoiseFloor)
	}
	if c.QualityThreshold <= c.NoiseFloor {
		return fmt.Errorf("quality threshold %v must exceed noise floor %v", c.QualityThreshold, c.NoiseFloor)
	}
	if c.MinQualityMatches < 1 {
		return fmt.Errorf("min quality matches %d must be at least 1", c.MinQualityMatches)
	}
	if c.TimeWindowMinutes <= 0 || c.TimeWindowMinutes > 720 {
		return fmt.Errorf("time window %d minutes out of range (0,720]", c.TimeWindowMinutes)
	}
	if c.SectionSize < 1 {
		return fmt.Errorf("section size %d must be at least 1", c.SectionSize)
	}
	if c.ProximityNearMeters >= c.ProximityFarMeters {
		return fmt.Errorf("near radius %vm must be below far radius %vm", c.ProximityNearMeters, c.ProximityFarMeters)
	}
	if c.ProximityNearBoost < c.ProximityFarBoost {
		return fmt.Errorf("near boost %v must be at least far boost %v", c.ProximityNearBoost, c.ProximityFarBoost)
	}
	if c.TimeBoostNearMinutes >= c.TimeBoostFarMinutes {
		return fmt.Errorf("time boost near window %dm must be below far window %dm", c.TimeBoostNearMinutes, c.TimeBoostFarMinutes)
	}
	return nil
}
