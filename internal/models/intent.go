// Package models defines data structures for the Wayword recall engine.
package models

// IntentField names one facet of the user's current activity.
type IntentField string

// The fixed set of intent fields. Scoring iterates them in declaration
// order, so ties on similarity resolve to the earliest field listed here.
const (
	FieldMovement        IntentField = "movement"
	FieldWaiting         IntentField = "waiting"
	FieldFastConsumption IntentField = "fast_consumption"
	FieldSlowConsumption IntentField = "slow_consumption"
	FieldErrands         IntentField = "errands"
	FieldBrowsing        IntentField = "browsing"
	FieldRest            IntentField = "rest"
	FieldSocial          IntentField = "social"
	FieldEmergency       IntentField = "emergency"
	FieldSuggestedNeeds  IntentField = "suggested_needs"
)

// IntentFields lists every field in canonical order.
var IntentFields = []IntentField{
	FieldMovement,
	FieldWaiting,
	FieldFastConsumption,
	FieldSlowConsumption,
	FieldErrands,
	FieldBrowsing,
	FieldRest,
	FieldSocial,
	FieldEmergency,
	FieldSuggestedNeeds,
}

// IntentProfile describes what the user is doing right now. Each field is a
// short free-text description; empty fields are skipped during scoring.
type IntentProfile struct {
	Movement        string `json:"movement,omitempty"`
	Waiting         string `json:"waiting,omitempty"`
	FastConsumption string `json:"fast_consumption,omitempty"`
	SlowConsumption string `json:"slow_consumption,omitempty"`
	Errands         string `json:"errands,omitempty"`
	Browsing        string `json:"browsing,omitempty"`
	Rest            string `json:"rest,omitempty"`
	Social          string `json:"social,omitempty"`
	Emergency       string `json:"emergency,omitempty"`
	SuggestedNeeds  string `json:"suggested_needs,omitempty"`

	// NativeLanguage is the user's stored native-language display name
	// (e.g. "Spanish"). It is resolved to an embedding language code via
	// the language lookup, not used directly.
	NativeLanguage string `json:"native_language,omitempty"`
}

// Field returns the text for the named intent field.
func (p IntentProfile) Field(f IntentField) string {
	switch f {
	case FieldMovement:
		return p.Movement
	case FieldWaiting:
		return p.Waiting
	case FieldFastConsumption:
		return p.FastConsumption
	case FieldSlowConsumption:
		return p.SlowConsumption
	case FieldErrands:
		return p.Errands
	case FieldBrowsing:
		return p.Browsing
	case FieldRest:
		return p.Rest
	case FieldSocial:
		return p.Social
	case FieldEmergency:
		return p.Emergency
	case FieldSuggestedNeeds:
		return p.SuggestedNeeds
	}
	return ""
}

// Set writes the text for the named intent field. Unknown fields are ignored.
func (p *IntentProfile) Set(f IntentField, text string) {
	switch f {
	case FieldMovement:
		p.Movement = text
	case FieldWaiting:
		p.Waiting = text
	case FieldFastConsumption:
		p.FastConsumption = text
	case FieldSlowConsumption:
		p.SlowConsumption = text
	case FieldErrands:
		p.Errands = text
	case FieldBrowsing:
		p.Browsing = text
	case FieldRest:
		p.Rest = text
	case FieldSocial:
		p.Social = text
	case FieldEmergency:
		p.Emergency = text
	case FieldSuggestedNeeds:
		p.SuggestedNeeds = text
	}
}

// Empty reports whether no intent field carries any text.
func (p IntentProfile) Empty() bool {
	for _, f := range IntentFields {
		if p.Field(f) != "" {
			return false
		}
	}
	return true
}
