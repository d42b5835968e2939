package recommend

import (
	"strings"
	"time"

	"github.com/raphaelgruber/wayword-go/internal/models"
)

const minutesPerDay = 24 * 60

// timeLabelLayouts are the clock-label formats tried for TimeLabel, most
// specific first.
var timeLabelLayouts = []string{
	"3:04 PM",
	"3:04PM",
	"15:04",
}

// resolveMinutes determines a place's time of day in minutes since
// midnight. The sources are tried in priority order: the free-text clock
// label, then the creation timestamp, then the explicit hour. The first
// parser that succeeds wins; a place yielding none is unusable for scoring.
func resolveMinutes(p models.HistoricalPlace) (int, bool) {
	if p.TimeLabel != nil {
		if m, ok := parseTimeLabel(*p.TimeLabel); ok {
			return m, true
		}
	}
	if p.CreatedAt != nil {
		if ts, err := time.Parse(time.RFC3339, strings.TrimSpace(*p.CreatedAt)); err == nil {
			return ts.Hour()*60 + ts.Minute(), true
		}
	}
	if p.Hour != nil && *p.Hour >= 0 && *p.Hour < 24 {
		return *p.Hour * 60, true
	}
	return 0, false
}

func parseTimeLabel(label string) (int, bool) {
	label = strings.ToUpper(strings.TrimSpace(label))
	for _, layout := range timeLabelLayouts {
		if ts, err := time.Parse(layout, label); err == nil {
			return ts.Hour()*60 + ts.Minute(), true
		}
	}
	return 0, false
}

// circularMinuteDistance returns the shorter way around the clock between
// two minutes-since-midnight values, so 23:30 and 00:30 are 60 apart.
func circularMinuteDistance(a, b int) int {
	d := a - b
	if d < 0 {
		d = -d
	}
	if wrapped := minutesPerDay - d; wrapped < d {
		return wrapped
	}
	return d
}
