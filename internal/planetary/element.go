package planetary

import "time"

// ElementalQuarter is one of four six-hour divisions of the day.
type ElementalQuarter string

const (
	Earth ElementalQuarter = "Earth"
	Air   ElementalQuarter = "Air"
	Fire  ElementalQuarter = "Fire"
	Water ElementalQuarter = "Water"
)

// QuarterAt classifies a local hour of day. Hours outside 0..23 wrap.
func QuarterAt(hour int) ElementalQuarter {
	hour = ((hour % 24) + 24) % 24
	switch {
	case hour < 6:
		return Earth
	case hour < 12:
		return Air
	case hour < 18:
		return Fire
	default:
		return Water
	}
}

// QuarterOf classifies t by its hour in t's own location.
func QuarterOf(t time.Time) ElementalQuarter {
	return QuarterAt(t.Hour())
}
