package planetary

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Location is a point on the Earth's surface in decimal degrees.
type Location struct {
	Latitude  float64 `json:"latitude" yaml:"latitude" db:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" yaml:"longitude" db:"longitude" validate:"gte=-180,lte=180"`
}

// Validate checks that the coordinates are within range.
func (l Location) Validate() error {
	if math.IsNaN(l.Latitude) || l.Latitude < -90 || l.Latitude > 90 {
		return fmt.Errorf("latitude %v out of range [-90, 90]", l.Latitude)
	}
	if math.IsNaN(l.Longitude) || l.Longitude < -180 || l.Longitude > 180 {
		return fmt.Errorf("longitude %v out of range [-180, 180]", l.Longitude)
	}
	return nil
}

// Key returns a canonical string key for the location.
func (l Location) Key() string {
	return strconv.FormatFloat(l.Latitude, 'f', 4, 64) + "," + strconv.FormatFloat(l.Longitude, 'f', 4, 64)
}

// AstronomicalDay holds sunrise and sunset of one calendar day at one location.
type AstronomicalDay struct {
	Sunrise   time.Time     `json:"sunrise" yaml:"sunrise"`
	Sunset    time.Time     `json:"sunset" yaml:"sunset"`
	UTCOffset time.Duration `json:"utc_offset" yaml:"utc_offset"`

	// Synthetic marks a placeholder day used when no source could answer.
	Synthetic bool   `json:"synthetic" yaml:"synthetic"`
	Source    string `json:"source,omitempty" yaml:"source,omitempty"`
}

// Length returns sunset - sunrise.
func (d AstronomicalDay) Length() time.Duration {
	return d.Sunset.Sub(d.Sunrise)
}

// Validate rejects missing timestamps and day lengths outside (0, 24h).
func (d AstronomicalDay) Validate() error {
	if d.Sunrise.IsZero() || d.Sunset.IsZero() {
		return fmt.Errorf("%w: sunrise and sunset are required", ErrInvalidAstronomicalDay)
	}
	length := d.Length()
	if length <= 0 {
		return fmt.Errorf("%w: sunset %s is not after sunrise %s", ErrInvalidAstronomicalDay,
			d.Sunset.Format(time.RFC3339), d.Sunrise.Format(time.RFC3339))
	}
	if length >= 24*time.Hour {
		return fmt.Errorf("%w: day length %s is not shorter than 24h", ErrInvalidAstronomicalDay, length)
	}
	return nil
}

// Zone returns a fixed zone for the day's UTC offset.
func (d AstronomicalDay) Zone() *time.Location {
	return FixedZone(d.UTCOffset)
}

// Date returns the local calendar date of sunrise at midnight.
func (d AstronomicalDay) Date() time.Time {
	r := d.Sunrise.In(d.Zone())
	return time.Date(r.Year(), r.Month(), r.Day(), 0, 0, 0, 0, r.Location())
}

// FixedZone returns a zone named like "UTC+05:30" for the given offset.
func FixedZone(offset time.Duration) *time.Location {
	secs := int(offset / time.Second)
	if secs == 0 {
		return time.UTC
	}
	sign := '+'
	abs := secs
	if secs < 0 {
		sign = '-'
		abs = -secs
	}
	name := fmt.Sprintf("UTC%c%02d:%02d", sign, abs/3600, (abs%3600)/60)
	return time.FixedZone(name, secs)
}

// Slot is one planetary hour.
type Slot struct {
	Index   int       `json:"index" yaml:"index"`
	Start   time.Time `json:"start" yaml:"start"`
	End     time.Time `json:"end" yaml:"end"`
	Planet  Planet    `json:"planet" yaml:"planet"`
	Color   string    `json:"color" yaml:"color"`
	Daytime bool      `json:"daytime" yaml:"daytime"`
}

// Duration returns End - Start.
func (s Slot) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// Contains reports whether Start <= t < End.
func (s Slot) Contains(t time.Time) bool {
	return !t.Before(s.Start) && t.Before(s.End)
}

// RulerMode selects which planet rules the first hour of the day.
type RulerMode string

const (
	// RulerSun always starts the cycle at the Sun.
	RulerSun RulerMode = "sun"
	// RulerWeekday starts the cycle at the ruler of the sunrise weekday.
	RulerWeekday RulerMode = "weekday"
)

// ParseRulerMode accepts "sun", "weekday" or the empty string (sun).
func ParseRulerMode(s string) (RulerMode, error) {
	switch RulerMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", RulerSun:
		return RulerSun, nil
	case RulerWeekday:
		return RulerWeekday, nil
	default:
		return "", fmt.Errorf("unknown ruler mode %q (want sun or weekday)", s)
	}
}

// HourTable is the full set of 24 planetary hours of one day.
type HourTable struct {
	Location    Location        `json:"location" yaml:"location"`
	Day         AstronomicalDay `json:"day" yaml:"day"`
	Ruler       RulerMode       `json:"ruler" yaml:"ruler"`
	StartOffset int             `json:"start_offset" yaml:"start_offset"`
	Slots       []Slot          `json:"slots" yaml:"slots"`
}

// Start returns the start of the first slot.
func (t HourTable) Start() time.Time {
	if len(t.Slots) == 0 {
		return time.Time{}
	}
	return t.Slots[0].Start
}

// End returns the end of the last slot, i.e. the next sunrise.
func (t HourTable) End() time.Time {
	if len(t.Slots) == 0 {
		return time.Time{}
	}
	return t.Slots[len(t.Slots)-1].End
}

// Covers reports whether now falls inside the table.
func (t HourTable) Covers(now time.Time) bool {
	return len(t.Slots) > 0 && !now.Before(t.Start()) && now.Before(t.End())
}

// Current returns the slot active at now.
func (t HourTable) Current(now time.Time) Slot {
	return Resolve(t.Slots, now)
}
