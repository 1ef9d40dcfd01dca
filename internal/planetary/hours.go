package planetary

import (
	"math"
	"time"
)

const (
	// HoursPerHalf is the number of planetary hours in daylight and in night.
	HoursPerHalf = 12
	// HoursPerDay is the number of slots in a table.
	HoursPerDay = 2 * HoursPerHalf
)

// ComputeHours divides day into 12 day slots from sunrise and 12 night slots
// from sunset. Slot k is ruled by PlanetAt(k + startOffset). Times are in the
// day's UTC offset. No slots are returned on error.
func ComputeHours(day AstronomicalDay, startOffset int) ([]Slot, error) {
	if err := day.Validate(); err != nil {
		return nil, err
	}

	zone := day.Zone()
	sunrise := day.Sunrise.In(zone)
	sunset := day.Sunset.In(zone)
	dayLen := sunset.Sub(sunrise)
	nightLen := 24*time.Hour - dayLen

	slots := make([]Slot, 0, HoursPerDay)
	slots = appendHalf(slots, sunrise, dayLen, 0, startOffset, true)
	slots = appendHalf(slots, sunset, nightLen, HoursPerHalf, startOffset, false)
	return slots, nil
}

// appendHalf emits 12 equal slots over [anchor, anchor+span). Boundaries are
// taken from the anchor so the last slot ends exactly at anchor+span.
func appendHalf(slots []Slot, anchor time.Time, span time.Duration, first, startOffset int, daytime bool) []Slot {
	boundary := func(i int) time.Time {
		return anchor.Add(span * time.Duration(i) / HoursPerHalf)
	}
	for i := 0; i < HoursPerHalf; i++ {
		idx := first + i
		p := PlanetAt(idx + startOffset)
		slots = append(slots, Slot{
			Index:   idx,
			Start:   boundary(i),
			End:     boundary(i + 1),
			Planet:  p,
			Color:   p.Color(),
			Daytime: daytime,
		})
	}
	return slots
}

// NewHourTable computes the table for loc and day, choosing the start offset
// from mode.
func NewHourTable(loc Location, day AstronomicalDay, mode RulerMode) (HourTable, error) {
	offset := 0
	if mode == RulerWeekday {
		offset = WeekdayOffset(day.Date().Weekday())
	} else {
		mode = RulerSun
	}

	slots, err := ComputeHours(day, offset)
	if err != nil {
		return HourTable{}, err
	}
	return HourTable{
		Location:    loc,
		Day:         day,
		Ruler:       mode,
		StartOffset: offset,
		Slots:       slots,
	}, nil
}

// Resolve returns the slot with Start <= now < End. If now lies outside the
// table the last slot is returned. An empty table yields the zero Slot.
func Resolve(slots []Slot, now time.Time) Slot {
	if len(slots) == 0 {
		return Slot{}
	}
	for _, s := range slots {
		if s.Contains(now) {
			return s
		}
	}
	return slots[len(slots)-1]
}

// SyntheticDay is a placeholder day with sunrise at 06:00 and sunset at 18:00
// local time. Only the calendar fields of date are used.
func SyntheticDay(date time.Time, offset time.Duration) AstronomicalDay {
	zone := FixedZone(offset)
	midnight := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, zone)
	return AstronomicalDay{
		Sunrise:   midnight.Add(6 * time.Hour),
		Sunset:    midnight.Add(18 * time.Hour),
		UTCOffset: offset,
		Synthetic: true,
		Source:    "synthetic",
	}
}

// NominalOffset estimates a UTC offset from longitude as whole hours of 15 degrees.
func NominalOffset(longitude float64) time.Duration {
	return time.Duration(math.Round(longitude/15)) * time.Hour
}
