package planetary

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPhaseAtKnownDates(t *testing.T) {
	cases := []struct {
		at   time.Time
		want MoonPhase
	}{
		{ReferenceNewMoon, NewMoon},
		{time.Date(2024, time.March, 10, 9, 0, 0, 0, time.UTC), NewMoon},
		{time.Date(2024, time.March, 17, 12, 0, 0, 0, time.UTC), WaxingCrescent},
		{time.Date(2024, time.March, 25, 7, 0, 0, 0, time.UTC), FullMoon},
		// before the reference epoch
		{time.Date(1999, time.December, 25, 0, 0, 0, 0, time.UTC), WaningGibbous},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, PhaseAt(tc.at), tc.at.String())
	}
}

func TestPhaseBoundaries(t *testing.T) {
	cases := []struct {
		frac float64
		want MoonPhase
	}{
		{0, NewMoon},
		{0.0299, NewMoon},
		{0.03, WaxingCrescent},
		{0.2499, WaxingCrescent},
		{0.25, FirstQuarter},
		{0.2699, FirstQuarter},
		{0.27, WaxingGibbous},
		{0.4999, WaxingGibbous},
		{0.50, FullMoon},
		{0.5299, FullMoon},
		{0.53, WaningGibbous},
		{0.7499, WaningGibbous},
		{0.75, LastQuarter},
		{0.7699, LastQuarter},
		{0.77, WaningCrescent},
		{0.97, WaningCrescent},
		{0.9701, NewMoon},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, phaseForFraction(tc.frac), "frac %v", tc.frac)
	}
}

func TestPhaseAtIsPeriodic(t *testing.T) {
	period := time.Duration(SynodicMonth * 24 * float64(time.Hour))
	start := time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC)

	for h := 0; h < 30*24; h += 7 {
		at := start.Add(time.Duration(h) * time.Hour)
		if nearCut(MoonFraction(at)) {
			continue
		}
		assert.InDelta(t, MoonFraction(at), MoonFraction(at.Add(period)), 1e-6)
		assert.Equal(t, PhaseAt(at), PhaseAt(at.Add(period)), at.String())
		assert.Equal(t, PhaseAt(at), PhaseAt(at.Add(-3*period)), at.String())
	}
}

func nearCut(frac float64) bool {
	for _, c := range []float64{0, 0.03, 0.25, 0.27, 0.50, 0.53, 0.75, 0.77, 0.97, 1} {
		if frac > c-1e-4 && frac < c+1e-4 {
			return true
		}
	}
	return false
}

func TestMoonAgeRangeAndIllumination(t *testing.T) {
	for d := -400; d < 400; d += 13 {
		at := ReferenceNewMoon.AddDate(0, 0, d)
		age := MoonAge(at)
		assert.GreaterOrEqual(t, age, 0.0)
		assert.Less(t, age, SynodicMonth)
	}
	assert.InDelta(t, 0, Illumination(ReferenceNewMoon), 1e-9)
	full := ReferenceNewMoon.Add(time.Duration(SynodicMonth / 2 * 24 * float64(time.Hour)))
	assert.InDelta(t, 1, Illumination(full), 1e-6)
}
