package planetary

import (
	"math"
	"time"
)

// SynodicMonth is the mean length of a lunation in days.
const SynodicMonth = 29.53058867

// ReferenceNewMoon is a known new moon used as the phase epoch.
var ReferenceNewMoon = time.Date(2000, time.January, 6, 18, 14, 0, 0, time.UTC)

// MoonPhase is one of eight named lunar phases.
type MoonPhase string

const (
	NewMoon        MoonPhase = "New Moon"
	WaxingCrescent MoonPhase = "Waxing Crescent"
	FirstQuarter   MoonPhase = "First Quarter"
	WaxingGibbous  MoonPhase = "Waxing Gibbous"
	FullMoon       MoonPhase = "Full Moon"
	WaningGibbous  MoonPhase = "Waning Gibbous"
	LastQuarter    MoonPhase = "Last Quarter"
	WaningCrescent MoonPhase = "Waning Crescent"
)

// MoonAge returns days elapsed since the last mean new moon, in [0, SynodicMonth).
func MoonAge(now time.Time) float64 {
	days := now.Sub(ReferenceNewMoon).Hours() / 24
	age := math.Mod(days, SynodicMonth)
	if age < 0 {
		age += SynodicMonth
	}
	return age
}

// MoonFraction returns the lunation fraction in [0, 1).
func MoonFraction(now time.Time) float64 {
	frac := MoonAge(now) / SynodicMonth
	if frac >= 1 {
		frac = 0
	}
	return frac
}

// PhaseAt estimates the moon phase at now.
func PhaseAt(now time.Time) MoonPhase {
	return phaseForFraction(MoonFraction(now))
}

// The cut points below are part of the output contract.
func phaseForFraction(frac float64) MoonPhase {
	switch {
	case frac < 0.03 || frac > 0.97:
		return NewMoon
	case frac < 0.25:
		return WaxingCrescent
	case frac < 0.27:
		return FirstQuarter
	case frac < 0.50:
		return WaxingGibbous
	case frac < 0.53:
		return FullMoon
	case frac < 0.75:
		return WaningGibbous
	case frac < 0.77:
		return LastQuarter
	default:
		return WaningCrescent
	}
}

// Illumination approximates the lit fraction of the disc at now, 0..1.
func Illumination(now time.Time) float64 {
	return (1 - math.Cos(2*math.Pi*MoonFraction(now))) / 2
}
