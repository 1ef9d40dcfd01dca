package almanac

import (
	"context"
	"time"

	"github.com/PartyShepherd/alchemelody/internal/planetary"
)

// Snapshot is the planetary state at one instant.
type Snapshot struct {
	At           time.Time                  `json:"at" yaml:"at"`
	Location     planetary.Location         `json:"location" yaml:"location"`
	Current      planetary.Slot             `json:"current" yaml:"current"`
	Moon         planetary.MoonPhase        `json:"moon_phase" yaml:"moon_phase"`
	MoonAge      float64                    `json:"moon_age_days" yaml:"moon_age_days"`
	Illumination float64                    `json:"illumination" yaml:"illumination"`
	Element      planetary.ElementalQuarter `json:"element" yaml:"element"`
	Synthetic    bool                       `json:"synthetic" yaml:"synthetic"`
	Table        planetary.HourTable        `json:"table" yaml:"table"`
}

// Now returns the snapshot for loc at now. The table is the planetary day
// containing now: before local sunrise that is the previous date's table.
func (s *Service) Now(ctx context.Context, loc planetary.Location, now time.Time, mode planetary.RulerMode) (Snapshot, error) {
	table, err := s.TableAt(ctx, loc, now, mode)
	if err != nil {
		return Snapshot{}, err
	}
	return NewSnapshot(table, now), nil
}

// TableAt returns the hour table whose planetary day contains now.
func (s *Service) TableAt(ctx context.Context, loc planetary.Location, now time.Time, mode planetary.RulerMode) (planetary.HourTable, error) {
	// The real offset is only known once a source answers.
	guess := localDate(now, planetary.FixedZone(planetary.NominalOffset(loc.Longitude)))
	table, err := s.Hours(ctx, loc, guess, mode)
	if err != nil {
		return planetary.HourTable{}, err
	}

	if actual := localDate(now, table.Day.Zone()); !actual.Equal(dateIn(guess, table.Day.Zone())) {
		if table, err = s.Hours(ctx, loc, actual, mode); err != nil {
			return planetary.HourTable{}, err
		}
	}

	if now.Before(table.Start()) {
		prev := table.Day.Date().AddDate(0, 0, -1)
		if table, err = s.Hours(ctx, loc, prev, mode); err != nil {
			return planetary.HourTable{}, err
		}
	}
	return table, nil
}

// NewSnapshot derives the overlays for now from table.
func NewSnapshot(table planetary.HourTable, now time.Time) Snapshot {
	local := now.In(table.Day.Zone())
	return Snapshot{
		At:           local,
		Location:     table.Location,
		Current:      table.Current(now),
		Moon:         planetary.PhaseAt(now),
		MoonAge:      planetary.MoonAge(now),
		Illumination: planetary.Illumination(now),
		Element:      planetary.QuarterOf(local),
		Synthetic:    table.Day.Synthetic,
		Table:        table,
	}
}

func localDate(t time.Time, zone *time.Location) time.Time {
	return dateIn(t.In(zone), zone)
}

func dateIn(t time.Time, zone *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, zone)
}
