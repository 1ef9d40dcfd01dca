package sources

import (
	"context"
	"fmt"
	"time"

	"github.com/nathan-osman/go-sunrise"

	"github.com/PartyShepherd/alchemelody/internal/planetary"
)

// SolarSource answers offline using the go-sunrise almanac. The UTC offset
// comes from a configured time zone, or from longitude when none is set.
type SolarSource struct {
	zone *time.Location
}

// NewSolarSource loads tz (an IANA name). An empty tz selects the nominal
// longitude offset.
func NewSolarSource(tz string) (*SolarSource, error) {
	if tz == "" {
		return &SolarSource{}, nil
	}
	zone, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("%w: solar time zone %q: %v", planetary.ErrConfiguration, tz, err)
	}
	return &SolarSource{zone: zone}, nil
}

func (s *SolarSource) Name() string {
	return NameSolar
}

func (s *SolarSource) Day(ctx context.Context, loc planetary.Location, date time.Time) (planetary.AstronomicalDay, error) {
	if err := ctx.Err(); err != nil {
		return planetary.AstronomicalDay{}, fmt.Errorf("%w: %v", planetary.ErrSourceUnavailable, err)
	}

	rise, set := sunrise.SunriseSunset(loc.Latitude, loc.Longitude, date.Year(), date.Month(), date.Day())
	if rise.IsZero() || set.IsZero() {
		return planetary.AstronomicalDay{}, invalidDay(NameSolar, "no sunrise or sunset at %s on %s",
			loc.Key(), date.Format("2006-01-02"))
	}

	offset := planetary.NominalOffset(loc.Longitude)
	if s.zone != nil {
		_, secs := rise.In(s.zone).Zone()
		offset = time.Duration(secs) * time.Second
	}
	zone := planetary.FixedZone(offset)

	return planetary.AstronomicalDay{
		Sunrise:   rise.In(zone),
		Sunset:    set.In(zone),
		UTCOffset: offset,
		Source:    NameSolar,
	}, nil
}
