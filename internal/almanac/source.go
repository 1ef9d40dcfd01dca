package almanac

import (
	"context"
	"time"

	"github.com/PartyShepherd/alchemelody/internal/planetary"
)

// Source supplies sunrise, sunset and UTC offset for a location and a local
// calendar date (only the date's year, month and day are used).
type Source interface {
	Name() string
	Day(ctx context.Context, loc planetary.Location, date time.Time) (planetary.AstronomicalDay, error)
}

// LocationRepository persists the user's chosen location.
type LocationRepository interface {
	Get(ctx context.Context) (planetary.Location, error)
	Set(ctx context.Context, loc planetary.Location) error
}
