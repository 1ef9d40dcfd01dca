package planetary

import "errors"

var (
	// ErrInvalidAstronomicalDay is returned for missing or degenerate sunrise/sunset data.
	ErrInvalidAstronomicalDay = errors.New("invalid astronomical day")

	// ErrConfiguration is returned when a source lacks credentials or capability.
	ErrConfiguration = errors.New("astronomical source not configured")

	// ErrSourceUnavailable is returned when a source cannot be reached in time.
	ErrSourceUnavailable = errors.New("astronomical source unavailable")
)
