package almanac

import (
	"context"
	"errors"

	"github.com/PartyShepherd/alchemelody/internal/planetary"
)

var (
	// ErrInvalidLocation is returned when coordinates are out of range.
	ErrInvalidLocation = errors.New("invalid location")

	// ErrNoRepository is returned when location persistence is not configured.
	ErrNoRepository = errors.New("location repository not configured")
)

// Outcome labels a source result for logs and metrics.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, planetary.ErrInvalidAstronomicalDay):
		return "invalid"
	case errors.Is(err, planetary.ErrConfiguration):
		return "configuration"
	case errors.Is(err, planetary.ErrSourceUnavailable),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return "unavailable"
	default:
		return "error"
	}
}

// Degradable reports whether a synthetic day may stand in for err. Degenerate
// data is never papered over.
func Degradable(err error) bool {
	if err == nil || errors.Is(err, planetary.ErrInvalidAstronomicalDay) {
		return false
	}
	return errors.Is(err, planetary.ErrConfiguration) ||
		errors.Is(err, planetary.ErrSourceUnavailable) ||
		errors.Is(err, context.DeadlineExceeded)
}
