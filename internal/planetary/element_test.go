package planetary

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestQuarterAt(t *testing.T) {
	cases := map[int]ElementalQuarter{
		0: Earth, 5: Earth,
		6: Air, 11: Air,
		12: Fire, 17: Fire,
		18: Water, 23: Water,
		24: Earth, -1: Water,
	}
	for hour, want := range cases {
		assert.Equal(t, want, QuarterAt(hour), "hour %d", hour)
	}
}

func TestQuarterOfUsesOwnZone(t *testing.T) {
	utc := time.Date(2024, time.May, 1, 3, 0, 0, 0, time.UTC)
	assert.Equal(t, Earth, QuarterOf(utc))
	assert.Equal(t, Fire, QuarterOf(utc.In(FixedZone(10*time.Hour))))
}
